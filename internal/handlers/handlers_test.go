package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/aaronzipp/famous-spy/internal/auth"
	"github.com/aaronzipp/famous-spy/internal/famous"
	"github.com/aaronzipp/famous-spy/internal/game"
	"github.com/aaronzipp/famous-spy/internal/models"
	"github.com/aaronzipp/famous-spy/internal/session"
	"github.com/aaronzipp/famous-spy/internal/store"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testOrigin = "http://localhost:5173"

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

type testServer struct {
	reg     *store.Registry
	tokens  *auth.TokenManager
	tracker *session.Tracker
	router  *gin.Engine
}

func newTestServer(t *testing.T, opts Options) *testServer {
	t.Helper()
	catalog, err := famous.Load()
	require.NoError(t, err)

	if opts.AllowedOrigins == nil {
		opts.AllowedOrigins = []string{testOrigin}
	}
	if opts.PublicURL == "" {
		opts.PublicURL = testOrigin
	}

	reg := store.NewRegistry()
	tokens := auth.NewTokenManager("handler-secret", time.Hour)
	tracker := session.NewTracker(reg, tokens, zerolog.Nop())
	h := New(reg, game.NewEngine(reg, catalog), tokens, tracker, zerolog.Nop(), opts)
	return &testServer{reg: reg, tokens: tokens, tracker: tracker, router: h.Router()}
}

func (s *testServer) do(method, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set(TokenHeader, token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *testServer) create(t *testing.T, nickname string) roomResponse {
	t.Helper()
	w := s.do(http.MethodPost, "/api/v1/rooms/create", `{"nickname":"`+nickname+`"}`, "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var resp roomResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func (s *testServer) join(t *testing.T, code, nickname string) roomResponse {
	t.Helper()
	w := s.do(http.MethodPost, "/api/v1/rooms/join", `{"code":"`+code+`","nickname":"`+nickname+`"}`, "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var resp roomResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) errorResponse {
	t.Helper()
	var resp errorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestHandleCreateRoom(t *testing.T) {
	s := newTestServer(t, Options{})

	resp := s.create(t, "  Ana  ")

	assert.Len(t, resp.Code, game.RoomCodeLength)
	assert.Equal(t, "Ana", resp.Player.Nickname)
	assert.True(t, resp.Player.IsHost)

	claims, err := s.tokens.Verify(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, resp.Player.ID, claims.PlayerID)
	assert.True(t, claims.IsHost)
	room, ok := s.reg.GetByCode(resp.Code)
	require.True(t, ok)
	assert.Equal(t, room.ID, claims.RoomID)
}

func TestHandleCreateRoom_Rejected(t *testing.T) {
	testCases := []struct {
		description  string
		body         string
		expectedCode int
		expectedErr  string
	}{
		{"non json request", `{`, http.StatusBadRequest, errInvalidRequest},
		{"missing nickname", `{}`, http.StatusBadRequest, errInvalidRequest},
		{"too short", `{"nickname":"A"}`, http.StatusBadRequest, errInvalidRequest},
		{"too long", `{"nickname":"` + strings.Repeat("a", 25) + `"}`, http.StatusBadRequest, errInvalidRequest},
		{"only markup", `{"nickname":"<{}>"}`, http.StatusBadRequest, game.ErrInvalidNickname.Code},
	}

	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			s := newTestServer(t, Options{})

			w := s.do(http.MethodPost, "/api/v1/rooms/create", tc.body, "")

			assert.Equal(t, tc.expectedCode, w.Code)
			assert.Equal(t, tc.expectedErr, decodeError(t, w).Error)
			assert.Zero(t, s.reg.Len())
		})
	}
}

func TestHandleJoinRoom(t *testing.T) {
	s := newTestServer(t, Options{})
	host := s.create(t, "Ana")

	resp := s.join(t, strings.ToLower(host.Code), "Beto")

	assert.Equal(t, host.Code, resp.Code)
	assert.False(t, resp.Player.IsHost)
	claims, err := s.tokens.Verify(resp.Token)
	require.NoError(t, err)
	assert.False(t, claims.IsHost)
}

func TestHandleJoinRoom_Rejected(t *testing.T) {
	s := newTestServer(t, Options{})
	host := s.create(t, "Ana")

	testCases := []struct {
		description  string
		body         string
		expectedCode int
		expectedErr  string
	}{
		{"wrong code length", `{"code":"ABC","nickname":"Beto"}`, http.StatusBadRequest, errInvalidRequest},
		{"ambiguous characters", `{"code":"ABCD10","nickname":"Beto"}`, http.StatusBadRequest, game.ErrInvalidCode.Code},
		{"unknown room", `{"code":"ZZZZZZ","nickname":"Beto"}`, http.StatusNotFound, game.ErrRoomNotFound.Code},
		{"duplicate nickname", `{"code":"` + host.Code + `","nickname":"ANA"}`, http.StatusConflict, game.ErrNicknameTaken.Code},
	}

	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			w := s.do(http.MethodPost, "/api/v1/rooms/join", tc.body, "")

			assert.Equal(t, tc.expectedCode, w.Code)
			assert.Equal(t, tc.expectedErr, decodeError(t, w).Error)
		})
	}
}

func TestHandleJoinRoom_Full(t *testing.T) {
	s := newTestServer(t, Options{RateLimit: 100, RateWindow: time.Second})
	host := s.create(t, "Host")
	for i := 1; i < game.MaxPlayers; i++ {
		s.join(t, host.Code, "Player "+string(rune('A'+i)))
	}

	w := s.do(http.MethodPost, "/api/v1/rooms/join", `{"code":"`+host.Code+`","nickname":"Late"}`, "")

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, game.ErrRoomFull.Code, decodeError(t, w).Error)
}

func TestHandleNextRound(t *testing.T) {
	s := newTestServer(t, Options{})
	host := s.create(t, "Ana")
	beto := s.join(t, host.Code, "Beto")
	body := `{"code":"` + host.Code + `"}`

	w := s.do(http.MethodPost, "/api/v1/rooms/next-round", body, host.Token)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, game.ErrNotEnoughPlayers.Code, decodeError(t, w).Error)

	s.join(t, host.Code, "Caro")

	w = s.do(http.MethodPost, "/api/v1/rooms/next-round", body, host.Token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.JSONEq(t, `{"ok":true,"round":1}`, w.Body.String())

	w = s.do(http.MethodPost, "/api/v1/rooms/next-round", body, host.Token)
	assert.JSONEq(t, `{"ok":true,"round":2}`, w.Body.String())

	w = s.do(http.MethodPost, "/api/v1/rooms/next-round", body, beto.Token)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, game.ErrNotHost.Code, decodeError(t, w).Error)

	room, _ := s.reg.GetByCode(host.Code)
	assert.Equal(t, 2, room.CurrentRound)
	assert.Len(t, room.RoundHistory, 2)
}

func TestHandleNextRound_Rejected(t *testing.T) {
	s := newTestServer(t, Options{})
	host := s.create(t, "Ana")
	body := `{"code":"` + host.Code + `"}`

	stale, err := s.tokens.Issue(auth.Claims{RoomID: "gone", PlayerID: host.Player.ID, IsHost: true}, time.Now())
	require.NoError(t, err)

	testCases := []struct {
		description  string
		body         string
		token        string
		expectedCode int
		expectedErr  string
	}{
		{"missing token", body, "", http.StatusUnauthorized, game.ErrUnauthenticated.Code},
		{"garbage token", body, "nope", http.StatusUnauthorized, game.ErrUnauthenticated.Code},
		{"room no longer exists", body, stale, http.StatusUnauthorized, game.ErrUnauthenticated.Code},
		{"bad body", `{"code":1}`, host.Token, http.StatusBadRequest, errInvalidRequest},
		{"unknown code", `{"code":"ZZZZZZ"}`, host.Token, http.StatusNotFound, game.ErrRoomNotFound.Code},
	}

	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			w := s.do(http.MethodPost, "/api/v1/rooms/next-round", tc.body, tc.token)

			assert.Equal(t, tc.expectedCode, w.Code)
			assert.Equal(t, tc.expectedErr, decodeError(t, w).Error)
		})
	}
}

func TestHandleRoomState(t *testing.T) {
	s := newTestServer(t, Options{})
	host := s.create(t, "Ana")
	other := s.create(t, "Zoe")
	s.join(t, host.Code, "Beto")

	w := s.do(http.MethodGet, "/api/v1/rooms/"+strings.ToLower(host.Code)+"/state", "", host.Token)
	require.Equal(t, http.StatusOK, w.Code)
	var state models.RoomState
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &state))
	assert.Equal(t, host.Code, state.Code)
	assert.Equal(t, models.StatusWaiting, state.Status)
	assert.Len(t, state.Players, 2)
	assert.NotContains(t, w.Body.String(), `"current"`)

	w = s.do(http.MethodGet, "/api/v1/rooms/"+other.Code+"/state", "", host.Token)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, game.ErrRoomAccessDenied.Code, decodeError(t, w).Error)

	stale, err := s.tokens.Issue(auth.Claims{RoomID: "gone", PlayerID: host.Player.ID}, time.Now())
	require.NoError(t, err)
	w = s.do(http.MethodGet, "/api/v1/rooms/"+host.Code+"/state", "", stale)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(http.MethodGet, "/api/v1/rooms/"+host.Code+"/state", "", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestHandleRoomQR(t *testing.T) {
	s := newTestServer(t, Options{})
	host := s.create(t, "Ana")

	w := s.do(http.MethodGet, "/api/v1/rooms/"+host.Code+"/qr.png", "", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
	assert.True(t, strings.HasPrefix(w.Body.String(), "\x89PNG"))

	w = s.do(http.MethodGet, "/api/v1/rooms/ZZZZZZ/qr.png", "", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(http.MethodGet, "/api/v1/rooms/bad/qr.png", "", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleHealth(t *testing.T) {
	s := newTestServer(t, Options{})
	s.create(t, "Ana")

	w := s.do(http.MethodGet, "/health", "", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok","rooms":1}`, w.Body.String())
}

func TestRateLimit(t *testing.T) {
	s := newTestServer(t, Options{RateLimit: 2, RateWindow: time.Minute})

	for range 2 {
		w := s.do(http.MethodPost, "/api/v1/rooms/create", `{}`, "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	}
	w := s.do(http.MethodPost, "/api/v1/rooms/create", `{}`, "")

	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, errRateLimited, decodeError(t, w).Error)

	// health checks are never throttled
	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, "/health", "", "").Code)
}

func TestIPLimiter_RefillsAndSweeps(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	l := newIPLimiter(2, time.Minute)
	l.now = func() time.Time { return now }

	assert.True(t, l.allow("a"))
	assert.True(t, l.allow("a"))
	assert.False(t, l.allow("a"))
	assert.True(t, l.allow("b"), "limits are per address")

	now = now.Add(30 * time.Second)
	assert.True(t, l.allow("a"))

	now = now.Add(2 * time.Minute)
	l.allow("c")
	assert.NotContains(t, l.visitors, "b")
}

func TestCORS(t *testing.T) {
	s := newTestServer(t, Options{})

	preflight := func(origin string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodOptions, "/api/v1/rooms/create", nil)
		req.Header.Set("Origin", origin)
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)
		req.Header.Set("Access-Control-Request-Headers", TokenHeader)
		w := httptest.NewRecorder()
		s.router.ServeHTTP(w, req)
		return w
	}

	w := preflight(testOrigin)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, testOrigin, w.Header().Get("Access-Control-Allow-Origin"))

	w = preflight("https://evil.example")
	assert.Equal(t, http.StatusForbidden, w.Code)
}
