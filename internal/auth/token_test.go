package auth_test

import (
	"encoding/base64"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/aaronzipp/famous-spy/internal/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "test-secret-that-nobody-should-reuse"

func TestIssue(t *testing.T) {
	m := auth.NewTokenManager(secret, time.Hour)
	now := time.Now()

	token, err := m.Issue(auth.Claims{RoomID: "room-1", PlayerID: "player-1", IsHost: true}, now)
	require.NoError(t, err)

	parts := strings.Split(token, ".")
	require.Len(t, parts, 3)
	head, err := base64.RawURLEncoding.DecodeString(parts[0])
	require.NoError(t, err)
	body, err := base64.RawURLEncoding.DecodeString(parts[1])
	require.NoError(t, err)

	assert.JSONEq(t, `{"alg":"HS256","typ":"JWT"}`, string(head))
	assert.JSONEq(t, fmt.Sprintf(`{"roomId":"room-1","playerId":"player-1","isHost":true,"iat":%d,"exp":%d}`,
		now.Unix(), now.Add(time.Hour).Unix()), string(body))
}

func TestVerify(t *testing.T) {
	m := auth.NewTokenManager(secret, 2*time.Hour)
	claims := auth.Claims{RoomID: "room-1", PlayerID: "player-1"}

	token, err := m.Issue(claims, time.Now().Add(-time.Hour))
	require.NoError(t, err)

	got, err := m.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, claims, got)

	parts := strings.Split(token, ".")

	testCases := []struct {
		name  string
		token string
		err   error
	}{
		{"tampered signature", token + "x", auth.ErrInvalidSignature},
		{"other secret", mustIssue(t, auth.NewTokenManager("other", time.Hour), claims), auth.ErrInvalidSignature},
		{"ES512 header", "eyJhbGciOiJFUzUxMiIsInR5cCI6IkpXVCJ9." + parts[1] + "." + parts[2], auth.ErrInvalidSigningAlg},
		{"none alg", "eyJhbGciOiJub25lIiwidHlwIjoiSldUIn0." + parts[1] + ".", auth.ErrInvalidSigningAlg},
		{"garbage", "not-a-token", auth.ErrCorruptedToken},
		{"empty", "", auth.ErrCorruptedToken},
		{"missing ids", mustIssue(t, m, auth.Claims{}), auth.ErrCorruptedToken},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := m.Verify(tc.token)
			assert.ErrorIs(t, err, tc.err)
			assert.ErrorIs(t, err, auth.ErrInvalidToken)
		})
	}
}

func TestVerify_Expired(t *testing.T) {
	m := auth.NewTokenManager(secret, 2*time.Hour)

	token, err := m.Issue(auth.Claims{RoomID: "r", PlayerID: "p"}, time.Now().Add(-3*time.Hour))
	require.NoError(t, err)

	_, err = m.Verify(token)
	assert.ErrorIs(t, err, auth.ErrExpiredToken)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func mustIssue(t *testing.T, m *auth.TokenManager, claims auth.Claims) string {
	t.Helper()
	token, err := m.Issue(claims, time.Now())
	require.NoError(t, err)
	return token
}
