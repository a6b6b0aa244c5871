// Package handlers exposes the game over HTTP and WebSocket.
package handlers

import (
	"net/http"
	"slices"
	"time"

	"github.com/aaronzipp/famous-spy/internal/auth"
	"github.com/aaronzipp/famous-spy/internal/game"
	"github.com/aaronzipp/famous-spy/internal/session"
	"github.com/aaronzipp/famous-spy/internal/store"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// TokenHeader carries the identity token on HTTP requests
const TokenHeader = "x-player-token"

// Options holds the transport settings of the handlers
type Options struct {
	AllowedOrigins []string
	PublicURL      string
	RateLimit      int
	RateWindow     time.Duration
	SendTimeout    time.Duration
}

// Handler holds shared application dependencies
type Handler struct {
	rooms    *store.Registry
	engine   *game.Engine
	tokens   *auth.TokenManager
	sessions *session.Tracker
	log      zerolog.Logger
	opts     Options
	upgrader websocket.Upgrader
	now      func() time.Time
}

// New creates the handler set
func New(rooms *store.Registry, engine *game.Engine, tokens *auth.TokenManager, sessions *session.Tracker, log zerolog.Logger, opts Options) *Handler {
	if opts.RateLimit <= 0 || opts.RateWindow <= 0 {
		opts.RateLimit, opts.RateWindow = 120, time.Minute
	}
	if opts.SendTimeout <= 0 {
		opts.SendTimeout = time.Second
	}
	h := &Handler{
		rooms:    rooms,
		engine:   engine,
		tokens:   tokens,
		sessions: sessions,
		log:      log,
		opts:     opts,
		now:      time.Now,
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

// Router builds the gin engine with every route mounted
func (h *Handler) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), h.requestLogger())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     h.opts.AllowedOrigins,
		AllowCredentials: true,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{
			"Content-Type",
			TokenHeader,
			"Upgrade",
			"Connection",
			"Sec-WebSocket-Key",
			"Sec-WebSocket-Version",
			"Sec-WebSocket-Extensions",
			"Sec-WebSocket-Protocol",
		},
		MaxAge: 12 * time.Hour,
	}))

	r.GET("/health", h.HandleHealth)

	limiter := newIPLimiter(h.opts.RateLimit, h.opts.RateWindow)
	limited := r.Group("", limiter.Middleware())

	api := limited.Group("/api/v1/rooms")
	api.POST("/create", h.HandleCreateRoom)
	api.POST("/join", h.HandleJoinRoom)
	api.POST("/next-round", h.HandleNextRound)
	api.GET("/:code/state", h.HandleRoomState)
	api.GET("/:code/qr.png", h.HandleRoomQR)

	limited.GET("/rooms/ws", h.HandleWebSocket)
	return r
}

// HandleHealth reports liveness
func (h *Handler) HandleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "rooms": h.rooms.Len()})
}

func (h *Handler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	return origin == "" || slices.Contains(h.opts.AllowedOrigins, origin)
}

func (h *Handler) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		h.log.Debug().
			Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Int("status", c.Writer.Status()).
			Dur("took", time.Since(start)).
			Str("ip", c.ClientIP()).
			Msg("request")
	}
}
