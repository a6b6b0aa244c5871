package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aaronzipp/famous-spy/internal/auth"
	"github.com/aaronzipp/famous-spy/internal/config"
	"github.com/aaronzipp/famous-spy/internal/famous"
	"github.com/aaronzipp/famous-spy/internal/game"
	"github.com/aaronzipp/famous-spy/internal/handlers"
	"github.com/aaronzipp/famous-spy/internal/logger"
	"github.com/aaronzipp/famous-spy/internal/session"
	"github.com/aaronzipp/famous-spy/internal/store"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "famous-spy:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load(".env")
	if err != nil {
		return err
	}
	log := logger.New(os.Stderr, cfg.LogLevel, cfg.LogFormat)

	catalog, err := famous.Load()
	if err != nil {
		return fmt.Errorf("loading famous catalog: %w", err)
	}

	rooms := store.NewRegistry()
	engine := game.NewEngine(rooms, catalog)
	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTExpires)
	sessions := session.NewTracker(rooms, tokens, logger.Component(log, "session"))

	if log.GetLevel() > zerolog.DebugLevel {
		gin.SetMode(gin.ReleaseMode)
	}
	h := handlers.New(rooms, engine, tokens, sessions, logger.Component(log, "http"), handlers.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		PublicURL:      cfg.PublicURL,
		RateLimit:      cfg.RateLimit,
		RateWindow:     cfg.RateWindow,
		SendTimeout:    cfg.SendTimeout,
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           h.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go runReaper(ctx, sessions, cfg.ReapInterval, cfg.RoomIdleTTL, logger.Component(log, "reaper"))

	serveErr := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Int("famous", catalog.Len()).Msg("server starting")
		serveErr <- srv.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// runReaper sweeps idle rooms every interval until ctx is done
func runReaper(ctx context.Context, sessions *session.Tracker, interval, ttl time.Duration, log zerolog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			reapOnce(sessions, ttl, log)
		}
	}
}

// reapOnce removes rooms idle for ttl that nobody is connected to
func reapOnce(sessions *session.Tracker, ttl time.Duration, log zerolog.Logger) int {
	reaped := sessions.ReapIdle(ttl)
	if len(reaped) > 0 {
		log.Info().Int("rooms", len(reaped)).Msg("reaped idle rooms")
	}
	return len(reaped)
}
