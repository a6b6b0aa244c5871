// Package config loads process settings from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config is the full process configuration
type Config struct {
	HTTPAddr        string        `env:"HTTP_ADDR" envDefault:":3000"`
	JWTSecret       string        `env:"JWT_SECRET,required,notEmpty"`
	JWTExpires      time.Duration `env:"JWT_EXPIRES" envDefault:"3h"`
	AllowedOrigins  []string      `env:"ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:5173"`
	PublicURL       string        `env:"PUBLIC_URL" envDefault:"http://localhost:5173"`
	RateLimit       int           `env:"RATE_LIMIT" envDefault:"120"`
	RateWindow      time.Duration `env:"RATE_WINDOW" envDefault:"60s"`
	RoomIdleTTL     time.Duration `env:"ROOM_IDLE_TTL" envDefault:"3h"`
	ReapInterval    time.Duration `env:"REAP_INTERVAL" envDefault:"5m"`
	SendTimeout     time.Duration `env:"SEND_TIMEOUT" envDefault:"1s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
	LogLevel        string        `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat       string        `env:"LOG_FORMAT" envDefault:"console"`
}

// Load reads the given .env files when they exist, then parses the environment.
// Variables already set in the environment win over .env values.
func Load(dotenvFiles ...string) (Config, error) {
	for _, f := range dotenvFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("loading %s: %w", f, err)
		}
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.RateLimit <= 0 || c.RateWindow <= 0 {
		return fmt.Errorf("RATE_LIMIT and RATE_WINDOW must be positive")
	}
	if c.JWTExpires <= 0 {
		return fmt.Errorf("JWT_EXPIRES must be positive")
	}
	if c.ReapInterval <= 0 || c.RoomIdleTTL <= 0 {
		return fmt.Errorf("REAP_INTERVAL and ROOM_IDLE_TTL must be positive")
	}
	switch c.LogFormat {
	case "console", "json":
	default:
		return fmt.Errorf("LOG_FORMAT must be console or json, got %q", c.LogFormat)
	}
	return nil
}
