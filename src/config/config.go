package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config is the process configuration read from the environment.
type Config struct {
	MySQLDSN       string        `env:"MYSQL_DSN,notEmpty"`
	RedisURL       string        `env:"REDIS_URL" envDefault:"redis://localhost:6379/0"`
	JWTSecret      string        `env:"JWT_SECRET,notEmpty"`
	Port           string        `env:"PORT" envDefault:"8080"`
	AllowedOrigins []string      `env:"ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000"`
	DiscordToken   string        `env:"DISCORD_TOKEN"`
	VoteRateLimit  int           `env:"VOTE_RATE_LIMIT" envDefault:"10"`
	VoteRateWindow time.Duration `env:"VOTE_RATE_WINDOW" envDefault:"1m"`
	TokenTTL       time.Duration `env:"TOKEN_TTL" envDefault:"12h"`

	// TrueType faces for protocol PDFs; empty falls back to folded Arial.
	ProtocolFont     string `env:"PROTOCOL_FONT"`
	ProtocolFontBold string `env:"PROTOCOL_FONT_BOLD"`
}

func Load() (Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if len(cfg.JWTSecret) < 32 {
		return Config{}, fmt.Errorf("JWT_SECRET must be at least 32 bytes")
	}
	return cfg, nil
}
