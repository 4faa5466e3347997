package config

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port       string        `env:"PORT,        default=8080"`
	Env        string        `env:"ENV,         default=development"`
	LogLevel   string        `env:"LOG_LEVEL,   default=info"`
	JWTSecret  string        `env:"JWT_SECRET"`
	TokenTTL   time.Duration `env:"TOKEN_TTL,   default=168h"`
	AppBaseURL string        `env:"APP_BASE_URL, default=http://localhost:3000"`

	Hash     HashConfig
	Postgres PostgresConfig
	Redis    RedisConfig
	Reset    ResetConfig
	Throttle ThrottleConfig
}

type HashConfig struct {
	Iterations    int `env:"HASH_ITERATIONS,     default=10000"`
	MaxConcurrent int `env:"HASH_MAX_CONCURRENT, default=4"`
}

type PostgresConfig struct {
	DSN string `env:"DATABASE_URL, default=postgres://localhost:5432/haven?sslmode=disable"`
}

type RedisConfig struct {
	Addr string `env:"REDIS_ADDR, default=localhost:6379"`
	DB   int    `env:"REDIS_DB,   default=0"`
}

type ResetConfig struct {
	Workers  int           `env:"RESET_WORKERS,   default=4"`
	TokenTTL time.Duration `env:"RESET_TOKEN_TTL, default=1h"`
}

type ThrottleConfig struct {
	LoginLimit  int           `env:"LOGIN_RATE_LIMIT,  default=10"`
	LoginWindow time.Duration `env:"LOGIN_RATE_WINDOW, default=1m"`
}

// Load reads configuration from environment variables using go-envconfig.
// There is deliberately no fallback for JWT_SECRET: starting with a
// guessable default signing key is worse than not starting at all.
func Load(ctx context.Context) (*Config, error) {
	var cfg Config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}
	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET must be set")
	}
	return &cfg, nil
}
