package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	ServiceName       string        `env:"SERVICE_NAME,default=store-stock"`
	LogLevel          string        `env:"LOG_LEVEL,default=info"`
	HTTPPort          int           `env:"HTTP_PORT,default=8080"`
	DatabaseURL       string        `env:"DATABASE_URL,required"`
	RedisURL          string        `env:"REDIS_URL"`
	ReservationTTL    time.Duration `env:"RESERVATION_TTL,default=5m"`
	PruneInterval     time.Duration `env:"PRUNE_INTERVAL,default=60s"`
	IdempotencyKeyTTL time.Duration `env:"IDEMPOTENCY_KEY_TTL,default=24h"`
}

func Load(ctx context.Context) (*Config, error) {
	var cfg Config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("http port must be between 1 and 65535, got %d", c.HTTPPort)
	}

	if c.ReservationTTL < time.Minute || c.ReservationTTL > time.Hour {
		return fmt.Errorf("reservation TTL must be between 1 minute and 1 hour, got %v", c.ReservationTTL)
	}

	if c.PruneInterval < 10*time.Second || c.PruneInterval > 10*time.Minute {
		return fmt.Errorf("prune interval must be between 10 seconds and 10 minutes, got %v", c.PruneInterval)
	}

	return nil
}
