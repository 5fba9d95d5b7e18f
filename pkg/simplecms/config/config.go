package config

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/tendant/simple-cms/pkg/simplecms"
	memorystore "github.com/tendant/simple-cms/pkg/simplecms/repo/memory"
	postgresstore "github.com/tendant/simple-cms/pkg/simplecms/repo/postgres"
)

// ServerConfig represents server configuration for the simple-cms service
type ServerConfig struct {
	Port        string `env:"PORT" env-default:"8080"`
	Environment string `env:"ENVIRONMENT" env-default:"development"`

	// Database configuration. DATABASE_URL empty or "memory" selects the
	// in-memory store; a postgres:// URL selects PostgreSQL.
	DatabaseURL string `env:"DATABASE_URL" env-default:""`

	// Export bounds
	ExportLimit int `env:"EXPORT_LIMIT" env-default:"1000"`

	LogLevel string `env:"LOG_LEVEL" env-default:"info"`
}

// Load reads configuration from the environment.
func Load() (*ServerConfig, error) {
	var cfg ServerConfig
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("read environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate validates the server configuration
func (c *ServerConfig) Validate() error {
	if c.Port == "" {
		return errors.New("port is required")
	}
	if c.DatabaseURL != "" && c.DatabaseURL != "memory" && !isPostgresURL(c.DatabaseURL) {
		return fmt.Errorf("unsupported DATABASE_URL format: %s (use 'memory' or 'postgresql://...')", c.DatabaseURL)
	}
	if c.ExportLimit <= 0 {
		return errors.New("export_limit must be positive")
	}
	return nil
}

func isPostgresURL(u string) bool {
	return strings.HasPrefix(u, "postgres://") || strings.HasPrefix(u, "postgresql://")
}

// BuildStore creates the document store the configuration selects.
func (c *ServerConfig) BuildStore(ctx context.Context) (simplecms.DocumentStore, error) {
	if c.DatabaseURL == "" || c.DatabaseURL == "memory" {
		return memorystore.New(), nil
	}

	pool, err := pgxpool.New(ctx, c.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	store := postgresstore.NewWithPool(pool)
	if err := store.Init(ctx); err != nil {
		return nil, fmt.Errorf("init postgres schema: %w", err)
	}
	return store, nil
}

// BuildService creates a Service instance from the server configuration
func (c *ServerConfig) BuildService(ctx context.Context, logger zerolog.Logger) (simplecms.Service, error) {
	store, err := c.BuildStore(ctx)
	if err != nil {
		return nil, err
	}
	return simplecms.New(
		simplecms.WithStore(store),
		simplecms.WithLogger(logger),
		simplecms.WithExportLimit(c.ExportLimit),
	)
}

// LoggerLevel parses the configured log level, defaulting to info.
func (c *ServerConfig) LoggerLevel() zerolog.Level {
	level, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return level
}
