// Package bootstrap holds the start-up steps shared by every subcommand:
// config, logger, database and the optional Redis client.
package bootstrap

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/orris-inc/tollgate/internal/infrastructure/cache"
	"github.com/orris-inc/tollgate/internal/infrastructure/config"
	"github.com/orris-inc/tollgate/internal/infrastructure/database"
	"github.com/orris-inc/tollgate/internal/shared/logger"
)

// Flags are the persistent flags every subcommand accepts.
type Flags struct {
	Env        string
	ConfigPath string
}

// Init loads configuration and initializes the logger.
func Init(flags Flags) (*config.Config, logger.Interface, error) {
	cfg, err := config.Load(flags.Env, flags.ConfigPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	cfg.Server.Mode = GinMode(flags.Env)
	if err := logger.Init(&cfg.Logger, cfg.Server.Mode); err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	return cfg, logger.NewLogger(), nil
}

// InitDatabase is Init plus the database connection. Callers own
// database.Close.
func InitDatabase(flags Flags) (*config.Config, logger.Interface, error) {
	cfg, log, err := Init(flags)
	if err != nil {
		return nil, nil, err
	}
	if err := database.Init(&cfg.Database); err != nil {
		return nil, nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	return cfg, log, nil
}

// OpenRedis returns nil without error when Redis is disabled.
func OpenRedis(ctx context.Context, cfg *config.Config, log logger.Interface) (*redis.Client, error) {
	if !cfg.Redis.Enabled {
		log.Warnw("redis disabled, emails will not be sent and webhook locking relies on the event log")
		return nil, nil
	}
	client, err := cache.NewRedisClient(ctx, &cfg.Redis)
	if err != nil {
		return nil, err
	}
	log.Infow("redis connection established", "addr", cfg.Redis.GetAddr())
	return client, nil
}

// GinMode maps an environment name to a gin mode.
func GinMode(environment string) string {
	switch environment {
	case "production", "prod", "release":
		return "release"
	case "test", "testing":
		return "test"
	default:
		return "debug"
	}
}
