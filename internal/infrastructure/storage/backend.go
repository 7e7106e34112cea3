package storage

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/zhguchie-tours/frontend/configs"
	"github.com/zhguchie-tours/frontend/internal/core/ports"
	"github.com/zhguchie-tours/frontend/internal/infrastructure/db"
	"github.com/zhguchie-tours/frontend/internal/infrastructure/health"
	"github.com/zhguchie-tours/frontend/internal/infrastructure/redis"
	"github.com/zhguchie-tours/frontend/internal/infrastructure/repositories"
)

// Backend is the response store selected by STORE_BACKEND together with
// the health checks for whatever it connects to.
type Backend struct {
	Store          ports.ResponseStore
	HealthCheckers []ports.HealthChecker
	closers        []func() error
}

// Open connects the configured backend. Postgres schemas are migrated before use.
func Open(cfg *configs.Config, logger *logrus.Logger) (*Backend, error) {
	switch cfg.Cache.Backend {
	case configs.BackendRedis:
		client, err := redis.NewRedisClient(&cfg.Redis)
		if err != nil {
			return nil, err
		}
		logger.Info("Connected to Redis successfully")
		return &Backend{
			Store:          repositories.NewResponseRedisRepository(client, cfg.Cache.StorePrefix, logger),
			HealthCheckers: []ports.HealthChecker{health.NewRedisHealthChecker(client)},
			closers:        []func() error{client.Close},
		}, nil

	case configs.BackendPostgres:
		database, err := db.Open(&cfg.Database)
		if err != nil {
			return nil, err
		}
		logger.Info("Connected to database successfully")
		if err := database.Migrate(); err != nil {
			_ = database.Close()
			return nil, err
		}
		return &Backend{
			Store:          repositories.NewResponseDBRepository(database, logger),
			HealthCheckers: []ports.HealthChecker{health.NewDBHealthChecker(database)},
			closers:        []func() error{database.Close},
		}, nil

	case configs.BackendMemory:
		logger.Warn("Using in-memory response store; installed assets are lost on restart")
		return &Backend{Store: repositories.NewResponseMemoryRepository()}, nil
	}
	return nil, fmt.Errorf("unsupported store backend %q", cfg.Cache.Backend)
}

// Close releases the backend's connections.
func (b *Backend) Close() error {
	var errs []error
	for _, c := range b.closers {
		if err := c(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
