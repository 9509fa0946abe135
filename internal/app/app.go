// Package app opens the storage stack selected by configuration.
package app

import (
	"context"
	"fmt"

	"DanceDeck/cache"
	"DanceDeck/config"
	"DanceDeck/db"
	"DanceDeck/logger"
	"DanceDeck/repository"
	"DanceDeck/storage"
)

const (
	DriverSQLite = "sqlite"
	DriverMySQL  = "mysql"
)

// Stack is the set of opened backends.
type Stack struct {
	Repo      repository.VideoRepository
	Snapshots *storage.SnapshotStore // nil when MinIO is disabled
	closers   []func() error
}

// Open connects the record store, then the optional Redis cache and MinIO
// snapshot bucket.
func Open(ctx context.Context, cfg *config.Config) (*Stack, error) {
	s := &Stack{}

	switch cfg.StoreDriver {
	case DriverSQLite, "":
		if err := db.ConnectDB(cfg); err != nil {
			return nil, err
		}
		s.closers = append(s.closers, db.CloseDB)
		s.Repo = repository.NewSQLiteVideoRepository(db.DB)
	case DriverMySQL:
		if err := db.ConnectGormDB(cfg); err != nil {
			return nil, err
		}
		s.closers = append(s.closers, db.CloseGormDB)
		s.Repo = repository.NewGormVideoRepository(db.GormDB)
	default:
		return nil, fmt.Errorf("unknown STORE_DRIVER %q", cfg.StoreDriver)
	}

	if cfg.RedisEnabled {
		if err := db.ConnectRedis(cfg); err != nil {
			s.Close()
			return nil, err
		}
		s.closers = append(s.closers, db.CloseRedis)
		s.Repo = repository.NewCachedVideoRepository(s.Repo,
			cache.NewVideoCache(db.RedisClient, cfg.CacheTTL), logger.Named("cache"))
		logger.Info("Successfully connected to Redis")
	}

	if cfg.MinioEnabled {
		client, err := storage.NewMinioClient(ctx, cfg)
		if err != nil {
			s.Close()
			return nil, err
		}
		s.Snapshots = storage.NewSnapshotStore(client, cfg.MinioBucket)
	}
	return s, nil
}

// Close releases backends in reverse order of opening.
func (s *Stack) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			logger.Warn("close backend failed", logger.ErrorField(err))
		}
	}
	s.closers = nil
}
