package storage

import (
	"context"
	"fmt"

	"github.com/Togather-Foundation/eventcal/internal/config"
	"github.com/Togather-Foundation/eventcal/internal/domain/events"
	"github.com/Togather-Foundation/eventcal/internal/metrics"
	"github.com/Togather-Foundation/eventcal/internal/storage/postgres"
	"github.com/Togather-Foundation/eventcal/internal/storage/sqlite"
)

// Repository is an open event store.
type Repository interface {
	Events() events.Repository
	Stats() metrics.PoolStats
	Driver() string
	Close() error
}

// Open connects to the store named by cfg.URL, applying the schema first.
func Open(ctx context.Context, cfg config.DatabaseConfig) (Repository, error) {
	driver, err := cfg.Driver()
	if err != nil {
		return nil, err
	}

	switch driver {
	case config.DriverSQLite:
		repo, err := sqlite.Open(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return sqliteStore{repo}, nil
	case config.DriverPostgres:
		repo, err := postgres.Open(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return postgresStore{repo}, nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
}

type sqliteStore struct {
	*sqlite.Repository
}

func (s sqliteStore) Events() events.Repository {
	return s.Repository.Events()
}

type postgresStore struct {
	*postgres.Repository
}

func (s postgresStore) Events() events.Repository {
	return s.Repository.Events()
}
