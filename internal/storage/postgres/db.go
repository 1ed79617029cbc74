package postgres

import (
	"context"
	"fmt"

	"github.com/Togather-Foundation/eventcal/internal/config"
	"github.com/Togather-Foundation/eventcal/internal/metrics"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repository struct {
	pool *pgxpool.Pool
}

// Open migrates the database at cfg.URL and connects a pool to it.
func Open(ctx context.Context, cfg config.DatabaseConfig) (*Repository, error) {
	if err := MigrateUp(cfg.URL); err != nil {
		return nil, err
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	if cfg.MaxConnections > 0 {
		poolCfg.MaxConns = int32(cfg.MaxConnections)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &Repository{pool: pool}, nil
}

func NewRepository(pool *pgxpool.Pool) (*Repository, error) {
	if pool == nil {
		return nil, fmt.Errorf("postgres repository: pool is nil")
	}
	return &Repository{pool: pool}, nil
}

func (r *Repository) Events() *EventRepository {
	return &EventRepository{pool: r.pool}
}

func (r *Repository) Driver() string {
	return config.DriverPostgres
}

func (r *Repository) Stats() metrics.PoolStats {
	stat := r.pool.Stat()
	return metrics.PoolStats{
		Open:    int(stat.TotalConns()),
		InUse:   int(stat.AcquiredConns()),
		Idle:    int(stat.IdleConns()),
		MaxOpen: int(stat.MaxConns()),
	}
}

func (r *Repository) Close() error {
	r.pool.Close()
	return nil
}

type EventRepository struct {
	pool *pgxpool.Pool
}
