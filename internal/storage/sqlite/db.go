package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"

	"github.com/Togather-Foundation/eventcal/internal/config"
	"github.com/Togather-Foundation/eventcal/internal/metrics"
	_ "modernc.org/sqlite"
)

type Repository struct {
	db *sql.DB
}

// Open migrates the database file named by cfg.URL and opens it.
func Open(ctx context.Context, cfg config.DatabaseConfig) (*Repository, error) {
	path := cfg.SQLitePath()
	if path == "" {
		return nil, fmt.Errorf("sqlite database url has no path")
	}
	params, err := cfg.SQLiteParams()
	if err != nil {
		return nil, fmt.Errorf("sqlite database url query: %w", err)
	}
	if err := MigrateUp(path); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", dsn(path, params))
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if cfg.MaxConnections > 0 {
		db.SetMaxOpenConns(cfg.MaxConnections)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	return &Repository{db: db}, nil
}

func NewRepository(db *sql.DB) (*Repository, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlite repository: db is nil")
	}
	return &Repository{db: db}, nil
}

// dsn builds the driver DSN. Parameters from the database URL are kept
// after the default pragmas.
func dsn(path string, extra url.Values) string {
	params := url.Values{}
	params.Add("_pragma", "busy_timeout(5000)")
	params.Add("_pragma", "journal_mode(WAL)")
	for key, values := range extra {
		for _, value := range values {
			params.Add(key, value)
		}
	}
	return "file:" + path + "?" + params.Encode()
}

func (r *Repository) Events() *EventRepository {
	return &EventRepository{db: r.db}
}

func (r *Repository) Driver() string {
	return config.DriverSQLite
}

func (r *Repository) Stats() metrics.PoolStats {
	stat := r.db.Stats()
	return metrics.PoolStats{
		Open:    stat.OpenConnections,
		InUse:   stat.InUse,
		Idle:    stat.Idle,
		MaxOpen: stat.MaxOpenConnections,
	}
}

func (r *Repository) Close() error {
	return r.db.Close()
}

type EventRepository struct {
	db *sql.DB
}
