package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/Togather-Foundation/eventcal/internal/config"
	"github.com/Togather-Foundation/eventcal/internal/domain/events"
	"github.com/stretchr/testify/require"
)

func TestOpenSQLite(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "events.sqlite")

	repo, err := Open(ctx, config.DatabaseConfig{URL: "sqlite://" + path, MaxConnections: 2})
	require.NoError(t, err)
	defer func() { _ = repo.Close() }()

	require.Equal(t, config.DriverSQLite, repo.Driver())
	require.Equal(t, 2, repo.Stats().MaxOpen)

	svc := events.NewService(repo.Events())
	created, err := svc.Create(ctx, events.Draft{Name: "Launch", Date: time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)})
	require.NoError(t, err)

	got, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, "Launch", got.Name)
}

func TestOpenRejectsUnknownScheme(t *testing.T) {
	_, err := Open(context.Background(), config.DatabaseConfig{URL: "mysql://localhost/events"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "not supported")
}
