package eventstest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Togather-Foundation/eventcal/internal/domain/events"
	"github.com/stretchr/testify/require"
)

func TestSeedIgnoresErr(t *testing.T) {
	repo := New()
	repo.Err = errors.New("database unavailable")

	seeded := repo.Seed(
		events.Event{Name: "Standup", Date: time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)},
		events.Event{Name: "Retro", Date: time.Date(2024, 1, 16, 0, 0, 0, 0, time.UTC)},
	)
	require.Len(t, seeded, 2)
	require.Equal(t, int64(1), seeded[0].ID)
	require.Equal(t, int64(2), seeded[1].ID)
	require.Equal(t, 2, repo.Len())

	_, err := repo.GetByID(context.Background(), 1)
	require.ErrorIs(t, err, repo.Err)
}

func TestIDsNeverReused(t *testing.T) {
	ctx := context.Background()
	repo := New()
	date := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)

	first, err := repo.Insert(ctx, "A", date)
	require.NoError(t, err)
	second, err := repo.Insert(ctx, "B", date)
	require.NoError(t, err)

	deleted, err := repo.DeleteByID(ctx, second.ID)
	require.NoError(t, err)
	require.True(t, deleted)

	third := repo.Seed(events.Event{Name: "C", Date: date})[0]
	require.Greater(t, third.ID, second.ID)
	require.Greater(t, second.ID, first.ID)
}
