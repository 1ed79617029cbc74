// Package eventstest provides an in-memory events.Repository for tests.
package eventstest

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Togather-Foundation/eventcal/internal/domain/events"
)

var _ events.Repository = (*Repository)(nil)

// Repository keeps events in a map. Ids start at 1 and are never reused.
// Err, when set, is returned by every call.
type Repository struct {
	mu     sync.Mutex
	nextID int64
	items  map[int64]events.Event
	Err    error
}

func New() *Repository {
	return &Repository{items: make(map[int64]events.Event)}
}

// Seed stores events directly and returns them with their ids.
// It ignores Err so failure tests can be seeded in any order.
func (r *Repository) Seed(items ...events.Event) []events.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]events.Event, 0, len(items))
	for _, item := range items {
		out = append(out, r.store(item.Name, item.Date))
	}
	return out
}

func (r *Repository) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.items)
}

func (r *Repository) Insert(_ context.Context, name string, date time.Time) (*events.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	event := r.store(name, date)
	return &event, nil
}

func (r *Repository) store(name string, date time.Time) events.Event {
	r.nextID++
	event := events.Event{ID: r.nextID, Name: name, Date: events.DateOf(date)}
	r.items[event.ID] = event
	return event
}

func (r *Repository) ListAll(_ context.Context) ([]events.Event, error) {
	return r.filter(func(events.Event) bool { return true })
}

func (r *Repository) ListByDateRange(_ context.Context, start, end time.Time) ([]events.Event, error) {
	return r.filter(func(e events.Event) bool {
		return !e.Date.Before(start) && !e.Date.After(end)
	})
}

func (r *Repository) ListByDate(_ context.Context, day time.Time) ([]events.Event, error) {
	return r.filter(func(e events.Event) bool { return e.Date.Equal(day) })
}

func (r *Repository) GetByID(_ context.Context, id int64) (*events.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	event, ok := r.items[id]
	if !ok {
		return nil, events.ErrNotFound
	}
	return &event, nil
}

func (r *Repository) DeleteByID(_ context.Context, id int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return false, r.Err
	}
	if _, ok := r.items[id]; !ok {
		return false, nil
	}
	delete(r.items, id)
	return true, nil
}

func (r *Repository) Ping(_ context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.Err
}

func (r *Repository) filter(keep func(events.Event) bool) ([]events.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	out := make([]events.Event, 0, len(r.items))
	for _, item := range r.items {
		if keep(item) {
			out = append(out, item)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
