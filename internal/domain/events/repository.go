package events

import (
	"context"
	"errors"
	"time"
)

var ErrNotFound = errors.New("event not found")

// Event is a named occurrence tied to a single calendar date.
// Date is always midnight UTC of the calendar day it represents.
type Event struct {
	ID   int64
	Name string
	Date time.Time
}

// Repository is the durable store of events. Implementations own every
// persisted record; callers only ever see copies.
type Repository interface {
	Insert(ctx context.Context, name string, date time.Time) (*Event, error)
	ListAll(ctx context.Context) ([]Event, error)
	ListByDateRange(ctx context.Context, start, end time.Time) ([]Event, error)
	ListByDate(ctx context.Context, day time.Time) ([]Event, error)
	GetByID(ctx context.Context, id int64) (*Event, error)
	DeleteByID(ctx context.Context, id int64) (bool, error)
	Ping(ctx context.Context) error
}
