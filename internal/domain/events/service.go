package events

import (
	"context"
	"time"
)

type Service struct {
	repo Repository
	loc  *time.Location
	now  func() time.Time
}

type Option func(*Service)

// WithLocation sets the zone used to decide which calendar day is "today".
func WithLocation(loc *time.Location) Option {
	return func(s *Service) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

func NewService(repo Repository, opts ...Option) *Service {
	s := &Service{repo: repo, loc: time.Local, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// List returns every event, or only those inside rng when it is non-nil.
func (s *Service) List(ctx context.Context, rng *DateRange) ([]Event, error) {
	if rng != nil {
		return s.repo.ListByDateRange(ctx, rng.Start, rng.End)
	}
	return s.repo.ListAll(ctx)
}

// Today returns the current calendar day in the service's zone.
func (s *Service) Today() time.Time {
	return DateOf(s.now().In(s.loc))
}

func (s *Service) ListToday(ctx context.Context) ([]Event, error) {
	return s.repo.ListByDate(ctx, s.Today())
}

func (s *Service) Create(ctx context.Context, draft Draft) (*Event, error) {
	return s.repo.Insert(ctx, draft.Name, draft.Date)
}

func (s *Service) Get(ctx context.Context, id int64) (*Event, error) {
	return s.repo.GetByID(ctx, id)
}

// Delete removes the event with the given id. It returns ErrNotFound when
// the event is absent before the delete or was removed concurrently.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return err
	}
	deleted, err := s.repo.DeleteByID(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrNotFound
	}
	return nil
}

func (s *Service) Ping(ctx context.Context) error {
	return s.repo.Ping(ctx)
}
