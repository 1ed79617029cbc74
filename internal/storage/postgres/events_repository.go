package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Togather-Foundation/eventcal/internal/domain/events"
	"github.com/Togather-Foundation/eventcal/internal/metrics"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

var _ events.Repository = (*EventRepository)(nil)

type eventRow struct {
	ID   int64
	Name string
	Date pgtype.Date
}

func (row eventRow) toEvent() events.Event {
	event := events.Event{ID: row.ID, Name: row.Name}
	if row.Date.Valid {
		event.Date = events.DateOf(row.Date.Time)
	}
	return event
}

func pgDate(t time.Time) pgtype.Date {
	return pgtype.Date{Time: events.DateOf(t), Valid: true}
}

func (r *EventRepository) Insert(ctx context.Context, name string, date time.Time) (_ *events.Event, err error) {
	defer func(start time.Time) { metrics.RecordQuery("insert_event", start, err) }(time.Now())

	var row eventRow
	err = r.pool.QueryRow(ctx, `
INSERT INTO events (event, date)
VALUES ($1, $2)
RETURNING id, event, date
`, name, pgDate(date)).Scan(&row.ID, &row.Name, &row.Date)
	if err != nil {
		return nil, events.WrapStorage("insert", fmt.Errorf("insert event: %w", err))
	}
	event := row.toEvent()
	return &event, nil
}

func (r *EventRepository) ListAll(ctx context.Context) (_ []events.Event, err error) {
	defer func(start time.Time) { metrics.RecordQuery("list_events", start, err) }(time.Now())

	result, err := r.list(ctx, `SELECT id, event, date FROM events ORDER BY id`)
	return result, events.WrapStorage("list", err)
}

func (r *EventRepository) ListByDateRange(ctx context.Context, start, end time.Time) (_ []events.Event, err error) {
	defer func(begin time.Time) { metrics.RecordQuery("list_events_range", begin, err) }(time.Now())

	result, err := r.list(ctx, `
SELECT id, event, date
  FROM events
 WHERE date BETWEEN $1 AND $2
 ORDER BY id
`, pgDate(start), pgDate(end))
	return result, events.WrapStorage("list range", err)
}

func (r *EventRepository) ListByDate(ctx context.Context, day time.Time) (_ []events.Event, err error) {
	defer func(start time.Time) { metrics.RecordQuery("list_events_date", start, err) }(time.Now())

	result, err := r.list(ctx, `SELECT id, event, date FROM events WHERE date = $1 ORDER BY id`, pgDate(day))
	return result, events.WrapStorage("list date", err)
}

func (r *EventRepository) GetByID(ctx context.Context, id int64) (_ *events.Event, err error) {
	defer func(start time.Time) { metrics.RecordQuery("get_event", start, queryErr(err)) }(time.Now())

	var row eventRow
	err = r.pool.QueryRow(ctx, `SELECT id, event, date FROM events WHERE id = $1`, id).
		Scan(&row.ID, &row.Name, &row.Date)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, events.ErrNotFound
	}
	if err != nil {
		return nil, events.WrapStorage("get", fmt.Errorf("get event: %w", err))
	}
	event := row.toEvent()
	return &event, nil
}

func (r *EventRepository) DeleteByID(ctx context.Context, id int64) (_ bool, err error) {
	defer func(start time.Time) { metrics.RecordQuery("delete_event", start, err) }(time.Now())

	tag, err := r.pool.Exec(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return false, events.WrapStorage("delete", fmt.Errorf("delete event: %w", err))
	}
	return tag.RowsAffected() > 0, nil
}

func (r *EventRepository) Ping(ctx context.Context) error {
	return events.WrapStorage("ping", r.pool.Ping(ctx))
}

// queryErr drops misses so they are not counted as database errors.
func queryErr(err error) error {
	if errors.Is(err, events.ErrNotFound) {
		return nil
	}
	return err
}

func (r *EventRepository) list(ctx context.Context, query string, args ...any) ([]events.Event, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	result := make([]events.Event, 0)
	for rows.Next() {
		var row eventRow
		if err := rows.Scan(&row.ID, &row.Name, &row.Date); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		result = append(result, row.toEvent())
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return result, nil
}
