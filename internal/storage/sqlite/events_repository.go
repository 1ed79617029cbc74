package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Togather-Foundation/eventcal/internal/domain/events"
	"github.com/Togather-Foundation/eventcal/internal/metrics"
)

var _ events.Repository = (*EventRepository)(nil)

func (r *EventRepository) Insert(ctx context.Context, name string, date time.Time) (_ *events.Event, err error) {
	defer func(start time.Time) { metrics.RecordQuery("insert_event", start, err) }(time.Now())

	date = events.DateOf(date)
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO event_db (event, date) VALUES (?, ?)`,
		name, events.FormatDate(date),
	)
	if err != nil {
		return nil, events.WrapStorage("insert", fmt.Errorf("insert event: %w", err))
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, events.WrapStorage("insert", fmt.Errorf("read event id: %w", err))
	}
	return &events.Event{ID: id, Name: name, Date: date}, nil
}

func (r *EventRepository) ListAll(ctx context.Context) (_ []events.Event, err error) {
	defer func(start time.Time) { metrics.RecordQuery("list_events", start, err) }(time.Now())

	result, err := r.list(ctx, `SELECT id, event, date FROM event_db ORDER BY id`)
	return result, events.WrapStorage("list", err)
}

func (r *EventRepository) ListByDateRange(ctx context.Context, start, end time.Time) (_ []events.Event, err error) {
	defer func(begin time.Time) { metrics.RecordQuery("list_events_range", begin, err) }(time.Now())

	result, err := r.list(ctx,
		`SELECT id, event, date FROM event_db WHERE date BETWEEN ? AND ? ORDER BY id`,
		events.FormatDate(start), events.FormatDate(end),
	)
	return result, events.WrapStorage("list range", err)
}

func (r *EventRepository) ListByDate(ctx context.Context, day time.Time) (_ []events.Event, err error) {
	defer func(start time.Time) { metrics.RecordQuery("list_events_date", start, err) }(time.Now())

	result, err := r.list(ctx,
		`SELECT id, event, date FROM event_db WHERE date = ? ORDER BY id`,
		events.FormatDate(day),
	)
	return result, events.WrapStorage("list date", err)
}

func (r *EventRepository) GetByID(ctx context.Context, id int64) (_ *events.Event, err error) {
	defer func(start time.Time) { metrics.RecordQuery("get_event", start, queryErr(err)) }(time.Now())

	row := r.db.QueryRowContext(ctx, `SELECT id, event, date FROM event_db WHERE id = ?`, id)
	event, err := scanEvent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, events.ErrNotFound
	}
	if err != nil {
		return nil, events.WrapStorage("get", fmt.Errorf("get event: %w", err))
	}
	return &event, nil
}

func (r *EventRepository) DeleteByID(ctx context.Context, id int64) (_ bool, err error) {
	defer func(start time.Time) { metrics.RecordQuery("delete_event", start, err) }(time.Now())

	res, err := r.db.ExecContext(ctx, `DELETE FROM event_db WHERE id = ?`, id)
	if err != nil {
		return false, events.WrapStorage("delete", fmt.Errorf("delete event: %w", err))
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, events.WrapStorage("delete", fmt.Errorf("read rows affected: %w", err))
	}
	return affected > 0, nil
}

func (r *EventRepository) Ping(ctx context.Context) error {
	return events.WrapStorage("ping", r.db.PingContext(ctx))
}

func (r *EventRepository) list(ctx context.Context, query string, args ...any) ([]events.Event, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	result := make([]events.Event, 0)
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return result, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEvent(row scanner) (events.Event, error) {
	var (
		event events.Event
		raw   any
	)
	if err := row.Scan(&event.ID, &event.Name, &raw); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return events.Event{}, err
		}
		return events.Event{}, fmt.Errorf("scan event: %w", err)
	}
	date, err := dateValue(raw)
	if err != nil {
		return events.Event{}, fmt.Errorf("scan event %d: %w", event.ID, err)
	}
	event.Date = date
	return event, nil
}

// dateValue accepts the TEXT dates this package writes and the time values
// the driver returns for columns declared DATE by other writers.
func dateValue(raw any) (time.Time, error) {
	switch v := raw.(type) {
	case string:
		return events.ParseDate(v)
	case []byte:
		return events.ParseDate(string(v))
	case time.Time:
		return events.DateOf(v), nil
	default:
		return time.Time{}, fmt.Errorf("unexpected date value %T", raw)
	}
}

// queryErr drops misses so they are not counted as database errors.
func queryErr(err error) error {
	if errors.Is(err, events.ErrNotFound) {
		return nil
	}
	return err
}
