package db

import (
	"context"
	sqldb "database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"ticketing/entity"
)

type EventsPostgresRepository struct {
	db *sqlx.DB
}

func NewEventsPostgresRepository(db *sqlx.DB) *EventsPostgresRepository {
	if db == nil {
		panic("db is nil")
	}
	return &EventsPostgresRepository{db: db}
}

func (r *EventsPostgresRepository) Store(ctx context.Context, event entity.Event) error {
	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO events (event_id, name, capacity, registered_count, status, ticket_type_name, price_amount, price_currency, starts_at, created_at)
		VALUES (:event_id, :name, :capacity, :registered_count, :status, :ticket_type_name, :price_amount, :price_currency, :starts_at, :created_at)
		ON CONFLICT DO NOTHING -- ignore if already exists
	`, event)
	return err
}

func (r *EventsPostgresRepository) Get(ctx context.Context, eventID string) (entity.Event, error) {
	var event entity.Event
	err := r.db.GetContext(ctx, &event, `
		SELECT event_id, name, capacity, registered_count, status, ticket_type_name, price_amount, price_currency, starts_at, created_at
		FROM events
		WHERE event_id = $1
	`, eventID)
	if errors.Is(err, sqldb.ErrNoRows) {
		return entity.Event{}, entity.ErrEventNotFound
	}
	if err != nil {
		return entity.Event{}, fmt.Errorf("could not get event: %w", err)
	}
	return event, nil
}

// ReserveSeat increments the event's registration counter if, and only if,
// capacity remains and the event still accepts registrations. The check and
// the increment are one conditional UPDATE, so concurrent reservations can
// never jointly overshoot capacity regardless of how many service instances
// run. A zero-row result is classified by re-reading the event.
func (r *EventsPostgresRepository) ReserveSeat(ctx context.Context, eventID string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE events
		SET registered_count = registered_count + 1
		WHERE event_id = $1
		  AND registered_count < capacity
		  AND status IN ('upcoming', 'ongoing')
	`, eventID)
	if err != nil {
		return fmt.Errorf("could not reserve seat: %w", err)
	}

	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 1 {
		return nil
	}

	event, err := r.Get(ctx, eventID)
	if err != nil {
		return err
	}
	if !event.AcceptsRegistrations() {
		return entity.ErrEventNotAcceptingRegistrations
	}
	return entity.ErrEventFull
}

// ReleaseSeat returns a previously reserved seat, after a failed ticket
// creation or a cancellation. The counter never drops below zero.
func (r *EventsPostgresRepository) ReleaseSeat(ctx context.Context, eventID string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE events
		SET registered_count = registered_count - 1
		WHERE event_id = $1 AND registered_count > 0
	`, eventID)
	if err != nil {
		return fmt.Errorf("could not release seat: %w", err)
	}
	return nil
}
