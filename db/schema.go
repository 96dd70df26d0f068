package db

import (
	"fmt"

	"github.com/jmoiron/sqlx"
)

// InitializeDatabaseSchema creates all tables and indexes. Every statement is
// idempotent so it can run on each startup and in tests.
//
// The partial unique index on (event_id, lower(attendee_email)) enforces the
// one-active-registration-per-email invariant at the storage level, so it
// holds even when two registrations race past the application-level check.
func InitializeDatabaseSchema(db *sqlx.DB) error {
	schema := `
		CREATE TABLE IF NOT EXISTS events (
			event_id UUID PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			capacity INT NOT NULL CHECK (capacity > 0),
			registered_count INT NOT NULL DEFAULT 0 CHECK (registered_count >= 0 AND registered_count <= capacity),
			status VARCHAR(20) NOT NULL,
			ticket_type_name VARCHAR(255) NOT NULL,
			price_amount VARCHAR(255) NOT NULL,
			price_currency VARCHAR(3) NOT NULL,
			starts_at TIMESTAMPTZ NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE TABLE IF NOT EXISTS tickets (
			ticket_id UUID PRIMARY KEY,
			event_id UUID NOT NULL REFERENCES events (event_id),
			attendee_name VARCHAR(255) NOT NULL,
			attendee_email VARCHAR(255) NOT NULL,
			attendee_phone VARCHAR(255) NOT NULL DEFAULT '',
			attendee_company VARCHAR(255) NOT NULL DEFAULT '',
			ticket_type VARCHAR(255) NOT NULL,
			price_amount VARCHAR(255) NOT NULL,
			price_currency VARCHAR(3) NOT NULL,
			code VARCHAR(32) NOT NULL UNIQUE,
			state VARCHAR(20) NOT NULL,
			checked_in_at TIMESTAMPTZ,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE UNIQUE INDEX IF NOT EXISTS tickets_active_attendee_idx
			ON tickets (event_id, lower(attendee_email))
			WHERE state != 'cancelled';

		CREATE TABLE IF NOT EXISTS confirmation_tokens (
			token VARCHAR(255) PRIMARY KEY,
			ticket_id UUID NOT NULL REFERENCES tickets (ticket_id),
			expires_at TIMESTAMPTZ NOT NULL,
			consumed_at TIMESTAMPTZ
		);

		CREATE TABLE IF NOT EXISTS audit_log (
			event_id UUID PRIMARY KEY,
			published_at TIMESTAMPTZ NOT NULL,
			event_name VARCHAR(255) NOT NULL,
			event_payload JSONB NOT NULL
		);
	`

	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("could not initialize database schema: %w", err)
	}
	return nil
}
