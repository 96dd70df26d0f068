package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"ticketing/entity"
)

// AuditLog keeps an append-only copy of every published lifecycle event.
type AuditLog struct {
	db *sqlx.DB
}

func NewAuditLog(db *sqlx.DB) AuditLog {
	if db == nil {
		panic("db is nil")
	}
	return AuditLog{db: db}
}

func (a AuditLog) StoreEvent(ctx context.Context, auditEvent entity.AuditEvent) error {
	_, err := a.db.NamedExecContext(ctx, `
		INSERT INTO audit_log (event_id, published_at, event_name, event_payload)
		VALUES (:event_id, :published_at, :event_name, :event_payload)
	`, auditEvent)

	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
		// handling re-delivery
		return nil
	}
	if err != nil {
		return fmt.Errorf("could not store %s event in audit log: %w", auditEvent.EventID, err)
	}
	return nil
}

func (a AuditLog) GetEvents(ctx context.Context) ([]entity.AuditEvent, error) {
	var events []entity.AuditEvent
	err := a.db.SelectContext(ctx, &events, `SELECT * FROM audit_log ORDER BY published_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("could not get events from audit log: %w", err)
	}
	return events, nil
}
