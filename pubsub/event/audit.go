package event

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ThreeDotsLabs/watermill/components/cqrs"

	"ticketing/entity"
)

// Every lifecycle event gets an append-only copy in the audit log. The log
// deduplicates on the event ID, so re-deliveries are harmless.

func (h Handler) AuditTicketRegisteredHandler() cqrs.EventHandler {
	return cqrs.NewEventHandler(
		"audit.TicketRegistered",
		func(ctx context.Context, event *entity.TicketRegistered) error {
			return h.storeInAuditLog(ctx, "TicketRegistered", event.Header, event)
		},
	)
}

func (h Handler) AuditTicketConfirmedHandler() cqrs.EventHandler {
	return cqrs.NewEventHandler(
		"audit.TicketConfirmed",
		func(ctx context.Context, event *entity.TicketConfirmed) error {
			return h.storeInAuditLog(ctx, "TicketConfirmed", event.Header, event)
		},
	)
}

func (h Handler) AuditTicketCheckedInHandler() cqrs.EventHandler {
	return cqrs.NewEventHandler(
		"audit.TicketCheckedIn",
		func(ctx context.Context, event *entity.TicketCheckedIn) error {
			return h.storeInAuditLog(ctx, "TicketCheckedIn", event.Header, event)
		},
	)
}

func (h Handler) AuditTicketCancelledHandler() cqrs.EventHandler {
	return cqrs.NewEventHandler(
		"audit.TicketCancelled",
		func(ctx context.Context, event *entity.TicketCancelled) error {
			return h.storeInAuditLog(ctx, "TicketCancelled", event.Header, event)
		},
	)
}

func (h Handler) storeInAuditLog(ctx context.Context, eventName string, header entity.EventHeader, event any) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("could not marshal %s event: %w", eventName, err)
	}

	return h.auditLog.StoreEvent(ctx, entity.AuditEvent{
		EventID:     header.ID,
		PublishedAt: header.PublishedAt,
		EventName:   eventName,
		Payload:     payload,
	})
}
