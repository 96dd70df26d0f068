package event

import (
	"context"
	"fmt"

	"github.com/ThreeDotsLabs/watermill/components/cqrs"

	"ticketing/entity"
	"ticketing/pkg/ctxlog"
)

func (h Handler) SendConfirmationEmailHandler() cqrs.EventHandler {
	return cqrs.NewEventHandler(
		"SendConfirmationEmailHandler",
		func(ctx context.Context, event *entity.TicketRegistered) error {
			if !event.RequiresConfirmation {
				return nil
			}

			ctxlog.FromContext(ctx).
				WithField("ticket_id", event.TicketID).
				Info("Sending confirmation email")

			err := h.mailerService.SendConfirmationEmail(ctx, entity.SendConfirmationEmailRequest{
				IdempotencyKey:    event.Header.ID,
				To:                event.AttendeeEmail,
				TicketID:          event.TicketID,
				EventID:           event.EventID,
				ConfirmationToken: event.ConfirmationToken,
			})
			if err != nil {
				return fmt.Errorf("failed to send confirmation email: %w", err)
			}

			return nil
		},
	)
}
