package db

import (
	"context"
	sqldb "database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"ticketing/entity"
)

type TokensPostgresRepository struct {
	db *sqlx.DB
}

func NewTokensPostgresRepository(db *sqlx.DB) *TokensPostgresRepository {
	if db == nil {
		panic("db is nil")
	}
	return &TokensPostgresRepository{db: db}
}

// ConfirmByToken consumes the confirmation token and flips its ticket from
// pending to valid, atomically. An already-consumed token is the idempotent
// path: the associated ticket is returned with alreadyConfirmed=true, the way
// a user clicking an email link twice expects. If the ticket can no longer be
// confirmed (cancelled or checked in through another path), the transaction
// rolls back and the token stays unconsumed so the failure can be diagnosed.
func (r *TokensPostgresRepository) ConfirmByToken(ctx context.Context, tokenValue string, now time.Time) (ticket entity.Ticket, alreadyConfirmed bool, err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return entity.Ticket{}, false, fmt.Errorf("could not begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			rollbackErr := tx.Rollback()
			if rollbackErr != nil && !errors.Is(rollbackErr, sqldb.ErrTxDone) {
				err = errors.Join(err, rollbackErr)
			}
			return
		}
		err = tx.Commit()
	}()

	var token entity.ConfirmationToken
	err = tx.GetContext(ctx, &token, `
		SELECT token, ticket_id, expires_at, consumed_at
		FROM confirmation_tokens
		WHERE token = $1
		FOR UPDATE
	`, tokenValue)
	if errors.Is(err, sqldb.ErrNoRows) {
		return entity.Ticket{}, false, entity.ErrInvalidToken
	}
	if err != nil {
		return entity.Ticket{}, false, fmt.Errorf("could not get confirmation token: %w", err)
	}

	if token.Consumed() {
		err = tx.GetContext(ctx, &ticket, `
			SELECT `+ticketColumns+` FROM tickets WHERE ticket_id = $1
		`, token.TicketID)
		if err != nil {
			return entity.Ticket{}, false, fmt.Errorf("could not get ticket for consumed token: %w", err)
		}
		return ticket, true, nil
	}

	if token.Expired(now) {
		return entity.Ticket{}, false, entity.ErrInvalidToken
	}

	err = tx.GetContext(ctx, &ticket, `
		UPDATE tickets
		SET state = 'valid'
		WHERE ticket_id = $1 AND state = 'pending'
		RETURNING `+ticketColumns+`
	`, token.TicketID)
	if errors.Is(err, sqldb.ErrNoRows) {
		err = tx.GetContext(ctx, &ticket, `
			SELECT `+ticketColumns+` FROM tickets WHERE ticket_id = $1
		`, token.TicketID)
		if err != nil {
			return entity.Ticket{}, false, fmt.Errorf("could not get ticket for token: %w", err)
		}
		// Confirmed through another path; clicking the link again should still
		// show the ticket.
		if ticket.State == entity.TicketStateValid {
			return ticket, true, nil
		}
		// Cancelled or checked in since the token was minted. Roll back so the
		// token stays unconsumed.
		return entity.Ticket{}, false, entity.ErrInvalidState
	}
	if err != nil {
		return entity.Ticket{}, false, fmt.Errorf("could not confirm ticket: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE confirmation_tokens SET consumed_at = $2 WHERE token = $1
	`, tokenValue, now)
	if err != nil {
		return entity.Ticket{}, false, fmt.Errorf("could not consume token: %w", err)
	}

	eventBus, err := eventBusForTx(ctx, tx.Tx)
	if err != nil {
		return entity.Ticket{}, false, err
	}
	err = eventBus.Publish(ctx, entity.TicketConfirmed{
		Header:        entity.NewEventHeaderWithIdempotencyKey(token.TicketID + "/confirm"),
		TicketID:      ticket.TicketID,
		EventID:       ticket.EventID,
		AttendeeEmail: ticket.AttendeeEmail,
	})
	if err != nil {
		return entity.Ticket{}, false, fmt.Errorf("could not publish event: %w", err)
	}

	return ticket, false, nil
}
