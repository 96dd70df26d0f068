package db

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ticketing/entity"
)

func TestTokensRepository_ConfirmByToken_isIdempotent(t *testing.T) {
	ctx := context.Background()
	dbconn := GetDb(t)
	events := NewEventsPostgresRepository(dbconn)
	tickets := NewTicketsPostgresRepository(dbconn)
	tokens := NewTokensPostgresRepository(dbconn)

	event := storeTestEvent(t, events, 10, entity.EventStatusUpcoming)
	ticket := newTestTicket(event.EventID, "confirm@example.com", entity.TicketStatePending)
	token := &entity.ConfirmationToken{
		Token:     uuid.NewString(),
		TicketID:  ticket.TicketID,
		ExpiresAt: time.Now().UTC().Add(48 * time.Hour),
	}
	require.NoError(t, tickets.Create(ctx, ticket, token))

	now := time.Now().UTC()

	confirmed, alreadyConfirmed, err := tokens.ConfirmByToken(ctx, token.Token, now)
	require.NoError(t, err)
	assert.False(t, alreadyConfirmed)
	assert.Equal(t, entity.TicketStateValid, confirmed.State)

	// Clicking the email link again returns the same ticket, not an error.
	confirmed, alreadyConfirmed, err = tokens.ConfirmByToken(ctx, token.Token, now.Add(time.Minute))
	require.NoError(t, err)
	assert.True(t, alreadyConfirmed)
	assert.Equal(t, ticket.TicketID, confirmed.TicketID)
	assert.Equal(t, entity.TicketStateValid, confirmed.State)
}

func TestTokensRepository_ConfirmByToken_unknownToken(t *testing.T) {
	tokens := NewTokensPostgresRepository(GetDb(t))

	_, _, err := tokens.ConfirmByToken(context.Background(), uuid.NewString(), time.Now().UTC())
	assert.ErrorIs(t, err, entity.ErrInvalidToken)
}

func TestTokensRepository_ConfirmByToken_expiredToken(t *testing.T) {
	ctx := context.Background()
	dbconn := GetDb(t)
	events := NewEventsPostgresRepository(dbconn)
	tickets := NewTicketsPostgresRepository(dbconn)
	tokens := NewTokensPostgresRepository(dbconn)

	event := storeTestEvent(t, events, 10, entity.EventStatusUpcoming)
	ticket := newTestTicket(event.EventID, "late@example.com", entity.TicketStatePending)
	token := &entity.ConfirmationToken{
		Token:     uuid.NewString(),
		TicketID:  ticket.TicketID,
		ExpiresAt: time.Now().UTC().Add(-time.Hour),
	}
	require.NoError(t, tickets.Create(ctx, ticket, token))

	_, _, err := tokens.ConfirmByToken(ctx, token.Token, time.Now().UTC())
	assert.ErrorIs(t, err, entity.ErrInvalidToken)

	stored, err := tickets.GetByID(ctx, ticket.TicketID)
	require.NoError(t, err)
	assert.Equal(t, entity.TicketStatePending, stored.State)
}

func TestTokensRepository_ConfirmByToken_cancelledTicketLeavesTokenUnconsumed(t *testing.T) {
	ctx := context.Background()
	dbconn := GetDb(t)
	events := NewEventsPostgresRepository(dbconn)
	tickets := NewTicketsPostgresRepository(dbconn)
	tokens := NewTokensPostgresRepository(dbconn)

	event := storeTestEvent(t, events, 10, entity.EventStatusUpcoming)
	ticket := newTestTicket(event.EventID, "cancelled-guest@example.com", entity.TicketStatePending)
	token := &entity.ConfirmationToken{
		Token:     uuid.NewString(),
		TicketID:  ticket.TicketID,
		ExpiresAt: time.Now().UTC().Add(48 * time.Hour),
	}
	require.NoError(t, tickets.Create(ctx, ticket, token))

	_, err := tickets.Cancel(ctx, ticket.TicketID)
	require.NoError(t, err)

	now := time.Now().UTC()

	// Both attempts classify as InvalidState, never as AlreadyConfirmed: the
	// failed first attempt must not have consumed the token.
	for i := 0; i < 2; i++ {
		_, _, err = tokens.ConfirmByToken(ctx, token.Token, now)
		assert.ErrorIs(t, err, entity.ErrInvalidState)
	}
}
