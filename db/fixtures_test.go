package db

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"ticketing/entity"
	"ticketing/ticketcode"
)

var testCodec = ticketcode.New([]byte("db-test-secret"))

func newTestEvent(capacity int, status entity.EventStatus) entity.Event {
	return entity.Event{
		EventID:        uuid.NewString(),
		Name:           "GopherCon",
		Capacity:       capacity,
		Status:         status,
		TicketTypeName: "General Admission",
		PriceAmount:    "50.00",
		PriceCurrency:  "EUR",
		StartsAt:       time.Now().UTC().Add(24 * time.Hour),
		CreatedAt:      time.Now().UTC(),
	}
}

func newTestTicket(eventID, email string, state entity.TicketState) entity.Ticket {
	id := uuid.New()
	return entity.Ticket{
		TicketID:      id.String(),
		EventID:       eventID,
		AttendeeName:  "Ada Lovelace",
		AttendeeEmail: email,
		TicketType:    "General Admission",
		PriceAmount:   "50.00",
		PriceCurrency: "EUR",
		Code:          testCodec.Encode(id),
		State:         state,
		CreatedAt:     time.Now().UTC(),
	}
}

func storeTestEvent(t *testing.T, repo *EventsPostgresRepository, capacity int, status entity.EventStatus) entity.Event {
	t.Helper()
	event := newTestEvent(capacity, status)
	require.NoError(t, repo.Store(context.Background(), event))
	return event
}

func createTestTicket(t *testing.T, repo *TicketsPostgresRepository, eventID, email string, state entity.TicketState) entity.Ticket {
	t.Helper()
	ticket := newTestTicket(eventID, email, state)
	require.NoError(t, repo.Create(context.Background(), ticket, nil))
	return ticket
}
