package entity

import (
	"time"

	"github.com/google/uuid"
)

type EventHeader struct {
	ID             string    `json:"id"`
	PublishedAt    time.Time `json:"published_at"`
	IdempotencyKey string    `json:"idempotency_key"`
}

func NewEventHeader() EventHeader {
	return EventHeader{
		ID:          uuid.NewString(),
		PublishedAt: time.Now().UTC(),
	}
}

func NewEventHeaderWithIdempotencyKey(idempotencyKey string) EventHeader {
	return EventHeader{
		ID:             uuid.NewString(),
		PublishedAt:    time.Now().UTC(),
		IdempotencyKey: idempotencyKey,
	}
}

type TicketRegistered struct {
	Header               EventHeader `json:"header"`
	TicketID             string      `json:"ticket_id"`
	EventID              string      `json:"event_id"`
	AttendeeName         string      `json:"attendee_name"`
	AttendeeEmail        string      `json:"attendee_email"`
	TicketType           string      `json:"ticket_type"`
	Price                Money       `json:"price"`
	RequiresConfirmation bool        `json:"requires_confirmation"`
	ConfirmationToken    string      `json:"confirmation_token,omitempty"`
}

type TicketConfirmed struct {
	Header        EventHeader `json:"header"`
	TicketID      string      `json:"ticket_id"`
	EventID       string      `json:"event_id"`
	AttendeeEmail string      `json:"attendee_email"`
}

type TicketCheckedIn struct {
	Header      EventHeader `json:"header"`
	TicketID    string      `json:"ticket_id"`
	EventID     string      `json:"event_id"`
	CheckedInAt time.Time   `json:"checked_in_at"`
}

type TicketCancelled struct {
	Header        EventHeader `json:"header"`
	TicketID      string      `json:"ticket_id"`
	EventID       string      `json:"event_id"`
	AttendeeEmail string      `json:"attendee_email"`
}

// AuditEvent is the stored form of any published lifecycle event.
type AuditEvent struct {
	EventID     string    `db:"event_id"`
	PublishedAt time.Time `db:"published_at"`
	EventName   string    `db:"event_name"`
	Payload     []byte    `db:"event_payload"`
}
