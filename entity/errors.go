package entity

import (
	"errors"
	"fmt"
	"time"
)

// Rejections are expected, user-facing outcomes. Handlers branch on them to
// render distinct responses; they are never wrapped into panics or retried
// internally.
var (
	ErrEventNotFound                  = errors.New("event not found")
	ErrEventFull                      = errors.New("event is full")
	ErrEventNotAcceptingRegistrations = errors.New("event is not accepting registrations")
	ErrTicketNotFound                 = errors.New("ticket not found")
	ErrTicketCancelled                = errors.New("ticket is cancelled")
	ErrTicketNotConfirmed             = errors.New("ticket is not confirmed yet")
	ErrInvalidToken                   = errors.New("invalid or expired confirmation token")
	ErrInvalidState                   = errors.New("operation not allowed in current ticket state")
	ErrMalformedCode                  = errors.New("malformed ticket code")
)

// DuplicateRegistrationError rejects a second active registration for the
// same (event, email) pair. It carries the existing ticket's ID so the caller
// can offer a "view your ticket" link.
type DuplicateRegistrationError struct {
	ExistingTicketID string
}

func (e DuplicateRegistrationError) Error() string {
	return fmt.Sprintf("email already registered for this event (ticket %s)", e.ExistingTicketID)
}

// AlreadyCheckedInError is the idempotency signal for a re-scanned ticket.
// It carries the original check-in time so a door operator can see when the
// ticket was first used.
type AlreadyCheckedInError struct {
	CheckedInAt time.Time
}

func (e AlreadyCheckedInError) Error() string {
	return fmt.Sprintf("ticket already checked in at %s", e.CheckedInAt.Format(time.RFC3339))
}
