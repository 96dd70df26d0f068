// Package checkin is the door-side operation: it turns an arbitrary scanned
// string into a check-in decision.
package checkin

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"ticketing/entity"
	"ticketing/metrics"
	"ticketing/pkg/clock"
	"ticketing/ticketcode"
)

type FailureKind string

const (
	FailureMalformedCode FailureKind = "malformed_code"
	FailureNotFound      FailureKind = "not_found"
	FailureAlreadyUsed   FailureKind = "already_used"
	FailureCancelled     FailureKind = "cancelled"
	FailureNotConfirmed  FailureKind = "not_confirmed"
)

// VerificationFailure is an expected rejection at the door. A duplicate scan
// from a jittery camera is normal operation, so AlreadyUsed carries the
// original check-in time for the operator instead of being a hard error.
type VerificationFailure struct {
	Kind        FailureKind
	CheckedInAt *time.Time // set for AlreadyUsed
	cause       error
}

func (f *VerificationFailure) Error() string {
	return fmt.Sprintf("verification failed: %s", f.Kind)
}

func (f *VerificationFailure) Unwrap() error {
	return f.cause
}

type VerifiedAttendee struct {
	TicketID        string    `json:"ticket_id"`
	AttendeeName    string    `json:"attendee_name"`
	AttendeeEmail   string    `json:"attendee_email"`
	AttendeeCompany string    `json:"attendee_company"`
	TicketType      string    `json:"ticket_type"`
	CheckedInAt     time.Time `json:"checked_in_at"`
}

type TicketsRepository interface {
	CheckIn(ctx context.Context, ticketID string, now time.Time) (entity.Ticket, error)
}

// Verifier decodes scanned codes and drives the check-in transition. It never
// retries: the storage-level conditional update guarantees that of two
// simultaneous scans exactly one succeeds, and the loser comes back as
// AlreadyUsed.
type Verifier struct {
	codec   *ticketcode.Codec
	tickets TicketsRepository
	clock   clock.Clock
}

func NewVerifier(codec *ticketcode.Codec, tickets TicketsRepository, clk clock.Clock) *Verifier {
	return &Verifier{codec: codec, tickets: tickets, clock: clk}
}

func (v *Verifier) Verify(ctx context.Context, rawInput string) (VerifiedAttendee, error) {
	ticketID, err := v.codec.Decode(strings.TrimSpace(rawInput))
	if err != nil {
		metrics.CheckIns.WithLabelValues(string(FailureMalformedCode)).Inc()
		return VerifiedAttendee{}, &VerificationFailure{Kind: FailureMalformedCode, cause: err}
	}

	ticket, err := v.tickets.CheckIn(ctx, ticketID.String(), v.clock.Now())
	if err != nil {
		return VerifiedAttendee{}, v.classify(err)
	}

	metrics.CheckIns.WithLabelValues("verified").Inc()
	return VerifiedAttendee{
		TicketID:        ticket.TicketID,
		AttendeeName:    ticket.AttendeeName,
		AttendeeEmail:   ticket.AttendeeEmail,
		AttendeeCompany: ticket.AttendeeCompany,
		TicketType:      ticket.TicketType,
		CheckedInAt:     *ticket.CheckedInAt,
	}, nil
}

func (v *Verifier) classify(err error) error {
	var already entity.AlreadyCheckedInError
	var failure *VerificationFailure

	switch {
	case errors.As(err, &already):
		failure = &VerificationFailure{Kind: FailureAlreadyUsed, CheckedInAt: &already.CheckedInAt, cause: err}
	case errors.Is(err, entity.ErrTicketNotFound):
		failure = &VerificationFailure{Kind: FailureNotFound, cause: err}
	case errors.Is(err, entity.ErrTicketCancelled):
		failure = &VerificationFailure{Kind: FailureCancelled, cause: err}
	case errors.Is(err, entity.ErrTicketNotConfirmed):
		failure = &VerificationFailure{Kind: FailureNotConfirmed, cause: err}
	default:
		// Infrastructure failure: the caller must see "try again", never a
		// misleading rejection.
		metrics.CheckIns.WithLabelValues("error").Inc()
		return err
	}

	metrics.CheckIns.WithLabelValues(string(failure.Kind)).Inc()
	return failure
}
