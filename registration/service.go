// Package registration owns the ticket lifecycle from the attendee's side:
// guarded registration, guest confirmation, cancellation and edits.
package registration

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lithammer/shortuuid/v3"

	"ticketing/entity"
	"ticketing/metrics"
	"ticketing/pkg/clock"
	"ticketing/pkg/ctxlog"
	"ticketing/ticketcode"
)

// ErrInvalidInput marks request validation failures, mapped to 400 upstream.
var ErrInvalidInput = errors.New("invalid input")

const defaultTokenTTL = 48 * time.Hour

type TicketsRepository interface {
	Create(ctx context.Context, ticket entity.Ticket, token *entity.ConfirmationToken) error
	GetByID(ctx context.Context, ticketID string) (entity.Ticket, error)
	FindActiveByEventAndEmail(ctx context.Context, eventID, email string) (*entity.Ticket, error)
	Cancel(ctx context.Context, ticketID string) (entity.Ticket, error)
	UpdateAttendee(ctx context.Context, ticketID string, details entity.AttendeeDetails) (entity.Ticket, error)
}

type TokensRepository interface {
	ConfirmByToken(ctx context.Context, token string, now time.Time) (entity.Ticket, bool, error)
}

type Service struct {
	guard    *Guard
	tickets  TicketsRepository
	tokens   TokensRepository
	codec    *ticketcode.Codec
	clock    clock.Clock
	tokenTTL time.Duration
}

func NewService(
	guard *Guard,
	tickets TicketsRepository,
	tokens TokensRepository,
	codec *ticketcode.Codec,
	clk clock.Clock,
	opts ...ServiceOption,
) *Service {
	svc := &Service{
		guard:    guard,
		tickets:  tickets,
		tokens:   tokens,
		codec:    codec,
		clock:    clk,
		tokenTTL: defaultTokenTTL,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

type ServiceOption func(*Service)

func WithTokenTTL(ttl time.Duration) ServiceOption {
	return func(s *Service) {
		s.tokenTTL = ttl
	}
}

type RegisterInput struct {
	EventID         string
	AttendeeName    string
	AttendeeEmail   string
	AttendeePhone   string
	AttendeeCompany string
	// RequiresConfirmation is set for guest registrations: the ticket starts
	// pending and becomes valid only once the mailed token is presented.
	RequiresConfirmation bool
}

// Register runs the guard, creates the ticket with its code already minted,
// and hands back the reserved seat if creation fails for any reason.
func (s *Service) Register(ctx context.Context, in RegisterInput) (entity.Ticket, error) {
	in.AttendeeEmail = strings.ToLower(strings.TrimSpace(in.AttendeeEmail))
	in.AttendeeName = strings.TrimSpace(in.AttendeeName)

	if err := validateRegisterInput(in); err != nil {
		metrics.RegistrationsRejected.WithLabelValues("invalid_input").Inc()
		return entity.Ticket{}, err
	}

	reservation, err := s.guard.TryRegister(ctx, in.EventID, in.AttendeeEmail)
	if err != nil {
		metrics.RegistrationsRejected.WithLabelValues(rejectionReason(err)).Inc()
		return entity.Ticket{}, err
	}

	ticket, token := s.buildTicket(in, reservation.Event)

	if err := s.tickets.Create(ctx, ticket, token); err != nil {
		if releaseErr := s.guard.Release(ctx, reservation); releaseErr != nil {
			ctxlog.FromContext(ctx).
				WithError(releaseErr).
				WithField("event_id", in.EventID).
				Error("failed to release seat after ticket creation failure")
		}
		metrics.RegistrationsRejected.WithLabelValues(rejectionReason(err)).Inc()
		return entity.Ticket{}, err
	}

	metrics.RegistrationsAccepted.Inc()
	return ticket, nil
}

func (s *Service) buildTicket(in RegisterInput, event entity.Event) (entity.Ticket, *entity.ConfirmationToken) {
	id := uuid.New()
	now := s.clock.Now()

	state := entity.TicketStateValid
	var token *entity.ConfirmationToken
	if in.RequiresConfirmation {
		state = entity.TicketStatePending
		token = &entity.ConfirmationToken{
			Token:     shortuuid.New(),
			TicketID:  id.String(),
			ExpiresAt: now.Add(s.tokenTTL),
		}
	}

	return entity.Ticket{
		TicketID:        id.String(),
		EventID:         event.EventID,
		AttendeeName:    in.AttendeeName,
		AttendeeEmail:   in.AttendeeEmail,
		AttendeePhone:   strings.TrimSpace(in.AttendeePhone),
		AttendeeCompany: strings.TrimSpace(in.AttendeeCompany),
		TicketType:      event.TicketTypeName,
		PriceAmount:     event.PriceAmount,
		PriceCurrency:   event.PriceCurrency,
		Code:            s.codec.Encode(id),
		State:           state,
		CreatedAt:       now,
	}, token
}

func (s *Service) GetTicket(ctx context.Context, ticketID string) (entity.Ticket, error) {
	return s.tickets.GetByID(ctx, ticketID)
}

// Cancel releases the ticket's seat back to the event; the repository does
// both in one transaction.
func (s *Service) Cancel(ctx context.Context, ticketID string) (entity.Ticket, error) {
	return s.tickets.Cancel(ctx, ticketID)
}

func (s *Service) UpdateAttendee(ctx context.Context, ticketID string, details entity.AttendeeDetails) (entity.Ticket, error) {
	details.Email = strings.ToLower(strings.TrimSpace(details.Email))
	details.Name = strings.TrimSpace(details.Name)
	if details.Name == "" {
		return entity.Ticket{}, fmt.Errorf("%w: attendee name is required", ErrInvalidInput)
	}
	if !isValidEmail(details.Email) {
		return entity.Ticket{}, fmt.Errorf("%w: attendee email is not a valid email address", ErrInvalidInput)
	}
	return s.tickets.UpdateAttendee(ctx, ticketID, details)
}

type ConfirmationResult struct {
	Ticket entity.Ticket
	// AlreadyConfirmed is the idempotent path: the token had been consumed
	// before, the ticket is returned as is. Not an error.
	AlreadyConfirmed bool
}

func (s *Service) Confirm(ctx context.Context, token string) (ConfirmationResult, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return ConfirmationResult{}, entity.ErrInvalidToken
	}

	ticket, alreadyConfirmed, err := s.tokens.ConfirmByToken(ctx, token, s.clock.Now())
	if err != nil {
		return ConfirmationResult{}, err
	}
	return ConfirmationResult{Ticket: ticket, AlreadyConfirmed: alreadyConfirmed}, nil
}

func validateRegisterInput(in RegisterInput) error {
	if in.EventID == "" {
		return fmt.Errorf("%w: event id is required", ErrInvalidInput)
	}
	if in.AttendeeName == "" {
		return fmt.Errorf("%w: attendee name is required", ErrInvalidInput)
	}
	if !isValidEmail(in.AttendeeEmail) {
		return fmt.Errorf("%w: attendee email is not a valid email address", ErrInvalidInput)
	}
	return nil
}

func isValidEmail(email string) bool {
	parts := strings.Split(email, "@")
	if len(parts) != 2 {
		return false
	}
	return len(parts[0]) > 0 && strings.Contains(parts[1], ".")
}

func rejectionReason(err error) string {
	var dup entity.DuplicateRegistrationError
	switch {
	case errors.As(err, &dup):
		return "duplicate_registration"
	case errors.Is(err, entity.ErrEventFull):
		return "event_full"
	case errors.Is(err, entity.ErrEventNotAcceptingRegistrations):
		return "event_not_accepting"
	case errors.Is(err, entity.ErrEventNotFound):
		return "event_not_found"
	default:
		return "error"
	}
}
