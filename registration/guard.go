package registration

import (
	"context"
	"fmt"

	"ticketing/entity"
)

type EventsRepository interface {
	Get(ctx context.Context, eventID string) (entity.Event, error)
	ReserveSeat(ctx context.Context, eventID string) error
	ReleaseSeat(ctx context.Context, eventID string) error
}

type ActiveRegistrationFinder interface {
	FindActiveByEventAndEmail(ctx context.Context, eventID, email string) (*entity.Ticket, error)
}

// Guard gate-keeps ticket creation so the capacity and uniqueness invariants
// hold under concurrent registration attempts. The duplicate pre-check here is
// advisory (it produces the friendly rejection with the existing ticket's ID);
// the database's partial unique index and the conditional seat reservation are
// what make the invariants hold under races.
type Guard struct {
	events  EventsRepository
	tickets ActiveRegistrationFinder
}

func NewGuard(events EventsRepository, tickets ActiveRegistrationFinder) *Guard {
	return &Guard{events: events, tickets: tickets}
}

// Reservation is one seat held on the event for a registration in flight.
// Release it if the ticket cannot be created, or the seat is lost for good.
type Reservation struct {
	Event entity.Event
}

func (g *Guard) TryRegister(ctx context.Context, eventID, email string) (Reservation, error) {
	event, err := g.events.Get(ctx, eventID)
	if err != nil {
		return Reservation{}, err
	}
	if !event.AcceptsRegistrations() {
		return Reservation{}, entity.ErrEventNotAcceptingRegistrations
	}

	existing, err := g.tickets.FindActiveByEventAndEmail(ctx, eventID, email)
	if err != nil {
		return Reservation{}, fmt.Errorf("could not check for existing registration: %w", err)
	}
	if existing != nil {
		return Reservation{}, entity.DuplicateRegistrationError{ExistingTicketID: existing.TicketID}
	}

	if err := g.events.ReserveSeat(ctx, eventID); err != nil {
		return Reservation{}, err
	}

	return Reservation{Event: event}, nil
}

func (g *Guard) Release(ctx context.Context, reservation Reservation) error {
	return g.events.ReleaseSeat(ctx, reservation.Event.EventID)
}
