package registration_test

import (
	"context"
	"strings"
	"sync"
	"time"

	"ticketing/entity"
)

// In-memory repositories mirroring the atomic semantics of the Postgres
// layer: conditional seat reservation and compare-and-swap state transitions,
// all under one mutex.

type fakeStore struct {
	mu      sync.Mutex
	events  map[string]entity.Event
	tickets map[string]entity.Ticket
	tokens  map[string]entity.ConfirmationToken

	failCreate error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		events:  map[string]entity.Event{},
		tickets: map[string]entity.Ticket{},
		tokens:  map[string]entity.ConfirmationToken{},
	}
}

func (s *fakeStore) addEvent(event entity.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events[event.EventID] = event
}

func (s *fakeStore) Get(_ context.Context, eventID string) (entity.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	event, ok := s.events[eventID]
	if !ok {
		return entity.Event{}, entity.ErrEventNotFound
	}
	return event, nil
}

func (s *fakeStore) ReserveSeat(_ context.Context, eventID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	event, ok := s.events[eventID]
	if !ok {
		return entity.ErrEventNotFound
	}
	if !event.AcceptsRegistrations() {
		return entity.ErrEventNotAcceptingRegistrations
	}
	if event.IsFull() {
		return entity.ErrEventFull
	}
	event.RegisteredCount++
	s.events[eventID] = event
	return nil
}

func (s *fakeStore) ReleaseSeat(_ context.Context, eventID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	event, ok := s.events[eventID]
	if !ok {
		return entity.ErrEventNotFound
	}
	if event.RegisteredCount > 0 {
		event.RegisteredCount--
	}
	s.events[eventID] = event
	return nil
}

func (s *fakeStore) Create(_ context.Context, ticket entity.Ticket, token *entity.ConfirmationToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failCreate != nil {
		return s.failCreate
	}
	if existing := s.findActiveLocked(ticket.EventID, ticket.AttendeeEmail); existing != nil {
		return entity.DuplicateRegistrationError{ExistingTicketID: existing.TicketID}
	}
	s.tickets[ticket.TicketID] = ticket
	if token != nil {
		s.tokens[token.Token] = *token
	}
	return nil
}

func (s *fakeStore) GetByID(_ context.Context, ticketID string) (entity.Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ticket, ok := s.tickets[ticketID]
	if !ok {
		return entity.Ticket{}, entity.ErrTicketNotFound
	}
	return ticket, nil
}

func (s *fakeStore) FindActiveByEventAndEmail(_ context.Context, eventID, email string) (*entity.Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.findActiveLocked(eventID, email), nil
}

func (s *fakeStore) findActiveLocked(eventID, email string) *entity.Ticket {
	for _, ticket := range s.tickets {
		if ticket.EventID == eventID &&
			strings.EqualFold(ticket.AttendeeEmail, email) &&
			ticket.State != entity.TicketStateCancelled {
			t := ticket
			return &t
		}
	}
	return nil
}

func (s *fakeStore) Cancel(_ context.Context, ticketID string) (entity.Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ticket, ok := s.tickets[ticketID]
	if !ok {
		return entity.Ticket{}, entity.ErrTicketNotFound
	}
	if !ticket.State.CanTransitionTo(entity.TicketStateCancelled) {
		return entity.Ticket{}, entity.ErrInvalidState
	}
	ticket.State = entity.TicketStateCancelled
	s.tickets[ticketID] = ticket

	event := s.events[ticket.EventID]
	if event.RegisteredCount > 0 {
		event.RegisteredCount--
	}
	s.events[ticket.EventID] = event
	return ticket, nil
}

func (s *fakeStore) UpdateAttendee(_ context.Context, ticketID string, details entity.AttendeeDetails) (entity.Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ticket, ok := s.tickets[ticketID]
	if !ok {
		return entity.Ticket{}, entity.ErrTicketNotFound
	}
	if ticket.State != entity.TicketStateValid {
		return entity.Ticket{}, entity.ErrInvalidState
	}
	ticket.AttendeeName = details.Name
	ticket.AttendeeEmail = details.Email
	ticket.AttendeePhone = details.Phone
	ticket.AttendeeCompany = details.Company
	s.tickets[ticketID] = ticket
	return ticket, nil
}

func (s *fakeStore) ConfirmByToken(_ context.Context, tokenValue string, now time.Time) (entity.Ticket, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	token, ok := s.tokens[tokenValue]
	if !ok {
		return entity.Ticket{}, false, entity.ErrInvalidToken
	}
	if token.Consumed() {
		return s.tickets[token.TicketID], true, nil
	}
	if token.Expired(now) {
		return entity.Ticket{}, false, entity.ErrInvalidToken
	}

	ticket := s.tickets[token.TicketID]
	if ticket.State == entity.TicketStateValid {
		return ticket, true, nil
	}
	if ticket.State != entity.TicketStatePending {
		return entity.Ticket{}, false, entity.ErrInvalidState
	}
	ticket.State = entity.TicketStateValid
	s.tickets[token.TicketID] = ticket

	consumedAt := now
	token.ConsumedAt = &consumedAt
	s.tokens[tokenValue] = token

	return ticket, false, nil
}
