package entity

import "time"

type TicketState string

const (
	TicketStatePending   TicketState = "pending"
	TicketStateValid     TicketState = "valid"
	TicketStateCheckedIn TicketState = "checked_in"
	TicketStateCancelled TicketState = "cancelled"
)

// Terminal reports whether no further transition leaves this state.
func (s TicketState) Terminal() bool {
	return s == TicketStateCheckedIn || s == TicketStateCancelled
}

// CanTransitionTo encodes the ticket state machine:
//
//	pending -> valid -> checked_in
//	pending|valid -> cancelled
//
// States are monotonic; nothing leaves checked_in or cancelled.
func (s TicketState) CanTransitionTo(next TicketState) bool {
	switch s {
	case TicketStatePending:
		return next == TicketStateValid || next == TicketStateCancelled
	case TicketStateValid:
		return next == TicketStateCheckedIn || next == TicketStateCancelled
	default:
		return false
	}
}

// Ticket is one attendee's right to attend one event. The price is a snapshot
// taken at registration time and the code is minted once, at creation, so a
// pending ticket can already be printed. Tickets are never deleted; cancelling
// is a state change.
type Ticket struct {
	TicketID        string      `json:"ticket_id" db:"ticket_id"`
	EventID         string      `json:"event_id" db:"event_id"`
	AttendeeName    string      `json:"attendee_name" db:"attendee_name"`
	AttendeeEmail   string      `json:"attendee_email" db:"attendee_email"`
	AttendeePhone   string      `json:"attendee_phone" db:"attendee_phone"`
	AttendeeCompany string      `json:"attendee_company" db:"attendee_company"`
	TicketType      string      `json:"ticket_type" db:"ticket_type"`
	PriceAmount     string      `json:"price_amount" db:"price_amount"`
	PriceCurrency   string      `json:"price_currency" db:"price_currency"`
	Code            string      `json:"code" db:"code"`
	State           TicketState `json:"state" db:"state"`
	CheckedInAt     *time.Time  `json:"checked_in_at" db:"checked_in_at"`
	CreatedAt       time.Time   `json:"created_at" db:"created_at"`
}

func (t Ticket) Price() Money {
	return Money{Amount: t.PriceAmount, Currency: t.PriceCurrency}
}

// AttendeeDetails are the only ticket fields an attendee may edit, and only
// while the ticket is valid and unused.
type AttendeeDetails struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Company string `json:"company"`
}
