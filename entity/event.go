package entity

import "time"

type EventStatus string

const (
	EventStatusUpcoming  EventStatus = "upcoming"
	EventStatusOngoing   EventStatus = "ongoing"
	EventStatusCompleted EventStatus = "completed"
	EventStatusCancelled EventStatus = "cancelled"
)

// Event is an organizer-created event with a fixed capacity.
// RegisteredCount counts non-cancelled tickets and is mutated only through
// the atomic reserve/release operations in the events repository.
type Event struct {
	EventID         string      `json:"event_id" db:"event_id"`
	Name            string      `json:"name" db:"name"`
	Capacity        int         `json:"capacity" db:"capacity"`
	RegisteredCount int         `json:"registered_count" db:"registered_count"`
	Status          EventStatus `json:"status" db:"status"`
	TicketTypeName  string      `json:"ticket_type_name" db:"ticket_type_name"`
	PriceAmount     string      `json:"price_amount" db:"price_amount"`
	PriceCurrency   string      `json:"price_currency" db:"price_currency"`
	StartsAt        time.Time   `json:"starts_at" db:"starts_at"`
	CreatedAt       time.Time   `json:"created_at" db:"created_at"`
}

func (e Event) Remaining() int {
	return e.Capacity - e.RegisteredCount
}

func (e Event) IsFull() bool {
	return e.RegisteredCount >= e.Capacity
}

// AcceptsRegistrations reports whether new registrations are allowed in the
// event's current status. Capacity is checked separately.
func (e Event) AcceptsRegistrations() bool {
	return e.Status == EventStatusUpcoming || e.Status == EventStatusOngoing
}

type Money struct {
	Amount   string `json:"amount"`
	Currency string `json:"currency"`
}
