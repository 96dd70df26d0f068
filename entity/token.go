package entity

import "time"

// ConfirmationToken is mailed to guests who registered without an account.
// It confirms exactly one ticket; presenting it again after consumption is an
// idempotent success, not an error.
type ConfirmationToken struct {
	Token      string     `json:"token" db:"token"`
	TicketID   string     `json:"ticket_id" db:"ticket_id"`
	ExpiresAt  time.Time  `json:"expires_at" db:"expires_at"`
	ConsumedAt *time.Time `json:"consumed_at" db:"consumed_at"`
}

func (t ConfirmationToken) Consumed() bool {
	return t.ConsumedAt != nil
}

func (t ConfirmationToken) Expired(now time.Time) bool {
	return now.After(t.ExpiresAt)
}
