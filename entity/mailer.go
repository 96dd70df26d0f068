package entity

// SendConfirmationEmailRequest asks the mailer to deliver the confirmation
// link for a pending registration. IdempotencyKey deduplicates re-sends on
// message re-delivery.
type SendConfirmationEmailRequest struct {
	IdempotencyKey    string `json:"idempotency_key"`
	To                string `json:"to"`
	TicketID          string `json:"ticket_id"`
	EventID           string `json:"event_id"`
	ConfirmationToken string `json:"confirmation_token"`
}
