package gateway

import (
	"context"
	"sync"

	"ticketing/entity"
)

type MailerMock struct {
	mock sync.Mutex

	SentEmails map[string]entity.SendConfirmationEmailRequest
}

func (c *MailerMock) SendConfirmationEmail(_ context.Context, request entity.SendConfirmationEmailRequest) error {
	c.mock.Lock()
	defer c.mock.Unlock()

	if c.SentEmails == nil {
		c.SentEmails = make(map[string]entity.SendConfirmationEmailRequest)
	}

	c.SentEmails[request.IdempotencyKey] = request

	return nil
}

// EmailsTo returns the requests sent to one recipient, in no particular order.
func (c *MailerMock) EmailsTo(email string) []entity.SendConfirmationEmailRequest {
	c.mock.Lock()
	defer c.mock.Unlock()

	var sent []entity.SendConfirmationEmailRequest
	for _, request := range c.SentEmails {
		if request.To == email {
			sent = append(sent, request)
		}
	}
	return sent
}
