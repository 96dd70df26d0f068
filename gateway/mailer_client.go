package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"ticketing/entity"
	"ticketing/pkg/ctxlog"
)

// MailerClient talks to the mailer service that delivers confirmation emails.
type MailerClient struct {
	addr       string
	httpClient *http.Client
}

func NewMailerClient(addr string) MailerClient {
	if addr == "" {
		panic("missing mailer addr")
	}
	return MailerClient{
		addr: addr,
		httpClient: &http.Client{
			Timeout:   time.Second * 10,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

func (c MailerClient) SendConfirmationEmail(ctx context.Context, request entity.SendConfirmationEmailRequest) error {
	body, err := json.Marshal(request)
	if err != nil {
		return fmt.Errorf("could not marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.addr+"/emails/confirmation", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("could not create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Correlation-ID", ctxlog.CorrelationIDFromContext(ctx))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("could not send confirmation email: %w", err)
	}
	defer resp.Body.Close()

	// 409 means the mailer already accepted this idempotency key.
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusConflict {
		return fmt.Errorf("unexpected status code for POST /emails/confirmation: %d", resp.StatusCode)
	}

	return nil
}
