// Package notify hands successful bookings to the external confirmation
// collaborator. The hand-off is fire-and-forget from the caller's point of
// view: delivery failure is logged upstream and never affects the
// reservation itself. Delivery is an HTTP POST to a configured function
// endpoint (the email sender runs outside this service).
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Confirmation is the payload delivered for a confirmed booking.
type Confirmation struct {
	Email string `json:"email"`
	Date  string `json:"date"`
	Time  string `json:"time"`
}

// Notifier delivers booking confirmations. Implementations must honor the
// context and return delivery errors for the caller to log.
type Notifier interface {
	ReservationConfirmed(ctx context.Context, c Confirmation) error
}

// Webhook posts confirmations as JSON to a fixed endpoint.
type Webhook struct {
	url    string
	client *http.Client
}

// NewWebhook builds a Webhook notifier. A timeout of 0 defaults to 10s.
func NewWebhook(url string, timeout time.Duration) *Webhook {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Webhook{
		url:    url,
		client: &http.Client{Timeout: timeout},
	}
}

// ReservationConfirmed posts the confirmation payload. Any non-2xx status
// is reported as an error.
func (w *Webhook) ReservationConfirmed(ctx context.Context, c Confirmation) error {
	body, err := json.Marshal(c)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("confirmation endpoint returned %s", resp.Status)
	}
	return nil
}

// Noop discards confirmations; used when no endpoint is configured.
type Noop struct{}

// ReservationConfirmed implements Notifier as a no-op.
func (Noop) ReservationConfirmed(context.Context, Confirmation) error { return nil }
