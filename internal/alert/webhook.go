package alert

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const defaultWebhookTimeout = 10 * time.Second

// WebhookDispatcher posts alerts as JSON to an HTTP endpoint.
type WebhookDispatcher struct {
	url    string
	client *http.Client
}

// WebhookOption configures a WebhookDispatcher.
type WebhookOption func(*WebhookDispatcher)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c *http.Client) WebhookOption {
	return func(d *WebhookDispatcher) {
		d.client = c
	}
}

// NewWebhookDispatcher creates a dispatcher posting to the given URL.
func NewWebhookDispatcher(url string, opts ...WebhookOption) *WebhookDispatcher {
	d := &WebhookDispatcher{
		url:    url,
		client: &http.Client{Timeout: defaultWebhookTimeout},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

var _ Dispatcher = (*WebhookDispatcher)(nil)

// Dispatch posts the alert. A non-2xx response is an error.
func (d *WebhookDispatcher) Dispatch(ctx context.Context, a *Alert) error {
	body, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("marshal alert: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build alert request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("post alert: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("alert webhook returned status %d", resp.StatusCode)
	}
	return nil
}
