package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// WebhookClient pushes notifications to an external delivery endpoint
// (a chat integration, a push gateway, whatever the deployment wires up).
type WebhookClient struct {
	URL  string
	HTTP *http.Client
	Skip bool
}

// NewWebhookClient creates a client. With skip set, or an empty URL, Push is
// a no-op that reports success; useful for dev and tests.
func NewWebhookClient(url string, skip bool) *WebhookClient {
	return &WebhookClient{
		URL:  url,
		Skip: skip || url == "",
		HTTP: &http.Client{Timeout: 10 * time.Second},
	}
}

// Push POSTs one notification as JSON. Non-2xx responses are errors.
func (c *WebhookClient) Push(ctx context.Context, n Notification) error {
	if c.Skip {
		return nil
	}

	body, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("webhook: marshal failed: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("webhook: create request failed: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("webhook: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return fmt.Errorf("webhook: status %d: %s", resp.StatusCode, snippet)
	}
	return nil
}
