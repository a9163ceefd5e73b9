package notification

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// Confirmer completes a subscription handshake by fetching its URL
type Confirmer interface {
	Confirm(ctx context.Context, subscribeURL string) error
}

// HTTPConfirmer confirms subscriptions with a plain HTTP GET
type HTTPConfirmer struct {
	Client *http.Client
}

func (c *HTTPConfirmer) Confirm(ctx context.Context, subscribeURL string) error {
	u, err := url.Parse(subscribeURL)
	if err != nil || !u.IsAbs() || (u.Scheme != "https" && u.Scheme != "http") {
		return fmt.Errorf("invalid subscribe URL %q", subscribeURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return fmt.Errorf("failed to create confirmation request: %w", err)
	}

	client := c.Client
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send confirmation request: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("confirmation request failed with status %d", resp.StatusCode)
	}
	return nil
}
