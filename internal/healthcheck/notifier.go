// Package healthcheck reports liveness to an external monitor in the
// healthchecks.io style: a GET on the project URL signals "up", the
// /fail suffix signals "down".
package healthcheck

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

type Notifier struct {
	baseURL    string
	httpClient *http.Client
}

func NewNotifier(baseURL string) *Notifier {
	return &Notifier{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 5 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 2,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

func (n *Notifier) Healthy(ctx context.Context) error {
	return n.ping(ctx, n.baseURL)
}

func (n *Notifier) Unhealthy(ctx context.Context) error {
	return n.ping(ctx, n.baseURL+"/fail")
}

func (n *Notifier) ping(ctx context.Context, url string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("monitor returned status %d", resp.StatusCode)
	}
	return nil
}
