package mirror

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/claude/healthtrends/internal/models"
)

// PushResult is the ingest endpoint's reply.
type PushResult struct {
	Received int64 `json:"received"`
	Inserted int64 `json:"inserted"`
}

// Pusher sends record batches to a local-mode healthtrends server.
type Pusher struct {
	serverURL  string
	apiKey     string
	httpClient *http.Client
	attempts   int
	// backoff returns the wait before retry n (n >= 1).
	backoff func(n int) time.Duration
}

// NewPusher creates a client for the server's record ingest endpoint.
func NewPusher(serverURL, apiKey string) *Pusher {
	return &Pusher{
		serverURL: serverURL,
		apiKey:    apiKey,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		attempts: 3,
		backoff: func(n int) time.Duration {
			return time.Duration(1<<uint(n-1)) * time.Second
		},
	}
}

// Push POSTs one batch to /api/v1/records. Retries up to 3 times with
// exponential backoff on transport errors and 5xx responses.
func (p *Pusher) Push(ctx context.Context, rows []models.HealthRecordRow) (PushResult, error) {
	data, err := json.Marshal(map[string]any{"records": rows})
	if err != nil {
		return PushResult{}, fmt.Errorf("marshaling records: %w", err)
	}

	var lastErr error
	for attempt := range p.attempts {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return PushResult{}, ctx.Err()
			case <-time.After(p.backoff(attempt)):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.serverURL+"/api/v1/records", bytes.NewReader(data))
		if err != nil {
			return PushResult{}, fmt.Errorf("creating request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-API-Key", p.apiKey)

		resp, err := p.httpClient.Do(req)
		if err != nil {
			lastErr = err
			continue
		}
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()

		if resp.StatusCode == http.StatusOK {
			var res PushResult
			if err := json.Unmarshal(body, &res); err != nil {
				return PushResult{}, fmt.Errorf("decoding ingest response: %w", err)
			}
			return res, nil
		}
		lastErr = fmt.Errorf("ingest failed (status %d): %s", resp.StatusCode, body)
		if resp.StatusCode < 500 {
			return PushResult{}, lastErr
		}
	}

	return PushResult{}, fmt.Errorf("after %d attempts: %w", p.attempts, lastErr)
}
