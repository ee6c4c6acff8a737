package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/claude/healthtrends/internal/metrics"
	"github.com/claude/healthtrends/internal/models"
)

// TokenSource supplies the bearer token for API requests.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// StaticToken is a TokenSource that always returns the same token.
type StaticToken string

func (t StaticToken) Token(context.Context) (string, error) {
	return string(t), nil
}

// StatusError is returned for non-200 responses.
type StatusError struct {
	Path string
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("source: %s returned %d: %s", e.Path, e.Code, e.Body)
}

// Client reads health records, the profile and targets from the remote
// health API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenSource
}

var (
	_ metrics.RecordSource  = (*Client)(nil)
	_ metrics.ProfileSource = (*Client)(nil)
	_ metrics.TargetSource  = (*Client)(nil)
)

// NewClient creates a Client for baseURL. A zero timeout means 30 seconds.
func NewClient(baseURL string, timeout time.Duration, tokens TokenSource) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		tokens:     tokens,
	}
}

func (c *Client) get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("source: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.tokens != nil {
		tok, err := c.tokens.Token(ctx)
		if err != nil {
			return nil, fmt.Errorf("source: loading token: %w", err)
		}
		if tok != "" {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("source: %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("source: read body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{Path: path, Code: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	return body, nil
}

// FetchRecords fetches the raw records behind a metric chart.
func (c *Client) FetchRecords(ctx context.Context, d metrics.Descriptor, period metrics.Period) (models.RecordSet, error) {
	path, params, err := Endpoint(d.Metric, period)
	if err != nil {
		return models.RecordSet{}, err
	}
	body, err := c.get(ctx, path, params)
	if err != nil {
		return models.RecordSet{}, err
	}
	set, err := models.DecodeRecords(body)
	if err != nil {
		return models.RecordSet{}, fmt.Errorf("source: %s: %w", path, err)
	}
	return set, nil
}

// FetchProfile fetches height, date of birth and sex.
func (c *Client) FetchProfile(ctx context.Context) (*models.Profile, error) {
	body, err := c.get(ctx, profilePath, nil)
	if err != nil {
		return nil, err
	}
	return models.DecodeProfile(body)
}

// FetchLatestWeight returns the most recent body-composition weight in kg.
func (c *Client) FetchLatestWeight(ctx context.Context) (float64, error) {
	body, err := c.get(ctx, latestWeightPath, nil)
	if err != nil {
		return 0, err
	}
	return models.DecodeLatestWeight(body)
}

// FetchTarget returns the stored target for key, or nil when the user has
// not set one.
func (c *Client) FetchTarget(ctx context.Context, key string) (*float64, error) {
	body, err := c.get(ctx, targetPathPrefix+url.PathEscape(key), nil)
	if err != nil {
		var se *StatusError
		if errors.As(err, &se) && se.Code == http.StatusNotFound {
			return nil, nil
		}
		return nil, err
	}
	return models.DecodeTarget(body)
}

// CheckAuth verifies the current token by requesting the profile.
func (c *Client) CheckAuth(ctx context.Context) error {
	_, err := c.get(ctx, profilePath, nil)
	return err
}
