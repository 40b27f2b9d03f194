package syncclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"happy-store/internal/models"
	"happy-store/internal/util"

	"go.uber.org/zap"
)

// Status classifies the outcome of talking to the remote blob store
type Status string

const (
	StatusLoading   Status = "loading"
	StatusConnected Status = "connected"
	StatusLocalOnly Status = "local-only"
	StatusError     Status = "error"
)

// ErrNoBackend indicates the remote endpoint does not exist in an environment
// where that is expected (no backend deployed). Callers downgrade to
// local-only mode rather than reporting a failure.
var ErrNoBackend = errors.New("no remote backend available")

// FetchResult is the classified outcome of a remote fetch
type FetchResult struct {
	Status Status
	Data   *models.Aggregate
	Err    error
}

// Client treats a single HTTP endpoint as an opaque whole-aggregate blob
// store: GET fetches the blob, POST replaces it entirely (last-writer-wins,
// no merge, no concurrency token).
type Client struct {
	baseURL string
	env     string
	http    *http.Client
	logger  *zap.Logger
}

// New creates a sync client against baseURL. env decides whether a missing
// endpoint means "not deployed yet" (development) or a misconfiguration
// (production).
func New(baseURL, env string) *Client {
	return &Client{
		baseURL: baseURL,
		env:     env,
		http:    &http.Client{Timeout: 15 * time.Second},
		logger:  util.GetLogger(),
	}
}

// FetchAggregate GETs the remote blob and classifies the outcome.
func (c *Client) FetchAggregate(ctx context.Context) FetchResult {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL, nil)
	if err != nil {
		return c.errorResult(fmt.Errorf("failed to build fetch request: %w", err))
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return c.errorResult(fmt.Errorf("cloud fetch failed: %w", err))
	}
	defer resp.Body.Close()

	if c.isMissingBackend(resp) {
		if c.env != "production" {
			util.SyncFetchesTotal.WithLabelValues(string(StatusLocalOnly)).Inc()
			c.logger.Info("No remote backend, running local-only")
			return FetchResult{Status: StatusLocalOnly}
		}
		return c.errorResult(fmt.Errorf("remote backend missing in production: status %d", resp.StatusCode))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.errorResult(fmt.Errorf("cloud error: status %d", resp.StatusCode))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return c.errorResult(fmt.Errorf("failed to read cloud response: %w", err))
	}

	util.SyncFetchesTotal.WithLabelValues(string(StatusConnected)).Inc()

	// The backend returns a JSON null until the first push.
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return FetchResult{Status: StatusConnected}
	}

	var agg models.Aggregate
	if err := json.Unmarshal(trimmed, &agg); err != nil {
		return c.errorResult(fmt.Errorf("malformed cloud payload: %w", err))
	}

	return FetchResult{Status: StatusConnected, Data: &agg}
}

// PushAggregate POSTs the full aggregate, replacing the remote blob entirely.
// Returns ErrNoBackend when the endpoint does not exist so the caller can
// distinguish "no backend" from a genuine failure.
func (c *Client) PushAggregate(ctx context.Context, agg *models.Aggregate) error {
	payload, err := json.Marshal(agg)
	if err != nil {
		return fmt.Errorf("failed to marshal aggregate: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build push request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("cloud save failed: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode == http.StatusNotFound {
		return ErrNoBackend
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("cloud rejected save: status %d", resp.StatusCode)
	}

	return nil
}

// isMissingBackend mirrors the dev-server heuristic: an unknown route answers
// 404, or answers the SPA's index page with an HTML content type.
func (c *Client) isMissingBackend(resp *http.Response) bool {
	if resp.StatusCode == http.StatusNotFound {
		return true
	}
	return strings.Contains(resp.Header.Get("Content-Type"), "text/html")
}

func (c *Client) errorResult(err error) FetchResult {
	util.SyncFetchesTotal.WithLabelValues(string(StatusError)).Inc()
	c.logger.Warn("Cloud fetch failed", zap.Error(err))
	return FetchResult{Status: StatusError, Err: err}
}
