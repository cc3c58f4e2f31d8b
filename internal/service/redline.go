// Package service provides business logic between API handlers and data stores.
package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/parleyhq/parley/internal/models"
)

const (
	// compareTimeout is generous because comparison cost scales with
	// document size.
	compareTimeout = 60 * time.Second
	extractTimeout = 15 * time.Second
)

// Circuit breaker configuration.
const (
	cbFailureThreshold = 5
	cbCooldown         = 30 * time.Second
)

// Circuit breaker states.
const (
	cbClosed   = iota // Normal operation.
	cbOpen            // Fail fast.
	cbHalfOpen        // Probe with one request.
)

// ErrCircuitOpen is returned when the circuit breaker is open and
// requests are rejected without calling the comparator.
var ErrCircuitOpen = errors.New("comparator circuit breaker is open")

// RedlineClient calls the external redline comparison service: diffing
// two draft snapshots into discrete changes, and deriving plain text
// from HTML. Both operations share one circuit breaker since they hit
// the same backend.
type RedlineClient struct {
	baseURL string
	client  *http.Client

	mu              sync.Mutex
	cbState         int
	cbFailures      int
	cbLastFailureAt time.Time
}

type compareRequest struct {
	PreviousHTML string `json:"previous_html"`
	PreviousText string `json:"previous_text"`
	CurrentHTML  string `json:"current_html"`
	CurrentText  string `json:"current_text"`
}

type compareResponse struct {
	Changes []models.DetectedChange `json:"changes"`
}

type extractRequest struct {
	HTML string `json:"html"`
}

type extractResponse struct {
	Text string `json:"text"`
}

// NewRedlineClient creates a RedlineClient for the given comparator endpoint.
func NewRedlineClient(baseURL string) *RedlineClient {
	return &RedlineClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: compareTimeout},
		cbState: cbClosed,
	}
}

// Compare diffs the previous snapshot against the current one and
// returns the detected changes. Fails fast when the breaker is open.
func (c *RedlineClient) Compare(ctx context.Context, previousHTML, previousText, currentHTML, currentText string) ([]models.DetectedChange, error) {
	if err := c.cbAllow(); err != nil {
		return nil, err
	}

	var result compareResponse

	err := c.post(ctx, "/v1/compare", compareRequest{
		PreviousHTML: previousHTML,
		PreviousText: previousText,
		CurrentHTML:  currentHTML,
		CurrentText:  currentText,
	}, &result)
	if err != nil {
		c.cbRecordFailure()

		return nil, err
	}

	c.cbRecordSuccess()

	return result.Changes, nil
}

// ExtractText derives the plain text of an HTML draft.
func (c *RedlineClient) ExtractText(ctx context.Context, html string) (string, error) {
	if err := c.cbAllow(); err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, extractTimeout)
	defer cancel()

	var result extractResponse

	if err := c.post(ctx, "/v1/extract", extractRequest{HTML: html}, &result); err != nil {
		c.cbRecordFailure()

		return "", err
	}

	c.cbRecordSuccess()

	return result.Text, nil
}

func (c *RedlineClient) post(ctx context.Context, path string, payload, result any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshaling comparator request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating comparator request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("calling comparator %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// Drain body so the connection can be reused.
		io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<20)) //nolint:errcheck // best-effort drain before close.
		return fmt.Errorf("comparator %s returned status %d", path, resp.StatusCode)
	}

	limited := io.LimitReader(resp.Body, 20<<20) // 20 MB
	if err := json.NewDecoder(limited).Decode(result); err != nil {
		return fmt.Errorf("decoding comparator response: %w", err)
	}

	return nil
}

// cbAllow checks whether the circuit breaker permits a request.
// In closed state, all requests pass. In open state, requests are
// rejected until the cooldown expires, at which point we transition to
// half-open. In half-open state, one probe request is allowed.
func (c *RedlineClient) cbAllow() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.cbState {
	case cbClosed:
		return nil
	case cbOpen:
		if time.Since(c.cbLastFailureAt) >= cbCooldown {
			c.cbState = cbHalfOpen

			return nil
		}

		return ErrCircuitOpen
	case cbHalfOpen:
		// Already probing, reject additional requests.
		return ErrCircuitOpen
	}

	return nil
}

// cbRecordSuccess records a successful call. In half-open state this
// closes the circuit breaker, restoring normal operation.
func (c *RedlineClient) cbRecordSuccess() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.cbFailures = 0
	c.cbState = cbClosed
}

// cbRecordFailure records a failed call. After reaching the failure
// threshold the circuit breaker transitions to open state.
func (c *RedlineClient) cbRecordFailure() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.cbFailures++
	c.cbLastFailureAt = time.Now()

	if c.cbFailures >= cbFailureThreshold || c.cbState == cbHalfOpen {
		c.cbState = cbOpen
	}
}
