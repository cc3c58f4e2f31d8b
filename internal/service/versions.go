package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const versionTimeout = 10 * time.Second

// VersionClient creates snapshots in the platform's document version
// history so imported rounds show up in human browsing history. All
// calls are best-effort: a failure is reported to the caller for
// logging but never aborts an import.
type VersionClient struct {
	baseURL string
	client  *http.Client
}

type versionRequest struct {
	DocID       string `json:"doc_id"`
	SessionID   string `json:"session_id"`
	RoundNumber int    `json:"round_number"`
	Label       string `json:"label"`
	HTML        string `json:"html"`
	CreatedBy   string `json:"created_by,omitempty"`
}

type versionResponse struct {
	VersionID string `json:"version_id"`
}

// NewVersionClient creates a VersionClient for the given endpoint.
func NewVersionClient(baseURL string) *VersionClient {
	return &VersionClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: versionTimeout},
	}
}

// CreateSnapshot records a version history entry for an imported round
// and returns the new version ID.
func (c *VersionClient) CreateSnapshot(ctx context.Context, docID, sessionID string, roundNumber int, html, createdBy string) (string, error) {
	payload := versionRequest{
		DocID:       docID,
		SessionID:   sessionID,
		RoundNumber: roundNumber,
		Label:       fmt.Sprintf("Negotiation round %d", roundNumber),
		HTML:        html,
		CreatedBy:   createdBy,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshaling version request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/versions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("creating version request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("calling version service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<20)) //nolint:errcheck // best-effort drain before close.
		return "", fmt.Errorf("version service returned status %d", resp.StatusCode)
	}

	var result versionResponse

	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&result); err != nil {
		return "", fmt.Errorf("decoding version response: %w", err)
	}

	if result.VersionID == "" {
		return "", fmt.Errorf("version service returned empty version_id")
	}

	return result.VersionID, nil
}
