package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/parleyhq/parley/internal/models"
)

const analyzeTimeout = 30 * time.Second

// AnalyzerClient calls the external AI analysis service that enriches
// detected changes with risk levels and historical context.
type AnalyzerClient struct {
	baseURL string
	client  *http.Client
}

type analyzeRequest struct {
	ChangeID       string `json:"change_id"`
	ChangeType     string `json:"change_type"`
	Category       string `json:"category"`
	SectionHeading string `json:"section_heading,omitempty"`
	OriginalText   string `json:"original_text,omitempty"`
	ProposedText   string `json:"proposed_text,omitempty"`
}

// NewAnalyzerClient creates an AnalyzerClient for the given endpoint.
func NewAnalyzerClient(baseURL string) *AnalyzerClient {
	return &AnalyzerClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: analyzeTimeout},
	}
}

// Analyze enriches one change and returns the analyzer's verdict.
func (c *AnalyzerClient) Analyze(ctx context.Context, change models.NegotiationChange) (*models.ChangeAnalysis, error) {
	body, err := json.Marshal(analyzeRequest{
		ChangeID:       change.ID,
		ChangeType:     string(change.ChangeType),
		Category:       string(change.Category),
		SectionHeading: change.SectionHeading,
		OriginalText:   change.OriginalText,
		ProposedText:   change.ProposedText,
	})
	if err != nil {
		return nil, fmt.Errorf("marshaling analyze request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/analyze", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating analyze request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling analyzer: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<20)) //nolint:errcheck // best-effort drain before close.
		return nil, fmt.Errorf("analyzer returned status %d", resp.StatusCode)
	}

	var result models.ChangeAnalysis

	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&result); err != nil {
		return nil, fmt.Errorf("decoding analyzer response: %w", err)
	}

	result.ChangeID = change.ID

	return &result, nil
}
