package client

import (
	"context"
	"fmt"
	"net/url"
)

// RoundService handles round import and read operations.
type RoundService struct {
	c *Client
}

// roundListResponse wraps the round list response.
type roundListResponse struct {
	Rounds []Round `json:"rounds"`
	Count  int     `json:"count"`
}

// Import imports a draft as the session's next negotiation round.
// Importing the same content twice returns the original round with
// Replayed set.
func (s *RoundService) Import(ctx context.Context, sessionID string, req *ImportRoundRequest) (*ImportRoundResult, error) {
	var result ImportRoundResult
	path := fmt.Sprintf("/api/v1/sessions/%s/rounds", url.PathEscape(sessionID))
	if err := s.c.post(ctx, path, req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// List returns a session's rounds without snapshot bodies.
func (s *RoundService) List(ctx context.Context, sessionID string) ([]Round, error) {
	var resp roundListResponse
	path := fmt.Sprintf("/api/v1/sessions/%s/rounds", url.PathEscape(sessionID))
	if err := s.c.get(ctx, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Rounds, nil
}

// Get returns a single round including its snapshot bodies.
func (s *RoundService) Get(ctx context.Context, sessionID, roundID string) (*Round, error) {
	var round Round
	path := fmt.Sprintf("/api/v1/sessions/%s/rounds/%s", url.PathEscape(sessionID), url.PathEscape(roundID))
	if err := s.c.get(ctx, path, nil, &round); err != nil {
		return nil, err
	}
	return &round, nil
}
