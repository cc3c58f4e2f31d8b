package client

import (
	"context"
	"net/url"
	"strconv"
)

// SessionService handles negotiation session operations.
type SessionService struct {
	c *Client
}

// sessionListResponse wraps the session list response.
type sessionListResponse struct {
	Sessions []Session `json:"sessions"`
	Count    int       `json:"count"`
}

// List returns sessions with optional filtering and pagination.
func (s *SessionService) List(ctx context.Context, opts *SessionListOptions) ([]Session, error) {
	params := url.Values{}
	if opts != nil {
		if opts.DocID != "" {
			params.Set("doc_id", opts.DocID)
		}
		if opts.Status != "" {
			params.Set("status", opts.Status)
		}
		if opts.Limit > 0 {
			params.Set("limit", strconv.Itoa(opts.Limit))
		}
		if opts.Offset > 0 {
			params.Set("offset", strconv.Itoa(opts.Offset))
		}
	}
	var resp sessionListResponse
	if err := s.c.get(ctx, "/api/v1/sessions", params, &resp); err != nil {
		return nil, err
	}
	return resp.Sessions, nil
}

// Get returns a single session by ID.
func (s *SessionService) Get(ctx context.Context, id string) (*Session, error) {
	var sess Session
	if err := s.c.get(ctx, "/api/v1/sessions/"+url.PathEscape(id), nil, &sess); err != nil {
		return nil, err
	}
	return &sess, nil
}

// Create starts a new negotiation session.
func (s *SessionService) Create(ctx context.Context, req *CreateSessionRequest) (*Session, error) {
	var sess Session
	if err := s.c.post(ctx, "/api/v1/sessions", req, &sess); err != nil {
		return nil, err
	}
	return &sess, nil
}

// Settle moves a session to the settled terminal state.
func (s *SessionService) Settle(ctx context.Context, id, actor string) (*Session, error) {
	return s.close(ctx, id, "settle", actor)
}

// Abandon moves a session to the abandoned terminal state.
func (s *SessionService) Abandon(ctx context.Context, id, actor string) (*Session, error) {
	return s.close(ctx, id, "abandon", actor)
}

func (s *SessionService) close(ctx context.Context, id, verb, actor string) (*Session, error) {
	var body any
	if actor != "" {
		body = map[string]string{"actor": actor}
	}

	var sess Session
	if err := s.c.post(ctx, "/api/v1/sessions/"+url.PathEscape(id)+"/"+verb, body, &sess); err != nil {
		return nil, err
	}
	return &sess, nil
}
