package client

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
)

// ChangeService handles change read and resolution operations.
type ChangeService struct {
	c *Client
}

// changeListResponse wraps the change list response.
type changeListResponse struct {
	Changes []Change `json:"changes"`
	Count   int      `json:"count"`
}

// resolveResponse wraps the single-change resolution response.
type resolveResponse struct {
	Change  *Change  `json:"change"`
	Session *Session `json:"session"`
}

// List returns a session's changes with optional filtering.
func (s *ChangeService) List(ctx context.Context, sessionID string, opts *ChangeListOptions) ([]Change, error) {
	params := url.Values{}
	if opts != nil {
		if opts.RoundID != "" {
			params.Set("round_id", opts.RoundID)
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
	var resp changeListResponse
	path := fmt.Sprintf("/api/v1/sessions/%s/changes", url.PathEscape(sessionID))
	if err := s.c.get(ctx, path, params, &resp); err != nil {
		return nil, err
	}
	return resp.Changes, nil
}

// Get returns a single change by ID.
func (s *ChangeService) Get(ctx context.Context, changeID string) (*Change, error) {
	var change Change
	if err := s.c.get(ctx, "/api/v1/changes/"+url.PathEscape(changeID), nil, &change); err != nil {
		return nil, err
	}
	return &change, nil
}

// Resolve transitions a pending change to accepted, rejected or
// countered. Returns the change and the session with refreshed counters.
func (s *ChangeService) Resolve(ctx context.Context, changeID string, req *UpdateChangeStatusRequest) (*Change, *Session, error) {
	var resp resolveResponse
	path := "/api/v1/changes/" + url.PathEscape(changeID) + "/status"
	if err := s.c.patch(ctx, path, req, &resp); err != nil {
		return nil, nil, err
	}
	return resp.Change, resp.Session, nil
}

// AcceptAll accepts every pending change in the session.
func (s *ChangeService) AcceptAll(ctx context.Context, sessionID, actor string) (*BulkResolveResult, error) {
	return s.bulkResolve(ctx, sessionID, "accept-all", actor)
}

// RejectAll rejects every pending change in the session.
func (s *ChangeService) RejectAll(ctx context.Context, sessionID, actor string) (*BulkResolveResult, error) {
	return s.bulkResolve(ctx, sessionID, "reject-all", actor)
}

func (s *ChangeService) bulkResolve(ctx context.Context, sessionID, verb, actor string) (*BulkResolveResult, error) {
	var body any
	if actor != "" {
		body = map[string]string{"actor": actor}
	}

	var result BulkResolveResult
	path := fmt.Sprintf("/api/v1/sessions/%s/changes/%s", url.PathEscape(sessionID), verb)
	if err := s.c.post(ctx, path, body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}
