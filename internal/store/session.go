package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/parleyhq/parley/internal/models"
)

// SessionStore handles negotiation session CRUD and lifecycle transitions.
type SessionStore struct {
	Base
}

// NewSessionStore creates a new SessionStore.
func NewSessionStore(base Base) *SessionStore {
	return &SessionStore{Base: base}
}

// CreateSession inserts a new session in draft status.
func (s *SessionStore) CreateSession(
	ctx context.Context,
	workspaceID string,
	req models.CreateSessionRequest,
) (*models.NegotiationSession, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	query := `INSERT INTO negotiation_sessions
			(id, workspace_id, doc_id, title, counterparty_name, started_by)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + sessionColumns

	row := s.Pool.QueryRow(ctx, query,
		newID("ses"), workspaceID, req.DocID, req.Title, req.CounterpartyName, req.StartedBy)

	sess, err := scanSession(row.Scan)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, models.ErrDuplicateKey
		}

		return nil, fmt.Errorf("creating session: %w", err)
	}

	return sess, nil
}

// GetSession fetches one session by ID within a workspace.
func (s *SessionStore) GetSession(ctx context.Context, workspaceID, sessionID string) (*models.NegotiationSession, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	query := "SELECT " + sessionColumns + " FROM negotiation_sessions WHERE workspace_id = $1 AND id = $2"

	sess, err := scanSession(s.Pool.QueryRow(ctx, query, workspaceID, sessionID).Scan)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrSessionNotFound
		}

		return nil, fmt.Errorf("fetching session: %w", err)
	}

	return sess, nil
}

// ListSessions returns sessions in a workspace, newest first.
func (s *SessionStore) ListSessions(
	ctx context.Context,
	workspaceID string,
	opts models.ListSessionsOpts,
) ([]models.NegotiationSession, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	conditions := []string{"workspace_id = $1"}
	args := []any{workspaceID}
	argIdx := 2

	if opts.DocID != "" {
		conditions = append(conditions, fmt.Sprintf("doc_id = $%d", argIdx))
		args = append(args, opts.DocID)
		argIdx++
	}

	if opts.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argIdx))
		args = append(args, opts.Status)
		argIdx++
	}

	limit := opts.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	query := fmt.Sprintf(
		"SELECT %s FROM negotiation_sessions WHERE %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d",
		sessionColumns,
		strings.Join(conditions, " AND "),
		argIdx,
		argIdx+1,
	)
	args = append(args, limit, opts.Offset)

	rows, err := s.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing sessions: %w", err)
	}
	defer rows.Close()

	sessions, err := collectSessions(rows)
	if err != nil {
		return nil, fmt.Errorf("scanning session rows: %w", err)
	}

	return sessions, nil
}

// CloseSession moves an open session to the given terminal status.
// Closing a session already in the target status is a no-op returning
// the session unchanged; closing one in the other terminal status is
// rejected with ErrSessionClosed.
func (s *SessionStore) CloseSession(
	ctx context.Context,
	workspaceID, sessionID string,
	target models.SessionStatus,
) (*models.NegotiationSession, error) {
	if !target.IsTerminal() {
		return nil, fmt.Errorf("close session: %q is not a terminal status", target)
	}

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	tx, err := s.Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("closing session: %w", err)
	}

	defer tx.Rollback(ctx) //nolint:errcheck // best-effort rollback after commit.

	if err := lockSession(ctx, tx, sessionID); err != nil {
		return nil, err
	}

	query := "SELECT " + sessionColumns + " FROM negotiation_sessions WHERE workspace_id = $1 AND id = $2"

	sess, err := scanSession(tx.QueryRow(ctx, query, workspaceID, sessionID).Scan)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrSessionNotFound
		}

		return nil, fmt.Errorf("fetching session for close: %w", err)
	}

	if sess.Status == target {
		return sess, nil
	}

	if sess.Status.IsTerminal() {
		return nil, models.ErrSessionClosed
	}

	settle := ""
	if target == models.SessionSettled {
		settle = ", settled_at = NOW()"
	}

	query = "UPDATE negotiation_sessions SET status = $1, updated_at = NOW()" + settle +
		" WHERE workspace_id = $2 AND id = $3 RETURNING " + sessionColumns

	sess, err = scanSession(tx.QueryRow(ctx, query, target, workspaceID, sessionID).Scan)
	if err != nil {
		return nil, fmt.Errorf("closing session %s: %w", sessionID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("committing session close: %w", err)
	}

	return sess, nil
}
