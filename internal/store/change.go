package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/parleyhq/parley/internal/models"
)

// ChangeStore handles change reads, single resolutions and bulk
// resolutions. Every status mutation resynchronizes the owning
// session's counters inside the same transaction.
type ChangeStore struct {
	Base
}

// NewChangeStore creates a new ChangeStore.
func NewChangeStore(base Base) *ChangeStore {
	return &ChangeStore{Base: base}
}

// GetChange fetches one change by ID within a workspace.
func (s *ChangeStore) GetChange(ctx context.Context, workspaceID, changeID string) (*models.NegotiationChange, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	query := "SELECT " + changeColumns + " FROM negotiation_changes WHERE workspace_id = $1 AND id = $2"

	change, err := scanChange(s.Pool.QueryRow(ctx, query, workspaceID, changeID).Scan)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrChangeNotFound
		}

		return nil, fmt.Errorf("fetching change: %w", err)
	}

	return change, nil
}

// ListChanges returns a session's changes ordered by round then
// document position.
func (s *ChangeStore) ListChanges(
	ctx context.Context,
	workspaceID, sessionID string,
	opts models.ListChangesOpts,
) ([]models.NegotiationChange, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	conditions := []string{"workspace_id = $1", "session_id = $2"}
	args := []any{workspaceID, sessionID}
	argIdx := 3

	if opts.RoundID != "" {
		conditions = append(conditions, fmt.Sprintf("round_id = $%d", argIdx))
		args = append(args, opts.RoundID)
		argIdx++
	}

	if opts.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argIdx))
		args = append(args, opts.Status)
		argIdx++
	}

	limit := opts.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	query := fmt.Sprintf(
		"SELECT %s FROM negotiation_changes WHERE %s ORDER BY round_id, from_pos, id LIMIT $%d OFFSET $%d",
		changeColumns,
		strings.Join(conditions, " AND "),
		argIdx,
		argIdx+1,
	)
	args = append(args, limit, opts.Offset)

	rows, err := s.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing changes: %w", err)
	}
	defer rows.Close()

	changes, err := collectChanges(rows)
	if err != nil {
		return nil, fmt.Errorf("scanning change rows: %w", err)
	}

	return changes, nil
}

// ResolveChange transitions one pending change to the requested status
// and returns the updated change plus the resynchronized session.
// A change that has already left pending is rejected with
// ErrChangeResolved.
func (s *ChangeStore) ResolveChange(
	ctx context.Context,
	workspaceID, changeID string,
	req models.UpdateChangeStatusRequest,
) (*models.NegotiationChange, *models.NegotiationSession, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	// Locate the owning session before taking its lock.
	var sessionID string

	err := s.Pool.QueryRow(ctx,
		"SELECT session_id FROM negotiation_changes WHERE workspace_id = $1 AND id = $2",
		workspaceID, changeID).Scan(&sessionID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, models.ErrChangeNotFound
		}

		return nil, nil, fmt.Errorf("locating change session: %w", err)
	}

	tx, err := s.Pool.Begin(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("resolving change: %w", err)
	}

	defer tx.Rollback(ctx) //nolint:errcheck // best-effort rollback after commit.

	if err := lockSession(ctx, tx, sessionID); err != nil {
		return nil, nil, err
	}

	query := `UPDATE negotiation_changes
		SET status = $1, resolved_by = $2, resolved_at = NOW(), updated_at = NOW()
		WHERE workspace_id = $3 AND id = $4 AND status = 'pending'
		RETURNING ` + changeColumns

	change, err := scanChange(tx.QueryRow(ctx, query, req.Status, req.ResolvedBy, workspaceID, changeID).Scan)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// The change exists but is no longer pending. A racing
			// resolver may have won after the pre-lock read.
			return nil, nil, models.ErrChangeResolved
		}

		return nil, nil, fmt.Errorf("resolving change %s: %w", changeID, err)
	}

	if err := syncSessionCounts(ctx, tx, sessionID); err != nil {
		return nil, nil, err
	}

	sess, err := fetchSession(ctx, tx, workspaceID, sessionID)
	if err != nil {
		return nil, nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, nil, fmt.Errorf("committing change resolution: %w", err)
	}

	return change, sess, nil
}

// ResolveAllPending transitions every pending change in a session to
// the target status and resynchronizes counters once. Race-free with
// concurrent single resolutions via the per-session lock.
func (s *ChangeStore) ResolveAllPending(
	ctx context.Context,
	workspaceID, sessionID string,
	target models.ChangeStatus,
	actor string,
) (*models.BulkResolveResult, error) {
	if !target.ValidResolution() {
		return nil, models.ErrInvalidChangeStatus
	}

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	tx, err := s.Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("bulk resolving changes: %w", err)
	}

	defer tx.Rollback(ctx) //nolint:errcheck // best-effort rollback after commit.

	if err := lockSession(ctx, tx, sessionID); err != nil {
		return nil, err
	}

	// Verify the session exists before mutating anything.
	if _, err := fetchSession(ctx, tx, workspaceID, sessionID); err != nil {
		return nil, err
	}

	tag, err := tx.Exec(ctx, `
		UPDATE negotiation_changes
		SET status = $1, resolved_by = $2, resolved_at = NOW(), updated_at = NOW()
		WHERE workspace_id = $3 AND session_id = $4 AND status = 'pending'`,
		target, actor, workspaceID, sessionID)
	if err != nil {
		return nil, fmt.Errorf("bulk resolving changes to %s: %w", target, err)
	}

	if err := syncSessionCounts(ctx, tx, sessionID); err != nil {
		return nil, err
	}

	sess, err := fetchSession(ctx, tx, workspaceID, sessionID)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("committing bulk resolution: %w", err)
	}

	return &models.BulkResolveResult{
		Affected: int(tag.RowsAffected()),
		Session:  sess,
	}, nil
}

// UpdateAnalysis attaches analyzer output to a change. Called by the
// async analysis worker; never touches resolution state or counters.
func (s *ChangeStore) UpdateAnalysis(
	ctx context.Context,
	workspaceID, changeID, riskLevel string,
	analysis json.RawMessage,
) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	tag, err := s.Pool.Exec(ctx, `
		UPDATE negotiation_changes
		SET risk_level = $1, ai_analysis = $2, updated_at = NOW()
		WHERE workspace_id = $3 AND id = $4`,
		riskLevel, analysis, workspaceID, changeID)
	if err != nil {
		return fmt.Errorf("updating change analysis: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return models.ErrChangeNotFound
	}

	return nil
}
