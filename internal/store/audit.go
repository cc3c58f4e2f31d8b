package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/parleyhq/parley/internal/models"
)

// AuditStore handles the append-only negotiation audit log.
type AuditStore struct {
	Base
}

// NewAuditStore creates a new AuditStore.
func NewAuditStore(base Base) *AuditStore {
	return &AuditStore{Base: base}
}

// Insert appends one audit entry. Detail is stored as JSONB.
func (s *AuditStore) Insert(ctx context.Context, workspaceID string, entry models.AuditEntry) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var detail []byte

	if entry.Detail != nil {
		var err error

		detail, err = json.Marshal(entry.Detail)
		if err != nil {
			return fmt.Errorf("marshalling audit detail: %w", err)
		}
	}

	_, err := s.Pool.Exec(ctx, `
		INSERT INTO negotiation_audit_log
			(workspace_id, action, entity_type, entity_id, actor, detail)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6)`,
		workspaceID, entry.Action, entry.EntityType, entry.EntityID, entry.Actor, detail)
	if err != nil {
		return fmt.Errorf("inserting audit entry: %w", err)
	}

	return nil
}

// Query returns audit entries for a workspace, newest first.
func (s *AuditStore) Query(
	ctx context.Context,
	workspaceID string,
	opts models.AuditQueryOpts,
) ([]models.AuditEntry, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	conditions := []string{"workspace_id = $1"}
	args := []any{workspaceID}
	argIdx := 2

	if opts.EntityType != "" {
		conditions = append(conditions, fmt.Sprintf("entity_type = $%d", argIdx))
		args = append(args, opts.EntityType)
		argIdx++
	}

	if opts.EntityID != "" {
		conditions = append(conditions, fmt.Sprintf("entity_id = $%d", argIdx))
		args = append(args, opts.EntityID)
		argIdx++
	}

	if opts.Action != "" {
		conditions = append(conditions, fmt.Sprintf("action = $%d", argIdx))
		args = append(args, opts.Action)
		argIdx++
	}

	if opts.Since != nil {
		conditions = append(conditions, fmt.Sprintf("created_at >= $%d", argIdx))
		args = append(args, *opts.Since)
		argIdx++
	}

	limit := opts.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	query := fmt.Sprintf(`
		SELECT id, workspace_id, action, entity_type, entity_id,
			COALESCE(actor, ''), detail, created_at
		FROM negotiation_audit_log
		WHERE %s
		ORDER BY created_at DESC, id DESC
		LIMIT $%d OFFSET $%d`,
		strings.Join(conditions, " AND "),
		argIdx,
		argIdx+1,
	)
	args = append(args, limit, opts.Offset)

	rows, err := s.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying audit log: %w", err)
	}
	defer rows.Close()

	entries := make([]models.AuditEntry, 0, 32)

	for rows.Next() {
		var e models.AuditEntry
		var detail []byte
		var createdAt time.Time

		if err := rows.Scan(&e.ID, &e.WorkspaceID, &e.Action, &e.EntityType,
			&e.EntityID, &e.Actor, &detail, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning audit row: %w", err)
		}

		if len(detail) > 0 {
			if err := json.Unmarshal(detail, &e.Detail); err != nil {
				return nil, fmt.Errorf("unmarshalling audit detail: %w", err)
			}
		}

		e.CreatedAt = createdAt
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating audit rows: %w", err)
	}

	return entries, nil
}

// PurgeOldEntries deletes audit entries older than retentionDays.
// Returns the number of rows removed.
func (s *AuditStore) PurgeOldEntries(ctx context.Context, workspaceID string, retentionDays int) (int, error) {
	if retentionDays <= 0 {
		return 0, fmt.Errorf("retention days must be positive, got %d", retentionDays)
	}

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	tag, err := s.Pool.Exec(ctx,
		"DELETE FROM negotiation_audit_log WHERE workspace_id = $1 AND created_at < NOW() - make_interval(days => $2)",
		workspaceID, retentionDays)
	if err != nil {
		return 0, fmt.Errorf("purging audit entries: %w", err)
	}

	return int(tag.RowsAffected()), nil
}
