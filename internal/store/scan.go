package store

import (
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/parleyhq/parley/internal/models"
)

// sessionColumns lists the columns selected for session queries.
const sessionColumns = `id, workspace_id, doc_id, title, counterparty_name,
	status, current_round,
	total_changes, pending_changes, accepted_changes, rejected_changes, countered_changes,
	started_by, settled_at, created_at, updated_at`

// roundColumns lists the full column set for round queries, snapshot
// bodies included.
const roundColumns = `id, session_id, round_number, round_type, proposed_by,
	proposer_label, snapshot_html, snapshot_text, snapshot_hash, version_id,
	import_source, notes, change_count, created_by, created_at`

// roundMetaColumns lists round columns without the snapshot bodies, for
// listings where decrypting every draft would be wasted work.
const roundMetaColumns = `id, session_id, round_number, round_type, proposed_by,
	proposer_label, snapshot_hash, version_id,
	import_source, notes, change_count, created_by, created_at`

// changeColumns lists the columns selected for change queries.
const changeColumns = `id, session_id, round_id, change_type, category,
	section_heading, original_text, proposed_text, from_pos, to_pos,
	status, risk_level, ai_analysis, resolved_by, resolved_at, created_at, updated_at`

// scanSession scans a single row into a models.NegotiationSession.
func scanSession(scan func(dest ...any) error) (*models.NegotiationSession, error) {
	var s models.NegotiationSession
	var workspaceID uuid.UUID
	var settledAt *time.Time

	err := scan(
		&s.ID,
		&workspaceID,
		&s.DocID,
		&s.Title,
		&s.CounterpartyName,
		&s.Status,
		&s.CurrentRound,
		&s.Counts.Total,
		&s.Counts.Pending,
		&s.Counts.Accepted,
		&s.Counts.Rejected,
		&s.Counts.Countered,
		&s.StartedBy,
		&settledAt,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	s.WorkspaceID = workspaceID
	s.SettledAt = settledAt

	return &s, nil
}

// scanRound scans a single full row into a models.NegotiationRound.
// Snapshot bodies are still ciphertext after this call.
func scanRound(scan func(dest ...any) error) (*models.NegotiationRound, error) {
	var r models.NegotiationRound
	var versionID *string

	err := scan(
		&r.ID,
		&r.SessionID,
		&r.RoundNumber,
		&r.RoundType,
		&r.ProposedBy,
		&r.ProposerLabel,
		&r.SnapshotHTML,
		&r.SnapshotText,
		&r.SnapshotHash,
		&versionID,
		&r.ImportSource,
		&r.Notes,
		&r.ChangeCount,
		&r.CreatedBy,
		&r.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	r.VersionID = versionID

	return &r, nil
}

// scanRoundMeta scans a snapshot-free row into a models.NegotiationRound.
func scanRoundMeta(scan func(dest ...any) error) (*models.NegotiationRound, error) {
	var r models.NegotiationRound
	var versionID *string

	err := scan(
		&r.ID,
		&r.SessionID,
		&r.RoundNumber,
		&r.RoundType,
		&r.ProposedBy,
		&r.ProposerLabel,
		&r.SnapshotHash,
		&versionID,
		&r.ImportSource,
		&r.Notes,
		&r.ChangeCount,
		&r.CreatedBy,
		&r.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	r.VersionID = versionID

	return &r, nil
}

// scanChange scans a single row into a models.NegotiationChange.
func scanChange(scan func(dest ...any) error) (*models.NegotiationChange, error) {
	var c models.NegotiationChange
	var analysis []byte
	var resolvedAt *time.Time

	err := scan(
		&c.ID,
		&c.SessionID,
		&c.RoundID,
		&c.ChangeType,
		&c.Category,
		&c.SectionHeading,
		&c.OriginalText,
		&c.ProposedText,
		&c.FromPos,
		&c.ToPos,
		&c.Status,
		&c.RiskLevel,
		&analysis,
		&c.ResolvedBy,
		&resolvedAt,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	c.AIAnalysis = analysis
	c.ResolvedAt = resolvedAt

	return &c, nil
}

// collectChanges scans all rows into a change slice.
func collectChanges(rows pgx.Rows) ([]models.NegotiationChange, error) {
	changes := make([]models.NegotiationChange, 0, 16)

	for rows.Next() {
		c, err := scanChange(rows.Scan)
		if err != nil {
			return nil, err
		}

		changes = append(changes, *c)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return changes, nil
}

// collectSessions scans all rows into a session slice.
func collectSessions(rows pgx.Rows) ([]models.NegotiationSession, error) {
	sessions := make([]models.NegotiationSession, 0, 16)

	for rows.Next() {
		s, err := scanSession(rows.Scan)
		if err != nil {
			return nil, err
		}

		sessions = append(sessions, *s)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return sessions, nil
}

// collectRoundMetas scans all snapshot-free rows into a round slice.
func collectRoundMetas(rows pgx.Rows) ([]models.NegotiationRound, error) {
	rounds := make([]models.NegotiationRound, 0, 8)

	for rows.Next() {
		r, err := scanRoundMeta(rows.Scan)
		if err != nil {
			return nil, err
		}

		rounds = append(rounds, *r)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return rounds, nil
}
