package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/parleyhq/parley/internal/models"
)

// maxChangeBatchSize limits the number of rows per INSERT statement to
// stay within PostgreSQL's parameter limit (65535 params).
const maxChangeBatchSize = 500

// CompareFunc produces the detected changes between the previous round
// and the draft being imported. It runs inside the import transaction;
// an error rolls the whole import back, so a comparator outage never
// leaves a round persisted with missing changes.
type CompareFunc func(ctx context.Context, previous *models.NegotiationRound) ([]models.DetectedChange, error)

// ImportRoundParams carries the resolved inputs for a round import.
// Text and Hash are derived by the service before the transaction
// opens; VersionID is the best-effort document history snapshot.
type ImportRoundParams struct {
	Req       models.ImportRoundRequest
	Text      string
	Hash      string
	VersionID *string
}

// RoundStore handles round persistence and the transactional import.
type RoundStore struct {
	Base
}

// NewRoundStore creates a new RoundStore.
func NewRoundStore(base Base) *RoundStore {
	return &RoundStore{Base: base}
}

// ImportRound atomically imports a draft as the session's next round.
//
// The entire pipeline runs in one transaction holding the per-session
// advisory lock: load session, replay check on snapshot hash, round
// insert, redline comparison, bulk change insert, counter resync and
// auto-transition. Any failure after the lock rolls everything back.
func (s *RoundStore) ImportRound( //nolint:funlen // the import pipeline reads best as one transaction script.
	ctx context.Context,
	workspaceID, sessionID string,
	p ImportRoundParams,
	compare CompareFunc,
) (*models.ImportRoundResult, error) {
	ctx, cancel := context.WithTimeout(ctx, importTimeout)
	defer cancel()

	// Encrypt before opening the transaction to keep lock hold time down.
	encHTML, encText, err := s.encryptSnapshots(ctx, workspaceID, p.Req.HTML, p.Text)
	if err != nil {
		return nil, err
	}

	tx, err := s.Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("importing round: %w", err)
	}

	defer tx.Rollback(ctx) //nolint:errcheck // best-effort rollback after commit.

	if err := lockSession(ctx, tx, sessionID); err != nil {
		return nil, err
	}

	sess, err := fetchSession(ctx, tx, workspaceID, sessionID)
	if err != nil {
		return nil, err
	}

	if sess.Status.IsTerminal() {
		return nil, models.ErrSessionClosed
	}

	// Replay check under the lock. The UNIQUE(session_id, snapshot_hash)
	// constraint backs this up if the lock is ever bypassed.
	if existing, err := s.findRoundByHash(ctx, tx, workspaceID, sessionID, p.Hash); err != nil {
		return nil, err
	} else if existing != nil {
		changes, err := loadRoundChanges(ctx, tx, existing.ID)
		if err != nil {
			return nil, err
		}

		return &models.ImportRoundResult{
			Round:    existing,
			Changes:  changes,
			Version:  models.VersionOutcome{VersionID: existing.VersionID},
			Session:  sess,
			Replayed: true,
		}, nil
	}

	roundNumber := sess.CurrentRound + 1
	roundType := models.ClassifyRound(roundNumber, p.Req.ProposedBy)

	round, err := insertRound(ctx, tx, workspaceID, sessionID, roundNumber, roundType, p, encHTML, encText)
	if err != nil {
		if errors.Is(err, models.ErrDuplicateKey) {
			// A twin import committed between our replay check and the
			// insert, which requires the advisory lock to have been
			// bypassed. Release the aborted transaction and re-read
			// the committed winner.
			_ = tx.Rollback(ctx)

			return s.replayCommittedTwin(ctx, workspaceID, sessionID, p.Hash)
		}

		return nil, err
	}

	round.SnapshotHTML = p.Req.HTML
	round.SnapshotText = p.Text

	var changes []models.NegotiationChange
	var comparison *models.ComparisonSummary

	if roundNumber > 1 {
		prev, err := s.fetchPreviousRound(ctx, tx, workspaceID, sessionID, roundNumber-1)
		if err != nil {
			return nil, err
		}

		detected, err := compare(ctx, prev)
		if err != nil {
			return nil, fmt.Errorf("redline comparison for round %d: %w", roundNumber, err)
		}

		if err := bulkInsertChanges(ctx, tx, workspaceID, sessionID, round.ID, detected); err != nil {
			return nil, err
		}

		if _, err := tx.Exec(ctx,
			"UPDATE negotiation_rounds SET change_count = $1 WHERE id = $2",
			len(detected), round.ID); err != nil {
			return nil, fmt.Errorf("updating round change count: %w", err)
		}

		round.ChangeCount = len(detected)

		changes, err = loadRoundChanges(ctx, tx, round.ID)
		if err != nil {
			return nil, err
		}

		comparison = &models.ComparisonSummary{
			PreviousRoundID: prev.ID,
			PreviousRound:   prev.RoundNumber,
			ChangeCount:     len(detected),
		}
	} else {
		changes = []models.NegotiationChange{}
	}

	nextStatus := models.NextStatusOnImport(sess.Status, p.Req.ProposedBy)

	if _, err := tx.Exec(ctx,
		"UPDATE negotiation_sessions SET current_round = $1, status = $2 WHERE id = $3",
		roundNumber, nextStatus, sessionID); err != nil {
		return nil, fmt.Errorf("advancing session round: %w", err)
	}

	if err := syncSessionCounts(ctx, tx, sessionID); err != nil {
		return nil, err
	}

	sess, err = fetchSession(ctx, tx, workspaceID, sessionID)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("committing round import: %w", err)
	}

	return &models.ImportRoundResult{
		Round:      round,
		Changes:    changes,
		Comparison: comparison,
		Version:    models.VersionOutcome{VersionID: p.VersionID},
		Session:    sess,
	}, nil
}

// GetRound fetches one round with decrypted snapshot bodies.
func (s *RoundStore) GetRound(ctx context.Context, workspaceID, sessionID, roundID string) (*models.NegotiationRound, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	query := "SELECT " + roundColumns +
		" FROM negotiation_rounds WHERE workspace_id = $1 AND session_id = $2 AND id = $3"

	round, err := scanRound(s.Pool.QueryRow(ctx, query, workspaceID, sessionID, roundID).Scan)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrRoundNotFound
		}

		return nil, fmt.Errorf("fetching round: %w", err)
	}

	if err := s.decryptRound(ctx, workspaceID, round); err != nil {
		return nil, err
	}

	return round, nil
}

// GetRoundByHash fetches the round with the given snapshot hash, with
// decrypted bodies, or nil if no such round exists. Used as the cheap
// replay pre-check before an import transaction opens.
func (s *RoundStore) GetRoundByHash(ctx context.Context, workspaceID, sessionID, hash string) (*models.NegotiationRound, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	query := "SELECT " + roundColumns +
		" FROM negotiation_rounds WHERE workspace_id = $1 AND session_id = $2 AND snapshot_hash = $3"

	round, err := scanRound(s.Pool.QueryRow(ctx, query, workspaceID, sessionID, hash).Scan)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}

		return nil, fmt.Errorf("fetching round by hash: %w", err)
	}

	if err := s.decryptRound(ctx, workspaceID, round); err != nil {
		return nil, err
	}

	return round, nil
}

// ListRounds returns a session's rounds in order, without snapshot bodies.
func (s *RoundStore) ListRounds(ctx context.Context, workspaceID, sessionID string) ([]models.NegotiationRound, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	query := "SELECT " + roundMetaColumns +
		" FROM negotiation_rounds WHERE workspace_id = $1 AND session_id = $2 ORDER BY round_number"

	rows, err := s.Pool.Query(ctx, query, workspaceID, sessionID)
	if err != nil {
		return nil, fmt.Errorf("listing rounds: %w", err)
	}
	defer rows.Close()

	rounds, err := collectRoundMetas(rows)
	if err != nil {
		return nil, fmt.Errorf("scanning round rows: %w", err)
	}

	return rounds, nil
}

// replayCommittedTwin resolves a unique violation raised by a
// concurrent import of identical content: the twin's committed round
// is returned as a replay. A violation with no matching hash means the
// collision was on the round number, which is a real conflict and
// surfaces as ErrDuplicateKey.
func (s *RoundStore) replayCommittedTwin(
	ctx context.Context,
	workspaceID, sessionID, hash string,
) (*models.ImportRoundResult, error) {
	round, err := s.GetRoundByHash(ctx, workspaceID, sessionID, hash)
	if err != nil {
		return nil, err
	}

	if round == nil {
		return nil, models.ErrDuplicateKey
	}

	changes, err := loadRoundChanges(ctx, s.Pool, round.ID)
	if err != nil {
		return nil, err
	}

	sess, err := fetchSession(ctx, s.Pool, workspaceID, sessionID)
	if err != nil {
		return nil, err
	}

	return &models.ImportRoundResult{
		Round:    round,
		Changes:  changes,
		Version:  models.VersionOutcome{VersionID: round.VersionID},
		Session:  sess,
		Replayed: true,
	}, nil
}

// loadRoundChanges reads a round's changes ordered by document position
// so a reviewer walks the draft top to bottom.
func loadRoundChanges(ctx context.Context, q querier, roundID string) ([]models.NegotiationChange, error) {
	query := "SELECT " + changeColumns +
		" FROM negotiation_changes WHERE round_id = $1 ORDER BY from_pos, id"

	rows, err := q.Query(ctx, query, roundID)
	if err != nil {
		return nil, fmt.Errorf("loading round changes: %w", err)
	}
	defer rows.Close()

	changes, err := collectChanges(rows)
	if err != nil {
		return nil, fmt.Errorf("scanning round changes: %w", err)
	}

	return changes, nil
}

func fetchSession(ctx context.Context, q querier, workspaceID, sessionID string) (*models.NegotiationSession, error) {
	query := "SELECT " + sessionColumns + " FROM negotiation_sessions WHERE workspace_id = $1 AND id = $2"

	sess, err := scanSession(q.QueryRow(ctx, query, workspaceID, sessionID).Scan)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrSessionNotFound
		}

		return nil, fmt.Errorf("fetching session: %w", err)
	}

	return sess, nil
}

func (s *RoundStore) findRoundByHash(ctx context.Context, tx pgx.Tx, workspaceID, sessionID, hash string) (*models.NegotiationRound, error) {
	query := "SELECT " + roundColumns +
		" FROM negotiation_rounds WHERE workspace_id = $1 AND session_id = $2 AND snapshot_hash = $3"

	round, err := scanRound(tx.QueryRow(ctx, query, workspaceID, sessionID, hash).Scan)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}

		return nil, fmt.Errorf("checking for replayed round: %w", err)
	}

	if err := s.decryptRound(ctx, workspaceID, round); err != nil {
		return nil, err
	}

	return round, nil
}

func (s *RoundStore) fetchPreviousRound(ctx context.Context, tx pgx.Tx, workspaceID, sessionID string, number int) (*models.NegotiationRound, error) {
	query := "SELECT " + roundColumns +
		" FROM negotiation_rounds WHERE workspace_id = $1 AND session_id = $2 AND round_number = $3"

	round, err := scanRound(tx.QueryRow(ctx, query, workspaceID, sessionID, number).Scan)
	if err != nil {
		return nil, fmt.Errorf("fetching previous round %d: %w", number, err)
	}

	if err := s.decryptRound(ctx, workspaceID, round); err != nil {
		return nil, err
	}

	return round, nil
}

func insertRound(
	ctx context.Context,
	tx pgx.Tx,
	workspaceID, sessionID string,
	roundNumber int,
	roundType models.RoundType,
	p ImportRoundParams,
	encHTML, encText string,
) (*models.NegotiationRound, error) {
	query := `INSERT INTO negotiation_rounds
			(id, workspace_id, session_id, round_number, round_type, proposed_by,
			 proposer_label, snapshot_html, snapshot_text, snapshot_hash, version_id,
			 import_source, notes, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING ` + roundMetaColumns

	row := tx.QueryRow(ctx, query,
		newID("rnd"), workspaceID, sessionID, roundNumber, roundType, p.Req.ProposedBy,
		p.Req.ProposerLabel, encHTML, encText, p.Hash, p.VersionID,
		p.Req.ImportSource, p.Req.Notes, p.Req.CreatedBy)

	round, err := scanRoundMeta(row.Scan)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, models.ErrDuplicateKey
		}

		return nil, fmt.Errorf("inserting round %d: %w", roundNumber, err)
	}

	return round, nil
}

// bulkInsertChanges persists detected changes with multi-row INSERTs,
// batched to stay within the parameter limit. All changes start pending.
func bulkInsertChanges(
	ctx context.Context,
	tx pgx.Tx,
	workspaceID, sessionID, roundID string,
	detected []models.DetectedChange,
) error {
	const paramsPerRow = 11

	for i := 0; i < len(detected); i += maxChangeBatchSize {
		end := i + maxChangeBatchSize
		if end > len(detected) {
			end = len(detected)
		}

		batch := detected[i:end]

		valueParts := make([]string, 0, len(batch))
		args := make([]any, 0, len(batch)*paramsPerRow)

		for j, ch := range batch {
			base := j*paramsPerRow + 1
			valueParts = append(valueParts, fmt.Sprintf(
				"($%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d)",
				base, base+1, base+2, base+3, base+4, base+5, base+6, base+7, base+8, base+9, base+10,
			))
			args = append(args,
				newID("chg"), workspaceID, sessionID, roundID,
				ch.ChangeType, ch.Category, ch.SectionHeading,
				ch.OriginalText, ch.ProposedText, ch.FromPos, ch.ToPos)
		}

		sql := `INSERT INTO negotiation_changes
				(id, workspace_id, session_id, round_id, change_type, category,
				 section_heading, original_text, proposed_text, from_pos, to_pos)
			VALUES ` + strings.Join(valueParts, ", ")

		if _, err := tx.Exec(ctx, sql, args...); err != nil {
			return fmt.Errorf("bulk inserting changes batch: %w", err)
		}
	}

	return nil
}
