package models

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Proposer identifies which side of the negotiation authored a round.
type Proposer string

// Proposer values.
const (
	ProposerInternal Proposer = "internal"
	ProposerExternal Proposer = "external"
)

// Valid reports whether p is a known proposer.
func (p Proposer) Valid() bool {
	return p == ProposerInternal || p == ProposerExternal
}

// RoundType classifies a round within the negotiation sequence.
type RoundType string

// Round types assigned by ClassifyRound.
const (
	RoundInitialProposal RoundType = "initial_proposal"
	RoundCounterproposal RoundType = "counterproposal"
	RoundRevision        RoundType = "revision"
)

// ClassifyRound derives the round type from its number and proposer.
// Round 1 is always the initial proposal regardless of proposer; later
// external rounds are counterproposals, later internal rounds revisions.
func ClassifyRound(roundNumber int, proposedBy Proposer) RoundType {
	if roundNumber == 1 {
		return RoundInitialProposal
	}
	if proposedBy == ProposerExternal {
		return RoundCounterproposal
	}
	return RoundRevision
}

// ContentHash returns the hex SHA-256 fingerprint of an imported draft.
// Imports are deduplicated per session on this value.
func ContentHash(html string) string {
	sum := sha256.Sum256([]byte(html))
	return hex.EncodeToString(sum[:])
}

// NegotiationRound is an immutable snapshot of one exchanged draft.
// ChangeCount is the only field written after creation, once, right
// after the redline comparison.
type NegotiationRound struct {
	ID            string    `json:"id"`
	SessionID     string    `json:"session_id"`
	RoundNumber   int       `json:"round_number"`
	RoundType     RoundType `json:"round_type"`
	ProposedBy    Proposer  `json:"proposed_by"`
	ProposerLabel string    `json:"proposer_label,omitempty"`
	SnapshotHTML  string    `json:"snapshot_html"`
	SnapshotText  string    `json:"snapshot_text"`
	SnapshotHash  string    `json:"snapshot_hash"`
	VersionID     *string   `json:"version_id,omitempty"`
	ImportSource  string    `json:"import_source,omitempty"`
	Notes         string    `json:"notes,omitempty"`
	ChangeCount   int       `json:"change_count"`
	CreatedBy     string    `json:"created_by"`
	CreatedAt     time.Time `json:"created_at"`
}

// maxSnapshotBytes bounds an imported draft (5 MB of HTML).
const maxSnapshotBytes = 5 << 20

// ImportRoundRequest is the payload for importing a draft as a round.
// Text is optional; when empty the plain text is derived from HTML by
// the external extractor.
type ImportRoundRequest struct {
	HTML          string   `json:"html"`
	Text          string   `json:"text,omitempty"`
	ProposedBy    Proposer `json:"proposed_by"`
	ProposerLabel string   `json:"proposer_label,omitempty"`
	ImportSource  string   `json:"import_source,omitempty"`
	Notes         string   `json:"notes,omitempty"`
	CreatedBy     string   `json:"created_by"`
}

// Validate checks required fields and limits on ImportRoundRequest.
func (r *ImportRoundRequest) Validate() error {
	if r.HTML == "" {
		return ErrMissingHTML
	}
	if len(r.HTML) > maxSnapshotBytes {
		return ErrFieldTooLong("html", maxSnapshotBytes)
	}
	if len(r.Text) > maxSnapshotBytes {
		return ErrFieldTooLong("text", maxSnapshotBytes)
	}
	if !r.ProposedBy.Valid() {
		return ErrInvalidProposer
	}
	if len(r.ProposerLabel) > 255 {
		return ErrFieldTooLong("proposer_label", 255)
	}
	if len(r.Notes) > 10000 {
		return ErrFieldTooLong("notes", 10000)
	}
	if len(r.CreatedBy) > 255 {
		return ErrFieldTooLong("created_by", 255)
	}
	return nil
}

// VersionOutcome records the result of the best-effort document-history
// snapshot. A failed snapshot never aborts an import; it is surfaced
// here so callers and tests can observe the degraded path.
type VersionOutcome struct {
	VersionID *string `json:"version_id"`
	Recovered bool    `json:"recovered"`
	Reason    string  `json:"reason,omitempty"`
}

// ComparisonSummary describes the redline comparison performed during an
// import. Nil on round 1 and on idempotent replays.
type ComparisonSummary struct {
	PreviousRoundID string `json:"previous_round_id"`
	PreviousRound   int    `json:"previous_round"`
	ChangeCount     int    `json:"change_count"`
}

// ImportRoundResult is the composed outcome of an import.
type ImportRoundResult struct {
	Round      *NegotiationRound   `json:"round"`
	Changes    []NegotiationChange `json:"changes"`
	Comparison *ComparisonSummary  `json:"comparison"`
	Version    VersionOutcome      `json:"version"`
	Session    *NegotiationSession `json:"session"`
	Replayed   bool                `json:"replayed"`
}
