package models

import (
	"encoding/json"
	"time"
)

// ChangeStatus is the resolution state of a detected change.
type ChangeStatus string

// Change resolution states. A change leaves pending exactly once;
// there is no un-resolving.
const (
	ChangePending   ChangeStatus = "pending"
	ChangeAccepted  ChangeStatus = "accepted"
	ChangeRejected  ChangeStatus = "rejected"
	ChangeCountered ChangeStatus = "countered"
)

// Valid reports whether s is a known change status.
func (s ChangeStatus) Valid() bool {
	switch s {
	case ChangePending, ChangeAccepted, ChangeRejected, ChangeCountered:
		return true
	}
	return false
}

// ValidResolution reports whether s is a status a pending change may
// transition to.
func (s ChangeStatus) ValidResolution() bool {
	return s.Valid() && s != ChangePending
}

// ChangeType is the structural kind of a diff unit.
type ChangeType string

// Change types produced by the redline comparator.
const (
	ChangeInsert  ChangeType = "insert"
	ChangeDelete  ChangeType = "delete"
	ChangeReplace ChangeType = "replace"
)

// ChangeCategory groups changes by editorial weight.
type ChangeCategory string

// Change categories.
const (
	CategorySubstantive ChangeCategory = "substantive"
	CategoryEditorial   ChangeCategory = "editorial"
	CategoryStructural  ChangeCategory = "structural"
)

// NegotiationChange is one atomic diff unit detected between two rounds.
// RoundID is the round the change was detected in (the newer snapshot).
type NegotiationChange struct {
	ID             string          `json:"id"`
	SessionID      string          `json:"session_id"`
	RoundID        string          `json:"round_id"`
	ChangeType     ChangeType      `json:"change_type"`
	Category       ChangeCategory  `json:"category"`
	SectionHeading string          `json:"section_heading,omitempty"`
	OriginalText   string          `json:"original_text,omitempty"`
	ProposedText   string          `json:"proposed_text,omitempty"`
	FromPos        int             `json:"from_pos"`
	ToPos          int             `json:"to_pos"`
	Status         ChangeStatus    `json:"status"`
	RiskLevel      string          `json:"risk_level,omitempty"`
	AIAnalysis     json.RawMessage `json:"ai_analysis,omitempty"`
	ResolvedBy     string          `json:"resolved_by,omitempty"`
	ResolvedAt     *time.Time      `json:"resolved_at,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// DetectedChange is the comparator's wire representation of one change,
// before it is persisted against a round.
type DetectedChange struct {
	ChangeType     ChangeType     `json:"change_type"`
	Category       ChangeCategory `json:"category"`
	SectionHeading string         `json:"section_heading,omitempty"`
	OriginalText   string         `json:"original_text,omitempty"`
	ProposedText   string         `json:"proposed_text,omitempty"`
	FromPos        int            `json:"from_pos"`
	ToPos          int            `json:"to_pos"`
}

// UpdateChangeStatusRequest is the payload for resolving a single change.
type UpdateChangeStatusRequest struct {
	Status     ChangeStatus `json:"status"`
	ResolvedBy string       `json:"resolved_by"`
}

// Validate checks UpdateChangeStatusRequest fields.
func (r *UpdateChangeStatusRequest) Validate() error {
	if !r.Status.ValidResolution() {
		return ErrInvalidChangeStatus
	}
	if len(r.ResolvedBy) > 255 {
		return ErrFieldTooLong("resolved_by", 255)
	}
	return nil
}

// ChangeAnalysis is the analyzer's enrichment for one change.
type ChangeAnalysis struct {
	ChangeID  string          `json:"change_id"`
	RiskLevel string          `json:"risk_level"`
	Analysis  json.RawMessage `json:"analysis,omitempty"`
}

// BulkResolveResult reports how many pending changes a bulk operation
// transitioned.
type BulkResolveResult struct {
	Affected int                 `json:"affected"`
	Session  *NegotiationSession `json:"session"`
}
