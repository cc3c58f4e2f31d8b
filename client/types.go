package client

import (
	"encoding/json"
	"time"
)

// SessionCounts holds the aggregate change counters for a session.
type SessionCounts struct {
	Total     int `json:"total_changes"`
	Pending   int `json:"pending_changes"`
	Accepted  int `json:"accepted_changes"`
	Rejected  int `json:"rejected_changes"`
	Countered int `json:"countered_changes"`
}

// Session is one negotiation over a document with a single counterparty.
type Session struct {
	ID               string        `json:"id"`
	DocID            string        `json:"doc_id"`
	Title            string        `json:"title"`
	CounterpartyName string        `json:"counterparty_name"`
	Status           string        `json:"status"`
	CurrentRound     int           `json:"current_round"`
	Counts           SessionCounts `json:"counts"`
	StartedBy        string        `json:"started_by"`
	SettledAt        *time.Time    `json:"settled_at,omitempty"`
	CreatedAt        time.Time     `json:"created_at"`
	UpdatedAt        time.Time     `json:"updated_at"`
}

// CreateSessionRequest is the payload for creating a negotiation session.
type CreateSessionRequest struct {
	DocID            string `json:"doc_id"`
	Title            string `json:"title"`
	CounterpartyName string `json:"counterparty_name,omitempty"`
	StartedBy        string `json:"started_by,omitempty"`
}

// SessionListOptions filters session listings.
type SessionListOptions struct {
	DocID  string
	Status string
	Limit  int
	Offset int
}

// Round is an immutable snapshot of one exchanged draft.
type Round struct {
	ID            string    `json:"id"`
	SessionID     string    `json:"session_id"`
	RoundNumber   int       `json:"round_number"`
	RoundType     string    `json:"round_type"`
	ProposedBy    string    `json:"proposed_by"`
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

// ImportRoundRequest is the payload for importing a draft as a round.
type ImportRoundRequest struct {
	HTML          string `json:"html"`
	Text          string `json:"text,omitempty"`
	ProposedBy    string `json:"proposed_by"`
	ProposerLabel string `json:"proposer_label,omitempty"`
	ImportSource  string `json:"import_source,omitempty"`
	Notes         string `json:"notes,omitempty"`
	CreatedBy     string `json:"created_by,omitempty"`
}

// VersionOutcome records the result of the best-effort version snapshot.
type VersionOutcome struct {
	VersionID *string `json:"version_id"`
	Recovered bool    `json:"recovered"`
	Reason    string  `json:"reason,omitempty"`
}

// ComparisonSummary describes the redline comparison performed during an import.
type ComparisonSummary struct {
	PreviousRoundID string `json:"previous_round_id"`
	PreviousRound   int    `json:"previous_round"`
	ChangeCount     int    `json:"change_count"`
}

// ImportRoundResult is the composed outcome of an import.
type ImportRoundResult struct {
	Round      *Round             `json:"round"`
	Changes    []Change           `json:"changes"`
	Comparison *ComparisonSummary `json:"comparison"`
	Version    VersionOutcome     `json:"version"`
	Session    *Session           `json:"session"`
	Replayed   bool               `json:"replayed"`
}

// Change is one atomic diff unit detected between two rounds.
type Change struct {
	ID             string          `json:"id"`
	SessionID      string          `json:"session_id"`
	RoundID        string          `json:"round_id"`
	ChangeType     string          `json:"change_type"`
	Category       string          `json:"category"`
	SectionHeading string          `json:"section_heading,omitempty"`
	OriginalText   string          `json:"original_text,omitempty"`
	ProposedText   string          `json:"proposed_text,omitempty"`
	FromPos        int             `json:"from_pos"`
	ToPos          int             `json:"to_pos"`
	Status         string          `json:"status"`
	RiskLevel      string          `json:"risk_level,omitempty"`
	AIAnalysis     json.RawMessage `json:"ai_analysis,omitempty"`
	ResolvedBy     string          `json:"resolved_by,omitempty"`
	ResolvedAt     *time.Time      `json:"resolved_at,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// ChangeListOptions filters change listings within a session.
type ChangeListOptions struct {
	RoundID string
	Status  string
	Limit   int
	Offset  int
}

// UpdateChangeStatusRequest is the payload for resolving a single change.
type UpdateChangeStatusRequest struct {
	Status     string `json:"status"`
	ResolvedBy string `json:"resolved_by,omitempty"`
}

// BulkResolveResult reports how many pending changes a bulk operation
// transitioned.
type BulkResolveResult struct {
	Affected int      `json:"affected"`
	Session  *Session `json:"session"`
}

// AuditEntry is one append-only record of a negotiation action.
type AuditEntry struct {
	ID         int64          `json:"id"`
	Action     string         `json:"action"`
	EntityType string         `json:"entity_type"`
	EntityID   string         `json:"entity_id"`
	Actor      string         `json:"actor,omitempty"`
	Detail     map[string]any `json:"detail,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
}

// AuditQueryOptions filters audit log queries.
type AuditQueryOptions struct {
	EntityType string
	EntityID   string
	Action     string
	Since      *time.Time
	Limit      int
	Offset     int
}

// WorkspaceStats aggregates negotiation activity for one workspace.
type WorkspaceStats struct {
	TotalSessions    int            `json:"total_sessions"`
	SessionsByStatus map[string]int `json:"sessions_by_status"`
	TotalRounds      int            `json:"total_rounds"`
	TotalChanges     int            `json:"total_changes"`
	ChangesByStatus  map[string]int `json:"changes_by_status"`
}

// HealthResponse is the liveness check payload.
type HealthResponse struct {
	Status        string  `json:"status"`
	Version       string  `json:"version"`
	Database      string  `json:"database"`
	WSClients     int     `json:"ws_clients"`
	UptimeSeconds float64 `json:"uptime_seconds"`
}
