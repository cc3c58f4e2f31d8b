package models

import "time"

// AuditEntry is one append-only record of a negotiation action.
type AuditEntry struct {
	ID          int64          `json:"id"`
	WorkspaceID string         `json:"workspace_id"`
	Action      string         `json:"action"`
	EntityType  string         `json:"entity_type"`
	EntityID    string         `json:"entity_id"`
	Actor       string         `json:"actor,omitempty"`
	Detail      map[string]any `json:"detail,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
}

// AuditQueryOpts filters audit log queries.
type AuditQueryOpts struct {
	EntityType string
	EntityID   string
	Action     string
	Since      *time.Time
	Limit      int
	Offset     int
}
