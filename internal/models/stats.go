package models

// WorkspaceStats aggregates negotiation activity for one workspace.
type WorkspaceStats struct {
	TotalSessions    int            `json:"total_sessions"`
	SessionsByStatus map[string]int `json:"sessions_by_status"`
	TotalRounds      int            `json:"total_rounds"`
	TotalChanges     int            `json:"total_changes"`
	ChangesByStatus  map[string]int `json:"changes_by_status"`
}
