package store

import (
	"context"
	"fmt"

	"github.com/parleyhq/parley/internal/models"
)

// StatsStore aggregates workspace-wide negotiation activity.
type StatsStore struct {
	Base
}

// NewStatsStore creates a new StatsStore.
func NewStatsStore(base Base) *StatsStore {
	return &StatsStore{Base: base}
}

// WorkspaceStats returns session, round and change totals grouped by status.
func (s *StatsStore) WorkspaceStats(ctx context.Context, workspaceID string) (*models.WorkspaceStats, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	stats := &models.WorkspaceStats{
		SessionsByStatus: map[string]int{},
		ChangesByStatus:  map[string]int{},
	}

	rows, err := s.Pool.Query(ctx,
		"SELECT status, COUNT(*) FROM negotiation_sessions WHERE workspace_id = $1 GROUP BY status",
		workspaceID)
	if err != nil {
		return nil, fmt.Errorf("aggregating sessions: %w", err)
	}

	for rows.Next() {
		var status string
		var count int

		if err := rows.Scan(&status, &count); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scanning session stats: %w", err)
		}

		stats.SessionsByStatus[status] = count
		stats.TotalSessions += count
	}

	rows.Close()

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating session stats: %w", err)
	}

	err = s.Pool.QueryRow(ctx,
		"SELECT COUNT(*) FROM negotiation_rounds WHERE workspace_id = $1",
		workspaceID).Scan(&stats.TotalRounds)
	if err != nil {
		return nil, fmt.Errorf("counting rounds: %w", err)
	}

	rows, err = s.Pool.Query(ctx,
		"SELECT status, COUNT(*) FROM negotiation_changes WHERE workspace_id = $1 GROUP BY status",
		workspaceID)
	if err != nil {
		return nil, fmt.Errorf("aggregating changes: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var status string
		var count int

		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("scanning change stats: %w", err)
		}

		stats.ChangesByStatus[status] = count
		stats.TotalChanges += count
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating change stats: %w", err)
	}

	return stats, nil
}
