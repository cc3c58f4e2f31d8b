package service

import (
	"context"

	"github.com/parleyhq/parley/internal/domain"
	"github.com/parleyhq/parley/internal/models"
)

// Compile-time check: *StatsService must satisfy domain.StatsService.
var _ domain.StatsService = (*StatsService)(nil)

// StatsStore is the data-access interface StatsService depends on.
type StatsStore = domain.StatsService

// StatsService exposes workspace aggregates (pass-through).
type StatsService struct {
	store StatsStore
}

// NewStatsService creates a StatsService.
func NewStatsService(store StatsStore) *StatsService {
	return &StatsService{store: store}
}

// WorkspaceStats returns session, round and change totals for the workspace.
func (s *StatsService) WorkspaceStats(ctx context.Context, workspaceID string) (*models.WorkspaceStats, error) {
	return s.store.WorkspaceStats(ctx, workspaceID)
}
