package service

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/parleyhq/parley/internal/domain"
	"github.com/parleyhq/parley/internal/models"
)

// Auditor is an alias for the canonical domain.Auditor interface.
type Auditor = domain.Auditor

// Compile-time check: *AuditService must satisfy domain.AuditService.
var _ domain.AuditService = (*AuditService)(nil)

// AuditQueryStore is the data-access interface AuditService depends on.
type AuditQueryStore interface {
	Insert(ctx context.Context, workspaceID string, entry models.AuditEntry) error
	Query(ctx context.Context, workspaceID string, opts models.AuditQueryOpts) ([]models.AuditEntry, error)
	PurgeOldEntries(ctx context.Context, workspaceID string, retentionDays int) (int, error)
}

// AuditService exposes audit recording, queries and retention purge.
type AuditService struct {
	store AuditQueryStore
	log   *logrus.Logger
}

// NewAuditService creates an AuditService.
func NewAuditService(store AuditQueryStore, log *logrus.Logger) *AuditService {
	return &AuditService{store: store, log: log}
}

// RecordAudit inserts an audit log entry.
func (s *AuditService) RecordAudit(
	ctx context.Context, workspaceID, action, entityType, entityID, actor string, detail map[string]any,
) error {
	return s.store.Insert(ctx, workspaceID, models.AuditEntry{
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Actor:      actor,
		Detail:     detail,
	})
}

// QueryAudit returns audit entries matching the given filters
// (pass-through).
func (s *AuditService) QueryAudit(
	ctx context.Context, workspaceID string, opts models.AuditQueryOpts,
) ([]models.AuditEntry, error) {
	return s.store.Query(ctx, workspaceID, opts)
}

// PurgeOldEntries deletes audit entries older than retentionDays and
// logs the result.
func (s *AuditService) PurgeOldEntries(ctx context.Context, workspaceID string, retentionDays int) (int, error) {
	deleted, err := s.store.PurgeOldEntries(ctx, workspaceID, retentionDays)
	if err != nil {
		return 0, err
	}

	s.log.WithFields(logrus.Fields{
		"workspace_id":   workspaceID,
		"retention_days": retentionDays,
		"deleted":        deleted,
	}).Info("audit.purge")

	return deleted, nil
}
