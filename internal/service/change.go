package service

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/parleyhq/parley/internal/domain"
	"github.com/parleyhq/parley/internal/metrics"
	"github.com/parleyhq/parley/internal/models"
)

// Compile-time check: *ChangeService must satisfy domain.ChangeService.
var _ domain.ChangeService = (*ChangeService)(nil)

// ChangeStore is the data-access interface ChangeService depends on.
type ChangeStore interface {
	GetChange(ctx context.Context, workspaceID, changeID string) (*models.NegotiationChange, error)
	ListChanges(ctx context.Context, workspaceID, sessionID string, opts models.ListChangesOpts) ([]models.NegotiationChange, error)
	ResolveChange(ctx context.Context, workspaceID, changeID string, req models.UpdateChangeStatusRequest) (*models.NegotiationChange, *models.NegotiationSession, error)
	ResolveAllPending(ctx context.Context, workspaceID, sessionID string, target models.ChangeStatus, actor string) (*models.BulkResolveResult, error)
}

// ChangeService wraps ChangeStore with validation, metrics, audit and
// live events.
type ChangeService struct {
	store       ChangeStore
	auditWorker AuditEnqueuer
	events      EventPublisher
	log         *logrus.Logger
}

// NewChangeService creates a ChangeService.
func NewChangeService(store ChangeStore, auditWorker AuditEnqueuer, events EventPublisher, log *logrus.Logger) *ChangeService {
	return &ChangeService{store: store, auditWorker: auditWorker, events: events, log: log}
}

// GetChange returns a single change by ID (pass-through).
func (s *ChangeService) GetChange(ctx context.Context, workspaceID, changeID string) (*models.NegotiationChange, error) {
	return s.store.GetChange(ctx, workspaceID, changeID)
}

// ListChanges returns a session's changes matching the filters
// (pass-through).
func (s *ChangeService) ListChanges(
	ctx context.Context, workspaceID, sessionID string, opts models.ListChangesOpts,
) ([]models.NegotiationChange, error) {
	return s.store.ListChanges(ctx, workspaceID, sessionID, opts)
}

// ResolveChange transitions one pending change and returns the change
// plus the resynchronized session.
func (s *ChangeService) ResolveChange(
	ctx context.Context, workspaceID, changeID string, req models.UpdateChangeStatusRequest,
) (*models.NegotiationChange, *models.NegotiationSession, error) {
	if err := req.Validate(); err != nil {
		return nil, nil, err
	}

	change, sess, err := s.store.ResolveChange(ctx, workspaceID, changeID, req)
	if err != nil {
		return nil, nil, err
	}

	metrics.ChangesResolved.WithLabelValues(string(req.Status)).Inc()

	auditAsync(s.auditWorker, workspaceID, "change.resolve", "change", changeID, req.ResolvedBy,
		map[string]any{"session_id": change.SessionID, "status": string(req.Status)})

	publishAsync(s.events, workspaceID, EventChangeResolved, map[string]any{
		"session_id": change.SessionID,
		"change_id":  changeID,
		"status":     string(req.Status),
	})
	publishAsync(s.events, workspaceID, EventSessionUpdated, sess)

	return change, sess, nil
}

// AcceptAllPending accepts every pending change in the session.
func (s *ChangeService) AcceptAllPending(ctx context.Context, workspaceID, sessionID, actor string) (*models.BulkResolveResult, error) {
	return s.resolveAll(ctx, workspaceID, sessionID, actor, models.ChangeAccepted, "change.accept_all")
}

// RejectAllPending rejects every pending change in the session.
func (s *ChangeService) RejectAllPending(ctx context.Context, workspaceID, sessionID, actor string) (*models.BulkResolveResult, error) {
	return s.resolveAll(ctx, workspaceID, sessionID, actor, models.ChangeRejected, "change.reject_all")
}

func (s *ChangeService) resolveAll(
	ctx context.Context, workspaceID, sessionID, actor string,
	target models.ChangeStatus, action string,
) (*models.BulkResolveResult, error) {
	result, err := s.store.ResolveAllPending(ctx, workspaceID, sessionID, target, actor)
	if err != nil {
		return nil, err
	}

	metrics.ChangesResolved.WithLabelValues(string(target)).Add(float64(result.Affected))

	auditAsync(s.auditWorker, workspaceID, action, "session", sessionID, actor,
		map[string]any{"affected": result.Affected})

	publishAsync(s.events, workspaceID, EventSessionUpdated, result.Session)

	return result, nil
}
