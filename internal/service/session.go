package service

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/parleyhq/parley/internal/domain"
	"github.com/parleyhq/parley/internal/models"
)

// Compile-time check: *SessionService must satisfy domain.SessionService.
var _ domain.SessionService = (*SessionService)(nil)

// SessionStore is the data-access interface SessionService depends on.
type SessionStore interface {
	CreateSession(ctx context.Context, workspaceID string, req models.CreateSessionRequest) (*models.NegotiationSession, error)
	GetSession(ctx context.Context, workspaceID, sessionID string) (*models.NegotiationSession, error)
	ListSessions(ctx context.Context, workspaceID string, opts models.ListSessionsOpts) ([]models.NegotiationSession, error)
	CloseSession(ctx context.Context, workspaceID, sessionID string, target models.SessionStatus) (*models.NegotiationSession, error)
}

// SessionService wraps SessionStore with validation, audit and live events.
type SessionService struct {
	store       SessionStore
	auditWorker AuditEnqueuer
	events      EventPublisher
	log         *logrus.Logger
}

// NewSessionService creates a SessionService.
func NewSessionService(store SessionStore, auditWorker AuditEnqueuer, events EventPublisher, log *logrus.Logger) *SessionService {
	return &SessionService{store: store, auditWorker: auditWorker, events: events, log: log}
}

// CreateSession validates and creates a negotiation session.
func (s *SessionService) CreateSession(
	ctx context.Context, workspaceID string, req models.CreateSessionRequest,
) (*models.NegotiationSession, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	sess, err := s.store.CreateSession(ctx, workspaceID, req)
	if err != nil {
		return nil, err
	}

	auditAsync(s.auditWorker, workspaceID, "session.create", "session", sess.ID, req.StartedBy,
		map[string]any{"doc_id": sess.DocID, "title": sess.Title})

	return sess, nil
}

// GetSession returns a single session by ID (pass-through).
func (s *SessionService) GetSession(ctx context.Context, workspaceID, sessionID string) (*models.NegotiationSession, error) {
	return s.store.GetSession(ctx, workspaceID, sessionID)
}

// ListSessions returns sessions matching the filters (pass-through).
func (s *SessionService) ListSessions(
	ctx context.Context, workspaceID string, opts models.ListSessionsOpts,
) ([]models.NegotiationSession, error) {
	return s.store.ListSessions(ctx, workspaceID, opts)
}

// SettleSession moves a session to the settled terminal state.
func (s *SessionService) SettleSession(ctx context.Context, workspaceID, sessionID, actor string) (*models.NegotiationSession, error) {
	return s.close(ctx, workspaceID, sessionID, actor, models.SessionSettled, "session.settle")
}

// AbandonSession moves a session to the abandoned terminal state.
func (s *SessionService) AbandonSession(ctx context.Context, workspaceID, sessionID, actor string) (*models.NegotiationSession, error) {
	return s.close(ctx, workspaceID, sessionID, actor, models.SessionAbandoned, "session.abandon")
}

func (s *SessionService) close(
	ctx context.Context, workspaceID, sessionID, actor string,
	target models.SessionStatus, action string,
) (*models.NegotiationSession, error) {
	sess, err := s.store.CloseSession(ctx, workspaceID, sessionID, target)
	if err != nil {
		return nil, err
	}

	auditAsync(s.auditWorker, workspaceID, action, "session", sessionID, actor, nil)
	publishAsync(s.events, workspaceID, EventSessionUpdated, sess)

	return sess, nil
}
