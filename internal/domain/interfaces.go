// Package domain defines the canonical service interfaces shared across
// API layers (REST handlers, client SDK). Consumers should depend on
// these interfaces rather than re-declaring equivalent ones.
package domain

import (
	"context"

	"github.com/parleyhq/parley/internal/models"
)

// SessionService defines session lifecycle operations.
type SessionService interface {
	CreateSession(ctx context.Context, workspaceID string, req models.CreateSessionRequest) (*models.NegotiationSession, error)
	GetSession(ctx context.Context, workspaceID, sessionID string) (*models.NegotiationSession, error)
	ListSessions(ctx context.Context, workspaceID string, opts models.ListSessionsOpts) ([]models.NegotiationSession, error)
	SettleSession(ctx context.Context, workspaceID, sessionID, actor string) (*models.NegotiationSession, error)
	AbandonSession(ctx context.Context, workspaceID, sessionID, actor string) (*models.NegotiationSession, error)
}

// RoundService defines the round import pipeline and round reads.
type RoundService interface {
	ImportRound(ctx context.Context, workspaceID, sessionID string, req models.ImportRoundRequest) (*models.ImportRoundResult, error)
	GetRound(ctx context.Context, workspaceID, sessionID, roundID string) (*models.NegotiationRound, error)
	ListRounds(ctx context.Context, workspaceID, sessionID string) ([]models.NegotiationRound, error)
}

// ChangeService defines change reads and resolution operations.
type ChangeService interface {
	GetChange(ctx context.Context, workspaceID, changeID string) (*models.NegotiationChange, error)
	ListChanges(ctx context.Context, workspaceID, sessionID string, opts models.ListChangesOpts) ([]models.NegotiationChange, error)
	ResolveChange(ctx context.Context, workspaceID, changeID string, req models.UpdateChangeStatusRequest) (*models.NegotiationChange, *models.NegotiationSession, error)
	AcceptAllPending(ctx context.Context, workspaceID, sessionID, actor string) (*models.BulkResolveResult, error)
	RejectAllPending(ctx context.Context, workspaceID, sessionID, actor string) (*models.BulkResolveResult, error)
}

// AuditService defines audit log query and maintenance operations.
type AuditService interface {
	Auditor
	QueryAudit(ctx context.Context, workspaceID string, opts models.AuditQueryOpts) ([]models.AuditEntry, error)
	PurgeOldEntries(ctx context.Context, workspaceID string, retentionDays int) (int, error)
}

// Auditor is the minimal interface for recording audit entries.
// Used by services and workers for fire-and-forget audit logging.
type Auditor interface {
	RecordAudit(ctx context.Context, workspaceID, action, entityType, entityID, actor string, detail map[string]any) error
}

// StatsService defines workspace-level aggregate reads.
type StatsService interface {
	WorkspaceStats(ctx context.Context, workspaceID string) (*models.WorkspaceStats, error)
}
