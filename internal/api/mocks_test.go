package api_test

import (
	"context"

	"github.com/parleyhq/parley/internal/models"
)

// mockSessionRepo implements api.SessionRepository with function fields.
type mockSessionRepo struct {
	createFn  func(ctx context.Context, workspaceID string, req models.CreateSessionRequest) (*models.NegotiationSession, error)
	getFn     func(ctx context.Context, workspaceID, sessionID string) (*models.NegotiationSession, error)
	listFn    func(ctx context.Context, workspaceID string, opts models.ListSessionsOpts) ([]models.NegotiationSession, error)
	settleFn  func(ctx context.Context, workspaceID, sessionID, actor string) (*models.NegotiationSession, error)
	abandonFn func(ctx context.Context, workspaceID, sessionID, actor string) (*models.NegotiationSession, error)
}

func (m *mockSessionRepo) CreateSession(ctx context.Context, workspaceID string, req models.CreateSessionRequest) (*models.NegotiationSession, error) {
	return m.createFn(ctx, workspaceID, req)
}

func (m *mockSessionRepo) GetSession(ctx context.Context, workspaceID, sessionID string) (*models.NegotiationSession, error) {
	return m.getFn(ctx, workspaceID, sessionID)
}

func (m *mockSessionRepo) ListSessions(ctx context.Context, workspaceID string, opts models.ListSessionsOpts) ([]models.NegotiationSession, error) {
	return m.listFn(ctx, workspaceID, opts)
}

func (m *mockSessionRepo) SettleSession(ctx context.Context, workspaceID, sessionID, actor string) (*models.NegotiationSession, error) {
	return m.settleFn(ctx, workspaceID, sessionID, actor)
}

func (m *mockSessionRepo) AbandonSession(ctx context.Context, workspaceID, sessionID, actor string) (*models.NegotiationSession, error) {
	return m.abandonFn(ctx, workspaceID, sessionID, actor)
}

// mockRoundRepo implements api.RoundRepository with function fields.
type mockRoundRepo struct {
	importFn func(ctx context.Context, workspaceID, sessionID string, req models.ImportRoundRequest) (*models.ImportRoundResult, error)
	getFn    func(ctx context.Context, workspaceID, sessionID, roundID string) (*models.NegotiationRound, error)
	listFn   func(ctx context.Context, workspaceID, sessionID string) ([]models.NegotiationRound, error)
}

func (m *mockRoundRepo) ImportRound(ctx context.Context, workspaceID, sessionID string, req models.ImportRoundRequest) (*models.ImportRoundResult, error) {
	return m.importFn(ctx, workspaceID, sessionID, req)
}

func (m *mockRoundRepo) GetRound(ctx context.Context, workspaceID, sessionID, roundID string) (*models.NegotiationRound, error) {
	return m.getFn(ctx, workspaceID, sessionID, roundID)
}

func (m *mockRoundRepo) ListRounds(ctx context.Context, workspaceID, sessionID string) ([]models.NegotiationRound, error) {
	return m.listFn(ctx, workspaceID, sessionID)
}

// mockChangeRepo implements api.ChangeRepository with function fields.
type mockChangeRepo struct {
	getFn       func(ctx context.Context, workspaceID, changeID string) (*models.NegotiationChange, error)
	listFn      func(ctx context.Context, workspaceID, sessionID string, opts models.ListChangesOpts) ([]models.NegotiationChange, error)
	resolveFn   func(ctx context.Context, workspaceID, changeID string, req models.UpdateChangeStatusRequest) (*models.NegotiationChange, *models.NegotiationSession, error)
	acceptAllFn func(ctx context.Context, workspaceID, sessionID, actor string) (*models.BulkResolveResult, error)
	rejectAllFn func(ctx context.Context, workspaceID, sessionID, actor string) (*models.BulkResolveResult, error)
}

func (m *mockChangeRepo) GetChange(ctx context.Context, workspaceID, changeID string) (*models.NegotiationChange, error) {
	return m.getFn(ctx, workspaceID, changeID)
}

func (m *mockChangeRepo) ListChanges(ctx context.Context, workspaceID, sessionID string, opts models.ListChangesOpts) ([]models.NegotiationChange, error) {
	return m.listFn(ctx, workspaceID, sessionID, opts)
}

func (m *mockChangeRepo) ResolveChange(ctx context.Context, workspaceID, changeID string, req models.UpdateChangeStatusRequest) (*models.NegotiationChange, *models.NegotiationSession, error) {
	return m.resolveFn(ctx, workspaceID, changeID, req)
}

func (m *mockChangeRepo) AcceptAllPending(ctx context.Context, workspaceID, sessionID, actor string) (*models.BulkResolveResult, error) {
	return m.acceptAllFn(ctx, workspaceID, sessionID, actor)
}

func (m *mockChangeRepo) RejectAllPending(ctx context.Context, workspaceID, sessionID, actor string) (*models.BulkResolveResult, error) {
	return m.rejectAllFn(ctx, workspaceID, sessionID, actor)
}

// mockAuditRepo implements api.AuditRepository with function fields.
type mockAuditRepo struct {
	queryFn func(ctx context.Context, workspaceID string, opts models.AuditQueryOpts) ([]models.AuditEntry, error)
	purgeFn func(ctx context.Context, workspaceID string, retentionDays int) (int, error)
}

func (m *mockAuditRepo) RecordAudit(_ context.Context, _, _, _, _, _ string, _ map[string]any) error {
	return nil
}

func (m *mockAuditRepo) QueryAudit(ctx context.Context, workspaceID string, opts models.AuditQueryOpts) ([]models.AuditEntry, error) {
	return m.queryFn(ctx, workspaceID, opts)
}

func (m *mockAuditRepo) PurgeOldEntries(ctx context.Context, workspaceID string, retentionDays int) (int, error) {
	return m.purgeFn(ctx, workspaceID, retentionDays)
}

// mockStatsRepo implements api.StatsRepository.
type mockStatsRepo struct {
	statsFn func(ctx context.Context, workspaceID string) (*models.WorkspaceStats, error)
}

func (m *mockStatsRepo) WorkspaceStats(ctx context.Context, workspaceID string) (*models.WorkspaceStats, error) {
	return m.statsFn(ctx, workspaceID)
}
