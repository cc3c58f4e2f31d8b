package service

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/parleyhq/parley/internal/models"
	"github.com/parleyhq/parley/internal/store"
)

// mockRoundStore records calls and returns configured responses.
type mockRoundStore struct {
	mu    sync.Mutex
	calls []string

	importRound    func(ctx context.Context, workspaceID, sessionID string, p store.ImportRoundParams, compare store.CompareFunc) (*models.ImportRoundResult, error)
	getRound       func(ctx context.Context, workspaceID, sessionID, roundID string) (*models.NegotiationRound, error)
	getRoundByHash func(ctx context.Context, workspaceID, sessionID, hash string) (*models.NegotiationRound, error)
	listRounds     func(ctx context.Context, workspaceID, sessionID string) ([]models.NegotiationRound, error)
}

func (m *mockRoundStore) record(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, name)
}

func (m *mockRoundStore) called(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.calls {
		if c == name {
			return true
		}
	}
	return false
}

func (m *mockRoundStore) ImportRound(ctx context.Context, workspaceID, sessionID string, p store.ImportRoundParams, compare store.CompareFunc) (*models.ImportRoundResult, error) {
	m.record("ImportRound")
	return m.importRound(ctx, workspaceID, sessionID, p, compare)
}

func (m *mockRoundStore) GetRound(ctx context.Context, workspaceID, sessionID, roundID string) (*models.NegotiationRound, error) {
	m.record("GetRound")
	return m.getRound(ctx, workspaceID, sessionID, roundID)
}

func (m *mockRoundStore) GetRoundByHash(ctx context.Context, workspaceID, sessionID, hash string) (*models.NegotiationRound, error) {
	m.record("GetRoundByHash")
	if m.getRoundByHash == nil {
		return nil, nil
	}
	return m.getRoundByHash(ctx, workspaceID, sessionID, hash)
}

func (m *mockRoundStore) ListRounds(ctx context.Context, workspaceID, sessionID string) ([]models.NegotiationRound, error) {
	m.record("ListRounds")
	return m.listRounds(ctx, workspaceID, sessionID)
}

// mockSessionStore records calls and returns configured responses.
type mockSessionStore struct {
	mu    sync.Mutex
	calls []string

	createSession func(ctx context.Context, workspaceID string, req models.CreateSessionRequest) (*models.NegotiationSession, error)
	getSession    func(ctx context.Context, workspaceID, sessionID string) (*models.NegotiationSession, error)
	listSessions  func(ctx context.Context, workspaceID string, opts models.ListSessionsOpts) ([]models.NegotiationSession, error)
	closeSession  func(ctx context.Context, workspaceID, sessionID string, target models.SessionStatus) (*models.NegotiationSession, error)
}

func (m *mockSessionStore) record(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, name)
}

func (m *mockSessionStore) CreateSession(ctx context.Context, workspaceID string, req models.CreateSessionRequest) (*models.NegotiationSession, error) {
	m.record("CreateSession")
	return m.createSession(ctx, workspaceID, req)
}

func (m *mockSessionStore) GetSession(ctx context.Context, workspaceID, sessionID string) (*models.NegotiationSession, error) {
	m.record("GetSession")
	return m.getSession(ctx, workspaceID, sessionID)
}

func (m *mockSessionStore) ListSessions(ctx context.Context, workspaceID string, opts models.ListSessionsOpts) ([]models.NegotiationSession, error) {
	m.record("ListSessions")
	return m.listSessions(ctx, workspaceID, opts)
}

func (m *mockSessionStore) CloseSession(ctx context.Context, workspaceID, sessionID string, target models.SessionStatus) (*models.NegotiationSession, error) {
	m.record("CloseSession")
	return m.closeSession(ctx, workspaceID, sessionID, target)
}

// mockChangeStore records calls and returns configured responses.
type mockChangeStore struct {
	mu    sync.Mutex
	calls []string

	getChange         func(ctx context.Context, workspaceID, changeID string) (*models.NegotiationChange, error)
	listChanges       func(ctx context.Context, workspaceID, sessionID string, opts models.ListChangesOpts) ([]models.NegotiationChange, error)
	resolveChange     func(ctx context.Context, workspaceID, changeID string, req models.UpdateChangeStatusRequest) (*models.NegotiationChange, *models.NegotiationSession, error)
	resolveAllPending func(ctx context.Context, workspaceID, sessionID string, target models.ChangeStatus, actor string) (*models.BulkResolveResult, error)
}

func (m *mockChangeStore) record(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, name)
}

func (m *mockChangeStore) GetChange(ctx context.Context, workspaceID, changeID string) (*models.NegotiationChange, error) {
	m.record("GetChange")
	return m.getChange(ctx, workspaceID, changeID)
}

func (m *mockChangeStore) ListChanges(ctx context.Context, workspaceID, sessionID string, opts models.ListChangesOpts) ([]models.NegotiationChange, error) {
	m.record("ListChanges")
	return m.listChanges(ctx, workspaceID, sessionID, opts)
}

func (m *mockChangeStore) ResolveChange(ctx context.Context, workspaceID, changeID string, req models.UpdateChangeStatusRequest) (*models.NegotiationChange, *models.NegotiationSession, error) {
	m.record("ResolveChange")
	return m.resolveChange(ctx, workspaceID, changeID, req)
}

func (m *mockChangeStore) ResolveAllPending(ctx context.Context, workspaceID, sessionID string, target models.ChangeStatus, actor string) (*models.BulkResolveResult, error) {
	m.record("ResolveAllPending")
	return m.resolveAllPending(ctx, workspaceID, sessionID, target, actor)
}

// mockComparator implements RedlineComparator with configurable hooks.
type mockComparator struct {
	mu           sync.Mutex
	compareCalls int
	extractCalls int

	compare func(ctx context.Context, prevHTML, prevText, curHTML, curText string) ([]models.DetectedChange, error)
	extract func(ctx context.Context, html string) (string, error)
}

func (m *mockComparator) Compare(ctx context.Context, prevHTML, prevText, curHTML, curText string) ([]models.DetectedChange, error) {
	m.mu.Lock()
	m.compareCalls++
	m.mu.Unlock()
	if m.compare == nil {
		return nil, nil
	}
	return m.compare(ctx, prevHTML, prevText, curHTML, curText)
}

func (m *mockComparator) ExtractText(ctx context.Context, html string) (string, error) {
	m.mu.Lock()
	m.extractCalls++
	m.mu.Unlock()
	if m.extract == nil {
		return "text:" + html, nil
	}
	return m.extract(ctx, html)
}

// mockVersions implements VersionSnapshotter.
type mockVersions struct {
	mu    sync.Mutex
	calls int

	create func(ctx context.Context, docID, sessionID string, roundNumber int, html, createdBy string) (string, error)
}

func (m *mockVersions) CreateSnapshot(ctx context.Context, docID, sessionID string, roundNumber int, html, createdBy string) (string, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	if m.create == nil {
		return "ver_1", nil
	}
	return m.create(ctx, docID, sessionID, roundNumber, html, createdBy)
}

// mockAuditor captures recorded audit entries.
type mockAuditor struct {
	mu      sync.Mutex
	entries []models.AuditEntry
}

func (m *mockAuditor) RecordAudit(_ context.Context, workspaceID, action, entityType, entityID, actor string, detail map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, models.AuditEntry{
		WorkspaceID: workspaceID,
		Action:      action,
		EntityType:  entityType,
		EntityID:    entityID,
		Actor:       actor,
		Detail:      detail,
	})
	return nil
}

func (m *mockAuditor) actions() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.entries))
	for _, e := range m.entries {
		out = append(out, e.Action)
	}
	return out
}

// mockAuditEnqueuer records enqueued audit jobs synchronously.
type mockAuditEnqueuer struct {
	mu   sync.Mutex
	jobs []*AuditJob
}

func (m *mockAuditEnqueuer) Enqueue(job *AuditJob) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.jobs = append(m.jobs, job)
}

func (m *mockAuditEnqueuer) actions() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.jobs))
	for _, j := range m.jobs {
		out = append(out, j.Action)
	}
	return out
}

// mockPublisher records published events.
type mockPublisher struct {
	mu     sync.Mutex
	events []string
}

func (m *mockPublisher) Publish(_ string, event string, _ any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
}

func (m *mockPublisher) published(event string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.events {
		if e == event {
			return true
		}
	}
	return false
}

// mockAnalysisEnqueuer records enqueued analysis jobs.
type mockAnalysisEnqueuer struct {
	mu   sync.Mutex
	jobs []AnalysisJob
}

func (m *mockAnalysisEnqueuer) Enqueue(job AnalysisJob) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.jobs = append(m.jobs, job)
}

func (m *mockAnalysisEnqueuer) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.jobs)
}

// mockAnalyzer implements ChangeAnalyzer.
type mockAnalyzer struct {
	mu    sync.Mutex
	calls int

	analyze func(ctx context.Context, change models.NegotiationChange) (*models.ChangeAnalysis, error)
}

func (m *mockAnalyzer) Analyze(ctx context.Context, change models.NegotiationChange) (*models.ChangeAnalysis, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	if m.analyze == nil {
		return &models.ChangeAnalysis{ChangeID: change.ID, RiskLevel: "low"}, nil
	}
	return m.analyze(ctx, change)
}

// mockAnalysisUpdater implements AnalysisUpdater.
type mockAnalysisUpdater struct {
	mu      sync.Mutex
	updates map[string]string // change ID -> risk level

	update func(ctx context.Context, workspaceID, changeID, riskLevel string, analysis json.RawMessage) error
}

func (m *mockAnalysisUpdater) UpdateAnalysis(ctx context.Context, workspaceID, changeID, riskLevel string, analysis json.RawMessage) error {
	m.mu.Lock()
	if m.updates == nil {
		m.updates = map[string]string{}
	}
	m.updates[changeID] = riskLevel
	m.mu.Unlock()
	if m.update == nil {
		return nil
	}
	return m.update(ctx, workspaceID, changeID, riskLevel, analysis)
}
