package store_test

import (
	"context"
	"errors"
	"testing"

	"github.com/parleyhq/parley/internal/models"
	"github.com/parleyhq/parley/internal/store"
)

func createTestSession(t *testing.T, base store.Base, workspaceID string) *models.NegotiationSession {
	t.Helper()

	sess, err := store.NewSessionStore(base).CreateSession(context.Background(), workspaceID, models.CreateSessionRequest{
		DocID:            "doc-1",
		Title:            "Master Services Agreement",
		CounterpartyName: "Acme Corp",
		StartedBy:        "alice",
	})
	if err != nil {
		t.Fatalf("creating session: %v", err)
	}

	return sess
}

func TestCreateAndGetSession(t *testing.T) {
	base, workspaceID := setupTestBase(t)
	sessions := store.NewSessionStore(base)
	ctx := context.Background()

	created := createTestSession(t, base, workspaceID)

	if created.Status != models.SessionDraft {
		t.Errorf("new session status = %s, want draft", created.Status)
	}
	if created.CurrentRound != 0 {
		t.Errorf("new session current_round = %d, want 0", created.CurrentRound)
	}

	got, err := sessions.GetSession(ctx, workspaceID, created.ID)
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	if got.Title != "Master Services Agreement" || got.CounterpartyName != "Acme Corp" {
		t.Errorf("unexpected session fields: %+v", got)
	}

	if _, err := sessions.GetSession(ctx, workspaceID, "ses_missing"); !errors.Is(err, models.ErrSessionNotFound) {
		t.Errorf("missing session: got %v, want ErrSessionNotFound", err)
	}
}

func TestListSessionsFilters(t *testing.T) {
	base, workspaceID := setupTestBase(t)
	sessions := store.NewSessionStore(base)
	ctx := context.Background()

	a := createTestSession(t, base, workspaceID)

	b, err := sessions.CreateSession(ctx, workspaceID, models.CreateSessionRequest{
		DocID: "doc-2",
		Title: "NDA",
	})
	if err != nil {
		t.Fatalf("creating second session: %v", err)
	}

	if _, err := sessions.CloseSession(ctx, workspaceID, b.ID, models.SessionAbandoned); err != nil {
		t.Fatalf("closing session: %v", err)
	}

	all, err := sessions.ListSessions(ctx, workspaceID, models.ListSessionsOpts{})
	if err != nil {
		t.Fatalf("ListSessions: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("listed %d sessions, want 2", len(all))
	}

	drafts, err := sessions.ListSessions(ctx, workspaceID, models.ListSessionsOpts{Status: models.SessionDraft})
	if err != nil {
		t.Fatalf("ListSessions by status: %v", err)
	}
	if len(drafts) != 1 || drafts[0].ID != a.ID {
		t.Errorf("draft filter returned %d sessions", len(drafts))
	}

	byDoc, err := sessions.ListSessions(ctx, workspaceID, models.ListSessionsOpts{DocID: "doc-2"})
	if err != nil {
		t.Fatalf("ListSessions by doc: %v", err)
	}
	if len(byDoc) != 1 || byDoc[0].ID != b.ID {
		t.Errorf("doc filter returned %d sessions", len(byDoc))
	}
}

func TestCloseSession(t *testing.T) {
	base, workspaceID := setupTestBase(t)
	sessions := store.NewSessionStore(base)
	ctx := context.Background()

	sess := createTestSession(t, base, workspaceID)

	settled, err := sessions.CloseSession(ctx, workspaceID, sess.ID, models.SessionSettled)
	if err != nil {
		t.Fatalf("CloseSession: %v", err)
	}
	if settled.Status != models.SessionSettled {
		t.Errorf("status = %s, want settled", settled.Status)
	}
	if settled.SettledAt == nil {
		t.Error("settled_at not set on settlement")
	}

	// Settling again is a no-op.
	again, err := sessions.CloseSession(ctx, workspaceID, sess.ID, models.SessionSettled)
	if err != nil {
		t.Fatalf("idempotent settle: %v", err)
	}
	if again.Status != models.SessionSettled {
		t.Errorf("status after repeat settle = %s", again.Status)
	}

	// Abandoning a settled session is rejected.
	if _, err := sessions.CloseSession(ctx, workspaceID, sess.ID, models.SessionAbandoned); !errors.Is(err, models.ErrSessionClosed) {
		t.Errorf("abandon after settle: got %v, want ErrSessionClosed", err)
	}

	// Only terminal targets are accepted.
	if _, err := sessions.CloseSession(ctx, workspaceID, sess.ID, models.SessionActive); err == nil {
		t.Error("expected error closing to a non-terminal status")
	}
}
