package store_test

import (
	"context"
	"testing"

	"github.com/parleyhq/parley/internal/models"
	"github.com/parleyhq/parley/internal/store"
)

func TestAuditInsertAndQuery(t *testing.T) {
	base, workspaceID := setupTestBase(t)
	audit := store.NewAuditStore(base)
	ctx := context.Background()

	entries := []models.AuditEntry{
		{Action: "session.create", EntityType: "session", EntityID: "ses_1", Actor: "alice"},
		{Action: "round.import", EntityType: "round", EntityID: "rnd_1", Actor: "alice",
			Detail: map[string]any{"round_number": float64(1), "replayed": false}},
		{Action: "change.resolve", EntityType: "change", EntityID: "chg_1", Actor: "bob"},
	}

	for _, e := range entries {
		if err := audit.Insert(ctx, workspaceID, e); err != nil {
			t.Fatalf("Insert(%s): %v", e.Action, err)
		}
	}

	all, err := audit.Query(ctx, workspaceID, models.AuditQueryOpts{})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("queried %d entries, want 3", len(all))
	}

	// Newest first.
	if all[0].Action != "change.resolve" {
		t.Errorf("first entry = %s, want change.resolve", all[0].Action)
	}

	byEntity, err := audit.Query(ctx, workspaceID, models.AuditQueryOpts{EntityType: "round", EntityID: "rnd_1"})
	if err != nil {
		t.Fatalf("Query by entity: %v", err)
	}
	if len(byEntity) != 1 {
		t.Fatalf("entity filter returned %d entries, want 1", len(byEntity))
	}
	if byEntity[0].Detail["round_number"] != float64(1) {
		t.Errorf("detail round_number = %v", byEntity[0].Detail["round_number"])
	}

	byAction, err := audit.Query(ctx, workspaceID, models.AuditQueryOpts{Action: "session.create"})
	if err != nil {
		t.Fatalf("Query by action: %v", err)
	}
	if len(byAction) != 1 || byAction[0].Actor != "alice" {
		t.Errorf("action filter = %+v", byAction)
	}
}

func TestWorkspaceStats(t *testing.T) {
	base, workspaceID := setupTestBase(t)
	stats := store.NewStatsStore(base)
	ctx := context.Background()

	_, seeded := seedSessionWithChanges(t, base, workspaceID, threeChanges())

	changes := store.NewChangeStore(base)
	if _, _, err := changes.ResolveChange(ctx, workspaceID, seeded[0].ID, models.UpdateChangeStatusRequest{
		Status: models.ChangeAccepted,
	}); err != nil {
		t.Fatalf("resolving change: %v", err)
	}

	got, err := stats.WorkspaceStats(ctx, workspaceID)
	if err != nil {
		t.Fatalf("WorkspaceStats: %v", err)
	}

	if got.TotalSessions != 1 {
		t.Errorf("total sessions = %d, want 1", got.TotalSessions)
	}
	if got.SessionsByStatus["reviewing"] != 1 {
		t.Errorf("sessions by status = %v", got.SessionsByStatus)
	}
	if got.TotalRounds != 2 {
		t.Errorf("total rounds = %d, want 2", got.TotalRounds)
	}
	if got.TotalChanges != 3 || got.ChangesByStatus["pending"] != 2 || got.ChangesByStatus["accepted"] != 1 {
		t.Errorf("changes = %d by status %v", got.TotalChanges, got.ChangesByStatus)
	}
}
