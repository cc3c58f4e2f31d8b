package store_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/parleyhq/parley/internal/models"
	"github.com/parleyhq/parley/internal/store"
)

// seedSessionWithChanges imports two rounds so the session carries a
// pending change set, and returns the session ID plus the changes.
func seedSessionWithChanges(t *testing.T, base store.Base, workspaceID string, detected []models.DetectedChange) (string, []models.NegotiationChange) {
	t.Helper()

	rounds := store.NewRoundStore(base)
	ctx := context.Background()

	sess := createTestSession(t, base, workspaceID)

	if _, err := rounds.ImportRound(ctx, workspaceID, sess.ID, importParams("<p>A</p>", models.ProposerInternal), noCompare(t)); err != nil {
		t.Fatalf("importing round 1: %v", err)
	}

	res, err := rounds.ImportRound(ctx, workspaceID, sess.ID, importParams("<p>B</p>", models.ProposerExternal), fixedCompare(detected))
	if err != nil {
		t.Fatalf("importing round 2: %v", err)
	}

	return sess.ID, res.Changes
}

func threeChanges() []models.DetectedChange {
	return []models.DetectedChange{
		{ChangeType: models.ChangeReplace, Category: models.CategorySubstantive, OriginalText: "30 days", ProposedText: "60 days", FromPos: 10, ToPos: 17},
		{ChangeType: models.ChangeDelete, Category: models.CategorySubstantive, OriginalText: "exclusive", FromPos: 40, ToPos: 49},
		{ChangeType: models.ChangeInsert, Category: models.CategoryEditorial, ProposedText: ",", FromPos: 60, ToPos: 61},
	}
}

func TestResolveChange(t *testing.T) {
	base, workspaceID := setupTestBase(t)
	changes := store.NewChangeStore(base)
	ctx := context.Background()

	_, seeded := seedSessionWithChanges(t, base, workspaceID, threeChanges())

	change, sess, err := changes.ResolveChange(ctx, workspaceID, seeded[0].ID, models.UpdateChangeStatusRequest{
		Status:     models.ChangeAccepted,
		ResolvedBy: "bob",
	})
	if err != nil {
		t.Fatalf("ResolveChange: %v", err)
	}

	if change.Status != models.ChangeAccepted || change.ResolvedBy != "bob" || change.ResolvedAt == nil {
		t.Errorf("resolved change = %+v", change)
	}

	if sess.Counts.Pending != 2 || sess.Counts.Accepted != 1 || sess.Counts.Total != 3 {
		t.Errorf("counts after resolve = %+v", sess.Counts)
	}

	// Resolving the same change again is rejected.
	if _, _, err := changes.ResolveChange(ctx, workspaceID, seeded[0].ID, models.UpdateChangeStatusRequest{
		Status:     models.ChangeRejected,
		ResolvedBy: "carol",
	}); !errors.Is(err, models.ErrChangeResolved) {
		t.Errorf("second resolve: got %v, want ErrChangeResolved", err)
	}

	// The original resolution is untouched.
	got, err := changes.GetChange(ctx, workspaceID, seeded[0].ID)
	if err != nil {
		t.Fatalf("GetChange: %v", err)
	}
	if got.Status != models.ChangeAccepted || got.ResolvedBy != "bob" {
		t.Errorf("change after rejected re-resolve = %+v", got)
	}
}

func TestResolveUnknownChange(t *testing.T) {
	base, workspaceID := setupTestBase(t)
	changes := store.NewChangeStore(base)

	_, _, err := changes.ResolveChange(context.Background(), workspaceID, "chg_missing", models.UpdateChangeStatusRequest{
		Status: models.ChangeAccepted,
	})
	if !errors.Is(err, models.ErrChangeNotFound) {
		t.Errorf("got %v, want ErrChangeNotFound", err)
	}
}

func TestResolveAllPending(t *testing.T) {
	base, workspaceID := setupTestBase(t)
	changes := store.NewChangeStore(base)
	ctx := context.Background()

	sessionID, seeded := seedSessionWithChanges(t, base, workspaceID, threeChanges())

	// Resolve one change individually first; the bulk operation must
	// leave it alone.
	if _, _, err := changes.ResolveChange(ctx, workspaceID, seeded[0].ID, models.UpdateChangeStatusRequest{
		Status:     models.ChangeCountered,
		ResolvedBy: "bob",
	}); err != nil {
		t.Fatalf("single resolve: %v", err)
	}

	res, err := changes.ResolveAllPending(ctx, workspaceID, sessionID, models.ChangeAccepted, "bob")
	if err != nil {
		t.Fatalf("ResolveAllPending: %v", err)
	}

	if res.Affected != 2 {
		t.Errorf("affected = %d, want 2", res.Affected)
	}
	if res.Session.Counts.Pending != 0 || res.Session.Counts.Accepted != 2 || res.Session.Counts.Countered != 1 {
		t.Errorf("counts after bulk = %+v", res.Session.Counts)
	}
	if res.Session.Counts.Total != res.Session.Counts.Pending+res.Session.Counts.Accepted+
		res.Session.Counts.Rejected+res.Session.Counts.Countered {
		t.Errorf("count invariant violated: %+v", res.Session.Counts)
	}

	// Bulk on a fully resolved session affects nothing.
	again, err := changes.ResolveAllPending(ctx, workspaceID, sessionID, models.ChangeRejected, "bob")
	if err != nil {
		t.Fatalf("second bulk: %v", err)
	}
	if again.Affected != 0 {
		t.Errorf("second bulk affected %d changes", again.Affected)
	}
}

func TestResolveAllPendingValidation(t *testing.T) {
	base, workspaceID := setupTestBase(t)
	changes := store.NewChangeStore(base)
	ctx := context.Background()

	if _, err := changes.ResolveAllPending(ctx, workspaceID, "ses_x", models.ChangePending, "bob"); !errors.Is(err, models.ErrInvalidChangeStatus) {
		t.Errorf("pending target: got %v, want ErrInvalidChangeStatus", err)
	}

	if _, err := changes.ResolveAllPending(ctx, workspaceID, "ses_missing", models.ChangeAccepted, "bob"); !errors.Is(err, models.ErrSessionNotFound) {
		t.Errorf("unknown session: got %v, want ErrSessionNotFound", err)
	}
}

func TestListChanges(t *testing.T) {
	base, workspaceID := setupTestBase(t)
	changes := store.NewChangeStore(base)
	ctx := context.Background()

	sessionID, seeded := seedSessionWithChanges(t, base, workspaceID, threeChanges())

	all, err := changes.ListChanges(ctx, workspaceID, sessionID, models.ListChangesOpts{})
	if err != nil {
		t.Fatalf("ListChanges: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("listed %d changes, want 3", len(all))
	}

	// Ordered by document position.
	if all[0].FromPos > all[1].FromPos || all[1].FromPos > all[2].FromPos {
		t.Error("changes not ordered by from_pos")
	}

	if _, _, err := changes.ResolveChange(ctx, workspaceID, seeded[1].ID, models.UpdateChangeStatusRequest{
		Status: models.ChangeRejected,
	}); err != nil {
		t.Fatalf("resolving change: %v", err)
	}

	pending, err := changes.ListChanges(ctx, workspaceID, sessionID, models.ListChangesOpts{Status: models.ChangePending})
	if err != nil {
		t.Fatalf("ListChanges pending: %v", err)
	}
	if len(pending) != 2 {
		t.Errorf("pending filter returned %d changes, want 2", len(pending))
	}
}

func TestUpdateAnalysis(t *testing.T) {
	base, workspaceID := setupTestBase(t)
	changes := store.NewChangeStore(base)
	ctx := context.Background()

	_, seeded := seedSessionWithChanges(t, base, workspaceID, threeChanges())

	analysis := json.RawMessage(`{"summary":"extends payment terms","precedent_count":4}`)

	if err := changes.UpdateAnalysis(ctx, workspaceID, seeded[0].ID, "high", analysis); err != nil {
		t.Fatalf("UpdateAnalysis: %v", err)
	}

	got, err := changes.GetChange(ctx, workspaceID, seeded[0].ID)
	if err != nil {
		t.Fatalf("GetChange: %v", err)
	}
	if got.RiskLevel != "high" {
		t.Errorf("risk level = %q, want high", got.RiskLevel)
	}
	if got.Status != models.ChangePending {
		t.Error("analysis update touched resolution status")
	}

	if err := changes.UpdateAnalysis(ctx, workspaceID, "chg_missing", "low", nil); !errors.Is(err, models.ErrChangeNotFound) {
		t.Errorf("unknown change: got %v, want ErrChangeNotFound", err)
	}
}
