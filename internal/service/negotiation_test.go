package service

import (
	"context"
	"errors"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/parleyhq/parley/internal/models"
	"github.com/parleyhq/parley/internal/store"
)

func testLog() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.ErrorLevel)
	return log
}

func draftSession(id string) *models.NegotiationSession {
	return &models.NegotiationSession{ID: id, DocID: "doc-1", Status: models.SessionDraft}
}

func importReq(html string, proposedBy models.Proposer) models.ImportRoundRequest {
	return models.ImportRoundRequest{HTML: html, ProposedBy: proposedBy, CreatedBy: "alice"}
}

// passthroughImport simulates a successful store import, returning a
// round built from the params.
func passthroughImport(sess *models.NegotiationSession, changes []models.NegotiationChange) func(context.Context, string, string, store.ImportRoundParams, store.CompareFunc) (*models.ImportRoundResult, error) {
	return func(_ context.Context, _, sessionID string, p store.ImportRoundParams, _ store.CompareFunc) (*models.ImportRoundResult, error) {
		round := &models.NegotiationRound{
			ID:          "rnd_1",
			SessionID:   sessionID,
			RoundNumber: sess.CurrentRound + 1,
			ProposedBy:  p.Req.ProposedBy,
			SnapshotHash: p.Hash,
			VersionID:   p.VersionID,
			ChangeCount: len(changes),
		}
		return &models.ImportRoundResult{
			Round:   round,
			Changes: changes,
			Session: sess,
			Version: models.VersionOutcome{VersionID: p.VersionID},
		}, nil
	}
}

func TestImportRoundValidation(t *testing.T) {
	rounds := &mockRoundStore{}
	sessions := &mockSessionStore{}
	svc := NewRoundService(rounds, sessions, &mockComparator{}, nil, nil, nil, nil, testLog())

	_, err := svc.ImportRound(context.Background(), "ws-1", "ses_1", models.ImportRoundRequest{ProposedBy: models.ProposerInternal})
	if !errors.Is(err, models.ErrMissingHTML) {
		t.Errorf("missing html: got %v, want ErrMissingHTML", err)
	}

	_, err = svc.ImportRound(context.Background(), "ws-1", "ses_1", models.ImportRoundRequest{HTML: "<p>A</p>", ProposedBy: "someone"})
	if !errors.Is(err, models.ErrInvalidProposer) {
		t.Errorf("bad proposer: got %v, want ErrInvalidProposer", err)
	}

	if len(rounds.calls) != 0 || len(sessions.calls) != 0 {
		t.Error("validation failure touched the stores")
	}
}

func TestImportRoundTerminalSession(t *testing.T) {
	sessions := &mockSessionStore{
		getSession: func(_ context.Context, _, sessionID string) (*models.NegotiationSession, error) {
			return &models.NegotiationSession{ID: sessionID, Status: models.SessionSettled}, nil
		},
	}
	rounds := &mockRoundStore{}
	comparator := &mockComparator{}
	versions := &mockVersions{}

	svc := NewRoundService(rounds, sessions, comparator, versions, nil, nil, nil, testLog())

	_, err := svc.ImportRound(context.Background(), "ws-1", "ses_1", importReq("<p>A</p>", models.ProposerInternal))
	if !errors.Is(err, models.ErrSessionClosed) {
		t.Fatalf("got %v, want ErrSessionClosed", err)
	}

	if rounds.called("ImportRound") {
		t.Error("terminal session still reached the store import")
	}
	if comparator.extractCalls != 0 || versions.calls != 0 {
		t.Error("terminal session triggered collaborator calls")
	}
}

func TestImportRoundReplayHasNoSideEffects(t *testing.T) {
	sess := draftSession("ses_1")
	existing := &models.NegotiationRound{ID: "rnd_1", SessionID: "ses_1", RoundNumber: 1}

	sessions := &mockSessionStore{
		getSession: func(_ context.Context, _, _ string) (*models.NegotiationSession, error) { return sess, nil },
	}
	rounds := &mockRoundStore{
		getRoundByHash: func(_ context.Context, _, _, _ string) (*models.NegotiationRound, error) {
			return existing, nil
		},
		importRound: func(_ context.Context, _, _ string, p store.ImportRoundParams, _ store.CompareFunc) (*models.ImportRoundResult, error) {
			if p.VersionID != nil {
				t.Error("replay import carried a version ID")
			}
			return &models.ImportRoundResult{Round: existing, Session: sess, Replayed: true}, nil
		},
	}
	comparator := &mockComparator{}
	versions := &mockVersions{}
	audits := &mockAuditEnqueuer{}
	events := &mockPublisher{}
	analysis := &mockAnalysisEnqueuer{}

	svc := NewRoundService(rounds, sessions, comparator, versions, analysis, audits, events, testLog())

	res, err := svc.ImportRound(context.Background(), "ws-1", "ses_1", importReq("<p>A</p>", models.ProposerExternal))
	if err != nil {
		t.Fatalf("ImportRound: %v", err)
	}

	if !res.Replayed {
		t.Error("result not marked replayed")
	}
	if comparator.extractCalls != 0 {
		t.Error("replay called the text extractor")
	}
	if versions.calls != 0 {
		t.Error("replay created a version snapshot")
	}
	if len(audits.jobs) != 0 || len(events.events) != 0 || analysis.count() != 0 {
		t.Error("replay emitted post-commit side effects")
	}
}

func TestImportRoundResolvesTextViaExtractor(t *testing.T) {
	sess := draftSession("ses_1")

	var gotParams store.ImportRoundParams

	sessions := &mockSessionStore{
		getSession: func(_ context.Context, _, _ string) (*models.NegotiationSession, error) { return sess, nil },
	}
	rounds := &mockRoundStore{
		importRound: func(_ context.Context, _, sessionID string, p store.ImportRoundParams, compare store.CompareFunc) (*models.ImportRoundResult, error) {
			gotParams = p
			return passthroughImport(sess, nil)(context.Background(), "ws-1", sessionID, p, compare)
		},
	}
	comparator := &mockComparator{}

	svc := NewRoundService(rounds, sessions, comparator, nil, nil, nil, nil, testLog())

	if _, err := svc.ImportRound(context.Background(), "ws-1", "ses_1", importReq("<p>A</p>", models.ProposerInternal)); err != nil {
		t.Fatalf("ImportRound: %v", err)
	}

	if comparator.extractCalls != 1 {
		t.Errorf("extractor called %d times, want 1", comparator.extractCalls)
	}
	if gotParams.Text != "text:<p>A</p>" {
		t.Errorf("params text = %q", gotParams.Text)
	}
	if gotParams.Hash != models.ContentHash("<p>A</p>") {
		t.Errorf("params hash = %q", gotParams.Hash)
	}

	// Caller-supplied text skips the extractor.
	req := importReq("<p>B</p>", models.ProposerInternal)
	req.Text = "plain B"

	if _, err := svc.ImportRound(context.Background(), "ws-1", "ses_1", req); err != nil {
		t.Fatalf("ImportRound with text: %v", err)
	}
	if comparator.extractCalls != 1 {
		t.Error("extractor called despite caller-supplied text")
	}
	if gotParams.Text != "plain B" {
		t.Errorf("params text = %q, want caller text", gotParams.Text)
	}
}

func TestImportRoundExtractorFailureAborts(t *testing.T) {
	sess := draftSession("ses_1")

	sessions := &mockSessionStore{
		getSession: func(_ context.Context, _, _ string) (*models.NegotiationSession, error) { return sess, nil },
	}
	rounds := &mockRoundStore{}
	comparator := &mockComparator{
		extract: func(_ context.Context, _ string) (string, error) {
			return "", errors.New("extractor down")
		},
	}

	svc := NewRoundService(rounds, sessions, comparator, nil, nil, nil, nil, testLog())

	if _, err := svc.ImportRound(context.Background(), "ws-1", "ses_1", importReq("<p>A</p>", models.ProposerInternal)); err == nil {
		t.Fatal("expected extractor failure to abort the import")
	}

	if rounds.called("ImportRound") {
		t.Error("import reached the store after extractor failure")
	}
}

func TestImportRoundVersionFailureRecovered(t *testing.T) {
	sess := draftSession("ses_1")

	sessions := &mockSessionStore{
		getSession: func(_ context.Context, _, _ string) (*models.NegotiationSession, error) { return sess, nil },
	}
	rounds := &mockRoundStore{
		importRound: passthroughImport(sess, nil),
	}
	versions := &mockVersions{
		create: func(_ context.Context, _, _ string, _ int, _, _ string) (string, error) {
			return "", errors.New("version service down")
		},
	}

	svc := NewRoundService(rounds, sessions, &mockComparator{}, versions, nil, nil, nil, testLog())

	res, err := svc.ImportRound(context.Background(), "ws-1", "ses_1", importReq("<p>A</p>", models.ProposerInternal))
	if err != nil {
		t.Fatalf("ImportRound: %v", err)
	}

	if !res.Version.Recovered {
		t.Error("version outcome not marked recovered")
	}
	if res.Version.VersionID != nil {
		t.Error("failed snapshot produced a version ID")
	}
	if res.Version.Reason == "" {
		t.Error("recovered outcome missing a reason")
	}
	if res.Round.VersionID != nil {
		t.Error("round linked to a version despite snapshot failure")
	}
}

func TestImportRoundVersionSuccess(t *testing.T) {
	sess := draftSession("ses_1")
	sess.CurrentRound = 2

	sessions := &mockSessionStore{
		getSession: func(_ context.Context, _, _ string) (*models.NegotiationSession, error) { return sess, nil },
	}
	rounds := &mockRoundStore{
		importRound: passthroughImport(sess, nil),
	}

	var gotRoundNumber int

	versions := &mockVersions{
		create: func(_ context.Context, docID, sessionID string, roundNumber int, _, _ string) (string, error) {
			if docID != "doc-1" || sessionID != "ses_1" {
				t.Errorf("snapshot for %s/%s", docID, sessionID)
			}
			gotRoundNumber = roundNumber
			return "ver_42", nil
		},
	}

	svc := NewRoundService(rounds, sessions, &mockComparator{}, versions, nil, nil, nil, testLog())

	res, err := svc.ImportRound(context.Background(), "ws-1", "ses_1", importReq("<p>C</p>", models.ProposerInternal))
	if err != nil {
		t.Fatalf("ImportRound: %v", err)
	}

	if gotRoundNumber != 3 {
		t.Errorf("snapshot round number = %d, want 3", gotRoundNumber)
	}
	if res.Version.VersionID == nil || *res.Version.VersionID != "ver_42" {
		t.Errorf("version outcome = %+v", res.Version)
	}
	if res.Round.VersionID == nil || *res.Round.VersionID != "ver_42" {
		t.Errorf("round version = %v", res.Round.VersionID)
	}
}

func TestImportRoundComparatorWiring(t *testing.T) {
	sess := draftSession("ses_1")
	sess.CurrentRound = 1

	prev := &models.NegotiationRound{
		ID: "rnd_1", SessionID: "ses_1", RoundNumber: 1,
		SnapshotHTML: "<p>A</p>", SnapshotText: "A",
	}

	detected := []models.DetectedChange{{ChangeType: models.ChangeReplace, Category: models.CategorySubstantive}}

	sessions := &mockSessionStore{
		getSession: func(_ context.Context, _, _ string) (*models.NegotiationSession, error) { return sess, nil },
	}
	rounds := &mockRoundStore{
		// Exercise the compare callback the way the real store does.
		importRound: func(ctx context.Context, _, _ string, p store.ImportRoundParams, compare store.CompareFunc) (*models.ImportRoundResult, error) {
			got, err := compare(ctx, prev)
			if err != nil {
				return nil, err
			}
			if len(got) != 1 {
				t.Errorf("compare returned %d changes, want 1", len(got))
			}
			return &models.ImportRoundResult{
				Round:   &models.NegotiationRound{ID: "rnd_2", SessionID: "ses_1", RoundNumber: 2, ChangeCount: len(got)},
				Changes: []models.NegotiationChange{{ID: "chg_1", SessionID: "ses_1", RoundID: "rnd_2", Status: models.ChangePending}},
				Session: sess,
			}, nil
		},
	}
	comparator := &mockComparator{
		compare: func(_ context.Context, prevHTML, prevText, curHTML, curText string) ([]models.DetectedChange, error) {
			if prevHTML != "<p>A</p>" || prevText != "A" {
				t.Errorf("comparator previous = %q/%q", prevHTML, prevText)
			}
			if curHTML != "<p>B</p>" || curText != "plain B" {
				t.Errorf("comparator current = %q/%q", curHTML, curText)
			}
			return detected, nil
		},
	}

	analysis := &mockAnalysisEnqueuer{}
	audits := &mockAuditEnqueuer{}
	events := &mockPublisher{}

	svc := NewRoundService(rounds, sessions, comparator, nil, analysis, audits, events, testLog())

	req := importReq("<p>B</p>", models.ProposerExternal)
	req.Text = "plain B"

	if _, err := svc.ImportRound(context.Background(), "ws-1", "ses_1", req); err != nil {
		t.Fatalf("ImportRound: %v", err)
	}

	if comparator.compareCalls != 1 {
		t.Errorf("comparator called %d times, want 1", comparator.compareCalls)
	}

	// Post-commit fan-out.
	if got := audits.actions(); len(got) != 1 || got[0] != "round.import" {
		t.Errorf("audit actions = %v", got)
	}
	if !events.published(EventRoundImported) || !events.published(EventSessionUpdated) {
		t.Errorf("events = %v", events.events)
	}
	if analysis.count() != 1 {
		t.Errorf("analysis jobs = %d, want 1", analysis.count())
	}
}

func TestImportRoundComparatorFailure(t *testing.T) {
	sess := draftSession("ses_1")
	sess.CurrentRound = 1

	sessions := &mockSessionStore{
		getSession: func(_ context.Context, _, _ string) (*models.NegotiationSession, error) { return sess, nil },
	}
	rounds := &mockRoundStore{
		importRound: func(ctx context.Context, _, _ string, _ store.ImportRoundParams, compare store.CompareFunc) (*models.ImportRoundResult, error) {
			_, err := compare(ctx, &models.NegotiationRound{RoundNumber: 1})
			return nil, err
		},
	}
	comparator := &mockComparator{
		compare: func(_ context.Context, _, _, _, _ string) ([]models.DetectedChange, error) {
			return nil, errors.New("comparator down")
		},
	}
	audits := &mockAuditEnqueuer{}
	events := &mockPublisher{}

	svc := NewRoundService(rounds, sessions, comparator, nil, nil, audits, events, testLog())

	req := importReq("<p>B</p>", models.ProposerExternal)
	req.Text = "plain B"

	if _, err := svc.ImportRound(context.Background(), "ws-1", "ses_1", req); err == nil {
		t.Fatal("expected comparator failure to fail the import")
	}

	if len(audits.jobs) != 0 || len(events.events) != 0 {
		t.Error("failed import emitted side effects")
	}
}
