package service

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/parleyhq/parley/internal/domain"
	"github.com/parleyhq/parley/internal/metrics"
	"github.com/parleyhq/parley/internal/models"
	"github.com/parleyhq/parley/internal/store"
)

// Compile-time check: *RoundService must satisfy domain.RoundService.
var _ domain.RoundService = (*RoundService)(nil)

// RoundStore is the data-access interface RoundService depends on.
type RoundStore interface {
	ImportRound(ctx context.Context, workspaceID, sessionID string, p store.ImportRoundParams, compare store.CompareFunc) (*models.ImportRoundResult, error)
	GetRound(ctx context.Context, workspaceID, sessionID, roundID string) (*models.NegotiationRound, error)
	GetRoundByHash(ctx context.Context, workspaceID, sessionID, hash string) (*models.NegotiationRound, error)
	ListRounds(ctx context.Context, workspaceID, sessionID string) ([]models.NegotiationRound, error)
}

// SessionReader loads sessions for pre-flight checks.
type SessionReader interface {
	GetSession(ctx context.Context, workspaceID, sessionID string) (*models.NegotiationSession, error)
}

// RedlineComparator is the comparator contract the import pipeline
// depends on: diffing two snapshots and deriving plain text from HTML.
type RedlineComparator interface {
	Compare(ctx context.Context, previousHTML, previousText, currentHTML, currentText string) ([]models.DetectedChange, error)
	ExtractText(ctx context.Context, html string) (string, error)
}

// VersionSnapshotter records imported rounds in the platform's document
// version history. Best-effort; failures never abort an import.
type VersionSnapshotter interface {
	CreateSnapshot(ctx context.Context, docID, sessionID string, roundNumber int, html, createdBy string) (string, error)
}

// AnalysisEnqueuer enqueues AI analysis jobs for detected changes.
type AnalysisEnqueuer interface {
	Enqueue(job AnalysisJob)
}

// RoundService orchestrates the round import pipeline: text resolution,
// content-addressed idempotency, the best-effort version snapshot, the
// atomic store import with redline comparison, and post-commit fan-out
// (audit, live events, analysis enrichment).
type RoundService struct {
	rounds         RoundStore
	sessions       SessionReader
	redline        RedlineComparator
	versions       VersionSnapshotter
	analysisWorker AnalysisEnqueuer
	auditWorker    AuditEnqueuer
	events         EventPublisher
	log            *logrus.Logger
}

// NewRoundService creates a RoundService. versions and the workers may
// be nil to disable the corresponding side channel.
func NewRoundService(
	rounds RoundStore,
	sessions SessionReader,
	redline RedlineComparator,
	versions VersionSnapshotter,
	analysisWorker AnalysisEnqueuer,
	auditWorker AuditEnqueuer,
	events EventPublisher,
	log *logrus.Logger,
) *RoundService {
	return &RoundService{
		rounds:         rounds,
		sessions:       sessions,
		redline:        redline,
		versions:       versions,
		analysisWorker: analysisWorker,
		auditWorker:    auditWorker,
		events:         events,
		log:            log,
	}
}

// ImportRound imports a draft as the session's next negotiation round.
//
// Importing the same content twice is a no-op returning the original
// round. A comparator failure aborts the import with nothing persisted.
// Only the version snapshot step may fail without aborting; its outcome
// is reported in the result.
func (s *RoundService) ImportRound(
	ctx context.Context,
	workspaceID, sessionID string,
	req models.ImportRoundRequest,
) (*models.ImportRoundResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	hash := models.ContentHash(req.HTML)

	// Pre-flight session load: fail before calling any collaborator
	// when the session is missing or closed. The store re-checks both
	// under the session lock.
	sess, err := s.sessions.GetSession(ctx, workspaceID, sessionID)
	if err != nil {
		return nil, err
	}

	if sess.Status.IsTerminal() {
		metrics.RoundsImported.WithLabelValues("failed").Inc()
		return nil, models.ErrSessionClosed
	}

	// Replay pre-check: a known hash short-circuits before the text
	// extractor and version snapshot run, so replays stay side-effect
	// free.
	replayed := false

	if existing, err := s.rounds.GetRoundByHash(ctx, workspaceID, sessionID, hash); err != nil {
		return nil, err
	} else if existing != nil {
		replayed = true
	}

	text := req.Text
	version := models.VersionOutcome{}

	if !replayed {
		if text == "" {
			text, err = s.redline.ExtractText(ctx, req.HTML)
			if err != nil {
				metrics.RoundsImported.WithLabelValues("failed").Inc()
				return nil, err
			}
		}

		version = s.snapshotVersion(ctx, workspaceID, sess, req)
	}

	compare := func(ctx context.Context, prev *models.NegotiationRound) ([]models.DetectedChange, error) {
		start := time.Now()

		detected, err := s.redline.Compare(ctx, prev.SnapshotHTML, prev.SnapshotText, req.HTML, text)

		metrics.ComparatorDuration.Observe(time.Since(start).Seconds())

		if err != nil {
			return nil, err
		}

		metrics.ChangesDetected.Add(float64(len(detected)))

		return detected, nil
	}

	result, err := s.rounds.ImportRound(ctx, workspaceID, sessionID, store.ImportRoundParams{
		Req:       req,
		Text:      text,
		Hash:      hash,
		VersionID: version.VersionID,
	}, compare)
	if err != nil {
		metrics.RoundsImported.WithLabelValues("failed").Inc()
		return nil, err
	}

	if result.Replayed {
		metrics.RoundsImported.WithLabelValues("replayed").Inc()
		return result, nil
	}

	result.Version = version

	metrics.RoundsImported.WithLabelValues("created").Inc()

	s.fanOut(workspaceID, req, result)

	return result, nil
}

// snapshotVersion performs the best-effort version history snapshot.
// The returned outcome records a failure without propagating it.
func (s *RoundService) snapshotVersion(
	ctx context.Context,
	workspaceID string,
	sess *models.NegotiationSession,
	req models.ImportRoundRequest,
) models.VersionOutcome {
	if s.versions == nil {
		return models.VersionOutcome{}
	}

	versionID, err := s.versions.CreateSnapshot(ctx, sess.DocID, sess.ID, sess.CurrentRound+1, req.HTML, req.CreatedBy)
	if err != nil {
		s.log.WithError(err).WithFields(logrus.Fields{
			"session_id": sess.ID,
			"doc_id":     sess.DocID,
		}).Warn("version snapshot failed, importing without version link")

		return models.VersionOutcome{Recovered: true, Reason: err.Error()}
	}

	return models.VersionOutcome{VersionID: &versionID}
}

// fanOut emits the post-commit side effects of a fresh import.
func (s *RoundService) fanOut(workspaceID string, req models.ImportRoundRequest, result *models.ImportRoundResult) {
	auditAsync(s.auditWorker, workspaceID, "round.import", "round", result.Round.ID, req.CreatedBy,
		map[string]any{
			"session_id":   result.Round.SessionID,
			"round_number": result.Round.RoundNumber,
			"round_type":   string(result.Round.RoundType),
			"proposed_by":  string(result.Round.ProposedBy),
			"change_count": result.Round.ChangeCount,
		})

	publishAsync(s.events, workspaceID, EventRoundImported, map[string]any{
		"session_id":   result.Round.SessionID,
		"round_id":     result.Round.ID,
		"round_number": result.Round.RoundNumber,
		"change_count": result.Round.ChangeCount,
	})
	publishAsync(s.events, workspaceID, EventSessionUpdated, result.Session)

	if s.analysisWorker != nil {
		for _, change := range result.Changes {
			s.analysisWorker.Enqueue(AnalysisJob{WorkspaceID: workspaceID, Change: change})
		}
	}
}

// GetRound returns a round with its snapshot bodies (pass-through).
func (s *RoundService) GetRound(ctx context.Context, workspaceID, sessionID, roundID string) (*models.NegotiationRound, error) {
	return s.rounds.GetRound(ctx, workspaceID, sessionID, roundID)
}

// ListRounds returns a session's rounds without snapshot bodies
// (pass-through).
func (s *RoundService) ListRounds(ctx context.Context, workspaceID, sessionID string) ([]models.NegotiationRound, error) {
	return s.rounds.ListRounds(ctx, workspaceID, sessionID)
}
