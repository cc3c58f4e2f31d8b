package service

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/parleyhq/parley/internal/metrics"
	"github.com/parleyhq/parley/internal/models"
)

// AnalysisJob requests AI enrichment for one detected change.
type AnalysisJob struct {
	WorkspaceID string
	Change      models.NegotiationChange
}

// ChangeAnalyzer produces an analysis for one change.
type ChangeAnalyzer interface {
	Analyze(ctx context.Context, change models.NegotiationChange) (*models.ChangeAnalysis, error)
}

// AnalysisUpdater stores analyzer output on a change.
type AnalysisUpdater interface {
	UpdateAnalysis(ctx context.Context, workspaceID, changeID, riskLevel string, analysis json.RawMessage) error
}

// AnalysisWorker processes analysis jobs asynchronously with retry.
// Enrichment is decoupled from the import transaction: an analyzer
// outage delays risk levels but never blocks or fails an import.
type AnalysisWorker struct {
	analyzer    ChangeAnalyzer
	repo        AnalysisUpdater
	log         *logrus.Logger
	jobs        chan AnalysisJob
	concurrency int
}

// NewAnalysisWorker creates a worker with the given queue capacity and
// concurrency.
func NewAnalysisWorker(analyzer ChangeAnalyzer, repo AnalysisUpdater, log *logrus.Logger, queueSize, concurrency int) *AnalysisWorker {
	if queueSize <= 0 {
		queueSize = 1000
	}
	if concurrency <= 0 {
		concurrency = 4
	}

	return &AnalysisWorker{
		analyzer:    analyzer,
		repo:        repo,
		log:         log,
		jobs:        make(chan AnalysisJob, queueSize),
		concurrency: concurrency,
	}
}

// Enqueue adds an analysis job. Non-blocking; drops the job if the
// queue is full.
func (w *AnalysisWorker) Enqueue(job AnalysisJob) {
	select {
	case w.jobs <- job:
		metrics.AnalysisQueueDepth.Set(float64(len(w.jobs)))
	default:
		w.log.WithField("change_id", job.Change.ID).Warn("analysis queue full, dropping job")
	}
}

// Run spawns N worker goroutines and blocks until the context is
// cancelled and all workers have drained. Call in a goroutine.
func (w *AnalysisWorker) Run(ctx context.Context) {
	var wg sync.WaitGroup

	w.log.WithField("concurrency", w.concurrency).Info("starting analysis workers")

	for i := 0; i < w.concurrency; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			w.runWorker(ctx, id)
		}(i)
	}

	wg.Wait()
	w.log.Info("all analysis workers stopped")
}

func (w *AnalysisWorker) runWorker(ctx context.Context, id int) {
	w.log.WithField("worker_id", id).Debug("analysis worker started")
	for {
		select {
		case <-ctx.Done():
			return
		case job := <-w.jobs:
			metrics.AnalysisQueueDepth.Set(float64(len(w.jobs)))
			w.processWithRetry(ctx, job)
		}
	}
}

const (
	maxAnalysisRetries = 3
	baseRetryDelay     = 2 * time.Second
)

func (w *AnalysisWorker) processWithRetry(ctx context.Context, job AnalysisJob) {
	for attempt := 0; attempt < maxAnalysisRetries; attempt++ {
		if ctx.Err() != nil {
			return
		}

		analysis, err := w.analyzer.Analyze(ctx, job.Change)
		if err != nil {
			w.log.WithError(err).WithFields(logrus.Fields{
				"change_id": job.Change.ID,
				"attempt":   attempt + 1,
			}).Warn("change analysis failed")

			if attempt < maxAnalysisRetries-1 {
				delay := baseRetryDelay * (1 << attempt) // exponential backoff
				select {
				case <-ctx.Done():
					return
				case <-time.After(delay):
				}
			}

			continue
		}

		if err := w.repo.UpdateAnalysis(ctx, job.WorkspaceID, job.Change.ID, analysis.RiskLevel, analysis.Analysis); err != nil {
			w.log.WithError(err).WithField("change_id", job.Change.ID).Error("storing change analysis")
		} else {
			w.log.WithField("change_id", job.Change.ID).Debug("change analysis stored")
		}

		return
	}

	w.log.WithField("change_id", job.Change.ID).Error("change analysis failed after all retries")
}
