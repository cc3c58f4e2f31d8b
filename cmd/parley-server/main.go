// Package main is the entry point for the Parley negotiation engine server.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/parleyhq/parley/internal/api"
	"github.com/parleyhq/parley/internal/config"
	"github.com/parleyhq/parley/internal/crypto"
	"github.com/parleyhq/parley/internal/db"
	"github.com/parleyhq/parley/internal/db/migrations"
	"github.com/parleyhq/parley/internal/dbpool"
	"github.com/parleyhq/parley/internal/service"
	"github.com/parleyhq/parley/internal/store"
	"github.com/parleyhq/parley/internal/ws"
)

// commit is set at build time via ldflags; config.Version carries the
// release tag.
var commit = ""

const (
	auditQueueSize    = 1000
	analysisQueueSize = 1000
	shutdownTimeout   = 10 * time.Second
)

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})

	if err := run(log); err != nil {
		log.WithError(err).Fatal("server exited with error")
	}
}

func run(log *logrus.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(level)
	} else {
		log.WithField("level", cfg.LogLevel).Warn("unknown log level, using info")
	}

	log.WithFields(logrus.Fields{
		"version": versionString(),
		"addr":    cfg.Addr(),
	}).Info("starting parley server")

	pool, err := dbpool.NewPool(ctx, cfg.DatabaseURL.Value())
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer pool.Close()

	if err := db.RunMigrations(ctx, pool, log, migrations.FS); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	keys, err := newKeyProvider(cfg)
	if err != nil {
		return fmt.Errorf("initializing encryption: %w", err)
	}

	base := store.Base{Pool: pool, Log: log, Crypto: crypto.NewService(keys)}
	sessionStore := store.NewSessionStore(base)
	roundStore := store.NewRoundStore(base)
	changeStore := store.NewChangeStore(base)
	auditStore := store.NewAuditStore(base)
	statsStore := store.NewStatsStore(base)

	hub := ws.NewHub(log)
	go hub.Run(ctx)

	auditSvc := service.NewAuditService(auditStore, log)
	auditWorker := service.NewAuditWorker(auditSvc, log, auditQueueSize)

	// Workers drain after the signal context is cancelled, so they get
	// their own wait group rather than the server shutdown timeout.
	var workers sync.WaitGroup
	workers.Add(1)
	go func() {
		defer workers.Done()
		auditWorker.Run(ctx)
	}()

	// The analyzer is optional. Without it changes are stored with no
	// risk level and no enrichment jobs are queued.
	var analysis service.AnalysisEnqueuer
	if cfg.AnalyzerURL != "" {
		analyzer := service.NewAnalyzerClient(cfg.AnalyzerURL)
		analysisWorker := service.NewAnalysisWorker(analyzer, changeStore, log, analysisQueueSize, cfg.AnalysisWorkers)
		analysis = analysisWorker
		workers.Add(1)
		go func() {
			defer workers.Done()
			analysisWorker.Run(ctx)
		}()
		log.WithField("url", cfg.AnalyzerURL).Info("change analyzer enabled")
	}

	// The version bridge is optional. Without it imports succeed with a
	// recovered snapshot outcome.
	var versions service.VersionSnapshotter
	if cfg.VersionsURL != "" {
		versions = service.NewVersionClient(cfg.VersionsURL)
		log.WithField("url", cfg.VersionsURL).Info("version bridge enabled")
	}

	redline := service.NewRedlineClient(cfg.ComparatorURL)

	sessions := service.NewSessionService(sessionStore, auditWorker, hub, log)
	rounds := service.NewRoundService(roundStore, sessionStore, redline, versions, analysis, auditWorker, hub, log)
	changes := service.NewChangeService(changeStore, auditWorker, hub, log)
	stats := service.NewStatsService(statsStore)

	router := api.NewRouter(ctx, &api.RouterDeps{
		Log:             log,
		Pool:            pool,
		Hub:             hub,
		Sessions:        sessions,
		Rounds:          rounds,
		Changes:         changes,
		Audit:           auditSvc,
		Stats:           stats,
		WorkspaceLookup: &base,
		CORSOrigins:     cfg.CORSOrigins,
		Version:         versionString(),
		ComparatorURL:   cfg.ComparatorURL,
	})

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("http shutdown did not complete cleanly")
	}

	hub.Shutdown()
	workers.Wait()

	log.Info("shutdown complete")
	return nil
}

// newKeyProvider selects the encryption key source from configuration.
func newKeyProvider(cfg *config.Config) (crypto.KeyProvider, error) {
	switch cfg.EncryptionProvider {
	case "vault":
		return crypto.NewVaultProvider(cfg.VaultAddr, cfg.VaultToken.Value()), nil
	default:
		return crypto.NewStaticProvider(cfg.EncryptionKey.Value())
	}
}

func versionString() string {
	if commit != "" {
		return fmt.Sprintf("%s (%s)", config.Version, commit)
	}
	return config.Version
}
