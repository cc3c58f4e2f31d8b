// Package store provides focused, single-concern data access stores
// for the Parley negotiation engine.
//
// Each store owns one domain (sessions, rounds, changes, audit) and
// embeds shared helpers (Pool, crypto, logger) via the Base struct.
// Stores never import each other. Shared logic lives in this file or
// in dedicated helper files (scan.go, encrypt.go).
package store

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sirupsen/logrus"

	"github.com/parleyhq/parley/internal/crypto"
	"github.com/parleyhq/parley/internal/dbpool"
	"github.com/parleyhq/parley/internal/models"
)

const defaultQueryTimeout = 30 * time.Second

// importTimeout bounds a round import transaction. Longer than the
// default because the transaction spans the redline comparison call.
const importTimeout = 90 * time.Second

// Base contains shared dependencies for all stores.
// Embed this in each store struct.
type Base struct {
	Pool   *dbpool.Pool
	Log    *logrus.Logger
	Crypto *crypto.Service
}

// querier is the read surface shared by pgx.Tx and the pool, for
// helpers that run both inside and outside a transaction.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// withTimeout creates a context with the default query timeout.
func withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, defaultQueryTimeout)
}

// newID returns a prefixed, collision-free identifier for a new row.
func newID(prefix string) string {
	return prefix + "_" + uuid.NewString()
}

// lockSession serializes writers on one session for the duration of the
// transaction. Round numbering and counter recomputation both rely on
// this lock being held.
func lockSession(ctx context.Context, tx pgx.Tx, sessionID string) error {
	_, err := tx.Exec(ctx, "SELECT pg_advisory_xact_lock(hashtextextended($1, 0))", sessionID)
	if err != nil {
		return fmt.Errorf("locking session %s: %w", sessionID, err)
	}

	return nil
}

// isUniqueViolation reports whether err is a PostgreSQL unique
// constraint violation (SQLSTATE 23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError

	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// syncSessionCounts recomputes a session's aggregate change counters
// from the change table and bumps updated_at. Counters are never
// incremented in place, so a crash between writes can only leave them
// stale until the next recomputation, never wrong after one.
func syncSessionCounts(ctx context.Context, tx pgx.Tx, sessionID string) error {
	_, err := tx.Exec(ctx, `
		UPDATE negotiation_sessions s SET
			total_changes     = c.total,
			pending_changes   = c.pending,
			accepted_changes  = c.accepted,
			rejected_changes  = c.rejected,
			countered_changes = c.countered,
			updated_at        = NOW()
		FROM (
			SELECT
				COUNT(*)                                        AS total,
				COUNT(*) FILTER (WHERE status = 'pending')      AS pending,
				COUNT(*) FILTER (WHERE status = 'accepted')     AS accepted,
				COUNT(*) FILTER (WHERE status = 'rejected')     AS rejected,
				COUNT(*) FILTER (WHERE status = 'countered')    AS countered
			FROM negotiation_changes
			WHERE session_id = $1
		) c
		WHERE s.id = $1`, sessionID)
	if err != nil {
		return fmt.Errorf("syncing session counters: %w", err)
	}

	return nil
}

// GetWorkspaceByAPIKey looks up a workspace ID by API key hash.
func (b *Base) GetWorkspaceByAPIKey(ctx context.Context, apiKey string) (string, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	hash := sha256.Sum256([]byte(apiKey))
	apiKeyHash := hex.EncodeToString(hash[:])

	var workspaceID string

	err := b.Pool.QueryRow(ctx, "SELECT id FROM workspaces WHERE api_key_hash = $1", apiKeyHash).Scan(&workspaceID)
	if err != nil {
		return "", fmt.Errorf("looking up workspace by API key: %w", err)
	}

	return workspaceID, nil
}

// CreateWorkspace inserts a workspace and stores the SHA-256 hash of its
// API key. Used by the bootstrap CLI, not exposed over HTTP.
func (b *Base) CreateWorkspace(ctx context.Context, name, apiKey string) (string, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	hash := sha256.Sum256([]byte(apiKey))
	apiKeyHash := hex.EncodeToString(hash[:])

	var workspaceID string

	err := b.Pool.QueryRow(ctx,
		"INSERT INTO workspaces (name, api_key_hash) VALUES ($1, $2) RETURNING id",
		name, apiKeyHash).Scan(&workspaceID)
	if err != nil {
		if isUniqueViolation(err) {
			return "", models.ErrDuplicateKey
		}

		return "", fmt.Errorf("creating workspace: %w", err)
	}

	return workspaceID, nil
}
