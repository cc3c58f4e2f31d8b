package store_test

import (
	"context"
	"os"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/parleyhq/parley/internal/crypto"
	"github.com/parleyhq/parley/internal/dbpool"
	"github.com/parleyhq/parley/internal/store"
)

// testHexKey is a valid 64-char hex string (32 bytes) for test encryption.
const testHexKey = "0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef"

// testEnv holds shared test infrastructure (single pool across all tests).
type testEnv struct {
	pool *dbpool.Pool
	log  *logrus.Logger
}

var sharedEnv *testEnv

func getTestEnv(t *testing.T) *testEnv {
	t.Helper()

	if sharedEnv != nil {
		return sharedEnv
	}

	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx := context.Background()

	pool, err := dbpool.NewPool(ctx, dbURL)
	if err != nil {
		t.Fatalf("connecting to test DB: %v", err)
	}

	log := logrus.New()
	log.SetLevel(logrus.ErrorLevel)

	sharedEnv = &testEnv{
		pool: pool,
		log:  log,
	}

	return sharedEnv
}

// newCryptoService creates a fresh crypto.Service (StaticProvider locks to
// the first workspace it sees).
func newCryptoService(t *testing.T) *crypto.Service {
	t.Helper()

	provider, err := crypto.NewStaticProvider(testHexKey)
	if err != nil {
		t.Fatalf("creating static provider: %v", err)
	}

	return crypto.NewService(provider)
}

// setupTestBase creates a Base with a fresh test workspace, cleaned up
// after the test.
func setupTestBase(t *testing.T) (_ store.Base, _ string) {
	t.Helper()

	env := getTestEnv(t)
	ctx := context.Background()

	base := store.Base{Pool: env.pool, Log: env.log, Crypto: newCryptoService(t)}

	workspaceID, err := base.CreateWorkspace(ctx, "test-workspace", "test-key-"+t.Name())
	if err != nil {
		t.Fatalf("creating test workspace: %v", err)
	}

	t.Cleanup(func() {
		cleanCtx := context.Background()
		// Delete in dependency order: audit, changes, rounds, sessions, workspace.
		env.pool.Exec(cleanCtx, "DELETE FROM negotiation_audit_log WHERE workspace_id = $1", workspaceID) //nolint:errcheck // best-effort cleanup
		env.pool.Exec(cleanCtx, "DELETE FROM negotiation_changes WHERE workspace_id = $1", workspaceID)   //nolint:errcheck // best-effort cleanup
		env.pool.Exec(cleanCtx, "DELETE FROM negotiation_rounds WHERE workspace_id = $1", workspaceID)    //nolint:errcheck // best-effort cleanup
		env.pool.Exec(cleanCtx, "DELETE FROM negotiation_sessions WHERE workspace_id = $1", workspaceID)  //nolint:errcheck // best-effort cleanup
		env.pool.Exec(cleanCtx, "DELETE FROM workspaces WHERE id = $1", workspaceID)                      //nolint:errcheck // best-effort cleanup
	})

	return base, workspaceID
}
