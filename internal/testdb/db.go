package testdb

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // pgx driver
	"github.com/phrazzld/shop-api/internal/platform/postgres"
	"github.com/phrazzld/shop-api/internal/redact"
	"github.com/stretchr/testify/require"
)

// TestTimeout bounds setup queries issued by this package.
const TestTimeout = 10 * time.Second

// ledgerTables lists tables truncated by ResetTables, children first.
var ledgerTables = []string{"outbox", "sales", "products", "accounts"}

var migrateOnce sync.Once
var migrateErr error

// GetTestDBWithT opens a connection to the test database and applies the
// migrations once per process. The test is skipped when no URL is set.
// The connection is closed when the test finishes.
func GetTestDBWithT(t *testing.T) *sql.DB {
	t.Helper()

	if ShouldSkipDatabaseTest() {
		t.Skip("no test database configured, set " + strings.Join(databaseURLVars, " or "))
	}

	db, err := sql.Open("pgx", GetTestDatabaseURL())
	require.NoError(t, err, "failed to open test database")
	db.SetMaxOpenConns(20)

	ctx, cancel := context.WithTimeout(context.Background(), TestTimeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		t.Fatalf("failed to ping test database: %s", redact.Error(err))
	}

	migrateOnce.Do(func() {
		migrateErr = postgres.Migrate(ctx, db, "up", nil)
	})
	require.NoError(t, migrateErr, "failed to migrate test database")

	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Logf("warning: failed to close test database: %v", err)
		}
	})
	return db
}

// WithTx runs fn inside a transaction that is rolled back afterwards, even
// when fn fails the test.
func WithTx(t *testing.T, db *sql.DB, fn func(t *testing.T, tx *sql.Tx)) {
	t.Helper()

	tx, err := db.Begin()
	require.NoError(t, err, "failed to begin transaction")

	defer func() {
		// sql.ErrTxDone is expected if fn committed or rolled back itself
		if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			t.Logf("warning: failed to roll back transaction: %v", err)
		}
	}()

	fn(t, tx)
}

// ResetTables empties every ledger table. Tests that commit data call it
// before running and register it for cleanup, and must not run in parallel
// with other database tests.
func ResetTables(t *testing.T, db *sql.DB) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), TestTimeout)
	defer cancel()

	_, err := db.ExecContext(ctx, "TRUNCATE "+strings.Join(ledgerTables, ", ")+" CASCADE")
	require.NoError(t, err, "failed to truncate ledger tables")
}
