package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ganot/agentic-te/internal/fixtures"
	"github.com/stretchr/testify/require"
)

// NewTestDB creates a new in-memory SQLite database for testing
func NewTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := Open(":memory:")
	require.NoError(t, err, "failed to create test database")

	t.Cleanup(func() {
		db.Close()
	})

	return db
}

// newSeededRepo returns a repository holding the embedded fixtures.
func newSeededRepo(t *testing.T) (*FixtureRepository, *fixtures.Set) {
	t.Helper()
	db := NewTestDB(t)
	set, err := fixtures.Embedded()
	require.NoError(t, err)
	repo := NewFixtureRepository(db)
	require.NoError(t, repo.Seed(context.Background(), set))
	return repo, set
}

// TestMigrations verifies that migrations run successfully
func TestMigrations(t *testing.T) {
	db := NewTestDB(t)

	tables := []string{
		"fixtures",
		"transactions",
		"fixtures_fts",
		"run_log",
	}

	for _, table := range tables {
		var count int
		err := db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&count)
		require.NoError(t, err, "failed to query table %s", table)
		require.Equal(t, 1, count, "table %s not found", table)
	}

	version, err := db.SchemaVersion(context.Background())
	require.NoError(t, err)
	require.Equal(t, int64(2), version)

	// Applying again is a no-op.
	require.NoError(t, db.RunMigrations())
}

func TestTransactionStatusCheck(t *testing.T) {
	db := NewTestDB(t)
	_, err := db.Exec(`INSERT INTO transactions (id, user_id, merchant, amount, date, category, status)
		VALUES ('t1', 'u1', 'm', 1, '2026-01-01', 'meals', 'lost')`)
	require.Error(t, err)
}

func TestRetryWithBackoff(t *testing.T) {
	calls := 0
	err := RetryWithBackoff(context.Background(), func() error {
		calls++
		if calls < 3 {
			return errors.New("database is locked (5) (SQLITE_BUSY)")
		}
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, 3, calls)

	calls = 0
	permanent := errors.New("UNIQUE constraint failed: run_log.run_id")
	err = RetryWithBackoff(context.Background(), func() error {
		calls++
		return permanent
	})
	require.ErrorIs(t, err, permanent)
	require.Equal(t, 1, calls)
}

func TestRetryWithBackoff_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	start := time.Now()
	err := RetryWithBackoff(ctx, func() error {
		calls++
		return errors.New("database is locked (5) (SQLITE_BUSY)")
	})
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, 1, calls)
	require.Less(t, time.Since(start), time.Second)
}

func TestUniqueViolationFromDriver(t *testing.T) {
	db := NewTestDB(t)
	insert := `INSERT INTO run_log (tenant_id, session_id, run_id, scenario, params, steps, duration_ms, started_at)
		VALUES ('t', 's', 'r1', 'fraud-check', '{}', 1, 0, '2026-01-01T00:00:00Z')`
	_, err := db.Exec(insert)
	require.NoError(t, err)

	_, err = db.Exec(insert)
	require.Error(t, err)
	require.True(t, isUniqueViolation(err))
	require.False(t, isBusy(err))
}
