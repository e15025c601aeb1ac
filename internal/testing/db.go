// Package testing provides testing utilities and helpers for the compass project.
package testing

import (
	"os"
	"testing"

	"github.com/hartfield/compass/internal/database"
)

// NewTestDB creates a file-backed observations database for testing with the
// schema applied. Returns the database instance and a cleanup function that
// closes the connection. The cleanup function is idempotent and can be
// called multiple times safely.
func NewTestDB(t *testing.T) (*database.DB, func()) {
	t.Helper()

	// Temporary files instead of :memory: so each test gets its own
	// isolated database, including the WAL sidecar files
	tmpFile, err := os.CreateTemp("", "test_observations_*.db")
	if err != nil {
		t.Fatalf("Failed to create temporary database file: %v", err)
	}
	tmpPath := tmpFile.Name()
	_ = tmpFile.Close()

	db, err := database.New(database.Config{
		Path:    tmpPath,
		Profile: database.ProfileStandard,
		Name:    "observations",
	})
	if err != nil {
		_ = os.Remove(tmpPath)
		t.Fatalf("Failed to create test database: %v", err)
	}

	if err := db.Migrate(); err != nil {
		_ = db.Close()
		_ = os.Remove(tmpPath)
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	return db, func() {
		if err := db.Close(); err != nil {
			// Log but don't fail the test - cleanup should be idempotent
			t.Logf("Warning: Failed to close test database: %v", err)
		}
		removeDatabaseFiles(t, tmpPath)
	}
}

// removeDatabaseFiles removes the database file and its WAL sidecars.
func removeDatabaseFiles(t *testing.T, path string) {
	t.Helper()

	for _, p := range []string{path, path + "-wal", path + "-shm"} {
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			t.Logf("Warning: Failed to remove %s: %v", p, err)
		}
	}
}

// SeedObservations inserts rows directly, bypassing the repository, so tests
// can control recorded_at timestamps.
func SeedObservations(t *testing.T, db *database.DB, rows []ObservationRow) {
	t.Helper()

	for _, row := range rows {
		_, err := db.Conn().Exec(
			`INSERT OR REPLACE INTO observations (metric, observed_at, value, source, recorded_at)
			 VALUES (?, ?, ?, ?, ?)`,
			row.Metric, row.ObservedAt, row.Value, row.Source, row.RecordedAt,
		)
		if err != nil {
			t.Fatalf("Failed to seed observation %s/%s: %v", row.Metric, row.ObservedAt, err)
		}
	}
}

// ObservationRow is a raw observations table row for seeding.
type ObservationRow struct {
	Metric     string
	ObservedAt string // observation date, YYYY-MM-DD
	Value      float64
	Source     string
	RecordedAt int64 // unix seconds
}

// MustExec runs a statement against the database and fails the test on error.
func MustExec(t *testing.T, db *database.DB, query string, args ...interface{}) {
	t.Helper()

	if _, err := db.Conn().Exec(query, args...); err != nil {
		t.Fatalf("Failed to execute %q: %v", query, err)
	}
}
