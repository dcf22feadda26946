package testutil

import (
	"context"
	"testing"

	"github.com/Veraticus/rfm-segmenter/internal/model"
	"github.com/Veraticus/rfm-segmenter/internal/storage"
)

// TestDB wraps a migrated SQLite export for tests.
type TestDB struct {
	Storage *storage.SQLiteStorage
	t       *testing.T
}

// TestDBOptions provides configuration options for test database setup.
type TestDBOptions struct {
	// Path defaults to an in-memory database.
	Path           string
	Results        []*model.Result
	SkipMigrations bool
}

// SetupTestDB creates a new in-memory export database.
// It automatically handles migrations and cleanup.
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()
	return SetupTestDBWithOptions(t, TestDBOptions{})
}

// SetupTestDBWithOptions creates a test database with custom options.
func SetupTestDBWithOptions(t *testing.T, opts TestDBOptions) *TestDB {
	t.Helper()

	path := opts.Path
	if path == "" {
		path = ":memory:"
	}

	store, err := storage.NewSQLiteStorage(path)
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Errorf("failed to close test database: %v", err)
		}
	})

	ctx := context.Background()
	if !opts.SkipMigrations {
		if err := store.Migrate(ctx); err != nil {
			t.Fatalf("failed to run migrations: %v", err)
		}
	}

	for _, result := range opts.Results {
		if err := store.SaveResult(ctx, result); err != nil {
			t.Fatalf("failed to seed run %q: %v", result.RunID, err)
		}
	}

	return &TestDB{Storage: store, t: t}
}

// MustCountBySegment returns the segment counts of a run or fails the test.
func (db *TestDB) MustCountBySegment(runID string) map[model.Segment]int {
	db.t.Helper()

	counts, err := db.Storage.CountBySegment(context.Background(), runID)
	if err != nil {
		db.t.Fatalf("failed to count segments of run %q: %v", runID, err)
	}
	return counts
}
