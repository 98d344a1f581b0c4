package testutil

import (
	"testing"

	"conia-sync/internal/conia"
	"conia-sync/internal/database"
)

// NewTestStore creates an in-memory store with the full schema applied and a
// stub clock driving its timestamps. The store is closed when the test
// completes. The returned clock starts at FixedClock's time; advance it
// between mutations when a test needs distinguishable updated_at values.
func NewTestStore(t *testing.T) (*database.Store, *StubClock) {
	t.Helper()

	db, err := database.OpenConnection(":memory:")
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}
	if _, err := db.Exec(database.Schema); err != nil {
		db.Close()
		t.Fatalf("applying schema: %v", err)
	}

	clock := FixedClock()
	store := database.NewStoreFromDB(db, clock, conia.NewNopLogger())
	t.Cleanup(func() {
		store.Close()
	})
	return store, clock
}

// NewLegacyTestStore creates an in-memory store whose tasks table predates
// the is_expanded column, the shape a device that never migrated past the
// initial schema still has. Used to exercise the missing-column fallbacks.
func NewLegacyTestStore(t *testing.T) (*database.Store, *StubClock) {
	t.Helper()

	db, err := database.OpenConnection(":memory:")
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}
	if _, err := db.Exec(database.Schema); err != nil {
		db.Close()
		t.Fatalf("applying schema: %v", err)
	}
	if _, err := db.Exec(`ALTER TABLE tasks DROP COLUMN is_expanded`); err != nil {
		db.Close()
		t.Fatalf("rebuilding legacy schema: %v", err)
	}

	clock := FixedClock()
	store := database.NewStoreFromDB(db, clock, conia.NewNopLogger())
	t.Cleanup(func() {
		store.Close()
	})
	return store, clock
}
