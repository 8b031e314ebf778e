package testsupport

import (
	"context"
	"testing"

	"corral/internal/config"
	"corral/internal/record"
	"corral/internal/store"
)

// MustOpenStore opens a store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *store.Store {
	t.Helper()

	st, err := store.Open(cfg)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() {
		st.Close()
	})
	return st
}

// SeedRecords upserts the given records into the store.
func SeedRecords(t testing.TB, st *store.Store, recs ...record.Record) {
	t.Helper()

	for _, rec := range recs {
		if err := st.UpsertRecord(context.Background(), rec); err != nil {
			t.Fatalf("store.UpsertRecord(%s): %v", rec.Ref, err)
		}
	}
}
