package testsupport

import (
	"testing"

	"sortify/internal/config"
	"sortify/internal/stats"
)

// MustOpenStore opens a stats.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *stats.Store {
	t.Helper()

	store, err := stats.Open(cfg)
	if err != nil {
		t.Fatalf("stats.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}
