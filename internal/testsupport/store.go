package testsupport

import (
	"testing"

	"gavel/internal/config"
	"gavel/internal/state"
)

// MustOpenStore opens the execution log for tests.
func MustOpenStore(t testing.TB, cfg *config.Config) *state.Store {
	t.Helper()

	store, err := state.Open(cfg.Paths.StateFile)
	if err != nil {
		t.Fatalf("state.Open: %v", err)
	}
	return store
}
