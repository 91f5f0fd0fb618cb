package testsupport

import (
	"testing"

	"rasteralign/internal/config"
	"rasteralign/internal/ledger"
)

// MustOpenLedger opens the config's ledger for tests and registers cleanup.
func MustOpenLedger(t testing.TB, cfg *config.Config) *ledger.Store {
	t.Helper()

	store, err := ledger.Open(cfg.Paths.LedgerPath)
	if err != nil {
		t.Fatalf("ledger.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}
