package testsupport

import (
	"path/filepath"
	"testing"

	"rasteralign/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.StagingDir = filepath.Join(base, "staging")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.LedgerPath = filepath.Join(base, "ledger", "ledger.db")
	cfgVal.Metrics.TextfilePath = filepath.Join(base, "metrics", "rasteralign.prom")
	cfgVal.Logging.Level = "debug"

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	if err := builder.cfg.Validate(); err != nil {
		t.Fatalf("test config invalid: %v", err)
	}
	return builder.cfg
}

// WithTargetCRS overrides the grid CRS.
func WithTargetCRS(crs string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Grid.TargetCRS = crs
	}
}

// WithMetrics enables the Prometheus textfile export.
func WithMetrics() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Metrics.Enabled = true
	}
}

// WithDirPublish enables publishing into a directory under the test root and
// returns its location through dir.
func WithDirPublish(dir *string) ConfigOption {
	return func(b *configBuilder) {
		target := filepath.Join(b.baseDir, "published")
		b.cfg.Publish.Enabled = true
		b.cfg.Publish.Driver = "dir"
		b.cfg.Publish.Dir = target
		if dir != nil {
			*dir = target
		}
	}
}

// WithoutLedger disables run history.
func WithoutLedger() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Paths.LedgerPath = ""
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.StagingDir)
}
