package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"takeout/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// The source directory exists and is empty; populate it with WriteFile and
// WriteSidecar.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.SourceDir = filepath.Join(base, "source")
	cfgVal.Paths.DestDir = filepath.Join(base, "dest")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.DBPath = filepath.Join(base, "state", "takeout.db")

	if err := os.MkdirAll(cfgVal.Paths.SourceDir, 0o755); err != nil {
		t.Fatalf("mkdir source dir: %v", err)
	}

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithWorkers overrides the worker count on the test config.
func WithWorkers(workers int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Pipeline.Workers = workers
	}
}

// WithPageSize overrides the page size on the test config.
func WithPageSize(size int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Pipeline.PageSize = size
	}
}

// WithDryRun enables dry-run mode on the test config.
func WithDryRun() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Pipeline.DryRun = true
	}
}

// WithInMemoryDB keeps state in memory instead of on disk.
func WithInMemoryDB() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Pipeline.InMemoryDB = true
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.SourceDir)
}
