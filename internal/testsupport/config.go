package testsupport

import (
	"path/filepath"
	"testing"

	"copyartifacts/internal/config"
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
	cfgVal.Paths.LibraryDir = filepath.Join(base, "library")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Artifacts.Workers = 2

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

// WithFlatten enables flattening of artifact sub folders.
func WithFlatten() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Artifacts.Flatten = true
	}
}

// WithMove switches transfers to move mode.
func WithMove(deleteOriginals bool) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Artifacts.Move = true
		b.cfg.Artifacts.DeleteOriginalsOnMove = deleteOriginals
	}
}

// WithRootPolicy overrides the ambiguous-artifact policy.
func WithRootPolicy(policy string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Artifacts.RootPolicy = policy
	}
}

// WithExtensions restricts eligible artifact extensions. Values must already
// be lowercase with a leading dot.
func WithExtensions(exts ...string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Artifacts.Extensions = exts
	}
}

// WithLock enables the library lock under the test's base directory.
func WithLock() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Paths.LockPath = filepath.Join(b.baseDir, "copyartifacts.lock")
	}
}
