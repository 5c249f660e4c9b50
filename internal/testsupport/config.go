// Package testsupport provides helpers shared by package tests.
package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"sortify/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.SourceDir = filepath.Join(base, "source")
	cfg.Paths.DestinationDir = filepath.Join(base, "dest")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Sorting.MinFileSize = 0
	cfg.Sorting.SortDelay = 0

	for _, opt := range opts {
		opt(&cfg)
	}

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	if err := os.MkdirAll(cfg.Paths.SourceDir, 0o755); err != nil {
		t.Fatalf("create source dir: %v", err)
	}
	return &cfg
}

// WithCategories overrides the category list on the test config.
func WithCategories(categories ...config.Category) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Categories = categories
	}
}

// WithExclusions overrides the exclusion substrings on the test config.
func WithExclusions(exclusions ...string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Sorting.Exclusions = exclusions
	}
}

// WithScheduledMode switches the test config to scheduled scanning.
func WithScheduledMode(times ...string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Scan.Mode = config.ScanModeScheduled
		cfg.Scan.ScheduledTimes = times
	}
}
