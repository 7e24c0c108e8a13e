// Package testsupport provides shared fixtures for tests.
package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"reelsort/internal/config"
)

// NewConfig returns a validated configuration rooted in fresh temp
// directories, suitable for exercising the full pipeline.
func NewConfig(t *testing.T) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.SourceDirs = []string{filepath.Join(base, "incoming")}
	cfg.Paths.DestinationDir = filepath.Join(base, "films")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.CacheDir = filepath.Join(base, "cache")
	cfg.Scanner.MinFileSizeMB = 0
	cfg.TMDB.APIKey = ""

	for _, dir := range []string{cfg.Paths.SourceDirs[0], cfg.Paths.DestinationDir, cfg.Paths.LogDir, cfg.Paths.CacheDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatalf("create %s: %v", dir, err)
		}
	}

	if err := cfg.Validate(); err != nil {
		t.Fatalf("fixture config invalid: %v", err)
	}
	return &cfg
}

// WriteFile creates a file of the given size, creating parent directories as
// needed, and returns its path.
func WriteFile(t *testing.T, path string, size int64) string {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("create parent for %s: %v", path, err)
	}
	payload := make([]byte, size)
	for i := range payload {
		payload[i] = byte(i % 251)
	}
	if err := os.WriteFile(path, payload, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

// Mkdir creates a directory tree and returns its path.
func Mkdir(t *testing.T, path string) string {
	t.Helper()
	if err := os.MkdirAll(path, 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", path, err)
	}
	return path
}
