package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"reelsort/internal/config"
	"reelsort/internal/services"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "absent.toml")

	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if exists {
		t.Fatal("expected exists=false for missing file")
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "console" {
		t.Fatalf("unexpected logging defaults: %+v", cfg.Logging)
	}
	if cfg.Scanner.MinFileSizeMB != 200 {
		t.Fatalf("unexpected min_filesize_mb default: %d", cfg.Scanner.MinFileSizeMB)
	}
	if got := cfg.Duplicates.UpgradeTable["720p"]; len(got) != 1 || got[0] != "1080p" {
		t.Fatalf("unexpected default upgrade table for 720p: %v", got)
	}
}

func TestLoadNormalizesValues(t *testing.T) {
	path := writeConfig(t, `
[paths]
source_dirs = ["/data/incoming"]
destination_dir = "/data/films"

[scanner]
video_exts = ["MKV", ".Mp4"]
ignore_strings = [" Sample "]

[logging]
level = "DEBUG"
format = "Console"
`)

	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !exists {
		t.Fatal("expected exists=true")
	}
	if got := cfg.Scanner.VideoExts; got[0] != ".mkv" || got[1] != ".mp4" {
		t.Fatalf("extensions not normalized: %v", got)
	}
	if got := cfg.Scanner.IgnoreStrings[0]; got != "sample" {
		t.Fatalf("ignore string not normalized: %q", got)
	}
	if cfg.Logging.Level != "debug" {
		t.Fatalf("level not normalized: %q", cfg.Logging.Level)
	}
}

func TestLoadRejectsUnknownUpgradeResolution(t *testing.T) {
	path := writeConfig(t, `
[duplicates.upgrade_table]
"4320p" = ["2160p"]
`)

	_, _, _, err := config.Load(path)
	if err == nil {
		t.Fatal("expected error for unknown resolution key")
	}
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestLoadRejectsBadSimilarityFloor(t *testing.T) {
	path := writeConfig(t, `
[duplicates]
similarity_floor = 1.5
`)

	if _, _, _, err := config.Load(path); err == nil {
		t.Fatal("expected error for similarity floor above 1")
	}
}

func TestValidateForOrganize(t *testing.T) {
	cfg := config.Default()
	if err := cfg.ValidateForOrganize(); err == nil {
		t.Fatal("expected error with no source dirs")
	}

	cfg.Paths.SourceDirs = []string{"/data/films"}
	cfg.Paths.DestinationDir = "/data/films"
	err := cfg.ValidateForOrganize()
	if err == nil {
		t.Fatal("expected error when destination is also a source")
	}
	if !strings.Contains(err.Error(), "source") {
		t.Fatalf("unexpected message: %v", err)
	}

	cfg.Paths.SourceDirs = []string{"/data/incoming"}
	if err := cfg.ValidateForOrganize(); err != nil {
		t.Fatalf("expected valid organize config, got %v", err)
	}
}

func TestCreateSampleRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}

	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load sample: %v", err)
	}
	if !exists {
		t.Fatal("expected sample file to be found")
	}
	if cfg.Duplicates.SimilarityFloor != 0.8 {
		t.Fatalf("unexpected similarity floor: %v", cfg.Duplicates.SimilarityFloor)
	}
}
