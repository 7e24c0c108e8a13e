package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestConfigInitWritesSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	out, err := runCommand(t, "config", "init", path)
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	if !strings.Contains(out, path) {
		t.Fatalf("output = %q", out)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(data), "[duplicates.upgrade_table]") {
		t.Fatal("sample missing upgrade table section")
	}
}

func TestConfigInitRefusesOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("# existing\n"), 0o644); err != nil {
		t.Fatalf("seed config: %v", err)
	}

	out, err := runCommand(t, "config", "init", path)
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	if !strings.Contains(out, "--force") {
		t.Fatalf("output = %q", out)
	}

	data, _ := os.ReadFile(path)
	if string(data) != "# existing\n" {
		t.Fatal("existing file was overwritten without --force")
	}
}

func TestConfigShowPrintsResolvedValues(t *testing.T) {
	base := t.TempDir()
	configPath := filepath.Join(base, "config.toml")
	body := `
[paths]
source_dirs = ["` + filepath.Join(base, "in") + `"]
destination_dir = "` + filepath.Join(base, "films") + `"
log_dir = "` + filepath.Join(base, "logs") + `"
cache_dir = "` + filepath.Join(base, "cache") + `"
`
	if err := os.WriteFile(configPath, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	out, err := runCommand(t, "--config", configPath, "config", "show")
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	if !strings.Contains(out, "destination_dir") || !strings.Contains(out, filepath.Join(base, "films")) {
		t.Fatalf("output = %q", out)
	}
}
