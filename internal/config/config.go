package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	SourceDirs     []string `toml:"source_dirs"`
	DestinationDir string   `toml:"destination_dir"`
	LogDir         string   `toml:"log_dir"`
	CacheDir       string   `toml:"cache_dir"`
}

// Scanner contains configuration for the path classifier.
type Scanner struct {
	VideoExts     []string `toml:"video_exts"`
	SidecarExts   []string `toml:"sidecar_exts"`
	IgnoreStrings []string `toml:"ignore_strings"`
	MinFileSizeMB int64    `toml:"min_filesize_mb"`
}

// TMDB contains configuration for The Movie Database API.
type TMDB struct {
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	Language       string `toml:"language"`
	Concurrency    int    `toml:"concurrency"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	CacheEnabled   bool   `toml:"cache_enabled"`
}

// Duplicates contains the duplicate-resolution policy.
type Duplicates struct {
	Enabled         bool                `toml:"enabled"`
	AllowUpgrades   bool                `toml:"allow_upgrades"`
	RespectEditions bool                `toml:"respect_editions"`
	ReplaceSmaller  bool                `toml:"replace_smaller"`
	SimilarityFloor float64             `toml:"similarity_floor"`
	UpgradeTable    map[string][]string `toml:"upgrade_table"`
}

// Transfer contains configuration for file moves.
type Transfer struct {
	AlwaysCopy bool `toml:"always_copy"`
}

// Organize contains filing policy knobs.
type Organize struct {
	// FileUnverified controls whether units whose metadata lookup failed or
	// found no confident match are still filed under their locally parsed
	// title and year. When false such units are reported and skipped.
	FileUnverified    bool `toml:"file_unverified"`
	CleanupSourceDirs bool `toml:"cleanup_source_dirs"`
}

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for reelsort.
//
// Configuration sections by subsystem:
//   - Paths: source roots, destination library, log and cache directories
//   - Scanner: video/sidecar extensions, junk filters, size floor
//   - TMDB: metadata lookup credentials, concurrency ceiling, timeouts
//   - Duplicates: upgrade policy and the per-resolution upgrade table
//   - Transfer: copy-vs-rename behavior
//   - Organize: unverified filing policy, source cleanup
//   - Notifications: ntfy settings for the post-run hook
//   - Logging: log format and level
type Config struct {
	Paths         Paths         `toml:"paths"`
	Scanner       Scanner       `toml:"scanner"`
	TMDB          TMDB          `toml:"tmdb"`
	Duplicates    Duplicates    `toml:"duplicates"`
	Transfer      Transfer      `toml:"transfer"`
	Organize      Organize      `toml:"organize"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/reelsort/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config
// has all path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("reelsort.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the log and cache directories. The destination
// library is created on a best-effort basis so dry runs work when external
// storage is temporarily unavailable.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.LogDir, c.Paths.CacheDir} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	if strings.TrimSpace(c.Paths.DestinationDir) != "" {
		_ = os.MkdirAll(c.Paths.DestinationDir, 0o755)
	}
	return nil
}

// LookupCachePath returns the location of the TMDB response cache.
func (c *Config) LookupCachePath() string {
	if !c.TMDB.CacheEnabled || c.Paths.CacheDir == "" {
		return ""
	}
	return filepath.Join(c.Paths.CacheDir, "lookup_cache.json")
}

// JournalPath returns the location of the run journal database.
func (c *Config) JournalPath() string {
	if c.Paths.CacheDir == "" {
		return ""
	}
	return filepath.Join(c.Paths.CacheDir, "journal.db")
}

// LockPath returns the location of the destination lock file.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.DestinationDir, ".reelsort.lock")
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
