package config

import (
	"fmt"
	"strings"

	"reelsort/internal/services"
)

var knownResolutions = map[string]struct{}{
	"sd":    {},
	"480p":  {},
	"576p":  {},
	"720p":  {},
	"1080p": {},
	"2160p": {},
}

func (c *Config) normalize() error {
	var err error

	for i, dir := range c.Paths.SourceDirs {
		if c.Paths.SourceDirs[i], err = expandPath(dir); err != nil {
			return err
		}
	}
	if c.Paths.DestinationDir, err = expandPath(c.Paths.DestinationDir); err != nil {
		return err
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return err
	}
	if c.Paths.CacheDir, err = expandPath(c.Paths.CacheDir); err != nil {
		return err
	}

	c.Scanner.VideoExts = normalizeExts(c.Scanner.VideoExts)
	c.Scanner.SidecarExts = normalizeExts(c.Scanner.SidecarExts)
	for i, s := range c.Scanner.IgnoreStrings {
		c.Scanner.IgnoreStrings[i] = strings.ToLower(strings.TrimSpace(s))
	}

	c.TMDB.BaseURL = strings.TrimRight(strings.TrimSpace(c.TMDB.BaseURL), "/")
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))

	normalized := make(map[string][]string, len(c.Duplicates.UpgradeTable))
	for from, tos := range c.Duplicates.UpgradeTable {
		key := strings.ToLower(strings.TrimSpace(from))
		cleaned := make([]string, 0, len(tos))
		for _, to := range tos {
			cleaned = append(cleaned, strings.ToLower(strings.TrimSpace(to)))
		}
		normalized[key] = cleaned
	}
	c.Duplicates.UpgradeTable = normalized

	return nil
}

func normalizeExts(exts []string) []string {
	out := make([]string, 0, len(exts))
	for _, ext := range exts {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		out = append(out, ext)
	}
	return out
}

// Validate checks configuration invariants that every subcommand relies on.
// Subcommands that mutate the library additionally call ValidateForOrganize.
func (c *Config) Validate() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return services.Wrap(services.ErrConfiguration, "config", "validate",
			fmt.Sprintf("logging.format must be console or json, got %q", c.Logging.Format), nil)
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return services.Wrap(services.ErrConfiguration, "config", "validate",
			fmt.Sprintf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level), nil)
	}

	if c.Scanner.MinFileSizeMB < 0 {
		return services.Wrap(services.ErrConfiguration, "config", "validate",
			"scanner.min_filesize_mb must not be negative", nil)
	}

	if c.TMDB.Concurrency < 1 || c.TMDB.Concurrency > 50 {
		return services.Wrap(services.ErrConfiguration, "config", "validate",
			"tmdb.concurrency must be between 1 and 50", nil)
	}
	if c.TMDB.TimeoutSeconds < 1 {
		return services.Wrap(services.ErrConfiguration, "config", "validate",
			"tmdb.timeout_seconds must be at least 1", nil)
	}

	if c.Duplicates.SimilarityFloor < 0 || c.Duplicates.SimilarityFloor > 1 {
		return services.Wrap(services.ErrConfiguration, "config", "validate",
			"duplicates.similarity_floor must be between 0 and 1", nil)
	}
	for from, tos := range c.Duplicates.UpgradeTable {
		if _, ok := knownResolutions[from]; !ok {
			return services.Wrap(services.ErrConfiguration, "config", "validate",
				fmt.Sprintf("duplicates.upgrade_table key %q is not a known resolution", from), nil)
		}
		for _, to := range tos {
			if _, ok := knownResolutions[to]; !ok {
				return services.Wrap(services.ErrConfiguration, "config", "validate",
					fmt.Sprintf("duplicates.upgrade_table value %q under %q is not a known resolution", to, from), nil)
			}
		}
	}

	if c.Notifications.RequestTimeout < 1 {
		return services.Wrap(services.ErrConfiguration, "config", "validate",
			"notifications.request_timeout must be at least 1 second", nil)
	}

	return nil
}

// ValidateForOrganize checks the invariants required to mutate the library.
func (c *Config) ValidateForOrganize() error {
	if len(c.Paths.SourceDirs) == 0 {
		return services.Wrap(services.ErrConfiguration, "config", "validate",
			"paths.source_dirs must list at least one directory", nil)
	}
	if strings.TrimSpace(c.Paths.DestinationDir) == "" {
		return services.Wrap(services.ErrConfiguration, "config", "validate",
			"paths.destination_dir is required", nil)
	}
	for _, src := range c.Paths.SourceDirs {
		if src == c.Paths.DestinationDir {
			return services.Wrap(services.ErrConfiguration, "config", "validate",
				"destination_dir must not also be a source dir", nil)
		}
	}
	return nil
}
