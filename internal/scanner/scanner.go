// Package scanner walks source directories and groups messy film files and
// folders into film units.
package scanner

import (
	"fmt"
	"log/slog"
	"os"

	"reelsort/internal/config"
	"reelsort/internal/logging"
	"reelsort/internal/services"
)

// Options tunes classification.
type Options struct {
	VideoExts     []string
	SidecarExts   []string
	IgnoreStrings []string
	// MinFileSize in bytes. Smaller video files are treated as samples.
	MinFileSize int64
}

// Scanner classifies one or more source roots into film units.
type Scanner struct {
	opts   Options
	logger *slog.Logger
}

// New builds a scanner from configuration.
func New(cfg *config.Config, logger *slog.Logger) *Scanner {
	return &Scanner{
		opts: Options{
			VideoExts:     cfg.Scanner.VideoExts,
			SidecarExts:   cfg.Scanner.SidecarExts,
			IgnoreStrings: cfg.Scanner.IgnoreStrings,
			MinFileSize:   cfg.Scanner.MinFileSizeMB * 1024 * 1024,
		},
		logger: logging.NewComponentLogger(logger, "scanner"),
	}
}

// NewWithOptions builds a scanner directly from options.
func NewWithOptions(opts Options, logger *slog.Logger) *Scanner {
	return &Scanner{opts: opts, logger: logging.NewComponentLogger(logger, "scanner")}
}

// Scan classifies a single source root. A missing or unreadable root is a
// configuration error; anything below it degrades to logged skips. Each
// filesystem node is claimed by at most one unit.
func (s *Scanner) Scan(root string) ([]Unit, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "scanner", "scan",
			fmt.Sprintf("source root %q is not accessible", root), err)
	}
	if !info.IsDir() {
		return nil, services.Wrap(services.ErrConfiguration, "scanner", "scan",
			fmt.Sprintf("source root %q is not a directory", root), nil)
	}

	c := newClassifier(root, s.opts, s.logger)
	var units []Unit
	s.walk(c, root, &units)

	s.logger.Debug("scan complete",
		logging.String("root", root), logging.Int("units", len(units)))
	return units, nil
}

// walk descends grouping branches, emits claimed film roots, and emits loose
// video files as single-file units. Claimed roots are not descended further,
// so no node is ever emitted twice.
func (s *Scanner) walk(c *classifier, dir string, units *[]Unit) {
	for _, path := range c.childPaths(dir) {
		f := c.factsFor(path)
		if f.Ignored {
			s.logger.Debug("ignoring entry", logging.String("path", path))
			continue
		}

		if !f.IsDir {
			if !f.IsVideo {
				continue
			}
			if f.Size < s.opts.MinFileSize {
				s.logger.Debug("skipping small video",
					logging.String("path", path), logging.Int64("size", f.Size))
				continue
			}
			if unit, ok := s.fileUnit(c, path); ok {
				*units = append(*units, unit)
			}
			continue
		}

		if c.isFilmRoot(path) {
			if unit, ok := s.dirUnit(c, path); ok {
				*units = append(*units, unit)
			}
			continue
		}

		s.walk(c, path, units)
	}
}
