package scanner

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"reelsort/internal/logging"
	"reelsort/internal/release"
)

// Facts is the immutable classification record for one path. Facts are
// computed once per scan and memoized; classification decisions only ever
// read them, so concurrent scans of different roots share nothing.
type Facts struct {
	Path      string
	Origin    string
	IsDir     bool
	Size      int64
	YearHint  int
	IsVideo   bool
	IsSidecar bool
	Ignored   bool
}

// classifier memoizes Facts and derived predicates for a single scan root.
type classifier struct {
	origin string
	opts   Options
	logger *slog.Logger

	facts     map[string]*Facts
	children  map[string][]string
	nonEmpty  map[string]bool
	branch    map[string]bool
	terminus  map[string]bool
	videoYear map[string]int
}

func newClassifier(origin string, opts Options, logger *slog.Logger) *classifier {
	return &classifier{
		origin:    origin,
		opts:      opts,
		logger:    logging.NewComponentLogger(logger, "scanner"),
		facts:     map[string]*Facts{},
		children:  map[string][]string{},
		nonEmpty:  map[string]bool{},
		branch:    map[string]bool{},
		terminus:  map[string]bool{},
		videoYear: map[string]int{},
	}
}

// childPaths lists the directory's entries, sorted, with system files and
// ignored names filtered out. Unreadable directories are logged and treated
// as empty.
func (c *classifier) childPaths(dir string) []string {
	if cached, ok := c.children[dir]; ok {
		return cached
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		c.logger.Warn("skipping unreadable directory",
			logging.String("path", dir), logging.Error(err))
		c.children[dir] = nil
		return nil
	}

	paths := make([]string, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasPrefix(name, ".") || strings.EqualFold(name, "thumbs.db") {
			continue
		}
		paths = append(paths, filepath.Join(dir, name))
	}
	c.children[dir] = paths
	return paths
}

// factsFor builds or returns the memoized Facts for a path.
func (c *classifier) factsFor(path string) *Facts {
	if cached, ok := c.facts[path]; ok {
		return cached
	}

	f := &Facts{Path: path, Origin: c.origin}

	info, err := os.Lstat(path)
	if err != nil {
		c.logger.Warn("skipping unreadable entry",
			logging.String("path", path), logging.Error(err))
		f.Ignored = true
		c.facts[path] = f
		return f
	}

	f.IsDir = info.IsDir()
	if !f.IsDir {
		f.Size = info.Size()
		ext := strings.ToLower(filepath.Ext(path))
		f.IsVideo = containsString(c.opts.VideoExts, ext)
		f.IsSidecar = containsString(c.opts.SidecarExts, ext)
	}

	base := strings.ToLower(filepath.Base(path))
	for _, junk := range c.opts.IgnoreStrings {
		if junk != "" && strings.Contains(base, junk) {
			f.Ignored = true
			break
		}
	}

	if !f.Ignored {
		f.YearHint = release.Parse(filepath.Base(path)).Year
	}

	c.facts[path] = f
	return f
}

// containsFilesDeep reports whether any file exists anywhere under the path.
func (c *classifier) containsFilesDeep(dir string) bool {
	if cached, ok := c.nonEmpty[dir]; ok {
		return cached
	}
	result := false
	for _, child := range c.childPaths(dir) {
		f := c.factsFor(child)
		if f.Ignored {
			continue
		}
		if !f.IsDir || c.containsFilesDeep(child) {
			result = true
			break
		}
	}
	c.nonEmpty[dir] = result
	return result
}

// isTerminus reports whether the path ends the useful part of its subtree:
// a file, or a directory none of whose subdirectories contain files.
func (c *classifier) isTerminus(path string) bool {
	f := c.factsFor(path)
	if !f.IsDir {
		return true
	}
	if cached, ok := c.terminus[path]; ok {
		return cached
	}
	result := true
	for _, child := range c.childPaths(path) {
		cf := c.factsFor(child)
		if cf.Ignored || !cf.IsDir {
			continue
		}
		if c.containsFilesDeep(child) {
			result = false
			break
		}
	}
	c.terminus[path] = result
	return result
}

// isBranch reports whether a directory is an intermediate grouping folder
// rather than a film of its own: it has no year of its own and holds
// non-empty subdirectories, or its subdirectories carry conflicting years.
func (c *classifier) isBranch(path string) bool {
	f := c.factsFor(path)
	if !f.IsDir || path == c.origin {
		return path == c.origin
	}
	if cached, ok := c.branch[path]; ok {
		return cached
	}

	result := false
	childDirYears := []int{}
	hasNonEmptySubdir := false
	for _, child := range c.childPaths(path) {
		cf := c.factsFor(child)
		if cf.Ignored || !cf.IsDir {
			continue
		}
		if c.containsFilesDeep(child) {
			hasNonEmptySubdir = true
			childDirYears = append(childDirYears, cf.YearHint)
		}
	}

	if hasNonEmptySubdir {
		if f.YearHint == 0 {
			result = true
		} else {
			for _, year := range childDirYears {
				if year != 0 && year != f.YearHint {
					result = true
					break
				}
			}
		}
	}

	c.branch[path] = result
	return result
}

// directVideoYear returns the year the directory's own video files agree on,
// or zero when they disagree or carry none.
func (c *classifier) directVideoYear(dir string) int {
	if cached, ok := c.videoYear[dir]; ok {
		return cached
	}
	year := 0
	for _, child := range c.childPaths(dir) {
		cf := c.factsFor(child)
		if cf.Ignored || cf.IsDir || !cf.IsVideo {
			continue
		}
		childYear := cf.YearHint
		if childYear == 0 {
			continue
		}
		if year == 0 {
			year = childYear
		} else if year != childYear {
			year = 0
			break
		}
	}
	c.videoYear[dir] = year
	return year
}

// hasQualifyingVideoDeep reports whether the subtree holds at least one video
// file above the junk size floor.
func (c *classifier) hasQualifyingVideoDeep(dir string) bool {
	for _, child := range c.childPaths(dir) {
		cf := c.factsFor(child)
		if cf.Ignored {
			continue
		}
		if cf.IsDir {
			if c.hasQualifyingVideoDeep(child) {
				return true
			}
			continue
		}
		if cf.IsVideo && cf.Size >= c.opts.MinFileSize {
			return true
		}
	}
	return false
}

// isFilmRoot reports whether a directory is the root of exactly one film:
// a terminus that is not a grouping branch, is not the scan origin itself,
// carries a year of its own or video files that agree on one, and holds at
// least one qualifying video file.
func (c *classifier) isFilmRoot(path string) bool {
	f := c.factsFor(path)
	if !f.IsDir || path == c.origin || f.Ignored {
		return false
	}
	if !c.isTerminus(path) || c.isBranch(path) {
		return false
	}
	if f.YearHint == 0 && c.directVideoYear(path) == 0 {
		return false
	}
	return c.hasQualifyingVideoDeep(path)
}

func containsString(haystack []string, needle string) bool {
	for _, s := range haystack {
		if s == needle {
			return true
		}
	}
	return false
}
