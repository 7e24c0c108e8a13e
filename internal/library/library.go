// Package library indexes the destination tree so duplicate candidates can be
// found without re-walking the filesystem per unit.
package library

import (
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"

	"reelsort/internal/compare"
	"reelsort/internal/logging"
	"reelsort/internal/release"
	"reelsort/internal/services"
)

// Entry is one video file already in the library.
type Entry struct {
	Path string
	Dir  string
	Info release.Info
	Size int64
}

// Index holds the library's parsed contents for one run. The index is built
// once up front; transfers update individual entries instead of rescanning.
type Index struct {
	root      string
	videoExts []string
	// byLetter buckets entries by the first rune of the normalized title so
	// duplicate lookups touch a fraction of the library.
	byLetter map[rune][]*Entry
	logger   *slog.Logger
}

// Build scans the destination root and parses every video file found.
func Build(root string, videoExts []string, logger *slog.Logger) (*Index, error) {
	ix := &Index{
		root:      root,
		videoExts: videoExts,
		byLetter:  map[rune][]*Entry{},
		logger:    logging.NewComponentLogger(logger, "library"),
	}

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return services.Wrap(services.ErrConfiguration, "library", "build",
					"destination is not accessible", err)
			}
			ix.logger.Warn("skipping unreadable entry",
				logging.String("path", path), logging.Error(err))
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if strings.HasPrefix(d.Name(), ".") && path != root {
				return fs.SkipDir
			}
			return nil
		}
		ext := strings.ToLower(filepath.Ext(path))
		if !containsString(ix.videoExts, ext) {
			return nil
		}
		info, statErr := d.Info()
		if statErr != nil {
			return nil
		}
		ix.add(&Entry{
			Path: path,
			Dir:  filepath.Dir(path),
			Info: release.Parse(d.Name()),
			Size: info.Size(),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	ix.logger.Debug("library indexed",
		logging.String("root", root), logging.Int("entries", ix.Len()))
	return ix, nil
}

// Len returns the number of indexed entries.
func (ix *Index) Len() int {
	total := 0
	for _, bucket := range ix.byLetter {
		total += len(bucket)
	}
	return total
}

// FindDuplicates returns library entries that claim the same film: same
// normalized title within the similarity floor and the same year.
func (ix *Index) FindDuplicates(title string, year int, floor float64) []*Entry {
	normalized := compare.NormalizeTitle(title)
	if normalized == "" {
		return nil
	}

	var matches []*Entry
	for _, entry := range ix.byLetter[firstRune(normalized)] {
		if entry.Info.Year != year {
			continue
		}
		if compare.TitlesMatch(title, entry.Info.Title, floor) {
			matches = append(matches, entry)
		}
	}
	return matches
}

// Remove drops a single entry, typically after its file was replaced or
// deleted. The rest of the index stays valid.
func (ix *Index) Remove(path string) {
	for letter, bucket := range ix.byLetter {
		for i, entry := range bucket {
			if entry.Path == path {
				ix.byLetter[letter] = append(bucket[:i], bucket[i+1:]...)
				return
			}
		}
	}
}

// Add registers a newly filed video so later units in the same run see it.
func (ix *Index) Add(path string, info release.Info, size int64) {
	ix.add(&Entry{Path: path, Dir: filepath.Dir(path), Info: info, Size: size})
}

func (ix *Index) add(entry *Entry) {
	normalized := compare.NormalizeTitle(entry.Info.Title)
	if normalized == "" {
		ix.logger.Debug("unparseable library entry", logging.String("path", entry.Path))
		return
	}
	letter := firstRune(normalized)
	ix.byLetter[letter] = append(ix.byLetter[letter], entry)
}

func firstRune(s string) rune {
	for _, r := range s {
		return r
	}
	return 0
}

func containsString(haystack []string, needle string) bool {
	for _, s := range haystack {
		if s == needle {
			return true
		}
	}
	return false
}
