package lookup

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"reelsort/internal/tmdb"
)

// Cache stores TMDB search responses on disk so repeated runs over the same
// backlog do not hammer the API. The file is a plain JSON map and is safe to
// delete at any time.
type Cache struct {
	mu      sync.RWMutex
	path    string
	entries map[string][]tmdb.Movie
	dirty   bool
}

// OpenCache loads the cache at path, starting empty when the file is missing
// or unreadable. An empty path yields a memory-only cache.
func OpenCache(path string) *Cache {
	c := &Cache{path: path, entries: map[string][]tmdb.Movie{}}
	if path == "" {
		return c
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return c
	}
	if err := json.Unmarshal(data, &c.entries); err != nil {
		c.entries = map[string][]tmdb.Movie{}
	}
	return c
}

func cacheKey(title string, year int) string {
	return strings.ToLower(strings.TrimSpace(title)) + "|" + strconv.Itoa(year)
}

// Get returns the cached results for a query, if present.
func (c *Cache) Get(title string, year int) ([]tmdb.Movie, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	movies, ok := c.entries[cacheKey(title, year)]
	return movies, ok
}

// Put stores a query result. Empty result sets are cached too; a film TMDB
// does not know stays unknown for the rest of the backlog.
func (c *Cache) Put(title string, year int, movies []tmdb.Movie) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[cacheKey(title, year)] = movies
	c.dirty = true
}

// Save writes the cache atomically: serialize to a temp file, then rename
// over the old one.
func (c *Cache) Save() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.path == "" || !c.dirty {
		return nil
	}

	data, err := json.MarshalIndent(c.entries, "", "  ")
	if err != nil {
		return fmt.Errorf("encode lookup cache: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return fmt.Errorf("create cache directory: %w", err)
	}

	tmp := c.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write lookup cache: %w", err)
	}
	if err := os.Rename(tmp, c.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("commit lookup cache: %w", err)
	}

	c.dirty = false
	return nil
}
