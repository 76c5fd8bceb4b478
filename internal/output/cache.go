package output

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

const cacheIndexVersion = 1

// GeneratorVersion invalidates every cache entry when generated text changes
// shape between releases.
const GeneratorVersion = "1"

type cacheEntry struct {
	Hash             string `json:"hash"`
	GeneratorVersion string `json:"generator_version"`
}

type cacheIndex struct {
	Version int                   `json:"version"`
	Entries map[string]cacheEntry `json:"entries"`
}

// Cache remembers the fingerprint of every artifact written. It is safe for
// concurrent use; a nil *Cache never reports a file as fresh.
type Cache struct {
	dir   string
	mu    sync.Mutex
	index cacheIndex
	hits  int
}

// NewCache returns an empty cache stored in dir.
func NewCache(dir string) *Cache {
	return &Cache{
		dir:   dir,
		index: cacheIndex{Version: cacheIndexVersion, Entries: make(map[string]cacheEntry)},
	}
}

func (c *Cache) indexPath() string {
	return filepath.Join(c.dir, "index.json")
}

// Load reads the index. A missing index or one from another version starts empty.
func (c *Cache) Load() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return fmt.Errorf("cache mkdir: %w", err)
	}
	data, err := os.ReadFile(c.indexPath())
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read cache index: %w", err)
	}
	var idx cacheIndex
	if err := json.Unmarshal(data, &idx); err != nil {
		return fmt.Errorf("parse cache index: %w", err)
	}
	if idx.Version != cacheIndexVersion {
		// Reset on version mismatch
		c.index = cacheIndex{Version: cacheIndexVersion, Entries: make(map[string]cacheEntry)}
		return nil
	}
	if idx.Entries == nil {
		idx.Entries = make(map[string]cacheEntry)
	}
	c.index = idx
	return nil
}

// Save writes the index.
func (c *Cache) Save() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return WriteJSONAtomic(c.indexPath(), c.index)
}

// Fresh reports whether the artifact at rel was last written with hash and
// still exists at path.
func (c *Cache) Fresh(rel, hash, path string) bool {
	if c == nil {
		return false
	}
	c.mu.Lock()
	entry, ok := c.index.Entries[rel]
	c.mu.Unlock()
	if !ok || entry.Hash != hash || entry.GeneratorVersion != GeneratorVersion {
		return false
	}
	data, err := os.ReadFile(path)
	if err != nil || Fingerprint(data) != hash {
		return false
	}
	c.mu.Lock()
	c.hits++
	c.mu.Unlock()
	return true
}

// Put records that rel now holds content with hash.
func (c *Cache) Put(rel, hash string) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.index.Entries[rel] = cacheEntry{Hash: hash, GeneratorVersion: GeneratorVersion}
	c.mu.Unlock()
}

// Hits returns how many artifacts were skipped as fresh.
func (c *Cache) Hits() int {
	if c == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits
}
