// Package cache provides a TTL-bounded disk store for raw Notion API
// responses and a Repository implementation that layers it over the live
// client. Cache operations are best-effort: read and write failures never
// block a fetch.
package cache

import (
	"encoding/json"
	"fmt"
	"hash/fnv"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// DefaultTTL bounds entry freshness when the caller doesn't choose one.
const DefaultTTL = 300 * time.Second

const cacheDirName = "notion2prompt"

// entry is the on-disk shape of one cached response.
type entry struct {
	Data     string `json:"data"`
	CachedAt int64  `json:"cached_at"`
}

// DiskCache is a key→JSON file store with TTL expiry and lazy purge.
type DiskCache struct {
	dir string
	ttl time.Duration
	now func() time.Time
}

// Dir returns the cache directory: $XDG_CACHE_HOME/notion2prompt, falling
// back to $HOME/.cache/notion2prompt.
func Dir() string {
	if xdg := os.Getenv("XDG_CACHE_HOME"); xdg != "" {
		return filepath.Join(xdg, cacheDirName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		home = os.TempDir()
	}
	return filepath.Join(home, ".cache", cacheDirName)
}

// New creates a disk cache in dir (empty means the default directory) and
// purges expired entries once so the directory doesn't grow without bound.
func New(dir string, ttl time.Duration) (*DiskCache, error) {
	if dir == "" {
		dir = Dir()
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}
	c := &DiskCache{dir: dir, ttl: ttl, now: time.Now}
	c.purgeExpired()
	return c, nil
}

// Get returns the cached data for key when present and fresh. Expired
// entries are removed on read.
func (c *DiskCache) Get(key string) (string, bool) {
	path := c.keyPath(key)
	content, err := os.ReadFile(path)
	if err != nil {
		return "", false
	}
	var e entry
	if err := json.Unmarshal(content, &e); err != nil {
		return "", false
	}
	if c.expired(e.CachedAt) {
		_ = os.Remove(path)
		return "", false
	}
	return e.Data, true
}

// Set stores data under key. Write failures are logged and swallowed.
func (c *DiskCache) Set(key, data string) {
	e := entry{Data: data, CachedAt: c.now().Unix()}
	content, err := json.Marshal(e)
	if err != nil {
		return
	}
	if err := os.WriteFile(c.keyPath(key), content, 0o600); err != nil {
		slog.Debug("cache write failed", "key", key, "error", err)
	}
}

// Clear removes every cache file, expired or not.
func (c *DiskCache) Clear() error {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return err
	}
	for _, dirEntry := range entries {
		if strings.HasSuffix(dirEntry.Name(), ".json") {
			_ = os.Remove(filepath.Join(c.dir, dirEntry.Name()))
		}
	}
	return nil
}

// Stats reports the entry count and total size of the cache directory.
func (c *DiskCache) Stats() (count int, bytes int64) {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return 0, 0
	}
	for _, dirEntry := range entries {
		if !strings.HasSuffix(dirEntry.Name(), ".json") {
			continue
		}
		count++
		if info, err := dirEntry.Info(); err == nil {
			bytes += info.Size()
		}
	}
	return count, bytes
}

// purgeExpired removes expired files in one directory pass. Errors are
// swallowed: a broken purge never blocks operation.
func (c *DiskCache) purgeExpired() {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return
	}
	for _, dirEntry := range entries {
		if !strings.HasSuffix(dirEntry.Name(), ".json") {
			continue
		}
		path := filepath.Join(c.dir, dirEntry.Name())
		content, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		var e entry
		if err := json.Unmarshal(content, &e); err != nil {
			continue
		}
		if c.expired(e.CachedAt) {
			_ = os.Remove(path)
		}
	}
}

func (c *DiskCache) expired(cachedAt int64) bool {
	return c.now().Unix()-cachedAt > int64(c.ttl/time.Second)
}

// keyPath hashes the key into a 16-hex filename.
func (c *DiskCache) keyPath(key string) string {
	h := fnv.New64a()
	_, _ = h.Write([]byte(key))
	return filepath.Join(c.dir, fmt.Sprintf("%016x.json", h.Sum64()))
}
