// Package cache stores lint results on disk keyed by file path. An entry is
// valid while the file content hash and the rule configuration fingerprint
// both match and the entry is younger than the TTL.
package cache

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/zeebo/blake3"

	"github.com/panbanda/jsflow/pkg/linter"
)

// formatVersion is mixed into every fingerprint so that entries written by
// an older layout are never read back.
const formatVersion = "jsflow-cache-v1"

// Cache provides file-based caching of lint problems.
type Cache struct {
	dir         string
	ttl         time.Duration
	enabled     bool
	fingerprint string
}

// Entry is one cached file result.
type Entry struct {
	Hash        string           `json:"hash"`
	Fingerprint string           `json:"fingerprint"`
	Timestamp   time.Time        `json:"timestamp"`
	Problems    []linter.Problem `json:"problems"`
}

// New creates a cache rooted at dir. fingerprint identifies the rule
// configuration the cached problems were produced with.
func New(dir string, ttlHours int, enabled bool, fingerprint string) (*Cache, error) {
	if !enabled {
		return &Cache{}, nil
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating cache dir: %w", err)
	}

	return &Cache{
		dir:         dir,
		ttl:         time.Duration(ttlHours) * time.Hour,
		enabled:     true,
		fingerprint: fingerprint,
	}, nil
}

// Enabled reports whether the cache reads and writes entries.
func (c *Cache) Enabled() bool {
	return c.enabled
}

// HashBytes computes a BLAKE3 hash of data as hex.
func HashBytes(data []byte) string {
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Fingerprint hashes a rule configuration. Rule ids are visited in sorted
// order so equal configurations give equal fingerprints.
func Fingerprint(rules map[string]linter.RuleConfig) string {
	d := xxhash.New()
	_, _ = d.WriteString(formatVersion)
	for _, id := range slices.Sorted(maps.Keys(rules)) {
		rc := rules[id]
		opts, err := json.Marshal(rc.Options)
		if err != nil {
			opts = []byte(fmt.Sprint(rc.Options))
		}
		_, _ = fmt.Fprintf(d, "\x00%s\x00%d\x00%s", id, rc.Severity, opts)
	}
	return fmt.Sprintf("%016x", d.Sum64())
}

// Get returns the problems cached for path when hash and the fingerprint
// match and the entry has not expired.
func (c *Cache) Get(path, hash string) ([]linter.Problem, bool) {
	if !c.enabled {
		return nil, false
	}

	file := c.keyPath(path)
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, false
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, false
	}
	if entry.Hash != hash || entry.Fingerprint != c.fingerprint {
		return nil, false
	}
	if time.Since(entry.Timestamp) > c.ttl {
		_ = os.Remove(file)
		return nil, false
	}
	return entry.Problems, true
}

// Set stores the problems for path.
func (c *Cache) Set(path, hash string, problems []linter.Problem) error {
	if !c.enabled {
		return nil
	}

	data, err := json.Marshal(Entry{
		Hash:        hash,
		Fingerprint: c.fingerprint,
		Timestamp:   time.Now(),
		Problems:    problems,
	})
	if err != nil {
		return err
	}
	return os.WriteFile(c.keyPath(path), data, 0o600)
}

// Invalidate removes the entry for path.
func (c *Cache) Invalidate(path string) error {
	if !c.enabled {
		return nil
	}
	err := os.Remove(c.keyPath(path))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// Clear removes all cache entries.
func (c *Cache) Clear() error {
	if !c.enabled {
		return nil
	}
	return os.RemoveAll(c.dir)
}

func (c *Cache) keyPath(key string) string {
	return filepath.Join(c.dir, fmt.Sprintf("%016x.json", xxhash.Sum64String(key)))
}

// Stats describes the cache directory.
type Stats struct {
	Entries   int           `json:"entries"`
	TotalSize int64         `json:"total_size"`
	OldestAge time.Duration `json:"oldest_age"`
	NewestAge time.Duration `json:"newest_age"`
}

// GetStats walks the cache directory.
func (c *Cache) GetStats() (*Stats, error) {
	if !c.enabled {
		return &Stats{}, nil
	}

	stats := &Stats{}
	var oldest, newest time.Time
	err := filepath.Walk(c.dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() || filepath.Ext(path) != ".json" {
			return nil
		}

		stats.Entries++
		stats.TotalSize += info.Size()
		mod := info.ModTime()
		if oldest.IsZero() || mod.Before(oldest) {
			oldest = mod
		}
		if newest.IsZero() || mod.After(newest) {
			newest = mod
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if !oldest.IsZero() {
		stats.OldestAge = time.Since(oldest)
	}
	if !newest.IsZero() {
		stats.NewestAge = time.Since(newest)
	}
	return stats, nil
}
