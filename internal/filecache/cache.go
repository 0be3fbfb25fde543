package filecache

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/simplelru"
)

// DefaultMaxEntries is the number of files kept in memory
const DefaultMaxEntries = 100

// ErrNotFound is returned when a path cannot be resolved or read.
// Callers treat it as "file absent".
var ErrNotFound = errors.New("file not found")

type entry struct {
	content string
	modTime time.Time
}

// Stats describes the current cache state
type Stats struct {
	Entries     int
	MaxEntries  int
	MemoryBytes int // Sum of cached content lengths
	Reads       int // Number of reads that went to the filesystem
}

// Cache memoizes file contents keyed by canonical path and invalidates
// entries whose modification time changed.
//
// Eviction is first-in-first-out: reads use Peek so they never refresh an
// entry's position. A Cache is not safe for concurrent use.
type Cache struct {
	entries    *simplelru.LRU[string, entry]
	maxEntries int
	reads      int
}

// New creates a cache holding at most DefaultMaxEntries files
func New() *Cache {
	return NewWithSize(DefaultMaxEntries)
}

// NewWithSize creates a cache holding at most maxEntries files
func NewWithSize(maxEntries int) *Cache {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	entries, err := simplelru.NewLRU[string, entry](maxEntries, nil)
	if err != nil {
		// Only returned for a non-positive size, guarded above
		panic(fmt.Sprintf("filecache: %v", err))
	}
	return &Cache{entries: entries, maxEntries: maxEntries}
}

// canonical resolves path to an absolute path with symlinks evaluated
func canonical(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", ErrNotFound
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return "", ErrNotFound
	}
	return resolved, nil
}

// Get returns the content of path, reading it from disk only when it is not
// cached or its modification time changed.
func (c *Cache) Get(path string) (string, error) {
	key, err := canonical(path)
	if err != nil {
		return "", err
	}

	info, err := os.Stat(key)
	if err != nil || info.IsDir() {
		return "", ErrNotFound
	}

	if cached, ok := c.entries.Peek(key); ok && cached.modTime.Equal(info.ModTime()) {
		return cached.content, nil
	}

	data, err := os.ReadFile(key)
	if err != nil {
		return "", ErrNotFound
	}
	c.reads++

	// A refreshed entry is re-inserted as the newest one
	c.entries.Remove(key)
	c.entries.Add(key, entry{content: string(data), modTime: info.ModTime()})
	return string(data), nil
}

// Exists reports whether path is a readable file, consulting the cache first
func (c *Cache) Exists(path string) bool {
	if key, err := canonical(path); err == nil && c.entries.Contains(key) {
		return true
	}
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// Contains reports whether path currently has a cache entry
func (c *Cache) Contains(path string) bool {
	key, err := canonical(path)
	if err != nil {
		return false
	}
	return c.entries.Contains(key)
}

// Lines returns the content of path split into lines.
// Trailing blank lines are dropped unless keepTrailingBlank is set.
func (c *Cache) Lines(path string, keepTrailingBlank bool) ([]string, error) {
	content, err := c.Get(path)
	if err != nil {
		return nil, err
	}
	content = strings.ReplaceAll(content, "\r\n", "\n")
	lines := strings.Split(content, "\n")
	if !keepTrailingBlank {
		for len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "" {
			lines = lines[:len(lines)-1]
		}
	}
	return lines, nil
}

// Clear drops every cached entry
func (c *Cache) Clear() {
	c.entries.Purge()
	c.reads = 0
}

// Stats returns entry count, capacity, approximate memory and read count
func (c *Cache) Stats() Stats {
	memory := 0
	for _, key := range c.entries.Keys() {
		if e, ok := c.entries.Peek(key); ok {
			memory += len(e.content)
		}
	}
	return Stats{
		Entries:     c.entries.Len(),
		MaxEntries:  c.maxEntries,
		MemoryBytes: memory,
		Reads:       c.reads,
	}
}

// LineForOffset translates a byte offset in content to a 1-based line number
func LineForOffset(content string, offset int) int {
	if offset < 0 {
		return 1
	}
	if offset > len(content) {
		offset = len(content)
	}
	return strings.Count(content[:offset], "\n") + 1
}
