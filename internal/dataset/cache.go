package dataset

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"

	"salesview/pkg/contracts/domain"
)

// Entry is a fully ingested dataset held by the cache.
type Entry struct {
	Meta  domain.DatasetMeta
	Raw   *Table
	Clean *CleanTable
}

// Cache is a single-entry, content-addressed store for the active dataset.
// Uploading a new file replaces the previous entry; re-uploading identical
// bytes is a hit and keeps the same id. Keying on content identity rather
// than filename prevents redundant re-parsing when the UI re-invokes the
// pipeline on every interaction.
type Cache struct {
	mu    sync.RWMutex
	entry *Entry
}

// NewCache creates an empty dataset cache.
func NewCache() *Cache {
	return &Cache{}
}

// Key derives the cache key for raw uploaded bytes: hex SHA-256.
func Key(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Get returns the entry for the given id, if it is the one currently held.
func (c *Cache) Get(id string) (*Entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.entry == nil || c.entry.Meta.ID != id {
		return nil, false
	}
	return c.entry, true
}

// Current returns the active entry regardless of id.
func (c *Cache) Current() (*Entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.entry == nil {
		return nil, false
	}
	return c.entry, true
}

// Put stores the entry, displacing any previous dataset. It reports whether
// an existing entry with the same id was already present (a content hit).
func (c *Cache) Put(entry *Entry) (hit bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	hit = c.entry != nil && c.entry.Meta.ID == entry.Meta.ID
	if !hit {
		c.entry = entry
	}
	return hit
}
