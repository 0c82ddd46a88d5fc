// cache.go provides the in-memory memo for rendered invitation documents.
// Page shells re-render on every wish notification; the memo makes sure
// the embedded document is only rewritten when one of its inputs changes.
package engine

import (
	"crypto/sha256"
	"log/slog"
	"sync"
)

// defaultMemoSize bounds the number of transformed documents kept.
const defaultMemoSize = 512

// memoKey is a digest of the transform inputs. Hashing keeps the map
// small even though the html input can be tens of kilobytes.
type memoKey [sha256.Size]byte

func newMemoKey(html string, route Route, guestName string) memoKey {
	h := sha256.New()
	for _, part := range []string{html, route.Prefix, route.Key, guestName} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	var k memoKey
	copy(k[:], h.Sum(nil))
	return k
}

// transformCache is a concurrency-safe, size-bounded map of transform
// results.
type transformCache struct {
	mu      sync.RWMutex
	max     int
	entries map[memoKey]string
}

// newTransformCache creates an empty cache holding at most max entries.
func newTransformCache(max int) *transformCache {
	if max <= 0 {
		max = defaultMemoSize
	}
	return &transformCache{
		max:     max,
		entries: make(map[memoKey]string),
	}
}

// get retrieves a memoized result.
func (c *transformCache) get(k memoKey) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.entries[k]
	return v, ok
}

// put stores a result, evicting an arbitrary entry when full.
func (c *transformCache) put(k memoKey, v string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.entries[k]; !ok && len(c.entries) >= c.max {
		for old := range c.entries {
			delete(c.entries, old)
			break
		}
	}
	c.entries[k] = v
}

// len reports the number of memoized results.
func (c *transformCache) len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// reset drops every memoized result.
func (c *transformCache) reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[memoKey]string)
	slog.Debug("transform memo cleared")
}
