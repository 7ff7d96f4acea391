// Package cache provides the byte-budgeted I/O read-ahead cache used by
// the viewer. Exports raise its budget for the duration of a job through
// Max and SetMax and restore it afterwards.
package cache

import (
	"container/list"
	"sync"

	"github.com/sirupsen/logrus"
)

// DefaultMax is the budget of a new cache in bytes.
const DefaultMax int64 = 256 << 20

// Sizer is implemented by values that know their memory footprint.
type Sizer interface {
	ByteCount() int64
}

type entry struct {
	key   string
	value Sizer
	size  int64
}

// LRU is a least-recently-used cache bounded by the summed ByteCount of its
// values. It is safe for concurrent use.
type LRU struct {
	mu    sync.Mutex
	max   int64
	used  int64
	order *list.List
	items map[string]*list.Element

	hits   uint64
	misses uint64
}

// New returns a cache holding at most max bytes. A non-positive max uses
// DefaultMax.
func New(max int64) *LRU {
	if max <= 0 {
		max = DefaultMax
	}
	return &LRU{
		max:   max,
		order: list.New(),
		items: make(map[string]*list.Element),
	}
}

// Max returns the budget in bytes.
func (c *LRU) Max() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.max
}

// SetMax changes the budget and evicts until the cache fits.
func (c *LRU) SetMax(max int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	logrus.WithFields(logrus.Fields{
		"function": "LRU.SetMax",
		"old":      c.max,
		"new":      max,
	}).Debug("Resizing I/O cache")
	c.max = max
	c.evict()
}

// Used returns the bytes currently held.
func (c *LRU) Used() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.used
}

// Len returns the number of entries.
func (c *LRU) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// Get returns the value stored under key and marks it recently used.
func (c *LRU) Get(key string) (Sizer, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	el, ok := c.items[key]
	if !ok {
		c.misses++
		return nil, false
	}
	c.hits++
	c.order.MoveToFront(el)
	return el.Value.(*entry).value, true
}

// Put stores value under key. A value larger than the whole budget is not
// stored.
func (c *LRU) Put(key string, value Sizer) {
	size := value.ByteCount()
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.items[key]; ok {
		c.used -= el.Value.(*entry).size
		c.order.Remove(el)
		delete(c.items, key)
	}
	if size > c.max {
		return
	}
	c.items[key] = c.order.PushFront(&entry{key: key, value: value, size: size})
	c.used += size
	c.evict()
}

// Remove drops key from the cache.
func (c *LRU) Remove(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.items[key]; ok {
		c.removeElement(el)
	}
}

// Stats returns the hit and miss counts.
func (c *LRU) Stats() (hits, misses uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}

// evict drops least recently used entries until used fits max. Callers
// hold mu.
func (c *LRU) evict() {
	for c.used > c.max {
		el := c.order.Back()
		if el == nil {
			return
		}
		c.removeElement(el)
	}
}

func (c *LRU) removeElement(el *list.Element) {
	e := el.Value.(*entry)
	c.order.Remove(el)
	delete(c.items, e.key)
	c.used -= e.size
}
