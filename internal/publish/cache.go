// internal/publish/cache.go
package publish

import (
	"sync"
	"time"
)

// Cache wraps a Publisher with last-good-value memory. It suppresses
// republication of unchanged scalars, makes staleness queryable instead
// of implicit, and supports a forced full republish after a transport
// recovery. Arrays always pass through: every delivered scan is
// published even when its samples repeat.
type Cache struct {
	sink Publisher

	mu      sync.Mutex
	entries map[string]entry
	gen     uint64
}

type entry struct {
	value any
	at    time.Time
	gen   uint64
}

func NewCache(sink Publisher) *Cache {
	return &Cache{
		sink:    sink,
		entries: make(map[string]entry),
	}
}

// ForceAll makes every subsequent publish pass through once, even if the
// value is unchanged.
func (c *Cache) ForceAll() {
	c.mu.Lock()
	c.gen++
	c.mu.Unlock()
}

// LastGood returns the most recent successfully published value for an
// attribute and when it was published.
func (c *Cache) LastGood(name string, ch int) (any, time.Time, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[Key(name, ch)]
	if !ok {
		return nil, time.Time{}, false
	}
	return e.value, e.at, true
}

// publishScalar delivers v unless it matches the value already published
// in the current generation.
func (c *Cache) publishScalar(name string, ch int, v any, deliver func() error) error {
	key := Key(name, ch)

	c.mu.Lock()
	if e, ok := c.entries[key]; ok && e.gen == c.gen && e.value == v {
		c.mu.Unlock()
		return nil
	}
	gen := c.gen
	c.mu.Unlock()

	if err := deliver(); err != nil {
		return err
	}

	c.mu.Lock()
	c.entries[key] = entry{value: v, at: time.Now(), gen: gen}
	c.mu.Unlock()
	return nil
}

func (c *Cache) PublishInt(name string, ch int, v int64) error {
	return c.publishScalar(name, ch, v, func() error {
		return c.sink.PublishInt(name, ch, v)
	})
}

func (c *Cache) PublishFloat(name string, ch int, v float64) error {
	return c.publishScalar(name, ch, v, func() error {
		return c.sink.PublishFloat(name, ch, v)
	})
}

func (c *Cache) PublishString(name string, ch int, v string) error {
	return c.publishScalar(name, ch, v, func() error {
		return c.sink.PublishString(name, ch, v)
	})
}

func (c *Cache) PublishFloatArray(name string, ch int, values []float32, count int) error {
	if err := c.sink.PublishFloatArray(name, ch, values, count); err != nil {
		return err
	}
	c.mu.Lock()
	c.entries[Key(name, ch)] = entry{value: count, at: time.Now(), gen: c.gen}
	c.mu.Unlock()
	return nil
}
