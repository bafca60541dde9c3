package cache

import (
	"sync"
	"time"

	"parcelhub/internal/models"
)

// KV is the read cache for package aggregates, keyed by tracking id.
type KV interface {
	Put(key string, pkg models.Package)
	Get(key string) (models.Package, bool)
	Delete(key string)
	Snapshot() map[string]models.Package
}

type Cache struct {
	mu   sync.RWMutex
	data map[string]expiring

	ttl    time.Duration
	ticker *time.Ticker
	stop   chan struct{}
	now    func() time.Time
}

type Option func(*Cache)

func WithTTL(ttl time.Duration) Option { return func(c *Cache) { c.ttl = ttl } }

func NewCache(opts ...Option) *Cache {
	c := &Cache{
		data: make(map[string]expiring),
		stop: make(chan struct{}),
		now:  time.Now,
	}
	for _, o := range opts {
		o(c)
	}

	if c.ttl > 0 {
		c.ticker = time.NewTicker(c.ttl / 2)
		go func() {
			for {
				select {
				case <-c.ticker.C:
					c.purgeExpired()
				case <-c.stop:
					return
				}
			}
		}()
	}
	return c
}

func (c *Cache) Close() {
	if c.ticker != nil {
		c.ticker.Stop()
	}
	close(c.stop)
}

type expiring struct {
	P models.Package
	E time.Time
}

func (c *Cache) Put(key string, pkg models.Package) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e := expiring{P: pkg}
	if c.ttl > 0 {
		e.E = c.now().Add(c.ttl)
	}
	c.data[key] = e
}

func (c *Cache) Get(key string) (models.Package, bool) {
	c.mu.RLock()
	e, ok := c.data[key]
	c.mu.RUnlock()
	if !ok {
		return models.Package{}, false
	}
	if !e.E.IsZero() && c.now().After(e.E) {
		c.Delete(key)
		return models.Package{}, false
	}
	return e.P, true
}

func (c *Cache) Delete(key string) {
	c.mu.Lock()
	delete(c.data, key)
	c.mu.Unlock()
}

func (c *Cache) purgeExpired() {
	now := c.now()
	c.mu.Lock()
	for k, e := range c.data {
		if !e.E.IsZero() && now.After(e.E) {
			delete(c.data, k)
		}
	}
	c.mu.Unlock()
}

func (c *Cache) Snapshot() map[string]models.Package {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make(map[string]models.Package, len(c.data))
	now := c.now()
	for k, e := range c.data {
		if !e.E.IsZero() && now.After(e.E) {
			continue
		}
		out[k] = e.P
	}
	return out
}
