package qrcode

import (
	"context"
	"sync"
	"time"

	"github.com/ngenohkevin/cryptopay/internals/monitoring"
)

// cacheEntry represents a rendered image
type cacheEntry struct {
	png       []byte
	timestamp time.Time
}

// Cache keeps rendered images for a short while so repeated input
// (toggling currencies back and forth, page reloads) skips the encoder
type Cache struct {
	next     Encoder
	entries  map[string]*cacheEntry
	ttl      time.Duration
	recorder monitoring.Recorder
	mu       sync.RWMutex
	stop     chan struct{}
	stopOnce sync.Once
}

// NewCache wraps next with a TTL cache and starts its cleanup loop
func NewCache(next Encoder, ttl time.Duration, recorder monitoring.Recorder) *Cache {
	if recorder == nil {
		recorder = monitoring.NoopRecorder{}
	}
	c := &Cache{
		next:     next,
		entries:  make(map[string]*cacheEntry),
		ttl:      ttl,
		recorder: recorder,
		stop:     make(chan struct{}),
	}
	go c.cleanup()
	return c
}

func (c *Cache) Encode(ctx context.Context, text string, opts Options) ([]byte, error) {
	key := opts.key() + "|" + text
	if png, ok := c.get(key); ok {
		c.recorder.CacheLookup(true)
		return png, nil
	}
	c.recorder.CacheLookup(false)

	png, err := c.next.Encode(ctx, text, opts)
	if err != nil {
		return nil, err
	}
	c.set(key, png)
	return png, nil
}

func (c *Cache) get(key string) ([]byte, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, exists := c.entries[key]
	if !exists {
		return nil, false
	}
	if time.Since(entry.timestamp) > c.ttl {
		return nil, false
	}
	return entry.png, true
}

func (c *Cache) set(key string, png []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = &cacheEntry{
		png:       png,
		timestamp: time.Now(),
	}
}

// Len returns the number of stored entries, expired ones included
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Stop ends the cleanup loop
func (c *Cache) Stop() {
	c.stopOnce.Do(func() { close(c.stop) })
}

// cleanup periodically removes expired entries
func (c *Cache) cleanup() {
	interval := c.ttl
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.evictExpired()
		case <-c.stop:
			return
		}
	}
}

func (c *Cache) evictExpired() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	for key, entry := range c.entries {
		if now.Sub(entry.timestamp) > c.ttl {
			delete(c.entries, key)
		}
	}
}
