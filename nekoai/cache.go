package nekoai

import (
	"context"
	"sync"
)

// VibeCache stores encoded vibe tokens keyed by source image, extraction
// weight and model, so repeated generations with the same reference do
// not pay for re-encoding. Implementations must be safe for concurrent
// use.
type VibeCache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, encoded string) error
}

// MemoryVibeCache is the default in-process VibeCache.
type MemoryVibeCache struct {
	mu      sync.RWMutex
	entries map[string]string
}

// NewMemoryVibeCache returns an empty in-process cache.
func NewMemoryVibeCache() *MemoryVibeCache {
	return &MemoryVibeCache{entries: make(map[string]string)}
}

func (c *MemoryVibeCache) Get(_ context.Context, key string) (string, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	encoded, ok := c.entries[key]
	return encoded, ok, nil
}

func (c *MemoryVibeCache) Set(_ context.Context, key, encoded string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = encoded
	return nil
}
