package innerhits

import (
	"fmt"

	"github.com/dgraph-io/ristretto"
	"go.uber.org/zap"

	"github.com/gcbaptista/go-inner-hits/internal/metrics"
)

// ResolutionCache memoises resolved candidate sets (nested slots or child documents).
// Keys embed the store generation, so an entry is never read after the data it was
// built from has changed. Cached slices are shared and must be treated as read-only.
type ResolutionCache struct {
	cache  *ristretto.Cache
	logger *zap.Logger
}

// NewResolutionCache creates a cache bounded by maxCost candidates.
// A non-positive maxCost returns nil, which disables caching.
func NewResolutionCache(maxCost int64, logger *zap.Logger) (*ResolutionCache, error) {
	if maxCost <= 0 {
		return nil, nil
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: maxCost * 10,
		MaxCost:     maxCost,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create resolution cache: %w", err)
	}
	return &ResolutionCache{cache: cache, logger: logger}, nil
}

func cacheKey(index string, generation uint64, docID uint32, base string, selector Selector) string {
	return fmt.Sprintf("%s|%d|%d|%s|%s", index, generation, docID, base, selector.Key())
}

func (c *ResolutionCache) getNested(key string) ([]NestedSlot, bool) {
	if c == nil {
		return nil, false
	}
	value, found := c.cache.Get(key)
	if !found {
		metrics.ResolutionCacheTotal.WithLabelValues("miss").Inc()
		return nil, false
	}
	slots, ok := value.([]NestedSlot)
	if !ok {
		c.logger.Warn("unexpected value type in resolution cache", zap.String("key", key), zap.String("type", fmt.Sprintf("%T", value)))
		return nil, false
	}
	metrics.ResolutionCacheTotal.WithLabelValues("hit").Inc()
	return slots, true
}

func (c *ResolutionCache) getChildren(key string) ([]ChildDoc, bool) {
	if c == nil {
		return nil, false
	}
	value, found := c.cache.Get(key)
	if !found {
		metrics.ResolutionCacheTotal.WithLabelValues("miss").Inc()
		return nil, false
	}
	children, ok := value.([]ChildDoc)
	if !ok {
		c.logger.Warn("unexpected value type in resolution cache", zap.String("key", key), zap.String("type", fmt.Sprintf("%T", value)))
		return nil, false
	}
	metrics.ResolutionCacheTotal.WithLabelValues("hit").Inc()
	return children, true
}

func (c *ResolutionCache) set(key string, value interface{}, size int) {
	if c == nil {
		return
	}
	c.cache.Set(key, value, int64(size)+1)
}

// Wait blocks until pending writes are visible to readers.
func (c *ResolutionCache) Wait() {
	if c != nil {
		c.cache.Wait()
	}
}

// Clear drops every entry.
func (c *ResolutionCache) Clear() {
	if c != nil {
		c.cache.Clear()
	}
}

// Close releases the cache's background goroutines.
func (c *ResolutionCache) Close() {
	if c != nil {
		c.cache.Close()
	}
}
