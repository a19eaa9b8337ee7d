package engine

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/roach88/armstrong/internal/ir"
)

// DefaultClosureCacheSize bounds the number of memoized closures.
const DefaultClosureCacheSize = 256

// ClosureCache memoizes closure queries against a WorkingSet.
//
// Entries are keyed on the set's generation, so any Push, Pop or Reset makes
// earlier entries unreachable; they age out of the LRU.
type ClosureCache struct {
	cache *lru.Cache[string, ir.AttrSet]
}

// NewClosureCache creates a cache holding at most size closures.
func NewClosureCache(size int) (*ClosureCache, error) {
	c, err := lru.New[string, ir.AttrSet](size)
	if err != nil {
		return nil, fmt.Errorf("closure cache: %w", err)
	}
	return &ClosureCache{cache: c}, nil
}

// Closure returns the closure of attrs under ws, computing it on a miss.
func (c *ClosureCache) Closure(ws *WorkingSet, attrs ir.AttrSet) ir.AttrSet {
	key := fmt.Sprintf("%p/%d/%s", ws, ws.Generation(), attrs.Key())
	if hit, ok := c.cache.Get(key); ok {
		return hit
	}
	result := ws.Closure(attrs)
	c.cache.Add(key, result)
	return result
}

// Len returns the number of cached closures.
func (c *ClosureCache) Len() int {
	return c.cache.Len()
}
