package valuation

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

type cacheEntry struct {
	value     decimal.Decimal
	found     bool
	expiresAt time.Time
}

// CachedLookup memoizes a ValueLookup per VIN, including "not found"
// answers. Errors are never cached.
type CachedLookup struct {
	next    ValueLookup
	ttl     time.Duration
	mu      sync.RWMutex
	entries map[string]cacheEntry
}

// NewCachedLookup wraps next with a TTL cache.
func NewCachedLookup(next ValueLookup, ttl time.Duration) *CachedLookup {
	return &CachedLookup{
		next:    next,
		ttl:     ttl,
		entries: make(map[string]cacheEntry),
	}
}

// LookupConfirmedValue implements ValueLookup.
func (c *CachedLookup) LookupConfirmedValue(ctx context.Context, vin string) (decimal.Decimal, bool, error) {
	if entry, ok := c.get(vin); ok {
		return entry.value, entry.found, nil
	}

	value, found, err := c.next.LookupConfirmedValue(ctx, vin)
	if err != nil {
		return decimal.Zero, false, err
	}
	c.set(vin, value, found)
	return value, found, nil
}

func (c *CachedLookup) get(vin string) (cacheEntry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[vin]
	if !ok || time.Now().After(entry.expiresAt) {
		return cacheEntry{}, false
	}
	return entry, true
}

func (c *CachedLookup) set(vin string, value decimal.Decimal, found bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[vin] = cacheEntry{
		value:     value,
		found:     found,
		expiresAt: time.Now().Add(c.ttl),
	}
}
