package valuation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestCachedLookupHitAndMiss(t *testing.T) {
	inner := &mockLookup{values: map[string]decimal.Decimal{
		"1FTFW1E53MFB12345": decimal.NewFromInt(28000),
	}}
	c := NewCachedLookup(inner, time.Minute)
	ctx := context.Background()

	for range 3 {
		v, found, err := c.LookupConfirmedValue(ctx, "1FTFW1E53MFB12345")
		if err != nil || !found || !v.Equal(decimal.NewFromInt(28000)) {
			t.Fatalf("lookup = (%s, %v, %v), want (28000, true, nil)", v, found, err)
		}
		if _, found, _ := c.LookupConfirmedValue(ctx, "1GCUYDED0LZ123456"); found {
			t.Fatal("unknown VIN reported as found")
		}
	}

	if got := inner.calls.Load(); got != 2 {
		t.Errorf("inner calls = %d, want 2 (one per VIN)", got)
	}
}

func TestCachedLookupDoesNotCacheErrors(t *testing.T) {
	inner := &mockLookup{err: errors.New("boom")}
	c := NewCachedLookup(inner, time.Minute)

	for range 2 {
		if _, _, err := c.LookupConfirmedValue(context.Background(), "1FTFW1E53MFB12345"); err == nil {
			t.Fatal("expected error")
		}
	}
	if got := inner.calls.Load(); got != 2 {
		t.Errorf("inner calls = %d, want 2 (errors not cached)", got)
	}
}

func TestCachedLookupExpiry(t *testing.T) {
	inner := &mockLookup{values: map[string]decimal.Decimal{"1FTFW1E53MFB12345": decimal.NewFromInt(1)}}
	c := NewCachedLookup(inner, time.Minute)
	ctx := context.Background()

	c.LookupConfirmedValue(ctx, "1FTFW1E53MFB12345")

	c.mu.Lock()
	entry := c.entries["1FTFW1E53MFB12345"]
	entry.expiresAt = time.Now().Add(-1 * time.Second)
	c.entries["1FTFW1E53MFB12345"] = entry
	c.mu.Unlock()

	c.LookupConfirmedValue(ctx, "1FTFW1E53MFB12345")
	if got := inner.calls.Load(); got != 2 {
		t.Errorf("inner calls = %d, want 2 after expiry", got)
	}
}
