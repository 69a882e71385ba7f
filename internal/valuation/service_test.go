package valuation

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mtlprog/carfinder/internal/domain"
)

type mockLookup struct {
	values map[string]decimal.Decimal
	err    error
	calls  atomic.Int32
}

func (m *mockLookup) LookupConfirmedValue(_ context.Context, vin string) (decimal.Decimal, bool, error) {
	m.calls.Add(1)
	if m.err != nil {
		return decimal.Zero, false, m.err
	}
	v, ok := m.values[vin]
	return v, ok, nil
}

type slowLookup struct{}

func (s *slowLookup) LookupConfirmedValue(ctx context.Context, _ string) (decimal.Decimal, bool, error) {
	select {
	case <-ctx.Done():
		return decimal.Zero, false, ctx.Err()
	case <-time.After(time.Second):
		return decimal.NewFromInt(1), true, nil
	}
}

func defaultConfig() Config {
	return Config{
		ConfirmedPrefixes:  DefaultConfirmedPrefixes,
		FallbackMultiplier: DefaultFallbackMultiplier,
	}
}

func TestEstimateConfirmed(t *testing.T) {
	lookup := &mockLookup{values: map[string]decimal.Decimal{
		"1FTFW1E53MFB12345": decimal.NewFromInt(28000),
	}}
	svc := NewService(lookup, defaultConfig())

	value, conf := svc.Estimate(context.Background(), "1FTFW1E53MFB12345", decimal.NewFromInt(29930), false)
	if conf != domain.ConfidenceConfirmed {
		t.Fatalf("confidence = %q, want confirmed", conf)
	}
	if !value.Equal(decimal.NewFromInt(28000)) {
		t.Errorf("value = %s, want 28000", value)
	}
}

func TestEstimateFallbackForForeignVIN(t *testing.T) {
	lookup := &mockLookup{values: map[string]decimal.Decimal{}}
	svc := NewService(lookup, defaultConfig())

	value, conf := svc.Estimate(context.Background(), "2HKRW2H59LH123456", decimal.NewFromInt(21170), true)
	if conf != domain.ConfidenceEstimated {
		t.Fatalf("confidence = %q, want estimated", conf)
	}
	if !value.Equal(decimal.NewFromInt(23287)) {
		t.Errorf("value = %s, want 23287", value)
	}
	if got := lookup.calls.Load(); got != 0 {
		t.Errorf("lookup called %d times for a non-confirmed prefix, want 0", got)
	}
}

func TestEstimateUnknownWithoutFallback(t *testing.T) {
	svc := NewService(&mockLookup{}, defaultConfig())

	for _, vin := range []string{"", "JTMBFREV8KD123456"} {
		value, conf := svc.Estimate(context.Background(), vin, decimal.NewFromInt(25000), false)
		if conf != domain.ConfidenceUnknown {
			t.Errorf("vin %q: confidence = %q, want unknown", vin, conf)
		}
		if value != nil {
			t.Errorf("vin %q: value = %s, want nil", vin, value)
		}
	}
}

func TestEstimateLookupNotFoundFallsBack(t *testing.T) {
	svc := NewService(&mockLookup{values: map[string]decimal.Decimal{}}, defaultConfig())

	_, conf := svc.Estimate(context.Background(), "4T1BF1FK5CU123456", decimal.NewFromInt(10000), true)
	if conf != domain.ConfidenceEstimated {
		t.Errorf("confidence = %q, want estimated", conf)
	}

	_, conf = svc.Estimate(context.Background(), "4T1BF1FK5CU123456", decimal.NewFromInt(10000), false)
	if conf != domain.ConfidenceUnknown {
		t.Errorf("confidence = %q, want unknown", conf)
	}
}

func TestEstimateLookupErrorDegrades(t *testing.T) {
	svc := NewService(&mockLookup{err: errors.New("valuation service down")}, defaultConfig())

	value, conf := svc.Estimate(context.Background(), "5YJ3E1EA7KF123456", decimal.NewFromInt(20000), true)
	if conf != domain.ConfidenceEstimated {
		t.Fatalf("confidence = %q, want estimated", conf)
	}
	if !value.Equal(decimal.NewFromInt(22000)) {
		t.Errorf("value = %s, want 22000", value)
	}
}

func TestEstimateLookupTimeout(t *testing.T) {
	cfg := defaultConfig()
	cfg.LookupTimeout = 20 * time.Millisecond
	svc := NewService(&slowLookup{}, cfg)

	start := time.Now()
	_, conf := svc.Estimate(context.Background(), "1FTFW1E53MFB12345", decimal.NewFromInt(20000), false)
	if conf != domain.ConfidenceUnknown {
		t.Errorf("confidence = %q, want unknown after timeout", conf)
	}
	if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
		t.Errorf("lookup took %v, timeout not applied", elapsed)
	}
}

func TestEstimateNilLookup(t *testing.T) {
	svc := NewService(nil, defaultConfig())

	_, conf := svc.Estimate(context.Background(), "1FTFW1E53MFB12345", decimal.NewFromInt(20000), true)
	if conf != domain.ConfidenceEstimated {
		t.Errorf("confidence = %q, want estimated", conf)
	}
}

func TestHasConfirmedOrigin(t *testing.T) {
	svc := NewService(nil, Config{ConfirmedPrefixes: []string{"1", "4", "5", ""}})

	tests := []struct {
		vin  string
		want bool
	}{
		{"1FTFW1E53MFB12345", true},
		{"4T1BF1FK5CU123456", true},
		{"5YJ3E1EA7KF123456", true},
		{" 1ftfw1e53mfb12345", true},
		{"2HKRW2H59LH123456", false},
		{"JTMBFREV8KD123456", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := svc.HasConfirmedOrigin(tt.vin); got != tt.want {
			t.Errorf("HasConfirmedOrigin(%q) = %v, want %v", tt.vin, got, tt.want)
		}
	}
}
