package valuation

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/mtlprog/carfinder/internal/domain"
)

// DefaultConfirmedPrefixes are the leading VIN characters of US-built vehicles.
var DefaultConfirmedPrefixes = []string{"1", "4", "5"}

// DefaultFallbackMultiplier is the assumed markup of the US market over the
// converted Canadian price when no confirmed value exists.
var DefaultFallbackMultiplier = decimal.RequireFromString("1.10")

// ValueLookup fetches a confirmed market value for a VIN.
// found is false when the service has no value for the vehicle.
type ValueLookup interface {
	LookupConfirmedValue(ctx context.Context, vin string) (value decimal.Decimal, found bool, err error)
}

// Config holds the estimator policy.
type Config struct {
	ConfirmedPrefixes  []string
	FallbackMultiplier decimal.Decimal
	LookupTimeout      time.Duration // zero means no per-lookup timeout
}

// Service estimates listing values: confirmed lookup first, then the
// fallback multiplier, else unknown.
type Service struct {
	lookup ValueLookup
	cfg    Config
}

// NewService creates a valuation Service. lookup may be nil, in which case
// no listing is ever confirmed.
func NewService(lookup ValueLookup, cfg Config) *Service {
	return &Service{lookup: lookup, cfg: cfg}
}

// HasConfirmedOrigin reports whether the VIN starts with a configured prefix.
func (s *Service) HasConfirmedOrigin(vin string) bool {
	vin = domain.NormalizeVIN(vin)
	if vin == "" {
		return false
	}
	return lo.SomeBy(s.cfg.ConfirmedPrefixes, func(p string) bool {
		return p != "" && strings.HasPrefix(vin, strings.ToUpper(p))
	})
}

// Estimate returns a value estimate and its confidence. The value is nil
// when the confidence is unknown. Lookup failures never surface as errors:
// they fall through to the fallback path.
func (s *Service) Estimate(ctx context.Context, vin string, price decimal.Decimal, hasFallback bool) (*decimal.Decimal, domain.Confidence) {
	vin = domain.NormalizeVIN(vin)

	if s.lookup != nil && s.HasConfirmedOrigin(vin) {
		if value, ok := s.confirmedValue(ctx, vin); ok {
			return &value, domain.ConfidenceConfirmed
		}
	}

	if hasFallback {
		value := price.Mul(s.cfg.FallbackMultiplier)
		return &value, domain.ConfidenceEstimated
	}

	return nil, domain.ConfidenceUnknown
}

func (s *Service) confirmedValue(ctx context.Context, vin string) (decimal.Decimal, bool) {
	lookupCtx := ctx
	if s.cfg.LookupTimeout > 0 {
		var cancel context.CancelFunc
		lookupCtx, cancel = context.WithTimeout(ctx, s.cfg.LookupTimeout)
		defer cancel()
	}

	value, found, err := s.lookup.LookupConfirmedValue(lookupCtx, vin)
	if err != nil {
		slog.Warn("confirmed value lookup failed, using fallback", "vin", vin, "error", err)
		return decimal.Zero, false
	}
	return value, found
}
