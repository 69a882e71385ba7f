package mmr

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/mtlprog/carfinder/internal/domain"
)

// DefaultStubValue is the placeholder MMR returned for covered VINs.
var DefaultStubValue = decimal.NewFromInt(28000)

// StubClient answers lookups offline: every VIN starting with one of its
// prefixes is worth the same fixed value, anything else is not found.
type StubClient struct {
	value    decimal.Decimal
	prefixes []string
}

// NewStubClient creates a StubClient returning value for the given prefixes.
// Prefixes match case-insensitively, like normalized VINs.
func NewStubClient(value decimal.Decimal, prefixes ...string) *StubClient {
	upper := make([]string, 0, len(prefixes))
	for _, p := range prefixes {
		if p = domain.NormalizeVIN(p); p != "" {
			upper = append(upper, p)
		}
	}
	return &StubClient{value: value, prefixes: upper}
}

func (s *StubClient) LookupConfirmedValue(ctx context.Context, vin string) (decimal.Decimal, bool, error) {
	if err := ctx.Err(); err != nil {
		return decimal.Zero, false, err
	}
	vin = domain.NormalizeVIN(vin)
	for _, p := range s.prefixes {
		if strings.HasPrefix(vin, p) {
			return s.value, true, nil
		}
	}
	return decimal.Zero, false, nil
}
