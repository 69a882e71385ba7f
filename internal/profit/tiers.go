package profit

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// ErrInvalidTiers is returned by Table.Validate for a malformed tier table.
var ErrInvalidTiers = errors.New("invalid profit tiers")

// Tier is a price bracket [Lower, Upper) with its required profit.
// A nil Upper makes the bracket open-ended; only the last tier may be open.
type Tier struct {
	Lower    decimal.Decimal  `json:"lower"`
	Upper    *decimal.Decimal `json:"upper,omitempty"`
	Required decimal.Decimal  `json:"required"`
}

// Contains reports whether price falls into the bracket.
func (t Tier) Contains(price decimal.Decimal) bool {
	if price.LessThan(t.Lower) {
		return false
	}
	return t.Upper == nil || price.LessThan(*t.Upper)
}

// Table is an ordered set of contiguous price brackets. Prices below the
// first bracket require Default.
type Table struct {
	Tiers   []Tier          `json:"tiers"`
	Default decimal.Decimal `json:"default"`
}

func bound(v int64) *decimal.Decimal {
	d := decimal.NewFromInt(v)
	return &d
}

// DefaultTable returns the standard target-currency brackets:
// [20k,30k)→3k, [30k,40k)→4k, [40k,50k)→5k, [50k,∞)→6k, otherwise 2k.
func DefaultTable() Table {
	return Table{
		Tiers: []Tier{
			{Lower: decimal.NewFromInt(20000), Upper: bound(30000), Required: decimal.NewFromInt(3000)},
			{Lower: decimal.NewFromInt(30000), Upper: bound(40000), Required: decimal.NewFromInt(4000)},
			{Lower: decimal.NewFromInt(40000), Upper: bound(50000), Required: decimal.NewFromInt(5000)},
			{Lower: decimal.NewFromInt(50000), Required: decimal.NewFromInt(6000)},
		},
		Default: decimal.NewFromInt(2000),
	}
}

// RequiredProfit returns the minimum profit for a target-currency price.
func (t Table) RequiredProfit(price decimal.Decimal) decimal.Decimal {
	for _, tier := range t.Tiers {
		if tier.Contains(price) {
			return tier.Required
		}
	}
	return t.Default
}

// Validate checks that brackets are non-empty, contiguous and ordered,
// that only the last one is open-ended and that thresholds are
// non-negative and non-decreasing.
func (t Table) Validate() error {
	if t.Default.IsNegative() {
		return fmt.Errorf("%w: negative default %s", ErrInvalidTiers, t.Default)
	}

	prevRequired := t.Default
	for i, tier := range t.Tiers {
		if tier.Lower.IsNegative() {
			return fmt.Errorf("%w: tier %d has negative lower bound %s", ErrInvalidTiers, i, tier.Lower)
		}
		if tier.Required.IsNegative() {
			return fmt.Errorf("%w: tier %d has negative threshold %s", ErrInvalidTiers, i, tier.Required)
		}
		if tier.Required.LessThan(prevRequired) {
			return fmt.Errorf("%w: tier %d threshold %s is below the previous %s", ErrInvalidTiers, i, tier.Required, prevRequired)
		}
		if tier.Upper == nil {
			if i != len(t.Tiers)-1 {
				return fmt.Errorf("%w: open-ended tier %d is not last", ErrInvalidTiers, i)
			}
		} else if !tier.Upper.GreaterThan(tier.Lower) {
			return fmt.Errorf("%w: tier %d upper %s not above lower %s", ErrInvalidTiers, i, tier.Upper, tier.Lower)
		}
		if i > 0 {
			prev := t.Tiers[i-1]
			if !prev.Upper.Equal(tier.Lower) {
				return fmt.Errorf("%w: tier %d starts at %s but previous ends at %s", ErrInvalidTiers, i, tier.Lower, prev.Upper)
			}
		}
		prevRequired = tier.Required
	}
	return nil
}
