package domain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// VINLength is the length of a modern (post-1981) vehicle identification number.
const VINLength = 17

// ErrMalformedListing marks a raw listing that is missing required fields.
// Such listings are dropped from a batch without aborting it.
var ErrMalformedListing = errors.New("malformed listing")

// Listing is a raw vehicle listing as supplied by a listing source.
type Listing struct {
	Source     string          `json:"source"`
	Title      string          `json:"title"`
	PriceLocal decimal.Decimal `json:"priceLocal"`
	MileageKm  *int            `json:"mileageKm,omitempty"`
	VIN        string          `json:"vin,omitempty"`
	Dealer     string          `json:"dealer,omitempty"`
	URL        string          `json:"url,omitempty"`
}

// NormalizeVIN trims whitespace and upper-cases a VIN.
func NormalizeVIN(vin string) string {
	return strings.ToUpper(strings.TrimSpace(vin))
}

// Validate checks the listing fields needed for valuation.
// The returned error wraps ErrMalformedListing.
func (l Listing) Validate() error {
	if !l.PriceLocal.IsPositive() {
		return fmt.Errorf("%w: price must be positive, got %s", ErrMalformedListing, l.PriceLocal.String())
	}
	if l.MileageKm != nil && *l.MileageKm < 0 {
		return fmt.Errorf("%w: negative mileage %d", ErrMalformedListing, *l.MileageKm)
	}
	if vin := NormalizeVIN(l.VIN); vin != "" && len(vin) != VINLength {
		return fmt.Errorf("%w: VIN %q must be %d characters", ErrMalformedListing, vin, VINLength)
	}
	return nil
}

// HasFallbackData reports whether the listing carries enough context
// (a VIN of any origin or a known mileage) for a heuristic valuation.
func (l Listing) HasFallbackData() bool {
	return NormalizeVIN(l.VIN) != "" || l.MileageKm != nil
}
