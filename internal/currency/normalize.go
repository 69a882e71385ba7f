// Package currency converts local listing prices into the target currency.
//
// Rates follow a single convention: a rate is the number of target-currency
// units bought by one local-currency unit, and conversion multiplies.
// For CAD→USD that is roughly 0.73, never the reciprocal 1.37.
package currency

import (
	"math"

	"github.com/shopspring/decimal"
)

// DefaultCADToUSD is the static CAD→USD rate used when no live rate is configured.
var DefaultCADToUSD = decimal.RequireFromString("0.73")

// DefaultFixedExpense is the flat per-vehicle cost (transport, fees) in CAD.
var DefaultFixedExpense = decimal.NewFromInt(2000)

const kmToMiles = 0.621371

// Normalize returns (priceLocal + fixedExpense) * rate, exactly.
func Normalize(priceLocal, fixedExpense, rate decimal.Decimal) decimal.Decimal {
	return priceLocal.Add(fixedExpense).Mul(rate)
}

// InvertRate turns a quote in the opposite direction (e.g. USD→CAD 1.37)
// into the multiply convention. Returns zero for a non-positive quote.
func InvertRate(quote decimal.Decimal) decimal.Decimal {
	if !quote.IsPositive() {
		return decimal.Zero
	}
	return decimal.NewFromInt(1).DivRound(quote, 8)
}

// KmToMiles converts kilometres to whole miles, rounding to nearest.
func KmToMiles(km int) int {
	return int(math.Round(float64(km) * kmToMiles))
}
