package domain

import (
	"regexp"

	"github.com/shopspring/decimal"
)

const moneyPrecision = 2

var nonDigits = regexp.MustCompile(`[^\d]`)

// ParseDigits extracts the digits of scraped text like "$27,995" or "84 500 km".
// ok is false when the text holds no digits at all.
func ParseDigits(text string) (decimal.Decimal, bool) {
	digits := nonDigits.ReplaceAllString(text, "")
	if digits == "" {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(digits)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// FormatMoney renders a decimal with two decimal places for display.
// Calculations never round; only presentation does.
func FormatMoney(d decimal.Decimal) string {
	return d.StringFixed(moneyPrecision)
}

// FormatMoneyPtr is FormatMoney for optional values, returning "-" for nil.
func FormatMoneyPtr(d *decimal.Decimal) string {
	if d == nil {
		return "-"
	}
	return FormatMoney(*d)
}
