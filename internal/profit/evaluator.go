// Package profit decides whether a valued listing clears the required margin.
package profit

import (
	"github.com/shopspring/decimal"

	"github.com/mtlprog/carfinder/internal/domain"
)

// Evaluator applies the tiered acceptance rule.
type Evaluator struct {
	table         Table
	sanityCap     *decimal.Decimal
	onlyConfirmed bool
}

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithSanityCap rejects listings whose profit reaches cap, which usually
// means a bad price or a bad valuation rather than a bargain.
func WithSanityCap(limit decimal.Decimal) Option {
	return func(e *Evaluator) { e.sanityCap = &limit }
}

// WithOnlyConfirmed accepts only listings with a confirmed valuation.
func WithOnlyConfirmed() Option {
	return func(e *Evaluator) { e.onlyConfirmed = true }
}

// NewEvaluator creates an Evaluator. The table is expected to be validated.
func NewEvaluator(table Table, opts ...Option) *Evaluator {
	e := &Evaluator{table: table}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Evaluate computes profit and acceptance for a target-currency price.
// value may be nil only when confidence is unknown.
func (e *Evaluator) Evaluate(price decimal.Decimal, value *decimal.Decimal, confidence domain.Confidence) domain.ValuationResult {
	result := domain.ValuationResult{
		PriceTarget:    price,
		Confidence:     confidence,
		RequiredProfit: e.table.RequiredProfit(price),
	}

	if confidence == domain.ConfidenceUnknown || value == nil {
		result.Confidence = domain.ConfidenceUnknown
		return result
	}

	v := *value
	profit := v.Sub(price)
	result.Value = &v
	result.Profit = &profit
	result.Accepted = e.accepts(profit, result.RequiredProfit, confidence)
	return result
}

func (e *Evaluator) accepts(profit, required decimal.Decimal, confidence domain.Confidence) bool {
	if profit.LessThan(required) {
		return false
	}
	if e.sanityCap != nil && !profit.LessThan(*e.sanityCap) {
		return false
	}
	if e.onlyConfirmed && confidence != domain.ConfidenceConfirmed {
		return false
	}
	return true
}
