package domain

import (
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// Confidence tells how a value estimate was obtained.
type Confidence string

const (
	ConfidenceConfirmed Confidence = "confirmed" // VIN-keyed lookup succeeded
	ConfidenceEstimated Confidence = "estimated" // fallback multiplier applied
	ConfidenceUnknown   Confidence = "unknown"   // no valuation possible
)

// ValuationResult is the outcome of running one listing through the pipeline.
// Value and Profit are nil when Confidence is ConfidenceUnknown.
type ValuationResult struct {
	Listing        Listing          `json:"listing"`
	PriceTarget    decimal.Decimal  `json:"priceTarget"`
	Value          *decimal.Decimal `json:"value,omitempty"`
	Confidence     Confidence       `json:"confidence"`
	Profit         *decimal.Decimal `json:"profit,omitempty"`
	RequiredProfit decimal.Decimal  `json:"requiredProfit"`
	Accepted       bool             `json:"accepted"`
	MileageMiles   *int             `json:"mileageMiles,omitempty"`
}

// Report summarizes a processed batch. Results excludes dropped listings.
type Report struct {
	Results        []ValuationResult `json:"results"`
	Total          int               `json:"total"`
	Accepted       int               `json:"accepted"`
	Dropped        int               `json:"dropped"`
	Unknown        int               `json:"unknown"`
	Confirmed      int               `json:"confirmed"`
	Estimated      int               `json:"estimated"`
	ConversionRate decimal.Decimal   `json:"conversionRate"`
}

// AcceptedResults returns the accepted subset, preserving order.
func (r Report) AcceptedResults() []ValuationResult {
	return lo.Filter(r.Results, func(res ValuationResult, _ int) bool {
		return res.Accepted
	})
}
