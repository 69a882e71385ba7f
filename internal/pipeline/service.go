// Package pipeline turns raw listings into valued, filtered results.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mtlprog/carfinder/internal/currency"
	"github.com/mtlprog/carfinder/internal/domain"
	"github.com/mtlprog/carfinder/internal/profit"
	"github.com/mtlprog/carfinder/internal/valuation"
)

const defaultConcurrency = 4

// Service processes listing batches. It holds no per-batch state, so the
// same input and config always yield the same report.
type Service struct {
	lookup        valuation.ValueLookup
	concurrency   int
	lookupTimeout time.Duration
}

// NewService creates a pipeline Service. lookup may be nil to disable
// confirmed valuations; concurrency <= 0 selects the default.
func NewService(lookup valuation.ValueLookup, concurrency int, lookupTimeout time.Duration) *Service {
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}
	return &Service{
		lookup:        lookup,
		concurrency:   concurrency,
		lookupTimeout: lookupTimeout,
	}
}

// ProcessBatch values every listing and applies the acceptance rule.
// Malformed listings are dropped and counted. Results keep input order.
// If ctx is cancelled mid-batch, the partial report is returned along with
// ctx.Err(); listings never evaluated count as dropped.
func (s *Service) ProcessBatch(ctx context.Context, listings []domain.Listing, cfg Config) (domain.Report, error) {
	if err := cfg.Validate(); err != nil {
		return domain.Report{}, err
	}

	estimator := valuation.NewService(s.lookup, valuation.Config{
		ConfirmedPrefixes:  cfg.ConfirmedVINPrefixes,
		FallbackMultiplier: cfg.FallbackMultiplier,
		LookupTimeout:      s.lookupTimeout,
	})
	evaluator := profit.NewEvaluator(cfg.ProfitTiers, cfg.evaluatorOptions()...)

	slots := make([]*domain.ValuationResult, len(listings))
	sem := make(chan struct{}, s.concurrency)
	var wg sync.WaitGroup

	for i, listing := range listings {
		if ctx.Err() != nil {
			break
		}
		if err := listing.Validate(); err != nil {
			slog.Warn("dropping malformed listing",
				"source", listing.Source, "title", listing.Title, "url", listing.URL, "error", err)
			continue
		}

		wg.Add(1)
		go func(idx int, l domain.Listing) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			res := evaluateListing(ctx, l, cfg, estimator, evaluator)
			slots[idx] = &res
		}(i, listing)
	}

	wg.Wait()

	report := buildReport(slots, cfg.ConversionRate)
	if report.Dropped > 0 {
		slog.Info("batch finished with dropped listings", "total", report.Total, "dropped", report.Dropped)
	}
	if err := ctx.Err(); err != nil {
		return report, fmt.Errorf("batch interrupted: %w", err)
	}
	return report, nil
}

func evaluateListing(ctx context.Context, l domain.Listing, cfg Config, estimator *valuation.Service, evaluator *profit.Evaluator) domain.ValuationResult {
	price := currency.Normalize(l.PriceLocal, cfg.FixedExpense, cfg.ConversionRate)
	value, confidence := estimator.Estimate(ctx, l.VIN, price, l.HasFallbackData())

	res := evaluator.Evaluate(price, value, confidence)
	res.Listing = l
	if l.MileageKm != nil {
		miles := currency.KmToMiles(*l.MileageKm)
		res.MileageMiles = &miles
	}
	return res
}

func buildReport(slots []*domain.ValuationResult, rate decimal.Decimal) domain.Report {
	report := domain.Report{
		Results:        make([]domain.ValuationResult, 0, len(slots)),
		Total:          len(slots),
		ConversionRate: rate,
	}

	for _, res := range slots {
		if res == nil {
			report.Dropped++
			continue
		}
		report.Results = append(report.Results, *res)

		switch res.Confidence {
		case domain.ConfidenceConfirmed:
			report.Confirmed++
		case domain.ConfidenceEstimated:
			report.Estimated++
		default:
			report.Unknown++
		}
		if res.Accepted {
			report.Accepted++
		}
	}

	return report
}
