// Package external keeps the live CAD→USD exchange rate.
package external

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
)

// Labels for where a scan's conversion rate came from.
const (
	RateSourceLive   = "live"
	RateSourceStatic = "static"
)

// RateFetcher retrieves the current CAD→USD rate from a remote source.
type RateFetcher interface {
	FetchRate(ctx context.Context) (ExchangeRate, error)
}

// Service manages stored exchange rates.
type Service struct {
	fetcher RateFetcher
	repo    RateRepository
	now     func() time.Time
}

// NewService creates a new exchange rate Service.
func NewService(fetcher RateFetcher, repo RateRepository) *Service {
	return &Service{
		fetcher: fetcher,
		repo:    repo,
		now:     time.Now,
	}
}

// FetchAndStoreRates fetches the live rate and stores it.
func (s *Service) FetchAndStoreRates(ctx context.Context) error {
	rate, err := s.fetcher.FetchRate(ctx)
	if err != nil {
		return fmt.Errorf("fetching exchange rate: %w", err)
	}

	if err := s.repo.SaveRate(ctx, rate); err != nil {
		return fmt.Errorf("storing rate for %s: %w", rate.Pair, err)
	}

	slog.Info("exchange rate updated", "pair", rate.Pair, "rate", rate.Rate.String(), "observedOn", rate.ObservedOn.Format(time.DateOnly))
	return nil
}

// CurrentRate returns the stored CAD→USD rate when it was updated within
// maxAge, otherwise fallback. The second value names the rate's origin.
func (s *Service) CurrentRate(ctx context.Context, fallback decimal.Decimal, maxAge time.Duration) (decimal.Decimal, string) {
	rate, err := s.repo.GetRate(ctx, PairCADUSD)
	switch {
	case errors.Is(err, ErrRateNotFound):
		slog.Info("no stored exchange rate, using static rate", "rate", fallback.String())
		return fallback, RateSourceStatic
	case err != nil:
		slog.Warn("failed to read stored exchange rate, using static rate", "error", err)
		return fallback, RateSourceStatic
	}

	if age := s.now().Sub(rate.UpdatedAt); maxAge > 0 && age > maxAge {
		slog.Warn("stored exchange rate is stale, using static rate",
			"updatedAt", rate.UpdatedAt, "age", age.Round(time.Minute).String(), "maxAge", maxAge.String())
		return fallback, RateSourceStatic
	}
	if !rate.Rate.IsPositive() {
		slog.Warn("stored exchange rate is not positive, using static rate", "rate", rate.Rate.String())
		return fallback, RateSourceStatic
	}

	return rate.Rate, RateSourceLive
}
