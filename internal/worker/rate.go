package worker

import (
	"context"
	"log/slog"
	"time"
)

// RateFetcher fetches and stores the live exchange rate.
type RateFetcher interface {
	FetchAndStoreRates(ctx context.Context) error
}

// RateWorker periodically refreshes the stored exchange rate.
type RateWorker struct {
	fetcher  RateFetcher
	interval time.Duration
}

// NewRateWorker creates a new RateWorker.
func NewRateWorker(fetcher RateFetcher, interval time.Duration) *RateWorker {
	return &RateWorker{
		fetcher:  fetcher,
		interval: interval,
	}
}

// Run starts the rate worker loop. It blocks until the context is cancelled.
func (w *RateWorker) Run(ctx context.Context) {
	slog.Info("RateWorker: starting", "interval", w.interval.String())

	// Fetch immediately on startup
	if err := w.fetcher.FetchAndStoreRates(ctx); err != nil {
		slog.Error("RateWorker: initial fetch failed", "error", err)
	} else {
		slog.Info("RateWorker: initial fetch completed")
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("RateWorker: shutting down")
			return
		case <-ticker.C:
			if err := w.fetcher.FetchAndStoreRates(ctx); err != nil {
				slog.Error("RateWorker: fetch failed", "error", err)
			} else {
				slog.Info("RateWorker: fetch completed")
			}
		}
	}
}
