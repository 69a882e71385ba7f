// Package scan runs and stores listing scans.
package scan

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mtlprog/carfinder/internal/domain"
	"github.com/mtlprog/carfinder/internal/pipeline"
	"github.com/mtlprog/carfinder/internal/source"
)

// RateSourceStatic labels a run that used the configured rate.
const RateSourceStatic = "static"

// BatchProcessor values a batch of listings.
type BatchProcessor interface {
	ProcessBatch(ctx context.Context, listings []domain.Listing, cfg pipeline.Config) (domain.Report, error)
}

// RateResolver picks the conversion rate for a run, falling back to the
// configured one, and names its origin.
type RateResolver interface {
	CurrentRate(ctx context.Context, fallback decimal.Decimal, maxAge time.Duration) (decimal.Decimal, string)
}

// Option configures a Service.
type Option func(*Service)

// WithLiveRate resolves each run's rate through rates, accepting stored
// rates younger than maxAge.
func WithLiveRate(rates RateResolver, maxAge time.Duration) Option {
	return func(s *Service) {
		s.rates = rates
		s.rateMaxAge = maxAge
	}
}

// Service runs scans and retrieves stored runs.
type Service struct {
	fetcher    source.Fetcher
	processor  BatchProcessor
	repo       Repository
	cfg        pipeline.Config
	rates      RateResolver
	rateMaxAge time.Duration
	now        func() time.Time
}

// NewService creates a new scan Service.
func NewService(fetcher source.Fetcher, processor BatchProcessor, repo Repository, cfg pipeline.Config, opts ...Option) *Service {
	if fetcher == nil || processor == nil || repo == nil {
		panic("scan.NewService: nil dependency")
	}
	s := &Service{
		fetcher:   fetcher,
		processor: processor,
		repo:      repo,
		cfg:       cfg,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Config returns the pipeline configuration applied to every run.
func (s *Service) Config() pipeline.Config {
	return s.cfg
}

// Run fetches listings, values them and stores the run.
func (s *Service) Run(ctx context.Context) (Run, error) {
	return s.RunWith(ctx, s.cfg)
}

// RunWith is Run with a one-off pipeline configuration.
func (s *Service) RunWith(ctx context.Context, cfg pipeline.Config) (Run, error) {
	started := s.now().UTC()

	listings, err := s.fetcher.FetchListings(ctx)
	if err != nil {
		return Run{}, fmt.Errorf("fetching listings: %w", err)
	}

	rateSource := RateSourceStatic
	if s.rates != nil {
		cfg.ConversionRate, rateSource = s.rates.CurrentRate(ctx, cfg.ConversionRate, s.rateMaxAge)
	}

	report, err := s.processor.ProcessBatch(ctx, listings, cfg)
	if err != nil {
		return Run{}, fmt.Errorf("processing batch: %w", err)
	}

	run := Run{
		StartedAt:      started,
		FinishedAt:     s.now().UTC(),
		Sources:        sourceNames(s.fetcher),
		ConversionRate: cfg.ConversionRate,
		RateSource:     rateSource,
		Total:          report.Total,
		Accepted:       report.Accepted,
		Dropped:        report.Dropped,
		Unknown:        report.Unknown,
		Report:         report,
	}

	id, err := s.repo.Save(ctx, run)
	if err != nil {
		return Run{}, fmt.Errorf("saving scan run: %w", err)
	}
	run.ID = id

	slog.Info("scan finished",
		"id", run.ID, "sources", run.Sources, "rate", run.ConversionRate.String(), "rateSource", run.RateSource,
		"total", run.Total, "accepted", run.Accepted, "dropped", run.Dropped, "unknown", run.Unknown,
		"duration", run.FinishedAt.Sub(run.StartedAt).String())
	return run, nil
}

// GetLatest retrieves the most recent run.
func (s *Service) GetLatest(ctx context.Context) (*Run, error) {
	return s.repo.GetLatest(ctx)
}

// GetByID retrieves a run by its id.
func (s *Service) GetByID(ctx context.Context, id int64) (*Run, error) {
	return s.repo.GetByID(ctx, id)
}

// List retrieves recent runs, newest first.
func (s *Service) List(ctx context.Context, limit int) ([]Run, error) {
	return s.repo.List(ctx, ClampLimit(limit))
}

func sourceNames(f source.Fetcher) []string {
	if m, ok := f.(interface{ Names() []string }); ok {
		return m.Names()
	}
	return []string{f.Name()}
}
