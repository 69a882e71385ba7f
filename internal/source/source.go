// Package source supplies raw vehicle listings.
package source

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mtlprog/carfinder/internal/domain"
)

// Fetcher retrieves raw listings from one listing site.
type Fetcher interface {
	Name() string
	FetchListings(ctx context.Context) ([]domain.Listing, error)
}

// Multi fetches from several sources one after another.
type Multi struct {
	fetchers []Fetcher
}

// NewMulti creates a Multi over fetchers, queried in order.
func NewMulti(fetchers ...Fetcher) *Multi {
	return &Multi{fetchers: fetchers}
}

func (m *Multi) Name() string {
	return strings.Join(m.Names(), "+")
}

// Names lists the underlying source names.
func (m *Multi) Names() []string {
	names := make([]string, len(m.fetchers))
	for i, f := range m.fetchers {
		names[i] = f.Name()
	}
	return names
}

// FetchListings concatenates the listings of every source. A failing source
// is logged and skipped; the call fails only when every source fails.
func (m *Multi) FetchListings(ctx context.Context) ([]domain.Listing, error) {
	var (
		all  []domain.Listing
		errs []error
	)
	for _, f := range m.fetchers {
		if err := ctx.Err(); err != nil {
			return all, err
		}

		listings, err := f.FetchListings(ctx)
		if err != nil {
			slog.Warn("listing source failed", "source", f.Name(), "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", f.Name(), err))
			continue
		}
		slog.Info("fetched listings", "source", f.Name(), "count", len(listings))
		all = append(all, listings...)
	}

	if len(m.fetchers) > 0 && len(errs) == len(m.fetchers) {
		return nil, fmt.Errorf("all listing sources failed: %w", errors.Join(errs...))
	}
	return all, nil
}
