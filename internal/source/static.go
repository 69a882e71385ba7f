package source

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/mtlprog/carfinder/internal/domain"
)

// Static serves a fixed set of listings.
type Static struct {
	name     string
	listings []domain.Listing
}

// NewStatic creates a Static source.
func NewStatic(name string, listings []domain.Listing) *Static {
	return &Static{name: name, listings: listings}
}

func (s *Static) Name() string { return s.name }

// FetchListings returns a copy of the configured listings.
func (s *Static) FetchListings(ctx context.Context) ([]domain.Listing, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return append([]domain.Listing(nil), s.listings...), nil
}

// SampleListings returns demo listings from three Canadian sites.
func SampleListings() []domain.Listing {
	return []domain.Listing{
		{
			Source:     "AutoTrader",
			Title:      "2021 Ford F-150",
			PriceLocal: decimal.NewFromInt(39000),
			VIN:        "1FTFW1E53MFB12345",
			URL:        "https://example.com/1",
		},
		{
			Source:     "Kijiji",
			Title:      "2020 Honda CR-V",
			PriceLocal: decimal.NewFromInt(27000),
			VIN:        "2HKRW2H59LH123456",
			URL:        "https://example.com/2",
		},
		{
			Source:     "CarGurus",
			Title:      "2019 Toyota RAV4",
			PriceLocal: decimal.NewFromInt(34000),
			VIN:        "JTMBFREV8KD123456",
			URL:        "https://example.com/3",
		},
	}
}
