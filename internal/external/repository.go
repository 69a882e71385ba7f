package external

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// ErrRateNotFound is returned when no rate is stored for a pair.
var ErrRateNotFound = errors.New("exchange rate not found")

// ExchangeRate is a stored conversion rate in the multiply convention.
type ExchangeRate struct {
	Pair       string          `json:"pair"`
	Rate       decimal.Decimal `json:"rate"`
	ObservedOn time.Time       `json:"observedOn"`
	UpdatedAt  time.Time       `json:"updatedAt"`
}

// RateRepository defines persistent storage for exchange rates.
type RateRepository interface {
	SaveRate(ctx context.Context, rate ExchangeRate) error
	GetRate(ctx context.Context, pair string) (ExchangeRate, error)
}

// PgRateRepository implements RateRepository with PostgreSQL.
type PgRateRepository struct {
	pool *pgxpool.Pool
}

// NewPgRateRepository creates a new PostgreSQL rate repository.
func NewPgRateRepository(pool *pgxpool.Pool) *PgRateRepository {
	return &PgRateRepository{pool: pool}
}

func (r *PgRateRepository) SaveRate(ctx context.Context, rate ExchangeRate) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO exchange_rates (pair, rate, observed_on, updated_at)
		 VALUES ($1, $2, $3, NOW())
		 ON CONFLICT (pair) DO UPDATE SET rate = $2, observed_on = $3, updated_at = NOW()`,
		rate.Pair, rate.Rate, rate.ObservedOn)
	if err != nil {
		return fmt.Errorf("saving rate for %s: %w", rate.Pair, err)
	}
	return nil
}

func (r *PgRateRepository) GetRate(ctx context.Context, pair string) (ExchangeRate, error) {
	var rate ExchangeRate
	err := r.pool.QueryRow(ctx,
		`SELECT pair, rate, observed_on, updated_at FROM exchange_rates WHERE pair = $1`,
		pair).Scan(&rate.Pair, &rate.Rate, &rate.ObservedOn, &rate.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ExchangeRate{}, ErrRateNotFound
	}
	if err != nil {
		return ExchangeRate{}, fmt.Errorf("getting rate for %s: %w", pair, err)
	}
	return rate, nil
}
