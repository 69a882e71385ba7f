package pipeline

import (
	"errors"
	"fmt"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/mtlprog/carfinder/internal/currency"
	"github.com/mtlprog/carfinder/internal/profit"
	"github.com/mtlprog/carfinder/internal/valuation"
)

// ErrInvalidConfig is returned for a configuration that must stop the
// process before any batch runs.
var ErrInvalidConfig = errors.New("invalid pipeline configuration")

// Config is the per-run valuation policy.
type Config struct {
	FixedExpense         decimal.Decimal  `json:"fixedExpense"`
	ConversionRate       decimal.Decimal  `json:"conversionRate"`
	ConfirmedVINPrefixes []string         `json:"confirmedVinPrefixes"`
	FallbackMultiplier   decimal.Decimal  `json:"fallbackMultiplier"`
	ProfitTiers          profit.Table     `json:"profitTiers"`
	UpperSanityCap       *decimal.Decimal `json:"upperSanityCap,omitempty"`
	OnlyConfirmed        bool             `json:"onlyConfirmed"`
}

// DefaultConfig returns the CAD→USD export defaults.
func DefaultConfig() Config {
	return Config{
		FixedExpense:         currency.DefaultFixedExpense,
		ConversionRate:       currency.DefaultCADToUSD,
		ConfirmedVINPrefixes: append([]string(nil), valuation.DefaultConfirmedPrefixes...),
		FallbackMultiplier:   valuation.DefaultFallbackMultiplier,
		ProfitTiers:          profit.DefaultTable(),
	}
}

// Validate reports the first configuration problem, wrapped in ErrInvalidConfig.
func (c Config) Validate() error {
	if c.FixedExpense.IsNegative() {
		return fmt.Errorf("%w: fixed expense %s is negative", ErrInvalidConfig, c.FixedExpense)
	}
	if !c.ConversionRate.IsPositive() {
		return fmt.Errorf("%w: conversion rate %s must be positive", ErrInvalidConfig, c.ConversionRate)
	}
	if !c.FallbackMultiplier.IsPositive() {
		return fmt.Errorf("%w: fallback multiplier %s must be positive", ErrInvalidConfig, c.FallbackMultiplier)
	}
	if lo.Contains(c.ConfirmedVINPrefixes, "") {
		return fmt.Errorf("%w: empty confirmed VIN prefix", ErrInvalidConfig)
	}
	if c.UpperSanityCap != nil && !c.UpperSanityCap.IsPositive() {
		return fmt.Errorf("%w: sanity cap %s must be positive", ErrInvalidConfig, c.UpperSanityCap)
	}
	if err := c.ProfitTiers.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

func (c Config) evaluatorOptions() []profit.Option {
	var opts []profit.Option
	if c.UpperSanityCap != nil {
		opts = append(opts, profit.WithSanityCap(*c.UpperSanityCap))
	}
	if c.OnlyConfirmed {
		opts = append(opts, profit.WithOnlyConfirmed())
	}
	return opts
}
