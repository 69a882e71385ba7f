package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"dario.cat/mergo"
	"github.com/shopspring/decimal"
	"github.com/titanous/json5"

	"github.com/mtlprog/carfinder/internal/pipeline"
	"github.com/mtlprog/carfinder/internal/profit"
)

// PipelineFile is the on-disk shape of the pipeline configuration.
// Absent fields keep their defaults.
type PipelineFile struct {
	FixedExpense         *decimal.Decimal `json:"fixedExpense"`
	ConversionRate       *decimal.Decimal `json:"conversionRate"`
	ConfirmedVINPrefixes []string         `json:"confirmedVinPrefixes"`
	FallbackMultiplier   *decimal.Decimal `json:"fallbackMultiplier"`
	ProfitTiers          *profit.Table    `json:"profitTiers"`
	UpperSanityCap       *decimal.Decimal `json:"upperSanityCap"`
	OnlyConfirmed        *bool            `json:"onlyConfirmed"`
}

// pointerReplacer makes a set pointer field in the override replace the
// base value outright, so an explicit false or a shorter tier table wins.
type pointerReplacer struct{}

func (pointerReplacer) Transformer(typ reflect.Type) func(dst, src reflect.Value) error {
	if typ.Kind() != reflect.Ptr {
		return nil
	}
	return func(dst, src reflect.Value) error {
		if !src.IsNil() && dst.CanSet() {
			dst.Set(src)
		}
		return nil
	}
}

// localPath returns <dir>/<name>.local.<ext> for <dir>/<name>.<ext>.
func localPath(path string) string {
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + ".local" + ext
}

func readPipelineFile(path string) (PipelineFile, bool, error) {
	var out PipelineFile
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return out, false, nil
	}
	if err != nil {
		return out, false, fmt.Errorf("reading %s: %w", path, err)
	}
	if err := json5.Unmarshal(data, &out); err != nil {
		return out, false, fmt.Errorf("parsing %s: %w", path, err)
	}
	return out, true, nil
}

// LoadPipeline reads the pipeline configuration from path and its
// <name>.local.<ext> sibling, the local file taking priority. Missing files
// are not an error: the defaults apply. A profitTiers block replaces the
// whole default table. The result is validated; errors wrap
// pipeline.ErrInvalidConfig.
func LoadPipeline(path string) (pipeline.Config, error) {
	cfg := pipeline.DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	base, found, err := readPipelineFile(path)
	if err != nil {
		return cfg, fmt.Errorf("%w: %w", pipeline.ErrInvalidConfig, err)
	}

	local := localPath(path)
	override, localFound, err := readPipelineFile(local)
	if err != nil {
		return cfg, fmt.Errorf("%w: %w", pipeline.ErrInvalidConfig, err)
	}
	if localFound {
		if err := mergo.Merge(&base, override, mergo.WithOverride, mergo.WithTransformers(pointerReplacer{})); err != nil {
			return cfg, fmt.Errorf("merging %s: %w", local, err)
		}
		slog.Info("merging pipeline config with local overrides", "local", local)
	}

	if !found && !localFound {
		slog.Info("no pipeline config file, using defaults", "path", path)
	}

	base.ApplyTo(&cfg)
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// ApplyTo copies every field set in f onto cfg.
func (f PipelineFile) ApplyTo(cfg *pipeline.Config) {
	if f.FixedExpense != nil {
		cfg.FixedExpense = *f.FixedExpense
	}
	if f.ConversionRate != nil {
		cfg.ConversionRate = *f.ConversionRate
	}
	if len(f.ConfirmedVINPrefixes) > 0 {
		cfg.ConfirmedVINPrefixes = f.ConfirmedVINPrefixes
	}
	if f.FallbackMultiplier != nil {
		cfg.FallbackMultiplier = *f.FallbackMultiplier
	}
	if f.ProfitTiers != nil {
		cfg.ProfitTiers = *f.ProfitTiers
	}
	if f.UpperSanityCap != nil {
		cfg.UpperSanityCap = f.UpperSanityCap
	}
	if f.OnlyConfirmed != nil {
		cfg.OnlyConfirmed = *f.OnlyConfirmed
	}
}
