package main

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"log"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mtlprog/carfinder/internal/config"
	"github.com/mtlprog/carfinder/internal/database"
	"github.com/mtlprog/carfinder/internal/export"
	"github.com/mtlprog/carfinder/internal/mmr"
	"github.com/mtlprog/carfinder/internal/pipeline"
	"github.com/mtlprog/carfinder/internal/source"
	"github.com/mtlprog/carfinder/internal/valuation"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// migrations returns the embedded migration files at the root of an FS.
func migrations() (fs.FS, error) {
	sub, err := fs.Sub(migrationsFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("opening embedded migrations: %w", err)
	}
	return sub, nil
}

// migrate brings the database schema up to date. Every command that
// touches the database calls it first.
func migrate(ctx context.Context, pool *pgxpool.Pool) error {
	sub, err := migrations()
	if err != nil {
		return err
	}
	return database.RunMigrations(ctx, pool, sub)
}

// loadPipelineConfig reads the pipeline file named by the environment.
// A broken file stops the process before any listing is processed.
func loadPipelineConfig(cfg config.Config) pipeline.Config {
	pcfg, err := config.LoadPipeline(cfg.PipelineConfigPath)
	if err != nil {
		log.Fatalf("Failed to load pipeline config %s: %v", cfg.PipelineConfigPath, err)
	}
	return pcfg
}

// newLookup picks the remote valuation API when MMR_URL is set and the
// offline stub otherwise.
func newLookup(cfg config.Config, pcfg pipeline.Config) valuation.ValueLookup {
	var lookup valuation.ValueLookup
	if cfg.MMRURL != "" {
		lookup = mmr.NewRealClient(cfg.MMRURL, mmr.Credentials{
			Username: cfg.MMRUsername,
			Password: cfg.MMRPassword,
		}, cfg.MMRRetryMax, cfg.MMRRetryBaseDelay)
	} else {
		slog.Warn("MMR_URL not set, using stub valuations")
		lookup = mmr.NewStubClient(mmr.DefaultStubValue, pcfg.ConfirmedVINPrefixes...)
	}

	if cfg.VINCacheTTL > 0 {
		lookup = valuation.NewCachedLookup(lookup, cfg.VINCacheTTL)
	}
	return lookup
}

func newProcessor(cfg config.Config, pcfg pipeline.Config) *pipeline.Service {
	return pipeline.NewService(newLookup(cfg, pcfg), cfg.Concurrency, cfg.LookupTimeout)
}

// newFetcher builds the listing sources named in a comma-separated list.
func newFetcher(cfg config.Config, names string) source.Fetcher {
	var fetchers []source.Fetcher
	for _, name := range strings.Split(names, ",") {
		switch strings.TrimSpace(name) {
		case config.ListingSourceStatic:
			fetchers = append(fetchers, source.NewStatic(config.ListingSourceStatic, source.SampleListings()))
		case config.ListingSourceAutoTrader:
			fetchers = append(fetchers, source.NewAutoTrader(cfg.AutoTraderURL))
		case "":
		default:
			log.Fatalf("Unknown listing source %q", name)
		}
	}
	if len(fetchers) == 0 {
		log.Fatalf("No listing source configured")
	}
	if len(fetchers) == 1 {
		return fetchers[0]
	}
	return source.NewMulti(fetchers...)
}

// newExporter combines the XLSX and Google Sheets writers that are configured.
func newExporter(ctx context.Context, cfg config.Config, xlsxPath string) *export.Exporter {
	var writers []export.Writer
	if xlsxPath != "" {
		writers = append(writers, export.NewXLSXWriter(xlsxPath))
	}
	if cfg.SheetsSpreadsheetID != "" && cfg.GoogleCredentialsJSON != "" {
		sw, err := export.NewSheetsWriter(ctx, cfg.SheetsSpreadsheetID, cfg.GoogleCredentialsJSON)
		if err != nil {
			slog.Error("Google Sheets export disabled", "error", err)
		} else {
			writers = append(writers, sw)
		}
	}
	return export.NewExporter(writers...)
}
