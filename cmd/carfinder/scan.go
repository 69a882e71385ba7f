package main

import (
	"fmt"
	"log"
	"os"

	"github.com/shopspring/decimal"
	"github.com/urfave/cli/v2"

	"github.com/mtlprog/carfinder/internal/config"
	"github.com/mtlprog/carfinder/internal/database"
	"github.com/mtlprog/carfinder/internal/export"
	"github.com/mtlprog/carfinder/internal/external"
	"github.com/mtlprog/carfinder/internal/pipeline"
	"github.com/mtlprog/carfinder/internal/scan"
)

func scanCommand() *cli.Command {
	return &cli.Command{
		Name:  "scan",
		Usage: "fetch listings once, value them and print the accepted ones",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "rate", Usage: "CAD→USD conversion rate (USD per CAD)"},
			&cli.StringFlag{Name: "fixed-expense", Usage: "fixed per-vehicle expense in CAD, added before conversion"},
			&cli.BoolFlag{Name: "only-confirmed", Usage: "accept only VIN-confirmed valuations"},
			&cli.PathFlag{Name: "xlsx", Usage: "also write the results to this workbook", TakesFile: true},
			&cli.StringFlag{Name: "source", Usage: "listing sources, comma separated: static, autotrader"},
		},
		Action: runScan,
	}
}

func runScan(cCtx *cli.Context) error {
	ctx := cCtx.Context
	cfg := config.Load()
	pcfg := applyScanFlags(cCtx, loadPipelineConfig(cfg))

	sources := cfg.ListingSource
	if cCtx.IsSet("source") {
		sources = cCtx.String("source")
	}
	xlsxPath := cfg.XLSXPath
	if cCtx.IsSet("xlsx") {
		xlsxPath = cCtx.Path("xlsx")
	}

	var (
		repo scan.Repository = scan.NewMemoryRepository()
		opts []scan.Option
	)
	if cfg.DatabaseURL != "" {
		pool, err := database.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("connecting to database: %w", err)
		}
		defer pool.Close()
		if err := migrate(ctx, pool); err != nil {
			return fmt.Errorf("running migrations: %w", err)
		}
		repo = scan.NewPgRepository(pool)

		if cfg.RateSource == config.RateSourceLive && !cCtx.IsSet("rate") {
			rates := external.NewService(
				external.NewBankOfCanadaClient(cfg.RateURL, cfg.RateRetryBaseDelay, cfg.RateRetryMax),
				external.NewPgRateRepository(pool),
			)
			opts = append(opts, scan.WithLiveRate(rates, cfg.RateMaxAge))
		}
	}

	scanSvc := scan.NewService(newFetcher(cfg, sources), newProcessor(cfg, pcfg), repo, pcfg, opts...)
	run, err := scanSvc.Run(ctx)
	if err != nil {
		return err
	}

	export.RenderTable(os.Stdout, run.Report)

	exporter := newExporter(ctx, cfg, xlsxPath)
	if exporter.Len() > 0 {
		if err := exporter.Export(ctx, run); err != nil {
			return err
		}
	}
	return nil
}

// applyScanFlags overrides the pipeline file with command-line flags and
// re-validates the result.
func applyScanFlags(cCtx *cli.Context, pcfg pipeline.Config) pipeline.Config {
	if cCtx.IsSet("rate") {
		pcfg.ConversionRate = mustDecimal("rate", cCtx.String("rate"))
	}
	if cCtx.IsSet("fixed-expense") {
		pcfg.FixedExpense = mustDecimal("fixed-expense", cCtx.String("fixed-expense"))
	}
	if cCtx.IsSet("only-confirmed") {
		pcfg.OnlyConfirmed = cCtx.Bool("only-confirmed")
	}
	if err := pcfg.Validate(); err != nil {
		log.Fatalf("Invalid pipeline configuration: %v", err)
	}
	return pcfg
}

func mustDecimal(flag, value string) decimal.Decimal {
	d, err := decimal.NewFromString(value)
	if err != nil {
		log.Fatalf("Invalid --%s %q: %v", flag, value, err)
	}
	return d
}
