package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/mtlprog/carfinder/internal/api"
	"github.com/mtlprog/carfinder/internal/config"
	"github.com/mtlprog/carfinder/internal/database"
	"github.com/mtlprog/carfinder/internal/external"
	"github.com/mtlprog/carfinder/internal/scan"
	"github.com/mtlprog/carfinder/internal/worker"
)

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:   "serve",
		Usage:  "run periodic scans and the HTTP API",
		Action: runServe,
	}
}

func runServe(cCtx *cli.Context) error {
	ctx := cCtx.Context
	cfg := config.Load()
	pcfg := loadPipelineConfig(cfg)

	// Connect to database
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is required")
	}

	pool, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	if err := migrate(ctx, pool); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	processor := newProcessor(cfg, pcfg)

	var opts []scan.Option
	if cfg.RateSource == config.RateSourceLive {
		rates := external.NewService(
			external.NewBankOfCanadaClient(cfg.RateURL, cfg.RateRetryBaseDelay, cfg.RateRetryMax),
			external.NewPgRateRepository(pool),
		)
		opts = append(opts, scan.WithLiveRate(rates, cfg.RateMaxAge))

		rateWorker := worker.NewRateWorker(rates, cfg.RateWorkerInterval)
		go rateWorker.Run(ctx)
	}

	scanSvc := scan.NewService(newFetcher(cfg, cfg.ListingSource), processor, scan.NewPgRepository(pool), pcfg, opts...)

	var hook worker.AfterScanHook
	if exporter := newExporter(ctx, cfg, cfg.XLSXPath); exporter.Len() > 0 {
		hook = exporter
	}
	scanWorker := worker.NewScanWorker(scanSvc, cfg.ScanWorkerInterval, hook)
	go scanWorker.Run(ctx)

	if cfg.AdminAPIKey == "" {
		slog.Warn("ADMIN_API_KEY not set, scan trigger endpoint is unprotected")
	}

	// Start HTTP server
	srv := api.NewServer(cfg.HTTPPort, scanSvc, processor, cfg.AdminAPIKey)

	serveErr := make(chan error, 1)
	go func() {
		log.Printf("HTTP server listening on :%s", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	// Wait for shutdown signal or server failure
	select {
	case <-ctx.Done():
	case err := <-serveErr:
		return fmt.Errorf("HTTP server: %w", err)
	}
	log.Println("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}

	log.Println("Shutdown complete")
	return nil
}
