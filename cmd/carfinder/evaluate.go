package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/mtlprog/carfinder/internal/config"
	"github.com/mtlprog/carfinder/internal/domain"
	"github.com/mtlprog/carfinder/internal/export"
)

func evaluateCommand() *cli.Command {
	return &cli.Command{
		Name:      "evaluate",
		Usage:     "value listings from a JSON file and print the accepted ones",
		ArgsUsage: "FILE.json",
		Action:    runEvaluate,
	}
}

func runEvaluate(cCtx *cli.Context) error {
	if cCtx.Args().Len() != 1 {
		return cli.Exit("usage: carfinder evaluate FILE.json", 2)
	}
	path := cCtx.Args().First()

	listings, err := readListings(path)
	if err != nil {
		return err
	}

	cfg := config.Load()
	pcfg := loadPipelineConfig(cfg)

	report, err := newProcessor(cfg, pcfg).ProcessBatch(cCtx.Context, listings, pcfg)
	if err != nil {
		return fmt.Errorf("evaluating %s: %w", path, err)
	}

	export.RenderTable(os.Stdout, report)
	return nil
}

// readListings decodes a JSON array of listings.
func readListings(path string) ([]domain.Listing, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading listings: %w", err)
	}
	var listings []domain.Listing
	if err := json.Unmarshal(data, &listings); err != nil {
		return nil, fmt.Errorf("parsing listings in %s: %w", path, err)
	}
	return listings, nil
}
