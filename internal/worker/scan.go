package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/mtlprog/carfinder/internal/scan"
)

// ScanRunner runs one listing scan.
type ScanRunner interface {
	Run(ctx context.Context) (scan.Run, error)
}

// AfterScanHook is called after each successful scan.
type AfterScanHook interface {
	Export(ctx context.Context, run scan.Run) error
}

// ScanWorker periodically scans listing sources.
type ScanWorker struct {
	runner   ScanRunner
	interval time.Duration
	hook     AfterScanHook // optional
}

// NewScanWorker creates a new ScanWorker with an optional post-scan hook.
func NewScanWorker(runner ScanRunner, interval time.Duration, hook AfterScanHook) *ScanWorker {
	return &ScanWorker{
		runner:   runner,
		interval: interval,
		hook:     hook,
	}
}

// runHook calls the post-scan hook if one is configured.
func (w *ScanWorker) runHook(ctx context.Context, run scan.Run) {
	if w.hook == nil {
		return
	}
	if err := w.hook.Export(ctx, run); err != nil {
		slog.Error("ScanWorker: export hook failed", "run", run.ID, "error", err)
	} else {
		slog.Info("ScanWorker: export hook completed", "run", run.ID)
	}
}

func (w *ScanWorker) scanOnce(ctx context.Context, label string) {
	run, err := w.runner.Run(ctx)
	if err != nil {
		slog.Error("ScanWorker: "+label+" failed", "error", err)
		return
	}
	slog.Info("ScanWorker: "+label+" completed", "run", run.ID, "accepted", run.Accepted, "total", run.Total)
	w.runHook(ctx, run)
}

// Run starts the scan worker loop. It blocks until the context is cancelled.
func (w *ScanWorker) Run(ctx context.Context) {
	slog.Info("ScanWorker: starting", "interval", w.interval.String())

	// Scan immediately on startup
	w.scanOnce(ctx, "initial scan")

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("ScanWorker: shutting down")
			return
		case <-ticker.C:
			w.scanOnce(ctx, "scan")
		}
	}
}
