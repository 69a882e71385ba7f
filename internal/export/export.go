// Package export projects scan results for human operators: a terminal
// table, an XLSX workbook and a Google spreadsheet.
package export

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mtlprog/carfinder/internal/scan"
)

// Writer writes one scan run to a destination.
type Writer interface {
	Name() string
	Write(ctx context.Context, run scan.Run) error
}

// Exporter fans a scan run out to every configured writer.
type Exporter struct {
	writers []Writer
}

// NewExporter creates an Exporter. Nil writers are skipped.
func NewExporter(writers ...Writer) *Exporter {
	e := &Exporter{}
	for _, w := range writers {
		if w != nil {
			e.writers = append(e.writers, w)
		}
	}
	return e
}

// Len returns the number of configured writers.
func (e *Exporter) Len() int {
	return len(e.writers)
}

// Export writes run with every writer. A failing writer does not stop the
// others; all failures are returned joined.
// Implements worker.AfterScanHook.
func (e *Exporter) Export(ctx context.Context, run scan.Run) error {
	var errs []error
	for _, w := range e.writers {
		if err := w.Write(ctx, run); err != nil {
			errs = append(errs, fmt.Errorf("%s export: %w", w.Name(), err))
			continue
		}
		slog.Debug("export written", "writer", w.Name(), "run", run.ID)
	}
	return errors.Join(errs...)
}
