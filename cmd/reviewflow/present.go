package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spacesedan/reviewflow/internal/export"
	"github.com/spacesedan/reviewflow/internal/processing"
	"github.com/spacesedan/reviewflow/internal/report"
)

// present prints notices and the report, then writes the CSV file when the
// run produced reviews.
func present(w io.Writer, res *processing.Result, out string) error {
	for _, n := range res.Notices {
		fmt.Fprintf(w, "[%s] %s\n", n.Level, n.Message)
	}
	if res.State == processing.StateFailed {
		return fmt.Errorf("run %s failed during collection", res.RunID)
	}
	if res.Empty() {
		return nil
	}

	report.Render(w, report.Summarize(res.Reviews, res.Topics))

	if out == "" {
		return nil
	}
	if err := writeCSV(out, res); err != nil {
		return err
	}
	slog.Info("[Main] Results written",
		slog.String("file", out),
		slog.Int("reviews", len(res.Reviews)))
	return nil
}

func writeCSV(out string, res *processing.Result) error {
	f, err := os.Create(out)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", out, err)
	}
	if err := writeAndClose(f, res); err != nil {
		return fmt.Errorf("failed to write %s: %w", out, err)
	}
	return nil
}

// writeAndClose reports a failed Close when the write itself succeeded.
func writeAndClose(wc io.WriteCloser, res *processing.Result) (err error) {
	defer func() {
		if cerr := wc.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return export.WriteCSV(wc, res.Reviews, ',')
}
