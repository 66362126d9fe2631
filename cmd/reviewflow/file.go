package main

import (
	"fmt"
	"io"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spacesedan/reviewflow/config"
	"github.com/spacesedan/reviewflow/internal/processing"
	"github.com/spf13/cobra"
)

func newFileCommand() *cobra.Command {
	var sep string
	var column string

	cmd := &cobra.Command{
		Use:   "file <PATH>",
		Short: "Analyze reviews from a CSV or XLSX file",
		Example: `  reviewflow file reviews.csv --sep ';' --column texto
  reviewflow file reviews.xlsx --column comentario`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			separator, err := parseSeparator(sep)
			if err != nil {
				return err
			}

			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("failed to open %s: %w", args[0], err)
			}
			defer f.Close()

			tbl, raw, err := processing.LoadUpload(processing.Upload{
				Name:      args[0],
				Reader:    f,
				Separator: separator,
			}, column)
			if err != nil {
				if tbl != nil {
					printPreview(cmd.OutOrStdout(), tbl)
				}
				return err
			}

			a, err := newApp(cmd.Context(), config.Load(), opts.topics)
			if err != nil {
				return err
			}
			defer a.Close()

			res := a.pipeline.AnalyzeRecords(cmd.Context(), processing.SourceUpload, raw)
			return present(cmd.OutOrStdout(), res, opts.out)
		},
	}

	cmd.Flags().StringVar(&sep, "sep", ",", `field separator: ",", ";" or "\t"`)
	cmd.Flags().StringVar(&column, "column", "texto", "column holding the review text")
	return cmd
}

// printPreview shows the columns and first rows of a table so the user can
// pick the right --column.
func printPreview(w io.Writer, t *processing.Table) {
	pt := table.NewWriter()
	pt.SetOutputMirror(w)
	pt.SetStyle(table.StyleLight)
	pt.SetTitle("Prévia do arquivo")

	header := make(table.Row, len(t.Header))
	for i, h := range t.Header {
		header[i] = h
	}
	pt.AppendHeader(header)
	for _, row := range t.Preview() {
		r := make(table.Row, len(row))
		for i, c := range row {
			r[i] = c
		}
		pt.AppendRow(r)
	}
	pt.Render()
}

func parseSeparator(raw string) (rune, error) {
	switch raw {
	case ",", "":
		return ',', nil
	case ";":
		return ';', nil
	case "\t", `\t`, "tab":
		return '\t', nil
	}
	return 0, fmt.Errorf("%w: unsupported separator %q", processing.ErrParseFailure, raw)
}
