package main

import (
	"fmt"
	"io"
	"os"

	"github.com/javajack/xlparse"
	"github.com/javajack/xlparse/sinks"
	"github.com/spf13/cobra"
)

var (
	outputPath    string
	outputFormat  string
	postgresTable string
	flushCount    int
	ignoreMissing bool
)

var runCmd = &cobra.Command{
	Use:   "run <input.xlsx>",
	Short: "Parse a workbook and write its records",
	Long: `Parse a workbook and write its records as JSON lines (default), CSV, or
into a PostgreSQL table with --postgres-table. The connection string is read
from DATABASE_URL.`,
	Args: cobra.ExactArgs(1),
	RunE: runParse,
}

func init() {
	runCmd.Flags().StringVarP(&outputPath, "output", "o", "", "Output file path (default: stdout)")
	runCmd.Flags().StringVar(&outputFormat, "format", "jsonl", "Output format: jsonl or csv")
	runCmd.Flags().StringVar(&postgresTable, "postgres-table", "", "Copy records into this PostgreSQL table instead of a file")
	runCmd.Flags().IntVar(&flushCount, "flush-count", 0, "Records per batch (default: flush_count, else 100)")
	runCmd.Flags().BoolVar(&ignoreMissing, "ignore-sheet-not-found", false, "Skip configured sheets missing from the workbook")
	rootCmd.AddCommand(runCmd)
}

func runParse(cmd *cobra.Command, args []string) error {
	log, cfg, opts, err := setup()
	if err != nil {
		return err
	}
	if flushCount > 0 {
		opts = append(opts, xlparse.WithFlushCount(flushCount))
	}
	if cmd.Flags().Changed("ignore-sheet-not-found") {
		opts = append(opts, xlparse.WithIgnoreSheetNotFound(ignoreMissing))
	}

	p, err := xlparse.NewParser(cfg, opts...)
	if err != nil {
		return err
	}
	w, err := openWriter(cmd, p.Schema())
	if err != nil {
		return err
	}

	g, err := xlparse.OpenFile(args[0])
	if err != nil {
		w.Close()
		return err
	}
	defer g.Close()

	b := xlparse.NewRecordBuilder(p.Schema(), w)
	if err := p.Parse(cmd.Context(), g, b); err != nil {
		w.Close()
		return fmt.Errorf("parse %s: %w", args[0], err)
	}
	if err := w.Close(); err != nil {
		return err
	}
	log.Info().Int("records", b.Written()).Str("input", args[0]).Msg("done")
	return nil
}

// openWriter picks the record writer from the output flags.
func openWriter(cmd *cobra.Command, schema xlparse.Schema) (xlparse.RecordWriter, error) {
	if postgresTable != "" {
		dsn := os.Getenv("DATABASE_URL")
		if dsn == "" {
			return nil, fmt.Errorf("--postgres-table needs DATABASE_URL")
		}
		db, err := sinks.OpenPostgres(cmd.Context(), dsn)
		if err != nil {
			return nil, err
		}
		pw := sinks.NewPostgresWriter(db, postgresTable)
		if err := pw.CreateTable(cmd.Context(), schema); err != nil {
			db.Close()
			return nil, err
		}
		return &dbWriter{PostgresWriter: pw, db: db}, nil
	}

	// stdout is wrapped so that closing the writer leaves it open
	var out io.Writer = struct{ io.Writer }{os.Stdout}
	if outputPath != "" {
		f, err := os.Create(outputPath)
		if err != nil {
			return nil, fmt.Errorf("create output file %q: %w", outputPath, err)
		}
		out = f
	}

	switch outputFormat {
	case "jsonl":
		return sinks.NewJSONLWriter(out), nil
	case "csv":
		return sinks.NewCSVWriter(out), nil
	}
	if c, ok := out.(io.Closer); ok {
		c.Close()
	}
	return nil, fmt.Errorf("invalid format: %s (must be jsonl or csv)", outputFormat)
}

// dbWriter closes the connection pool with the writer.
type dbWriter struct {
	*sinks.PostgresWriter
	db io.Closer
}

func (d *dbWriter) Close() error { return d.db.Close() }
