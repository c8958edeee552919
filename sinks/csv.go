package sinks

import (
	"context"
	"encoding/csv"
	"io"

	"github.com/javajack/xlparse"
)

// CSVWriter writes records as CSV with a header line before the first batch.
type CSVWriter struct {
	w      *csv.Writer
	closer io.Closer
	header bool
}

// NewCSVWriter writes to w. If w is an io.Closer, Close closes it.
func NewCSVWriter(w io.Writer) *CSVWriter {
	cw := &CSVWriter{w: csv.NewWriter(w)}
	if c, ok := w.(io.Closer); ok {
		cw.closer = c
	}
	return cw
}

// WriteRecords writes a batch. Null values are empty fields.
func (c *CSVWriter) WriteRecords(ctx context.Context, schema xlparse.Schema, records []xlparse.Record) error {
	if !c.header {
		if err := c.w.Write(schema.Names()); err != nil {
			return err
		}
		c.header = true
	}
	row := make([]string, len(schema))
	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			return err
		}
		for i := range schema {
			row[i] = textValue(rec[i])
		}
		if err := c.w.Write(row); err != nil {
			return err
		}
	}
	c.w.Flush()
	return c.w.Error()
}

// Close flushes and closes the underlying writer when it is closable.
func (c *CSVWriter) Close() error {
	c.w.Flush()
	if err := c.w.Error(); err != nil {
		return err
	}
	if c.closer != nil {
		return c.closer.Close()
	}
	return nil
}
