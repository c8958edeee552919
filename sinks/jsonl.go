// Package sinks provides RecordWriter implementations for parsed records.
package sinks

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/goccy/go-json"
	"github.com/javajack/xlparse"
)

// TimestampLayout is the text form of timestamp values in text outputs.
const TimestampLayout = "2006-01-02 15:04:05.000000 -0700"

// JSONLWriter writes one JSON object per record, keys in schema order.
type JSONLWriter struct {
	w      *bufio.Writer
	closer io.Closer
}

// NewJSONLWriter writes to w. If w is an io.Closer, Close closes it.
func NewJSONLWriter(w io.Writer) *JSONLWriter {
	jw := &JSONLWriter{w: bufio.NewWriter(w)}
	if c, ok := w.(io.Closer); ok {
		jw.closer = c
	}
	return jw
}

// WriteRecords encodes a batch and flushes it to the underlying writer.
func (j *JSONLWriter) WriteRecords(ctx context.Context, schema xlparse.Schema, records []xlparse.Record) error {
	var line bytes.Buffer
	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			return err
		}
		line.Reset()
		if err := encodeRecord(&line, schema, rec); err != nil {
			return err
		}
		line.WriteByte('\n')
		if _, err := j.w.Write(line.Bytes()); err != nil {
			return err
		}
	}
	return j.w.Flush()
}

// Close flushes and closes the underlying writer when it is closable.
func (j *JSONLWriter) Close() error {
	if err := j.w.Flush(); err != nil {
		return err
	}
	if j.closer != nil {
		return j.closer.Close()
	}
	return nil
}

func encodeRecord(b *bytes.Buffer, schema xlparse.Schema, rec xlparse.Record) error {
	b.WriteByte('{')
	for i, col := range schema {
		if i > 0 {
			b.WriteByte(',')
		}
		k, err := json.Marshal(col.Name)
		if err != nil {
			return err
		}
		b.Write(k)
		b.WriteByte(':')
		v, err := json.Marshal(jsonValue(rec[i]))
		if err != nil {
			return fmt.Errorf("encode column %s: %w", col.Name, err)
		}
		b.Write(v)
	}
	b.WriteByte('}')
	return nil
}

// jsonValue converts a value for JSON output. JSON columns are embedded as
// documents, timestamps use TimestampLayout.
func jsonValue(v xlparse.Value) any {
	if v.Null {
		return nil
	}
	switch v.Type {
	case xlparse.TypeJSON:
		return json.RawMessage(v.String)
	case xlparse.TypeTimestamp:
		return v.Time.Format(TimestampLayout)
	}
	return v.Interface()
}

// textValue converts a value for text outputs; null is "".
func textValue(v xlparse.Value) string {
	if v.Null {
		return ""
	}
	switch v.Type {
	case xlparse.TypeTimestamp:
		return v.Time.Format(TimestampLayout)
	case xlparse.TypeBoolean, xlparse.TypeLong, xlparse.TypeDouble:
		return fmt.Sprint(v.Interface())
	}
	return v.String
}

// sqlValue converts a value for database drivers.
func sqlValue(v xlparse.Value) any {
	if v.Null {
		return nil
	}
	if v.Type == xlparse.TypeTimestamp {
		return v.Time.In(time.UTC)
	}
	return v.Interface()
}
