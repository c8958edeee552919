package xlparse

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// SchemaColumn is one output column.
type SchemaColumn struct {
	Name string
	Type TargetType
}

// Schema describes the records written to a Sink.
type Schema []SchemaColumn

// Names returns the column names in order.
func (s Schema) Names() []string {
	out := make([]string, len(s))
	for i, c := range s {
		out[i] = c.Name
	}
	return out
}

// Record is one row of output values, indexed like the Schema.
type Record []Value

// Sink receives typed values column by column. AddRecord commits the current
// record; Flush hands everything committed so far downstream. Flush may be
// called at any point between records.
type Sink interface {
	SetNull(col int)
	SetBoolean(col int, v bool)
	SetLong(col int, v int64)
	SetDouble(col int, v float64)
	SetString(col int, v string)
	SetTimestamp(col int, v time.Time)
	SetJSON(col int, v string)

	AddRecord() error
	Flush(ctx context.Context) error
}

// writeValue dispatches v to the matching setter.
func writeValue(s Sink, col int, v Value) {
	if v.Null {
		s.SetNull(col)
		return
	}
	switch v.Type {
	case TypeBoolean:
		s.SetBoolean(col, v.Bool)
	case TypeLong:
		s.SetLong(col, v.Long)
	case TypeDouble:
		s.SetDouble(col, v.Double)
	case TypeTimestamp:
		s.SetTimestamp(col, v.Time)
	case TypeJSON:
		s.SetJSON(col, v.String)
	default:
		s.SetString(col, v.String)
	}
}

// RecordWriter persists batches of records.
type RecordWriter interface {
	WriteRecords(ctx context.Context, schema Schema, records []Record) error
	Close() error
}

// RecordBuilder is a Sink that buffers committed records and passes them to
// a RecordWriter on Flush.
type RecordBuilder struct {
	schema  Schema
	writer  RecordWriter
	current Record
	pending []Record
	written int
}

// NewRecordBuilder creates a RecordBuilder for schema writing to w.
func NewRecordBuilder(schema Schema, w RecordWriter) *RecordBuilder {
	b := &RecordBuilder{schema: schema, writer: w}
	b.reset()
	return b
}

func (b *RecordBuilder) reset() {
	b.current = make(Record, len(b.schema))
	for i, c := range b.schema {
		b.current[i] = NullValue(c.Type)
	}
}

func (b *RecordBuilder) set(col int, v Value) {
	v.Type = b.schema[col].Type
	b.current[col] = v
}

func (b *RecordBuilder) SetNull(col int)                   { b.set(col, Value{Null: true}) }
func (b *RecordBuilder) SetBoolean(col int, v bool)        { b.set(col, Value{Bool: v}) }
func (b *RecordBuilder) SetLong(col int, v int64)          { b.set(col, Value{Long: v}) }
func (b *RecordBuilder) SetDouble(col int, v float64)      { b.set(col, Value{Double: v}) }
func (b *RecordBuilder) SetString(col int, v string)       { b.set(col, Value{String: v}) }
func (b *RecordBuilder) SetTimestamp(col int, v time.Time) { b.set(col, Value{Time: v}) }
func (b *RecordBuilder) SetJSON(col int, v string)         { b.set(col, Value{String: v}) }

// AddRecord commits the current record and starts a new one.
func (b *RecordBuilder) AddRecord() error {
	b.pending = append(b.pending, b.current)
	b.reset()
	return nil
}

// Flush writes pending records.
func (b *RecordBuilder) Flush(ctx context.Context) error {
	if len(b.pending) == 0 {
		return nil
	}
	if err := b.writer.WriteRecords(ctx, b.schema, b.pending); err != nil {
		return fmt.Errorf("write %d records: %w", len(b.pending), err)
	}
	b.written += len(b.pending)
	b.pending = nil
	return nil
}

// Written returns the number of records flushed so far.
func (b *RecordBuilder) Written() int { return b.written }

// MemoryWriter keeps written records in memory.
type MemoryWriter struct {
	mu      sync.Mutex
	schema  Schema
	records []Record
	batches int
}

// WriteRecords appends a batch.
func (w *MemoryWriter) WriteRecords(_ context.Context, schema Schema, records []Record) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.schema = schema
	w.records = append(w.records, records...)
	w.batches++
	return nil
}

// Close is a no-op.
func (w *MemoryWriter) Close() error { return nil }

// Records returns everything written so far.
func (w *MemoryWriter) Records() []Record {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]Record(nil), w.records...)
}

// Batches returns the number of WriteRecords calls.
func (w *MemoryWriter) Batches() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.batches
}

// Rows returns the written records as plain Go values.
func (w *MemoryWriter) Rows() [][]any {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([][]any, len(w.records))
	for i, r := range w.records {
		row := make([]any, len(r))
		for j, v := range r {
			row[j] = v.Interface()
		}
		out[i] = row
	}
	return out
}

// Schema returns the schema of the last batch.
func (w *MemoryWriter) Schema() Schema {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.schema
}
