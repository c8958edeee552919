package xlparse

import (
	"context"
	"fmt"
	"io"
)

// ParseFile parses the workbook at path and writes its records to w.
func ParseFile(ctx context.Context, path string, cfg *Config, w RecordWriter, opts ...Option) error {
	g, err := OpenFile(path)
	if err != nil {
		return err
	}
	defer g.Close()
	return ParseGrid(ctx, g, cfg, w, opts...)
}

// ParseReader parses a workbook read from r and writes its records to w.
func ParseReader(ctx context.Context, r io.Reader, cfg *Config, w RecordWriter, opts ...Option) error {
	g, err := OpenReader(r)
	if err != nil {
		return err
	}
	defer g.Close()
	return ParseGrid(ctx, g, cfg, w, opts...)
}

// ParseGrid parses g and writes its records to w.
func ParseGrid(ctx context.Context, g Grid, cfg *Config, w RecordWriter, opts ...Option) error {
	p, err := NewParser(cfg, opts...)
	if err != nil {
		return err
	}
	return p.Parse(ctx, g, NewRecordBuilder(p.Schema(), w))
}

// ParseRecords parses the workbook at path into memory.
func ParseRecords(ctx context.Context, path string, cfg *Config, opts ...Option) (Schema, []Record, error) {
	var w MemoryWriter
	p, err := NewParser(cfg, opts...)
	if err != nil {
		return nil, nil, err
	}
	g, err := OpenFile(path)
	if err != nil {
		return nil, nil, err
	}
	defer g.Close()
	if err := p.Parse(ctx, g, NewRecordBuilder(p.Schema(), &w)); err != nil {
		return nil, nil, fmt.Errorf("parse %q: %w", path, err)
	}
	return p.Schema(), w.Records(), nil
}
