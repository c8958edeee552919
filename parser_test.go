package xlparse

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func numberedGrid(sheet string, n int) *memGrid {
	g := newMemGrid(sheet)
	for i := 0; i < n; i++ {
		g.row(sheet, i, NumericCell(float64(i+1)))
	}
	return g
}

func TestParser_FlushCount(t *testing.T) {
	tests := []struct {
		name    string
		records int
		cfg     *int
		opt     int
		batches int
	}{
		{"default", 5, nil, 0, 1},
		{"option", 5, nil, 2, 3},
		{"config", 5, Ptr(3), 0, 2},
		{"option beats config", 5, Ptr(3), 1, 5},
		{"exact multiple", 4, nil, 2, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := numberedGrid("Sheet1", tt.records)
			cfg := sheet1(typed("n", "long", ColumnOptions{}))
			cfg.FlushCount = tt.cfg

			var opts []Option
			if tt.opt > 0 {
				opts = append(opts, WithFlushCount(tt.opt))
			}
			var w MemoryWriter
			require.NoError(t, ParseGrid(t.Context(), g, cfg, &w, opts...))
			assert.Len(t, w.Records(), tt.records)
			assert.Equal(t, tt.batches, w.Batches())
			assert.Equal(t, Schema{{Name: "n", Type: TypeLong}}, w.Schema())
		})
	}
}

func TestParser_SheetNotFound(t *testing.T) {
	g := numberedGrid("Sheet1", 2)
	cfg := &Config{Sheets: []string{"Sheet1", "Missing"}, Columns: []ColumnConfig{typed("n", "long", ColumnOptions{})}}

	var w MemoryWriter
	err := ParseGrid(t.Context(), g, cfg, &w)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSheetNotFound)
	assert.Len(t, w.Records(), 2, "records of earlier sheets are flushed")

	rows := parseAll(t, g, cfg, WithIgnoreSheetNotFound(true))
	assert.Equal(t, [][]any{{int64(1)}, {int64(2)}}, rows)

	cfg.IgnoreSheetNotFound = true
	rows = parseAll(t, g, cfg)
	assert.Len(t, rows, 2)

	_, err = parseErr(t, g, cfg, WithIgnoreSheetNotFound(false))
	assert.ErrorIs(t, err, ErrSheetNotFound)
}

func TestParser_ResolveSheets(t *testing.T) {
	g := newMemGrid("Data1", "Summary", "Sum1", "Data2", "[x]", "Exact")
	cfg := &Config{
		Sheet:   "Exact",
		Sheets:  []string{"Data*", "Sum?", "Data1", "[x]*", "Missing"},
		Columns: []ColumnConfig{typed("n", "long", ColumnOptions{})},
	}
	p, err := NewParser(cfg)
	require.NoError(t, err)

	sheets, err := p.ResolveSheets(g)
	require.NoError(t, err)
	assert.Equal(t, []string{"Exact", "Data1", "Data2", "Sum1", "[x]", "Missing"}, sheets)

	p, err = NewParser(cfg, WithSheets("S*"))
	require.NoError(t, err)
	sheets, err = p.ResolveSheets(g)
	require.NoError(t, err)
	assert.Equal(t, []string{"Summary", "Sum1"}, sheets)
}

func TestParser_MultipleSheetsInOrder(t *testing.T) {
	g := newMemGrid("B", "A")
	g.row("A", 0, StringCell("a1"))
	g.row("B", 0, StringCell("b1"))
	g.row("B", 1, StringCell("b2"))

	cfg := &Config{
		Sheets: []string{"*"},
		Columns: []ColumnConfig{
			typed("v", "string", ColumnOptions{}),
			typed("sheet", "string", ColumnOptions{Value: Ptr("sheet_name")}),
		},
	}
	rows := parseAll(t, g, cfg)
	assert.Equal(t, [][]any{{"b1", "B"}, {"b2", "B"}, {"a1", "A"}}, rows)
}

func TestParser_SheetsRequired(t *testing.T) {
	_, err := parseErr(t, newMemGrid("Sheet1"), &Config{Columns: []ColumnConfig{typed("n", "long", ColumnOptions{})}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Attribute sheets is required but not set")
}

func TestNewParser_InvalidType(t *testing.T) {
	_, err := NewParser(sheet1(typed("n", "integer", ColumnOptions{})))
	require.Error(t, err)

	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "n", cfgErr.Column)
}

func TestParser_ConfigErrorAbortsBeforeRecords(t *testing.T) {
	g := numberedGrid("Sheet1", 3)
	var w MemoryWriter
	err := ParseGrid(t.Context(), g, sheet1(
		typed("a", "long", ColumnOptions{}),
		typed("b", "long", ColumnOptions{CellColumn: Ptr("=missing")}),
	), &w)
	assert.ErrorIs(t, err, ErrUnknownColumnReference)
	assert.Empty(t, w.Records())
}

func TestParser_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	var w MemoryWriter
	err := ParseGrid(ctx, numberedGrid("Sheet1", 3), sheet1(typed("n", "long", ColumnOptions{})), &w)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestParser_Plan(t *testing.T) {
	cfg := sheet1(
		typed("a", "string", ColumnOptions{}),
		typed("b", "string", ColumnOptions{CellAddress: Ptr("C3")}),
	)
	cfg.SkipHeaderLines = Ptr(2)
	p, err := NewParser(cfg)
	require.NoError(t, err)

	specs, bindings, st, err := p.Plan("Sheet1")
	require.NoError(t, err)
	assert.Len(t, specs, 2)
	assert.Equal(t, "cell_column=A", bindings[0].Describe(st.Orientation))
	assert.Equal(t, "cell_address=C3", bindings[1].Describe(st.Orientation))
	assert.Equal(t, 2, st.Skip)
}

func TestParser_DebugLogsBindings(t *testing.T) {
	var buf bytes.Buffer
	log := zerolog.New(&buf).Level(zerolog.DebugLevel)

	g := numberedGrid("Sheet1", 1)
	parseAll(t, g, sheet1(
		typed("n", "long", ColumnOptions{}),
		typed("s", "string", ColumnOptions{Value: Ptr("sheet_name")}),
	), WithLogger(log))

	out := buf.String()
	assert.Contains(t, out, "column.name=n <- cell_column=A, value=cell_value")
	assert.Contains(t, out, "column.name=s <- value=sheet_name")
	assert.Contains(t, out, `"record_type":"row"`)
}

func TestParser_WithLocation(t *testing.T) {
	loc := time.FixedZone("JST", 9*60*60)
	g := newMemGrid("Sheet1")
	g.row("Sheet1", 0, StringCell("2024-01-02 03:04:05"))

	rows := parseAll(t, g, sheet1(typed("ts", "timestamp", ColumnOptions{})), WithLocation(loc))
	require.Len(t, rows, 1)
	assertTime(t, time.Date(2024, 1, 2, 3, 4, 5, 0, loc), rows[0][0])
}
