package xlparse

import (
	"errors"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"
)

// testdataDir returns the path to testdata directory, creating it if needed.
func testdataDir(t *testing.T) string {
	t.Helper()
	dir := filepath.Join("testdata")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	return dir
}

// memGrid is an in-memory Grid for engine tests.
type memGrid struct {
	names    []string
	cells    map[string]map[cellKey]CellContent
	merged   map[string][]Region
	styles   map[string]map[cellKey]*StyleInfo
	comments map[string]map[cellKey]*CommentInfo
	eval     map[string]CellContent // formula text → result
	evalErr  error
	date1904 bool

	evaluated []string // formulas passed to Evaluate
}

func newMemGrid(sheets ...string) *memGrid {
	g := &memGrid{
		names:    sheets,
		cells:    make(map[string]map[cellKey]CellContent),
		merged:   make(map[string][]Region),
		styles:   make(map[string]map[cellKey]*StyleInfo),
		comments: make(map[string]map[cellKey]*CommentInfo),
		eval:     make(map[string]CellContent),
	}
	for _, s := range sheets {
		g.cells[s] = make(map[cellKey]CellContent)
		g.styles[s] = make(map[cellKey]*StyleInfo)
		g.comments[s] = make(map[cellKey]*CommentInfo)
	}
	return g
}

// set stores content at an "A1" style name.
func (g *memGrid) set(t *testing.T, sheet, name string, c CellContent) *memGrid {
	t.Helper()
	ref, err := ParseCellRef(name)
	require.NoError(t, err)
	g.cells[sheet][cellKey{ref.Row, ref.Col}] = c
	return g
}

// row stores values from column A onwards.
func (g *memGrid) row(sheet string, row int, values ...CellContent) *memGrid {
	for col, v := range values {
		g.cells[sheet][cellKey{row, col}] = v
	}
	return g
}

func (g *memGrid) merge(t *testing.T, sheet, region string) *memGrid {
	t.Helper()
	r, err := ParseRegion(region)
	require.NoError(t, err)
	g.merged[sheet] = append(g.merged[sheet], r)
	return g
}

func (g *memGrid) SheetNames() []string { return g.names }

func (g *memGrid) Rows(sheet string) ([]int, error) {
	cells, ok := g.cells[sheet]
	if !ok {
		return nil, ErrSheetNotFound
	}
	seen := make(map[int]bool)
	var rows []int
	for k := range cells {
		if !seen[k.row] {
			seen[k.row] = true
			rows = append(rows, k.row)
		}
	}
	sort.Ints(rows)
	return rows, nil
}

func (g *memGrid) ColumnSpan(sheet string) (int, int, error) {
	cells, ok := g.cells[sheet]
	if !ok {
		return 0, 0, ErrSheetNotFound
	}
	first, end := -1, 0
	for k := range cells {
		if first < 0 || k.col < first {
			first = k.col
		}
		end = max(end, k.col+1)
	}
	return max(first, 0), end, nil
}

func (g *memGrid) Cell(sheet string, row, col int) (CellContent, bool, error) {
	cells, ok := g.cells[sheet]
	if !ok {
		return CellContent{}, false, ErrSheetNotFound
	}
	c, ok := cells[cellKey{row, col}]
	return c, ok, nil
}

func (g *memGrid) MergedRegions(sheet string) ([]Region, error) {
	return g.merged[sheet], nil
}

func (g *memGrid) Evaluate(sheet string, row, col int, formula string) (CellContent, error) {
	g.evaluated = append(g.evaluated, formula)
	if g.evalErr != nil {
		return CellContent{}, g.evalErr
	}
	c, ok := g.eval[formula]
	if !ok {
		return CellContent{}, errors.New("unknown formula")
	}
	return c, nil
}

func (g *memGrid) Style(sheet string, row, col int) (*StyleInfo, error) {
	return g.styles[sheet][cellKey{row, col}], nil
}

func (g *memGrid) Comment(sheet string, row, col int) (*CommentInfo, error) {
	return g.comments[sheet][cellKey{row, col}], nil
}

func (g *memGrid) Date1904() bool { return g.date1904 }

// specFor resolves a single column with the given options on Sheet1.
func specFor(t *testing.T, typ string, opts ColumnOptions) *ColumnSpec {
	t.Helper()
	cfg := &Config{Columns: []ColumnConfig{{Name: "c", Type: typ, ColumnOptions: opts}}}
	specs, err := cfg.ColumnSpecs("Sheet1")
	require.NoError(t, err)
	return specs[0]
}

// parseAll runs a parser over g and returns the plain values.
func parseAll(t *testing.T, g Grid, cfg *Config, opts ...Option) [][]any {
	t.Helper()
	var w MemoryWriter
	require.NoError(t, ParseGrid(t.Context(), g, cfg, &w, opts...))
	return w.Rows()
}
