package xlparse

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// CellRef represents a single cell position in a workbook.
type CellRef struct {
	Sheet string // sheet name (empty = sheet of the current record)
	Row   int    // 0-based row index
	Col   int    // 0-based column index
}

// NewCellRef creates a CellRef with explicit sheet, row, col.
func NewCellRef(sheet string, row, col int) CellRef {
	return CellRef{Sheet: sheet, Row: row, Col: col}
}

// ParseCellRef parses "A1", "$A$1", "Sheet1!B5" or "'My Sheet'!C3". The
// sheet part may be quoted with doubled inner quotes.
func ParseCellRef(s string) (CellRef, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return CellRef{}, fmt.Errorf("empty cell reference")
	}
	var ref CellRef
	name := s
	if i := strings.LastIndexByte(s, '!'); i >= 0 {
		ref.Sheet, name = unquoteSheet(s[:i]), s[i+1:]
	}
	col, row, err := excelize.CellNameToCoordinates(name)
	if err != nil {
		return CellRef{}, fmt.Errorf("invalid cell reference %q: %w", s, err)
	}
	ref.Row, ref.Col = row-1, col-1
	return ref, nil
}

func unquoteSheet(sheet string) string {
	if len(sheet) >= 2 && sheet[0] == '\'' && sheet[len(sheet)-1] == '\'' {
		return strings.ReplaceAll(sheet[1:len(sheet)-1], "''", "'")
	}
	return sheet
}

// String formats the CellRef as "Sheet1!A1" or "A1" if no sheet.
func (c CellRef) String() string {
	if c.Sheet == "" {
		return c.CellName()
	}
	return c.Sheet + "!" + c.CellName()
}

// CellName returns just the cell part like "A1" without sheet name.
func (c CellRef) CellName() string {
	return ColToName(c.Col) + strconv.Itoa(c.Row+1)
}

// ColToName converts a 0-based column index to letters: 0→"A", 26→"AA".
func ColToName(col int) string {
	if name, err := excelize.ColumnNumberToName(col + 1); err == nil {
		return name
	}
	// beyond XFD; only reachable through relative index arithmetic
	if col < 26 {
		return string(rune('A' + col))
	}
	return ColToName(col/26-1) + string(rune('A'+col%26))
}

// NameToCol converts column letters, either case, to a 0-based index.
func NameToCol(name string) (int, error) {
	n, err := excelize.ColumnNameToNumber(name)
	if err != nil {
		return 0, fmt.Errorf("invalid column name %q: %w", name, err)
	}
	return n - 1, nil
}

// Region is a rectangular block of cells, bounds inclusive.
type Region struct {
	FirstRow int
	LastRow  int
	FirstCol int
	LastCol  int
}

// ParseRegion parses a range like "A1:C3". A single cell yields a 1x1 region.
func ParseRegion(s string) (Region, error) {
	first, last, found := strings.Cut(strings.TrimSpace(s), ":")
	a, err := ParseCellRef(first)
	if err != nil {
		return Region{}, fmt.Errorf("invalid region %q: %w", s, err)
	}
	b := a
	if found {
		if b, err = ParseCellRef(last); err != nil {
			return Region{}, fmt.Errorf("invalid region %q: %w", s, err)
		}
	}
	return Region{
		FirstRow: min(a.Row, b.Row),
		LastRow:  max(a.Row, b.Row),
		FirstCol: min(a.Col, b.Col),
		LastCol:  max(a.Col, b.Col),
	}, nil
}

// Contains reports whether (row, col) lies inside the region.
func (r Region) Contains(row, col int) bool {
	return row >= r.FirstRow && row <= r.LastRow && col >= r.FirstCol && col <= r.LastCol
}

// Anchor returns the top-left cell of the region.
func (r Region) Anchor(sheet string) CellRef {
	return CellRef{Sheet: sheet, Row: r.FirstRow, Col: r.FirstCol}
}

// String formats the region as "A1:C3".
func (r Region) String() string {
	return CellRef{Row: r.FirstRow, Col: r.FirstCol}.CellName() + ":" +
		CellRef{Row: r.LastRow, Col: r.LastCol}.CellName()
}
