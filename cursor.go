package xlparse

import (
	"fmt"
	"strings"
)

// Orientation is the traversal axis of records.
type Orientation int

const (
	OrientationRow Orientation = iota
	OrientationColumn
	OrientationSheet
)

var orientationNames = []string{"row", "column", "sheet"}

// ParseOrientation parses a record_type value.
func ParseOrientation(s string) (Orientation, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	for i, name := range orientationNames {
		if name == v {
			return Orientation(i), nil
		}
	}
	return 0, configErrorf(ErrInvalidOption, "illegal record_type=%s. expected=%v", s, orientationNames)
}

// String returns the configuration name.
func (o Orientation) String() string {
	if int(o) >= 0 && int(o) < len(orientationNames) {
		return orientationNames[o]
	}
	return fmt.Sprintf("Orientation(%d)", int(o))
}

// indexOption names the option holding the scanning-axis index.
func (o Orientation) indexOption() string {
	switch o {
	case OrientationRow:
		return "cell_column"
	case OrientationColumn:
		return "cell_row"
	}
	return "-"
}

// recordOption names the option that pins the record axis.
func (o Orientation) recordOption() string {
	switch o {
	case OrientationRow:
		return "cell_row"
	case OrientationColumn:
		return "cell_column"
	}
	return "-"
}

// RecordCursor walks the records of one sheet.
type RecordCursor interface {
	Exists() bool
	Next()
	// RowIndex and ColumnIndex return the grid coordinate a binding
	// points at for the current record.
	RowIndex(b ColumnBinding) (int, error)
	ColumnIndex(b ColumnBinding) (int, error)
	// Ref returns the cell a binding points at, for diagnostics.
	Ref(b ColumnBinding) CellRef
	String() string
}

// NewRecordCursor creates the cursor for an orientation. Records before
// skip (rows or columns) are not visited.
func NewRecordCursor(o Orientation, g Grid, sheet string, skip int) (RecordCursor, error) {
	switch o {
	case OrientationRow:
		rows, err := g.Rows(sheet)
		if err != nil {
			return nil, fmt.Errorf("rows of sheet %q: %w", sheet, err)
		}
		c := &rowCursor{sheet: sheet}
		for _, r := range rows {
			if r >= skip {
				c.rows = append(c.rows, r)
			}
		}
		return c, nil
	case OrientationColumn:
		first, end, err := g.ColumnSpan(sheet)
		if err != nil {
			return nil, fmt.Errorf("columns of sheet %q: %w", sheet, err)
		}
		return &columnCursor{sheet: sheet, col: max(first, skip), end: end}, nil
	case OrientationSheet:
		return &sheetCursor{sheet: sheet, exists: true}, nil
	}
	return nil, fmt.Errorf("unknown orientation %d", int(o))
}

type rowCursor struct {
	sheet string
	rows  []int
	pos   int
}

func (c *rowCursor) Exists() bool { return c.pos < len(c.rows) }

func (c *rowCursor) Next() {
	if c.Exists() {
		c.pos++
	}
}

func (c *rowCursor) current() int {
	if c.Exists() {
		return c.rows[c.pos]
	}
	return -1
}

func (c *rowCursor) RowIndex(b ColumnBinding) (int, error) {
	if b.Kind == BindingAddress {
		return b.Address.Row, nil
	}
	return c.current(), nil
}

func (c *rowCursor) ColumnIndex(b ColumnBinding) (int, error) {
	switch b.Kind {
	case BindingAddress:
		return b.Address.Col, nil
	case BindingIndex:
		return b.Index, nil
	}
	return 0, configErrorf(ErrUnsupportedInOrientation, "no column index at record_type=row")
}

func (c *rowCursor) Ref(b ColumnBinding) CellRef {
	return bindingRef(c, c.sheet, b)
}

func (c *rowCursor) String() string {
	return fmt.Sprintf("sheet=%s row=%d", c.sheet, c.current()+1)
}

type columnCursor struct {
	sheet string
	col   int
	end   int
}

func (c *columnCursor) Exists() bool { return c.col < c.end }

func (c *columnCursor) Next() {
	if c.Exists() {
		c.col++
	}
}

func (c *columnCursor) RowIndex(b ColumnBinding) (int, error) {
	switch b.Kind {
	case BindingAddress:
		return b.Address.Row, nil
	case BindingIndex:
		return b.Index, nil
	}
	return 0, configErrorf(ErrUnsupportedInOrientation, "no row index at record_type=column")
}

func (c *columnCursor) ColumnIndex(b ColumnBinding) (int, error) {
	if b.Kind == BindingAddress {
		return b.Address.Col, nil
	}
	return c.col, nil
}

func (c *columnCursor) Ref(b ColumnBinding) CellRef {
	return bindingRef(c, c.sheet, b)
}

func (c *columnCursor) String() string {
	return fmt.Sprintf("sheet=%s column=%s", c.sheet, ColToName(c.col))
}

// sheetCursor yields exactly one record; only explicit addresses resolve.
type sheetCursor struct {
	sheet  string
	exists bool
}

func (c *sheetCursor) Exists() bool { return c.exists }

func (c *sheetCursor) Next() { c.exists = false }

func (c *sheetCursor) RowIndex(b ColumnBinding) (int, error) {
	if b.Kind == BindingAddress {
		return b.Address.Row, nil
	}
	return 0, configErrorf(ErrUnsupportedInOrientation, "unsupported at record_type=sheet")
}

func (c *sheetCursor) ColumnIndex(b ColumnBinding) (int, error) {
	if b.Kind == BindingAddress {
		return b.Address.Col, nil
	}
	return 0, configErrorf(ErrUnsupportedInOrientation, "unsupported at record_type=sheet")
}

func (c *sheetCursor) Ref(b ColumnBinding) CellRef {
	return bindingRef(c, c.sheet, b)
}

func (c *sheetCursor) String() string {
	return "sheet=" + c.sheet
}

// bindingRef builds the diagnostic reference of a binding. Unresolvable
// axes are reported as 0.
func bindingRef(c RecordCursor, sheet string, b ColumnBinding) CellRef {
	if b.Kind == BindingAddress && b.Address.Sheet != "" {
		sheet = b.Address.Sheet
	}
	row, err := c.RowIndex(b)
	if err != nil || row < 0 {
		row = 0
	}
	col, err := c.ColumnIndex(b)
	if err != nil || col < 0 {
		col = 0
	}
	return CellRef{Sheet: sheet, Row: row, Col: col}
}
