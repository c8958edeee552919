package xlparse

import (
	"fmt"
	"strconv"
	"strings"
)

// BindingKind tags a ColumnBinding.
type BindingKind int

const (
	// BindingIndex is a scanning-axis index; the other axis comes from the cursor.
	BindingIndex BindingKind = iota
	// BindingAddress is a fixed cell, optionally on another sheet.
	BindingAddress
	// BindingDerived has no cell: sheet name, positions taken from the
	// cursor, or a constant.
	BindingDerived
)

func (k BindingKind) String() string {
	switch k {
	case BindingIndex:
		return "index"
	case BindingAddress:
		return "address"
	case BindingDerived:
		return "derived"
	}
	return fmt.Sprintf("BindingKind(%d)", int(k))
}

// ColumnBinding is the resolved source of one output column.
type ColumnBinding struct {
	Kind    BindingKind
	Index   int     // BindingIndex
	Address CellRef // BindingAddress; Sheet is empty for the record's sheet
}

// CrossSheet reports whether the binding addresses another sheet.
func (b ColumnBinding) CrossSheet(current string) bool {
	return b.Kind == BindingAddress && b.Address.Sheet != "" && b.Address.Sheet != current
}

// Describe formats the binding the way it is logged: "cell_column=B",
// "cell_row=3", "cell_address=Sheet2!A1" or "" for derived bindings.
func (b ColumnBinding) Describe(o Orientation) string {
	switch b.Kind {
	case BindingAddress:
		return "cell_address=" + b.Address.String()
	case BindingIndex:
		if o == OrientationColumn {
			return "cell_row=" + strconv.Itoa(b.Index+1)
		}
		return "cell_column=" + ColToName(b.Index)
	}
	return ""
}

// resolver carries the running index and the name table of one pass.
type resolver struct {
	sheet       string
	orientation Orientation
	lastIndex   int
	names       map[string]int
}

// BindColumns assigns a binding to every column spec in one left-to-right
// pass. Columns without an address directive and an advancing value kind
// take consecutive indices starting at 0.
func BindColumns(sheet string, specs []*ColumnSpec, o Orientation) ([]ColumnBinding, error) {
	r := &resolver{sheet: sheet, orientation: o, lastIndex: -1, names: make(map[string]int)}
	bindings := make([]ColumnBinding, 0, len(specs))
	for _, spec := range specs {
		b, err := r.bind(spec)
		if err != nil {
			return nil, &ConfigError{Sheet: sheet, Column: spec.Name, Err: err}
		}
		bindings = append(bindings, b)
	}
	return bindings, nil
}

func (r *resolver) bind(spec *ColumnSpec) (ColumnBinding, error) {
	addr, hasAddr, err := r.explicitAddress(spec)
	if err != nil {
		return ColumnBinding{}, err
	}

	if hasAddr {
		// Same-sheet addresses can be referenced by name with their
		// scanning-axis coordinate; the running index is untouched.
		if spec.Value.Kind.UsesCell(r.orientation) && (addr.Sheet == "" || addr.Sheet == r.sheet) {
			if r.orientation == OrientationColumn {
				r.names[spec.Name] = addr.Row
			} else {
				r.names[spec.Name] = addr.Col
			}
		}
		return ColumnBinding{Kind: BindingAddress, Address: addr}, nil
	}

	if r.orientation == OrientationSheet {
		// unreachable: sheet orientation always yields an explicit address
		return ColumnBinding{}, configErrorf(ErrUnsupportedInOrientation, "unsupported at record_type=sheet")
	}

	index := r.lastIndex
	if spec.Value.Kind.UsesCell(r.orientation) {
		if index, err = r.resolveIndex(spec); err != nil {
			return ColumnBinding{}, err
		}
		index = max(index, 0)
		r.lastIndex = index
		r.names[spec.Name] = index
	}

	// A pinned record-axis option turns the running index into an address.
	if pin := r.recordPin(spec); pin != nil {
		p, err := r.convertIndex(spec, r.orientation.recordOption(), *pin)
		if err != nil {
			return ColumnBinding{}, err
		}
		i := max(index, 0)
		a := CellRef{Row: p, Col: i}
		if r.orientation == OrientationColumn {
			a = CellRef{Row: i, Col: p}
		}
		return ColumnBinding{Kind: BindingAddress, Address: a}, nil
	}

	if spec.Value.Kind.UsesCell(r.orientation) {
		return ColumnBinding{Kind: BindingIndex, Index: index}, nil
	}
	return ColumnBinding{Kind: BindingDerived}, nil
}

// explicitAddress returns the two-axis address of a spec, if any: from
// cell_address, from both cell_row and cell_column, or in sheet
// orientation from either with defaults row 1 and column A.
func (r *resolver) explicitAddress(spec *ColumnSpec) (CellRef, bool, error) {
	if spec.CellAddress != nil {
		ref, err := ParseCellRef(*spec.CellAddress)
		if err != nil {
			return CellRef{}, false, configErrorf(ErrInvalidAddress, "illegal cell_address=%q at %s: %v", *spec.CellAddress, spec.Name, err)
		}
		return ref, true, nil
	}

	row, col := spec.CellRow, spec.CellColumn
	if row == nil || col == nil {
		if r.orientation != OrientationSheet {
			return CellRef{}, false, nil
		}
		if row == nil {
			row = Ptr("1")
		}
		if col == nil {
			col = Ptr("A")
		}
	}

	c, err := r.convertIndex(spec, "cell_column", *col)
	if err != nil {
		return CellRef{}, false, err
	}
	rw, err := r.convertIndex(spec, "cell_row", *row)
	if err != nil {
		return CellRef{}, false, err
	}
	return CellRef{Row: rw, Col: c}, true, nil
}

// indexDirective returns the scanning-axis address option.
func (r *resolver) indexDirective(spec *ColumnSpec) *string {
	switch r.orientation {
	case OrientationRow:
		return spec.CellColumn
	case OrientationColumn:
		return spec.CellRow
	}
	return nil
}

// recordPin returns the record-axis address option.
func (r *resolver) recordPin(spec *ColumnSpec) *string {
	switch r.orientation {
	case OrientationRow:
		return spec.CellRow
	case OrientationColumn:
		return spec.CellColumn
	}
	return nil
}

func (r *resolver) resolveIndex(spec *ColumnSpec) (int, error) {
	directive := r.indexDirective(spec)
	if directive == nil {
		index := r.lastIndex
		if spec.Value.Kind.Advances() {
			index++
		}
		return index, nil
	}

	token := *directive
	if token != "" {
		arg := strings.TrimSpace(token[1:])
		switch token[0] {
		case '=':
			return r.sameIndex(spec, arg)
		case '+':
			return r.moveIndex(spec, arg, 1)
		case '-':
			return r.moveIndex(spec, arg, -1)
		}
	}
	return r.convertIndex(spec, r.orientation.indexOption(), token)
}

func (r *resolver) sameIndex(spec *ColumnSpec, name string) (int, error) {
	if name == "" {
		return r.lastIndex, nil
	}
	v, ok := r.names[name]
	if !ok {
		return 0, configErrorf(ErrUnknownColumnReference, "not found column name=%s before %s", name, spec.Name)
	}
	return v, nil
}

// moveIndex advances (sign 1) or retreats (sign -1) from the running index.
// The argument is a step count, or a column name whose index becomes the
// base for a step of one.
func (r *resolver) moveIndex(spec *ColumnSpec, arg string, sign int) (int, error) {
	index := max(r.lastIndex, 0)
	step := 1
	if arg != "" {
		n, err := strconv.Atoi(arg)
		if err != nil {
			v, ok := r.names[arg]
			if !ok {
				return 0, configErrorf(ErrUnknownColumnReference, "not found column name=%s before %s", arg, spec.Name)
			}
			index, n = v, 1
		}
		step = n
	}
	index += sign * step
	if index < 0 {
		return 0, configErrorf(ErrIndexOutOfRange, "%s out of range at %s", r.orientation.indexOption(), spec.Name)
	}
	return index, nil
}

// convertIndex parses an absolute index: a 1-origin decimal number or
// column letters.
func (r *resolver) convertIndex(spec *ColumnSpec, option, token string) (int, error) {
	illegal := configErrorf(ErrInvalidAddress, "illegal %s=%q at %s", option, token, spec.Name)
	t := strings.TrimSpace(token)
	if t == "" {
		return 0, illegal
	}
	var index int
	if t[0] >= '0' && t[0] <= '9' {
		n, err := strconv.Atoi(t)
		if err != nil {
			return 0, illegal
		}
		index = n - 1
	} else {
		n, err := NameToCol(t)
		if err != nil {
			return 0, illegal
		}
		index = n
	}
	if index < 0 {
		return 0, illegal
	}
	return index, nil
}
