package xlparse

import (
	"sort"
	"strings"
	"time"
)

// DefaultTimestampFormat is the strptime layout used when neither the
// column nor the configuration names one.
const DefaultTimestampFormat = "%Y-%m-%d %H:%M:%S"

// SheetSettings are the options resolved for one sheet.
type SheetSettings struct {
	Name        string
	Orientation Orientation
	Skip        int
	// OverrideKey is the sheet_options key that matched, if any.
	OverrideKey string
}

// ColumnSpec is the fully resolved configuration of one output column on
// one sheet.
type ColumnSpec struct {
	Name  string
	Type  TargetType
	Value ValueSpec

	CellAddress *string
	CellRow     *string
	CellColumn  *string // cell_column, or column_number when unset

	AttributeNames    []string
	HasAttributeNames bool

	NumericFormat   string
	SearchMerged    MergedSearch
	FormulaHandling FormulaHandling
	Replacers       []*FormulaReplacer

	OnEvaluateError ErrorStrategy
	OnCellError     ErrorStrategy
	OnConvertError  ErrorStrategy

	TimestampFormat string
	Location        *time.Location
}

// lookup returns the first value defined across layers.
func lookup[L any, T any](layers []*L, get func(*L) *T) (T, bool) {
	for _, l := range layers {
		if l == nil {
			continue
		}
		if v := get(l); v != nil {
			return *v, true
		}
	}
	var zero T
	return zero, false
}

// lookupOr is lookup with a default.
func lookupOr[L any, T any](layers []*L, get func(*L) *T, def T) T {
	if v, ok := lookup(layers, get); ok {
		return v
	}
	return def
}

// sheetOverride finds the sheet_options entry for a sheet: an exact key
// first, then the first key (in sorted order) listing the sheet among its
// "/"-separated aliases, compared case-insensitively.
func (c *Config) sheetOverride(sheet string) (string, *SheetOptions) {
	if so, ok := c.SheetOptions[sheet]; ok && so != nil {
		return sheet, so
	}
	keys := make([]string, 0, len(c.SheetOptions))
	for k := range c.SheetOptions {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		for _, alias := range strings.Split(k, "/") {
			if strings.EqualFold(strings.TrimSpace(alias), sheet) && c.SheetOptions[k] != nil {
				return k, c.SheetOptions[k]
			}
		}
	}
	return "", nil
}

// ResolveSheet resolves record_type and skip_header_lines for a sheet.
func (c *Config) ResolveSheet(sheet string) (*SheetSettings, error) {
	key, so := c.sheetOverride(sheet)
	layers := []*SheetCommonOptions{nil, &c.SheetCommonOptions}
	if so != nil {
		layers[0] = &so.SheetCommonOptions
	}

	st := &SheetSettings{Name: sheet, OverrideKey: key}
	if rt, ok := lookup(layers, func(o *SheetCommonOptions) *string { return o.RecordType }); ok {
		o, err := ParseOrientation(rt)
		if err != nil {
			return nil, &ConfigError{Sheet: sheet, Err: err}
		}
		st.Orientation = o
	}
	st.Skip = lookupOr(layers, func(o *SheetCommonOptions) *int { return o.SkipHeaderLines }, 0)
	if st.Skip < 0 {
		return nil, &ConfigError{Sheet: sheet, Err: configErrorf(ErrInvalidOption, "illegal skip_header_lines=%d", st.Skip)}
	}
	return st, nil
}

// specDefaults are parser-level fallbacks below the global configuration.
type specDefaults struct {
	location *time.Location
}

// ColumnSpecs resolves every configured column for a sheet.
func (c *Config) ColumnSpecs(sheet string) ([]*ColumnSpec, error) {
	return c.columnSpecs(sheet, specDefaults{})
}

func (c *Config) columnSpecs(sheet string, defs specDefaults) ([]*ColumnSpec, error) {
	_, so := c.sheetOverride(sheet)
	specs := make([]*ColumnSpec, 0, len(c.Columns))
	for i := range c.Columns {
		col := &c.Columns[i]
		var override *ColumnOptions
		if so != nil {
			override = so.Columns[col.Name]
		}
		spec, err := c.columnSpec(col, override, so, defs)
		if err != nil {
			return nil, &ConfigError{Sheet: sheet, Column: col.Name, Err: err}
		}
		specs = append(specs, spec)
	}
	return specs, nil
}

func (c *Config) columnSpec(col *ColumnConfig, override *ColumnOptions, so *SheetOptions, defs specDefaults) (*ColumnSpec, error) {
	columnLayers := []*ColumnOptions{override, &col.ColumnOptions}
	commonLayers := make([]*ColumnCommonOptions, 0, 4)
	for _, l := range columnLayers {
		if l != nil {
			commonLayers = append(commonLayers, &l.ColumnCommonOptions)
		}
	}
	if so != nil {
		commonLayers = append(commonLayers, &so.ColumnCommonOptions)
	}
	commonLayers = append(commonLayers, &c.ColumnCommonOptions)

	spec := &ColumnSpec{Name: col.Name}
	var err error

	if spec.Type, err = ParseTargetType(col.Type); err != nil {
		return nil, err
	}
	if spec.Value, err = ParseValueSpec(lookupOr(columnLayers, func(o *ColumnOptions) *string { return o.Value }, "")); err != nil {
		return nil, err
	}

	if v, ok := lookup(columnLayers, func(o *ColumnOptions) *string { return o.CellAddress }); ok {
		spec.CellAddress = &v
	}
	if v, ok := lookup(columnLayers, func(o *ColumnOptions) *string { return o.CellRow }); ok {
		spec.CellRow = &v
	}
	if v, ok := lookup(columnLayers, func(o *ColumnOptions) *string { return o.CellColumn }); ok {
		spec.CellColumn = &v
	} else if v, ok := lookup(columnLayers, func(o *ColumnOptions) *string { return o.ColumnNumber }); ok {
		spec.CellColumn = &v
	}

	if names, ok := lookup(columnLayers, func(o *ColumnOptions) *[]string { return o.AttributeName }); ok {
		spec.AttributeNames, spec.HasAttributeNames = names, true
	}
	if err := checkAttributeKeys(spec); err != nil {
		return nil, err
	}

	spec.NumericFormat = lookupOr(commonLayers, func(o *ColumnCommonOptions) *string { return o.NumericFormat }, "")

	spec.SearchMerged = MergedHash
	if v, ok := lookup(commonLayers, func(o *ColumnCommonOptions) *string { return o.SearchMergedCell }); ok {
		if spec.SearchMerged, err = ParseMergedSearch(v); err != nil {
			return nil, err
		}
	}
	if v, ok := lookup(commonLayers, func(o *ColumnCommonOptions) *string { return o.FormulaHandling }); ok {
		if spec.FormulaHandling, err = ParseFormulaHandling(v); err != nil {
			return nil, err
		}
	}
	if rules, ok := lookup(commonLayers, func(o *ColumnCommonOptions) *[]ReplaceRule { return o.FormulaReplace }); ok {
		if spec.Replacers, err = CompileFormulaReplace(rules); err != nil {
			return nil, err
		}
	}

	strategies := []struct {
		dst *ErrorStrategy
		get func(*ColumnCommonOptions) *string
	}{
		{&spec.OnEvaluateError, func(o *ColumnCommonOptions) *string { return o.OnEvaluateError }},
		{&spec.OnCellError, func(o *ColumnCommonOptions) *string { return o.OnCellError }},
		{&spec.OnConvertError, func(o *ColumnCommonOptions) *string { return o.OnConvertError }},
	}
	for _, s := range strategies {
		if v, ok := lookup(commonLayers, s.get); ok {
			if *s.dst, err = ParseErrorStrategy(v); err != nil {
				return nil, err
			}
		}
	}

	spec.TimestampFormat = DefaultTimestampFormat
	if c.DefaultTimestampFormat != "" {
		spec.TimestampFormat = c.DefaultTimestampFormat
	}
	spec.TimestampFormat = lookupOr(columnLayers, func(o *ColumnOptions) *string { return o.Format }, spec.TimestampFormat)

	spec.Location = time.UTC
	if defs.location != nil {
		spec.Location = defs.location
	}
	tz := c.DefaultTimezone
	tz = lookupOr(columnLayers, func(o *ColumnOptions) *string { return o.Timezone }, tz)
	if tz != "" {
		if spec.Location, err = time.LoadLocation(tz); err != nil {
			return nil, configErrorf(ErrInvalidOption, "illegal timezone=%q: %v", tz, err)
		}
	}
	return spec, nil
}
