package xlparse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const layeredConfig = `
sheets: [Sheet1, "Data*"]
record_type: row
skip_header_lines: 1
numeric_format: "%.1f"
on_cell_error: constant.none
sheet_options:
  Sheet1/Summary:
    record_type: column
    search_merged_cell: none
    columns:
      price:
        on_convert_error: constant.0
        numeric_format: "%.3f"
  Data1:
    skip_header_lines: 2
columns:
  - name: id
    type: long
  - name: price
    type: string
    column_number: C
    on_convert_error: exception
  - name: note
    type: string
    column_number: D
    cell_column: E
`

func TestParseConfig_Layers(t *testing.T) {
	cfg, err := ParseConfig([]byte(layeredConfig))
	require.NoError(t, err)
	assert.Equal(t, []string{"Sheet1", "Data*"}, cfg.SheetPatterns())

	specs, err := cfg.ColumnSpecs("Sheet1")
	require.NoError(t, err)
	require.Len(t, specs, 3)

	id, price, note := specs[0], specs[1], specs[2]

	assert.Equal(t, TypeLong, id.Type)
	assert.Equal(t, "%.1f", id.NumericFormat)
	assert.Equal(t, MergedNone, id.SearchMerged)
	assert.Equal(t, "constant.none", id.OnCellError.String())
	assert.Equal(t, StrategyDefault, id.OnConvertError.Kind)

	// the sheet's column override wins over the column itself
	assert.Equal(t, "%.3f", price.NumericFormat)
	assert.Equal(t, ErrorStrategy{Kind: StrategyConstant, Literal: "0", HasLiteral: true}, price.OnConvertError)
	require.NotNil(t, price.CellColumn)
	assert.Equal(t, "C", *price.CellColumn)

	require.NotNil(t, note.CellColumn)
	assert.Equal(t, "E", *note.CellColumn, "cell_column beats column_number")
}

func TestParseConfig_OtherSheetsUseGlobals(t *testing.T) {
	cfg, err := ParseConfig([]byte(layeredConfig))
	require.NoError(t, err)

	specs, err := cfg.ColumnSpecs("Data1")
	require.NoError(t, err)
	assert.Equal(t, MergedHash, specs[0].SearchMerged)
	assert.Equal(t, "%.1f", specs[1].NumericFormat)
	assert.Equal(t, StrategyException, specs[1].OnConvertError.Kind)
	assert.Equal(t, DefaultTimestampFormat, specs[0].TimestampFormat)
}

func TestResolveSheet(t *testing.T) {
	cfg, err := ParseConfig([]byte(layeredConfig))
	require.NoError(t, err)

	st, err := cfg.ResolveSheet("Sheet1")
	require.NoError(t, err)
	assert.Equal(t, OrientationColumn, st.Orientation)
	assert.Equal(t, 1, st.Skip)
	assert.Equal(t, "Sheet1/Summary", st.OverrideKey)

	st, err = cfg.ResolveSheet("summary")
	require.NoError(t, err)
	assert.Equal(t, OrientationColumn, st.Orientation, "aliases compare case-insensitively")

	st, err = cfg.ResolveSheet("Data1")
	require.NoError(t, err)
	assert.Equal(t, OrientationRow, st.Orientation)
	assert.Equal(t, 2, st.Skip)
	assert.Equal(t, "Data1", st.OverrideKey)

	st, err = cfg.ResolveSheet("Elsewhere")
	require.NoError(t, err)
	assert.Empty(t, st.OverrideKey)
}

func TestResolveSheet_Invalid(t *testing.T) {
	cfg := &Config{SheetCommonOptions: SheetCommonOptions{SkipHeaderLines: Ptr(-1)}}
	_, err := cfg.ResolveSheet("Sheet1")
	assert.ErrorIs(t, err, ErrInvalidOption)

	cfg = &Config{SheetCommonOptions: SheetCommonOptions{RecordType: Ptr("diagonal")}}
	_, err = cfg.ResolveSheet("Sheet1")
	assert.ErrorIs(t, err, ErrInvalidOption)
}

func TestParseConfig_UnknownKey(t *testing.T) {
	_, err := ParseConfig([]byte("columns: []\nshets: [x]\n"))
	assert.Error(t, err)
}

func TestColumnSpecs_InvalidOptions(t *testing.T) {
	tests := []struct {
		name string
		opts ColumnOptions
		typ  string
		want error
	}{
		{"type", ColumnOptions{}, "varchar", ErrInvalidOption},
		{"value", ColumnOptions{Value: Ptr("cell_colour")}, "string", ErrInvalidOption},
		{"style key", ColumnOptions{Value: Ptr("cell_style.bold")}, "string", ErrUnknownAttribute},
		{"attribute_name", ColumnOptions{Value: Ptr("cell_font"), AttributeName: Ptr([]string{"bold", "shadow"})}, "string", ErrUnknownAttribute},
		{"merged", ColumnOptions{ColumnCommonOptions: ColumnCommonOptions{SearchMergedCell: Ptr("binary")}}, "string", ErrInvalidOption},
		{"formula", ColumnOptions{ColumnCommonOptions: ColumnCommonOptions{FormulaHandling: Ptr("guess")}}, "string", ErrInvalidOption},
		{"strategy", ColumnOptions{ColumnCommonOptions: ColumnCommonOptions{OnCellError: Ptr("retry")}}, "string", ErrInvalidOption},
		{"regex", ColumnOptions{ColumnCommonOptions: ColumnCommonOptions{FormulaReplace: Ptr([]ReplaceRule{{Regex: "(", To: "x"}})}}, "string", ErrInvalidOption},
		{"timezone", ColumnOptions{Timezone: Ptr("Nowhere/Special")}, "timestamp", ErrInvalidOption},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{Columns: []ColumnConfig{{Name: "c", Type: tt.typ, ColumnOptions: tt.opts}}}
			_, err := cfg.ColumnSpecs("Sheet1")
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)

			var cfgErr *ConfigError
			require.ErrorAs(t, err, &cfgErr)
			assert.Equal(t, "c", cfgErr.Column)
		})
	}
}

func TestParseMergedSearch_LegacyValues(t *testing.T) {
	m, err := ParseMergedSearch("true")
	require.NoError(t, err)
	assert.Equal(t, MergedHash, m)

	m, err = ParseMergedSearch("FALSE")
	require.NoError(t, err)
	assert.Equal(t, MergedNone, m)

	m, err = ParseMergedSearch("tree_search")
	require.NoError(t, err)
	assert.Equal(t, MergedTree, m)
}
