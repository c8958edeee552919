package xlparse

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParser_Describe(t *testing.T) {
	cfg, err := ParseConfig([]byte(`
sheets: [Sheet1, Missing]
skip_header_lines: 1
columns:
  - {name: id, type: long}
  - {name: price, type: double, numeric_format: "%.2f", on_convert_error: constant.0}
  - {name: total, type: double, cell_address: Other!B2}
  - {name: sheet, type: string, value: sheet_name}
  - {name: at, type: timestamp, value: "constant.2024-01-01 00:00:00"}
`))
	require.NoError(t, err)
	p, err := NewParser(cfg)
	require.NoError(t, err)

	out, err := p.Describe(newMemGrid("Sheet1", "Other"))
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSuffix(out, "\n"), "\n")
	assert.Equal(t, []string{
		`Sheet "Sheet1" record_type=row skip_header_lines=1`,
		`  column.name=id <- cell_column=A, value=cell_value type=long`,
		`  column.name=price <- cell_column=B, value=cell_value type=double numeric_format="%.2f" on_convert_error=constant.0`,
		`  column.name=total <- cell_address=Other!B2, value=cell_value type=double`,
		`  column.name=sheet <- value=sheet_name type=string`,
		`  column.name=at <- value=constant.2024-01-01 00:00:00 type=timestamp format="%Y-%m-%d %H:%M:%S" timezone=UTC`,
		`Sheet "Missing": not found`,
	}, lines)
}

func TestParser_DescribeSheetOptions(t *testing.T) {
	cfg, err := ParseConfig([]byte(`
sheet: Summary
sheet_options:
  Summary:
    record_type: column
    columns:
      label: {formula_handling: cashed_value, search_merged_cell: none}
columns:
  - {name: label, type: string}
  - {name: row, type: long, value: row_number}
`))
	require.NoError(t, err)
	p, err := NewParser(cfg)
	require.NoError(t, err)

	out, err := p.Describe(newMemGrid("Summary"))
	require.NoError(t, err)
	assert.Contains(t, out, `Sheet "Summary" record_type=column skip_header_lines=0 sheet_options="Summary"`)
	assert.Contains(t, out, "column.name=label <- cell_row=1, value=cell_value type=string search_merged_cell=none formula_handling=cashed_value")
	assert.Contains(t, out, "column.name=row <- cell_row=1, value=row_number type=long")
}

func TestParser_DescribeBindingError(t *testing.T) {
	p, err := NewParser(sheet1(typed("a", "string", ColumnOptions{CellColumn: Ptr("=nope")})))
	require.NoError(t, err)

	_, err = p.Describe(newMemGrid("Sheet1"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownColumnReference)
	assert.Contains(t, err.Error(), `describe sheet "Sheet1"`)
}

func TestDescribe_Workbook(t *testing.T) {
	path := createInventoryWorkbook(t)
	cfg, err := ParseConfig([]byte(inventoryConfig))
	require.NoError(t, err)

	out, err := Describe(path, cfg)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "Workbook: "+path+"\n"))
	assert.Contains(t, out, "column.name=error <- cell_column=E, value=cell_value type=string on_cell_error=error_code")
	assert.Contains(t, out, "column.name=bold <- cell_column=A, value=cell_font.bold type=boolean")

	_, err = Describe(filepath.Join(testdataDir(t), "missing.xlsx"), cfg)
	assert.Error(t, err)
}
