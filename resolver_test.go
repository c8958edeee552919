package xlparse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func colCfg(name string, opts ColumnOptions) ColumnConfig {
	return ColumnConfig{Name: name, Type: "string", ColumnOptions: opts}
}

func bindAll(t *testing.T, o Orientation, cols ...ColumnConfig) ([]ColumnBinding, error) {
	t.Helper()
	cfg := &Config{Columns: cols}
	specs, err := cfg.ColumnSpecs("Sheet1")
	require.NoError(t, err)
	return BindColumns("Sheet1", specs, o)
}

func indices(bs []ColumnBinding) []int {
	out := make([]int, len(bs))
	for i, b := range bs {
		out[i] = b.Index
	}
	return out
}

func TestBindColumns_ConsecutiveIndices(t *testing.T) {
	bs, err := bindAll(t, OrientationRow,
		colCfg("a", ColumnOptions{}),
		colCfg("b", ColumnOptions{Value: Ptr("cell_formula")}),
		colCfg("c", ColumnOptions{Value: Ptr("cell_style.wrap_text")}),
		colCfg("d", ColumnOptions{}),
	)
	require.NoError(t, err)
	// cell_style does not advance: it reads the column of the previous one
	assert.Equal(t, []int{0, 1, 1, 2}, indices(bs))
	for _, b := range bs {
		assert.Equal(t, BindingIndex, b.Kind)
	}
}

func TestBindColumns_DerivedKinds(t *testing.T) {
	bs, err := bindAll(t, OrientationRow,
		colCfg("a", ColumnOptions{}),
		colCfg("sheet", ColumnOptions{Value: Ptr("sheet_name")}),
		colCfg("row", ColumnOptions{Value: Ptr("row_number")}),
		colCfg("k", ColumnOptions{Value: Ptr("constant.x")}),
		colCfg("b", ColumnOptions{}),
	)
	require.NoError(t, err)
	assert.Equal(t, BindingDerived, bs[1].Kind)
	assert.Equal(t, BindingDerived, bs[2].Kind)
	assert.Equal(t, BindingDerived, bs[3].Kind)
	assert.Equal(t, 1, bs[4].Index)
}

func TestBindColumns_ColumnNumberOnScanningAxis(t *testing.T) {
	bs, err := bindAll(t, OrientationRow,
		colCfg("a", ColumnOptions{CellColumn: Ptr("C")}),
		colCfg("n", ColumnOptions{Value: Ptr("column_number")}),
	)
	require.NoError(t, err)
	assert.Equal(t, BindingIndex, bs[1].Kind)
	assert.Equal(t, 2, bs[1].Index)
}

func TestBindColumns_SameAsNamed(t *testing.T) {
	bs, err := bindAll(t, OrientationRow,
		colCfg("a", ColumnOptions{CellColumn: Ptr("B")}),
		colCfg("b", ColumnOptions{}),
		colCfg("c", ColumnOptions{CellColumn: Ptr("=a")}),
		colCfg("d", ColumnOptions{CellColumn: Ptr("=")}),
	)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 1, 1}, indices(bs))
}

func TestBindColumns_RelativeMoves(t *testing.T) {
	bs, err := bindAll(t, OrientationRow,
		colCfg("a", ColumnOptions{CellColumn: Ptr("D")}),
		colCfg("b", ColumnOptions{CellColumn: Ptr("+2")}),
		colCfg("c", ColumnOptions{CellColumn: Ptr("-")}),
		colCfg("d", ColumnOptions{CellColumn: Ptr("+a")}),
	)
	require.NoError(t, err)
	assert.Equal(t, []int{3, 5, 4, 4}, indices(bs))
}

func TestBindColumns_MoveBeforeFirstColumn(t *testing.T) {
	_, err := bindAll(t, OrientationRow,
		colCfg("a", ColumnOptions{CellColumn: Ptr("A")}),
		colCfg("b", ColumnOptions{CellColumn: Ptr("-1")}),
	)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)

	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "b", cfgErr.Column)
}

func TestBindColumns_UnknownName(t *testing.T) {
	_, err := bindAll(t, OrientationRow,
		colCfg("a", ColumnOptions{}),
		colCfg("b", ColumnOptions{CellColumn: Ptr("=zz")}),
	)
	assert.ErrorIs(t, err, ErrUnknownColumnReference)
}

func TestBindColumns_IllegalIndex(t *testing.T) {
	_, err := bindAll(t, OrientationRow, colCfg("a", ColumnOptions{CellColumn: Ptr("0")}))
	assert.ErrorIs(t, err, ErrInvalidAddress)

	_, err = bindAll(t, OrientationRow, colCfg("a", ColumnOptions{CellAddress: Ptr("!!")}))
	assert.ErrorIs(t, err, ErrInvalidAddress)
}

func TestBindColumns_AddressKeepsRunningIndex(t *testing.T) {
	bs, err := bindAll(t, OrientationRow,
		colCfg("a", ColumnOptions{}),
		colCfg("fixed", ColumnOptions{CellAddress: Ptr("E5")}),
		colCfg("b", ColumnOptions{}),
		colCfg("c", ColumnOptions{CellColumn: Ptr("=fixed")}),
	)
	require.NoError(t, err)
	assert.Equal(t, BindingAddress, bs[1].Kind)
	assert.Equal(t, CellRef{Row: 4, Col: 4}, bs[1].Address)
	assert.Equal(t, 1, bs[2].Index)
	assert.Equal(t, 4, bs[3].Index)
}

func TestBindColumns_CrossSheetAddressIsNotNamed(t *testing.T) {
	bs, err := bindAll(t, OrientationRow,
		colCfg("other", ColumnOptions{CellAddress: Ptr("Sheet2!B1")}),
	)
	require.NoError(t, err)
	assert.True(t, bs[0].CrossSheet("Sheet1"))
	assert.Equal(t, "cell_address=Sheet2!B1", bs[0].Describe(OrientationRow))

	_, err = bindAll(t, OrientationRow,
		colCfg("other", ColumnOptions{CellAddress: Ptr("Sheet2!B1")}),
		colCfg("b", ColumnOptions{CellColumn: Ptr("=other")}),
	)
	assert.ErrorIs(t, err, ErrUnknownColumnReference)
}

func TestBindColumns_RecordPin(t *testing.T) {
	bs, err := bindAll(t, OrientationRow,
		colCfg("title", ColumnOptions{CellRow: Ptr("1"), CellColumn: Ptr("B")}),
		colCfg("a", ColumnOptions{CellRow: Ptr("2")}),
	)
	require.NoError(t, err)
	assert.Equal(t, CellRef{Row: 0, Col: 1}, bs[0].Address)
	assert.Equal(t, BindingAddress, bs[1].Kind)
	assert.Equal(t, CellRef{Row: 1, Col: 0}, bs[1].Address)
}

func TestBindColumns_ColumnOrientation(t *testing.T) {
	bs, err := bindAll(t, OrientationColumn,
		colCfg("a", ColumnOptions{}),
		colCfg("b", ColumnOptions{CellRow: Ptr("4")}),
		colCfg("n", ColumnOptions{Value: Ptr("row_number")}),
		colCfg("c", ColumnOptions{Value: Ptr("column_number")}),
	)
	require.NoError(t, err)
	assert.Equal(t, 0, bs[0].Index)
	assert.Equal(t, 3, bs[1].Index)
	assert.Equal(t, BindingIndex, bs[2].Kind)
	assert.Equal(t, 3, bs[2].Index)
	assert.Equal(t, BindingDerived, bs[3].Kind)
	assert.Equal(t, "cell_row=4", bs[1].Describe(OrientationColumn))
}

func TestBindColumns_SheetOrientationDefaults(t *testing.T) {
	bs, err := bindAll(t, OrientationSheet,
		colCfg("a", ColumnOptions{CellColumn: Ptr("C")}),
		colCfg("b", ColumnOptions{CellRow: Ptr("3")}),
		colCfg("s", ColumnOptions{Value: Ptr("sheet_name")}),
	)
	require.NoError(t, err)
	assert.Equal(t, CellRef{Row: 0, Col: 2}, bs[0].Address)
	assert.Equal(t, CellRef{Row: 2, Col: 0}, bs[1].Address)
	assert.Equal(t, BindingAddress, bs[2].Kind)
}
