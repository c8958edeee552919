package xlparse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- CellRef Tests ---

func TestParseCellRef(t *testing.T) {
	tests := []struct {
		in   string
		want CellRef
	}{
		{"A1", CellRef{Row: 0, Col: 0}},
		{"Sheet1!B5", CellRef{Sheet: "Sheet1", Row: 4, Col: 1}},
		{"$A$1", CellRef{}},
		{"az10", CellRef{Row: 9, Col: 51}},
		{"'My ''Q1'' Sheet'!C3", CellRef{Sheet: "My 'Q1' Sheet", Row: 2, Col: 2}},
		{" Data!$AA$2 ", CellRef{Sheet: "Data", Row: 1, Col: 26}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			ref, err := ParseCellRef(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ref)
		})
	}
}

func TestParseCellRef_Invalid(t *testing.T) {
	for _, in := range []string{"", "A", "123", "A0", "Sheet1!", "A-1", "1A"} {
		_, err := ParseCellRef(in)
		assert.Error(t, err, in)
	}
}

func TestCellRef_String(t *testing.T) {
	assert.Equal(t, "C3", NewCellRef("", 2, 2).String())
	assert.Equal(t, "Data!AB10", NewCellRef("Data", 9, 27).String())
	assert.Equal(t, "AB10", NewCellRef("Data", 9, 27).CellName())
}

func TestColNames(t *testing.T) {
	for col, name := range map[int]string{0: "A", 25: "Z", 26: "AA", 51: "AZ", 702: "AAA"} {
		assert.Equal(t, name, ColToName(col))
		got, err := NameToCol(name)
		require.NoError(t, err)
		assert.Equal(t, col, got)
	}
	_, err := NameToCol("A1")
	assert.Error(t, err)
}

// --- Region Tests ---

func TestParseRegion(t *testing.T) {
	r, err := ParseRegion("C5:A2")
	require.NoError(t, err)
	assert.Equal(t, Region{FirstRow: 1, LastRow: 4, FirstCol: 0, LastCol: 2}, r)
	assert.Equal(t, "A2:C5", r.String())
	assert.True(t, r.Contains(1, 0))
	assert.True(t, r.Contains(4, 2))
	assert.False(t, r.Contains(5, 0))
	assert.Equal(t, CellRef{Sheet: "S", Row: 1, Col: 0}, r.Anchor("S"))

	single, err := ParseRegion("B2")
	require.NoError(t, err)
	assert.Equal(t, "B2:B2", single.String())

	_, err = ParseRegion("A1:nope")
	assert.Error(t, err)
}
