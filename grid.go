package xlparse

import (
	"fmt"
	"strconv"
	"strings"
)

// Grid abstracts read access to a decoded workbook. Row and column indices
// are 0-based throughout.
type Grid interface {
	// Sheet data
	SheetNames() []string
	Rows(sheet string) ([]int, error)
	ColumnSpan(sheet string) (first, end int, err error)
	Cell(sheet string, row, col int) (CellContent, bool, error)
	MergedRegions(sheet string) ([]Region, error)

	// Formula evaluation; formula is the text to evaluate in place of the
	// cell's own formula, without the leading "=".
	Evaluate(sheet string, row, col int, formula string) (CellContent, error)

	// Cell metadata
	Style(sheet string, row, col int) (*StyleInfo, error)
	Comment(sheet string, row, col int) (*CommentInfo, error)

	// Workbook properties
	Date1904() bool
}

// SheetIndex returns the position of a sheet in the workbook, or -1.
func SheetIndex(g Grid, sheet string) int {
	for i, name := range g.SheetNames() {
		if name == sheet {
			return i
		}
	}
	return -1
}

// Color is an RGB colour. Set is false when the cell carries no colour.
type Color struct {
	RGB uint32
	Set bool
}

// ParseColor parses a hex colour such as "FF0000" or "FFFF0000".
// An empty string yields an unset colour.
func ParseColor(hex string) (Color, error) {
	hex = strings.TrimPrefix(strings.TrimSpace(hex), "#")
	if hex == "" {
		return Color{}, nil
	}
	if len(hex) == 8 {
		hex = hex[2:]
	}
	if len(hex) != 6 {
		return Color{}, fmt.Errorf("invalid colour %q", hex)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return Color{}, fmt.Errorf("invalid colour %q: %w", hex, err)
	}
	return Color{RGB: uint32(v), Set: true}, nil
}

// Hex formats the colour as six lower-case hex digits.
func (c Color) Hex() string {
	return fmt.Sprintf("%02x%02x%02x", byte(c.RGB>>16), byte(c.RGB>>8), byte(c.RGB))
}

// Horizontal alignment codes.
const (
	AlignGeneral = iota
	AlignLeft
	AlignCenter
	AlignRight
	AlignFill
	AlignJustify
	AlignCenterSelection
	AlignDistributed
)

// Vertical alignment codes.
const (
	VAlignTop = iota
	VAlignCenter
	VAlignBottom
	VAlignJustify
	VAlignDistributed
)

// Underline codes.
const (
	UnderlineNone             = 0
	UnderlineSingle           = 1
	UnderlineDouble           = 2
	UnderlineSingleAccounting = 0x21
	UnderlineDoubleAccounting = 0x22
)

// Font vertical offset codes.
const (
	OffsetNone = iota
	OffsetSuper
	OffsetSub
)

// StyleInfo is the formatting of one cell. Border and fill pattern values
// use the spreadsheet's numeric style codes (0 = none).
type StyleInfo struct {
	Alignment         int
	VerticalAlignment int
	WrapText          bool
	Indent            int
	Rotation          int

	BorderTop, BorderBottom, BorderLeft, BorderRight int

	TopBorderColor, BottomBorderColor, LeftBorderColor, RightBorderColor Color

	FillPattern    int
	FillForeground Color
	FillBackground Color

	DataFormat       int
	DataFormatString string

	Hidden bool
	Locked bool

	Font FontInfo
}

// FontInfo is the font of one cell.
type FontInfo struct {
	Name           string
	HeightInPoints float64
	Bold           bool
	Italic         bool
	Strikeout      bool
	Underline      int
	TypeOffset     int
	CharSet        int
	Color          Color
}

// Height returns the font height in twentieths of a point.
func (f FontInfo) Height() int {
	return int(f.HeightInPoints * 20)
}

// CommentInfo is a cell comment. Anchor is nil when the provider does not
// expose the drawing anchor.
type CommentInfo struct {
	Author  string
	Text    string
	Row     int
	Col     int
	Visible bool
	Anchor  *ClientAnchor
}

// ClientAnchor positions a comment box on the sheet.
type ClientAnchor struct {
	AnchorType int
	Col1, Col2 int
	Dx1, Dx2   int
	Dy1, Dy2   int
	Row1, Row2 int
}

// builtinFormats maps built-in number format ids to their format strings.
var builtinFormats = map[int]string{
	0:  "General",
	1:  "0",
	2:  "0.00",
	3:  "#,##0",
	4:  "#,##0.00",
	5:  "\"$\"#,##0_);(\"$\"#,##0)",
	6:  "\"$\"#,##0_);[Red](\"$\"#,##0)",
	7:  "\"$\"#,##0.00_);(\"$\"#,##0.00)",
	8:  "\"$\"#,##0.00_);[Red](\"$\"#,##0.00)",
	9:  "0%",
	10: "0.00%",
	11: "0.00E+00",
	12: "# ?/?",
	13: "# ??/??",
	14: "m/d/yy",
	15: "d-mmm-yy",
	16: "d-mmm",
	17: "mmm-yy",
	18: "h:mm AM/PM",
	19: "h:mm:ss AM/PM",
	20: "h:mm",
	21: "h:mm:ss",
	22: "m/d/yy h:mm",
	37: "#,##0_);(#,##0)",
	38: "#,##0_);[Red](#,##0)",
	39: "#,##0.00_);(#,##0.00)",
	40: "#,##0.00_);[Red](#,##0.00)",
	45: "mm:ss",
	46: "[h]:mm:ss",
	47: "mm:ss.0",
	48: "##0.0E+0",
	49: "@",
}

// BuiltinFormat returns the format string of a built-in number format id.
func BuiltinFormat(id int) (string, bool) {
	s, ok := builtinFormats[id]
	return s, ok
}
