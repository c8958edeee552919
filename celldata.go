package xlparse

import (
	"strconv"
	"strings"
)

// CellKind is the type tag of a CellContent. The numeric values are the
// codes reported by the cell_type value kind.
type CellKind int

const (
	CellNumeric CellKind = iota
	CellString
	CellFormula
	CellBlank
	CellBoolean
	CellErrorCode
)

// String returns the upper-case name reported for string targets.
func (k CellKind) String() string {
	switch k {
	case CellNumeric:
		return "NUMERIC"
	case CellString:
		return "STRING"
	case CellFormula:
		return "FORMULA"
	case CellBlank:
		return "BLANK"
	case CellBoolean:
		return "BOOLEAN"
	case CellErrorCode:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// CellContent is the decoded content of a single cell.
type CellContent struct {
	Kind    CellKind
	Number  float64
	Text    string // string value, or formula text without the leading "="
	Bool    bool
	ErrCode int
	Cached  *CellContent // last calculated result of a formula cell, if known
}

// NumericCell creates numeric content.
func NumericCell(v float64) CellContent { return CellContent{Kind: CellNumeric, Number: v} }

// StringCell creates string content.
func StringCell(s string) CellContent { return CellContent{Kind: CellString, Text: s} }

// BoolCell creates boolean content.
func BoolCell(b bool) CellContent { return CellContent{Kind: CellBoolean, Bool: b} }

// ErrorCell creates error-code content.
func ErrorCell(code int) CellContent { return CellContent{Kind: CellErrorCode, ErrCode: code} }

// BlankCell creates blank content.
func BlankCell() CellContent { return CellContent{Kind: CellBlank} }

// FormulaCell creates formula content. A leading "=" is stripped; cached may be nil.
func FormulaCell(formula string, cached *CellContent) CellContent {
	return CellContent{Kind: CellFormula, Text: strings.TrimPrefix(formula, "="), Cached: cached}
}

// CachedKind returns the kind of the cached formula result, or the cell's
// own kind for non-formula cells.
func (c CellContent) CachedKind() CellKind {
	if c.Kind != CellFormula {
		return c.Kind
	}
	if c.Cached == nil {
		return CellBlank
	}
	return c.Cached.Kind
}

// Spreadsheet error codes as stored in binary workbooks.
const (
	ErrCodeNull        = 0x00
	ErrCodeDiv0        = 0x07
	ErrCodeValue       = 0x0F
	ErrCodeRef         = 0x17
	ErrCodeName        = 0x1D
	ErrCodeNum         = 0x24
	ErrCodeNA          = 0x2A
	ErrCodeGettingData = 0x2B
)

var errorCodeTexts = map[int]string{
	ErrCodeNull:        "#NULL!",
	ErrCodeDiv0:        "#DIV/0!",
	ErrCodeValue:       "#VALUE!",
	ErrCodeRef:         "#REF!",
	ErrCodeName:        "#NAME?",
	ErrCodeNum:         "#NUM!",
	ErrCodeNA:          "#N/A",
	ErrCodeGettingData: "#GETTING_DATA",
}

// ErrorCodeText returns the display text of an error code, e.g. 7 → "#DIV/0!".
func ErrorCodeText(code int) string {
	if s, ok := errorCodeTexts[code]; ok {
		return s
	}
	return "#ERR" + strconv.Itoa(code)
}

// ErrorCodeFromText maps display text back to its code.
func ErrorCodeFromText(s string) (int, bool) {
	s = strings.ToUpper(strings.TrimSpace(s))
	for code, text := range errorCodeTexts {
		if text == s {
			return code, true
		}
	}
	return 0, false
}
