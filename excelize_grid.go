package xlparse

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/xuri/excelize/v2"
)

// ExcelizeGrid implements Grid over an excelize workbook. Cell contents,
// merged regions and comments are read into memory when the grid is
// created; styles and formula evaluation go to the file.
type ExcelizeGrid struct {
	file     *excelize.File
	names    []string
	sheets   map[string]*sheetData
	date1904 bool

	mu     sync.Mutex // protects file and styles
	styles map[int]*StyleInfo
}

type cellKey struct{ row, col int }

// sheetData is the in-memory snapshot of one sheet.
type sheetData struct {
	cells    map[cellKey]CellContent
	rows     []int
	first    int
	end      int
	merged   []Region
	comments map[cellKey]*CommentInfo
}

// NewExcelizeGrid creates a Grid from an open excelize file. The grid takes
// ownership of f; Close closes it.
func NewExcelizeGrid(f *excelize.File) (*ExcelizeGrid, error) {
	g := &ExcelizeGrid{
		file:   f,
		sheets: make(map[string]*sheetData),
		styles: make(map[int]*StyleInfo),
	}
	if props, err := f.GetWorkbookProps(); err == nil && props.Date1904 != nil {
		g.date1904 = *props.Date1904
	}
	if err := g.readAllCellData(); err != nil {
		return nil, fmt.Errorf("read workbook data: %w", err)
	}
	return g, nil
}

// OpenFile opens an xlsx file as a Grid.
func OpenFile(path string) (*ExcelizeGrid, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook %q: %w", path, err)
	}
	g, err := NewExcelizeGrid(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	return g, nil
}

// OpenReader reads an xlsx workbook from r as a Grid.
func OpenReader(r io.Reader) (*ExcelizeGrid, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	g, err := NewExcelizeGrid(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	return g, nil
}

// Close releases the underlying file.
func (g *ExcelizeGrid) Close() error {
	return g.file.Close()
}

// File returns the underlying excelize file.
func (g *ExcelizeGrid) File() *excelize.File { return g.file }

func (g *ExcelizeGrid) readAllCellData() error {
	g.names = g.file.GetSheetList()
	for _, sheet := range g.names {
		sd := &sheetData{
			cells:    make(map[cellKey]CellContent),
			comments: make(map[cellKey]*CommentInfo),
			first:    -1,
		}

		rows, err := g.file.GetRows(sheet, excelize.Options{RawCellValue: true})
		if err != nil {
			return fmt.Errorf("read rows from sheet %q: %w", sheet, err)
		}
		for rowIdx, row := range rows {
			if len(row) == 0 {
				continue
			}
			sd.rows = append(sd.rows, rowIdx)
			for colIdx, raw := range row {
				name := NewCellRef(sheet, rowIdx, colIdx).CellName()
				content, ok, err := g.readCell(sheet, name, raw)
				if err != nil {
					return fmt.Errorf("read cell %s!%s: %w", sheet, name, err)
				}
				if ok {
					sd.cells[cellKey{rowIdx, colIdx}] = content
				}
			}
			sd.first = firstPopulated(row, sd.first)
			sd.end = max(sd.end, len(row))
		}
		if sd.first < 0 {
			sd.first = 0
		}

		merged, err := g.file.GetMergeCells(sheet, true)
		if err != nil {
			return fmt.Errorf("read merged cells from sheet %q: %w", sheet, err)
		}
		for _, mc := range merged {
			r, err := ParseRegion(mc.GetStartAxis() + ":" + mc.GetEndAxis())
			if err != nil {
				return fmt.Errorf("merged cell %q in sheet %q: %w", mc.GetStartAxis(), sheet, err)
			}
			sd.merged = append(sd.merged, r)
		}

		comments, err := g.file.GetComments(sheet)
		if err == nil {
			for _, c := range comments {
				ref, err := ParseCellRef(c.Cell)
				if err != nil {
					continue
				}
				sd.comments[cellKey{ref.Row, ref.Col}] = &CommentInfo{
					Author: c.Author,
					Text:   commentText(c),
					Row:    ref.Row,
					Col:    ref.Col,
				}
			}
		}

		g.sheets[sheet] = sd
	}
	return nil
}

// firstPopulated returns the smaller of prev (ignored when negative) and the
// first non-empty column of row.
func firstPopulated(row []string, prev int) int {
	for i, v := range row {
		if v != "" {
			if prev < 0 || i < prev {
				return i
			}
			return prev
		}
	}
	return prev
}

func commentText(c excelize.Comment) string {
	if c.Text != "" || len(c.Paragraph) == 0 {
		return c.Text
	}
	var b strings.Builder
	for _, run := range c.Paragraph {
		b.WriteString(run.Text)
	}
	return b.String()
}

// readCell classifies one cell position returned by GetRows. Positions
// that only pad a row (no value, no formula, default style) do not exist.
func (g *ExcelizeGrid) readCell(sheet, name, raw string) (CellContent, bool, error) {
	formula, err := g.file.GetCellFormula(sheet, name)
	if err != nil {
		return CellContent{}, false, err
	}
	if raw == "" && formula == "" {
		style, err := g.file.GetCellStyle(sheet, name)
		if err != nil {
			return CellContent{}, false, err
		}
		if style == 0 {
			return CellContent{}, false, nil
		}
	}
	typ, err := g.file.GetCellType(sheet, name)
	if err != nil {
		return CellContent{}, false, err
	}
	if formula != "" {
		var cached *CellContent
		if raw != "" {
			c := typedContent(typ, raw)
			cached = &c
		}
		return FormulaCell(formula, cached), true, nil
	}
	return typedContent(typ, raw), true, nil
}

// typedContent converts a raw stored value according to its cell type.
func typedContent(typ excelize.CellType, raw string) CellContent {
	if raw == "" {
		return BlankCell()
	}
	switch typ {
	case excelize.CellTypeBool:
		return BoolCell(raw == "1" || strings.EqualFold(raw, "true"))
	case excelize.CellTypeError:
		if code, ok := ErrorCodeFromText(raw); ok {
			return ErrorCell(code)
		}
		return StringCell(raw)
	case excelize.CellTypeSharedString, excelize.CellTypeInlineString, excelize.CellTypeFormula, excelize.CellTypeDate:
		return StringCell(raw)
	}
	if v, err := strconv.ParseFloat(raw, 64); err == nil {
		return NumericCell(v)
	}
	return StringCell(raw)
}

// inferContent types a calculated value, which excelize returns as text.
func inferContent(v string) CellContent {
	switch {
	case v == "":
		return BlankCell()
	case v == "TRUE":
		return BoolCell(true)
	case v == "FALSE":
		return BoolCell(false)
	}
	if code, ok := ErrorCodeFromText(v); ok && strings.HasPrefix(v, "#") {
		return ErrorCell(code)
	}
	if f, err := strconv.ParseFloat(v, 64); err == nil {
		return NumericCell(f)
	}
	return StringCell(v)
}

func (g *ExcelizeGrid) sheet(name string) (*sheetData, error) {
	sd, ok := g.sheets[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSheetNotFound, name)
	}
	return sd, nil
}

// SheetNames returns the sheets in workbook order.
func (g *ExcelizeGrid) SheetNames() []string { return g.names }

// Rows returns the indices of populated rows in ascending order.
func (g *ExcelizeGrid) Rows(sheet string) ([]int, error) {
	sd, err := g.sheet(sheet)
	if err != nil {
		return nil, err
	}
	return sd.rows, nil
}

// ColumnSpan returns the first populated column and one past the last.
func (g *ExcelizeGrid) ColumnSpan(sheet string) (int, int, error) {
	sd, err := g.sheet(sheet)
	if err != nil {
		return 0, 0, err
	}
	return sd.first, sd.end, nil
}

// Cell returns the content of a cell; false when the cell is not stored.
func (g *ExcelizeGrid) Cell(sheet string, row, col int) (CellContent, bool, error) {
	sd, err := g.sheet(sheet)
	if err != nil {
		return CellContent{}, false, err
	}
	c, ok := sd.cells[cellKey{row, col}]
	return c, ok, nil
}

// MergedRegions returns the merged regions of a sheet in file order.
func (g *ExcelizeGrid) MergedRegions(sheet string) ([]Region, error) {
	sd, err := g.sheet(sheet)
	if err != nil {
		return nil, err
	}
	return sd.merged, nil
}

// Date1904 reports whether the workbook uses the 1904 date system.
func (g *ExcelizeGrid) Date1904() bool { return g.date1904 }

// Comment returns the comment of a cell, or nil.
func (g *ExcelizeGrid) Comment(sheet string, row, col int) (*CommentInfo, error) {
	sd, err := g.sheet(sheet)
	if err != nil {
		return nil, err
	}
	return sd.comments[cellKey{row, col}], nil
}

// Evaluate calculates formula as if it were stored in the given cell. The
// cell's own formula is restored afterwards; a failed restore is reported.
func (g *ExcelizeGrid) Evaluate(sheet string, row, col int, formula string) (content CellContent, err error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	name := NewCellRef(sheet, row, col).CellName()
	orig, err := g.file.GetCellFormula(sheet, name)
	if err != nil {
		return CellContent{}, err
	}
	formula = strings.TrimPrefix(formula, "=")
	if formula != orig {
		if err := g.file.SetCellFormula(sheet, name, formula); err != nil {
			return CellContent{}, err
		}
		defer func() {
			if rerr := g.file.SetCellFormula(sheet, name, orig); rerr != nil && err == nil {
				content, err = CellContent{}, fmt.Errorf("restore formula of %s!%s: %w", sheet, name, rerr)
			}
		}()
	}

	v, err := g.file.CalcCellValue(sheet, name, excelize.Options{RawCellValue: true})
	if err != nil {
		// error values come back as the error token, in the result or the error text
		for _, token := range []string{v, err.Error()} {
			if code, ok := ErrorCodeFromText(token); ok {
				return ErrorCell(code), nil
			}
		}
		return CellContent{}, err
	}
	return inferContent(v), nil
}

// Style returns the formatting of a cell, cached per style id.
func (g *ExcelizeGrid) Style(sheet string, row, col int) (*StyleInfo, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	id, err := g.file.GetCellStyle(sheet, NewCellRef(sheet, row, col).CellName())
	if err != nil {
		return nil, err
	}
	if st, ok := g.styles[id]; ok {
		return st, nil
	}
	s, err := g.file.GetStyle(id)
	if err != nil {
		return nil, fmt.Errorf("read style %d: %w", id, err)
	}
	st := g.styleInfo(s)
	g.styles[id] = st
	return st, nil
}

var horizontalCodes = map[string]int{
	"":                 AlignGeneral,
	"general":          AlignGeneral,
	"left":             AlignLeft,
	"center":           AlignCenter,
	"right":            AlignRight,
	"fill":             AlignFill,
	"justify":          AlignJustify,
	"centerContinuous": AlignCenterSelection,
	"distributed":      AlignDistributed,
}

var verticalCodes = map[string]int{
	"top":         VAlignTop,
	"center":      VAlignCenter,
	"":            VAlignBottom,
	"bottom":      VAlignBottom,
	"justify":     VAlignJustify,
	"distributed": VAlignDistributed,
}

var underlineCodes = map[string]int{
	"single":           UnderlineSingle,
	"double":           UnderlineDouble,
	"singleAccounting": UnderlineSingleAccounting,
	"doubleAccounting": UnderlineDoubleAccounting,
}

// styleInfo maps an excelize style to StyleInfo.
func (g *ExcelizeGrid) styleInfo(s *excelize.Style) *StyleInfo {
	st := &StyleInfo{
		VerticalAlignment: VAlignBottom,
		Locked:            true,
		DataFormat:        s.NumFmt,
	}
	if a := s.Alignment; a != nil {
		st.Alignment = horizontalCodes[a.Horizontal]
		st.VerticalAlignment = verticalCodes[a.Vertical]
		st.WrapText = a.WrapText
		st.Indent = a.Indent
		st.Rotation = a.TextRotation
		if st.Rotation > 90 {
			st.Rotation = 90 - st.Rotation
		}
	}
	for _, b := range s.Border {
		color, _ := ParseColor(b.Color)
		switch b.Type {
		case "top":
			st.BorderTop, st.TopBorderColor = b.Style, color
		case "bottom":
			st.BorderBottom, st.BottomBorderColor = b.Style, color
		case "left":
			st.BorderLeft, st.LeftBorderColor = b.Style, color
		case "right":
			st.BorderRight, st.RightBorderColor = b.Style, color
		}
	}
	if s.Fill.Type == "pattern" {
		st.FillPattern = s.Fill.Pattern
		if len(s.Fill.Color) > 0 {
			st.FillForeground, _ = ParseColor(s.Fill.Color[0])
		}
	}
	if s.CustomNumFmt != nil {
		st.DataFormatString = *s.CustomNumFmt
	} else if f, ok := BuiltinFormat(s.NumFmt); ok {
		st.DataFormatString = f
	}
	if p := s.Protection; p != nil {
		st.Hidden, st.Locked = p.Hidden, p.Locked
	}
	st.Font = g.fontInfo(s.Font)
	return st
}

func (g *ExcelizeGrid) fontInfo(f *excelize.Font) FontInfo {
	if f == nil {
		name, _ := g.file.GetDefaultFont()
		return FontInfo{Name: name, HeightInPoints: 11}
	}
	fi := FontInfo{
		Name:           f.Family,
		HeightInPoints: f.Size,
		Bold:           f.Bold,
		Italic:         f.Italic,
		Strikeout:      f.Strike,
		Underline:      underlineCodes[f.Underline],
	}
	switch f.VertAlign {
	case "superscript":
		fi.TypeOffset = OffsetSuper
	case "subscript":
		fi.TypeOffset = OffsetSub
	}
	if f.Charset != nil {
		fi.CharSet = *f.Charset
	}
	if f.Color != "" || f.ColorTheme != nil || f.ColorIndexed != 0 {
		fi.Color, _ = ParseColor(g.file.GetBaseColor(f.Color, f.ColorIndexed, f.ColorTheme))
	}
	return fi
}
