package xlparse

import (
	"fmt"

	"github.com/rs/zerolog"
)

// valueEngine resolves column values for the records of one sheet.
type valueEngine struct {
	grid      Grid
	sheet     string
	merged    *MergedRegionIndex
	evaluator ExpressionEvaluator
	log       zerolog.Logger
}

// Resolve produces the value of one column for the cursor's current record.
// Failures carry the column name and the cell reference.
func (e *valueEngine) Resolve(spec *ColumnSpec, b ColumnBinding, cur RecordCursor) (Value, error) {
	v, err := e.resolve(spec, b, cur)
	if err != nil {
		return Value{}, &CellError{Column: spec.Name, Ref: cur.Ref(b), Err: err}
	}
	return v, nil
}

func (e *valueEngine) resolve(spec *ColumnSpec, b ColumnBinding, cur RecordCursor) (Value, error) {
	c := coercer{spec: spec, date1904: e.grid.Date1904()}

	sheet := e.sheet
	if b.Kind == BindingAddress && b.Address.Sheet != "" {
		sheet = b.Address.Sheet
	}

	switch spec.Value.Kind {
	case KindSheetName:
		idx := SheetIndex(e.grid, sheet)
		if idx < 0 {
			return Value{}, fmt.Errorf("%w: not found sheet=%s", ErrSheetNotFound, sheet)
		}
		return c.coerce(sheetNameSource(sheet, idx))
	case KindRowNumber:
		row, err := cur.RowIndex(b)
		if err != nil {
			return Value{}, err
		}
		return c.coerce(source{kind: srcRowNumber, n: int64(row + 1)})
	case KindColumnNumber:
		col, err := cur.ColumnIndex(b)
		if err != nil {
			return Value{}, err
		}
		return c.coerce(source{kind: srcColumnNumber, n: int64(col + 1)})
	case KindConstant:
		if !spec.Value.HasSuffix {
			return c.null(), nil
		}
		return c.coerce(stringSource(spec.Value.Suffix))
	}

	row, err := cur.RowIndex(b)
	if err != nil {
		return Value{}, err
	}
	col, err := cur.ColumnIndex(b)
	if err != nil {
		return Value{}, err
	}
	ref := CellRef{Sheet: sheet, Row: row, Col: col}

	content, exists, err := e.grid.Cell(sheet, row, col)
	if err != nil {
		return Value{}, err
	}

	switch spec.Value.Kind {
	case KindCellValue, KindCellFormula:
		if !exists {
			content = BlankCell()
		}
		return e.cellValue(spec, c, ref, content)
	case KindCellType, KindCellCachedType:
		if !exists {
			return c.null(), nil
		}
		kind := content.Kind
		if spec.Value.Kind == KindCellCachedType {
			kind = content.CachedKind()
		}
		if c.target() == TypeString {
			return c.coerce(stringSource(kind.String()))
		}
		return c.coerce(numericSource(float64(kind)))
	case KindCellStyle, KindCellFont, KindCellComment:
		if !exists {
			return c.null(), nil
		}
		return projectAttribute(e.grid, spec, c, sheet, row, col)
	}
	return Value{}, fmt.Errorf("unsupported value=%s", spec.Value)
}

func (e *valueEngine) cellValue(spec *ColumnSpec, c coercer, ref CellRef, content CellContent) (Value, error) {
	switch content.Kind {
	case CellFormula:
		if spec.Value.Kind == KindCellFormula {
			return c.coerce(stringSource(content.Text))
		}
		if spec.FormulaHandling == FormulaCachedValue {
			if content.Cached == nil || content.Cached.Kind == CellBlank {
				return e.blank(spec, c, ref)
			}
			return e.cellValue(spec, c, ref, *content.Cached)
		}
		return e.evaluate(spec, c, ref, content.Text)
	case CellBlank:
		return e.blank(spec, c, ref)
	case CellErrorCode:
		return e.cellError(spec, c, content.ErrCode)
	}
	return c.coerce(contentSource(content))
}

// blank looks through to the anchor of a merged region containing ref.
func (e *valueEngine) blank(spec *ColumnSpec, c coercer, ref CellRef) (Value, error) {
	region, found, err := e.merged.Find(spec.SearchMerged, ref.Sheet, ref.Row, ref.Col)
	if err != nil {
		return Value{}, err
	}
	if found && (region.FirstRow != ref.Row || region.FirstCol != ref.Col) {
		anchor := region.Anchor(ref.Sheet)
		content, exists, err := e.grid.Cell(anchor.Sheet, anchor.Row, anchor.Col)
		if err != nil {
			return Value{}, err
		}
		if !exists {
			return c.null(), nil
		}
		e.log.Trace().Str("cell", ref.String()).Str("anchor", anchor.CellName()).Msg("merged cell")
		return e.cellValue(spec, c, anchor, content)
	}
	return c.coerce(blankSource())
}

func (e *valueEngine) evaluate(spec *ColumnSpec, c coercer, ref CellRef, formula string) (Value, error) {
	if len(spec.Replacers) > 0 {
		rewritten, err := RewriteFormula(formula, spec.Replacers, NewContext(ref, e.evaluator))
		if err != nil {
			return Value{}, err
		}
		if rewritten != formula {
			e.log.Debug().Str("old", formula).Str("new", rewritten).Msg("formula replaced")
			formula = rewritten
		}
	}

	result, err := e.grid.Evaluate(ref.Sheet, ref.Row, ref.Col, formula)
	if err != nil {
		if st := spec.OnEvaluateError; st.Kind == StrategyConstant {
			if !st.HasLiteral {
				return c.null(), nil
			}
			return c.coerce(stringSource(st.Literal))
		}
		return Value{}, fmt.Errorf("evaluate error. formula=%s: %w", formula, err)
	}

	switch result.Kind {
	case CellBlank:
		return c.coerce(blankSource())
	case CellErrorCode:
		return e.cellError(spec, c, result.ErrCode)
	case CellFormula:
		return Value{}, fmt.Errorf("evaluate error. formula=%s: unexpected formula result", formula)
	}
	return c.coerce(contentSource(result))
}

// cellError applies the cell-error strategy to a spreadsheet error code.
func (e *valueEngine) cellError(spec *ColumnSpec, c coercer, code int) (Value, error) {
	st := spec.OnCellError
	switch st.Kind {
	case StrategyConstant:
		if !st.HasLiteral {
			return c.null(), nil
		}
		return c.coerce(stringSource(st.Literal))
	case StrategyErrorCode:
		return c.coerce(errorSource(code))
	case StrategyException:
		return Value{}, fmt.Errorf("encount cell error. error_code=%d(%s)", code, ErrorCodeText(code))
	}
	return c.null(), nil
}
