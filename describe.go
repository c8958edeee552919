package xlparse

import (
	"fmt"
	"strings"
)

// Describe opens a workbook and returns a human-readable plan showing, for
// every selected sheet, the record orientation and where each column reads
// its value. Useful for debugging configurations.
func Describe(path string, cfg *Config, opts ...Option) (string, error) {
	g, err := OpenFile(path)
	if err != nil {
		return "", err
	}
	defer g.Close()

	p, err := NewParser(cfg, opts...)
	if err != nil {
		return "", err
	}
	out, err := p.Describe(g)
	if err != nil {
		return "", err
	}
	return "Workbook: " + path + "\n" + out, nil
}

// Describe renders the per-sheet plan for g.
func (p *Parser) Describe(g Grid) (string, error) {
	sheets, err := p.ResolveSheets(g)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	for _, sheet := range sheets {
		if SheetIndex(g, sheet) < 0 {
			fmt.Fprintf(&b, "Sheet %q: not found\n", sheet)
			continue
		}
		pl, err := p.plan(sheet)
		if err != nil {
			return "", fmt.Errorf("describe sheet %q: %w", sheet, err)
		}
		p.describeSheet(&b, pl)
	}
	return b.String(), nil
}

// describeSheet writes one sheet header and its column lines.
func (p *Parser) describeSheet(b *strings.Builder, pl *sheetPlan) {
	st := pl.settings
	fmt.Fprintf(b, "Sheet %q record_type=%s skip_header_lines=%d", st.Name, st.Orientation, st.Skip)
	if st.OverrideKey != "" {
		fmt.Fprintf(b, " sheet_options=%q", st.OverrideKey)
	}
	b.WriteByte('\n')

	for i, spec := range pl.specs {
		bind := pl.bindings[i]
		fmt.Fprintf(b, "  column.name=%s <- ", spec.Name)
		if where := bind.Describe(st.Orientation); where != "" {
			b.WriteString(where)
			b.WriteString(", ")
		}
		fmt.Fprintf(b, "value=%s type=%s%s\n", spec.Value, spec.Type, describeColumnOptions(spec))
	}
}

// describeColumnOptions lists the options that differ from their defaults.
func describeColumnOptions(spec *ColumnSpec) string {
	var parts []string
	if spec.HasAttributeNames {
		parts = append(parts, fmt.Sprintf("attribute_name=%v", spec.AttributeNames))
	}
	if spec.NumericFormat != "" {
		parts = append(parts, fmt.Sprintf("numeric_format=%q", spec.NumericFormat))
	}
	if spec.SearchMerged != MergedHash && spec.Value.Kind.UsesCell(OrientationRow) {
		parts = append(parts, "search_merged_cell="+spec.SearchMerged.String())
	}
	if spec.FormulaHandling != FormulaEvaluate {
		parts = append(parts, "formula_handling="+spec.FormulaHandling.String())
	}
	for _, r := range spec.Replacers {
		parts = append(parts, "formula_replace="+r.String())
	}
	strategies := []struct {
		name string
		st   ErrorStrategy
	}{
		{"on_evaluate_error", spec.OnEvaluateError},
		{"on_cell_error", spec.OnCellError},
		{"on_convert_error", spec.OnConvertError},
	}
	for _, s := range strategies {
		if s.st.Kind != StrategyDefault {
			parts = append(parts, s.name+"="+s.st.String())
		}
	}
	if spec.Type == TypeTimestamp {
		parts = append(parts, fmt.Sprintf("format=%q timezone=%s", spec.TimestampFormat, spec.Location))
	}
	if len(parts) == 0 {
		return ""
	}
	return " " + strings.Join(parts, " ")
}
