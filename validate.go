package xlparse

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Severity indicates the severity of a validation issue.
type Severity int

const (
	SeverityError   Severity = iota // Parsing will fail
	SeverityWarning                 // Parsing may produce unexpected results
)

// ValidationIssue represents a single problem found in a configuration.
type ValidationIssue struct {
	Severity Severity
	Sheet    string
	Column   string
	Message  string
}

// String formats the issue as "[ERROR] sheet=Sheet1 column=id: message" or "[WARN] ...".
func (v ValidationIssue) String() string {
	sev := "ERROR"
	if v.Severity == SeverityWarning {
		sev = "WARN"
	}
	var where []string
	if v.Sheet != "" {
		where = append(where, "sheet="+v.Sheet)
	}
	if v.Column != "" {
		where = append(where, "column="+v.Column)
	}
	if len(where) == 0 {
		return fmt.Sprintf("[%s] %s", sev, v.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", sev, strings.Join(where, " "), v.Message)
}

// HasErrors reports whether any issue has error severity.
func HasErrors(issues []ValidationIssue) bool {
	for _, i := range issues {
		if i.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Validate checks a configuration against a workbook without producing
// records. A non-nil error indicates the workbook could not be opened.
func Validate(path string, cfg *Config, opts ...Option) ([]ValidationIssue, error) {
	g, err := OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer g.Close()

	p, err := NewParser(cfg, opts...)
	if err != nil {
		return []ValidationIssue{issueFromError(SeverityError, "", err)}, nil
	}
	return p.Validate(g), nil
}

// Validate performs static checks of the configuration against g.
// Option strings, regexes, timezones and attribute keys are checked per
// column; bindings are checked per sheet.
func (p *Parser) Validate(g Grid) []ValidationIssue {
	var issues []ValidationIssue
	sheets, err := p.ResolveSheets(g)
	if err != nil {
		return append(issues, issueFromError(SeverityError, "", err))
	}
	issues = append(issues, p.validatePatterns(g)...)
	issues = append(issues, p.validateSheetOptions(g)...)

	for _, sheet := range sheets {
		if SheetIndex(g, sheet) < 0 {
			sev := SeverityError
			if p.ignoreSheetNotFound() {
				sev = SeverityWarning
			}
			issues = append(issues, ValidationIssue{Severity: sev, Sheet: sheet, Message: "not found sheet"})
			continue
		}
		issues = append(issues, p.validateSheet(sheet)...)
	}
	return issues
}

// validatePatterns warns about sheet globs that match nothing.
func (p *Parser) validatePatterns(g Grid) []ValidationIssue {
	var issues []ValidationIssue
	patterns, _ := p.patterns()
	for _, s := range patterns {
		if !strings.ContainsAny(s, "*?") {
			continue
		}
		m, err := compileSheetGlob(s)
		if err != nil {
			continue
		}
		matched := false
		for _, name := range g.SheetNames() {
			if m.Match(name) {
				matched = true
				break
			}
		}
		if !matched {
			issues = append(issues, ValidationIssue{
				Severity: SeverityWarning,
				Message:  fmt.Sprintf("sheet pattern %q matches no sheet", s),
			})
		}
	}
	return issues
}

// validateSheetOptions warns about sheet_options entries that apply to no
// sheet and column overrides for undeclared columns.
func (p *Parser) validateSheetOptions(g Grid) []ValidationIssue {
	var issues []ValidationIssue
	declared := make(map[string]bool, len(p.cfg.Columns))
	for _, c := range p.cfg.Columns {
		declared[c.Name] = true
	}

	keys := make([]string, 0, len(p.cfg.SheetOptions))
	for k := range p.cfg.SheetOptions {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, key := range keys {
		used := false
		for _, name := range g.SheetNames() {
			if k, _ := p.cfg.sheetOverride(name); k == key {
				used = true
				break
			}
		}
		if !used {
			issues = append(issues, ValidationIssue{
				Severity: SeverityWarning,
				Message:  fmt.Sprintf("sheet_options %q applies to no sheet", key),
			})
		}
		so := p.cfg.SheetOptions[key]
		if so == nil {
			continue
		}
		names := make([]string, 0, len(so.Columns))
		for name := range so.Columns {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			if !declared[name] {
				issues = append(issues, ValidationIssue{
					Severity: SeverityWarning,
					Column:   name,
					Message:  fmt.Sprintf("sheet_options %q overrides undeclared column", key),
				})
			}
		}
	}
	return issues
}

// validateSheet collects every column failure of one sheet, then checks
// the bindings when all columns resolved.
func (p *Parser) validateSheet(sheet string) []ValidationIssue {
	var issues []ValidationIssue
	st, err := p.cfg.ResolveSheet(sheet)
	if err != nil {
		return append(issues, issueFromError(SeverityError, sheet, err))
	}

	_, so := p.cfg.sheetOverride(sheet)
	defs := specDefaults{location: p.opts.location}
	specs := make([]*ColumnSpec, 0, len(p.cfg.Columns))
	for i := range p.cfg.Columns {
		col := &p.cfg.Columns[i]
		var override *ColumnOptions
		if so != nil {
			override = so.Columns[col.Name]
		}
		spec, err := p.cfg.columnSpec(col, override, so, defs)
		if err != nil {
			issues = append(issues, ValidationIssue{Severity: SeverityError, Sheet: sheet, Column: col.Name, Message: err.Error()})
			continue
		}
		specs = append(specs, spec)
	}
	if len(issues) > 0 {
		return issues
	}

	if _, err := BindColumns(sheet, specs, st.Orientation); err != nil {
		issues = append(issues, issueFromError(SeverityError, sheet, err))
	}
	for _, spec := range specs {
		if spec.Value.Kind == KindConstant && spec.Type == TypeTimestamp && spec.Value.HasSuffix {
			c := coercer{spec: spec}
			if _, err := c.convert(stringSource(spec.Value.Suffix)); err != nil {
				issues = append(issues, ValidationIssue{
					Severity: SeverityWarning,
					Sheet:    sheet,
					Column:   spec.Name,
					Message:  fmt.Sprintf("constant %q does not parse with format %q", spec.Value.Suffix, spec.TimestampFormat),
				})
			}
		}
	}
	return issues
}

// issueFromError converts an error into an issue, keeping the column of a
// ConfigError.
func issueFromError(sev Severity, sheet string, err error) ValidationIssue {
	issue := ValidationIssue{Severity: sev, Sheet: sheet, Message: err.Error()}
	var ce *ConfigError
	if errors.As(err, &ce) {
		if ce.Sheet != "" {
			issue.Sheet = ce.Sheet
		}
		issue.Column = ce.Column
		issue.Message = ce.Err.Error()
	}
	return issue
}
