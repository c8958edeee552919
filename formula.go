package xlparse

import (
	"fmt"
	"regexp"
	"strings"
)

// FormulaHandling selects how formula cells are read by cell_value.
type FormulaHandling int

const (
	FormulaEvaluate FormulaHandling = iota
	FormulaCachedValue
)

// ParseFormulaHandling parses a formula_handling value. "cashed_value" is
// accepted as the historical spelling.
func ParseFormulaHandling(s string) (FormulaHandling, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "evaluate":
		return FormulaEvaluate, nil
	case "cashed_value", "cached_value":
		return FormulaCachedValue, nil
	}
	return 0, configErrorf(ErrInvalidOption, "illegal formula_handling=%s. expected=[evaluate, cashed_value]", s)
}

// String returns the configuration name.
func (h FormulaHandling) String() string {
	if h == FormulaCachedValue {
		return "cashed_value"
	}
	return "evaluate"
}

// FormulaReplacer is one compiled formula_replace rule.
type FormulaReplacer struct {
	re     *regexp.Regexp
	to     string
	groups map[string]bool
}

// groupRefRegex matches placeholders that are regexp group numbers.
var groupRefRegex = regexp.MustCompile(`^\d+$`)

// CompileFormulaReplace compiles formula_replace rules in order.
func CompileFormulaReplace(rules []ReplaceRule) ([]*FormulaReplacer, error) {
	out := make([]*FormulaReplacer, 0, len(rules))
	for i, r := range rules {
		re, err := regexp.Compile(r.Regex)
		if err != nil {
			return nil, configErrorf(ErrInvalidOption, "formula_replace[%d] illegal regex=%q: %v", i, r.Regex, err)
		}
		for _, seg := range SplitTemplate(r.To) {
			if !seg.Placeholder || groupRefRegex.MatchString(seg.Text) {
				continue
			}
			if err := CheckExpression(seg.Text); err != nil {
				return nil, configErrorf(ErrInvalidOption, "formula_replace[%d] illegal to=%q: %v", i, r.To, err)
			}
		}
		fr := &FormulaReplacer{re: re, to: r.To, groups: make(map[string]bool)}
		for _, name := range re.SubexpNames() {
			if name != "" {
				fr.groups[name] = true
			}
		}
		out = append(out, fr)
	}
	return out, nil
}

// String returns the rule as "regex -> to".
func (r *FormulaReplacer) String() string {
	return r.re.String() + " -> " + r.to
}

func (r *FormulaReplacer) isGroupRef(s string) bool {
	return groupRefRegex.MatchString(s) || r.groups[s]
}

// RewriteFormula applies replacers in order. Placeholders in each
// replacement are expanded against ctx first; regexp group references
// (${1}, ${name}) are left for the regexp engine.
func RewriteFormula(formula string, replacers []*FormulaReplacer, ctx *Context) (string, error) {
	for _, r := range replacers {
		to, err := ctx.Expand(r.to, r.isGroupRef)
		if err != nil {
			return "", fmt.Errorf("formula_replace %s: %w", r, err)
		}
		formula = r.re.ReplaceAllString(formula, to)
	}
	return formula, nil
}
