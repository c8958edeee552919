package xlparse

import (
	"fmt"
	"strings"
)

// Context carries the position of the cell being processed and evaluates
// ${...} placeholders against it. Available variables:
//
//	row            1-based row number
//	column         column letters, e.g. "B"
//	column_number  1-based column number
//	sheet          sheet name
type Context struct {
	vars      map[string]any
	evaluator ExpressionEvaluator
}

// NewContext creates a Context positioned at ref. A nil evaluator selects
// the expr-lang/expr one.
func NewContext(ref CellRef, ev ExpressionEvaluator) *Context {
	if ev == nil {
		ev = NewExpressionEvaluator()
	}
	return &Context{
		vars: map[string]any{
			"row":           ref.Row + 1,
			"column":        ColToName(ref.Col),
			"column_number": ref.Col + 1,
			"sheet":         ref.Sheet,
		},
		evaluator: ev,
	}
}

// GetVar returns a position variable.
func (c *Context) GetVar(name string) any {
	return c.vars[name]
}

// Evaluate evaluates an expression against the position variables.
func (c *Context) Evaluate(expression string) (any, error) {
	return c.evaluator.Evaluate(expression, c.vars)
}

// Expand substitutes every ${...} placeholder of template. Placeholders for
// which keep returns true are left untouched so that regexp group
// references such as ${1} survive. Substituted text has "$" doubled, ready
// for use as a regexp replacement.
func (c *Context) Expand(template string, keep func(string) bool) (string, error) {
	var b strings.Builder
	for _, part := range SplitTemplate(template) {
		switch {
		case !part.Placeholder:
			b.WriteString(part.Text)
		case keep != nil && keep(part.Text):
			b.WriteString("${" + part.Text + "}")
		default:
			val, err := c.Evaluate(part.Text)
			if err != nil {
				return "", fmt.Errorf("expand %q: %w", template, err)
			}
			if val != nil {
				b.WriteString(strings.ReplaceAll(fmt.Sprint(val), "$", "$$"))
			}
		}
	}
	return b.String(), nil
}
