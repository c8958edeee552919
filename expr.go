package xlparse

import (
	"fmt"
	"strings"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// ExpressionEvaluator evaluates the placeholders of formula_replace targets
// against the position variables of a cell.
type ExpressionEvaluator interface {
	Evaluate(expression string, vars map[string]any) (any, error)
}

// programCache compiles placeholders with expr-lang/expr once per text.
type programCache struct {
	programs sync.Map // string → *vm.Program
}

// NewExpressionEvaluator returns the expr-lang/expr backed evaluator.
func NewExpressionEvaluator() ExpressionEvaluator {
	return &programCache{}
}

func (pc *programCache) Evaluate(expression string, vars map[string]any) (any, error) {
	if strings.TrimSpace(expression) == "" {
		return nil, nil
	}
	prog, err := pc.program(expression, vars)
	if err != nil {
		return nil, fmt.Errorf("compile expression %q: %w", expression, err)
	}
	out, err := expr.Run(prog, vars)
	if err != nil {
		return nil, fmt.Errorf("evaluate expression %q: %w", expression, err)
	}
	return out, nil
}

func (pc *programCache) program(expression string, vars map[string]any) (*vm.Program, error) {
	if p, ok := pc.programs.Load(expression); ok {
		return p.(*vm.Program), nil
	}
	p, err := expr.Compile(expression, expr.Env(vars), expr.AllowUndefinedVariables())
	if err != nil {
		return nil, err
	}
	actual, _ := pc.programs.LoadOrStore(expression, p)
	return actual.(*vm.Program), nil
}

// CheckExpression reports syntax errors of a placeholder without any
// variables bound.
func CheckExpression(expression string) error {
	_, err := expr.Compile(expression, expr.AllowUndefinedVariables())
	return err
}

// TemplatePart is literal text or the body of a ${...} placeholder.
type TemplatePart struct {
	Placeholder bool
	Text        string
}

// SplitTemplate cuts a replacement target such as "B${row}" into literal
// and placeholder parts. Braces inside a placeholder nest; an unclosed
// "${" is kept as literal text.
func SplitTemplate(template string) []TemplatePart {
	var parts []TemplatePart
	rest := template
	for {
		open := strings.Index(rest, "${")
		if open < 0 {
			break
		}
		body := rest[open+2:]
		closeAt := closingBrace(body)
		if closeAt < 0 {
			break
		}
		if open > 0 {
			parts = append(parts, TemplatePart{Text: rest[:open]})
		}
		parts = append(parts, TemplatePart{Placeholder: true, Text: body[:closeAt]})
		rest = body[closeAt+1:]
	}
	if rest != "" {
		parts = append(parts, TemplatePart{Text: rest})
	}
	return parts
}

// closingBrace returns the index of the "}" that balances an already
// opened placeholder, or -1.
func closingBrace(s string) int {
	depth := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '{':
			depth++
		case '}':
			if depth == 0 {
				return i
			}
			depth--
		}
	}
	return -1
}
