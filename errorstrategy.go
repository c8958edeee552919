package xlparse

import (
	"strings"
)

// StrategyKind is the policy applied when a cell error, a formula
// evaluation failure or a type conversion failure occurs.
type StrategyKind int

const (
	StrategyDefault StrategyKind = iota
	StrategyException
	StrategyConstant
	StrategyErrorCode
)

var strategyNames = map[string]StrategyKind{
	"DEFAULT":    StrategyDefault,
	"EXCEPTION":  StrategyException,
	"CONSTANT":   StrategyConstant,
	"ERROR_CODE": StrategyErrorCode,
}

// String returns the lower-case configuration name.
func (k StrategyKind) String() string {
	for name, v := range strategyNames {
		if v == k {
			return strings.ToLower(name)
		}
	}
	return "unknown"
}

// ErrorStrategy is a parsed "kind[.literal]" error policy.
type ErrorStrategy struct {
	Kind       StrategyKind
	Literal    string
	HasLiteral bool
}

// ParseErrorStrategy parses an error strategy string. "null" is shorthand
// for a constant without literal. The literal follows the first "." and is
// kept untrimmed, so "constant." yields an empty-string literal.
func ParseErrorStrategy(s string) (ErrorStrategy, error) {
	if strings.EqualFold(strings.TrimSpace(s), "null") {
		return ErrorStrategy{Kind: StrategyConstant}, nil
	}
	head, literal, hasLiteral := strings.Cut(s, ".")
	kind, ok := strategyNames[strings.ToUpper(strings.TrimSpace(head))]
	if !ok {
		return ErrorStrategy{}, configErrorf(ErrInvalidOption,
			"illegal on-error type=%s. expected=[default, exception, constant, error_code]", s)
	}
	if kind != StrategyConstant {
		literal, hasLiteral = "", false
	}
	return ErrorStrategy{Kind: kind, Literal: literal, HasLiteral: hasLiteral}, nil
}

// String formats the strategy back to its configuration form.
func (e ErrorStrategy) String() string {
	if e.HasLiteral {
		return e.Kind.String() + "." + e.Literal
	}
	return e.Kind.String()
}

// IsNullConstant reports whether the strategy substitutes null.
func (e ErrorStrategy) IsNullConstant() bool {
	return e.Kind == StrategyConstant && !e.HasLiteral
}
