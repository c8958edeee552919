package xlparse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseErrorStrategy(t *testing.T) {
	tests := []struct {
		in   string
		want ErrorStrategy
	}{
		{"default", ErrorStrategy{Kind: StrategyDefault}},
		{"EXCEPTION", ErrorStrategy{Kind: StrategyException}},
		{"error_code", ErrorStrategy{Kind: StrategyErrorCode}},
		{"null", ErrorStrategy{Kind: StrategyConstant}},
		{"constant", ErrorStrategy{Kind: StrategyConstant}},
		{"constant.", ErrorStrategy{Kind: StrategyConstant, HasLiteral: true}},
		{"constant.0", ErrorStrategy{Kind: StrategyConstant, Literal: "0", HasLiteral: true}},
		{"constant.1.5", ErrorStrategy{Kind: StrategyConstant, Literal: "1.5", HasLiteral: true}},
		{"exception.ignored", ErrorStrategy{Kind: StrategyException}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseErrorStrategy(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseErrorStrategy_Invalid(t *testing.T) {
	_, err := ParseErrorStrategy("ignore")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidOption)
	assert.Contains(t, err.Error(), "expected=[default, exception, constant, error_code]")
}

func TestErrorStrategy_String(t *testing.T) {
	s, err := ParseErrorStrategy("constant.n/a")
	require.NoError(t, err)
	assert.Equal(t, "constant.n/a", s.String())
	assert.False(t, s.IsNullConstant())

	s, err = ParseErrorStrategy("null")
	require.NoError(t, err)
	assert.Equal(t, "constant", s.String())
	assert.True(t, s.IsNullConstant())
}
