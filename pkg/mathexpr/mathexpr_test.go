package mathexpr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEquivalentStringsAcceptsAlgebraicRewrites(t *testing.T) {
	cases := []struct {
		name      string
		canonical string
		submitted string
	}{
		{"like terms", "5x", "2x+3x"},
		{"commuted product", "5x", "x*5"},
		{"distribution", "2(x+3)", "2x + 6"},
		{"difference of squares", "x^2 - 9", "(x-3)(x+3)"},
		{"python power", "x^2", "x**2"},
		{"unicode operators", "6x", "2×3·x"},
		{"decimal coefficients", "0.5x", "x/2"},
		{"rational function", "1/x", "x^-1"},
		{"cancelled fraction", "x+1", "(x^2-1)/(x-1)"},
		{"multivariate", "xy + y", "y(x+1)"},
		{"equation rearranged", "y = 2x + 1", "y - 1 = 2x"},
		{"equation scaled", "x + y = 3", "2x + 2y = 6"},
		{"equation sides swapped", "2x = 4", "4 = 2x"},
		{"scientific notation", "1000", "1e3"},
		{"negative exponent", "0.0025x", "2.5E-3x"},
		{"signed exponent", "100", "1e+2"},
		{"bare e is a variable", "e*2", "2e"},
		{"e before an operator is a variable", "2e + 3", "3 + e*2"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ok, err := EquivalentStrings(tc.canonical, tc.submitted)
			require.NoError(t, err)
			require.True(t, ok)
		})
	}
}

func TestEquivalentStringsRejectsDifferentExpressions(t *testing.T) {
	cases := []struct {
		canonical string
		submitted string
	}{
		{"5x", "5y"},
		{"5x", "x^5"},
		{"x^2 - 9", "(x-3)^2"},
		{"y = 2x + 1", "y = 2x"},
		{"y = 2x", "2x"},
		{"x + y = 3", "x + y = 0"},
	}

	for _, tc := range cases {
		ok, err := EquivalentStrings(tc.canonical, tc.submitted)
		require.NoError(t, err, tc.submitted)
		require.False(t, ok, "%s should differ from %s", tc.submitted, tc.canonical)
	}
}

func TestParseRejectsMalformedInput(t *testing.T) {
	inputs := []string{"", "2x +", "(x+1", "x $ 2", "1..2", "x/0", "x = = 2"}
	for _, input := range inputs {
		_, err := Parse(input)
		require.Error(t, err, input)
		require.True(t, errors.Is(err, ErrInvalidExpression), input)
	}
}

func TestParseRejectsUnsupportedInput(t *testing.T) {
	inputs := []string{"sqrt(x)", "x^y", "x^0.5", "(x+1)^40", "1e99999999", "2E-400"}
	for _, input := range inputs {
		_, err := Parse(input)
		require.Error(t, err, input)
		require.True(t, errors.Is(err, ErrUnsupported), input)
	}
}

func TestStatementIsEquation(t *testing.T) {
	statement, err := Parse("y = 3x")
	require.NoError(t, err)
	require.True(t, statement.IsEquation())

	statement, err = Parse("3x")
	require.NoError(t, err)
	require.False(t, statement.IsEquation())
}
