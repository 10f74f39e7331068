// Package mathexpr parses algebraic expressions and equations and decides symbolic equivalence.
//
// Expressions are normalised into quotients of multivariate polynomials with exact rational
// coefficients, so "2x+3x", "5x" and "x*5" compare equal without floating point error.
// Supported syntax: numbers (integers, decimals and scientific notation such as 1e3 or 2.5E-2,
// where an "e" directly followed by digits is an exponent), single-letter variables, + - * / and ^ (or
// **), parentheses, implicit multiplication ("2x", "3(x+1)", "xy") and a single "=" for
// equations. Integer exponents up to 16 are supported; transcendental functions are not.
package mathexpr

import (
	"errors"
	"fmt"
	"math/big"
	"strings"
)

var (
	// ErrInvalidExpression indicates the input could not be parsed.
	ErrInvalidExpression = errors.New("invalid expression")
	// ErrUnsupported indicates syntactically valid input outside the supported algebra.
	ErrUnsupported = errors.New("unsupported expression")

	errDivisionByZero      = fmt.Errorf("%w: division by zero", ErrInvalidExpression)
	errUnsupportedExponent = fmt.Errorf("%w: exponent must be an integer constant", ErrUnsupported)
	errTooComplex          = fmt.Errorf("%w: expression too complex", ErrUnsupported)
)

// Statement is a parsed expression or equation.
type Statement struct {
	lhs     rational
	rhs     rational
	isEquat bool
}

// IsEquation reports whether the statement contains "=".
func (s Statement) IsEquation() bool {
	return s.isEquat
}

// Parse parses an expression or a single equation.
func Parse(input string) (Statement, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return Statement{}, fmt.Errorf("%w: empty input", ErrInvalidExpression)
	}
	if len(input) > maxInputLength {
		return Statement{}, fmt.Errorf("%w: input too long", ErrUnsupported)
	}

	tokens, err := tokenize(input)
	if err != nil {
		return Statement{}, err
	}

	p := &parser{tokens: tokens}
	lhs, err := p.parseExpr()
	if err != nil {
		return Statement{}, err
	}

	statement := Statement{lhs: lhs}
	if p.peek().kind == tokenEquals {
		p.next()
		rhs, err := p.parseExpr()
		if err != nil {
			return Statement{}, err
		}
		statement.rhs = rhs
		statement.isEquat = true
	}

	if p.peek().kind != tokenEOF {
		return Statement{}, fmt.Errorf("%w: unexpected %q", ErrInvalidExpression, p.peek().text)
	}

	return statement, nil
}

// Equivalent reports whether two statements are algebraically equivalent. Expressions are
// equivalent when their difference is identically zero. Equations are equivalent when
// (lhs - rhs) of one is a non-zero constant multiple of the other's. An expression is never
// equivalent to an equation.
func Equivalent(a, b Statement) (bool, error) {
	if a.isEquat != b.isEquat {
		return false, nil
	}

	if !a.isEquat {
		diff, err := a.lhs.crossNumerator(b.lhs)
		if err != nil {
			return false, err
		}
		return diff.isZero(), nil
	}

	left, err := a.lhs.sub(a.rhs)
	if err != nil {
		return false, err
	}
	right, err := b.lhs.sub(b.rhs)
	if err != nil {
		return false, err
	}
	return proportional(left, right)
}

// EquivalentStrings parses both inputs and compares them.
func EquivalentStrings(a, b string) (bool, error) {
	left, err := Parse(a)
	if err != nil {
		return false, err
	}
	right, err := Parse(b)
	if err != nil {
		return false, err
	}
	return Equivalent(left, right)
}

func proportional(a, b rational) (bool, error) {
	p, err := a.num.mul(b.den)
	if err != nil {
		return false, err
	}
	q, err := b.num.mul(a.den)
	if err != nil {
		return false, err
	}

	if p.isZero() || q.isZero() {
		return p.isZero() && q.isZero(), nil
	}

	pivot, _ := q.anyTerm()
	counterpart, ok := p.terms[pivot.vars.key()]
	if !ok {
		return false, nil
	}
	factor := new(big.Rat).Quo(counterpart.coef, pivot.coef)
	return p.sub(q.scale(factor)).isZero(), nil
}
