package mathexpr

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"unicode"
)

const (
	// maxInputLength bounds the size of accepted expressions.
	maxInputLength = 256
	// maxDecimalExponent bounds scientific-notation exponents such as 1e308.
	maxDecimalExponent = 308
)

type tokenKind int

const (
	tokenEOF tokenKind = iota
	tokenNumber
	tokenIdent
	tokenOp
	tokenLParen
	tokenRParen
	tokenEquals
)

type token struct {
	kind  tokenKind
	text  string
	value *big.Rat
}

var unsupportedFunctions = map[string]struct{}{
	"sin": {}, "cos": {}, "tan": {}, "sqrt": {}, "log": {}, "ln": {}, "exp": {}, "abs": {},
}

var replacer = strings.NewReplacer(
	"**", "^",
	"×", "*",
	"·", "*",
	"÷", "/",
	"−", "-",
)

func tokenize(input string) ([]token, error) {
	src := []rune(replacer.Replace(input))
	tokens := make([]token, 0, len(src))

	for i := 0; i < len(src); {
		r := src[i]
		switch {
		case unicode.IsSpace(r):
			i++
		case unicode.IsDigit(r) || r == '.':
			start := i
			seenDot := false
			for i < len(src) && (unicode.IsDigit(src[i]) || src[i] == '.') {
				if src[i] == '.' {
					if seenDot {
						return nil, fmt.Errorf("%w: malformed number", ErrInvalidExpression)
					}
					seenDot = true
				}
				i++
			}
			var err error
			if i, err = scanExponent(src, i); err != nil {
				return nil, err
			}
			text := string(src[start:i])
			if text == "." {
				return nil, fmt.Errorf("%w: malformed number", ErrInvalidExpression)
			}
			value, ok := new(big.Rat).SetString(text)
			if !ok {
				return nil, fmt.Errorf("%w: malformed number %q", ErrInvalidExpression, text)
			}
			tokens = append(tokens, token{kind: tokenNumber, text: text, value: value})
		case unicode.IsLetter(r):
			start := i
			for i < len(src) && unicode.IsLetter(src[i]) {
				i++
			}
			word := string(src[start:i])
			if _, ok := unsupportedFunctions[strings.ToLower(word)]; ok {
				return nil, fmt.Errorf("%w: function %q", ErrUnsupported, word)
			}
			// Adjacent letters are separate single-letter variables: "xy" is x*y.
			for _, letter := range word {
				tokens = append(tokens, token{kind: tokenIdent, text: string(letter)})
			}
		case strings.ContainsRune("+-*/^", r):
			tokens = append(tokens, token{kind: tokenOp, text: string(r)})
			i++
		case r == '(' || r == '[':
			tokens = append(tokens, token{kind: tokenLParen, text: "("})
			i++
		case r == ')' || r == ']':
			tokens = append(tokens, token{kind: tokenRParen, text: ")"})
			i++
		case r == '=':
			tokens = append(tokens, token{kind: tokenEquals, text: "="})
			i++
		default:
			return nil, fmt.Errorf("%w: unexpected character %q", ErrInvalidExpression, r)
		}
	}

	return append(tokens, token{kind: tokenEOF}), nil
}

// scanExponent consumes a scientific-notation suffix such as "e3" or "E-2" starting at i. An "e"
// not followed by digits is left for the tokenizer as a variable.
func scanExponent(src []rune, i int) (int, error) {
	if i >= len(src) || (src[i] != 'e' && src[i] != 'E') {
		return i, nil
	}
	j := i + 1
	if j < len(src) && (src[j] == '+' || src[j] == '-') {
		j++
	}
	if j >= len(src) || !unicode.IsDigit(src[j]) {
		return i, nil
	}
	digitsStart := j
	for j < len(src) && unicode.IsDigit(src[j]) {
		j++
	}
	exponent, err := strconv.Atoi(string(src[digitsStart:j]))
	if err != nil || exponent > maxDecimalExponent {
		return 0, fmt.Errorf("%w: exponent out of range", ErrUnsupported)
	}
	return j, nil
}

type parser struct {
	tokens []token
	pos    int
}

func (p *parser) peek() token {
	return p.tokens[p.pos]
}

func (p *parser) next() token {
	t := p.tokens[p.pos]
	if t.kind != tokenEOF {
		p.pos++
	}
	return t
}

func (p *parser) isOp(ops string) bool {
	t := p.peek()
	return t.kind == tokenOp && strings.Contains(ops, t.text)
}

// startsPrimary reports whether the next token can begin an implicitly multiplied factor.
func (p *parser) startsPrimary() bool {
	switch p.peek().kind {
	case tokenNumber, tokenIdent, tokenLParen:
		return true
	default:
		return false
	}
}

func (p *parser) parseExpr() (rational, error) {
	left, err := p.parseTerm()
	if err != nil {
		return rational{}, err
	}
	for p.isOp("+-") {
		op := p.next().text
		right, err := p.parseTerm()
		if err != nil {
			return rational{}, err
		}
		if op == "+" {
			left, err = left.add(right)
		} else {
			left, err = left.sub(right)
		}
		if err != nil {
			return rational{}, err
		}
	}
	return left, nil
}

func (p *parser) parseTerm() (rational, error) {
	left, err := p.parseUnary()
	if err != nil {
		return rational{}, err
	}
	for {
		switch {
		case p.isOp("*/"):
			op := p.next().text
			right, err := p.parseUnary()
			if err != nil {
				return rational{}, err
			}
			if op == "*" {
				left, err = left.mul(right)
			} else {
				left, err = left.div(right)
			}
			if err != nil {
				return rational{}, err
			}
		case p.startsPrimary():
			right, err := p.parsePower()
			if err != nil {
				return rational{}, err
			}
			if left, err = left.mul(right); err != nil {
				return rational{}, err
			}
		default:
			return left, nil
		}
	}
}

func (p *parser) parseUnary() (rational, error) {
	if p.isOp("+-") {
		op := p.next().text
		operand, err := p.parseUnary()
		if err != nil {
			return rational{}, err
		}
		if op == "-" {
			return operand.neg(), nil
		}
		return operand, nil
	}
	return p.parsePower()
}

func (p *parser) parsePower() (rational, error) {
	base, err := p.parsePrimary()
	if err != nil {
		return rational{}, err
	}
	if p.isOp("^") {
		p.next()
		exponent, err := p.parseUnary()
		if err != nil {
			return rational{}, err
		}
		return base.pow(exponent)
	}
	return base, nil
}

func (p *parser) parsePrimary() (rational, error) {
	t := p.next()
	switch t.kind {
	case tokenNumber:
		return fromPoly(constant(t.value)), nil
	case tokenIdent:
		return fromPoly(variable(t.text)), nil
	case tokenLParen:
		inner, err := p.parseExpr()
		if err != nil {
			return rational{}, err
		}
		if p.next().kind != tokenRParen {
			return rational{}, fmt.Errorf("%w: missing closing parenthesis", ErrInvalidExpression)
		}
		return inner, nil
	case tokenEOF:
		return rational{}, fmt.Errorf("%w: unexpected end of input", ErrInvalidExpression)
	default:
		return rational{}, fmt.Errorf("%w: unexpected %q", ErrInvalidExpression, t.text)
	}
}
