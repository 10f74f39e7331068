package mathexpr

import (
	"math/big"
	"sort"
	"strconv"
	"strings"
)

// maxTerms bounds polynomial growth while expanding products and powers.
const maxTerms = 512

type monomial map[string]int

func (m monomial) key() string {
	if len(m) == 0 {
		return ""
	}
	vars := make([]string, 0, len(m))
	for v := range m {
		vars = append(vars, v)
	}
	sort.Strings(vars)

	parts := make([]string, 0, len(vars))
	for _, v := range vars {
		parts = append(parts, v+"^"+strconv.Itoa(m[v]))
	}
	return strings.Join(parts, "*")
}

func (m monomial) times(other monomial) monomial {
	out := make(monomial, len(m)+len(other))
	for v, e := range m {
		out[v] = e
	}
	for v, e := range other {
		out[v] += e
	}
	return out
}

type term struct {
	vars monomial
	coef *big.Rat
}

// poly is a multivariate polynomial with exact rational coefficients, keyed by canonical
// monomial so that equal polynomials always have equal term maps.
type poly struct {
	terms map[string]term
}

func newPoly() poly {
	return poly{terms: map[string]term{}}
}

func constant(r *big.Rat) poly {
	p := newPoly()
	if r.Sign() != 0 {
		p.terms[""] = term{vars: monomial{}, coef: new(big.Rat).Set(r)}
	}
	return p
}

func one() poly {
	return constant(big.NewRat(1, 1))
}

func variable(name string) poly {
	p := newPoly()
	m := monomial{name: 1}
	p.terms[m.key()] = term{vars: m, coef: big.NewRat(1, 1)}
	return p
}

func (p poly) isZero() bool {
	return len(p.terms) == 0
}

// constantValue returns the value of p when it has no variable terms.
func (p poly) constantValue() (*big.Rat, bool) {
	switch len(p.terms) {
	case 0:
		return new(big.Rat), true
	case 1:
		if t, ok := p.terms[""]; ok {
			return new(big.Rat).Set(t.coef), true
		}
	}
	return nil, false
}

func (p poly) addTerm(t term) {
	k := t.vars.key()
	if existing, ok := p.terms[k]; ok {
		sum := new(big.Rat).Add(existing.coef, t.coef)
		if sum.Sign() == 0 {
			delete(p.terms, k)
			return
		}
		p.terms[k] = term{vars: existing.vars, coef: sum}
		return
	}
	if t.coef.Sign() == 0 {
		return
	}
	p.terms[k] = term{vars: t.vars, coef: new(big.Rat).Set(t.coef)}
}

func (p poly) add(other poly) poly {
	out := newPoly()
	for _, t := range p.terms {
		out.addTerm(t)
	}
	for _, t := range other.terms {
		out.addTerm(t)
	}
	return out
}

func (p poly) scale(r *big.Rat) poly {
	out := newPoly()
	if r.Sign() == 0 {
		return out
	}
	for _, t := range p.terms {
		out.addTerm(term{vars: t.vars, coef: new(big.Rat).Mul(t.coef, r)})
	}
	return out
}

func (p poly) neg() poly {
	return p.scale(big.NewRat(-1, 1))
}

func (p poly) sub(other poly) poly {
	return p.add(other.neg())
}

func (p poly) mul(other poly) (poly, error) {
	out := newPoly()
	for _, a := range p.terms {
		for _, b := range other.terms {
			out.addTerm(term{vars: a.vars.times(b.vars), coef: new(big.Rat).Mul(a.coef, b.coef)})
			if len(out.terms) > maxTerms {
				return poly{}, errTooComplex
			}
		}
	}
	return out, nil
}

// anyTerm returns a deterministic term of a non-zero polynomial.
func (p poly) anyTerm() (term, bool) {
	if len(p.terms) == 0 {
		return term{}, false
	}
	keys := make([]string, 0, len(p.terms))
	for k := range p.terms {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return p.terms[keys[0]], true
}
