package mathexpr

import "math/big"

// maxExponent bounds integer powers so that expansion stays tractable.
const maxExponent = 16

// rational is a quotient of polynomials. It is never reduced; equality is decided by
// cross-multiplication.
type rational struct {
	num poly
	den poly
}

func fromPoly(p poly) rational {
	return rational{num: p, den: one()}
}

// normalize folds a constant denominator into the numerator.
func (r rational) normalize() rational {
	if c, ok := r.den.constantValue(); ok && c.Sign() != 0 {
		inv := new(big.Rat).Inv(c)
		return rational{num: r.num.scale(inv), den: one()}
	}
	return r
}

func (r rational) add(other rational) (rational, error) {
	left, err := r.num.mul(other.den)
	if err != nil {
		return rational{}, err
	}
	right, err := other.num.mul(r.den)
	if err != nil {
		return rational{}, err
	}
	den, err := r.den.mul(other.den)
	if err != nil {
		return rational{}, err
	}
	return rational{num: left.add(right), den: den}.normalize(), nil
}

func (r rational) neg() rational {
	return rational{num: r.num.neg(), den: r.den}
}

func (r rational) sub(other rational) (rational, error) {
	return r.add(other.neg())
}

func (r rational) mul(other rational) (rational, error) {
	num, err := r.num.mul(other.num)
	if err != nil {
		return rational{}, err
	}
	den, err := r.den.mul(other.den)
	if err != nil {
		return rational{}, err
	}
	return rational{num: num, den: den}.normalize(), nil
}

func (r rational) div(other rational) (rational, error) {
	if other.num.isZero() {
		return rational{}, errDivisionByZero
	}
	return r.mul(rational{num: other.den, den: other.num})
}

func (r rational) pow(exponent rational) (rational, error) {
	value, ok := exponent.constantValue()
	if !ok || !value.IsInt() {
		return rational{}, errUnsupportedExponent
	}
	n := value.Num().Int64()
	if !value.Num().IsInt64() || n > maxExponent || n < -maxExponent {
		return rational{}, errTooComplex
	}

	base := r
	if n < 0 {
		if r.num.isZero() {
			return rational{}, errDivisionByZero
		}
		base = rational{num: r.den, den: r.num}
		n = -n
	}

	result := fromPoly(one())
	for i := int64(0); i < n; i++ {
		var err error
		result, err = result.mul(base)
		if err != nil {
			return rational{}, err
		}
	}
	return result, nil
}

func (r rational) constantValue() (*big.Rat, bool) {
	num, ok := r.num.constantValue()
	if !ok {
		return nil, false
	}
	den, ok := r.den.constantValue()
	if !ok || den.Sign() == 0 {
		return nil, false
	}
	return new(big.Rat).Quo(num, den), true
}

// crossNumerator returns r.num*other.den - other.num*r.den, which is zero exactly when the two
// rational functions are equal.
func (r rational) crossNumerator(other rational) (poly, error) {
	left, err := r.num.mul(other.den)
	if err != nil {
		return poly{}, err
	}
	right, err := other.num.mul(r.den)
	if err != nil {
		return poly{}, err
	}
	return left.sub(right), nil
}
