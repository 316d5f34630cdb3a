package types

import (
	"github.com/roach88/exprsql/internal/sqlerr"
	"github.com/roach88/exprsql/internal/sqlop"
)

// Resolve returns the result type of `l op r`.
//
// The promotion family is chosen by the operator. An operator outside the
// additive, arithmetic and bitwise families is an engine defect and yields
// an UNEXPECTED_OPERATOR programming error.
func Resolve(op sqlop.Binary, l, r *Type) (*Type, error) {
	switch op.Family() {
	case sqlop.FamilyAdditive:
		return Additive(l, r), nil
	case sqlop.FamilyArithmetic:
		return Arithmetic(l, r), nil
	case sqlop.FamilyBitwise:
		return Bitwise(l, r), nil
	default:
		return nil, sqlerr.UnexpectedOperator(op.String())
	}
}

// ResolveUnary returns the result type of a prefix operator applied to t.
func ResolveUnary(op sqlop.Unary, t *Type) (*Type, error) {
	switch op {
	case sqlop.Negate:
		return t, nil
	case sqlop.BitNot:
		if t.IsInteger() || t.IsBit() {
			return t, nil
		}
		return Bigint, nil
	default:
		return nil, sqlerr.UnexpectedOperator(op.String())
	}
}

// Additive is the promotion used by `+`.
//
// A type outside number/string added to a strictly numeric type keeps its
// own type, so date + integer is a date. Otherwise a non number/string
// operand falls back to exact identity (equal types keep the type, unequal
// types give text), and number/string pairs use numeric promotion.
func Additive(l, r *Type) *Type {
	switch {
	case !l.NumberOrString() && r.IsNumber():
		return l
	case !r.NumberOrString() && l.IsNumber():
		return r
	case !l.NumberOrString() || !r.NumberOrString():
		if l.Equal(r) {
			return l
		}
		return Text
	default:
		return numeric(l, r)
	}
}

// Arithmetic is the promotion used by `-`, `*`, `/` and `%`. It is the
// additive ladder without the unit-preserving case.
func Arithmetic(l, r *Type) *Type {
	if l.Equal(r) {
		return l
	}
	if !l.NumberOrString() || !r.NumberOrString() {
		return Text
	}
	return numeric(l, r)
}

// Bitwise is the promotion used by `&`, `|`, `^`, `<<` and `>>`.
func Bitwise(l, r *Type) *Type {
	switch {
	case l.Equal(r):
		return l
	case l.IsBit():
		return l
	case r.IsBit():
		return r
	}
	li, ri := l.IsInteger(), r.IsInteger()
	switch {
	case !li && !ri:
		return Text
	case li != ri:
		return Bigint
	default:
		return wider(l, r)
	}
}

// numeric promotes two number-or-string types: float beats decimal beats
// integer, and the wider integer wins. Ties keep the left operand. A
// character string in arithmetic is coerced to double.
func numeric(l, r *Type) *Type {
	if l.Equal(r) {
		return l
	}
	if l.IsString() || r.IsString() {
		return Double
	}
	lf, rf := l.kind == KindFloat, r.kind == KindFloat
	switch {
	case lf && rf:
		return wider(l, r)
	case lf:
		return l
	case rf:
		return r
	}
	switch {
	case l.kind == KindDecimal:
		return l
	case r.kind == KindDecimal:
		return r
	}
	return wider(l, r)
}

// wider returns the operand with the larger declared size, preferring l on
// a tie.
func wider(l, r *Type) *Type {
	if r.size > l.size {
		return r
	}
	return l
}
