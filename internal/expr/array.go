package expr

import (
	"github.com/roach88/exprsql/internal/dialect"
	"github.com/roach88/exprsql/internal/render"
	"github.com/roach88/exprsql/internal/sqlerr"
	"github.com/roach88/exprsql/internal/types"
)

// Array is `ARRAY[e1, e2, ...]` or `ARRAY(subquery)`.
type Array struct {
	elem  *types.Type
	elems []Expr
	sub   *Subquery
}

// ArrayOf returns an array constructor. If elem is nil the element type is
// the type of the first non-null element; an empty array needs an explicit
// element type.
func ArrayOf(elem *types.Type, elems ...Expr) (*Array, error) {
	if err := operands("ARRAY", elems...); err != nil {
		return nil, err
	}
	if elem == nil && len(elems) == 0 {
		return nil, sqlerr.InvalidOperand("ARRAY", "empty list", "empty array needs an element type")
	}
	cp := make([]Expr, len(elems))
	copy(cp, elems)
	return &Array{elem: elem, elems: cp}, nil
}

// ArrayFrom returns ARRAY(q). q must have one column.
func ArrayFrom(q Query) (*Array, error) {
	s, err := SubqueryOf(q)
	if err != nil {
		return nil, err
	}
	if n := s.Width(); n != 1 {
		return nil, sqlerr.ColumnCount("ARRAY", 1, n)
	}
	return &Array{elem: q.Columns()[0], sub: s}, nil
}

func (a *Array) simple() bool { return true }
func (a *Array) node() {}

// Delayed reports whether any element is delayed. An explicit element type
// still lets Type answer early, but the elements themselves are not final.
func (a *Array) Delayed() bool { return anyDelayed(a.elems) }

func (a *Array) Type() *types.Type {
	if a.elem != nil {
		return types.ArrayOf(a.elem)
	}
	mustResolve(a)
	for _, e := range a.elems {
		if t := e.Type(); !t.IsNull() {
			return types.ArrayOf(t)
		}
	}
	return types.ArrayOf(types.Null)
}

func (a *Array) AppendSQL(c *render.Context) error {
	if err := c.Require(dialect.FeatureArray); err != nil {
		return err
	}
	if a.sub != nil {
		c.WriteString("ARRAY")
		return a.sub.AppendSQL(c)
	}
	c.WriteString("ARRAY[")
	if err := appendList(c, a.elems); err != nil {
		return err
	}
	c.WriteString("]")
	if len(a.elems) == 0 {
		name, ok := a.elem.SQLName(c.Family())
		if !ok {
			return c.Unsupported("ARRAY of " + a.elem.Name())
		}
		c.WriteString("::" + name + "[]")
	}
	return nil
}

// Subscript is one `[i]` index or `[lo:hi]` slice. Either bound of a
// slice may be nil.
type Subscript struct {
	Index Expr
	Lower Expr
	Upper Expr
	Slice bool
}

// At returns an index subscript.
func At(i Expr) Subscript { return Subscript{Index: i} }

// Slice returns a slice subscript.
func Slice(lo, hi Expr) Subscript { return Subscript{Lower: lo, Upper: hi, Slice: true} }

func (s Subscript) exprs() []Expr {
	var out []Expr
	for _, e := range []Expr{s.Index, s.Lower, s.Upper} {
		if e != nil && !isNilExpr(e) {
			out = append(out, e)
		}
	}
	return out
}

// Element is an array access `arr[i]`, `arr[lo:hi]` or several of them.
type Element struct {
	array Expr
	subs  []Subscript
}

// Index returns array accessed by subs.
func Index(array Expr, subs ...Subscript) (*Element, error) {
	if err := operands("[]", array); err != nil {
		return nil, err
	}
	if len(subs) == 0 {
		return nil, sqlerr.InvalidOperand("[]", describe(array), "needs at least one subscript")
	}
	for _, s := range subs {
		if !s.Slice && (s.Index == nil || isNilExpr(s.Index)) {
			return nil, sqlerr.InvalidOperand("[]", describe(array), "index subscript needs an index")
		}
		for _, e := range s.exprs() {
			if !e.Delayed() && !e.Type().IsInteger() && !e.Type().IsNull() {
				return nil, sqlerr.InvalidOperand("[]", describe(e), "subscript must be an integer")
			}
		}
	}
	if !array.Delayed() && !array.Type().IsArray() {
		return nil, sqlerr.InvalidOperand("[]", describe(array), "operand is not an array, got "+array.Type().Name())
	}
	cp := make([]Subscript, len(subs))
	copy(cp, subs)
	return &Element{array: array, subs: cp}, nil
}

func (x *Element) simple() bool { return true }
func (x *Element) node() {}

func (x *Element) Delayed() bool {
	if x.array.Delayed() {
		return true
	}
	for _, s := range x.subs {
		if anyDelayed(s.exprs()) {
			return true
		}
	}
	return false
}

// Type is the array type itself when any subscript slices, otherwise the
// element type reached after one level per index.
func (x *Element) Type() *types.Type {
	mustResolve(x)
	t := x.array.Type()
	for _, s := range x.subs {
		if s.Slice {
			return x.array.Type()
		}
	}
	for range x.subs {
		if !t.IsArray() {
			break
		}
		t = t.Elem()
	}
	return t
}

func (x *Element) AppendSQL(c *render.Context) error {
	if err := c.Require(dialect.FeatureArraySubscript); err != nil {
		return err
	}
	var err error
	switch x.array.(type) {
	case *Column, *Ref, *Paren:
		err = x.array.AppendSQL(c)
	default:
		c.WriteString("(")
		err = x.array.AppendSQL(c)
		c.WriteString(")")
	}
	if err != nil {
		return err
	}
	for _, s := range x.subs {
		c.WriteString("[")
		if !s.Slice {
			if err := s.Index.AppendSQL(c); err != nil {
				return err
			}
		} else {
			if err := appendOptional(c, s.Lower); err != nil {
				return err
			}
			c.WriteString(":")
			if err := appendOptional(c, s.Upper); err != nil {
				return err
			}
		}
		c.WriteString("]")
	}
	return nil
}

func appendOptional(c *render.Context, e Expr) error {
	if e == nil || isNilExpr(e) {
		return nil
	}
	return e.AppendSQL(c)
}
