package expr

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/roach88/exprsql/internal/dialect"
	"github.com/roach88/exprsql/internal/render"
	"github.com/roach88/exprsql/internal/sqlerr"
	"github.com/roach88/exprsql/internal/types"
)

// Node is any element of an expression tree.
type Node interface {
	// Delayed reports whether the node's type depends on something not
	// resolved yet.
	Delayed() bool

	// AppendSQL renders the node into c.
	AppendSQL(c *render.Context) error

	node() // Marker method - seals interface to this package
}

// Expr is a scalar-valued node.
type Expr interface {
	Node

	// Type returns the resolved semantic type. It panics with a
	// programming *sqlerr.Error if the node is delayed.
	Type() *types.Type

	// simple reports whether the node is self-delimiting and can be
	// embedded as an operand without parentheses.
	simple() bool
}

// Predicate is a boolean-valued Expr.
type Predicate interface {
	Expr
	predicate()
}

// Operand returns n as a scalar operand of operator, rejecting nodes that
// cannot stand where a single value is required.
func Operand(operator string, n Node) (Expr, error) {
	switch v := n.(type) {
	case nil:
		return nil, sqlerr.InvalidOperand(operator, "<nil>", "missing operand")
	case *FieldGroup:
		return nil, sqlerr.InvalidOperand(operator, describe(v), "field group is not a scalar operand")
	case *Params:
		return nil, sqlerr.InvalidOperand(operator, describe(v), "multi-value parameter is only allowed in an IN list")
	case *Row, *DelayedRow:
		return nil, sqlerr.InvalidOperand(operator, describe(v), "row value is not a scalar operand")
	case Expr:
		if isNilExpr(v) {
			return nil, sqlerr.InvalidOperand(operator, "<nil>", "missing operand")
		}
		return v, nil
	default:
		return nil, sqlerr.InvalidOperand(operator, describe(v), "not a scalar operand")
	}
}

func operands(operator string, es ...Expr) error {
	for _, e := range es {
		if _, err := Operand(operator, e); err != nil {
			return err
		}
	}
	return nil
}

// isNilExpr catches typed nil pointers stored in an Expr.
func isNilExpr(e Expr) bool {
	v := reflect.ValueOf(e)
	return v.Kind() == reflect.Pointer && v.IsNil()
}

// describe gives a short description of n for error messages.
func describe(n Node) string {
	switch v := n.(type) {
	case *Column:
		return v.String()
	case *FieldGroup:
		return v.table + ".*"
	case *Ref:
		return v.binding.Name()
	case *Literal:
		return fmt.Sprintf("literal %v", v.value)
	case *Params:
		return fmt.Sprintf("%d-value parameter", len(v.values))
	case *DelayedRow:
		return v.label
	case *Row:
		return fmt.Sprintf("row of %d", len(v.elems))
	case *Call:
		return v.name + "(...)"
	default:
		return fmt.Sprintf("%T", n)
	}
}

// TypeOf returns the resolved type of n, or an error if n is delayed or is
// not a scalar expression.
func TypeOf(n Node) (t *types.Type, err error) {
	e, err := Operand("typeOf", n)
	if err != nil {
		return nil, err
	}
	if e.Delayed() {
		return nil, sqlerr.Delayed(describe(e))
	}
	defer func() {
		if r := recover(); r != nil {
			if se, ok := r.(*sqlerr.Error); ok {
				err = se
				return
			}
			panic(r)
		}
	}()
	return e.Type(), nil
}

// Render renders n into a fresh context for d.
func Render(n Node, d dialect.Dialect, opts ...render.Option) (string, []any, error) {
	c := render.New(d, opts...)
	if err := n.AppendSQL(c); err != nil {
		return "", nil, err
	}
	return c.SQL(), c.Args(), nil
}

// Must panics if err is non-nil. It is meant for trees built from
// constants, such as in tests.
func Must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}

// appendOperand renders e, parenthesized unless it is self-delimiting.
func appendOperand(c *render.Context, e Expr) error {
	if e.simple() {
		return e.AppendSQL(c)
	}
	c.WriteString("(")
	if err := e.AppendSQL(c); err != nil {
		return err
	}
	c.WriteString(")")
	return nil
}

func appendList(c *render.Context, es []Expr) error {
	for i, e := range es {
		if i > 0 {
			c.WriteString(", ")
		}
		if err := e.AppendSQL(c); err != nil {
			return err
		}
	}
	return nil
}

func anyDelayed[N Node](ns []N) bool {
	for _, n := range ns {
		if n.Delayed() {
			return true
		}
	}
	return false
}

// mustResolve panics with a programming error when a delayed node is asked
// for its type.
func mustResolve(n Node) {
	if n.Delayed() {
		panic(sqlerr.Delayed(describe(n)))
	}
}

// memo is a single-assignment cache for a resolved type.
type memo struct {
	once sync.Once
	typ  *types.Type
	err  error
}

func (m *memo) get(resolve func() (*types.Type, error)) *types.Type {
	m.once.Do(func() { m.typ, m.err = resolve() })
	if m.err != nil {
		panic(m.err)
	}
	return m.typ
}

// checkBoolean rejects an operand whose known type is not boolean.
func checkBoolean(operator string, e Expr) error {
	if e.Delayed() {
		return nil
	}
	t := e.Type()
	if t.Kind() == types.KindBoolean || t.IsNull() {
		return nil
	}
	return sqlerr.InvalidOperand(operator, describe(e), fmt.Sprintf("expected a boolean operand, got %s", t))
}
