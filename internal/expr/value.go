package expr

import (
	"fmt"

	"github.com/roach88/exprsql/internal/render"
	"github.com/roach88/exprsql/internal/scope"
	"github.com/roach88/exprsql/internal/sqlerr"
	"github.com/roach88/exprsql/internal/types"
)

// Literal is a constant rendered inline.
type Literal struct {
	typ   *types.Type
	value any
}

// Lit returns a literal of type t. A nil t is rejected.
func Lit(t *types.Type, v any) (*Literal, error) {
	if t == nil {
		return nil, sqlerr.InvalidOperand("literal", fmt.Sprintf("%v", v), "literal type must not be nil")
	}
	return &Literal{typ: t, value: v}, nil
}

// Value returns a literal typed by the default type of v's Go kind.
func Value(v any) (*Literal, error) {
	t, ok := types.DefaultFor(v)
	if !ok {
		return nil, sqlerr.InvalidOperand("literal", fmt.Sprintf("%T", v), "no default semantic type for value")
	}
	return &Literal{typ: t, value: v}, nil
}

// Null returns the untyped NULL literal.
func Null() *Literal { return &Literal{typ: types.Null} }

func (l *Literal) Value() any { return l.value }
func (l *Literal) Type() *types.Type { return l.typ }
func (l *Literal) Delayed() bool { return false }
func (l *Literal) simple() bool { return true }
func (l *Literal) node() {}
func (l *Literal) AppendSQL(c *render.Context) error {
	return c.AppendLiteral(l.typ, l.value)
}

// Param is a single bound value rendered as a placeholder.
type Param struct {
	typ   *types.Type
	value any
}

// Bind returns a parameter for v. If t is nil the default type for v is
// used.
func Bind(t *types.Type, v any) (*Param, error) {
	if t == nil {
		var ok bool
		if t, ok = types.DefaultFor(v); !ok {
			return nil, sqlerr.InvalidOperand("param", fmt.Sprintf("%T", v), "no default semantic type for value")
		}
	}
	return &Param{typ: t, value: v}, nil
}

func (p *Param) Value() any { return p.value }
func (p *Param) Type() *types.Type { return p.typ }
func (p *Param) Delayed() bool { return false }
func (p *Param) simple() bool { return true }
func (p *Param) node() {}
func (p *Param) AppendSQL(c *render.Context) error {
	c.AppendParam(p.value)
	return nil
}

// Params is a multi-value parameter. It expands to one placeholder per
// value and is only valid as the right side of IN.
type Params struct {
	typ    *types.Type
	values []any
}

// BindList returns a multi-value parameter. At least one value is required.
func BindList(t *types.Type, values ...any) (*Params, error) {
	if len(values) == 0 {
		return nil, sqlerr.InvalidOperand("param", "empty list", "multi-value parameter needs at least one value")
	}
	if t == nil {
		var ok bool
		if t, ok = types.DefaultFor(values[0]); !ok {
			return nil, sqlerr.InvalidOperand("param", fmt.Sprintf("%T", values[0]), "no default semantic type for value")
		}
	}
	return &Params{typ: t, values: values}, nil
}

func (p *Params) Type() *types.Type { return p.typ }
func (p *Params) Len() int { return len(p.values) }
func (p *Params) Delayed() bool { return false }
func (p *Params) node() {}
func (p *Params) inSource() {}
func (p *Params) AppendSQL(c *render.Context) error {
	for i, v := range p.values {
		if i > 0 {
			c.WriteString(", ")
		}
		c.AppendParam(v)
	}
	return nil
}

// NamedParam is a parameter referred to by name. The same name may appear
// several times in one statement.
type NamedParam struct {
	name string
	typ  *types.Type
}

// Named declares a named parameter on the current frame of st. Declaring
// the same name again with another type is an error.
func Named(st *scope.Stack, name string, t *types.Type) (*NamedParam, error) {
	if name == "" || t == nil {
		return nil, sqlerr.InvalidOperand("param", name, "named parameter needs a name and a type")
	}
	f, err := st.Peek()
	if err != nil {
		return nil, err
	}
	if err := f.DeclareParam(name, t); err != nil {
		return nil, err
	}
	return &NamedParam{name: name, typ: t}, nil
}

func (p *NamedParam) Name() string { return p.name }
func (p *NamedParam) Type() *types.Type { return p.typ }
func (p *NamedParam) Delayed() bool { return false }
func (p *NamedParam) simple() bool { return true }
func (p *NamedParam) node() {}
func (p *NamedParam) AppendSQL(c *render.Context) error {
	c.AppendNamedParam(p.name)
	return nil
}
