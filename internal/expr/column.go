package expr

import (
	"github.com/roach88/exprsql/internal/render"
	"github.com/roach88/exprsql/internal/scope"
	"github.com/roach88/exprsql/internal/sqlerr"
	"github.com/roach88/exprsql/internal/types"
)

// Column is a reference to a table column with a declared type.
type Column struct {
	table    string
	name     string
	typ      *types.Type
	nullable bool
}

// Col returns a column reference. table may be empty for an unqualified
// name.
func Col(table, name string, t *types.Type) (*Column, error) {
	if name == "" {
		return nil, sqlerr.InvalidOperand("column", table, "column name is empty")
	}
	if t == nil {
		return nil, sqlerr.InvalidOperand("column", name, "column type must not be nil")
	}
	return &Column{table: table, name: name, typ: t}, nil
}

// Nullable returns a copy of the column marked nullable.
func (c *Column) Nullable() *Column {
	cp := *c
	cp.nullable = true
	return &cp
}

func (c *Column) Table() string { return c.table }
func (c *Column) Name() string { return c.name }
func (c *Column) IsNullable() bool { return c.nullable }
func (c *Column) Type() *types.Type { return c.typ }
func (c *Column) Delayed() bool { return false }
func (c *Column) simple() bool { return true }
func (c *Column) node() {}

func (c *Column) String() string {
	if c.table == "" {
		return c.name
	}
	return c.table + "." + c.name
}

func (c *Column) AppendSQL(ctx *render.Context) error {
	ctx.AppendQualified(c.table, c.name)
	return nil
}

// FieldGroup is every column of a table, `t.*`. It is accepted as a
// function argument but never as a scalar operand or row element.
type FieldGroup struct {
	table string
}

// AllOf returns the field group of table.
func AllOf(table string) *FieldGroup { return &FieldGroup{table: table} }

func (g *FieldGroup) Delayed() bool { return false }
func (g *FieldGroup) node() {}
func (g *FieldGroup) AppendSQL(c *render.Context) error {
	if g.table != "" {
		c.AppendIdent(g.table)
		c.WriteString(".")
	}
	c.WriteString("*")
	return nil
}

// Ref is a reference to a name declared by an enclosing scope, typically
// a correlated column whose type is supplied once the outer statement is
// known. It is delayed until the binding is resolved.
type Ref struct {
	binding   *scope.Binding
	qualifier string
}

// RefTo returns a reference to b, rendered as qualifier.name.
func RefTo(b *scope.Binding, qualifier string) (*Ref, error) {
	if b == nil {
		return nil, sqlerr.InvalidOperand("reference", qualifier, "binding must not be nil")
	}
	return &Ref{binding: b, qualifier: qualifier}, nil
}

// Lookup resolves name against the open frames of st and returns a
// reference to the nearest declaration.
func Lookup(st *scope.Stack, qualifier, name string) (*Ref, error) {
	b, _, ok := st.Lookup(name)
	if !ok {
		return nil, sqlerr.InvalidOperand("reference", name, "name is not declared in any open scope")
	}
	return &Ref{binding: b, qualifier: qualifier}, nil
}

func (r *Ref) Binding() *scope.Binding { return r.binding }
func (r *Ref) simple() bool { return true }
func (r *Ref) node() {}

func (r *Ref) Delayed() bool {
	_, ok := r.binding.Type()
	return !ok
}

func (r *Ref) Type() *types.Type {
	t, ok := r.binding.Type()
	if !ok {
		panic(sqlerr.Delayed(r.binding.Name()))
	}
	return t
}

func (r *Ref) AppendSQL(c *render.Context) error {
	c.AppendQualified(r.qualifier, r.binding.Name())
	return nil
}
