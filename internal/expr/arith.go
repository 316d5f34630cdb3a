package expr

import (
	"strings"

	"github.com/roach88/exprsql/internal/dialect"
	"github.com/roach88/exprsql/internal/render"
	"github.com/roach88/exprsql/internal/sqlerr"
	"github.com/roach88/exprsql/internal/sqlop"
	"github.com/roach88/exprsql/internal/types"
)

// Paren groups an expression explicitly. It renders parentheses and stops
// precedence re-association across it.
type Paren struct {
	inner Expr
}

// Group wraps e in parentheses.
func Group(e Expr) (*Paren, error) {
	if err := operands("paren", e); err != nil {
		return nil, err
	}
	return &Paren{inner: e}, nil
}

func (p *Paren) Inner() Expr { return p.inner }
func (p *Paren) Delayed() bool { return p.inner.Delayed() }
func (p *Paren) Type() *types.Type { return p.inner.Type() }
func (p *Paren) simple() bool { return true }
func (p *Paren) node() {}

func (p *Paren) AppendSQL(c *render.Context) error {
	c.WriteString("(")
	if err := p.inner.AppendSQL(c); err != nil {
		return err
	}
	c.WriteString(")")
	return nil
}

// Unary is a prefix operator applied to one operand.
type Unary struct {
	op      sqlop.Unary
	operand Expr
	typ     memo
}

// NewUnary returns op applied to e.
func NewUnary(op sqlop.Unary, e Expr) (*Unary, error) {
	if !op.Valid() {
		return nil, sqlerr.UnexpectedOperator(op.String())
	}
	if err := operands(op.SQL(), e); err != nil {
		return nil, err
	}
	return &Unary{op: op, operand: e}, nil
}

// Neg returns -e.
func Neg(e Expr) (*Unary, error) { return NewUnary(sqlop.Negate, e) }

func (u *Unary) Op() sqlop.Unary { return u.op }
func (u *Unary) Operand() Expr { return u.operand }
func (u *Unary) Delayed() bool { return u.operand.Delayed() }
func (u *Unary) simple() bool { return false }
func (u *Unary) node() {}

func (u *Unary) Type() *types.Type {
	mustResolve(u)
	return u.typ.get(func() (*types.Type, error) {
		return types.ResolveUnary(u.op, u.operand.Type())
	})
}

// AppendSQL writes the operator and its operand. A literal that renders
// with a leading minus is parenthesized so the two signs never form `--`.
func (u *Unary) AppendSQL(c *render.Context) error {
	c.WriteString(u.op.SQL())
	l, ok := u.operand.(*Literal)
	if !ok {
		return appendOperand(c, u.operand)
	}
	scratch := render.New(c.Dialect())
	if err := l.AppendSQL(scratch); err != nil {
		return err
	}
	text := scratch.SQL()
	if strings.HasPrefix(text, "-") {
		text = "(" + text + ")"
	}
	c.WriteString(text)
	return nil
}

// Binary is an arithmetic or bitwise operator applied to two operands.
type Binary struct {
	op    sqlop.Binary
	left  Expr
	right Expr
	typ   memo
}

// NewBinary returns `l op r`. An operator outside the arithmetic and
// bitwise families is a programming error.
func NewBinary(op sqlop.Binary, l, r Expr) (*Binary, error) {
	if !op.Valid() || op.Family() == sqlop.FamilyNone {
		return nil, sqlerr.UnexpectedOperator(op.String())
	}
	if err := operands(op.SQL(), l, r); err != nil {
		return nil, err
	}
	return &Binary{op: op, left: l, right: r}, nil
}

// The helpers below extend a chain when l is itself a *Binary: l is not
// grouped, so Mul(Add(a, b), c) means a + b * c. Wrap l with Group to
// multiply the sum.

// Add returns the chain l + r.
func Add(l, r Expr) (*Binary, error) { return NewBinary(sqlop.Plus, l, r) }

// Sub returns the chain l - r.
func Sub(l, r Expr) (*Binary, error) { return NewBinary(sqlop.Minus, l, r) }

// Mul returns the chain l * r.
func Mul(l, r Expr) (*Binary, error) { return NewBinary(sqlop.Times, l, r) }

// Div returns the chain l / r.
func Div(l, r Expr) (*Binary, error) { return NewBinary(sqlop.Divide, l, r) }

func (b *Binary) Op() sqlop.Binary { return b.op }
func (b *Binary) Left() Expr { return b.left }
func (b *Binary) Right() Expr { return b.right }
func (b *Binary) Delayed() bool { return b.left.Delayed() || b.right.Delayed() }
func (b *Binary) simple() bool { return false }
func (b *Binary) node() {}

// Then extends the chain: b.Then(op, r) is `b op r` rendered without
// parentheses around b.
func (b *Binary) Then(op sqlop.Binary, r Expr) (*Binary, error) {
	return NewBinary(op, b, r)
}

// Type resolves the chain the way SQL groups it. See chainType.
func (b *Binary) Type() *types.Type {
	mustResolve(b)
	return b.typ.get(func() (*types.Type, error) {
		return chainType(b.op, b.left, b.right.Type())
	})
}

// chainType returns the type of `left op rt`. When left is an unparenthesized
// binary whose operator binds looser than op, SQL groups op with left's
// right operand, so that pair is resolved first and the interim type is
// pushed down through left's own left side.
func chainType(op sqlop.Binary, left Expr, rt *types.Type) (*types.Type, error) {
	if lb, ok := left.(*Binary); ok && op.BindsTighter(lb.op) {
		interim, err := types.Resolve(op, lb.right.Type(), rt)
		if err != nil {
			return nil, err
		}
		return chainType(lb.op, lb.left, interim)
	}
	return types.Resolve(op, left.Type(), rt)
}

// AppendSQL writes the chain grouped the way Type resolves it. Operators
// are left bare where the target's own precedence gives that grouping and
// parenthesized where it does not, since PostgreSQL and SQLite rank the
// bitwise operators differently from MySQL.
func (b *Binary) AppendSQL(c *render.Context) error {
	return regroup(b.op, b.left, leafTerm(b.right)).appendSQL(c)
}

// term is a chain regrouped into the tree that chainType resolves. Leaves
// are the operands; right operands that are themselves *Binary stay
// leaves and keep their parentheses.
type term struct {
	op          sqlop.Binary
	leaf        Expr
	left, right *term
}

func leafTerm(e Expr) *term { return &term{leaf: e} }

// regroup mirrors chainType: when op binds tighter than a left chain's
// operator, op takes that chain's right operand.
func regroup(op sqlop.Binary, left Expr, right *term) *term {
	lb, ok := left.(*Binary)
	if !ok {
		return &term{op: op, left: leafTerm(left), right: right}
	}
	if op.BindsTighter(lb.op) {
		inner := &term{op: op, left: leafTerm(lb.right), right: right}
		return regroup(lb.op, lb.left, inner)
	}
	return &term{op: op, left: regroup(lb.op, lb.left, leafTerm(lb.right)), right: right}
}

func (t *term) appendSQL(c *render.Context) error {
	if t.leaf != nil {
		return appendOperand(c, t.leaf)
	}
	sym, err := binarySymbol(c, t.op)
	if err != nil {
		return err
	}
	level := c.Family().Precedence(t.op)
	if err := t.left.appendSide(c, level, false); err != nil {
		return err
	}
	c.WriteString(" " + sym + " ")
	return t.right.appendSide(c, level, true)
}

// appendSide writes an operand of an operator at level. Operators are left
// associative, so an equal level needs parentheses only on the right.
func (t *term) appendSide(c *render.Context, level int, right bool) error {
	if t.leaf != nil {
		return t.appendSQL(c)
	}
	own := c.Family().Precedence(t.op)
	if own < level || (own == level && !right) {
		return t.appendSQL(c)
	}
	c.WriteString("(")
	if err := t.appendSQL(c); err != nil {
		return err
	}
	c.WriteString(")")
	return nil
}

func binarySymbol(c *render.Context, op sqlop.Binary) (string, error) {
	if op != sqlop.BitXor {
		return op.SQL(), nil
	}
	if c.Family() == dialect.PostgreSQL {
		return "#", nil
	}
	if err := c.Require(dialect.FeatureBitXor); err != nil {
		return "", err
	}
	return op.SQL(), nil
}

// Cast converts an operand to an explicit target type.
type Cast struct {
	operand Expr
	target  *types.Type
}

// CastTo returns CAST(e AS t).
func CastTo(e Expr, t *types.Type) (*Cast, error) {
	if err := operands("CAST", e); err != nil {
		return nil, err
	}
	if t == nil || t.IsNull() {
		return nil, sqlerr.InvalidOperand("CAST", describe(e), "cast needs a target type")
	}
	return &Cast{operand: e, target: t}, nil
}

func (x *Cast) Operand() Expr { return x.operand }
func (x *Cast) Type() *types.Type { return x.target }
func (x *Cast) Delayed() bool { return x.operand.Delayed() }
func (x *Cast) simple() bool { return true }
func (x *Cast) node() {}

func (x *Cast) AppendSQL(c *render.Context) error {
	name, ok := x.target.SQLName(c.Family())
	if !ok {
		return c.Unsupported("CAST AS " + x.target.Name())
	}
	c.WriteString("CAST(")
	if err := x.operand.AppendSQL(c); err != nil {
		return err
	}
	c.WriteString(" AS " + name + ")")
	return nil
}
