package expr

import (
	"github.com/roach88/exprsql/internal/dialect"
	"github.com/roach88/exprsql/internal/render"
	"github.com/roach88/exprsql/internal/sqlerr"
	"github.com/roach88/exprsql/internal/sqlop"
	"github.com/roach88/exprsql/internal/types"
)

// boolean is embedded by predicates.
type boolean struct{}

func (boolean) Type() *types.Type { return types.Boolean }
func (boolean) simple() bool { return false }
func (boolean) predicate() {}
func (boolean) node() {}

// Comparison is `l op r` for one of the six comparison operators.
type Comparison struct {
	boolean
	op    sqlop.Compare
	left  Expr
	right Expr
}

// Compare returns `l op r`.
func Compare(op sqlop.Compare, l, r Expr) (*Comparison, error) {
	if !op.Valid() {
		return nil, sqlerr.UnexpectedOperator("compare")
	}
	if err := operands(op.SQL(), l, r); err != nil {
		return nil, err
	}
	return &Comparison{op: op, left: l, right: r}, nil
}

// Eq returns l = r.
func Eq(l, r Expr) (*Comparison, error) { return Compare(sqlop.Equal, l, r) }

func (p *Comparison) Op() sqlop.Compare { return p.op }
func (p *Comparison) Delayed() bool { return p.left.Delayed() || p.right.Delayed() }

func (p *Comparison) AppendSQL(c *render.Context) error {
	if err := appendOperand(c, p.left); err != nil {
		return err
	}
	c.WriteString(" " + p.op.SQL() + " ")
	return appendOperand(c, p.right)
}

// Connective joins boolean operands with AND or OR.
type Connective struct {
	boolean
	or    bool
	terms []Expr
}

// And returns the conjunction of terms.
func And(terms ...Expr) (*Connective, error) { return connect(false, terms) }

// Or returns the disjunction of terms.
func Or(terms ...Expr) (*Connective, error) { return connect(true, terms) }

func connect(or bool, terms []Expr) (*Connective, error) {
	word := "AND"
	if or {
		word = "OR"
	}
	if len(terms) == 0 {
		return nil, sqlerr.InvalidOperand(word, "", "needs at least one operand")
	}
	for _, t := range terms {
		if err := operands(word, t); err != nil {
			return nil, err
		}
		if err := checkBoolean(word, t); err != nil {
			return nil, err
		}
	}
	cp := make([]Expr, len(terms))
	copy(cp, terms)
	return &Connective{or: or, terms: cp}, nil
}

func (p *Connective) IsOr() bool { return p.or }
func (p *Connective) Terms() []Expr { return p.terms }
func (p *Connective) Delayed() bool { return anyDelayed(p.terms) }

func (p *Connective) AppendSQL(c *render.Context) error {
	sep := " AND "
	if p.or {
		sep = " OR "
	}
	for i, t := range p.terms {
		if i > 0 {
			c.WriteString(sep)
		}
		// Comparisons and tests bind tighter than AND/OR; nested
		// connectives and plain operands keep explicit grouping.
		var err error
		switch t.(type) {
		case *Comparison, *Between, *Like, *In, *Exists, *IsTest, *Distinct, *Not:
			err = t.AppendSQL(c)
		default:
			err = appendOperand(c, t)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// Not negates a boolean operand.
type Not struct {
	boolean
	operand Expr
}

// Negate returns NOT e.
func Negate(e Expr) (*Not, error) {
	if err := operands("NOT", e); err != nil {
		return nil, err
	}
	if err := checkBoolean("NOT", e); err != nil {
		return nil, err
	}
	return &Not{operand: e}, nil
}

func (p *Not) Operand() Expr { return p.operand }
func (p *Not) Delayed() bool { return p.operand.Delayed() }

func (p *Not) AppendSQL(c *render.Context) error {
	c.WriteString("NOT ")
	return appendOperand(c, p.operand)
}

// Between is `x [NOT] BETWEEN [SYMMETRIC] lo AND hi`.
type Between struct {
	boolean
	operand   Expr
	low       Expr
	high      Expr
	not       bool
	symmetric bool
}

// InRange returns x BETWEEN lo AND hi.
func InRange(x, lo, hi Expr) (*Between, error) {
	if err := operands("BETWEEN", x, lo, hi); err != nil {
		return nil, err
	}
	return &Between{operand: x, low: lo, high: hi}, nil
}

// Not returns a negated copy. Negating twice is an error.
func (p *Between) Not() (*Between, error) {
	if p.not {
		return nil, sqlerr.DuplicateModifier("BETWEEN", "NOT")
	}
	cp := *p
	cp.not = true
	return &cp, nil
}

// Symmetric returns a copy that accepts the bounds in either order.
func (p *Between) Symmetric() (*Between, error) {
	if p.symmetric {
		return nil, sqlerr.DuplicateModifier("BETWEEN", "SYMMETRIC")
	}
	cp := *p
	cp.symmetric = true
	return &cp, nil
}

func (p *Between) Delayed() bool {
	return p.operand.Delayed() || p.low.Delayed() || p.high.Delayed()
}

func (p *Between) AppendSQL(c *render.Context) error {
	if p.symmetric && !c.Dialect().Supports(dialect.FeatureBetweenSymmetric) {
		return p.appendSymmetricEmulation(c)
	}
	if err := appendOperand(c, p.operand); err != nil {
		return err
	}
	if p.not {
		c.WriteString(" NOT")
	}
	c.WriteString(" BETWEEN ")
	if p.symmetric {
		c.WriteString("SYMMETRIC ")
	}
	return p.appendBounds(c, p.low, p.high)
}

func (p *Between) appendBounds(c *render.Context, lo, hi Expr) error {
	if err := appendOperand(c, lo); err != nil {
		return err
	}
	c.WriteString(" AND ")
	return appendOperand(c, hi)
}

// appendSymmetricEmulation writes
// (x BETWEEN lo AND hi OR x BETWEEN hi AND lo), negated as a whole for NOT.
func (p *Between) appendSymmetricEmulation(c *render.Context) error {
	if p.not {
		c.WriteString("NOT ")
	}
	c.WriteString("(")
	for i, bounds := range [][2]Expr{{p.low, p.high}, {p.high, p.low}} {
		if i > 0 {
			c.WriteString(" OR ")
		}
		if err := appendOperand(c, p.operand); err != nil {
			return err
		}
		c.WriteString(" BETWEEN ")
		if err := p.appendBounds(c, bounds[0], bounds[1]); err != nil {
			return err
		}
	}
	c.WriteString(")")
	return nil
}

// TestWord is the right-hand side of an IS test.
type TestWord uint8

const (
	IsNull TestWord = iota + 1
	IsTrue
	IsFalse
	IsUnknown
)

func (w TestWord) String() string {
	switch w {
	case IsNull:
		return "NULL"
	case IsTrue:
		return "TRUE"
	case IsFalse:
		return "FALSE"
	case IsUnknown:
		return "UNKNOWN"
	default:
		return "?"
	}
}

// IsTest is `x IS [NOT] NULL|TRUE|FALSE|UNKNOWN`.
type IsTest struct {
	boolean
	operand Expr
	word    TestWord
	not     bool
}

// Is returns `x IS word`, or `x IS NOT word` when not is set.
func Is(x Expr, word TestWord, not bool) (*IsTest, error) {
	if err := operands("IS", x); err != nil {
		return nil, err
	}
	switch word {
	case IsNull:
	case IsTrue, IsFalse, IsUnknown:
		if err := checkBoolean("IS "+word.String(), x); err != nil {
			return nil, err
		}
	default:
		return nil, sqlerr.InvalidOperand("IS", describe(x), "unknown test word")
	}
	return &IsTest{operand: x, word: word, not: not}, nil
}

func (p *IsTest) Delayed() bool { return p.operand.Delayed() }

func (p *IsTest) AppendSQL(c *render.Context) error {
	word := p.word.String()
	if p.word == IsUnknown && !c.Dialect().Supports(dialect.FeatureIsUnknown) {
		// A boolean is unknown exactly when it is NULL.
		if c.Family() != dialect.SQLite {
			return c.Require(dialect.FeatureIsUnknown)
		}
		word = "NULL"
	}
	if err := appendOperand(c, p.operand); err != nil {
		return err
	}
	c.WriteString(" IS ")
	if p.not {
		c.WriteString("NOT ")
	}
	c.WriteString(word)
	return nil
}

// Distinct is the null-safe comparison `l IS [NOT] DISTINCT FROM r`.
type Distinct struct {
	boolean
	left  Expr
	right Expr
	not   bool
}

// DistinctFrom returns `l IS DISTINCT FROM r`, or the NOT form.
func DistinctFrom(l, r Expr, not bool) (*Distinct, error) {
	if err := operands("IS DISTINCT FROM", l, r); err != nil {
		return nil, err
	}
	return &Distinct{left: l, right: r, not: not}, nil
}

func (p *Distinct) Delayed() bool { return p.left.Delayed() || p.right.Delayed() }

func (p *Distinct) AppendSQL(c *render.Context) error {
	switch {
	case c.Family() == dialect.MySQL:
		if !p.not {
			c.WriteString("NOT ")
		}
		c.WriteString("(")
		if err := p.appendPair(c, " <=> "); err != nil {
			return err
		}
		c.WriteString(")")
		return nil
	case c.Family() == dialect.SQLite && !c.Dialect().Supports(dialect.FeatureDistinctFrom):
		if p.not {
			return p.appendPair(c, " IS ")
		}
		return p.appendPair(c, " IS NOT ")
	}
	if err := c.Require(dialect.FeatureDistinctFrom); err != nil {
		return err
	}
	if p.not {
		return p.appendPair(c, " IS NOT DISTINCT FROM ")
	}
	return p.appendPair(c, " IS DISTINCT FROM ")
}

func (p *Distinct) appendPair(c *render.Context, op string) error {
	if err := appendOperand(c, p.left); err != nil {
		return err
	}
	c.WriteString(op)
	return appendOperand(c, p.right)
}
