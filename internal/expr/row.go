package expr

import (
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/roach88/exprsql/internal/render"
	"github.com/roach88/exprsql/internal/scope"
	"github.com/roach88/exprsql/internal/sqlerr"
	"github.com/roach88/exprsql/internal/types"
)

// Query is a finished subquery supplied by a statement builder. The engine
// only needs its column types and its SQL.
type Query interface {
	Columns() []*types.Type
	AppendQuery(c *render.Context) error
}

// TextQuery is a Query given as SQL text with declared column types.
type TextQuery struct {
	SQL   string
	Types []*types.Type
}

func (q TextQuery) Columns() []*types.Type { return q.Types }

func (q TextQuery) AppendQuery(c *render.Context) error {
	if strings.TrimSpace(q.SQL) == "" {
		return sqlerr.InvalidOperand("subquery", "", "query text is empty")
	}
	c.WriteString(q.SQL)
	return nil
}

// Subquery wraps a Query as an IN source or EXISTS operand.
type Subquery struct {
	query Query
}

// SubqueryOf wraps q.
func SubqueryOf(q Query) (*Subquery, error) {
	if q == nil {
		return nil, sqlerr.InvalidOperand("subquery", "<nil>", "missing query")
	}
	return &Subquery{query: q}, nil
}

func (s *Subquery) Query() Query { return s.query }
func (s *Subquery) Width() int { return len(s.query.Columns()) }
func (s *Subquery) Delayed() bool { return false }
func (s *Subquery) node() {}
func (s *Subquery) inSource() {}

func (s *Subquery) AppendSQL(c *render.Context) error {
	c.WriteString("(")
	if err := s.query.AppendQuery(c); err != nil {
		return err
	}
	c.WriteString(")")
	return nil
}

// ScalarSubquery is a one-column subquery used as a value.
type ScalarSubquery struct {
	sub *Subquery
}

// Scalar returns q as a value. q must have exactly one column.
func Scalar(q Query) (*ScalarSubquery, error) {
	s, err := SubqueryOf(q)
	if err != nil {
		return nil, err
	}
	if n := s.Width(); n != 1 {
		return nil, sqlerr.ColumnCount("scalar subquery", 1, n)
	}
	return &ScalarSubquery{sub: s}, nil
}

func (s *ScalarSubquery) Type() *types.Type { return s.sub.query.Columns()[0] }
func (s *ScalarSubquery) Delayed() bool { return false }
func (s *ScalarSubquery) simple() bool { return true }
func (s *ScalarSubquery) node() {}
func (s *ScalarSubquery) AppendSQL(c *render.Context) error { return s.sub.AppendSQL(c) }

// Exists is `[NOT] EXISTS (query)`.
type Exists struct {
	boolean
	sub *Subquery
	not bool
}

// ExistsIn returns EXISTS (q), or NOT EXISTS when not is set.
func ExistsIn(q Query, not bool) (*Exists, error) {
	s, err := SubqueryOf(q)
	if err != nil {
		return nil, err
	}
	return &Exists{sub: s, not: not}, nil
}

func (p *Exists) Delayed() bool { return false }

func (p *Exists) AppendSQL(c *render.Context) error {
	if p.not {
		c.WriteString("NOT ")
	}
	c.WriteString("EXISTS ")
	return p.sub.AppendSQL(c)
}

// Row is a row value constructor `(a, b, ...)`.
type Row struct {
	elems []Expr
}

// RowOf returns the row of elems. Elements must be scalar operands; field
// groups and multi-value parameters are rejected.
func RowOf(elems ...Expr) (*Row, error) {
	if len(elems) == 0 {
		return nil, sqlerr.InvalidOperand("row", "", "row needs at least one element")
	}
	if err := operands("row", elems...); err != nil {
		return nil, err
	}
	cp := make([]Expr, len(elems))
	copy(cp, elems)
	return &Row{elems: cp}, nil
}

func (r *Row) Elems() []Expr { return r.elems }
func (r *Row) Width() int { return len(r.elems) }
func (r *Row) Delayed() bool { return anyDelayed(r.elems) }
func (r *Row) node() {}

func (r *Row) AppendSQL(c *render.Context) error {
	c.WriteString("(")
	if err := appendList(c, r.elems); err != nil {
		return err
	}
	c.WriteString(")")
	return nil
}

// DelayedRow is a row whose columns are supplied after it is used, for
// example the output row of a derived table that is still being built.
// Its column count is unknown until Resolve is called.
type DelayedRow struct {
	label string
	row   atomic.Pointer[Row]
}

// NewDelayedRow returns an unresolved row labelled for error messages.
func NewDelayedRow(label string) *DelayedRow {
	return &DelayedRow{label: label}
}

// Resolve supplies the row's columns. It can be called once.
func (r *DelayedRow) Resolve(elems ...Expr) error {
	row, err := RowOf(elems...)
	if err != nil {
		return err
	}
	if !r.row.CompareAndSwap(nil, row) {
		return &sqlerr.Error{
			Code:    sqlerr.CodeAlreadyResolved,
			Message: fmt.Sprintf("row %s already resolved", r.label),
			Operand: r.label,
		}
	}
	return nil
}

func (r *DelayedRow) Label() string { return r.label }
func (r *DelayedRow) node() {}

// Width returns the column count once resolved.
func (r *DelayedRow) Width() (int, bool) {
	row := r.row.Load()
	if row == nil {
		return 0, false
	}
	return row.Width(), true
}

func (r *DelayedRow) Delayed() bool {
	row := r.row.Load()
	return row == nil || row.Delayed()
}

func (r *DelayedRow) AppendSQL(c *render.Context) error {
	row := r.row.Load()
	if row == nil {
		return sqlerr.Delayed(r.label)
	}
	return row.AppendSQL(c)
}

// InSource is the right side of an IN predicate: a RowList, a Params or a
// Subquery.
type InSource interface {
	Node
	inSource()
}

// RowList is a parenthesized list of values or rows.
type RowList struct {
	items []Node
	width int
}

// List returns a list of scalar operands or rows. All items must have the
// same width.
func List(items ...Node) (*RowList, error) {
	if len(items) == 0 {
		return nil, sqlerr.InvalidOperand("IN", "empty list", "list needs at least one item")
	}
	width := -1
	for _, it := range items {
		var w int
		switch v := it.(type) {
		case *Row:
			w = v.Width()
		default:
			if _, err := Operand("IN", it); err != nil {
				return nil, err
			}
			w = 1
		}
		if width >= 0 && w != width {
			return nil, sqlerr.ColumnCount("IN", width, w)
		}
		width = w
	}
	cp := make([]Node, len(items))
	copy(cp, items)
	return &RowList{items: cp, width: width}, nil
}

func (l *RowList) Width() int { return l.width }
func (l *RowList) Delayed() bool { return anyDelayed(l.items) }
func (l *RowList) node() {}
func (l *RowList) inSource() {}

func (l *RowList) AppendSQL(c *render.Context) error {
	c.WriteString("(")
	for i, it := range l.items {
		if i > 0 {
			c.WriteString(", ")
		}
		if err := it.AppendSQL(c); err != nil {
			return err
		}
	}
	c.WriteString(")")
	return nil
}

// In is `left [NOT] IN right`.
type In struct {
	boolean
	left  Node
	right InSource
	not   bool
}

// NewIn returns `left IN right`, or NOT IN when not is set.
//
// left is a scalar operand, a Row or a DelayedRow. Its width must match the
// width of right. When left is a DelayedRow that is not resolved yet the
// comparison is registered on the current frame of st and runs when the
// frame closes, moving outward until the row is known.
func NewIn(st *scope.Stack, left Node, right InSource, not bool) (*In, error) {
	if right == nil {
		return nil, sqlerr.InvalidOperand("IN", "<nil>", "missing right side")
	}
	expected := sourceWidth(right)

	switch v := left.(type) {
	case *Row:
		if v.Width() != expected {
			return nil, sqlerr.ColumnCount("IN", expected, v.Width())
		}
	case *DelayedRow:
		if w, ok := v.Width(); ok {
			if w != expected {
				return nil, sqlerr.ColumnCount("IN", expected, w)
			}
			break
		}
		if st == nil {
			return nil, sqlerr.New(sqlerr.CodeScope, "IN on delayed row %s needs an open scope", v.label)
		}
		f, err := st.Peek()
		if err != nil {
			return nil, err
		}
		f.OnScopeEnd(rowWidthCheck(v, expected))
	default:
		if _, err := Operand("IN", left); err != nil {
			return nil, err
		}
		if expected != 1 {
			return nil, sqlerr.ColumnCount("IN", expected, 1)
		}
	}
	return &In{left: left, right: right, not: not}, nil
}

func sourceWidth(s InSource) int {
	switch v := s.(type) {
	case *RowList:
		return v.Width()
	case *Subquery:
		return v.Width()
	default:
		return 1
	}
}

// rowWidthCheck validates the width of a delayed row once it is resolved.
func rowWidthCheck(row *DelayedRow, expected int) scope.Check {
	return scope.CheckFunc{
		Name:    "IN row width " + row.label,
		ReadyFn: func() bool { _, ok := row.Width(); return ok },
		ValidateFn: func() error {
			w, _ := row.Width()
			if w != expected {
				return sqlerr.ColumnCountMismatch("IN", row.label, expected, w)
			}
			return nil
		},
		UnresolvedFn: func() error {
			return sqlerr.UnknownRow("IN", row.label, expected)
		},
	}
}

func (p *In) Delayed() bool { return p.left.Delayed() || p.right.Delayed() }

func (p *In) AppendSQL(c *render.Context) error {
	var err error
	if e, ok := p.left.(Expr); ok {
		err = appendOperand(c, e)
	} else {
		err = p.left.AppendSQL(c)
	}
	if err != nil {
		return err
	}
	if p.not {
		c.WriteString(" NOT")
	}
	c.WriteString(" IN ")
	if params, ok := p.right.(*Params); ok {
		c.WriteString("(")
		if err := params.AppendSQL(c); err != nil {
			return err
		}
		c.WriteString(")")
		return nil
	}
	return p.right.AppendSQL(c)
}
