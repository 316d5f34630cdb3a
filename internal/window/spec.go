package window

import (
	"github.com/roach88/exprsql/internal/dialect"
	"github.com/roach88/exprsql/internal/expr"
	"github.com/roach88/exprsql/internal/render"
	"github.com/roach88/exprsql/internal/scope"
)

// Spec is a finished window specification. It renders the body of an
// OVER (...) clause and can be given a name in a WINDOW clause.
type Spec struct {
	partition []expr.Expr
	order     []Order
	unit      Unit
	start     Bound
	end       Bound
	between   bool
	exclude   Exclusion
}

var _ expr.WindowClause = (*Spec)(nil)

// HasFrame reports whether the spec carries a frame clause.
func (s *Spec) HasFrame() bool { return s.unit != 0 }

// Delayed reports whether any expression in the spec still waits on a type.
func (s *Spec) Delayed() bool {
	for _, e := range s.partition {
		if e.Delayed() {
			return true
		}
	}
	for _, o := range s.order {
		if o.Expr.Delayed() {
			return true
		}
	}
	return s.start.delayed() || s.end.delayed()
}

// AppendWindow writes the specification without the surrounding
// parentheses.
func (s *Spec) AppendWindow(c *render.Context) error {
	mark := c.Len()
	space := func() {
		if c.Len() > mark {
			c.WriteString(" ")
		}
	}

	if len(s.partition) > 0 {
		c.WriteString("PARTITION BY ")
		for i, e := range s.partition {
			if i > 0 {
				c.WriteString(", ")
			}
			if err := e.AppendSQL(c); err != nil {
				return err
			}
		}
	}

	if len(s.order) > 0 {
		space()
		c.WriteString("ORDER BY ")
		for i, o := range s.order {
			if i > 0 {
				c.WriteString(", ")
			}
			if err := appendOrder(c, o); err != nil {
				return err
			}
		}
	}

	if s.unit == 0 {
		return nil
	}
	if s.unit == Groups {
		if err := c.Require(dialect.FeatureGroupsFrame); err != nil {
			return err
		}
	}
	space()
	c.WriteString(s.unit.String())
	c.WriteString(" ")
	if s.between {
		c.WriteString("BETWEEN ")
		if err := s.start.appendSQL(c); err != nil {
			return err
		}
		c.WriteString(" AND ")
		if err := s.end.appendSQL(c); err != nil {
			return err
		}
	} else if err := s.start.appendSQL(c); err != nil {
		return err
	}

	if s.exclude != 0 {
		if err := c.Require(dialect.FeatureFrameExclude); err != nil {
			return err
		}
		c.WriteString(" ")
		c.WriteString(s.exclude.String())
	}
	return nil
}

func appendOrder(c *render.Context, o Order) error {
	if err := o.Expr.AppendSQL(c); err != nil {
		return err
	}
	if o.Desc {
		c.WriteString(" DESC")
	}
	if !o.NullsFirst && !o.NullsLast {
		return nil
	}
	if err := c.Require(dialect.FeatureNullsOrdering); err != nil {
		return err
	}
	if o.NullsFirst {
		c.WriteString(" NULLS FIRST")
	} else {
		c.WriteString(" NULLS LAST")
	}
	return nil
}

// Declare names the spec in frame f, so calls built with expr.OverName can
// refer to it. The returned Definition renders the WINDOW clause entry.
func (s *Spec) Declare(f *scope.Frame, name string) (*Definition, error) {
	if err := f.DeclareWindow(name); err != nil {
		return nil, err
	}
	return &Definition{Name: name, Spec: s}, nil
}

// Definition is one `name AS (spec)` entry of a WINDOW clause.
type Definition struct {
	Name string
	Spec *Spec
}

// AppendSQL writes the definition.
func (d *Definition) AppendSQL(c *render.Context) error {
	if err := c.Require(dialect.FeatureWindow); err != nil {
		return err
	}
	c.AppendIdent(d.Name)
	c.WriteString(" AS (")
	if err := d.Spec.AppendWindow(c); err != nil {
		return err
	}
	c.WriteString(")")
	return nil
}
