// Package window builds window specifications for OVER clauses.
//
// A Builder is a small state machine over the frame clause:
//
//	Unset ──Rows/Range/Groups──▶ UnitChosen
//	UnitChosen ──Start──▶ StartBoundSet
//	UnitChosen ──Between──▶ BetweenExpected ──And──▶ EndBoundSet
//
// Between records the start bound; And supplies the end bound. End closes
// the clause and returns the finished Spec. A frame unit without a bound,
// or a Between without its And, fails at End.
//
// Builder methods chain. The first invalid call is remembered and returned
// by End; later calls are ignored.
package window

import (
	"github.com/roach88/exprsql/internal/expr"
	"github.com/roach88/exprsql/internal/sqlerr"
)

// State is the position of a Builder in the frame state machine.
type State uint8

const (
	StateUnset State = iota
	StateUnitChosen
	StateStartBoundSet
	StateBetweenExpected
	StateEndBoundSet
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateUnset:
		return "unset"
	case StateUnitChosen:
		return "unit chosen"
	case StateStartBoundSet:
		return "start bound set"
	case StateBetweenExpected:
		return "between expected"
	case StateEndBoundSet:
		return "end bound set"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Order is one ORDER BY item of a window.
type Order struct {
	Expr       expr.Expr
	Desc       bool
	NullsFirst bool
	NullsLast  bool
}

// Asc orders by e ascending.
func Asc(e expr.Expr) Order { return Order{Expr: e} }

// Desc orders by e descending.
func Desc(e expr.Expr) Order { return Order{Expr: e, Desc: true} }

// Builder assembles a Spec. The zero value is ready to use.
type Builder struct {
	state     State
	err       error
	partition []expr.Expr
	order     []Order
	partSet   bool
	orderSet  bool
	unit      Unit
	start     Bound
	end       Bound
	between   bool
	exclude   Exclusion
}

// New returns an empty builder.
func New() *Builder { return &Builder{} }

// State returns the builder's current state.
func (b *Builder) State() State { return b.state }

// Err returns the first error recorded by the builder.
func (b *Builder) Err() error { return b.err }

func (b *Builder) fail(operation, reason string) *Builder {
	if b.err == nil {
		b.err = sqlerr.WindowState(operation, b.state.String(), reason)
	}
	return b
}

func (b *Builder) failWith(err error) *Builder {
	if b.err == nil {
		b.err = err
	}
	return b
}

// PartitionBy sets the PARTITION BY list. It may be called once, before a
// frame unit is chosen.
func (b *Builder) PartitionBy(es ...expr.Expr) *Builder {
	switch {
	case b.err != nil:
		return b
	case b.state != StateUnset:
		return b.fail("PARTITION BY", "partition must be set before the frame")
	case b.partSet:
		return b.failWith(sqlerr.DuplicateModifier("OVER", "PARTITION BY"))
	}
	for _, e := range es {
		if _, err := expr.Operand("PARTITION BY", e); err != nil {
			return b.failWith(err)
		}
	}
	b.partSet = true
	b.partition = append([]expr.Expr(nil), es...)
	return b
}

// OrderBy sets the ORDER BY list. It may be called once, before a frame
// unit is chosen.
func (b *Builder) OrderBy(items ...Order) *Builder {
	switch {
	case b.err != nil:
		return b
	case b.state != StateUnset:
		return b.fail("ORDER BY", "order must be set before the frame")
	case b.orderSet:
		return b.failWith(sqlerr.DuplicateModifier("OVER", "ORDER BY"))
	}
	for _, it := range items {
		if _, err := expr.Operand("ORDER BY", it.Expr); err != nil {
			return b.failWith(err)
		}
		if it.NullsFirst && it.NullsLast {
			return b.failWith(sqlerr.DuplicateModifier("ORDER BY", "NULLS"))
		}
	}
	b.orderSet = true
	b.order = append([]Order(nil), items...)
	return b
}

// Rows chooses the ROWS frame unit.
func (b *Builder) Rows() *Builder { return b.choose(Rows) }

// Range chooses the RANGE frame unit.
func (b *Builder) Range() *Builder { return b.choose(Range) }

// Groups chooses the GROUPS frame unit.
func (b *Builder) Groups() *Builder { return b.choose(Groups) }

func (b *Builder) choose(u Unit) *Builder {
	if b.err != nil {
		return b
	}
	if b.state != StateUnset {
		return b.fail(u.String(), "frame unit already chosen")
	}
	b.unit = u
	b.state = StateUnitChosen
	return b
}

// Start sets a single-sided frame, `ROWS <bound>`, which ends at the
// current row.
func (b *Builder) Start(bound Bound) *Builder {
	if b.err != nil {
		return b
	}
	if b.state != StateUnitChosen {
		return b.fail("frame start", "frame start needs a unit and no bound yet")
	}
	if err := bound.validate("frame start"); err != nil {
		return b.failWith(err)
	}
	if bound.kind == following || bound.kind == unboundedFollowing {
		return b.failWith(sqlerr.InvalidOperand("frame start", "FOLLOWING", "a single-sided frame cannot start after the current row"))
	}
	b.start = bound
	b.state = StateStartBoundSet
	return b
}

// Between starts a two-sided frame with start; And must follow.
func (b *Builder) Between(start Bound) *Builder {
	if b.err != nil {
		return b
	}
	if b.state != StateUnitChosen {
		return b.fail("BETWEEN", "BETWEEN needs a unit and no bound yet")
	}
	if err := start.validate("BETWEEN"); err != nil {
		return b.failWith(err)
	}
	if start.kind == unboundedFollowing {
		return b.failWith(sqlerr.InvalidOperand("BETWEEN", "UNBOUNDED FOLLOWING", "frame cannot start at UNBOUNDED FOLLOWING"))
	}
	b.between = true
	b.start = start
	b.state = StateBetweenExpected
	return b
}

// And sets the end bound of a two-sided frame.
func (b *Builder) And(end Bound) *Builder {
	if b.err != nil {
		return b
	}
	if b.state != StateBetweenExpected {
		return b.fail("AND", "AND only follows BETWEEN")
	}
	if err := end.validate("AND"); err != nil {
		return b.failWith(err)
	}
	if end.kind == unboundedPreceding {
		return b.failWith(sqlerr.InvalidOperand("AND", "UNBOUNDED PRECEDING", "frame cannot end at UNBOUNDED PRECEDING"))
	}
	if end.kind < b.start.kind {
		return b.failWith(sqlerr.InvalidOperand("AND", "bound", "frame end is before frame start"))
	}
	b.end = end
	b.state = StateEndBoundSet
	return b
}

// Exclude sets the frame exclusion. It needs a complete frame and can be
// set once.
func (b *Builder) Exclude(x Exclusion) *Builder {
	if b.err != nil {
		return b
	}
	if b.state != StateStartBoundSet && b.state != StateEndBoundSet {
		return b.fail("EXCLUDE", "EXCLUDE needs a complete frame")
	}
	if b.exclude != 0 {
		return b.failWith(sqlerr.DuplicateModifier("frame", "EXCLUDE"))
	}
	if x < ExcludeCurrentRow || x > ExcludeNoOthers {
		return b.failWith(sqlerr.InvalidOperand("EXCLUDE", x.String(), "unknown exclusion"))
	}
	b.exclude = x
	return b
}

// End closes the clause and returns the specification. Unset partition
// and order lists finalize to empty.
func (b *Builder) End() (*Spec, error) {
	if b.err != nil {
		return nil, b.err
	}
	switch b.state {
	case StateClosed:
		return nil, b.fail("end", "window clause already closed").err
	case StateUnitChosen:
		return nil, b.fail("end", "frame unit "+b.unit.String()+" is missing bound").err
	case StateBetweenExpected:
		return nil, b.fail("end", "frame BETWEEN is missing `and`").err
	}

	s := &Spec{
		partition: b.partition,
		order:     b.order,
		unit:      b.unit,
		start:     b.start,
		end:       b.end,
		between:   b.between,
		exclude:   b.exclude,
	}
	if s.partition == nil {
		s.partition = []expr.Expr{}
	}
	if s.order == nil {
		s.order = []Order{}
	}
	b.state = StateClosed
	return s, nil
}
