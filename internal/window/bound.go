package window

import (
	"strconv"

	"github.com/roach88/exprsql/internal/expr"
	"github.com/roach88/exprsql/internal/render"
	"github.com/roach88/exprsql/internal/sqlerr"
)

// Unit is the frame unit of a window.
type Unit uint8

const (
	Rows Unit = iota + 1
	Range
	Groups
)

func (u Unit) String() string {
	switch u {
	case Rows:
		return "ROWS"
	case Range:
		return "RANGE"
	case Groups:
		return "GROUPS"
	default:
		return "?"
	}
}

type boundKind uint8

const (
	unboundedPreceding boundKind = iota + 1
	preceding
	currentRow
	following
	unboundedFollowing
)

// Bound is one end of a window frame.
type Bound struct {
	kind   boundKind
	n      int
	offset expr.Expr
}

var (
	UnboundedPreceding = Bound{kind: unboundedPreceding}
	CurrentRow         = Bound{kind: currentRow}
	UnboundedFollowing = Bound{kind: unboundedFollowing}
)

// Preceding is `n PRECEDING`.
func Preceding(n int) Bound { return Bound{kind: preceding, n: n} }

// Following is `n FOLLOWING`.
func Following(n int) Bound { return Bound{kind: following, n: n} }

// PrecedingBy is `<offset> PRECEDING` for RANGE frames over non-integer
// keys, such as an interval literal.
func PrecedingBy(offset expr.Expr) Bound { return Bound{kind: preceding, offset: offset} }

// FollowingBy is `<offset> FOLLOWING`.
func FollowingBy(offset expr.Expr) Bound { return Bound{kind: following, offset: offset} }

func (b Bound) validate(operation string) error {
	switch b.kind {
	case unboundedPreceding, currentRow, unboundedFollowing:
		return nil
	case preceding, following:
	default:
		return sqlerr.InvalidOperand(operation, "bound", "frame bound is not set")
	}
	if b.offset == nil {
		if b.n < 0 {
			return sqlerr.InvalidOperand(operation, strconv.Itoa(b.n), "frame offset must not be negative")
		}
		return nil
	}
	switch b.offset.(type) {
	case *expr.Literal, *expr.Param, *expr.NamedParam:
		return nil
	default:
		return sqlerr.InvalidOperand(operation, "offset", "frame offset must be a literal or a parameter")
	}
}

func (b Bound) delayed() bool {
	return b.offset != nil && b.offset.Delayed()
}

func (b Bound) appendSQL(c *render.Context) error {
	switch b.kind {
	case unboundedPreceding:
		c.WriteString("UNBOUNDED PRECEDING")
		return nil
	case currentRow:
		c.WriteString("CURRENT ROW")
		return nil
	case unboundedFollowing:
		c.WriteString("UNBOUNDED FOLLOWING")
		return nil
	}
	if b.offset != nil {
		if err := b.offset.AppendSQL(c); err != nil {
			return err
		}
	} else {
		c.WriteString(strconv.Itoa(b.n))
	}
	if b.kind == preceding {
		c.WriteString(" PRECEDING")
	} else {
		c.WriteString(" FOLLOWING")
	}
	return nil
}

// Exclusion is the frame EXCLUDE option.
type Exclusion uint8

const (
	ExcludeCurrentRow Exclusion = iota + 1
	ExcludeGroup
	ExcludeTies
	ExcludeNoOthers
)

func (e Exclusion) String() string {
	switch e {
	case ExcludeCurrentRow:
		return "EXCLUDE CURRENT ROW"
	case ExcludeGroup:
		return "EXCLUDE GROUP"
	case ExcludeTies:
		return "EXCLUDE TIES"
	case ExcludeNoOthers:
		return "EXCLUDE NO OTHERS"
	default:
		return "?"
	}
}
