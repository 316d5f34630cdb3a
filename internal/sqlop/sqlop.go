// Package sqlop enumerates the SQL operators understood by the expression
// engine together with their precedence, type promotion family and
// spelling.
//
// Precedence values follow the usual "level" convention: a LOWER value
// binds TIGHTER. Multiplication (level 2) binds tighter than addition
// (level 3), so in `a + b * c` the multiplication is grouped first.
package sqlop

// Family selects the type promotion rules used for an operator.
type Family uint8

const (
	// FamilyNone marks operators that have no arithmetic promotion
	// (comparisons, logical connectives).
	FamilyNone Family = iota
	// FamilyAdditive is used by `+` and allows unit-preserving addition
	// such as date + integer.
	FamilyAdditive
	// FamilyArithmetic is used by `-`, `*`, `/` and `%`.
	FamilyArithmetic
	// FamilyBitwise is used by `&`, `|`, `^` and the shifts.
	FamilyBitwise
)

func (f Family) String() string {
	switch f {
	case FamilyAdditive:
		return "additive"
	case FamilyArithmetic:
		return "arithmetic"
	case FamilyBitwise:
		return "bitwise"
	default:
		return "none"
	}
}

// Binary is a two-operand arithmetic or bitwise operator.
type Binary uint8

const (
	Plus Binary = iota + 1
	Minus
	Times
	Divide
	Mod
	BitAnd
	BitOr
	BitXor
	LeftShift
	RightShift
)

var binaryInfo = map[Binary]struct {
	name       string
	sql        string
	precedence int
	family     Family
}{
	BitXor:     {"bitXor", "^", 1, FamilyBitwise},
	Times:      {"times", "*", 2, FamilyArithmetic},
	Divide:     {"divide", "/", 2, FamilyArithmetic},
	Mod:        {"mod", "%", 2, FamilyArithmetic},
	Plus:       {"plus", "+", 3, FamilyAdditive},
	Minus:      {"minus", "-", 3, FamilyArithmetic},
	LeftShift:  {"leftShift", "<<", 4, FamilyBitwise},
	RightShift: {"rightShift", ">>", 4, FamilyBitwise},
	BitAnd:     {"bitAnd", "&", 5, FamilyBitwise},
	BitOr:      {"bitOr", "|", 6, FamilyBitwise},
}

// Valid reports whether op is a known binary operator.
func (op Binary) Valid() bool {
	_, ok := binaryInfo[op]
	return ok
}

// SQL returns the standard spelling of the operator. Dialects may
// override it (PostgreSQL writes XOR as `#`).
func (op Binary) SQL() string {
	if info, ok := binaryInfo[op]; ok {
		return info.sql
	}
	return "?"
}

// Precedence returns the operator's precedence level; lower binds tighter.
func (op Binary) Precedence() int {
	if info, ok := binaryInfo[op]; ok {
		return info.precedence
	}
	return 0
}

// Family returns the promotion family of the operator.
func (op Binary) Family() Family {
	if info, ok := binaryInfo[op]; ok {
		return info.family
	}
	return FamilyNone
}

// BindsTighter reports whether op groups before other in unparenthesized SQL.
func (op Binary) BindsTighter(other Binary) bool {
	return op.Precedence() < other.Precedence()
}

func (op Binary) String() string {
	if info, ok := binaryInfo[op]; ok {
		return info.name
	}
	return "unknown"
}

// ParseBinary returns the operator spelled by s, accepting either the SQL
// symbol or the operator name.
func ParseBinary(s string) (Binary, bool) {
	for op, info := range binaryInfo {
		if s == info.sql || s == info.name {
			return op, true
		}
	}
	return 0, false
}

// Unary is a one-operand prefix operator.
type Unary uint8

const (
	Negate Unary = iota + 1
	BitNot
)

// SQL returns the operator's spelling.
func (op Unary) SQL() string {
	switch op {
	case Negate:
		return "-"
	case BitNot:
		return "~"
	default:
		return "?"
	}
}

// Valid reports whether op is a known unary operator.
func (op Unary) Valid() bool {
	return op == Negate || op == BitNot
}

func (op Unary) String() string {
	switch op {
	case Negate:
		return "negate"
	case BitNot:
		return "bitNot"
	default:
		return "unknown"
	}
}

// Compare is a comparison operator yielding a boolean.
type Compare uint8

const (
	Equal Compare = iota + 1
	NotEqual
	Less
	LessEqual
	Greater
	GreaterEqual
)

var compareSQL = map[Compare]string{
	Equal:        "=",
	NotEqual:     "<>",
	Less:         "<",
	LessEqual:    "<=",
	Greater:      ">",
	GreaterEqual: ">=",
}

// SQL returns the operator's spelling.
func (op Compare) SQL() string {
	if s, ok := compareSQL[op]; ok {
		return s
	}
	return "?"
}

// Valid reports whether op is a known comparison operator.
func (op Compare) Valid() bool {
	_, ok := compareSQL[op]
	return ok
}

// ParseCompare returns the comparison spelled by s. `!=` is accepted as an
// alias of `<>`.
func ParseCompare(s string) (Compare, bool) {
	if s == "!=" {
		return NotEqual, true
	}
	for op, sql := range compareSQL {
		if sql == s {
			return op, true
		}
	}
	return 0, false
}
