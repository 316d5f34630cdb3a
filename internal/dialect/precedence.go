package dialect

import "github.com/roach88/exprsql/internal/sqlop"

// bitwiseLevel is where PostgreSQL and SQLite parse the bitwise operators:
// one left-associative level below `+` and `-`.
const bitwiseLevel = 4

// Precedence returns the level at which the family's parser groups op.
// Lower binds tighter. MySQL has a level per bitwise operator, which is the
// order sqlop.Binary.Precedence uses; PostgreSQL puts `#`, `&`, `|` and
// the shifts on one level, and SQLite does the same for `&`, `|` and the
// shifts.
func (f Family) Precedence(op sqlop.Binary) int {
	if f == MySQL || op.Family() != sqlop.FamilyBitwise {
		return op.Precedence()
	}
	return bitwiseLevel
}
