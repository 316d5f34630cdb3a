package expr

import (
	"github.com/roach88/exprsql/internal/dialect"
	"github.com/roach88/exprsql/internal/render"
	"github.com/roach88/exprsql/internal/sqlerr"
	"github.com/roach88/exprsql/internal/types"
)

// Match selects the pattern operator of a Like predicate.
type Match uint8

const (
	MatchLike Match = iota + 1
	// MatchILike is case-insensitive LIKE. Dialects without ILIKE compare
	// LOWER() of both sides.
	MatchILike
	MatchSimilar
)

func (m Match) String() string {
	switch m {
	case MatchLike:
		return "LIKE"
	case MatchILike:
		return "ILIKE"
	case MatchSimilar:
		return "SIMILAR TO"
	default:
		return "?"
	}
}

// Like is `x [NOT] LIKE|ILIKE|SIMILAR TO pattern [ESCAPE 'c']`.
type Like struct {
	boolean
	match   Match
	operand Expr
	pattern Expr
	not     bool
	escape  rune
}

// Matches returns `x match pattern`.
func Matches(m Match, x, pattern Expr) (*Like, error) {
	if m < MatchLike || m > MatchSimilar {
		return nil, sqlerr.InvalidOperand("LIKE", m.String(), "unknown pattern operator")
	}
	if err := operands(m.String(), x, pattern); err != nil {
		return nil, err
	}
	if !pattern.Delayed() {
		if t := pattern.Type(); !t.IsString() && !t.IsNull() {
			return nil, sqlerr.InvalidOperand(m.String(), describe(pattern), "pattern must be a string, got "+t.Name())
		}
	}
	return &Like{match: m, operand: x, pattern: pattern}, nil
}

// Not returns a negated copy.
func (p *Like) Not() (*Like, error) {
	if p.not {
		return nil, sqlerr.DuplicateModifier(p.match.String(), "NOT")
	}
	cp := *p
	cp.not = true
	return &cp, nil
}

// Escape returns a copy using r as the escape character. An escape can
// only be set once.
func (p *Like) Escape(r rune) (*Like, error) {
	if p.escape != 0 {
		return nil, sqlerr.DuplicateModifier(p.match.String(), "ESCAPE")
	}
	if r == 0 {
		return nil, sqlerr.InvalidOperand(p.match.String(), "ESCAPE", "escape character must not be NUL")
	}
	cp := *p
	cp.escape = r
	return &cp, nil
}

func (p *Like) Delayed() bool { return p.operand.Delayed() || p.pattern.Delayed() }

func (p *Like) AppendSQL(c *render.Context) error {
	word := p.match.String()
	lower := false
	switch p.match {
	case MatchILike:
		if !c.Dialect().Supports(dialect.FeatureILike) {
			word, lower = "LIKE", true
		}
	case MatchSimilar:
		if err := c.Require(dialect.FeatureSimilarTo); err != nil {
			return err
		}
	}

	if err := appendSide(c, p.operand, lower); err != nil {
		return err
	}
	if p.not {
		c.WriteString(" NOT")
	}
	c.WriteString(" " + word + " ")
	if err := appendSide(c, p.pattern, lower); err != nil {
		return err
	}
	if p.escape != 0 {
		c.WriteString(" ESCAPE ")
		return c.AppendLiteral(types.Char, string(p.escape))
	}
	return nil
}

func appendSide(c *render.Context, e Expr, lower bool) error {
	if !lower {
		return appendOperand(c, e)
	}
	c.WriteString("LOWER(")
	if err := e.AppendSQL(c); err != nil {
		return err
	}
	c.WriteString(")")
	return nil
}
