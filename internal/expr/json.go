package expr

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/roach88/exprsql/internal/dialect"
	"github.com/roach88/exprsql/internal/render"
	"github.com/roach88/exprsql/internal/sqlerr"
	"github.com/roach88/exprsql/internal/types"
)

// JSONStep is one step of a JSON access: an object key or an array index.
type JSONStep struct {
	Key   string
	Index int
	IsKey bool
}

// Key returns an object key step.
func Key(k string) JSONStep { return JSONStep{Key: k, IsKey: true} }

// Pos returns an array index step.
func Pos(i int) JSONStep { return JSONStep{Index: i} }

// JSONAccess is `j -> step`, `j ->> step`, `j #> path` or `j #>> path`.
type JSONAccess struct {
	operand Expr
	steps   []JSONStep
	text    bool
}

// JSONGet returns the JSON value at steps. One step is the `->` operator;
// more than one is a path access. With text set the result is extracted as
// text (`->>`, `#>>`).
func JSONGet(j Expr, text bool, steps ...JSONStep) (*JSONAccess, error) {
	op := "->"
	if text {
		op = "->>"
	}
	if err := operands(op, j); err != nil {
		return nil, err
	}
	if len(steps) == 0 {
		return nil, sqlerr.InvalidOperand(op, describe(j), "needs at least one key or index")
	}
	if !j.Delayed() {
		if t := j.Type(); !t.IsJSON() && !t.IsString() {
			return nil, sqlerr.InvalidOperand(op, describe(j), "operand is not JSON, got "+t.Name())
		}
	}
	cp := make([]JSONStep, len(steps))
	copy(cp, steps)
	return &JSONAccess{operand: j, steps: cp, text: text}, nil
}

func (x *JSONAccess) Delayed() bool { return x.operand.Delayed() }
func (x *JSONAccess) simple() bool { return false }
func (x *JSONAccess) node() {}

// Type is text for the text operators, otherwise the JSON type of the
// operand.
func (x *JSONAccess) Type() *types.Type {
	if x.text {
		return types.Text
	}
	mustResolve(x)
	if t := x.operand.Type(); t.IsJSON() {
		return t
	}
	return types.JSON
}

func (x *JSONAccess) AppendSQL(c *render.Context) error {
	if err := c.Require(dialect.FeatureJSONArrow); err != nil {
		return err
	}
	if err := appendOperand(c, x.operand); err != nil {
		return err
	}

	if c.Family() != dialect.PostgreSQL {
		// MySQL and SQLite take a JSONPath string for both forms.
		c.WriteString(x.arrow())
		c.WriteString(c.QuoteString(jsonPath(x.steps)))
		return nil
	}

	if len(x.steps) == 1 {
		c.WriteString(x.arrow())
		s := x.steps[0]
		if s.IsKey {
			c.WriteString(c.QuoteString(s.Key))
		} else {
			c.WriteString(strconv.Itoa(s.Index))
		}
		return nil
	}
	if err := c.Require(dialect.FeatureJSONPath); err != nil {
		return err
	}
	if x.text {
		c.WriteString(" #>> ")
	} else {
		c.WriteString(" #> ")
	}
	c.WriteString(c.QuoteString(pgPath(x.steps)))
	return nil
}

func (x *JSONAccess) arrow() string {
	if x.text {
		return " ->> "
	}
	return " -> "
}

var plainKey = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// jsonPath renders steps as a JSONPath such as $.a[2]."b c".
func jsonPath(steps []JSONStep) string {
	var b strings.Builder
	b.WriteString("$")
	for _, s := range steps {
		switch {
		case !s.IsKey:
			b.WriteString("[" + strconv.Itoa(s.Index) + "]")
		case plainKey.MatchString(s.Key):
			b.WriteString("." + s.Key)
		default:
			b.WriteString(".")
			b.WriteString(strconv.Quote(s.Key))
		}
	}
	return b.String()
}

// pgPath renders steps as a PostgreSQL text array such as {a,2,"b c"}.
func pgPath(steps []JSONStep) string {
	parts := make([]string, len(steps))
	for i, s := range steps {
		switch {
		case !s.IsKey:
			parts[i] = strconv.Itoa(s.Index)
		case plainKey.MatchString(s.Key):
			parts[i] = s.Key
		default:
			parts[i] = `"` + strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(s.Key) + `"`
		}
	}
	return "{" + strings.Join(parts, ",") + "}"
}
