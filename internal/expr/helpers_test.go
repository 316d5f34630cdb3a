package expr

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/exprsql/internal/dialect"
	"github.com/roach88/exprsql/internal/render"
	"github.com/roach88/exprsql/internal/scope"
	"github.com/roach88/exprsql/internal/types"
)

var (
	pg     = dialect.Latest(dialect.PostgreSQL)
	mysql  = dialect.Latest(dialect.MySQL)
	sqlite = dialect.Latest(dialect.SQLite)
)

func col(name string, t *types.Type) *Column {
	return Must(Col("t", name, t))
}

func val(v any) *Literal {
	return Must(Value(v))
}

func sqlOf(t *testing.T, n Node, d dialect.Dialect) string {
	t.Helper()
	s, _, err := Render(n, d)
	require.NoError(t, err)
	return s
}

func renderErr(n Node, d dialect.Dialect) error {
	_, _, err := Render(n, d)
	return err
}

func newStack() *scope.Stack {
	return scope.NewStack(
		scope.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		scope.WithIDGenerator(scope.NewSequenceGenerator("f")),
	)
}

// windowText is a fixed window clause.
type windowText string

func (w windowText) Delayed() bool { return false }

func (w windowText) AppendWindow(c *render.Context) error {
	c.WriteString(string(w))
	return nil
}
