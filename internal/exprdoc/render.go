package exprdoc

import (
	"bytes"
	"database/sql"
	"fmt"
	"strings"

	"github.com/roach88/exprsql/internal/dialect"
	"github.com/roach88/exprsql/internal/expr"
	"github.com/roach88/exprsql/internal/render"
)

// Targets parses the document's dialect list. An empty list yields the
// latest version of every family.
func (d *Document) Targets() ([]dialect.Dialect, error) {
	if len(d.Dialects) == 0 {
		out := make([]dialect.Dialect, 0, len(dialect.Families))
		for _, f := range dialect.Families {
			out = append(out, dialect.Latest(f))
		}
		return out, nil
	}
	out := make([]dialect.Dialect, 0, len(d.Dialects))
	for _, s := range d.Dialects {
		family, version, _ := strings.Cut(strings.TrimSpace(s), " ")
		t, err := dialect.Parse(family, strings.TrimSpace(version))
		if err != nil {
			return nil, fmt.Errorf("dialect %q: %w", s, err)
		}
		out = append(out, t)
	}
	return out, nil
}

// Result is the rendering of a built document for one dialect.
type Result struct {
	Dialect dialect.Dialect
	SQL     string
	Args    []any
	// Windows holds the rendered `name AS (spec)` entries of the
	// document's named windows.
	Windows []string
	Err     error
}

// RenderBuilt renders a decoded document for d.
func RenderBuilt(b *Built, d dialect.Dialect, opts ...render.Option) Result {
	res := Result{Dialect: d}
	c := render.New(d, opts...)
	if err := b.Expr.AppendSQL(c); err != nil {
		res.Err = err
		return res
	}
	res.SQL = c.SQL()
	res.Args = c.Args()
	for _, w := range b.Windows {
		wc := render.New(d, opts...)
		if err := w.AppendSQL(wc); err != nil {
			res.Err = err
			return res
		}
		res.Windows = append(res.Windows, wc.SQL())
	}
	return res
}

// Render decodes doc and renders its expression for d.
func Render(doc *Document, d dialect.Dialect, opts ...Option) (string, []any, error) {
	b, err := Decode(doc, opts...)
	if err != nil {
		return "", nil, err
	}
	return expr.Render(b.Expr, d)
}

// Format decodes doc and renders it for each of its targets, in the text
// form used by golden files. Errors are part of the output.
func Format(doc *Document, opts ...Option) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "# %s\n", doc.Name)
	if doc.Description != "" {
		fmt.Fprintf(&buf, "# %s\n", doc.Description)
	}

	targets, err := doc.Targets()
	if err != nil {
		fmt.Fprintf(&buf, "error: %v\n", err)
		return buf.Bytes()
	}
	b, err := Decode(doc, opts...)
	if err != nil {
		fmt.Fprintf(&buf, "error: %v\n", err)
		return buf.Bytes()
	}
	if t, err := expr.TypeOf(b.Expr); err == nil {
		fmt.Fprintf(&buf, "type: %s\n", t)
	}

	for _, t := range targets {
		res := RenderBuilt(b, t)
		fmt.Fprintf(&buf, "\n-- %s\n", t)
		if res.Err != nil {
			fmt.Fprintf(&buf, "error: %v\n", res.Err)
			continue
		}
		buf.WriteString(res.SQL)
		buf.WriteByte('\n')
		if len(res.Args) > 0 {
			fmt.Fprintf(&buf, "args: %s\n", formatArgs(res.Args))
		}
		for _, w := range res.Windows {
			fmt.Fprintf(&buf, "window: %s\n", w)
		}
	}
	return buf.Bytes()
}

func formatArgs(args []any) string {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = FormatArg(a)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// FormatArg renders one bind argument for display. Named parameter slots
// print as @name.
func FormatArg(a any) string {
	switch v := a.(type) {
	case sql.NamedArg:
		return "@" + v.Name
	case string:
		return fmt.Sprintf("%q", v)
	default:
		return fmt.Sprintf("%v", v)
	}
}
