// Package render holds the dialect-aware context that expression nodes
// append their SQL text to.
//
// A Context is single-use and not safe for concurrent use: one render call
// owns it from New until SQL/Args are read. Nodes themselves are immutable
// and may be rendered into any number of contexts concurrently.
package render

import (
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"github.com/lib/pq"
	"golang.org/x/text/unicode/norm"

	"github.com/roach88/exprsql/internal/dialect"
	"github.com/roach88/exprsql/internal/sqlerr"
)

// Placeholder selects the bind parameter style.
type Placeholder uint8

const (
	// PlaceholderAuto uses $n for PostgreSQL and ? elsewhere.
	PlaceholderAuto Placeholder = iota
	PlaceholderQuestion
	PlaceholderDollar
)

// ParsePlaceholder accepts "auto", "question" or "dollar".
func ParsePlaceholder(s string) (Placeholder, error) {
	switch s {
	case "", "auto":
		return PlaceholderAuto, nil
	case "question":
		return PlaceholderQuestion, nil
	case "dollar":
		return PlaceholderDollar, nil
	default:
		return 0, fmt.Errorf("invalid placeholder style %q: must be auto, question or dollar", s)
	}
}

// Option configures a Context.
type Option func(*Context)

// WithPlaceholder overrides the placeholder style.
func WithPlaceholder(p Placeholder) Option {
	return func(c *Context) { c.placeholder = p }
}

// WithNormalizedIdentifiers makes AppendIdent NFC-normalize identifiers
// before quoting them.
func WithNormalizedIdentifiers(enabled bool) Option {
	return func(c *Context) { c.normalize = enabled }
}

// Context accumulates SQL text and bind arguments for one render call.
type Context struct {
	dialect     dialect.Dialect
	placeholder Placeholder
	normalize   bool

	buf   strings.Builder
	args  []any
	named map[string]int
}

// New creates a Context for dialect d.
func New(d dialect.Dialect, opts ...Option) *Context {
	c := &Context{dialect: d}
	for _, opt := range opts {
		opt(c)
	}
	if c.placeholder == PlaceholderAuto {
		if d.Family == dialect.PostgreSQL {
			c.placeholder = PlaceholderDollar
		} else {
			c.placeholder = PlaceholderQuestion
		}
	}
	return c
}

// Dialect returns the render target.
func (c *Context) Dialect() dialect.Dialect { return c.dialect }

// Family returns the render target's family.
func (c *Context) Family() dialect.Family { return c.dialect.Family }

// WriteString appends raw SQL text.
func (c *Context) WriteString(s string) {
	c.buf.WriteString(s)
}

// WriteByte appends a single byte of SQL text. It never fails.
func (c *Context) WriteByte(b byte) error {
	return c.buf.WriteByte(b)
}

// Len returns the number of bytes written so far.
func (c *Context) Len() int { return c.buf.Len() }

// SQL returns the text written so far.
func (c *Context) SQL() string { return c.buf.String() }

// Args returns the bind arguments collected so far, in placeholder order.
func (c *Context) Args() []any { return c.args }

// AppendIdent appends a quoted identifier.
func (c *Context) AppendIdent(name string) {
	if c.normalize {
		name = norm.NFC.String(name)
	}
	c.buf.WriteString(c.QuoteIdent(name))
}

// AppendQualified appends a dot-separated chain of quoted identifiers,
// skipping empty parts.
func (c *Context) AppendQualified(parts ...string) {
	first := true
	for _, p := range parts {
		if p == "" {
			continue
		}
		if !first {
			c.buf.WriteByte('.')
		}
		c.AppendIdent(p)
		first = false
	}
}

// QuoteIdent returns name quoted for the render target.
func (c *Context) QuoteIdent(name string) string {
	switch c.dialect.Family {
	case dialect.PostgreSQL:
		return pq.QuoteIdentifier(name)
	case dialect.MySQL:
		return "`" + strings.ReplaceAll(name, "`", "``") + "`"
	default:
		return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
	}
}

// QuoteString returns s as a string literal for the render target.
func (c *Context) QuoteString(s string) string {
	switch c.dialect.Family {
	case dialect.PostgreSQL:
		return pq.QuoteLiteral(s)
	case dialect.MySQL:
		r := strings.NewReplacer(`\`, `\\`, `'`, `''`, "\x00", `\0`)
		return "'" + r.Replace(s) + "'"
	default:
		return "'" + strings.ReplaceAll(s, "'", "''") + "'"
	}
}

// AppendParam appends a positional placeholder bound to v.
func (c *Context) AppendParam(v any) {
	c.args = append(c.args, v)
	c.writePlaceholder(len(c.args))
}

// AppendNamedParam appends a placeholder for the named parameter name.
// With $n placeholders repeated names reuse one index; with ? each
// occurrence gets its own argument slot.
func (c *Context) AppendNamedParam(name string) {
	if c.placeholder == PlaceholderDollar {
		if idx, ok := c.named[name]; ok {
			c.writePlaceholder(idx)
			return
		}
		if c.named == nil {
			c.named = make(map[string]int)
		}
		c.args = append(c.args, sql.Named(name, nil))
		c.named[name] = len(c.args)
		c.writePlaceholder(len(c.args))
		return
	}
	c.args = append(c.args, sql.Named(name, nil))
	c.writePlaceholder(len(c.args))
}

func (c *Context) writePlaceholder(idx int) {
	if c.placeholder == PlaceholderDollar {
		c.buf.WriteByte('$')
		c.buf.WriteString(strconv.Itoa(idx))
		return
	}
	c.buf.WriteByte('?')
}

// Require returns a dialect error if the target does not support f.
func (c *Context) Require(f dialect.Feature) error {
	if c.dialect.Supports(f) {
		return nil
	}
	err := sqlerr.UnsupportedDialect(string(f), c.dialect.String())
	if v, ok := dialect.MinVersion(f, c.dialect.Family); ok {
		err.Details = map[string]string{"min_version": v.String()}
	}
	return err
}

// Unsupported returns a dialect error for a feature with no rendering on
// the target.
func (c *Context) Unsupported(feature string) error {
	return sqlerr.UnsupportedDialect(feature, c.dialect.String())
}
