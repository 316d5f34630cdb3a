package expr

import (
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/roach88/exprsql/internal/dialect"
	"github.com/roach88/exprsql/internal/render"
	"github.com/roach88/exprsql/internal/scope"
	"github.com/roach88/exprsql/internal/sqlerr"
	"github.com/roach88/exprsql/internal/types"
)

// Word is a keyword argument such as DISTINCT, YEAR or FROM. Words are
// separated from their neighbours by a space instead of a comma.
type Word struct {
	text string
}

var wordPattern = regexp.MustCompile(`^[A-Za-z]+( [A-Za-z]+)*$`)

// Keyword returns a keyword argument. Only letters and single spaces are
// allowed; the keyword is rendered upper case.
func Keyword(text string) (*Word, error) {
	if !wordPattern.MatchString(text) {
		return nil, sqlerr.InvalidOperand("keyword", text, "keyword must be letters separated by single spaces")
	}
	return &Word{text: strings.ToUpper(text)}, nil
}

func (w *Word) Text() string { return w.text }
func (w *Word) Delayed() bool { return false }
func (w *Word) node() {}
func (w *Word) AppendSQL(c *render.Context) error {
	c.WriteString(w.text)
	return nil
}

// Ident is a quoted identifier argument, possibly qualified.
type Ident struct {
	parts []string
}

// Identifier returns an identifier argument.
func Identifier(parts ...string) (*Ident, error) {
	if len(parts) == 0 || slices.Contains(parts, "") {
		return nil, sqlerr.InvalidOperand("identifier", strings.Join(parts, "."), "identifier parts must not be empty")
	}
	return &Ident{parts: slices.Clone(parts)}, nil
}

func (i *Ident) Delayed() bool { return false }
func (i *Ident) node() {}
func (i *Ident) AppendSQL(c *render.Context) error {
	c.AppendQualified(i.parts...)
	return nil
}

// TypeName is a semantic type used as an argument, rendered with the
// dialect's type name.
type TypeName struct {
	typ *types.Type
}

// TypeArg returns a type argument.
func TypeArg(t *types.Type) (*TypeName, error) {
	if t == nil {
		return nil, sqlerr.InvalidOperand("type argument", "<nil>", "type must not be nil")
	}
	return &TypeName{typ: t}, nil
}

func (t *TypeName) Type() *types.Type { return t.typ }
func (t *TypeName) Delayed() bool { return false }
func (t *TypeName) node() {}
func (t *TypeName) AppendSQL(c *render.Context) error {
	name, ok := t.typ.SQLName(c.Family())
	if !ok {
		return c.Unsupported("type " + t.typ.Name())
	}
	c.WriteString(name)
	return nil
}

// NamedArg is a named-notation argument `name => value`.
type NamedArg struct {
	name  string
	value Expr
}

var namePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// NameArg returns `name => value`.
func NameArg(name string, value Expr) (*NamedArg, error) {
	if !namePattern.MatchString(name) {
		return nil, sqlerr.InvalidOperand("=>", name, "argument name must be an identifier")
	}
	if err := operands("=>", value); err != nil {
		return nil, err
	}
	return &NamedArg{name: name, value: value}, nil
}

func (n *NamedArg) Name() string { return n.name }
func (n *NamedArg) Value() Expr { return n.value }
func (n *NamedArg) Delayed() bool { return n.value.Delayed() }
func (n *NamedArg) node() {}

func (n *NamedArg) AppendSQL(c *render.Context) error {
	if err := c.Require(dialect.FeatureNamedNotation); err != nil {
		return err
	}
	c.WriteString(n.name + " => ")
	return n.value.AppendSQL(c)
}

// KeyValue is one key/value pair of an object-building call. It renders
// as `key, value`.
type KeyValue struct {
	key   Expr
	value Expr
}

// Pair returns a key/value argument. A key with a known type must be a
// string.
func Pair(key, value Expr) (*KeyValue, error) {
	if err := operands("key/value", key, value); err != nil {
		return nil, err
	}
	if !key.Delayed() {
		if t := key.Type(); !t.IsString() {
			return nil, sqlerr.InvalidOperand("key/value", describe(key), "key must be a string, got "+t.Name())
		}
	}
	return &KeyValue{key: key, value: value}, nil
}

func (kv *KeyValue) Key() Expr { return kv.key }
func (kv *KeyValue) Value() Expr { return kv.value }
func (kv *KeyValue) Delayed() bool { return kv.key.Delayed() || kv.value.Delayed() }
func (kv *KeyValue) node() {}

func (kv *KeyValue) AppendSQL(c *render.Context) error {
	if err := kv.key.AppendSQL(c); err != nil {
		return err
	}
	c.WriteString(", ")
	return kv.value.AppendSQL(c)
}

// Star is the `*` argument of COUNT(*).
type Star struct{}

func (Star) Delayed() bool { return false }
func (Star) node() {}
func (Star) AppendSQL(c *render.Context) error {
	c.WriteString("*")
	return nil
}

// CallSpec describes the function being called.
type CallSpec struct {
	// Name is the function name, rendered as given.
	Name string
	// Return is the result type. When nil the type of the first non-null
	// expression argument is used.
	Return *types.Type
	// Families restricts the dialects that have the function. Empty means
	// every dialect.
	Families []dialect.Family
	// Feature, if set, must be supported by the target dialect.
	Feature dialect.Feature
}

var funcName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// Call is a function call with an ordered, heterogeneous argument list.
type Call struct {
	spec CallSpec
	name string
	args []Node
}

// NewCall validates args against the basic call shape and returns the
// call. Arguments may be expressions, rows, field groups or the argument
// nodes of this package; multi-value parameters and bare subqueries are
// rejected. Once a named argument appears every following argument must be
// named too.
func NewCall(spec CallSpec, args ...Node) (*Call, error) {
	if !funcName.MatchString(spec.Name) {
		return nil, sqlerr.InvalidOperand("call", spec.Name, "function name must be an identifier")
	}
	named := false
	for i, a := range args {
		if err := checkArg(spec.Name, i, a); err != nil {
			return nil, err
		}
		switch a.(type) {
		case *NamedArg:
			named = true
		case *Word:
		default:
			if named {
				return nil, sqlerr.PositionalAfterNamed(spec.Name, i)
			}
		}
	}
	return &Call{spec: spec, name: spec.Name, args: slices.Clone(args)}, nil
}

func checkArg(function string, i int, a Node) error {
	switch v := a.(type) {
	case nil:
		return sqlerr.ArgumentShape(function, i, "argument is missing")
	case *Params:
		return sqlerr.ArgumentShape(function, i, "multi-value parameter is only allowed in an IN list")
	case *Subquery, *RowList, *DelayedRow:
		return sqlerr.ArgumentShape(function, i, fmt.Sprintf("%s cannot be a function argument", describe(v)))
	case Expr:
		if isNilExpr(v) {
			return sqlerr.ArgumentShape(function, i, "argument is missing")
		}
	}
	return nil
}

func (f *Call) Name() string { return f.name }
func (f *Call) Args() []Node { return f.args }
func (f *Call) simple() bool { return true }
func (f *Call) node() {}

// Delayed reports whether any argument is delayed. A call with an explicit
// return type still waits for its arguments so delay propagates to every
// enclosing node.
func (f *Call) Delayed() bool { return anyDelayed(f.args) }

// Type returns the declared return type, or infers it from the first
// non-null expression argument. A call with no such argument is NULL.
func (f *Call) Type() *types.Type {
	if f.spec.Return != nil {
		return f.spec.Return
	}
	mustResolve(f)
	for _, a := range f.args {
		var e Expr
		switch v := a.(type) {
		case *NamedArg:
			e = v.value
		case Expr:
			e = v
		default:
			continue
		}
		if t := e.Type(); !t.IsNull() {
			return t
		}
	}
	return types.Null
}

func (f *Call) AppendSQL(c *render.Context) error {
	if len(f.spec.Families) > 0 && !slices.Contains(f.spec.Families, c.Family()) {
		return c.Unsupported("function " + f.name)
	}
	if f.spec.Feature != "" {
		if err := c.Require(f.spec.Feature); err != nil {
			return err
		}
	}
	c.WriteString(f.name + "(")
	for i, a := range f.args {
		if i > 0 {
			if isWord(a) || isWord(f.args[i-1]) {
				c.WriteString(" ")
			} else {
				c.WriteString(", ")
			}
		}
		if err := a.AppendSQL(c); err != nil {
			return err
		}
	}
	c.WriteString(")")
	return nil
}

func isWord(n Node) bool {
	_, ok := n.(*Word)
	return ok
}

// WindowClause is a window specification rendered inside OVER (...).
type WindowClause interface {
	Delayed() bool
	AppendWindow(c *render.Context) error
}

// Windowed is `call OVER (window)`.
type Windowed struct {
	call   *Call
	window WindowClause
}

// Over returns call evaluated over window.
func Over(call *Call, window WindowClause) (*Windowed, error) {
	if call == nil || window == nil {
		return nil, sqlerr.InvalidOperand("OVER", "<nil>", "needs a call and a window")
	}
	return &Windowed{call: call, window: window}, nil
}

func (w *Windowed) Type() *types.Type { return w.call.Type() }
func (w *Windowed) Delayed() bool { return w.call.Delayed() || w.window.Delayed() }
func (w *Windowed) simple() bool { return true }
func (w *Windowed) node() {}

func (w *Windowed) AppendSQL(c *render.Context) error {
	if err := c.Require(dialect.FeatureWindow); err != nil {
		return err
	}
	if err := w.call.AppendSQL(c); err != nil {
		return err
	}
	c.WriteString(" OVER (")
	if err := w.window.AppendWindow(c); err != nil {
		return err
	}
	c.WriteString(")")
	return nil
}

// WindowRef is `call OVER name`, referring to a window defined in the
// WINDOW clause of the current statement.
type WindowRef struct {
	call *Call
	name string
}

// OverName returns call evaluated over the named window. The window may be
// declared later; if the current frame of st closes without declaring it
// the build fails with UNKNOWN_WINDOW.
func OverName(st *scope.Stack, call *Call, name string) (*WindowRef, error) {
	if call == nil || name == "" {
		return nil, sqlerr.InvalidOperand("OVER", name, "needs a call and a window name")
	}
	f, err := st.Peek()
	if err != nil {
		return nil, err
	}
	f.OnScopeEnd(scope.CheckFunc{
		Name: "window " + name,
		ValidateFn: func() error {
			if f.HasWindow(name) {
				return nil
			}
			return &sqlerr.Error{
				Code:     sqlerr.CodeUnknownWindow,
				Message:  fmt.Sprintf("window %q is not defined", name),
				Operator: "OVER",
				Operand:  name,
				Function: call.name,
			}
		},
	})
	return &WindowRef{call: call, name: name}, nil
}

func (w *WindowRef) Type() *types.Type { return w.call.Type() }
func (w *WindowRef) Delayed() bool { return w.call.Delayed() }
func (w *WindowRef) simple() bool { return true }
func (w *WindowRef) node() {}

func (w *WindowRef) AppendSQL(c *render.Context) error {
	if err := c.Require(dialect.FeatureWindow); err != nil {
		return err
	}
	if err := w.call.AppendSQL(c); err != nil {
		return err
	}
	c.WriteString(" OVER ")
	c.AppendIdent(w.name)
	return nil
}
