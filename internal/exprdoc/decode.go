package exprdoc

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/roach88/exprsql/internal/catalog"
	"github.com/roach88/exprsql/internal/expr"
	"github.com/roach88/exprsql/internal/scope"
	"github.com/roach88/exprsql/internal/sqlop"
	"github.com/roach88/exprsql/internal/types"
	"github.com/roach88/exprsql/internal/window"
)

// Built is a decoded document.
type Built struct {
	Expr    expr.Node
	Windows []*window.Definition
}

// Option configures Decode.
type Option func(*decoder)

// WithCatalog supplies the catalog used for untyped columns, default
// literal types and function definitions. It takes precedence over the
// document's own catalog path.
func WithCatalog(c *catalog.Catalog) Option {
	return func(d *decoder) { d.cat = c }
}

// WithLogger sets the logger handed to the document's scope stack.
func WithLogger(l *slog.Logger) Option {
	return func(d *decoder) { d.logger = l }
}

// WithIDGenerator sets the frame id generator of the document's scope
// stack.
func WithIDGenerator(g scope.IDGenerator) Option {
	return func(d *decoder) { d.ids = g }
}

type decoder struct {
	cat    *catalog.Catalog
	logger *slog.Logger
	ids    scope.IDGenerator
	st     *scope.Stack
	frame  *scope.Frame

	// resolutions run after the tree is built and before the statement
	// scope closes, the way a statement builder fills in delayed rows.
	resolutions []func() error
}

// Decode builds the document's expression with its own scope stack. The
// statement scope is closed before Decode returns, so deferred checks have
// already run: an error may be a construction error from the node that
// failed or the joined deferred errors of the scope.
func Decode(doc *Document, opts ...Option) (*Built, error) {
	d := &decoder{}
	for _, opt := range opts {
		opt(d)
	}
	if d.cat == nil {
		if doc.Catalog != "" {
			c, err := catalog.LoadFile(filepath.Join(doc.dir, doc.Catalog))
			if err != nil {
				return nil, err
			}
			d.cat = c
		} else {
			d.cat = catalog.New()
		}
	}

	var stackOpts []scope.Option
	if d.logger != nil {
		stackOpts = append(stackOpts, scope.WithLogger(d.logger))
	}
	if d.ids != nil {
		stackOpts = append(stackOpts, scope.WithIDGenerator(d.ids))
	}
	d.st = scope.NewStack(stackOpts...)
	d.frame = d.st.Push(scope.KindStatement, doc.Name)

	built, err := d.build(doc)
	if err != nil {
		return nil, err
	}
	for _, resolve := range d.resolutions {
		if err := resolve(); err != nil {
			return nil, err
		}
	}
	if err := d.st.Pop(); err != nil {
		return nil, err
	}
	return built, nil
}

func (d *decoder) build(doc *Document) (*Built, error) {
	for _, name := range sortedKeys(doc.Bindings) {
		var t *types.Type
		if s := doc.Bindings[name]; s != "" {
			var err error
			if t, err = types.Parse(s); err != nil {
				return nil, fmt.Errorf("binding %s: %w", name, err)
			}
		}
		if _, err := d.frame.Declare(name, t); err != nil {
			return nil, err
		}
	}

	built := &Built{}
	for _, name := range sortedKeys(doc.Windows) {
		spec, err := d.window(doc.Windows[name])
		if err != nil {
			return nil, fmt.Errorf("window %s: %w", name, err)
		}
		def, err := spec.Declare(d.frame, name)
		if err != nil {
			return nil, err
		}
		built.Windows = append(built.Windows, def)
	}

	n, err := d.node(doc.Expr)
	if err != nil {
		return nil, err
	}
	built.Expr = n
	return built, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// kind names the kind fields set on n.
func (n *Node) kinds() []string {
	var set []string
	add := func(ok bool, name string) {
		if ok {
			set = append(set, name)
		}
	}
	add(n.Column != "", "column")
	add(n.Ref != "", "ref")
	add(n.Literal != nil, "literal")
	add(n.Null, "null")
	add(n.Param != nil, "param")
	add(n.Params != nil, "params")
	add(n.Named != "", "named")
	add(n.Keyword != "", "keyword")
	add(n.Star, "star")
	add(n.TypeArg != "", "type_arg")
	add(n.Binary != "", "binary")
	add(n.Unary != "", "unary")
	add(n.Compare != "", "compare")
	add(n.And != nil, "and")
	add(n.Or != nil, "or")
	add(n.Not != nil, "not")
	add(n.Paren != nil, "paren")
	add(n.Cast != nil, "cast")
	add(n.Between != nil, "between")
	add(n.Like != "", "like")
	add(n.In != nil, "in")
	add(n.Is != "", "is")
	add(n.Distinct, "distinct")
	add(n.Row != nil, "row")
	add(n.DelayedRow != "", "delayed_row")
	add(n.Array != nil, "array")
	add(n.Index != nil, "index")
	add(n.JSON != nil, "json")
	add(n.Subquery != nil, "subquery")
	add(n.Scalar != nil, "scalar")
	add(n.Exists != nil, "exists")
	add(n.Call != "", "call")
	add(n.Arg != "", "arg")
	add(n.Pair != nil, "pair")
	return set
}

func (d *decoder) node(n *Node) (expr.Node, error) {
	if n == nil {
		return nil, fmt.Errorf("missing node")
	}
	kinds := n.kinds()
	if len(kinds) != 1 {
		return nil, fmt.Errorf("node must set exactly one kind, got %v", kinds)
	}

	switch kind := kinds[0]; kind {
	case "column":
		return d.column(n)
	case "ref":
		qualifier, name := splitName(n.Ref)
		return expr.Lookup(d.st, qualifier, name)
	case "literal":
		return d.literal(n)
	case "null":
		return expr.Null(), nil
	case "param":
		t, err := d.optionalType(n.Type)
		if err != nil {
			return nil, err
		}
		return expr.Bind(t, n.Param)
	case "params":
		t, err := d.optionalType(n.Type)
		if err != nil {
			return nil, err
		}
		return expr.BindList(t, n.Params...)
	case "named":
		t, err := parseType(n.Type)
		if err != nil {
			return nil, err
		}
		return expr.Named(d.st, n.Named, t)
	case "keyword":
		return expr.Keyword(n.Keyword)
	case "star":
		return expr.Star{}, nil
	case "type_arg":
		t, err := parseType(n.TypeArg)
		if err != nil {
			return nil, err
		}
		return expr.TypeArg(t)
	case "binary":
		return d.binary(n)
	case "unary":
		return d.unary(n)
	case "compare":
		op, ok := sqlop.ParseCompare(n.Compare)
		if !ok {
			return nil, fmt.Errorf("unknown comparison %q", n.Compare)
		}
		l, r, err := d.pair(op.SQL(), n.Left, n.Right)
		if err != nil {
			return nil, err
		}
		return expr.Compare(op, l, r)
	case "and", "or":
		terms := n.And
		if kind == "or" {
			terms = n.Or
		}
		es, err := d.exprs(strings.ToUpper(kind), terms)
		if err != nil {
			return nil, err
		}
		if kind == "or" {
			return expr.Or(es...)
		}
		return expr.And(es...)
	case "not":
		e, err := d.expr("NOT", n.Not)
		if err != nil {
			return nil, err
		}
		return expr.Negate(e)
	case "paren":
		e, err := d.expr("()", n.Paren)
		if err != nil {
			return nil, err
		}
		return expr.Group(e)
	case "cast":
		e, err := d.expr("CAST", n.Cast)
		if err != nil {
			return nil, err
		}
		t, err := parseType(n.Type)
		if err != nil {
			return nil, err
		}
		return expr.CastTo(e, t)
	case "between":
		return d.between(n)
	case "like":
		return d.like(n)
	case "in":
		return d.in(n)
	case "is":
		return d.is(n)
	case "distinct":
		l, r, err := d.pair("IS DISTINCT FROM", n.Left, n.Right)
		if err != nil {
			return nil, err
		}
		return expr.DistinctFrom(l, r, n.Negate)
	case "row":
		es, err := d.exprs("ROW", n.Row)
		if err != nil {
			return nil, err
		}
		return expr.RowOf(es...)
	case "delayed_row":
		return d.delayedRow(n)
	case "array":
		return d.array(n)
	case "index":
		return d.index(n)
	case "json":
		return d.json(n)
	case "subquery":
		q, err := query(n.Subquery)
		if err != nil {
			return nil, err
		}
		return expr.SubqueryOf(q)
	case "scalar":
		q, err := query(n.Scalar)
		if err != nil {
			return nil, err
		}
		return expr.Scalar(q)
	case "exists":
		q, err := query(n.Exists)
		if err != nil {
			return nil, err
		}
		return expr.ExistsIn(q, n.Negate)
	case "call":
		return d.call(n)
	case "arg":
		v, err := d.expr("=>", n.Value)
		if err != nil {
			return nil, err
		}
		return expr.NameArg(n.Arg, v)
	case "pair":
		k, err := d.expr("pair key", n.Pair)
		if err != nil {
			return nil, err
		}
		v, err := d.expr("pair value", n.Value)
		if err != nil {
			return nil, err
		}
		return expr.Pair(k, v)
	}
	return nil, fmt.Errorf("unhandled node kind %q", kinds[0])
}

// expr decodes n and checks it is a scalar operand of operator.
func (d *decoder) expr(operator string, n *Node) (expr.Expr, error) {
	node, err := d.node(n)
	if err != nil {
		return nil, err
	}
	return expr.Operand(operator, node)
}

func (d *decoder) exprs(operator string, ns []*Node) ([]expr.Expr, error) {
	out := make([]expr.Expr, 0, len(ns))
	for _, n := range ns {
		e, err := d.expr(operator, n)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

func (d *decoder) pair(operator string, l, r *Node) (expr.Expr, expr.Expr, error) {
	left, err := d.expr(operator, l)
	if err != nil {
		return nil, nil, err
	}
	right, err := d.expr(operator, r)
	if err != nil {
		return nil, nil, err
	}
	return left, right, nil
}

func splitName(s string) (qualifier, name string) {
	if i := strings.LastIndexByte(s, '.'); i >= 0 {
		return s[:i], s[i+1:]
	}
	return "", s
}

func parseType(s string) (*types.Type, error) {
	if s == "" {
		return nil, fmt.Errorf("type is required")
	}
	return types.Parse(s)
}

func (d *decoder) optionalType(s string) (*types.Type, error) {
	if s == "" {
		return nil, nil
	}
	return types.Parse(s)
}

func (d *decoder) column(n *Node) (expr.Node, error) {
	table, name := splitName(n.Column)
	if n.Type == "" {
		return d.cat.Column(table, name)
	}
	t, err := types.Parse(n.Type)
	if err != nil {
		return nil, err
	}
	c, err := expr.Col(table, name, t)
	if err != nil {
		return nil, err
	}
	if n.Nullable {
		c = c.Nullable()
	}
	return c, nil
}

func (d *decoder) literal(n *Node) (expr.Node, error) {
	if n.Type == "" {
		return d.cat.Value(n.Literal)
	}
	t, err := types.Parse(n.Type)
	if err != nil {
		return nil, err
	}
	return expr.Lit(t, n.Literal)
}

func (d *decoder) binary(n *Node) (expr.Node, error) {
	op, ok := sqlop.ParseBinary(n.Binary)
	if !ok {
		return nil, fmt.Errorf("unknown binary operator %q", n.Binary)
	}
	l, r, err := d.pair(op.SQL(), n.Left, n.Right)
	if err != nil {
		return nil, err
	}
	return expr.NewBinary(op, l, r)
}

func (d *decoder) unary(n *Node) (expr.Node, error) {
	var op sqlop.Unary
	switch n.Unary {
	case "-", "negate":
		op = sqlop.Negate
	case "~", "bitNot":
		op = sqlop.BitNot
	default:
		return nil, fmt.Errorf("unknown unary operator %q", n.Unary)
	}
	e, err := d.expr(op.SQL(), n.Operand)
	if err != nil {
		return nil, err
	}
	return expr.NewUnary(op, e)
}

func (d *decoder) between(n *Node) (expr.Node, error) {
	x, err := d.expr("BETWEEN", n.Between)
	if err != nil {
		return nil, err
	}
	lo, hi, err := d.pair("BETWEEN", n.Low, n.High)
	if err != nil {
		return nil, err
	}
	b, err := expr.InRange(x, lo, hi)
	if err != nil {
		return nil, err
	}
	if n.Negate {
		if b, err = b.Not(); err != nil {
			return nil, err
		}
	}
	if n.Symmetric {
		if b, err = b.Symmetric(); err != nil {
			return nil, err
		}
	}
	return b, nil
}

func (d *decoder) like(n *Node) (expr.Node, error) {
	var m expr.Match
	switch strings.ToLower(n.Like) {
	case "like":
		m = expr.MatchLike
	case "ilike":
		m = expr.MatchILike
	case "similar":
		m = expr.MatchSimilar
	default:
		return nil, fmt.Errorf("unknown pattern operator %q", n.Like)
	}
	x, p, err := d.pair(m.String(), n.Left, n.Pattern)
	if err != nil {
		return nil, err
	}
	l, err := expr.Matches(m, x, p)
	if err != nil {
		return nil, err
	}
	if n.Negate {
		if l, err = l.Not(); err != nil {
			return nil, err
		}
	}
	if n.Escape != "" {
		r := []rune(n.Escape)
		if len(r) != 1 {
			return nil, fmt.Errorf("escape must be a single character, got %q", n.Escape)
		}
		if l, err = l.Escape(r[0]); err != nil {
			return nil, err
		}
	}
	return l, nil
}

func (d *decoder) in(n *Node) (expr.Node, error) {
	left, err := d.node(n.In)
	if err != nil {
		return nil, err
	}

	var right expr.InSource
	switch {
	case n.List != nil && n.Right != nil:
		return nil, fmt.Errorf("in takes either list or right, not both")
	case n.List != nil:
		items := make([]expr.Node, 0, len(n.List))
		for _, item := range n.List {
			node, err := d.node(item)
			if err != nil {
				return nil, err
			}
			items = append(items, node)
		}
		if right, err = expr.List(items...); err != nil {
			return nil, err
		}
	default:
		node, err := d.node(n.Right)
		if err != nil {
			return nil, err
		}
		src, ok := node.(expr.InSource)
		if !ok {
			return nil, fmt.Errorf("in: right side must be params, a subquery or a list, got %T", node)
		}
		right = src
	}
	return expr.NewIn(d.st, left, right, n.Negate)
}

func (d *decoder) is(n *Node) (expr.Node, error) {
	var w expr.TestWord
	switch strings.ToLower(n.Is) {
	case "null":
		w = expr.IsNull
	case "true":
		w = expr.IsTrue
	case "false":
		w = expr.IsFalse
	case "unknown":
		w = expr.IsUnknown
	default:
		return nil, fmt.Errorf("unknown IS test %q", n.Is)
	}
	x, err := d.expr("IS", n.Operand)
	if err != nil {
		return nil, err
	}
	return expr.Is(x, w, n.Negate)
}

// delayedRow creates a row whose elements are supplied after the whole
// tree is built. A delayed_row without resolve stays unresolved.
func (d *decoder) delayedRow(n *Node) (expr.Node, error) {
	r := expr.NewDelayedRow(n.DelayedRow)
	if n.Resolve == nil {
		return r, nil
	}
	elems, err := d.exprs("ROW", n.Resolve)
	if err != nil {
		return nil, err
	}
	d.resolutions = append(d.resolutions, func() error {
		return r.Resolve(elems...)
	})
	return r, nil
}

func (d *decoder) array(n *Node) (expr.Node, error) {
	elem, err := d.optionalType(n.Type)
	if err != nil {
		return nil, err
	}
	es, err := d.exprs("ARRAY", n.Array)
	if err != nil {
		return nil, err
	}
	return expr.ArrayOf(elem, es...)
}

func (d *decoder) index(n *Node) (expr.Node, error) {
	a, err := d.expr("[]", n.Index)
	if err != nil {
		return nil, err
	}
	var subs []expr.Subscript
	for _, at := range n.At {
		i, err := d.expr("[]", at)
		if err != nil {
			return nil, err
		}
		subs = append(subs, expr.At(i))
	}
	if n.Slice != nil {
		if len(n.Slice) != 2 {
			return nil, fmt.Errorf("slice needs a lower and an upper bound")
		}
		lo, hi, err := d.pair("[:]", n.Slice[0], n.Slice[1])
		if err != nil {
			return nil, err
		}
		subs = append(subs, expr.Slice(lo, hi))
	}
	return expr.Index(a, subs...)
}

func (d *decoder) json(n *Node) (expr.Node, error) {
	j, err := d.expr("->", n.JSON)
	if err != nil {
		return nil, err
	}
	steps := make([]expr.JSONStep, 0, len(n.Path))
	for _, p := range n.Path {
		switch v := p.(type) {
		case string:
			steps = append(steps, expr.Key(v))
		case int:
			steps = append(steps, expr.Pos(v))
		default:
			return nil, fmt.Errorf("json path step must be a key or an index, got %T", p)
		}
	}
	return expr.JSONGet(j, n.Text, steps...)
}

func query(q *Query) (expr.Query, error) {
	if strings.TrimSpace(q.SQL) == "" {
		return nil, fmt.Errorf("subquery sql is required")
	}
	cols := make([]*types.Type, 0, len(q.Types))
	for _, s := range q.Types {
		t, err := types.Parse(s)
		if err != nil {
			return nil, err
		}
		cols = append(cols, t)
	}
	return expr.TextQuery{SQL: q.SQL, Types: cols}, nil
}

func (d *decoder) call(n *Node) (expr.Node, error) {
	args := make([]expr.Node, 0, len(n.Args))
	for _, a := range n.Args {
		node, err := d.node(a)
		if err != nil {
			return nil, err
		}
		args = append(args, node)
	}

	def, err := d.cat.Func(n.Call)
	if err != nil {
		return nil, err
	}
	if n.Type != "" {
		if def.Return, err = types.Parse(n.Type); err != nil {
			return nil, err
		}
	}
	call, err := def.Build(args...)
	if err != nil {
		return nil, err
	}

	switch {
	case n.Over != "" && n.Window != nil:
		return nil, fmt.Errorf("call %s: over and window are exclusive", n.Call)
	case n.Over != "":
		return expr.OverName(d.st, call, n.Over)
	case n.Window != nil:
		spec, err := d.window(n.Window)
		if err != nil {
			return nil, err
		}
		return expr.Over(call, spec)
	}
	return call, nil
}

func (d *decoder) window(w *Window) (*window.Spec, error) {
	b := window.New()
	if w.Partition != nil {
		es, err := d.exprs("PARTITION BY", w.Partition)
		if err != nil {
			return nil, err
		}
		b.PartitionBy(es...)
	}
	if w.Order != nil {
		items := make([]window.Order, 0, len(w.Order))
		for _, o := range w.Order {
			e, err := d.expr("ORDER BY", o.Expr)
			if err != nil {
				return nil, err
			}
			item := window.Order{Expr: e, Desc: o.Desc}
			switch strings.ToLower(o.Nulls) {
			case "":
			case "first":
				item.NullsFirst = true
			case "last":
				item.NullsLast = true
			default:
				return nil, fmt.Errorf("nulls must be first or last, got %q", o.Nulls)
			}
			items = append(items, item)
		}
		b.OrderBy(items...)
	}

	switch strings.ToLower(w.Unit) {
	case "":
	case "rows":
		b.Rows()
	case "range":
		b.Range()
	case "groups":
		b.Groups()
	default:
		return nil, fmt.Errorf("unknown frame unit %q", w.Unit)
	}

	if w.Start != "" {
		start, err := d.bound(w.Start)
		if err != nil {
			return nil, err
		}
		if w.End == "" && !w.Between {
			b.Start(start)
		} else {
			b.Between(start)
		}
	}
	if w.End != "" {
		end, err := d.bound(w.End)
		if err != nil {
			return nil, err
		}
		b.And(end)
	}

	if w.Exclude != "" {
		x, err := parseExclusion(w.Exclude)
		if err != nil {
			return nil, err
		}
		b.Exclude(x)
	}
	return b.End()
}

// bound parses "unbounded preceding", "current row", "3 following" and
// "$name preceding", the last naming a declared parameter.
func (d *decoder) bound(s string) (window.Bound, error) {
	fields := strings.Fields(strings.ToLower(s))
	if len(fields) != 2 {
		return window.Bound{}, fmt.Errorf("invalid frame bound %q", s)
	}
	switch strings.Join(fields, " ") {
	case "unbounded preceding":
		return window.UnboundedPreceding, nil
	case "current row":
		return window.CurrentRow, nil
	case "unbounded following":
		return window.UnboundedFollowing, nil
	}

	direction := fields[1]
	if direction != "preceding" && direction != "following" {
		return window.Bound{}, fmt.Errorf("invalid frame bound %q", s)
	}
	if name, ok := strings.CutPrefix(fields[0], "$"); ok {
		t, ok := d.st.LookupParam(name)
		if !ok {
			return window.Bound{}, fmt.Errorf("frame bound %q: parameter %s is not declared", s, name)
		}
		p, err := expr.Named(d.st, name, t)
		if err != nil {
			return window.Bound{}, err
		}
		if direction == "preceding" {
			return window.PrecedingBy(p), nil
		}
		return window.FollowingBy(p), nil
	}
	n, err := strconv.Atoi(fields[0])
	if err != nil {
		return window.Bound{}, fmt.Errorf("invalid frame offset in %q", s)
	}
	if direction == "preceding" {
		return window.Preceding(n), nil
	}
	return window.Following(n), nil
}

func parseExclusion(s string) (window.Exclusion, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "current row":
		return window.ExcludeCurrentRow, nil
	case "group":
		return window.ExcludeGroup, nil
	case "ties":
		return window.ExcludeTies, nil
	case "no others":
		return window.ExcludeNoOthers, nil
	}
	return 0, fmt.Errorf("unknown frame exclusion %q", s)
}
