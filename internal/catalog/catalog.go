// Package catalog loads table and function metadata from CUE files.
//
// A catalog answers the two lookups the expression engine needs from the
// schema side: the declared type and nullability of a column, and the
// default semantic type of a Go value. It also carries function
// definitions that extend the builtin registry.
//
//	tables: orders: columns: {
//		id:    {type: "bigint"}
//		total: {type: "decimal", nullable: true}
//	}
//	functions: similarity: {min: 2, max: 2, returns: "double", families: ["postgresql"]}
//	defaults: string: "varchar"
package catalog

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"reflect"
	"slices"
	"time"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"
	"github.com/cockroachdb/apd/v3"
	"github.com/google/uuid"

	"github.com/roach88/exprsql/internal/dialect"
	"github.com/roach88/exprsql/internal/expr"
	"github.com/roach88/exprsql/internal/funcs"
	"github.com/roach88/exprsql/internal/sqlerr"
	"github.com/roach88/exprsql/internal/types"
)

// ColumnDef is a declared column.
type ColumnDef struct {
	Name     string
	Type     *types.Type
	Nullable bool
}

// Table is a declared table and its columns in declaration order.
type Table struct {
	Name    string
	Columns []ColumnDef
}

// Column returns the column named name.
func (t *Table) Column(name string) (ColumnDef, bool) {
	for _, c := range t.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return ColumnDef{}, false
}

// Catalog is loaded schema and function metadata.
type Catalog struct {
	tables    map[string]*Table
	functions *funcs.Registry
	custom    []string
	defaults  map[string]*types.Type
}

// New returns an empty catalog whose function registry holds the
// builtins.
func New() *Catalog {
	return &Catalog{
		tables:    make(map[string]*Table),
		functions: funcs.Builtins(),
		defaults:  make(map[string]*types.Type),
	}
}

// LoadFile loads a single CUE file.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading catalog: %w", err)
	}
	return Compile(path, data)
}

// LoadDir loads the CUE package in dir.
func LoadDir(dir string) (*Catalog, error) {
	instances := load.Instances([]string{"."}, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return nil, &LoadError{Field: "cue", Message: "no CUE instances loaded from " + dir}
	}
	inst := instances[0]
	if inst.Err != nil {
		return nil, fromCUE("cue", inst.Err)
	}
	ctx := cuecontext.New()
	return build(ctx, ctx.BuildInstance(inst))
}

// Compile loads catalog source held in memory. filename is used in error
// positions.
func Compile(filename string, src []byte) (*Catalog, error) {
	ctx := cuecontext.New()
	v := ctx.CompileBytes(src, cue.Filename(filename))
	return build(ctx, v)
}

func build(ctx *cue.Context, src cue.Value) (*Catalog, error) {
	if err := src.Err(); err != nil {
		return nil, fromCUE("cue", err)
	}
	def := ctx.CompileString(schema).LookupPath(cue.ParsePath("#Catalog"))
	v := def.Unify(src)
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return nil, fromCUE("schema", err)
	}

	l := &loader{c: New(), src: src}
	if err := l.tables(v.LookupPath(cue.ParsePath("tables"))); err != nil {
		return nil, err
	}
	if err := l.functions(v.LookupPath(cue.ParsePath("functions"))); err != nil {
		return nil, err
	}
	if err := l.defaults(v.LookupPath(cue.ParsePath("defaults"))); err != nil {
		return nil, err
	}
	slog.Debug("catalog loaded",
		"tables", len(l.c.tables),
		"functions", len(l.c.custom),
		"defaults", len(l.c.defaults))
	return l.c, nil
}

// loader decodes the schema-checked value. Defaults filled in by the
// schema have no position in the user's file, so error positions are
// taken from src, the value as written.
type loader struct {
	c   *Catalog
	src cue.Value
}

func (l *loader) fail(field, msg string, path ...string) error {
	sels := make([]cue.Selector, len(path))
	for i, p := range path {
		sels[i] = cue.Str(p)
	}
	return &LoadError{
		Field:   field,
		Message: msg,
		Pos:     l.src.LookupPath(cue.MakePath(sels...)).Pos(),
	}
}

func (l *loader) tables(v cue.Value) error {
	if !v.Exists() {
		return nil
	}
	iter, err := v.Fields()
	if err != nil {
		return fromCUE("tables", err)
	}
	for iter.Next() {
		table := &Table{Name: iter.Label()}
		cols, err := iter.Value().LookupPath(cue.ParsePath("columns")).Fields()
		if err != nil {
			return fromCUE("tables."+table.Name, err)
		}
		for cols.Next() {
			col, err := l.column(table.Name, cols.Label(), cols.Value())
			if err != nil {
				return err
			}
			table.Columns = append(table.Columns, col)
		}
		l.c.tables[table.Name] = table
	}
	return nil
}

func (l *loader) column(table, name string, v cue.Value) (ColumnDef, error) {
	s, err := v.LookupPath(cue.ParsePath("type")).String()
	if err != nil {
		return ColumnDef{}, fromCUE("type", err)
	}
	t, err := types.Parse(s)
	if err != nil {
		return ColumnDef{}, l.fail("columns."+name+".type", err.Error(), "tables", table, "columns", name, "type")
	}
	nullable, err := v.LookupPath(cue.ParsePath("nullable")).Bool()
	if err != nil {
		return ColumnDef{}, fromCUE("nullable", err)
	}
	return ColumnDef{Name: name, Type: t, Nullable: nullable}, nil
}

func (l *loader) functions(v cue.Value) error {
	if !v.Exists() {
		return nil
	}
	iter, err := v.Fields()
	if err != nil {
		return fromCUE("functions", err)
	}
	for iter.Next() {
		name := iter.Label()
		d, err := l.function(name, iter.Value())
		if err != nil {
			return err
		}
		if err := l.c.functions.Register(d); err != nil {
			return l.fail("functions."+name, err.Error(), "functions", name)
		}
		l.c.custom = append(l.c.custom, d.Name)
	}
	return nil
}

func (l *loader) function(name string, v cue.Value) (funcs.Def, error) {
	field := "functions." + name
	d := funcs.Def{Name: name}

	minimum, err := v.LookupPath(cue.ParsePath("min")).Int64()
	if err != nil {
		return d, fromCUE(field+".min", err)
	}
	d.Min = int(minimum)
	d.Max = d.Min
	if maxVal := v.LookupPath(cue.ParsePath("max")); maxVal.Exists() {
		maximum, err := maxVal.Int64()
		if err != nil {
			return d, fromCUE(field+".max", err)
		}
		d.Max = int(maximum)
	}

	ret, err := v.LookupPath(cue.ParsePath("returns")).String()
	if err != nil {
		return d, fromCUE(field+".returns", err)
	}
	if ret != "first" {
		if d.Return, err = types.Parse(ret); err != nil {
			return d, l.fail(field+".returns", err.Error(), "functions", name, "returns")
		}
	}

	shape, err := v.LookupPath(cue.ParsePath("shape")).String()
	if err != nil {
		return d, fromCUE(field+".shape", err)
	}
	if d.Shape, err = funcs.ParseShape(shape); err != nil {
		return d, l.fail(field+".shape", err.Error(), "functions", name)
	}

	if famVal := v.LookupPath(cue.ParsePath("families")); famVal.Exists() {
		list, err := famVal.List()
		if err != nil {
			return d, fromCUE(field+".families", err)
		}
		for list.Next() {
			s, err := list.Value().String()
			if err != nil {
				return d, fromCUE(field+".families", err)
			}
			f, err := dialect.ParseFamily(s)
			if err != nil {
				return d, l.fail(field+".families", err.Error(), "functions", name, "families")
			}
			d.Families = append(d.Families, f)
		}
	}

	if err := d.Validate(); err != nil {
		return d, l.fail(field, err.Error(), "functions", name)
	}
	return d, nil
}

func (l *loader) defaults(v cue.Value) error {
	if !v.Exists() {
		return nil
	}
	iter, err := v.Fields()
	if err != nil {
		return fromCUE("defaults", err)
	}
	for iter.Next() {
		kind := iter.Label()
		s, err := iter.Value().String()
		if err != nil {
			return fromCUE("defaults."+kind, err)
		}
		t, err := types.Parse(s)
		if err != nil {
			return l.fail("defaults."+kind, err.Error(), "defaults", kind)
		}
		l.c.defaults[kind] = t
	}
	return nil
}

// Table returns the table named name.
func (c *Catalog) Table(name string) (*Table, bool) {
	t, ok := c.tables[name]
	return t, ok
}

// Tables returns the table names in sorted order.
func (c *Catalog) Tables() []string {
	names := make([]string, 0, len(c.tables))
	for name := range c.tables {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Column returns a column node for table.col carrying the declared type
// and nullability.
func (c *Catalog) Column(table, col string) (*expr.Column, error) {
	t, ok := c.tables[table]
	if !ok {
		return nil, sqlerr.InvalidOperand("column", table+"."+col, "unknown table "+table)
	}
	def, ok := t.Column(col)
	if !ok {
		return nil, sqlerr.InvalidOperand("column", table+"."+col, "table "+table+" has no column "+col)
	}
	node, err := expr.Col(table, col, def.Type)
	if err != nil {
		return nil, err
	}
	if def.Nullable {
		node = node.Nullable()
	}
	return node, nil
}

// Functions returns the registry of builtin and catalog functions.
func (c *Catalog) Functions() *funcs.Registry { return c.functions }

// CustomFunctions returns the names of functions declared by the catalog,
// in declaration order.
func (c *Catalog) CustomFunctions() []string { return slices.Clone(c.custom) }

// Func returns the definition of a builtin or catalog function.
func (c *Catalog) Func(name string) (funcs.Def, error) {
	d, ok := c.functions.Lookup(name)
	if !ok {
		return funcs.Def{}, sqlerr.InvalidOperand("call", name, "unknown function")
	}
	return d, nil
}

// DefaultType returns the semantic type used for v when it appears without
// an explicit type. Catalog defaults override the builtin mapping per Go
// kind.
func (c *Catalog) DefaultType(v any) (*types.Type, bool) {
	if t, ok := c.defaults[kindOf(v)]; ok {
		return t, true
	}
	return types.DefaultFor(v)
}

// Value returns a literal of v typed by DefaultType.
func (c *Catalog) Value(v any) (*expr.Literal, error) {
	t, ok := c.DefaultType(v)
	if !ok {
		return nil, sqlerr.InvalidOperand("literal", fmt.Sprintf("%T", v), "no default type for value")
	}
	return expr.Lit(t, v)
}

var namedKinds = map[reflect.Type]string{
	reflect.TypeOf(time.Time{}):          "time",
	reflect.TypeOf(time.Duration(0)):     "duration",
	reflect.TypeOf(apd.Decimal{}):        "decimal",
	reflect.TypeOf(uuid.UUID{}):          "uuid",
	reflect.TypeOf(json.RawMessage(nil)): "json",
}

// kindOf names the defaults key for v. Named types are matched before the
// underlying kind is consulted.
func kindOf(v any) string {
	if v == nil {
		return ""
	}
	rt := reflect.TypeOf(v)
	for rt.Kind() == reflect.Pointer {
		rt = rt.Elem()
	}
	if k, ok := namedKinds[rt]; ok {
		return k
	}
	switch rt.Kind() {
	case reflect.Bool:
		return "bool"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return "int"
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return "uint"
	case reflect.Float32, reflect.Float64:
		return "float"
	case reflect.String:
		return "string"
	case reflect.Slice:
		if rt.Elem().Kind() == reflect.Uint8 {
			return "bytes"
		}
	}
	return ""
}
