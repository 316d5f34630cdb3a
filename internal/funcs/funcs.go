// Package funcs describes SQL functions and builds validated calls to them.
//
// A Def fixes a function's name, arity, result type and argument shape.
// Build checks every argument against the shape before the call node is
// allocated, so a bad call fails at the point it is written, naming the
// function and the offending argument.
package funcs

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/roach88/exprsql/internal/dialect"
	"github.com/roach88/exprsql/internal/expr"
	"github.com/roach88/exprsql/internal/sqlerr"
	"github.com/roach88/exprsql/internal/types"
)

// MaxFixed is the largest fixed arity a Def may declare. Functions taking
// more arguments are declared variadic.
const MaxFixed = 7

// Variadic as Def.Max accepts any number of arguments from Min up.
const Variadic = -1

// Shape is the argument form a function accepts.
type Shape uint8

const (
	// ShapePositional takes scalar expressions only.
	ShapePositional Shape = iota
	// ShapeNamed takes scalar expressions followed by `name => value`
	// arguments.
	ShapeNamed
	// ShapeKeyValue takes key/value pairs, as object builders do.
	ShapeKeyValue
	// ShapeRow takes row elements: scalar expressions or nested rows.
	ShapeRow
	// ShapeKeyword takes scalar expressions mixed with keywords, type names,
	// identifiers, field groups and `*`, as in COUNT(DISTINCT x) or
	// EXTRACT(YEAR FROM ts).
	ShapeKeyword
)

var shapeNames = map[Shape]string{
	ShapePositional: "positional",
	ShapeNamed:      "named",
	ShapeKeyValue:   "keyvalue",
	ShapeRow:        "row",
	ShapeKeyword:    "keyword",
}

func (s Shape) String() string {
	if n, ok := shapeNames[s]; ok {
		return n
	}
	return "unknown"
}

// ParseShape returns the shape called s.
func ParseShape(s string) (Shape, error) {
	for shape, name := range shapeNames {
		if name == s {
			return shape, nil
		}
	}
	return 0, fmt.Errorf("unknown argument shape %q", s)
}

// Def describes one SQL function.
type Def struct {
	Name string
	Min  int
	// Max is the largest argument count, or Variadic.
	Max int
	// Return is the result type; nil means the type of the first non-null
	// argument.
	Return   *types.Type
	Shape    Shape
	Families []dialect.Family
	Feature  dialect.Feature
}

// Validate checks the definition itself.
func (d Def) Validate() error {
	switch {
	case d.Name == "":
		return fmt.Errorf("function name is empty")
	case d.Min < 0:
		return fmt.Errorf("function %s: min arity %d is negative", d.Name, d.Min)
	case d.Max == Variadic:
	case d.Max < d.Min:
		return fmt.Errorf("function %s: max arity %d is below min %d", d.Name, d.Max, d.Min)
	case d.Max > MaxFixed:
		return fmt.Errorf("function %s: fixed arity %d exceeds %d, declare it variadic", d.Name, d.Max, MaxFixed)
	}
	if _, ok := shapeNames[d.Shape]; !ok {
		return fmt.Errorf("function %s: unknown argument shape %d", d.Name, d.Shape)
	}
	return nil
}

// arity describes the accepted counts, as "2", "1..3" or "1..*".
func (d Def) arity() string {
	switch {
	case d.Max == Variadic:
		return strconv.Itoa(d.Min) + "..*"
	case d.Min == d.Max:
		return strconv.Itoa(d.Min)
	default:
		return strconv.Itoa(d.Min) + ".." + strconv.Itoa(d.Max)
	}
}

// Build validates args against d and returns the call.
//
// Keywords do not count towards the arity; every other argument does.
func (d Def) Build(args ...expr.Node) (*expr.Call, error) {
	n := 0
	for i, a := range args {
		if err := d.checkArg(i, a); err != nil {
			return nil, err
		}
		if _, ok := a.(*expr.Word); !ok {
			n++
		}
	}
	if n < d.Min || (d.Max != Variadic && n > d.Max) {
		return nil, sqlerr.Arity(d.Name, d.arity(), n)
	}
	return expr.NewCall(expr.CallSpec{
		Name:     d.Name,
		Return:   d.Return,
		Families: d.Families,
		Feature:  d.Feature,
	}, args...)
}

func (d Def) checkArg(i int, a expr.Node) error {
	if a == nil {
		return sqlerr.ArgumentShape(d.Name, i, "argument is missing")
	}
	switch d.Shape {
	case ShapePositional:
		return d.scalar(i, a)
	case ShapeNamed:
		if _, ok := a.(*expr.NamedArg); ok {
			return nil
		}
		return d.scalar(i, a)
	case ShapeKeyValue:
		if _, ok := a.(*expr.KeyValue); !ok {
			return sqlerr.ArgumentShape(d.Name, i, "expected a key/value pair")
		}
	case ShapeRow:
		switch a.(type) {
		case *expr.Row:
			return nil
		case *expr.FieldGroup:
			return sqlerr.ArgumentShape(d.Name, i, "field group is not a row element")
		case *expr.Subquery:
			return sqlerr.ArgumentShape(d.Name, i, "subquery is not a row element")
		}
		return d.scalar(i, a)
	case ShapeKeyword:
		switch a.(type) {
		case *expr.Word, *expr.TypeName, *expr.Ident, *expr.FieldGroup, expr.Star:
			return nil
		}
		return d.scalar(i, a)
	}
	return nil
}

func (d Def) scalar(i int, a expr.Node) error {
	_, err := expr.Operand(d.Name, a)
	if err == nil {
		return nil
	}
	msg := "expected a scalar expression"
	var se *sqlerr.Error
	if errors.As(err, &se) {
		msg = se.Message
	}
	return sqlerr.ArgumentShape(d.Name, i, msg)
}

// Call builds a positional call from scalar expressions.
func (d Def) Call(args ...expr.Expr) (*expr.Call, error) {
	nodes := make([]expr.Node, len(args))
	for i, a := range args {
		nodes[i] = a
	}
	return d.Build(nodes...)
}

// Registry is a set of function definitions keyed by upper-case name.
type Registry struct {
	defs map[string]Def
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{defs: make(map[string]Def)}
}

// Register adds d. Names are case-insensitive and may not repeat.
func (r *Registry) Register(d Def) error {
	if err := d.Validate(); err != nil {
		return err
	}
	key := strings.ToUpper(d.Name)
	if _, exists := r.defs[key]; exists {
		return &sqlerr.Error{
			Code:     sqlerr.CodeDuplicateName,
			Message:  "function already registered",
			Function: d.Name,
		}
	}
	r.defs[key] = d
	return nil
}

// Lookup returns the definition of name.
func (r *Registry) Lookup(name string) (Def, bool) {
	d, ok := r.defs[strings.ToUpper(name)]
	return d, ok
}

// Names returns every registered name in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.defs))
	for _, d := range r.defs {
		names = append(names, d.Name)
	}
	slices.Sort(names)
	return names
}

// Build looks up name and builds a call to it.
func (r *Registry) Build(name string, args ...expr.Node) (*expr.Call, error) {
	d, ok := r.Lookup(name)
	if !ok {
		return nil, sqlerr.InvalidOperand("call", name, "unknown function")
	}
	return d.Build(args...)
}
