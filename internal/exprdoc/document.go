// Package exprdoc reads expression documents: YAML descriptions of an
// expression tree together with the dialects it should be rendered for.
//
// Documents are decoded through the same constructors programmatic callers
// use, so a malformed document fails with the construction error the
// equivalent Go code would get.
package exprdoc

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Document is one expression document.
type Document struct {
	// Name identifies the document and names its golden file.
	Name string `yaml:"name"`

	// Description says what the expression exercises.
	Description string `yaml:"description"`

	// Catalog is an optional CUE catalog path, relative to the document.
	// Columns without an explicit type are looked up there.
	Catalog string `yaml:"catalog,omitempty"`

	// Dialects lists render targets as "family" or "family version".
	// Empty means the latest version of every family.
	Dialects []string `yaml:"dialects,omitempty"`

	// Bindings declares output names in the statement scope, for `ref`
	// nodes. An empty type leaves the binding unresolved.
	Bindings map[string]string `yaml:"bindings,omitempty"`

	// Windows declares named windows in the statement scope.
	Windows map[string]*Window `yaml:"windows,omitempty"`

	// Expr is the expression itself.
	Expr *Node `yaml:"expr"`

	dir string
}

// Node is one expression node. Exactly one of the kind fields (column,
// literal, binary, call, ...) is set; the remaining fields are operands
// and modifiers of that kind.
type Node struct {
	// Leaves.
	Column  string `yaml:"column,omitempty"`
	Ref     string `yaml:"ref,omitempty"`
	Literal any    `yaml:"literal,omitempty"`
	Null    bool   `yaml:"null,omitempty"`
	Param   any    `yaml:"param,omitempty"`
	Params  []any  `yaml:"params,omitempty"`
	Named   string `yaml:"named,omitempty"`
	Keyword string `yaml:"keyword,omitempty"`
	Star    bool   `yaml:"star,omitempty"`
	TypeArg string `yaml:"type_arg,omitempty"`

	// Operators.
	Binary   string  `yaml:"binary,omitempty"`
	Unary    string  `yaml:"unary,omitempty"`
	Compare  string  `yaml:"compare,omitempty"`
	And      []*Node `yaml:"and,omitempty"`
	Or       []*Node `yaml:"or,omitempty"`
	Not      *Node   `yaml:"not,omitempty"`
	Paren    *Node   `yaml:"paren,omitempty"`
	Cast     *Node   `yaml:"cast,omitempty"`
	Between  *Node   `yaml:"between,omitempty"`
	Like     string  `yaml:"like,omitempty"`
	In       *Node   `yaml:"in,omitempty"`
	Is       string  `yaml:"is,omitempty"`
	Distinct bool    `yaml:"distinct,omitempty"`

	// Rows, arrays and documents.
	Row        []*Node `yaml:"row,omitempty"`
	DelayedRow string  `yaml:"delayed_row,omitempty"`
	Array      []*Node `yaml:"array,omitempty"`
	Index      *Node   `yaml:"index,omitempty"`
	JSON       *Node   `yaml:"json,omitempty"`
	Subquery   *Query  `yaml:"subquery,omitempty"`
	Scalar     *Query  `yaml:"scalar,omitempty"`
	Exists     *Query  `yaml:"exists,omitempty"`

	// Calls.
	Call string `yaml:"call,omitempty"`
	Arg  string `yaml:"arg,omitempty"`
	Pair *Node  `yaml:"pair,omitempty"`
	Over string `yaml:"over,omitempty"`

	// Operands.
	Left    *Node   `yaml:"left,omitempty"`
	Right   *Node   `yaml:"right,omitempty"`
	Operand *Node   `yaml:"operand,omitempty"`
	Low     *Node   `yaml:"low,omitempty"`
	High    *Node   `yaml:"high,omitempty"`
	Pattern *Node   `yaml:"pattern,omitempty"`
	List    []*Node `yaml:"list,omitempty"`
	Args    []*Node `yaml:"args,omitempty"`
	Value   *Node   `yaml:"value,omitempty"`
	Resolve []*Node `yaml:"resolve,omitempty"`

	// Modifiers.
	Type      string  `yaml:"type,omitempty"`
	Nullable  bool    `yaml:"nullable,omitempty"`
	Negate    bool    `yaml:"negate,omitempty"`
	Symmetric bool    `yaml:"symmetric,omitempty"`
	Escape    string  `yaml:"escape,omitempty"`
	Path      []any   `yaml:"path,omitempty"`
	Text      bool    `yaml:"text,omitempty"`
	At        []*Node `yaml:"at,omitempty"`
	Slice     []*Node `yaml:"slice,omitempty"`
	Window    *Window `yaml:"window,omitempty"`
}

// Query is a subquery given as SQL text with its column types.
type Query struct {
	SQL   string   `yaml:"sql"`
	Types []string `yaml:"types"`
}

// Window is an inline or named window specification. A frame with both
// start and end is written BETWEEN start AND end; Between forces that form
// even when End is missing.
type Window struct {
	Partition []*Node `yaml:"partition,omitempty"`
	Order     []Order `yaml:"order,omitempty"`
	Unit      string  `yaml:"unit,omitempty"`
	Between   bool    `yaml:"between,omitempty"`
	Start     string  `yaml:"start,omitempty"`
	End       string  `yaml:"end,omitempty"`
	Exclude   string  `yaml:"exclude,omitempty"`
}

// Order is one ORDER BY item of a window.
type Order struct {
	Expr  *Node  `yaml:"expr"`
	Desc  bool   `yaml:"desc,omitempty"`
	Nulls string `yaml:"nulls,omitempty"`
}

// Load reads a document file. Unknown fields are rejected.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read document: %w", err)
	}
	doc, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	doc.dir = filepath.Dir(path)
	return doc, nil
}

// Parse decodes a document from YAML.
func Parse(data []byte) (*Document, error) {
	var doc Document
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if err := doc.validate(); err != nil {
		return nil, fmt.Errorf("invalid document: %w", err)
	}
	return &doc, nil
}

func (d *Document) validate() error {
	if d.Name == "" {
		return fmt.Errorf("name is required")
	}
	if d.Expr == nil {
		return fmt.Errorf("expr is required")
	}
	return nil
}
