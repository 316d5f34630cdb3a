package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/exprsql/internal/catalog"
	"github.com/roach88/exprsql/internal/funcs"
)

// CatalogListing is the payload of the catalog command.
type CatalogListing struct {
	Tables    []TableListing    `json:"tables"`
	Functions []FunctionListing `json:"functions,omitempty"`
}

// TableListing describes one table.
type TableListing struct {
	Name    string          `json:"name"`
	Columns []ColumnListing `json:"columns"`
}

// ColumnListing describes one column.
type ColumnListing struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Nullable bool   `json:"nullable,omitempty"`
}

// FunctionListing describes one catalog function.
type FunctionListing struct {
	Name     string   `json:"name"`
	Arity    string   `json:"arity"`
	Returns  string   `json:"returns"`
	Shape    string   `json:"shape"`
	Families []string `json:"families,omitempty"`
}

func (l CatalogListing) String() string {
	var b strings.Builder
	for i, t := range l.Tables {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "table %s\n", t.Name)
		for _, c := range t.Columns {
			null := ""
			if c.Nullable {
				null = " NULL"
			}
			fmt.Fprintf(&b, "  %-12s %s%s\n", c.Name, c.Type, null)
		}
	}
	if len(l.Functions) > 0 {
		b.WriteByte('\n')
	}
	for _, f := range l.Functions {
		fmt.Fprintf(&b, "function %s(%s) -> %s", f.Name, f.Arity, f.Returns)
		if len(f.Families) > 0 {
			fmt.Fprintf(&b, " [%s]", strings.Join(f.Families, ", "))
		}
		b.WriteByte('\n')
	}
	return strings.TrimRight(b.String(), "\n")
}

// NewCatalogCommand creates the catalog command.
func NewCatalogCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog [file.cue|dir]",
		Short: "List the tables and functions of a CUE catalog",
		Long: `Load a CUE catalog and list its tables, columns and functions.

Without an argument the catalog named in the config file is listed.

Example:
  exprsql catalog ./schema/shop.cue
  exprsql catalog ./schema --format json`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCatalog(rootOpts, args, cmd)
		},
	}

	return cmd
}

func runCatalog(opts *RootOptions, args []string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	var (
		cat *catalog.Catalog
		err error
	)
	if len(args) == 1 {
		cat, err = loadCatalog(args[0])
	} else {
		cat, err = opts.configCatalog()
		if err == nil && cat == nil {
			err = withCode(ErrCodeConfig, fmt.Errorf("no catalog given and none configured"))
		}
	}
	if err != nil {
		return formatter.Fail(ExitCommandError, err)
	}

	return formatter.Success(listCatalog(cat))
}

func listCatalog(cat *catalog.Catalog) CatalogListing {
	listing := CatalogListing{Tables: []TableListing{}}
	for _, name := range cat.Tables() {
		t, _ := cat.Table(name)
		tl := TableListing{Name: name}
		for _, c := range t.Columns {
			tl.Columns = append(tl.Columns, ColumnListing{Name: c.Name, Type: c.Type.Name(), Nullable: c.Nullable})
		}
		listing.Tables = append(listing.Tables, tl)
	}
	for _, name := range cat.CustomFunctions() {
		d, err := cat.Func(name)
		if err != nil {
			continue
		}
		listing.Functions = append(listing.Functions, describeFunc(d))
	}
	return listing
}

func describeFunc(d funcs.Def) FunctionListing {
	fl := FunctionListing{Name: d.Name, Shape: d.Shape.String(), Returns: "first argument"}
	switch {
	case d.Max == funcs.Variadic:
		fl.Arity = fmt.Sprintf("%d..*", d.Min)
	case d.Max == d.Min:
		fl.Arity = fmt.Sprint(d.Min)
	default:
		fl.Arity = fmt.Sprintf("%d..%d", d.Min, d.Max)
	}
	if d.Return != nil {
		fl.Returns = d.Return.Name()
	}
	for _, f := range d.Families {
		fl.Families = append(fl.Families, f.Key())
	}
	return fl
}
