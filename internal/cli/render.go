package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/exprsql/internal/dialect"
	"github.com/roach88/exprsql/internal/expr"
	"github.com/roach88/exprsql/internal/exprdoc"
	"github.com/roach88/exprsql/internal/render"
)

// RenderOptions holds flags for the render command.
type RenderOptions struct {
	*RootOptions
	Dialect      string
	Version      string
	Placeholders string
}

// RenderOutput is the JSON payload of the render command.
type RenderOutput struct {
	Name    string         `json:"name"`
	Type    string         `json:"type,omitempty"`
	Targets []TargetOutput `json:"targets"`
}

// TargetOutput is one dialect's rendering.
type TargetOutput struct {
	Dialect string    `json:"dialect"`
	SQL     string    `json:"sql,omitempty"`
	Args    []string  `json:"args,omitempty"`
	Windows []string  `json:"windows,omitempty"`
	Error   *CLIError `json:"error,omitempty"`
}

// NewRenderCommand creates the render command.
func NewRenderCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RenderOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "render <doc.yaml>",
		Short: "Render an expression document as SQL",
		Long: `Build the expression described by a YAML document and render it.

Without --dialect the document's own dialect list is used; a document
without one renders for the dialect in the config file.

Example:
  exprsql render ./exprs/total.yaml
  exprsql render ./exprs/total.yaml --dialect pg --version 12`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Dialect, "dialect", "d", "", "dialect family (postgresql|mysql|sqlite)")
	cmd.Flags().StringVar(&opts.Version, "version", "", "dialect version (default: latest)")
	cmd.Flags().StringVar(&opts.Placeholders, "placeholders", "", "placeholder style (auto|question|dollar)")

	return cmd
}

func runRender(opts *RenderOptions, path string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	doc, built, err := opts.decode(path)
	if err != nil {
		return formatter.Fail(exitCodeFor(err), err)
	}
	targets, err := opts.targets(doc)
	if err != nil {
		return formatter.Fail(ExitCommandError, err)
	}
	renderOpts, err := opts.renderOptions()
	if err != nil {
		return formatter.Fail(ExitCommandError, withCode(ErrCodeConfig, err))
	}

	out := RenderOutput{Name: doc.Name}
	if t, err := expr.TypeOf(built.Expr); err == nil {
		out.Type = t.String()
	}
	failed := 0
	for _, d := range targets {
		res := exprdoc.RenderBuilt(built, d, renderOpts...)
		to := TargetOutput{Dialect: d.String(), SQL: res.SQL, Windows: res.Windows}
		for _, a := range res.Args {
			to.Args = append(to.Args, exprdoc.FormatArg(a))
		}
		if res.Err != nil {
			failed++
			to.Error = describeError(res.Err)
			slog.Debug("render failed", "doc", doc.Name, "dialect", d.String(), "error", res.Err)
		}
		out.Targets = append(out.Targets, to)
	}

	if opts.Format == "json" {
		if err := formatter.Success(out); err != nil {
			return err
		}
	} else {
		writeRenderText(formatter, out)
	}

	if failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d of %d target(s) failed to render", failed, len(targets)))
	}
	return nil
}

// decode loads the document and builds its expression, using the config
// catalog when the document names none.
func (o *RootOptions) decode(path string) (*exprdoc.Document, *exprdoc.Built, error) {
	doc, err := exprdoc.Load(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil, err
		}
		return nil, nil, withCode(ErrCodeDocument, err)
	}

	decodeOpts := []exprdoc.Option{exprdoc.WithLogger(slog.Default())}
	if doc.Catalog == "" {
		cat, err := o.configCatalog()
		if err != nil {
			return nil, nil, err
		}
		if cat != nil {
			decodeOpts = append(decodeOpts, exprdoc.WithCatalog(cat))
		}
	}

	built, err := exprdoc.Decode(doc, decodeOpts...)
	if err != nil {
		return nil, nil, err
	}
	return doc, built, nil
}

func (o *RenderOptions) targets(doc *exprdoc.Document) ([]dialect.Dialect, error) {
	if o.Dialect != "" {
		d, err := dialect.Parse(o.Dialect, o.Version)
		if err != nil {
			return nil, err
		}
		return []dialect.Dialect{d}, nil
	}
	if len(doc.Dialects) > 0 {
		return doc.Targets()
	}
	cfg, err := o.Settings()
	if err != nil {
		return nil, withCode(ErrCodeConfig, err)
	}
	d, err := cfg.Target()
	if err != nil {
		return nil, withCode(ErrCodeConfig, err)
	}
	return []dialect.Dialect{d}, nil
}

func (o *RenderOptions) renderOptions() ([]render.Option, error) {
	cfg, err := o.Settings()
	if err != nil {
		return nil, err
	}
	opts, err := cfg.RenderOptions()
	if err != nil {
		return nil, err
	}
	if o.Placeholders != "" {
		p, err := render.ParsePlaceholder(o.Placeholders)
		if err != nil {
			return nil, err
		}
		opts = append(opts, render.WithPlaceholder(p))
	}
	return opts, nil
}

func writeRenderText(f *OutputFormatter, out RenderOutput) {
	if out.Type != "" {
		f.VerboseLog("type: %s", out.Type)
	}
	for i, t := range out.Targets {
		if len(out.Targets) > 1 {
			if i > 0 {
				fmt.Fprintln(f.Writer)
			}
			fmt.Fprintf(f.Writer, "-- %s\n", t.Dialect)
		}
		if t.Error != nil {
			fmt.Fprintf(f.Writer, "Error [%s]: %s\n", t.Error.Code, t.Error.Message)
			continue
		}
		fmt.Fprintln(f.Writer, t.SQL)
		if len(t.Args) > 0 {
			fmt.Fprintf(f.Writer, "args: [%s]\n", strings.Join(t.Args, ", "))
		}
		for _, w := range t.Windows {
			fmt.Fprintf(f.Writer, "window: %s\n", w)
		}
	}
}

// exitCodeFor separates engine failures from command errors.
func exitCodeFor(err error) int {
	switch describeError(err).Code {
	case ErrCodeNotFound, ErrCodeConfig, ErrCodeCatalog, ErrCodeDocument, ErrCodeGeneric:
		return ExitCommandError
	default:
		return ExitFailure
	}
}
