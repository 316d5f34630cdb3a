package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/exprsql/internal/probe"
)

// CheckOptions holds flags for the check command.
type CheckOptions struct {
	*RootOptions
	Driver  string
	DSN     string
	Params  map[string]string
	Prepare bool
}

// CheckResult is the payload of the check command.
type CheckResult struct {
	Name    string `json:"name"`
	Dialect string `json:"dialect"`
	SQL     string `json:"sql"`
	Value   any    `json:"value,omitempty"`
}

func (r CheckResult) String() string {
	if r.Value == nil {
		return fmt.Sprintf("✓ %s accepts: %s", r.Dialect, r.SQL)
	}
	return fmt.Sprintf("✓ %s accepts: %s\nvalue: %v", r.Dialect, r.SQL, r.Value)
}

// NewCheckCommand creates the check command.
func NewCheckCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CheckOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "check <doc.yaml>",
		Short: "Run a rendered expression on a live database",
		Long: `Render the document's expression for the connected database and run it
as a one-row SELECT.

The dialect version is read from the server, so version-gated features
render exactly as the server supports them. Named parameters take their
values from --param.

Example:
  exprsql check ./exprs/total.yaml
  exprsql check ./exprs/total.yaml --driver postgres --dsn postgres://localhost/app --param id=7`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Driver, "driver", "", "database/sql driver (sqlite3|postgres|mysql; default from config)")
	cmd.Flags().StringVar(&opts.DSN, "dsn", "", "data source name (default from config)")
	cmd.Flags().StringToStringVar(&opts.Params, "param", nil, "named parameter value, name=value")
	cmd.Flags().BoolVar(&opts.Prepare, "prepare-only", false, "prepare the statement without executing it")

	return cmd
}

func runCheck(opts *CheckOptions, path string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	cfg, err := opts.Settings()
	if err != nil {
		return formatter.Fail(ExitCommandError, withCode(ErrCodeConfig, err))
	}
	driver, dsn := cfg.Probe.Driver, cfg.Probe.DSN
	if opts.Driver != "" {
		driver = opts.Driver
	}
	if opts.DSN != "" {
		dsn = opts.DSN
	}

	doc, built, err := opts.decode(path)
	if err != nil {
		return formatter.Fail(exitCodeFor(err), err)
	}

	renderOpts, err := cfg.RenderOptions()
	if err != nil {
		return formatter.Fail(ExitCommandError, withCode(ErrCodeConfig, err))
	}

	ctx := cmd.Context()
	p, err := probe.Open(ctx, driver, dsn, probe.WithRenderOptions(renderOpts...))
	if err != nil {
		return formatter.Fail(ExitCommandError, withCode(ErrCodeProbe, err))
	}
	defer p.Close()
	formatter.VerboseLog("Connected to %s via %s", p.Dialect(), p.Driver())

	result := CheckResult{Name: doc.Name, Dialect: p.Dialect().String()}
	if opts.Prepare {
		result.SQL, err = p.Accepts(ctx, built.Expr)
	} else {
		named := make(map[string]any, len(opts.Params))
		for k, v := range opts.Params {
			named[k] = v
		}
		if result.SQL, _, err = p.Statement(built.Expr, named); err == nil {
			result.Value, err = p.Scalar(ctx, built.Expr, named)
		}
	}
	if err != nil {
		return formatter.Fail(ExitFailure, err)
	}
	return formatter.Success(result)
}
