package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/exprsql/internal/dialect"
	"github.com/roach88/exprsql/internal/sqlop"
	"github.com/roach88/exprsql/internal/types"
)

// PromoteResult is the payload of the promote command.
type PromoteResult struct {
	Operator string            `json:"operator"`
	Family   string            `json:"family"`
	Left     string            `json:"left"`
	Right    string            `json:"right"`
	Result   string            `json:"result"`
	SQLNames map[string]string `json:"sql_names,omitempty"`
}

func (r PromoteResult) String() string {
	return fmt.Sprintf("%s %s %s -> %s (%s)", r.Left, r.Operator, r.Right, r.Result, r.Family)
}

// NewPromoteCommand creates the promote command.
func NewPromoteCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "promote <operator> <left-type> <right-type>",
		Short: "Show the result type of a binary operator",
		Long: `Resolve the result type of "left operator right" with the promotion
family of the operator.

The operator may be given as its SQL symbol or its name.

Example:
  exprsql promote + date integer
  exprsql promote times smallint decimal --format json`,
		Args:          cobra.ExactArgs(3),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPromote(rootOpts, args, cmd)
		},
	}

	return cmd
}

func runPromote(opts *RootOptions, args []string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	op, ok := sqlop.ParseBinary(args[0])
	if !ok {
		return formatter.Fail(ExitCommandError, fmt.Errorf("unknown operator %q", args[0]))
	}
	left, err := types.Parse(args[1])
	if err != nil {
		return formatter.Fail(ExitCommandError, err)
	}
	right, err := types.Parse(args[2])
	if err != nil {
		return formatter.Fail(ExitCommandError, err)
	}

	t, err := types.Resolve(op, left, right)
	if err != nil {
		return formatter.Fail(ExitFailure, err)
	}

	result := PromoteResult{
		Operator: op.SQL(),
		Family:   op.Family().String(),
		Left:     left.Name(),
		Right:    right.Name(),
		Result:   t.Name(),
	}
	for _, f := range dialect.Families {
		if name, ok := t.SQLName(f); ok {
			if result.SQLNames == nil {
				result.SQLNames = make(map[string]string)
			}
			result.SQLNames[f.Key()] = name
		}
	}
	formatter.VerboseLog("sql names: %v", result.SQLNames)
	return formatter.Success(result)
}
