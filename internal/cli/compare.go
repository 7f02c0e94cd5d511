package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/vexharness/internal/harness"
)

// CompareOptions holds flags for the compare-output command.
type CompareOptions struct {
	*RootOptions
	Function    string // compare one top-level function instead of whole scripts
	ContextFile string // evaluated before the function; its globals are visible
	FuncArgs    string // JSON list or object of call arguments
}

// NewCompareCommand creates the compare-output command.
func NewCompareCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompareOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compare-output <script-a> <script-b>",
		Short: "Diff the event logs of two scripts",
		Long: `Run two scripts and compare their event logs call by call.

With --func, only the named top-level function of each script is called,
after evaluating the optional context file. Both scripts must define the
function. --func-args is a JSON list (positional) or object (keyword).
Only the def statements of each script are evaluated, so top-level setup
such as "m = Motor(PORT1)" is skipped: put it in --context-file instead.

The report shows the first differing event with up to two events of
context on each side.

Exit codes:
  0 - Event logs match
  1 - Event logs differ, or a script raised an error
  2 - Command error (unreadable script, missing function, bad arguments)

Examples:
  vexharness compare-output student.py solution.py
  vexharness compare-output student.py solution.py --func square
  vexharness compare-output a.py b.py --func drive --context-file setup.py --func-args '[100, 2]'`,
		Args:          exactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompare(opts, args[0], args[1], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Function, "func", "", "compare only this top-level function")
	cmd.Flags().StringVar(&opts.ContextFile, "context-file", "", "script evaluated before the function (requires --func)")
	cmd.Flags().StringVar(&opts.FuncArgs, "func-args", "", "JSON list or object of function arguments (requires --func)")

	return cmd
}

func runCompare(opts *CompareOptions, a, b string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	logger := newLogger(opts.RootOptions, cmd)

	if opts.Function == "" && (opts.ContextFile != "" || opts.FuncArgs != "") {
		return formatter.fail(ExitCommandError, ErrCodeBadArgs, "--context-file and --func-args require --func", nil)
	}

	args, err := harness.ParseFuncArgs(opts.FuncArgs)
	if err != nil {
		return formatter.fail(ExitCommandError, ErrCodeBadArgs, err.Error(), nil)
	}

	runner, err := newRunner(opts.RootOptions, cmd, formatter, logger)
	if err != nil {
		return err
	}

	logger.Debug("comparing", "a", a, "b", b, "func", opts.Function)
	diff, err := harness.Compare(cmd.Context(), runner, a, b, harness.CompareOptions{
		Function:     opts.Function,
		ContextFile:  opts.ContextFile,
		FunctionArgs: args,
	})
	if err != nil {
		return runError(formatter, err)
	}

	var failure *CLIError
	if !diff.Match {
		failure = &CLIError{
			Code:    ErrCodeMismatch,
			Message: fmt.Sprintf("traces differ at event %d", diff.Index),
		}
	}

	if opts.Format == "json" {
		if err := formatter.Outcome(diff, failure); err != nil {
			return err
		}
	} else if err := diff.Format(cmd.OutOrStdout()); err != nil {
		return err
	}

	if failure != nil {
		exitErr := NewExitError(ExitFailure, failure.Message)
		exitErr.Reported = true
		return exitErr
	}
	return nil
}
