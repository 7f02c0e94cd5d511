package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/roach88/vexharness/internal/grader"
)

// GradeOptions holds flags for the grade command.
type GradeOptions struct {
	*RootOptions
	Predicate string // Starlark expression over trace and methods
	Rubric    string // YAML rubric file
	Name      string // case name (default: rubric name or script file name)
}

// NewGradeCommand creates the grade command.
func NewGradeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &GradeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "grade <script>",
		Short: "Run a script and judge its event log",
		Long: `Run a script, then judge its event log with a predicate expression
or a YAML rubric.

The output is the run's trace followed by the verdict. The case passes
when the trimmed output ends with "True".

A predicate is a Starlark expression that sees the device names plus
"trace" (a list of (method, args[, return]) tuples) and "methods" (the
qualified method names in call order).

Exit codes:
  0 - Case passed
  1 - Case failed or the script raised an error
  2 - Command error (bad rubric, missing flags, etc.)

Examples:
  vexharness grade square.py --predicate 'len(trace) > 0 and methods[-1] == "Drivetrain.stop"'
  vexharness grade square.py --rubric rubrics/square.yaml
  vexharness grade line.py --rubric rubrics/line.yaml --format json`,
		Args:          exactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGrade(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Predicate, "predicate", "", "Starlark expression judging the trace")
	cmd.Flags().StringVar(&opts.Rubric, "rubric", "", "YAML rubric file")
	cmd.Flags().StringVar(&opts.Name, "name", "", "case name reported to the grader")

	return cmd
}

func runGrade(opts *GradeOptions, script string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	logger := newLogger(opts.RootOptions, cmd)

	if (opts.Predicate == "") == (opts.Rubric == "") {
		return formatter.fail(ExitCommandError, ErrCodeBadArgs, "exactly one of --predicate or --rubric is required", nil)
	}

	runner, err := newRunner(opts.RootOptions, cmd, formatter, logger)
	if err != nil {
		return err
	}

	var test grader.Test
	if opts.Rubric != "" {
		rubric, err := grader.LoadRubric(opts.Rubric)
		if err != nil {
			return formatter.fail(ExitCommandError, ErrCodeInvalidRubric, err.Error(), nil)
		}
		rubric.Catalog = runner.Runtime.Catalog
		rubric.Runner = runner
		test = rubric.Test(script)
	} else {
		test = grader.Test{
			Name:      filepath.Base(script),
			Script:    script,
			Predicate: &grader.ExprPredicate{Source: opts.Predicate, Catalog: runner.Runtime.Catalog},
		}
	}
	if opts.Name != "" {
		test.Name = opts.Name
	}

	logger.Debug("grading", "test", test.Name, "script", script)
	c := test.Run(cmd.Context(), runner)

	var failure *CLIError
	if !c.Pass {
		failure = &CLIError{Code: ErrCodeGradeFailed, Message: fmt.Sprintf("case %s failed", c.Name)}
		if c.Error != "" {
			failure = &CLIError{Code: ErrCodeScript, Message: c.Error}
		}
	}

	if opts.Format == "json" {
		if err := formatter.Outcome(c, failure); err != nil {
			return err
		}
	} else {
		fmt.Fprint(cmd.OutOrStdout(), c.Output)
	}

	if failure != nil {
		exitErr := NewExitError(ExitFailure, failure.Message)
		exitErr.Reported = true
		return exitErr
	}
	return nil
}
