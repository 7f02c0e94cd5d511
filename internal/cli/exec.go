package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/roach88/vexharness/internal/harness"
)

// ExecOptions holds flags for the exec command.
type ExecOptions struct {
	*RootOptions
}

// NewExecCommand creates the exec command.
func NewExecCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExecOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "exec <script>",
		Short: "Run a script and print its event log",
		Long: `Run a student script against the device stubs.

Each device call is printed as it happens (ACT, SENSE and SET lines),
followed by the pretty-printed event log. If the script raises, the log
up to the failing call is printed before the error.

Exit codes:
  0 - Script ran to completion
  1 - Script raised an error
  2 - Command error (unreadable script, bad catalog, etc.)

Examples:
  vexharness exec square.py
  vexharness exec -i line_follow.py
  vexharness exec --input readings.jsonl line_follow.py
  vexharness exec --format json square.py`,
		Args:          exactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExec(opts, args[0], cmd)
		},
	}

	return cmd
}

func runExec(opts *ExecOptions, script string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	logger := newLogger(opts.RootOptions, cmd)

	runner, err := newRunner(opts.RootOptions, cmd, formatter, logger)
	if err != nil {
		return err
	}

	logger.Debug("executing script", "script", script)
	result, err := runner.RunFile(cmd.Context(), script)
	if err != nil {
		if harness.IsScriptError(err) && opts.Format != "json" {
			partial := runner.Runtime.Recorder.Log.Snapshot()
			if fmtErr := harness.FormatTrace(runner.Out, partial); fmtErr != nil {
				return errors.Join(err, fmtErr)
			}
		}
		return runError(formatter, err)
	}

	if opts.Format == "json" {
		formatter.TraceID = result.RunID
		return formatter.Success(result)
	}
	formatter.VerboseLog("run %s: %d event(s), digest %s", result.RunID, len(result.Trace), result.Digest)
	return nil
}
