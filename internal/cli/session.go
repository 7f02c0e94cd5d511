package cli

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/vexharness/internal/catalog"
	"github.com/roach88/vexharness/internal/device"
	"github.com/roach88/vexharness/internal/eventlog"
	"github.com/roach88/vexharness/internal/harness"
	"github.com/roach88/vexharness/internal/instrument"
	"github.com/roach88/vexharness/internal/ir"
)

// newLogger configures logging based on the verbose flag.
func newLogger(opts *RootOptions, cmd *cobra.Command) *slog.Logger {
	logLevel := slog.LevelInfo
	if opts.Verbose {
		logLevel = slog.LevelDebug
	}
	handler := slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
		Level: logLevel,
	})
	return slog.New(handler)
}

func newFormatter(opts *RootOptions, cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
}

// traceWriter is where trace lines and prompts go. JSON output keeps stdout
// for the response alone.
func traceWriter(opts *RootOptions, cmd *cobra.Command) io.Writer {
	if opts.Format == "json" {
		return cmd.ErrOrStderr()
	}
	return cmd.OutOrStdout()
}

func loadCatalog(opts *RootOptions) (*ir.CatalogSpec, error) {
	if opts.Catalog == "" {
		return catalog.Default()
	}
	return catalog.LoadFile(opts.Catalog)
}

// newRunner builds the device runtime and runner shared by the script
// commands. Errors are already reported through f.
func newRunner(opts *RootOptions, cmd *cobra.Command, f *OutputFormatter, logger *slog.Logger) (*harness.Runner, error) {
	spec, err := loadCatalog(opts)
	if err != nil {
		return nil, f.fail(ExitCommandError, ErrCodeCatalog, err.Error(), nil)
	}

	in := bufio.NewReader(cmd.InOrStdin())
	if opts.Input != "" {
		data, err := os.ReadFile(opts.Input)
		if err != nil {
			return nil, f.fail(ExitCommandError, ErrCodeNotFound, fmt.Sprintf("read input: %v", err), nil)
		}
		in = bufio.NewReader(bytes.NewReader(data))
	}

	// Runs record into the process-wide log; each run clears it first.
	out := traceWriter(opts, cmd)
	rec := *instrument.Default
	rec.Log = eventlog.Default
	rec.Out = out
	rec.In = in
	rec.Interactive = opts.Interactive
	rec.Echo = opts.Input != ""
	rec.MaxEvents = opts.MaxEvents
	rec.Logger = logger

	runner := harness.NewRunner(&device.Runtime{Catalog: spec, Recorder: &rec})
	runner.Out = out
	runner.Logger = logger
	if opts.RunIDs != nil {
		runner.RunIDs = opts.RunIDs
	}
	return runner, nil
}

// runError reports an error returned by a run. Script errors are failures;
// anything else means the command could not run.
func runError(f *OutputFormatter, err error) error {
	var scriptErr *harness.ScriptError
	var noFunc *harness.NoSuchFunctionError
	switch {
	case errors.As(err, &scriptErr):
		f.TraceID = scriptErr.RunID
		if f.Format != "json" {
			fmt.Fprintln(f.GetErrWriter(), strings.TrimRight(scriptErr.Backtrace(), "\n"))
			exitErr := WrapExitError(ExitFailure, "script failed", err)
			exitErr.Reported = true
			return exitErr
		}
		return f.fail(ExitFailure, ErrCodeScript, err.Error(), map[string]string{
			"script":    scriptErr.Script,
			"backtrace": scriptErr.Backtrace(),
		})
	case errors.As(err, &noFunc):
		return f.fail(ExitCommandError, ErrCodeNoSuchFunc, err.Error(), map[string]string{
			"script":   noFunc.Script,
			"function": noFunc.Function,
		})
	default:
		return f.fail(ExitCommandError, ErrCodeNotFound, err.Error(), nil)
	}
}
