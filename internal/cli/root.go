package cli

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/vexharness/internal/harness"
	"github.com/roach88/vexharness/internal/instrument"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"

	// Interactive prompts for unset sensor values instead of using stubs.
	Interactive bool

	// Input is a file of JSON values, one per line, answering interactive
	// prompts. Each consumed line is echoed after its prompt.
	Input string

	// Catalog is a CUE device catalog used instead of the embedded one.
	Catalog string

	// MaxEvents stops a run that records more events. Zero means unlimited.
	MaxEvents int

	// RunIDs allows overriding the run ID generator (for testing).
	// If nil, defaults to UUIDv7Generator.
	RunIDs harness.RunIDGenerator
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the vexharness CLI.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&RootOptions{})
}

func newRootCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "vexharness",
		Short: "Record and replay VEX robot programs",
		Long: `Run VEX IQ/V5 student programs against instrumented device stubs.

Every actuator command and sensor read is printed as it happens and
recorded in an event log, so two programs can be compared call by call
and a grader can judge a run without hardware.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Validate format flag
			if !isValidFormat(opts.Format) {
				return NewExitError(ExitCommandError,
					fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			return nil
		},
	}

	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return WrapExitError(ExitCommandError, "invalid flags", err)
	})

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().BoolVarP(&opts.Interactive, "interactive", "i", false, "prompt for unset sensor values")
	cmd.PersistentFlags().StringVar(&opts.Input, "input", "", "file of JSON sensor values answering interactive prompts")
	cmd.PersistentFlags().StringVar(&opts.Catalog, "catalog", "", "CUE device catalog (default: embedded VEX catalog)")
	cmd.PersistentFlags().IntVar(&opts.MaxEvents, "max-events", instrument.DefaultMaxEvents, "stop a run after this many events (0 = unlimited)")

	// Add subcommands
	cmd.AddCommand(NewExecCommand(opts))
	cmd.AddCommand(NewCompareCommand(opts))
	cmd.AddCommand(NewInspectCommand(opts))
	cmd.AddCommand(NewGradeCommand(opts))

	return cmd
}

// exactArgs is cobra.ExactArgs reporting a command error.
func exactArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := cobra.ExactArgs(n)(cmd, args); err != nil {
			return WrapExitError(ExitCommandError, "invalid arguments", err)
		}
		return nil
	}
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}
