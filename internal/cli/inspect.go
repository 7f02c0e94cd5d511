package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/vexharness/internal/catalog"
	"github.com/roach88/vexharness/internal/ir"
)

// InspectOptions holds flags for the inspect-cls command.
type InspectOptions struct {
	*RootOptions
}

// NewInspectCommand creates the inspect-cls command.
func NewInspectCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &InspectOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "inspect-cls <class>",
		Short: "Describe a device class",
		Long: `Print a device class's constructor, properties and instrumented
methods with their kinds, signatures and return annotations.

The path is dotted and may start with the module name. A property path
resolves to the property's class.

Examples:
  vexharness inspect-cls vex.Motor
  vexharness inspect-cls Brain.battery
  vexharness inspect-cls Controller --format json`,
		Args:          exactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(opts, args[0], cmd)
		},
	}

	return cmd
}

func runInspect(opts *InspectOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	spec, err := loadCatalog(opts.RootOptions)
	if err != nil {
		return formatter.fail(ExitCommandError, ErrCodeCatalog, err.Error(), nil)
	}

	class, err := catalog.LookupClass(spec, path)
	if err != nil {
		return formatter.fail(ExitCommandError, ErrCodeNoSuchClass, err.Error(), nil)
	}

	if opts.Format == "json" {
		return formatter.Success(class)
	}
	return describeClass(cmd.OutOrStdout(), class)
}

// describeClass writes the text form of class:
//
//	class Motor(port, reverse=False)
//	    A smart motor on a port.
//
//	methods:
//	  act    spin(self, dir, velocity, velocityUnits=PercentUnits.PERCENT)
//	         Spin the motor until stopped.
//	  sense  velocity(self, velocityUnits=PercentUnits.PERCENT) -> float
func describeClass(w io.Writer, class *ir.ClassSpec) error {
	var b strings.Builder

	fmt.Fprintf(&b, "class %s", ir.FormatSignature(class.Name, class.Init))
	if class.Singleton {
		b.WriteString(" (singleton)")
	}
	b.WriteByte('\n')
	if class.Doc != "" {
		fmt.Fprintf(&b, "    %s\n", class.Doc)
	}

	if len(class.Props) > 0 {
		b.WriteString("\nproperties:\n")
		for _, p := range class.Props {
			fmt.Fprintf(&b, "  %s: %s\n", p.Name, p.Class)
		}
	}

	b.WriteString("\nmethods:\n")
	if len(class.Methods) == 0 {
		b.WriteString("  (none)\n")
	}
	for i := range class.Methods {
		m := &class.Methods[i]
		sig := m.Signature()
		if m.Returns != "" {
			sig += " -> " + m.Returns
		}
		fmt.Fprintf(&b, "  %-6s %s\n", m.Kind, sig)
		if m.Doc != "" {
			fmt.Fprintf(&b, "         %s\n", m.Doc)
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}
