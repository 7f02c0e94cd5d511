package harness

import (
	"fmt"
	"io"
	"strings"

	"github.com/roach88/vexharness/internal/ir"
)

// FormatTrace pretty-prints a trace, one event per line:
//
//	--- event log: 2 events ---
//	[0] ACT   Motor.spin(self=Motor(PORT1), dir=DirectionType.REVERSE, ...)
//	[1] SENSE Inertial.heading(self=Inertial(PORT2), units=RotationUnits.DEG) -> 10
func FormatTrace(w io.Writer, trace ir.Trace) error {
	var b strings.Builder
	fmt.Fprintf(&b, "--- event log: %d %s ---\n", len(trace), plural(len(trace), "event"))
	for i, e := range trace {
		fmt.Fprintf(&b, "[%d] %s\n", i, eventLine(e))
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func eventLine(e ir.Event) string {
	if e.IsSensing() {
		return "SENSE " + e.String()
	}
	return "ACT   " + e.String()
}

func plural(n int, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}
