package harness

import (
	"context"
	"fmt"
	"io"
	"strings"

	"go.starlark.net/syntax"

	"github.com/roach88/vexharness/internal/ir"
)

// ContextWindow is how many events on each side of the first mismatch a
// Diff keeps.
const ContextWindow = 2

// CompareOptions selects compare-by-function mode. The zero value compares
// whole-script runs.
type CompareOptions struct {
	Function     string
	ContextFile  string
	FunctionArgs FuncArgs
}

// Diff is the element-wise comparison of two traces.
type Diff struct {
	Match bool `json:"match"`

	// Index is the first differing position, or -1 when the traces match.
	// When one trace is a prefix of the other it is the shorter length.
	Index int `json:"index"`

	LenA int `json:"len_a"`
	LenB int `json:"len_b"`

	// Start is the trace position of A[0] and B[0].
	Start int      `json:"start"`
	A     ir.Trace `json:"a,omitempty"`
	B     ir.Trace `json:"b,omitempty"`
}

// Compare runs scripts a and b with runner and diffs their traces. With
// opts.Function set, both scripts must define that function at top level
// before either is run.
func Compare(ctx context.Context, runner *Runner, a, b string, opts CompareOptions) (*Diff, error) {
	if opts.Function == "" {
		ra, err := runner.RunFile(ctx, a)
		if err != nil {
			return nil, err
		}
		rb, err := runner.RunFile(ctx, b)
		if err != nil {
			return nil, err
		}
		return DiffTraces(ra.Trace, rb.Trace), nil
	}

	files := make([]*syntax.File, 2)
	for i, path := range []string{a, b} {
		f, err := Parse(path)
		if err != nil {
			return nil, err
		}
		if err := FindFunction(f, opts.Function); err != nil {
			return nil, err
		}
		files[i] = f
	}

	traces := make([]ir.Trace, 2)
	for i, f := range files {
		res, err := runner.CallFunction(ctx, f, opts.Function, opts.ContextFile, opts.FunctionArgs)
		if err != nil {
			return nil, err
		}
		traces[i] = res.Trace
	}
	return DiffTraces(traces[0], traces[1]), nil
}

// DiffTraces compares a and b element by element after normalization.
func DiffTraces(a, b ir.Trace) *Diff {
	d := &Diff{Index: -1, LenA: len(a), LenB: len(b)}

	n := min(len(a), len(b))
	for i := range n {
		if !a[i].Equal(b[i]) {
			d.Index = i
			break
		}
	}
	if d.Index < 0 && len(a) != len(b) {
		d.Index = n
	}
	if d.Index < 0 {
		d.Match = true
		return d
	}

	d.Start = max(0, d.Index-ContextWindow)
	end := d.Index + ContextWindow + 1
	d.A = window(a, d.Start, end)
	d.B = window(b, d.Start, end)
	return d
}

func window(t ir.Trace, lo, hi int) ir.Trace {
	hi = min(hi, len(t))
	if lo >= hi {
		return nil
	}
	return t[lo:hi]
}

// Format writes a human-readable report. The first differing event is
// marked with ">".
func (d *Diff) Format(w io.Writer) error {
	var b strings.Builder
	if d.Match {
		fmt.Fprintf(&b, "traces match (%d %s)\n", d.LenA, plural(d.LenA, "event"))
	} else {
		fmt.Fprintf(&b, "traces differ at event %d (a: %d %s, b: %d %s)\n",
			d.Index, d.LenA, plural(d.LenA, "event"), d.LenB, plural(d.LenB, "event"))
		d.writeSide(&b, "--- a", d.A, d.LenA)
		d.writeSide(&b, "+++ b", d.B, d.LenB)
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func (d *Diff) writeSide(b *strings.Builder, header string, events ir.Trace, total int) {
	b.WriteString(header)
	b.WriteByte('\n')
	for i, e := range events {
		pos := d.Start + i
		fmt.Fprintf(b, "%s[%d] %s\n", marker(pos == d.Index), pos, eventLine(e))
	}
	if d.Index >= total {
		fmt.Fprintf(b, "%s[%d] <end of trace>\n", marker(true), d.Index)
	}
}

func marker(first bool) string {
	if first {
		return "  > "
	}
	return "    "
}
