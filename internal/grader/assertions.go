package grader

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/roach88/vexharness/internal/harness"
	"github.com/roach88/vexharness/internal/ir"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string   // Assertion type for categorization
	Expected string   // Human-readable expected outcome
	Actual   string   // Human-readable actual outcome
	Trace    ir.Trace // Full trace for debugging context
}

func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for i, event := range e.Trace {
			fmt.Fprintf(&buf, "  [%d] %s\n", i+1, event)
		}
	}
	return buf.String()
}

// Evaluate checks every assertion and reports the failures followed by
// "True" or "False".
func (r *Rubric) Evaluate(ctx context.Context, trace ir.Trace) (string, error) {
	var failures []string

	for i, a := range r.Assertions {
		var err error

		switch a.Type {
		case AssertTraceContains:
			err = r.assertTraceContains(trace, a)
		case AssertTraceOrder:
			err = assertTraceOrder(trace, a)
		case AssertTraceCount:
			err = assertTraceCount(trace, a)
		case AssertMatchesReference:
			err = r.assertMatchesReference(ctx, trace, a)
			if err != nil && !isAssertionError(err) {
				return "", fmt.Errorf("assertion[%d]: %w", i, err)
			}
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, a.Type)
		}

		if err != nil {
			failures = append(failures, err.Error())
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "rubric %s: %d/%d assertions passed\n", r.Name, len(r.Assertions)-len(failures), len(r.Assertions))
	for _, f := range failures {
		b.WriteString(f)
		if !strings.HasSuffix(f, "\n") {
			b.WriteByte('\n')
		}
	}
	b.WriteString(pyBool(len(failures) == 0))
	return b.String(), nil
}

func isAssertionError(err error) bool {
	_, ok := err.(*AssertionError)
	return ok
}

// assertTraceContains checks that some call of the method has matching
// args (subset match).
func (r *Rubric) assertTraceContains(trace ir.Trace, a Assertion) error {
	for _, event := range trace {
		if event.Method == a.Method && r.matchArgs(event.Args, a.Args) {
			return nil
		}
	}

	return &AssertionError{
		Type:     AssertTraceContains,
		Expected: fmt.Sprintf("call %s with args %s", a.Method, formatExpectedArgs(a.Args)),
		Actual:   "not found in trace",
		Trace:    trace,
	}
}

// assertTraceOrder checks that the first call of each method appears in
// the given order. Other calls may come in between.
func assertTraceOrder(trace ir.Trace, a Assertion) error {
	positions := make(map[string]int)
	for i, event := range trace {
		if _, seen := positions[event.Method]; !seen {
			positions[event.Method] = i + 1 // 1-indexed for readability
		}
	}

	for _, method := range a.Methods {
		if positions[method] == 0 {
			return &AssertionError{
				Type:     AssertTraceOrder,
				Expected: fmt.Sprintf("all methods present: %v", a.Methods),
				Actual:   fmt.Sprintf("missing method: %s", method),
				Trace:    trace,
			}
		}
	}

	for i := 1; i < len(a.Methods); i++ {
		prev, curr := a.Methods[i-1], a.Methods[i]
		if positions[prev] >= positions[curr] {
			return &AssertionError{
				Type:     AssertTraceOrder,
				Expected: fmt.Sprintf("methods in order: %v", a.Methods),
				Actual: fmt.Sprintf("%s (pos %d) should be before %s (pos %d)",
					prev, positions[prev], curr, positions[curr]),
				Trace: trace,
			}
		}
	}
	return nil
}

// assertTraceCount checks that the method is called exactly Count times.
func assertTraceCount(trace ir.Trace, a Assertion) error {
	count := 0
	for _, event := range trace {
		if event.Method == a.Method {
			count++
		}
	}

	if count != a.Count {
		return &AssertionError{
			Type:     AssertTraceCount,
			Expected: fmt.Sprintf("%d calls of %s", a.Count, a.Method),
			Actual:   fmt.Sprintf("%d calls", count),
			Trace:    trace,
		}
	}
	return nil
}

// assertMatchesReference runs the reference solution and requires an
// identical trace. An interactive rubric feeds the reference its own copy of
// the inputs. Errors other than *AssertionError mean the reference itself
// could not be run.
func (r *Rubric) assertMatchesReference(ctx context.Context, trace ir.Trace, a Assertion) error {
	if r.Runner == nil {
		return fmt.Errorf("matches_reference requires a runner")
	}

	rec := *r.Runner.Runtime.Recorder
	rec.Out = io.Discard
	if r.Interactive {
		rec.Interactive = true
		rec.In = inputReader(r.Inputs)
	}
	rt := *r.Runner.Runtime
	rt.Recorder = &rec
	quiet := *r.Runner
	quiet.Runtime = &rt
	quiet.Out = io.Discard

	ref, err := quiet.RunFile(ctx, a.Reference)
	if err != nil {
		return fmt.Errorf("run reference %s: %w", a.Reference, err)
	}

	diff := harness.DiffTraces(ref.Trace, trace)
	if diff.Match {
		return nil
	}

	var report strings.Builder
	_ = diff.Format(&report)
	return &AssertionError{
		Type:     AssertMatchesReference,
		Expected: fmt.Sprintf("trace of %s", a.Reference),
		Actual:   strings.TrimRight(report.String(), "\n"),
	}
}

// matchArgs checks that actual contains every expected arg (subset match).
func (r *Rubric) matchArgs(actual ir.Args, expected map[string]any) bool {
	for name, want := range expected {
		got, ok := actual.Get(name)
		if !ok {
			return false
		}
		if !r.valueMatches(got, want) {
			return false
		}
	}
	return true
}

// valueMatches compares a recorded value with a YAML value. Strings also
// match a value's sanitized form ("DirectionType.FORWARD", "Motor(PORT1)")
// and, with a catalog, a constant name such as FORWARD.
func (r *Rubric) valueMatches(got ir.IRValue, want any) bool {
	if s, ok := want.(string); ok {
		if ir.Sanitize(got) == s {
			return true
		}
		if r.Catalog != nil {
			if v, ok := r.Catalog.Resolve(s); ok && ir.Equal(got, v) {
				return true
			}
		}
		return ir.Equal(got, ir.IRString(s))
	}

	w, err := ir.FromGo(want)
	if err != nil {
		return false
	}
	return ir.Equal(got, w)
}

func formatExpectedArgs(args map[string]any) string {
	if len(args) == 0 {
		return "(any)"
	}
	obj := make(ir.IRObject, len(args))
	for k, v := range args {
		if iv, err := ir.FromGo(v); err == nil {
			obj[k] = iv
		} else {
			obj[k] = ir.IROpaque(fmt.Sprint(v))
		}
	}
	return ir.Sanitize(obj)
}
