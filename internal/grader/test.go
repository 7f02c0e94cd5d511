package grader

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/roach88/vexharness/internal/harness"
)

// PassSuffix is what a passing case's trimmed output ends with.
const PassSuffix = "True"

// Test is one graded run: execute Script, then apply Predicate to its
// trace.
type Test struct {
	Name      string
	Script    string
	Predicate Predicate

	// Interactive routes unset sensor reads to Inputs, one JSON value per
	// line, instead of the stubs.
	Interactive bool
	Inputs      []string
}

// Case is the outcome reported to the grading host.
type Case struct {
	Name   string `json:"name"`
	Output string `json:"output"`
	Pass   bool   `json:"pass"`
	Error  string `json:"error,omitempty"`
}

// Run executes the test with a copy of runner whose output is captured.
// Errors are reported in the case, never returned.
func (t Test) Run(ctx context.Context, runner *harness.Runner) Case {
	var buf bytes.Buffer

	rec := *runner.Runtime.Recorder
	rec.Out = &buf
	if t.Interactive {
		rec.Interactive = true
		rec.In = inputReader(t.Inputs)
		rec.Echo = true
	}
	rt := *runner.Runtime
	rt.Recorder = &rec
	r := *runner
	r.Runtime = &rt
	r.Out = &buf

	c := Case{Name: t.Name}
	result, err := r.RunFile(ctx, t.Script)
	if err != nil {
		fmt.Fprintln(&buf, err)
		c.Output = buf.String()
		c.Error = err.Error()
		return c
	}

	verdict, err := t.Predicate.Evaluate(ctx, result.Trace)
	if err != nil {
		fmt.Fprintln(&buf, err)
		c.Output = buf.String()
		c.Error = err.Error()
		return c
	}
	buf.WriteString(verdict)
	buf.WriteByte('\n')

	c.Output = buf.String()
	c.Pass = Passed(c.Output)
	logger(r.Logger).Debug("graded", "test", t.Name, "run_id", result.RunID, "pass", c.Pass)
	return c
}

func inputReader(lines []string) *bufio.Reader {
	var b strings.Builder
	for _, l := range lines {
		b.WriteString(l)
		b.WriteByte('\n')
	}
	return bufio.NewReader(strings.NewReader(b.String()))
}

func logger(l *slog.Logger) *slog.Logger {
	if l == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return l
}

// Passed applies the host's pass condition to a case's output.
func Passed(output string) bool {
	return strings.HasSuffix(strings.TrimSpace(output), PassSuffix)
}
