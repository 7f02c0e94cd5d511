package grader

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/vexharness/internal/catalog"
	"github.com/roach88/vexharness/internal/device"
	"github.com/roach88/vexharness/internal/eventlog"
	"github.com/roach88/vexharness/internal/harness"
	"github.com/roach88/vexharness/internal/instrument"
	"github.com/roach88/vexharness/internal/ir"
	"github.com/roach88/vexharness/internal/testutil"
)

func newRunner(t *testing.T) *harness.Runner {
	t.Helper()
	spec, err := catalog.Default()
	require.NoError(t, err)

	rt := &device.Runtime{
		Catalog:  spec,
		Recorder: &instrument.Recorder{Log: eventlog.New()},
	}
	return &harness.Runner{Runtime: rt, RunIDs: testutil.NewFixedRunIDGenerator("grade-run")}
}

func squareScript(t *testing.T) string {
	t.Helper()
	return testutil.WriteScript(t, "square.py", `
		from vex import *

		dt = Drivetrain(Motor(PORT1), Motor(PORT6, True))
		for _ in range(4):
		    dt.drive_for(FORWARD, 300, MM)
		    dt.turn_for(RIGHT, 90, DEGREES)
	`)
}

func TestPassed(t *testing.T) {
	tests := []struct {
		output string
		want   bool
	}{
		{"True", true},
		{"ACT: wait(time=1)\nTrue\n", true},
		{"  True  \n\n", true},
		{"False\n", false},
		{"True\nFalse", false},
		{"", false},
		{"NotTrue", true},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Passed(tt.output), "%q", tt.output)
	}
}

func TestFuncPredicate(t *testing.T) {
	p := Func(func(trace ir.Trace) bool { return len(trace) == 8 })

	c := Test{Name: "eight calls", Script: squareScript(t), Predicate: p}.Run(context.Background(), newRunner(t))
	assert.True(t, c.Pass, c.Output)
	assert.Empty(t, c.Error)
	assert.Equal(t, "eight calls", c.Name)
	assert.Contains(t, c.Output, "ACT: Drivetrain.turn_for(dir=TurnType.RIGHT, angle=90, units=RotationUnits.DEG, velocity=None, units_v=VelocityUnits.PERCENT, wait=True)\n")
	assert.Contains(t, c.Output, "--- event log: 8 events ---\n")
	assert.Regexp(t, `True\n$`, c.Output)
}

func TestFuncPredicateFails(t *testing.T) {
	p := Func(func(trace ir.Trace) bool { return false })

	c := Test{Name: "never", Script: squareScript(t), Predicate: p}.Run(context.Background(), newRunner(t))
	assert.False(t, c.Pass)
	assert.Regexp(t, `False\n$`, c.Output)
}

func TestExprPredicate(t *testing.T) {
	tests := []struct {
		name string
		expr string
		want bool
	}{
		{"count", `len(trace) == 8`, true},
		{"methods", `len([m for m in methods if m == "Drivetrain.turn_for"]) == 4`, true},
		{"enum arg", `trace[1][1]["dir"] == RIGHT`, true},
		{"self renders", `trace[0][1]["self"] == "Drivetrain"`, true},
		{"all turns are right angles", `all([e[1]["angle"] == 90 for e in trace if e[0] == "Drivetrain.turn_for"])`, true},
		{"wrong", `trace[0][0] == "Motor.spin"`, false},
	}

	runner := newRunner(t)
	script := squareScript(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Test{Name: tt.name, Script: script, Predicate: Expr(tt.expr)}.Run(context.Background(), runner)
			assert.Empty(t, c.Error)
			assert.Equal(t, tt.want, c.Pass, c.Output)
		})
	}
}

func TestExprPredicateSensingTuple(t *testing.T) {
	script := testutil.WriteScript(t, "sense.py", `
		d = Distance(PORT3)
		d.object_distance(set=120)
		d.object_distance()
	`)
	c := Test{Name: "sense", Script: script, Predicate: Expr(`trace[0][2] == 120`)}.Run(context.Background(), newRunner(t))
	assert.True(t, c.Pass, c.Output)
}

func TestExprPredicateError(t *testing.T) {
	c := Test{Name: "bad", Script: squareScript(t), Predicate: Expr(`trace[99]`)}.Run(context.Background(), newRunner(t))
	assert.False(t, c.Pass)
	assert.Contains(t, c.Error, "evaluate predicate")
}

func TestScriptErrorFailsCase(t *testing.T) {
	script := testutil.WriteScript(t, "broken.py", `
		wait(1)
		fail("student bug")
	`)
	c := Test{Name: "broken", Script: script, Predicate: Func(func(ir.Trace) bool { return true })}.Run(context.Background(), newRunner(t))
	assert.False(t, c.Pass)
	assert.Contains(t, c.Error, "student bug")
	assert.Contains(t, c.Output, "ACT: wait(time=1, units=TimeUnits.MSEC)\n")
}

func TestRunDoesNotMutateRunner(t *testing.T) {
	runner := newRunner(t)
	rec := runner.Runtime.Recorder

	script := testutil.WriteScript(t, "heading.py", `h = Inertial(PORT2).heading()`)
	c := Test{
		Name:        "interactive",
		Script:      script,
		Predicate:   Expr(`trace[0][2] == 32.1`),
		Interactive: true,
		Inputs:      []string{"32.1"},
	}.Run(context.Background(), runner)

	assert.True(t, c.Pass, c.Output)
	assert.Contains(t, c.Output, "? (in JSON)   32.1\n")
	assert.Same(t, rec, runner.Runtime.Recorder)
	assert.False(t, rec.Interactive)
	assert.Nil(t, runner.Out)
}

func writeRubric(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "rubric.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testutil.Dedent(content)), 0o644))
	return path
}

func TestLoadRubric(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "solutions"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "solutions", "square.py"), []byte("wait(1)\n"), 0o644))

	path := writeRubric(t, dir, `
		name: drive_square
		description: "Drives a square"
		assertions:
		  - type: trace_count
		    method: Drivetrain.turn_for
		    count: 4
		  - type: matches_reference
		    reference: solutions/square.py
	`)

	rubric, err := LoadRubric(path)
	require.NoError(t, err)
	assert.Equal(t, "drive_square", rubric.Name)
	require.Len(t, rubric.Assertions, 2)
	assert.Equal(t, filepath.Join(dir, "solutions", "square.py"), rubric.Assertions[1].Reference)
}

func TestLoadRubricErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"unknown field", "name: x\nassertion:\n  - type: trace_count\n", "failed to parse YAML"},
		{"missing name", "assertions:\n  - type: trace_count\n    method: wait\n", "name is required"},
		{"no assertions", "name: x\n", "assertions list is required"},
		{"unknown type", "name: x\nassertions:\n  - type: final_state\n", `unknown assertion type "final_state"`},
		{"contains without method", "name: x\nassertions:\n  - type: trace_contains\n", "method is required for trace_contains"},
		{"order without methods", "name: x\nassertions:\n  - type: trace_order\n", "methods list is required"},
		{"negative count", "name: x\nassertions:\n  - type: trace_count\n    method: wait\n    count: -1\n", "count must be non-negative"},
		{"missing reference", "name: x\nassertions:\n  - type: matches_reference\n    reference: nope.py\n", "reference script not found"},
		{"bad input", "name: x\ninputs: ['{']\nassertions:\n  - type: trace_count\n    method: wait\n", "inputs[0]: not JSON"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeRubric(t, t.TempDir(), tt.content)
			_, err := LoadRubric(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadRubricMissingFile(t *testing.T) {
	_, err := LoadRubric(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read rubric file")
}

func TestRubricPasses(t *testing.T) {
	spec, err := catalog.Default()
	require.NoError(t, err)

	rubric := &Rubric{
		Name:    "drive_square",
		Catalog: spec,
		Assertions: []Assertion{
			{Type: AssertTraceCount, Method: "Drivetrain.turn_for", Count: 4},
			{Type: AssertTraceContains, Method: "Drivetrain.turn_for", Args: map[string]any{"dir": "RIGHT", "angle": 90}},
			{Type: AssertTraceContains, Method: "Drivetrain.drive_for", Args: map[string]any{"dir": "DirectionType.FORWARD", "distance": 300.0}},
			{Type: AssertTraceOrder, Methods: []string{"Drivetrain.drive_for", "Drivetrain.turn_for"}},
		},
	}

	c := rubric.Test(squareScript(t)).Run(context.Background(), newRunner(t))
	assert.True(t, c.Pass, c.Output)
	assert.Contains(t, c.Output, "rubric drive_square: 4/4 assertions passed\nTrue\n")
}

func TestRubricFailures(t *testing.T) {
	rubric := &Rubric{
		Name: "strict",
		Assertions: []Assertion{
			{Type: AssertTraceCount, Method: "Drivetrain.turn_for", Count: 3},
			{Type: AssertTraceContains, Method: "Drivetrain.turn_for", Args: map[string]any{"dir": "LEFT"}},
			{Type: AssertTraceOrder, Methods: []string{"Drivetrain.turn_for", "Drivetrain.drive_for"}},
			{Type: AssertTraceOrder, Methods: []string{"Drivetrain.stop"}},
		},
	}

	out, err := rubric.Evaluate(context.Background(), runSquare(t))
	require.NoError(t, err)

	assert.Contains(t, out, "rubric strict: 0/4 assertions passed\n")
	assert.Contains(t, out, "Assertion failed: trace_count\n  Expected: 3 calls of Drivetrain.turn_for\n  Actual: 4 calls\n")
	assert.Contains(t, out, "Assertion failed: trace_contains\n")
	assert.Contains(t, out, "Drivetrain.turn_for (pos 2) should be before Drivetrain.drive_for (pos 1)")
	assert.Contains(t, out, "missing method: Drivetrain.stop")
	assert.False(t, Passed(out))
}

func TestRubricMatchesReference(t *testing.T) {
	dir := t.TempDir()
	reference := filepath.Join(dir, "reference.py")
	require.NoError(t, os.WriteFile(reference, []byte(testutil.Dedent(`
		dt = Drivetrain(Motor(PORT1), Motor(PORT6, True))
		for _ in range(4):
		    dt.drive_for(FORWARD, 300, MM)
		    dt.turn_for(RIGHT, 90)
	`)), 0o644))

	runner := newRunner(t)
	rubric := &Rubric{
		Name:       "reference",
		Runner:     runner,
		Assertions: []Assertion{{Type: AssertMatchesReference, Reference: reference}},
	}

	c := rubric.Test(squareScript(t)).Run(context.Background(), runner)
	assert.True(t, c.Pass, c.Output)

	short := testutil.WriteScript(t, "short.py", `
		dt = Drivetrain(Motor(PORT1), Motor(PORT6, True))
		dt.drive_for(FORWARD, 300, MM)
	`)
	c = rubric.Test(short).Run(context.Background(), runner)
	assert.False(t, c.Pass)
	assert.Contains(t, c.Output, "Assertion failed: matches_reference\n")
	assert.Contains(t, c.Output, "traces differ at event 1 (a: 8 events, b: 1 event)")
}

func TestRubricMatchesReferenceInteractive(t *testing.T) {
	src := `
		h = Inertial(PORT2).heading()
		m = Motor(PORT1)
		if h > 45:
		    m.spin(FORWARD, 50)
		else:
		    m.spin(REVERSE, 50)
	`
	dir := t.TempDir()
	reference := filepath.Join(dir, "reference.py")
	require.NoError(t, os.WriteFile(reference, []byte(testutil.Dedent(src)), 0o644))

	runner := newRunner(t)
	rubric := &Rubric{
		Name:        "turn_by_heading",
		Runner:      runner,
		Interactive: true,
		Inputs:      []string{"90"},
		Assertions:  []Assertion{{Type: AssertMatchesReference, Reference: reference}},
	}

	c := rubric.Test(testutil.WriteScript(t, "student.py", src)).Run(context.Background(), runner)
	assert.True(t, c.Pass, c.Output)
	assert.Empty(t, c.Error)
	assert.Contains(t, c.Output, "rubric turn_by_heading: 1/1 assertions passed\nTrue\n")

	wrong := testutil.WriteScript(t, "wrong.py", `
		h = Inertial(PORT2).heading()
		Motor(PORT1).spin(REVERSE, 50)
	`)
	c = rubric.Test(wrong).Run(context.Background(), runner)
	assert.False(t, c.Pass)
	assert.Contains(t, c.Output, "traces differ at event 1")
}

func TestRubricReferenceWithoutRunner(t *testing.T) {
	rubric := &Rubric{
		Name:       "reference",
		Assertions: []Assertion{{Type: AssertMatchesReference, Reference: "ref.py"}},
	}
	_, err := rubric.Evaluate(context.Background(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "requires a runner")
}

func runSquare(t *testing.T) ir.Trace {
	t.Helper()
	result, err := newRunner(t).RunFile(context.Background(), squareScript(t))
	require.NoError(t, err)
	return result.Trace
}
