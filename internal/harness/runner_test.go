package harness

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.starlark.net/starlark"

	"github.com/roach88/vexharness/internal/catalog"
	"github.com/roach88/vexharness/internal/device"
	"github.com/roach88/vexharness/internal/eventlog"
	"github.com/roach88/vexharness/internal/instrument"
	"github.com/roach88/vexharness/internal/ir"
	"github.com/roach88/vexharness/internal/testutil"
)

func newRunner(t *testing.T) (*Runner, *bytes.Buffer) {
	t.Helper()
	spec, err := catalog.Default()
	require.NoError(t, err)

	var out bytes.Buffer
	rt := &device.Runtime{
		Catalog:  spec,
		Recorder: &instrument.Recorder{Log: eventlog.New(), Out: &out},
	}
	return &Runner{
		Runtime: rt,
		Out:     &out,
		RunIDs:  testutil.NewFixedRunIDGenerator("run-test"),
	}, &out
}

func TestRunFilePureActuation(t *testing.T) {
	runner, out := newRunner(t)
	path := testutil.WriteScript(t, "spin.py", `
		from vex import *

		Motor(PORT1).spin(REVERSE, 99)
	`)

	result, err := runner.RunFile(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, "run-test", result.RunID)
	assert.Equal(t, path, result.Script)
	require.Len(t, result.Trace, 1)
	assert.Equal(t, "Motor.spin", result.Trace[0].Method)

	assert.Equal(t,
		"ACT: Motor(PORT1).spin(dir=DirectionType.REVERSE, velocity=99, velocityUnits=VelocityUnits.PERCENT)\n"+
			"--- event log: 1 event ---\n"+
			"[0] ACT   Motor.spin(self=Motor(PORT1), dir=DirectionType.REVERSE, velocity=99, velocityUnits=VelocityUnits.PERCENT)\n",
		out.String())

	assert.Equal(t, 0, runner.Runtime.Recorder.Log.Len(), "log is cleared after a successful run")
}

func TestRunFileGolden(t *testing.T) {
	runner, _ := newRunner(t)
	path := testutil.WriteScript(t, "spin_and_sense.py", `
		import vex

		m = Motor(PORT1)
		m.spin(REVERSE, 99)
		sensor = Inertial(PORT2)
		sensor.heading(DEGREES, set=[10])
		sensor.heading(DEGREES)
	`)

	RunWithGolden(t, runner, "spin_and_sense", path)
}

func TestRunFileIsDeterministic(t *testing.T) {
	runner, _ := newRunner(t)
	path := testutil.WriteScript(t, "loop.py", `
		left = Motor(PORT1)
		dist = Distance(PORT3)
		dist.object_distance(set=[300, 200, 90])
		while dist.object_distance() > 100:
		    left.spin(FORWARD, 50)
		left.stop()
	`)

	first, err := runner.RunFile(context.Background(), path)
	require.NoError(t, err)
	second, err := runner.RunFile(context.Background(), path)
	require.NoError(t, err)

	require.Len(t, first.Trace, 6)
	assert.True(t, DiffTraces(first.Trace, second.Trace).Match)
	assert.Equal(t, ir.MustTraceDigest(first.Trace), first.Digest)
	assert.Equal(t, first.Digest, second.Digest)
}

func TestRunFileClearsBeforeRun(t *testing.T) {
	runner, _ := newRunner(t)
	runner.Runtime.Recorder.Log.Append(ir.NewActuation("Stale.event", nil))

	path := testutil.WriteScript(t, "wait.py", `wait(10)`)
	result, err := runner.RunFile(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, []string{"wait"}, result.Trace.Methods())
}

func TestRunFileScriptErrorKeepsPartialTrace(t *testing.T) {
	runner, _ := newRunner(t)
	path := testutil.WriteScript(t, "broken.py", `
		m = Motor(PORT1)
		m.spin(FORWARD, 10)
		m.spin(FORWARD, 20)
		fail("motor jammed")
	`)

	_, err := runner.RunFile(context.Background(), path)
	require.Error(t, err)

	var se *ScriptError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, path, se.Script)
	assert.Equal(t, "run-test", se.RunID)
	assert.Contains(t, err.Error(), "motor jammed")
	assert.Contains(t, se.Backtrace(), "motor jammed")

	var evalErr *starlark.EvalError
	assert.ErrorAs(t, err, &evalErr, "the interpreter error is kept")

	assert.Equal(t, 2, runner.Runtime.Recorder.Log.Len())
}

func TestRunFileArgumentError(t *testing.T) {
	runner, _ := newRunner(t)
	path := testutil.WriteScript(t, "bad_args.py", `Motor(PORT1).spin(FORWARD, 1, PCT, 4)`)

	_, err := runner.RunFile(context.Background(), path)
	require.Error(t, err)
	assert.True(t, IsScriptError(err))
	assert.Contains(t, err.Error(), "TOO_MANY_ARGUMENTS")
}

func TestRunFileSyntaxError(t *testing.T) {
	runner, _ := newRunner(t)
	path := testutil.WriteScript(t, "syntax.py", `
		def broken(:
		    pass
	`)

	_, err := runner.RunFile(context.Background(), path)
	require.Error(t, err)
	assert.True(t, IsScriptError(err))
}

func TestRunFileUndefinedName(t *testing.T) {
	runner, _ := newRunner(t)
	path := testutil.WriteScript(t, "undefined.py", `Servo(PORT1).spin()`)

	_, err := runner.RunFile(context.Background(), path)
	require.Error(t, err)
	assert.True(t, IsScriptError(err))
	assert.Contains(t, err.Error(), "Servo")
}

func TestRunFileMissing(t *testing.T) {
	runner, _ := newRunner(t)

	_, err := runner.RunFile(context.Background(), filepath.Join(t.TempDir(), "nope.py"))
	require.Error(t, err)
	assert.False(t, IsScriptError(err))
	assert.Contains(t, err.Error(), "read script")
}

func TestRunFileInvalidUTF8(t *testing.T) {
	runner, _ := newRunner(t)
	path := filepath.Join(t.TempDir(), "latin1.py")
	require.NoError(t, os.WriteFile(path, []byte("print('caf\xe9')\n"), 0o644))

	_, err := runner.RunFile(context.Background(), path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid UTF-8")
}

func TestRunFilePrint(t *testing.T) {
	runner, out := newRunner(t)
	path := testutil.WriteScript(t, "hello.py", `print("hello", 42)`)

	_, err := runner.RunFile(context.Background(), path)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "hello 42\n")
}

func TestRunFileCancelled(t *testing.T) {
	runner, _ := newRunner(t)
	path := testutil.WriteScript(t, "forever.py", `
		while True:
		    pass
	`)

	ctx, cancel := context.WithCancelCause(context.Background())
	cancel(errors.New("deadline for student run"))

	_, err := runner.RunFile(ctx, path)
	require.Error(t, err)
	assert.True(t, IsScriptError(err))
	assert.Contains(t, err.Error(), "deadline for student run")
}

func TestRunFileTopLevelControl(t *testing.T) {
	runner, _ := newRunner(t)
	path := testutil.WriteScript(t, "square.py", `
		dt = Drivetrain(Motor(PORT1), Motor(PORT6, True))
		count = 0
		for side in range(4):
		    dt.drive_for(FORWARD, 200, MM)
		    dt.turn_for(RIGHT, 90, DEGREES)
		    count += 1
		if count == 4:
		    dt.stop()
	`)

	result, err := runner.RunFile(context.Background(), path)
	require.NoError(t, err)
	assert.Len(t, result.Trace, 9)
}

func TestStripImports(t *testing.T) {
	src := "from vex import *\nimport vex\n  import vex as v\nimport vexation\nm = 1\r\nfrom vex import Motor, PORT1\r\n"
	want := "\n\n\nimport vexation\nm = 1\r\n\n"
	assert.Equal(t, want, string(stripImports([]byte(src))))
}

func TestFindFunction(t *testing.T) {
	path := testutil.WriteScript(t, "defs.py", `
		def drive():
		    pass

		if True:
		    def nested():
		        pass
	`)
	f, err := Parse(path)
	require.NoError(t, err)

	assert.NoError(t, FindFunction(f, "drive"))

	err = FindFunction(f, "nested")
	require.Error(t, err)
	assert.True(t, IsNoSuchFunction(err))
	assert.Contains(t, err.Error(), path)
}

func TestUUIDv7Generator(t *testing.T) {
	a := UUIDv7Generator{}.Generate()
	b := UUIDv7Generator{}.Generate()
	assert.Len(t, a, 36)
	assert.NotEqual(t, a, b)
}
