package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/vexharness/internal/testutil"
)

const forwardScript = `
	m = Motor(PORT1)
	m.spin(FORWARD, 50)
	m.stop()
`

func writeRubric(t *testing.T, src string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rubric.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testutil.Dedent(src)), 0o644))
	return path
}

func TestGradePredicatePass(t *testing.T) {
	script := testutil.WriteScript(t, "forward.py", forwardScript)

	res := execute(t, nil, "grade", script,
		"--predicate", `len(trace) == 2 and trace[0][1]["dir"] == FORWARD and methods[-1] == "Motor.stop"`)
	require.NoError(t, res.err)
	assert.True(t, strings.HasPrefix(res.stdout, "ACT: Motor(PORT1).spin("), res.stdout)
	assert.True(t, strings.HasSuffix(res.stdout, "--- event log: 2 events ---\n"+
		"[0] ACT   Motor.spin(self=Motor(PORT1), dir=DirectionType.FORWARD, velocity=50, velocityUnits=VelocityUnits.PERCENT)\n"+
		"[1] ACT   Motor.stop(self=Motor(PORT1), mode=None)\n"+
		"True\n"), res.stdout)
}

func TestGradePredicateFail(t *testing.T) {
	script := testutil.WriteScript(t, "forward.py", forwardScript)

	res := execute(t, nil, "grade", script, "--predicate", `len(trace) == 3`)
	require.Error(t, res.err)
	assert.Equal(t, ExitFailure, GetExitCode(res.err))
	assert.True(t, IsReported(res.err))
	assert.True(t, strings.HasSuffix(res.stdout, "False\n"), res.stdout)
}

func TestGradeScriptError(t *testing.T) {
	script := testutil.WriteScript(t, "crash.py", `fail("no motor")`)

	res := execute(t, nil, "grade", script, "--predicate", `True`)
	require.Error(t, res.err)
	assert.Equal(t, ExitFailure, GetExitCode(res.err))
	assert.Contains(t, res.stdout, "no motor")
	assert.False(t, strings.HasSuffix(strings.TrimSpace(res.stdout), "True"))
}

func TestGradeRubric(t *testing.T) {
	script := testutil.WriteScript(t, "forward.py", forwardScript)
	rubric := writeRubric(t, `
		name: forward
		description: Spin forward then stop
		assertions:
		  - type: trace_contains
		    method: Motor.spin
		    args: {dir: FORWARD, velocity: 50}
		  - type: trace_order
		    methods: [Motor.spin, Motor.stop]
		  - type: trace_count
		    method: Motor.spin
		    count: 1
	`)

	res := execute(t, nil, "grade", script, "--rubric", rubric)
	require.NoError(t, res.err)
	assert.True(t, strings.HasSuffix(res.stdout, "rubric forward: 3/3 assertions passed\nTrue\n"), res.stdout)
}

func TestGradeRubricFailureJSON(t *testing.T) {
	script := testutil.WriteScript(t, "forward.py", forwardScript)
	rubric := writeRubric(t, `
		name: twice
		assertions:
		  - type: trace_count
		    method: Motor.spin
		    count: 2
	`)

	res := execute(t, nil, "grade", "--format", "json", "--name", "spin-twice", script, "--rubric", rubric)
	require.Error(t, res.err)
	assert.Equal(t, ExitFailure, GetExitCode(res.err))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeGradeFailed, resp.Error.Code)

	data, ok := resp.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "spin-twice", data["name"])
	assert.Equal(t, false, data["pass"])
	assert.Contains(t, data["output"], "Expected: 2 calls of Motor.spin")
}

func TestGradeFlagErrors(t *testing.T) {
	script := testutil.WriteScript(t, "forward.py", forwardScript)
	badRubric := writeRubric(t, `
		name: broken
		assertions:
		  - type: trace_sorted
	`)

	tests := []struct {
		name     string
		args     []string
		wantCode string
	}{
		{"neither", []string{}, "E004"},
		{"both", []string{"--predicate", "True", "--rubric", badRubric}, "E004"},
		{"invalid rubric", []string{"--rubric", badRubric}, "E104"},
		{"missing rubric", []string{"--rubric", filepath.Join(t.TempDir(), "none.yaml")}, "E104"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"grade", script}, tt.args...)
			res := execute(t, nil, args...)
			require.Error(t, res.err)
			assert.Equal(t, ExitCommandError, GetExitCode(res.err))
			assert.Contains(t, res.stderr, "Error ["+tt.wantCode+"]")
		})
	}
}
