package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/vexharness/internal/ir"
)

// AssertGolden compares a trace's canonical JSON against
// testdata/golden/<name>.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func AssertGolden(t *testing.T, name string, trace ir.Trace) {
	t.Helper()

	traceJSON, err := trace.MarshalCanonical()
	if err != nil {
		t.Fatalf("marshal trace %s: %v", name, err)
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, traceJSON)
}

// RunWithGolden runs the script at path and compares its trace against
// the golden file for name.
func RunWithGolden(t *testing.T, runner *Runner, name, path string) *Result {
	t.Helper()

	result, err := runner.RunFile(t.Context(), path)
	if err != nil {
		t.Fatalf("run %s: %v", path, err)
	}
	AssertGolden(t, name, result.Trace)
	return result
}
