// Package harness runs student scripts against the instrumented device
// catalog and compares the event logs they produce.
//
// # Running
//
// A Runner evaluates one script per call. The event log is cleared before
// evaluation and snapshot-and-cleared after it, so sequential runs in one
// process are independent:
//
//	runner := harness.NewRunner(rt)
//	result, err := runner.RunFile(ctx, "drive.py")
//	if err != nil {
//	    // The partial trace is still in rt.Recorder.Log until the next run.
//	    log.Fatal(err)
//	}
//
// Scripts are written in the Python dialect accepted by Starlark. Lines
// importing the vex module are blanked before parsing since every catalog
// name is predeclared.
//
// # Comparing
//
// Compare runs two scripts end to end, or calls one named top-level
// function in each, and diffs the two traces element by element:
//
//	diff, err := harness.Compare(ctx, runner, "a.py", "b.py", harness.CompareOptions{
//	    Function:     "drive_square",
//	    ContextFile:  "robot_config.py",
//	    FunctionArgs: args,
//	})
//	if !diff.Match {
//	    diff.Format(os.Stdout)
//	}
//
// A mismatch carries the first differing index and ContextWindow events on
// either side of it.
//
// # Golden traces
//
// AssertGolden compares a trace's canonical JSON against
// testdata/golden/<name>.golden. Regenerate with:
//
//	go test ./internal/harness -update
package harness
