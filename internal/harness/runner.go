package harness

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"regexp"
	"unicode/utf8"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"

	"github.com/roach88/vexharness/internal/device"
	"github.com/roach88/vexharness/internal/eventlog"
	"github.com/roach88/vexharness/internal/ir"
)

// FileOptions enables the Python constructs beginner robot programs use at
// top level.
var FileOptions = &syntax.FileOptions{
	Set:             true,
	While:           true,
	TopLevelControl: true,
	GlobalReassign:  true,
	Recursion:       true,
}

// importLine matches imports of the device module. Its members are already
// predeclared.
var importLine = regexp.MustCompile(`^\s*(from\s+vex\s+import\s+.*|import\s+vex\b.*)$`)

// Result is the outcome of one successful run.
type Result struct {
	RunID  string   `json:"run_id"`
	Script string   `json:"script"`
	Trace  ir.Trace `json:"trace"`

	// Digest is the trace's content address. Runs whose traces compare
	// equal have the same digest. Empty when the trace holds a value with
	// no canonical form, such as NaN.
	Digest string `json:"digest,omitempty"`
}

// Runner evaluates scripts against a device runtime.
type Runner struct {
	Runtime *device.Runtime

	// Out receives print() output and the pretty-printed trace.
	Out io.Writer

	Logger *slog.Logger
	RunIDs RunIDGenerator
}

// NewRunner returns a runner writing to stdout with UUIDv7 run IDs.
func NewRunner(rt *device.Runtime) *Runner {
	return &Runner{
		Runtime: rt,
		Out:     os.Stdout,
		RunIDs:  UUIDv7Generator{},
	}
}

func (r *Runner) logger() *slog.Logger {
	if r.Logger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return r.Logger
}

func (r *Runner) out() io.Writer {
	if r.Out == nil {
		return io.Discard
	}
	return r.Out
}

func (r *Runner) nextRunID() string {
	if r.RunIDs == nil {
		return UUIDv7Generator{}.Generate()
	}
	return r.RunIDs.Generate()
}

func (r *Runner) log() *eventlog.Log {
	return r.Runtime.Recorder.Log
}

// Parse reads a script as strict UTF-8 and parses it. Syntax errors are
// returned as *ScriptError; read errors are returned wrapped.
func Parse(path string) (*syntax.File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read script: %w", err)
	}
	if !utf8.Valid(data) {
		return nil, fmt.Errorf("read script %s: invalid UTF-8", path)
	}

	f, err := FileOptions.Parse(path, stripImports(data), 0)
	if err != nil {
		return nil, &ScriptError{Script: path, Err: err}
	}
	return f, nil
}

// stripImports blanks device-module import lines. Line numbers are kept so
// error positions still point at the student's source.
func stripImports(src []byte) []byte {
	lines := bytes.Split(src, []byte("\n"))
	for i, line := range lines {
		if importLine.Match(bytes.TrimRight(line, "\r")) {
			lines[i] = nil
		}
	}
	return bytes.Join(lines, []byte("\n"))
}

// RunFile parses and runs the script at path.
func (r *Runner) RunFile(ctx context.Context, path string) (*Result, error) {
	f, err := Parse(path)
	if err != nil {
		return nil, err
	}
	return r.RunModule(ctx, f)
}

// RunModule runs an already-parsed script. A parsed file can be run only
// once since running resolves it in place.
//
// On error the event log keeps the partial trace until the next run.
func (r *Runner) RunModule(ctx context.Context, f *syntax.File) (*Result, error) {
	runID := r.nextRunID()
	log := r.log()
	log.Clear()

	r.logger().Debug("run started", "run_id", runID, "script", f.Path)

	thread, stop := r.newThread(ctx, f.Path)
	defer stop()

	if _, err := execFile(thread, f, device.Universe(r.Runtime)); err != nil {
		r.logger().Debug("run failed", "run_id", runID, "script", f.Path, "events", log.Len(), "error", err)
		return nil, &ScriptError{Script: f.Path, RunID: runID, Err: err}
	}

	return r.finish(runID, f.Path)
}

// CallFunction calls the top-level function name defined in f under a fresh
// event log. Only f's def statements are evaluated. contextFile, when set,
// is evaluated first and its globals are visible to the function.
func (r *Runner) CallFunction(ctx context.Context, f *syntax.File, name, contextFile string, args FuncArgs) (*Result, error) {
	if err := FindFunction(f, name); err != nil {
		return nil, err
	}

	runID := r.nextRunID()
	log := r.log()
	log.Clear()

	r.logger().Debug("call started", "run_id", runID, "script", f.Path, "function", name, "context", contextFile)

	thread, stop := r.newThread(ctx, f.Path)
	defer stop()

	predeclared := device.Universe(r.Runtime)
	if contextFile != "" {
		cf, err := Parse(contextFile)
		if err != nil {
			return nil, err
		}
		globals, err := execFile(thread, cf, predeclared)
		if err != nil {
			return nil, &ScriptError{Script: contextFile, RunID: runID, Err: err}
		}
		merged := make(starlark.StringDict, len(predeclared)+len(globals))
		for k, v := range predeclared {
			merged[k] = v
		}
		for k, v := range globals {
			merged[k] = v
		}
		predeclared = merged
	}

	defs := *f
	defs.Stmts = nil
	for _, stmt := range f.Stmts {
		if _, ok := stmt.(*syntax.DefStmt); ok {
			defs.Stmts = append(defs.Stmts, stmt)
		}
	}
	globals, err := execFile(thread, &defs, predeclared)
	if err != nil {
		return nil, &ScriptError{Script: f.Path, RunID: runID, Err: err}
	}

	log.Clear()
	if _, err := starlark.Call(thread, globals[name], args.positional(), args.keywords()); err != nil {
		r.logger().Debug("call failed", "run_id", runID, "function", name, "events", log.Len(), "error", err)
		return nil, &ScriptError{Script: f.Path, RunID: runID, Err: err}
	}

	return r.finish(runID, f.Path)
}

func (r *Runner) finish(runID, script string) (*Result, error) {
	trace := r.log().SnapshotAndClear()
	digest, err := ir.TraceDigest(trace)
	if err != nil {
		r.logger().Debug("trace has no digest", "run_id", runID, "error", err)
	}
	r.logger().Debug("run finished", "run_id", runID, "script", script, "events", len(trace), "digest", digest)

	if err := FormatTrace(r.out(), trace); err != nil {
		return nil, fmt.Errorf("print trace: %w", err)
	}
	return &Result{RunID: runID, Script: script, Trace: trace, Digest: digest}, nil
}

// FindFunction checks that f defines name with a top-level def.
func FindFunction(f *syntax.File, name string) error {
	for _, stmt := range f.Stmts {
		if def, ok := stmt.(*syntax.DefStmt); ok && def.Name.Name == name {
			return nil
		}
	}
	return &NoSuchFunctionError{Script: f.Path, Function: name}
}

// newThread returns a thread that is cancelled with ctx. The returned stop
// function must be called once evaluation is over.
func (r *Runner) newThread(ctx context.Context, name string) (*starlark.Thread, func()) {
	thread := &starlark.Thread{
		Name: name,
		Print: func(_ *starlark.Thread, msg string) {
			fmt.Fprintln(r.out(), msg)
		},
	}

	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			thread.Cancel(context.Cause(ctx).Error())
		case <-done:
		}
	}()
	return thread, func() { close(done) }
}

func execFile(thread *starlark.Thread, f *syntax.File, predeclared starlark.StringDict) (starlark.StringDict, error) {
	prog, err := starlark.FileProgram(f, predeclared.Has)
	if err != nil {
		return nil, err
	}
	return prog.Init(thread, predeclared)
}
