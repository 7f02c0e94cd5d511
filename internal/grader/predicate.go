// Package grader turns a predicate over an event log into a pass/fail test
// case for an external grading host.
//
// A case passes when its captured output, trimmed, ends with "True". The
// output is the script's trace lines and pretty-printed log followed by the
// predicate's textual result, so a predicate that prints anything else
// last fails the case.
package grader

import (
	"context"
	"fmt"

	"go.starlark.net/starlark"

	"github.com/roach88/vexharness/internal/catalog"
	"github.com/roach88/vexharness/internal/device"
	"github.com/roach88/vexharness/internal/eventlog"
	"github.com/roach88/vexharness/internal/harness"
	"github.com/roach88/vexharness/internal/instrument"
	"github.com/roach88/vexharness/internal/ir"
)

// Predicate judges a completed run's trace. Evaluate returns the textual
// form of its result; "True" means the run is accepted.
type Predicate interface {
	Evaluate(ctx context.Context, trace ir.Trace) (string, error)
}

// Func adapts a Go function to a Predicate.
type Func func(ir.Trace) bool

func (f Func) Evaluate(_ context.Context, trace ir.Trace) (string, error) {
	return pyBool(f(trace)), nil
}

// ExprPredicate evaluates a Starlark expression. The expression sees the
// catalog's enums, constants and classes, plus:
//
//	trace    list of (method, args) and (method, args, return) tuples
//	methods  list of qualified method names in call order
//
// For example: len(trace) == 4 and trace[0][1]["dir"] == FORWARD
type ExprPredicate struct {
	Source string

	// Catalog supplies predeclared names. The embedded catalog is used when
	// nil.
	Catalog *ir.CatalogSpec
}

// Expr returns an expression predicate over the embedded catalog.
func Expr(src string) *ExprPredicate {
	return &ExprPredicate{Source: src}
}

func (p *ExprPredicate) Evaluate(ctx context.Context, trace ir.Trace) (string, error) {
	spec := p.Catalog
	if spec == nil {
		var err error
		if spec, err = catalog.Default(); err != nil {
			return "", err
		}
	}

	// Device calls made by the expression are not part of the graded run.
	rt := &device.Runtime{
		Catalog:  spec,
		Recorder: &instrument.Recorder{Log: eventlog.New()},
	}
	env := device.Universe(rt)
	env["trace"] = traceValue(trace)
	env["methods"] = methodsValue(trace)

	thread := &starlark.Thread{Name: "predicate"}
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			thread.Cancel(context.Cause(ctx).Error())
		case <-done:
		}
	}()

	v, err := starlark.EvalOptions(harness.FileOptions, thread, "<predicate>", p.Source, env)
	if err != nil {
		return "", fmt.Errorf("evaluate predicate: %w", err)
	}
	return v.String(), nil
}

func traceValue(trace ir.Trace) *starlark.List {
	elems := make([]starlark.Value, len(trace))
	for i, e := range trace {
		args := starlark.NewDict(len(e.Args))
		for _, a := range e.Args {
			_ = args.SetKey(starlark.String(a.Name), device.FromIR(a.Value))
		}
		if e.IsSensing() {
			elems[i] = starlark.Tuple{starlark.String(e.Method), args, device.FromIR(e.Return)}
		} else {
			elems[i] = starlark.Tuple{starlark.String(e.Method), args}
		}
	}
	return starlark.NewList(elems)
}

func methodsValue(trace ir.Trace) *starlark.List {
	elems := make([]starlark.Value, len(trace))
	for i, m := range trace.Methods() {
		elems[i] = starlark.String(m)
	}
	return starlark.NewList(elems)
}

func pyBool(b bool) string {
	if b {
		return "True"
	}
	return "False"
}
