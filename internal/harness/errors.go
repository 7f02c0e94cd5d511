package harness

import (
	"errors"
	"fmt"

	"go.starlark.net/starlark"
)

// NoSuchFunctionError reports a compare-by-function request naming a
// function that a script does not define at top level.
type NoSuchFunctionError struct {
	Script   string
	Function string
}

func (e *NoSuchFunctionError) Error() string {
	return fmt.Sprintf("no such function: %s has no top-level definition of %q", e.Script, e.Function)
}

// IsNoSuchFunction reports whether err is or wraps a NoSuchFunctionError.
func IsNoSuchFunction(err error) bool {
	var nsf *NoSuchFunctionError
	return errors.As(err, &nsf)
}

// ScriptError is an error raised while evaluating a script, including
// syntax and resolution errors. Its message is the underlying error's,
// unchanged.
type ScriptError struct {
	Script string
	RunID  string
	Err    error
}

func (e *ScriptError) Error() string {
	return e.Err.Error()
}

func (e *ScriptError) Unwrap() error {
	return e.Err
}

// Backtrace returns the interpreter's call stack for evaluation errors and
// the plain message for everything else.
func (e *ScriptError) Backtrace() string {
	var evalErr *starlark.EvalError
	if errors.As(e.Err, &evalErr) {
		return evalErr.Backtrace()
	}
	return e.Err.Error()
}

// IsScriptError reports whether err is or wraps a ScriptError.
func IsScriptError(err error) bool {
	var se *ScriptError
	return errors.As(err, &se)
}
