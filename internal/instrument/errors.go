package instrument

import (
	"errors"
	"fmt"
)

// InputErrorCode categorizes interactive input failures.
type InputErrorCode string

const (
	// ErrCodeInputParse indicates a line that is not a JSON value.
	ErrCodeInputParse InputErrorCode = "INPUT_PARSE"

	// ErrCodeInputExhausted indicates the input stream ended before a value
	// was read.
	ErrCodeInputExhausted InputErrorCode = "INPUT_EXHAUSTED"
)

// InputError is a failed interactive sensor read. It is fatal to the
// current call only.
type InputError struct {
	Code   InputErrorCode
	Method string // qualified sensor method
	Input  string // the offending line, for parse errors
	Err    error
}

// Error implements the error interface.
func (e *InputError) Error() string {
	switch e.Code {
	case ErrCodeInputParse:
		return fmt.Sprintf("%s: %s: cannot parse %q as JSON: %v", e.Code, e.Method, e.Input, e.Err)
	case ErrCodeInputExhausted:
		return fmt.Sprintf("%s: %s: no input left for interactive sensor", e.Code, e.Method)
	}
	return fmt.Sprintf("%s: %s: %v", e.Code, e.Method, e.Err)
}

// Unwrap returns the underlying error.
func (e *InputError) Unwrap() error {
	return e.Err
}

// IsInputError reports whether err is (or wraps) an InputError.
func IsInputError(err error) bool {
	var ie *InputError
	return errors.As(err, &ie)
}
