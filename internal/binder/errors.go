package binder

import (
	"errors"
	"fmt"
	"strings"
)

// ArgumentErrorCode categorizes argument-shape errors.
type ArgumentErrorCode string

const (
	// ErrCodeTooManyArguments indicates more positional arguments than
	// declared parameters.
	ErrCodeTooManyArguments ArgumentErrorCode = "TOO_MANY_ARGUMENTS"

	// ErrCodeMissingArguments indicates unfilled parameters without a
	// declared default.
	ErrCodeMissingArguments ArgumentErrorCode = "MISSING_ARGUMENTS"
)

// ArgumentError is a fatal argument-shape mismatch at a call.
type ArgumentError struct {
	Code ArgumentErrorCode

	// Method is the qualified method name.
	Method string

	// Declared is the declared parameter count, self included.
	Declared int

	// Given is the positional argument count, self included.
	Given int

	// Missing names the parameters that could not be filled.
	Missing []string
}

// Error implements the error interface.
func (e *ArgumentError) Error() string {
	switch e.Code {
	case ErrCodeTooManyArguments:
		return fmt.Sprintf("%s: %s() takes %d positional arguments but %d were given",
			e.Code, e.Method, e.Declared, e.Given)
	case ErrCodeMissingArguments:
		return fmt.Sprintf("%s: %s() missing %d required argument(s): %s",
			e.Code, e.Method, len(e.Missing), strings.Join(e.Missing, ", "))
	}
	return fmt.Sprintf("%s: %s()", e.Code, e.Method)
}

// IsArgumentError reports whether err is (or wraps) an ArgumentError.
func IsArgumentError(err error) bool {
	var ae *ArgumentError
	return errors.As(err, &ae)
}
