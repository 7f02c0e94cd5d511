package instrument

import (
	"errors"
	"fmt"

	"github.com/roach88/vexharness/internal/ir"
)

// DefaultMaxEvents is the event limit the command line applies to a run.
// A student loop such as "while True: m.spin(FORWARD)" hits it instead of
// running forever.
const DefaultMaxEvents = 100_000

// EventLimitError is returned when a run tries to record more events than
// Recorder.MaxEvents allows.
//
// It stops the script like any other device error. The events recorded
// before the limit stay in the log.
type EventLimitError struct {
	Method string // The call that would have exceeded the limit
	Events int    // Number of events including the rejected call
	Limit  int    // Maximum allowed events
}

// Error implements the error interface.
func (e *EventLimitError) Error() string {
	return fmt.Sprintf("%s: event limit exceeded: %d events > %d limit",
		e.Method, e.Events, e.Limit)
}

// IsEventLimitError returns true if the error is an EventLimitError.
// Uses errors.As to handle wrapped errors.
func IsEventLimitError(err error) bool {
	var le *EventLimitError
	return errors.As(err, &le)
}

// checkQuota is called before every call is recorded. Zero MaxEvents means
// no limit.
func (r *Recorder) checkQuota(sig *ir.MethodSig) error {
	if r.MaxEvents <= 0 {
		return nil
	}
	if n := r.Log.Len() + 1; n > r.MaxEvents {
		return &EventLimitError{
			Method: sig.Qualified(),
			Events: n,
			Limit:  r.MaxEvents,
		}
	}
	return nil
}
