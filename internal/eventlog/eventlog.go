// Package eventlog is the ordered, append-only, in-memory record of device
// calls made during one script run.
//
// The log has no internal locking: a run is single-threaded and only the
// instrumentation wrappers append to it.
package eventlog

import (
	"github.com/roach88/vexharness/internal/ir"
)

// Log is an append-only sequence of events with explicit reset.
type Log struct {
	events ir.Trace
}

// Default is the process-wide log. The pointer never changes; clears reset
// its contents, so handles held elsewhere stay valid.
var Default = New()

// New returns an empty log.
func New() *Log {
	return &Log{}
}

// Append records an event and returns its index.
func (l *Log) Append(e ir.Event) int {
	l.events = append(l.events, e)
	return len(l.events) - 1
}

// Len returns the number of recorded events.
func (l *Log) Len() int {
	return len(l.events)
}

// Snapshot returns a copy of the recorded events without clearing.
func (l *Log) Snapshot() ir.Trace {
	out := make(ir.Trace, len(l.events))
	copy(out, l.events)
	return out
}

// SnapshotAndClear returns the recorded events and empties the log.
func (l *Log) SnapshotAndClear() ir.Trace {
	out := l.events
	if out == nil {
		out = ir.Trace{}
	}
	l.events = nil
	return out
}

// Clear empties the log.
func (l *Log) Clear() {
	l.events = nil
}
