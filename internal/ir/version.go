package ir

// Version constants for the trace format and harness.
const (
	// TraceVersion is the structured trace format version.
	TraceVersion = "1"

	// HarnessVersion is the vexharness release.
	HarnessVersion = "0.1.0"
)
