package ir

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// EventKind distinguishes actuation from sensing events.
type EventKind string

const (
	// KindAct marks a call that commanded hardware.
	KindAct EventKind = "act"
	// KindSense marks a call that read hardware.
	KindSense EventKind = "sense"
)

// Event is one recorded device call.
//
// Actuation events are the pair (Method, Args). Sensing events are the
// triple (Method, Args, Return). Args includes self for methods that
// declare it so downstream diffing can tell devices apart.
type Event struct {
	Kind   EventKind
	Method string // qualified method name, e.g. "Motor.spin"
	Args   Args
	Return IRValue // sensing events only

	// Annotation is the declared return type hint, if any. It is carried for
	// trace output and is not part of event equality.
	Annotation string
}

// Trace is an ordered sequence of events for one script run.
type Trace []Event

// NewActuation builds an actuation event.
func NewActuation(method string, args Args) Event {
	return Event{Kind: KindAct, Method: method, Args: args}
}

// NewSensing builds a sensing event.
func NewSensing(method string, args Args, ret IRValue) Event {
	if ret == nil {
		ret = IRNull{}
	}
	return Event{Kind: KindSense, Method: method, Args: args, Return: ret}
}

// IsSensing reports whether the event carries a return value.
func (e Event) IsSensing() bool {
	return e.Kind == KindSense
}

// Equal compares two events after normalization.
func (e Event) Equal(other Event) bool {
	if e.Kind != other.Kind || e.Method != other.Method {
		return false
	}
	if !e.Args.Equal(other.Args) {
		return false
	}
	if e.IsSensing() {
		return Equal(e.Return, other.Return)
	}
	return true
}

// String renders the event in the structured text form used by the runner's
// pretty printer: Method(k=v, ...) for actuations and
// Method(k=v, ...) -> value for sensings.
func (e Event) String() string {
	var b strings.Builder
	b.WriteString(e.Method)
	b.WriteByte('(')
	b.WriteString(e.Args.Format())
	b.WriteByte(')')
	if e.IsSensing() {
		b.WriteString(" -> ")
		writeSanitized(&b, e.Return)
	}
	return b.String()
}

// MarshalJSON renders the event as {"kind","method","args"[,"return"]}.
func (e Event) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, `{"kind":%q,"method":`, string(e.Kind))
	methodBytes, err := json.Marshal(e.Method)
	if err != nil {
		return nil, err
	}
	buf.Write(methodBytes)

	buf.WriteString(`,"args":`)
	argBytes, err := e.Args.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("event %s: %w", e.Method, err)
	}
	buf.Write(argBytes)

	if e.IsSensing() {
		buf.WriteString(`,"return":`)
		retBytes, err := MarshalIRValue(e.Return)
		if err != nil {
			return nil, fmt.Errorf("event %s return: %w", e.Method, err)
		}
		buf.Write(retBytes)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// MarshalCanonical renders the trace as canonical JSON: one array element
// per event, args in declared order, enums and devices tagged.
func (t Trace) MarshalCanonical() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, e := range t {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteString(`{"args":`)
		argBytes, err := marshalCanonicalArgs(e.Args)
		if err != nil {
			return nil, fmt.Errorf("event[%d]: %w", i, err)
		}
		buf.Write(argBytes)
		buf.WriteString(`,"kind":`)
		buf.WriteString(strconvQuote(string(e.Kind)))
		buf.WriteString(`,"method":`)
		methodBytes, err := marshalCanonicalString(e.Method)
		if err != nil {
			return nil, fmt.Errorf("event[%d]: %w", i, err)
		}
		buf.Write(methodBytes)
		if e.IsSensing() {
			buf.WriteString(`,"return":`)
			retBytes, err := marshalCanonical(e.Return)
			if err != nil {
				return nil, fmt.Errorf("event[%d] return: %w", i, err)
			}
			buf.Write(retBytes)
		}
		buf.WriteByte('}')
	}
	buf.WriteByte(']')
	return buf.Bytes(), nil
}

func strconvQuote(s string) string {
	b, _ := marshalCanonicalString(s)
	return string(b)
}

// Methods returns the qualified method names of the trace, in order.
func (t Trace) Methods() []string {
	methods := make([]string, len(t))
	for i, e := range t {
		methods[i] = e.Method
	}
	return methods
}
