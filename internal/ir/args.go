package ir

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// SelfParam is the name of the receiver parameter in declared signatures.
const SelfParam = "self"

// Arg is one bound argument: a declared parameter name and its value.
type Arg struct {
	Name  string
	Value IRValue
}

// Args is an ordered name→value mapping in declared parameter order.
type Args []Arg

// Get returns the value bound to name.
func (a Args) Get(name string) (IRValue, bool) {
	for _, arg := range a {
		if arg.Name == name {
			return arg.Value, true
		}
	}
	return nil, false
}

// Names returns the parameter names in order.
func (a Args) Names() []string {
	names := make([]string, len(a))
	for i, arg := range a {
		names[i] = arg.Name
	}
	return names
}

// Self returns the bound receiver, if the method declares one.
func (a Args) Self() (IRValue, bool) {
	if len(a) > 0 && a[0].Name == SelfParam {
		return a[0].Value, true
	}
	return nil, false
}

// WithoutSelf returns the arguments with the receiver removed.
func (a Args) WithoutSelf() Args {
	if _, ok := a.Self(); ok {
		return a[1:]
	}
	return a
}

// Tuple returns the canonical argument-tuple key: the self-excluded
// (name, value) pairs in declared order. Two calls share a key iff their
// tuples are element-wise equal after normalization.
func (a Args) Tuple() string {
	return CanonicalKey(a.WithoutSelf())
}

// Format renders the arguments as "k1=v1, k2=v2" with sanitized values.
func (a Args) Format() string {
	var b strings.Builder
	for i, arg := range a {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(arg.Name)
		b.WriteByte('=')
		writeSanitized(&b, arg.Value)
	}
	return b.String()
}

// Equal compares two argument maps: same names in the same order with
// equal values.
func (a Args) Equal(other Args) bool {
	if len(a) != len(other) {
		return false
	}
	for i := range a {
		if a[i].Name != other[i].Name || !Equal(a[i].Value, other[i].Value) {
			return false
		}
	}
	return true
}

// MarshalJSON renders the arguments as a JSON object in declared order.
func (a Args) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, arg := range a {
		if i > 0 {
			buf.WriteByte(',')
		}
		keyBytes, err := json.Marshal(arg.Name)
		if err != nil {
			return nil, err
		}
		buf.Write(keyBytes)
		buf.WriteByte(':')

		valBytes, err := MarshalIRValue(arg.Value)
		if err != nil {
			return nil, fmt.Errorf("arg %q: %w", arg.Name, err)
		}
		buf.Write(valBytes)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
