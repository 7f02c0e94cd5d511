package ir

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// addressPattern matches the memory address some runtimes embed in an
// object's default textual form.
var addressPattern = regexp.MustCompile(` object at 0x[0-9a-fA-F]+`)

// AbsentMarker is the rendering of IRNull.
const AbsentMarker = "None"

// StripAddress removes embedded object-memory addresses from s.
func StripAddress(s string) string {
	return addressPattern.ReplaceAllString(s, "")
}

// Sanitize renders v in a stable, identity-free form suitable for trace
// lines and diffing. Sanitizing the same value twice yields the same string.
func Sanitize(v IRValue) string {
	var b strings.Builder
	writeSanitized(&b, v)
	return b.String()
}

func writeSanitized(b *strings.Builder, v IRValue) {
	switch val := v.(type) {
	case nil, IRNull:
		b.WriteString(AbsentMarker)
	case IRString:
		b.WriteString(strconv.Quote(string(val)))
	case IRInt:
		b.WriteString(strconv.FormatInt(int64(val), 10))
	case IRFloat:
		b.WriteString(formatFloat(float64(val)))
	case IRBool:
		if val {
			b.WriteString("True")
		} else {
			b.WriteString("False")
		}
	case IRArray:
		b.WriteByte('[')
		for i, elem := range val {
			if i > 0 {
				b.WriteString(", ")
			}
			writeSanitized(b, elem)
		}
		b.WriteByte(']')
	case IRObject:
		b.WriteByte('{')
		for i, k := range val.SortedKeys() {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(strconv.Quote(k))
			b.WriteString(": ")
			writeSanitized(b, val[k])
		}
		b.WriteByte('}')
	case IREnum:
		b.WriteString(val.Type)
		b.WriteByte('.')
		b.WriteString(val.Member)
	case IRDevice:
		b.WriteString(val.Class)
		if val.Port != "" {
			b.WriteByte('(')
			b.WriteString(val.Port)
			b.WriteByte(')')
		}
	case IROpaque:
		b.WriteString(StripAddress(string(val)))
	default:
		b.WriteString(StripAddress(fmt.Sprint(v)))
	}
}

// formatFloat renders floats the way student-facing Python output does:
// integral values keep a trailing ".0".
func formatFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return "nan"
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	}
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eEn") {
		s += ".0"
	}
	return s
}

// SanitizeAny is Sanitize for arbitrary Go values. IRValues use the IR
// rules; Stringers and everything else degrade to their textual form with
// addresses stripped.
func SanitizeAny(v any) string {
	switch val := v.(type) {
	case IRValue:
		return Sanitize(val)
	case nil:
		return AbsentMarker
	case string:
		return strconv.Quote(val)
	case Args:
		return val.Format()
	case fmt.Stringer:
		return StripAddress(val.String())
	}
	if irv, err := FromGo(v); err == nil {
		return Sanitize(irv)
	}
	return StripAddress(fmt.Sprint(v))
}
