package device

import (
	"fmt"
	"hash/fnv"
	"slices"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"

	"github.com/roach88/vexharness/internal/ir"
)

// Enum is a member of a catalog enum, e.g. DirectionType.FORWARD.
type Enum struct {
	value ir.IREnum
}

var (
	_ starlark.Value      = (*Enum)(nil)
	_ starlark.Comparable = (*Enum)(nil)
	_ starlark.HasAttrs   = (*Enum)(nil)
)

// NewEnum wraps an enum member.
func NewEnum(v ir.IREnum) *Enum { return &Enum{value: v} }

// Value returns the enum member.
func (e *Enum) Value() ir.IREnum { return e.value }

func (e *Enum) String() string       { return ir.Sanitize(e.value) }
func (e *Enum) Type() string         { return e.value.Type }
func (e *Enum) Freeze()              {}
func (e *Enum) Truth() starlark.Bool { return starlark.True }

func (e *Enum) Hash() (uint32, error) {
	h := fnv.New32a()
	h.Write([]byte(e.String()))
	return h.Sum32(), nil
}

func (e *Enum) CompareSameType(op syntax.Token, y starlark.Value, depth int) (bool, error) {
	other := y.(*Enum)
	switch op {
	case syntax.EQL:
		return e.value == other.value, nil
	case syntax.NEQ:
		return e.value != other.value, nil
	default:
		return false, fmt.Errorf("%s %s %s not implemented", e.Type(), op, other.Type())
	}
}

// Attr exposes .name and .value like Python enum members.
func (e *Enum) Attr(name string) (starlark.Value, error) {
	switch name {
	case "name", "value":
		return starlark.String(e.value.Member), nil
	}
	return nil, nil
}

func (e *Enum) AttrNames() []string { return []string{"name", "value"} }

// EnumType is the namespace holding an enum's members: DirectionType.FORWARD.
type EnumType struct {
	spec *ir.EnumSpec
}

var _ starlark.HasAttrs = (*EnumType)(nil)

func (t *EnumType) String() string       { return fmt.Sprintf("<enum %s>", t.spec.Name) }
func (t *EnumType) Type() string         { return "enum_type" }
func (t *EnumType) Freeze()              {}
func (t *EnumType) Truth() starlark.Bool { return starlark.True }

func (t *EnumType) Hash() (uint32, error) {
	return 0, fmt.Errorf("unhashable type: %s", t.Type())
}

func (t *EnumType) Attr(name string) (starlark.Value, error) {
	if m, ok := t.spec.Member(name); ok {
		return &Enum{value: m}, nil
	}
	return nil, nil
}

func (t *EnumType) AttrNames() []string {
	return slices.Sorted(slices.Values(t.spec.Members))
}
