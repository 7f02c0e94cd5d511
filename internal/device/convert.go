package device

import (
	"fmt"

	"go.starlark.net/starlark"

	"github.com/roach88/vexharness/internal/ir"
)

// ToIR converts a script value to an IRValue. It never fails: values the
// IR cannot model become IROpaque with their textual form.
func ToIR(v starlark.Value) ir.IRValue {
	switch val := v.(type) {
	case nil, starlark.NoneType:
		return ir.IRNull{}
	case starlark.Bool:
		return ir.IRBool(val)
	case starlark.Int:
		if n, ok := val.Int64(); ok {
			return ir.IRInt(n)
		}
		return ir.IROpaque(val.String())
	case starlark.Float:
		return ir.IRFloat(val)
	case starlark.String:
		return ir.IRString(val)
	case *Enum:
		return val.value
	case *Instance:
		return val.device
	case *starlark.List:
		arr := make(ir.IRArray, val.Len())
		for i := range arr {
			arr[i] = ToIR(val.Index(i))
		}
		return arr
	case starlark.Tuple:
		arr := make(ir.IRArray, len(val))
		for i, elem := range val {
			arr[i] = ToIR(elem)
		}
		return arr
	case *starlark.Dict:
		obj := make(ir.IRObject, val.Len())
		for _, item := range val.Items() {
			key, ok := starlark.AsString(item[0])
			if !ok {
				key = item[0].String()
			}
			obj[key] = ToIR(item[1])
		}
		return obj
	case starlark.Callable:
		return ir.IROpaque(fmt.Sprintf("<function %s>", val.Name()))
	default:
		return ir.IROpaque(v.String())
	}
}

// ToIRList converts a tuple of positional arguments.
func ToIRList(args starlark.Tuple) []ir.IRValue {
	out := make([]ir.IRValue, len(args))
	for i, a := range args {
		out[i] = ToIR(a)
	}
	return out
}

// FromIR converts an IRValue back to a script value. Devices and opaque
// values come back as their sanitized text.
func FromIR(v ir.IRValue) starlark.Value {
	switch val := v.(type) {
	case nil, ir.IRNull:
		return starlark.None
	case ir.IRBool:
		return starlark.Bool(val)
	case ir.IRInt:
		return starlark.MakeInt64(int64(val))
	case ir.IRFloat:
		return starlark.Float(val)
	case ir.IRString:
		return starlark.String(val)
	case ir.IRArray:
		elems := make([]starlark.Value, len(val))
		for i, e := range val {
			elems[i] = FromIR(e)
		}
		return starlark.NewList(elems)
	case ir.IRObject:
		d := starlark.NewDict(len(val))
		for _, k := range val.SortedKeys() {
			_ = d.SetKey(starlark.String(k), FromIR(val[k]))
		}
		return d
	case ir.IREnum:
		return &Enum{value: val}
	default:
		return starlark.String(ir.Sanitize(v))
	}
}
