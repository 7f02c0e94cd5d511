package compiler

import (
	"fmt"

	"cuelang.org/go/cue"

	"github.com/roach88/vexharness/internal/ir"
)

// RefResolver turns a default reference ("PCT", "DirectionType.FORWARD")
// into a value.
type RefResolver func(ref string) (ir.IRValue, bool)

// CompileClass parses a CUE value into a ClassSpec.
// Uses CUE SDK's Go API directly (not CLI subprocess).
//
// The CUE value should be the class struct itself, e.g.:
//
//	ctx := cuecontext.New()
//	v := ctx.CompileString(`class: Motor: { ... }`)
//	spec, err := CompileClass(v.LookupPath(cue.ParsePath("class.Motor")), resolve)
func CompileClass(v cue.Value, resolve RefResolver) (*ir.ClassSpec, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	spec := &ir.ClassSpec{}

	// Class name is the struct label (the last path selector)
	labels := v.Path().Selectors()
	if len(labels) > 0 {
		spec.Name = labels[len(labels)-1].String()
	}

	var err error
	if spec.Doc, err = optionalString(v, "doc"); err != nil {
		return nil, err
	}

	singletonVal := v.LookupPath(cue.ParsePath("singleton"))
	if singletonVal.Exists() {
		if spec.Singleton, err = singletonVal.Bool(); err != nil {
			return nil, formatCUEError(err)
		}
	}

	// Constructor parameters (optional, can be empty)
	initVal := v.LookupPath(cue.ParsePath("init"))
	if initVal.Exists() {
		spec.Init, err = parseParams(initVal, spec.Name+".init", resolve)
		if err != nil {
			return nil, err
		}
	}

	spec.Props, err = parseProps(v)
	if err != nil {
		return nil, err
	}

	methodVal := v.LookupPath(cue.ParsePath("method"))
	if methodVal.Exists() {
		iter, err := methodVal.Fields()
		if err != nil {
			return nil, formatCUEError(err)
		}
		for iter.Next() {
			sig, err := CompileMethod(iter.Value(), spec.Name, resolve)
			if err != nil {
				return nil, err
			}
			spec.Methods = append(spec.Methods, *sig)
		}
	}

	if len(spec.Methods) == 0 && len(spec.Props) == 0 {
		return nil, &CompileError{
			Field:   "class." + spec.Name,
			Message: "a class needs at least one method or property",
			Pos:     v.Pos(),
		}
	}

	return spec, nil
}

// CompileMethod parses one method (or free function, when class is empty).
func CompileMethod(v cue.Value, class string, resolve RefResolver) (*ir.MethodSig, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	sig := &ir.MethodSig{Class: class, HasSelf: class != ""}
	labels := v.Path().Selectors()
	if len(labels) > 0 {
		sig.Name = labels[len(labels)-1].String()
	}
	field := sig.Qualified()

	kindVal := v.LookupPath(cue.ParsePath("kind"))
	if !kindVal.Exists() {
		return nil, &CompileError{
			Field:   field + ".kind",
			Message: "kind is required (act or sense)",
			Pos:     v.Pos(),
		}
	}
	kind, err := kindVal.String()
	if err != nil {
		return nil, formatCUEError(err)
	}
	sig.Kind = ir.MethodKind(kind)

	// Free functions may opt into a receiver-less sensor; methods may opt out
	// of self for static helpers.
	selfVal := v.LookupPath(cue.ParsePath("self"))
	if selfVal.Exists() {
		if sig.HasSelf, err = selfVal.Bool(); err != nil {
			return nil, formatCUEError(err)
		}
	}

	paramsVal := v.LookupPath(cue.ParsePath("params"))
	if paramsVal.Exists() {
		sig.Params, err = parseParams(paramsVal, field, resolve)
		if err != nil {
			return nil, err
		}
	}

	if sig.Returns, err = optionalString(v, "returns"); err != nil {
		return nil, err
	}
	if sig.Doc, err = optionalString(v, "doc"); err != nil {
		return nil, err
	}

	stubVal := v.LookupPath(cue.ParsePath("stub"))
	if stubVal.Exists() {
		if sig.Kind != ir.MethodSense {
			return nil, &CompileError{
				Field:   field + ".stub",
				Message: "only sense methods declare a stub value",
				Pos:     stubVal.Pos(),
			}
		}
		sig.Stub, err = literalValue(stubVal)
		if err != nil {
			return nil, err
		}
	}

	if errs := sig.Validate(); len(errs) > 0 {
		return nil, &CompileError{
			Field:   field + "." + errs[0].Field,
			Message: errs[0].Message,
			Pos:     v.Pos(),
		}
	}

	return sig, nil
}

// parseParams extracts an ordered parameter list.
//
// Each element is {name: string, default?: literal, ref?: string}. A present
// default (including null) or ref marks the parameter as defaulted.
func parseParams(v cue.Value, field string, resolve RefResolver) ([]ir.Param, error) {
	iter, err := v.List()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var params []ir.Param
	for i := 0; iter.Next(); i++ {
		pv := iter.Value()

		name, err := pv.LookupPath(cue.ParsePath("name")).String()
		if err != nil {
			return nil, &CompileError{
				Field:   fmt.Sprintf("%s.params[%d].name", field, i),
				Message: "parameter name is required",
				Pos:     pv.Pos(),
			}
		}
		param := ir.Param{Name: name}

		defaultVal := pv.LookupPath(cue.ParsePath("default"))
		refVal := pv.LookupPath(cue.ParsePath("ref"))
		switch {
		case defaultVal.Exists() && refVal.Exists():
			return nil, &CompileError{
				Field:   fmt.Sprintf("%s.params[%d]", field, i),
				Message: "default and ref are mutually exclusive",
				Pos:     pv.Pos(),
			}
		case defaultVal.Exists():
			param.HasDefault = true
			if param.Default, err = literalValue(defaultVal); err != nil {
				return nil, err
			}
		case refVal.Exists():
			ref, err := refVal.String()
			if err != nil {
				return nil, formatCUEError(err)
			}
			value, ok := resolve(ref)
			if !ok {
				return nil, &CompileError{
					Field:   fmt.Sprintf("%s.params[%d].ref", field, i),
					Message: fmt.Sprintf("unknown constant or enum member %q", ref),
					Pos:     refVal.Pos(),
				}
			}
			param.HasDefault = true
			param.Default = value
		}

		params = append(params, param)
	}

	return params, nil
}

// parseProps extracts device-valued properties: prop: {battery: "Battery"}.
func parseProps(v cue.Value) ([]ir.Prop, error) {
	propVal := v.LookupPath(cue.ParsePath("prop"))
	if !propVal.Exists() {
		return nil, nil
	}

	iter, err := propVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var props []ir.Prop
	for iter.Next() {
		class, err := iter.Value().String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		props = append(props, ir.Prop{Name: iter.Label(), Class: class})
	}
	return props, nil
}

// literalValue converts a concrete CUE literal to an IRValue.
func literalValue(v cue.Value) (ir.IRValue, error) {
	switch v.Kind() {
	case cue.NullKind:
		return ir.IRNull{}, nil
	case cue.BoolKind:
		b, err := v.Bool()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return ir.IRBool(b), nil
	case cue.IntKind:
		n, err := v.Int64()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return ir.IRInt(n), nil
	case cue.FloatKind:
		f, err := v.Float64()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return ir.IRFloat(f), nil
	case cue.StringKind:
		s, err := v.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return ir.IRString(s), nil
	case cue.ListKind:
		iter, err := v.List()
		if err != nil {
			return nil, formatCUEError(err)
		}
		var arr ir.IRArray
		for iter.Next() {
			elem, err := literalValue(iter.Value())
			if err != nil {
				return nil, err
			}
			arr = append(arr, elem)
		}
		if arr == nil {
			arr = ir.IRArray{}
		}
		return arr, nil
	default:
		return nil, &CompileError{
			Field:   "literal",
			Message: fmt.Sprintf("unsupported literal kind: %v", v.IncompleteKind()),
			Pos:     v.Pos(),
		}
	}
}

// optionalString reads an optional string field.
func optionalString(v cue.Value, path string) (string, error) {
	fv := v.LookupPath(cue.ParsePath(path))
	if !fv.Exists() {
		return "", nil
	}
	s, err := fv.String()
	if err != nil {
		return "", formatCUEError(err)
	}
	return s, nil
}
