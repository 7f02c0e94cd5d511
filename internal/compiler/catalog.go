package compiler

import (
	"fmt"
	"strings"

	"cuelang.org/go/cue"

	"github.com/roach88/vexharness/internal/ir"
)

// CompileCatalog parses a whole device catalog:
//
//	enum:     {DirectionType: ["FORWARD", "REVERSE"]}
//	constant: {FORWARD: "DirectionType.FORWARD"}
//	function: {wait: {kind: "act", params: [...]}}
//	class:    {Motor: {init: [...], method: {...}}}
//
// Enums and constants are compiled first so that parameter defaults may
// refer to them with ref: "PCT" or ref: "PercentUnits.PERCENT".
func CompileCatalog(v cue.Value) (*ir.CatalogSpec, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	spec := &ir.CatalogSpec{}

	var err error
	if spec.Enums, err = compileEnums(v); err != nil {
		return nil, err
	}
	if spec.Constants, err = compileConstants(v, spec.Enums); err != nil {
		return nil, err
	}

	resolve := spec.Resolve

	funcVal := v.LookupPath(cue.ParsePath("function"))
	if funcVal.Exists() {
		iter, err := funcVal.Fields()
		if err != nil {
			return nil, formatCUEError(err)
		}
		for iter.Next() {
			sig, err := CompileMethod(iter.Value(), "", resolve)
			if err != nil {
				return nil, err
			}
			spec.Functions = append(spec.Functions, *sig)
		}
	}

	classVal := v.LookupPath(cue.ParsePath("class"))
	if classVal.Exists() {
		iter, err := classVal.Fields()
		if err != nil {
			return nil, formatCUEError(err)
		}
		for iter.Next() {
			class, err := CompileClass(iter.Value(), resolve)
			if err != nil {
				return nil, err
			}
			spec.Classes = append(spec.Classes, *class)
		}
	}

	if errs := Validate(spec); len(errs) > 0 {
		return nil, &CompileError{
			Field:   errs[0].Field,
			Message: fmt.Sprintf("[%s] %s", errs[0].Code, errs[0].Message),
			Pos:     v.Pos(),
		}
	}

	return spec, nil
}

func compileEnums(v cue.Value) ([]ir.EnumSpec, error) {
	enumVal := v.LookupPath(cue.ParsePath("enum"))
	if !enumVal.Exists() {
		return nil, nil
	}

	iter, err := enumVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var enums []ir.EnumSpec
	for iter.Next() {
		members, err := stringList(iter.Value())
		if err != nil {
			return nil, err
		}
		if len(members) == 0 {
			return nil, &CompileError{
				Field:   "enum." + iter.Label(),
				Message: "an enum needs at least one member",
				Pos:     iter.Value().Pos(),
			}
		}
		enums = append(enums, ir.EnumSpec{Name: iter.Label(), Members: members})
	}
	return enums, nil
}

// compileConstants resolves constant: {NAME: "Type.MEMBER" | literal}.
// String constants that name an enum member become that member; any other
// string stays a string literal.
func compileConstants(v cue.Value, enums []ir.EnumSpec) ([]ir.Constant, error) {
	constVal := v.LookupPath(cue.ParsePath("constant"))
	if !constVal.Exists() {
		return nil, nil
	}

	iter, err := constVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var consts []ir.Constant
	for iter.Next() {
		value, err := literalValue(iter.Value())
		if err != nil {
			return nil, err
		}
		if s, ok := value.(ir.IRString); ok {
			if member, ok := lookupEnumMember(enums, string(s)); ok {
				value = member
			}
		}
		consts = append(consts, ir.Constant{Name: iter.Label(), Value: value})
	}
	return consts, nil
}

func lookupEnumMember(enums []ir.EnumSpec, ref string) (ir.IREnum, bool) {
	typeName, member, ok := strings.Cut(ref, ".")
	if !ok {
		return ir.IREnum{}, false
	}
	for i := range enums {
		if enums[i].Name == typeName {
			return enums[i].Member(member)
		}
	}
	return ir.IREnum{}, false
}

func stringList(v cue.Value) ([]string, error) {
	iter, err := v.List()
	if err != nil {
		return nil, formatCUEError(err)
	}
	var out []string
	for iter.Next() {
		s, err := iter.Value().String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		out = append(out, s)
	}
	return out, nil
}
