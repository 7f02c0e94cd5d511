// Package device exposes the device catalog to scripts: constructors,
// instances with instrumented methods, enums, constants and free
// functions.
package device

import (
	"go.starlark.net/starlark"
	"go.starlark.net/starlarkstruct"

	"github.com/roach88/vexharness/internal/instrument"
	"github.com/roach88/vexharness/internal/ir"
	"github.com/roach88/vexharness/internal/mockstore"
)

// ModuleName is the name scripts may use to reach catalog members
// explicitly, as in vex.Motor.
const ModuleName = "vex"

// Runtime connects script values to a catalog and a recorder.
type Runtime struct {
	Catalog  *ir.CatalogSpec
	Recorder *instrument.Recorder
}

// Universe returns the predeclared names for one script run: every class,
// enum, constant and free function, plus a vex module holding the same
// members. Each call returns fresh function values with empty mock stores.
func Universe(rt *Runtime) starlark.StringDict {
	members := make(starlark.StringDict)

	for i := range rt.Catalog.Enums {
		e := &rt.Catalog.Enums[i]
		members[e.Name] = &EnumType{spec: e}
	}
	for _, k := range rt.Catalog.Constants {
		members[k.Name] = FromIR(k.Value)
	}
	for i := range rt.Catalog.Functions {
		sig := &rt.Catalog.Functions[i]
		members[sig.Name] = &Function{sig: sig, store: mockstore.New(), rt: rt}
	}
	for i := range rt.Catalog.Classes {
		c := &rt.Catalog.Classes[i]
		members[c.Name] = &Class{spec: c, rt: rt}
	}

	universe := make(starlark.StringDict, len(members)+1)
	for name, v := range members {
		universe[name] = v
	}
	universe[ModuleName] = &starlarkstruct.Module{Name: ModuleName, Members: members}
	return universe
}

// invoke routes one instrumented call. self is nil for free functions.
func (rt *Runtime) invoke(sig *ir.MethodSig, store *mockstore.Store, self ir.IRValue, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	payload, kwargs, install := splitSet(sig, kwargs)

	positional, err := mapKeywords(sig.Qualified(), sig.Params, ToIRList(args), kwargs)
	if err != nil {
		return nil, err
	}
	if sig.HasSelf {
		positional = append([]ir.IRValue{self}, positional...)
	}

	switch {
	case install:
		if err := rt.Recorder.Install(sig, store, positional, payload); err != nil {
			return nil, err
		}
		return starlark.None, nil
	case sig.Kind == ir.MethodSense:
		v, err := rt.Recorder.Sense(sig, store, positional)
		if err != nil {
			return nil, err
		}
		return FromIR(v), nil
	default:
		if _, err := rt.Recorder.Act(sig, positional); err != nil {
			return nil, err
		}
		return starlark.None, nil
	}
}
