// Package binder maps a call's positional arguments onto a declared
// parameter list.
package binder

import (
	"github.com/roach88/vexharness/internal/ir"
)

// Bind binds positional arguments to a method's declared parameters, self
// first when the method has a receiver. Unfilled trailing parameters take
// their declared defaults. The result is in declared order.
func Bind(sig *ir.MethodSig, positional []ir.IRValue) (ir.Args, error) {
	return BindParams(sig.Qualified(), sig.Declared(), positional)
}

// BindParams binds positional arguments to params. name is used in errors.
func BindParams(name string, params []ir.Param, positional []ir.IRValue) (ir.Args, error) {
	if len(positional) > len(params) {
		return nil, &ArgumentError{
			Code:     ErrCodeTooManyArguments,
			Method:   name,
			Declared: len(params),
			Given:    len(positional),
		}
	}

	defaults := ir.TrailingDefaults(params)
	unfilled := len(params) - len(positional)
	if len(defaults) < unfilled {
		var missing []string
		for _, p := range params[len(positional) : len(params)-len(defaults)] {
			missing = append(missing, p.Name)
		}
		return nil, &ArgumentError{
			Code:     ErrCodeMissingArguments,
			Method:   name,
			Declared: len(params),
			Given:    len(positional),
			Missing:  missing,
		}
	}

	args := make(ir.Args, len(params))
	for i, p := range params {
		args[i].Name = p.Name
		if i < len(positional) {
			args[i].Value = normalize(positional[i])
			continue
		}
		// defaults align to the tail of params
		args[i].Value = normalize(defaults[len(defaults)-(len(params)-i)])
	}
	return args, nil
}

func normalize(v ir.IRValue) ir.IRValue {
	if v == nil {
		return ir.IRNull{}
	}
	return v
}
