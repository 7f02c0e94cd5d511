package compiler

import (
	"fmt"
	"regexp"

	"github.com/roach88/vexharness/internal/ir"
)

// Validation error codes (E100-E199)
const (
	// General validation errors (E100)
	ErrUnsupportedIRType = "E100" // unsupported IR type for validation

	// Catalog errors (E101-E109)
	ErrDuplicateName     = "E101" // duplicate enum/constant/class/function name
	ErrInvalidIdentifier = "E102" // name is not a valid script identifier
	ErrUnknownPropClass  = "E103" // property refers to an undeclared class
	ErrDuplicateMember   = "E104" // duplicate enum member
	ErrPropertyCycle     = "E105" // properties instantiate each other forever

	// Signature errors (E110-E119)
	ErrInvalidSignature = "E110" // invalid method signature
	ErrDuplicateMethod  = "E111" // duplicate method or property on a class
	ErrReservedParam    = "E112" // parameter named "set" on a sense method
)

// ValidationError represents a schema validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
	Line    int    `json:"line,omitempty"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("[%s] line %d: %s: %s", e.Code, e.Line, e.Field, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Validate validates compiled IR against schema rules.
// Returns all errors found (does not fail-fast).
// Supports CatalogSpec, ClassSpec and MethodSig.
func Validate(v any) []ValidationError {
	switch spec := v.(type) {
	case *ir.CatalogSpec:
		return validateCatalog(spec)
	case ir.CatalogSpec:
		return validateCatalog(&spec)
	case *ir.ClassSpec:
		return validateClass(spec, "class."+spec.Name, nil)
	case *ir.MethodSig:
		return validateMethod(spec, "function."+spec.Name)
	default:
		return []ValidationError{{
			Field:   "type",
			Message: fmt.Sprintf("unsupported IR type: %T", v),
			Code:    ErrUnsupportedIRType,
		}}
	}
}

// identifierPattern matches names a script can refer to.
var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

func validateCatalog(spec *ir.CatalogSpec) []ValidationError {
	var errs []ValidationError

	// Every top-level name shares one namespace in a script.
	names := make(map[string]string)
	declare := func(field, name string) {
		if !identifierPattern.MatchString(name) {
			errs = append(errs, ValidationError{
				Field:   field,
				Message: fmt.Sprintf("%q is not a valid identifier", name),
				Code:    ErrInvalidIdentifier,
			})
		}
		if prev, ok := names[name]; ok {
			errs = append(errs, ValidationError{
				Field:   field,
				Message: fmt.Sprintf("duplicate name %q (first declared at %s)", name, prev),
				Code:    ErrDuplicateName,
			})
			return
		}
		names[name] = field
	}

	for i, enum := range spec.Enums {
		field := fmt.Sprintf("enum.%s", enum.Name)
		declare(field, enum.Name)

		seen := make(map[string]bool)
		for j, m := range enum.Members {
			if seen[m] {
				errs = append(errs, ValidationError{
					Field:   fmt.Sprintf("enums[%d].members[%d]", i, j),
					Message: fmt.Sprintf("duplicate member %q in %s", m, enum.Name),
					Code:    ErrDuplicateMember,
				})
			}
			seen[m] = true
		}
	}

	for _, k := range spec.Constants {
		declare("constant."+k.Name, k.Name)
	}

	for i := range spec.Functions {
		fn := &spec.Functions[i]
		field := "function." + fn.Name
		declare(field, fn.Name)
		errs = append(errs, validateMethod(fn, field)...)
	}

	classes := make(map[string]bool, len(spec.Classes))
	for _, c := range spec.Classes {
		classes[c.Name] = true
	}
	for i := range spec.Classes {
		c := &spec.Classes[i]
		field := "class." + c.Name
		declare(field, c.Name)
		errs = append(errs, validateClass(c, field, classes)...)
	}

	for _, w := range AnalyzePropertyCycles(spec.Classes) {
		errs = append(errs, ValidationError{
			Field:   "class." + w.Path[0],
			Message: w.Message,
			Code:    ErrPropertyCycle,
		})
	}

	return errs
}

// validateClass checks one class. known is the set of declared classes; nil
// skips the property target check.
func validateClass(c *ir.ClassSpec, field string, known map[string]bool) []ValidationError {
	var errs []ValidationError

	members := make(map[string]bool)
	for _, p := range c.Props {
		if members[p.Name] {
			errs = append(errs, ValidationError{
				Field:   field + ".prop." + p.Name,
				Message: fmt.Sprintf("duplicate member %q", p.Name),
				Code:    ErrDuplicateMethod,
			})
		}
		members[p.Name] = true

		if known != nil && !known[p.Class] {
			errs = append(errs, ValidationError{
				Field:   field + ".prop." + p.Name,
				Message: fmt.Sprintf("property type %q is not a declared class", p.Class),
				Code:    ErrUnknownPropClass,
			})
		}
	}

	for i := range c.Methods {
		m := &c.Methods[i]
		mfield := field + ".method." + m.Name
		if members[m.Name] {
			errs = append(errs, ValidationError{
				Field:   mfield,
				Message: fmt.Sprintf("duplicate member %q", m.Name),
				Code:    ErrDuplicateMethod,
			})
		}
		members[m.Name] = true
		errs = append(errs, validateMethod(m, mfield)...)
	}

	initSig := ir.MethodSig{Name: "init", Kind: ir.MethodAct, Params: c.Init}
	for _, verr := range initSig.Validate() {
		errs = append(errs, ValidationError{
			Field:   field + ".init." + verr.Field,
			Message: verr.Message,
			Code:    ErrInvalidSignature,
		})
	}

	return errs
}

func validateMethod(m *ir.MethodSig, field string) []ValidationError {
	var errs []ValidationError

	if !identifierPattern.MatchString(m.Name) {
		errs = append(errs, ValidationError{
			Field:   field,
			Message: fmt.Sprintf("%q is not a valid identifier", m.Name),
			Code:    ErrInvalidIdentifier,
		})
	}

	for _, verr := range m.Validate() {
		errs = append(errs, ValidationError{
			Field:   field + "." + verr.Field,
			Message: verr.Message,
			Code:    ErrInvalidSignature,
		})
	}

	// "set" is the reserved install keyword on sensors.
	if m.Kind == ir.MethodSense {
		for i, p := range m.Params {
			if p.Name == "set" {
				errs = append(errs, ValidationError{
					Field:   fmt.Sprintf("%s.params[%d]", field, i),
					Message: "sense methods may not declare a parameter named \"set\"",
					Code:    ErrReservedParam,
				})
			}
		}
	}

	return errs
}
