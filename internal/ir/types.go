package ir

import (
	"fmt"
	"strings"
)

// MethodKind says which wrapper instruments a method.
type MethodKind string

const (
	// MethodAct methods command hardware and return nothing.
	MethodAct MethodKind = "act"
	// MethodSense methods read hardware and return a value.
	MethodSense MethodKind = "sense"
)

// ValidMethodKinds defines allowed method kinds.
var ValidMethodKinds = map[MethodKind]bool{
	MethodAct:   true,
	MethodSense: true,
}

// Param is one declared parameter. Default is only meaningful when
// HasDefault is set; a declared default of None is IRNull, not nil.
type Param struct {
	Name       string  `json:"name"`
	HasDefault bool    `json:"has_default,omitempty"`
	Default    IRValue `json:"default,omitempty"`
}

// MethodSig is the declared signature of one device method.
type MethodSig struct {
	Class   string     `json:"class,omitempty"` // empty for free functions
	Name    string     `json:"name"`
	Kind    MethodKind `json:"kind"`
	Params  []Param    `json:"params"` // excludes self
	HasSelf bool       `json:"has_self"`
	Returns string     `json:"returns,omitempty"` // return annotation, e.g. "float"
	Stub    IRValue    `json:"stub,omitempty"`    // value the hardware stub returns
	Doc     string     `json:"doc,omitempty"`
}

// Qualified returns the event tag for the method: "Class.method", or the
// bare name for free functions.
func (m *MethodSig) Qualified() string {
	if m.Class == "" {
		return m.Name
	}
	return m.Class + "." + m.Name
}

// Declared returns the full declared parameter list, self first when the
// method has a receiver.
func (m *MethodSig) Declared() []Param {
	if !m.HasSelf {
		return m.Params
	}
	params := make([]Param, 0, len(m.Params)+1)
	params = append(params, Param{Name: SelfParam})
	return append(params, m.Params...)
}

// Defaults returns the declared default values aligned to the trailing
// parameters.
func (m *MethodSig) Defaults() []IRValue {
	return TrailingDefaults(m.Declared())
}

// TrailingDefaults returns the defaults of the trailing run of defaulted
// parameters, in order.
func TrailingDefaults(params []Param) []IRValue {
	start := len(params)
	for start > 0 && params[start-1].HasDefault {
		start--
	}
	defaults := make([]IRValue, 0, len(params)-start)
	for _, p := range params[start:] {
		defaults = append(defaults, p.Default)
	}
	return defaults
}

// Signature renders the declared signature, e.g.
// "spin(self, dir, velocity, velocityUnits=PercentUnits.PERCENT)".
func (m *MethodSig) Signature() string {
	return FormatSignature(m.Name, m.Declared())
}

// FormatSignature renders name(p1, p2=default, ...).
func FormatSignature(name string, params []Param) string {
	s := name + "("
	for i, p := range params {
		if i > 0 {
			s += ", "
		}
		s += p.Name
		if p.HasDefault {
			s += "=" + Sanitize(p.Default)
		}
	}
	return s + ")"
}

// Prop is a device-valued attribute, e.g. Brain.battery.
type Prop struct {
	Name  string `json:"name"`
	Class string `json:"class"`
}

// ClassSpec is a declared device class.
type ClassSpec struct {
	Name      string      `json:"name"`
	Doc       string      `json:"doc,omitempty"`
	Singleton bool        `json:"singleton,omitempty"` // renders without a port
	Init      []Param     `json:"init"`
	Props     []Prop      `json:"props,omitempty"`
	Methods   []MethodSig `json:"methods"`
}

// Method looks up a method by name.
func (c *ClassSpec) Method(name string) (*MethodSig, bool) {
	for i := range c.Methods {
		if c.Methods[i].Name == name {
			return &c.Methods[i], true
		}
	}
	return nil, false
}

// Prop looks up a property by name.
func (c *ClassSpec) Prop(name string) (Prop, bool) {
	for _, p := range c.Props {
		if p.Name == name {
			return p, true
		}
	}
	return Prop{}, false
}

// EnumSpec is a declared enumeration.
type EnumSpec struct {
	Name    string   `json:"name"`
	Members []string `json:"members"`
}

// Member returns the enum value for name.
func (e *EnumSpec) Member(name string) (IREnum, bool) {
	for _, m := range e.Members {
		if m == name {
			return IREnum{Type: e.Name, Member: m}, true
		}
	}
	return IREnum{}, false
}

// ValidationError represents a validation error with field path and message.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks a method signature. Returns all errors (not fail-fast).
func (m *MethodSig) Validate() []ValidationError {
	var errs []ValidationError

	if !ValidMethodKinds[m.Kind] {
		errs = append(errs, ValidationError{
			Field:   "kind",
			Message: fmt.Sprintf("invalid kind %q, must be act or sense", m.Kind),
		})
	}

	seen := make(map[string]bool)
	sawDefault := false
	for i, p := range m.Params {
		if p.Name == SelfParam {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("params[%d]", i),
				Message: "self is implicit and must not be declared",
			})
		}
		if seen[p.Name] {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("params[%d]", i),
				Message: fmt.Sprintf("duplicate parameter %q", p.Name),
			})
		}
		seen[p.Name] = true

		if p.HasDefault {
			sawDefault = true
		} else if sawDefault {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("params[%d]", i),
				Message: fmt.Sprintf("parameter %q without default follows a defaulted parameter", p.Name),
			})
		}
	}

	if m.Kind == MethodAct && m.Returns != "" {
		errs = append(errs, ValidationError{
			Field:   "returns",
			Message: "act methods have no return annotation",
		})
	}

	return errs
}

// Constant is a named module-level value, e.g. FORWARD = DirectionType.FORWARD.
type Constant struct {
	Name  string  `json:"name"`
	Value IRValue `json:"value"`
}

// CatalogSpec is a compiled device catalog: everything a student script
// can name without importing anything.
type CatalogSpec struct {
	Enums     []EnumSpec  `json:"enums"`
	Constants []Constant  `json:"constants"`
	Classes   []ClassSpec `json:"classes"`
	Functions []MethodSig `json:"functions"`
}

// Enum looks up an enum by type name.
func (c *CatalogSpec) Enum(name string) (*EnumSpec, bool) {
	for i := range c.Enums {
		if c.Enums[i].Name == name {
			return &c.Enums[i], true
		}
	}
	return nil, false
}

// Class looks up a device class by name.
func (c *CatalogSpec) Class(name string) (*ClassSpec, bool) {
	for i := range c.Classes {
		if c.Classes[i].Name == name {
			return &c.Classes[i], true
		}
	}
	return nil, false
}

// Function looks up a free function by name.
func (c *CatalogSpec) Function(name string) (*MethodSig, bool) {
	for i := range c.Functions {
		if c.Functions[i].Name == name {
			return &c.Functions[i], true
		}
	}
	return nil, false
}

// Constant looks up a module-level constant by name.
func (c *CatalogSpec) Constant(name string) (IRValue, bool) {
	for _, k := range c.Constants {
		if k.Name == name {
			return k.Value, true
		}
	}
	return nil, false
}

// Resolve turns a reference into a value: a constant name ("PCT") or an
// enum member ("PercentUnits.PERCENT").
func (c *CatalogSpec) Resolve(ref string) (IRValue, bool) {
	if v, ok := c.Constant(ref); ok {
		return v, true
	}
	typeName, member, ok := strings.Cut(ref, ".")
	if !ok {
		return nil, false
	}
	enum, ok := c.Enum(typeName)
	if !ok {
		return nil, false
	}
	return enum.Member(member)
}
