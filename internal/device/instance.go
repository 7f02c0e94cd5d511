package device

import (
	"fmt"
	"hash/fnv"
	"slices"

	"go.starlark.net/starlark"

	"github.com/roach88/vexharness/internal/binder"
	"github.com/roach88/vexharness/internal/ir"
	"github.com/roach88/vexharness/internal/mockstore"
)

// PortsEnum is the enum whose member, passed to a constructor, becomes the
// device's port identifier.
const PortsEnum = "Ports"

// Class is a device class constructor: Motor(PORT1).
// Constructors are not recorded.
type Class struct {
	spec *ir.ClassSpec
	rt   *Runtime
}

var _ starlark.Callable = (*Class)(nil)

func (c *Class) Name() string         { return c.spec.Name }
func (c *Class) String() string       { return fmt.Sprintf("<class '%s'>", c.spec.Name) }
func (c *Class) Type() string         { return "class" }
func (c *Class) Freeze()              {}
func (c *Class) Truth() starlark.Bool { return starlark.True }

func (c *Class) Hash() (uint32, error) {
	h := fnv.New32a()
	h.Write([]byte(c.spec.Name))
	return h.Sum32(), nil
}

// CallInternal binds the constructor arguments and builds the instance.
func (c *Class) CallInternal(_ *starlark.Thread, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	positional, err := mapKeywords(c.spec.Name, c.spec.Init, ToIRList(args), kwargs)
	if err != nil {
		return nil, err
	}
	bound, err := binder.BindParams(c.spec.Name, c.spec.Init, positional)
	if err != nil {
		return nil, err
	}

	dev := ir.IRDevice{Class: c.spec.Name}
	for _, a := range bound {
		if e, ok := a.Value.(ir.IREnum); ok && e.Type == PortsEnum {
			dev.Port = e.Member
			break
		}
	}
	return c.rt.newInstance(c.spec, dev)
}

// Instance is a constructed device. Attributes are its instrumented methods
// and its device-valued properties.
type Instance struct {
	class  *ir.ClassSpec
	device ir.IRDevice
	store  *mockstore.Store
	props  map[string]*Instance
	rt     *Runtime
}

var _ starlark.HasAttrs = (*Instance)(nil)

// Device returns the identity-free device identifier.
func (i *Instance) Device() ir.IRDevice { return i.device }

// Store returns the instance's scripted sensor values.
func (i *Instance) Store() *mockstore.Store { return i.store }

// Class returns the instance's class declaration.
func (i *Instance) Class() *ir.ClassSpec { return i.class }

func (i *Instance) String() string       { return ir.Sanitize(i.device) }
func (i *Instance) Type() string         { return i.class.Name }
func (i *Instance) Freeze()              {}
func (i *Instance) Truth() starlark.Bool { return starlark.True }

func (i *Instance) Hash() (uint32, error) {
	h := fnv.New32a()
	h.Write([]byte(i.String()))
	return h.Sum32(), nil
}

// Attr returns a property or a bound instrumented method.
func (i *Instance) Attr(name string) (starlark.Value, error) {
	if p, ok := i.props[name]; ok {
		return p, nil
	}
	sig, ok := i.class.Method(name)
	if !ok {
		return nil, nil
	}
	return starlark.NewBuiltin(name, func(thread *starlark.Thread, _ *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
		return i.rt.invoke(sig, i.store, i.device, args, kwargs)
	}), nil
}

func (i *Instance) AttrNames() []string {
	names := make([]string, 0, len(i.props)+len(i.class.Methods))
	for name := range i.props {
		names = append(names, name)
	}
	for _, m := range i.class.Methods {
		names = append(names, m.Name)
	}
	slices.Sort(names)
	return names
}

// newInstance builds a device and its property sub-devices. Properties of
// a singleton class render as that class; others carry the property name
// as their port, as in Button(buttonEUp).
func (rt *Runtime) newInstance(spec *ir.ClassSpec, dev ir.IRDevice) (*Instance, error) {
	inst := &Instance{
		class:  spec,
		device: dev,
		store:  mockstore.New(),
		props:  make(map[string]*Instance, len(spec.Props)),
		rt:     rt,
	}
	for _, p := range spec.Props {
		child, ok := rt.Catalog.Class(p.Class)
		if !ok {
			return nil, fmt.Errorf("%s.%s: unknown class %q", spec.Name, p.Name, p.Class)
		}
		childDev := ir.IRDevice{Class: child.Name}
		if !child.Singleton {
			childDev.Port = p.Name
		}
		sub, err := rt.newInstance(child, childDev)
		if err != nil {
			return nil, err
		}
		inst.props[p.Name] = sub
	}
	return inst, nil
}
