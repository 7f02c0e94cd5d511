// Package catalog holds the declarative VEX device catalog: device classes,
// their instrumented methods, enums and module-level constants.
//
// The catalog is written in CUE and embedded in the binary. A different
// catalog can be compiled from a file for other device families.
package catalog

import (
	_ "embed"
	"fmt"
	"os"
	"strings"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"

	"github.com/roach88/vexharness/internal/compiler"
	"github.com/roach88/vexharness/internal/ir"
)

// ModuleName is the import name scripts and inspect-cls paths use for the
// catalog, as in "vex.Motor".
const ModuleName = "vex"

//go:embed vex.cue
var vexSource string

var loadDefault = sync.OnceValues(func() (*ir.CatalogSpec, error) {
	return Compile("vex.cue", vexSource)
})

// Default returns the embedded VEX catalog. It is compiled once per process.
func Default() (*ir.CatalogSpec, error) {
	return loadDefault()
}

// Compile compiles CUE catalog source. filename is used in error positions.
func Compile(filename, src string) (*ir.CatalogSpec, error) {
	ctx := cuecontext.New()
	v := ctx.CompileString(src, cue.Filename(filename))
	spec, err := compiler.CompileCatalog(v)
	if err != nil {
		return nil, fmt.Errorf("compile catalog %s: %w", filename, err)
	}
	return spec, nil
}

// LoadFile compiles a catalog from a CUE file on disk.
func LoadFile(path string) (*ir.CatalogSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return Compile(path, string(data))
}

// LookupClass resolves a dotted class path such as "vex.Motor", "Motor" or
// "Brain.battery" (a property of a class). The module prefix is optional.
func LookupClass(spec *ir.CatalogSpec, qualname string) (*ir.ClassSpec, error) {
	path := strings.Split(qualname, ".")
	if len(path) > 1 && path[0] == ModuleName {
		path = path[1:]
	}
	if len(path) == 0 || path[0] == "" {
		return nil, fmt.Errorf("empty class path %q", qualname)
	}

	class, ok := spec.Class(path[0])
	if !ok {
		return nil, fmt.Errorf("%s has no class %q", ModuleName, path[0])
	}

	for _, name := range path[1:] {
		prop, ok := class.Prop(name)
		if !ok {
			return nil, fmt.Errorf("class %s has no property %q", class.Name, name)
		}
		next, ok := spec.Class(prop.Class)
		if !ok {
			return nil, fmt.Errorf("property %s.%s refers to unknown class %q", class.Name, name, prop.Class)
		}
		class = next
	}
	return class, nil
}
