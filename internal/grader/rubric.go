package grader

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/vexharness/internal/harness"
	"github.com/roach88/vexharness/internal/ir"
)

// Rubric is a YAML grading rubric: a list of assertions over the trace of
// a student run.
//
//	name: drive_square
//	description: "Drives a square with four 90 degree turns"
//	assertions:
//	  - type: trace_count
//	    method: Drivetrain.turn_for
//	    count: 4
//	  - type: trace_contains
//	    method: Drivetrain.turn_for
//	    args: { dir: RIGHT, angle: 90 }
//	  - type: trace_order
//	    methods: [Drivetrain.drive_for, Drivetrain.turn_for]
//	  - type: matches_reference
//	    reference: solutions/square.py
type Rubric struct {
	// Name uniquely identifies this rubric.
	Name string `yaml:"name"`

	// Description explains what the rubric checks.
	Description string `yaml:"description"`

	// Interactive routes unset sensor reads to Inputs.
	Interactive bool `yaml:"interactive,omitempty"`

	// Inputs are JSON values served to interactive prompts, in order.
	Inputs []string `yaml:"inputs,omitempty"`

	// Assertions all must hold for the run to pass.
	Assertions []Assertion `yaml:"assertions"`

	// Catalog resolves constant names such as FORWARD in expected args.
	// Optional.
	Catalog *ir.CatalogSpec `yaml:"-"`

	// Runner runs matches_reference scripts. Required only when the rubric
	// has such an assertion.
	Runner *harness.Runner `yaml:"-"`
}

// Assertion validates the trace.
type Assertion struct {
	// Type is one of trace_contains, trace_order, trace_count or
	// matches_reference.
	Type string `yaml:"type"`

	// Method is the qualified method name (trace_contains, trace_count).
	Method string `yaml:"method,omitempty"`

	// Args are expected arguments (trace_contains). Subset match: only the
	// listed names are checked.
	Args map[string]any `yaml:"args,omitempty"`

	// Methods is the expected order (trace_order).
	Methods []string `yaml:"methods,omitempty"`

	// Count is the exact number of calls (trace_count).
	Count int `yaml:"count,omitempty"`

	// Reference is a reference solution whose trace must match
	// (matches_reference). Relative paths are resolved against the rubric
	// file's directory.
	Reference string `yaml:"reference,omitempty"`
}

// Assertion type constants.
const (
	AssertTraceContains    = "trace_contains"
	AssertTraceOrder       = "trace_order"
	AssertTraceCount       = "trace_count"
	AssertMatchesReference = "matches_reference"
)

// LoadRubric reads and parses a rubric YAML file. Unknown fields are
// rejected.
func LoadRubric(path string) (*Rubric, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rubric file: %w", err)
	}

	var rubric Rubric
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&rubric); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	base := filepath.Dir(path)
	for i := range rubric.Assertions {
		ref := rubric.Assertions[i].Reference
		if ref != "" && !filepath.IsAbs(ref) {
			rubric.Assertions[i].Reference = filepath.Join(base, ref)
		}
	}

	if err := validateRubric(&rubric); err != nil {
		return nil, fmt.Errorf("invalid rubric: %w", err)
	}
	return &rubric, nil
}

// Test builds a graded test of script against this rubric.
func (r *Rubric) Test(script string) Test {
	return Test{
		Name:        r.Name,
		Script:      script,
		Predicate:   r,
		Interactive: r.Interactive,
		Inputs:      r.Inputs,
	}
}

func validateRubric(r *Rubric) error {
	if r.Name == "" {
		return fmt.Errorf("name is required")
	}
	if len(r.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}
	for i, in := range r.Inputs {
		if _, err := ir.ParseJSON([]byte(in)); err != nil {
			return fmt.Errorf("inputs[%d]: not JSON: %w", i, err)
		}
	}
	for i := range r.Assertions {
		if err := validateAssertion(i, &r.Assertions[i]); err != nil {
			return err
		}
	}
	return nil
}

func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertTraceContains:
		if a.Method == "" {
			return fmt.Errorf("assertions[%d]: method is required for trace_contains", index)
		}
	case AssertTraceOrder:
		if len(a.Methods) == 0 {
			return fmt.Errorf("assertions[%d]: methods list is required for trace_order", index)
		}
	case AssertTraceCount:
		if a.Method == "" {
			return fmt.Errorf("assertions[%d]: method is required for trace_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for trace_count", index)
		}
	case AssertMatchesReference:
		if a.Reference == "" {
			return fmt.Errorf("assertions[%d]: reference is required for matches_reference", index)
		}
		if _, err := os.Stat(a.Reference); os.IsNotExist(err) {
			return fmt.Errorf("assertions[%d]: reference script not found: %s", index, a.Reference)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
