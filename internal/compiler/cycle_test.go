package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/vexharness/internal/ir"
)

func TestAnalyzePropertyCycles_Empty(t *testing.T) {
	warnings := AnalyzePropertyCycles(nil)
	assert.Empty(t, warnings, "no classes should produce no warnings")
}

func TestAnalyzePropertyCycles_DAG(t *testing.T) {
	classes := []ir.ClassSpec{
		{Name: "Brain", Props: []ir.Prop{{Name: "battery", Class: "Battery"}, {Name: "timer", Class: "Timer"}}},
		{Name: "Battery"},
		{Name: "Timer"},
		{Name: "Controller", Props: []ir.Prop{{Name: "buttonA", Class: "Button"}, {Name: "buttonB", Class: "Button"}}},
		{Name: "Button"},
	}

	warnings := AnalyzePropertyCycles(classes)
	assert.Empty(t, warnings, "a DAG has no cycles")
}

func TestAnalyzePropertyCycles_SelfLoop(t *testing.T) {
	classes := []ir.ClassSpec{
		{Name: "Node", Props: []ir.Prop{{Name: "next", Class: "Node"}}},
	}

	warnings := AnalyzePropertyCycles(classes)
	require.Len(t, warnings, 1)
	assert.Equal(t, []string{"Node", "Node"}, warnings[0].Path)
	assert.Equal(t, "error", warnings[0].Level)
	assert.Contains(t, warnings[0].Message, "own type")
}

func TestAnalyzePropertyCycles_ThreeNodes(t *testing.T) {
	classes := []ir.ClassSpec{
		{Name: "A", Props: []ir.Prop{{Name: "b", Class: "B"}}},
		{Name: "B", Props: []ir.Prop{{Name: "c", Class: "C"}}},
		{Name: "C", Props: []ir.Prop{{Name: "a", Class: "A"}}},
		{Name: "D", Props: []ir.Prop{{Name: "a", Class: "A"}}},
	}

	warnings := AnalyzePropertyCycles(classes)
	require.Len(t, warnings, 1)
	assert.Equal(t, []string{"A", "B", "C", "A"}, warnings[0].Path)
	assert.Equal(t, "property cycle detected: A → B → C → A", warnings[0].Message)
}

func TestAnalyzePropertyCycles_Deterministic(t *testing.T) {
	classes := []ir.ClassSpec{
		{Name: "X", Props: []ir.Prop{{Name: "y", Class: "Y"}}},
		{Name: "Y", Props: []ir.Prop{{Name: "x", Class: "X"}}},
	}

	first := AnalyzePropertyCycles(classes)
	for range 10 {
		assert.Equal(t, first, AnalyzePropertyCycles(classes))
	}
}
