package compiler

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/vexharness/internal/ir"
)

// CycleWarning represents a cycle among device properties.
//
// Properties are instantiated together with their owner (brain.battery is
// built when Brain() is), so a cycle would never terminate. Catalog
// validation turns these into errors.
type CycleWarning struct {
	Path    []string `json:"path"`    // Cycle path: ["Brain", "Battery", "Brain"]
	Message string   `json:"message"` // Human-readable description
	Level   string   `json:"level"`   // "error"
}

// AnalyzePropertyCycles builds the class → property-class graph and reports
// each strongly connected component with more than one node, and each
// self-loop, as a cycle.
//
// A DAG (no cycles) returns an empty list.
func AnalyzePropertyCycles(classes []ir.ClassSpec) []CycleWarning {
	if len(classes) == 0 {
		return []CycleWarning{}
	}

	graph := buildPropertyGraph(classes)
	sccs := tarjanSCC(graph)

	var warnings []CycleWarning
	for _, scc := range sccs {
		if len(scc) > 1 || (len(scc) == 1 && hasSelfLoop(scc[0], graph)) {
			warnings = append(warnings, cycleSCCToWarning(scc, graph))
		}
	}

	return warnings
}

// dependencyGraph maps class name → classes it instantiates as properties.
type dependencyGraph map[string][]string

func buildPropertyGraph(classes []ir.ClassSpec) dependencyGraph {
	graph := make(dependencyGraph)
	for _, c := range classes {
		// Initialize with empty slice if no edges (ensures node exists in graph)
		if graph[c.Name] == nil {
			graph[c.Name] = []string{}
		}
		for _, p := range c.Props {
			graph[c.Name] = append(graph[c.Name], p.Class)
		}
	}
	return graph
}

// hasSelfLoop checks if a node has an edge to itself.
func hasSelfLoop(node string, graph dependencyGraph) bool {
	return slices.Contains(graph[node], node)
}

// tarjanSCC finds strongly connected components using Tarjan's algorithm.
// Nodes are visited in sorted order so results are deterministic.
func tarjanSCC(graph dependencyGraph) [][]string {
	var (
		index   = 0
		stack   []string
		indices = make(map[string]int)
		lowlink = make(map[string]int)
		onStack = make(map[string]bool)
		sccs    [][]string
	)

	var strongConnect func(string)
	strongConnect = func(v string) {
		indices[v] = index
		lowlink[v] = index
		index++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range graph[v] {
			if _, visited := indices[w]; !visited {
				strongConnect(w)
				lowlink[v] = min(lowlink[v], lowlink[w])
			} else if onStack[w] {
				lowlink[v] = min(lowlink[v], indices[w])
			}
		}

		// v is a root node: pop the stack and emit an SCC
		if lowlink[v] == indices[v] {
			var scc []string
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				scc = append(scc, w)
				if w == v {
					break
				}
			}
			sccs = append(sccs, scc)
		}
	}

	nodes := make([]string, 0, len(graph))
	for node := range graph {
		nodes = append(nodes, node)
	}
	slices.Sort(nodes)

	for _, node := range nodes {
		if _, visited := indices[node]; !visited {
			strongConnect(node)
		}
	}

	return sccs
}

func cycleSCCToWarning(scc []string, graph dependencyGraph) CycleWarning {
	if len(scc) == 1 {
		name := scc[0]
		return CycleWarning{
			Path:    []string{name, name},
			Message: fmt.Sprintf("class %s has a property of its own type", name),
			Level:   "error",
		}
	}

	slices.Sort(scc)
	path := reconstructCyclePath(scc, graph)
	return CycleWarning{
		Path:    path,
		Message: fmt.Sprintf("property cycle detected: %s", strings.Join(path, " → ")),
		Level:   "error",
	}
}

// reconstructCyclePath follows edges inside the SCC from its first member
// until it returns to the start.
func reconstructCyclePath(scc []string, graph dependencyGraph) []string {
	if len(scc) == 0 {
		return []string{}
	}

	sccSet := make(map[string]bool)
	for _, node := range scc {
		sccSet[node] = true
	}

	start := scc[0]
	current := start
	path := []string{current}
	visited := make(map[string]bool)

	for {
		visited[current] = true

		var next string
		for _, neighbor := range graph[current] {
			if sccSet[neighbor] && (!visited[neighbor] || neighbor == start) {
				next = neighbor
				break
			}
		}

		if next == "" {
			break
		}

		path = append(path, next)
		if next == start {
			break
		}
		current = next
	}

	return path
}
