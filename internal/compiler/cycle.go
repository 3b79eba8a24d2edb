package compiler

import (
	"fmt"
	"sort"
	"strings"
)

// CycleWarning reports a loop in the type graph formed by relationship
// declarations (parent type -> child type).
//
// Cycles are warnings, not errors: a Person may have a mentor who is a
// Person. They only mean nested payloads through the loop are bounded by
// the reconciler's max depth rather than by the declarations.
type CycleWarning struct {
	Path    []string `json:"path"`    // Cycle path: ["Person", "Pet", "Person"]
	Message string   `json:"message"` // Human-readable description
	Level   string   `json:"level"`   // "warning" or "info"
}

// AnalyzeCycles performs static cycle analysis on declarations.
//
// The algorithm:
//  1. Build the parent type -> child type graph
//  2. Use Tarjan's algorithm to find strongly connected components
//  3. Report each SCC with size > 1 or self-loops as a cycle warning
//
// A DAG (no cycles) returns an empty warning list. Warnings are ordered by
// their first type name.
func AnalyzeCycles(decls []Declaration) []CycleWarning {
	if len(decls) == 0 {
		return []CycleWarning{}
	}

	graph := buildTypeGraph(decls)
	sccs := tarjanSCC(graph)

	warnings := []CycleWarning{}
	for _, scc := range sccs {
		if len(scc) > 1 || (len(scc) == 1 && hasSelfLoop(scc[0], graph)) {
			warnings = append(warnings, cycleSCCToWarning(scc, graph))
		}
	}
	sort.Slice(warnings, func(i, j int) bool {
		return warnings[i].Path[0] < warnings[j].Path[0]
	})
	return warnings
}

// typeGraph maps a parent type to the child types it declares, sorted.
type typeGraph map[string][]string

func buildTypeGraph(decls []Declaration) typeGraph {
	graph := make(typeGraph)
	seen := make(map[[2]string]bool)

	for _, d := range decls {
		if graph[d.ParentType] == nil {
			graph[d.ParentType] = []string{}
		}
		if graph[d.Options.ChildType] == nil {
			graph[d.Options.ChildType] = []string{}
		}
		edge := [2]string{d.ParentType, d.Options.ChildType}
		if seen[edge] {
			continue
		}
		seen[edge] = true
		graph[d.ParentType] = append(graph[d.ParentType], d.Options.ChildType)
	}
	for node := range graph {
		sort.Strings(graph[node])
	}
	return graph
}

// hasSelfLoop checks if a node has an edge to itself.
func hasSelfLoop(node string, graph typeGraph) bool {
	for _, neighbor := range graph[node] {
		if neighbor == node {
			return true
		}
	}
	return false
}

// tarjanSCC finds strongly connected components using Tarjan's algorithm.
// Nodes are visited in sorted order so results are deterministic.
func tarjanSCC(graph typeGraph) [][]string {
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
			sort.Strings(scc)
			sccs = append(sccs, scc)
		}
	}

	nodes := make([]string, 0, len(graph))
	for node := range graph {
		nodes = append(nodes, node)
	}
	sort.Strings(nodes)

	for _, node := range nodes {
		if _, visited := indices[node]; !visited {
			strongConnect(node)
		}
	}

	return sccs
}

func cycleSCCToWarning(scc []string, graph typeGraph) CycleWarning {
	if len(scc) == 1 {
		typ := scc[0]
		return CycleWarning{
			Path:    []string{typ, typ},
			Message: fmt.Sprintf("Self-referencing relationship: %s -> %s", typ, typ),
			Level:   "warning",
		}
	}

	path := reconstructCyclePath(scc, graph)
	return CycleWarning{
		Path:    path,
		Message: fmt.Sprintf("Relationship cycle: %s", strings.Join(path, " -> ")),
		Level:   "warning",
	}
}

// reconstructCyclePath walks edges inside the SCC from its first member
// until it returns to the start.
func reconstructCyclePath(scc []string, graph typeGraph) []string {
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
