package compiler

import (
	"fmt"
	"strings"

	"github.com/roach88/evrule/internal/ir"
)

// CycleWarning is a potential chain cycle between rule sets.
//
// Cycles are warnings, not errors: the dispatcher refuses a repeated
// (rule set, participants) pair at run time, and most chains change
// participants on every hop.
type CycleWarning struct {
	Path    []string `json:"path"`    // ["A", "B", "A"]
	Message string   `json:"message"` // human-readable description
	Level   string   `json:"level"`   // "warning"
}

// AnalyzeChains finds rule sets that can re-trigger themselves through
// Fire.Event effects.
//
// The algorithm:
//  1. Build rule set → rule set edges: A fires kind K, B listens to K
//  2. Use Tarjan's algorithm to find strongly connected components
//  3. Report each SCC with size > 1 or self-loops as a potential cycle
//
// Kinds fired from Script effects are invisible here.
func AnalyzeChains(ruleSets []ir.RuleSet) []CycleWarning {
	warnings := []CycleWarning{}
	if len(ruleSets) == 0 {
		return warnings
	}

	graph, order := buildChainGraph(ruleSets)
	for _, scc := range tarjanSCC(graph, order) {
		if len(scc) > 1 || (len(scc) == 1 && hasSelfLoop(scc[0], graph)) {
			warnings = append(warnings, cycleSCCToWarning(scc, graph))
		}
	}
	return warnings
}

// dependencyGraph maps rule set → rule sets its effects can fire.
type dependencyGraph map[string][]string

func buildChainGraph(ruleSets []ir.RuleSet) (dependencyGraph, []string) {
	graph := make(dependencyGraph)
	order := make([]string, 0, len(ruleSets))

	listeners := make(map[string][]string)
	for _, rs := range ruleSets {
		order = append(order, rs.Name)
		for _, k := range rs.EventTypes {
			listeners[fold(k)] = append(listeners[fold(k)], rs.Name)
		}
	}

	for _, rs := range ruleSets {
		// Ensure the node exists even without edges.
		if graph[rs.Name] == nil {
			graph[rs.Name] = []string{}
		}
		seen := make(map[string]bool)
		for _, c := range rs.Components {
			if c.Effect == nil {
				continue
			}
			kind, ok := c.Effect.FireEvent.Get()
			if !ok {
				continue
			}
			for _, target := range listeners[fold(kind)] {
				if seen[target] {
					continue
				}
				seen[target] = true
				graph[rs.Name] = append(graph[rs.Name], target)
			}
		}
	}
	return graph, order
}

func hasSelfLoop(node string, graph dependencyGraph) bool {
	for _, neighbor := range graph[node] {
		if neighbor == node {
			return true
		}
	}
	return false
}

// tarjanSCC finds strongly connected components, visiting roots in order so
// the output is stable.
func tarjanSCC(graph dependencyGraph, order []string) [][]string {
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

		// v is a root: pop its component.
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

	for _, node := range order {
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
			Message: fmt.Sprintf("Self-triggering rule set detected: %s → %s", name, name),
			Level:   "warning",
		}
	}

	path := reconstructCyclePath(scc, graph)
	return CycleWarning{
		Path:    path,
		Message: fmt.Sprintf("Potential chain cycle detected: %s", strings.Join(path, " → ")),
		Level:   "warning",
	}
}

// reconstructCyclePath walks SCC edges from the last-popped member until it
// returns to the start.
func reconstructCyclePath(scc []string, graph dependencyGraph) []string {
	if len(scc) == 0 {
		return []string{}
	}

	members := make(map[string]bool, len(scc))
	for _, node := range scc {
		members[node] = true
	}

	start := scc[len(scc)-1]
	current := start
	path := []string{current}
	visited := make(map[string]bool)

	for {
		visited[current] = true

		var next string
		for _, neighbor := range graph[current] {
			if members[neighbor] && (!visited[neighbor] || neighbor == start) {
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
