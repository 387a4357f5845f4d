package dependency

import (
	"errors"

	"github.com/canvas-infra/patterns/internal/pattern"
)

// ErrCycle is returned when the dependency graph contains a cycle.
var ErrCycle = errors.New("dependency cycle detected")

// Graph is a directed graph over component instance ids. An edge u -> v
// means u depends on v. Nodes keep their insertion order so every walk is
// deterministic.
type Graph struct {
	nodes []string
	known map[string]bool
	deps  map[string][]string
}

// New returns an empty graph.
func New() *Graph {
	return &Graph{known: make(map[string]bool), deps: make(map[string][]string)}
}

// FromPattern builds the graph from component dependencies. Dependencies on
// unknown instances are skipped; the validator reports them.
func FromPattern(p *pattern.Pattern) *Graph {
	g := New()
	if p == nil {
		return g
	}
	for i := range p.Components {
		g.AddNode(p.Components[i].InstanceID)
	}
	for i := range p.Components {
		c := &p.Components[i]
		for _, dep := range c.Dependencies {
			g.AddEdge(c.InstanceID, dep)
		}
	}
	return g
}

// AddNode adds id if not present.
func (g *Graph) AddNode(id string) {
	if g.known[id] {
		return
	}
	g.known[id] = true
	g.nodes = append(g.nodes, id)
}

// AddEdge records that from depends on to. Edges touching unknown nodes are
// ignored. A self loop is kept and counts as a cycle.
func (g *Graph) AddEdge(from, to string) {
	if !g.known[from] || !g.known[to] {
		return
	}
	g.deps[from] = append(g.deps[from], to)
}

// Len returns the number of nodes.
func (g *Graph) Len() int { return len(g.nodes) }

// Cycle describes the first back edge found by FindCycle.
type Cycle struct {
	// Node is the component whose dependency closes the cycle.
	Node string
	// DependsOn is the dependency that is already on the DFS stack.
	DependsOn string
	// Path lists the cycle from DependsOn back to itself.
	Path []string
}

// FindCycle runs an iterative depth-first search with an explicit stack and
// reports the first back edge. It does not enumerate further cycles.
func (g *Graph) FindCycle() (Cycle, bool) {
	const (
		unvisited = iota
		onStack
		done
	)
	state := make(map[string]int, len(g.nodes))
	for _, start := range g.nodes {
		if state[start] != unvisited {
			continue
		}
		stack := []dfsFrame{{node: start}}
		state[start] = onStack

		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			deps := g.deps[top.node]
			if top.next >= len(deps) {
				state[top.node] = done
				stack = stack[:len(stack)-1]
				continue
			}
			dep := deps[top.next]
			top.next++

			switch state[dep] {
			case onStack:
				return Cycle{Node: top.node, DependsOn: dep, Path: cyclePath(stack, dep)}, true
			case unvisited:
				state[dep] = onStack
				stack = append(stack, dfsFrame{node: dep})
			}
		}
	}
	return Cycle{}, false
}

type dfsFrame struct {
	node string
	next int
}

func cyclePath(stack []dfsFrame, from string) []string {
	var path []string
	for i, f := range stack {
		if f.node == from {
			for _, g := range stack[i:] {
				path = append(path, g.node)
			}
			break
		}
	}
	return append(path, from)
}

// Resolve orders the graph so dependencies come first and returns:
// - ordered: instance ids in topological order
// - tiers: ids grouped by depth (tier 0 = no deps, tier 1 = depend only on tier 0, etc.)
func (g *Graph) Resolve() (ordered []string, tiers [][]string, err error) {
	if len(g.nodes) == 0 {
		return nil, nil, nil
	}

	// remaining[u] = number of unresolved dependencies of u
	remaining := make(map[string]int, len(g.nodes))
	dependents := make(map[string][]string)
	for _, u := range g.nodes {
		remaining[u] = len(g.deps[u])
		for _, v := range g.deps[u] {
			dependents[v] = append(dependents[v], u)
		}
	}

	var queue []string
	for _, id := range g.nodes {
		if remaining[id] == 0 {
			queue = append(queue, id)
		}
	}

	ordered = make([]string, 0, len(g.nodes))
	for len(queue) > 0 {
		tier := make([]string, len(queue))
		copy(tier, queue)
		tiers = append(tiers, tier)
		var nextQueue []string
		for _, v := range queue {
			ordered = append(ordered, v)
			for _, u := range dependents[v] {
				remaining[u]--
				if remaining[u] == 0 {
					nextQueue = append(nextQueue, u)
				}
			}
		}
		queue = nextQueue
	}

	if len(ordered) != len(g.nodes) {
		return nil, nil, ErrCycle
	}
	return ordered, tiers, nil
}
