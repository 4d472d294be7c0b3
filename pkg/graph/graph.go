// Package graph holds the module dependency graph as id references: nodes are
// canonical module ids and edges point from a requiring module to the module
// it requires. Cycles are allowed.
package graph

import "sort"

// Graph is a directed graph keyed by string ids. Nodes and edges keep their
// insertion order so every traversal is deterministic.
type Graph struct {
	nodes []string
	index map[string]int
	edges map[string][]string
}

// New returns an empty graph.
func New() *Graph {
	return &Graph{
		index: map[string]int{},
		edges: map[string][]string{},
	}
}

// AddNode adds id. Adding an existing node is a no-op.
func (g *Graph) AddNode(id string) {
	if _, ok := g.index[id]; ok {
		return
	}
	g.index[id] = len(g.nodes)
	g.nodes = append(g.nodes, id)
}

// AddEdge adds an edge from -> to, adding both nodes if needed. Duplicate
// edges are ignored.
func (g *Graph) AddEdge(from, to string) {
	g.AddNode(from)
	g.AddNode(to)
	for _, e := range g.edges[from] {
		if e == to {
			return
		}
	}
	g.edges[from] = append(g.edges[from], to)
}

// Nodes returns every node in insertion order.
func (g *Graph) Nodes() []string {
	return append([]string(nil), g.nodes...)
}

// Edges returns the direct successors of id in insertion order.
func (g *Graph) Edges(id string) []string {
	return append([]string(nil), g.edges[id]...)
}

// Has reports whether id is a node.
func (g *Graph) Has(id string) bool {
	_, ok := g.index[id]
	return ok
}

// Reachable returns from and every node reachable from it, depth first in
// edge order. It returns nil when from is not a node.
func (g *Graph) Reachable(from string) []string {
	if !g.Has(from) {
		return nil
	}
	var out []string
	seen := map[string]bool{}
	var visit func(id string)
	visit = func(id string) {
		if seen[id] {
			return
		}
		seen[id] = true
		out = append(out, id)
		for _, next := range g.edges[id] {
			visit(next)
		}
	}
	visit(from)
	return out
}

// Cycles returns the strongly connected components that form cycles: every
// component with more than one node, plus single nodes with an edge to
// themselves. Nodes within a component and the components themselves are
// ordered by node insertion order.
func (g *Graph) Cycles() [][]string {
	t := &tarjan{
		g:       g,
		index:   map[string]int{},
		low:     map[string]int{},
		onStack: map[string]bool{},
	}
	for _, id := range g.nodes {
		if _, ok := t.index[id]; !ok {
			t.connect(id)
		}
	}

	var cycles [][]string
	for _, scc := range t.sccs {
		if len(scc) == 1 && !g.selfLoop(scc[0]) {
			continue
		}
		sortByInsertion(g, scc)
		cycles = append(cycles, scc)
	}
	sortComponents(g, cycles)
	return cycles
}

func (g *Graph) selfLoop(id string) bool {
	for _, e := range g.edges[id] {
		if e == id {
			return true
		}
	}
	return false
}

type tarjan struct {
	g       *Graph
	counter int
	index   map[string]int
	low     map[string]int
	stack   []string
	onStack map[string]bool
	sccs    [][]string
}

func (t *tarjan) connect(v string) {
	t.index[v] = t.counter
	t.low[v] = t.counter
	t.counter++
	t.stack = append(t.stack, v)
	t.onStack[v] = true

	for _, w := range t.g.edges[v] {
		if _, ok := t.index[w]; !ok {
			t.connect(w)
			t.low[v] = min(t.low[v], t.low[w])
		} else if t.onStack[w] {
			t.low[v] = min(t.low[v], t.index[w])
		}
	}

	if t.low[v] != t.index[v] {
		return
	}
	var scc []string
	for {
		w := t.stack[len(t.stack)-1]
		t.stack = t.stack[:len(t.stack)-1]
		t.onStack[w] = false
		scc = append(scc, w)
		if w == v {
			break
		}
	}
	t.sccs = append(t.sccs, scc)
}

func sortByInsertion(g *Graph, ids []string) {
	sort.Slice(ids, func(i, j int) bool { return g.index[ids[i]] < g.index[ids[j]] })
}

func sortComponents(g *Graph, comps [][]string) {
	sort.Slice(comps, func(i, j int) bool { return g.index[comps[i][0]] < g.index[comps[j][0]] })
}
