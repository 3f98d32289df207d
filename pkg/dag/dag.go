// Package dag implements the directed dependency graph used to order
// bundled source files.
//
// Nodes are identified by project-relative file paths and edges point from
// a file to the files it imports (A→B means A depends on B). The graph may
// contain cycles while it is being built; they are surfaced explicitly by
// [Graph.FindCycle] and by [Graph.Topological], never resolved silently.
//
// All traversals are deterministic: nodes and children are visited in
// ascending path order, so the same graph always yields the same result.
package dag

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
)

var (
	// ErrInvalidNodeID is returned by [Graph.AddNode] when the node ID is
	// empty. All nodes must have non-empty identifiers.
	ErrInvalidNodeID = errors.New("node ID must not be empty")

	// ErrDuplicateNodeID is returned by [Graph.AddNode] when a node with the
	// same ID already exists in the graph.
	ErrDuplicateNodeID = errors.New("duplicate node ID")

	// ErrUnknownSourceNode is returned by [Graph.AddEdge] when the From node
	// does not exist.
	ErrUnknownSourceNode = errors.New("unknown source node")

	// ErrUnknownTargetNode is returned by [Graph.AddEdge] when the To node
	// does not exist.
	ErrUnknownTargetNode = errors.New("unknown target node")

	// ErrSelfEdge is returned by [Graph.AddEdge] when From equals To.
	// A file cannot depend on itself; callers are expected to warn and move on.
	ErrSelfEdge = errors.New("self edge not allowed")
)

// CycleError reports a dependency cycle. Path holds the node IDs along the
// cycle with the first ID repeated at the end, e.g. [a, b, a].
type CycleError struct {
	Path []string
}

// Error implements the error interface.
func (e *CycleError) Error() string {
	return fmt.Sprintf("dependency cycle: %s", strings.Join(e.Path, " -> "))
}

// Edge is a directed connection between two nodes.
type Edge struct {
	From string
	To   string
}

// Graph is a directed graph over string node IDs with adjacency indices in
// both directions. The zero value is not usable - use New.
//
// Graph is not safe for concurrent use; the bundling pipeline is
// single-threaded by design.
type Graph struct {
	nodes    map[string]bool
	edges    []Edge
	outgoing map[string][]string // nodeID -> dependency IDs
	incoming map[string][]string // nodeID -> dependent IDs
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{
		nodes:    make(map[string]bool),
		outgoing: make(map[string][]string),
		incoming: make(map[string][]string),
	}
}

// AddNode adds a node to the graph.
// Returns ErrInvalidNodeID for an empty ID and ErrDuplicateNodeID if the
// node already exists.
func (g *Graph) AddNode(id string) error {
	if id == "" {
		return ErrInvalidNodeID
	}
	if g.nodes[id] {
		return ErrDuplicateNodeID
	}
	g.nodes[id] = true
	return nil
}

// AddEdge adds a directed edge between two existing nodes. Adding an edge
// that already exists is a no-op, so callers can feed every resolved import
// without deduplicating first.
//
// Returns ErrSelfEdge when from equals to, ErrUnknownSourceNode or
// ErrUnknownTargetNode when either endpoint is missing.
func (g *Graph) AddEdge(from, to string) error {
	if from == to {
		return ErrSelfEdge
	}
	if !g.nodes[from] {
		return ErrUnknownSourceNode
	}
	if !g.nodes[to] {
		return ErrUnknownTargetNode
	}
	if slices.Contains(g.outgoing[from], to) {
		return nil
	}
	g.edges = append(g.edges, Edge{From: from, To: to})
	g.outgoing[from] = append(g.outgoing[from], to)
	g.incoming[to] = append(g.incoming[to], from)
	return nil
}

// HasNode reports whether the node exists.
func (g *Graph) HasNode(id string) bool { return g.nodes[id] }

// Nodes returns all node IDs in ascending order.
func (g *Graph) Nodes() []string {
	return slices.Sorted(maps.Keys(g.nodes))
}

// Edges returns a copy of all edges in insertion order.
func (g *Graph) Edges() []Edge { return slices.Clone(g.edges) }

// NodeCount returns the number of nodes in the graph.
func (g *Graph) NodeCount() int { return len(g.nodes) }

// EdgeCount returns the number of edges in the graph.
func (g *Graph) EdgeCount() int { return len(g.edges) }

// Children returns the IDs this node depends on, in ascending order.
func (g *Graph) Children(id string) []string {
	return slices.Sorted(slices.Values(g.outgoing[id]))
}

// Parents returns the IDs that depend on this node, in ascending order.
func (g *Graph) Parents(id string) []string {
	return slices.Sorted(slices.Values(g.incoming[id]))
}

// FindCycle returns the path of the first cycle found in deterministic
// traversal order, or nil if the graph is acyclic. The returned path repeats
// the entry node at the end ([a, b, a]).
//
// Detection uses depth-first search with white/gray/black coloring and runs
// in O(N+E) time.
func (g *Graph) FindCycle() []string {
	const (
		white = iota
		gray
		black
	)

	color := make(map[string]int, len(g.nodes))
	var stack []string
	var cycle []string

	var dfs func(id string) bool
	dfs = func(id string) bool {
		color[id] = gray
		stack = append(stack, id)
		for _, child := range g.Children(id) {
			switch color[child] {
			case white:
				if dfs(child) {
					return true
				}
			case gray:
				start := slices.Index(stack, child)
				cycle = append(slices.Clone(stack[start:]), child)
				return true
			}
		}
		stack = stack[:len(stack)-1]
		color[id] = black
		return false
	}

	for _, id := range g.Nodes() {
		if color[id] == white && dfs(id) {
			return cycle
		}
	}
	return nil
}

// Topological returns a dependency-first ordering of all nodes: for every
// edge A→B, B appears strictly before A. Every node is included, even ones
// unreachable from last.
//
// If last names an existing node it is forced to the end of the sequence
// regardless of its position in the graph; the bundler uses this to emit the
// entry point immediately before the closing guard. Remaining ties are
// broken by ascending ID.
//
// Returns a *CycleError carrying the full cycle path if the graph is cyclic.
func (g *Graph) Topological(last string) ([]string, error) {
	if path := g.FindCycle(); path != nil {
		return nil, &CycleError{Path: path}
	}

	order := make([]string, 0, len(g.nodes))
	visited := make(map[string]bool, len(g.nodes))

	var visit func(id string)
	visit = func(id string) {
		if visited[id] {
			return
		}
		visited[id] = true
		for _, dep := range g.Children(id) {
			visit(dep)
		}
		if id != last {
			order = append(order, id)
		}
	}

	for _, id := range g.Nodes() {
		visit(id)
	}
	if g.nodes[last] {
		order = append(order, last)
	}
	return order, nil
}
