// Package dag provides the directed acyclic graph over transformation
// nodes: cycle detection, topological ordering, and execution levels.
package dag

import (
	"fmt"
	"sort"

	"github.com/leapstack-labs/modelflow/pkg/core"
)

// Graph is a directed acyclic graph of named nodes. Edges run from a
// parent (dependency) to a child (dependent).
type Graph struct {
	nodes    map[string]*core.Node
	children map[string][]string // parent -> children
	parents  map[string][]string // child -> parents
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{
		nodes:    make(map[string]*core.Node),
		children: make(map[string][]string),
		parents:  make(map[string][]string),
	}
}

// AddNode adds a node to the graph. Adding an existing name replaces its
// payload.
func (g *Graph) AddNode(name string, node *core.Node) {
	if _, exists := g.nodes[name]; !exists {
		g.children[name] = []string{}
		g.parents[name] = []string{}
	}
	g.nodes[name] = node
}

// AddEdge adds a directed edge from parent to child (child depends on
// parent). Duplicate edges are ignored.
func (g *Graph) AddEdge(parent, child string) error {
	if _, exists := g.nodes[parent]; !exists {
		return fmt.Errorf("parent node %q does not exist", parent)
	}
	if _, exists := g.nodes[child]; !exists {
		return fmt.Errorf("child node %q does not exist", child)
	}
	if parent == child {
		return fmt.Errorf("self-loop detected: %s", parent)
	}

	if !contains(g.children[parent], child) {
		g.children[parent] = append(g.children[parent], child)
	}
	if !contains(g.parents[child], parent) {
		g.parents[child] = append(g.parents[child], parent)
	}

	return nil
}

// Node returns the payload for a name.
func (g *Graph) Node(name string) (*core.Node, bool) {
	node, exists := g.nodes[name]
	return node, exists
}

// Has reports whether the graph contains the name.
func (g *Graph) Has(name string) bool {
	_, exists := g.nodes[name]
	return exists
}

// Parents returns the direct dependencies of a node.
func (g *Graph) Parents(name string) []string {
	return g.parents[name]
}

// Children returns the direct dependents of a node.
func (g *Graph) Children(name string) []string {
	return g.children[name]
}

// Names returns all node names in lexical order.
func (g *Graph) Names() []string {
	names := make([]string, 0, len(g.nodes))
	for name := range g.nodes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NodeCount returns the number of nodes.
func (g *Graph) NodeCount() int {
	return len(g.nodes)
}

// EdgeCount returns the number of edges.
func (g *Graph) EdgeCount() int {
	count := 0
	for _, cs := range g.children {
		count += len(cs)
	}
	return count
}

// Validate returns a CycleError if the graph contains a cycle.
func (g *Graph) Validate() error {
	if path := g.findCycle(); path != nil {
		return &core.CycleError{Path: path}
	}
	return nil
}

// findCycle runs a DFS with a recursion stack and returns the cycle path
// (first node repeated at the end), or nil if the graph is acyclic.
func (g *Graph) findCycle() []string {
	visited := make(map[string]bool)
	recStack := make(map[string]bool)
	cameFrom := make(map[string]string)

	var cyclePath []string

	var dfs func(name string) bool
	dfs = func(name string) bool {
		visited[name] = true
		recStack[name] = true

		for _, child := range g.children[name] {
			if !visited[child] {
				cameFrom[child] = name
				if dfs(child) {
					return true
				}
			} else if recStack[child] {
				// Reconstruct the path from the re-entered node back to
				// itself.
				cyclePath = []string{child}
				for curr := name; curr != child; curr = cameFrom[curr] {
					cyclePath = append([]string{curr}, cyclePath...)
				}
				cyclePath = append([]string{child}, cyclePath...)
				return true
			}
		}

		recStack[name] = false
		return false
	}

	// Seed in lexical order so the reported cycle is deterministic.
	for _, name := range g.Names() {
		if !visited[name] {
			if dfs(name) {
				return cyclePath
			}
		}
	}

	return nil
}

// TopologicalOrder returns all node names with dependencies before
// dependents. Ties break lexically.
func (g *Graph) TopologicalOrder() ([]string, error) {
	if err := g.Validate(); err != nil {
		return nil, err
	}

	visited := make(map[string]bool)
	var result []string

	var visit func(name string)
	visit = func(name string) {
		if visited[name] {
			return
		}
		visited[name] = true

		parents := append([]string(nil), g.parents[name]...)
		sort.Strings(parents)
		for _, parent := range parents {
			visit(parent)
		}

		result = append(result, name)
	}

	for _, name := range g.Names() {
		visit(name)
	}

	return result, nil
}

// ExecutionLevels groups the given scope into levels: a node's level is
// one more than the highest level among its in-scope parents. Parents
// outside the scope are treated as satisfied. Names sort lexically within
// a level. A nil scope means the whole graph.
func (g *Graph) ExecutionLevels(scope []string) ([][]string, error) {
	if err := g.Validate(); err != nil {
		return nil, err
	}

	if scope == nil {
		scope = g.Names()
	}

	inScope := make(map[string]bool, len(scope))
	for _, name := range scope {
		if g.Has(name) {
			inScope[name] = true
		}
	}

	assigned := make(map[string]int)

	var level func(name string) int
	level = func(name string) int {
		if l, ok := assigned[name]; ok {
			return l
		}

		max := -1
		for _, parent := range g.parents[name] {
			if !inScope[parent] {
				continue
			}
			if pl := level(parent); pl > max {
				max = pl
			}
		}

		l := max + 1
		assigned[name] = l
		return l
	}

	maxLevel := -1
	for name := range inScope {
		if l := level(name); l > maxLevel {
			maxLevel = l
		}
	}

	levels := make([][]string, maxLevel+1)
	for name, l := range assigned {
		levels[l] = append(levels[l], name)
	}
	for i := range levels {
		sort.Strings(levels[i])
	}

	return levels, nil
}

// Descendants returns every node downstream of name, not including name
// itself, in lexical order.
func (g *Graph) Descendants(name string) []string {
	seen := make(map[string]bool)

	var walk func(n string)
	walk = func(n string) {
		for _, child := range g.children[n] {
			if !seen[child] {
				seen[child] = true
				walk(child)
			}
		}
	}
	walk(name)

	return sortedKeys(seen)
}

// Ancestors returns every node upstream of name, not including name
// itself, in lexical order.
func (g *Graph) Ancestors(name string) []string {
	seen := make(map[string]bool)

	var walk func(n string)
	walk = func(n string) {
		for _, parent := range g.parents[n] {
			if !seen[parent] {
				seen[parent] = true
				walk(parent)
			}
		}
	}
	walk(name)

	return sortedKeys(seen)
}

// Roots returns nodes with no dependencies, in lexical order.
func (g *Graph) Roots() []string {
	var roots []string
	for name := range g.nodes {
		if len(g.parents[name]) == 0 {
			roots = append(roots, name)
		}
	}
	sort.Strings(roots)
	return roots
}

// Leaves returns nodes with no dependents, in lexical order.
func (g *Graph) Leaves() []string {
	var leaves []string
	for name := range g.nodes {
		if len(g.children[name]) == 0 {
			leaves = append(leaves, name)
		}
	}
	sort.Strings(leaves)
	return leaves
}

func sortedKeys(set map[string]bool) []string {
	result := make([]string, 0, len(set))
	for name := range set {
		result = append(result, name)
	}
	sort.Strings(result)
	return result
}

func contains(slice []string, str string) bool {
	for _, s := range slice {
		if s == str {
			return true
		}
	}
	return false
}
