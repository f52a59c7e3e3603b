// Package selector implements node selection expressions: "name" picks a
// single node, "+name" adds its ancestors, "name+" adds its descendants,
// and comma-separated expressions union their results.
package selector

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/modelflow/internal/dag"
	"github.com/leapstack-labs/modelflow/pkg/core"
)

// Selector is one parsed selection expression.
type Selector struct {
	Name               string
	IncludeAncestors   bool
	IncludeDescendants bool
}

// Parse parses a single selector expression.
func Parse(expr string) (Selector, error) {
	s := Selector{}
	name := strings.TrimSpace(expr)

	if strings.HasPrefix(name, "+") {
		s.IncludeAncestors = true
		name = name[1:]
	}
	if strings.HasSuffix(name, "+") {
		s.IncludeDescendants = true
		name = name[:len(name)-1]
	}

	if name == "" {
		return s, fmt.Errorf("empty selector %q", expr)
	}

	s.Name = name
	return s, nil
}

// ParseList parses a comma-separated list of selector expressions.
func ParseList(spec string) ([]Selector, error) {
	var selectors []Selector
	for _, part := range strings.Split(spec, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		s, err := Parse(part)
		if err != nil {
			return nil, err
		}
		selectors = append(selectors, s)
	}
	if len(selectors) == 0 {
		return nil, fmt.Errorf("empty selector %q", spec)
	}
	return selectors, nil
}

// Apply evaluates the selectors against the graph and returns the union
// of their matches in topological order. A selector naming a node not in
// the graph is an error.
func Apply(g *dag.Graph, selectors []Selector) ([]string, error) {
	selected := make(map[string]bool)

	for _, s := range selectors {
		if !g.Has(s.Name) {
			return nil, &core.UnknownSelectorError{Name: s.Name}
		}

		selected[s.Name] = true

		if s.IncludeAncestors {
			for _, name := range g.Ancestors(s.Name) {
				selected[name] = true
			}
		}
		if s.IncludeDescendants {
			for _, name := range g.Descendants(s.Name) {
				selected[name] = true
			}
		}
	}

	order, err := g.TopologicalOrder()
	if err != nil {
		return nil, err
	}

	result := make([]string, 0, len(selected))
	for _, name := range order {
		if selected[name] {
			result = append(result, name)
		}
	}
	return result, nil
}

// Select parses spec and applies it to the graph in one step. An empty
// spec selects every node in topological order.
func Select(g *dag.Graph, spec string) ([]string, error) {
	if strings.TrimSpace(spec) == "" {
		return g.TopologicalOrder()
	}

	selectors, err := ParseList(spec)
	if err != nil {
		return nil, err
	}
	return Apply(g, selectors)
}
