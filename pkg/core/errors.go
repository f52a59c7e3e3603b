package core

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound signals a lookup miss in the state store or registry.
var ErrNotFound = errors.New("not found")

// CycleError is returned when the dependency graph contains a cycle.
type CycleError struct {
	// Path lists the nodes forming the cycle, with the first node
	// repeated at the end.
	Path []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("dependency cycle detected: %s", strings.Join(e.Path, " -> "))
}

// DuplicateNodeError is returned when two files declare the same node name.
type DuplicateNodeError struct {
	Name      string
	FirstPath string
	OtherPath string
}

func (e *DuplicateNodeError) Error() string {
	return fmt.Sprintf("duplicate node %q: defined in %s and %s", e.Name, e.FirstPath, e.OtherPath)
}

// UnknownSelectorError is returned when a selector names a node that does
// not exist in the graph.
type UnknownSelectorError struct {
	Name string
}

func (e *UnknownSelectorError) Error() string {
	return fmt.Sprintf("selector references unknown node %q", e.Name)
}

// UnknownReferenceError is returned in strict mode when a node references
// a table that is neither another node nor a declared source.
type UnknownReferenceError struct {
	Node string
	Refs []string
}

func (e *UnknownReferenceError) Error() string {
	return fmt.Sprintf("node %q references unknown tables: %s", e.Node, strings.Join(e.Refs, ", "))
}
