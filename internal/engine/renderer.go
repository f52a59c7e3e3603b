package engine

import (
	"github.com/leapstack-labs/modelflow/pkg/core"
)

// Renderer turns a node's raw SQL into executable SQL. Template or macro
// expansion plugs in here; the built-in renderer passes SQL through
// unchanged.
type Renderer interface {
	Render(node *core.Node) (string, error)
}

// IdentityRenderer returns the raw SQL unchanged.
type IdentityRenderer struct{}

// Render implements Renderer.
func (IdentityRenderer) Render(node *core.Node) (string, error) {
	return node.RawSQL, nil
}
