package deps

import (
	"strings"

	"github.com/leapstack-labs/modelflow/pkg/core"
)

// Categories splits a node's extracted references into internal
// dependencies (other nodes), external dependencies (declared sources),
// and unknown references.
type Categories struct {
	Internal []string
	External []string
	Unknown  []string
}

// Categorize matches each reference against known node names and declared
// sources. Matching is case-insensitive; a qualified reference matches a
// node by its final dot-segment, and a source by its declared name or its
// schema-qualified name. Unknown references are kept for warning output
// and are also counted as external so the graph still builds.
func Categorize(refs []string, nodeNames []string, sources []core.Source) Categories {
	nodes := make(map[string]string, len(nodeNames))
	for _, name := range nodeNames {
		nodes[strings.ToLower(name)] = name
	}

	srcs := make(map[string]string, len(sources)*2)
	for _, s := range sources {
		srcs[strings.ToLower(s.Name)] = s.Name
		if s.Schema != "" {
			srcs[strings.ToLower(s.Relation())] = s.Name
		}
	}

	var cats Categories
	for _, ref := range refs {
		lower := strings.ToLower(ref)
		short := normalizeName(ref)

		if name, ok := nodes[lower]; ok {
			cats.Internal = append(cats.Internal, name)
			continue
		}
		if name, ok := nodes[short]; ok {
			cats.Internal = append(cats.Internal, name)
			continue
		}

		if name, ok := srcs[lower]; ok {
			cats.External = append(cats.External, name)
			continue
		}
		if name, ok := srcs[short]; ok {
			cats.External = append(cats.External, name)
			continue
		}

		cats.Unknown = append(cats.Unknown, ref)
		cats.External = append(cats.External, ref)
	}

	return cats
}
