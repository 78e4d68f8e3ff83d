package schema

import (
	"fmt"

	"github.com/roach88/rowgraph/internal/ir"
)

// Set is the ordered collection of schemas a controller serves.
// Order is definition order and decides which schema maps a result row
// when several accept it. A Set is not modified after construction.
type Set struct {
	Vertices []VertexSchema
	Edges    []EdgeSchema
}

// NewSet builds the schemas for defs, keeping their order.
func NewSet(defs ...Definition) (Set, error) {
	var set Set
	tables := make(map[string]string, len(defs))
	for _, def := range defs {
		if prev, ok := tables[def.Table]; ok {
			return Set{}, &DefinitionError{
				Definition: def.Name,
				Field:      "table",
				Message:    fmt.Sprintf("table %q already backs %s", def.Table, prev),
			}
		}
		tables[def.Table] = def.Name

		switch def.Kind {
		case ir.KindVertex:
			s, err := NewVertexSchema(def)
			if err != nil {
				return Set{}, err
			}
			set.Vertices = append(set.Vertices, s)
		case ir.KindEdge:
			s, err := NewEdgeSchema(def)
			if err != nil {
				return Set{}, err
			}
			set.Edges = append(set.Edges, s)
		default:
			return Set{}, &DefinitionError{Definition: def.Name, Field: "kind", Message: fmt.Sprintf("unknown kind %s", def.Kind)}
		}
	}
	return set, nil
}

// Empty reports whether the set has no schemas at all.
func (s Set) Empty() bool {
	return len(s.Vertices) == 0 && len(s.Edges) == 0
}
