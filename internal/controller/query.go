package controller

import (
	"github.com/roach88/rowgraph/internal/ir"
	"github.com/roach88/rowgraph/internal/predicate"
)

// SearchQuery selects elements of one kind.
//
// Predicates are keyed by property names and the reserved keys ~id and
// ~label; nil matches everything. A positive Limit caps the number of
// elements returned.
type SearchQuery struct {
	Predicates *predicate.Holder
	Limit      int
}

// SearchVertexQuery selects the edges adjacent to Vertices in Direction
// that also satisfy Predicates.
type SearchVertexQuery struct {
	Vertices   []*ir.Vertex
	Direction  ir.Direction
	Predicates *predicate.Holder
	Limit      int
}

// AddVertexQuery describes a vertex to insert. A nil ID is generated.
type AddVertexQuery struct {
	ID         ir.IRValue
	Label      string
	Properties ir.IRObject
}

// AddEdgeQuery describes an edge to insert. A nil ID is generated.
type AddEdgeQuery struct {
	ID         ir.IRValue
	Label      string
	Out        *ir.Vertex
	In         *ir.Vertex
	Properties ir.IRObject
}

// DeferredVertexQuery lists placeholder vertices whose properties should be
// loaded.
type DeferredVertexQuery struct {
	Vertices []*ir.Vertex
}
