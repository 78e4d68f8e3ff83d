package ir

import "fmt"

// Kind distinguishes the two element variants.
type Kind int

const (
	KindVertex Kind = iota
	KindEdge
)

func (k Kind) String() string {
	switch k {
	case KindVertex:
		return "vertex"
	case KindEdge:
		return "edge"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Direction is the traversal direction of an edge relative to a vertex.
type Direction int

const (
	DirectionOut Direction = iota
	DirectionIn
	DirectionBoth
)

func (d Direction) String() string {
	switch d {
	case DirectionOut:
		return "out"
	case DirectionIn:
		return "in"
	case DirectionBoth:
		return "both"
	default:
		return fmt.Sprintf("Direction(%d)", int(d))
	}
}

// ParseDirection parses "out", "in" or "both".
func ParseDirection(s string) (Direction, error) {
	switch s {
	case "out":
		return DirectionOut, nil
	case "in":
		return DirectionIn, nil
	case "both":
		return DirectionBoth, nil
	}
	return 0, fmt.Errorf("unknown direction %q: must be out, in or both", s)
}

// Element is a graph vertex or edge.
type Element interface {
	ElementID() IRValue
	ElementLabel() string
	ElementKind() Kind
	ElementProperties() IRObject
}

// Vertex is a graph vertex.
//
// A deferred vertex is a placeholder known only by identity. It is produced
// when an edge is resolved without its endpoints and filled in place by a
// batched property load.
type Vertex struct {
	ID         IRValue  `json:"id"`
	Label      string   `json:"label,omitempty"`
	Properties IRObject `json:"properties,omitempty"`

	deferred bool
}

// NewDeferredVertex creates a placeholder vertex holding only its identity.
func NewDeferredVertex(id IRValue) *Vertex {
	return &Vertex{ID: id, deferred: true}
}

func (v *Vertex) ElementID() IRValue          { return v.ID }
func (v *Vertex) ElementLabel() string        { return v.Label }
func (v *Vertex) ElementKind() Kind           { return KindVertex }
func (v *Vertex) ElementProperties() IRObject { return v.Properties }

// IsDeferred reports whether the vertex is still an unresolved placeholder.
func (v *Vertex) IsDeferred() bool { return v.deferred }

// LoadProperties copies label and properties of resolved into v and marks v
// as resolved. The identity of v is left unchanged.
func (v *Vertex) LoadProperties(resolved *Vertex) {
	if resolved.Label != "" {
		v.Label = resolved.Label
	}
	v.Properties = resolved.Properties.Clone()
	v.deferred = false
}

func (v *Vertex) String() string {
	return fmt.Sprintf("v[%s]", formatID(v.ID))
}

// Edge is a directed graph edge from Out to In.
type Edge struct {
	ID         IRValue  `json:"id"`
	Label      string   `json:"label,omitempty"`
	Properties IRObject `json:"properties,omitempty"`
	Out        *Vertex  `json:"out"`
	In         *Vertex  `json:"in"`
}

func (e *Edge) ElementID() IRValue          { return e.ID }
func (e *Edge) ElementLabel() string        { return e.Label }
func (e *Edge) ElementKind() Kind           { return KindEdge }
func (e *Edge) ElementProperties() IRObject { return e.Properties }

// Vertices returns the endpoints of e seen from direction dir.
func (e *Edge) Vertices(dir Direction) []*Vertex {
	switch dir {
	case DirectionOut:
		return []*Vertex{e.Out}
	case DirectionIn:
		return []*Vertex{e.In}
	default:
		return []*Vertex{e.Out, e.In}
	}
}

func (e *Edge) String() string {
	return fmt.Sprintf("e[%s][%s-%s->%s]", formatID(e.ID), formatID(endpointID(e.Out)), e.Label, formatID(endpointID(e.In)))
}

func endpointID(v *Vertex) IRValue {
	if v == nil {
		return nil
	}
	return v.ID
}

func formatID(id IRValue) string {
	switch v := id.(type) {
	case nil, IRNull:
		return "null"
	case IRString:
		return string(v)
	case IRInt:
		return fmt.Sprintf("%d", int64(v))
	default:
		b, err := MarshalIRValue(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(b)
	}
}
