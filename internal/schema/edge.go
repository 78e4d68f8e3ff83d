package schema

import (
	"fmt"

	"github.com/roach88/rowgraph/internal/ir"
	"github.com/roach88/rowgraph/internal/predicate"
)

// EdgeTable is an EdgeSchema backed by one table with out and in columns.
type EdgeTable struct {
	table
}

var _ EdgeSchema = (*EdgeTable)(nil)

// NewEdgeSchema validates def and builds its edge table.
func NewEdgeSchema(def Definition) (*EdgeTable, error) {
	t, err := newTable(def, ir.KindEdge)
	if err != nil {
		return nil, err
	}
	return &EdgeTable{table: t}, nil
}

// Applies checks the edge label and, when the table restricts them, the
// labels of known endpoints.
func (s *EdgeTable) Applies(e *ir.Edge) bool {
	if e == nil || !s.appliesLabel(e.Label) {
		return false
	}
	return endpointFits(e.Out, s.def.OutLabel) && endpointFits(e.In, s.def.InLabel)
}

func endpointFits(v *ir.Vertex, label string) bool {
	return label == "" || v == nil || v.Label == "" || v.Label == label
}

func (s *EdgeTable) ToRow(e *ir.Edge) (ir.Row, error) {
	if e.Out == nil || e.In == nil {
		return ir.Row{}, fmt.Errorf("table %s: edge %v: %w", s.def.Table, e.ID, ErrMissingEndpoint)
	}
	id, fields, err := s.leadingFields(e.ID, e.Label)
	if err != nil {
		return ir.Row{}, err
	}
	out, err := identity(e.Out.ID, s.def.EndpointType)
	if err != nil {
		return ir.Row{}, fmt.Errorf("table %s: out vertex: %w", s.def.Table, err)
	}
	in, err := identity(e.In.ID, s.def.EndpointType)
	if err != nil {
		return ir.Row{}, fmt.Errorf("table %s: in vertex: %w", s.def.Table, err)
	}
	fields = append(fields,
		ir.Field{Column: s.def.OutColumn, Value: out},
		ir.Field{Column: s.def.InColumn, Value: in},
	)

	props, err := s.propertyFields(e.Properties)
	if err != nil {
		return ir.Row{}, err
	}
	return ir.Row{IDColumn: s.def.IDColumn, ID: id, Fields: append(fields, props...)}, nil
}

func (s *EdgeTable) ToFields(e *ir.Edge) (map[string]any, error) {
	return s.identityFields(e.ID)
}

func (s *EdgeTable) Accepts(row ir.ResultRow) bool {
	return s.acceptsShape(row, s.def.OutColumn, s.def.InColumn)
}

// FromRow builds the edge with deferred endpoints.
func (s *EdgeTable) FromRow(row ir.ResultRow) (*ir.Edge, error) {
	id, err := s.readValue(row, s.def.IDColumn, s.def.IDType)
	if err != nil {
		return nil, err
	}
	label, err := s.readLabel(row)
	if err != nil {
		return nil, err
	}
	outID, err := s.readValue(row, s.def.OutColumn, s.def.EndpointType)
	if err != nil {
		return nil, err
	}
	inID, err := s.readValue(row, s.def.InColumn, s.def.EndpointType)
	if err != nil {
		return nil, err
	}
	props, err := s.readProperties(row)
	if err != nil {
		return nil, err
	}

	out := ir.NewDeferredVertex(outID)
	out.Label = s.def.OutLabel
	in := ir.NewDeferredVertex(inID)
	in.Label = s.def.InLabel
	return &ir.Edge{ID: id, Label: label, Properties: props, Out: out, In: in}, nil
}

// ToVertexPredicates matches edges whose dir endpoint is one of vertices.
// For DirectionBoth either endpoint may match.
func (s *EdgeTable) ToVertexPredicates(vertices []*ir.Vertex, dir ir.Direction, extra *predicate.Holder) *predicate.Holder {
	var sides []*predicate.Holder
	if dir == ir.DirectionOut || dir == ir.DirectionBoth {
		sides = append(sides, s.endpoint(vertices, s.def.OutColumn, s.def.OutLabel))
	}
	if dir == ir.DirectionIn || dir == ir.DirectionBoth {
		sides = append(sides, s.endpoint(vertices, s.def.InColumn, s.def.InLabel))
	}
	return predicate.And(predicate.Or(sides...), s.ToPredicates(extra))
}

func (s *EdgeTable) endpoint(vertices []*ir.Vertex, col, label string) *predicate.Holder {
	var ids ir.IRArray
	for _, v := range vertices {
		if v == nil || isNull(v.ID) || !endpointFits(v, label) {
			continue
		}
		id, err := s.def.EndpointType.Coerce(v.ID)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return predicate.Abort()
	}
	return predicate.Leaf(predicate.Has{Key: col, Op: predicate.Within, Value: ids})
}

func (s *EdgeTable) String() string {
	return fmt.Sprintf("edge table %s", s.def.Table)
}
