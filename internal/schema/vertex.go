package schema

import (
	"fmt"

	"github.com/roach88/rowgraph/internal/ir"
	"github.com/roach88/rowgraph/internal/predicate"
)

// VertexTable is a VertexSchema backed by one table.
type VertexTable struct {
	table
}

var _ VertexSchema = (*VertexTable)(nil)

// NewVertexSchema validates def and builds its vertex table.
func NewVertexSchema(def Definition) (*VertexTable, error) {
	t, err := newTable(def, ir.KindVertex)
	if err != nil {
		return nil, err
	}
	return &VertexTable{table: t}, nil
}

func (s *VertexTable) Applies(v *ir.Vertex) bool {
	return v != nil && s.appliesLabel(v.Label)
}

func (s *VertexTable) ToRow(v *ir.Vertex) (ir.Row, error) {
	id, fields, err := s.leadingFields(v.ID, v.Label)
	if err != nil {
		return ir.Row{}, err
	}
	props, err := s.propertyFields(v.Properties)
	if err != nil {
		return ir.Row{}, err
	}
	return ir.Row{IDColumn: s.def.IDColumn, ID: id, Fields: append(fields, props...)}, nil
}

func (s *VertexTable) ToFields(v *ir.Vertex) (map[string]any, error) {
	return s.identityFields(v.ID)
}

func (s *VertexTable) Accepts(row ir.ResultRow) bool {
	return s.acceptsShape(row)
}

func (s *VertexTable) FromRow(row ir.ResultRow) (*ir.Vertex, error) {
	id, err := s.readValue(row, s.def.IDColumn, s.def.IDType)
	if err != nil {
		return nil, err
	}
	label, err := s.readLabel(row)
	if err != nil {
		return nil, err
	}
	props, err := s.readProperties(row)
	if err != nil {
		return nil, err
	}
	return &ir.Vertex{ID: id, Label: label, Properties: props}, nil
}

// ToDeferredPredicates keeps the placeholders whose label, when known, fits
// this table and whose identity can be stored in the id column.
func (s *VertexTable) ToDeferredPredicates(vertices []*ir.Vertex) *predicate.Holder {
	var ids ir.IRArray
	for _, v := range vertices {
		if v == nil || (v.Label != "" && !s.appliesLabel(v.Label)) {
			continue
		}
		if isNull(v.ID) {
			continue
		}
		id, err := s.def.IDType.Coerce(v.ID)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return predicate.Abort()
	}
	return predicate.Leaf(predicate.Has{Key: s.def.IDColumn, Op: predicate.Within, Value: ids})
}

func (s *VertexTable) String() string {
	return fmt.Sprintf("vertex table %s", s.def.Table)
}
