package schema

import (
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/rowgraph/internal/ir"
	"github.com/roach88/rowgraph/internal/predicate"
)

var (
	// ErrUnmappedProperty is returned when an element carries a property the
	// table has no column for.
	ErrUnmappedProperty = errors.New("property has no column")

	// ErrMissingID is returned when an element or a row has no identity.
	ErrMissingID = errors.New("missing identity")

	// ErrMissingEndpoint is returned when an edge lacks an out or in vertex.
	ErrMissingEndpoint = errors.New("missing edge endpoint")
)

// Schema binds one element kind to one table.
//
// Predicates passed to ToPredicates are keyed by element property names and
// the reserved keys; the returned tree is keyed by column names of this
// table and can be handed to a Translator directly.
type Schema[E ir.Element] interface {
	Table() string
	IDColumn() string

	// Applies reports whether e belongs in this table.
	Applies(e E) bool
	ToRow(e E) (ir.Row, error)
	// ToFields returns the identity fields of e, keyed by column.
	ToFields(e E) (map[string]any, error)
	ToPredicates(h *predicate.Holder) *predicate.Holder

	// Accepts reports whether row has the shape of this table.
	Accepts(row ir.ResultRow) bool
	FromRow(row ir.ResultRow) (E, error)
}

// VertexSchema is a Schema for vertices.
type VertexSchema interface {
	Schema[*ir.Vertex]

	// ToDeferredPredicates matches the rows whose identity is one of the
	// given placeholders. It is aborted when none of them can live here.
	ToDeferredPredicates(vertices []*ir.Vertex) *predicate.Holder
}

// EdgeSchema is a Schema for edges.
type EdgeSchema interface {
	Schema[*ir.Edge]

	// ToVertexPredicates matches the edges adjacent to vertices in direction
	// dir that also satisfy extra.
	ToVertexPredicates(vertices []*ir.Vertex, dir ir.Direction, extra *predicate.Holder) *predicate.Holder
}

// table holds what vertex and edge tables share: identity, label and the
// property mapping.
type table struct {
	def    Definition
	byName map[string]Property
}

func newTable(def Definition, kind ir.Kind) (table, error) {
	def.Kind = kind
	if err := def.Validate(); err != nil {
		return table{}, err
	}
	def = def.withDefaults()
	byName := make(map[string]Property, len(def.Properties))
	for _, p := range def.Properties {
		byName[p.Name] = p
	}
	return table{def: def, byName: byName}, nil
}

func (t *table) Table() string    { return t.def.Table }
func (t *table) IDColumn() string { return t.def.IDColumn }

// Definition returns the definition the table was built from.
func (t *table) Definition() Definition { return t.def }

func (t *table) appliesLabel(label string) bool {
	if label == "" {
		return false
	}
	return t.def.LabelColumn != "" || label == t.def.Label
}

// ToPredicates restates h over the columns of this table.
//
// A ~label leaf is decided statically when the label is fixed. Leaves on
// properties without a column can never match. Operands are converted to
// the column type; an operand that cannot be stored in the column never
// equals any row value.
func (t *table) ToPredicates(h *predicate.Holder) *predicate.Holder {
	if h == nil {
		return predicate.Empty()
	}
	return h.Rewrite(t.restateLeaf)
}

func (t *table) restateLeaf(has predicate.Has) (predicate.Has, predicate.Truth) {
	switch has.Key {
	case predicate.KeyLabel:
		if t.def.LabelColumn == "" {
			return has, decide(has.Test(ir.IRString(t.def.Label), true))
		}
		return restateColumn(has, t.def.LabelColumn, ir.TypeString)
	case predicate.KeyID:
		return restateColumn(has, t.def.IDColumn, t.def.IDType)
	}
	p, ok := t.byName[has.Key]
	if !ok {
		return has, predicate.False
	}
	return restateColumn(has, p.Column, p.Type)
}

func decide(ok bool) predicate.Truth {
	if ok {
		return predicate.True
	}
	return predicate.False
}

// restateColumn renames the leaf to col and converts its operand to typ.
func restateColumn(has predicate.Has, col string, typ ir.ColumnType) (predicate.Has, predicate.Truth) {
	out := predicate.Has{Key: col, Op: has.Op}

	switch has.Op {
	case predicate.Within, predicate.Without:
		arr, _ := has.Value.(ir.IRArray)
		converted := make(ir.IRArray, 0, len(arr))
		for _, v := range arr {
			if c, err := typ.Coerce(v); err == nil {
				converted = append(converted, c)
			}
		}
		if len(converted) == 0 {
			return out, decide(has.Op == predicate.Without)
		}
		out.Value = converted
		return out, predicate.Unknown

	case predicate.StartsWith:
		if typ != ir.TypeString {
			return out, predicate.False
		}
		out.Value = has.Value
		return out, predicate.Unknown
	}

	c, err := typ.Coerce(has.Value)
	if err != nil {
		return out, decide(has.Op == predicate.Neq)
	}
	out.Value = c
	return out, predicate.Unknown
}

// identity converts an element identity to its column value.
func identity(id ir.IRValue, typ ir.ColumnType) (any, error) {
	if isNull(id) {
		return nil, ErrMissingID
	}
	c, err := typ.Coerce(id)
	if err != nil {
		return nil, fmt.Errorf("identity: %w", err)
	}
	return ir.ToNative(c)
}

func isNull(v ir.IRValue) bool {
	if v == nil {
		return true
	}
	_, null := v.(ir.IRNull)
	return null
}

// leadingFields returns the identity and label fields of a row.
func (t *table) leadingFields(id ir.IRValue, label string) (any, []ir.Field, error) {
	idVal, err := identity(id, t.def.IDType)
	if err != nil {
		return nil, nil, fmt.Errorf("table %s: %w", t.def.Table, err)
	}
	fields := []ir.Field{{Column: t.def.IDColumn, Value: idVal}}
	if t.def.LabelColumn != "" {
		fields = append(fields, ir.Field{Column: t.def.LabelColumn, Value: label})
	}
	return idVal, fields, nil
}

// propertyFields converts properties to column values in definition order.
// Properties the element does not carry are written as NULL. An unmapped
// property named like the id column or a reserved key is ignored: identity
// only ever comes from the element identity.
func (t *table) propertyFields(props ir.IRObject) ([]ir.Field, error) {
	for _, name := range props.SortedKeys() {
		if _, ok := t.byName[name]; ok {
			continue
		}
		if name == t.def.IDColumn || strings.HasPrefix(name, "~") {
			continue
		}
		return nil, fmt.Errorf("table %s: %q: %w", t.def.Table, name, ErrUnmappedProperty)
	}

	fields := make([]ir.Field, 0, len(t.def.Properties))
	for _, p := range t.def.Properties {
		v, ok := props[p.Name]
		if !ok {
			fields = append(fields, ir.Field{Column: p.Column})
			continue
		}
		c, err := p.Type.Coerce(v)
		if err != nil {
			return nil, fmt.Errorf("table %s: property %q: %w", t.def.Table, p.Name, err)
		}
		native, err := ir.ToNative(c)
		if err != nil {
			return nil, fmt.Errorf("table %s: property %q: %w", t.def.Table, p.Name, err)
		}
		fields = append(fields, ir.Field{Column: p.Column, Value: native})
	}
	return fields, nil
}

func (t *table) identityFields(id ir.IRValue) (map[string]any, error) {
	idVal, err := identity(id, t.def.IDType)
	if err != nil {
		return nil, fmt.Errorf("table %s: %w", t.def.Table, err)
	}
	return map[string]any{t.def.IDColumn: idVal}, nil
}

// acceptsShape checks provenance and the structural columns.
func (t *table) acceptsShape(row ir.ResultRow, extra ...string) bool {
	if row.Table != "" && row.Table != t.def.Table {
		return false
	}
	if !row.Has(t.def.IDColumn) {
		return false
	}
	if t.def.LabelColumn != "" && !row.Has(t.def.LabelColumn) {
		return false
	}
	for _, col := range extra {
		if !row.Has(col) {
			return false
		}
	}
	return true
}

// readValue reads a non-NULL column converted to typ.
func (t *table) readValue(row ir.ResultRow, col string, typ ir.ColumnType) (ir.IRValue, error) {
	raw, ok := row.Columns[col]
	if !ok || raw == nil {
		return nil, fmt.Errorf("table %s: column %q: %w", t.def.Table, col, ErrMissingID)
	}
	v, err := ir.FromNative(raw)
	if err != nil {
		return nil, fmt.Errorf("table %s: column %q: %w", t.def.Table, col, err)
	}
	c, err := typ.Coerce(v)
	if err != nil {
		return nil, fmt.Errorf("table %s: column %q: %w", t.def.Table, col, err)
	}
	return c, nil
}

func (t *table) readLabel(row ir.ResultRow) (string, error) {
	if t.def.LabelColumn == "" {
		return t.def.Label, nil
	}
	v, err := t.readValue(row, t.def.LabelColumn, ir.TypeString)
	if err != nil {
		return "", err
	}
	return string(v.(ir.IRString)), nil
}

// readProperties collects the mapped columns of row. NULL columns are
// absent properties.
func (t *table) readProperties(row ir.ResultRow) (ir.IRObject, error) {
	var props ir.IRObject
	for _, p := range t.def.Properties {
		raw, ok := row.Columns[p.Column]
		if !ok || raw == nil {
			continue
		}
		v, err := ir.FromNative(raw)
		if err != nil {
			return nil, fmt.Errorf("table %s: column %q: %w", t.def.Table, p.Column, err)
		}
		c, err := p.Type.Coerce(v)
		if err != nil {
			return nil, fmt.Errorf("table %s: column %q: %w", t.def.Table, p.Column, err)
		}
		if props == nil {
			props = ir.IRObject{}
		}
		props[p.Name] = c
	}
	return props, nil
}
