package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/rowgraph/internal/ir"
	"github.com/roach88/rowgraph/internal/predicate"
)

func personDef() Definition {
	return Definition{
		Name:     "person",
		Table:    "person",
		Label:    "person",
		IDColumn: "id",
		Properties: []Property{
			{Name: "name", Type: ir.TypeString},
			{Name: "age", Column: "age_years", Type: ir.TypeInt},
			{Name: "active", Type: ir.TypeBool},
		},
	}
}

func knowsDef() Definition {
	return Definition{
		Name:      "knows",
		Table:     "knows",
		Label:     "knows",
		IDColumn:  "id",
		OutColumn: "out_id",
		InColumn:  "in_id",
		OutLabel:  "person",
		InLabel:   "person",
		Properties: []Property{
			{Name: "weight", Type: ir.TypeInt},
		},
	}
}

func mustVertex(t *testing.T, def Definition) *VertexTable {
	t.Helper()
	s, err := NewVertexSchema(def)
	require.NoError(t, err)
	return s
}

func mustEdge(t *testing.T, def Definition) *EdgeTable {
	t.Helper()
	s, err := NewEdgeSchema(def)
	require.NoError(t, err)
	return s
}

func has(key string, op predicate.Operator, v ir.IRValue) predicate.Has {
	return predicate.Has{Key: key, Op: op, Value: v}
}

func TestDefinition_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Definition)
		field  string
	}{
		{"no table", func(d *Definition) { d.Table = "" }, "table"},
		{"no id", func(d *Definition) { d.IDColumn = "" }, "id_column"},
		{"no label", func(d *Definition) { d.Label = "" }, "label"},
		{"both labels", func(d *Definition) { d.LabelColumn = "kind" }, "label"},
		{"bad type", func(d *Definition) { d.Properties[0].Type = "float" }, "properties.name"},
		{"reserved name", func(d *Definition) { d.Properties[0].Name = "~id" }, "properties.~id"},
		{"column clash", func(d *Definition) { d.Properties[0].Column = "id" }, "properties.name"},
		{"vertex endpoint", func(d *Definition) { d.OutColumn = "out" }, "out"},
	}

	require.NoError(t, personDef().Validate())

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			def := personDef()
			def.Properties = append([]Property(nil), def.Properties...)
			tt.mutate(&def)

			err := def.Validate()
			var de *DefinitionError
			require.ErrorAs(t, err, &de)
			assert.Equal(t, tt.field, de.Field)
		})
	}
}

func TestDefinition_EdgeRequiresEndpoints(t *testing.T) {
	def := knowsDef()
	def.Kind = ir.KindEdge
	require.NoError(t, def.Validate())

	def.InColumn = ""
	assert.Error(t, def.Validate())
}

func TestDefinition_Columns(t *testing.T) {
	def := knowsDef()
	def.Kind = ir.KindEdge

	var names []string
	for _, c := range def.Columns() {
		names = append(names, c.Name)
	}
	assert.Equal(t, []string{"id", "out_id", "in_id", "weight"}, names)
	assert.Equal(t, ir.TypeString, def.Columns()[1].Type)
}

func TestVertexTable_ToRow(t *testing.T) {
	s := mustVertex(t, personDef())

	row, err := s.ToRow(&ir.Vertex{
		ID:         ir.IRString("v1"),
		Label:      "person",
		Properties: ir.IRObject{"name": ir.IRString("marko"), "age": ir.IRInt(29)},
	})
	require.NoError(t, err)

	assert.Equal(t, "id", row.IDColumn)
	assert.Equal(t, "v1", row.ID)
	assert.Equal(t, []string{"id", "name", "age_years", "active"}, row.Columns())
	assert.Equal(t, []any{"v1", "marko", int64(29), nil}, row.Values())
}

func TestVertexTable_ToRowErrors(t *testing.T) {
	s := mustVertex(t, personDef())

	_, err := s.ToRow(&ir.Vertex{Label: "person"})
	assert.ErrorIs(t, err, ErrMissingID)

	_, err = s.ToRow(&ir.Vertex{ID: ir.IRString("v1"), Label: "person", Properties: ir.IRObject{"color": ir.IRString("red")}})
	assert.ErrorIs(t, err, ErrUnmappedProperty)

	_, err = s.ToRow(&ir.Vertex{ID: ir.IRString("v1"), Label: "person", Properties: ir.IRObject{"age": ir.IRString("old")}})
	assert.Error(t, err)
}

func TestVertexTable_ToRowIgnoresIdentityProperties(t *testing.T) {
	s := mustVertex(t, personDef())

	row, err := s.ToRow(&ir.Vertex{
		ID:         ir.IRString("v1"),
		Label:      "person",
		Properties: ir.IRObject{"id": ir.IRString("v9"), "~id": ir.IRString("v9"), "name": ir.IRString("marko")},
	})
	require.NoError(t, err)
	assert.Equal(t, []any{"v1", "marko", nil, nil}, row.Values())
}

func TestVertexTable_ToFields(t *testing.T) {
	s := mustVertex(t, personDef())
	fields, err := s.ToFields(&ir.Vertex{ID: ir.IRString("v1"), Label: "person"})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"id": "v1"}, fields)
}

func TestVertexTable_Applies(t *testing.T) {
	s := mustVertex(t, personDef())
	assert.True(t, s.Applies(&ir.Vertex{ID: ir.IRString("v1"), Label: "person"}))
	assert.False(t, s.Applies(&ir.Vertex{ID: ir.IRString("v1"), Label: "software"}))
	assert.False(t, s.Applies(&ir.Vertex{ID: ir.IRString("v1")}))
	assert.False(t, s.Applies(nil))

	def := personDef()
	def.Label, def.LabelColumn = "", "kind"
	perRow := mustVertex(t, def)
	assert.True(t, perRow.Applies(&ir.Vertex{ID: ir.IRString("v1"), Label: "software"}))
}

func TestVertexTable_RoundTrip(t *testing.T) {
	s := mustVertex(t, personDef())
	v := &ir.Vertex{
		ID:    ir.IRString("v1"),
		Label: "person",
		Properties: ir.IRObject{
			"name":   ir.IRString("marko"),
			"age":    ir.IRInt(29),
			"active": ir.IRBool(true),
		},
	}

	row, err := s.ToRow(v)
	require.NoError(t, err)

	result := ir.ResultRow{Table: "person", Columns: map[string]any{}}
	for _, f := range row.Fields {
		result.Columns[f.Column] = f.Value
	}
	require.True(t, s.Accepts(result))

	back, err := s.FromRow(result)
	require.NoError(t, err)
	assert.Equal(t, v, back)
}

func TestVertexTable_FromRowConvertsStorageValues(t *testing.T) {
	s := mustVertex(t, personDef())

	// SQLite hands back bool columns as integers and text as bytes in some
	// drivers; NULL columns are absent properties.
	v, err := s.FromRow(ir.ResultRow{Table: "person", Columns: map[string]any{
		"id":        []byte("v1"),
		"name":      nil,
		"age_years": int64(40),
		"active":    int64(0),
	}})
	require.NoError(t, err)
	assert.Equal(t, ir.IRString("v1"), v.ID)
	assert.Equal(t, ir.IRObject{"age": ir.IRInt(40), "active": ir.IRBool(false)}, v.Properties)

	_, err = s.FromRow(ir.ResultRow{Columns: map[string]any{"id": nil}})
	assert.ErrorIs(t, err, ErrMissingID)
}

func TestVertexTable_Accepts(t *testing.T) {
	s := mustVertex(t, personDef())
	assert.True(t, s.Accepts(ir.ResultRow{Columns: map[string]any{"id": "v1"}}))
	assert.False(t, s.Accepts(ir.ResultRow{Table: "other", Columns: map[string]any{"id": "v1"}}))
	assert.False(t, s.Accepts(ir.ResultRow{Columns: map[string]any{"name": "x"}}))
}

func TestToPredicates_MapsColumns(t *testing.T) {
	s := mustVertex(t, personDef())

	got := s.ToPredicates(predicate.Leaf(
		has(predicate.KeyID, predicate.Eq, ir.IRString("v1")),
		has("age", predicate.Gt, ir.IRInt(27)),
	))
	assert.Equal(t, []predicate.Has{
		has("id", predicate.Eq, ir.IRString("v1")),
		has("age_years", predicate.Gt, ir.IRInt(27)),
	}, got.Predicates())
}

func TestToPredicates_StaticLabel(t *testing.T) {
	s := mustVertex(t, personDef())

	// Matching label folds away.
	got := s.ToPredicates(predicate.Leaf(
		has(predicate.KeyLabel, predicate.Eq, ir.IRString("person")),
		has("name", predicate.Eq, ir.IRString("marko")),
	))
	assert.Equal(t, []predicate.Has{has("name", predicate.Eq, ir.IRString("marko"))}, got.Predicates())

	// Foreign label aborts the table.
	got = s.ToPredicates(predicate.Leaf(has(predicate.KeyLabel, predicate.Eq, ir.IRString("software"))))
	assert.True(t, got.IsAborted())

	got = s.ToPredicates(predicate.Leaf(has(predicate.KeyLabel, predicate.Within, ir.IRArray{ir.IRString("person"), ir.IRString("x")})))
	assert.True(t, got.IsEmpty())
}

func TestToPredicates_LabelColumn(t *testing.T) {
	def := personDef()
	def.Label, def.LabelColumn = "", "kind"
	s := mustVertex(t, def)

	got := s.ToPredicates(predicate.Leaf(has(predicate.KeyLabel, predicate.Eq, ir.IRString("person"))))
	assert.Equal(t, []predicate.Has{has("kind", predicate.Eq, ir.IRString("person"))}, got.Predicates())
}

func TestToPredicates_UnmappedPropertyNeverMatches(t *testing.T) {
	s := mustVertex(t, personDef())

	got := s.ToPredicates(predicate.Leaf(has("lang", predicate.Eq, ir.IRString("java"))))
	assert.True(t, got.IsAborted())

	// Inside an Or only the unmapped branch disappears.
	got = s.ToPredicates(predicate.Or(
		predicate.Leaf(has("lang", predicate.Eq, ir.IRString("java"))),
		predicate.Leaf(has("name", predicate.Eq, ir.IRString("marko"))),
	))
	assert.Equal(t, []predicate.Has{has("name", predicate.Eq, ir.IRString("marko"))}, got.Predicates())
}

func TestToPredicates_Coercion(t *testing.T) {
	s := mustVertex(t, personDef())

	got := s.ToPredicates(predicate.Leaf(has("active", predicate.Eq, ir.IRInt(1))))
	assert.Equal(t, []predicate.Has{has("active", predicate.Eq, ir.IRBool(true))}, got.Predicates())

	got = s.ToPredicates(predicate.Leaf(has("age", predicate.Eq, ir.IRString("old"))))
	assert.True(t, got.IsAborted())

	got = s.ToPredicates(predicate.Leaf(has("age", predicate.Neq, ir.IRString("old"))))
	assert.True(t, got.IsEmpty())

	got = s.ToPredicates(predicate.Leaf(has("age", predicate.Within, ir.IRArray{ir.IRString("x"), ir.IRInt(3)})))
	assert.Equal(t, []predicate.Has{has("age_years", predicate.Within, ir.IRArray{ir.IRInt(3)})}, got.Predicates())

	got = s.ToPredicates(predicate.Leaf(has("age", predicate.StartsWith, ir.IRString("3"))))
	assert.True(t, got.IsAborted())
}

func TestToPredicates_NilAndAborted(t *testing.T) {
	s := mustVertex(t, personDef())
	assert.True(t, s.ToPredicates(nil).IsEmpty())
	assert.True(t, s.ToPredicates(predicate.Empty()).IsEmpty())
	assert.True(t, s.ToPredicates(predicate.Abort()).IsAborted())
}

func TestToDeferredPredicates(t *testing.T) {
	s := mustVertex(t, personDef())

	got := s.ToDeferredPredicates([]*ir.Vertex{
		ir.NewDeferredVertex(ir.IRString("v1")),
		{ID: ir.IRString("v2"), Label: "software"},
		ir.NewDeferredVertex(ir.IRString("v3")),
	})
	assert.Equal(t, []predicate.Has{
		has("id", predicate.Within, ir.IRArray{ir.IRString("v1"), ir.IRString("v3")}),
	}, got.Predicates())

	assert.True(t, s.ToDeferredPredicates(nil).IsAborted())
	assert.True(t, s.ToDeferredPredicates([]*ir.Vertex{{ID: ir.IRString("v2"), Label: "software"}}).IsAborted())
}

func TestEdgeTable_RoundTrip(t *testing.T) {
	s := mustEdge(t, knowsDef())
	e := &ir.Edge{
		ID:         ir.IRString("e1"),
		Label:      "knows",
		Properties: ir.IRObject{"weight": ir.IRInt(5)},
		Out:        &ir.Vertex{ID: ir.IRString("v1"), Label: "person"},
		In:         &ir.Vertex{ID: ir.IRString("v2"), Label: "person"},
	}

	row, err := s.ToRow(e)
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "out_id", "in_id", "weight"}, row.Columns())

	result := ir.ResultRow{Table: "knows", Columns: map[string]any{}}
	for _, f := range row.Fields {
		result.Columns[f.Column] = f.Value
	}
	require.True(t, s.Accepts(result))

	back, err := s.FromRow(result)
	require.NoError(t, err)
	assert.Equal(t, e.ID, back.ID)
	assert.Equal(t, e.Label, back.Label)
	assert.Equal(t, e.Properties, back.Properties)

	// Endpoints come back as placeholders known by identity.
	assert.True(t, back.Out.IsDeferred())
	assert.True(t, back.In.IsDeferred())
	assert.Equal(t, ir.IRString("v1"), back.Out.ID)
	assert.Equal(t, ir.IRString("v2"), back.In.ID)
	assert.Equal(t, "person", back.Out.Label)
}

func TestEdgeTable_ToRowMissingEndpoint(t *testing.T) {
	s := mustEdge(t, knowsDef())
	_, err := s.ToRow(&ir.Edge{ID: ir.IRString("e1"), Label: "knows", Out: &ir.Vertex{ID: ir.IRString("v1")}})
	assert.ErrorIs(t, err, ErrMissingEndpoint)
}

func TestEdgeTable_Applies(t *testing.T) {
	s := mustEdge(t, knowsDef())
	person := &ir.Vertex{ID: ir.IRString("v1"), Label: "person"}
	software := &ir.Vertex{ID: ir.IRString("s1"), Label: "software"}

	assert.True(t, s.Applies(&ir.Edge{Label: "knows", Out: person, In: person}))
	assert.False(t, s.Applies(&ir.Edge{Label: "created", Out: person, In: person}))
	assert.False(t, s.Applies(&ir.Edge{Label: "knows", Out: person, In: software}))
}

func TestEdgeTable_Accepts(t *testing.T) {
	s := mustEdge(t, knowsDef())
	assert.True(t, s.Accepts(ir.ResultRow{Columns: map[string]any{"id": "e1", "out_id": "v1", "in_id": "v2"}}))
	assert.False(t, s.Accepts(ir.ResultRow{Columns: map[string]any{"id": "v1", "name": "marko"}}))
}

func TestEdgeTable_ToVertexPredicates(t *testing.T) {
	s := mustEdge(t, knowsDef())
	vertices := []*ir.Vertex{
		{ID: ir.IRString("v1"), Label: "person"},
		{ID: ir.IRString("s1"), Label: "software"},
	}
	ids := ir.IRArray{ir.IRString("v1")}

	out := s.ToVertexPredicates(vertices, ir.DirectionOut, nil)
	assert.Equal(t, []predicate.Has{has("out_id", predicate.Within, ids)}, out.Predicates())

	in := s.ToVertexPredicates(vertices, ir.DirectionIn, predicate.Leaf(has("weight", predicate.Gt, ir.IRInt(1))))
	assert.Equal(t, []predicate.Has{
		has("in_id", predicate.Within, ids),
		has("weight", predicate.Gt, ir.IRInt(1)),
	}, in.Predicates())

	both := s.ToVertexPredicates(vertices, ir.DirectionBoth, nil)
	assert.Equal(t, predicate.ClauseOr, both.Clause())
	assert.Equal(t, []predicate.Has{
		has("out_id", predicate.Within, ids),
		has("in_id", predicate.Within, ids),
	}, both.Predicates())

	none := s.ToVertexPredicates([]*ir.Vertex{{ID: ir.IRString("s1"), Label: "software"}}, ir.DirectionBoth, nil)
	assert.True(t, none.IsAborted())

	unmapped := s.ToVertexPredicates(vertices, ir.DirectionOut, predicate.Leaf(has("since", predicate.Eq, ir.IRInt(2010))))
	assert.True(t, unmapped.IsAborted())
}

func TestNewSet(t *testing.T) {
	person := personDef()
	person.Kind = ir.KindVertex
	knows := knowsDef()
	knows.Kind = ir.KindEdge

	set, err := NewSet(person, knows)
	require.NoError(t, err)
	require.Len(t, set.Vertices, 1)
	require.Len(t, set.Edges, 1)
	assert.Equal(t, "person", set.Vertices[0].Table())
	assert.False(t, set.Empty())

	_, err = NewSet(person, person)
	assert.Error(t, err, "two definitions cannot share a table")

	empty, err := NewSet()
	require.NoError(t, err)
	assert.True(t, empty.Empty())
}
