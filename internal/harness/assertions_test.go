package harness

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/rowgraph/internal/store"
	"github.com/roach88/rowgraph/internal/testutil"
)

// seededStore returns a store with the sample graph tables and two persons.
func seededStore(t *testing.T) *store.Store {
	t.Helper()
	st := testutil.NewStore(t)
	ctx := context.Background()
	for _, stmt := range []string{
		`INSERT INTO "person" ("id", "name", "age", "active") VALUES ('v1', 'marko', 29, 1)`,
		`INSERT INTO "person" ("id", "name", "age", "active") VALUES ('v2', 'vadas', 27, 0)`,
		`INSERT INTO "person" ("id", "name") VALUES ('v3', 'peter')`,
	} {
		_, err := st.Exec(ctx, stmt)
		require.NoError(t, err)
	}
	return st
}

func sampleTrace() []TraceEvent {
	return []TraceEvent{
		{Step: 0, Op: OpAddVertex, Statements: []string{`INSERT INTO "person" ("id") VALUES (?) ON CONFLICT DO NOTHING`}},
		{Step: 1, Op: OpSearchVertices, Statements: []string{`SELECT * FROM "person" WHERE "age" > ?`}},
		{Step: 2, Op: OpSearchVertices, Statements: []string{}},
	}
}

func TestAssertTraceContains(t *testing.T) {
	trace := sampleTrace()

	assert.NoError(t, assertTraceContains(trace, Assertion{Contains: `"age" > ?`}))
	assert.NoError(t, assertTraceContains(trace, Assertion{Op: OpSearchVertices, Contains: `"age" > ?`}))

	err := assertTraceContains(trace, Assertion{Op: OpAddVertex, Contains: `"age" > ?`})
	require.Error(t, err)
	var ae *AssertionError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, AssertTraceContains, ae.Type)
	assert.Contains(t, err.Error(), "Full trace:")
	assert.Contains(t, err.Error(), `[1] search_vertices`)
}

func TestAssertStatementCount(t *testing.T) {
	result := NewResult()
	for _, ev := range sampleTrace() {
		result.AddTrace(ev)
	}

	assert.NoError(t, assertStatementCount(result, Assertion{Count: intPtr(2)}))
	assert.NoError(t, assertStatementCount(result, Assertion{Op: OpSearchVertices, Count: intPtr(1)}))

	err := assertStatementCount(result, Assertion{Op: OpAddVertex, Count: intPtr(0)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "0 statement(s) for add_vertex")
	assert.Contains(t, err.Error(), "Actual: 1 statement(s)")
}

func TestAssertFinalState(t *testing.T) {
	st := seededStore(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		where   map[string]any
		expect  map[string]any
		wantErr string
	}{
		{"match", map[string]any{"id": "v1"}, map[string]any{"name": "marko", "age": 29, "active": true}, ""},
		{"bool as false", map[string]any{"id": "v2"}, map[string]any{"active": false}, ""},
		{"null column", map[string]any{"id": "v3"}, map[string]any{"age": nil}, ""},
		{"where null", map[string]any{"age": nil}, map[string]any{"name": "peter"}, ""},
		{"value mismatch", map[string]any{"id": "v1"}, map[string]any{"age": 30}, `field "age" = 30`},
		{"missing column", map[string]any{"id": "v1"}, map[string]any{"height": 180}, `field "height" to exist`},
		{"no row", map[string]any{"id": "v9"}, map[string]any{"name": "x"}, "row not found"},
		{"ambiguous", map[string]any{}, map[string]any{"name": "marko"}, "multiple rows matched"},
		{"bad column", map[string]any{"id; DROP": "v1"}, map[string]any{"name": "x"}, "invalid column name"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := assertFinalState(ctx, st, Assertion{Type: AssertFinalState, Table: "person", Where: tt.where, Expect: tt.expect})
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestAssertFinalState_InvalidTable(t *testing.T) {
	err := assertFinalState(context.Background(), seededStore(t), Assertion{Table: "person; DROP TABLE person", Expect: map[string]any{"a": 1}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid table name")
}

func TestAssertRowCount(t *testing.T) {
	st := seededStore(t)
	ctx := context.Background()

	assert.NoError(t, assertRowCount(ctx, st, Assertion{Table: "person", Count: intPtr(3)}))
	assert.NoError(t, assertRowCount(ctx, st, Assertion{Table: "person", Where: map[string]any{"active": true}, Count: intPtr(1)}))
	assert.NoError(t, assertRowCount(ctx, st, Assertion{Table: "software", Count: intPtr(0)}))

	err := assertRowCount(ctx, st, Assertion{Table: "person", Count: intPtr(1)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Actual: 3 row(s)")

	err = assertRowCount(ctx, st, Assertion{Table: "robot", Count: intPtr(0)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "query error")
}

func TestBuildWhereClause(t *testing.T) {
	sql, args, err := buildWhereClause(map[string]any{"name": "marko", "age": nil, "id": "v1"})
	require.NoError(t, err)
	assert.Equal(t, `"age" IS NULL AND "id" = ? AND "name" = ?`, sql)
	assert.Equal(t, []any{"v1", "marko"}, args)

	sql, args, err = buildWhereClause(nil)
	require.NoError(t, err)
	assert.Empty(t, sql)
	assert.Nil(t, args)
}

func TestFormatWhereClause(t *testing.T) {
	assert.Equal(t, "(no conditions)", formatWhereClause(nil))
	assert.Equal(t, "age=29 AND id=v1", formatWhereClause(map[string]any{"id": "v1", "age": 29}))
}

func TestStateValuesEqual(t *testing.T) {
	tests := []struct {
		expected any
		actual   any
		want     bool
	}{
		{nil, nil, true},
		{nil, "x", false},
		{"x", nil, false},
		{"marko", "marko", true},
		{"marko", []byte("marko"), true},
		{"marko", "vadas", false},
		{29, int64(29), true},
		{29, 29, true},
		{29, int64(30), false},
		{int64(29), int64(29), true},
		{true, true, true},
		{true, int64(1), true},
		{false, int64(0), true},
		{true, int64(0), false},
		{"29", int64(29), false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, stateValuesEqual(tt.expected, tt.actual), "%v vs %v", tt.expected, tt.actual)
	}
}

func TestEvaluateAssertions(t *testing.T) {
	result := NewResult()
	for _, ev := range sampleTrace() {
		result.AddTrace(ev)
	}

	errs := EvaluateAssertions(result, []Assertion{
		{Type: AssertTraceContains, Contains: "SELECT"},
		{Type: AssertStatementCount},
		{Type: AssertFinalState, Table: "person", Expect: map[string]any{"name": "x"}},
		{Type: "trace_order"},
	}, nil)

	require.Len(t, errs, 3)
	assert.Contains(t, errs[0], "statement_count requires count")
	assert.Contains(t, errs[1], "final_state requires database context")
	assert.Contains(t, errs[2], `unknown assertion type "trace_order"`)
}
