package querysql

import (
	"encoding/json"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/rowgraph/internal/ir"
	"github.com/roach88/rowgraph/internal/predicate"
)

// goldenStatement renders a statement as SQL followed by its JSON arguments.
func goldenStatement(t *testing.T, st Statement) []byte {
	t.Helper()
	args := st.Args
	if args == nil {
		args = []any{}
	}
	data, err := json.Marshal(args)
	require.NoError(t, err)
	return []byte(st.SQL + "\n" + string(data) + "\n")
}

func sampleConditions(t *testing.T) []Condition {
	t.Helper()
	h := predicate.And(
		predicate.Leaf(predicate.Has{Key: "name", Op: predicate.Eq, Value: ir.IRString("marko")}),
		predicate.AnyOf(
			predicate.Has{Key: "age", Op: predicate.Lt, Value: ir.IRInt(30)},
			predicate.Has{Key: "age", Op: predicate.Within, Value: ir.IRArray{ir.IRInt(32), ir.IRInt(35)}},
		),
	)
	conds, err := Translate(h)
	require.NoError(t, err)
	return conds
}

func TestStatements_Golden(t *testing.T) {
	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)

	conds := sampleConditions(t)
	row := ir.Row{
		IDColumn: "id",
		ID:       "v1",
		Fields: []ir.Field{
			{Column: "id", Value: "v1"},
			{Column: "name", Value: "marko"},
			{Column: "age", Value: int64(29)},
		},
	}

	tests := []struct {
		name string
		st   Statement
	}{
		{"select_sqlite", SQLite.Select("person", "id", conds, 10)},
		{"select_postgres", Postgres.Select("person", "id", conds, 0)},
		{"insert_sqlite", SQLite.InsertIgnore("person", row)},
		{"insert_postgres", Postgres.InsertIgnore("person", row)},
		{"update_postgres", Postgres.Update("person", row.Without("id").Fields, []Condition{{SQL: `"id" = ?`, Args: []any{"v1"}}})},
		{"delete_sqlite", SQLite.Delete("person", []Condition{{SQL: `"id" IN (?, ?)`, Args: []any{"v1", "v2"}}})},
		{"create_sqlite", SQLite.CreateTable("person", []Column{{Name: "id", Type: ir.TypeString}, {Name: "age", Type: ir.TypeInt}, {Name: "active", Type: ir.TypeBool}}, "id")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g.Assert(t, tt.name, goldenStatement(t, tt.st))
		})
	}
}

func TestSelect_OrderByMandatory(t *testing.T) {
	for _, d := range []Dialect{SQLite, Postgres} {
		st := d.Select("person", "id", nil, 0)
		assert.Contains(t, st.SQL, `ORDER BY "id"`, "dialect %s", d)
		assert.NotContains(t, st.SQL, "WHERE")
		assert.NotContains(t, st.SQL, "LIMIT")
	}
}

func TestRebind(t *testing.T) {
	assert.Equal(t, `a = ? AND b = ?`, SQLite.Rebind(`a = ? AND b = ?`))
	assert.Equal(t, `a = $1 AND b = $2`, Postgres.Rebind(`a = ? AND b = ?`))
	assert.Equal(t, `"we?ird" = $1 AND c = '?'`, Postgres.Rebind(`"we?ird" = ? AND c = '?'`))
}

func TestParseDialect(t *testing.T) {
	d, err := ParseDialect("sqlite3")
	require.NoError(t, err)
	assert.Equal(t, SQLite, d)

	d, err = ParseDialect("Postgres")
	require.NoError(t, err)
	assert.Equal(t, Postgres, d)

	_, err = ParseDialect("oracle")
	assert.Error(t, err)
}

func TestColumnType(t *testing.T) {
	assert.Equal(t, "INTEGER", SQLite.ColumnType(ir.TypeInt))
	assert.Equal(t, "BIGINT", Postgres.ColumnType(ir.TypeInt))
	assert.Equal(t, "TEXT", SQLite.ColumnType(ir.TypeString))
	assert.Equal(t, "BOOLEAN", Postgres.ColumnType(ir.TypeBool))
}
