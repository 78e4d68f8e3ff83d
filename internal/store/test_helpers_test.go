package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/roach88/rowgraph/internal/ir"
	"github.com/roach88/rowgraph/internal/schema"
)

// createTestStore creates a new temp-file store for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// personDefinition is a vertex table with one column of each type.
func personDefinition() schema.Definition {
	return schema.Definition{
		Name:     "person",
		Kind:     ir.KindVertex,
		Table:    "person",
		Label:    "person",
		IDColumn: "id",
		Properties: []schema.Property{
			{Name: "name", Type: ir.TypeString},
			{Name: "age", Type: ir.TypeInt},
			{Name: "active", Type: ir.TypeBool},
		},
	}
}

// createPersonTable creates the person table in s.
func createPersonTable(t *testing.T, s *Store) {
	t.Helper()
	if err := s.CreateTables(context.Background(), []schema.Definition{personDefinition()}); err != nil {
		t.Fatalf("CreateTables() failed: %v", err)
	}
}

// collect drains a cursor.
func collect(t *testing.T, c *Cursor) []map[string]any {
	t.Helper()
	defer c.Close()
	var rows []map[string]any
	for c.Next() {
		rows = append(rows, c.Row())
	}
	if err := c.Err(); err != nil {
		t.Fatalf("cursor error: %v", err)
	}
	return rows
}
