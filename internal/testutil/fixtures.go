package testutil

import (
	"context"
	_ "embed"
	"path/filepath"
	"testing"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/stretchr/testify/require"

	"github.com/roach88/rowgraph/internal/schema"
	"github.com/roach88/rowgraph/internal/store"
)

//go:embed graph.cue
var graphCUE string

// Definitions returns the sample graph definitions, in set order:
// vertex tables person, person_archive (also labeled person) and software,
// then edge tables created and knows.
func Definitions(t testing.TB) []schema.Definition {
	t.Helper()
	ctx := cuecontext.New()
	defs, err := schema.CompileDefinitions(ctx.CompileString(graphCUE, cue.Filename("graph.cue")))
	require.NoError(t, err)
	return defs
}

// SchemaSet builds the schema set of the sample graph.
func SchemaSet(t testing.TB) schema.Set {
	t.Helper()
	set, err := schema.NewSet(Definitions(t)...)
	require.NoError(t, err)
	return set
}

// NewStore opens a SQLite store in a temp dir with the sample graph tables
// created. The store is closed when the test ends.
func NewStore(t testing.TB) *store.Store {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "graph.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	require.NoError(t, s.CreateTables(context.Background(), Definitions(t)))
	return s
}
