package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const walkScenario = `name: walk
description: "Adds a person and finds it again"
schema: graph.cue
steps:
  - op: add_vertex
    id: v1
    label: person
    properties: { name: marko, age: 29 }
  - op: search_vertices
    label: person
    where:
      - { key: name, op: eq, value: marko }
    expect:
      ids: [v1]
      statements: 1
assertions:
  - type: final_state
    table: person
    where: { id: v1 }
    expect: { age: 29 }
`

const brokenScenario = `name: broken
description: "Expects a refusal that never happens"
schema: graph.cue
steps:
  - op: add_vertex
    id: v1
    label: person
    expect: { error: already_exists }
`

// scenarioDir writes the CLI test schema and the given scenarios.
func scenarioDir(t *testing.T, scenarios map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "graph.cue"), []byte(graphCUE), 0o644))
	for name, content := range scenarios {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	return dir
}

func runTest(t *testing.T, args ...string) (string, string, int) {
	t.Helper()
	args = append([]string{"test"}, args...)
	args = append(args, "--env-file", "")
	var stdout, stderr bytes.Buffer
	code := Execute(context.Background(), args, &stdout, &stderr)
	return stdout.String(), stderr.String(), code
}

func TestTestCommand_Pass(t *testing.T) {
	dir := scenarioDir(t, map[string]string{"walk.yaml": walkScenario})

	out, _, code := runTest(t, dir)
	assert.Equal(t, ExitSuccess, code, out)
	assert.Contains(t, out, "✓ walk")
	assert.Contains(t, out, "Test Summary: 1 passed, 0 failed, 1 total")
	assert.Contains(t, out, "All scenarios passed")
}

func TestTestCommand_SingleFile(t *testing.T) {
	dir := scenarioDir(t, map[string]string{"walk.yaml": walkScenario, "broken.yaml": brokenScenario})

	out, _, code := runTest(t, filepath.Join(dir, "walk.yaml"))
	assert.Equal(t, ExitSuccess, code, out)
	assert.Contains(t, out, "1 total")
}

func TestTestCommand_Failure(t *testing.T) {
	dir := scenarioDir(t, map[string]string{"walk.yaml": walkScenario, "broken.yaml": brokenScenario})

	out, stderr, code := runTest(t, dir)
	assert.Equal(t, ExitFailure, code)
	assert.Contains(t, out, "✗ broken")
	assert.Contains(t, out, `expected error "already_exists", got ""`)
	assert.Contains(t, out, "Test Summary: 1 passed, 1 failed, 2 total")
	assert.Empty(t, stderr)
}

func TestTestCommand_Filter(t *testing.T) {
	dir := scenarioDir(t, map[string]string{"walk.yaml": walkScenario, "broken.yaml": brokenScenario})

	out, _, code := runTest(t, dir, "--filter", "wa*")
	assert.Equal(t, ExitSuccess, code, out)
	assert.NotContains(t, out, "broken")
}

func TestTestCommand_Golden(t *testing.T) {
	dir := scenarioDir(t, map[string]string{"walk.yaml": walkScenario})

	out, _, code := runTest(t, dir, "--update")
	require.Equal(t, ExitSuccess, code, out)

	golden, err := os.ReadFile(filepath.Join(dir, "golden", "walk.golden"))
	require.NoError(t, err)
	assert.Contains(t, string(golden), `"scenario_name":"walk"`)
	assert.Contains(t, string(golden), `SELECT * FROM \"person\" WHERE \"name\" = ?`)

	out, _, code = runTest(t, dir)
	assert.Equal(t, ExitSuccess, code, out)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "golden", "walk.golden"), []byte("{}"), 0o644))
	out, _, code = runTest(t, dir)
	assert.Equal(t, ExitFailure, code)
	assert.Contains(t, out, "does not match golden file")
}

func TestTestCommand_JSON(t *testing.T) {
	dir := scenarioDir(t, map[string]string{"walk.yaml": walkScenario, "broken.yaml": brokenScenario})

	out, _, code := runTest(t, dir, "--format", "json")
	assert.Equal(t, ExitFailure, code)

	var resp struct {
		Status string     `json:"status"`
		Data   TestResult `json:"data"`
		Error  *CLIError  `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp), out)
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeScenario, resp.Error.Code)
	assert.Equal(t, 2, resp.Data.Total)
	assert.Equal(t, 1, resp.Data.Failed)
	require.Len(t, resp.Data.Scenarios, 2)
	assert.Equal(t, "broken", resp.Data.Scenarios[0].Name)
	assert.False(t, resp.Data.Scenarios[0].Pass)
}

func TestTestCommand_LoadError(t *testing.T) {
	dir := scenarioDir(t, map[string]string{"bad.yaml": "name: bad\n"})

	out, _, code := runTest(t, dir)
	assert.Equal(t, ExitFailure, code)
	assert.Contains(t, out, "✗ bad.yaml")
	assert.Contains(t, out, "failed to load scenario")
}

func TestTestCommand_Paths(t *testing.T) {
	_, stderr, code := runTest(t, filepath.Join(t.TempDir(), "absent"))
	assert.Equal(t, ExitCommandError, code)
	assert.Contains(t, stderr, "scenarios not found")

	out, _, code := runTest(t, t.TempDir())
	assert.Equal(t, ExitSuccess, code)
	assert.Contains(t, out, "No scenarios found.")

	_, _, code = runTest(t)
	assert.Equal(t, ExitCommandError, code)
}

func TestFindScenarioFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "nested"), 0o755))
	for _, name := range []string{"a.yaml", "b.yml", "notes.txt", "nested/c.yaml"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644))
	}

	files, err := findScenarioFiles(dir, "")
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "a.yaml"),
		filepath.Join(dir, "b.yml"),
		filepath.Join(dir, "nested", "c.yaml"),
	}, files)

	files, err = findScenarioFiles(dir, "[bc]")
	require.NoError(t, err)
	assert.Len(t, files, 2)

	_, err = findScenarioFiles(dir, "[")
	require.Error(t, err)
}

func TestGoldenFilePath(t *testing.T) {
	assert.Equal(t, filepath.Join("scenarios", "golden", "walk.golden"), goldenFilePath(filepath.Join("scenarios", "walk.yaml")))
}
