package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/rowgraph/internal/predicate"
)

// Scenario defines a controller test scenario.
// A scenario creates the tables of a schema in a fresh database, runs a
// sequence of graph operations and asserts on their results, the
// statements they issued and the final table contents.
type Scenario struct {
	// Name uniquely identifies this scenario.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Schema is the CUE file or directory holding the table definitions.
	// LoadScenario resolves it relative to the scenario file.
	Schema string `yaml:"schema"`

	// IDs are handed out in order to elements added without an id. Once
	// exhausted, ids continue as "id-N".
	IDs []string `yaml:"ids,omitempty"`

	// Setup steps establish initial state. They must succeed and are not
	// traced.
	Setup []Step `yaml:"setup,omitempty"`

	// Steps are the traced operations under test.
	Steps []Step `yaml:"steps"`

	// Assertions validate the final trace and state.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// Step operation names.
const (
	OpAddVertex      = "add_vertex"
	OpAddEdge        = "add_edge"
	OpUpdateVertex   = "update_vertex"
	OpUpdateEdge     = "update_edge"
	OpRemoveVertices = "remove_vertices"
	OpRemoveEdges    = "remove_edges"
	OpSearchVertices = "search_vertices"
	OpSearchEdges    = "search_edges"
	OpFetch          = "fetch"
)

var knownOps = map[string]bool{
	OpAddVertex:      true,
	OpAddEdge:        true,
	OpUpdateVertex:   true,
	OpUpdateEdge:     true,
	OpRemoveVertices: true,
	OpRemoveEdges:    true,
	OpSearchVertices: true,
	OpSearchEdges:    true,
	OpFetch:          true,
}

// Step is one graph operation.
type Step struct {
	Op string `yaml:"op"`

	// ID identifies the element of add and update steps. Left out on an
	// add, one is generated.
	ID any `yaml:"id,omitempty"`

	// IDs lists the elements of remove and fetch steps.
	IDs []any `yaml:"ids,omitempty"`

	Label      string         `yaml:"label,omitempty"`
	Out        any            `yaml:"out,omitempty"`
	In         any            `yaml:"in,omitempty"`
	Properties map[string]any `yaml:"properties,omitempty"`

	// Where holds the conditions of a search; all must hold.
	Where []Clause `yaml:"where,omitempty"`

	// Of switches search_edges to the edges adjacent to these vertices.
	Of        []any  `yaml:"of,omitempty"`
	Direction string `yaml:"direction,omitempty"`
	Limit     int    `yaml:"limit,omitempty"`

	Expect *Expect `yaml:"expect,omitempty"`
}

// Clause is one search condition.
type Clause struct {
	Key   string `yaml:"key"`
	Op    string `yaml:"op"`
	Value any    `yaml:"value"`
}

// Expect specifies the expected outcome of a step.
type Expect struct {
	// Error is the expected error kind. Empty means the step succeeds.
	Error string `yaml:"error,omitempty"`

	// IDs are the expected returned identities, in order.
	IDs []any `yaml:"ids,omitempty"`

	// Count is the expected number of returned elements.
	Count *int `yaml:"count,omitempty"`

	// Statements is the expected number of statements the step issued.
	Statements *int `yaml:"statements,omitempty"`
}

// Assertion validates trace or final state.
type Assertion struct {
	// Type specifies the assertion type:
	// - "final_state": exactly one row of Table matches Where and carries Expect
	// - "row_count": Count rows of Table match Where
	// - "statement_count": the steps of Op (all steps when empty) issued Count statements
	// - "trace_contains": a step of Op issued a statement containing Contains
	Type string `yaml:"type"`

	Table  string         `yaml:"table,omitempty"`
	Where  map[string]any `yaml:"where,omitempty"`
	Expect map[string]any `yaml:"expect,omitempty"`

	Count *int `yaml:"count,omitempty"`

	Op       string `yaml:"op,omitempty"`
	Contains string `yaml:"contains,omitempty"`
}

// Assertion type constants.
const (
	AssertFinalState     = "final_state"
	AssertRowCount       = "row_count"
	AssertStatementCount = "statement_count"
	AssertTraceContains  = "trace_contains"
)

// LoadScenario reads and parses a scenario YAML file.
// A relative schema path is resolved against the scenario's directory.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if scenario.Schema != "" && !filepath.IsAbs(scenario.Schema) {
		scenario.Schema = filepath.Join(filepath.Dir(path), scenario.Schema)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if s.Schema == "" {
		return fmt.Errorf("schema is required")
	}
	if _, err := os.Stat(s.Schema); os.IsNotExist(err) {
		return fmt.Errorf("schema not found: %s", s.Schema)
	}

	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	for i, step := range s.Setup {
		if err := validateStep(step); err != nil {
			return fmt.Errorf("setup[%d]: %w", i, err)
		}
		if step.Expect != nil {
			return fmt.Errorf("setup[%d]: expect is not allowed in setup", i)
		}
	}
	for i, step := range s.Steps {
		if err := validateStep(step); err != nil {
			return fmt.Errorf("steps[%d]: %w", i, err)
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

func validateStep(step Step) error {
	if !knownOps[step.Op] {
		return fmt.Errorf("unknown op %q", step.Op)
	}

	switch step.Op {
	case OpAddVertex:
		if step.Label == "" {
			return fmt.Errorf("label is required for %s", step.Op)
		}
	case OpAddEdge:
		if step.Label == "" {
			return fmt.Errorf("label is required for %s", step.Op)
		}
	case OpUpdateVertex, OpUpdateEdge:
		if step.ID == nil || step.Label == "" {
			return fmt.Errorf("id and label are required for %s", step.Op)
		}
	}

	if step.Direction != "" && step.Op != OpSearchEdges {
		return fmt.Errorf("direction is only valid for %s", OpSearchEdges)
	}
	if step.Limit < 0 {
		return fmt.Errorf("limit must be non-negative")
	}

	for i, c := range step.Where {
		if c.Key == "" {
			return fmt.Errorf("where[%d]: key is required", i)
		}
		if _, err := predicate.ParseOperator(c.Op); err != nil {
			return fmt.Errorf("where[%d]: %w", i, err)
		}
	}

	if step.Expect != nil && step.Expect.Error != "" && !knownErrorKinds[step.Expect.Error] {
		return fmt.Errorf("expect: unknown error kind %q", step.Expect.Error)
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertFinalState:
		if a.Table == "" {
			return fmt.Errorf("assertions[%d]: table is required for final_state", index)
		}
		if len(a.Expect) == 0 {
			return fmt.Errorf("assertions[%d]: expect is required for final_state", index)
		}
	case AssertRowCount:
		if a.Table == "" {
			return fmt.Errorf("assertions[%d]: table is required for row_count", index)
		}
		if a.Count == nil || *a.Count < 0 {
			return fmt.Errorf("assertions[%d]: non-negative count is required for row_count", index)
		}
	case AssertStatementCount:
		if a.Count == nil || *a.Count < 0 {
			return fmt.Errorf("assertions[%d]: non-negative count is required for statement_count", index)
		}
	case AssertTraceContains:
		if a.Contains == "" {
			return fmt.Errorf("assertions[%d]: contains is required for trace_contains", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
