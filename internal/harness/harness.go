package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/rowgraph/internal/controller"
	"github.com/roach88/rowgraph/internal/ir"
	"github.com/roach88/rowgraph/internal/predicate"
	"github.com/roach88/rowgraph/internal/schema"
	"github.com/roach88/rowgraph/internal/store"
	"github.com/roach88/rowgraph/internal/testutil"
)

// Error kinds a step can expect.
const (
	ErrorAlreadyExists    = "already_exists"
	ErrorNoSchema         = "no_schema"
	ErrorUnmappedProperty = "unmapped_property"
	ErrorMissingEndpoint  = "missing_endpoint"
	ErrorStorage          = "storage"
	ErrorOther            = "error"
)

var knownErrorKinds = map[string]bool{
	ErrorAlreadyExists:    true,
	ErrorNoSchema:         true,
	ErrorUnmappedProperty: true,
	ErrorMissingEndpoint:  true,
	ErrorStorage:          true,
	ErrorOther:            true,
}

// ErrorKind classifies a controller error. A nil error has no kind.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, controller.ErrAlreadyExists):
		return ErrorAlreadyExists
	case errors.Is(err, controller.ErrNoSchema):
		return ErrorNoSchema
	case errors.Is(err, schema.ErrUnmappedProperty):
		return ErrorUnmappedProperty
	case errors.Is(err, schema.ErrMissingEndpoint):
		return ErrorMissingEndpoint
	case controller.IsStorageError(err):
		return ErrorStorage
	}
	return ErrorOther
}

// Harness is the test execution engine.
// It runs the steps of one scenario against a recording executor.
type Harness struct {
	store  *store.Store
	exec   *testutil.CountingExecutor
	ctrl   *controller.Controller
	logger *slog.Logger
}

// Run executes a test scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation.
// Generated identities come from the scenario's id list, so traces are
// reproducible.
//
// Execution flow:
// 1. Load the schema and create its tables
// 2. Execute setup steps
// 3. Execute the traced steps, checking expect clauses
// 4. Evaluate assertions
func Run(scenario *Scenario) (*Result, error) {
	return RunContext(context.Background(), scenario)
}

// RunContext is Run with a caller context.
func RunContext(ctx context.Context, scenario *Scenario) (*Result, error) {
	defs, err := schema.Load(scenario.Schema)
	if err != nil {
		return nil, fmt.Errorf("failed to load schema: %w", err)
	}
	set, err := schema.NewSet(defs...)
	if err != nil {
		return nil, fmt.Errorf("failed to load schema: %w", err)
	}

	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	if err := st.CreateTables(ctx, defs); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	exec := testutil.NewCountingExecutor(st)
	h := &Harness{
		store: st,
		exec:  exec,
		ctrl: controller.New(exec, set,
			controller.WithIDGenerator(newSequence(scenario.IDs)),
			controller.WithLogger(logger),
		),
		logger: logger,
	}

	for i, step := range scenario.Setup {
		if _, err := h.execute(ctx, step); err != nil {
			return nil, fmt.Errorf("setup step %d (%s): %w", i, step.Op, err)
		}
	}

	result := NewResult()
	for i, step := range scenario.Steps {
		h.exec.Reset()
		ids, err := h.execute(ctx, step)

		ev := TraceEvent{
			Step:       i,
			Op:         step.Op,
			Statements: h.exec.Statements(),
			Result:     ids,
			Error:      ErrorKind(err),
		}
		if ev.Statements == nil {
			ev.Statements = []string{}
		}
		result.AddTrace(ev)

		for _, msg := range checkExpect(i, step, ev, err) {
			result.AddError(msg)
		}

		h.logger.Info("step completed",
			"step", i,
			"op", step.Op,
			"statements", len(ev.Statements),
			"error", ev.Error,
		)
	}

	actx := &AssertionContext{Store: st, Ctx: ctx}
	for _, msg := range EvaluateAssertions(result, scenario.Assertions, actx) {
		result.AddError(msg)
	}

	return result, nil
}

// execute runs one step. Returned identities are nil for steps that
// return no elements.
func (h *Harness) execute(ctx context.Context, step Step) (ir.IRArray, error) {
	switch step.Op {
	case OpAddVertex:
		id, props, err := elementArgs(step)
		if err != nil {
			return nil, err
		}
		v, err := h.ctrl.AddVertex(ctx, controller.AddVertexQuery{ID: id, Label: step.Label, Properties: props})
		if err != nil {
			return nil, err
		}
		return ir.IRArray{v.ID}, nil

	case OpAddEdge:
		id, props, err := elementArgs(step)
		if err != nil {
			return nil, err
		}
		out, in, err := endpoints(step)
		if err != nil {
			return nil, err
		}
		e, err := h.ctrl.AddEdge(ctx, controller.AddEdgeQuery{ID: id, Label: step.Label, Out: out, In: in, Properties: props})
		if err != nil {
			return nil, err
		}
		return ir.IRArray{e.ID}, nil

	case OpUpdateVertex:
		id, props, err := elementArgs(step)
		if err != nil {
			return nil, err
		}
		return nil, h.ctrl.UpdateVertex(ctx, &ir.Vertex{ID: id, Label: step.Label, Properties: props})

	case OpUpdateEdge:
		id, props, err := elementArgs(step)
		if err != nil {
			return nil, err
		}
		out, in, err := endpoints(step)
		if err != nil {
			return nil, err
		}
		return nil, h.ctrl.UpdateEdge(ctx, &ir.Edge{ID: id, Label: step.Label, Out: out, In: in, Properties: props})

	case OpRemoveVertices:
		vertices, err := placeholders(step.IDs, step.Label)
		if err != nil {
			return nil, err
		}
		return nil, h.ctrl.RemoveVertices(ctx, vertices)

	case OpRemoveEdges:
		ids, err := identities(step.IDs)
		if err != nil {
			return nil, err
		}
		edges := make([]*ir.Edge, len(ids))
		for i, id := range ids {
			edges[i] = &ir.Edge{ID: id, Label: step.Label}
		}
		return nil, h.ctrl.RemoveEdges(ctx, edges)

	case OpSearchVertices:
		preds, err := searchPredicates(step)
		if err != nil {
			return nil, err
		}
		found := ir.IRArray{}
		for v, err := range h.ctrl.SearchVertices(ctx, controller.SearchQuery{Predicates: preds, Limit: step.Limit}) {
			if err != nil {
				return nil, err
			}
			found = append(found, v.ID)
		}
		return found, nil

	case OpSearchEdges:
		return h.searchEdges(ctx, step)

	case OpFetch:
		vertices, err := placeholders(step.IDs, "")
		if err != nil {
			return nil, err
		}
		if err := h.ctrl.FetchProperties(ctx, controller.DeferredVertexQuery{Vertices: vertices}); err != nil {
			return nil, err
		}
		loaded := ir.IRArray{}
		for _, v := range vertices {
			if !v.IsDeferred() {
				loaded = append(loaded, v.ID)
			}
		}
		return loaded, nil
	}

	return nil, fmt.Errorf("unknown op %q", step.Op)
}

func (h *Harness) searchEdges(ctx context.Context, step Step) (ir.IRArray, error) {
	preds, err := searchPredicates(step)
	if err != nil {
		return nil, err
	}

	seq := h.ctrl.SearchEdges(ctx, controller.SearchQuery{Predicates: preds, Limit: step.Limit})
	if step.Of != nil {
		dir := ir.DirectionBoth
		if step.Direction != "" {
			if dir, err = ir.ParseDirection(step.Direction); err != nil {
				return nil, err
			}
		}
		vertices, err := placeholders(step.Of, "")
		if err != nil {
			return nil, err
		}
		seq = h.ctrl.SearchEdgesOf(ctx, controller.SearchVertexQuery{
			Vertices:   vertices,
			Direction:  dir,
			Predicates: preds,
			Limit:      step.Limit,
		})
	}

	found := ir.IRArray{}
	for e, err := range seq {
		if err != nil {
			return nil, err
		}
		found = append(found, e.ID)
	}
	return found, nil
}

// elementArgs converts the id and properties of a step. A missing id is nil.
func elementArgs(step Step) (ir.IRValue, ir.IRObject, error) {
	var id ir.IRValue
	if step.ID != nil {
		v, err := ir.FromNative(step.ID)
		if err != nil {
			return nil, nil, fmt.Errorf("id: %w", err)
		}
		id = v
	}

	props := make(ir.IRObject, len(step.Properties))
	for k, raw := range step.Properties {
		v, err := ir.FromNative(raw)
		if err != nil {
			return nil, nil, fmt.Errorf("property %q: %w", k, err)
		}
		props[k] = v
	}
	return id, props, nil
}

// endpoints builds the placeholder endpoints of an edge step. A missing
// endpoint stays nil.
func endpoints(step Step) (*ir.Vertex, *ir.Vertex, error) {
	var out, in *ir.Vertex
	if step.Out != nil {
		id, err := ir.FromNative(step.Out)
		if err != nil {
			return nil, nil, fmt.Errorf("out: %w", err)
		}
		out = ir.NewDeferredVertex(id)
	}
	if step.In != nil {
		id, err := ir.FromNative(step.In)
		if err != nil {
			return nil, nil, fmt.Errorf("in: %w", err)
		}
		in = ir.NewDeferredVertex(id)
	}
	return out, in, nil
}

func identities(raw []any) ([]ir.IRValue, error) {
	ids := make([]ir.IRValue, len(raw))
	for i, r := range raw {
		id, err := ir.FromNative(r)
		if err != nil {
			return nil, fmt.Errorf("ids[%d]: %w", i, err)
		}
		ids[i] = id
	}
	return ids, nil
}

func placeholders(raw []any, label string) ([]*ir.Vertex, error) {
	ids, err := identities(raw)
	if err != nil {
		return nil, err
	}
	vertices := make([]*ir.Vertex, len(ids))
	for i, id := range ids {
		vertices[i] = ir.NewDeferredVertex(id)
		vertices[i].Label = label
	}
	return vertices, nil
}

// searchPredicates combines the where clauses of a step with its label.
func searchPredicates(step Step) (*predicate.Holder, error) {
	leaves := make([]predicate.Has, 0, len(step.Where)+1)
	if step.Label != "" {
		leaves = append(leaves, predicate.Has{Key: predicate.KeyLabel, Op: predicate.Eq, Value: ir.IRString(step.Label)})
	}
	for i, c := range step.Where {
		op, err := predicate.ParseOperator(c.Op)
		if err != nil {
			return nil, fmt.Errorf("where[%d]: %w", i, err)
		}
		v, err := ir.FromNative(c.Value)
		if err != nil {
			return nil, fmt.Errorf("where[%d]: %w", i, err)
		}
		has := predicate.Has{Key: c.Key, Op: op, Value: v}
		if err := has.Validate(); err != nil {
			return nil, fmt.Errorf("where[%d]: %w", i, err)
		}
		leaves = append(leaves, has)
	}
	return predicate.Leaf(leaves...), nil
}

// checkExpect compares a traced step against its expect clause. A step
// without one must succeed.
func checkExpect(index int, step Step, ev TraceEvent, err error) []string {
	var errs []string
	exp := step.Expect
	if exp == nil {
		if err != nil {
			errs = append(errs, fmt.Sprintf("step %d (%s): unexpected error: %v", index, step.Op, err))
		}
		return errs
	}

	if ev.Error != exp.Error {
		msg := fmt.Sprintf("step %d (%s): expected error %q, got %q", index, step.Op, exp.Error, ev.Error)
		if err != nil {
			msg += fmt.Sprintf(" (%v)", err)
		}
		errs = append(errs, msg)
	}

	if exp.IDs != nil {
		want, convErr := identities(exp.IDs)
		if convErr != nil {
			errs = append(errs, fmt.Sprintf("step %d (%s): expect ids: %v", index, step.Op, convErr))
		} else if !ir.Equal(ir.IRArray(want), ev.Result) {
			errs = append(errs, fmt.Sprintf("step %d (%s): expected ids %v, got %v", index, step.Op, want, ev.Result))
		}
	}

	if exp.Count != nil && *exp.Count != len(ev.Result) {
		errs = append(errs, fmt.Sprintf("step %d (%s): expected %d element(s), got %d", index, step.Op, *exp.Count, len(ev.Result)))
	}

	if exp.Statements != nil && *exp.Statements != len(ev.Statements) {
		errs = append(errs, fmt.Sprintf("step %d (%s): expected %d statement(s), got %d", index, step.Op, *exp.Statements, len(ev.Statements)))
	}
	return errs
}

// sequence hands out the scenario's ids, then id-N.
type sequence struct {
	ids []string
	n   int
}

func newSequence(ids []string) *sequence {
	return &sequence{ids: ids}
}

func (s *sequence) NewID() ir.IRValue {
	s.n++
	if s.n <= len(s.ids) {
		return ir.IRString(s.ids[s.n-1])
	}
	return ir.IRString(fmt.Sprintf("id-%d", s.n))
}
