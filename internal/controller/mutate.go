package controller

import (
	"context"
	"fmt"
	"sort"

	"github.com/roach88/rowgraph/internal/ir"
	"github.com/roach88/rowgraph/internal/predicate"
	"github.com/roach88/rowgraph/internal/schema"
)

// AddVertex inserts a vertex into every vertex table that applies to it.
//
// An identity already present in a table yields an AlreadyExistsError for
// that table. Tables are written in set order and the first failure stops
// the insert; earlier tables keep their row.
func (c *Controller) AddVertex(ctx context.Context, q AddVertexQuery) (*ir.Vertex, error) {
	v := &ir.Vertex{ID: q.ID, Label: q.Label, Properties: q.Properties.Clone()}
	if isNull(v.ID) {
		v.ID = c.ids.NewID()
	}
	if err := insert[*ir.Vertex](ctx, c, ir.KindVertex, c.schemas.Vertices, v); err != nil {
		return nil, err
	}
	return v, nil
}

// AddEdge inserts an edge into every edge table that applies to it.
// Both endpoints are required.
func (c *Controller) AddEdge(ctx context.Context, q AddEdgeQuery) (*ir.Edge, error) {
	if q.Out == nil || q.In == nil {
		return nil, fmt.Errorf("add edge %q: %w", q.Label, schema.ErrMissingEndpoint)
	}
	e := &ir.Edge{ID: q.ID, Label: q.Label, Properties: q.Properties.Clone(), Out: q.Out, In: q.In}
	if isNull(e.ID) {
		e.ID = c.ids.NewID()
	}
	if err := insert[*ir.Edge](ctx, c, ir.KindEdge, c.schemas.Edges, e); err != nil {
		return nil, err
	}
	return e, nil
}

// UpdateVertex rewrites the row of v in every vertex table that applies to
// it. The identity column is never assigned. A table without the row is
// skipped silently.
func (c *Controller) UpdateVertex(ctx context.Context, v *ir.Vertex) error {
	return update[*ir.Vertex](ctx, c, ir.KindVertex, c.schemas.Vertices, v)
}

// UpdateEdge rewrites the row of e in every edge table that applies to it.
func (c *Controller) UpdateEdge(ctx context.Context, e *ir.Edge) error {
	return update[*ir.Edge](ctx, c, ir.KindEdge, c.schemas.Edges, e)
}

// RemoveVertices deletes the given vertices with one statement per vertex
// table. Vertices missing from a table are no-ops there; an empty slice
// issues nothing.
func (c *Controller) RemoveVertices(ctx context.Context, vertices []*ir.Vertex) error {
	return remove[*ir.Vertex](ctx, c, ir.KindVertex, c.schemas.Vertices, vertices)
}

// RemoveEdges deletes the given edges with one statement per edge table.
func (c *Controller) RemoveEdges(ctx context.Context, edges []*ir.Edge) error {
	return remove[*ir.Edge](ctx, c, ir.KindEdge, c.schemas.Edges, edges)
}

func insert[E ir.Element, S schema.Schema[E]](ctx context.Context, c *Controller, kind ir.Kind, schemas []S, e E) error {
	targets := applicable[E](schemas, e)
	if len(targets) == 0 {
		return fmt.Errorf("insert %s label %q: %w", kind, e.ElementLabel(), ErrNoSchema)
	}

	for _, s := range targets {
		row, err := s.ToRow(e)
		if err != nil {
			return fmt.Errorf("insert %s: %w", kind, err)
		}

		st := c.dialect.InsertIgnore(s.Table(), row)
		n, err := c.exec.Exec(ctx, st.SQL, st.Args...)
		if err != nil {
			return &StorageError{Op: "insert", Table: s.Table(), Err: err}
		}

		c.logger.Debug("insert executed",
			"kind", kind.String(),
			"table", s.Table(),
			"affected", n,
		)

		// Zero rows means the identity conflicted: the identity column is
		// the only unique constraint of a backing table.
		if n == 0 {
			return &AlreadyExistsError{Kind: kind, ID: e.ElementID(), Table: s.Table()}
		}
	}
	return nil
}

func update[E ir.Element, S schema.Schema[E]](ctx context.Context, c *Controller, kind ir.Kind, schemas []S, e E) error {
	targets := applicable[E](schemas, e)
	if len(targets) == 0 {
		return fmt.Errorf("update %s label %q: %w", kind, e.ElementLabel(), ErrNoSchema)
	}

	for _, s := range targets {
		row, err := s.ToRow(e)
		if err != nil {
			return fmt.Errorf("update %s: %w", kind, err)
		}
		assignments := row.Without(s.IDColumn()).Fields
		if len(assignments) == 0 {
			continue
		}

		fields, err := s.ToFields(e)
		if err != nil {
			return fmt.Errorf("update %s: %w", kind, err)
		}
		match, err := identityPredicates(fields)
		if err != nil {
			return fmt.Errorf("update %s: %w", kind, err)
		}
		conds, err := c.translate(match)
		if err != nil {
			return fmt.Errorf("update %s: translate predicates for %s: %w", kind, s.Table(), err)
		}

		st := c.dialect.Update(s.Table(), assignments, conds)
		n, err := c.exec.Exec(ctx, st.SQL, st.Args...)
		if err != nil {
			return &StorageError{Op: "update", Table: s.Table(), Err: err}
		}

		c.logger.Debug("update executed",
			"kind", kind.String(),
			"table", s.Table(),
			"conditions", len(conds),
			"affected", n,
		)
	}
	return nil
}

func remove[E ir.Element, S schema.Schema[E]](ctx context.Context, c *Controller, kind ir.Kind, schemas []S, elements []E) error {
	if len(elements) == 0 {
		return nil
	}

	for _, s := range schemas {
		var members []*predicate.Holder
		for _, e := range elements {
			// An unlabeled element, such as a placeholder, may live in any
			// table whose identity column can hold its id.
			unlabeled := e.ElementLabel() == ""
			if !unlabeled && !s.Applies(e) {
				continue
			}
			fields, err := s.ToFields(e)
			if err != nil {
				if unlabeled {
					continue
				}
				return fmt.Errorf("remove %s: %w", kind, err)
			}
			match, err := identityPredicates(fields)
			if err != nil {
				return fmt.Errorf("remove %s: %w", kind, err)
			}
			members = append(members, match)
		}
		if len(members) == 0 {
			continue
		}

		conds, err := c.translate(predicate.Or(members...))
		if err != nil {
			return fmt.Errorf("remove %s: translate predicates for %s: %w", kind, s.Table(), err)
		}

		st := c.dialect.Delete(s.Table(), conds)
		n, err := c.exec.Exec(ctx, st.SQL, st.Args...)
		if err != nil {
			return &StorageError{Op: "delete", Table: s.Table(), Err: err}
		}

		c.logger.Debug("delete executed",
			"kind", kind.String(),
			"table", s.Table(),
			"elements", len(members),
			"affected", n,
		)
	}
	return nil
}

// applicable returns the schemas that apply to e, in set order.
func applicable[E ir.Element, S schema.Schema[E]](schemas []S, e E) []S {
	var out []S
	for _, s := range schemas {
		if s.Applies(e) {
			out = append(out, s)
		}
	}
	return out
}

// identityPredicates turns identity fields into an equality conjunction over
// their columns, in column order.
func identityPredicates(fields map[string]any) (*predicate.Holder, error) {
	cols := make([]string, 0, len(fields))
	for col := range fields {
		cols = append(cols, col)
	}
	sort.Strings(cols)

	leaves := make([]predicate.Has, 0, len(cols))
	for _, col := range cols {
		v, err := ir.FromNative(fields[col])
		if err != nil {
			return nil, fmt.Errorf("identity column %s: %w", col, err)
		}
		leaves = append(leaves, predicate.Has{Key: col, Op: predicate.Eq, Value: v})
	}
	return predicate.Leaf(leaves...), nil
}

func isNull(v ir.IRValue) bool {
	if v == nil {
		return true
	}
	_, null := v.(ir.IRNull)
	return null
}
