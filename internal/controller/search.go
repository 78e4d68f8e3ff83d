package controller

import (
	"context"
	"fmt"
	"iter"

	"github.com/roach88/rowgraph/internal/ir"
	"github.com/roach88/rowgraph/internal/predicate"
	"github.com/roach88/rowgraph/internal/querysql"
	"github.com/roach88/rowgraph/internal/schema"
)

// SearchVertices returns the vertices matching q across every vertex table.
//
// The sequence is lazy: the select for a table is issued only when
// iteration reaches it, and stopping early leaves later tables untouched.
// A table's rows are read in full before the first of them is yielded, so
// the loop body may call back into the controller.
// Elements are deduplicated by identity; the first table in set order that
// returns an identity wins. An error ends the sequence.
func (c *Controller) SearchVertices(ctx context.Context, q SearchQuery) iter.Seq2[*ir.Vertex, error] {
	h := orEmpty(q.Predicates)
	return search[*ir.Vertex](ctx, c, ir.KindVertex, c.schemas.Vertices, h, func(s schema.VertexSchema) *predicate.Holder {
		return s.ToPredicates(h)
	}, q.Limit)
}

// SearchEdges returns the edges matching q across every edge table.
// Endpoints of returned edges are deferred vertices; see FetchProperties.
func (c *Controller) SearchEdges(ctx context.Context, q SearchQuery) iter.Seq2[*ir.Edge, error] {
	h := orEmpty(q.Predicates)
	return search[*ir.Edge](ctx, c, ir.KindEdge, c.schemas.Edges, h, func(s schema.EdgeSchema) *predicate.Holder {
		return s.ToPredicates(h)
	}, q.Limit)
}

// SearchEdgesOf returns the edges touching at least one of q.Vertices in
// q.Direction that also satisfy q.Predicates. No vertices means no edges.
func (c *Controller) SearchEdgesOf(ctx context.Context, q SearchVertexQuery) iter.Seq2[*ir.Edge, error] {
	h := orEmpty(q.Predicates)
	return search[*ir.Edge](ctx, c, ir.KindEdge, c.schemas.Edges, h, func(s schema.EdgeSchema) *predicate.Holder {
		return s.ToVertexPredicates(q.Vertices, q.Direction, h)
	}, q.Limit)
}

// FetchProperties loads label and properties of the placeholder vertices in
// one select per vertex table and fills them in place.
//
// Placeholders without a matching row are left untouched; that is not an
// error. When no table can hold any of the placeholders nothing is issued.
func (c *Controller) FetchProperties(ctx context.Context, q DeferredVertexQuery) error {
	pending := make(map[string][]*ir.Vertex, len(q.Vertices))
	for _, v := range q.Vertices {
		if v == nil {
			continue
		}
		key, err := ir.IdentityKey(v.ID)
		if err != nil {
			return fmt.Errorf("fetch properties: %w", err)
		}
		pending[key] = append(pending[key], v)
	}
	if len(pending) == 0 {
		return nil
	}

	found := 0
	loaded := search[*ir.Vertex](ctx, c, ir.KindVertex, c.schemas.Vertices, predicate.Empty(), func(s schema.VertexSchema) *predicate.Holder {
		return s.ToDeferredPredicates(q.Vertices)
	}, 0)
	for resolved, err := range loaded {
		if err != nil {
			return fmt.Errorf("fetch properties: %w", err)
		}
		key, err := ir.IdentityKey(resolved.ID)
		if err != nil {
			return fmt.Errorf("fetch properties: %w", err)
		}
		for _, v := range pending[key] {
			v.LoadProperties(resolved)
			found++
		}
	}

	c.logger.Debug("properties fetched",
		"placeholders", len(q.Vertices),
		"resolved", found,
	)
	return nil
}

// search runs one restated select per table of schemas.
//
// Each table restates the caller's tree over its own columns. Tables whose
// restatement is aborted cannot hold a match and get no statement; when
// that is every table, or there are no tables, nothing is issued. Tables
// with identical restatements share one translation.
func search[E ir.Element, S schema.Schema[E]](
	ctx context.Context,
	c *Controller,
	kind ir.Kind,
	schemas []S,
	caller *predicate.Holder,
	restate func(S) *predicate.Holder,
	limit int,
) iter.Seq2[E, error] {
	return func(yield func(E, error) bool) {
		var zero E

		if err := caller.Validate(); err != nil {
			yield(zero, fmt.Errorf("search %s: %w", kind, err))
			return
		}

		type tablePlan struct {
			schema S
			tree   *predicate.Holder
		}
		plans := make([]tablePlan, 0, len(schemas))
		trees := make([]*predicate.Holder, 0, len(schemas))
		for _, s := range schemas {
			tree := restate(s)
			trees = append(trees, tree)
			if !tree.IsAborted() {
				plans = append(plans, tablePlan{schema: s, tree: tree})
			}
		}

		if combined := predicate.Or(trees...); combined.IsAborted() {
			c.logger.Debug("search short-circuited",
				"kind", kind.String(),
				"tables", len(schemas),
			)
			return
		}

		translated := make(map[string][]querysql.Condition, len(plans))
		seen := make(map[string]struct{})
		count := 0

		// scan streams one table; it reports whether iteration continues.
		scan := func(p tablePlan) bool {
			table := p.schema.Table()

			key := p.tree.String()
			conds, ok := translated[key]
			if !ok {
				var err error
				conds, err = c.translate(p.tree)
				if err != nil {
					yield(zero, fmt.Errorf("translate predicates for %s: %w", table, err))
					return false
				}
				translated[key] = conds
			}

			elements, err := fetchTable(ctx, c, p.schema, schemas, conds, limit)
			if err != nil {
				yield(zero, err)
				return false
			}

			for _, e := range elements {
				id, err := ir.IdentityKey(e.ElementID())
				if err != nil {
					yield(zero, fmt.Errorf("table %s: %w", table, err))
					return false
				}
				if _, dup := seen[id]; dup {
					continue
				}
				seen[id] = struct{}{}

				count++
				if !yield(e, nil) {
					return false
				}
				if limit > 0 && count >= limit {
					return false
				}
			}
			return true
		}

		for _, p := range plans {
			if !scan(p) {
				return
			}
		}
	}
}

// fetchTable runs one select and maps every row before returning, so the
// cursor and its connection are released before the caller sees a row.
func fetchTable[E ir.Element, S schema.Schema[E]](ctx context.Context, c *Controller, s S, schemas []S, conds []querysql.Condition, limit int) ([]E, error) {
	table := s.Table()
	st := c.dialect.Select(table, s.IDColumn(), conds, limit)
	cursor, err := c.exec.Query(ctx, st.SQL, st.Args...)
	if err != nil {
		return nil, &StorageError{Op: "select", Table: table, Err: err}
	}
	defer cursor.Close()

	var out []E
	for cursor.Next() {
		e, err := mapRow[E](ir.ResultRow{Table: table, Columns: cursor.Row()}, schemas)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if err := cursor.Err(); err != nil {
		return nil, &StorageError{Op: "select", Table: table, Err: err}
	}

	c.logger.Debug("select issued",
		"table", table,
		"conditions", len(conds),
		"rows", len(out),
	)
	return out, nil
}

func orEmpty(h *predicate.Holder) *predicate.Holder {
	if h == nil {
		return predicate.Empty()
	}
	return h
}
