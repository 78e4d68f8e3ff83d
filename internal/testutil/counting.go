package testutil

import (
	"context"
	"sync"

	"github.com/roach88/rowgraph/internal/store"
)

// CountingExecutor wraps a store and records every statement it runs.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type CountingExecutor struct {
	*store.Store

	mu         sync.Mutex
	queries    []string
	executions []string
	statements []string
}

// NewCountingExecutor wraps s.
func NewCountingExecutor(s *store.Store) *CountingExecutor {
	return &CountingExecutor{Store: s}
}

// Query records the statement and delegates to the store.
func (c *CountingExecutor) Query(ctx context.Context, query string, args ...any) (*store.Cursor, error) {
	c.mu.Lock()
	c.queries = append(c.queries, query)
	c.statements = append(c.statements, query)
	c.mu.Unlock()
	return c.Store.Query(ctx, query, args...)
}

// Exec records the statement and delegates to the store.
func (c *CountingExecutor) Exec(ctx context.Context, query string, args ...any) (int64, error) {
	c.mu.Lock()
	c.executions = append(c.executions, query)
	c.statements = append(c.statements, query)
	c.mu.Unlock()
	return c.Store.Exec(ctx, query, args...)
}

// Calls returns the total number of statements run.
func (c *CountingExecutor) Calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.queries) + len(c.executions)
}

// Queries returns the selects run so far, in order.
func (c *CountingExecutor) Queries() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.queries...)
}

// Executions returns the mutating statements run so far, in order.
func (c *CountingExecutor) Executions() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.executions...)
}

// Statements returns every statement run so far, selects and mutations
// interleaved in execution order.
func (c *CountingExecutor) Statements() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.statements...)
}

// Reset forgets every recorded statement.
func (c *CountingExecutor) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.queries = nil
	c.executions = nil
	c.statements = nil
}
