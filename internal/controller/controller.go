package controller

import (
	"context"
	"log/slog"

	"github.com/roach88/rowgraph/internal/querysql"
	"github.com/roach88/rowgraph/internal/schema"
	"github.com/roach88/rowgraph/internal/store"
)

// Executor runs statements. *store.Store satisfies it.
type Executor interface {
	Query(ctx context.Context, query string, args ...any) (*store.Cursor, error)
	Exec(ctx context.Context, query string, args ...any) (int64, error)
}

// Controller maps graph operations onto the tables of a schema set.
//
// Thread-safety model:
//   - all fields are set at construction and never modified
//   - methods are safe for concurrent use as far as the Executor is
//
// INVARIANTS:
//   - schema set order NEVER changes after construction; it decides which
//     schema maps a result row that several schemas accept
//   - no element state is cached between calls
type Controller struct {
	exec      Executor
	schemas   schema.Set
	translate querysql.Translator
	dialect   querysql.Dialect
	ids       IDGenerator
	logger    *slog.Logger
}

// Option allows configuration of controller parameters.
type Option func(*Controller)

// WithTranslator replaces the default predicate translator.
func WithTranslator(t querysql.Translator) Option {
	return func(c *Controller) {
		c.translate = t
	}
}

// WithDialect sets the SQL dialect statements are built in.
//
// Default: the executor's own dialect when it reports one, SQLite otherwise.
func WithDialect(d querysql.Dialect) Option {
	return func(c *Controller) {
		c.dialect = d
	}
}

// WithLogger sets the logger for statement tracing. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) {
		c.logger = l
	}
}

// WithIDGenerator sets how missing identities are generated.
// Default: UUIDv7Generator.
func WithIDGenerator(g IDGenerator) Option {
	return func(c *Controller) {
		c.ids = g
	}
}

// New creates a Controller over exec serving the tables of schemas.
//
// The schema slices are copied so later changes by the caller cannot
// reorder them.
func New(exec Executor, schemas schema.Set, opts ...Option) *Controller {
	c := &Controller{
		exec: exec,
		schemas: schema.Set{
			Vertices: append([]schema.VertexSchema(nil), schemas.Vertices...),
			Edges:    append([]schema.EdgeSchema(nil), schemas.Edges...),
		},
		translate: querysql.Translate,
		dialect:   querysql.SQLite,
		ids:       UUIDv7Generator{},
		logger:    slog.Default(),
	}
	if d, ok := exec.(interface{ Dialect() querysql.Dialect }); ok {
		c.dialect = d.Dialect()
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Schemas returns the schema set the controller serves.
func (c *Controller) Schemas() schema.Set {
	return c.schemas
}
