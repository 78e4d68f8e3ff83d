package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/rowgraph/internal/config"
	"github.com/roach88/rowgraph/internal/controller"
	"github.com/roach88/rowgraph/internal/schema"
	"github.com/roach88/rowgraph/internal/store"
)

// session is everything a graph command needs: resolved config, the table
// definitions, an open store and a controller over it.
type session struct {
	cfg    *config.Config
	defs   []schema.Definition
	store  *store.Store
	ctrl   *controller.Controller
	logger *slog.Logger
}

func newFormatter(opts *RootOptions, cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   opts.Verbose,
	}
}

// resolveConfig loads the config file and environment, then applies flag
// overrides.
func resolveConfig(opts *RootOptions) (*config.Config, error) {
	cfg, err := config.Load(opts.Config)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeConfig, Message: err.Error()}
	}
	if opts.Schema != "" {
		cfg.Schema = opts.Schema
	}
	if opts.Database != "" {
		cfg.Database.DSN = opts.Database
	}
	if opts.Dialect != "" {
		cfg.Database.Dialect = opts.Dialect
	}
	if opts.Verbose {
		cfg.Log.Level = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return nil, &LoadError{Code: ErrCodeConfig, Message: err.Error()}
	}
	return cfg, nil
}

// openSession resolves config, loads definitions and connects. Diagnostics
// are logged to logw. The caller must Close the session.
func openSession(ctx context.Context, opts *RootOptions, logw io.Writer) (*session, error) {
	cfg, err := resolveConfig(opts)
	if err != nil {
		return nil, err
	}
	logger := cfg.Log.Logger(logw)

	defs, set, err := LoadDefinitions(cfg.Schema)
	if err != nil {
		return nil, err
	}
	logger.Debug("definitions loaded",
		"path", cfg.Schema,
		"vertex_tables", len(set.Vertices),
		"edge_tables", len(set.Edges),
	)

	dialect, err := cfg.Database.ParseDialect()
	if err != nil {
		return nil, err
	}
	st, err := store.Connect(ctx, dialect, cfg.Database.DSN)
	if err != nil {
		return nil, fmt.Errorf("connect %s database: %w", dialect, err)
	}
	logger.Debug("database connected", "dialect", dialect.String())

	ctrl := controller.New(st, set,
		controller.WithDialect(dialect),
		controller.WithLogger(logger),
	)
	return &session{cfg: cfg, defs: defs, store: st, ctrl: ctrl, logger: logger}, nil
}

func (s *session) Close() error {
	return s.store.Close()
}
