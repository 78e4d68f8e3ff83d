package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"

	"github.com/roach88/rowgraph/internal/querysql"
	"github.com/roach88/rowgraph/internal/schema"
)

// Store executes statements against the tables backing a schema set.
// It knows nothing about graph elements: it runs SQL and returns rows.
type Store struct {
	db      *sql.DB
	dialect querysql.Dialect
}

// Open creates or opens a SQLite database at the given path.
//
// The database is configured with:
//   - WAL mode for concurrent reads during writes
//   - NORMAL synchronous mode (balance durability/performance)
//   - 5-second busy timeout for lock contention
//
// This function is idempotent - safe to call multiple times.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// SQLite only supports one writer at a time, so limit connections
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}

	return &Store{db: db, dialect: querysql.SQLite}, nil
}

// OpenPostgres connects to PostgreSQL through the pgx database/sql driver.
func OpenPostgres(ctx context.Context, dsn string) (*Store, error) {
	cfg, err := pgx.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse postgres dsn: %w", err)
	}

	db := stdlib.OpenDB(*cfg)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return &Store{db: db, dialect: querysql.Postgres}, nil
}

// Connect opens a store for dialect. For SQLite dsn is a file path.
func Connect(ctx context.Context, dialect querysql.Dialect, dsn string) (*Store, error) {
	switch dialect {
	case querysql.SQLite:
		return Open(dsn)
	case querysql.Postgres:
		return OpenPostgres(ctx, dsn)
	}
	return nil, fmt.Errorf("unsupported dialect %s", dialect)
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// DB returns the underlying sql.DB for direct queries.
// Use with caution - prefer using Store methods when available.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Dialect returns the SQL dialect statements for this store must use.
func (s *Store) Dialect() querysql.Dialect {
	return s.dialect
}

// Query runs a select and returns a cursor over its rows.
// Callers are responsible for closing the cursor.
func (s *Store) Query(ctx context.Context, query string, args ...any) (*Cursor, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	cols, err := rows.Columns()
	if err != nil {
		rows.Close()
		return nil, fmt.Errorf("query columns: %w", err)
	}
	return &Cursor{rows: rows, cols: cols}, nil
}

// Exec runs a mutating statement and returns the number of affected rows.
func (s *Store) Exec(ctx context.Context, query string, args ...any) (int64, error) {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("exec: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}

// CreateTables creates the backing table of every definition that does not
// exist yet. Existing tables are left untouched.
//
// The identity column is the primary key and the only unique constraint,
// which is what lets a conflicting insert be read as a duplicate identity.
func (s *Store) CreateTables(ctx context.Context, defs []schema.Definition) error {
	for _, def := range defs {
		st := s.dialect.CreateTable(def.Table, def.Columns(), def.IDColumn)
		if _, err := s.db.ExecContext(ctx, st.SQL, st.Args...); err != nil {
			return fmt.Errorf("create table %s: %w", def.Table, err)
		}
	}
	return nil
}

// applyPragmas sets required SQLite configuration.
func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}

	return nil
}

// verifyPragma checks that a pragma is set to the expected value.
// Used for testing.
func (s *Store) verifyPragma(name, expected string) error {
	var value string
	query := fmt.Sprintf("PRAGMA %s", name)
	if err := s.db.QueryRow(query).Scan(&value); err != nil {
		return fmt.Errorf("failed to query %s: %w", name, err)
	}
	if value != expected {
		return fmt.Errorf("%s = %q, expected %q", name, value, expected)
	}
	return nil
}
