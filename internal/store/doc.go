// Package store runs SQL statements against the relational tables that back
// a schema set.
//
// Two backends are supported: SQLite through github.com/mattn/go-sqlite3
// (the default, and what tests run against) and PostgreSQL through the pgx
// database/sql driver. Both are reached through database/sql, so the rest
// of the module only sees Query, Exec and Cursor.
//
// # Database Configuration (SQLite)
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - single open connection: one writer at a time
//
// # Table Precondition
//
// The identity column of every backing table is its primary key and its
// only unique constraint. CreateTables bootstraps tables that way. Tables
// created elsewhere must follow the same rule: an INSERT ... ON CONFLICT DO
// NOTHING that affects zero rows is read as "identity already exists".
//
// Schema migration is out of scope; CreateTables only creates missing tables.
package store
