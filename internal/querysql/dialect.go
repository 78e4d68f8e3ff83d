package querysql

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/roach88/rowgraph/internal/ir"
)

// Dialect captures the differences between the supported SQL engines.
type Dialect int

const (
	SQLite Dialect = iota
	Postgres
)

func (d Dialect) String() string {
	switch d {
	case SQLite:
		return "sqlite"
	case Postgres:
		return "postgres"
	default:
		return fmt.Sprintf("Dialect(%d)", int(d))
	}
}

// ParseDialect parses "sqlite" or "postgres".
func ParseDialect(s string) (Dialect, error) {
	switch strings.ToLower(s) {
	case "sqlite", "sqlite3":
		return SQLite, nil
	case "postgres", "postgresql", "pgx":
		return Postgres, nil
	}
	return 0, fmt.Errorf("unknown dialect %q: must be sqlite or postgres", s)
}

// QuoteIdent quotes an identifier with double quotes, which both dialects accept.
func QuoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// Rebind rewrites ? placeholders to the dialect's native form.
// Placeholders inside quoted strings or identifiers are left alone.
func (d Dialect) Rebind(query string) string {
	if d != Postgres {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	var quote rune
	for _, r := range query {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
			}
		case r == '\'' || r == '"':
			quote = r
		case r == '?':
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// ColumnType returns the DDL type for a mapped column type.
func (d Dialect) ColumnType(t ir.ColumnType) string {
	switch t {
	case ir.TypeInt:
		if d == Postgres {
			return "BIGINT"
		}
		return "INTEGER"
	case ir.TypeBool:
		return "BOOLEAN"
	default:
		return "TEXT"
	}
}

// orderBy returns the deterministic ORDER BY expression for a column.
func (d Dialect) orderBy(col string) string {
	if d == SQLite {
		// COLLATE BINARY keeps text ordering stable across SQLite versions
		return QuoteIdent(col) + " COLLATE BINARY ASC"
	}
	return QuoteIdent(col) + " ASC"
}
