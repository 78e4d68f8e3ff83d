package querysql

import (
	"fmt"
	"strings"

	"github.com/roach88/rowgraph/internal/ir"
)

// Statement is a complete parameterized statement in the dialect's
// placeholder form.
type Statement struct {
	SQL  string
	Args []any
}

// Column describes one column for CreateTable.
type Column struct {
	Name string
	Type ir.ColumnType
}

// Select builds SELECT * FROM table WHERE conds ORDER BY orderBy.
// A positive limit adds a LIMIT clause.
//
// MANDATORY: every select is ordered by the identity column so results are
// reproducible.
func (d Dialect) Select(table, orderBy string, conds []Condition, limit int) Statement {
	var b strings.Builder
	b.WriteString("SELECT * FROM ")
	b.WriteString(QuoteIdent(table))
	args := writeWhere(&b, conds)
	b.WriteString(" ORDER BY ")
	b.WriteString(d.orderBy(orderBy))
	if limit > 0 {
		fmt.Fprintf(&b, " LIMIT %d", limit)
	}
	return Statement{SQL: d.Rebind(b.String()), Args: args}
}

// InsertIgnore builds an insert that silently skips a conflicting row.
// The caller detects the conflict from a zero affected-row count.
func (d Dialect) InsertIgnore(table string, row ir.Row) Statement {
	cols := make([]string, len(row.Fields))
	placeholders := make([]string, len(row.Fields))
	for i, f := range row.Fields {
		cols[i] = QuoteIdent(f.Column)
		placeholders[i] = "?"
	}
	sql := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) ON CONFLICT DO NOTHING",
		QuoteIdent(table),
		strings.Join(cols, ", "),
		strings.Join(placeholders, ", "))
	return Statement{SQL: d.Rebind(sql), Args: row.Values()}
}

// Update builds UPDATE table SET assignments WHERE conds.
func (d Dialect) Update(table string, assignments []ir.Field, conds []Condition) Statement {
	var b strings.Builder
	b.WriteString("UPDATE ")
	b.WriteString(QuoteIdent(table))
	b.WriteString(" SET ")

	args := make([]any, 0, len(assignments))
	for i, f := range assignments {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(QuoteIdent(f.Column))
		b.WriteString(" = ?")
		args = append(args, f.Value)
	}
	args = append(args, writeWhere(&b, conds)...)
	return Statement{SQL: d.Rebind(b.String()), Args: args}
}

// Delete builds DELETE FROM table WHERE conds.
func (d Dialect) Delete(table string, conds []Condition) Statement {
	var b strings.Builder
	b.WriteString("DELETE FROM ")
	b.WriteString(QuoteIdent(table))
	args := writeWhere(&b, conds)
	return Statement{SQL: d.Rebind(b.String()), Args: args}
}

// CreateTable builds CREATE TABLE IF NOT EXISTS with primaryKey as the only
// unique constraint.
func (d Dialect) CreateTable(table string, columns []Column, primaryKey string) Statement {
	defs := make([]string, 0, len(columns))
	for _, c := range columns {
		def := QuoteIdent(c.Name) + " " + d.ColumnType(c.Type)
		if c.Name == primaryKey {
			def += " PRIMARY KEY"
		}
		defs = append(defs, def)
	}
	return Statement{SQL: fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", QuoteIdent(table), strings.Join(defs, ", "))}
}

// writeWhere appends the WHERE clause and returns its arguments.
func writeWhere(b *strings.Builder, conds []Condition) []any {
	if len(conds) == 0 {
		return nil
	}
	var args []any
	b.WriteString(" WHERE ")
	for i, c := range conds {
		if i > 0 {
			b.WriteString(" AND ")
		}
		b.WriteString(c.SQL)
		args = append(args, c.Args...)
	}
	return args
}
