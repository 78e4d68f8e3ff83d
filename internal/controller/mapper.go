package controller

import (
	"fmt"
	"sort"

	"github.com/roach88/rowgraph/internal/ir"
	"github.com/roach88/rowgraph/internal/schema"
)

// mapRow converts a result row with the first schema, in set order, that
// accepts it. Rows carry the table they were read from, so in practice the
// schema of that table wins; column shape only decides for rows without
// provenance.
func mapRow[E ir.Element, S schema.Schema[E]](row ir.ResultRow, schemas []S) (E, error) {
	for _, s := range schemas {
		if s.Accepts(row) {
			return s.FromRow(row)
		}
	}
	var zero E
	return zero, fmt.Errorf("%w: table %q columns %v", ErrUnmappedRow, row.Table, columnNames(row))
}

func columnNames(row ir.ResultRow) []string {
	names := make([]string, 0, len(row.Columns))
	for name := range row.Columns {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
