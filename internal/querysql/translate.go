package querysql

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/roach88/rowgraph/internal/ir"
	"github.com/roach88/rowgraph/internal/predicate"
)

// Condition is one relational condition of a WHERE clause.
// SQL uses ? placeholders; Args holds the values in placeholder order.
//
// CRITICAL: values are never interpolated into SQL.
type Condition struct {
	SQL  string
	Args []any
}

// Translator turns a predicate tree over column names into a linear list of
// conditions that must all hold. Translators are stateless and table
// agnostic: the same list is applied to every table of a schema set.
type Translator func(*predicate.Holder) ([]Condition, error)

// Translate is the default Translator.
//
// An empty tree yields no conditions. An And root yields one condition per
// member; an Or root or a single leaf yields exactly one condition. An
// aborted tree yields the always-false condition.
func Translate(h *predicate.Holder) ([]Condition, error) {
	if h == nil || h.IsEmpty() {
		return nil, nil
	}
	if h.IsAborted() {
		return []Condition{{SQL: "1 = 0"}}, nil
	}

	if h.Clause() == predicate.ClauseOr {
		c, err := compileHolder(h)
		if err != nil {
			return nil, err
		}
		return []Condition{c}, nil
	}

	var conds []Condition
	for _, leaf := range h.Predicates() {
		c, err := compileHas(leaf)
		if err != nil {
			return nil, err
		}
		conds = append(conds, c)
	}
	for _, child := range h.Children() {
		c, err := compileHolder(child)
		if err != nil {
			return nil, err
		}
		conds = append(conds, c)
	}
	return conds, nil
}

// compileHolder compiles a whole subtree into a single parenthesized condition.
func compileHolder(h *predicate.Holder) (Condition, error) {
	if h.IsAborted() {
		return Condition{SQL: "1 = 0"}, nil
	}
	if h.IsEmpty() {
		return Condition{SQL: "1 = 1"}, nil
	}

	sep := " AND "
	if h.Clause() == predicate.ClauseOr {
		sep = " OR "
	}

	var parts []string
	var args []any
	for _, leaf := range h.Predicates() {
		c, err := compileHas(leaf)
		if err != nil {
			return Condition{}, err
		}
		parts = append(parts, c.SQL)
		args = append(args, c.Args...)
	}
	for _, child := range h.Children() {
		c, err := compileHolder(child)
		if err != nil {
			return Condition{}, err
		}
		parts = append(parts, c.SQL)
		args = append(args, c.Args...)
	}

	if len(parts) == 1 {
		return Condition{SQL: parts[0], Args: args}, nil
	}
	return Condition{SQL: "(" + strings.Join(parts, sep) + ")", Args: args}, nil
}

var comparisons = map[predicate.Operator]string{
	predicate.Eq:  "=",
	predicate.Neq: "<>",
	predicate.Lt:  "<",
	predicate.Lte: "<=",
	predicate.Gt:  ">",
	predicate.Gte: ">=",
}

// compileHas compiles one leaf. The leaf key is a column name.
func compileHas(h predicate.Has) (Condition, error) {
	if err := h.Validate(); err != nil {
		return Condition{}, err
	}
	col := QuoteIdent(h.Key)

	if op, ok := comparisons[h.Op]; ok {
		param, err := ir.ToNative(h.Value)
		if err != nil {
			return Condition{}, fmt.Errorf("column %s: %w", h.Key, err)
		}
		return Condition{SQL: fmt.Sprintf("%s %s ?", col, op), Args: []any{param}}, nil
	}

	switch h.Op {
	case predicate.Within, predicate.Without:
		arr := h.Value.(ir.IRArray)
		if len(arr) == 0 {
			if h.Op == predicate.Within {
				return Condition{SQL: "1 = 0"}, nil
			}
			return Condition{SQL: "1 = 1"}, nil
		}
		placeholders := make([]string, len(arr))
		args := make([]any, len(arr))
		for i, v := range arr {
			param, err := ir.ToNative(v)
			if err != nil {
				return Condition{}, fmt.Errorf("column %s [%d]: %w", h.Key, i, err)
			}
			placeholders[i] = "?"
			args[i] = param
		}
		keyword := "IN"
		if h.Op == predicate.Without {
			keyword = "NOT IN"
		}
		return Condition{
			SQL:  fmt.Sprintf("%s %s (%s)", col, keyword, strings.Join(placeholders, ", ")),
			Args: args,
		}, nil

	case predicate.StartsWith:
		// substr keeps the match case sensitive on every dialect, unlike LIKE on SQLite.
		prefix := string(h.Value.(ir.IRString))
		return Condition{
			SQL:  fmt.Sprintf("substr(%s, 1, ?) = ?", col),
			Args: []any{int64(utf8.RuneCountInString(prefix)), prefix},
		}, nil
	}

	return Condition{}, fmt.Errorf("unsupported operator: %s", h.Op)
}
