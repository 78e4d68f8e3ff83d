package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/roach88/rowgraph/internal/ir"
	"github.com/roach88/rowgraph/internal/predicate"
)

// parseValue reads a command-line value. JSON literals (numbers, true,
// false, null, quoted strings, arrays) are decoded; anything else is taken
// as a bare string.
func parseValue(s string) (ir.IRValue, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(s)))
	dec.UseNumber()
	var native any
	if err := dec.Decode(&native); err != nil || dec.More() {
		return ir.IRString(s), nil
	}
	v, err := ir.FromNative(native)
	if err != nil {
		return nil, fmt.Errorf("value %q: %w", s, ErrArguments)
	}
	return v, nil
}

// parseProperties reads repeated key=value flags.
func parseProperties(pairs []string) (ir.IRObject, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	props := make(ir.IRObject, len(pairs))
	for _, pair := range pairs {
		key, raw, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("property %q must be key=value: %w", pair, ErrArguments)
		}
		v, err := parseValue(raw)
		if err != nil {
			return nil, err
		}
		props[key] = v
	}
	return props, nil
}

// parseWhere reads repeated "key op value" clauses into their conjunction.
// The value may contain spaces.
//
//	--where "age gt 30" --where 'name within ["marko","josh"]'
func parseWhere(clauses []string) (*predicate.Holder, error) {
	leaves := make([]predicate.Has, 0, len(clauses))
	for _, clause := range clauses {
		parts := strings.SplitN(strings.TrimSpace(clause), " ", 3)
		if len(parts) != 3 {
			return nil, fmt.Errorf("where %q must be \"key op value\": %w", clause, ErrArguments)
		}
		op, err := predicate.ParseOperator(parts[1])
		if err != nil {
			return nil, fmt.Errorf("where %q: %v: %w", clause, err, ErrArguments)
		}
		v, err := parseValue(strings.TrimSpace(parts[2]))
		if err != nil {
			return nil, err
		}
		leaf := predicate.Has{Key: parts[0], Op: op, Value: v}
		if err := leaf.Validate(); err != nil {
			return nil, fmt.Errorf("where %q: %v: %w", clause, err, ErrArguments)
		}
		leaves = append(leaves, leaf)
	}
	return predicate.Leaf(leaves...), nil
}

// parseID reads an element identity; an empty string means none given.
func parseID(s string) (ir.IRValue, error) {
	if s == "" {
		return ir.IRNull{}, nil
	}
	return parseValue(s)
}
