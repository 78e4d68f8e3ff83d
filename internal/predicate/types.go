package predicate

import (
	"fmt"
	"strings"

	"github.com/roach88/rowgraph/internal/ir"
)

// Reserved keys addressing element identity and label.
const (
	KeyID    = "~id"
	KeyLabel = "~label"
)

// Operator is the comparison applied by a Has leaf.
type Operator string

const (
	Eq         Operator = "eq"
	Neq        Operator = "neq"
	Lt         Operator = "lt"
	Lte        Operator = "lte"
	Gt         Operator = "gt"
	Gte        Operator = "gte"
	Within     Operator = "within"
	Without    Operator = "without"
	StartsWith Operator = "startsWith"
)

var operators = []Operator{Eq, Neq, Lt, Lte, Gt, Gte, Within, Without, StartsWith}

// ParseOperator parses an operator name.
func ParseOperator(s string) (Operator, error) {
	for _, op := range operators {
		if string(op) == s {
			return op, nil
		}
	}
	return "", fmt.Errorf("unknown operator %q", s)
}

// Has is an atomic condition over one key.
//
// Within and Without take an ir.IRArray operand. StartsWith takes an
// ir.IRString. All other operators take a scalar.
type Has struct {
	Key   string
	Op    Operator
	Value ir.IRValue
}

// Validate checks the operator and the operand shape.
func (h Has) Validate() error {
	if h.Key == "" {
		return fmt.Errorf("predicate has empty key")
	}
	switch h.Op {
	case Eq, Neq, Lt, Lte, Gt, Gte:
		switch h.Value.(type) {
		case ir.IRArray, ir.IRObject:
			return fmt.Errorf("predicate %s %s: operand must be scalar, got %T", h.Key, h.Op, h.Value)
		}
	case Within, Without:
		if _, ok := h.Value.(ir.IRArray); !ok {
			return fmt.Errorf("predicate %s %s: operand must be an array, got %T", h.Key, h.Op, h.Value)
		}
	case StartsWith:
		if _, ok := h.Value.(ir.IRString); !ok {
			return fmt.Errorf("predicate %s %s: operand must be a string, got %T", h.Key, h.Op, h.Value)
		}
	default:
		return fmt.Errorf("predicate %s: unknown operator %q", h.Key, h.Op)
	}
	return nil
}

// Test evaluates the leaf against a value. A missing value never matches,
// mirroring SQL comparison against NULL.
func (h Has) Test(v ir.IRValue, present bool) bool {
	if !present {
		return false
	}
	if _, isNull := v.(ir.IRNull); isNull || v == nil {
		return false
	}

	switch h.Op {
	case Eq:
		return ir.Equal(v, h.Value)
	case Neq:
		return !ir.Equal(v, h.Value)
	case Lt, Lte, Gt, Gte:
		c, ok := ir.Compare(v, h.Value)
		if !ok {
			return false
		}
		switch h.Op {
		case Lt:
			return c < 0
		case Lte:
			return c <= 0
		case Gt:
			return c > 0
		default:
			return c >= 0
		}
	case Within, Without:
		arr, _ := h.Value.(ir.IRArray)
		found := false
		for _, candidate := range arr {
			if ir.Equal(v, candidate) {
				found = true
				break
			}
		}
		if h.Op == Within {
			return found
		}
		return !found
	case StartsWith:
		s, ok := v.(ir.IRString)
		prefix, pok := h.Value.(ir.IRString)
		return ok && pok && strings.HasPrefix(string(s), string(prefix))
	}
	return false
}

func (h Has) String() string {
	val, err := ir.MarshalIRValue(h.Value)
	if err != nil {
		val = []byte(fmt.Sprintf("%v", h.Value))
	}
	return fmt.Sprintf("%s %s %s", h.Key, h.Op, val)
}

// Clause combines the members of a Holder.
type Clause int

const (
	ClauseAnd Clause = iota
	ClauseOr
	ClauseAbort
)

func (c Clause) String() string {
	switch c {
	case ClauseAnd:
		return "and"
	case ClauseOr:
		return "or"
	case ClauseAbort:
		return "abort"
	default:
		return fmt.Sprintf("Clause(%d)", int(c))
	}
}
