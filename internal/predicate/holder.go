package predicate

import (
	"slices"
	"strings"

	"github.com/roach88/rowgraph/internal/ir"
)

// Holder is an immutable boolean combination of Has leaves and nested
// holders. The zero value is not valid; build holders with the factories.
type Holder struct {
	clause     Clause
	predicates []Has
	children   []*Holder
}

// Empty returns a holder with no constraint.
func Empty() *Holder {
	return &Holder{clause: ClauseAnd}
}

// Abort returns an unsatisfiable holder.
func Abort() *Holder {
	return &Holder{clause: ClauseAbort}
}

// Leaf returns the conjunction of the given leaves.
// No leaves yields Empty().
func Leaf(leaves ...Has) *Holder {
	if len(leaves) == 0 {
		return Empty()
	}
	return &Holder{clause: ClauseAnd, predicates: slices.Clone(leaves)}
}

// AnyOf returns the disjunction of the given leaves.
// No leaves yields Abort().
func AnyOf(leaves ...Has) *Holder {
	switch len(leaves) {
	case 0:
		return Abort()
	case 1:
		return Leaf(leaves[0])
	}
	return &Holder{clause: ClauseOr, predicates: slices.Clone(leaves)}
}

// And combines holders so that all must hold.
func And(holders ...*Holder) *Holder {
	var members []*Holder
	for _, h := range holders {
		if h == nil {
			continue
		}
		if h.IsAborted() {
			return Abort()
		}
		if h.IsEmpty() {
			continue
		}
		members = append(members, h)
	}

	switch len(members) {
	case 0:
		return Empty()
	case 1:
		return members[0]
	}

	out := &Holder{clause: ClauseAnd}
	for _, m := range members {
		if m.clause == ClauseAnd {
			out.predicates = append(out.predicates, m.predicates...)
			out.children = append(out.children, m.children...)
			continue
		}
		out.children = append(out.children, m)
	}
	return out
}

// Or combines holders so that at least one must hold.
func Or(holders ...*Holder) *Holder {
	var members []*Holder
	for _, h := range holders {
		if h == nil || h.IsAborted() {
			continue
		}
		if h.IsEmpty() {
			return Empty()
		}
		members = append(members, h)
	}

	switch len(members) {
	case 0:
		return Abort()
	case 1:
		return members[0]
	}

	out := &Holder{clause: ClauseOr}
	for _, m := range members {
		switch {
		case m.clause == ClauseOr:
			out.predicates = append(out.predicates, m.predicates...)
			out.children = append(out.children, m.children...)
		case len(m.predicates) == 1 && len(m.children) == 0:
			out.predicates = append(out.predicates, m.predicates[0])
		default:
			out.children = append(out.children, m)
		}
	}
	return out
}

// Clause returns how the members combine.
func (h *Holder) Clause() Clause { return h.clause }

// Predicates returns a copy of the direct leaves.
func (h *Holder) Predicates() []Has { return slices.Clone(h.predicates) }

// Children returns a copy of the nested holders.
func (h *Holder) Children() []*Holder { return slices.Clone(h.children) }

// IsAborted reports whether the holder is unsatisfiable.
func (h *Holder) IsAborted() bool { return h.clause == ClauseAbort }

// IsEmpty reports whether the holder carries no constraint.
func (h *Holder) IsEmpty() bool {
	return !h.IsAborted() && len(h.predicates) == 0 && len(h.children) == 0
}

// Keys returns the sorted distinct keys referenced anywhere in the tree.
func (h *Holder) Keys() []string {
	seen := map[string]bool{}
	h.walk(func(leaf Has) { seen[leaf.Key] = true })
	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// Leaves returns every leaf in the tree, depth first.
func (h *Holder) Leaves() []Has {
	var out []Has
	h.walk(func(leaf Has) { out = append(out, leaf) })
	return out
}

func (h *Holder) walk(fn func(Has)) {
	for _, p := range h.predicates {
		fn(p)
	}
	for _, c := range h.children {
		c.walk(fn)
	}
}

// Validate checks every leaf.
func (h *Holder) Validate() error {
	for _, leaf := range h.Leaves() {
		if err := leaf.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Test evaluates the tree in memory. get returns the value for a key and
// whether it is present.
func (h *Holder) Test(get func(key string) (ir.IRValue, bool)) bool {
	if h.IsAborted() {
		return false
	}
	if h.IsEmpty() {
		return true
	}

	if h.clause == ClauseOr {
		for _, p := range h.predicates {
			if p.Test(get(p.Key)) {
				return true
			}
		}
		for _, c := range h.children {
			if c.Test(get) {
				return true
			}
		}
		return false
	}

	for _, p := range h.predicates {
		if !p.Test(get(p.Key)) {
			return false
		}
	}
	for _, c := range h.children {
		if !c.Test(get) {
			return false
		}
	}
	return true
}

// Truth is the outcome of deciding a leaf while rewriting.
type Truth int

const (
	// Unknown keeps the (possibly replaced) leaf in the tree.
	Unknown Truth = iota
	// True drops the leaf as always satisfied.
	True
	// False drops the leaf as never satisfied.
	False
)

// Rewrite maps every leaf through fn and folds decided leaves through the
// tree. A tree that folds to false is returned as Abort(), one that folds to
// true as Empty(). The receiver is not modified.
func (h *Holder) Rewrite(fn func(Has) (Has, Truth)) *Holder {
	if h.IsAborted() {
		return Abort()
	}
	out, truth := h.rewrite(fn)
	switch truth {
	case True:
		return Empty()
	case False:
		return Abort()
	}
	return out
}

func (h *Holder) rewrite(fn func(Has) (Has, Truth)) (*Holder, Truth) {
	if h.IsEmpty() {
		return nil, True
	}

	// The absorbing constant ends evaluation, the neutral one is dropped.
	absorbing, neutral := False, True
	if h.clause == ClauseOr {
		absorbing, neutral = True, False
	}

	out := &Holder{clause: h.clause}
	for _, p := range h.predicates {
		replaced, truth := fn(p)
		switch truth {
		case absorbing:
			return nil, absorbing
		case neutral:
			continue
		}
		out.predicates = append(out.predicates, replaced)
	}
	for _, c := range h.children {
		child, truth := c.rewrite(fn)
		switch truth {
		case absorbing:
			return nil, absorbing
		case neutral:
			continue
		}
		out.children = append(out.children, child)
	}

	if len(out.predicates) == 0 && len(out.children) == 0 {
		return nil, neutral
	}
	if len(out.predicates) == 0 && len(out.children) == 1 {
		return out.children[0], Unknown
	}
	return out, Unknown
}

// String renders the tree, e.g. and(name eq "marko", or(age gt 30, age lt 10)).
func (h *Holder) String() string {
	if h.IsAborted() {
		return "abort"
	}
	parts := make([]string, 0, len(h.predicates)+len(h.children))
	for _, p := range h.predicates {
		parts = append(parts, p.String())
	}
	for _, c := range h.children {
		parts = append(parts, c.String())
	}
	return h.clause.String() + "(" + strings.Join(parts, ", ") + ")"
}
