package predicate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/rowgraph/internal/ir"
)

func eq(key string, v ir.IRValue) Has {
	return Has{Key: key, Op: Eq, Value: v}
}

func TestFactories_EmptyAndAbort(t *testing.T) {
	assert.True(t, Empty().IsEmpty())
	assert.False(t, Empty().IsAborted())
	assert.True(t, Abort().IsAborted())
	assert.False(t, Abort().IsEmpty(), "aborted is never empty")
	assert.True(t, Leaf().IsEmpty())
	assert.True(t, AnyOf().IsAborted())
}

func TestAnd_AbortWins(t *testing.T) {
	h := And(Leaf(eq("name", ir.IRString("marko"))), Abort())
	assert.True(t, h.IsAborted())
}

func TestAnd_DropsEmpty(t *testing.T) {
	leaf := Leaf(eq("name", ir.IRString("marko")))
	h := And(Empty(), leaf, nil)
	assert.Same(t, leaf, h, "single surviving member returned unchanged")
}

func TestAnd_Flattens(t *testing.T) {
	h := And(
		Leaf(eq("a", ir.IRInt(1))),
		And(Leaf(eq("b", ir.IRInt(2))), Leaf(eq("c", ir.IRInt(3)))),
	)
	assert.Equal(t, ClauseAnd, h.Clause())
	assert.Len(t, h.Predicates(), 3)
	assert.Empty(t, h.Children())
}

func TestOr_DropsAborted(t *testing.T) {
	leaf := Leaf(eq("name", ir.IRString("marko")))
	h := Or(Abort(), leaf, Abort())
	assert.Same(t, leaf, h)
}

func TestOr_AllAbortedIsAborted(t *testing.T) {
	assert.True(t, Or(Abort(), Abort()).IsAborted())
	assert.True(t, Or().IsAborted(), "or over nothing is unsatisfiable")
}

func TestOr_EmptyMemberMatchesAll(t *testing.T) {
	h := Or(Leaf(eq("a", ir.IRInt(1))), Empty())
	assert.True(t, h.IsEmpty())
}

func TestOr_FlattensSingleLeaves(t *testing.T) {
	h := Or(
		Leaf(eq("a", ir.IRInt(1))),
		Leaf(eq("b", ir.IRInt(2))),
		Leaf(eq("c", ir.IRInt(3)), eq("d", ir.IRInt(4))),
	)
	assert.Equal(t, ClauseOr, h.Clause())
	assert.Len(t, h.Predicates(), 2)
	require.Len(t, h.Children(), 1)
	assert.Equal(t, ClauseAnd, h.Children()[0].Clause())
	assert.Equal(t, `or(a eq 1, b eq 2, and(c eq 3, d eq 4))`, h.String())
}

func TestHolder_Immutable(t *testing.T) {
	leaves := []Has{eq("a", ir.IRInt(1))}
	h := Leaf(leaves...)
	leaves[0] = eq("b", ir.IRInt(2))

	got := h.Predicates()
	assert.Equal(t, "a", got[0].Key)
	got[0].Key = "mutated"
	assert.Equal(t, "a", h.Predicates()[0].Key)
}

func TestHolder_Keys(t *testing.T) {
	h := And(
		Leaf(eq("name", ir.IRString("x"))),
		AnyOf(eq("age", ir.IRInt(1)), eq("name", ir.IRString("y"))),
	)
	assert.Equal(t, []string{"age", "name"}, h.Keys())
}

func TestHolder_Test(t *testing.T) {
	props := ir.IRObject{"name": ir.IRString("marko"), "age": ir.IRInt(29)}
	get := func(k string) (ir.IRValue, bool) {
		v, ok := props[k]
		return v, ok
	}

	tests := []struct {
		name string
		h    *Holder
		want bool
	}{
		{"empty", Empty(), true},
		{"abort", Abort(), false},
		{"eq match", Leaf(eq("name", ir.IRString("marko"))), true},
		{"eq miss", Leaf(eq("name", ir.IRString("josh"))), false},
		{"and", Leaf(eq("name", ir.IRString("marko")), Has{Key: "age", Op: Gt, Value: ir.IRInt(30)}), false},
		{"or", AnyOf(eq("name", ir.IRString("josh")), Has{Key: "age", Op: Lt, Value: ir.IRInt(30)}), true},
		{"missing key", Leaf(Has{Key: "lang", Op: Neq, Value: ir.IRString("java")}), false},
		{"within", Leaf(Has{Key: "age", Op: Within, Value: ir.IRArray{ir.IRInt(27), ir.IRInt(29)}}), true},
		{"without", Leaf(Has{Key: "age", Op: Without, Value: ir.IRArray{ir.IRInt(29)}}), false},
		{"starts with", Leaf(Has{Key: "name", Op: StartsWith, Value: ir.IRString("mar")}), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.h.Test(get))
		})
	}
}

func TestRewrite_Mapping(t *testing.T) {
	h := Leaf(eq("name", ir.IRString("marko")), eq("age", ir.IRInt(29)))

	out := h.Rewrite(func(p Has) (Has, Truth) {
		p.Key = "col_" + p.Key
		return p, Unknown
	})

	assert.Equal(t, []string{"col_age", "col_name"}, out.Keys())
	assert.Equal(t, []string{"age", "name"}, h.Keys(), "receiver untouched")
}

func TestRewrite_FoldsConstants(t *testing.T) {
	decide := func(p Has) (Has, Truth) {
		switch p.Key {
		case "yes":
			return p, True
		case "no":
			return p, False
		}
		return p, Unknown
	}

	tests := []struct {
		name    string
		h       *Holder
		aborted bool
		empty   bool
		keys    []string
	}{
		{"and with false aborts", Leaf(eq("a", ir.IRInt(1)), eq("no", ir.IRInt(1))), true, false, nil},
		{"and drops true", Leaf(eq("a", ir.IRInt(1)), eq("yes", ir.IRInt(1))), false, false, []string{"a"}},
		{"and of trues is empty", Leaf(eq("yes", ir.IRInt(1))), false, true, nil},
		{"or with true is empty", AnyOf(eq("a", ir.IRInt(1)), eq("yes", ir.IRInt(1))), false, true, nil},
		{"or drops false", AnyOf(eq("a", ir.IRInt(1)), eq("no", ir.IRInt(1))), false, false, []string{"a"}},
		{"or of falses aborts", AnyOf(eq("no", ir.IRInt(1)), eq("no", ir.IRInt(2))), true, false, nil},
		{"nested false child in or", Or(Leaf(eq("a", ir.IRInt(1)), eq("b", ir.IRInt(1))), Leaf(eq("no", ir.IRInt(1)), eq("c", ir.IRInt(1)))), false, false, []string{"a", "b"}},
		{"empty stays empty", Empty(), false, true, nil},
		{"abort stays abort", Abort(), true, false, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := tt.h.Rewrite(decide)
			assert.Equal(t, tt.aborted, out.IsAborted(), out.String())
			assert.Equal(t, tt.empty, out.IsEmpty(), out.String())
			if tt.keys != nil {
				assert.Equal(t, tt.keys, out.Keys())
			}
		})
	}
}

func TestHas_Validate(t *testing.T) {
	assert.NoError(t, eq("a", ir.IRInt(1)).Validate())
	assert.NoError(t, Has{Key: "a", Op: Within, Value: ir.IRArray{}}.Validate())
	assert.Error(t, Has{Key: "a", Op: Within, Value: ir.IRInt(1)}.Validate())
	assert.Error(t, Has{Key: "a", Op: Eq, Value: ir.IRArray{}}.Validate())
	assert.Error(t, Has{Key: "a", Op: StartsWith, Value: ir.IRInt(1)}.Validate())
	assert.Error(t, Has{Key: "a", Op: "like", Value: ir.IRInt(1)}.Validate())
	assert.Error(t, Has{Op: Eq, Value: ir.IRInt(1)}.Validate())
}

func TestParseOperator(t *testing.T) {
	op, err := ParseOperator("within")
	require.NoError(t, err)
	assert.Equal(t, Within, op)

	_, err = ParseOperator("like")
	assert.Error(t, err)
}
