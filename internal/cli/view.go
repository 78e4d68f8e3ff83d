package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/roach88/rowgraph/internal/ir"
)

// ElementView is the printable form of a vertex or edge.
type ElementView struct {
	Kind       string         `json:"kind"`
	ID         any            `json:"id"`
	Label      string         `json:"label"`
	Properties map[string]any `json:"properties,omitempty"`
	Out        any            `json:"out,omitempty"`
	In         any            `json:"in,omitempty"`
}

func (v ElementView) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %v [%s]", v.Kind, v.ID, v.Label)
	if v.Kind == ir.KindEdge.String() {
		fmt.Fprintf(&b, " %v -> %v", v.Out, v.In)
	}
	keys := make([]string, 0, len(v.Properties))
	for k := range v.Properties {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%v", k, v.Properties[k])
	}
	return b.String()
}

// ElementList is a printable list of elements.
type ElementList []ElementView

func (l ElementList) String() string {
	if len(l) == 0 {
		return "no elements"
	}
	lines := make([]string, len(l))
	for i, v := range l {
		lines[i] = v.String()
	}
	return strings.Join(lines, "\n")
}

func vertexView(v *ir.Vertex) ElementView {
	return ElementView{
		Kind:       ir.KindVertex.String(),
		ID:         native(v.ID),
		Label:      v.Label,
		Properties: nativeObject(v.Properties),
	}
}

func edgeView(e *ir.Edge) ElementView {
	view := ElementView{
		Kind:       ir.KindEdge.String(),
		ID:         native(e.ID),
		Label:      e.Label,
		Properties: nativeObject(e.Properties),
	}
	if e.Out != nil {
		view.Out = native(e.Out.ID)
	}
	if e.In != nil {
		view.In = native(e.In.ID)
	}
	return view
}

func native(v ir.IRValue) any {
	if v == nil {
		return nil
	}
	n, err := ir.ToNative(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return n
}

func nativeObject(o ir.IRObject) map[string]any {
	if len(o) == 0 {
		return nil
	}
	out := make(map[string]any, len(o))
	for k, v := range o {
		out[k] = native(v)
	}
	return out
}
