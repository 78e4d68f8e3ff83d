package schema

import (
	"fmt"
	"strings"

	"github.com/roach88/rowgraph/internal/ir"
	"github.com/roach88/rowgraph/internal/querysql"
)

// Property maps one element property onto a table column.
type Property struct {
	Name   string
	Column string
	Type   ir.ColumnType
}

// Definition describes how one table backs the elements of one label.
//
// Exactly one of Label and LabelColumn is set. A fixed Label means every row
// of the table carries that label; a LabelColumn stores the label per row.
// Out/In fields are only valid on edge definitions.
type Definition struct {
	Name        string
	Kind        ir.Kind
	Table       string
	Label       string
	LabelColumn string
	IDColumn    string
	IDType      ir.ColumnType
	Properties  []Property

	OutColumn    string
	InColumn     string
	OutLabel     string
	InLabel      string
	EndpointType ir.ColumnType
}

// DefinitionError reports an invalid definition.
type DefinitionError struct {
	Definition string
	Field      string
	Message    string
}

func (e *DefinitionError) Error() string {
	return fmt.Sprintf("definition %s: %s: %s", e.Definition, e.Field, e.Message)
}

// withDefaults fills the id type and endpoint type when unset.
func (d Definition) withDefaults() Definition {
	if d.IDType == "" {
		d.IDType = ir.TypeString
	}
	if d.Kind == ir.KindEdge && d.EndpointType == "" {
		d.EndpointType = ir.TypeString
	}
	d.Properties = append([]Property(nil), d.Properties...)
	for i := range d.Properties {
		if d.Properties[i].Column == "" {
			d.Properties[i].Column = d.Properties[i].Name
		}
	}
	return d
}

// Validate checks that the definition is complete and that no two
// properties or structural fields share a column.
func (d Definition) Validate() error {
	d = d.withDefaults()
	fail := func(field, format string, args ...any) error {
		return &DefinitionError{Definition: d.Name, Field: field, Message: fmt.Sprintf(format, args...)}
	}

	if d.Table == "" {
		return fail("table", "table is required")
	}
	if d.IDColumn == "" {
		return fail("id_column", "id column is required")
	}
	if (d.Label == "") == (d.LabelColumn == "") {
		return fail("label", "exactly one of label and label_column is required")
	}
	if !d.IDType.Valid() {
		return fail("id_type", "unknown column type %q", d.IDType)
	}

	columns := map[string]string{d.IDColumn: "id_column"}
	claim := func(col, owner string) error {
		if prev, ok := columns[col]; ok {
			return fail(owner, "column %q already used by %s", col, prev)
		}
		columns[col] = owner
		return nil
	}
	if d.LabelColumn != "" {
		if err := claim(d.LabelColumn, "label_column"); err != nil {
			return err
		}
	}

	switch d.Kind {
	case ir.KindVertex:
		if d.OutColumn != "" || d.InColumn != "" || d.OutLabel != "" || d.InLabel != "" {
			return fail("out", "vertex definitions have no endpoints")
		}
	case ir.KindEdge:
		if d.OutColumn == "" || d.InColumn == "" {
			return fail("out", "edge definitions require out_column and in_column")
		}
		if !d.EndpointType.Valid() {
			return fail("endpoint_type", "unknown column type %q", d.EndpointType)
		}
		if err := claim(d.OutColumn, "out_column"); err != nil {
			return err
		}
		if err := claim(d.InColumn, "in_column"); err != nil {
			return err
		}
	default:
		return fail("kind", "unknown kind %s", d.Kind)
	}

	names := make(map[string]bool, len(d.Properties))
	for _, p := range d.Properties {
		field := "properties." + p.Name
		if p.Name == "" {
			return fail("properties", "property name is required")
		}
		if strings.HasPrefix(p.Name, "~") {
			return fail(field, "names starting with ~ are reserved")
		}
		if names[p.Name] {
			return fail(field, "duplicate property")
		}
		names[p.Name] = true
		if !p.Type.Valid() {
			return fail(field, "unknown column type %q", p.Type)
		}
		if err := claim(p.Column, field); err != nil {
			return err
		}
	}
	return nil
}

// Columns returns the table layout: identity first, then label, endpoints
// and properties in definition order.
func (d Definition) Columns() []querysql.Column {
	d = d.withDefaults()
	cols := []querysql.Column{{Name: d.IDColumn, Type: d.IDType}}
	if d.LabelColumn != "" {
		cols = append(cols, querysql.Column{Name: d.LabelColumn, Type: ir.TypeString})
	}
	if d.Kind == ir.KindEdge {
		cols = append(cols,
			querysql.Column{Name: d.OutColumn, Type: d.EndpointType},
			querysql.Column{Name: d.InColumn, Type: d.EndpointType},
		)
	}
	for _, p := range d.Properties {
		cols = append(cols, querysql.Column{Name: p.Column, Type: p.Type})
	}
	return cols
}
