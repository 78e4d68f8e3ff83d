package schema

import (
	"fmt"
	"os"
	"sort"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/load"
	"cuelang.org/go/cue/token"

	"github.com/roach88/rowgraph/internal/ir"
)

// CompileError reports a definition that could not be compiled, with the
// CUE position when one is known.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Load reads definitions from a single .cue file or from the CUE package in
// a directory.
func Load(path string) ([]Definition, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("schema definitions: %w", err)
	}
	if info.IsDir() {
		return LoadDir(path)
	}
	return LoadFile(path)
}

// LoadFile compiles the definitions of one CUE file.
func LoadFile(path string) ([]Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("schema definitions: %w", err)
	}
	ctx := cuecontext.New()
	return CompileDefinitions(ctx.CompileBytes(data, cue.Filename(path)))
}

// LoadDir compiles the definitions of the CUE package in dir.
func LoadDir(dir string) ([]Definition, error) {
	instances := load.Instances([]string{"."}, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return nil, &CompileError{Field: "cue", Message: fmt.Sprintf("no CUE instances in %s", dir)}
	}
	if err := instances[0].Err; err != nil {
		return nil, formatCUEError(err)
	}
	ctx := cuecontext.New()
	return CompileDefinitions(ctx.BuildInstance(instances[0]))
}

// CompileDefinitions reads the vertex and edge blocks of v:
//
//	vertex: person: {
//		table:     "people"        // defaults to the block name
//		id_column: "id"            // defaults to "id"
//		properties: {
//			name: "string"         // column named after the property
//			age:  {column: "age_years", type: "int"}
//		}
//	}
//	edge: knows: {
//		out_column: "src"
//		in_column:  "dst"
//		out_label:  "person"
//	}
//
// Vertex definitions come first, then edges, each group sorted by name.
// Properties keep their declaration order.
func CompileDefinitions(v cue.Value) ([]Definition, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	var defs []Definition
	for _, section := range []struct {
		path string
		kind ir.Kind
	}{
		{"vertex", ir.KindVertex},
		{"edge", ir.KindEdge},
	} {
		sectionVal := v.LookupPath(cue.ParsePath(section.path))
		if !sectionVal.Exists() {
			continue
		}
		iter, err := sectionVal.Fields()
		if err != nil {
			return nil, formatCUEError(err)
		}

		var names []string
		values := make(map[string]cue.Value)
		for iter.Next() {
			names = append(names, iter.Label())
			values[iter.Label()] = iter.Value()
		}
		sort.Strings(names)

		for _, name := range names {
			def, err := CompileDefinition(values[name], section.kind)
			if err != nil {
				return nil, err
			}
			defs = append(defs, def)
		}
	}

	if len(defs) == 0 {
		return nil, &CompileError{Field: "vertex", Message: "no vertex or edge definitions found", Pos: v.Pos()}
	}
	return defs, nil
}

// CompileDefinition parses one vertex or edge block. The definition name is
// the last path selector of v.
func CompileDefinition(v cue.Value, kind ir.Kind) (Definition, error) {
	if err := v.Err(); err != nil {
		return Definition{}, formatCUEError(err)
	}

	def := Definition{Kind: kind, IDColumn: "id"}
	if labels := v.Path().Selectors(); len(labels) > 0 {
		def.Name = labels[len(labels)-1].String()
	}
	def.Table = def.Name

	fields := []struct {
		name string
		dst  *string
	}{
		{"table", &def.Table},
		{"label", &def.Label},
		{"label_column", &def.LabelColumn},
		{"id_column", &def.IDColumn},
		{"out_column", &def.OutColumn},
		{"in_column", &def.InColumn},
		{"out_label", &def.OutLabel},
		{"in_label", &def.InLabel},
	}
	for _, f := range fields {
		if err := lookupString(v, f.name, f.dst); err != nil {
			return Definition{}, err
		}
	}
	if def.Label == "" && def.LabelColumn == "" {
		def.Label = def.Name
	}

	for _, f := range []struct {
		name string
		dst  *ir.ColumnType
	}{
		{"id_type", &def.IDType},
		{"endpoint_type", &def.EndpointType},
	} {
		var s string
		if err := lookupString(v, f.name, &s); err != nil {
			return Definition{}, err
		}
		*f.dst = ir.ColumnType(s)
	}

	props, err := parseProperties(v)
	if err != nil {
		return Definition{}, err
	}
	def.Properties = props

	if err := def.Validate(); err != nil {
		if de, ok := err.(*DefinitionError); ok {
			return Definition{}, &CompileError{Field: de.Field, Message: de.Message, Pos: v.Pos()}
		}
		return Definition{}, err
	}
	return def, nil
}

// parseProperties reads the properties block. A property is either a type
// name or a struct with column and type.
func parseProperties(v cue.Value) ([]Property, error) {
	propsVal := v.LookupPath(cue.ParsePath("properties"))
	if !propsVal.Exists() {
		return nil, nil
	}

	iter, err := propsVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var props []Property
	for iter.Next() {
		p := Property{Name: iter.Label()}
		pv := iter.Value()

		switch pv.Kind() {
		case cue.StringKind:
			s, _ := pv.String()
			p.Type = ir.ColumnType(s)
		case cue.StructKind:
			if err := lookupString(pv, "column", &p.Column); err != nil {
				return nil, err
			}
			var s string
			if err := lookupString(pv, "type", &s); err != nil {
				return nil, err
			}
			p.Type = ir.ColumnType(s)
		default:
			return nil, &CompileError{
				Field:   "properties." + p.Name,
				Message: "must be a type name or a struct with column and type",
				Pos:     pv.Pos(),
			}
		}

		if !p.Type.Valid() {
			return nil, &CompileError{
				Field:   "properties." + p.Name,
				Message: fmt.Sprintf("unknown type %q: must be string, int or bool", p.Type),
				Pos:     pv.Pos(),
			}
		}
		props = append(props, p)
	}
	return props, nil
}

// lookupString sets dst to the string at field when it exists.
func lookupString(v cue.Value, field string, dst *string) error {
	f := v.LookupPath(cue.ParsePath(field))
	if !f.Exists() {
		return nil
	}
	s, err := f.String()
	if err != nil {
		return &CompileError{Field: field, Message: "must be a string", Pos: f.Pos()}
	}
	*dst = s
	return nil
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	first := errs[0]
	if positions := errors.Positions(first); len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: first.Error(),
			Pos:     positions[0],
		}
	}
	return err
}
