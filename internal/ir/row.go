package ir

import "fmt"

// Field is one column assignment of a Row.
type Field struct {
	Column string
	Value  any
}

// Row is a table-ready snapshot of an element: the identity column, the
// identity value, and the ordered column values (identity included).
// Rows are built right before a statement and never cached.
type Row struct {
	IDColumn string
	ID       any
	Fields   []Field
}

// Columns returns the column names in order.
func (r Row) Columns() []string {
	cols := make([]string, len(r.Fields))
	for i, f := range r.Fields {
		cols[i] = f.Column
	}
	return cols
}

// Values returns the column values in order.
func (r Row) Values() []any {
	vals := make([]any, len(r.Fields))
	for i, f := range r.Fields {
		vals[i] = f.Value
	}
	return vals
}

// Get returns the value of column col.
func (r Row) Get(col string) (any, bool) {
	for _, f := range r.Fields {
		if f.Column == col {
			return f.Value, true
		}
	}
	return nil, false
}

// Without returns a copy of r with column col removed.
func (r Row) Without(col string) Row {
	out := Row{IDColumn: r.IDColumn, ID: r.ID, Fields: make([]Field, 0, len(r.Fields))}
	for _, f := range r.Fields {
		if f.Column != col {
			out.Fields = append(out.Fields, f)
		}
	}
	return out
}

// ResultRow is one row returned by a select, keyed by column name.
// Table names the table the row was read from.
type ResultRow struct {
	Table   string
	Columns map[string]any
}

// Has reports whether the row carries column col, NULL or not.
func (r ResultRow) Has(col string) bool {
	_, ok := r.Columns[col]
	return ok
}

// ColumnType is the declared value type of a mapped column.
type ColumnType string

const (
	TypeString ColumnType = "string"
	TypeInt    ColumnType = "int"
	TypeBool   ColumnType = "bool"
)

// Valid reports whether t is a known column type.
func (t ColumnType) Valid() bool {
	switch t {
	case TypeString, TypeInt, TypeBool:
		return true
	}
	return false
}

// Coerce converts a value to the column type. Values already of the right
// type pass through; NULL stays NULL.
func (t ColumnType) Coerce(v IRValue) (IRValue, error) {
	switch val := v.(type) {
	case nil, IRNull:
		return IRNull{}, nil
	case IRString:
		if t == TypeString {
			return val, nil
		}
	case IRInt:
		switch t {
		case TypeInt:
			return val, nil
		case TypeBool:
			if val == 0 || val == 1 {
				return IRBool(val == 1), nil
			}
		}
	case IRBool:
		switch t {
		case TypeBool:
			return val, nil
		case TypeInt:
			if val {
				return IRInt(1), nil
			}
			return IRInt(0), nil
		}
	}
	return nil, fmt.Errorf("cannot store %T in %s column", v, t)
}
