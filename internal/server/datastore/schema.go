package datastore

// Table names a relation known to the store.
type Table string

// Column names an attribute of a Table.
type Column string

const (
	TableUsuario Table = "usuario"

	ColumnID       Column = "id"
	ColumnNombre   Column = "nombre"
	ColumnPassword Column = "password"
)

// schema lists every identifier the store is willing to put into SQL.
// Anything else is rejected before a statement is built.
var schema = map[Table][]Column{
	TableUsuario: {ColumnID, ColumnNombre, ColumnPassword},
}

func (t Table) known() bool {
	_, ok := schema[t]
	return ok
}

func (t Table) hasColumn(c Column) bool {
	for _, col := range schema[t] {
		if col == c {
			return true
		}
	}
	return false
}

// Field pairs a column with a value. Ordered slices of fields are used both
// for values to write and for equality conditions (AND-ed together).
type Field struct {
	Column Column
	Value  any
}

// Eq is shorthand for an equality condition.
func Eq(c Column, v any) Field {
	return Field{Column: c, Value: v}
}

// Row is a single result row keyed by column name.
type Row map[string]any
