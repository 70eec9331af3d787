package types

// ColumnMeta holds one column's schema facts, captured once per seeding run.
type ColumnMeta struct {
	Name            string
	Type            string
	Nullable        bool
	Default         string // raw SQL default expression, "" when the column has none
	IsPrimary       bool
	IsAutoIncrement bool
}

// DefaultExpr marks an attribute value that must be written as the column's
// schema default expression instead of a bound parameter.
type DefaultExpr string

// ColumnMap indexes column metadata by name.
func ColumnMap(columns []ColumnMeta) map[string]ColumnMeta {
	m := make(map[string]ColumnMeta, len(columns))
	for _, col := range columns {
		m[col.Name] = col
	}
	return m
}
