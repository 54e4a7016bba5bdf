package drivers

import (
	"fmt"
	"slices"
)

// Table metadata from the database schema.
type Table struct {
	Key string `json:"key"`
	// For dbs with real schemas, like Postgres.
	// Example value: "schema_name"."table_name"
	Schema  string   `json:"schema"`
	Name    string   `json:"name"`
	Columns []Column `json:"columns"`

	Constraints Constraints `json:"constraints"`
}

// GetColumn by name. Panics if not found, check HasColumn first.
func (t Table) GetColumn(name string) Column {
	for _, c := range t.Columns {
		if c.Name == name {
			return c
		}
	}

	panic(fmt.Sprintf("could not find column name: %s", name))
}

// HasColumn reports if the table has a column with the given name
func (t Table) HasColumn(name string) bool {
	return slices.ContainsFunc(t.Columns, func(c Column) bool {
		return c.Name == name
	})
}

// PrimaryKeyColumns returns the primary key columns of the table
// or nil if the table has no primary key
func (t Table) PrimaryKeyColumns() []string {
	if t.Constraints.Primary == nil {
		return nil
	}

	return t.Constraints.Primary.Columns
}
