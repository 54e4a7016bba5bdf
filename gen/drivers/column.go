package drivers

// Column holds information about a database column.
type Column struct {
	Name     string `db:"name" json:"name" yaml:"name"`
	DBType   string `db:"db_type" json:"db_type" yaml:"db_type"`
	Default  string `db:"default" json:"default" yaml:"default"`
	Comment  string `db:"comment" json:"comment" yaml:"comment"`
	Nullable bool   `db:"nullable" json:"nullable" yaml:"nullable"`
	AutoIncr bool   `db:"auto_incr" json:"autoincr" yaml:"autoincr"`
}

// ColumnNames lists the column names in table order
func ColumnNames(cols []Column) []string {
	names := make([]string, 0, len(cols))
	for _, c := range cols {
		names = append(names, c.Name)
	}
	return names
}
