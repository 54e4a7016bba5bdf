package drivers

// DBConstraints lists all constraints in the database keyed by table key
type DBConstraints struct {
	PKs map[string]*Constraint
	FKs map[string][]ForeignKey
}

type Constraints struct {
	Primary *Constraint  `yaml:"primary" json:"primary"`
	Foreign []ForeignKey `yaml:"foreign" json:"foreign"`
}

// Constraint represents a constraint in a database
type Constraint struct {
	Name    string   `yaml:"name" json:"name"`
	Columns []string `yaml:"columns" json:"columns"`
}

// Has reports if the constraint covers the column
func (c *Constraint) Has(column string) bool {
	if c == nil {
		return false
	}

	for _, col := range c.Columns {
		if col == column {
			return true
		}
	}

	return false
}

// ForeignKey represents a foreign key constraint in a database
type ForeignKey struct {
	Constraint
	ForeignTable   string   `yaml:"foreign_table" json:"foreign_table"`
	ForeignColumns []string `yaml:"foreign_columns" json:"foreign_columns"`
}

// IsComposite reports if either side of the key spans more than one column.
// Keys with no columns at all are also treated as composite since they
// cannot be mapped to a single column on each side.
func (f ForeignKey) IsComposite() bool {
	return len(f.Columns) != 1 || len(f.ForeignColumns) != 1
}

// LocalColumn is the single local column of a non-composite key
func (f ForeignKey) LocalColumn() string {
	if len(f.Columns) == 0 {
		return ""
	}
	return f.Columns[0]
}

// ForeignColumn is the single referenced column of a non-composite key
func (f ForeignKey) ForeignColumn() string {
	if len(f.ForeignColumns) == 0 {
		return ""
	}
	return f.ForeignColumns[0]
}
