package drivers

import (
	"slices"
)

// ReferencedByIndex maps a table key to the keys of the tables
// holding a foreign key that points at it
type ReferencedByIndex map[string][]string

// IsReferenced reports if any table (including the table itself)
// holds a foreign key to the given table
func (r ReferencedByIndex) IsReferenced(table string) bool {
	return len(r[table]) > 0
}

// Facts is the immutable view of a schema used for relationship inference.
// It is computed once from the assembled tables, after every table's keys
// are known, so that questions needing global knowledge can be answered
// without re-scanning all tables.
type Facts struct {
	keys         []string
	tables       map[string]Table
	referencedBy ReferencedByIndex
}

// NewFacts copies the keys of the given tables and builds the reverse
// reference index. Duplicate table keys keep the first occurrence.
func NewFacts(tables []Table) *Facts {
	f := &Facts{
		keys:         make([]string, 0, len(tables)),
		tables:       make(map[string]Table, len(tables)),
		referencedBy: make(ReferencedByIndex, len(tables)),
	}

	for _, t := range tables {
		if _, ok := f.tables[t.Key]; ok {
			continue
		}
		f.keys = append(f.keys, t.Key)
		f.tables[t.Key] = copyTable(t)
	}

	for _, key := range f.keys {
		for _, fk := range f.tables[key].Constraints.Foreign {
			if _, ok := f.tables[fk.ForeignTable]; !ok {
				continue
			}
			if slices.Contains(f.referencedBy[fk.ForeignTable], key) {
				continue
			}
			f.referencedBy[fk.ForeignTable] = append(f.referencedBy[fk.ForeignTable], key)
		}
	}

	return f
}

// Tables lists the table keys in the order they were assembled
func (f *Facts) Tables() []string {
	return slices.Clone(f.keys)
}

// Has reports if the table key is known
func (f *Facts) Has(table string) bool {
	_, ok := f.tables[table]
	return ok
}

// Table returns the facts about a single table
func (f *Facts) Table(table string) (Table, bool) {
	t, ok := f.tables[table]
	return t, ok
}

// ForeignKeys lists the foreign keys owned by the table
func (f *Facts) ForeignKeys(table string) []ForeignKey {
	return f.tables[table].Constraints.Foreign
}

// PrimaryKey returns the primary key of the table, or nil if it has none
func (f *Facts) PrimaryKey(table string) *Constraint {
	return f.tables[table].Constraints.Primary
}

// ReferencedBy returns the reverse reference index
func (f *Facts) ReferencedBy() ReferencedByIndex {
	return f.referencedBy
}

func copyTable(t Table) Table {
	t.Columns = slices.Clone(t.Columns)

	if t.Constraints.Primary != nil {
		pk := *t.Constraints.Primary
		pk.Columns = slices.Clone(pk.Columns)
		t.Constraints.Primary = &pk
	}

	fks := make([]ForeignKey, len(t.Constraints.Foreign))
	for i, fk := range t.Constraints.Foreign {
		fk.Columns = slices.Clone(fk.Columns)
		fk.ForeignColumns = slices.Clone(fk.ForeignColumns)
		fks[i] = fk
	}
	t.Constraints.Foreign = fks

	return t
}
