package gen

import (
	"fmt"
	"slices"
	"strconv"
	"sync"

	"github.com/stephenafamo/relgen/orm"
)

// UnknownTableError is returned when the registry is asked about a table
// it was not created with
type UnknownTableError struct {
	Table string
}

func (e UnknownTableError) Error() string {
	return fmt.Sprintf("relationship registry: unknown table %q", e.Table)
}

// TableRelationships holds the resolved relationships of one table,
// grouped by kind in discovery order
type TableRelationships struct {
	Table string

	byKind map[orm.Kind][]orm.Relationship
	seen   map[string]struct{}
}

func newTableRelationships(table string) *TableRelationships {
	return &TableRelationships{
		Table:  table,
		byKind: make(map[orm.Kind][]orm.Relationship, len(orm.Kinds)),
		seen:   make(map[string]struct{}),
	}
}

func (t *TableRelationships) HasOne() []orm.Relationship {
	return slices.Clone(t.byKind[orm.HasOne])
}

func (t *TableRelationships) HasMany() []orm.Relationship {
	return slices.Clone(t.byKind[orm.HasMany])
}

func (t *TableRelationships) BelongsTo() []orm.Relationship {
	return slices.Clone(t.byKind[orm.BelongsTo])
}

func (t *TableRelationships) BelongsToMany() []orm.Relationship {
	return slices.Clone(t.byKind[orm.BelongsToMany])
}

// All returns every relationship, ordered by orm.Kinds
func (t *TableRelationships) All() []orm.Relationship {
	var all []orm.Relationship
	for _, kind := range orm.Kinds {
		all = append(all, t.byKind[kind]...)
	}
	return all
}

// HasAny reports if the table has at least one relationship
func (t *TableRelationships) HasAny() bool {
	for _, rels := range t.byKind {
		if len(rels) > 0 {
			return true
		}
	}
	return false
}

// uniqueAccessor appends 2, 3, ... to names that were already used on the table
func (t *TableRelationships) uniqueAccessor(name string) string {
	unique := name
	for i := 2; ; i++ {
		if _, ok := t.seen[unique]; !ok {
			break
		}
		unique = name + strconv.Itoa(i)
	}

	t.seen[unique] = struct{}{}
	return unique
}

// Registry maps every known table to its relationships.
// It is safe for concurrent use.
type Registry struct {
	mu     sync.RWMutex
	order  []string
	tables map[string]*TableRelationships
}

// NewRegistry creates an empty entry for each of the tables
func NewRegistry(tables []string) *Registry {
	r := &Registry{
		order:  make([]string, 0, len(tables)),
		tables: make(map[string]*TableRelationships, len(tables)),
	}

	for _, table := range tables {
		if _, ok := r.tables[table]; ok {
			continue
		}
		r.order = append(r.order, table)
		r.tables[table] = newTableRelationships(table)
	}

	return r
}

// Add appends the relationship to the table, renaming the accessor if the
// table already has one with the same name. The stored relationship is returned.
func (r *Registry) Add(table string, rel orm.Relationship) (orm.Relationship, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rels, ok := r.tables[table]
	if !ok {
		return orm.Relationship{}, UnknownTableError{Table: table}
	}

	rel.Accessor = rels.uniqueAccessor(rel.Accessor)
	rels.byKind[rel.Kind] = append(rels.byKind[rel.Kind], rel)

	return rel, nil
}

// Get returns the relationships of the table
func (r *Registry) Get(table string) (*TableRelationships, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rels, ok := r.tables[table]
	if !ok {
		return nil, UnknownTableError{Table: table}
	}

	return rels, nil
}

// Tables lists the table keys in the order the registry was created with
func (r *Registry) Tables() []string {
	return slices.Clone(r.order)
}
