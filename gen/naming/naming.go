// Package naming turns table names into model names and relationship
// descriptors into accessor names
package naming

import (
	"errors"
	"fmt"
	"strings"

	"github.com/stephenafamo/relgen/orm"
	"github.com/volatiletech/strmangle"
)

// IDSuffix marks a column as a reference to another table's identifier
const IDSuffix = "_id"

// ErrUnknownStrategy is returned when a configured strategy does not exist
var ErrUnknownStrategy = errors.New("unknown naming strategy")

// Side describes a relationship from the table the accessor is declared on.
// Table, Target and Pivot are unqualified names, never schema.table keys.
type Side struct {
	// Table declaring the accessor
	Table string
	// Target is the table the accessor returns
	Target string
	// Column is the foreign key column the relationship is built on.
	// For BelongsTo it is local to Table, for HasOne/HasMany it lives on Target.
	Column string
	// Pivot is the junction table of a BelongsToMany
	Pivot string
}

// Strategy names models and relationship accessors
type Strategy interface {
	Name() string
	ModelName(table string) string
	HasOneName(Side) string
	HasManyName(Side) string
	BelongsToName(Side) string
	BelongsToManyName(Side) string
}

var strategies = map[string]func() Strategy{
	"legacy":       func() Strategy { return Legacy{} },
	"column_based": func() Strategy { return ColumnBased{} },
	"column":       func() Strategy { return ColumnBased{} },
	"":             func() Strategy { return ColumnBased{} },
}

// Get returns the strategy with the given name.
// An empty name selects the column based strategy.
func Get(name string) (Strategy, error) {
	fn, ok := strategies[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, fmt.Errorf("%w: %q (expected one of legacy, column_based)", ErrUnknownStrategy, name)
	}

	return fn(), nil
}

// Accessor dispatches to the strategy method for the kind
func Accessor(s Strategy, kind orm.Kind, side Side) string {
	switch kind {
	case orm.HasOne:
		return s.HasOneName(side)
	case orm.HasMany:
		return s.HasManyName(side)
	case orm.BelongsTo:
		return s.BelongsToName(side)
	case orm.BelongsToMany:
		return s.BelongsToManyName(side)
	default:
		panic(fmt.Sprintf("unknown relationship kind %s", kind))
	}
}

// ModelName singularizes the table name and title cases it
func ModelName(table string) string {
	return strmangle.TitleCase(strmangle.Singular(table))
}

func singleAccessor(table string) string {
	return strmangle.CamelCase(strmangle.Singular(table))
}

func manyAccessor(table string) string {
	return strmangle.CamelCase(strmangle.Plural(strmangle.Singular(table)))
}

// Legacy names accessors after the target model only
type Legacy struct{}

func (Legacy) Name() string { return "legacy" }

func (Legacy) ModelName(table string) string { return ModelName(table) }

func (Legacy) HasOneName(s Side) string { return singleAccessor(s.Target) }

func (Legacy) HasManyName(s Side) string { return manyAccessor(s.Target) }

func (Legacy) BelongsToName(s Side) string { return singleAccessor(s.Target) }

func (Legacy) BelongsToManyName(s Side) string { return manyAccessor(s.Target) }

// ColumnBased uses the foreign key column and pivot table names so that
// several keys to the same table produce distinct accessors
type ColumnBased struct{}

func (ColumnBased) Name() string { return "column_based" }

func (ColumnBased) ModelName(table string) string { return ModelName(table) }

func (ColumnBased) HasOneName(s Side) string { return Legacy{}.HasOneName(s) }

// HasManyName prefixes the target with the past tense of the column stem,
// e.g. author_id on posts gives authoredPosts. If the stem is the parent
// table itself, the plain plural is used.
func (ColumnBased) HasManyName(s Side) string {
	stem, ok := columnStem(s.Column)
	if !ok {
		return Legacy{}.HasManyName(s)
	}

	if stem == strmangle.Singular(s.Table) {
		return manyAccessor(s.Target)
	}

	return strmangle.CamelCase(pastTense(stem) + "_" + strmangle.Plural(strmangle.Singular(s.Target)))
}

// BelongsToName strips the identifier suffix from the column,
// e.g. author_id gives author
func (ColumnBased) BelongsToName(s Side) string {
	stem, ok := columnStem(s.Column)
	if !ok {
		return Legacy{}.BelongsToName(s)
	}

	return strmangle.CamelCase(stem)
}

// BelongsToManyName keeps the plain plural for conventionally named pivots
// such as role_user. Other pivots prefix the target, e.g. a comments pivot
// between users and posts gives commentedPosts.
func (ColumnBased) BelongsToManyName(s Side) string {
	if s.Pivot == "" || isStandardPivot(s.Pivot, s.Table, s.Target) {
		return Legacy{}.BelongsToManyName(s)
	}

	prefix := pastTense(strmangle.Singular(s.Pivot))
	return strmangle.CamelCase(prefix + "_" + strmangle.Plural(strmangle.Singular(s.Target)))
}

func columnStem(column string) (string, bool) {
	if !strings.HasSuffix(column, IDSuffix) {
		return "", false
	}

	stem := strings.TrimSuffix(column, IDSuffix)
	return stem, stem != ""
}

// pastTense is a rough approximation, irregular verbs are not handled
func pastTense(word string) string {
	switch {
	case strings.HasSuffix(word, "e"):
		return word + "d"
	case strings.HasSuffix(word, "y"):
		return strings.TrimSuffix(word, "y") + "ied"
	default:
		return word + "ed"
	}
}

func isStandardPivot(pivot, a, b string) bool {
	formsA := forms(a)
	formsB := forms(b)

	for _, x := range formsA {
		for _, y := range formsB {
			if pivot == x+"_"+y || pivot == y+"_"+x {
				return true
			}
		}
	}

	return false
}

func forms(table string) []string {
	singular := strmangle.Singular(table)
	return []string{singular, strmangle.Plural(singular)}
}
