package orm

import "fmt"

// Kind is the kind of a relationship as seen from the table it is
// registered on
type Kind int

const (
	HasOne Kind = iota
	HasMany
	BelongsTo
	BelongsToMany
)

// Kinds lists every kind in the order relationship accessors are emitted
var Kinds = []Kind{BelongsTo, HasOne, HasMany, BelongsToMany}

func (k Kind) String() string {
	switch k {
	case HasOne:
		return "hasOne"
	case HasMany:
		return "hasMany"
	case BelongsTo:
		return "belongsTo"
	case BelongsToMany:
		return "belongsToMany"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// MarshalText implements encoding.TextMarshaler so kinds read well in JSON
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Cardinality is the result of classifying a single foreign key
type Cardinality int

const (
	OneToMany Cardinality = iota
	OneToOne
)

func (c Cardinality) String() string {
	if c == OneToOne {
		return "one-to-one"
	}
	return "one-to-many"
}

// Relationship is a resolved relationship accessor on a model.
//
// The meaning of the key columns depends on the kind:
//
//   - BelongsTo: LocalColumn is the foreign key on this table,
//     ForeignColumn is the referenced (owner) key on the target.
//   - HasOne, HasMany: ForeignColumn is the foreign key on the target
//     table, LocalColumn is the referenced key on this table.
//   - BelongsToMany: Pivot is the junction table, LocalColumn is the
//     pivot column pointing at this table and ForeignColumn the pivot
//     column pointing at the target.
type Relationship struct {
	Kind Kind `json:"kind"`
	// Accessor is the final, de-duplicated method name
	Accessor string `json:"accessor"`
	// Target is the model name the accessor returns
	Target string `json:"target"`
	// TargetTable is the table the target model is generated from
	TargetTable string `json:"target_table"`

	LocalColumn   string `json:"local_column"`
	ForeignColumn string `json:"foreign_column"`

	Pivot string `json:"pivot,omitempty"`
}

// OwnerKey is the key on the owner side of a BelongsTo
func (r Relationship) OwnerKey() string {
	return r.ForeignColumn
}

// ForeignPivotKey is the pivot column that points at the model that
// declares a BelongsToMany
func (r Relationship) ForeignPivotKey() string {
	return r.LocalColumn
}

// RelatedPivotKey is the pivot column that points at the related model of
// a BelongsToMany
func (r Relationship) RelatedPivotKey() string {
	return r.ForeignColumn
}

// Method is the name of the ORM method the accessor delegates to
func (r Relationship) Method() string {
	return r.Kind.String()
}
