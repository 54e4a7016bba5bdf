package gen

import (
	"errors"

	"github.com/stephenafamo/relgen/gen/drivers"
	"github.com/stephenafamo/relgen/gen/naming"
	"github.com/stephenafamo/relgen/orm"
	"go.uber.org/zap"
)

// Classify decides if the foreign key is the child side of a one-to-one.
// That is only the case when the owner's primary key is exactly the
// single local column of the key. Composite keys are one-to-many.
func Classify(fk drivers.ForeignKey, pk *drivers.Constraint) orm.Cardinality {
	if fk.IsComposite() || pk == nil || len(pk.Columns) != 1 {
		return orm.OneToMany
	}

	if pk.Columns[0] == fk.LocalColumn() {
		return orm.OneToOne
	}

	return orm.OneToMany
}

// IsJunctionTable reports if the table only exists to join two other tables.
//
// It must have exactly two foreign keys that are either both or neither part
// of the primary key, and no table may reference it.
func IsJunctionTable(table string, fks []drivers.ForeignKey, pk *drivers.Constraint, refs drivers.ReferencedByIndex) bool {
	if len(fks) != 2 {
		return false
	}

	inPK := 0
	for _, fk := range fks {
		if isPartOfPrimaryKey(fk, pk) {
			inPK++
		}
	}

	if inPK == 1 {
		return false
	}

	return !refs.IsReferenced(table)
}

// isPartOfPrimaryKey matches by constraint name first.
// Most databases give the two different names, so every local column
// being in the primary key also counts.
func isPartOfPrimaryKey(fk drivers.ForeignKey, pk *drivers.Constraint) bool {
	if pk == nil {
		return false
	}

	if fk.Name != "" && fk.Name == pk.Name {
		return true
	}

	if len(fk.Columns) == 0 {
		return false
	}

	for _, col := range fk.Columns {
		if !pk.Has(col) {
			return false
		}
	}

	return true
}

// ErrNoStrategy is returned by Builder.Build when no naming strategy is set
var ErrNoStrategy = errors.New("relationship builder: no naming strategy")

// Builder resolves the relationships of a schema into a Registry.
// Strategy is required.
type Builder struct {
	Strategy naming.Strategy
	Logger   *zap.Logger
}

// Build runs the classification pass over every table.
// Tables are visited in the order of the facts so that accessor suffixes
// are stable between runs.
func (b Builder) Build(facts *drivers.Facts) (*Registry, error) {
	if b.Strategy == nil {
		return nil, ErrNoStrategy
	}
	if b.Logger == nil {
		b.Logger = zap.NewNop()
	}

	tables := facts.Tables()
	reg := NewRegistry(tables)
	refs := facts.ReferencedBy()

	for _, table := range tables {
		fks := facts.ForeignKeys(table)
		pk := facts.PrimaryKey(table)

		if IsJunctionTable(table, fks, pk, refs) {
			if err := b.addJunction(reg, facts, table, fks); err != nil {
				return nil, err
			}
		}

		for _, fk := range fks {
			if !b.usable(facts, table, fk) {
				continue
			}

			if err := b.addForeignKey(reg, facts, table, fk, Classify(fk, pk)); err != nil {
				return nil, err
			}
		}
	}

	return reg, nil
}

func (b Builder) usable(facts *drivers.Facts, table string, fk drivers.ForeignKey) bool {
	if fk.IsComposite() {
		b.Logger.Debug("skipping composite foreign key",
			zap.String("table", table),
			zap.String("constraint", fk.Name),
			zap.Strings("columns", fk.Columns),
		)
		return false
	}

	if !facts.Has(fk.ForeignTable) {
		b.Logger.Debug("skipping foreign key to unknown table",
			zap.String("table", table),
			zap.String("constraint", fk.Name),
			zap.String("foreign_table", fk.ForeignTable),
		)
		return false
	}

	return true
}

// addForeignKey registers the parent side then the child side
func (b Builder) addForeignKey(reg *Registry, facts *drivers.Facts, table string, fk drivers.ForeignKey, card orm.Cardinality) error {
	parentKind := orm.HasMany
	if card == orm.OneToOne {
		parentKind = orm.HasOne
	}

	parent := naming.Side{Table: tableName(facts, fk.ForeignTable), Target: tableName(facts, table), Column: fk.LocalColumn()}
	if _, err := reg.Add(fk.ForeignTable, orm.Relationship{
		Kind:          parentKind,
		Accessor:      naming.Accessor(b.Strategy, parentKind, parent),
		Target:        b.Strategy.ModelName(table),
		TargetTable:   table,
		LocalColumn:   fk.ForeignColumn(),
		ForeignColumn: fk.LocalColumn(),
	}); err != nil {
		return err
	}

	child := naming.Side{Table: tableName(facts, table), Target: tableName(facts, fk.ForeignTable), Column: fk.LocalColumn()}
	if _, err := reg.Add(table, orm.Relationship{
		Kind:          orm.BelongsTo,
		Accessor:      naming.Accessor(b.Strategy, orm.BelongsTo, child),
		Target:        b.Strategy.ModelName(fk.ForeignTable),
		TargetTable:   fk.ForeignTable,
		LocalColumn:   fk.LocalColumn(),
		ForeignColumn: fk.ForeignColumn(),
	}); err != nil {
		return err
	}

	b.Logger.Debug("registered relationship",
		zap.String("table", table),
		zap.String("foreign_table", fk.ForeignTable),
		zap.Stringer("cardinality", card),
	)

	return nil
}

// addJunction registers a BelongsToMany on both joined tables
func (b Builder) addJunction(reg *Registry, facts *drivers.Facts, pivot string, fks []drivers.ForeignKey) error {
	left, right := fks[0], fks[1]
	if !b.usable(facts, pivot, left) || !b.usable(facts, pivot, right) {
		return nil
	}

	for _, pair := range [2][2]drivers.ForeignKey{{left, right}, {right, left}} {
		owner, related := pair[0], pair[1]
		side := naming.Side{
			Table:  tableName(facts, owner.ForeignTable),
			Target: tableName(facts, related.ForeignTable),
			Pivot:  tableName(facts, pivot),
		}

		if _, err := reg.Add(owner.ForeignTable, orm.Relationship{
			Kind:          orm.BelongsToMany,
			Accessor:      naming.Accessor(b.Strategy, orm.BelongsToMany, side),
			Target:        b.Strategy.ModelName(related.ForeignTable),
			TargetTable:   related.ForeignTable,
			LocalColumn:   owner.LocalColumn(),
			ForeignColumn: related.LocalColumn(),
			Pivot:         pivot,
		}); err != nil {
			return err
		}
	}

	b.Logger.Debug("registered junction table",
		zap.String("table", pivot),
		zap.String("left", left.ForeignTable),
		zap.String("right", right.ForeignTable),
	)

	return nil
}

// tableName is the unqualified name of the table, accessors never carry
// the schema part of a key
func tableName(facts *drivers.Facts, key string) string {
	if t, ok := facts.Table(key); ok && t.Name != "" {
		return t.Name
	}
	return key
}
