package orm

import (
	"encoding/json"
	"testing"
)

func TestKindString(t *testing.T) {
	t.Parallel()

	cases := map[Kind]string{
		HasOne:        "hasOne",
		HasMany:       "hasMany",
		BelongsTo:     "belongsTo",
		BelongsToMany: "belongsToMany",
		Kind(42):      "Kind(42)",
	}

	for kind, expected := range cases {
		if got := kind.String(); got != expected {
			t.Errorf("expected %s, got %s", expected, got)
		}
	}
}

func TestRelationshipKeys(t *testing.T) {
	t.Parallel()

	belongsTo := Relationship{Kind: BelongsTo, LocalColumn: "author_id", ForeignColumn: "id"}
	if belongsTo.OwnerKey() != "id" {
		t.Errorf("expected owner key id, got %s", belongsTo.OwnerKey())
	}
	if belongsTo.Method() != "belongsTo" {
		t.Errorf("expected method belongsTo, got %s", belongsTo.Method())
	}

	toMany := Relationship{Kind: BelongsToMany, LocalColumn: "user_id", ForeignColumn: "role_id", Pivot: "role_user"}
	if toMany.ForeignPivotKey() != "user_id" {
		t.Errorf("expected foreign pivot key user_id, got %s", toMany.ForeignPivotKey())
	}
	if toMany.RelatedPivotKey() != "role_id" {
		t.Errorf("expected related pivot key role_id, got %s", toMany.RelatedPivotKey())
	}
}

func TestRelationshipJSON(t *testing.T) {
	t.Parallel()

	b, err := json.Marshal(Relationship{Kind: HasMany, Accessor: "posts", Target: "Post", TargetTable: "posts"})
	if err != nil {
		t.Fatal(err)
	}

	expected := `{"kind":"hasMany","accessor":"posts","target":"Post","target_table":"posts","local_column":"","foreign_column":""}`
	if string(b) != expected {
		t.Errorf("expected %s, got %s", expected, b)
	}
}
