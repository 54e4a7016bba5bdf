package gen

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stephenafamo/relgen/gen/drivers"
	"github.com/stephenafamo/relgen/gen/naming"
	"github.com/stephenafamo/relgen/orm"
)

func TestRelationArgs(t *testing.T) {
	t.Parallel()

	tests := []struct {
		rel      orm.Relationship
		expected []string
	}{
		{
			rel:      orm.Relationship{Kind: orm.BelongsTo, LocalColumn: "author_id", ForeignColumn: "id"},
			expected: []string{"author_id", "id"},
		},
		{
			rel:      orm.Relationship{Kind: orm.HasOne, LocalColumn: "id", ForeignColumn: "user_id"},
			expected: []string{"user_id", "id"},
		},
		{
			rel:      orm.Relationship{Kind: orm.HasMany, LocalColumn: "id", ForeignColumn: "author_id"},
			expected: []string{"author_id", "id"},
		},
		{
			rel: orm.Relationship{
				Kind: orm.BelongsToMany, Pivot: "role_user",
				LocalColumn: "user_id", ForeignColumn: "role_id",
			},
			expected: []string{"role_user", "user_id", "role_id"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.rel.Kind.String(), func(t *testing.T) {
			if diff := cmp.Diff(tt.expected, relationArgs(tt.rel)); diff != "" {
				t.Error(diff)
			}
		})
	}
}

func TestPHPQuote(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"users":      `'users'`,
		"it's":       `'it\'s'`,
		`App\Models`: `'App\\Models'`,
	}

	for in, expected := range tests {
		if got := phpQuote(in); got != expected {
			t.Errorf("phpQuote(%q) = %s, want %s", in, got, expected)
		}
	}
}

func TestNewTemplateData(t *testing.T) {
	t.Parallel()

	reg := NewRegistry([]string{"licenses"})
	for _, rel := range []orm.Relationship{
		{Kind: orm.BelongsTo, Accessor: "pilot", Target: "Pilot"},
		{Kind: orm.BelongsTo, Accessor: "jet", Target: "Jet"},
		{Kind: orm.BelongsTo, Accessor: "coPilot", Target: "Pilot"},
	} {
		if _, err := reg.Add("licenses", rel); err != nil {
			t.Fatal(err)
		}
	}
	rels, _ := reg.Get("licenses")

	table := drivers.Table{
		Key:     "licenses",
		Name:    "licenses",
		Columns: []drivers.Column{{Name: "pilot_id"}, {Name: "jet_id"}},
		Constraints: drivers.Constraints{
			Primary: &drivers.Constraint{Name: "licenses_pkey", Columns: []string{"pilot_id"}},
		},
	}

	cfg := Config{Connection: "psql"}.withDefaults()
	data := newTemplateData(cfg, naming.ColumnBased{}, "pgx", table, rels)

	if data.Model != "License" || data.Trait != "HasLicenseRelations" {
		t.Errorf("wrong names %q %q", data.Model, data.Trait)
	}

	if data.PrimaryKey != "pilot_id" {
		t.Errorf("expected the primary key to be set, got %q", data.PrimaryKey)
	}

	if data.Incrementing {
		t.Error("pilot_id is not auto incrementing")
	}

	if diff := cmp.Diff([]string{"pilot_id", "jet_id"}, data.Columns); diff != "" {
		t.Error(diff)
	}

	expected := []string{`App\Models\Generated\Jet`, `App\Models\Generated\Pilot`}
	if diff := cmp.Diff(expected, data.RelatedModels); diff != "" {
		t.Error(diff)
	}

	table.Constraints.Primary.Columns = []string{"id"}
	if data := newTemplateData(cfg, naming.ColumnBased{}, "pgx", table, rels); data.PrimaryKey != "" {
		t.Errorf("id primary keys are not set, got %q", data.PrimaryKey)
	}
}

func TestIncrementing(t *testing.T) {
	t.Parallel()

	pk := func(cols ...string) drivers.Constraints {
		return drivers.Constraints{Primary: &drivers.Constraint{Name: "pkey", Columns: cols}}
	}

	tests := []struct {
		name     string
		table    drivers.Table
		expected bool
	}{
		{
			name:     "no primary key",
			table:    drivers.Table{Columns: []drivers.Column{{Name: "line"}}},
			expected: true,
		},
		{
			name:     "auto incrementing key",
			table:    drivers.Table{Columns: []drivers.Column{{Name: "id", AutoIncr: true}}, Constraints: pk("id")},
			expected: true,
		},
		{
			name:     "manual key",
			table:    drivers.Table{Columns: []drivers.Column{{Name: "pilot_id"}}, Constraints: pk("pilot_id")},
			expected: false,
		},
		{
			name:     "composite key",
			table:    drivers.Table{Columns: []drivers.Column{{Name: "a", AutoIncr: true}, {Name: "b"}}, Constraints: pk("a", "b")},
			expected: false,
		},
		{
			name:     "key column filtered out",
			table:    drivers.Table{Columns: []drivers.Column{{Name: "name"}}, Constraints: pk("id")},
			expected: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := incrementing(tt.table); got != tt.expected {
				t.Errorf("expected %t, got %t", tt.expected, got)
			}
		})
	}
}
