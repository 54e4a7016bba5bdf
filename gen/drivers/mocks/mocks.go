package mocks

import (
	"context"

	"github.com/stephenafamo/relgen/gen/drivers"
)

// MockDriver is a mock implementation of the driver Interface.
//
// Its schema covers every relationship kind:
//   - jets belong to pilots and airports (one-to-many)
//   - licenses are keyed by pilot_id (one-to-one) and reference jets
//   - pilot_languages joins pilots and languages (many-to-many)
//   - hangars is always filtered out
type MockDriver struct{}

func (m *MockDriver) Dialect() string {
	return "mock"
}

// Assemble the DBInfo
func (m *MockDriver) Assemble(ctx context.Context) (*drivers.DBInfo, error) {
	var err error
	dbinfo := &drivers.DBInfo{Driver: "mock"}

	dbinfo.Tables, err = drivers.BuildDBInfo(ctx, m, 1, nil, map[string][]string{"hangars": nil})
	if err != nil {
		return nil, err
	}

	return dbinfo, err
}

// TablesInfo returns a list of mock table names
func (m *MockDriver) TablesInfo(_ context.Context, filter drivers.Filter) (drivers.TablesInfo, error) {
	all := []drivers.TableInfo{
		{Key: "pilots", Name: "pilots"},
		{Key: "jets", Name: "jets"},
		{Key: "airports", Name: "airports"},
		{Key: "licenses", Name: "licenses"},
		{Key: "hangars", Name: "hangars"},
		{Key: "languages", Name: "languages"},
		{Key: "pilot_languages", Name: "pilot_languages"},
	}

	infos := make(drivers.TablesInfo, 0, len(all))
	for _, info := range all {
		skip, err := filter.Skip(info.Key)
		if err != nil {
			return nil, err
		}
		if !skip {
			infos = append(infos, info)
		}
	}

	return infos, nil
}

// TableDetails returns a list of mock columns
func (m *MockDriver) TableDetails(_ context.Context, info drivers.TableInfo, filter drivers.ColumnFilter) (string, string, []drivers.Column, error) {
	cols := map[string][]drivers.Column{
		"pilots": {
			{Name: "id", DBType: "integer", AutoIncr: true},
			{Name: "name", DBType: "character"},
		},
		"airports": {
			{Name: "id", DBType: "integer", AutoIncr: true},
			{Name: "size", DBType: "integer", Nullable: true},
		},
		"jets": {
			{Name: "id", DBType: "integer", AutoIncr: true},
			{Name: "pilot_id", DBType: "integer", Nullable: true},
			{Name: "airport_id", DBType: "integer"},
			{Name: "name", DBType: "character"},
		},
		"licenses": {
			{Name: "pilot_id", DBType: "integer"},
			{Name: "jet_id", DBType: "integer"},
			{Name: "number", DBType: "character"},
		},
		"hangars": {
			{Name: "id", DBType: "integer", AutoIncr: true},
			{Name: "name", DBType: "character"},
		},
		"languages": {
			{Name: "id", DBType: "integer", AutoIncr: true},
			{Name: "language", DBType: "character"},
		},
		"pilot_languages": {
			{Name: "pilot_id", DBType: "integer"},
			{Name: "language_id", DBType: "integer"},
		},
	}[info.Key]

	return info.Schema, info.Name, cols, nil
}

// Constraints returns the mock keys
func (m *MockDriver) Constraints(context.Context, drivers.ColumnFilter) (drivers.DBConstraints, error) {
	return drivers.DBConstraints{
		PKs: map[string]*drivers.Constraint{
			"pilots":          {Name: "pilots_pkey", Columns: []string{"id"}},
			"airports":        {Name: "airports_pkey", Columns: []string{"id"}},
			"jets":            {Name: "jets_pkey", Columns: []string{"id"}},
			"licenses":        {Name: "licenses_pkey", Columns: []string{"pilot_id"}},
			"hangars":         {Name: "hangars_pkey", Columns: []string{"id"}},
			"languages":       {Name: "languages_pkey", Columns: []string{"id"}},
			"pilot_languages": {Name: "pilot_languages_pkey", Columns: []string{"pilot_id", "language_id"}},
		},
		FKs: map[string][]drivers.ForeignKey{
			"jets": {
				{
					Constraint:     drivers.Constraint{Name: "jets_pilot_id_fkey", Columns: []string{"pilot_id"}},
					ForeignTable:   "pilots",
					ForeignColumns: []string{"id"},
				},
				{
					Constraint:     drivers.Constraint{Name: "jets_airport_id_fkey", Columns: []string{"airport_id"}},
					ForeignTable:   "airports",
					ForeignColumns: []string{"id"},
				},
			},
			"licenses": {
				{
					Constraint:     drivers.Constraint{Name: "licenses_pilot_id_fkey", Columns: []string{"pilot_id"}},
					ForeignTable:   "pilots",
					ForeignColumns: []string{"id"},
				},
				{
					Constraint:     drivers.Constraint{Name: "licenses_jet_id_fkey", Columns: []string{"jet_id"}},
					ForeignTable:   "jets",
					ForeignColumns: []string{"id"},
				},
			},
			"pilot_languages": {
				{
					Constraint:     drivers.Constraint{Name: "pilot_languages_pilot_id_fkey", Columns: []string{"pilot_id"}},
					ForeignTable:   "pilots",
					ForeignColumns: []string{"id"},
				},
				{
					Constraint:     drivers.Constraint{Name: "pilot_languages_language_id_fkey", Columns: []string{"language_id"}},
					ForeignTable:   "languages",
					ForeignColumns: []string{"id"},
				},
			},
		},
	}, nil
}
