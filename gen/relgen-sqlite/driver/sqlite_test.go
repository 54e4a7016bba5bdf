package driver

import (
	"context"
	"database/sql"
	_ "embed"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/google/go-cmp/cmp"
	"github.com/stephenafamo/relgen/gen/drivers"
	helpers "github.com/stephenafamo/relgen/gen/relgen-helpers"
	"github.com/stretchr/testify/require"
)

//go:embed testdb.sql
var testDB []byte

func newTestDB(t *testing.T) string {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "relgen.db")

	db, err := sql.Open("sqlite", dsn)
	require.NoError(t, err)
	defer db.Close()

	migrations := fstest.MapFS{"testdb.sql": {Data: testDB}}
	require.NoError(t, helpers.Migrate(context.Background(), db, migrations, "*.sql"))

	return dsn
}

func TestInferDriver(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"./relgen.db":                     "sqlite",
		"file:relgen.db?cache=shared":     "sqlite",
		"libsql://example.turso.io":       "libsql",
		"https://example.turso.io":        "libsql",
		"ws://localhost:8080":             "libsql",
		"sqlite://relgen.db":              "sqlite",
		"http://localhost:8080?authToken": "libsql",
	}

	for dsn, expected := range cases {
		if got := inferDriver(dsn); got != expected {
			t.Errorf("%s: expected %s, got %s", dsn, expected, got)
		}
	}
}

func TestUnsupportedDriver(t *testing.T) {
	t.Parallel()

	d := New(Config{Config: helpers.Config{Dsn: "relgen.db", Driver: "github.com/mattn/go-sqlite3"}})
	_, err := d.Assemble(context.Background())
	require.ErrorContains(t, err, "unsupported driver")
}

func TestKey(t *testing.T) {
	t.Parallel()

	d := New(Config{Attach: map[string]string{"aux": "aux.db"}})

	require.Equal(t, "users", d.key("main", "users"))
	require.Equal(t, "aux.events", d.key("aux", "events"))

	schema, name := d.split("aux.events")
	require.Equal(t, "aux", schema)
	require.Equal(t, "events", name)

	schema, name = d.split("users")
	require.Equal(t, "main", schema)
	require.Equal(t, "users", name)
}

func TestPrimaryKeyOrder(t *testing.T) {
	t.Parallel()

	pk := primaryKey("tenants", []columnInfo{
		{Name: "region", Pk: 2},
		{Name: "name"},
		{Name: "id", Pk: 1},
	})

	expected := &drivers.Constraint{Name: "pk_tenants", Columns: []string{"id", "region"}}
	if diff := cmp.Diff(expected, pk); diff != "" {
		t.Fatal(diff)
	}

	require.Nil(t, primaryKey("logs", []columnInfo{{Name: "line"}}))
}

func TestForeignKeys(t *testing.T) {
	t.Parallel()

	valid := func(s string) sql.NullString { return sql.NullString{String: s, Valid: true} }

	got := foreignKeys("tenant_settings", "aux.", []foreignKeyInfo{
		{ID: 1, Seq: 1, Table: "tenants", From: "tenant_region", To: valid("region")},
		{ID: 0, Seq: 0, Table: "users", From: "owner_id", To: valid("id")},
		{ID: 1, Seq: 0, Table: "tenants", From: "tenant_id", To: valid("id")},
	})

	expected := []drivers.ForeignKey{
		{
			Constraint:     drivers.Constraint{Name: "fk_tenant_settings_0", Columns: []string{"owner_id"}},
			ForeignTable:   "aux.users",
			ForeignColumns: []string{"id"},
		},
		{
			Constraint:     drivers.Constraint{Name: "fk_tenant_settings_1", Columns: []string{"tenant_id", "tenant_region"}},
			ForeignTable:   "aux.tenants",
			ForeignColumns: []string{"id", "region"},
		},
	}

	if diff := cmp.Diff(expected, got); diff != "" {
		t.Fatal(diff)
	}
}

func TestDriver(t *testing.T) {
	t.Parallel()

	d := New(Config{Config: helpers.Config{
		Dsn:    newTestDB(t),
		Except: map[string][]string{"/^audit_/": nil},
	}})

	info, err := d.Assemble(context.Background())
	require.NoError(t, err)
	require.Equal(t, moderncDriver, info.Driver)

	var keys []string
	for _, tbl := range info.Tables {
		keys = append(keys, tbl.Key)
	}
	require.Equal(t, []string{
		"posts", "profiles", "role_user", "roles",
		"tenant_settings", "tenants", "users",
	}, keys)

	users := lookup(t, info, "users")
	require.True(t, users.GetColumn("id").AutoIncr)
	require.Equal(t, []string{"id"}, users.PrimaryKeyColumns())

	posts := lookup(t, info, "posts")
	require.Equal(t, "'untitled'", posts.GetColumn("title").Default)
	require.Len(t, posts.Constraints.Foreign, 1)
	require.Equal(t, "author_id", posts.Constraints.Foreign[0].LocalColumn())
	require.Equal(t, "users", posts.Constraints.Foreign[0].ForeignTable)

	// role_id references roles without naming the column
	pivot := lookup(t, info, "role_user")
	require.Equal(t, []string{"user_id", "role_id"}, pivot.PrimaryKeyColumns())
	require.Len(t, pivot.Constraints.Foreign, 2)
	for _, fk := range pivot.Constraints.Foreign {
		require.Equal(t, []string{"id"}, fk.ForeignColumns)
	}

	tenants := lookup(t, info, "tenants")
	require.False(t, tenants.GetColumn("id").AutoIncr)

	settings := lookup(t, info, "tenant_settings")
	require.Len(t, settings.Constraints.Foreign, 1)
	require.True(t, settings.Constraints.Foreign[0].IsComposite())
}

func TestDriverColumnFilter(t *testing.T) {
	t.Parallel()

	d := New(Config{Config: helpers.Config{
		Dsn:    newTestDB(t),
		Only:   map[string][]string{"posts": {"id", "author_id"}},
		Except: map[string][]string{},
	}})

	info, err := d.Assemble(context.Background())
	require.NoError(t, err)
	require.Len(t, info.Tables, 1)
	require.Equal(t, []string{"id", "author_id"}, drivers.ColumnNames(info.Tables[0].Columns))
}

func lookup(t *testing.T, info *drivers.DBInfo, key string) drivers.Table {
	t.Helper()

	tbl, ok := drivers.NewFacts(info.Tables).Table(key)
	require.True(t, ok, "missing table %s", key)
	return tbl
}
