package helpers

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/google/go-cmp/cmp"
	"github.com/stephenafamo/relgen/gen"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

type testDriverConfig struct {
	Config  `yaml:",squash"`
	Schemas []string `yaml:"schemas"`
}

const testConfigFile = `
naming_strategy: legacy
connection: reporting
model_namespace: App\Models
wipe: true
inflections:
  irregular:
    person: people
psql:
  dsn: postgres://localhost/app
  schemas: [public, audit]
  concurrency: 4
  except:
    migrations: []
`

func TestGetConfigFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "relgen.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testConfigFile), 0o644))

	config, driverConfig, err := GetConfigFromFile[testDriverConfig](path, "psql")
	require.NoError(t, err)

	require.Equal(t, "legacy", config.NamingStrategy)
	require.Equal(t, "reporting", config.Connection)
	require.Equal(t, `App\Models`, config.ModelNamespace)
	require.True(t, config.Wipe)
	require.Equal(t, map[string]string{"person": "people"}, config.Inflections.Irregular)

	// defaults fill the rest
	require.Equal(t, gen.DefaultTraitNamespace, config.TraitNamespace)
	require.Equal(t, gen.DefaultExtend, config.Extend)

	require.Equal(t, "postgres://localhost/app", driverConfig.Dsn)
	require.Equal(t, 4, driverConfig.Concurrency)
	if diff := cmp.Diff([]string{"public", "audit"}, driverConfig.Schemas); diff != "" {
		t.Error(diff)
	}
	require.Contains(t, driverConfig.Except, "migrations")
}

func TestGetConfigFromEnv(t *testing.T) {
	t.Setenv("SQLITE_DSN", "file:app.db")

	config, driverConfig, err := GetConfigFromFile[testDriverConfig](filepath.Join(t.TempDir(), "missing.yaml"), "sqlite")
	require.NoError(t, err)

	require.Equal(t, "file:app.db", driverConfig.Dsn)
	require.Equal(t, "column_based", config.NamingStrategy)
	require.Equal(t, gen.DefaultModelPath, config.ModelPath)
}

func TestMigrate(t *testing.T) {
	t.Parallel()

	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "migrate.db"))
	require.NoError(t, err)
	defer db.Close()

	dir := fstest.MapFS{
		"sql/02_posts.sql": {Data: []byte("CREATE TABLE posts (id INTEGER PRIMARY KEY, user_id INTEGER REFERENCES users (id));")},
		"sql/01_users.sql": {Data: []byte("CREATE TABLE users (id INTEGER PRIMARY KEY);")},
		"sql/notes.txt":    {Data: []byte("not sql")},
	}

	require.NoError(t, Migrate(context.Background(), db, dir, "sql/*.sql"))

	var count int
	require.NoError(t, db.QueryRow("SELECT count(*) FROM sqlite_master WHERE type = 'table'").Scan(&count))
	require.Equal(t, 2, count)
}

func TestGetFreePort(t *testing.T) {
	t.Parallel()

	port, err := GetFreePort()
	require.NoError(t, err)
	require.Greater(t, port, 0)
}
