package driver

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/lib/pq"
	"github.com/stephenafamo/relgen/gen/drivers"
	helpers "github.com/stephenafamo/relgen/gen/relgen-helpers"
	"github.com/stephenafamo/scan"
	"github.com/stephenafamo/scan/stdscan"
	"github.com/volatiletech/strmangle"
)

const (
	pqDriver        = "github.com/lib/pq"
	pgxStdlibDriver = "github.com/jackc/pgx/v5/stdlib"
	defaultDriver   = pgxStdlibDriver
)

type Config struct {
	helpers.Config `yaml:",squash"`
	// The database schemas to generate models for
	Schemas pq.StringArray `yaml:"schemas"`
	// The name of this schema will not be included in the table keys
	SharedSchema string `yaml:"shared_schema"`
}

func New(config Config) *Driver {
	// Set defaults
	if config.Schemas == nil {
		config.Schemas = pq.StringArray{"public"}
	}

	if config.SharedSchema == "" {
		config.SharedSchema = config.Schemas[0]
	}

	if config.Driver == "" {
		config.Driver = defaultDriver
	}

	if config.Concurrency < 1 {
		config.Concurrency = 10
	}

	return &Driver{config: config}
}

// Driver holds the database connection string and a handle
// to the database connection.
type Driver struct {
	config Config
	conn   *sql.DB
}

func (d *Driver) Dialect() string {
	return "psql"
}

// sqlDriverName is the name the database/sql driver registers itself with
func (d *Driver) sqlDriverName() (string, error) {
	switch d.config.Driver {
	case pgxStdlibDriver:
		return "pgx", nil
	case pqDriver:
		return "postgres", nil
	default:
		return "", fmt.Errorf(
			"unsupported driver %s, supported drivers are: %q, %q",
			d.config.Driver, pgxStdlibDriver, pqDriver,
		)
	}
}

// Assemble all the information we need to provide back to the driver
func (d *Driver) Assemble(ctx context.Context) (*drivers.DBInfo, error) {
	var err error

	if d.config.Dsn == "" {
		return nil, fmt.Errorf("database dsn is not set")
	}

	name, err := d.sqlDriverName()
	if err != nil {
		return nil, err
	}

	d.conn, err = sql.Open(name, d.config.Dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	defer d.conn.Close()

	dbinfo := &drivers.DBInfo{Driver: d.config.Driver}

	dbinfo.Tables, err = drivers.BuildDBInfo(ctx, d, d.config.Concurrency, d.config.Only, d.config.Except)
	if err != nil {
		return nil, err
	}

	return dbinfo, nil
}

const keyClause = "(CASE WHEN table_schema <> $1 THEN table_schema|| '.'  ELSE '' END || table_name)"

// TablesInfo retrieves all base table names from the information_schema
// of the configured schemas, applying the table filter
func (d *Driver) TablesInfo(ctx context.Context, tableFilter drivers.Filter) (drivers.TablesInfo, error) {
	query := fmt.Sprintf(`SELECT
	  %s AS "key" ,
	  table_schema AS "schema",
	  table_name AS "name"
	FROM information_schema.tables
	WHERE table_type = 'BASE TABLE'
	AND table_schema = ANY ($2)`, keyClause)
	args := []any{d.config.SharedSchema, d.config.Schemas}

	include := tableFilter.Only
	exclude := tableFilter.Except

	if len(include) > 0 {
		var subqueries []string
		stringPatterns, regexPatterns := tableFilter.ClassifyPatterns(include)
		if len(stringPatterns) > 0 {
			subqueries = append(subqueries, fmt.Sprintf("%s in (%s)", keyClause, strmangle.Placeholders(true, len(stringPatterns), len(args)+1, 1)))
			for _, w := range stringPatterns {
				args = append(args, w)
			}
		}
		if len(regexPatterns) > 0 {
			subqueries = append(subqueries, fmt.Sprintf("%s ~ (%s)", keyClause, strmangle.Placeholders(true, 1, len(args)+1, 1)))
			args = append(args, strings.Join(regexPatterns, "|"))
		}
		query += fmt.Sprintf(" and (%s)", strings.Join(subqueries, " or "))
	}

	if len(exclude) > 0 {
		var subqueries []string
		stringPatterns, regexPatterns := tableFilter.ClassifyPatterns(exclude)
		if len(stringPatterns) > 0 {
			subqueries = append(subqueries, fmt.Sprintf("%s not in (%s)", keyClause, strmangle.Placeholders(true, len(stringPatterns), len(args)+1, 1)))
			for _, w := range stringPatterns {
				args = append(args, w)
			}
		}
		if len(regexPatterns) > 0 {
			subqueries = append(subqueries, fmt.Sprintf("%s !~ (%s)", keyClause, strmangle.Placeholders(true, 1, len(args)+1, 1)))
			args = append(args, strings.Join(regexPatterns, "|"))
		}
		query += fmt.Sprintf(" and (%s)", strings.Join(subqueries, " and "))
	}

	query += ` order by table_name;`

	infos, err := stdscan.All(ctx, d.conn, scan.StructMapper[drivers.TableInfo](), query, args...)
	if err != nil {
		return nil, fmt.Errorf("unable to load table infos: %w", err)
	}

	return infos, nil
}

// TableDetails loads the columns of a single table
func (d *Driver) TableDetails(ctx context.Context, info drivers.TableInfo, colFilter drivers.ColumnFilter) (string, string, []drivers.Column, error) {
	args := []any{info.Schema, info.Name}

	query := `SELECT
		c.column_name AS "name",
		c.data_type AS "db_type",
		coalesce(c.column_default, '') AS "default",
		coalesce(col_description(('"' || c.table_schema || '"."' || c.table_name || '"')::regclass::oid, c.ordinal_position), '') AS "comment",
		c.is_nullable = 'YES' AS "nullable",
		(
			c.is_identity = 'YES'
			OR coalesce(c.column_default, '') LIKE 'nextval(%'
		) AS "auto_incr"
	FROM information_schema.columns AS c
	WHERE c.table_schema = $1 AND c.table_name = $2`

	filter := colFilter[info.Key]
	only := filter.Only
	except := filter.Except

	if len(only) > 0 {
		query += fmt.Sprintf(" AND c.column_name in (%s)", strmangle.Placeholders(true, len(only), 3, 1))
		for _, w := range only {
			args = append(args, w)
		}
	} else if len(except) > 0 {
		query += fmt.Sprintf(" AND c.column_name not in (%s)", strmangle.Placeholders(true, len(except), 3, 1))
		for _, w := range except {
			args = append(args, w)
		}
	}

	query += ` ORDER BY c.ordinal_position;`

	columns, err := stdscan.All(ctx, d.conn, scan.StructMapper[drivers.Column](), query, args...)
	if err != nil {
		return "", "", nil, fmt.Errorf("unable to load columns for table %s: %w", info.Key, err)
	}

	return info.Schema, info.Name, columns, nil
}
