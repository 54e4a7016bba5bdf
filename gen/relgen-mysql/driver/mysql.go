package driver

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/stephenafamo/relgen/gen/drivers"
	helpers "github.com/stephenafamo/relgen/gen/relgen-helpers"
	"github.com/stephenafamo/scan"
	"github.com/stephenafamo/scan/stdscan"
	"github.com/volatiletech/strmangle"
)

const defaultDriver = "github.com/go-sql-driver/mysql"

type Config struct {
	helpers.Config `yaml:",squash"`
}

func New(config Config) *Driver {
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
	dbName string
}

func (d *Driver) Dialect() string {
	return "mysql"
}

// Assemble all the information we need to provide back to the driver
func (d *Driver) Assemble(ctx context.Context) (*drivers.DBInfo, error) {
	var err error

	if d.config.Dsn == "" {
		return nil, fmt.Errorf("database dsn is not set")
	}

	config, err := mysql.ParseDSN(d.config.Dsn)
	if err != nil {
		return nil, err
	}

	if config.DBName == "" {
		return nil, fmt.Errorf("no database name given in dsn")
	}
	d.dbName = config.DBName

	d.conn, err = sql.Open("mysql", d.config.Dsn)
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

// TablesInfo retrieves all base table names of the database,
// applying the table filter
func (d *Driver) TablesInfo(ctx context.Context, tableFilter drivers.Filter) (drivers.TablesInfo, error) {
	query := "SELECT table_name as `key`, table_name as name FROM information_schema.tables WHERE table_schema = ? AND table_type = 'BASE TABLE'"
	args := []any{d.dbName}

	include := tableFilter.Only
	exclude := tableFilter.Except

	if len(include) > 0 {
		var subqueries []string
		stringPatterns, regexPatterns := tableFilter.ClassifyPatterns(include)
		if len(stringPatterns) > 0 {
			subqueries = append(subqueries, fmt.Sprintf("table_name in (%s)", strmangle.Placeholders(false, len(stringPatterns), 1, 1))) // third param is not used for ? placeholders
			for _, w := range stringPatterns {
				args = append(args, w)
			}
		}
		if len(regexPatterns) > 0 {
			subqueries = append(subqueries, "table_name REGEXP ?")
			args = append(args, strings.Join(regexPatterns, "|"))
		}
		query += fmt.Sprintf(" and (%s)", strings.Join(subqueries, " or "))
	}

	if len(exclude) > 0 {
		var subqueries []string
		stringPatterns, regexPatterns := tableFilter.ClassifyPatterns(exclude)
		if len(stringPatterns) > 0 {
			subqueries = append(subqueries, fmt.Sprintf("table_name not in (%s)", strmangle.Placeholders(false, len(stringPatterns), 1, 1)))
			for _, w := range stringPatterns {
				args = append(args, w)
			}
		}
		if len(regexPatterns) > 0 {
			subqueries = append(subqueries, "table_name NOT REGEXP ?")
			args = append(args, strings.Join(regexPatterns, "|"))
		}
		query += fmt.Sprintf(" and (%s)", strings.Join(subqueries, " and "))
	}

	query += ` order by table_name;`

	return stdscan.All(ctx, d.conn, scan.StructMapper[drivers.TableInfo](), query, args...)
}

// TableDetails loads the columns of a single table
func (d *Driver) TableDetails(ctx context.Context, info drivers.TableInfo, colFilter drivers.ColumnFilter) (string, string, []drivers.Column, error) {
	filter := colFilter[info.Key]
	args := []any{info.Name, d.dbName}

	query := "SELECT" +
		" c.column_name AS `name`," +
		" c.data_type AS `db_type`," +
		" coalesce(c.column_default, '') AS `default`," +
		" c.column_comment AS `comment`," +
		" c.is_nullable = 'YES' AS `nullable`," +
		" c.extra = 'auto_increment' AS `auto_incr`" +
		" FROM information_schema.columns AS c" +
		" WHERE c.table_name = ? AND c.table_schema = ?"

	if len(filter.Only) > 0 {
		query += fmt.Sprintf(" and c.column_name in (%s)", strmangle.Placeholders(false, len(filter.Only), 1, 1))
		for _, w := range filter.Only {
			args = append(args, w)
		}
	} else if len(filter.Except) > 0 {
		query += fmt.Sprintf(" and c.column_name not in (%s)", strmangle.Placeholders(false, len(filter.Except), 1, 1))
		for _, w := range filter.Except {
			args = append(args, w)
		}
	}

	query += ` order by c.ordinal_position;`

	columns, err := stdscan.All(ctx, d.conn, scan.StructMapper[drivers.Column](), query, args...)
	if err != nil {
		return "", "", nil, fmt.Errorf("unable to load columns for table %s: %w", info.Key, err)
	}

	return "", info.Name, columns, nil
}

type constraint struct {
	TableName     string
	Name          string
	Type          string
	ColumnName    string
	ForeignTable  sql.NullString
	ForeignColumn sql.NullString
}

// Constraints loads every primary and foreign key in the database
func (d *Driver) Constraints(ctx context.Context, _ drivers.ColumnFilter) (drivers.DBConstraints, error) {
	query := `SELECT
	tc.table_name AS table_name,
	tc.constraint_name AS name,
	tc.constraint_type AS type,
	kcu.column_name AS column_name,
	kcu.referenced_table_name AS foreign_table,
	kcu.referenced_column_name AS foreign_column
	FROM information_schema.table_constraints AS tc
	LEFT JOIN information_schema.key_column_usage AS kcu 
		ON kcu.table_name = tc.table_name 
		AND kcu.table_schema = tc.table_schema 
		AND kcu.constraint_name = tc.constraint_name
	WHERE tc.constraint_type IN ('PRIMARY KEY', 'FOREIGN KEY') AND tc.table_schema = ?
	ORDER BY tc.table_name, tc.constraint_name, tc.constraint_type, kcu.ordinal_position`

	constraints, err := stdscan.All(ctx, d.conn, scan.StructMapper[constraint](), query, d.dbName)
	if err != nil {
		return drivers.DBConstraints{
			PKs: map[string]*drivers.Constraint{},
			FKs: map[string][]drivers.ForeignKey{},
		}, err
	}

	return groupConstraints(constraints), nil
}

// groupConstraints folds the one-row-per-column result into keys.
// Rows must be ordered by table, constraint name and type.
func groupConstraints(constraints []constraint) drivers.DBConstraints {
	ret := drivers.DBConstraints{
		PKs: map[string]*drivers.Constraint{},
		FKs: map[string][]drivers.ForeignKey{},
	}

	// Extra for the loop
	constraints = append(constraints, constraint{})

	var current drivers.Constraint
	var table, foreignTable, currentTyp string
	var foreignCols []string
	for i, c := range constraints {
		if i != 0 && (c.TableName != table || c.Name != current.Name || c.Type != currentTyp) {
			switch currentTyp {
			case "PRIMARY KEY":
				// Create a new constraint because it is a pointer
				ret.PKs[table] = &drivers.Constraint{
					Name:    current.Name,
					Columns: current.Columns,
				}
			case "FOREIGN KEY":
				ret.FKs[table] = append(ret.FKs[table], drivers.ForeignKey{
					Constraint:     current,
					ForeignTable:   foreignTable,
					ForeignColumns: foreignCols,
				})
			}

			// reset things
			current = drivers.Constraint{}
			foreignTable, foreignCols = "", nil
		}

		table = c.TableName
		currentTyp = c.Type

		current.Name = c.Name
		current.Columns = append(current.Columns, c.ColumnName)
		if c.ForeignTable.Valid {
			foreignTable = c.ForeignTable.String
			foreignCols = append(foreignCols, c.ForeignColumn.String)
		}
	}

	return ret
}
