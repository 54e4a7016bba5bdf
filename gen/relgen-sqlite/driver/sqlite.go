package driver

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"slices"
	"sort"
	"strconv"
	"strings"

	"github.com/stephenafamo/relgen/gen/drivers"
	helpers "github.com/stephenafamo/relgen/gen/relgen-helpers"
	"github.com/stephenafamo/scan"
	"github.com/stephenafamo/scan/stdscan"
	_ "github.com/tursodatabase/libsql-client-go/libsql"
	_ "modernc.org/sqlite"
)

const (
	moderncDriver = "modernc.org/sqlite"
	libsqlDriver  = "github.com/tursodatabase/libsql-client-go/libsql"
	defaultDriver = moderncDriver
	mainSchema    = "main"
)

type Config struct {
	helpers.Config `yaml:",squash"`
	// Extra databases to read, a map of the schema name to the DSN
	Attach map[string]string `yaml:"attach"`
	// The name of this schema will not be included in the table keys
	SharedSchema string `yaml:"shared_schema"`
}

func New(config Config) *Driver {
	if config.SharedSchema == "" {
		config.SharedSchema = mainSchema
	}

	if config.Concurrency < 1 {
		config.Concurrency = 1
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
	return "sqlite"
}

// sqlDriverName picks the database/sql driver from the configured
// driver, falling back to the DSN scheme
func (d *Driver) sqlDriverName() (string, error) {
	switch d.config.Driver {
	case moderncDriver:
		return "sqlite", nil
	case libsqlDriver:
		return "libsql", nil
	case "":
		return inferDriver(d.config.Dsn), nil
	default:
		return "", fmt.Errorf(
			"unsupported driver %s, supported drivers are: %q, %q",
			d.config.Driver, moderncDriver, libsqlDriver,
		)
	}
}

func inferDriver(dsn string) string {
	if !strings.Contains(dsn, "://") {
		return "sqlite"
	}

	u, err := url.Parse(dsn)
	if err != nil {
		return "sqlite"
	}

	switch u.Scheme {
	case "libsql", "http", "https", "ws", "wss":
		return "libsql"
	default:
		return "sqlite"
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

	// ATTACH is per connection
	d.conn.SetMaxOpenConns(1)

	for _, schema := range d.attached() {
		dsn := d.config.Attach[schema]
		if name == "sqlite" {
			dsn = strconv.Quote(dsn)
		}
		_, err = d.conn.ExecContext(ctx, fmt.Sprintf("attach database %s as %q", dsn, schema))
		if err != nil {
			return nil, fmt.Errorf("could not attach %q: %w", schema, err)
		}
	}

	driver := d.config.Driver
	if driver == "" {
		driver = defaultDriver
		if name == "libsql" {
			driver = libsqlDriver
		}
	}

	dbinfo := &drivers.DBInfo{Driver: driver}

	dbinfo.Tables, err = drivers.BuildDBInfo(ctx, d, d.config.Concurrency, d.config.Only, d.config.Except)
	if err != nil {
		return nil, err
	}

	return dbinfo, nil
}

func (d *Driver) attached() []string {
	schemas := make([]string, 0, len(d.config.Attach))
	for schema := range d.config.Attach {
		schemas = append(schemas, schema)
	}
	sort.Strings(schemas)
	return schemas
}

func (d *Driver) schemas() []string {
	return append([]string{mainSchema}, d.attached()...)
}

// TablesInfo lists the tables of the main database and every attached one.
// The filter is applied on the table keys since remote connections
// cannot register a regexp function.
func (d *Driver) TablesInfo(ctx context.Context, tableFilter drivers.Filter) (drivers.TablesInfo, error) {
	var infos drivers.TablesInfo

	for _, schema := range d.schemas() {
		query := fmt.Sprintf(`SELECT name FROM %q.sqlite_schema
		WHERE type = 'table' AND name NOT LIKE 'sqlite_%%'
		ORDER BY name`, schema)

		names, err := stdscan.All(ctx, d.conn, scan.SingleColumnMapper[string], query)
		if err != nil {
			return nil, fmt.Errorf("unable to list tables in %s: %w", schema, err)
		}

		for _, name := range names {
			key := d.key(schema, name)
			skip, err := tableFilter.Skip(key)
			if err != nil {
				return nil, err
			}
			if skip {
				continue
			}

			infos = append(infos, drivers.TableInfo{
				Key:    key,
				Schema: schema,
				Name:   name,
			})
		}
	}

	return infos, nil
}

type columnInfo struct {
	Cid          int            `db:"cid"`
	Name         string         `db:"name"`
	Type         string         `db:"type"`
	NotNull      bool           `db:"notnull"`
	DefaultValue sql.NullString `db:"dflt_value"`
	Pk           int            `db:"pk"`
	Hidden       int            `db:"hidden"`
}

func (d *Driver) tableInfo(ctx context.Context, schema, name string) ([]columnInfo, error) {
	query := fmt.Sprintf("PRAGMA %q.table_xinfo(%q)", schema, name)
	return stdscan.All(ctx, d.conn, scan.StructMapper[columnInfo](), query)
}

// TableDetails loads the columns of a single table
func (d *Driver) TableDetails(ctx context.Context, info drivers.TableInfo, colFilter drivers.ColumnFilter) (string, string, []drivers.Column, error) {
	tinfo, err := d.tableInfo(ctx, info.Schema, info.Name)
	if err != nil {
		return "", "", nil, fmt.Errorf("unable to load columns for table %s: %w", info.Key, err)
	}

	columns, err := toColumns(tinfo, colFilter[info.Key])
	if err != nil {
		return "", "", nil, fmt.Errorf("unable to filter columns for table %s: %w", info.Key, err)
	}

	return d.schema(info.Schema), info.Name, columns, nil
}

func toColumns(tinfo []columnInfo, filter drivers.Filter) ([]drivers.Column, error) {
	nPkeys := 0
	for _, c := range tinfo {
		if c.Pk > 0 {
			nPkeys++
		}
	}

	columns := make([]drivers.Column, 0, len(tinfo))
	for _, c := range tinfo {
		skip, err := filter.Skip(c.Name)
		if err != nil {
			return nil, err
		}
		if skip {
			continue
		}

		column := drivers.Column{
			Name:     c.Name,
			DBType:   strings.ToUpper(c.Type),
			Default:  c.DefaultValue.String,
			Nullable: !c.NotNull && c.Pk == 0,
		}

		// A single INTEGER primary key is an alias for the rowid
		column.AutoIncr = c.Pk == 1 && nPkeys == 1 && column.DBType == "INTEGER"

		columns = append(columns, column)
	}

	return columns, nil
}

type foreignKeyInfo struct {
	ID       int            `db:"id"`
	Seq      int            `db:"seq"`
	Table    string         `db:"table"`
	From     string         `db:"from"`
	To       sql.NullString `db:"to"`
	OnUpdate string         `db:"on_update"`
	OnDelete string         `db:"on_delete"`
	Match    string         `db:"match"`
}

// Constraints reads the keys of each table with PRAGMA statements.
// SQLite does not name its keys so names are derived from the table.
func (d *Driver) Constraints(ctx context.Context, colFilter drivers.ColumnFilter) (drivers.DBConstraints, error) {
	ret := drivers.DBConstraints{
		PKs: map[string]*drivers.Constraint{},
		FKs: map[string][]drivers.ForeignKey{},
	}

	keys := make([]string, 0, len(colFilter))
	for key := range colFilter {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		schema, name := d.split(key)

		tinfo, err := d.tableInfo(ctx, schema, name)
		if err != nil {
			return ret, fmt.Errorf("unable to load primary key of %s: %w", key, err)
		}
		if pk := primaryKey(key, tinfo); pk != nil {
			ret.PKs[key] = pk
		}

		query := fmt.Sprintf("PRAGMA %q.foreign_key_list(%q)", schema, name)
		rows, err := stdscan.All(ctx, d.conn, scan.StructMapper[foreignKeyInfo](), query)
		if err != nil {
			return ret, fmt.Errorf("unable to load foreign keys of %s: %w", key, err)
		}

		for i, row := range rows {
			if row.To.Valid {
				continue
			}
			// The key points at the primary key of the foreign table
			ftinfo, err := d.tableInfo(ctx, schema, row.Table)
			if err != nil {
				return ret, fmt.Errorf("unable to load primary key of %s: %w", row.Table, err)
			}
			if pk := primaryKey(row.Table, ftinfo); pk != nil && row.Seq < len(pk.Columns) {
				rows[i].To = sql.NullString{String: pk.Columns[row.Seq], Valid: true}
			}
		}

		ret.FKs[key] = foreignKeys(name, d.key(schema, ""), rows)
		if len(ret.FKs[key]) == 0 {
			delete(ret.FKs, key)
		}
	}

	return ret, nil
}

// primaryKey orders the key columns by their position in the key
func primaryKey(table string, tinfo []columnInfo) *drivers.Constraint {
	pkCols := slices.Clone(tinfo)
	pkCols = slices.DeleteFunc(pkCols, func(c columnInfo) bool { return c.Pk == 0 })
	if len(pkCols) == 0 {
		return nil
	}

	sort.SliceStable(pkCols, func(i, j int) bool { return pkCols[i].Pk < pkCols[j].Pk })

	cols := make([]string, len(pkCols))
	for i, c := range pkCols {
		cols[i] = c.Name
	}

	return &drivers.Constraint{
		Name:    "pk_" + strings.ReplaceAll(table, ".", "_"),
		Columns: cols,
	}
}

// foreignKeys groups the rows of foreign_key_list by key id.
// prefix is prepended to the foreign table to build its key.
func foreignKeys(table, prefix string, rows []foreignKeyInfo) []drivers.ForeignKey {
	byID := map[int]*drivers.ForeignKey{}
	var ids []int

	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].ID != rows[j].ID {
			return rows[i].ID < rows[j].ID
		}
		return rows[i].Seq < rows[j].Seq
	})

	for _, row := range rows {
		fk, ok := byID[row.ID]
		if !ok {
			fk = &drivers.ForeignKey{
				Constraint: drivers.Constraint{
					Name: fmt.Sprintf("fk_%s_%d", table, row.ID),
				},
				ForeignTable: prefix + row.Table,
			}
			byID[row.ID] = fk
			ids = append(ids, row.ID)
		}

		fk.Columns = append(fk.Columns, row.From)
		fk.ForeignColumns = append(fk.ForeignColumns, row.To.String)
	}

	fks := make([]drivers.ForeignKey, len(ids))
	for i, id := range ids {
		fks[i] = *byID[id]
	}

	return fks
}

// key leaves out the shared schema
func (d *Driver) key(schema, table string) string {
	if schema != "" && schema != d.config.SharedSchema {
		return schema + "." + table
	}
	return table
}

func (d *Driver) schema(schema string) string {
	if schema == d.config.SharedSchema {
		return ""
	}
	return schema
}

// split reverses key
func (d *Driver) split(key string) (string, string) {
	for _, schema := range d.schemas() {
		if schema == d.config.SharedSchema {
			continue
		}
		if name, ok := strings.CutPrefix(key, schema+"."); ok {
			return schema, name
		}
	}
	return d.config.SharedSchema, key
}
