package driver

import (
	"context"
	"database/sql"

	"github.com/lib/pq"
	"github.com/stephenafamo/relgen/gen/drivers"
	"github.com/stephenafamo/scan"
	"github.com/stephenafamo/scan/stdscan"
)

// Constraints loads every primary and foreign key in the schemas
// with a single query
func (d *Driver) Constraints(ctx context.Context, _ drivers.ColumnFilter) (drivers.DBConstraints, error) {
	ret := drivers.DBConstraints{
		PKs: map[string]*drivers.Constraint{},
		FKs: map[string][]drivers.ForeignKey{},
	}

	query := `SELECT 
		nsp.nspname as schema
		, rel.relname as table
		, con.conname as name
		, con.contype as type
		, max(fnsp.nspname) as foreign_schema
		, max(out.relname) as foreign_table
		, array_agg(local_cols.column_name ORDER BY local_cols.ordinal_position) as columns
		, (
			case when con.contype = 'f'
			then array_agg(foreign_cols.column_name ORDER BY foreign_cols.ordinal_position)
			else array[]::text[] end
		) as foreign_columns
	FROM pg_catalog.pg_constraint con
	
	INNER JOIN pg_catalog.pg_class rel
		ON rel.oid = con.conrelid
		
	LEFT JOIN pg_catalog.pg_class out
		ON out.oid = con.confrelid
		
	INNER JOIN pg_catalog.pg_namespace nsp
		ON nsp.oid = rel.relnamespace
		
	LEFT JOIN pg_catalog.pg_namespace fnsp
		ON fnsp.oid = out.relnamespace
		
	LEFT JOIN information_schema.columns local_cols
		ON local_cols.table_schema = nsp.nspname 
		AND local_cols.table_name = rel.relname 
		AND local_cols.ordinal_position = ANY(con.conkey)
		
	LEFT JOIN information_schema.columns foreign_cols
		ON foreign_cols.table_schema = fnsp.nspname 
		AND foreign_cols.table_name = out.relname 
		AND foreign_cols.ordinal_position = ANY(con.confkey)
		
	WHERE nsp.nspname = ANY($1)
	AND con.contype IN ('p', 'f')
	GROUP BY nsp.nspname, rel.relname, name, con.contype
	ORDER BY nsp.nspname, rel.relname, name, con.contype`

	constraints, err := stdscan.All(ctx, d.conn, scan.StructMapper[struct {
		Schema         string
		Table          string
		Name           string
		Type           string
		Columns        pq.StringArray
		ForeignSchema  sql.NullString
		ForeignTable   sql.NullString
		ForeignColumns pq.StringArray
	}](), query, d.config.Schemas)
	if err != nil {
		return ret, err
	}

	for _, c := range constraints {
		key := d.key(c.Schema, c.Table)

		switch c.Type {
		case "p":
			ret.PKs[key] = &drivers.Constraint{
				Name:    c.Name,
				Columns: dedupe(c.Columns),
			}
		case "f":
			ret.FKs[key] = append(ret.FKs[key], drivers.ForeignKey{
				Constraint: drivers.Constraint{
					Name:    c.Name,
					Columns: dedupe(c.Columns),
				},
				ForeignTable:   d.key(c.ForeignSchema.String, c.ForeignTable.String),
				ForeignColumns: dedupe(c.ForeignColumns),
			})
		}
	}

	return ret, nil
}

// key matches the keyClause used when listing tables
func (d *Driver) key(schema, table string) string {
	if schema != "" && schema != d.config.SharedSchema {
		return schema + "." + table
	}
	return table
}

// dedupe removes the repeats caused by joining both column lists
// of a multi column key, keeping the order
func dedupe(cols []string) []string {
	seen := make(map[string]struct{}, len(cols))
	out := make([]string, 0, len(cols))
	for _, c := range cols {
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	return out
}
