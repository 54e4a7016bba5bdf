// Package drivers talks to various database backends and retrieves table,
// column, primary key and foreign key information
package drivers

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"golang.org/x/sync/errgroup"
)

// Interface abstracts the database backend that is queried in order to
// produce the schema facts required for generation.
type Interface interface {
	// The dialect
	Dialect() string
	// Assemble the database information into a nice struct
	Assemble(ctx context.Context) (*DBInfo, error)
}

// DBInfo is the database's table data and dialect.
type DBInfo struct {
	Tables []Table `json:"tables"`
	// The database/sql driver used to read the schema
	Driver string `json:"driver"`
}

type TablesInfo []TableInfo

type TableInfo struct {
	Key    string
	Schema string
	Name   string
}

func (t TablesInfo) Keys() []string {
	keys := make([]string, len(t))
	for i, info := range t {
		keys[i] = info.Key
	}
	return keys
}

// Constructor breaks down the functionality required to implement a driver
// such that the drivers.BuildDBInfo method can be used to reduce duplication
// in driver implementations.
type Constructor interface {
	// Load all constraints in the database, keyed by TableInfo.Key
	Constraints(context.Context, ColumnFilter) (DBConstraints, error)

	// Load basic info about all tables
	TablesInfo(context.Context, Filter) (TablesInfo, error)
	// Load details about a single table
	TableDetails(ctx context.Context, info TableInfo, filter ColumnFilter) (schema, name string, _ []Column, _ error)
}

// BuildDBInfo lists the tables left by the filters, loads their columns with
// at most concurrency queries in flight and then attaches the keys from a
// single Constraints call. Tables are returned sorted by key.
func BuildDBInfo(ctx context.Context, c Constructor, concurrency int, only, except map[string][]string) ([]Table, error) {
	infos, err := c.TablesInfo(ctx, ParseTableFilter(only, except))
	if err != nil {
		return nil, fmt.Errorf("unable to get table names: %w", err)
	}

	slices.SortFunc(infos, func(a, b TableInfo) int {
		return strings.Compare(a.Key, b.Key)
	})

	colFilter := ParseColumnFilter(infos.Keys(), only, except)

	tables, err := loadTables(ctx, c, max(concurrency, 1), infos, colFilter)
	if err != nil {
		return nil, fmt.Errorf("unable to load tables: %w", err)
	}

	constraints, err := c.Constraints(ctx, colFilter)
	if err != nil {
		return nil, fmt.Errorf("unable to load constraints: %w", err)
	}

	for i := range tables {
		key := tables[i].Key
		tables[i].Constraints = Constraints{
			Primary: constraints.PKs[key],
			Foreign: constraints.FKs[key],
		}
	}

	return tables, nil
}

// loadTables stops at the first failure and cancels the queries still running
func loadTables(ctx context.Context, c Constructor, concurrency int, infos TablesInfo, filter ColumnFilter) ([]Table, error) {
	tables := make([]Table, len(infos))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for i, info := range infos {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			schema, name, columns, err := c.TableDetails(ctx, info, filter)
			if err != nil {
				return fmt.Errorf("unable to fetch table column info (%s): %w", info.Key, err)
			}

			tables[i] = Table{
				Key:     info.Key,
				Schema:  schema,
				Name:    name,
				Columns: columns,
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return tables, nil
}
