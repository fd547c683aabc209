package duckdbtable

import (
	"context"
	"database/sql"
	"errors"

	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/hugr-lab/adaptive-filter/table"
)

var (
	// ErrNotDuckDB indicates a *sql.DB that is not backed by the duckdb driver.
	ErrNotDuckDB = errors.New("connection is not a duckdb connection")

	// ErrArrowUnavailable indicates a binary built without the duckdb_arrow tag.
	ErrArrowUnavailable = errors.New("duckdb arrow interface unavailable: build with -tags duckdb_arrow")
)

// Query runs query on db and materializes its result into a Table.
// Caller must Release the table.
//
// Example:
//
//	db, _ := sql.Open("duckdb", "tips.db")
//	tbl, err := duckdbtable.Query(ctx, db, "SELECT * FROM tips WHERE size > ?", 1)
func Query(ctx context.Context, db *sql.DB, query string, args ...any) (*table.Table, error) {
	return table.Load(ctx, Source{DB: db, Query: query, Args: args}, nil)
}

// Source is a table.Source reading the result of a DuckDB query.
type Source struct {
	DB    *sql.DB
	Query string
	Args  []any
}

// Load materializes the source into a Table using mem.
func (s Source) Load(ctx context.Context, mem memory.Allocator) (*table.Table, error) {
	return table.Load(ctx, s, mem)
}
