// Package duckdbtable loads filter tables from DuckDB queries through
// duckdb-go's Arrow interface.
//
// duckdb-go compiles its Arrow interface only with the duckdb_arrow build
// tag. Without the tag the package still builds, and every Source reports
// ErrArrowUnavailable:
//
//	go build -tags duckdb_arrow ./...
package duckdbtable
