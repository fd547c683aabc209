//go:build duckdb_arrow

package duckdbtable

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/duckdb/duckdb-go/v2"
)

// Scan runs the query on a dedicated connection and returns its batches.
// The batches are read before the connection is returned to the pool.
// Caller MUST call reader.Release().
func (s Source) Scan(ctx context.Context) (array.RecordReader, error) {
	if s.DB == nil {
		return nil, errors.New("duckdb source: db cannot be nil")
	}

	conn, err := s.DB.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("duckdb source: acquire connection: %w", err)
	}
	defer conn.Close()

	var (
		schema  *arrow.Schema
		batches []arrow.RecordBatch
	)
	err = conn.Raw(func(raw any) error {
		dc, ok := raw.(driver.Conn)
		if !ok {
			return ErrNotDuckDB
		}
		ar, err := duckdb.NewArrowFromConn(dc)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrNotDuckDB, err)
		}

		rdr, err := ar.QueryContext(ctx, s.Query, s.Args...)
		if err != nil {
			return err
		}
		defer rdr.Release()

		schema = rdr.Schema()
		for rdr.Next() {
			rec := rdr.RecordBatch()
			rec.Retain()
			batches = append(batches, rec)
		}
		return rdr.Err()
	})
	if err != nil {
		for _, b := range batches {
			b.Release()
		}
		return nil, fmt.Errorf("duckdb source: query: %w", err)
	}

	rdr, err := array.NewRecordReader(schema, batches)
	for _, b := range batches {
		b.Release()
	}
	if err != nil {
		return nil, fmt.Errorf("duckdb source: %w", err)
	}
	return rdr, nil
}
