//go:build !duckdb_arrow

package duckdbtable

import (
	"context"

	"github.com/apache/arrow-go/v18/arrow/array"
)

// Scan always fails with ErrArrowUnavailable.
func (s Source) Scan(context.Context) (array.RecordReader, error) {
	return nil, ErrArrowUnavailable
}
