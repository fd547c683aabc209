//go:build !duckdb_arrow

package duckdbtable_test

import (
	"context"
	"errors"
	"testing"

	"github.com/hugr-lab/adaptive-filter/duckdbtable"
)

func TestQueryWithoutArrow(t *testing.T) {
	_, err := duckdbtable.Query(context.Background(), nil, "SELECT 1")
	if !errors.Is(err, duckdbtable.ErrArrowUnavailable) {
		t.Errorf("expected ErrArrowUnavailable, got %v", err)
	}
}
