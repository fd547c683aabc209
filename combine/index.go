package combine

import (
	"context"
	"fmt"

	"github.com/RoaringBitmap/roaring"
	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/compute"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/hugr-lab/adaptive-filter/table"
)

// ResultIndex is the set of rows that pass every active filter.
// It is immutable once returned.
type ResultIndex struct {
	bm  *roaring.Bitmap
	tbl *table.Table
}

func newIndex(tbl *table.Table, bm *roaring.Bitmap) *ResultIndex {
	bm.RunOptimize()
	return &ResultIndex{bm: bm, tbl: tbl}
}

// Full returns the index of every row of tbl.
func Full(tbl *table.Table) *ResultIndex {
	bm := roaring.New()
	bm.AddRange(0, uint64(tbl.NumRows()))
	return newIndex(tbl, bm)
}

// Len returns the number of matching rows.
func (r *ResultIndex) Len() int {
	return int(r.bm.GetCardinality())
}

// NumRows returns the row count of the table the index was computed for.
func (r *ResultIndex) NumRows() int {
	return r.tbl.NumRows()
}

// Positions returns the matching row positions in ascending order.
func (r *ResultIndex) Positions() []int {
	out := make([]int, 0, r.bm.GetCardinality())
	it := r.bm.Iterator()
	for it.HasNext() {
		out = append(out, int(it.Next()))
	}
	return out
}

// RowIDs returns the identifiers of the matching rows in row order.
func (r *ResultIndex) RowIDs() []int64 {
	out := make([]int64, 0, r.bm.GetCardinality())
	it := r.bm.Iterator()
	for it.HasNext() {
		out = append(out, r.tbl.RowID(int(it.Next())))
	}
	return out
}

// ContainsPosition reports whether the row at pos matches.
func (r *ResultIndex) ContainsPosition(pos int) bool {
	if pos < 0 {
		return false
	}
	return r.bm.Contains(uint32(pos))
}

// Equal reports whether both indexes select the same rows.
func (r *ResultIndex) Equal(other *ResultIndex) bool {
	if r == nil || other == nil {
		return r == other
	}
	return r.bm.Equals(other.bm)
}

// Bitmap returns a copy of the underlying position bitmap.
func (r *ResultIndex) Bitmap() *roaring.Bitmap {
	return r.bm.Clone()
}

// Mask returns a boolean array with one entry per table row.
// The caller must Release it.
func (r *ResultIndex) Mask(mem memory.Allocator) *array.Boolean {
	n := r.tbl.NumRows()
	b := array.NewBooleanBuilder(mem)
	defer b.Release()

	b.Reserve(n)
	for i := range n {
		b.UnsafeAppend(r.bm.Contains(uint32(i)))
	}
	return b.NewBooleanArray()
}

// Apply returns the matching rows of tbl as a new record batch.
// tbl must have the row count the index was computed for. Memory is
// allocated from the allocator of ctx (compute.WithAllocator).
// The caller must Release the result.
func (r *ResultIndex) Apply(ctx context.Context, tbl *table.Table) (arrow.RecordBatch, error) {
	if tbl.NumRows() != r.tbl.NumRows() {
		return nil, fmt.Errorf("combine: index covers %d rows, table has %d", r.tbl.NumRows(), tbl.NumRows())
	}

	mask := r.Mask(compute.GetAllocator(ctx))
	defer mask.Release()

	rec, err := compute.FilterRecordBatch(ctx, tbl.Record(), mask, compute.DefaultFilterOptions())
	if err != nil {
		return nil, fmt.Errorf("combine: filter record: %w", err)
	}
	return rec, nil
}

func (r *ResultIndex) String() string {
	return fmt.Sprintf("ResultIndex(%d/%d)", r.Len(), r.tbl.NumRows())
}
