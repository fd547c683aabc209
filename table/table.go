// Package table provides the read-only tabular input of the adaptive filter engine.
//
// A Table wraps a single Arrow record batch together with a stable row identifier
// for every row. The engine never mutates the batch: it only reads column values
// and computes derived row sets.
package table

import (
	"errors"
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
)

var (
	// ErrDuplicateRowID indicates the rowid column contains the same identifier twice.
	ErrDuplicateRowID = errors.New("duplicate row identifier")

	// ErrNullRowID indicates the rowid column contains a null.
	ErrNullRowID = errors.New("null row identifier")
)

// Table is an immutable set of named columns addressed by row identifiers.
// Tables are safe for concurrent reads.
type Table struct {
	rec      arrow.RecordBatch
	rowIDs   []int64
	rowIDCol int
	columns  []*Column
	byName   map[string]*Column
}

// New creates a Table over rec. The record is retained; call Release when done.
//
// Row identifiers come from the rowid column (see FindRowIDColumn) when the
// schema has one, otherwise the 0-based row position is used.
func New(rec arrow.RecordBatch) (*Table, error) {
	if rec == nil {
		return nil, fmt.Errorf("table: nil record")
	}

	n := int(rec.NumRows())
	t := &Table{
		rec:      rec,
		rowIDCol: FindRowIDColumn(rec.Schema()),
		byName:   make(map[string]*Column),
	}

	if t.rowIDCol >= 0 {
		ids, err := readRowIDs(rec.Column(t.rowIDCol))
		if err != nil {
			return nil, err
		}
		t.rowIDs = ids
	} else {
		t.rowIDs = make([]int64, n)
		for i := range t.rowIDs {
			t.rowIDs[i] = int64(i)
		}
	}

	schema := rec.Schema()
	for i := 0; i < schema.NumFields(); i++ {
		if i == t.rowIDCol {
			continue
		}
		col := newColumn(schema.Field(i), rec.Column(i))
		t.columns = append(t.columns, col)
		t.byName[col.Name] = col
	}

	rec.Retain()
	return t, nil
}

// readRowIDs extracts unique integer identifiers from the rowid column.
func readRowIDs(arr arrow.Array) ([]int64, error) {
	ids := make([]int64, arr.Len())
	seen := make(map[int64]struct{}, arr.Len())
	for i := range ids {
		if arr.IsNull(i) {
			return nil, fmt.Errorf("%w at row %d", ErrNullRowID, i)
		}
		id, ok := intValue(arr, i)
		if !ok {
			return nil, fmt.Errorf("table: rowid column has non-integer type %s", arr.DataType())
		}
		if _, dup := seen[id]; dup {
			return nil, fmt.Errorf("%w: %d", ErrDuplicateRowID, id)
		}
		seen[id] = struct{}{}
		ids[i] = id
	}
	return ids, nil
}

// Release releases the underlying record batch.
func (t *Table) Release() {
	t.rec.Release()
}

// Record returns the underlying record batch. The caller must not mutate it.
func (t *Table) Record() arrow.RecordBatch {
	return t.rec
}

// Schema returns the Arrow schema of the table, including any rowid column.
func (t *Table) Schema() *arrow.Schema {
	return t.rec.Schema()
}

// NumRows returns the number of rows.
func (t *Table) NumRows() int {
	return int(t.rec.NumRows())
}

// Columns returns the filterable columns in schema order.
// The rowid column, if any, is not included.
func (t *Table) Columns() []*Column {
	return t.columns
}

// Column returns a column by name.
func (t *Table) Column(name string) (*Column, bool) {
	c, ok := t.byName[name]
	return c, ok
}

// RowID returns the identifier of the row at position pos.
func (t *Table) RowID(pos int) int64 {
	return t.rowIDs[pos]
}

// RowIDs returns a copy of all row identifiers in row order.
func (t *Table) RowIDs() []int64 {
	out := make([]int64, len(t.rowIDs))
	copy(out, t.rowIDs)
	return out
}

// HasRowIDColumn reports whether identifiers come from a rowid column.
func (t *Table) HasRowIDColumn() bool {
	return t.rowIDCol >= 0
}

// emptyRecord builds a zero-row record for schema.
func emptyRecord(b *array.RecordBuilder) arrow.RecordBatch {
	defer b.Release()
	return b.NewRecordBatch()
}
