package table

import (
	"context"
	"fmt"
	"io"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/csv"
	"github.com/apache/arrow-go/v18/arrow/memory"
)

// Source provides table data as a RecordReader.
// Implementations connect the engine to a data store; the engine only reads.
type Source interface {
	// Scan returns a reader over all rows.
	// Caller MUST call reader.Release().
	Scan(ctx context.Context) (array.RecordReader, error)
}

// ScanFunc adapts a function to the Source interface.
type ScanFunc func(ctx context.Context) (array.RecordReader, error)

// Scan implements Source.
func (f ScanFunc) Scan(ctx context.Context) (array.RecordReader, error) {
	return f(ctx)
}

// Load scans src and materializes all batches into one Table.
// If mem is nil, memory.DefaultAllocator is used.
func Load(ctx context.Context, src Source, mem memory.Allocator) (*Table, error) {
	rdr, err := src.Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("scan table source: %w", err)
	}
	defer rdr.Release()

	return FromReader(ctx, rdr, mem)
}

// FromReader drains rdr into one Table, concatenating batches column by column.
// The reader is not released.
func FromReader(ctx context.Context, rdr array.RecordReader, mem memory.Allocator) (*Table, error) {
	if mem == nil {
		mem = memory.DefaultAllocator
	}

	var batches []arrow.RecordBatch
	defer func() {
		for _, b := range batches {
			b.Release()
		}
	}()

	for rdr.Next() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rec := rdr.RecordBatch()
		rec.Retain()
		batches = append(batches, rec)
	}
	if err := rdr.Err(); err != nil {
		return nil, fmt.Errorf("read table batches: %w", err)
	}

	schema := rdr.Schema()
	switch len(batches) {
	case 0:
		rec := emptyRecord(array.NewRecordBuilder(mem, schema))
		defer rec.Release()
		return New(rec)
	case 1:
		return New(batches[0])
	}

	var rows int64
	for _, b := range batches {
		rows += b.NumRows()
	}

	cols := make([]arrow.Array, schema.NumFields())
	defer func() {
		for _, c := range cols {
			if c != nil {
				c.Release()
			}
		}
	}()
	for i := range cols {
		parts := make([]arrow.Array, len(batches))
		for j, b := range batches {
			parts[j] = b.Column(i)
		}
		merged, err := array.Concatenate(parts, mem)
		if err != nil {
			return nil, fmt.Errorf("concatenate column %s: %w", schema.Field(i).Name, err)
		}
		cols[i] = merged
	}

	rec := array.NewRecordBatch(schema, cols, rows)
	defer rec.Release()
	return New(rec)
}

// ReadCSV reads a CSV document with a header row into a Table.
// Column types are inferred from the data; empty cells are nulls.
func ReadCSV(ctx context.Context, r io.Reader, mem memory.Allocator) (*Table, error) {
	if mem == nil {
		mem = memory.DefaultAllocator
	}
	rdr := csv.NewInferringReader(r,
		csv.WithHeader(true),
		csv.WithAllocator(mem),
		csv.WithNullReader(true, ""),
	)
	defer rdr.Release()

	return FromReader(ctx, rdr, mem)
}
