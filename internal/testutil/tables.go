// Package testutil builds sample tables shared by package tests.
package testutil

import (
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/hugr-lab/adaptive-filter/table"
)

// TipsSchema is the schema of the restaurant tips sample.
var TipsSchema = arrow.NewSchema([]arrow.Field{
	{Name: "total_bill", Type: arrow.PrimitiveTypes.Float64},
	{Name: "tip", Type: arrow.PrimitiveTypes.Float64},
	{Name: "sex", Type: arrow.BinaryTypes.String},
	{Name: "smoker", Type: arrow.BinaryTypes.String},
	{Name: "day", Type: arrow.BinaryTypes.String},
	{Name: "time", Type: arrow.BinaryTypes.String},
	{Name: "size", Type: arrow.PrimitiveTypes.Int64},
}, nil)

// Tips holds the column values of a tips table.
type Tips struct {
	TotalBill []float64
	Tip       []float64
	Sex       []string
	Smoker    []string
	Day       []string
	Time      []string
	Size      []int64
}

// FiveTips is the five-row sample used by the demo apps.
var FiveTips = Tips{
	TotalBill: []float64{16.99, 10.34, 21.01, 23.68, 24.59},
	Tip:       []float64{1.01, 1.66, 3.50, 3.31, 3.61},
	Sex:       []string{"Female", "Male", "Male", "Male", "Female"},
	Smoker:    []string{"No", "No", "No", "No", "Yes"},
	Day:       []string{"Sun", "Sun", "Sun", "Fri", "Sun"},
	Time:      []string{"Lunch", "Dinner", "Dinner", "Dinner", "Dinner"},
	Size:      []int64{2, 3, 3, 2, 4},
}

// DayTime is a five-row sample where day=Sun matches three rows and
// day=Sun AND time=Dinner matches two.
var DayTime = Tips{
	TotalBill: []float64{16.99, 10.34, 21.01, 23.68, 24.59},
	Tip:       []float64{1.01, 1.66, 3.50, 3.31, 3.61},
	Sex:       []string{"Female", "Male", "Male", "Male", "Female"},
	Smoker:    []string{"No", "No", "No", "No", "Yes"},
	Day:       []string{"Sun", "Sun", "Sun", "Fri", "Fri"},
	Time:      []string{"Lunch", "Dinner", "Dinner", "Dinner", "Lunch"},
	Size:      []int64{2, 3, 3, 2, 4},
}

// TenTips is the ten-row sample from the filter index walkthrough.
var TenTips = Tips{
	TotalBill: []float64{16.99, 10.34, 21.01, 23.68, 24.59, 25.29, 8.77, 26.88, 15.04, 14.78},
	Tip:       []float64{1.01, 1.66, 3.50, 3.31, 3.61, 4.71, 2.00, 3.12, 3.52, 3.00},
	Sex:       []string{"Female", "Male", "Male", "Male", "Female", "Male", "Male", "Male", "Male", "Female"},
	Smoker:    []string{"No", "No", "No", "No", "Yes", "No", "No", "Yes", "No", "Yes"},
	Day:       []string{"Sun", "Fri", "Sun", "Thu", "Sun", "Sun", "Sat", "Sat", "Sat", "Sat"},
	Time:      []string{"Dinner", "Dinner", "Lunch", "Dinner", "Lunch", "Dinner", "Lunch", "Dinner", "Lunch", "Dinner"},
	Size:      []int64{2, 3, 3, 2, 4, 4, 2, 4, 2, 2},
}

// Record builds an Arrow record from the sample. Caller must Release it.
func (s Tips) Record(mem memory.Allocator) arrow.RecordBatch {
	b := array.NewRecordBuilder(mem, TipsSchema)
	defer b.Release()

	b.Field(0).(*array.Float64Builder).AppendValues(s.TotalBill, nil)
	b.Field(1).(*array.Float64Builder).AppendValues(s.Tip, nil)
	b.Field(2).(*array.StringBuilder).AppendValues(s.Sex, nil)
	b.Field(3).(*array.StringBuilder).AppendValues(s.Smoker, nil)
	b.Field(4).(*array.StringBuilder).AppendValues(s.Day, nil)
	b.Field(5).(*array.StringBuilder).AppendValues(s.Time, nil)
	b.Field(6).(*array.Int64Builder).AppendValues(s.Size, nil)

	return b.NewRecordBatch()
}

// Table builds a Table from the sample and releases it when the test ends.
func (s Tips) Table(tb testing.TB, mem memory.Allocator) *table.Table {
	tb.Helper()

	rec := s.Record(mem)
	defer rec.Release()

	tbl, err := table.New(rec)
	if err != nil {
		tb.Fatalf("table.New failed: %v", err)
	}
	tb.Cleanup(tbl.Release)
	return tbl
}
