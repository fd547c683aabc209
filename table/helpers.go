package table

import (
	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
)

// FindRowIDColumn returns the index of the rowid column in the schema.
// Returns -1 if no rowid column is found.
//
// Rowid column is identified by:
//   - Column name "rowid" (case-sensitive), or
//   - Metadata key "is_rowid" with non-empty value
//
// Example:
//
//	idx := table.FindRowIDColumn(rec.Schema())
//	if idx == -1 {
//	    // rows are identified by position
//	}
func FindRowIDColumn(schema *arrow.Schema) int {
	if schema == nil {
		return -1
	}

	for i := 0; i < schema.NumFields(); i++ {
		field := schema.Field(i)
		if field.Name == "rowid" {
			return i
		}
		if md := field.Metadata; md.Len() > 0 {
			if idx := md.FindKey("is_rowid"); idx >= 0 && md.Values()[idx] != "" {
				return i
			}
		}
	}
	return -1
}

// intValue reads an integer cell of any signed or unsigned integer array.
func intValue(arr arrow.Array, i int) (int64, bool) {
	switch a := arr.(type) {
	case *array.Int8:
		return int64(a.Value(i)), true
	case *array.Int16:
		return int64(a.Value(i)), true
	case *array.Int32:
		return int64(a.Value(i)), true
	case *array.Int64:
		return a.Value(i), true
	case *array.Uint8:
		return int64(a.Value(i)), true
	case *array.Uint16:
		return int64(a.Value(i)), true
	case *array.Uint32:
		return int64(a.Value(i)), true
	case *array.Uint64:
		return int64(a.Value(i)), true
	default:
		return 0, false
	}
}

// IsNumericType reports whether dt holds numbers the engine can compare.
func IsNumericType(dt arrow.DataType) bool {
	switch dt.ID() {
	case arrow.INT8, arrow.INT16, arrow.INT32, arrow.INT64,
		arrow.UINT8, arrow.UINT16, arrow.UINT32, arrow.UINT64,
		arrow.FLOAT16, arrow.FLOAT32, arrow.FLOAT64, arrow.DECIMAL128:
		return true
	}
	return false
}

// IsIntegerType reports whether dt is a signed or unsigned integer type.
func IsIntegerType(dt arrow.DataType) bool {
	switch dt.ID() {
	case arrow.INT8, arrow.INT16, arrow.INT32, arrow.INT64,
		arrow.UINT8, arrow.UINT16, arrow.UINT32, arrow.UINT64:
		return true
	}
	return false
}

// IsTemporalType reports whether dt is a date or timestamp type.
func IsTemporalType(dt arrow.DataType) bool {
	switch dt.ID() {
	case arrow.DATE32, arrow.DATE64, arrow.TIMESTAMP:
		return true
	}
	return false
}

// IsTextType reports whether dt holds strings, directly or dictionary-encoded.
func IsTextType(dt arrow.DataType) bool {
	switch dt.ID() {
	case arrow.STRING, arrow.LARGE_STRING:
		return true
	case arrow.DICTIONARY:
		return IsTextType(dt.(*arrow.DictionaryType).ValueType)
	}
	return false
}
