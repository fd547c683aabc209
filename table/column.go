package table

import (
	"strconv"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/paulmach/orb"
)

// Value is one cell of a column, decoded for predicate evaluation.
type Value struct {
	// Valid is false for nulls; all other fields are zero then.
	Valid bool

	// Text is the categorical representation of the value.
	// Set for every valid value.
	Text string

	// Num is set for numeric columns.
	Num float64

	// Time is set for date and timestamp columns (UTC).
	Time time.Time

	// Geom is set for geometry columns with decodable WKB.
	Geom orb.Geometry
}

// Column is a read-only view of one table column.
type Column struct {
	Name  string
	Field arrow.Field

	arr      arrow.Array
	geometry bool
}

func newColumn(field arrow.Field, arr arrow.Array) *Column {
	c := &Column{
		Name:     field.Name,
		Field:    field,
		arr:      arr,
		geometry: IsGeometryField(field),
	}
	if ext, ok := arr.(array.ExtensionArray); ok {
		c.arr = ext.Storage()
	}
	return c
}

// Len returns the number of rows.
func (c *Column) Len() int {
	return c.arr.Len()
}

// DataType returns the storage type of the column.
func (c *Column) DataType() arrow.DataType {
	return c.arr.DataType()
}

// IsGeometry reports whether the column holds WKB geometries.
func (c *Column) IsGeometry() bool {
	return c.geometry
}

// IsNull reports whether row i is null.
func (c *Column) IsNull(i int) bool {
	return c.arr.IsNull(i)
}

// Value decodes row i.
func (c *Column) Value(i int) Value {
	if c.arr.IsNull(i) {
		return Value{}
	}

	if n, ok := intValue(c.arr, i); ok {
		v := Value{Valid: true, Num: float64(n), Text: strconv.FormatInt(n, 10)}
		if u, ok := c.arr.(*array.Uint64); ok {
			v.Num = float64(u.Value(i))
			v.Text = strconv.FormatUint(u.Value(i), 10)
		}
		return v
	}

	switch a := c.arr.(type) {
	case *array.Float16:
		return floatValue(float64(a.Value(i).Float32()))
	case *array.Float32:
		return floatValue(float64(a.Value(i)))
	case *array.Float64:
		return floatValue(a.Value(i))
	case *array.Decimal128:
		scale := a.DataType().(*arrow.Decimal128Type).Scale
		return floatValue(a.Value(i).ToFloat64(scale))
	case *array.Boolean:
		return Value{Valid: true, Text: strconv.FormatBool(a.Value(i))}
	case *array.String:
		return Value{Valid: true, Text: a.Value(i)}
	case *array.LargeString:
		return Value{Valid: true, Text: a.Value(i)}
	case *array.Dictionary:
		return Value{Valid: true, Text: a.Dictionary().ValueStr(a.GetValueIndex(i))}
	case *array.Date32:
		return timeValue(a.Value(i).ToTime(), "2006-01-02")
	case *array.Date64:
		return timeValue(a.Value(i).ToTime(), "2006-01-02")
	case *array.Timestamp:
		unit := a.DataType().(*arrow.TimestampType).Unit
		return timeValue(a.Value(i).ToTime(unit), time.RFC3339Nano)
	case *array.Binary:
		if c.geometry {
			return geometryValue(a.Value(i))
		}
	case *array.LargeBinary:
		if c.geometry {
			return geometryValue(a.Value(i))
		}
	}

	return Value{Valid: true, Text: c.arr.ValueStr(i)}
}

func floatValue(f float64) Value {
	return Value{Valid: true, Num: f, Text: strconv.FormatFloat(f, 'f', -1, 64)}
}

func timeValue(t time.Time, layout string) Value {
	t = t.UTC()
	return Value{Valid: true, Time: t, Text: t.Format(layout)}
}

func geometryValue(wkb []byte) Value {
	g, err := DecodeGeometry(wkb)
	if err != nil {
		// undecodable geometry behaves like null for filtering
		return Value{}
	}
	return Value{Valid: true, Geom: g, Text: GeometryTypeName(g)}
}
