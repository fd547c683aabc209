package table

import (
	"fmt"
	"reflect"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkb"
)

// geometryExtensionName is the GeoArrow identifier used by DuckDB spatial and GeoParquet.
const geometryExtensionName = "geoarrow.wkb"

// GeometryExtensionType is the Arrow extension type for WKB-encoded geometries.
type GeometryExtensionType struct {
	arrow.ExtensionBase
}

// GeometryArray is the array type backing GeometryExtensionType columns.
type GeometryArray struct {
	array.ExtensionArrayBase
}

// NewGeometryExtensionType creates a geometry extension type over Binary storage.
func NewGeometryExtensionType() *GeometryExtensionType {
	return &GeometryExtensionType{
		ExtensionBase: arrow.ExtensionBase{
			Storage: arrow.BinaryTypes.Binary,
		},
	}
}

// ArrayType returns the Go type for geometry arrays.
func (g *GeometryExtensionType) ArrayType() reflect.Type {
	return reflect.TypeOf(GeometryArray{})
}

// ExtensionName returns "geoarrow.wkb".
func (g *GeometryExtensionType) ExtensionName() string {
	return geometryExtensionName
}

func (g *GeometryExtensionType) String() string {
	return "extension<" + geometryExtensionName + ">"
}

// Serialize returns the extension metadata (empty for plain WKB).
func (g *GeometryExtensionType) Serialize() string {
	return ""
}

// Deserialize creates a geometry extension type for Binary or LargeBinary storage.
func (g *GeometryExtensionType) Deserialize(storageType arrow.DataType, data string) (arrow.ExtensionType, error) {
	if !arrow.TypeEqual(storageType, arrow.BinaryTypes.Binary) &&
		!arrow.TypeEqual(storageType, arrow.BinaryTypes.LargeBinary) {
		return nil, fmt.Errorf("invalid storage type for geometry: %s (expected Binary or LargeBinary)", storageType)
	}
	return &GeometryExtensionType{
		ExtensionBase: arrow.ExtensionBase{Storage: storageType},
	}, nil
}

// ExtensionEquals checks equality with another extension type.
func (g *GeometryExtensionType) ExtensionEquals(other arrow.ExtensionType) bool {
	otherGeom, ok := other.(*GeometryExtensionType)
	if !ok {
		return false
	}
	return arrow.TypeEqual(g.StorageType(), otherGeom.StorageType())
}

// NewGeometryField creates a Binary field tagged as geoarrow.wkb through field metadata.
// This is the shape DuckDB produces when exporting GEOMETRY columns to Arrow.
func NewGeometryField(name string, nullable bool) arrow.Field {
	return arrow.Field{
		Name:     name,
		Type:     arrow.BinaryTypes.Binary,
		Nullable: nullable,
		Metadata: arrow.MetadataFrom(map[string]string{
			"ARROW:extension:name": geometryExtensionName,
		}),
	}
}

// IsGeometryField reports whether the field holds WKB geometries, either through
// the registered extension type or through extension metadata on a binary field.
func IsGeometryField(f arrow.Field) bool {
	if ext, ok := f.Type.(arrow.ExtensionType); ok {
		return ext.ExtensionName() == geometryExtensionName
	}
	if f.Type.ID() != arrow.BINARY && f.Type.ID() != arrow.LARGE_BINARY {
		return false
	}
	if idx := f.Metadata.FindKey("ARROW:extension:name"); idx >= 0 {
		return f.Metadata.Values()[idx] == geometryExtensionName
	}
	return false
}

// EncodeGeometry converts an orb.Geometry to WKB bytes for Arrow storage.
func EncodeGeometry(geom orb.Geometry) ([]byte, error) {
	if geom == nil {
		return nil, fmt.Errorf("cannot encode nil geometry")
	}
	return wkb.Marshal(geom)
}

// DecodeGeometry converts WKB bytes from Arrow storage to orb.Geometry.
func DecodeGeometry(wkbBytes []byte) (orb.Geometry, error) {
	if len(wkbBytes) == 0 {
		return nil, fmt.Errorf("cannot decode empty WKB data")
	}
	return wkb.Unmarshal(wkbBytes)
}

// GeometryTypeName returns the WKB type name for a geometry.
func GeometryTypeName(geom orb.Geometry) string {
	switch geom.(type) {
	case orb.Point:
		return "Point"
	case orb.MultiPoint:
		return "MultiPoint"
	case orb.LineString:
		return "LineString"
	case orb.MultiLineString:
		return "MultiLineString"
	case orb.Polygon:
		return "Polygon"
	case orb.MultiPolygon:
		return "MultiPolygon"
	case orb.Collection:
		return "GeometryCollection"
	default:
		return "Unknown"
	}
}

func init() {
	_ = arrow.RegisterExtensionType(NewGeometryExtensionType())
}
