package features

import (
	"encoding/binary"
	"fmt"
	"math"
	"strconv"

	"github.com/agentstation/featuresync/pkg/constants"
	"github.com/agentstation/featuresync/pkg/errors"
)

// SpatialReference identifies the coordinate system a geometry is expressed in.
type SpatialReference struct {
	WKID int    `json:"wkid" yaml:"wkid"`
	Name string `json:"name" yaml:"name"`
}

// WGS84 is the geographic WGS 1984 spatial reference (EPSG:4326).
var WGS84 = SpatialReference{WKID: constants.WKIDWGS84, Name: "GCS_WGS_1984"}

// SpatialReferenceFromWKID returns a spatial reference for the given WKID.
// Only the name of well-known geographic systems is filled in.
func SpatialReferenceFromWKID(wkid int) (SpatialReference, error) {
	if wkid <= 0 {
		return SpatialReference{}, errors.NewValidationError("spatial_reference", wkid, "WKID must be positive")
	}
	if wkid == WGS84.WKID {
		return WGS84, nil
	}
	return SpatialReference{WKID: wkid, Name: "EPSG:" + strconv.Itoa(wkid)}, nil
}

// Geographic reports whether coordinates are longitude/latitude degrees.
func (sr SpatialReference) Geographic() bool {
	return sr.WKID == constants.WKIDWGS84
}

// String returns the reference as "NAME (WKID)".
func (sr SpatialReference) String() string {
	return fmt.Sprintf("%s (%d)", sr.Name, sr.WKID)
}

// Point is a two-dimensional point geometry. X is longitude and Y is
// latitude for geographic references.
type Point struct {
	X    float64 `json:"x" yaml:"x"`
	Y    float64 `json:"y" yaml:"y"`
	SRID int     `json:"srid" yaml:"srid"`
}

// XYToPoint builds a point from an x and y value under the given spatial
// reference. Geographic references reject coordinates outside the valid
// degree ranges.
func XYToPoint(x, y float64, sr SpatialReference) (Point, error) {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return Point{}, errors.NewValidationError(constants.FieldLongitude, x, "coordinate must be finite")
	}
	if math.IsNaN(y) || math.IsInf(y, 0) {
		return Point{}, errors.NewValidationError(constants.FieldLatitude, y, "coordinate must be finite")
	}
	if sr.Geographic() {
		if math.Abs(x) > constants.MaxLongitude {
			return Point{}, errors.NewValidationError(constants.FieldLongitude, x, "longitude out of range [-180, 180]")
		}
		if math.Abs(y) > constants.MaxLatitude {
			return Point{}, errors.NewValidationError(constants.FieldLatitude, y, "latitude out of range [-90, 90]")
		}
	}
	return Point{X: x, Y: y, SRID: sr.WKID}, nil
}

// WKT returns the well-known text of the point.
func (p Point) WKT() string {
	return fmt.Sprintf("POINT (%s %s)", formatCoord(p.X), formatCoord(p.Y))
}

// EWKT returns the PostGIS extended well-known text of the point.
func (p Point) EWKT() string {
	return fmt.Sprintf("SRID=%d;POINT(%s %s)", p.SRID, formatCoord(p.X), formatCoord(p.Y))
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

const (
	wkbNDR       = 1
	wkbPoint     = 1
	wkbPointSize = 21
)

// WKB returns the little-endian well-known binary encoding of the point.
func (p Point) WKB() []byte {
	buf := make([]byte, wkbPointSize)
	buf[0] = wkbNDR
	binary.LittleEndian.PutUint32(buf[1:5], wkbPoint)
	binary.LittleEndian.PutUint64(buf[5:13], math.Float64bits(p.X))
	binary.LittleEndian.PutUint64(buf[13:21], math.Float64bits(p.Y))
	return buf
}

// PointFromWKB decodes a WKB point in either byte order.
func PointFromWKB(b []byte, srid int) (Point, error) {
	if len(b) != wkbPointSize {
		return Point{}, fmt.Errorf("wkb point must be %d bytes, got %d", wkbPointSize, len(b))
	}
	var order binary.ByteOrder
	switch b[0] {
	case 0:
		order = binary.BigEndian
	case 1:
		order = binary.LittleEndian
	default:
		return Point{}, fmt.Errorf("invalid wkb byte order %d", b[0])
	}
	if kind := order.Uint32(b[1:5]); kind != wkbPoint {
		return Point{}, fmt.Errorf("unsupported wkb geometry type %d", kind)
	}
	return Point{
		X:    math.Float64frombits(order.Uint64(b[5:13])),
		Y:    math.Float64frombits(order.Uint64(b[13:21])),
		SRID: srid,
	}, nil
}

// Distance returns the distance between two points. Geographic points are
// measured along the great circle in metres, projected points on the plane
// in the units of their projection.
func Distance(a, b Point) float64 {
	if !(SpatialReference{WKID: a.SRID}).Geographic() {
		return math.Hypot(b.X-a.X, b.Y-a.Y)
	}
	lat1 := toRadians(a.Y)
	lat2 := toRadians(b.Y)
	dLat := lat2 - lat1
	dLon := toRadians(b.X) - toRadians(a.X)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return constants.EarthRadiusMeters * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180.0
}
