// internal/geo/geometry.go
package geo

import (
	"errors"
	"math"
)

const (
	// EarthRadiusKm is the mean Earth radius used by Area.
	EarthRadiusKm = 6371.0

	// MinPolygonPoints is the smallest vertex count of a usable ring.
	MinPolygonPoints = 3

	degenerateAreaEpsilon = 1e-12
)

var (
	ErrTooFewPoints      = errors.New("polygon requires at least 3 points")
	ErrInvalidCoordinate = errors.New("coordinate out of range")
	ErrDegenerate        = errors.New("polygon has no area")
)

// Coordinate is a WGS84 latitude/longitude pair in degrees.
type Coordinate struct {
	Lat float64 `json:"lat" yaml:"lat"`
	Lng float64 `json:"lng" yaml:"lng"`
}

// Valid reports whether the coordinate lies within -90..90 / -180..180.
func (c Coordinate) Valid() bool {
	if math.IsNaN(c.Lat) || math.IsNaN(c.Lng) {
		return false
	}
	return c.Lat >= -90 && c.Lat <= 90 && c.Lng >= -180 && c.Lng <= 180
}

func (c Coordinate) IsZero() bool {
	return c.Lat == 0 && c.Lng == 0
}

// Polygon is an ordered ring of coordinates. The closing vertex may be
// omitted.
type Polygon []Coordinate

// Clone returns a copy that shares no backing array with p.
func (p Polygon) Clone() Polygon {
	if p == nil {
		return nil
	}
	out := make(Polygon, len(p))
	copy(out, p)
	return out
}

// Equal reports whether both polygons hold the same vertices in the same order.
func (p Polygon) Equal(other Polygon) bool {
	if len(p) != len(other) {
		return false
	}
	for i := range p {
		if p[i] != other[i] {
			return false
		}
	}
	return true
}

// IsClosed reports whether the last vertex repeats the first.
func IsClosed(poly Polygon) bool {
	return len(poly) > 1 && poly[0] == poly[len(poly)-1]
}

// ring drops an explicit closing vertex.
func ring(poly Polygon) Polygon {
	if IsClosed(poly) {
		return poly[:len(poly)-1]
	}
	return poly
}

// Validate rejects polygons that cannot take part in containment tests.
func Validate(poly Polygon) error {
	r := ring(poly)
	if len(r) < MinPolygonPoints {
		return ErrTooFewPoints
	}
	for _, c := range r {
		if !c.Valid() {
			return ErrInvalidCoordinate
		}
	}
	if math.Abs(planarArea(r)) < degenerateAreaEpsilon {
		return ErrDegenerate
	}
	return nil
}

// PointInPolygon runs an even-odd ray cast along increasing longitude.
//
// Edges are half-open: a point on a minimum-latitude or minimum-longitude
// edge of an axis-aligned ring is inside, a point on a maximum edge is
// outside. The same rule applies to vertices, so results are deterministic
// for any shared edge between two rings.
func PointInPolygon(point Coordinate, poly Polygon) bool {
	if len(poly) < MinPolygonPoints {
		warn("PointInPolygon", "polygon has fewer than 3 points")
		return false
	}

	x, y := point.Lng, point.Lat
	inside := false
	n := len(poly)
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		xi, yi := poly[i].Lng, poly[i].Lat
		xj, yj := poly[j].Lng, poly[j].Lat
		if (yi > y) != (yj > y) && x < (xj-xi)*(y-yi)/(yj-yi)+xi {
			inside = !inside
		}
	}
	return inside
}

// Centroid returns the arithmetic mean of the ring's vertices. This is not
// the area-weighted centroid; it is only meant for label placement.
func Centroid(poly Polygon) Coordinate {
	r := ring(poly)
	if len(r) == 0 {
		warn("Centroid", "empty polygon")
		return Coordinate{}
	}
	var sumLat, sumLng float64
	for _, c := range r {
		sumLat += c.Lat
		sumLng += c.Lng
	}
	n := float64(len(r))
	return Coordinate{Lat: sumLat / n, Lng: sumLng / n}
}

// Area approximates the enclosed surface in km², rounded to two decimals.
// It projects onto a cylindrical equal-area plane, so it is only reliable
// for local and regional polygons.
func Area(poly Polygon) float64 {
	r := ring(poly)
	if len(r) < MinPolygonPoints {
		warn("Area", "polygon has fewer than 3 points")
		return 0
	}

	sum := 0.0
	n := len(r)
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		latI, lngI := radians(r[i].Lat), radians(r[i].Lng)
		latJ, lngJ := radians(r[j].Lat), radians(r[j].Lng)
		sum += lngJ*math.Sin(latI) - lngI*math.Sin(latJ)
	}
	area := math.Abs(sum * EarthRadiusKm * EarthRadiusKm / 2)
	return math.Round(area*100) / 100
}

// Distance is the straight-line distance between two coordinates in degrees.
func Distance(a, b Coordinate) float64 {
	return math.Hypot(a.Lat-b.Lat, a.Lng-b.Lng)
}

// Simplify drops vertices that sit within tolerance degrees of the last kept
// vertex. Rings of three points or fewer are returned as-is, closed rings stay
// closed, and a result that would fall below three distinct vertices yields
// the input unchanged.
func Simplify(poly Polygon, tolerance float64) Polygon {
	if len(poly) <= MinPolygonPoints {
		return poly.Clone()
	}

	kept := Polygon{poly[0]}
	for _, c := range poly[1:] {
		if Distance(c, kept[len(kept)-1]) > tolerance {
			kept = append(kept, c)
		}
	}
	if IsClosed(poly) && kept[0] != kept[len(kept)-1] {
		kept = append(kept, kept[0])
	}
	if len(ring(kept)) < MinPolygonPoints {
		return poly.Clone()
	}
	return kept
}

func planarArea(r Polygon) float64 {
	sum := 0.0
	n := len(r)
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		sum += r[i].Lng*r[j].Lat - r[j].Lng*r[i].Lat
	}
	return sum / 2
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}
