package geo

import (
	"errors"
	"math"
	"sync"
	"testing"
)

func square(minLat, minLng, size float64) Polygon {
	return Polygon{
		{Lat: minLat, Lng: minLng},
		{Lat: minLat, Lng: minLng + size},
		{Lat: minLat + size, Lng: minLng + size},
		{Lat: minLat + size, Lng: minLng},
	}
}

func irregular() Polygon {
	return Polygon{
		{Lat: 50.1, Lng: 14.2},
		{Lat: 50.4, Lng: 14.9},
		{Lat: 50.0, Lng: 15.6},
		{Lat: 49.6, Lng: 15.1},
		{Lat: 49.7, Lng: 14.4},
	}
}

func reversed(p Polygon) Polygon {
	out := make(Polygon, len(p))
	for i := range p {
		out[i] = p[len(p)-1-i]
	}
	return out
}

func rotated(p Polygon, k int) Polygon {
	out := make(Polygon, 0, len(p))
	out = append(out, p[k:]...)
	return append(out, p[:k]...)
}

func closeTo(a, b, tolerance float64) bool {
	return math.Abs(a-b) <= tolerance
}

func TestPointInPolygonSquare(t *testing.T) {
	sq := Polygon{
		{Lat: 0, Lng: 0},
		{Lat: 0, Lng: 2},
		{Lat: 2, Lng: 2},
		{Lat: 2, Lng: 0},
	}

	tests := []struct {
		name  string
		point Coordinate
		want  bool
	}{
		{name: "center", point: Coordinate{Lat: 1, Lng: 1}, want: true},
		{name: "far_outside", point: Coordinate{Lat: 5, Lng: 5}, want: false},
		{name: "negative_outside", point: Coordinate{Lat: -0.5, Lng: 1}, want: false},
		{name: "near_corner_inside", point: Coordinate{Lat: 1.999, Lng: 1.999}, want: true},
		{name: "min_lat_edge", point: Coordinate{Lat: 0, Lng: 1}, want: true},
		{name: "min_lng_edge", point: Coordinate{Lat: 1, Lng: 0}, want: true},
		{name: "max_lat_edge", point: Coordinate{Lat: 2, Lng: 1}, want: false},
		{name: "max_lng_edge", point: Coordinate{Lat: 1, Lng: 2}, want: false},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := PointInPolygon(test.point, sq); got != test.want {
				t.Fatalf("PointInPolygon(%v) = %t, want %t", test.point, got, test.want)
			}
		})
	}
}

func TestPointInPolygonConcave(t *testing.T) {
	// U shape opening to the north.
	u := Polygon{
		{Lat: 0, Lng: 0},
		{Lat: 0, Lng: 3},
		{Lat: 3, Lng: 3},
		{Lat: 3, Lng: 2},
		{Lat: 1, Lng: 2},
		{Lat: 1, Lng: 1},
		{Lat: 3, Lng: 1},
		{Lat: 3, Lng: 0},
	}
	if !PointInPolygon(Coordinate{Lat: 2, Lng: 0.5}, u) {
		t.Fatalf("expected left arm to contain point")
	}
	if PointInPolygon(Coordinate{Lat: 2, Lng: 1.5}, u) {
		t.Fatalf("expected notch to exclude point")
	}
	if !PointInPolygon(Coordinate{Lat: 0.5, Lng: 1.5}, u) {
		t.Fatalf("expected base to contain point")
	}
}

func TestPointInPolygonClosedRing(t *testing.T) {
	sq := square(0, 0, 2)
	sq = append(sq, sq[0])
	if !PointInPolygon(Coordinate{Lat: 1, Lng: 1}, sq) {
		t.Fatalf("explicitly closed ring should contain its center")
	}
}

func TestDegenerateInputsUseDefaults(t *testing.T) {
	var mu sync.Mutex
	var ops []string
	SetWarnHook(func(op, reason string) {
		mu.Lock()
		defer mu.Unlock()
		ops = append(ops, op)
	})
	t.Cleanup(func() { SetWarnHook(nil) })

	if PointInPolygon(Coordinate{Lat: 1, Lng: 1}, nil) {
		t.Fatalf("PointInPolygon(nil) = true, want false")
	}
	if got := Centroid(nil); got != (Coordinate{}) {
		t.Fatalf("Centroid(nil) = %v, want zero", got)
	}
	if got := Area(Polygon{{Lat: 1, Lng: 1}, {Lat: 2, Lng: 2}}); got != 0 {
		t.Fatalf("Area(two points) = %v, want 0", got)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(ops) != 3 {
		t.Fatalf("warn hook calls = %v, want 3", ops)
	}
}

func TestCentroidIsVertexMean(t *testing.T) {
	got := Centroid(square(0, 0, 2))
	if got != (Coordinate{Lat: 1, Lng: 1}) {
		t.Fatalf("Centroid(square) = %v, want {1 1}", got)
	}

	// Vertex mean, not area-weighted: the extra vertex on the bottom edge
	// pulls the result south.
	skewed := Polygon{{Lat: 0, Lng: 0}, {Lat: 0, Lng: 1}, {Lat: 0, Lng: 2}, {Lat: 2, Lng: 2}, {Lat: 2, Lng: 0}}
	got = Centroid(skewed)
	if !closeTo(got.Lat, 0.8, 1e-12) || !closeTo(got.Lng, 1, 1e-12) {
		t.Fatalf("Centroid(skewed) = %v, want {0.8 1}", got)
	}
}

func TestCentroidIgnoresClosingVertex(t *testing.T) {
	sq := square(0, 0, 2)
	closed := append(sq.Clone(), sq[0])
	if Centroid(closed) != Centroid(sq) {
		t.Fatalf("Centroid(closed) = %v, want %v", Centroid(closed), Centroid(sq))
	}
}

func TestCentroidOrderInvariant(t *testing.T) {
	poly := irregular()
	want := Centroid(poly)
	variants := map[string]Polygon{"reversed": reversed(poly)}
	for k := 1; k < len(poly); k++ {
		variants["rotated_"+string(rune('0'+k))] = rotated(poly, k)
	}
	for name, variant := range variants {
		t.Run(name, func(t *testing.T) {
			got := Centroid(variant)
			if !closeTo(got.Lat, want.Lat, 1e-9) || !closeTo(got.Lng, want.Lng, 1e-9) {
				t.Fatalf("Centroid = %v, want %v", got, want)
			}
		})
	}
}

func TestAreaOneDegreeAtEquator(t *testing.T) {
	got := Area(square(0, 0, 1))
	// R² * Δλ * Δsin(φ) for a 1°x1° cell at the equator.
	want := EarthRadiusKm * EarthRadiusKm * radians(1) * math.Sin(radians(1))
	if !closeTo(got, want, 0.01) {
		t.Fatalf("Area(1° square) = %v, want %.2f", got, want)
	}
	if got != math.Round(got*100)/100 {
		t.Fatalf("Area(1° square) = %v, want two decimals", got)
	}
}

func TestAreaOrderInvariant(t *testing.T) {
	poly := irregular()
	want := Area(poly)
	if want <= 0 {
		t.Fatalf("Area(irregular) = %v, want positive", want)
	}
	if got := Area(reversed(poly)); !closeTo(got, want, 0.011) {
		t.Fatalf("Area(reversed) = %v, want %v", got, want)
	}
	for k := 1; k < len(poly); k++ {
		if got := Area(rotated(poly, k)); !closeTo(got, want, 0.011) {
			t.Fatalf("Area(rotated %d) = %v, want %v", k, got, want)
		}
	}
}

func TestSimplifyZeroToleranceKeepsPolygon(t *testing.T) {
	for name, poly := range map[string]Polygon{
		"square":    square(0, 0, 2),
		"irregular": irregular(),
		"closed":    append(irregular(), irregular()[0]),
	} {
		t.Run(name, func(t *testing.T) {
			got := Simplify(poly, 0)
			if !got.Equal(poly) {
				t.Fatalf("Simplify(%v, 0) = %v, want unchanged", poly, got)
			}
		})
	}
}

func TestSimplifyDropsNearbyVertices(t *testing.T) {
	poly := Polygon{
		{Lat: 0, Lng: 0},
		{Lat: 0, Lng: 0.001},
		{Lat: 0, Lng: 2},
		{Lat: 2, Lng: 2},
		{Lat: 2, Lng: 1.9995},
		{Lat: 2, Lng: 0},
	}
	got := Simplify(poly, 0.01)
	want := Polygon{{Lat: 0, Lng: 0}, {Lat: 0, Lng: 2}, {Lat: 2, Lng: 2}, {Lat: 2, Lng: 0}}
	if !got.Equal(want) {
		t.Fatalf("Simplify = %v, want %v", got, want)
	}
}

func TestSimplifyRecloses(t *testing.T) {
	poly := Polygon{
		{Lat: 0, Lng: 0},
		{Lat: 0, Lng: 2},
		{Lat: 0, Lng: 2.0001},
		{Lat: 2, Lng: 2},
		{Lat: 2, Lng: 0},
		{Lat: 0.0001, Lng: 0},
		{Lat: 0, Lng: 0},
	}
	got := Simplify(poly, 0.01)
	// The closing vertex is dropped as too close to (0.0001, 0) and re-added.
	want := Polygon{
		{Lat: 0, Lng: 0},
		{Lat: 0, Lng: 2},
		{Lat: 2, Lng: 2},
		{Lat: 2, Lng: 0},
		{Lat: 0.0001, Lng: 0},
		{Lat: 0, Lng: 0},
	}
	if !got.Equal(want) {
		t.Fatalf("Simplify(closed) = %v, want %v", got, want)
	}
}

func TestSimplifySmallInputs(t *testing.T) {
	tri := Polygon{{Lat: 0, Lng: 0}, {Lat: 0, Lng: 0.0001}, {Lat: 0.0001, Lng: 0}}
	if got := Simplify(tri, 1); !got.Equal(tri) {
		t.Fatalf("Simplify(triangle) = %v, want unchanged", got)
	}

	// Collapsing below three vertices returns the input.
	tiny := square(0, 0, 0.0001)
	if got := Simplify(tiny, 1); !got.Equal(tiny) {
		t.Fatalf("Simplify(tiny) = %v, want unchanged", got)
	}
}

func TestPathRoundTrip(t *testing.T) {
	poly := append(irregular(), irregular()[0])
	path := BoundsToPath(poly)
	if len(path) != len(poly) {
		t.Fatalf("BoundsToPath len = %d, want %d", len(path), len(poly))
	}
	if path[1] != [2]float64{50.4, 14.9} {
		t.Fatalf("BoundsToPath[1] = %v, want [50.4 14.9]", path[1])
	}
	if back := PathToBounds(path); !back.Equal(poly) {
		t.Fatalf("PathToBounds(BoundsToPath(p)) = %v, want %v", back, poly)
	}
	if PathToBounds(nil) != nil || BoundsToPath(nil) != nil {
		t.Fatalf("nil inputs should convert to nil")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		poly Polygon
		want error
	}{
		{name: "valid", poly: square(0, 0, 1), want: nil},
		{name: "empty", poly: nil, want: ErrTooFewPoints},
		{name: "two_points", poly: Polygon{{Lat: 0, Lng: 0}, {Lat: 1, Lng: 1}}, want: ErrTooFewPoints},
		{name: "closed_two_points", poly: Polygon{{Lat: 0, Lng: 0}, {Lat: 1, Lng: 1}, {Lat: 0, Lng: 0}}, want: ErrTooFewPoints},
		{name: "collinear", poly: Polygon{{Lat: 0, Lng: 0}, {Lat: 1, Lng: 1}, {Lat: 2, Lng: 2}}, want: ErrDegenerate},
		{name: "out_of_range", poly: Polygon{{Lat: 0, Lng: 0}, {Lat: 91, Lng: 1}, {Lat: 2, Lng: 0}}, want: ErrInvalidCoordinate},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if err := Validate(test.poly); !errors.Is(err, test.want) {
				t.Fatalf("Validate() = %v, want %v", err, test.want)
			}
		})
	}
}

func TestBounds(t *testing.T) {
	box := Bounds(irregular())
	want := BBox{MinLat: 49.6, MinLng: 14.2, MaxLat: 50.4, MaxLng: 15.6}
	if box != want {
		t.Fatalf("Bounds = %+v, want %+v", box, want)
	}
	if !box.Contains(Coordinate{Lat: 50, Lng: 15}) {
		t.Fatalf("expected box to contain interior point")
	}
	if Bounds(nil).Contains(Coordinate{}) {
		t.Fatalf("empty bounds should contain nothing")
	}
}
