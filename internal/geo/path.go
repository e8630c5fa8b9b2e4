package geo

import (
	"math"
	"sync/atomic"

	"github.com/rs/zerolog/log"
)

// Path is the live vertex list exchanged with map adapters: [lat, lng] pairs.
type Path [][2]float64

// PathToBounds converts an editor path into a polygon, keeping order and count.
func PathToBounds(path Path) Polygon {
	if path == nil {
		return nil
	}
	poly := make(Polygon, len(path))
	for i, v := range path {
		poly[i] = Coordinate{Lat: v[0], Lng: v[1]}
	}
	return poly
}

// BoundsToPath is the inverse of PathToBounds.
func BoundsToPath(poly Polygon) Path {
	if poly == nil {
		return nil
	}
	path := make(Path, len(poly))
	for i, c := range poly {
		path[i] = [2]float64{c.Lat, c.Lng}
	}
	return path
}

// BBox is an axis-aligned bounding box in degrees.
type BBox struct {
	MinLat float64 `json:"minLat"`
	MinLng float64 `json:"minLng"`
	MaxLat float64 `json:"maxLat"`
	MaxLng float64 `json:"maxLng"`
}

// Bounds returns the bounding box of poly. An empty polygon yields an empty
// box that contains nothing.
func Bounds(poly Polygon) BBox {
	if len(poly) == 0 {
		return BBox{MinLat: math.Inf(1), MinLng: math.Inf(1), MaxLat: math.Inf(-1), MaxLng: math.Inf(-1)}
	}
	box := BBox{MinLat: poly[0].Lat, MinLng: poly[0].Lng, MaxLat: poly[0].Lat, MaxLng: poly[0].Lng}
	for _, c := range poly[1:] {
		box.MinLat = math.Min(box.MinLat, c.Lat)
		box.MinLng = math.Min(box.MinLng, c.Lng)
		box.MaxLat = math.Max(box.MaxLat, c.Lat)
		box.MaxLng = math.Max(box.MaxLng, c.Lng)
	}
	return box
}

// Contains is inclusive on every side; it is a prefilter, not a containment test.
func (b BBox) Contains(c Coordinate) bool {
	return c.Lat >= b.MinLat && c.Lat <= b.MaxLat && c.Lng >= b.MinLng && c.Lng <= b.MaxLng
}

// WarnFunc receives diagnostics for inputs the kernel degraded to a default.
type WarnFunc func(op, reason string)

var warnHook atomic.Pointer[WarnFunc]

func init() {
	SetWarnHook(nil)
}

// SetWarnHook replaces the diagnostics hook. A nil hook restores the default,
// which logs at debug level.
func SetWarnHook(fn WarnFunc) {
	if fn == nil {
		fn = func(op, reason string) {
			log.Debug().Str("component", "geo").Str("op", op).Msg(reason)
		}
	}
	warnHook.Store(&fn)
}

func warn(op, reason string) {
	if fn := warnHook.Load(); fn != nil {
		(*fn)(op, reason)
	}
}
