package apiutil

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/codr1/leaguemap/internal/geo"
)

// ParseFloatField parses a required float query or form value.
func ParseFloatField(raw string, field string) (float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, FieldError{Field: field, Reason: "is required"}
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, FieldError{Field: field, Reason: "must be a number"}
	}
	return value, nil
}

// CoordinateFromQuery reads lat and lng query parameters.
func CoordinateFromQuery(r *http.Request) (geo.Coordinate, error) {
	query := r.URL.Query()
	lat, err := ParseFloatField(query.Get("lat"), "lat")
	if err != nil {
		return geo.Coordinate{}, err
	}
	lng, err := ParseFloatField(query.Get("lng"), "lng")
	if err != nil {
		return geo.Coordinate{}, err
	}

	point := geo.Coordinate{Lat: lat, Lng: lng}
	if !point.Valid() {
		return geo.Coordinate{}, FieldError{Field: "lat/lng", Reason: "must be within -90..90 and -180..180"}
	}
	return point, nil
}
