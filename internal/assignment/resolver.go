// Package assignment maps coordinates to leagues. Modified league boundaries
// take precedence over the baseline catalog; the first matching polygon in
// each tier wins.
package assignment

import (
	"github.com/codr1/leaguemap/internal/areas"
	"github.com/codr1/leaguemap/internal/boundaries"
	"github.com/codr1/leaguemap/internal/geo"
)

// Tier reports which layer produced a resolution.
type Tier int

const (
	TierUnassigned Tier = iota
	TierModified
	TierBaseline
)

func (t Tier) String() string {
	switch t {
	case TierModified:
		return "modified"
	case TierBaseline:
		return "baseline"
	}
	return "unassigned"
}

// OverrideSource supplies modified league boundaries in precedence order.
// *areas.Store implements it.
type OverrideSource interface {
	ModifiedLeagues() []areas.ModifiedLeague
}

// Overrides is a fixed list of modified leagues.
type Overrides []areas.ModifiedLeague

func (o Overrides) ModifiedLeagues() []areas.ModifiedLeague { return o }

// Resolver resolves many points against one consistent view of the
// overrides. Build it with NewResolver when resolving more than one point.
type Resolver struct {
	catalog  *boundaries.Catalog
	modified []boundedLeague
	baseline []boundedLeague
}

type boundedLeague struct {
	leagueID string
	polygon  geo.Polygon
	box      geo.BBox
}

// NewResolver captures the current overrides of source. A nil source means
// no overrides.
func NewResolver(source OverrideSource, catalog *boundaries.Catalog) *Resolver {
	r := &Resolver{catalog: catalog}
	if source != nil {
		for _, m := range source.ModifiedLeagues() {
			if len(m.Polygon) < geo.MinPolygonPoints {
				continue
			}
			r.modified = append(r.modified, boundedLeague{leagueID: m.LeagueID, polygon: m.Polygon, box: geo.Bounds(m.Polygon)})
		}
	}
	catalog.Each(func(b boundaries.LeagueBoundary) bool {
		r.baseline = append(r.baseline, boundedLeague{leagueID: b.LeagueID, polygon: b.Polygon, box: geo.Bounds(b.Polygon)})
		return true
	})
	return r
}

// Resolve returns the owning league of point, or false when it is unassigned.
func (r *Resolver) Resolve(point geo.Coordinate) (string, bool) {
	leagueID, tier := r.ResolveWithTier(point)
	return leagueID, tier != TierUnassigned
}

// ResolveWithTier is Resolve plus the layer that matched.
func (r *Resolver) ResolveWithTier(point geo.Coordinate) (string, Tier) {
	if !point.Valid() {
		return "", TierUnassigned
	}
	for _, m := range r.modified {
		if m.contains(point) {
			return m.leagueID, TierModified
		}
	}
	for _, b := range r.baseline {
		if b.contains(point) {
			return b.leagueID, TierBaseline
		}
	}
	return "", TierUnassigned
}

func (b boundedLeague) contains(point geo.Coordinate) bool {
	return b.box.Contains(point) && geo.PointInPolygon(point, b.polygon)
}

// ResolveLeague resolves a single point against the overrides of source and
// the catalog.
func ResolveLeague(point geo.Coordinate, source OverrideSource, catalog *boundaries.Catalog) (string, bool) {
	return NewResolver(source, catalog).Resolve(point)
}
