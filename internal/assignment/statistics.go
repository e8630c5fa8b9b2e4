package assignment

import (
	"sort"

	"github.com/codr1/leaguemap/internal/areas"
	"github.com/codr1/leaguemap/internal/boundaries"
	"github.com/codr1/leaguemap/internal/geo"
)

// Club is the read-only view of a club supplied by the club source. A nil
// Coordinate means the club has not been geocoded.
type Club struct {
	ID         int64           `json:"id"`
	Name       string          `json:"name"`
	Coordinate *geo.Coordinate `json:"coordinate"`
}

func (c Club) located() (geo.Coordinate, bool) {
	if c.Coordinate == nil || !c.Coordinate.Valid() {
		return geo.Coordinate{}, false
	}
	return *c.Coordinate, true
}

// ClubMarker is a club with its computed league. LeagueID is empty when the
// club is unassigned.
type ClubMarker struct {
	ID         int64           `json:"id"`
	Name       string          `json:"name"`
	Coordinate *geo.Coordinate `json:"coordinate"`
	LeagueID   string          `json:"leagueId"`
}

func (m ClubMarker) Assigned() bool {
	return m.LeagueID != ""
}

// Statistics tallies clubs per league. ByCustomArea counts clubs inside each
// custom area independently of league assignment and is only filled by
// ComputeStatisticsWithAreas.
type Statistics struct {
	TotalClubs   int            `json:"totalClubs"`
	ByLeague     map[string]int `json:"byLeague"`
	Unassigned   int            `json:"unassigned"`
	ByCustomArea map[string]int `json:"byCustomArea,omitempty"`
}

// ComputeStatistics resolves every club. Clubs without a valid coordinate
// count as unassigned.
func ComputeStatistics(clubs []Club, source OverrideSource, catalog *boundaries.Catalog) Statistics {
	return NewResolver(source, catalog).Statistics(clubs)
}

// ComputeStatisticsWithAreas is ComputeStatistics plus per custom area counts.
func ComputeStatisticsWithAreas(clubs []Club, store *areas.Store, catalog *boundaries.Catalog) Statistics {
	stats := NewResolver(store, catalog).Statistics(clubs)
	stats.ByCustomArea = CountByCustomArea(clubs, store.CustomAreas())
	return stats
}

func (r *Resolver) Statistics(clubs []Club) Statistics {
	stats := Statistics{
		TotalClubs: len(clubs),
		ByLeague:   make(map[string]int),
	}
	for _, club := range clubs {
		point, ok := club.located()
		if !ok {
			stats.Unassigned++
			continue
		}
		leagueID, ok := r.Resolve(point)
		if !ok {
			stats.Unassigned++
			continue
		}
		stats.ByLeague[leagueID]++
	}
	return stats
}

// CountByCustomArea counts the clubs inside each custom area. Areas overlap
// freely, so a club can be counted more than once.
func CountByCustomArea(clubs []Club, custom []areas.CustomArea) map[string]int {
	counts := make(map[string]int, len(custom))
	for _, area := range custom {
		box := geo.Bounds(area.Polygon)
		n := 0
		for _, club := range clubs {
			point, ok := club.located()
			if ok && box.Contains(point) && geo.PointInPolygon(point, area.Polygon) {
				n++
			}
		}
		counts[area.ID] = n
	}
	return counts
}

// Assign resolves every club into a marker, keeping input order.
func (r *Resolver) Assign(clubs []Club) []ClubMarker {
	markers := make([]ClubMarker, 0, len(clubs))
	for _, club := range clubs {
		marker := ClubMarker{ID: club.ID, Name: club.Name, Coordinate: club.Coordinate}
		if point, ok := club.located(); ok {
			marker.LeagueID, _ = r.Resolve(point)
		}
		markers = append(markers, marker)
	}
	return markers
}

// AssignClubs resolves every club against the overrides of source.
func AssignClubs(clubs []Club, source OverrideSource, catalog *boundaries.Catalog) []ClubMarker {
	return NewResolver(source, catalog).Assign(clubs)
}

// Change records a marker whose league moved.
type Change struct {
	ClubID int64  `json:"clubId"`
	Name   string `json:"name"`
	From   string `json:"from"`
	To     string `json:"to"`
}

// Reassign re-resolves markers in place and returns the ones whose league
// changed, ordered by club id.
func (r *Resolver) Reassign(markers []ClubMarker) []Change {
	var changes []Change
	for i := range markers {
		marker := &markers[i]
		next := ""
		if marker.Coordinate != nil && marker.Coordinate.Valid() {
			next, _ = r.Resolve(*marker.Coordinate)
		}
		if next != marker.LeagueID {
			changes = append(changes, Change{ClubID: marker.ID, Name: marker.Name, From: marker.LeagueID, To: next})
			marker.LeagueID = next
		}
	}
	sort.SliceStable(changes, func(i, j int) bool {
		return changes[i].ClubID < changes[j].ClubID
	})
	return changes
}
