// Package areas holds the mutable map state of an editing session: custom
// areas drawn by an administrator and overrides of baseline league
// boundaries.
package areas

import (
	"github.com/codr1/leaguemap/internal/geo"
)

// Kind discriminates the two Area variants.
type Kind int

const (
	KindCustom Kind = iota + 1
	KindModifiedLeague
)

func (k Kind) String() string {
	switch k {
	case KindCustom:
		return "custom"
	case KindModifiedLeague:
		return "modified_league"
	}
	return "unknown"
}

// Area is the polygon-bearing behaviour shared by CustomArea and
// ModifiedLeague.
type Area interface {
	Kind() Kind
	// Key is the custom area id, or the league id for a modified league.
	Key() string
	DisplayName() string
	Boundary() geo.Polygon
	Centroid() geo.Coordinate
	FillColor() string
}

// CustomArea is an administrator-drawn region with no baseline league.
type CustomArea struct {
	ID      string         `json:"id"`
	Name    string         `json:"name"`
	Slug    string         `json:"slug"`
	Polygon geo.Polygon    `json:"polygon"`
	Center  geo.Coordinate `json:"center"`
	Color   string         `json:"color"`
}

func (a CustomArea) Kind() Kind               { return KindCustom }
func (a CustomArea) Key() string              { return a.ID }
func (a CustomArea) DisplayName() string      { return a.Name }
func (a CustomArea) Boundary() geo.Polygon    { return a.Polygon }
func (a CustomArea) Centroid() geo.Coordinate { return a.Center }
func (a CustomArea) FillColor() string        { return a.Color }

func (a CustomArea) clone() CustomArea {
	a.Polygon = a.Polygon.Clone()
	return a
}

// ModifiedLeague replaces the polygon of one baseline league for every
// assignment decision until it is reset.
type ModifiedLeague struct {
	// ID is the persisted record id; LeagueID is the catalog key.
	ID       string         `json:"id"`
	LeagueID string         `json:"leagueId"`
	Name     string         `json:"name"`
	Polygon  geo.Polygon    `json:"polygon"`
	Center   geo.Coordinate `json:"center"`
	Color    string         `json:"color"`
}

func (m ModifiedLeague) Kind() Kind               { return KindModifiedLeague }
func (m ModifiedLeague) Key() string              { return m.LeagueID }
func (m ModifiedLeague) DisplayName() string      { return m.Name }
func (m ModifiedLeague) Boundary() geo.Polygon    { return m.Polygon }
func (m ModifiedLeague) Centroid() geo.Coordinate { return m.Center }
func (m ModifiedLeague) FillColor() string        { return m.Color }

func (m ModifiedLeague) clone() ModifiedLeague {
	m.Polygon = m.Polygon.Clone()
	return m
}

// Snapshot is the in-memory aggregate of a store: custom areas in creation
// order and modified leagues in insertion order, unique by LeagueID.
type Snapshot struct {
	CustomAreas     []CustomArea     `json:"customAreas"`
	ModifiedLeagues []ModifiedLeague `json:"modifiedLeagues"`
}

// ModifiedByLeague indexes the modified leagues by league id.
func (s Snapshot) ModifiedByLeague() map[string]ModifiedLeague {
	out := make(map[string]ModifiedLeague, len(s.ModifiedLeagues))
	for _, m := range s.ModifiedLeagues {
		out[m.LeagueID] = m
	}
	return out
}

func (s Snapshot) clone() Snapshot {
	out := Snapshot{
		CustomAreas:     make([]CustomArea, len(s.CustomAreas)),
		ModifiedLeagues: make([]ModifiedLeague, len(s.ModifiedLeagues)),
	}
	for i, a := range s.CustomAreas {
		out.CustomAreas[i] = a.clone()
	}
	for i, m := range s.ModifiedLeagues {
		out.ModifiedLeagues[i] = m.clone()
	}
	return out
}

func (s Snapshot) equal(other Snapshot) bool {
	if len(s.CustomAreas) != len(other.CustomAreas) || len(s.ModifiedLeagues) != len(other.ModifiedLeagues) {
		return false
	}
	for i, a := range s.CustomAreas {
		b := other.CustomAreas[i]
		if a.ID != b.ID || a.Name != b.Name || a.Slug != b.Slug || a.Color != b.Color ||
			a.Center != b.Center || !a.Polygon.Equal(b.Polygon) {
			return false
		}
	}
	for i, m := range s.ModifiedLeagues {
		n := other.ModifiedLeagues[i]
		if m.ID != n.ID || m.LeagueID != n.LeagueID || m.Name != n.Name || m.Color != n.Color ||
			m.Center != n.Center || !m.Polygon.Equal(n.Polygon) {
			return false
		}
	}
	return true
}

// ModifiedLeagueID is the persisted record id used for a league override.
func ModifiedLeagueID(leagueID string) string {
	return modifiedIDPrefix + leagueID
}

const (
	customIDPrefix   = "custom_"
	modifiedIDPrefix = "modified_"
)
