// Package boundaries holds the baseline league territories shipped with the
// system. A Catalog is built once at startup and never mutated afterwards.
package boundaries

import (
	"errors"
	"fmt"
	"strings"

	"github.com/codr1/leaguemap/internal/geo"
	"github.com/codr1/leaguemap/internal/models"
)

var ErrUnknownLeague = errors.New("unknown league")

type LeagueBoundary struct {
	LeagueID string      `json:"leagueId"`
	Name     string      `json:"name"`
	Slug     string      `json:"slug"`
	Color    string      `json:"color"`
	Polygon  geo.Polygon `json:"polygon"`
}

// Catalog is a read-only registry of baseline boundaries in catalog order.
type Catalog struct {
	leagues []LeagueBoundary
	byID    map[string]int
	bySlug  map[string]int
}

// NewCatalog validates entries and builds a catalog. Entries are copied, so
// later changes to the input do not leak into the catalog.
func NewCatalog(entries []LeagueBoundary) (*Catalog, error) {
	c := &Catalog{
		leagues: make([]LeagueBoundary, 0, len(entries)),
		byID:    make(map[string]int, len(entries)),
		bySlug:  make(map[string]int, len(entries)),
	}

	for i, entry := range entries {
		id := strings.TrimSpace(entry.LeagueID)
		if id == "" {
			return nil, fmt.Errorf("league %d: id is required", i)
		}
		if _, exists := c.byID[id]; exists {
			return nil, fmt.Errorf("league %q: duplicate id", id)
		}
		name := strings.TrimSpace(entry.Name)
		if name == "" {
			return nil, fmt.Errorf("league %q: name is required", id)
		}
		color, err := models.NormalizeHexColor(entry.Color)
		if err != nil {
			return nil, fmt.Errorf("league %q: color: %w", id, err)
		}
		if err := geo.Validate(entry.Polygon); err != nil {
			return nil, fmt.Errorf("league %q: polygon: %w", id, err)
		}
		slug := entry.Slug
		if slug == "" {
			slug = models.Slugify(name)
		}
		if _, exists := c.bySlug[slug]; exists {
			return nil, fmt.Errorf("league %q: duplicate slug %q", id, slug)
		}

		c.byID[id] = len(c.leagues)
		c.bySlug[slug] = len(c.leagues)
		c.leagues = append(c.leagues, LeagueBoundary{
			LeagueID: id,
			Name:     name,
			Slug:     slug,
			Color:    color,
			Polygon:  entry.Polygon.Clone(),
		})
	}

	return c, nil
}

// ListLeagues returns every boundary in catalog order.
func (c *Catalog) ListLeagues() []LeagueBoundary {
	if c == nil {
		return nil
	}
	out := make([]LeagueBoundary, len(c.leagues))
	for i, league := range c.leagues {
		out[i] = league.clone()
	}
	return out
}

func (c *Catalog) GetBoundary(leagueID string) (LeagueBoundary, bool) {
	if c == nil {
		return LeagueBoundary{}, false
	}
	idx, ok := c.byID[leagueID]
	if !ok {
		return LeagueBoundary{}, false
	}
	return c.leagues[idx].clone(), true
}

func (c *Catalog) GetBySlug(slug string) (LeagueBoundary, bool) {
	if c == nil {
		return LeagueBoundary{}, false
	}
	idx, ok := c.bySlug[slug]
	if !ok {
		return LeagueBoundary{}, false
	}
	return c.leagues[idx].clone(), true
}

func (c *Catalog) Has(leagueID string) bool {
	if c == nil {
		return false
	}
	_, ok := c.byID[leagueID]
	return ok
}

func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.leagues)
}

// Each visits boundaries in catalog order without copying polygons. fn must
// not retain or modify the polygon. Iteration stops when fn returns false.
func (c *Catalog) Each(fn func(LeagueBoundary) bool) {
	if c == nil {
		return
	}
	for _, league := range c.leagues {
		if !fn(league) {
			return
		}
	}
}

func (b LeagueBoundary) clone() LeagueBoundary {
	b.Polygon = b.Polygon.Clone()
	return b
}
