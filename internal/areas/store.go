// internal/areas/store.go
package areas

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/codr1/leaguemap/internal/boundaries"
	"github.com/codr1/leaguemap/internal/geo"
	"github.com/codr1/leaguemap/internal/models"
)

var (
	ErrInvalidPolygon = errors.New("invalid polygon")
	ErrAreaNotFound   = errors.New("custom area not found")
	ErrUnknownLeague  = boundaries.ErrUnknownLeague
	ErrInvalidColor   = errors.New("invalid color")
)

type Options struct {
	// Palette colors new custom areas by creation index. Defaults to DefaultPalette.
	Palette []string
	// NewID generates custom area ids. Defaults to "custom_" + a random UUID.
	NewID func() string
}

// Store owns the custom areas and modified leagues of one editing session.
// It is safe for concurrent use so edits can continue while a save is in
// flight.
type Store struct {
	catalog *boundaries.Catalog
	palette []string
	newID   func() string

	mu       sync.RWMutex
	custom   []CustomArea
	modified []ModifiedLeague
	dirty    bool
	revision uint64
	// baseline is what Discard restores: the last loaded or saved state.
	baseline Snapshot
}

func NewStore(catalog *boundaries.Catalog, opts Options) *Store {
	palette := opts.Palette
	if len(palette) == 0 {
		palette = DefaultPalette
	}
	newID := opts.NewID
	if newID == nil {
		newID = func() string { return customIDPrefix + uuid.NewString() }
	}
	return &Store{
		catalog: catalog,
		palette: append([]string(nil), palette...),
		newID:   newID,
	}
}

func (s *Store) Catalog() *boundaries.Catalog {
	return s.catalog
}

// CustomAreaDraft is the input for AddCustomArea. Empty Name and Color are
// defaulted.
type CustomAreaDraft struct {
	Polygon geo.Polygon
	Name    string
	Color   string
}

// AddCustomArea validates the draft polygon and stores a new custom area
// named "Custom Area {n+1}" and colored from the palette by index n, where n
// is the current custom area count.
func (s *Store) AddCustomArea(draft CustomAreaDraft) (CustomArea, error) {
	if err := geo.Validate(draft.Polygon); err != nil {
		return CustomArea{}, fmt.Errorf("%w: %w", ErrInvalidPolygon, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	n := len(s.custom)
	name := strings.TrimSpace(draft.Name)
	if name == "" {
		name = defaultCustomName(n)
	}
	color := paletteColor(s.palette, n)
	if draft.Color != "" {
		normalized, err := models.NormalizeHexColor(draft.Color)
		if err != nil {
			return CustomArea{}, fmt.Errorf("%w: %w", ErrInvalidColor, err)
		}
		color = normalized
	}

	id := s.newID()
	for s.indexCustomLocked(id) >= 0 {
		id = s.newID()
	}

	area := CustomArea{
		ID:      id,
		Name:    name,
		Slug:    models.Slugify(name),
		Polygon: draft.Polygon.Clone(),
		Center:  geo.Centroid(draft.Polygon),
		Color:   color,
	}
	s.custom = append(s.custom, area)
	s.touchLocked()

	log.Debug().Str("component", "area_store").Str("area_id", id).Int("vertices", len(area.Polygon)).Msg("Custom area added")
	return area.clone(), nil
}

// CustomAreaUpdate lists the fields to change; nil fields are left alone.
type CustomAreaUpdate struct {
	Name    *string
	Color   *string
	Polygon geo.Polygon
}

// UpdateCustomArea merges update into the custom area. Renames regenerate the
// slug and polygon changes regenerate the center.
func (s *Store) UpdateCustomArea(id string, update CustomAreaUpdate) (CustomArea, error) {
	if update.Polygon != nil {
		if err := geo.Validate(update.Polygon); err != nil {
			return CustomArea{}, fmt.Errorf("%w: %w", ErrInvalidPolygon, err)
		}
	}
	var color string
	if update.Color != nil {
		normalized, err := models.NormalizeHexColor(*update.Color)
		if err != nil {
			return CustomArea{}, fmt.Errorf("%w: %w", ErrInvalidColor, err)
		}
		color = normalized
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexCustomLocked(id)
	if idx < 0 {
		return CustomArea{}, ErrAreaNotFound
	}
	area := &s.custom[idx]
	if update.Name != nil {
		if name := strings.TrimSpace(*update.Name); name != "" {
			area.Name = name
			area.Slug = models.Slugify(name)
		}
	}
	if update.Color != nil {
		area.Color = color
	}
	if update.Polygon != nil {
		area.Polygon = update.Polygon.Clone()
		area.Center = geo.Centroid(area.Polygon)
	}
	s.touchLocked()
	return area.clone(), nil
}

// DeleteCustomArea removes the custom area and returns it. Unknown ids are a
// no-op and report false.
func (s *Store) DeleteCustomArea(id string) (CustomArea, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexCustomLocked(id)
	if idx < 0 {
		return CustomArea{}, false
	}
	deleted := s.custom[idx]
	s.custom = append(s.custom[:idx], s.custom[idx+1:]...)
	s.touchLocked()
	return deleted, true
}

func (s *Store) CustomArea(id string) (CustomArea, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx := s.indexCustomLocked(id)
	if idx < 0 {
		return CustomArea{}, false
	}
	return s.custom[idx].clone(), true
}

func (s *Store) CustomAreas() []CustomArea {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]CustomArea, len(s.custom))
	for i, a := range s.custom {
		out[i] = a.clone()
	}
	return out
}

// TrackLeagueModification upserts the override for a catalog league. A new
// override inherits the baseline name and color; an existing one keeps its
// own and keeps its position in the precedence order.
func (s *Store) TrackLeagueModification(leagueID string, poly geo.Polygon) (ModifiedLeague, error) {
	baseline, ok := s.catalog.GetBoundary(leagueID)
	if !ok {
		return ModifiedLeague{}, fmt.Errorf("%w: %s", ErrUnknownLeague, leagueID)
	}
	if err := geo.Validate(poly); err != nil {
		return ModifiedLeague{}, fmt.Errorf("%w: %w", ErrInvalidPolygon, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if idx := s.indexModifiedLocked(leagueID); idx >= 0 {
		m := &s.modified[idx]
		m.Polygon = poly.Clone()
		m.Center = geo.Centroid(poly)
		s.touchLocked()
		return m.clone(), nil
	}

	m := ModifiedLeague{
		ID:       ModifiedLeagueID(leagueID),
		LeagueID: leagueID,
		Name:     baseline.Name,
		Polygon:  poly.Clone(),
		Center:   geo.Centroid(poly),
		Color:    baseline.Color,
	}
	s.modified = append(s.modified, m)
	s.touchLocked()
	return m.clone(), nil
}

// ModifiedLeague returns the override for leagueID, if any.
func (s *Store) ModifiedLeague(leagueID string) (ModifiedLeague, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx := s.indexModifiedLocked(leagueID)
	if idx < 0 {
		return ModifiedLeague{}, false
	}
	return s.modified[idx].clone(), true
}

// ModifiedLeagues returns the overrides in precedence (insertion) order.
func (s *Store) ModifiedLeagues() []ModifiedLeague {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]ModifiedLeague, len(s.modified))
	for i, m := range s.modified {
		out[i] = m.clone()
	}
	return out
}

// ResetLeagueModification drops the override of a single league.
func (s *Store) ResetLeagueModification(leagueID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexModifiedLocked(leagueID)
	if idx < 0 {
		return false
	}
	s.modified = append(s.modified[:idx], s.modified[idx+1:]...)
	s.touchLocked()
	return true
}

// ResetLeagueModifications reverts every league to its catalog baseline and
// returns how many overrides were dropped. Dropping at least one marks the
// store dirty, since the reset itself has to be saved.
func (s *Store) ResetLeagueModifications() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := len(s.modified)
	if n == 0 {
		return 0
	}
	s.modified = nil
	s.touchLocked()
	return n
}

// Areas returns every area, custom areas first, as the shared interface.
func (s *Store) Areas() []Area {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Area, 0, len(s.custom)+len(s.modified))
	for _, a := range s.custom {
		out = append(out, a.clone())
	}
	for _, m := range s.modified {
		out = append(out, m.clone())
	}
	return out
}

func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

func (s *Store) HasUnsavedChanges() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dirty
}

// Revision increases on every state change.
func (s *Store) Revision() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.revision
}

// Discard restores the last loaded or saved state and clears the dirty flag.
func (s *Store) Discard() {
	s.mu.Lock()
	defer s.mu.Unlock()

	restored := s.baseline.clone()
	s.custom = restored.CustomAreas
	s.modified = restored.ModifiedLeagues
	s.revision++
	s.dirty = false
}

func (s *Store) snapshotLocked() Snapshot {
	return Snapshot{CustomAreas: s.custom, ModifiedLeagues: s.modified}.clone()
}

func (s *Store) touchLocked() {
	s.revision++
	s.dirty = true
}

func (s *Store) indexCustomLocked(id string) int {
	for i := range s.custom {
		if s.custom[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) indexModifiedLocked(leagueID string) int {
	for i := range s.modified {
		if s.modified[i].LeagueID == leagueID {
			return i
		}
	}
	return -1
}

func defaultCustomName(n int) string {
	return fmt.Sprintf("Custom Area %d", n+1)
}
