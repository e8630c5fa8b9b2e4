package areas

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/codr1/leaguemap/internal/geo"
	"github.com/codr1/leaguemap/internal/models"
)

// PersistedArea is one record of the areas collection. Custom areas and
// modified leagues share the collection; OriginalLeagueID is set only on the
// latter.
type PersistedArea struct {
	ID               string          `json:"id"`
	Name             string          `json:"name"`
	Slug             string          `json:"slug"`
	Bounds           geo.Polygon     `json:"bounds"`
	Center           *geo.Coordinate `json:"center,omitempty"`
	Color            string          `json:"color"`
	OriginalLeagueID string          `json:"originalLeagueId,omitempty"`
	IsCustom         bool            `json:"isCustom"`
}

// SkippedArea explains why a persisted record was not loaded.
type SkippedArea struct {
	ID     string `json:"id"`
	Reason string `json:"reason"`
}

// LoadReport summarizes a LoadSnapshot call.
type LoadReport struct {
	CustomAreas     int           `json:"customAreas"`
	ModifiedLeagues int           `json:"modifiedLeagues"`
	Defaulted       int           `json:"defaulted"`
	Skipped         []SkippedArea `json:"skipped,omitempty"`
}

// uuid.NameSpaceOID keeps generated ids stable across repeated loads.
var customIDNamespace = uuid.NewSHA1(uuid.NameSpaceOID, []byte("leaguemap.custom_area"))

// LoadSnapshotJSON decodes a persisted areas payload and loads it. An
// unparseable payload leaves the store untouched.
func (s *Store) LoadSnapshotJSON(data []byte) (LoadReport, error) {
	var records []PersistedArea
	if err := json.Unmarshal(data, &records); err != nil {
		return LoadReport{}, fmt.Errorf("decode areas snapshot: %w", err)
	}
	return s.LoadSnapshot(records), nil
}

// LoadSnapshot replaces the store contents with records, partitioned by the
// presence of OriginalLeagueID. Missing fields are defaulted, records with
// unusable polygons are skipped, and the dirty flag is cleared. Loading the
// same records twice yields the same state.
func (s *Store) LoadSnapshot(records []PersistedArea) LoadReport {
	var report LoadReport
	custom := make([]CustomArea, 0, len(records))
	modified := make([]ModifiedLeague, 0)
	// Custom areas and modified leagues share one id space in the persisted
	// collection. idOwner maps a record id to "custom" or the league it
	// overrides.
	idOwner := make(map[string]string, len(records))
	modifiedIdx := make(map[string]int)

	for i, record := range records {
		if err := geo.Validate(record.Bounds); err != nil {
			report.Skipped = append(report.Skipped, SkippedArea{ID: record.ID, Reason: err.Error()})
			continue
		}

		leagueID := strings.TrimSpace(record.OriginalLeagueID)
		if leagueID != "" {
			m, defaulted, err := s.modifiedFromRecord(leagueID, record)
			if err != nil {
				report.Skipped = append(report.Skipped, SkippedArea{ID: record.ID, Reason: err.Error()})
				continue
			}
			owner := "league:" + leagueID
			if o, taken := idOwner[m.ID]; taken && o != owner {
				report.Skipped = append(report.Skipped, SkippedArea{ID: m.ID, Reason: "duplicate id"})
				continue
			}
			if defaulted {
				report.Defaulted++
			}
			if idx, ok := modifiedIdx[leagueID]; ok {
				delete(idOwner, modified[idx].ID)
				idOwner[m.ID] = owner
				modified[idx] = m
				continue
			}
			idOwner[m.ID] = owner
			modifiedIdx[leagueID] = len(modified)
			modified = append(modified, m)
			continue
		}

		area, defaulted := s.customFromRecord(i, len(custom), record)
		if _, taken := idOwner[area.ID]; taken {
			report.Skipped = append(report.Skipped, SkippedArea{ID: area.ID, Reason: "duplicate id"})
			continue
		}
		if defaulted {
			report.Defaulted++
		}
		idOwner[area.ID] = "custom"
		custom = append(custom, area)
	}

	report.CustomAreas = len(custom)
	report.ModifiedLeagues = len(modified)

	s.mu.Lock()
	s.custom = custom
	s.modified = modified
	s.baseline = s.snapshotLocked()
	s.revision++
	s.dirty = false
	s.mu.Unlock()

	logEvent := log.Debug()
	if len(report.Skipped) > 0 {
		logEvent = log.Warn().Interface("skipped", report.Skipped)
	}
	logEvent.
		Str("component", "area_store").
		Int("custom_areas", report.CustomAreas).
		Int("modified_leagues", report.ModifiedLeagues).
		Int("defaulted", report.Defaulted).
		Msg("Areas snapshot loaded")

	return report
}

func (s *Store) customFromRecord(position, n int, record PersistedArea) (CustomArea, bool) {
	defaulted := false
	name := strings.TrimSpace(record.Name)
	if name == "" {
		name = defaultCustomName(n)
		defaulted = true
	}
	id := strings.TrimSpace(record.ID)
	if id == "" {
		seed := fmt.Sprintf("%d:%s:%v", position, name, record.Bounds)
		id = customIDPrefix + uuid.NewSHA1(customIDNamespace, []byte(seed)).String()
		defaulted = true
	}
	color, err := models.NormalizeHexColor(record.Color)
	if err != nil {
		color = paletteColor(s.palette, n)
		defaulted = true
	}
	slug := record.Slug
	if slug == "" {
		slug = models.Slugify(name)
		defaulted = true
	}
	center, centerDefaulted := recordCenter(record)

	return CustomArea{
		ID:      id,
		Name:    name,
		Slug:    slug,
		Polygon: record.Bounds.Clone(),
		Center:  center,
		Color:   color,
	}, defaulted || centerDefaulted
}

func (s *Store) modifiedFromRecord(leagueID string, record PersistedArea) (ModifiedLeague, bool, error) {
	baseline, ok := s.catalog.GetBoundary(leagueID)
	if !ok {
		return ModifiedLeague{}, false, fmt.Errorf("%w: %s", ErrUnknownLeague, leagueID)
	}

	defaulted := false
	id := strings.TrimSpace(record.ID)
	if id == "" {
		id = ModifiedLeagueID(leagueID)
		defaulted = true
	}
	name := strings.TrimSpace(record.Name)
	if name == "" {
		name = baseline.Name
		defaulted = true
	}
	color, err := models.NormalizeHexColor(record.Color)
	if err != nil {
		color = baseline.Color
		defaulted = true
	}
	center, centerDefaulted := recordCenter(record)

	return ModifiedLeague{
		ID:       id,
		LeagueID: leagueID,
		Name:     name,
		Polygon:  record.Bounds.Clone(),
		Center:   center,
		Color:    color,
	}, defaulted || centerDefaulted, nil
}

func recordCenter(record PersistedArea) (geo.Coordinate, bool) {
	if record.Center != nil && record.Center.Valid() {
		return *record.Center, false
	}
	return geo.Centroid(record.Bounds), true
}

// SaveSnapshot serializes the store into the flat persisted shape: custom
// areas in creation order followed by modified leagues in precedence order.
func (s *Store) SaveSnapshot() []PersistedArea {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return persistedFromSnapshot(Snapshot{CustomAreas: s.custom, ModifiedLeagues: s.modified})
}

// Checkpoint is the state captured for a save round-trip.
type Checkpoint struct {
	Revision uint64
	Areas    []PersistedArea
	snapshot Snapshot
}

// Checkpoint captures the current state and revision atomically.
func (s *Store) Checkpoint() Checkpoint {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := s.snapshotLocked()
	return Checkpoint{
		Revision: s.revision,
		Areas:    persistedFromSnapshot(snap),
		snapshot: snap,
	}
}

// MarkSaved records that cp was persisted. The checkpoint becomes the state
// Discard restores. The dirty flag is cleared only if nothing changed since
// the checkpoint was taken; the return value reports whether it was.
func (s *Store) MarkSaved(cp Checkpoint) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.baseline = cp.snapshot.clone()
	if s.revision != cp.Revision {
		// A discard or reload during the save may have left the store on a
		// state other than the one just persisted.
		s.dirty = !s.snapshotLocked().equal(s.baseline)
		return false
	}
	s.dirty = false
	return true
}

func persistedFromSnapshot(snap Snapshot) []PersistedArea {
	out := make([]PersistedArea, 0, len(snap.CustomAreas)+len(snap.ModifiedLeagues))
	for _, a := range snap.CustomAreas {
		slug := a.Slug
		if slug == "" {
			slug = models.Slugify(a.Name)
		}
		out = append(out, PersistedArea{
			ID:       a.ID,
			Name:     a.Name,
			Slug:     slug,
			Bounds:   a.Polygon.Clone(),
			Center:   persistedCenter(a.Center, a.Polygon),
			Color:    a.Color,
			IsCustom: true,
		})
	}
	for _, m := range snap.ModifiedLeagues {
		out = append(out, PersistedArea{
			ID:               m.ID,
			Name:             m.Name,
			Slug:             models.Slugify(m.Name),
			Bounds:           m.Polygon.Clone(),
			Center:           persistedCenter(m.Center, m.Polygon),
			Color:            m.Color,
			OriginalLeagueID: m.LeagueID,
			IsCustom:         false,
		})
	}
	return out
}

func persistedCenter(center geo.Coordinate, poly geo.Polygon) *geo.Coordinate {
	if center.IsZero() {
		center = geo.Centroid(poly)
	}
	return &center
}
