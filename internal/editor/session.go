// Package editor drives one administrator's boundary editing session. It owns
// the mode state machine, turns map events into Area Store mutations, keeps
// the visible club markers assigned and saves or discards the result.
package editor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"github.com/codr1/leaguemap/internal/areas"
	"github.com/codr1/leaguemap/internal/assignment"
	"github.com/codr1/leaguemap/internal/boundaries"
	"github.com/codr1/leaguemap/internal/geo"
	"github.com/codr1/leaguemap/internal/metrics"
	"github.com/codr1/leaguemap/internal/models"
)

var (
	ErrInvalidTransition = errors.New("invalid mode transition")
	ErrUnsavedChanges    = errors.New("unsaved changes")
	ErrSaveInProgress    = errors.New("save already in progress")
	ErrUnknownPolygon    = errors.New("unknown polygon")
	ErrNoRepository      = errors.New("no repository configured")
	ErrNoClubSource      = errors.New("no club source configured")
)

// Mode is the session state.
type Mode int

const (
	ModeViewing Mode = iota
	ModeEditing
	ModeDrawing
)

func (m Mode) String() string {
	switch m {
	case ModeEditing:
		return "editing"
	case ModeDrawing:
		return "drawing"
	}
	return "viewing"
}

// DefaultSimplifyTolerance is used by SimplifyArea when no tolerance is given.
const DefaultSimplifyTolerance = 0.001

type Options struct {
	Repository Repository
	Clubs      ClubSource
	Adapter    MapAdapter
	// SimplifyTolerance in degrees. Defaults to DefaultSimplifyTolerance.
	SimplifyTolerance float64
}

// Session is safe for concurrent use. Save performs its I/O without holding
// the session lock, so edits made during a save are applied and keep the
// store dirty.
type Session struct {
	store     *areas.Store
	catalog   *boundaries.Catalog
	repo      Repository
	clubs     ClubSource
	adapter   MapAdapter
	tolerance float64
	saving    *semaphore.Weighted
	logger    zerolog.Logger

	mu      sync.Mutex
	mode    Mode
	markers []assignment.ClubMarker
}

func NewSession(store *areas.Store, opts Options) *Session {
	adapter := opts.Adapter
	if adapter == nil {
		adapter = nopAdapter{}
	}
	tolerance := opts.SimplifyTolerance
	if tolerance <= 0 {
		tolerance = DefaultSimplifyTolerance
	}
	return &Session{
		store:     store,
		catalog:   store.Catalog(),
		repo:      opts.Repository,
		clubs:     opts.Clubs,
		adapter:   adapter,
		tolerance: tolerance,
		saving:    semaphore.NewWeighted(1),
		logger:    log.With().Str("component", "editor").Logger(),
	}
}

func (s *Session) Mode() Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

func (s *Session) Store() *areas.Store {
	return s.store
}

// HasUnsavedChanges reports whether the store differs from the last load or save.
func (s *Session) HasUnsavedChanges() bool {
	return s.store.HasUnsavedChanges()
}

// Load replaces the store content with the persisted areas and redraws the
// map. On failure the current state is left untouched.
func (s *Session) Load(ctx context.Context) (areas.LoadReport, error) {
	if s.repo == nil {
		return areas.LoadReport{}, ErrNoRepository
	}
	records, err := s.repo.ListAreas(ctx)
	if err != nil {
		s.adapter.Notify(Notification{Level: LevelError, Message: "Failed to load areas: " + err.Error()})
		return areas.LoadReport{}, fmt.Errorf("list areas: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, area := range s.store.CustomAreas() {
		s.adapter.RemovePolygon(area.ID)
	}
	report := s.store.LoadSnapshot(records)
	if s.mode == ModeDrawing {
		s.mode = ModeEditing
	}
	s.redrawLocked()
	s.reassignLocked()

	if len(report.Skipped) > 0 {
		s.adapter.Notify(Notification{
			Level:   LevelWarn,
			Message: fmt.Sprintf("Skipped %d stored areas that could not be loaded", len(report.Skipped)),
		})
	}
	log.Ctx(ctx).Info().
		Int("custom_areas", report.CustomAreas).
		Int("modified_leagues", report.ModifiedLeagues).
		Int("skipped", len(report.Skipped)).
		Msg("Editor session loaded areas")
	return report, nil
}

// SetMarkers replaces the visible clubs, resolves and styles each of them.
func (s *Session) SetMarkers(clubs []assignment.Club) []assignment.ClubMarker {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.markers = assignment.NewResolver(s.store, s.catalog).Assign(clubs)
	for _, marker := range s.markers {
		s.adapter.StyleMarker(s.markerStyle(marker))
	}
	return append([]assignment.ClubMarker(nil), s.markers...)
}

// LoadMarkers fetches the visible clubs from the club source.
func (s *Session) LoadMarkers(ctx context.Context) ([]assignment.ClubMarker, error) {
	if s.clubs == nil {
		return nil, ErrNoClubSource
	}
	clubs, err := s.clubs.ListClubs(ctx)
	if err != nil {
		return nil, fmt.Errorf("list clubs: %w", err)
	}
	return s.SetMarkers(clubs), nil
}

func (s *Session) Markers() []assignment.ClubMarker {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]assignment.ClubMarker(nil), s.markers...)
}

// Statistics tallies the visible clubs against the current boundaries.
func (s *Session) Statistics() assignment.Statistics {
	s.mu.Lock()
	defer s.mu.Unlock()
	return assignment.ComputeStatisticsWithAreas(s.clubsLocked(), s.store, s.catalog)
}

// ToggleEditMode switches between viewing and editing. Leaving edit mode
// requires a saved or discarded store.
func (s *Session) ToggleEditMode() (Mode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.mode {
	case ModeViewing:
		s.mode = ModeEditing
	case ModeEditing:
		if s.store.HasUnsavedChanges() {
			return s.mode, ErrUnsavedChanges
		}
		s.mode = ModeViewing
	default:
		return s.mode, fmt.Errorf("%w: toggle edit mode while %s", ErrInvalidTransition, s.mode)
	}
	s.redrawLocked()
	s.logger.Debug().Str("mode", s.mode.String()).Msg("Edit mode toggled")
	return s.mode, nil
}

func (s *Session) StartDrawing() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.mode != ModeEditing {
		return fmt.Errorf("%w: start drawing while %s", ErrInvalidTransition, s.mode)
	}
	s.mode = ModeDrawing
	return nil
}

func (s *Session) CancelDrawing() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.mode != ModeDrawing {
		return fmt.Errorf("%w: cancel drawing while %s", ErrInvalidTransition, s.mode)
	}
	s.mode = ModeEditing
	return nil
}

// CompleteDrawing turns the drawn path into a custom area and returns to
// edit mode. An invalid path leaves the session drawing.
func (s *Session) CompleteDrawing(path geo.Path, name string) (areas.CustomArea, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.mode != ModeDrawing {
		return areas.CustomArea{}, fmt.Errorf("%w: complete drawing while %s", ErrInvalidTransition, s.mode)
	}
	area, err := s.store.AddCustomArea(areas.CustomAreaDraft{Polygon: geo.PathToBounds(path), Name: name})
	if err != nil {
		s.adapter.Notify(Notification{Level: LevelWarn, Message: "A custom area needs at least three distinct points"})
		return areas.CustomArea{}, err
	}

	s.mode = ModeEditing
	s.adapter.DrawPolygon(s.customRequest(area))
	s.reassignLocked()
	s.adapter.Notify(Notification{Level: LevelInfo, Message: fmt.Sprintf("Created %s", area.Name)})
	return area, nil
}

// EditVertices replaces the polygon of a custom area or league. Editing a
// league stores an override; the catalog is never changed.
func (s *Session) EditVertices(id string, path geo.Path) ([]assignment.Change, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.mode != ModeEditing {
		return nil, fmt.Errorf("%w: edit vertices while %s", ErrInvalidTransition, s.mode)
	}
	return s.editVerticesLocked(id, geo.PathToBounds(path))
}

func (s *Session) editVerticesLocked(id string, poly geo.Polygon) ([]assignment.Change, error) {
	if _, ok := s.store.CustomArea(id); ok {
		area, err := s.store.UpdateCustomArea(id, areas.CustomAreaUpdate{Polygon: poly})
		if err != nil {
			s.rejectedEdit(id, err)
			return nil, err
		}
		s.adapter.DrawPolygon(s.customRequest(area))
		return s.reassignLocked(), nil
	}

	if !s.catalog.Has(id) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPolygon, id)
	}
	modified, err := s.store.TrackLeagueModification(id, poly)
	if err != nil {
		s.rejectedEdit(id, err)
		return nil, err
	}
	s.adapter.DrawPolygon(s.modifiedRequest(modified))
	return s.reassignLocked(), nil
}

func (s *Session) rejectedEdit(id string, err error) {
	s.logger.Warn().Err(err).Str("polygon_id", id).Msg("Rejected polygon edit")
	s.adapter.Notify(Notification{Level: LevelWarn, Message: "Edit ignored: a boundary needs at least three distinct points"})
	s.redrawPolygonLocked(id)
}

// SimplifyArea decimates the vertices of a custom area or league. A
// non-positive tolerance uses the session default.
func (s *Session) SimplifyArea(id string, tolerance float64) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.mode != ModeEditing {
		return 0, fmt.Errorf("%w: simplify while %s", ErrInvalidTransition, s.mode)
	}
	if tolerance <= 0 {
		tolerance = s.tolerance
	}
	current, ok := s.polygonLocked(id)
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownPolygon, id)
	}
	simplified := geo.Simplify(current, tolerance)
	removed := len(current) - len(simplified)
	if removed <= 0 {
		return 0, nil
	}
	if _, err := s.editVerticesLocked(id, simplified); err != nil {
		return 0, err
	}
	return removed, nil
}

func (s *Session) RenameCustomArea(id, name string) (areas.CustomArea, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.mode != ModeEditing {
		return areas.CustomArea{}, fmt.Errorf("%w: rename while %s", ErrInvalidTransition, s.mode)
	}
	area, err := s.store.UpdateCustomArea(id, areas.CustomAreaUpdate{Name: &name})
	if err != nil {
		return areas.CustomArea{}, err
	}
	s.adapter.DrawPolygon(s.customRequest(area))
	return area, nil
}

// DeleteCustomArea removes a custom area. Unknown ids are a no-op.
func (s *Session) DeleteCustomArea(id string) (areas.CustomArea, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.mode != ModeEditing {
		return areas.CustomArea{}, false, fmt.Errorf("%w: delete while %s", ErrInvalidTransition, s.mode)
	}
	area, ok := s.store.DeleteCustomArea(id)
	if !ok {
		return areas.CustomArea{}, false, nil
	}
	s.adapter.RemovePolygon(id)
	s.reassignLocked()
	s.adapter.Notify(Notification{Level: LevelInfo, Message: fmt.Sprintf("Deleted %s", area.Name)})
	return area, true, nil
}

// ResetLeague drops the override of one league and redraws its baseline.
func (s *Session) ResetLeague(leagueID string) ([]assignment.Change, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.mode != ModeEditing {
		return nil, fmt.Errorf("%w: reset while %s", ErrInvalidTransition, s.mode)
	}
	if !s.store.ResetLeagueModification(leagueID) {
		return nil, nil
	}
	s.redrawPolygonLocked(leagueID)
	return s.reassignLocked(), nil
}

// ResetAllLeagues reverts every league to its baseline boundary.
func (s *Session) ResetAllLeagues() ([]assignment.Change, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.mode != ModeEditing {
		return nil, fmt.Errorf("%w: reset while %s", ErrInvalidTransition, s.mode)
	}
	if s.store.ResetLeagueModifications() == 0 {
		return nil, nil
	}
	s.redrawLocked()
	changes := s.reassignLocked()
	s.adapter.Notify(Notification{Level: LevelInfo, Message: "All leagues reset to their default boundaries"})
	return changes, nil
}

// Discard restores the last loaded or saved state. A drawing in progress is
// abandoned.
func (s *Session) Discard() []assignment.Change {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, area := range s.store.CustomAreas() {
		s.adapter.RemovePolygon(area.ID)
	}
	s.store.Discard()
	if s.mode == ModeDrawing {
		s.mode = ModeEditing
	}
	s.redrawLocked()
	return s.reassignLocked()
}

// SaveResult reports the outcome of Save. Clean is false when edits landed
// while the save was in flight; those edits still need saving.
type SaveResult struct {
	Saved    int
	Revision uint64
	Clean    bool
	Err      error
}

func (r SaveResult) OK() bool {
	return r.Err == nil
}

// Save persists the store as one full snapshot. Only one save runs at a
// time; a concurrent call returns ErrSaveInProgress without writing. On
// failure the store stays dirty so the save can be retried.
func (s *Session) Save(ctx context.Context) SaveResult {
	if s.repo == nil {
		return SaveResult{Err: ErrNoRepository}
	}
	if !s.saving.TryAcquire(1) {
		return SaveResult{Err: ErrSaveInProgress}
	}
	defer s.saving.Release(1)

	started := time.Now()
	cp := s.store.Checkpoint()
	logger := log.Ctx(ctx).With().Str("component", "editor").Uint64("revision", cp.Revision).Logger()

	if err := s.repo.ReplaceAreas(ctx, cp.Areas); err != nil {
		metrics.ObserveSave("error", started)
		logger.Error().Err(err).Msg("Failed to save areas")
		s.adapter.Notify(Notification{Level: LevelError, Message: "Failed to save areas: " + err.Error()})
		return SaveResult{Revision: cp.Revision, Err: fmt.Errorf("replace areas: %w", err)}
	}

	clean := s.store.MarkSaved(cp)
	metrics.ObserveSave("ok", started)
	logger.Info().Int("areas", len(cp.Areas)).Bool("clean", clean).Msg("Saved areas")
	s.adapter.Notify(Notification{Level: LevelInfo, Message: fmt.Sprintf("Saved %d areas", len(cp.Areas))})
	return SaveResult{Saved: len(cp.Areas), Revision: cp.Revision, Clean: clean}
}

// Handle applies one event from the map adapter.
func (s *Session) Handle(ctx context.Context, ev Event) error {
	log.Ctx(ctx).Debug().Str("event", ev.Kind.String()).Str("polygon_id", ev.PolygonID).Msg("Editor event")

	switch ev.Kind {
	case EventVertexMoved:
		_, err := s.EditVertices(ev.PolygonID, ev.Vertices)
		return err
	case EventPolygonCommitted:
		_, err := s.CompleteDrawing(ev.Vertices, "")
		return err
	case EventPolygonClicked:
		return s.describePolygon(ev.PolygonID)
	case EventMarkerClicked:
		return s.describeMarker(ev.ClubID)
	}
	return fmt.Errorf("unknown event kind %d", ev.Kind)
}

func (s *Session) describePolygon(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	poly, ok := s.polygonLocked(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownPolygon, id)
	}

	var name string
	var clubs int
	if area, ok := s.store.CustomArea(id); ok {
		name = area.Name
		clubs = assignment.CountByCustomArea(s.clubsLocked(), []areas.CustomArea{area})[id]
	} else {
		league, _ := s.catalog.GetBoundary(id)
		name = league.Name
		for _, marker := range s.markers {
			if marker.LeagueID == id {
				clubs++
			}
		}
	}
	s.adapter.Notify(Notification{
		Level:   LevelInfo,
		Message: fmt.Sprintf("%s: %.2f km², %d clubs", name, geo.Area(poly), clubs),
	})
	return nil
}

func (s *Session) describeMarker(clubID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, marker := range s.markers {
		if marker.ID != clubID {
			continue
		}
		league := "no league"
		if b, ok := s.catalog.GetBoundary(marker.LeagueID); ok {
			league = b.Name
		}
		s.adapter.Notify(Notification{Level: LevelInfo, Message: fmt.Sprintf("%s: %s", marker.Name, league)})
		return nil
	}
	return fmt.Errorf("unknown club %d", clubID)
}

// reassignLocked re-resolves the visible markers and restyles the ones
// whose league changed.
func (s *Session) reassignLocked() []assignment.Change {
	if len(s.markers) == 0 {
		return nil
	}
	changes := assignment.NewResolver(s.store, s.catalog).Reassign(s.markers)
	for _, change := range changes {
		s.adapter.StyleMarker(s.markerStyle(assignment.ClubMarker{ID: change.ClubID, LeagueID: change.To}))
	}
	if len(changes) > 0 {
		s.logger.Debug().Int("changes", len(changes)).Msg("Markers reassigned")
	}
	return changes
}

func (s *Session) clubsLocked() []assignment.Club {
	clubs := make([]assignment.Club, len(s.markers))
	for i, m := range s.markers {
		clubs[i] = assignment.Club{ID: m.ID, Name: m.Name, Coordinate: m.Coordinate}
	}
	return clubs
}

// polygonLocked returns the effective polygon shown for id.
func (s *Session) polygonLocked(id string) (geo.Polygon, bool) {
	if area, ok := s.store.CustomArea(id); ok {
		return area.Polygon, true
	}
	if m, ok := s.store.ModifiedLeague(id); ok {
		return m.Polygon, true
	}
	if b, ok := s.catalog.GetBoundary(id); ok {
		return b.Polygon, true
	}
	return nil, false
}

func (s *Session) redrawLocked() {
	s.catalog.Each(func(b boundaries.LeagueBoundary) bool {
		s.redrawPolygonLocked(b.LeagueID)
		return true
	})
	for _, area := range s.store.CustomAreas() {
		s.adapter.DrawPolygon(s.customRequest(area))
	}
}

func (s *Session) redrawPolygonLocked(id string) {
	if area, ok := s.store.CustomArea(id); ok {
		s.adapter.DrawPolygon(s.customRequest(area))
		return
	}
	if m, ok := s.store.ModifiedLeague(id); ok {
		s.adapter.DrawPolygon(s.modifiedRequest(m))
		return
	}
	if b, ok := s.catalog.GetBoundary(id); ok {
		s.adapter.DrawPolygon(s.request(b.LeagueID, PolygonLeague, b.Name, b.Polygon, b.Color, geo.Centroid(b.Polygon)))
	}
}

func (s *Session) customRequest(area areas.CustomArea) DrawRequest {
	return s.request(area.ID, PolygonCustom, area.Name, area.Polygon, area.Color, area.Center)
}

func (s *Session) modifiedRequest(m areas.ModifiedLeague) DrawRequest {
	return s.request(m.LeagueID, PolygonModified, m.Name, m.Polygon, m.Color, m.Center)
}

func (s *Session) request(id string, kind PolygonKind, name string, poly geo.Polygon, color string, label geo.Coordinate) DrawRequest {
	return DrawRequest{
		ID:         id,
		Kind:       kind,
		Name:       name,
		Vertices:   geo.BoundsToPath(poly),
		Color:      color,
		LabelColor: models.LabelTextColor(color),
		Label:      label,
		Editable:   s.mode != ModeViewing,
	}
}

func (s *Session) markerStyle(marker assignment.ClubMarker) MarkerStyle {
	style := MarkerStyle{ClubID: marker.ID, LeagueID: marker.LeagueID, Color: UnassignedColor}
	if b, ok := s.catalog.GetBoundary(marker.LeagueID); ok {
		style.Color = b.Color
	}
	return style
}
