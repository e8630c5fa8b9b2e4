package editor

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/codr1/leaguemap/internal/areas"
	"github.com/codr1/leaguemap/internal/assignment"
	"github.com/codr1/leaguemap/internal/boundaries"
	"github.com/codr1/leaguemap/internal/geo"
)

type fakeAdapter struct {
	mu      sync.Mutex
	drawn   map[string]DrawRequest
	removed []string
	styles  map[int64]MarkerStyle
	notes   []Notification
}

func newFakeAdapter() *fakeAdapter {
	return &fakeAdapter{drawn: make(map[string]DrawRequest), styles: make(map[int64]MarkerStyle)}
}

func (f *fakeAdapter) DrawPolygon(req DrawRequest) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.drawn[req.ID] = req
}

func (f *fakeAdapter) RemovePolygon(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.drawn, id)
	f.removed = append(f.removed, id)
}

func (f *fakeAdapter) StyleMarker(style MarkerStyle) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.styles[style.ClubID] = style
}

func (f *fakeAdapter) Notify(n Notification) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.notes = append(f.notes, n)
}

func (f *fakeAdapter) lastNote() Notification {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.notes) == 0 {
		return Notification{}
	}
	return f.notes[len(f.notes)-1]
}

type fakeRepo struct {
	mu      sync.Mutex
	records []areas.PersistedArea
	saves   int
	err     error
	// block, when set, holds ReplaceAreas until it is closed.
	block   chan struct{}
	entered chan struct{}
}

func (r *fakeRepo) ListAreas(ctx context.Context) ([]areas.PersistedArea, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	return append([]areas.PersistedArea(nil), r.records...), nil
}

func (r *fakeRepo) ReplaceAreas(ctx context.Context, records []areas.PersistedArea) error {
	if r.entered != nil {
		r.entered <- struct{}{}
	}
	if r.block != nil {
		<-r.block
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.records = records
	r.saves++
	return nil
}

type fakeClubs []assignment.Club

func (f fakeClubs) ListClubs(ctx context.Context) ([]assignment.Club, error) {
	return f, nil
}

func square(minLat, minLng, size float64) geo.Polygon {
	return geo.Polygon{
		{Lat: minLat, Lng: minLng},
		{Lat: minLat, Lng: minLng + size},
		{Lat: minLat + size, Lng: minLng + size},
		{Lat: minLat + size, Lng: minLng},
	}
}

func at(lat, lng float64) *geo.Coordinate {
	return &geo.Coordinate{Lat: lat, Lng: lng}
}

type fixture struct {
	session *Session
	adapter *fakeAdapter
	repo    *fakeRepo
	store   *areas.Store
}

// League A covers (0..10, 0..10), league B covers (0..10, 10..20).
func newFixture(t *testing.T) fixture {
	t.Helper()

	catalog, err := boundaries.NewCatalog([]boundaries.LeagueBoundary{
		{LeagueID: "A", Name: "League A", Color: "#2563eb", Polygon: square(0, 0, 10)},
		{LeagueID: "B", Name: "League B", Color: "#16a34a", Polygon: square(0, 10, 10)},
	})
	if err != nil {
		t.Fatalf("NewCatalog() error = %v", err)
	}
	store := areas.NewStore(catalog, areas.Options{})
	adapter := newFakeAdapter()
	repo := &fakeRepo{}
	session := NewSession(store, Options{
		Repository: repo,
		Adapter:    adapter,
		Clubs: fakeClubs{
			{ID: 1, Name: "West Club", Coordinate: at(5, 8)},
			{ID: 2, Name: "East Club", Coordinate: at(5, 15)},
			{ID: 3, Name: "Lost Club"},
		},
	})
	return fixture{session: session, adapter: adapter, repo: repo, store: store}
}

func (f fixture) enterEditing(t *testing.T) {
	t.Helper()
	if _, err := f.session.ToggleEditMode(); err != nil {
		t.Fatalf("ToggleEditMode() error = %v", err)
	}
}

func TestModeTransitions(t *testing.T) {
	f := newFixture(t)
	s := f.session

	if s.Mode() != ModeViewing {
		t.Fatalf("initial Mode() = %v, want viewing", s.Mode())
	}
	if err := s.StartDrawing(); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("StartDrawing() while viewing error = %v, want ErrInvalidTransition", err)
	}

	f.enterEditing(t)
	if err := s.StartDrawing(); err != nil {
		t.Fatalf("StartDrawing() error = %v", err)
	}
	if _, err := s.ToggleEditMode(); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("ToggleEditMode() while drawing error = %v, want ErrInvalidTransition", err)
	}
	if err := s.CancelDrawing(); err != nil {
		t.Fatalf("CancelDrawing() error = %v", err)
	}
	if mode, err := s.ToggleEditMode(); err != nil || mode != ModeViewing {
		t.Fatalf("ToggleEditMode() = %v, %v, want viewing, nil", mode, err)
	}
}

func TestLeavingEditModeRequiresSaveOrDiscard(t *testing.T) {
	f := newFixture(t)
	f.enterEditing(t)

	if _, err := f.session.EditVertices("A", geo.BoundsToPath(square(0, 0, 12))); err != nil {
		t.Fatalf("EditVertices() error = %v", err)
	}
	if _, err := f.session.ToggleEditMode(); !errors.Is(err, ErrUnsavedChanges) {
		t.Fatalf("ToggleEditMode() error = %v, want ErrUnsavedChanges", err)
	}

	f.session.Discard()
	if mode, err := f.session.ToggleEditMode(); err != nil || mode != ModeViewing {
		t.Fatalf("ToggleEditMode() after Discard = %v, %v, want viewing, nil", mode, err)
	}
}

func TestDrawingCreatesCustomArea(t *testing.T) {
	f := newFixture(t)
	f.enterEditing(t)
	if err := f.session.StartDrawing(); err != nil {
		t.Fatalf("StartDrawing() error = %v", err)
	}

	// Too few points keeps the session drawing.
	err := f.session.Handle(context.Background(), Event{Kind: EventPolygonCommitted, Vertices: geo.Path{{0, 0}, {0, 2}}})
	if !errors.Is(err, areas.ErrInvalidPolygon) {
		t.Fatalf("Handle(commit 2 points) error = %v, want ErrInvalidPolygon", err)
	}
	if f.session.Mode() != ModeDrawing {
		t.Fatalf("Mode() after rejected commit = %v, want drawing", f.session.Mode())
	}
	if f.adapter.lastNote().Level != LevelWarn {
		t.Fatalf("rejected commit note = %+v, want warning", f.adapter.lastNote())
	}

	path := geo.Path{{0, 0}, {0, 2}, {2, 2}, {2, 0}}
	if err := f.session.Handle(context.Background(), Event{Kind: EventPolygonCommitted, Vertices: path}); err != nil {
		t.Fatalf("Handle(commit) error = %v", err)
	}
	if f.session.Mode() != ModeEditing {
		t.Fatalf("Mode() after commit = %v, want editing", f.session.Mode())
	}

	custom := f.store.CustomAreas()
	if len(custom) != 1 || custom[0].Name != "Custom Area 1" {
		t.Fatalf("CustomAreas() = %+v, want one default-named area", custom)
	}
	req, ok := f.adapter.drawn[custom[0].ID]
	if !ok {
		t.Fatalf("custom area %s was not drawn", custom[0].ID)
	}
	if req.Kind != PolygonCustom || !req.Editable || len(req.Vertices) != 4 {
		t.Fatalf("draw request = %+v, want editable custom polygon with 4 vertices", req)
	}
	if req.LabelColor != "#FFFFFF" && req.LabelColor != "#000000" {
		t.Fatalf("LabelColor = %q, want black or white", req.LabelColor)
	}
	if !f.store.HasUnsavedChanges() {
		t.Fatalf("HasUnsavedChanges() = false after drawing")
	}
}

func TestVertexEditReassignsVisibleMarkers(t *testing.T) {
	f := newFixture(t)
	if _, err := f.session.LoadMarkers(context.Background()); err != nil {
		t.Fatalf("LoadMarkers() error = %v", err)
	}
	if got := f.adapter.styles[3].Color; got != UnassignedColor {
		t.Fatalf("unassigned marker color = %q, want %q", got, UnassignedColor)
	}
	f.enterEditing(t)

	// B grows west over club 1.
	grown := geo.BoundsToPath(geo.Polygon{{Lat: 0, Lng: 6}, {Lat: 0, Lng: 20}, {Lat: 10, Lng: 20}, {Lat: 10, Lng: 6}})
	if err := f.session.Handle(context.Background(), Event{Kind: EventVertexMoved, PolygonID: "B", Vertices: grown}); err != nil {
		t.Fatalf("Handle(vertex moved) error = %v", err)
	}

	markers := f.session.Markers()
	if markers[0].LeagueID != "B" {
		t.Fatalf("club 1 league = %q, want B", markers[0].LeagueID)
	}
	if style := f.adapter.styles[1]; style.LeagueID != "B" || style.Color != "#16a34a" {
		t.Fatalf("club 1 style = %+v, want league B color", style)
	}
	if req := f.adapter.drawn["B"]; req.Kind != PolygonModified {
		t.Fatalf("league B draw kind = %q, want modified", req.Kind)
	}

	changes, err := f.session.ResetLeague("B")
	if err != nil {
		t.Fatalf("ResetLeague() error = %v", err)
	}
	if len(changes) != 1 || changes[0].ClubID != 1 || changes[0].To != "A" {
		t.Fatalf("ResetLeague() changes = %+v, want club 1 back to A", changes)
	}
	if req := f.adapter.drawn["B"]; req.Kind != PolygonLeague {
		t.Fatalf("league B draw kind after reset = %q, want league", req.Kind)
	}
}

func TestEditVerticesRejectsDegeneratePolygon(t *testing.T) {
	f := newFixture(t)
	f.enterEditing(t)

	_, err := f.session.EditVertices("A", geo.Path{{0, 0}, {1, 1}, {2, 2}})
	if !errors.Is(err, areas.ErrInvalidPolygon) {
		t.Fatalf("EditVertices(collinear) error = %v, want ErrInvalidPolygon", err)
	}
	if _, ok := f.store.ModifiedLeague("A"); ok {
		t.Fatalf("collinear edit created an override")
	}
	if f.store.HasUnsavedChanges() {
		t.Fatalf("rejected edit marked the store dirty")
	}
	if req := f.adapter.drawn["A"]; len(req.Vertices) != 4 {
		t.Fatalf("league A was not redrawn with its baseline: %+v", req)
	}

	if _, err := f.session.EditVertices("nope", geo.BoundsToPath(square(0, 0, 1))); !errors.Is(err, ErrUnknownPolygon) {
		t.Fatalf("EditVertices(unknown) error = %v, want ErrUnknownPolygon", err)
	}
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	f := newFixture(t)
	f.enterEditing(t)
	f.session.EditVertices("A", geo.BoundsToPath(square(0, 0, 12)))
	f.session.StartDrawing()
	area, err := f.session.CompleteDrawing(geo.BoundsToPath(square(30, 30, 2)), "Lake District")
	if err != nil {
		t.Fatalf("CompleteDrawing() error = %v", err)
	}

	result := f.session.Save(context.Background())
	if !result.OK() || !result.Clean || result.Saved != 2 {
		t.Fatalf("Save() = %+v, want 2 areas saved cleanly", result)
	}
	if f.store.HasUnsavedChanges() {
		t.Fatalf("HasUnsavedChanges() = true after save")
	}
	if f.repo.records[0].ID != area.ID || f.repo.records[1].OriginalLeagueID != "A" {
		t.Fatalf("saved records = %+v, want custom area then league A override", f.repo.records)
	}

	other := newFixture(t)
	other.repo.records = f.repo.records
	report, err := other.session.Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if report.CustomAreas != 1 || report.ModifiedLeagues != 1 {
		t.Fatalf("Load() report = %+v, want 1 custom and 1 modified", report)
	}
	if req := other.adapter.drawn[area.ID]; req.Name != "Lake District" || req.Editable {
		t.Fatalf("loaded custom area draw = %+v, want read-only Lake District", req)
	}
}

func TestLoadRemovesCustomAreasNoLongerStored(t *testing.T) {
	f := newFixture(t)
	f.enterEditing(t)
	f.session.StartDrawing()
	drawn, err := f.session.CompleteDrawing(geo.BoundsToPath(square(1, 1, 2)), "Pond")
	if err != nil {
		t.Fatalf("CompleteDrawing() error = %v", err)
	}

	if _, err := f.session.Load(context.Background()); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if len(f.store.CustomAreas()) != 0 {
		t.Fatalf("CustomAreas() after Load = %+v, want none", f.store.CustomAreas())
	}
	if _, ok := f.adapter.drawn[drawn.ID]; ok {
		t.Fatalf("polygon %s still drawn after Load", drawn.ID)
	}
	for _, id := range []string{"A", "B"} {
		if _, ok := f.adapter.drawn[id]; !ok {
			t.Fatalf("league polygon %s not drawn after Load", id)
		}
	}
}

func TestSaveFailureKeepsStoreDirty(t *testing.T) {
	f := newFixture(t)
	f.enterEditing(t)
	f.session.EditVertices("A", geo.BoundsToPath(square(0, 0, 12)))
	f.repo.err = errors.New("disk full")

	result := f.session.Save(context.Background())
	if result.OK() {
		t.Fatalf("Save() = %+v, want failure", result)
	}
	if !f.store.HasUnsavedChanges() {
		t.Fatalf("HasUnsavedChanges() = false after failed save")
	}
	if note := f.adapter.lastNote(); note.Level != LevelError {
		t.Fatalf("failure note = %+v, want error", note)
	}

	f.repo.err = nil
	if result := f.session.Save(context.Background()); !result.OK() || !result.Clean {
		t.Fatalf("retried Save() = %+v, want clean success", result)
	}
}

func TestConcurrentSaveIsRejectedAndEditsSurvive(t *testing.T) {
	f := newFixture(t)
	f.enterEditing(t)
	f.session.EditVertices("A", geo.BoundsToPath(square(0, 0, 12)))

	f.repo.block = make(chan struct{})
	f.repo.entered = make(chan struct{}, 1)

	first := make(chan SaveResult, 1)
	go func() {
		first <- f.session.Save(context.Background())
	}()
	<-f.repo.entered

	if result := f.session.Save(context.Background()); !errors.Is(result.Err, ErrSaveInProgress) {
		t.Fatalf("second Save() error = %v, want ErrSaveInProgress", result.Err)
	}

	// Editing continues while the first save is in flight.
	if _, err := f.session.EditVertices("B", geo.BoundsToPath(square(0, 10, 12))); err != nil {
		t.Fatalf("EditVertices() during save error = %v", err)
	}

	close(f.repo.block)
	result := <-first
	if !result.OK() || result.Clean {
		t.Fatalf("first Save() = %+v, want success that is not clean", result)
	}
	if !f.store.HasUnsavedChanges() {
		t.Fatalf("edit made during save was marked saved")
	}
	if len(f.repo.records) != 1 {
		t.Fatalf("first save wrote %d records, want 1", len(f.repo.records))
	}

	f.repo.block = nil
	f.repo.entered = nil
	if result := f.session.Save(context.Background()); !result.Clean || result.Saved != 2 {
		t.Fatalf("follow-up Save() = %+v, want 2 records saved cleanly", result)
	}
}

func TestLoadFailureLeavesStateUntouched(t *testing.T) {
	f := newFixture(t)
	f.enterEditing(t)
	f.session.EditVertices("A", geo.BoundsToPath(square(0, 0, 12)))
	f.repo.err = errors.New("timeout")

	if _, err := f.session.Load(context.Background()); err == nil {
		t.Fatalf("Load() error = nil, want failure")
	}
	if _, ok := f.store.ModifiedLeague("A"); !ok {
		t.Fatalf("failed Load() dropped the pending override")
	}
}

func TestDeleteAndRenameCustomArea(t *testing.T) {
	f := newFixture(t)
	f.enterEditing(t)
	f.session.StartDrawing()
	area, err := f.session.CompleteDrawing(geo.BoundsToPath(square(1, 1, 2)), "")
	if err != nil {
		t.Fatalf("CompleteDrawing() error = %v", err)
	}

	renamed, err := f.session.RenameCustomArea(area.ID, "North Pond")
	if err != nil || renamed.Slug != "north-pond" {
		t.Fatalf("RenameCustomArea() = %+v, %v, want slug north-pond", renamed, err)
	}
	if f.adapter.drawn[area.ID].Name != "North Pond" {
		t.Fatalf("renamed area was not redrawn")
	}

	if _, ok, err := f.session.DeleteCustomArea("missing"); ok || err != nil {
		t.Fatalf("DeleteCustomArea(missing) = %t, %v, want false, nil", ok, err)
	}
	deleted, ok, err := f.session.DeleteCustomArea(area.ID)
	if err != nil || !ok || deleted.ID != area.ID {
		t.Fatalf("DeleteCustomArea() = %+v, %t, %v", deleted, ok, err)
	}
	if _, drawn := f.adapter.drawn[area.ID]; drawn {
		t.Fatalf("deleted area is still drawn")
	}
}

func TestResetAllLeagues(t *testing.T) {
	f := newFixture(t)
	f.enterEditing(t)

	if changes, err := f.session.ResetAllLeagues(); err != nil || changes != nil {
		t.Fatalf("ResetAllLeagues() on clean store = %v, %v, want nil, nil", changes, err)
	}
	if f.store.HasUnsavedChanges() {
		t.Fatalf("empty reset marked the store dirty")
	}

	f.session.EditVertices("A", geo.BoundsToPath(square(0, 0, 12)))
	f.session.EditVertices("B", geo.BoundsToPath(square(0, 10, 12)))
	f.session.Save(context.Background())

	if _, err := f.session.ResetAllLeagues(); err != nil {
		t.Fatalf("ResetAllLeagues() error = %v", err)
	}
	if len(f.store.ModifiedLeagues()) != 0 || !f.store.HasUnsavedChanges() {
		t.Fatalf("ResetAllLeagues() left %d overrides, dirty = %t", len(f.store.ModifiedLeagues()), f.store.HasUnsavedChanges())
	}
}

func TestSimplifyArea(t *testing.T) {
	f := newFixture(t)
	f.enterEditing(t)

	dense := geo.Path{{0, 0}, {0, 5}, {0, 5.0001}, {0, 10}, {10, 10}, {10, 0}}
	if _, err := f.session.EditVertices("A", dense); err != nil {
		t.Fatalf("EditVertices() error = %v", err)
	}
	removed, err := f.session.SimplifyArea("A", 0.01)
	if err != nil || removed != 1 {
		t.Fatalf("SimplifyArea() = %d, %v, want 1, nil", removed, err)
	}
	m, _ := f.store.ModifiedLeague("A")
	if len(m.Polygon) != 5 {
		t.Fatalf("simplified polygon has %d vertices, want 5", len(m.Polygon))
	}
}

func TestStatisticsAndClicks(t *testing.T) {
	f := newFixture(t)
	f.session.LoadMarkers(context.Background())

	stats := f.session.Statistics()
	if stats.TotalClubs != 3 || stats.ByLeague["A"] != 1 || stats.ByLeague["B"] != 1 || stats.Unassigned != 1 {
		t.Fatalf("Statistics() = %+v", stats)
	}

	if err := f.session.Handle(context.Background(), Event{Kind: EventMarkerClicked, ClubID: 2}); err != nil {
		t.Fatalf("Handle(marker click) error = %v", err)
	}
	if got := f.adapter.lastNote().Message; got != "East Club: League B" {
		t.Fatalf("marker note = %q", got)
	}

	if err := f.session.Handle(context.Background(), Event{Kind: EventPolygonClicked, PolygonID: "zzz"}); !errors.Is(err, ErrUnknownPolygon) {
		t.Fatalf("Handle(unknown polygon) error = %v, want ErrUnknownPolygon", err)
	}
}
