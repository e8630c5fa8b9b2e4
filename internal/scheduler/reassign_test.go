package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/codr1/leaguemap/internal/areas"
	"github.com/codr1/leaguemap/internal/boundaries"
	"github.com/codr1/leaguemap/internal/email"
	"github.com/codr1/leaguemap/internal/geo"
	"github.com/codr1/leaguemap/internal/testutil"
)

type fakeNotifier struct {
	messages []email.Message
}

func (f *fakeNotifier) NotifyAdmins(ctx context.Context, msg email.Message) error {
	f.messages = append(f.messages, msg)
	return nil
}

func TestReassignClubs(t *testing.T) {
	database := testutil.NewTestDB(t)
	ctx := context.Background()

	catalog, err := boundaries.LoadEmbeddedCatalog()
	if err != nil {
		t.Fatalf("LoadEmbeddedCatalog() error = %v", err)
	}

	// Stored as central, but north now reaches down over it.
	moved, err := database.CreateClub(ctx, "Court Kings", &geo.Coordinate{Lat: 49.5, Lng: 14.5}, "central")
	if err != nil {
		t.Fatalf("CreateClub() error = %v", err)
	}
	if _, err := database.CreateClub(ctx, "Steady TC", &geo.Coordinate{Lat: 49.0, Lng: 17.0}, "east"); err != nil {
		t.Fatalf("CreateClub() error = %v", err)
	}

	north := geo.Polygon{{Lat: 49.2, Lng: 13.8}, {Lat: 49.2, Lng: 15.6}, {Lat: 51.1, Lng: 15.6}, {Lat: 51.1, Lng: 13.8}}
	if err := database.ReplaceAreas(ctx, []areas.PersistedArea{
		{ID: "modified_north", Name: "North Regional League", Bounds: north, Color: "#16a34a", OriginalLeagueID: "north"},
	}); err != nil {
		t.Fatalf("ReplaceAreas() error = %v", err)
	}

	notifier := &fakeNotifier{}
	result, err := ReassignClubs(ctx, database, catalog, notifier, time.Now())
	if err != nil {
		t.Fatalf("ReassignClubs() error = %v", err)
	}
	if result.Clubs != 2 || len(result.Changes) != 1 {
		t.Fatalf("ReassignClubs() = %+v, want 2 clubs, 1 change", result)
	}
	if change := result.Changes[0]; change.ClubID != moved.ID || change.From != "central" || change.To != "north" {
		t.Fatalf("change = %+v, want club %d central -> north", change, moved.ID)
	}

	stored, err := database.GetClub(ctx, moved.ID)
	if err != nil {
		t.Fatalf("GetClub() error = %v", err)
	}
	if stored.LeagueID != "north" {
		t.Fatalf("stored league = %q, want north", stored.LeagueID)
	}
	if len(notifier.messages) != 1 || notifier.messages[0].Subject != "1 club changed league" {
		t.Fatalf("notices = %+v, want one", notifier.messages)
	}

	// A second sweep finds nothing to move and sends nothing.
	result, err = ReassignClubs(ctx, database, catalog, notifier, time.Now())
	if err != nil || len(result.Changes) != 0 {
		t.Fatalf("second ReassignClubs() = %+v, %v, want no changes", result, err)
	}
	if len(notifier.messages) != 1 {
		t.Fatalf("second sweep sent a notice")
	}
}

func TestAddJobValidation(t *testing.T) {
	svc, err := New()
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer svc.Stop()

	if _, err := svc.AddJob("", "* * * * *", func() {}); err != ErrEmptyJobName {
		t.Fatalf("AddJob(empty name) error = %v, want ErrEmptyJobName", err)
	}
	if _, err := svc.AddJob("job", " ", func() {}); err != ErrEmptyCronExpr {
		t.Fatalf("AddJob(empty cron) error = %v, want ErrEmptyCronExpr", err)
	}
	if _, err := svc.AddJob("job", "not a cron", func() {}); err == nil {
		t.Fatalf("AddJob(bad cron) error = nil, want error")
	}
	if _, err := RegisterReassignJob(svc, "0 3 * * *", nil, nil, nil); err != nil {
		t.Fatalf("RegisterReassignJob() error = %v", err)
	}

	var nilService *Service
	if err := nilService.Stop(); err != ErrNotInitialized {
		t.Fatalf("nil Stop() error = %v, want ErrNotInitialized", err)
	}
}
