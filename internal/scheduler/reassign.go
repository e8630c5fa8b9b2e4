package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/rs/zerolog/log"

	"github.com/codr1/leaguemap/internal/areas"
	"github.com/codr1/leaguemap/internal/assignment"
	"github.com/codr1/leaguemap/internal/boundaries"
	"github.com/codr1/leaguemap/internal/db"
	"github.com/codr1/leaguemap/internal/email"
	"github.com/codr1/leaguemap/internal/metrics"
)

const (
	ReassignJobName = "league_reassignment"
	reassignTimeout = 5 * time.Minute
)

// Notifier receives the summary of a sweep that moved clubs.
type Notifier interface {
	NotifyAdmins(ctx context.Context, msg email.Message) error
}

type ReassignResult struct {
	Clubs   int
	Changes []assignment.Change
	Skipped int
}

// ReassignClubs resolves every stored club against the saved boundaries and
// persists the clubs whose league changed. Admins are notified only when
// something moved; a failed notice is logged, not returned.
func ReassignClubs(ctx context.Context, database *db.DB, catalog *boundaries.Catalog, notifier Notifier, now time.Time) (ReassignResult, error) {
	if database == nil || catalog == nil {
		return ReassignResult{}, fmt.Errorf("reassignment requires database and catalog")
	}
	logger := log.Ctx(ctx).With().Str("job", ReassignJobName).Logger()

	records, err := database.ListAreas(ctx)
	if err != nil {
		metrics.ObserveReassignment("error", 0)
		return ReassignResult{}, fmt.Errorf("load areas: %w", err)
	}
	store := areas.NewStore(catalog, areas.Options{})
	report := store.LoadSnapshot(records)

	markers, err := database.ListClubMarkers(ctx)
	if err != nil {
		metrics.ObserveReassignment("error", 0)
		return ReassignResult{}, fmt.Errorf("load clubs: %w", err)
	}

	changes := assignment.NewResolver(store, catalog).Reassign(markers)
	if err := database.ApplyChanges(ctx, changes); err != nil {
		metrics.ObserveReassignment("error", 0)
		return ReassignResult{}, fmt.Errorf("apply reassignment: %w", err)
	}
	metrics.ObserveReassignment("ok", len(changes))

	result := ReassignResult{Clubs: len(markers), Changes: changes, Skipped: len(report.Skipped)}
	logger.Info().
		Int("clubs", result.Clubs).
		Int("changes", len(changes)).
		Int("skipped_areas", result.Skipped).
		Msg("League reassignment completed")

	if notifier != nil && len(changes) > 0 {
		msg := email.BuildReassignmentNotice(changes, leagueNamer(catalog), now)
		if err := notifier.NotifyAdmins(ctx, msg); err != nil {
			logger.Error().Err(err).Msg("Failed to notify admins of reassignment")
		}
	}
	return result, nil
}

func leagueNamer(catalog *boundaries.Catalog) email.LeagueNamer {
	return func(leagueID string) string {
		if b, ok := catalog.GetBoundary(leagueID); ok {
			return b.Name
		}
		return ""
	}
}

// RegisterReassignJob schedules ReassignClubs on svc.
func RegisterReassignJob(svc *Service, cronExpr string, database *db.DB, catalog *boundaries.Catalog, notifier Notifier) (gocron.Job, error) {
	return svc.AddJob(ReassignJobName, cronExpr, func() {
		ctx, cancel := context.WithTimeout(context.Background(), reassignTimeout)
		defer cancel()
		ctx = log.With().Str("component", "scheduler").Logger().WithContext(ctx)

		if _, err := ReassignClubs(ctx, database, catalog, notifier, time.Now()); err != nil {
			log.Ctx(ctx).Error().Err(err).Msg("League reassignment failed")
		}
	})
}
