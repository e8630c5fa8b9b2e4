// internal/api/leagues/handlers.go
package leagues

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/codr1/leaguemap/internal/api/apiutil"
	"github.com/codr1/leaguemap/internal/areas"
	"github.com/codr1/leaguemap/internal/assignment"
	"github.com/codr1/leaguemap/internal/boundaries"
	"github.com/codr1/leaguemap/internal/geo"
	"github.com/codr1/leaguemap/internal/metrics"
)

const leagueQueryTimeout = 5 * time.Second

type AreaLister interface {
	ListAreas(ctx context.Context) ([]areas.PersistedArea, error)
}

type ClubLister interface {
	ListClubs(ctx context.Context) ([]assignment.Club, error)
}

var (
	catalog *boundaries.Catalog
	areaDB  AreaLister
	clubDB  ClubLister
)

// InitHandlers must be called during server startup before handling requests.
func InitHandlers(c *boundaries.Catalog, a AreaLister, clubs ClubLister) {
	catalog = c
	areaDB = a
	clubDB = clubs
}

type leagueResponse struct {
	ID         string         `json:"id"`
	Name       string         `json:"name"`
	Slug       string         `json:"slug"`
	Color      string         `json:"color"`
	Bounds     geo.Polygon    `json:"bounds"`
	Center     geo.Coordinate `json:"center"`
	AreaKm2    float64        `json:"areaKm2"`
	IsModified bool           `json:"isModified"`
}

type resolveResponse struct {
	Point    geo.Coordinate `json:"point"`
	LeagueID *string        `json:"leagueId"`
	Tier     string         `json:"tier"`
}

// GET /api/v1/leagues
func HandleLeaguesList(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), leagueQueryTimeout)
	defer cancel()

	store, err := loadStore(ctx)
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}

	modified := store.Snapshot().ModifiedByLeague()
	leagues := make([]leagueResponse, 0, catalog.Len())
	for _, b := range catalog.ListLeagues() {
		resp := leagueResponse{
			ID:     b.LeagueID,
			Name:   b.Name,
			Slug:   b.Slug,
			Color:  b.Color,
			Bounds: b.Polygon,
			Center: geo.Centroid(b.Polygon),
		}
		if m, ok := modified[b.LeagueID]; ok {
			resp.Bounds = m.Polygon
			resp.Center = m.Center
			resp.IsModified = true
		}
		resp.AreaKm2 = geo.Area(resp.Bounds)
		leagues = append(leagues, resp)
	}

	if err := apiutil.WriteJSON(w, http.StatusOK, map[string]any{"leagues": leagues}); err != nil {
		log.Ctx(r.Context()).Error().Err(err).Msg("Failed to write leagues response")
	}
}

// GET /api/v1/leagues/resolve?lat=&lng=
func HandleResolve(w http.ResponseWriter, r *http.Request) {
	point, err := apiutil.CoordinateFromQuery(r)
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), leagueQueryTimeout)
	defer cancel()

	store, err := loadStore(ctx)
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}

	leagueID, tier := assignment.NewResolver(store, catalog).ResolveWithTier(point)
	metrics.ObserveResolution(tier.String())
	resp := resolveResponse{Point: point, Tier: tier.String()}
	if tier != assignment.TierUnassigned {
		resp.LeagueID = &leagueID
	}
	if err := apiutil.WriteJSON(w, http.StatusOK, resp); err != nil {
		log.Ctx(r.Context()).Error().Err(err).Msg("Failed to write resolve response")
	}
}

// GET /api/v1/leagues/statistics
func HandleStatistics(w http.ResponseWriter, r *http.Request) {
	if clubDB == nil {
		apiutil.WriteError(w, r, fmt.Errorf("club source not initialized"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), leagueQueryTimeout)
	defer cancel()

	store, err := loadStore(ctx)
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	clubs, err := clubDB.ListClubs(ctx)
	if err != nil {
		apiutil.WriteError(w, r, apiutil.HandlerError{Status: http.StatusInternalServerError, Message: "Failed to load clubs", Err: err})
		return
	}

	stats := assignment.ComputeStatisticsWithAreas(clubs, store, catalog)
	if err := apiutil.WriteJSON(w, http.StatusOK, stats); err != nil {
		log.Ctx(r.Context()).Error().Err(err).Msg("Failed to write statistics response")
	}
}

// loadStore builds a fresh Area Store from the persisted collection so each
// request sees the last saved state.
func loadStore(ctx context.Context) (*areas.Store, error) {
	if catalog == nil || areaDB == nil {
		return nil, fmt.Errorf("league handlers not initialized")
	}
	records, err := areaDB.ListAreas(ctx)
	if err != nil {
		return nil, apiutil.HandlerError{Status: http.StatusInternalServerError, Message: "Failed to load areas", Err: err}
	}
	store := areas.NewStore(catalog, areas.Options{})
	if report := store.LoadSnapshot(records); len(report.Skipped) > 0 {
		log.Ctx(ctx).Warn().Int("skipped", len(report.Skipped)).Msg("Persisted areas skipped on load")
	}
	return store, nil
}
