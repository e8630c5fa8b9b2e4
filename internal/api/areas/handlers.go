// internal/api/areas/handlers.go
package areas

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"github.com/codr1/leaguemap/internal/api/apiutil"
	"github.com/codr1/leaguemap/internal/areas"
	"github.com/codr1/leaguemap/internal/boundaries"
	"github.com/codr1/leaguemap/internal/metrics"
)

const areaQueryTimeout = 10 * time.Second

type Repository interface {
	ListAreas(ctx context.Context) ([]areas.PersistedArea, error)
	ReplaceAreas(ctx context.Context, records []areas.PersistedArea) error
}

var (
	catalog *boundaries.Catalog
	repo    Repository
	saving  = semaphore.NewWeighted(1)
)

// InitHandlers must be called during server startup before handling requests.
func InitHandlers(c *boundaries.Catalog, r Repository) {
	catalog = c
	repo = r
}

type replaceResponse struct {
	Areas  []areas.PersistedArea `json:"areas"`
	Report areas.LoadReport      `json:"report"`
}

// GET /api/v1/areas
func HandleAreasList(w http.ResponseWriter, r *http.Request) {
	if repo == nil {
		apiutil.WriteError(w, r, fmt.Errorf("area handlers not initialized"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), areaQueryTimeout)
	defer cancel()

	records, err := repo.ListAreas(ctx)
	if err != nil {
		apiutil.WriteError(w, r, apiutil.HandlerError{Status: http.StatusInternalServerError, Message: "Failed to load areas", Err: err})
		return
	}
	if records == nil {
		records = []areas.PersistedArea{}
	}
	if err := apiutil.WriteJSON(w, http.StatusOK, records); err != nil {
		log.Ctx(r.Context()).Error().Err(err).Msg("Failed to write areas response")
	}
}

// PUT /api/v1/areas replaces the whole collection. The payload is normalized
// through an Area Store; any record that would be skipped rejects the request.
func HandleAreasReplace(w http.ResponseWriter, r *http.Request) {
	if repo == nil || catalog == nil {
		apiutil.WriteError(w, r, fmt.Errorf("area handlers not initialized"))
		return
	}
	logger := log.Ctx(r.Context())

	var records []areas.PersistedArea
	if err := apiutil.DecodeJSON(r, &records); err != nil {
		apiutil.WriteError(w, r, apiutil.HandlerError{Status: http.StatusBadRequest, Message: "Invalid areas payload", Err: err})
		return
	}

	store := areas.NewStore(catalog, areas.Options{})
	report := store.LoadSnapshot(records)
	if len(report.Skipped) > 0 {
		logger.Warn().Int("skipped", len(report.Skipped)).Msg("Rejected areas payload")
		if err := apiutil.WriteJSON(w, http.StatusBadRequest, map[string]any{
			"error":   "Some areas could not be loaded",
			"skipped": report.Skipped,
		}); err != nil {
			logger.Error().Err(err).Msg("Failed to write areas response")
		}
		return
	}

	if !saving.TryAcquire(1) {
		apiutil.WriteError(w, r, apiutil.HandlerError{Status: http.StatusConflict, Message: "A save is already in progress"})
		return
	}
	defer saving.Release(1)

	ctx, cancel := context.WithTimeout(r.Context(), areaQueryTimeout)
	defer cancel()

	started := time.Now()
	normalized := store.SaveSnapshot()
	if err := repo.ReplaceAreas(ctx, normalized); err != nil {
		metrics.ObserveSave("error", started)
		apiutil.WriteError(w, r, apiutil.HandlerError{Status: http.StatusInternalServerError, Message: "Failed to save areas", Err: err})
		return
	}
	metrics.ObserveSave("ok", started)

	logger.Info().
		Int("custom_areas", report.CustomAreas).
		Int("modified_leagues", report.ModifiedLeagues).
		Msg("Areas replaced")
	if err := apiutil.WriteJSON(w, http.StatusOK, replaceResponse{Areas: normalized, Report: report}); err != nil {
		logger.Error().Err(err).Msg("Failed to write areas response")
	}
}
