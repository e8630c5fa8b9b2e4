// Package metrics exposes Prometheus instrumentation for boundary resolution,
// area saves and the reassignment sweep.
package metrics

import (
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	ResolutionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "leaguemap_resolutions_total",
		Help: "Total point resolutions by matching tier",
	}, []string{"tier"})
	AreaSavesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "leaguemap_area_saves_total",
		Help: "Total area snapshot saves by result",
	}, []string{"result"})
	AreaSaveDurationMs = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "leaguemap_area_save_duration_ms",
		Help:    "Area snapshot save duration in milliseconds",
		Buckets: []float64{1, 5, 10, 20, 50, 100, 200, 500, 1000},
	})
	ReassignmentChangesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "leaguemap_reassignment_changes_total",
		Help: "Total clubs moved to a different league by the reassignment sweep",
	})
	ReassignmentRunsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "leaguemap_reassignment_runs_total",
		Help: "Total reassignment sweep runs by result",
	}, []string{"result"})
)

func collectors() []prometheus.Collector {
	return []prometheus.Collector{
		ResolutionsTotal,
		AreaSavesTotal,
		AreaSaveDurationMs,
		ReassignmentChangesTotal,
		ReassignmentRunsTotal,
	}
}

// Register adds every collector to reg. Collectors that are already
// registered are skipped.
func Register(reg prometheus.Registerer) error {
	for _, c := range collectors() {
		if err := reg.Register(c); err != nil {
			var already prometheus.AlreadyRegisteredError
			if errors.As(err, &already) {
				continue
			}
			return err
		}
	}
	return nil
}

func Handler() http.Handler {
	return promhttp.Handler()
}

func ObserveResolution(tier string) {
	ResolutionsTotal.WithLabelValues(tier).Inc()
}

func ObserveSave(result string, started time.Time) {
	AreaSavesTotal.WithLabelValues(result).Inc()
	AreaSaveDurationMs.Observe(float64(time.Since(started).Milliseconds()))
}

func ObserveReassignment(result string, changes int) {
	ReassignmentRunsTotal.WithLabelValues(result).Inc()
	ReassignmentChangesTotal.Add(float64(changes))
}
