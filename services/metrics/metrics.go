package metrics

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"sjsage522/ebookdealworker/internal/snapshot"
)

// Recorder tracks per-run gauges and exports them as a node-exporter textfile
type Recorder struct {
	registry *prometheus.Registry
	path     string

	runs        prometheus.Counter
	lastRun     prometheus.Gauge
	runDuration prometheus.Gauge
	changed     prometheus.Gauge
	cards       *prometheus.GaugeVec
	httpStatus  *prometheus.GaugeVec
	blocked     *prometheus.GaugeVec
	failed      *prometheus.GaugeVec
}

// NewRecorder creates a recorder writing to path. An empty path disables Flush.
func NewRecorder(path string) *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		path:     path,
	}

	r.runs = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ebookdeal_runs_total",
		Help: "Number of completed scrape runs",
	})
	r.lastRun = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "ebookdeal_last_run_timestamp_seconds",
		Help: "Unix time of the last completed run",
	})
	r.runDuration = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "ebookdeal_last_run_duration_seconds",
		Help: "Wall time of the last run",
	})
	r.changed = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "ebookdeal_changed_platforms",
		Help: "Platforms whose fingerprint changed in the last run",
	})
	r.cards = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "ebookdeal_cards",
		Help: "Deal cards extracted per platform",
	}, []string{"platform"})
	r.httpStatus = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "ebookdeal_http_status",
		Help: "HTTP status of the last fetch per platform, 0 when no response",
	}, []string{"platform"})
	r.blocked = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "ebookdeal_blocked",
		Help: "1 when the platform was reported as blocked",
	}, []string{"platform"})
	r.failed = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "ebookdeal_failed",
		Help: "1 when the platform recorded an error",
	}, []string{"platform"})

	r.registry.MustRegister(r.runs, r.lastRun, r.runDuration, r.changed, r.cards, r.httpStatus, r.blocked, r.failed)
	return r
}

// Observe records one run's snapshot
func (r *Recorder) Observe(s *snapshot.Snapshot, elapsed time.Duration) {
	r.runs.Inc()
	r.lastRun.SetToCurrentTime()
	r.runDuration.Set(elapsed.Seconds())
	r.changed.Set(float64(len(s.ChangedPlatforms)))

	for _, item := range s.Items {
		r.cards.WithLabelValues(item.Platform).Set(float64(len(item.CardTitles)))
		r.httpStatus.WithLabelValues(item.Platform).Set(float64(item.HTTPStatus))
		r.blocked.WithLabelValues(item.Platform).Set(boolValue(item.Blocked))
		r.failed.WithLabelValues(item.Platform).Set(boolValue(item.Error != ""))
	}
}

// Flush writes the registry to the textfile
func (r *Recorder) Flush() error {
	if r.path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(r.path), 0o755); err != nil {
		return fmt.Errorf("failed to create metrics directory: %w", err)
	}
	return prometheus.WriteToTextfile(r.path, r.registry)
}

// Gatherer exposes the registry
func (r *Recorder) Gatherer() prometheus.Gatherer {
	return r.registry
}

func boolValue(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
