package metrics

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "rasteralign"

// Recorder accumulates the metrics of alignment runs.
type Recorder struct {
	registry *prometheus.Registry

	files      *prometheus.CounterVec
	algorithms *prometheus.CounterVec
	runs       *prometheus.CounterVec
	duration   prometheus.Gauge
	resolution prometheus.Gauge
	gridCells  prometheus.Gauge
	lastRun    prometheus.Gauge
}

// New registers every rasteralign collector on a fresh registry.
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		files: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "files_total",
			Help:      "Input files processed, by kind and outcome.",
		}, []string{"kind", "status"}),
		algorithms: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "resample_algorithm_total",
			Help:      "Rasters moved onto the reference grid, by resampling algorithm.",
		}, []string{"algorithm"}),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Alignment runs, by final status.",
		}, []string{"status"}),
		duration: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_duration_seconds",
			Help:      "Wall-clock duration of the most recent run.",
		}),
		resolution: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "grid_resolution",
			Help:      "Pixel size of the most recent reference grid, in CRS units.",
		}),
		gridCells: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "grid_cells",
			Help:      "Pixel count of the most recent reference grid.",
		}),
		lastRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time at which the most recent run finished.",
		}),
	}
	r.registry.MustRegister(r.files, r.algorithms, r.runs, r.duration, r.resolution, r.gridCells, r.lastRun)
	return r
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// ObserveFile counts one file outcome. algorithm may be empty.
func (r *Recorder) ObserveFile(kind, status, algorithm string) {
	r.files.WithLabelValues(kind, status).Inc()
	if algorithm != "" {
		r.algorithms.WithLabelValues(algorithm).Inc()
	}
}

// ObserveGrid records the shape of the reference grid.
func (r *Recorder) ObserveGrid(resolution float64, cols, rows int) {
	r.resolution.Set(resolution)
	r.gridCells.Set(float64(cols) * float64(rows))
}

// ObserveRun records the end of a run.
func (r *Recorder) ObserveRun(status string, elapsed time.Duration, finished time.Time) {
	r.runs.WithLabelValues(status).Inc()
	r.duration.Set(elapsed.Seconds())
	r.lastRun.Set(float64(finished.Unix()))
}

// WriteTextfile writes every collected metric to path in the Prometheus
// text exposition format.
func (r *Recorder) WriteTextfile(path string) error {
	if path == "" {
		return fmt.Errorf("metrics textfile path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create metrics directory: %w", err)
	}
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
