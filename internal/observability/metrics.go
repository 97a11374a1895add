package observability

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "fmap_fixer"

// Metrics holds the Prometheus counters, histograms, and gauges for a fix run.
// Each Metrics owns its registry so a run can export exactly its own series.
type Metrics struct {
	Registry *prometheus.Registry

	FilesDiscovered prometheus.Counter
	FilesProcessed  prometheus.Counter
	FilesFailed     prometheus.Counter
	PipelineRunning prometheus.Gauge

	FileProcessingDuration prometheus.Histogram

	VisibilityRaised *prometheus.CounterVec // labels: category={sunny,fair,poor,inclement}
	TCUCleared       prometheus.Counter

	ReportsFailed prometheus.Counter
}

// NewMetrics creates all run metrics and registers them with a fresh registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		FilesDiscovered: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "files_discovered_total",
			Help:      "Input files matching the fmap size filter.",
		}),
		FilesProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "files_processed_total",
			Help:      "Files decoded, fixed, and written.",
		}),
		FilesFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "files_failed_total",
			Help:      "Files whose processing aborted the run.",
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pipeline_running",
			Help:      "1 while the batch is running, 0 once it has stopped.",
		}),
		FileProcessingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "file_processing_duration_seconds",
			Help:      "Duration of a read-fix-write cycle for one file.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
		VisibilityRaised: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "visibility_cells_raised_total",
			Help:      "Grid cells whose visibility was raised to the category floor.",
		}, []string{"category"}),
		TCUCleared: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tcu_cells_cleared_total",
			Help:      "Nonzero TCU markers cleared.",
		}),
		ReportsFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reports_failed_total",
			Help:      "Per-file reports that could not be published.",
		}),
	}

	m.Registry.MustRegister(
		m.FilesDiscovered,
		m.FilesProcessed,
		m.FilesFailed,
		m.PipelineRunning,
		m.FileProcessingDuration,
		m.VisibilityRaised,
		m.TCUCleared,
		m.ReportsFailed,
	)

	return m
}

// WriteTextfile writes every registered series to path in the text exposition
// format read by the node exporter textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.Registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
