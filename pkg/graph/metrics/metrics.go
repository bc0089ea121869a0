package metrics

import (
	"runtime"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// System metrics
	SystemMemoryUsage = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "system_memory_bytes",
		Help: "Current system memory usage",
	})

	SystemGoroutines = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "system_goroutines",
		Help: "Number of goroutines",
	})

	// Run metrics
	RunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "enrich_runs_total",
			Help: "Total number of enrichment runs by result",
		},
		[]string{"status"},
	)

	StageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "enrich_stage_duration_seconds",
			Help: "Time spent in each enrichment stage",
		},
		[]string{"stage"},
	)

	NodesExported = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "enrich_nodes_exported",
		Help: "Number of nodes handed to the analyzer in the last run",
	})

	// Analyzer metrics
	AnalyzerRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "analyzer_runs_total",
			Help: "Total number of analyzer invocations by result",
		},
		[]string{"status"},
	)

	// Candidate metrics
	CandidatesProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "candidates_processed_total",
			Help: "Number of candidates processed by category and outcome",
		},
		[]string{"category", "outcome"},
	)

	ResolutionLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "resolution_lookups_total",
			Help: "Number of node identity lookups by strategy and result",
		},
		[]string{"strategy", "result"},
	)

	// Graph metrics
	RelationshipsWritten = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "graph_relationships_written_total",
			Help: "Number of relationships created by type",
		},
		[]string{"rel_type"},
	)
)

// UpdateSystemMetrics updates system-level metrics
func UpdateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	SystemMemoryUsage.Set(float64(m.Alloc))
	SystemGoroutines.Set(float64(runtime.NumGoroutine()))
}

// WriteTextfile updates system metrics and writes every registered metric
// to path in the Prometheus text format.
func WriteTextfile(path string) error {
	UpdateSystemMetrics()
	return prometheus.WriteToTextfile(path, prometheus.DefaultGatherer)
}
