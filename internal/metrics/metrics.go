package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder counts rows flowing through the pipeline stages. A nil *Recorder is valid
// and records nothing.
type Recorder struct {
	registry   *prometheus.Registry
	rowsIn     *prometheus.CounterVec
	rowsOut    *prometheus.CounterVec
	runs       *prometheus.CounterVec
	partitions *prometheus.CounterVec
}

// New creates a recorder backed by its own registry
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		rowsIn: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cribs",
			Name:      "stage_rows_in_total",
			Help:      "Rows entering a pipeline stage.",
		}, []string{"variant", "stage"}),
		rowsOut: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cribs",
			Name:      "stage_rows_out_total",
			Help:      "Rows leaving a pipeline stage.",
		}, []string{"variant", "stage"}),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cribs",
			Name:      "pipeline_runs_total",
			Help:      "Completed pipeline runs by outcome.",
		}, []string{"variant", "status"}),
		partitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cribs",
			Name:      "partitions_saved_total",
			Help:      "Fold artifacts persisted.",
		}, []string{"variant"}),
	}
	r.registry.MustRegister(r.rowsIn, r.rowsOut, r.runs, r.partitions)
	return r
}

// ObserveStage records the row counts before and after a stage
func (r *Recorder) ObserveStage(variant, stage string, in, out int) {
	if r == nil {
		return
	}
	r.rowsIn.WithLabelValues(variant, stage).Add(float64(in))
	r.rowsOut.WithLabelValues(variant, stage).Add(float64(out))
}

// ObserveRun records the outcome of one pipeline run
func (r *Recorder) ObserveRun(variant string, err error) {
	if r == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "failure"
	}
	r.runs.WithLabelValues(variant, status).Inc()
}

// ObservePartition records a persisted fold artifact
func (r *Recorder) ObservePartition(variant string) {
	if r == nil {
		return
	}
	r.partitions.WithLabelValues(variant).Inc()
}

// Registry exposes the underlying registry, mainly for tests
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Handler serves the registry in the Prometheus text format
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
