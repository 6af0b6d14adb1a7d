// Package metrics exposes Prometheus collectors for inspection runs.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "index_inspector"

// Recorder holds the collectors of one process. Collectors are registered on
// the Registerer passed to NewRecorder so tests can use a private registry.
type Recorder struct {
	inspectionsTotal   *prometheus.CounterVec
	sinkWritesTotal    *prometheus.CounterVec
	rowsWrittenTotal   *prometheus.CounterVec
	failoversTotal     prometheus.Counter
	runDurationSeconds prometheus.Histogram
	lastRunTimestamp   prometheus.Gauge
	lastRunURLs        *prometheus.GaugeVec
}

// NewRecorder creates and registers the inspection collectors on reg.
func NewRecorder(reg prometheus.Registerer) *Recorder {
	factory := promauto.With(reg)
	return &Recorder{
		inspectionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "inspections_total",
				Help:      "Total number of URL inspections, labeled by result.",
			},
			[]string{"result"},
		),
		sinkWritesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "sink_writes_total",
				Help:      "Total number of sink writes, labeled by sink and status.",
			},
			[]string{"sink", "status"},
		),
		rowsWrittenTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "rows_written_total",
				Help:      "Total number of rows handed to a sink, labeled by sink.",
			},
			[]string{"sink"},
		),
		failoversTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "sink_failovers_total",
				Help:      "Total number of remote to local sink failovers.",
			},
		),
		runDurationSeconds: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "run_duration_seconds",
				Help:      "Histogram of inspection run durations.",
				Buckets:   []float64{10, 30, 60, 120, 300, 600, 1800},
			},
		),
		lastRunTimestamp: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "last_run_timestamp_seconds",
				Help:      "Unix time the last run finished.",
			},
		),
		lastRunURLs: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "last_run_urls",
				Help:      "URL counts of the last run, labeled by outcome.",
			},
			[]string{"outcome"},
		),
	}
}

// ObserveInspection counts one inspection.
func (r *Recorder) ObserveInspection(failed bool) {
	result := "success"
	if failed {
		result = "error"
	}
	r.inspectionsTotal.WithLabelValues(result).Inc()
}

// ObserveSinkWrite counts one Append call against sink.
func (r *Recorder) ObserveSinkWrite(sink string, rows int, err error) {
	if err != nil {
		r.sinkWritesTotal.WithLabelValues(sink, "error").Inc()
		return
	}
	r.sinkWritesTotal.WithLabelValues(sink, "success").Inc()
	r.rowsWrittenTotal.WithLabelValues(sink).Add(float64(rows))
}

// ObserveFailover counts a switch from the remote to the local sink.
func (r *Recorder) ObserveFailover() {
	r.failoversTotal.Inc()
}

// ObserveRun records the outcome of a finished run.
func (r *Recorder) ObserveRun(duration time.Duration, finishedAt time.Time, total, errors int) {
	r.runDurationSeconds.Observe(duration.Seconds())
	r.lastRunTimestamp.Set(float64(finishedAt.Unix()))
	r.lastRunURLs.WithLabelValues("total").Set(float64(total))
	r.lastRunURLs.WithLabelValues("error").Set(float64(errors))
}

// WriteTextfile writes everything gathered by g to path in the text exposition
// format, for pickup by a node exporter textfile collector.
func WriteTextfile(path string, g prometheus.Gatherer) error {
	if err := prometheus.WriteToTextfile(path, g); err != nil {
		return fmt.Errorf("write metrics textfile %s: %w", path, err)
	}
	return nil
}
