// Package metrics exposes Prometheus collectors for the classification pipeline.
package metrics

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/JaimeStill/phototag/internal/events"
)

const namespace = "phototag"

// Batch run results.
const (
	RunCompleted = "completed"
	RunAborted   = "aborted"
)

// Item outcomes.
const (
	OutcomeSuccess = "success"
	OutcomeFailed  = "failed"
	OutcomeSkipped = "skipped"
)

// PipelineMetrics holds the batch and classification collectors. It also
// acts as an events.Recorder so classification events feed the counters.
type PipelineMetrics struct {
	BatchRuns        *prometheus.CounterVec
	Items            *prometheus.CounterVec
	Fallbacks        *prometheus.CounterVec
	Errors           prometheus.Counter
	ClassifyDuration *prometheus.HistogramVec
	LastBatch        *prometheus.GaugeVec
	LastBatchTime    prometheus.Gauge
	registry         *prometheus.Registry
}

// NewPipelineMetrics creates the collectors and registers them with registry.
func NewPipelineMetrics(registry *prometheus.Registry) (*PipelineMetrics, error) {
	m := &PipelineMetrics{registry: registry}
	m.initMetrics()
	if err := registry.Register(m); err != nil {
		return nil, fmt.Errorf("register pipeline metrics: %w", err)
	}
	return m, nil
}

func (m *PipelineMetrics) initMetrics() {
	m.BatchRuns = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "batch_runs_total",
		Help:      "Batch runs by result.",
	}, []string{"result"})

	m.Items = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "batch_items_total",
		Help:      "Photos handled by batch runs, by outcome.",
	}, []string{"outcome"})

	m.Fallbacks = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "classifier_fallbacks_total",
		Help:      "Tier failures that triggered a fallback, by failing tier.",
	}, []string{"tier"})

	m.Errors = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "classification_errors_total",
		Help:      "Photos whose classification ended in an error event.",
	})

	m.ClassifyDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "classify_duration_seconds",
		Help:      "Duration of successful classification calls, by tier.",
		Buckets:   prometheus.ExponentialBuckets(0.25, 2, 10),
	}, []string{"tier"})

	m.LastBatch = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "last_batch_items",
		Help:      "Item counts of the most recent batch run.",
	}, []string{"stat"})

	m.LastBatchTime = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "last_batch_timestamp_seconds",
		Help:      "Unix time the most recent batch run finished.",
	})
}

// Record updates counters from a classification event.
func (m *PipelineMetrics) Record(_ context.Context, e events.Event) {
	switch e.Kind {
	case events.Success:
		m.ClassifyDuration.WithLabelValues(e.Tier).Observe(e.Duration.Seconds())
	case events.Fallback:
		m.Fallbacks.WithLabelValues(e.Tier).Inc()
	case events.Error:
		m.Errors.Inc()
	}
}

// ObserveBatch records a finished batch run. aborted marks a run that stopped
// before processing, such as a failed selection query.
func (m *PipelineMetrics) ObserveBatch(processed, successful, failed, skipped int, aborted bool) {
	if aborted {
		m.BatchRuns.WithLabelValues(RunAborted).Inc()
	} else {
		m.BatchRuns.WithLabelValues(RunCompleted).Inc()
	}

	m.Items.WithLabelValues(OutcomeSuccess).Add(float64(successful))
	m.Items.WithLabelValues(OutcomeFailed).Add(float64(failed))
	m.Items.WithLabelValues(OutcomeSkipped).Add(float64(skipped))

	m.LastBatch.WithLabelValues("processed").Set(float64(processed))
	m.LastBatch.WithLabelValues("successful").Set(float64(successful))
	m.LastBatch.WithLabelValues("failed").Set(float64(failed))
	m.LastBatch.WithLabelValues("skipped").Set(float64(skipped))
	m.LastBatchTime.Set(float64(time.Now().Unix()))
}

// Registry returns the registry the collectors are registered with.
func (m *PipelineMetrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *PipelineMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		ErrorHandling: promhttp.HTTPErrorOnError,
	})
}

// Collect implements the prometheus.Collector interface.
func (m *PipelineMetrics) Collect(ch chan<- prometheus.Metric) {
	m.BatchRuns.Collect(ch)
	m.Items.Collect(ch)
	m.Fallbacks.Collect(ch)
	m.Errors.Collect(ch)
	m.ClassifyDuration.Collect(ch)
	m.LastBatch.Collect(ch)
	m.LastBatchTime.Collect(ch)
}

// Describe implements the prometheus.Collector interface.
func (m *PipelineMetrics) Describe(ch chan<- *prometheus.Desc) {
	m.BatchRuns.Describe(ch)
	m.Items.Describe(ch)
	m.Fallbacks.Describe(ch)
	m.Errors.Describe(ch)
	m.ClassifyDuration.Describe(ch)
	m.LastBatch.Describe(ch)
	m.LastBatchTime.Describe(ch)
}
