// Package metrics provides Prometheus metrics for roomchat
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Write results recorded on StoreWritesTotal.
const (
	ResultOK        = "ok"
	ResultRecovered = "recovered"
	ResultQuota     = "quota_exceeded"
	ResultError     = "error"
)

// Metrics holds all Prometheus metrics for roomchat. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	// Store metrics
	StoreWritesTotal *prometheus.CounterVec
	StorageUsedBytes prometheus.Gauge
	QuotaPurgesTotal prometheus.Counter

	// Completion metrics
	CompletionsTotal   *prometheus.CounterVec
	CompletionDuration prometheus.Histogram
	RequestsInFlight   prometheus.Gauge
}

// New creates all metrics and registers them on reg. A nil reg creates
// unregistered collectors.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	m := &Metrics{}

	m.StoreWritesTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "roomchat_store_writes_total",
			Help: "Total number of writes to the key-value backing",
		},
		[]string{"key", "result"},
	)

	m.StorageUsedBytes = factory.NewGauge(
		prometheus.GaugeOpts{
			Name: "roomchat_storage_used_bytes",
			Help: "Estimated bytes used in the key-value backing",
		},
	)

	m.QuotaPurgesTotal = factory.NewCounter(
		prometheus.CounterOpts{
			Name: "roomchat_quota_purges_total",
			Help: "Total number of disposable-entry purges triggered by quota overflow",
		},
	)

	m.CompletionsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "roomchat_completions_total",
			Help: "Total number of completion calls by outcome",
		},
		[]string{"outcome"},
	)

	m.CompletionDuration = factory.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "roomchat_completion_duration_seconds",
			Help:    "Duration of completion calls in seconds",
			Buckets: []float64{.25, .5, 1, 2.5, 5, 10, 30, 60, 120},
		},
	)

	m.RequestsInFlight = factory.NewGauge(
		prometheus.GaugeOpts{
			Name: "roomchat_requests_in_flight",
			Help: "Number of rooms currently awaiting a completion",
		},
	)

	return m
}

// RecordStoreWrite records one write attempt under key.
func (m *Metrics) RecordStoreWrite(key, result string) {
	if m == nil {
		return
	}
	m.StoreWritesTotal.WithLabelValues(key, result).Inc()
}

// RecordQuotaPurge records one cleanup pass.
func (m *Metrics) RecordQuotaPurge() {
	if m == nil {
		return
	}
	m.QuotaPurgesTotal.Inc()
}

// SetStorageUsed updates the usage gauge.
func (m *Metrics) SetStorageUsed(bytes int64) {
	if m == nil {
		return
	}
	m.StorageUsedBytes.Set(float64(bytes))
}

// StartCompletion marks a room as awaiting a completion and returns the
// function that records its outcome.
func (m *Metrics) StartCompletion() func(outcome string) {
	if m == nil {
		return func(string) {}
	}
	start := time.Now()
	m.RequestsInFlight.Inc()
	return func(outcome string) {
		m.RequestsInFlight.Dec()
		m.CompletionDuration.Observe(time.Since(start).Seconds())
		m.CompletionsTotal.WithLabelValues(outcome).Inc()
	}
}
