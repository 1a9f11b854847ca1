package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// Store operation metrics
	WritesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "burrow_store_writes_total",
			Help: "Total number of message writes accepted by the store",
		},
	)

	ReadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "burrow_store_reads_total",
			Help: "Total number of message reads by result",
		},
		[]string{"result"},
	)

	DeletesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "burrow_store_deletes_total",
			Help: "Total number of message deletes",
		},
	)

	FindsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "burrow_store_finds_total",
			Help: "Total number of find operations by mode",
		},
		[]string{"mode"},
	)

	StoreErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "burrow_store_errors_total",
			Help: "Total number of storage errors by operation",
		},
		[]string{"op"},
	)

	// Payload dedup metrics
	PayloadsStored = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "burrow_store_payloads",
			Help: "Number of distinct payloads currently referenced",
		},
	)

	RefcountUnderflowsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "burrow_store_refcount_underflows_total",
			Help: "Total number of deletes against an absent refcount",
		},
	)

	// Bucket lifecycle metrics
	OpenRetriesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "burrow_store_open_retries_total",
			Help: "Total number of bucket open attempts retried on a held lock",
		},
	)

	RecoveredEntriesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "burrow_store_recovered_entries_total",
			Help: "Total number of index entries recovered at bucket startup",
		},
	)

	RecoveryDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "burrow_store_recovery_duration_seconds",
			Help:    "Time taken to rebuild a bucket's state from disk in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// Operation latency metrics
	WriteDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "burrow_store_write_duration_seconds",
			Help:    "Message write duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	FindDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "burrow_store_find_duration_seconds",
			Help:    "Cross-bucket find duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)
)

// Timer measures operation duration
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// Duration returns the elapsed time since the timer was created
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}

// ObserveDuration records the duration to a histogram
func (t *Timer) ObserveDuration(histogram prometheus.Histogram) {
	histogram.Observe(t.Duration().Seconds())
}

// ObserveDurationVec records the duration to a histogram vec with labels
func (t *Timer) ObserveDurationVec(histogram prometheus.ObserverVec, labels ...string) {
	histogram.WithLabelValues(labels...).Observe(t.Duration().Seconds())
}

func init() {
	// Register all metrics with Prometheus
	prometheus.MustRegister(WritesTotal)
	prometheus.MustRegister(ReadsTotal)
	prometheus.MustRegister(DeletesTotal)
	prometheus.MustRegister(FindsTotal)
	prometheus.MustRegister(StoreErrorsTotal)
	prometheus.MustRegister(PayloadsStored)
	prometheus.MustRegister(RefcountUnderflowsTotal)
	prometheus.MustRegister(OpenRetriesTotal)
	prometheus.MustRegister(RecoveredEntriesTotal)
	prometheus.MustRegister(RecoveryDuration)
	prometheus.MustRegister(WriteDuration)
	prometheus.MustRegister(FindDuration)
}
