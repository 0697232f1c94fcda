package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Ledger metrics
	LedgerAppendsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "driftnote_ledger_appends_total",
			Help: "Total number of entries appended to a ledger partition, by partition kind",
		},
		[]string{"partition"}, // "local" or "shadow"
	)

	LedgerMaxSeq = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "driftnote_ledger_max_seq",
			Help: "Highest sequence number appended to a repository's local partition",
		},
		[]string{"repo_id"},
	)

	ShadowPartitionsOpen = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "driftnote_shadow_partitions_open",
			Help: "Total number of open shadow (per-peer) partition handles",
		},
	)

	// Sync metrics
	SyncOpsAppliedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "driftnote_sync_ops_applied_total",
			Help: "Total number of remote ops applied by the sync engine, by peer",
		},
		[]string{"peer_id"},
	)

	SyncBatchDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "driftnote_sync_batch_duration_seconds",
			Help:    "Time taken to apply one SyncResponse batch, including any automatic fold",
			Buckets: prometheus.DefBuckets,
		},
	)

	SyncPendingDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "driftnote_sync_pending_depth",
			Help: "Number of ops queued in the manual-mode pending buffer",
		},
	)

	// Merge metrics
	MergeConflictsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "driftnote_merge_conflicts_total",
			Help: "Total number of three-way merges that resolved to Conflict",
		},
	)

	MergeSuccessTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "driftnote_merge_success_total",
			Help: "Total number of three-way merges that resolved cleanly",
		},
	)

	// Snapshot metrics
	SnapshotWritesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "driftnote_snapshot_writes_total",
			Help: "Total number of content snapshots written to the snapshot cache",
		},
	)

	SnapshotCacheHits = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "driftnote_snapshot_cache_hits_total",
			Help: "Total number of reconstructions served from a cached snapshot instead of a full fold",
		},
	)

	// Source control metrics
	CommitsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "driftnote_commits_total",
			Help: "Total number of commits recorded by the source-control layer",
		},
	)
)

func init() {
	prometheus.MustRegister(LedgerAppendsTotal)
	prometheus.MustRegister(LedgerMaxSeq)
	prometheus.MustRegister(ShadowPartitionsOpen)
	prometheus.MustRegister(SyncOpsAppliedTotal)
	prometheus.MustRegister(SyncBatchDuration)
	prometheus.MustRegister(SyncPendingDepth)
	prometheus.MustRegister(MergeConflictsTotal)
	prometheus.MustRegister(MergeSuccessTotal)
	prometheus.MustRegister(SnapshotWritesTotal)
	prometheus.MustRegister(SnapshotCacheHits)
	prometheus.MustRegister(CommitsTotal)
}

// Handler returns the Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// Timer is a helper for timing operations
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// ObserveDuration records the duration to a histogram
func (t *Timer) ObserveDuration(histogram prometheus.Histogram) {
	duration := time.Since(t.start).Seconds()
	histogram.Observe(duration)
}

// ObserveDurationVec records the duration to a histogram vec with labels
func (t *Timer) ObserveDurationVec(histogram prometheus.ObserverVec, labels ...string) {
	duration := time.Since(t.start).Seconds()
	histogram.WithLabelValues(labels...).Observe(duration)
}

// Duration returns the elapsed time since timer started
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}
