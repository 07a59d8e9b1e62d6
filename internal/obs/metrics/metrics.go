package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Engine metrics
	TxTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "ametsuchi_tx_total",
			Help: "Total number of transactions appended to the transaction log",
		},
	)

	MerkleLevel0Size = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "ametsuchi_merkle_level0_size",
			Help: "Number of live entries currently held in the Merkle tree's base level",
		},
	)

	EngineState = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "ametsuchi_engine_state",
			Help: "Current engine state (0=closed, 1=open_idle, 2=open_dirty)",
		},
	)

	AppendDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ametsuchi_append_duration_seconds",
			Help:    "Time taken to append a single transaction",
			Buckets: prometheus.DefBuckets,
		},
	)

	CommitDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ametsuchi_commit_duration_seconds",
			Help:    "Time taken to commit the current write transaction",
			Buckets: prometheus.DefBuckets,
		},
	)

	RollbackTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ametsuchi_rollback_total",
			Help: "Total number of rollbacks performed",
		},
	)

	AppendErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ametsuchi_append_errors_total",
			Help: "Total number of failed appends by error kind",
		},
		[]string{"kind"},
	)

	// World-state view metrics
	AccountsTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "ametsuchi_accounts_total",
			Help: "Total number of accounts known to the world-state view",
		},
	)

	AssetsTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "ametsuchi_assets_total",
			Help: "Total number of registered asset schemas",
		},
	)

	PeersTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "ametsuchi_peers_total",
			Help: "Total number of peers known to the world-state view",
		},
	)

	// Ordering (consensus) metrics
	RaftLeader = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "ametsuchi_raft_is_leader",
			Help: "Whether this node is the Raft leader (1 = leader, 0 = follower)",
		},
	)

	RaftAppliedIndex = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "ametsuchi_raft_applied_index",
			Help: "Last Raft log index applied to the ledger engine",
		},
	)

	RaftApplyDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ametsuchi_raft_apply_duration_seconds",
			Help:    "Time taken to apply a Raft log entry to the ledger engine",
			Buckets: prometheus.DefBuckets,
		},
	)
)

func init() {
	prometheus.MustRegister(TxTotal)
	prometheus.MustRegister(MerkleLevel0Size)
	prometheus.MustRegister(EngineState)
	prometheus.MustRegister(AppendDuration)
	prometheus.MustRegister(CommitDuration)
	prometheus.MustRegister(RollbackTotal)
	prometheus.MustRegister(AppendErrorsTotal)
	prometheus.MustRegister(AccountsTotal)
	prometheus.MustRegister(AssetsTotal)
	prometheus.MustRegister(PeersTotal)
	prometheus.MustRegister(RaftLeader)
	prometheus.MustRegister(RaftAppliedIndex)
	prometheus.MustRegister(RaftApplyDuration)
}

// Handler returns the Prometheus HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Timer is a helper for timing operations.
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// ObserveDuration records the duration to a histogram.
func (t *Timer) ObserveDuration(histogram prometheus.Histogram) {
	histogram.Observe(time.Since(t.start).Seconds())
}

// Duration returns the elapsed time since the timer started.
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}
