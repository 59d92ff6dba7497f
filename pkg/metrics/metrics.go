package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Transaction metrics
	TransactionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledgerkernel_transactions_total",
			Help: "Total number of transactions by receipt outcome",
		},
		[]string{"outcome"},
	)

	TransactionDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ledgerkernel_transaction_duration_seconds",
			Help:    "Wall time from Invoke to receipt, in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// Call-frame stack metrics
	FrameDepth = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ledgerkernel_frame_depth",
			Help:    "Call-frame stack depth observed at push_frame",
			Buckets: []float64{1, 2, 4, 8, 16, 32, 64},
		},
	)

	FramesPushedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ledgerkernel_frames_pushed_total",
			Help: "Total number of call frames pushed",
		},
	)

	// Substate track metrics
	SubstateLocksHeld = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "ledgerkernel_substate_locks_held",
			Help: "Substate locks currently outstanding across all frames",
		},
	)

	SubstateLockContentionTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ledgerkernel_substate_lock_contention_total",
			Help: "Total number of AcquireLock calls that failed because the address was already locked",
		},
	)

	SubstateCommitDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ledgerkernel_substate_commit_duration_seconds",
			Help:    "Time taken to assemble the track's overlay into a commit batch",
			Buckets: prometheus.DefBuckets,
		},
	)

	// System module pipeline metrics
	ModuleErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledgerkernel_module_errors_total",
			Help: "Total number of system module errors by module name and hook",
		},
		[]string{"module", "hook"},
	)

	// Authorization metrics
	AuthChecksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledgerkernel_auth_checks_total",
			Help: "Total number of authorization evaluations by result",
		},
		[]string{"result"},
	)

	// ModuleHookDuration measures how long one pipeline-wide round of a
	// system module lifecycle hook takes, labeled by hook name. Unlike
	// TransactionDuration (one root invocation end to end) this isolates
	// the on_init/on_teardown bookends specifically.
	ModuleHookDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ledgerkernel_module_hook_duration_seconds",
			Help:    "Duration of a system module pipeline hook round, by hook name",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"hook"},
	)
)

func init() {
	prometheus.MustRegister(TransactionsTotal)
	prometheus.MustRegister(TransactionDuration)
	prometheus.MustRegister(FrameDepth)
	prometheus.MustRegister(FramesPushedTotal)
	prometheus.MustRegister(SubstateLocksHeld)
	prometheus.MustRegister(SubstateLockContentionTotal)
	prometheus.MustRegister(SubstateCommitDuration)
	prometheus.MustRegister(ModuleErrorsTotal)
	prometheus.MustRegister(AuthChecksTotal)
	prometheus.MustRegister(ModuleHookDuration)
}

// Handler returns the Prometheus HTTP handler for scraping.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Timer is a helper for timing operations against a histogram.
type Timer struct {
	start time.Time
}

// NewTimer starts a timer.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// ObserveDuration records the elapsed duration to a histogram.
func (t *Timer) ObserveDuration(histogram prometheus.Histogram) {
	histogram.Observe(time.Since(t.start).Seconds())
}

// ObserveDurationVec records the elapsed duration to a histogram vec with labels.
func (t *Timer) ObserveDurationVec(histogram prometheus.ObserverVec, labels ...string) {
	histogram.WithLabelValues(labels...).Observe(time.Since(t.start).Seconds())
}

// Duration returns the elapsed time since the timer started.
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}
