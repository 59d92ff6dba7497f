/*
Package metrics provides Prometheus metrics collection and exposition for the
execution engine.

The metrics package defines and registers the engine's Prometheus metrics,
giving observability into transaction outcomes, call-frame depth, substate
lock contention and commit latency, and authorization results. Metrics are
exposed via an HTTP endpoint for scraping.

# Architecture

	┌──────────────────── METRICS SYSTEM ──────────────────────┐
	│                                                            │
	│  ┌────────────────────────────────────────────┐          │
	│  │          Prometheus Registry                │          │
	│  │  - Global DefaultRegistry                   │          │
	│  │  - MustRegister at package init             │          │
	│  └──────────────────┬─────────────────────────┘          │
	│                     │                                      │
	│  ┌──────────────────▼─────────────────────────┐          │
	│  │              Metric Categories               │          │
	│  │                                              │          │
	│  │  Transactions: outcome counts, duration      │          │
	│  │  Frames: push count, depth distribution      │          │
	│  │  Substate: locks held, contention, commit    │          │
	│  │  Auth: authorized/denied check counts        │          │
	│  └──────────────────────────────────────────────┘          │
	└────────────────────────────────────────────────────────────┘

The gas-consumption counters live in pkg/module alongside CostingModule,
since they are intrinsically part of that module's own bookkeeping rather
than engine-wide observability; this package covers everything else.

# Usage

Call metrics.Handler() from an HTTP server to expose the /metrics endpoint,
and use metrics.NewTimer() around any operation whose duration should land in
a histogram:

	timer := metrics.NewTimer()
	defer timer.ObserveDuration(metrics.TransactionDuration)
*/
package metrics
