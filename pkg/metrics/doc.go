/*
Package metrics provides Prometheus metrics collection and exposition for
the ledger and sync engine.

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
	│  │           Metric Categories                 │          │
	│  │                                              │          │
	│  │  Ledger: appends, max seq, shadow handles   │          │
	│  │  Sync: ops applied, batch duration, pending │          │
	│  │  Merge: conflict/success counts             │          │
	│  │  Snapshot: writes, cache hits               │          │
	│  │  Source control: commits                    │          │
	│  └──────────────────┬─────────────────────────┘          │
	│                     │                                      │
	│  ┌──────────────────▼─────────────────────────┐          │
	│  │          HTTP Metrics Endpoint              │          │
	│  │  - Path: /metrics                           │          │
	│  │  - Handler: promhttp.Handler()              │          │
	│  └────────────────────────────────────────────┘           │
	└────────────────────────────────────────────────────────┘

Counter-style metrics are incremented directly at the call site: appends
and commits by pkg/repository, sync applies and merge outcomes by pkg/sync,
snapshot writes and cache hits by pkg/snapshot. Gauge-style metrics that have no natural call site
(ledger max sequence per repo, open shadow partition count) are sampled on
an interval by Collector.

Health and readiness are handled separately, by HealthChecker in health.go —
metrics and health are exposed on the same HTTP mux but serve different
consumers (Prometheus scrape vs. orchestrator liveness probe).
*/
package metrics
