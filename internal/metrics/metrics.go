package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "lpmon"

var (
	// PriceLookups counts provider lookups by source and result ("ok", "error").
	PriceLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "price",
		Name:      "provider_lookups_total",
		Help:      "Price provider lookups by source and result.",
	}, []string{"source", "result"})

	// PriceCacheReads counts cache reads by result ("hit", "miss").
	PriceCacheReads = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "price",
		Name:      "cache_reads_total",
		Help:      "Price cache reads by result.",
	}, []string{"result"})

	// PriceCacheEntries tracks the number of cached prices.
	PriceCacheEntries = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "price",
		Name:      "cache_entries",
		Help:      "Number of cached prices.",
	})

	// TaskRuns counts scheduled task invocations by task and result ("ok", "error", "panic", "skipped").
	TaskRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "scheduler",
		Name:      "task_runs_total",
		Help:      "Scheduled task invocations by task and result.",
	}, []string{"task", "result"})

	// TaskDuration observes task handler runtime.
	TaskDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "scheduler",
		Name:      "task_duration_seconds",
		Help:      "Scheduled task handler runtime.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"task"})

	// WalletRefreshes counts per-wallet refresh outcomes ("ok", "error").
	WalletRefreshes = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "portfolio",
		Name:      "wallet_refreshes_total",
		Help:      "Per-wallet portfolio refreshes by result.",
	}, []string{"result"})

	// PortfolioValue is the last computed total value per wallet in USD.
	PortfolioValue = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "portfolio",
		Name:      "total_value_usd",
		Help:      "Last computed portfolio value per wallet in USD.",
	}, []string{"wallet"})
)

// Result maps an error to the "ok"/"error" label value.
func Result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
