package engine

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// queriesTotal counts Run calls by outcome: "ok", "parse_error",
	// "plan_error".
	queriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pathway_queries_total",
		Help: "Total queries compiled by status",
	}, []string{"status"})

	// compileDuration tracks parse and planning latency.
	compileDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "pathway_compile_duration_seconds",
		Help:    "Query compilation duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.00005, 2, 12), // 50us to ~100ms
	})

	// planCacheHits counts compiled plans served from the cache.
	planCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pathway_plan_cache_hits_total",
		Help: "Total plan cache hits",
	})

	// planCacheMisses counts compilations that had to run.
	planCacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pathway_plan_cache_misses_total",
		Help: "Total plan cache misses",
	})

	// rowsEmitted counts records handed to callers.
	rowsEmitted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pathway_rows_emitted_total",
		Help: "Total result rows emitted",
	})

	// executionErrors counts errors raised while iterating results.
	executionErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pathway_execution_errors_total",
		Help: "Total errors raised during result iteration",
	})
)
