package metrics

import (
	"sync/atomic"
	"time"
)

// Metrics tracks pipeline and upstream call counters
type Metrics struct {
	upstreamCalls   int64
	upstreamErrors  int64
	upstreamLatency int64 // Total latency in nanoseconds

	cacheHits            int64
	cacheMisses          int64
	cacheBatchFailures   int64
	cacheDuplicateWrites int64

	queries            int64
	retrievalEmpty     int64
	filteredEmpty      int64
	relevanceMalformed int64

	highlightDirect   int64
	highlightSentence int64
	highlightVerbatim int64
	highlightKeyword  int64
	highlightNone     int64
}

// Snapshot is a JSON-friendly copy of the counters.
type Snapshot struct {
	UpstreamCalls        int64            `json:"upstream_calls"`
	UpstreamErrors       int64            `json:"upstream_errors"`
	UpstreamAvgLatencyMs float64          `json:"upstream_avg_latency_ms"`
	UpstreamErrorRatePct float64          `json:"upstream_error_rate_pct"`
	CacheHits            int64            `json:"cache_hits"`
	CacheMisses          int64            `json:"cache_misses"`
	CacheBatchFailures   int64            `json:"cache_batch_failures"`
	CacheDuplicateWrites int64            `json:"cache_duplicate_writes"`
	Queries              int64            `json:"queries"`
	RetrievalEmpty       int64            `json:"retrieval_empty"`
	FilteredEmpty        int64            `json:"filtered_empty"`
	RelevanceMalformed   int64            `json:"relevance_malformed"`
	HighlightByStrategy  map[string]int64 `json:"highlight_by_strategy"`
}

var globalMetrics = &Metrics{}

// Get returns the current metrics snapshot
func Get() Snapshot {
	m := Metrics{
		upstreamCalls:   atomic.LoadInt64(&globalMetrics.upstreamCalls),
		upstreamErrors:  atomic.LoadInt64(&globalMetrics.upstreamErrors),
		upstreamLatency: atomic.LoadInt64(&globalMetrics.upstreamLatency),
	}
	return Snapshot{
		UpstreamCalls:        m.upstreamCalls,
		UpstreamErrors:       m.upstreamErrors,
		UpstreamAvgLatencyMs: m.AverageUpstreamLatency(),
		UpstreamErrorRatePct: m.UpstreamErrorRate(),
		CacheHits:            atomic.LoadInt64(&globalMetrics.cacheHits),
		CacheMisses:          atomic.LoadInt64(&globalMetrics.cacheMisses),
		CacheBatchFailures:   atomic.LoadInt64(&globalMetrics.cacheBatchFailures),
		CacheDuplicateWrites: atomic.LoadInt64(&globalMetrics.cacheDuplicateWrites),
		Queries:              atomic.LoadInt64(&globalMetrics.queries),
		RetrievalEmpty:       atomic.LoadInt64(&globalMetrics.retrievalEmpty),
		FilteredEmpty:        atomic.LoadInt64(&globalMetrics.filteredEmpty),
		RelevanceMalformed:   atomic.LoadInt64(&globalMetrics.relevanceMalformed),
		HighlightByStrategy: map[string]int64{
			"direct":   atomic.LoadInt64(&globalMetrics.highlightDirect),
			"sentence": atomic.LoadInt64(&globalMetrics.highlightSentence),
			"verbatim": atomic.LoadInt64(&globalMetrics.highlightVerbatim),
			"keyword":  atomic.LoadInt64(&globalMetrics.highlightKeyword),
			"none":     atomic.LoadInt64(&globalMetrics.highlightNone),
		},
	}
}

// Reset resets all metrics (useful for testing)
func Reset() {
	for _, p := range []*int64{
		&globalMetrics.upstreamCalls, &globalMetrics.upstreamErrors, &globalMetrics.upstreamLatency,
		&globalMetrics.cacheHits, &globalMetrics.cacheMisses, &globalMetrics.cacheBatchFailures,
		&globalMetrics.cacheDuplicateWrites, &globalMetrics.queries, &globalMetrics.retrievalEmpty,
		&globalMetrics.filteredEmpty, &globalMetrics.relevanceMalformed, &globalMetrics.highlightDirect,
		&globalMetrics.highlightSentence, &globalMetrics.highlightVerbatim, &globalMetrics.highlightKeyword,
		&globalMetrics.highlightNone,
	} {
		atomic.StoreInt64(p, 0)
	}
}

// RecordUpstreamCall records an embedding or generation call
func RecordUpstreamCall(duration time.Duration, err error) {
	atomic.AddInt64(&globalMetrics.upstreamCalls, 1)
	atomic.AddInt64(&globalMetrics.upstreamLatency, duration.Nanoseconds())
	if err != nil {
		atomic.AddInt64(&globalMetrics.upstreamErrors, 1)
	}
}

func RecordCacheLookup(hits, misses int) {
	atomic.AddInt64(&globalMetrics.cacheHits, int64(hits))
	atomic.AddInt64(&globalMetrics.cacheMisses, int64(misses))
}

func RecordCacheBatchFailure() {
	atomic.AddInt64(&globalMetrics.cacheBatchFailures, 1)
}

func RecordCacheDuplicateWrite() {
	atomic.AddInt64(&globalMetrics.cacheDuplicateWrites, 1)
}

func RecordQuery() {
	atomic.AddInt64(&globalMetrics.queries, 1)
}

func RecordRetrievalEmpty() {
	atomic.AddInt64(&globalMetrics.retrievalEmpty, 1)
}

func RecordFilteredEmpty() {
	atomic.AddInt64(&globalMetrics.filteredEmpty, 1)
}

func RecordRelevanceMalformed() {
	atomic.AddInt64(&globalMetrics.relevanceMalformed, 1)
}

// RecordHighlight counts which alignment strategy placed a highlight.
// Unknown names count as "none".
func RecordHighlight(strategy string) {
	switch strategy {
	case "direct":
		atomic.AddInt64(&globalMetrics.highlightDirect, 1)
	case "sentence":
		atomic.AddInt64(&globalMetrics.highlightSentence, 1)
	case "verbatim":
		atomic.AddInt64(&globalMetrics.highlightVerbatim, 1)
	case "keyword":
		atomic.AddInt64(&globalMetrics.highlightKeyword, 1)
	default:
		atomic.AddInt64(&globalMetrics.highlightNone, 1)
	}
}

// AverageUpstreamLatency returns the average latency in milliseconds
func (m Metrics) AverageUpstreamLatency() float64 {
	if m.upstreamCalls == 0 {
		return 0
	}
	avgNs := float64(m.upstreamLatency) / float64(m.upstreamCalls)
	return avgNs / 1e6 // Convert nanoseconds to milliseconds
}

// UpstreamErrorRate returns the error rate as a percentage
func (m Metrics) UpstreamErrorRate() float64 {
	if m.upstreamCalls == 0 {
		return 0
	}
	return float64(m.upstreamErrors) / float64(m.upstreamCalls) * 100
}
