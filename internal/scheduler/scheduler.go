// Package scheduler runs periodic background jobs for the API process.
package scheduler

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"

	"github.com/GoSim-25-26J-441/civic-rag-backend/internal/logger"
	"github.com/GoSim-25-26J-441/civic-rag-backend/internal/search/metrics"
)

type Scheduler struct {
	cron *cron.Cron
}

func NewScheduler() *Scheduler {
	return &Scheduler{cron: cron.New(cron.WithSeconds())}
}

// AddMetricsReport logs a pipeline metrics summary on the given six-field
// cron spec. An empty spec disables the report.
func (s *Scheduler) AddMetricsReport(spec string) error {
	if spec == "" {
		return nil
	}
	if _, err := s.cron.AddFunc(spec, reportMetrics); err != nil {
		return fmt.Errorf("schedule metrics report %q: %w", spec, err)
	}
	return nil
}

// Start runs the scheduled jobs in the background.
func (s *Scheduler) Start() {
	logger.New(context.Background()).LogInfof("scheduler", "cron scheduler started with %d job(s)", len(s.cron.Entries()))
	s.cron.Start()
}

// Stop halts scheduling and waits for running jobs to finish.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
	}
}

func reportMetrics() {
	m := metrics.Get()
	logger.New(context.Background()).LogInfof("metrics_report",
		"queries=%d retrieval_empty=%d filtered_empty=%d cache_hits=%d cache_misses=%d cache_batch_failures=%d upstream_calls=%d upstream_error_rate=%.1f%% upstream_avg_ms=%.0f highlights=%v",
		m.Queries, m.RetrievalEmpty, m.FilteredEmpty,
		m.CacheHits, m.CacheMisses, m.CacheBatchFailures,
		m.UpstreamCalls, m.UpstreamErrorRatePct, m.UpstreamAvgLatencyMs,
		m.HighlightByStrategy,
	)
}
