package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestUpstreamCounters(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	RecordUpstreamCall(10*time.Millisecond, nil)
	RecordUpstreamCall(30*time.Millisecond, errors.New("rate limited"))

	s := Get()
	assert.Equal(t, int64(2), s.UpstreamCalls)
	assert.Equal(t, int64(1), s.UpstreamErrors)
	assert.InDelta(t, 20.0, s.UpstreamAvgLatencyMs, 0.001)
	assert.InDelta(t, 50.0, s.UpstreamErrorRatePct, 0.001)
}

func TestPipelineCounters(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	RecordCacheLookup(3, 2)
	RecordCacheBatchFailure()
	RecordCacheDuplicateWrite()
	RecordQuery()
	RecordRetrievalEmpty()
	RecordFilteredEmpty()
	RecordRelevanceMalformed()
	RecordHighlight("direct")
	RecordHighlight("keyword")
	RecordHighlight("bogus")

	s := Get()
	assert.Equal(t, int64(3), s.CacheHits)
	assert.Equal(t, int64(2), s.CacheMisses)
	assert.Equal(t, int64(1), s.CacheBatchFailures)
	assert.Equal(t, int64(1), s.CacheDuplicateWrites)
	assert.Equal(t, int64(1), s.Queries)
	assert.Equal(t, int64(1), s.RetrievalEmpty)
	assert.Equal(t, int64(1), s.FilteredEmpty)
	assert.Equal(t, int64(1), s.RelevanceMalformed)
	assert.Equal(t, int64(1), s.HighlightByStrategy["direct"])
	assert.Equal(t, int64(1), s.HighlightByStrategy["keyword"])
	assert.Equal(t, int64(1), s.HighlightByStrategy["none"])
}

func TestZeroCallsNoDivision(t *testing.T) {
	Reset()
	s := Get()
	assert.Zero(t, s.UpstreamAvgLatencyMs)
	assert.Zero(t, s.UpstreamErrorRatePct)
}
