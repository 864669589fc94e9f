package monitor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/venturedeck/ai-engine/src/cache"
	"github.com/venturedeck/ai-engine/src/mocks"
	"github.com/venturedeck/ai-engine/src/models"
)

func setupMonitor(t *testing.T) (*PerformanceMonitor, *mocks.MockMetricsSink, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	counters := cache.NewRedisCounterStore(client)

	sink := new(mocks.MockMetricsSink)
	mon := NewPerformanceMonitor(sink, counters)

	t.Cleanup(func() {
		client.Close()
		mr.Close()
	})

	return mon, sink, mr
}

func sampleRequest() *models.GenerationRequest {
	return &models.GenerationRequest{
		TaskType: models.TaskMarketAnalysis,
		Prompt:   "how big is the market",
		Priority: models.PriorityMedium,
		UserID:   "user-1",
	}
}

func sampleResponse() *models.GenerationResponse {
	return &models.GenerationResponse{
		Content:    "large",
		Model:      "gemini-1.5-pro",
		Provider:   models.ProviderGemini,
		TokensUsed: 350,
		Cost:       0.0004,
		Latency:    420 * time.Millisecond,
	}
}

func TestPerformanceMonitor_RecordInsertsMetricRow(t *testing.T) {
	mon, sink, _ := setupMonitor(t)

	sink.On("Insert", mock.Anything, mock.MatchedBy(func(m *models.Metric) bool {
		return m.Success &&
			m.Provider == models.ProviderGemini &&
			m.Model == "gemini-1.5-pro" &&
			m.TokensUsed == 350 &&
			m.ID != ""
	})).Return(nil).Once()

	mon.Record(context.Background(), sampleRequest(), sampleResponse())

	sink.AssertExpectations(t)
}

func TestPerformanceMonitor_RecordUpdatesRollingCounters(t *testing.T) {
	mon, sink, mr := setupMonitor(t)
	sink.On("Insert", mock.Anything, mock.Anything).Return(nil)

	ctx := context.Background()
	mon.Record(ctx, sampleRequest(), sampleResponse())
	mon.Record(ctx, sampleRequest(), sampleResponse())

	hour := time.Now().UTC().Format(hourFormat)
	prefix := "metrics:hourly:gemini:" + hour

	requests, err := mr.Get(prefix + ":requests")
	require.NoError(t, err)
	assert.Equal(t, "2", requests)

	tokens, err := mr.Get(prefix + ":tokens")
	require.NoError(t, err)
	assert.Equal(t, "700", tokens)

	samples, err := mr.List(prefix + ":latency")
	require.NoError(t, err)
	assert.Len(t, samples, 2)
}

func TestPerformanceMonitor_SinkFailureIsSwallowed(t *testing.T) {
	mon, sink, _ := setupMonitor(t)
	sink.On("Insert", mock.Anything, mock.Anything).Return(errors.New("postgres down"))

	// Must not panic; observability never fails the request.
	mon.Record(context.Background(), sampleRequest(), sampleResponse())
	mon.RecordError(context.Background(), sampleRequest(), errors.New("boom"))
}

func TestPerformanceMonitor_RecordErrorClassifiesAndCounts(t *testing.T) {
	mon, sink, mr := setupMonitor(t)

	sink.On("Insert", mock.Anything, mock.MatchedBy(func(m *models.Metric) bool {
		return !m.Success && m.ErrorType == "rate_limit" && m.Cost == 0
	})).Return(nil).Once()

	mon.RecordError(context.Background(), sampleRequest(), errors.New("429 rate limit exceeded"))

	hour := time.Now().UTC().Format(hourFormat)
	total, err := mr.Get("metrics:errors:" + hour + ":total")
	require.NoError(t, err)
	assert.Equal(t, "1", total)

	byType, err := mr.Get("metrics:errors:" + hour + ":type:rate_limit")
	require.NoError(t, err)
	assert.Equal(t, "1", byType)

	sink.AssertExpectations(t)
}

func TestPerformanceMonitor_GetProviderStats(t *testing.T) {
	mon, sink, _ := setupMonitor(t)
	sink.On("Insert", mock.Anything, mock.Anything).Return(nil)

	ctx := context.Background()
	mon.Record(ctx, sampleRequest(), sampleResponse())
	mon.Record(ctx, sampleRequest(), sampleResponse())

	stats, err := mon.GetProviderStats(ctx, 24*time.Hour)
	require.NoError(t, err)

	var gemini *models.ProviderStats
	for i := range stats {
		if stats[i].Provider == models.ProviderGemini {
			gemini = &stats[i]
		}
	}

	require.NotNil(t, gemini)
	assert.Equal(t, int64(2), gemini.Requests)
	assert.Equal(t, int64(700), gemini.Tokens)
	assert.InDelta(t, 0.0008, gemini.Cost, 0.00001)
	assert.InDelta(t, 0.0004, gemini.CostPerRequest, 0.00001)
	assert.InDelta(t, 350, gemini.TokensPerRequest, 0.01)
	assert.InDelta(t, 420, gemini.AvgLatencyMs, 0.5)
}

func TestPerformanceMonitor_GetCacheStats(t *testing.T) {
	mon, sink, _ := setupMonitor(t)
	sink.On("Insert", mock.Anything, mock.Anything).Return(nil)

	ctx := context.Background()

	mon.RecordCacheHit(ctx)
	mon.RecordCacheHit(ctx)
	mon.RecordCacheHit(ctx)
	mon.Record(ctx, sampleRequest(), sampleResponse()) // one miss

	stats, err := mon.GetCacheStats(ctx)
	require.NoError(t, err)

	assert.Equal(t, int64(3), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
	assert.Equal(t, int64(4), stats.Total)
	assert.InDelta(t, 0.75, stats.HitRate, 0.0001)
}

func TestPerformanceMonitor_LatencySamplesAreBounded(t *testing.T) {
	mon, sink, mr := setupMonitor(t)
	sink.On("Insert", mock.Anything, mock.Anything).Return(nil)

	ctx := context.Background()
	for i := 0; i < latencySamples+50; i++ {
		mon.Record(ctx, sampleRequest(), sampleResponse())
	}

	hour := time.Now().UTC().Format(hourFormat)
	samples, err := mr.List("metrics:hourly:gemini:" + hour + ":latency")
	require.NoError(t, err)
	assert.Len(t, samples, latencySamples)
}
