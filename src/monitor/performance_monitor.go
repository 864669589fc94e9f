// Package monitor records per-request metrics to the relational store
// and keeps rolling counters in the key-value store for reporting.
//
// Observability must never fail a user-facing request: every error in
// this package is logged and swallowed.
package monitor

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/venturedeck/ai-engine/src/models"
)

const (
	counterTTL     = 7 * 24 * time.Hour
	latencySamples = 1000
	hourFormat     = "2006-01-02-15"
	dayFormat      = "2006-01-02"
)

var allProviders = []models.Provider{
	models.ProviderOpenAI,
	models.ProviderClaude,
	models.ProviderGemini,
}

type PerformanceMonitor struct {
	sink     models.MetricsSink
	counters models.CounterStore
	now      func() time.Time
}

func NewPerformanceMonitor(sink models.MetricsSink, counters models.CounterStore) *PerformanceMonitor {
	return &PerformanceMonitor{
		sink:     sink,
		counters: counters,
		now:      time.Now,
	}
}

// Record persists one successful (or cached) request outcome as a
// metric row and bumps the rolling counters.
func (m *PerformanceMonitor) Record(ctx context.Context, req *models.GenerationRequest, resp *models.GenerationResponse) {
	metric := &models.Metric{
		ID:           uuid.New().String(),
		TaskType:     req.TaskType,
		Priority:     req.Priority,
		Provider:     resp.Provider,
		Model:        resp.Model,
		UserID:       req.UserID,
		SessionID:    req.SessionID,
		PromptLength: len(req.Prompt),
		TokensUsed:   resp.TokensUsed,
		Cost:         resp.Cost,
		Latency:      resp.Latency,
		Cached:       resp.Cached,
		FallbackUsed: resp.FallbackUsed,
		Success:      true,
		Timestamp:    m.now().UTC(),
	}

	if err := m.sink.Insert(ctx, metric); err != nil {
		log.Printf("WARN: metrics insert failed: %v", err)
	}

	m.updateCounters(ctx, metric)
}

// RecordError persists a failed attempt with zero cost and increments
// the hourly error counters.
func (m *PerformanceMonitor) RecordError(ctx context.Context, req *models.GenerationRequest, reqErr error) {
	metric := &models.Metric{
		ID:           uuid.New().String(),
		TaskType:     req.TaskType,
		Priority:     req.Priority,
		UserID:       req.UserID,
		SessionID:    req.SessionID,
		PromptLength: len(req.Prompt),
		Success:      false,
		ErrorType:    classifyError(reqErr),
		ErrorMessage: reqErr.Error(),
		Timestamp:    m.now().UTC(),
	}

	if err := m.sink.Insert(ctx, metric); err != nil {
		log.Printf("WARN: metrics insert failed: %v", err)
	}

	hour := metric.Timestamp.Format(hourFormat)
	m.incr(ctx, fmt.Sprintf("metrics:errors:%s:total", hour), 1)
	m.incr(ctx, fmt.Sprintf("metrics:errors:%s:task:%s", hour, req.TaskType), 1)
	m.incr(ctx, fmt.Sprintf("metrics:errors:%s:type:%s", hour, metric.ErrorType), 1)
}

// RecordCacheHit bumps the hit counter. A cache hit never reaches a
// provider and writes no metric row; the counter is its only trace.
func (m *PerformanceMonitor) RecordCacheHit(ctx context.Context) {
	day := m.now().UTC().Format(dayFormat)
	m.incr(ctx, fmt.Sprintf("metrics:cache:%s:hits", day), 1)
}

func (m *PerformanceMonitor) updateCounters(ctx context.Context, metric *models.Metric) {
	hour := metric.Timestamp.Format(hourFormat)
	day := metric.Timestamp.Format(dayFormat)

	if !metric.Cached {
		m.incr(ctx, fmt.Sprintf("metrics:cache:%s:misses", day), 1)
	}

	// Provider counters only apply to live provider calls; cache hits
	// never reached a provider.
	if !metric.Cached && metric.Provider != "" {
		prefix := fmt.Sprintf("metrics:hourly:%s:%s", metric.Provider, hour)
		m.incr(ctx, prefix+":requests", 1)
		m.incr(ctx, prefix+":tokens", int64(metric.TokensUsed))
		if _, err := m.counters.IncrByFloat(ctx, prefix+":cost", metric.Cost, counterTTL); err != nil {
			log.Printf("WARN: metrics counter update failed: %v", err)
		}
		if err := m.counters.PushSample(ctx, prefix+":latency", float64(metric.Latency.Milliseconds()), latencySamples, counterTTL); err != nil {
			log.Printf("WARN: latency sample update failed: %v", err)
		}
	}

	m.incr(ctx, fmt.Sprintf("metrics:daily:%s:requests", day), 1)
	m.incr(ctx, fmt.Sprintf("metrics:task:%s:%s", metric.TaskType, hour), 1)

	if metric.FallbackUsed {
		m.incr(ctx, fmt.Sprintf("metrics:fallback:%s", day), 1)
	}
}

// GetProviderStats aggregates the hourly rolling counters over the
// given timeframe. Reporting only; not on the request hot path.
func (m *PerformanceMonitor) GetProviderStats(ctx context.Context, timeframe time.Duration) ([]models.ProviderStats, error) {
	hours := int(timeframe.Hours())
	if hours < 1 {
		hours = 1
	}
	if maxHours := int(counterTTL.Hours()); hours > maxHours {
		hours = maxHours
	}

	now := m.now().UTC()
	stats := make([]models.ProviderStats, 0, len(allProviders))

	for _, provider := range allProviders {
		ps := models.ProviderStats{Provider: provider}
		var latencySum float64
		var latencyCount int

		for i := 0; i < hours; i++ {
			hour := now.Add(-time.Duration(i) * time.Hour).Format(hourFormat)
			prefix := fmt.Sprintf("metrics:hourly:%s:%s", provider, hour)

			requests, err := m.counters.GetInt(ctx, prefix+":requests")
			if err != nil {
				return nil, fmt.Errorf("reading provider counters: %w", err)
			}
			if requests == 0 {
				continue
			}
			ps.Requests += requests

			tokens, _ := m.counters.GetInt(ctx, prefix+":tokens")
			ps.Tokens += tokens

			cost, _ := m.counters.GetFloat(ctx, prefix+":cost")
			ps.Cost += cost

			samples, _ := m.counters.Samples(ctx, prefix+":latency")
			for _, s := range samples {
				latencySum += s
				latencyCount++
			}
		}

		if ps.Requests > 0 {
			ps.CostPerRequest = ps.Cost / float64(ps.Requests)
			ps.TokensPerRequest = float64(ps.Tokens) / float64(ps.Requests)
		}
		if latencyCount > 0 {
			ps.AvgLatencyMs = latencySum / float64(latencyCount)
		}

		stats = append(stats, ps)
	}

	return stats, nil
}

// GetCacheStats sums the daily hit/miss counters over the counter
// retention window.
func (m *PerformanceMonitor) GetCacheStats(ctx context.Context) (*models.CacheStats, error) {
	now := m.now().UTC()
	stats := &models.CacheStats{}

	for i := 0; i < int(counterTTL.Hours()/24); i++ {
		day := now.AddDate(0, 0, -i).Format(dayFormat)

		hits, err := m.counters.GetInt(ctx, fmt.Sprintf("metrics:cache:%s:hits", day))
		if err != nil {
			return nil, fmt.Errorf("reading cache counters: %w", err)
		}
		misses, _ := m.counters.GetInt(ctx, fmt.Sprintf("metrics:cache:%s:misses", day))

		stats.Hits += hits
		stats.Misses += misses
	}

	stats.Total = stats.Hits + stats.Misses
	if stats.Total > 0 {
		stats.HitRate = float64(stats.Hits) / float64(stats.Total)
	}
	return stats, nil
}

func (m *PerformanceMonitor) incr(ctx context.Context, key string, delta int64) {
	if _, err := m.counters.IncrBy(ctx, key, delta, counterTTL); err != nil {
		log.Printf("WARN: metrics counter update failed: %v", err)
	}
}

func classifyError(err error) string {
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "timeout") || strings.Contains(msg, "deadline"):
		return "timeout"
	case strings.Contains(msg, "rate limit") || strings.Contains(msg, "429"):
		return "rate_limit"
	case strings.Contains(msg, "budget"):
		return "budget_exceeded"
	default:
		return "provider_error"
	}
}
