package models

import (
	"context"
	"time"
)

// ProviderAdapter generates a completion from one upstream vendor.
// One adapter per provider; the router tries them in fallback order.
type ProviderAdapter interface {
	Provider() Provider
	Generate(ctx context.Context, req *GenerationRequest, candidate ModelCandidate) (*ProviderResult, error)
}

// ResponseCacheStore is the content-addressed response cache. Lookup
// misses and storage errors are equivalent from the router's point of
// view; the cache is an optimization, never a correctness dependency.
type ResponseCacheStore interface {
	GenerateKey(req *GenerationRequest) string
	Get(ctx context.Context, key string) (*GenerationResponse, error)
	Set(ctx context.Context, key string, resp *GenerationResponse, taskType TaskType) error
	Invalidate(ctx context.Context, pattern string) error
	Close() error
}

// CounterStore is the key-value store backing budget and metric
// counters. Increments are atomic; reads may be stale.
type CounterStore interface {
	GetFloat(ctx context.Context, key string) (float64, error)
	IncrByFloat(ctx context.Context, key string, delta float64, ttl time.Duration) (float64, error)
	IncrBy(ctx context.Context, key string, delta int64, ttl time.Duration) (int64, error)
	GetInt(ctx context.Context, key string) (int64, error)
	PushSample(ctx context.Context, key string, value float64, maxLen int64, ttl time.Duration) error
	Samples(ctx context.Context, key string) ([]float64, error)
}

// MetricsSink is the relational, insert-only metrics store.
type MetricsSink interface {
	Insert(ctx context.Context, m *Metric) error
}

// RequestRouter runs one generation request through the routing
// pipeline. Implemented by router.ModelRouter; the HTTP layer depends
// on this interface.
type RequestRouter interface {
	Route(ctx context.Context, req *GenerationRequest) (*GenerationResponse, error)
}
