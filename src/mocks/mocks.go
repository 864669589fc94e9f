package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/venturedeck/ai-engine/src/models"
)

// MockProviderAdapter implements models.ProviderAdapter
type MockProviderAdapter struct {
	mock.Mock
	ProviderName models.Provider
}

func (m *MockProviderAdapter) Provider() models.Provider {
	return m.ProviderName
}

func (m *MockProviderAdapter) Generate(ctx context.Context, req *models.GenerationRequest, candidate models.ModelCandidate) (*models.ProviderResult, error) {
	args := m.Called(ctx, req, candidate)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ProviderResult), args.Error(1)
}

// MockResponseCache implements models.ResponseCacheStore
type MockResponseCache struct {
	mock.Mock
}

func (m *MockResponseCache) GenerateKey(req *models.GenerationRequest) string {
	args := m.Called(req)
	return args.String(0)
}

func (m *MockResponseCache) Get(ctx context.Context, key string) (*models.GenerationResponse, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.GenerationResponse), args.Error(1)
}

func (m *MockResponseCache) Set(ctx context.Context, key string, resp *models.GenerationResponse, taskType models.TaskType) error {
	args := m.Called(ctx, key, resp, taskType)
	return args.Error(0)
}

func (m *MockResponseCache) Invalidate(ctx context.Context, pattern string) error {
	args := m.Called(ctx, pattern)
	return args.Error(0)
}

func (m *MockResponseCache) Close() error {
	args := m.Called()
	return args.Error(0)
}

// MockMetricsSink implements models.MetricsSink
type MockMetricsSink struct {
	mock.Mock
}

func (m *MockMetricsSink) Insert(ctx context.Context, metric *models.Metric) error {
	args := m.Called(ctx, metric)
	return args.Error(0)
}

// MockCounterStore implements models.CounterStore
type MockCounterStore struct {
	mock.Mock
}

func (m *MockCounterStore) GetFloat(ctx context.Context, key string) (float64, error) {
	args := m.Called(ctx, key)
	return args.Get(0).(float64), args.Error(1)
}

func (m *MockCounterStore) GetInt(ctx context.Context, key string) (int64, error) {
	args := m.Called(ctx, key)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockCounterStore) IncrByFloat(ctx context.Context, key string, delta float64, ttl time.Duration) (float64, error) {
	args := m.Called(ctx, key, delta, ttl)
	return args.Get(0).(float64), args.Error(1)
}

func (m *MockCounterStore) IncrBy(ctx context.Context, key string, delta int64, ttl time.Duration) (int64, error) {
	args := m.Called(ctx, key, delta, ttl)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockCounterStore) PushSample(ctx context.Context, key string, value float64, maxLen int64, ttl time.Duration) error {
	args := m.Called(ctx, key, value, maxLen, ttl)
	return args.Error(0)
}

func (m *MockCounterStore) Samples(ctx context.Context, key string) ([]float64, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]float64), args.Error(1)
}

// MockRequestRouter implements models.RequestRouter
type MockRequestRouter struct {
	mock.Mock
}

func (m *MockRequestRouter) Route(ctx context.Context, req *models.GenerationRequest) (*models.GenerationResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.GenerationResponse), args.Error(1)
}
