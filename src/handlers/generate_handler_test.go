package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/venturedeck/ai-engine/src/cache"
	"github.com/venturedeck/ai-engine/src/mocks"
	"github.com/venturedeck/ai-engine/src/models"
	"github.com/venturedeck/ai-engine/src/monitor"
	"github.com/venturedeck/ai-engine/src/router"
)

func setupTestHandler(t *testing.T) (*GenerateHandler, *mocks.MockRequestRouter, *mocks.MockResponseCache, *monitor.PerformanceMonitor) {
	gin.SetMode(gin.TestMode)

	mr, err := miniredis.Run()
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	counters := cache.NewRedisCounterStore(client)

	sink := new(mocks.MockMetricsSink)
	sink.On("Insert", mock.Anything, mock.Anything).Return(nil)
	mon := monitor.NewPerformanceMonitor(sink, counters)

	mockRouter := new(mocks.MockRequestRouter)
	mockCache := new(mocks.MockResponseCache)

	t.Cleanup(func() {
		client.Close()
		mr.Close()
	})

	return NewGenerateHandler(mockRouter, mon, mockCache), mockRouter, mockCache, mon
}

func postJSON(handler gin.HandlerFunc, path string, body interface{}) *httptest.ResponseRecorder {
	jsonBody, _ := json.Marshal(body)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest("POST", path, bytes.NewBuffer(jsonBody))
	c.Request.Header.Set("Content-Type", "application/json")

	handler(c)
	return w
}

func TestGenerateHandler_Success(t *testing.T) {
	handler, mockRouter, _, _ := setupTestHandler(t)

	mockRouter.On("Route", mock.Anything, mock.Anything).Return(&models.GenerationResponse{
		Content:    "A lean business plan",
		Model:      "claude-3-sonnet",
		Provider:   models.ProviderClaude,
		TokensUsed: 800,
		Cost:       0.0024,
		Latency:    300 * time.Millisecond,
	}, nil)

	w := postJSON(handler.HandleGenerate, "/api/v1/generate", models.GenerationRequest{
		TaskType: models.TaskBusinessPlan,
		Prompt:   "Plan a vertical farming startup",
	})

	assert.Equal(t, http.StatusOK, w.Code)

	var response models.GenerationResponse
	json.Unmarshal(w.Body.Bytes(), &response)

	assert.Equal(t, "A lean business plan", response.Content)
	assert.Equal(t, models.ProviderClaude, response.Provider)
	assert.False(t, response.Cached)

	mockRouter.AssertExpectations(t)
}

func TestGenerateHandler_BudgetDenied(t *testing.T) {
	handler, mockRouter, _, _ := setupTestHandler(t)

	mockRouter.On("Route", mock.Anything, mock.Anything).
		Return(nil, fmt.Errorf("%w: daily budget exceeded", router.ErrBudgetExceeded))

	w := postJSON(handler.HandleGenerate, "/api/v1/generate", models.GenerationRequest{
		TaskType: models.TaskGeneral,
		Prompt:   "anything",
	})

	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	var body map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &body)
	assert.Contains(t, body["error"], "budget exceeded")
}

func TestGenerateHandler_AllModelsFailed(t *testing.T) {
	handler, mockRouter, _, _ := setupTestHandler(t)

	mockRouter.On("Route", mock.Anything, mock.Anything).
		Return(nil, fmt.Errorf("%w after 2 candidates: timeout", router.ErrAllModelsFailed))

	w := postJSON(handler.HandleGenerate, "/api/v1/generate", models.GenerationRequest{
		TaskType: models.TaskMarketAnalysis,
		Prompt:   "anything",
	})

	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestGenerateHandler_InvalidRequest(t *testing.T) {
	handler, _, _, _ := setupTestHandler(t)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest("POST", "/api/v1/generate", bytes.NewBufferString("not json"))
	c.Request.Header.Set("Content-Type", "application/json")

	handler.HandleGenerate(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGenerateHandler_MissingPromptRejected(t *testing.T) {
	handler, _, _, _ := setupTestHandler(t)

	w := postJSON(handler.HandleGenerate, "/api/v1/generate", map[string]string{
		"task_type": "general",
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGenerateHandler_CacheStats(t *testing.T) {
	handler, _, _, mon := setupTestHandler(t)

	mon.RecordCacheHit(context.Background())

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest("GET", "/api/v1/stats/cache", nil)

	handler.CacheStats(c)

	assert.Equal(t, http.StatusOK, w.Code)

	var stats models.CacheStats
	json.Unmarshal(w.Body.Bytes(), &stats)
	assert.Equal(t, int64(1), stats.Hits)
}

func TestGenerateHandler_ProviderStats(t *testing.T) {
	handler, _, _, _ := setupTestHandler(t)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest("GET", "/api/v1/stats/providers?hours=6", nil)

	handler.ProviderStats(c)

	assert.Equal(t, http.StatusOK, w.Code)

	var body map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &body)
	assert.Equal(t, float64(6), body["timeframe_hours"])
}

func TestGenerateHandler_InvalidateCache(t *testing.T) {
	handler, _, mockCache, _ := setupTestHandler(t)

	mockCache.On("Invalidate", mock.Anything, "business_plan:*").Return(nil)

	w := postJSON(handler.InvalidateCache, "/api/v1/admin/cache/invalidate", map[string]string{
		"pattern": "business_plan:*",
	})

	assert.Equal(t, http.StatusOK, w.Code)
	mockCache.AssertExpectations(t)
}

func TestGenerateHandler_HealthCheck(t *testing.T) {
	handler, _, _, _ := setupTestHandler(t)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest("GET", "/api/v1/health", nil)

	handler.HealthCheck(c)

	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &response)
	assert.Equal(t, "healthy", response["status"])
}
