package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/venturedeck/ai-engine/src/models"
	"github.com/venturedeck/ai-engine/src/monitor"
	"github.com/venturedeck/ai-engine/src/router"
)

type GenerateHandler struct {
	router  models.RequestRouter
	monitor *monitor.PerformanceMonitor
	cache   models.ResponseCacheStore
}

func NewGenerateHandler(r models.RequestRouter, mon *monitor.PerformanceMonitor, cache models.ResponseCacheStore) *GenerateHandler {
	return &GenerateHandler{
		router:  r,
		monitor: mon,
		cache:   cache,
	}
}

func (h *GenerateHandler) HandleGenerate(c *gin.Context) {
	var req models.GenerationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	response, err := h.router.Route(c.Request.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, router.ErrBudgetExceeded):
			c.JSON(http.StatusTooManyRequests, gin.H{"error": err.Error()})
		case errors.Is(err, router.ErrAllModelsFailed):
			c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	c.JSON(http.StatusOK, response)
}

func (h *GenerateHandler) ProviderStats(c *gin.Context) {
	hours := 24
	if raw := c.Query("hours"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			hours = parsed
		}
	}

	stats, err := h.monitor.GetProviderStats(c.Request.Context(), time.Duration(hours)*time.Hour)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read provider stats"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"timeframe_hours": hours, "providers": stats})
}

func (h *GenerateHandler) CacheStats(c *gin.Context) {
	stats, err := h.monitor.GetCacheStats(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read cache stats"})
		return
	}

	c.JSON(http.StatusOK, stats)
}

type invalidateRequest struct {
	Pattern string `json:"pattern" binding:"required"`
}

// InvalidateCache bulk-deletes cached responses matching a pattern.
// Administrative endpoint, not part of the request hot path.
func (h *GenerateHandler) InvalidateCache(c *gin.Context) {
	var req invalidateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.cache.Invalidate(c.Request.Context(), req.Pattern); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "invalidated", "pattern": req.Pattern})
}

func (h *GenerateHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now(),
	})
}
