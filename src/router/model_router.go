// Package router orchestrates a generation request across budget
// checks, the response cache, model selection and provider fallback.
//
// Failure policy per subsystem: budget storage fails open, cache and
// metrics fail silent, providers fail over to the next candidate. A
// caller only ever sees a budget denial or total provider exhaustion.
package router

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/venturedeck/ai-engine/src/budget"
	"github.com/venturedeck/ai-engine/src/models"
	"github.com/venturedeck/ai-engine/src/monitor"
	"github.com/venturedeck/ai-engine/src/selector"
)

var (
	ErrBudgetExceeded  = errors.New("budget exceeded")
	ErrAllModelsFailed = errors.New("all models failed")
)

type ModelRouter struct {
	optimizer *budget.CostOptimizer
	cache     models.ResponseCacheStore
	selector  *selector.ModelSelector
	monitor   *monitor.PerformanceMonitor
	providers map[models.Provider]models.ProviderAdapter
}

func NewModelRouter(
	optimizer *budget.CostOptimizer,
	cache models.ResponseCacheStore,
	sel *selector.ModelSelector,
	mon *monitor.PerformanceMonitor,
	providers map[models.Provider]models.ProviderAdapter,
) *ModelRouter {
	return &ModelRouter{
		optimizer: optimizer,
		cache:     cache,
		selector:  sel,
		monitor:   mon,
		providers: providers,
	}
}

// Route runs one request through the full pipeline: budget check,
// cache lookup, model selection, sequential provider fallback, cache
// store, metrics and spend recording.
func (r *ModelRouter) Route(ctx context.Context, req *models.GenerationRequest) (*models.GenerationResponse, error) {
	req.Normalize()
	start := time.Now()

	check := r.optimizer.CheckBudget(ctx, req)
	if !check.Allowed {
		err := fmt.Errorf("%w: %s", ErrBudgetExceeded, check.Reason)
		r.monitor.RecordError(ctx, req, err)
		return nil, err
	}

	// Cache hits bypass provider calls, model selection and spend
	// recording entirely; the cost was counted when first generated.
	cacheKey := r.cache.GenerateKey(req)
	if cached, err := r.cache.Get(ctx, cacheKey); err == nil && cached != nil {
		cached.Latency = time.Since(start)
		r.monitor.RecordCacheHit(ctx)
		return cached, nil
	}

	cfg := r.selector.Select(req, check.BudgetUtilization)
	log.Printf("routing %s request: %s", req.TaskType, cfg.Reasoning)

	var lastErr error
	attempted := 0

	for _, candidate := range cfg.Candidates {
		adapter, ok := r.providers[candidate.Provider]
		if !ok {
			log.Printf("WARN: no adapter configured for provider %s, skipping %s", candidate.Provider, candidate.Name)
			lastErr = fmt.Errorf("provider %s not configured", candidate.Provider)
			attempted++
			continue
		}

		result, err := adapter.Generate(ctx, req, candidate)
		if err != nil {
			log.Printf("WARN: model %s/%s failed: %v", candidate.Provider, candidate.Name, err)
			lastErr = err
			attempted++
			continue
		}

		response := &models.GenerationResponse{
			Content:      result.Content,
			Model:        candidate.Name,
			Provider:     candidate.Provider,
			TokensUsed:   result.TokensUsed,
			Cost:         result.Cost,
			Latency:      time.Since(start),
			Cached:       false,
			FallbackUsed: attempted > 0,
		}

		if err := r.cache.Set(ctx, cacheKey, response, req.TaskType); err != nil {
			log.Printf("WARN: failed to cache response: %v", err)
		}
		r.monitor.Record(ctx, req, response)
		r.optimizer.RecordSpend(ctx, response)

		return response, nil
	}

	err := fmt.Errorf("%w after %d candidates: %v", ErrAllModelsFailed, attempted, lastErr)
	r.monitor.RecordError(ctx, req, err)
	return nil, err
}
