// Package budget implements soft spend guardrails for provider calls.
//
// The guardrails are deliberately lossy: budget reads are not locked
// against concurrent spend, and a storage outage lets requests through
// rather than blocking the feature. Availability of the AI feature is
// prioritized over strict cost enforcement.
package budget

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/venturedeck/ai-engine/src/config"
	"github.com/venturedeck/ai-engine/src/models"
)

const (
	dailyKeyTTL   = 48 * time.Hour
	monthlyKeyTTL = 35 * 24 * time.Hour
	hourlyKeyTTL  = 7 * 24 * time.Hour
)

// Default per-request base rates in USD, overridable via config.
var defaultBaseRates = map[models.TaskType]float64{
	models.TaskBusinessPlan:      0.15,
	models.TaskMarketAnalysis:    0.08,
	models.TaskSentimentAnalysis: 0.01,
	models.TaskGeneral:           0.03,
}

// CostOptimizer tracks daily and monthly spend against configured
// limits and decides whether a request may proceed.
type CostOptimizer struct {
	counters models.CounterStore
	cfg      *config.BudgetConfig
	now      func() time.Time
}

func NewCostOptimizer(counters models.CounterStore, cfg *config.BudgetConfig) *CostOptimizer {
	return &CostOptimizer{
		counters: counters,
		cfg:      cfg,
		now:      time.Now,
	}
}

// CheckBudget estimates the request's cost and compares projected spend
// against the daily and monthly limits. If the counter store is
// unreachable the check fails open: an accounting outage must not take
// down the whole feature.
func (o *CostOptimizer) CheckBudget(ctx context.Context, req *models.GenerationRequest) *models.BudgetCheck {
	estimated := o.EstimateCost(req)

	daily, err := o.counters.GetFloat(ctx, o.dailyKey())
	if err != nil {
		log.Printf("WARN: budget check unavailable, failing open: %v", err)
		return &models.BudgetCheck{Allowed: true, EstimatedCost: estimated}
	}
	monthly, err := o.counters.GetFloat(ctx, o.monthlyKey())
	if err != nil {
		log.Printf("WARN: budget check unavailable, failing open: %v", err)
		return &models.BudgetCheck{Allowed: true, EstimatedCost: estimated, CurrentSpend: daily}
	}

	check := &models.BudgetCheck{
		CurrentSpend:      daily,
		EstimatedCost:     estimated,
		BudgetUtilization: utilization(daily, o.cfg.DailyLimitUSD),
	}

	if o.cfg.DailyLimitUSD > 0 && daily+estimated > o.cfg.DailyLimitUSD {
		check.Reason = fmt.Sprintf("daily budget exceeded: spent $%.2f of $%.2f, request estimated at $%.4f",
			daily, o.cfg.DailyLimitUSD, estimated)
		return check
	}
	if o.cfg.MonthlyLimitUSD > 0 && monthly+estimated > o.cfg.MonthlyLimitUSD {
		check.Reason = fmt.Sprintf("monthly budget exceeded: spent $%.2f of $%.2f, request estimated at $%.4f",
			monthly, o.cfg.MonthlyLimitUSD, estimated)
		return check
	}

	check.Allowed = true
	return check
}

// RecordSpend adds the realized cost to the daily, monthly and hourly
// per-provider counters. Side effect only: storage failures are logged
// and swallowed so accounting never fails a served request.
func (o *CostOptimizer) RecordSpend(ctx context.Context, resp *models.GenerationResponse) {
	if resp.Cost <= 0 {
		return
	}

	if _, err := o.counters.IncrByFloat(ctx, o.dailyKey(), resp.Cost, dailyKeyTTL); err != nil {
		log.Printf("WARN: failed to record daily spend: %v", err)
	}
	if _, err := o.counters.IncrByFloat(ctx, o.monthlyKey(), resp.Cost, monthlyKeyTTL); err != nil {
		log.Printf("WARN: failed to record monthly spend: %v", err)
	}

	hourKey := fmt.Sprintf("budget:hourly:%s:%s", resp.Provider, o.now().UTC().Format("2006-01-02-15"))
	if _, err := o.counters.IncrByFloat(ctx, hourKey, resp.Cost, hourlyKeyTTL); err != nil {
		log.Printf("WARN: failed to record hourly provider spend: %v", err)
	}
}

// EstimateCost projects a request's cost from its task type base rate
// scaled by content length: max(1, promptLength/1000).
func (o *CostOptimizer) EstimateCost(req *models.GenerationRequest) float64 {
	rate, ok := o.cfg.BaseRatesUSD[string(req.TaskType)]
	if !ok {
		rate, ok = defaultBaseRates[req.TaskType]
		if !ok {
			rate = defaultBaseRates[models.TaskGeneral]
		}
	}

	multiplier := float64(len(req.Prompt)) / 1000.0
	if multiplier < 1 {
		multiplier = 1
	}
	return rate * multiplier
}

func (o *CostOptimizer) dailyKey() string {
	return "budget:daily:" + o.now().UTC().Format("2006-01-02")
}

func (o *CostOptimizer) monthlyKey() string {
	return "budget:monthly:" + o.now().UTC().Format("2006-01")
}

func utilization(spend, limit float64) float64 {
	if limit <= 0 {
		return 0
	}
	return spend / limit
}
