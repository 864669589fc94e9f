package models

import "time"

// TaskType categorizes an AI request and drives routing policy.
// Unrecognized values fall through to TaskGeneral at the routing layer.
type TaskType string

const (
	TaskBusinessPlan      TaskType = "business_plan"
	TaskMarketAnalysis    TaskType = "market_analysis"
	TaskSentimentAnalysis TaskType = "sentiment_analysis"
	TaskGeneral           TaskType = "general"
)

// Priority expresses how much the caller cares about answer quality
// relative to cost.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Provider identifies an upstream LLM vendor.
type Provider string

const (
	ProviderOpenAI Provider = "openai"
	ProviderClaude Provider = "claude"
	ProviderGemini Provider = "gemini"
)

type GenerationRequest struct {
	TaskType    TaskType `json:"task_type"`
	Prompt      string   `json:"prompt" binding:"required"`
	Context     string   `json:"context,omitempty"`
	MaxTokens   int      `json:"max_tokens,omitempty"`
	Temperature float64  `json:"temperature,omitempty"`
	Priority    Priority `json:"priority,omitempty"`
	UserID      string   `json:"user_id,omitempty"`
	SessionID   string   `json:"session_id,omitempty"`
}

// ModelCandidate is a routable model with its static pricing and
// context-window limit. Supplied by the selector's routing tables.
type ModelCandidate struct {
	Provider     Provider `json:"provider"`
	Name         string   `json:"name"`
	CostPerToken float64  `json:"cost_per_token"`
	MaxTokens    int      `json:"max_tokens"`
}

// ModelConfig is the ordered fallback chain for one request plus the
// reason the selector chose it. Produced fresh per request.
type ModelConfig struct {
	Candidates []ModelCandidate `json:"candidates"`
	Reasoning  string           `json:"reasoning"`
}

type GenerationResponse struct {
	Content      string        `json:"content"`
	Model        string        `json:"model"`
	Provider     Provider      `json:"provider"`
	TokensUsed   int           `json:"tokens_used"`
	Cost         float64       `json:"cost"`
	Latency      time.Duration `json:"latency"`
	Cached       bool          `json:"cached"`
	FallbackUsed bool          `json:"fallback_used"`
}

// ProviderResult is what a provider adapter returns for one model call.
// The router fills in latency, cache and fallback flags.
type ProviderResult struct {
	Content    string
	TokensUsed int
	Cost       float64
}

// Metric is one append-only row in the relational metrics store.
// One row per request attempt, including failed attempts.
type Metric struct {
	ID           string        `json:"id"`
	TaskType     TaskType      `json:"task_type"`
	Priority     Priority      `json:"priority"`
	Provider     Provider      `json:"provider"`
	Model        string        `json:"model"`
	UserID       string        `json:"user_id,omitempty"`
	SessionID    string        `json:"session_id,omitempty"`
	PromptLength int           `json:"prompt_length"`
	TokensUsed   int           `json:"tokens_used"`
	Cost         float64       `json:"cost"`
	Latency      time.Duration `json:"latency"`
	Cached       bool          `json:"cached"`
	FallbackUsed bool          `json:"fallback_used"`
	Success      bool          `json:"success"`
	ErrorType    string        `json:"error_type,omitempty"`
	ErrorMessage string        `json:"error_message,omitempty"`
	Timestamp    time.Time     `json:"timestamp"`
}

// BudgetCheck is the outcome of a pre-flight budget decision.
type BudgetCheck struct {
	Allowed           bool    `json:"allowed"`
	Reason            string  `json:"reason,omitempty"`
	CurrentSpend      float64 `json:"current_spend"`
	EstimatedCost     float64 `json:"estimated_cost"`
	BudgetUtilization float64 `json:"budget_utilization"`
}

// ProviderStats aggregates rolling counters for one provider over a
// reporting timeframe.
type ProviderStats struct {
	Provider         Provider `json:"provider"`
	Requests         int64    `json:"requests"`
	Cost             float64  `json:"cost"`
	Tokens           int64    `json:"tokens"`
	AvgLatencyMs     float64  `json:"avg_latency_ms"`
	CostPerRequest   float64  `json:"cost_per_request"`
	TokensPerRequest float64  `json:"tokens_per_request"`
}

type CacheStats struct {
	Hits    int64   `json:"hits"`
	Misses  int64   `json:"misses"`
	Total   int64   `json:"total"`
	HitRate float64 `json:"hit_rate"`
}

// Normalize maps unknown task types onto TaskGeneral and fills in a
// default priority. The type boundary never rejects a request over an
// unrecognized enum value.
func (r *GenerationRequest) Normalize() {
	switch r.TaskType {
	case TaskBusinessPlan, TaskMarketAnalysis, TaskSentimentAnalysis, TaskGeneral:
	default:
		r.TaskType = TaskGeneral
	}
	switch r.Priority {
	case PriorityLow, PriorityMedium, PriorityHigh:
	default:
		r.Priority = PriorityMedium
	}
}

// ContentLength is the combined prompt and context size used by the
// long-context routing rule and cost estimation.
func (r *GenerationRequest) ContentLength() int {
	return len(r.Prompt) + len(r.Context)
}
