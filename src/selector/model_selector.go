// Package selector maps a request onto an ordered fallback chain of
// model candidates. Selection is a pure function of the request, the
// current budget utilization and the static candidate catalog; it
// performs no I/O.
package selector

import "github.com/venturedeck/ai-engine/src/models"

// Budget utilization above this threshold flips routing to the cheaper
// orderings.
const highUtilizationThreshold = 0.8

// Prompts plus context beyond this many characters require a
// long-context model regardless of priority or budget.
const longContextThreshold = 100_000

// Candidate catalog. Cost is a blended USD per-token rate, MaxTokens is
// the context window. Pricing drifts with the vendors; these values
// only need to preserve the relative ordering the policy depends on.
var (
	gpt4Turbo = models.ModelCandidate{Provider: models.ProviderOpenAI, Name: "gpt-4-turbo", CostPerToken: 0.00001, MaxTokens: 128_000}
	gpt4o     = models.ModelCandidate{Provider: models.ProviderOpenAI, Name: "gpt-4o", CostPerToken: 0.0000025, MaxTokens: 128_000}
	gpt35     = models.ModelCandidate{Provider: models.ProviderOpenAI, Name: "gpt-3.5-turbo", CostPerToken: 0.0000005, MaxTokens: 16_385}

	claudeOpus   = models.ModelCandidate{Provider: models.ProviderClaude, Name: "claude-3-opus", CostPerToken: 0.000015, MaxTokens: 200_000}
	claudeSonnet = models.ModelCandidate{Provider: models.ProviderClaude, Name: "claude-3-sonnet", CostPerToken: 0.000003, MaxTokens: 200_000}
	claudeHaiku  = models.ModelCandidate{Provider: models.ProviderClaude, Name: "claude-3-haiku", CostPerToken: 0.00000025, MaxTokens: 200_000}

	geminiPro   = models.ModelCandidate{Provider: models.ProviderGemini, Name: "gemini-1.5-pro", CostPerToken: 0.00000125, MaxTokens: 1_000_000}
	geminiFlash = models.ModelCandidate{Provider: models.ProviderGemini, Name: "gemini-1.5-flash", CostPerToken: 0.000000075, MaxTokens: 1_000_000}
)

type ModelSelector struct{}

func NewModelSelector() *ModelSelector {
	return &ModelSelector{}
}

// Select returns the fallback chain for a request. Every branch
// produces a non-empty candidate list and a non-empty reasoning string.
func (s *ModelSelector) Select(req *models.GenerationRequest, budgetUtilization float64) *models.ModelConfig {
	switch req.TaskType {
	case models.TaskBusinessPlan:
		return s.selectBusinessPlan(req, budgetUtilization)
	case models.TaskMarketAnalysis:
		return s.selectMarketAnalysis(budgetUtilization)
	case models.TaskSentimentAnalysis:
		return s.selectSentiment(req, budgetUtilization)
	default:
		return s.selectGeneral(budgetUtilization)
	}
}

func (s *ModelSelector) selectBusinessPlan(req *models.GenerationRequest, utilization float64) *models.ModelConfig {
	// The long-context rule wins over priority and budget: a truncated
	// business plan is worse than an expensive one.
	if req.ContentLength() > longContextThreshold {
		return &models.ModelConfig{
			Candidates: []models.ModelCandidate{claudeSonnet, gpt4Turbo},
			Reasoning:  "business plan exceeds 100k chars of content, routing to 200K-context model first",
		}
	}

	if req.Priority == models.PriorityHigh && utilization <= highUtilizationThreshold {
		return &models.ModelConfig{
			Candidates: []models.ModelCandidate{claudeOpus, claudeSonnet, gpt4Turbo},
			Reasoning:  "high priority business plan within budget, routing to most capable model first",
		}
	}

	if utilization > highUtilizationThreshold {
		return &models.ModelConfig{
			Candidates: []models.ModelCandidate{claudeHaiku, claudeSonnet},
			Reasoning:  "budget utilization above 80%, routing business plan to cheaper models in the same family",
		}
	}

	return &models.ModelConfig{
		Candidates: []models.ModelCandidate{claudeSonnet, gpt4Turbo},
		Reasoning:  "balanced default ordering for business plan generation",
	}
}

func (s *ModelSelector) selectMarketAnalysis(utilization float64) *models.ModelConfig {
	if utilization > highUtilizationThreshold {
		return &models.ModelConfig{
			Candidates: []models.ModelCandidate{geminiFlash, claudeHaiku},
			Reasoning:  "budget utilization above 80%, routing market analysis cheapest-first",
		}
	}

	return &models.ModelConfig{
		Candidates: []models.ModelCandidate{geminiPro, gpt4o, claudeSonnet},
		Reasoning:  "default market analysis ordering: multimodal real-time model first, then mid-tier reasoning, then general fallback",
	}
}

func (s *ModelSelector) selectSentiment(req *models.GenerationRequest, utilization float64) *models.ModelConfig {
	if utilization > highUtilizationThreshold || req.Priority == models.PriorityLow {
		return &models.ModelConfig{
			Candidates: []models.ModelCandidate{claudeHaiku, gpt35},
			Reasoning:  "low priority or budget utilization above 80%, routing sentiment analysis cheapest-first",
		}
	}

	return &models.ModelConfig{
		Candidates: []models.ModelCandidate{claudeOpus, claudeSonnet},
		Reasoning:  "accuracy-first ordering for sentiment analysis, proven large model first",
	}
}

func (s *ModelSelector) selectGeneral(utilization float64) *models.ModelConfig {
	if utilization > highUtilizationThreshold {
		return &models.ModelConfig{
			Candidates: []models.ModelCandidate{claudeHaiku, gpt35},
			Reasoning:  "budget utilization above 80%, routing general task cheapest-first",
		}
	}

	return &models.ModelConfig{
		Candidates: []models.ModelCandidate{gpt4o, claudeSonnet},
		Reasoning:  "balanced default of two mid-tier models for general tasks",
	}
}
