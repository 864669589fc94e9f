package providers

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/anthropic"

	"github.com/venturedeck/ai-engine/src/config"
	"github.com/venturedeck/ai-engine/src/models"
	"github.com/venturedeck/ai-engine/src/utils"
)

// Candidate names are stable aliases; the Anthropic API wants dated
// model identifiers.
var claudeModelIDs = map[string]string{
	"claude-3-opus":   "claude-3-opus-20240229",
	"claude-3-sonnet": "claude-3-5-sonnet-20241022",
	"claude-3-haiku":  "claude-3-haiku-20240307",
}

type ClaudeAdapter struct {
	llm llms.Model
}

func NewClaudeAdapter(cfg *config.ProviderConfig) (*ClaudeAdapter, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("anthropic API key is empty")
	}

	opts := []anthropic.Option{anthropic.WithToken(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, anthropic.WithBaseURL(cfg.BaseURL))
	}

	llm, err := anthropic.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Anthropic client: %w", err)
	}

	return &ClaudeAdapter{llm: llm}, nil
}

func (a *ClaudeAdapter) Provider() models.Provider {
	return models.ProviderClaude
}

func (a *ClaudeAdapter) Generate(ctx context.Context, req *models.GenerationRequest, candidate models.ModelCandidate) (*models.ProviderResult, error) {
	modelID, ok := claudeModelIDs[candidate.Name]
	if !ok {
		modelID = candidate.Name
	}

	prompt := BuildPrompt(req)

	callOptions := []llms.CallOption{llms.WithModel(modelID)}
	if req.MaxTokens > 0 {
		callOptions = append(callOptions, llms.WithMaxTokens(req.MaxTokens))
	}
	if req.Temperature > 0 {
		callOptions = append(callOptions, llms.WithTemperature(req.Temperature))
	}

	content, err := llms.GenerateFromSinglePrompt(ctx, a.llm, prompt, callOptions...)
	if err != nil {
		return nil, fmt.Errorf("anthropic generation failed: %w", err)
	}

	tokens := utils.EstimateTokenCount(prompt) + utils.EstimateTokenCount(content)

	return &models.ProviderResult{
		Content:    content,
		TokensUsed: tokens,
		Cost:       float64(tokens) * candidate.CostPerToken,
	}, nil
}
