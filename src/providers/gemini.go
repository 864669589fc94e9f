package providers

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/venturedeck/ai-engine/src/config"
	"github.com/venturedeck/ai-engine/src/models"
	"github.com/venturedeck/ai-engine/src/utils"
)

// Gemini is reached through its OpenAI-compatible endpoint, so the
// adapter reuses the langchaingo openai client with a custom base URL.
const defaultGeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta/openai"

type GeminiAdapter struct {
	llm llms.Model
}

func NewGeminiAdapter(cfg *config.ProviderConfig) (*GeminiAdapter, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is empty")
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultGeminiBaseURL
	}

	llm, err := openai.New(
		openai.WithBaseURL(baseURL),
		openai.WithToken(cfg.APIKey),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiAdapter{llm: llm}, nil
}

func (a *GeminiAdapter) Provider() models.Provider {
	return models.ProviderGemini
}

func (a *GeminiAdapter) Generate(ctx context.Context, req *models.GenerationRequest, candidate models.ModelCandidate) (*models.ProviderResult, error) {
	prompt := BuildPrompt(req)

	callOptions := []llms.CallOption{llms.WithModel(candidate.Name)}
	if req.MaxTokens > 0 {
		callOptions = append(callOptions, llms.WithMaxTokens(req.MaxTokens))
	}
	if req.Temperature > 0 {
		callOptions = append(callOptions, llms.WithTemperature(req.Temperature))
	}

	content, err := llms.GenerateFromSinglePrompt(ctx, a.llm, prompt, callOptions...)
	if err != nil {
		return nil, fmt.Errorf("gemini generation failed: %w", err)
	}

	tokens := utils.EstimateTokenCount(prompt) + utils.EstimateTokenCount(content)

	return &models.ProviderResult{
		Content:    content,
		TokensUsed: tokens,
		Cost:       float64(tokens) * candidate.CostPerToken,
	}, nil
}
