// Package providers implements the upstream vendor adapters. Each
// adapter translates a generation request into one vendor call and
// reports content, token usage and realized cost. The real routing
// decisions live one layer up; adapters only fail or succeed.
package providers

import (
	"context"
	"fmt"

	"github.com/sashabaranov/go-openai"

	"github.com/venturedeck/ai-engine/src/config"
	"github.com/venturedeck/ai-engine/src/models"
	"github.com/venturedeck/ai-engine/src/utils"
)

type OpenAIAdapter struct {
	client *openai.Client
}

func NewOpenAIAdapter(cfg *config.ProviderConfig) (*OpenAIAdapter, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai API key is empty")
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	return &OpenAIAdapter{client: openai.NewClientWithConfig(clientCfg)}, nil
}

func (a *OpenAIAdapter) Provider() models.Provider {
	return models.ProviderOpenAI
}

func (a *OpenAIAdapter) Generate(ctx context.Context, req *models.GenerationRequest, candidate models.ModelCandidate) (*models.ProviderResult, error) {
	chatReq := openai.ChatCompletionRequest{
		Model: candidate.Name,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: BuildPrompt(req)},
		},
	}
	if req.MaxTokens > 0 {
		chatReq.MaxTokens = req.MaxTokens
	}
	if req.Temperature > 0 {
		chatReq.Temperature = float32(req.Temperature)
	}

	resp, err := a.client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		return nil, fmt.Errorf("openai completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("openai returned no choices for model %s", candidate.Name)
	}

	tokens := resp.Usage.TotalTokens
	if tokens == 0 {
		tokens = utils.EstimateTokenCount(chatReq.Messages[0].Content) +
			utils.EstimateTokenCount(resp.Choices[0].Message.Content)
	}

	return &models.ProviderResult{
		Content:    resp.Choices[0].Message.Content,
		TokensUsed: tokens,
		Cost:       float64(tokens) * candidate.CostPerToken,
	}, nil
}

// BuildPrompt folds optional context into a single prompt string.
func BuildPrompt(req *models.GenerationRequest) string {
	if req.Context == "" {
		return req.Prompt
	}
	return fmt.Sprintf("Context: %s\n\n%s", req.Context, req.Prompt)
}
