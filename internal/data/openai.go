package data

import (
	"context"
	"fmt"
	"net/http"

	openai "github.com/sashabaranov/go-openai"

	"github.com/replydigest/replydigest/internal/biz/domain"
	"github.com/replydigest/replydigest/internal/biz/repo"
)

const defaultOpenAIModel = openai.GPT4oMini

// OpenAIConfig contains OpenAI-compatible backend configuration
type OpenAIConfig struct {
	APIKey  string
	BaseURL string // e.g. http://localhost:11434/v1 for Ollama's compatible API
	Model   string
}

// openaiRepo generates summaries through a chat-completion endpoint
type openaiRepo struct {
	client *openai.Client
	model  string
}

// NewOpenAIRepo creates an OpenAI-compatible generation backend
func NewOpenAIRepo(cfg OpenAIConfig) repo.GeneratorRepo {
	if cfg.Model == "" {
		cfg.Model = defaultOpenAIModel
	}

	config := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		config.BaseURL = cfg.BaseURL
	}
	config.HTTPClient = &http.Client{Timeout: generationTimeout}

	return &openaiRepo{
		client: openai.NewClientWithConfig(config),
		model:  cfg.Model,
	}
}

// Generate sends the prompt as a single user message
func (r *openaiRepo) Generate(ctx context.Context, prompt string, sampling domain.SamplingConfig) (string, error) {
	resp, err := r.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: r.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: sampling.Temperature,
		MaxTokens:   sampling.MaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response choices")
	}

	return resp.Choices[0].Message.Content, nil
}
