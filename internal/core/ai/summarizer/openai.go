package summarizer

import (
	"context"
	"fmt"

	"github.com/guiyumin/sharetext/internal/core/config"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// OpenAI implements Summarizer using OpenAI chat completions (official SDK).
type OpenAI struct {
	client openai.Client
	model  openai.ChatModel
	name   string
}

// NewOpenAI creates a new OpenAI summarizer.
func NewOpenAI(cfg config.ServiceConfig, apiKey string) (*OpenAI, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("OpenAI API key not provided")
	}
	model := cfg.Model
	if model == "" {
		model = DefaultOpenAIModel
	}
	return newChatSummarizer("openai", cfg.BaseURL, model, apiKey), nil
}

func newChatSummarizer(name, baseURL, model, apiKey string) *OpenAI {
	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}

	return &OpenAI{
		client: openai.NewClient(opts...),
		model:  openai.ChatModel(model),
		name:   name,
	}
}

// Name returns the provider name.
func (o *OpenAI) Name() string {
	return o.name
}

// Summarize generates a summary through the chat completions API.
func (o *OpenAI) Summarize(ctx context.Context, text string) (*Result, error) {
	resp, err := o.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: o.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(SummarizationPrompt + truncate(text)),
		},
		MaxTokens:   openai.Int(2000),
		Temperature: openai.Float(0.3),
	})
	if err != nil {
		return nil, fmt.Errorf("summarization API error: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no response from API")
	}

	return parseResponse(resp.Choices[0].Message.Content), nil
}
