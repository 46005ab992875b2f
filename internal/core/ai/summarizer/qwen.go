package summarizer

import (
	"fmt"

	"github.com/guiyumin/sharetext/internal/core/config"
)

// QwenDefaultBaseURL is the OpenAI-compatible endpoint for Qwen
const QwenDefaultBaseURL = "https://dashscope.aliyuncs.com/compatible-mode/v1"

// NewQwen creates a summarizer for Alibaba Qwen through its
// OpenAI-compatible endpoint. apiKey is a DashScope API key.
func NewQwen(cfg config.ServiceConfig, apiKey string) (*OpenAI, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("Qwen API key not provided")
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = QwenDefaultBaseURL
	}
	model := cfg.Model
	if model == "" {
		model = DefaultQwenModel
	}

	return newChatSummarizer("qwen", baseURL, model, apiKey), nil
}
