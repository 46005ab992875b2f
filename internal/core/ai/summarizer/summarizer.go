// Package summarizer condenses transcripts with a chat model.
package summarizer

import (
	"context"
	"fmt"
	"strings"

	"github.com/guiyumin/sharetext/internal/core/config"
)

// Default models per provider
const (
	DefaultOpenAIModel    = "gpt-4o-mini"
	DefaultAnthropicModel = "claude-sonnet-4-20250514"
	DefaultQwenModel      = "qwen-plus"
)

// maxInputRunes caps the transcript sent to a model
const maxInputRunes = 60000

// Result contains the summarization output.
type Result struct {
	Summary   string   `json:"summary"`
	KeyPoints []string `json:"key_points,omitempty"`
}

// Summarizer generates summaries from text.
type Summarizer interface {
	// Summarize generates a summary from the given text.
	Summarize(ctx context.Context, text string) (*Result, error)

	// Name returns the provider name.
	Name() string
}

// New creates a Summarizer for cfg.Provider
func New(cfg config.ServiceConfig, apiKey string) (Summarizer, error) {
	switch cfg.Provider {
	case "openai":
		return NewOpenAI(cfg, apiKey)
	case "anthropic":
		return NewAnthropic(cfg, apiKey)
	case "qwen":
		return NewQwen(cfg, apiKey)
	case "":
		return nil, fmt.Errorf("summarization is not configured")
	default:
		return nil, fmt.Errorf("unsupported summarization provider: %s", cfg.Provider)
	}
}

// truncate keeps at most maxInputRunes runes of text
func truncate(text string) string {
	runes := []rune(text)
	if len(runes) <= maxInputRunes {
		return text
	}
	return string(runes[:maxInputRunes]) + "\n\n[Text truncated due to length...]"
}

// parseResponse extracts summary and key points from a markdown response.
func parseResponse(content string) *Result {
	result := &Result{
		Summary: strings.TrimSpace(content),
	}

	var keyPoints []string
	var summaryLines []string
	inKeyPoints := false

	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)

		if isHeading(line, "Key Points", "要点") {
			inKeyPoints = true
			continue
		}
		if isHeading(line, "Summary", "摘要") {
			inKeyPoints = false
			continue
		}

		if inKeyPoints {
			if strings.HasPrefix(line, "-") || strings.HasPrefix(line, "*") {
				point := strings.TrimSpace(strings.TrimLeft(line, "-* "))
				if point != "" {
					keyPoints = append(keyPoints, point)
				}
			}
		} else if !strings.HasPrefix(line, "#") && line != "" {
			summaryLines = append(summaryLines, line)
		}
	}

	if len(keyPoints) > 0 {
		result.KeyPoints = keyPoints
	}
	if len(summaryLines) > 0 {
		result.Summary = strings.Join(summaryLines, "\n")
	}

	return result
}

func isHeading(line string, names ...string) bool {
	for _, name := range names {
		if strings.HasPrefix(line, "## "+name) || strings.HasPrefix(line, "**"+name) {
			return true
		}
	}
	return false
}
