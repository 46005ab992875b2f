package transcriber

import (
	"context"
	"fmt"
	"time"

	"github.com/guiyumin/sharetext/internal/core/config"
	openai "github.com/sashabaranov/go-openai"
)

// OpenAI implements Transcriber using the OpenAI Whisper API or any
// compatible service reachable through BaseURL.
type OpenAI struct {
	client *openai.Client
	model  string
}

// NewOpenAI creates a new OpenAI transcriber.
func NewOpenAI(cfg config.ServiceConfig, apiKey string) (*OpenAI, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("OpenAI API key not provided")
	}

	clientConfig := openai.DefaultConfig(apiKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}

	model := cfg.Model
	if model == "" {
		model = openai.Whisper1
	}

	return &OpenAI{
		client: openai.NewClientWithConfig(clientConfig),
		model:  model,
	}, nil
}

// Name returns the provider name.
func (o *OpenAI) Name() string {
	return "openai"
}

// Transcribe converts an audio file to text using OpenAI Whisper.
func (o *OpenAI) Transcribe(ctx context.Context, filePath string) (*Result, error) {
	req := openai.AudioRequest{
		Model:    o.model,
		FilePath: filePath,
		Format:   openai.AudioResponseFormatVerboseJSON,
	}

	resp, err := o.client.CreateTranscription(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("transcription API error: %w", err)
	}

	result := &Result{
		Text:     resp.Text,
		Language: resp.Language,
		Duration: time.Duration(resp.Duration * float64(time.Second)),
	}

	for _, seg := range resp.Segments {
		result.Segments = append(result.Segments, Segment{
			Start: time.Duration(seg.Start * float64(time.Second)),
			End:   time.Duration(seg.End * float64(time.Second)),
			Text:  seg.Text,
		})
	}

	return result, nil
}
