package transcriber

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
)

const (
	// DefaultEndpoint is the SiliconFlow transcription endpoint
	DefaultEndpoint = "https://api.siliconflow.cn/v1/audio/transcriptions"

	// DefaultModel is the default speech model for DefaultEndpoint
	DefaultModel = "FunAudioLLM/SenseVoiceSmall"
)

// APIError is returned for non-2xx responses from a transcription service
type APIError struct {
	StatusCode int
	Body       string // excerpt
}

func (e *APIError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("transcription API returned HTTP %d", e.StatusCode)
	}
	return fmt.Sprintf("transcription API returned HTTP %d: %s", e.StatusCode, e.Body)
}

// HTTP uploads audio as multipart form data to an OpenAI-style
// /audio/transcriptions endpoint
type HTTP struct {
	client   *http.Client
	endpoint string
	model    string
	apiKey   string
}

// NewHTTP creates an HTTP transcriber. Empty endpoint and model select the defaults.
func NewHTTP(endpoint, model, apiKey string, client *http.Client) *HTTP {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	if model == "" {
		model = DefaultModel
	}
	if client == nil {
		client = &http.Client{Timeout: DefaultTimeout}
	}
	return &HTTP{
		client:   client,
		endpoint: endpoint,
		model:    model,
		apiKey:   apiKey,
	}
}

// Name returns the provider name.
func (h *HTTP) Name() string {
	return "http"
}

// Transcribe uploads filePath and returns the transcript
func (h *HTTP) Transcribe(ctx context.Context, filePath string) (*Result, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	body, contentType, err := multipartBody(file, filepath.Base(filePath), h.model)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+h.apiKey)

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("transcription request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &APIError{StatusCode: resp.StatusCode, Body: excerpt(string(data), 500)}
	}

	return &Result{Text: parseText(data)}, nil
}

// multipartBody builds the form with an audio "file" part and a "model" field
func multipartBody(r io.Reader, filename, model string) (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, filename))
	header.Set("Content-Type", audioContentType(filename))
	part, err := w.CreatePart(header)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return nil, "", fmt.Errorf("failed to write audio to form: %w", err)
	}
	if err := w.WriteField("model", model); err != nil {
		return nil, "", fmt.Errorf("failed to write model field: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}

// parseText returns the "text" field of a JSON response, or the raw body
// when the response is not JSON or has no such field
func parseText(data []byte) string {
	var payload struct {
		Text *string `json:"text"`
	}
	if err := json.Unmarshal(data, &payload); err == nil && payload.Text != nil {
		return *payload.Text
	}
	return string(data)
}

func excerpt(s string, n int) string {
	s = strings.TrimSpace(s)
	if len([]rune(s)) <= n {
		return s
	}
	return string([]rune(s)[:n]) + "..."
}

func audioContentType(filename string) string {
	if strings.EqualFold(filepath.Ext(filename), ".wav") {
		return "audio/wav"
	}
	return "audio/mpeg"
}
