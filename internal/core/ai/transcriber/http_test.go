package transcriber

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/guiyumin/sharetext/internal/core/config"
)

func writeAudio(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "audio_1700000000000.mp3")
	if err := os.WriteFile(path, []byte("ID3fake-mp3-bytes"), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestHTTPTranscribe(t *testing.T) {
	var (
		gotAuth, gotModel, gotFilename, gotPartType string
		gotAudio                                    []byte
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("ParseMultipartForm: %v", err)
			return
		}
		gotModel = r.FormValue("model")
		f, fh, err := r.FormFile("file")
		if err != nil {
			t.Errorf("FormFile: %v", err)
			return
		}
		defer f.Close()
		gotFilename = fh.Filename
		gotPartType = fh.Header.Get("Content-Type")
		gotAudio, _ = io.ReadAll(f)

		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"text": "大家好，今天聊聊露营"}`)
	}))
	defer srv.Close()

	tr := NewHTTP(srv.URL+"/v1/audio/transcriptions", "", "sk-test", srv.Client())
	res, err := tr.Transcribe(context.Background(), writeAudio(t))
	if err != nil {
		t.Fatalf("Transcribe error: %v", err)
	}

	if res.Text != "大家好，今天聊聊露营" {
		t.Errorf("Text = %q", res.Text)
	}
	if gotAuth != "Bearer sk-test" {
		t.Errorf("Authorization = %q", gotAuth)
	}
	if gotModel != DefaultModel {
		t.Errorf("model = %q, want %q", gotModel, DefaultModel)
	}
	if gotFilename != "audio_1700000000000.mp3" || gotPartType != "audio/mpeg" {
		t.Errorf("file part = %q (%s)", gotFilename, gotPartType)
	}
	if string(gotAudio) != "ID3fake-mp3-bytes" {
		t.Errorf("uploaded %q", gotAudio)
	}
}

func TestHTTPTranscribeRawBody(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"plain text", "hello world", "hello world"},
		{"json without text", `{"result": "x"}`, `{"result": "x"}`},
		{"json with empty text", `{"text": ""}`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				io.WriteString(w, tt.body)
			}))
			defer srv.Close()

			res, err := NewHTTP(srv.URL, "m", "k", srv.Client()).Transcribe(context.Background(), writeAudio(t))
			if err != nil {
				t.Fatalf("Transcribe error: %v", err)
			}
			if res.Text != tt.want {
				t.Errorf("Text = %q, want %q", res.Text, tt.want)
			}
		})
	}
}

func TestHTTPTranscribeAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		io.WriteString(w, `{"message": "Invalid token"}`)
	}))
	defer srv.Close()

	_, err := NewHTTP(srv.URL, "", "bad", srv.Client()).Transcribe(context.Background(), writeAudio(t))

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %v", err)
	}
	if apiErr.StatusCode != http.StatusUnauthorized || !strings.Contains(apiErr.Body, "Invalid token") {
		t.Errorf("APIError = %+v", apiErr)
	}
}

func TestHTTPTranscribeMissingFile(t *testing.T) {
	tr := NewHTTP("http://127.0.0.1:1", "", "k", nil)
	if _, err := tr.Transcribe(context.Background(), filepath.Join(t.TempDir(), "none.mp3")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestNewHTTPDefaults(t *testing.T) {
	tr := NewHTTP("", "", "k", nil)
	if tr.endpoint != DefaultEndpoint || tr.model != DefaultModel {
		t.Errorf("defaults = %q, %q", tr.endpoint, tr.model)
	}
	if tr.client.Timeout != DefaultTimeout {
		t.Errorf("timeout = %v", tr.client.Timeout)
	}
}

func TestNew(t *testing.T) {
	tests := []struct {
		provider string
		apiKey   string
		wantName string
		wantErr  bool
	}{
		{provider: "", apiKey: "k", wantName: "http"},
		{provider: "http", apiKey: "k", wantName: "http"},
		{provider: "openai", apiKey: "k", wantName: "openai"},
		{provider: "openai", apiKey: "", wantErr: true},
		{provider: "whisper.cpp", apiKey: "k", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.provider+"/"+tt.apiKey, func(t *testing.T) {
			tr, err := New(config.ServiceConfig{Provider: tt.provider}, tt.apiKey)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("New error: %v", err)
			}
			if tr.Name() != tt.wantName {
				t.Errorf("Name() = %q, want %q", tr.Name(), tt.wantName)
			}
		})
	}
}

func TestFormattedText(t *testing.T) {
	r := &Result{Text: "plain"}
	if r.FormattedText() != "plain" {
		t.Errorf("FormattedText without segments = %q", r.FormattedText())
	}

	r.Segments = []Segment{
		{Start: 0, Text: " first "},
		{Start: 3725 * time.Second, Text: "second"},
	}
	want := "[00:00:00] first\n[01:02:05] second\n"
	if got := r.FormattedText(); got != want {
		t.Errorf("FormattedText\n  got:  %q\n  want: %q", got, want)
	}
}

func TestAudioContentType(t *testing.T) {
	tests := map[string]string{
		"audio_1.mp3": "audio/mpeg",
		"audio_1.wav": "audio/wav",
		"AUDIO_1.WAV": "audio/wav",
		"audio":       "audio/mpeg",
	}
	for name, want := range tests {
		if got := audioContentType(name); got != want {
			t.Errorf("audioContentType(%q) = %q, want %q", name, got, want)
		}
	}
}
