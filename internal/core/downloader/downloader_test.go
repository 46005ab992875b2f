package downloader

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/guiyumin/sharetext/internal/core/extractor"
)

func TestDownload(t *testing.T) {
	payload := bytes.Repeat([]byte("0123456789abcdef"), 10000) // 160000 bytes, several chunks

	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		w.Write(payload)
	}))
	defer srv.Close()

	out := filepath.Join(t.TempDir(), "video.mp4")
	d := New(srv.Client())

	var calls int
	var last int64
	n, err := d.Download(context.Background(), srv.URL+"/v.mp4", out, func(current, total int64) {
		calls++
		if current < last {
			t.Errorf("progress went backwards: %d -> %d", last, current)
		}
		last = current
	})
	if err != nil {
		t.Fatalf("Download error: %v", err)
	}
	if n != int64(len(payload)) {
		t.Errorf("Download returned %d bytes, want %d", n, len(payload))
	}
	if gotUA != DefaultUserAgent {
		t.Errorf("User-Agent = %q", gotUA)
	}
	if calls < 2 || last != int64(len(payload)) {
		t.Errorf("progress calls = %d, last = %d", calls, last)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(data, payload) {
		t.Error("downloaded content differs")
	}
}

func TestDownloadStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	defer srv.Close()

	out := filepath.Join(t.TempDir(), "video.mp4")
	_, err := New(srv.Client()).Download(context.Background(), srv.URL, out, nil)

	var statusErr *extractor.HTTPStatusError
	if !errors.As(err, &statusErr) || statusErr.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403 HTTPStatusError, got %v", err)
	}
	if _, err := os.Stat(out); !os.IsNotExist(err) {
		t.Error("no file should be created for a rejected request")
	}
}

func TestDownloadCustomUserAgent(t *testing.T) {
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
	}))
	defer srv.Close()

	d := New(srv.Client())
	d.UserAgent = "sharetext-test"
	if _, err := d.Download(context.Background(), srv.URL, filepath.Join(t.TempDir(), "a"), nil); err != nil {
		t.Fatalf("Download error: %v", err)
	}
	if gotUA != "sharetext-test" {
		t.Errorf("User-Agent = %q", gotUA)
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "0 B"},
		{1023, "1023 B"},
		{1024, "1.0 KB"},
		{1536, "1.5 KB"},
		{5 * 1024 * 1024, "5.0 MB"},
	}
	for _, tt := range tests {
		if got := FormatBytes(tt.in); got != tt.want {
			t.Errorf("FormatBytes(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{-time.Second, "??:??"},
		{0, "0:00"},
		{65 * time.Second, "1:05"},
		{3725 * time.Second, "1:02:05"},
	}
	for _, tt := range tests {
		if got := FormatDuration(tt.in); got != tt.want {
			t.Errorf("FormatDuration(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
