package downloader

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/guiyumin/sharetext/internal/core/extractor"
)

// DefaultUserAgent is the default User-Agent header used for downloads
const DefaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// DefaultTimeout bounds a whole media download
const DefaultTimeout = 10 * time.Minute

// chunkSize is the read buffer size; memory use stays bounded regardless of media size
const chunkSize = 32 * 1024

// ProgressFunc is called after every chunk. total is -1 when the server sent no length.
type ProgressFunc func(current, total int64)

// Downloader streams remote media to local files
type Downloader struct {
	Client    *http.Client
	UserAgent string
	Timeout   time.Duration
}

// New creates a Downloader with the default user agent and timeout
func New(client *http.Client) *Downloader {
	if client == nil {
		client = &http.Client{
			Transport: &http.Transport{
				Proxy: http.ProxyFromEnvironment,
			},
		}
	}
	return &Downloader{
		Client:    client,
		UserAgent: DefaultUserAgent,
		Timeout:   DefaultTimeout,
	}
}

// Download writes url to output and returns the number of bytes written.
// A non-2xx response yields *extractor.HTTPStatusError. A partially written
// file is left in place for the caller's cleanup.
func (d *Downloader) Download(ctx context.Context, url, output string, progress ProgressFunc) (int64, error) {
	if d.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.Timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	ua := d.UserAgent
	if ua == "" {
		ua = DefaultUserAgent
	}
	req.Header.Set("User-Agent", ua)

	client := d.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("download request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return 0, &extractor.HTTPStatusError{
			URL:        url,
			StatusCode: resp.StatusCode,
			Location:   resp.Header.Get("Location"),
		}
	}

	file, err := os.Create(output)
	if err != nil {
		return 0, fmt.Errorf("failed to create output file: %w", err)
	}
	defer file.Close()

	total := resp.ContentLength
	if progress != nil {
		progress(0, total)
	}

	buf := make([]byte, chunkSize)
	var current int64
	for {
		n, err := resp.Body.Read(buf)
		if n > 0 {
			if _, writeErr := file.Write(buf[:n]); writeErr != nil {
				return current, fmt.Errorf("failed to write file: %w", writeErr)
			}
			current += int64(n)
			if progress != nil {
				progress(current, total)
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return current, fmt.Errorf("download failed: %w", err)
		}
	}

	if err := file.Close(); err != nil {
		return current, fmt.Errorf("failed to close output file: %w", err)
	}
	return current, nil
}

// FormatBytes renders a byte count for humans, e.g. "1.5 MB"
func FormatBytes(b int64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}
	div, exp := int64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(b)/float64(div), "KMGTPE"[exp])
}

// FormatDuration renders m:ss or h:mm:ss
func FormatDuration(d time.Duration) string {
	if d < 0 {
		return "??:??"
	}
	d = d.Round(time.Second)
	m := d / time.Minute
	s := (d % time.Minute) / time.Second
	if m >= 60 {
		h := m / 60
		m = m % 60
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}
