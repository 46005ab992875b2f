package extractor

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"sync"
	"time"
)

// MobileUserAgent is sent to Douyin, which serves its share pages to phones
const MobileUserAgent = "Mozilla/5.0 (iPhone; CPU iPhone OS 17_2 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) EdgiOS/121.0.2277.107 Version/17.0 Mobile/15E148 Safari/604.1"

// DesktopUserAgents is the rotation pool for platforms that fingerprint desktop browsers
var DesktopUserAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/119.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/118.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:120.0) Gecko/20100101 Firefox/120.0",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:119.0) Gecko/20100101 Firefox/119.0",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36 Edg/120.0.0.0",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/119.0.0.0 Safari/537.36 Edg/119.0.0.0",
}

// UAPool picks user agents uniformly at random from a fixed list.
// The random source is injected so tests can make the choice deterministic.
type UAPool struct {
	mu  sync.Mutex
	rnd *rand.Rand
	uas []string
}

// NewUAPool creates a pool over uas. A nil rnd is seeded from the clock.
func NewUAPool(uas []string, rnd *rand.Rand) *UAPool {
	if rnd == nil {
		rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &UAPool{rnd: rnd, uas: uas}
}

// Pick returns one user agent
func (p *UAPool) Pick() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.uas[p.rnd.Intn(len(p.uas))]
}

// Page is a fetched HTML document
type Page struct {
	URL        string // final URL after redirects
	StatusCode int
	Body       string
}

// PageFetcher loads a page. Implementations return *HTTPStatusError for non-2xx.
type PageFetcher interface {
	FetchPage(ctx context.Context, rawURL string, header http.Header) (*Page, error)
}

// maxPageSize bounds how much of a page is read into memory
const maxPageSize = 16 << 20

// HTTPFetcher fetches pages with a plain HTTP client, following redirects
type HTTPFetcher struct {
	Client  *http.Client
	Timeout time.Duration
}

// FetchPage issues a GET with the given headers
func (f *HTTPFetcher) FetchPage(ctx context.Context, rawURL string, header http.Header) (*Page, error) {
	if f.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.Timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	page := &Page{
		URL:        resp.Request.URL.String(),
		StatusCode: resp.StatusCode,
		Body:       string(body),
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return page, &HTTPStatusError{
			URL:        rawURL,
			StatusCode: resp.StatusCode,
			Location:   resp.Header.Get("Location"),
		}
	}
	return page, nil
}

// pageHeader builds request headers. Accept-Encoding is left to the
// transport so compressed bodies are decoded transparently.
func pageHeader(userAgent, acceptLanguage string, extra map[string]string) http.Header {
	h := http.Header{}
	h.Set("User-Agent", userAgent)
	h.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8")
	h.Set("Accept-Language", acceptLanguage)
	h.Set("Connection", "keep-alive")
	h.Set("Upgrade-Insecure-Requests", "1")
	for k, v := range extra {
		h.Set(k, v)
	}
	return h
}
