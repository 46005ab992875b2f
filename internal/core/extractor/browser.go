package extractor

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
)

// BrowserFetcher renders pages in headless Chrome with stealth patches applied.
// It is slower than HTTPFetcher but gets past pages that require JS to run
// before the embedded state is written.
type BrowserFetcher struct {
	// Visible shows the browser window (for debugging)
	Visible bool

	// UserDataDir keeps cookies between runs; defaults to a dir under os.TempDir()
	UserDataDir string

	// Timeout bounds navigation and load, default 30s
	Timeout time.Duration
}

// FetchPage navigates to rawURL and returns the rendered document
func (f *BrowserFetcher) FetchPage(ctx context.Context, rawURL string, header http.Header) (*Page, error) {
	timeout := f.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	l := f.createLauncher(header.Get("User-Agent"))
	defer l.Cleanup()

	u, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	browser := rod.New().ControlURL(u)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("failed to connect to browser: %w", err)
	}
	defer browser.Close()

	page, err := stealth.Page(browser)
	if err != nil {
		return nil, fmt.Errorf("failed to open page: %w", err)
	}
	defer page.Close()
	page = page.Context(ctx)

	if ua := header.Get("User-Agent"); ua != "" {
		if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{
			UserAgent:      ua,
			AcceptLanguage: header.Get("Accept-Language"),
		}); err != nil {
			return nil, fmt.Errorf("failed to set user agent: %w", err)
		}
	}

	var extra []string
	for k, vs := range header {
		if k == "User-Agent" || k == "Accept-Language" || len(vs) == 0 {
			continue
		}
		extra = append(extra, k, vs[0])
	}
	if len(extra) > 0 {
		restore, err := page.SetExtraHeaders(extra)
		if err != nil {
			return nil, fmt.Errorf("failed to set headers: %w", err)
		}
		defer restore()
	}

	if err := page.Navigate(rawURL); err != nil {
		return nil, fmt.Errorf("navigation failed: %w", err)
	}
	if err := page.WaitLoad(); err != nil {
		return nil, fmt.Errorf("page did not load: %w", err)
	}

	html, err := page.HTML()
	if err != nil {
		return nil, fmt.Errorf("failed to read page: %w", err)
	}

	finalURL := rawURL
	if info, err := page.Info(); err == nil && info.URL != "" {
		finalURL = info.URL
	}

	return &Page{URL: finalURL, StatusCode: http.StatusOK, Body: html}, nil
}

func (f *BrowserFetcher) createLauncher(userAgent string) *launcher.Launcher {
	userDataDir := f.UserDataDir
	if userDataDir == "" {
		userDataDir = filepath.Join(os.TempDir(), "sharetext-browser")
	}

	l := launcher.New().
		Headless(!f.Visible).
		UserDataDir(userDataDir).
		Set("no-sandbox").
		Set("disable-gpu").
		Set("disable-dev-shm-usage").
		Set("disable-extensions").
		Set("no-first-run").
		Set("window-size", "1920,1080")
	if userAgent != "" {
		l = l.Set("user-agent", userAgent)
	}

	// ROD_BROWSER points at the system Chrome inside Docker
	if browserPath := os.Getenv("ROD_BROWSER"); browserPath != "" {
		l = l.Bin(browserPath)
	}

	return l
}
