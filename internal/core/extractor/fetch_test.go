package extractor

import (
	"context"
	"errors"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestUAPoolDeterministic(t *testing.T) {
	a := NewUAPool(DesktopUserAgents, rand.New(rand.NewSource(42)))
	b := NewUAPool(DesktopUserAgents, rand.New(rand.NewSource(42)))

	for i := 0; i < 20; i++ {
		ua1, ua2 := a.Pick(), b.Pick()
		if ua1 != ua2 {
			t.Fatalf("pick %d differs with the same seed: %q vs %q", i, ua1, ua2)
		}
	}
}

func TestUAPoolStaysInPool(t *testing.T) {
	pool := NewUAPool(DesktopUserAgents, nil)
	known := make(map[string]bool, len(DesktopUserAgents))
	for _, ua := range DesktopUserAgents {
		known[ua] = true
	}
	for i := 0; i < 50; i++ {
		if ua := pool.Pick(); !known[ua] {
			t.Fatalf("Pick() returned unknown UA %q", ua)
		}
	}
}

func TestHTTPFetcher(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/start":
			http.Redirect(w, r, "/final", http.StatusFound)
		case "/final":
			w.Header().Set("X-Seen-UA", r.Header.Get("User-Agent"))
			w.Write([]byte("<html>" + r.Header.Get("User-Agent") + "</html>"))
		case "/gone":
			w.WriteHeader(http.StatusForbidden)
			w.Write([]byte("blocked"))
		}
	}))
	defer srv.Close()

	f := &HTTPFetcher{Client: srv.Client(), Timeout: 5 * time.Second}
	ctx := context.Background()

	page, err := f.FetchPage(ctx, srv.URL+"/start", pageHeader("test-agent", "zh-CN", nil))
	if err != nil {
		t.Fatalf("FetchPage error: %v", err)
	}
	if page.URL != srv.URL+"/final" {
		t.Errorf("final URL = %q, want %q", page.URL, srv.URL+"/final")
	}
	if page.Body != "<html>test-agent</html>" {
		t.Errorf("body = %q", page.Body)
	}
	if page.StatusCode != http.StatusOK {
		t.Errorf("status = %d", page.StatusCode)
	}

	page, err = f.FetchPage(ctx, srv.URL+"/gone", nil)
	var statusErr *HTTPStatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("expected *HTTPStatusError, got %v", err)
	}
	if statusErr.StatusCode != http.StatusForbidden {
		t.Errorf("StatusCode = %d, want 403", statusErr.StatusCode)
	}
	if page == nil || page.Body != "blocked" {
		t.Errorf("page on error = %+v, want body kept", page)
	}
}

func TestPageHeader(t *testing.T) {
	h := pageHeader("ua", "en", map[string]string{"Sec-Fetch-Mode": "navigate"})
	if h.Get("User-Agent") != "ua" || h.Get("Accept-Language") != "en" {
		t.Errorf("unexpected header: %v", h)
	}
	if h.Get("Sec-Fetch-Mode") != "navigate" {
		t.Error("extra header missing")
	}
	if h.Get("Accept-Encoding") != "" {
		t.Error("Accept-Encoding must be left to the transport")
	}
}
