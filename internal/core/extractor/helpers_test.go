package extractor

import (
	"bytes"
	"log/slog"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"
)

// routeTransport sends every request to a test server, whatever its host.
// The original host is forwarded in X-Original-Host so one handler can
// play several upstream sites.
type routeTransport struct {
	target *url.URL
}

func (rt routeTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	r := req.Clone(req.Context())
	r.Header.Set("X-Original-Host", req.URL.Host)
	r.URL.Scheme = rt.target.Scheme
	r.URL.Host = rt.target.Host
	r.Host = rt.target.Host
	resp, err := http.DefaultTransport.RoundTrip(r)
	if err != nil {
		return nil, err
	}
	resp.Request = req
	return resp, nil
}

// newTestOptions starts a server for handler and returns parser options
// that route all traffic to it, plus the buffer the logger writes to.
func newTestOptions(t *testing.T, handler http.HandlerFunc) (Options, *bytes.Buffer) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	target, err := url.Parse(srv.URL)
	if err != nil {
		t.Fatal(err)
	}

	var logs bytes.Buffer
	return Options{
		Client: &http.Client{Transport: routeTransport{target: target}},
		Logger: slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug})),
		Rand:   rand.New(rand.NewSource(1)),
		Now:    func() time.Time { return time.UnixMilli(1700000000000) },
	}, &logs
}

func wantKind(t *testing.T, err error, kind Kind) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", kind)
	}
	if got := KindOf(err); got != kind {
		t.Fatalf("error kind = %q, want %q (err: %v)", got, kind, err)
	}
}
