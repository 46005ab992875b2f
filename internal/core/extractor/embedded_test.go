package extractor

import (
	"errors"
	"reflect"
	"testing"
)

func TestExtractEmbedded(t *testing.T) {
	tests := []struct {
		name       string
		html       string
		markers    []Marker
		wantBlob   string
		wantMarker string
	}{
		{
			name:       "Router data in script node",
			html:       `<html><head><script>window._ROUTER_DATA = {"a":1}</script></head><body></body></html>`,
			markers:    douyinMarkers,
			wantBlob:   `{"a":1}`,
			wantMarker: "window._ROUTER_DATA",
		},
		{
			name:       "Marker after other statements",
			html:       `<script>var x = 1;window.__INITIAL_STATE__={"note":{}};</script>`,
			markers:    redBookMarkers,
			wantBlob:   `{"note":{}};`,
			wantMarker: "window.__INITIAL_STATE__",
		},
		{
			name: "First marker in priority order wins",
			html: `<script>window.__NUXT__ = {"n":1}</script>` +
				`<script>window._INITIAL_STATE_ = {"i":2}</script>`,
			markers:    redBookMarkers,
			wantBlob:   `{"i":2}`,
			wantMarker: "window._INITIAL_STATE_",
		},
		{
			name:       "Multi-line blob",
			html:       "<script>\n  window.__APOLLO_STATE__ =\n  {\n \"a\": 1\n }\n</script>",
			markers:    redBookMarkers,
			wantBlob:   "{\n \"a\": 1\n }",
			wantMarker: "window.__APOLLO_STATE__",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			blob, m, err := ExtractEmbedded(tt.html, tt.markers)
			if err != nil {
				t.Fatalf("ExtractEmbedded error: %v", err)
			}
			if blob != tt.wantBlob {
				t.Errorf("blob\n  got:  %q\n  want: %q", blob, tt.wantBlob)
			}
			if m.Expr != tt.wantMarker {
				t.Errorf("marker = %q, want %q", m.Expr, tt.wantMarker)
			}
		})
	}
}

func TestExtractEmbeddedMissingMarker(t *testing.T) {
	html := `<html><body><script>console.log("nothing here")</script></body></html>`
	_, _, err := ExtractEmbedded(html, redBookMarkers)
	wantKind(t, err, KindContentStructureChanged)

	var e *Error
	if !errors.As(err, &e) {
		t.Fatalf("expected *Error, got %T", err)
	}
	want := []string{
		"window.__INITIAL_STATE__",
		"window._INITIAL_STATE_",
		"window.__NUXT__",
		"window.__APOLLO_STATE__",
	}
	if !reflect.DeepEqual(e.Tried, want) {
		t.Errorf("Tried = %v, want %v", e.Tried, want)
	}
}

func TestExtractEmbeddedRegexFallback(t *testing.T) {
	// Marker outside any script node (e.g. text the HTML parser moved around)
	html := `window._ROUTER_DATA = {"x":true}</script>`
	blob, _, err := ExtractEmbedded(html, douyinMarkers)
	if err != nil {
		t.Fatalf("ExtractEmbedded error: %v", err)
	}
	if blob != `{"x":true}` {
		t.Errorf("blob = %q", blob)
	}
}

func TestDecodeBlob(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		path Path
		want string
	}{
		{
			name: "JSON",
			raw:  `{"note": {"currentNoteId": "64abc"}}`,
			path: P("note.currentNoteId"),
			want: "64abc",
		},
		{
			name: "Trailing semicolon",
			raw:  `{"a": {"b": "c"}};`,
			path: P("a.b"),
			want: "c",
		},
		{
			name: "JS undefined literal",
			raw:  `{"global": undefined, "note": {"currentNoteId": undefined}}`,
			path: P("note.currentNoteId"),
			want: "undefined",
		},
		{
			name: "Array index",
			raw:  `{"list": [{"u": "first"}, {"u": "second"}]}`,
			path: P("list.1.u"),
			want: "second",
		},
		{
			name: "Keys with slashes and parentheses",
			raw:  `{"loaderData": {"video_(id)/page": {"ok": "yes"}}}`,
			path: Path{"loaderData", "video_(id)/page", "ok"},
			want: "yes",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root, err := DecodeBlob(tt.raw)
			if err != nil {
				t.Fatalf("DecodeBlob(%q) error: %v", tt.raw, err)
			}
			if got := tt.path.String(root); got != tt.want {
				t.Errorf("%v = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}

func TestDecodeBlobFailure(t *testing.T) {
	for _, raw := range []string{`{"a": [1, 2`, `"just a string"`, `[1, 2, 3]`, ``} {
		_, err := DecodeBlob(raw)
		wantKind(t, err, KindDecodeFailure)
	}
}
