package extractor

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"gopkg.in/yaml.v3"
)

// Marker is a global-variable assignment that carries a page's state blob,
// e.g. `window.__INITIAL_STATE__ = {...}</script>`
type Marker struct {
	Expr string
	re   *regexp.Regexp
}

// NewMarker builds a marker for the assignment target expr
func NewMarker(expr string) Marker {
	return Marker{
		Expr: expr,
		re:   regexp.MustCompile(`(?s)` + regexp.QuoteMeta(expr) + `\s*=\s*(.*?)</script>`),
	}
}

var (
	douyinMarkers = []Marker{
		NewMarker("window._ROUTER_DATA"),
	}
	redBookMarkers = []Marker{
		NewMarker("window.__INITIAL_STATE__"),
		NewMarker("window._INITIAL_STATE_"),
		NewMarker("window.__NUXT__"),
		NewMarker("window.__APOLLO_STATE__"),
	}
)

// ExtractEmbedded returns the raw blob assigned to the first marker found in html.
// Markers are tried in the given order. For each marker the parsed script nodes
// are searched first, then the raw body as a fallback for markup the HTML parser
// does not keep intact.
func ExtractEmbedded(html string, markers []Marker) (string, Marker, error) {
	var scripts []string
	if doc, err := goquery.NewDocumentFromReader(strings.NewReader(html)); err == nil {
		doc.Find("script").Each(func(_ int, s *goquery.Selection) {
			scripts = append(scripts, s.Text())
		})
	}

	tried := make([]string, 0, len(markers))
	for _, m := range markers {
		tried = append(tried, m.Expr)

		for _, script := range scripts {
			if blob, ok := m.fromScript(script); ok {
				return blob, m, nil
			}
		}
		if match := m.re.FindStringSubmatch(html); match != nil {
			if blob := strings.TrimSpace(match[1]); blob != "" {
				return blob, m, nil
			}
		}
	}

	return "", Marker{}, &Error{
		Kind:  KindContentStructureChanged,
		Op:    "extract embedded data",
		Msg:   "no embedded state marker found",
		Tried: tried,
	}
}

// fromScript finds `expr = value` in a script body and returns value
func (m Marker) fromScript(script string) (string, bool) {
	idx := strings.Index(script, m.Expr)
	if idx < 0 {
		return "", false
	}
	rest := strings.TrimLeft(script[idx+len(m.Expr):], " \t\r\n")
	if !strings.HasPrefix(rest, "=") {
		return "", false
	}
	blob := strings.TrimSpace(rest[1:])
	return blob, blob != ""
}

// DecodeBlob decodes an embedded state blob. The permissive YAML decoder goes
// first since it tolerates JS literals such as undefined; strict JSON is the fallback.
func DecodeBlob(raw string) (map[string]any, error) {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimSuffix(raw, ";")

	var root map[string]any
	yamlErr := yaml.Unmarshal([]byte(raw), &root)
	if yamlErr == nil && root != nil {
		return root, nil
	}

	root = nil
	jsonErr := json.Unmarshal([]byte(raw), &root)
	if jsonErr == nil && root != nil {
		return root, nil
	}

	if yamlErr == nil {
		yamlErr = fmt.Errorf("not an object")
	}
	if jsonErr == nil {
		jsonErr = fmt.Errorf("not an object")
	}
	return nil, &Error{
		Kind: KindDecodeFailure,
		Op:   "decode embedded data",
		Msg:  fmt.Sprintf("yaml: %v; json", yamlErr),
		Err:  jsonErr,
	}
}
