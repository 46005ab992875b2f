package extractor

import (
	"context"
	"strings"
	"testing"
)

func TestDetect(t *testing.T) {
	tests := []struct {
		url    string
		wantID string
	}{
		{"https://v.douyin.com/abc123/", "douyin"},
		{"https://www.iesdouyin.com/share/video/7234567890123", "douyin"},
		{"https://www.douyin.com/video/7234567890123", "douyin"},
		{"https://v.kuaishou.com/xyz", "kuaishou"},
		{"https://www.xiaohongshu.com/explore/64abc", "redbook"},
		{"http://xhslink.com/a/Bc1", "redbook"},
		{"https://weibo.com/tv/show/1034:123", "weibo"},
		{"https://weibo.cn/sinaurl?u=1", "lvzhou"},
		{"https://v.ixigua.com/abc/", "xigua"},
		{"https://haokan.hao123.com/v?vid=1", "haokan"},
		{"https://www.acfun.cn/v/ac123", "acfun"},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			p, ok := Detect(tt.url)
			if !ok {
				t.Fatalf("Detect(%q) found nothing, want %s", tt.url, tt.wantID)
			}
			if p.ID != tt.wantID {
				t.Errorf("Detect(%q) = %s, want %s", tt.url, p.ID, tt.wantID)
			}
		})
	}
}

func TestDetectEveryRegisteredDomain(t *testing.T) {
	for _, p := range Platforms() {
		for _, domain := range p.Domains {
			got, ok := Detect("https://" + domain + "/share/1")
			if !ok {
				t.Errorf("Detect(%s) found nothing, want %s", domain, p.ID)
				continue
			}
			// An earlier platform may legitimately win on overlap; it must still
			// contain a matching domain.
			if got.ID != p.ID && !containsDomain(got, "https://"+domain+"/share/1") {
				t.Errorf("Detect(%s) = %s, which has no matching domain", domain, got.ID)
			}
		}
	}
}

func containsDomain(p Platform, u string) bool {
	for _, d := range p.Domains {
		if strings.Contains(u, d) {
			return true
		}
	}
	return false
}

func TestDetectNotFound(t *testing.T) {
	for _, u := range []string{"", "not a url", "https://example.com/video/1", "https://www.youtube.com/watch?v=1"} {
		if p, ok := Detect(u); ok {
			t.Errorf("Detect(%q) = %s, want not found", u, p.ID)
		}
	}
}

func TestPlatformsOrderAndSupport(t *testing.T) {
	ps := Platforms()
	if len(ps) != 20 {
		t.Fatalf("len(Platforms()) = %d, want 20", len(ps))
	}
	if ps[0].ID != "douyin" || ps[2].ID != "redbook" {
		t.Errorf("unexpected order: %s, %s", ps[0].ID, ps[2].ID)
	}

	var supported []string
	for _, p := range ps {
		if p.Supported() {
			supported = append(supported, p.ID)
		}
	}
	if len(supported) != 2 || supported[0] != "douyin" || supported[1] != "redbook" {
		t.Errorf("supported = %v, want [douyin redbook]", supported)
	}

	// Mutating the copy must not affect the registry
	ps[0].ID = "changed"
	if Platforms()[0].ID != "douyin" {
		t.Error("Platforms() returned the shared table")
	}
}

func TestNewParser(t *testing.T) {
	tests := []struct {
		id       string
		wantName string
		wantKind Kind
	}{
		{id: "douyin", wantName: "douyin"},
		{id: "DOUYIN", wantName: "douyin"},
		{id: "redbook", wantName: "redbook"},
		{id: "kuaishou", wantKind: KindUnsupportedPlatform},
		{id: "youtube", wantKind: KindUnsupportedPlatform},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			p, err := NewParser(tt.id, Options{})
			if tt.wantKind != "" {
				wantKind(t, err, tt.wantKind)
				return
			}
			if err != nil {
				t.Fatalf("NewParser(%q) error: %v", tt.id, err)
			}
			if p.Name() != tt.wantName {
				t.Errorf("Name() = %q, want %q", p.Name(), tt.wantName)
			}
		})
	}
}

func TestParseShareURLErrors(t *testing.T) {
	ctx := context.Background()

	_, err := ParseShareURL(ctx, "没有链接的分享文本", Options{})
	wantKind(t, err, KindNoURLFound)

	_, err = ParseShareURL(ctx, "看看 https://example.com/video/1", Options{})
	wantKind(t, err, KindUnsupportedPlatform)

	// Recognized domain without a bound parser
	_, err = ParseShareURL(ctx, "https://v.kuaishou.com/xyz", Options{})
	wantKind(t, err, KindUnsupportedPlatform)

	_, err = ParseVideoID(ctx, "redbook", "64abc", Options{})
	wantKind(t, err, KindUnsupportedOperation)
}
