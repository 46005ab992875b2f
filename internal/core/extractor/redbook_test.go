package extractor

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"strings"
	"testing"
)

// fakeFetcher serves one canned page and records the request headers
type fakeFetcher struct {
	body   string
	err    error
	url    string
	header http.Header
}

func (f *fakeFetcher) FetchPage(_ context.Context, rawURL string, header http.Header) (*Page, error) {
	f.url = rawURL
	f.header = header
	if f.err != nil {
		return nil, f.err
	}
	return &Page{URL: rawURL, StatusCode: http.StatusOK, Body: f.body}, nil
}

func statePage(marker, state string) string {
	return fmt.Sprintf(`<html><head></head><body><script>%s = %s</script></body></html>`, marker, state)
}

const redBookVideoState = `{
  "global": {"appSettings": {}},
  "note": {
    "currentNoteId": "64f1a2b3c4d5e6f708091a2b",
    "noteDetailMap": {
      "64f1a2b3c4d5e6f708091a2b": {
        "note": {
          "title": "周末去露营",
          "user": {"userId": "5a1b", "nickname": "小林", "avatar": "https://sns-avatar.xhscdn.com/a.jpg"},
          "video": {"media": {"stream": {"h264": [{"masterUrl": "https://sns-video-bd.xhscdn.com/stream/1.mp4"}]}}},
          "imageList": [{"urlDefault": "https://sns-webpic-qc.xhscdn.com/202401/1040g2sg30abc!nd_dft_wlteh_webp_3"}]
        }
      }
    }
  }
};`

const redBookGalleryState = `{
  "user": undefined,
  "note": {
    "currentNoteId": "65aa",
    "noteDetailMap": {
      "65aa": {
        "note": {
          "title": "",
          "user": {"userId": "7c2d", "nickname": "阿花", "avatar": "https://sns-avatar.xhscdn.com/b.jpg"},
          "video": undefined,
          "imageList": [
            {"urlDefault": "https://sns-webpic-qc.xhscdn.com/202401/abc/1040g00830img1!nd_dft_wlteh_webp_3", "livePhoto": false},
            {"urlDefault": "https://sns-webpic-qc.xhscdn.com/202401/spectrum/1040g0k030img2!nd_dft_wlteh_webp_3", "livePhoto": true,
             "stream": {"h264": [{"masterUrl": "https://sns-video-bd.xhscdn.com/live/2.mp4"}]}},
            {"urlDefault": "https://sns-webpic-qc.xhscdn.com/202401/1040g00830img3"},
            {"urlDefault": ""}
          ]
        }
      }
    }
  }
}`

func newRedBookForTest(t *testing.T, f *fakeFetcher) *RedBookParser {
	t.Helper()
	opts, _ := newTestOptions(t, func(w http.ResponseWriter, r *http.Request) {})
	opts.Fetcher = f
	return NewRedBookParser(opts)
}

func TestRedBookVideoNote(t *testing.T) {
	f := &fakeFetcher{body: statePage("window.__INITIAL_STATE__", redBookVideoState)}
	p := newRedBookForTest(t, f)

	info, err := p.ParseShareURL(context.Background(),
		"【周末去露营 - 小林 | 小红书】 😆 abc http://xhslink.com/a/Bc1xyz，复制本条信息")
	if err != nil {
		t.Fatalf("ParseShareURL error: %v", err)
	}

	if info.VideoURL != "https://sns-video-bd.xhscdn.com/stream/1.mp4" {
		t.Errorf("VideoURL = %q", info.VideoURL)
	}
	if len(info.Images) != 0 {
		t.Errorf("Images = %v, want none for a video note", info.Images)
	}
	if info.Title != "周末去露营" {
		t.Errorf("Title = %q", info.Title)
	}
	if info.CoverURL != "https://sns-webpic-qc.xhscdn.com/202401/1040g2sg30abc!nd_dft_wlteh_webp_3" {
		t.Errorf("CoverURL = %q", info.CoverURL)
	}
	if info.Author != (Author{UID: "5a1b", Name: "小林", Avatar: "https://sns-avatar.xhscdn.com/a.jpg"}) {
		t.Errorf("Author = %+v", info.Author)
	}
	if info.Description != "小红书视频: 周末去露营" || info.UsageTip != "已成功解析小红书视频信息" {
		t.Errorf("Description/UsageTip = %q / %q", info.Description, info.UsageTip)
	}
	if info.Status != StatusSuccess {
		t.Errorf("Status = %q", info.Status)
	}
}

func TestRedBookRequestHeaders(t *testing.T) {
	f := &fakeFetcher{body: statePage("window.__INITIAL_STATE__", redBookVideoState)}
	p := newRedBookForTest(t, f)

	if _, err := p.ParseShareURL(context.Background(), "http://xhslink.com/a/Bc1xyz"); err != nil {
		t.Fatalf("ParseShareURL error: %v", err)
	}

	if f.url != "http://xhslink.com/a/Bc1xyz" {
		t.Errorf("fetched %q", f.url)
	}
	// Same seed as newTestOptions
	wantUA := DesktopUserAgents[rand.New(rand.NewSource(1)).Intn(len(DesktopUserAgents))]
	if got := f.header.Get("User-Agent"); got != wantUA {
		t.Errorf("User-Agent = %q, want %q", got, wantUA)
	}
	for k, v := range map[string]string{
		"Sec-Fetch-Dest": "document",
		"Sec-Fetch-Mode": "navigate",
		"Sec-Fetch-Site": "none",
	} {
		if got := f.header.Get(k); got != v {
			t.Errorf("%s = %q, want %q", k, got, v)
		}
	}
}

func TestRedBookGalleryNote(t *testing.T) {
	f := &fakeFetcher{body: statePage("window.__INITIAL_STATE__", redBookGalleryState)}
	p := newRedBookForTest(t, f)

	info, err := p.ParseShareURL(context.Background(), "https://www.xiaohongshu.com/explore/65aa")
	if err != nil {
		t.Fatalf("ParseShareURL error: %v", err)
	}

	want := []ImageInfo{
		{URL: "https://ci.xiaohongshu.com/notes_pre_post/1040g00830img1?imageView2/format/jpg"},
		{
			URL:          "https://ci.xiaohongshu.com/notes_pre_post/spectrum/1040g0k030img2?imageView2/format/jpg",
			LivePhotoURL: "https://sns-video-bd.xhscdn.com/live/2.mp4",
		},
		{URL: "https://ci.xiaohongshu.com/notes_pre_post/1040g00830img3?imageView2/format/jpg"},
	}
	if len(info.Images) != len(want) {
		t.Fatalf("got %d images, want %d: %+v", len(info.Images), len(want), info.Images)
	}
	for i := range want {
		if info.Images[i] != want[i] {
			t.Errorf("Images[%d]\n  got:  %+v\n  want: %+v", i, info.Images[i], want[i])
		}
	}
	if info.VideoURL != "" {
		t.Errorf("VideoURL = %q", info.VideoURL)
	}
	if info.Title != "redbook_65aa" {
		t.Errorf("Title = %q", info.Title)
	}
	if info.Description != "小红书图集: redbook_65aa (共3张图片)" {
		t.Errorf("Description = %q", info.Description)
	}
	if info.UsageTip != "已成功解析小红书图集信息，包含3张图片" {
		t.Errorf("UsageTip = %q", info.UsageTip)
	}
}

func TestRedBookAlternativeMarker(t *testing.T) {
	f := &fakeFetcher{body: statePage("window._INITIAL_STATE_", redBookVideoState)}
	info, err := newRedBookForTest(t, f).ParseShareURL(context.Background(), "https://www.xiaohongshu.com/explore/64f1")
	if err != nil {
		t.Fatalf("ParseShareURL error: %v", err)
	}
	if info.Title != "周末去露营" {
		t.Errorf("Title = %q", info.Title)
	}
}

func TestRedBookErrors(t *testing.T) {
	tests := []struct {
		name     string
		fetcher  *fakeFetcher
		input    string
		wantKind Kind
	}{
		{
			name:     "no URL",
			fetcher:  &fakeFetcher{},
			input:    "复制本条信息，打开小红书",
			wantKind: KindNoURLFound,
		},
		{
			name:     "fetch failure",
			fetcher:  &fakeFetcher{err: &HTTPStatusError{StatusCode: http.StatusForbidden}},
			wantKind: KindHTTPFailure,
		},
		{
			name:     "empty page",
			fetcher:  &fakeFetcher{body: "\n\n"},
			wantKind: KindEmptyPageContent,
		},
		{
			name:     "no marker",
			fetcher:  &fakeFetcher{body: "<html><script>var a = 1</script></html>"},
			wantKind: KindContentStructureChanged,
		},
		{
			name:     "undecodable state",
			fetcher:  &fakeFetcher{body: statePage("window.__INITIAL_STATE__", `{"note": {`)},
			wantKind: KindDecodeFailure,
		},
		{
			name:     "expired: undefined note id",
			fetcher:  &fakeFetcher{body: statePage("window.__INITIAL_STATE__", `{"note": {"currentNoteId": undefined, "noteDetailMap": {}}}`)},
			wantKind: KindExpiredLink,
		},
		{
			name:     "expired: blank note id",
			fetcher:  &fakeFetcher{body: statePage("window.__INITIAL_STATE__", `{"note": {"currentNoteId": "", "noteDetailMap": {}}}`)},
			wantKind: KindExpiredLink,
		},
		{
			name:     "no note",
			fetcher:  &fakeFetcher{body: statePage("window.__INITIAL_STATE__", `{"user": {}}`)},
			wantKind: KindContentStructureChanged,
		},
		{
			name:     "no detail map",
			fetcher:  &fakeFetcher{body: statePage("window.__INITIAL_STATE__", `{"note": {"currentNoteId": "a1"}}`)},
			wantKind: KindContentStructureChanged,
		},
		{
			name:     "no detail for current note",
			fetcher:  &fakeFetcher{body: statePage("window.__INITIAL_STATE__", `{"note": {"currentNoteId": "a1", "noteDetailMap": {"b2": {}}}}`)},
			wantKind: KindContentStructureChanged,
		},
		{
			name:     "empty detail",
			fetcher:  &fakeFetcher{body: statePage("window.__INITIAL_STATE__", `{"note": {"currentNoteId": "a1", "noteDetailMap": {"a1": {"note": null}}}}`)},
			wantKind: KindContentStructureChanged,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := tt.input
			if input == "" {
				input = "http://xhslink.com/a/Bc1xyz"
			}
			_, err := newRedBookForTest(t, tt.fetcher).ParseShareURL(context.Background(), input)
			wantKind(t, err, tt.wantKind)

			var e *Error
			if errors.As(err, &e) && e.Platform != "redbook" {
				t.Errorf("Platform = %q, want redbook", e.Platform)
			}
		})
	}
}

func TestRedBookNoMarkerListsTried(t *testing.T) {
	f := &fakeFetcher{body: "<html><body>登录后查看更多内容</body></html>"}
	_, err := newRedBookForTest(t, f).ParseShareURL(context.Background(), "http://xhslink.com/a/x")

	var e *Error
	if !errors.As(err, &e) {
		t.Fatalf("expected *Error, got %v", err)
	}
	if len(e.Tried) != 4 {
		t.Errorf("Tried = %v, want all 4 markers", e.Tried)
	}
	for _, m := range []string{"__INITIAL_STATE__", "_INITIAL_STATE_", "__NUXT__", "__APOLLO_STATE__"} {
		if !strings.Contains(err.Error(), m) {
			t.Errorf("error %q does not mention %s", err, m)
		}
	}
}

func TestRedBookParseVideoIDUnsupported(t *testing.T) {
	_, err := newRedBookForTest(t, &fakeFetcher{}).ParseVideoID(context.Background(), "64f1")
	wantKind(t, err, KindUnsupportedOperation)
}

func TestRewriteImageURL(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{
			"https://sns-webpic-qc.xhscdn.com/202401/abc/1040g00830img1!nd_dft_wlteh_webp_3",
			"https://ci.xiaohongshu.com/notes_pre_post/1040g00830img1?imageView2/format/jpg",
		},
		{
			"https://sns-webpic-qc.xhscdn.com/202401/spectrum/1040g0k030img2!nd_dft",
			"https://ci.xiaohongshu.com/notes_pre_post/spectrum/1040g0k030img2?imageView2/format/jpg",
		},
		{
			"1040g00830img3",
			"https://ci.xiaohongshu.com/notes_pre_post/1040g00830img3?imageView2/format/jpg",
		},
	}
	for _, tt := range tests {
		if got := rewriteImageURL(tt.in); got != tt.want {
			t.Errorf("rewriteImageURL(%q)\n  got:  %q\n  want: %q", tt.in, got, tt.want)
		}
	}
}
