package extractor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const (
	douyinPlatform       = "douyin"
	douyinProbeTimeout   = 10 * time.Second
	douyinPageTimeout    = 15 * time.Second
	douyinAcceptLanguage = "zh-CN,zh;q=0.8,en;q=0.6"
	douyinMusicCDN       = "douyinstatic.com/obj/ies-music"
)

// ID patterns applied to the body (and final URL) of the redirected share page.
// Order is priority: first match wins.
var douyinContentIDPatterns = []*regexp.Regexp{
	regexp.MustCompile(`"aweme_id"\s*:\s*"([^"]+)"`),
	regexp.MustCompile(`"item_id"\s*:\s*"([^"]+)"`),
	regexp.MustCompile(`"video_id"\s*:\s*"([^"]+)"`),
	regexp.MustCompile(`/video/([a-zA-Z0-9]{7,})`),
	regexp.MustCompile(`/share/video/([a-zA-Z0-9]{7,})`),
}

// ID patterns applied to the share URL itself
var douyinURLIDPatterns = []*regexp.Regexp{
	regexp.MustCompile(`v\.douyin\.com/([a-zA-Z0-9]+)`),
	regexp.MustCompile(`douyin\.com/video/([a-zA-Z0-9]+)`),
	regexp.MustCompile(`douyin\.com/share/video/([a-zA-Z0-9]+)`),
	regexp.MustCompile(`/([a-zA-Z0-9]{7,})/\?`),
	regexp.MustCompile(`/([a-zA-Z0-9]{7,})/?$`),
	regexp.MustCompile(`aweme_id=([a-zA-Z0-9]+)`),
	regexp.MustCompile(`item_id=([a-zA-Z0-9]+)`),
}

// DouyinParser resolves Douyin (抖音) share links
type DouyinParser struct {
	opts  Options
	log   *slog.Logger
	probe PageFetcher
	page  PageFetcher
}

// NewDouyinParser creates a Douyin parser
func NewDouyinParser(opts Options) *DouyinParser {
	opts = opts.withDefaults()
	return &DouyinParser{
		opts:  opts,
		log:   opts.Logger.With("platform", douyinPlatform),
		probe: &HTTPFetcher{Client: opts.Client, Timeout: douyinProbeTimeout},
		page:  &HTTPFetcher{Client: opts.Client, Timeout: douyinPageTimeout},
	}
}

func (p *DouyinParser) Name() string {
	return douyinPlatform
}

// ParseShareURL resolves the video ID behind a share link and parses its canonical page
func (p *DouyinParser) ParseShareURL(ctx context.Context, shareText string) (*VideoInfo, error) {
	shareURL, ok := ExtractURL(shareText)
	if !ok {
		return nil, newError(KindNoURLFound, douyinPlatform, "extract url", "no URL found in share text", nil)
	}

	id, degraded := p.resolveVideoID(ctx, shareURL)
	info, err := p.parsePage(ctx, id)
	if err != nil {
		return nil, err
	}
	if degraded {
		info.Status = StatusDegraded
		info.UsageTip = degradedTip + id
		info.Description = degradedNote + info.Description
	}
	return info, nil
}

// ParseVideoID parses the canonical page of a known video ID
func (p *DouyinParser) ParseVideoID(ctx context.Context, id string) (*VideoInfo, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, newError(KindInvalidInput, douyinPlatform, "parse video id", "video ID is empty", nil)
	}
	return p.parsePage(ctx, id)
}

// Download is the fast path used when only a watermark-free download link is needed.
// Failures are reported in the record rather than returned.
func (p *DouyinParser) Download(ctx context.Context, shareText string) *DouyinVideoInfo {
	shareURL, ok := ExtractDouyinURL(shareText)
	if !ok {
		return &DouyinVideoInfo{
			Status: StatusError,
			Error:  "未找到有效的抖音分享链接",
		}
	}

	id, degraded := p.resolveVideoID(ctx, shareURL)
	info, err := p.parsePage(ctx, id)
	if err != nil {
		return &DouyinVideoInfo{VideoID: id, Status: StatusError, Error: err.Error()}
	}
	if info.VideoURL == "" {
		return &DouyinVideoInfo{
			VideoID: id,
			Title:   info.Title,
			Status:  StatusError,
			Error:   fmt.Sprintf("该作品是图集（共%d张图片），没有可下载的视频", len(info.Images)),
		}
	}

	rec := &DouyinVideoInfo{
		VideoID:     id,
		Title:       info.Title,
		DownloadURL: info.VideoURL,
		Description: "视频标题: " + info.Title,
		Status:      StatusSuccess,
		UsageTip:    "可以直接使用此链接下载无水印视频",
	}
	if degraded {
		rec.Status = StatusDegraded
		rec.UsageTip = degradedTip + id
		rec.Description = degradedNote + rec.Description
	}
	return rec
}

// shown on records whose video ID came from the synthetic fallback
const (
	degradedTip  = "视频ID解析失败，结果可能不完整: "
	degradedNote = "[ID未解析] "
)

// idStrategy yields a video ID or reports that it found none
type idStrategy func(ctx context.Context, shareURL string) (string, bool)

// resolveVideoID runs the ID strategies in order. When all of them fail a
// synthetic ID is returned and degraded is true.
func (p *DouyinParser) resolveVideoID(ctx context.Context, shareURL string) (id string, degraded bool) {
	var probeErr error
	strategies := []idStrategy{
		func(ctx context.Context, u string) (string, bool) {
			id, err := p.idFromRedirect(ctx, u)
			probeErr = err
			return id, id != ""
		},
		func(_ context.Context, u string) (string, bool) {
			return firstSubmatch(douyinURLIDPatterns, u)
		},
	}

	for _, strategy := range strategies {
		if id, ok := strategy(ctx, shareURL); ok {
			p.log.Debug("resolved video id", "id", id)
			return id, false
		}
	}

	prefix := "unknown_"
	var statusErr *HTTPStatusError
	if probeErr != nil && !errors.As(probeErr, &statusErr) {
		prefix = "error_"
	}
	id = prefix + strconv.FormatInt(p.opts.Now().UnixMilli(), 10)
	p.log.Warn("all video id strategies failed, using fallback id",
		"url", shareURL, "fallback_id", id, "probe_error", probeErr)
	return id, true
}

// idFromRedirect follows the share link with a mobile user agent and scans
// the landing page for an ID
func (p *DouyinParser) idFromRedirect(ctx context.Context, shareURL string) (string, error) {
	page, err := p.probe.FetchPage(ctx, shareURL, pageHeader(MobileUserAgent, douyinAcceptLanguage, nil))
	if err != nil {
		p.log.Debug("redirect probe failed", "error", err)
		return "", err
	}
	if id, ok := firstSubmatch(douyinContentIDPatterns, page.Body); ok {
		return id, nil
	}
	if id, ok := firstSubmatch(douyinContentIDPatterns, page.URL); ok {
		return id, nil
	}
	return "", nil
}

func (p *DouyinParser) parsePage(ctx context.Context, id string) (*VideoInfo, error) {
	pageURL := p.opts.DouyinPageBase + id
	page, err := p.page.FetchPage(ctx, pageURL, pageHeader(MobileUserAgent, douyinAcceptLanguage, nil))
	if err != nil {
		return nil, newError(KindHTTPFailure, douyinPlatform, "fetch page", pageURL, err)
	}
	if strings.TrimSpace(page.Body) == "" {
		return nil, newError(KindEmptyPageContent, douyinPlatform, "fetch page", "page content is empty", nil)
	}

	blob, _, err := ExtractEmbedded(page.Body, douyinMarkers)
	if err != nil {
		return nil, withPlatform(err, douyinPlatform)
	}
	root, err := DecodeBlob(blob)
	if err != nil {
		return nil, withPlatform(err, douyinPlatform)
	}

	loaderData, ok := P("loaderData").Map(root)
	if !ok {
		return nil, newError(KindContentStructureChanged, douyinPlatform, "parse page", "loaderData not found", nil)
	}

	// Upstream sometimes serves the literal route placeholders instead of interpolated keys
	keys := []string{
		"video_" + id + "/page",
		"note_" + id + "/page",
		"video_(id)/page",
		"note_(id)/page",
	}
	paths := make([]Path, len(keys))
	for i, k := range keys {
		paths[i] = Path{k, "videoInfoRes"}
	}
	videoInfoRes, idx, ok := FirstMap(loaderData, paths...)
	if !ok {
		p.log.Debug("loaderData keys", "keys", Keys(loaderData))
		return nil, &Error{
			Kind:     KindContentStructureChanged,
			Platform: douyinPlatform,
			Op:       "parse page",
			Msg:      "video or gallery info not found in loaderData",
			Tried:    keys,
		}
	}
	p.log.Debug("found videoInfoRes", "key", keys[idx])

	items, _ := P("item_list").Slice(videoInfoRes)
	if len(items) == 0 {
		return nil, newError(KindContentStructureChanged, douyinPlatform, "parse page", "item_list is empty", nil)
	}

	info := buildDouyinInfo(items[0], id)
	p.log.Info("parsed share link", "title", info.Title, "gallery", info.IsGallery())
	return info, nil
}

func buildDouyinInfo(item any, id string) *VideoInfo {
	info := &VideoInfo{Images: []ImageInfo{}}

	images, _ := P("images").Slice(item)
	for _, img := range images {
		if u := P("url_list.0").String(img); u != "" {
			info.Images = append(info.Images, ImageInfo{URL: u})
		}
	}

	if playURL := P("video.play_addr.url_list.0").String(item); playURL != "" {
		playURL = strings.ReplaceAll(playURL, "playwm", "play")
		if len(info.Images) > 0 {
			// In a gallery the "video" is the background track
			if strings.Contains(playURL, douyinMusicCDN) {
				info.MusicURL = musicSource(playURL)
			}
			playURL = ""
		}
		info.VideoURL = playURL
	}

	title := P("desc").String(item)
	if strings.TrimSpace(title) == "" {
		title = "douyin_" + id
	}
	info.Title = SanitizeTitle(title)

	info.Author = Author{
		UID:    P("author.uid").String(item),
		Name:   P("author.nickname").String(item),
		Avatar: P("author.avatar_larger.url_list.0").String(item),
	}
	info.CoverURL = FirstString(item,
		P("video.origin_cover.url_list.0"),
		P("video.cover.url_list.0"),
	)

	info.Status = StatusSuccess
	if info.IsGallery() {
		info.Description = fmt.Sprintf("抖音图集: %s (共%d张图片)", info.Title, len(info.Images))
		info.UsageTip = fmt.Sprintf("已成功解析抖音图集信息，包含%d张图片", len(info.Images))
	} else {
		info.Description = "抖音视频: " + info.Title
		info.UsageTip = "可以直接使用此链接下载无水印视频"
	}
	return info
}

// musicSource pulls the audio source out of the video_id= query component
func musicSource(playURL string) string {
	_, after, ok := strings.Cut(playURL, "video_id=")
	if !ok {
		return ""
	}
	src, _, _ := strings.Cut(after, "&")
	return src
}

func firstSubmatch(patterns []*regexp.Regexp, s string) (string, bool) {
	if s == "" {
		return "", false
	}
	for _, re := range patterns {
		if m := re.FindStringSubmatch(s); m != nil && m[1] != "" {
			return m[1], true
		}
	}
	return "", false
}

// withPlatform stamps the platform on an *Error produced by a shared helper
func withPlatform(err error, platform string) error {
	var e *Error
	if errors.As(err, &e) && e.Platform == "" {
		e.Platform = platform
	}
	return err
}
