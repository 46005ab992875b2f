package extractor

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

const (
	redBookPlatform       = "redbook"
	redBookPageTimeout    = 15 * time.Second
	redBookAcceptLanguage = "zh-CN,zh;q=0.9,en;q=0.8"
	redBookImageTemplate  = "https://ci.xiaohongshu.com/notes_pre_post/%s%s?imageView2/format/jpg"
)

// RedBookParser resolves Xiaohongshu (小红书) share links
type RedBookParser struct {
	log     *slog.Logger
	fetcher PageFetcher
	ua      *UAPool
}

// NewRedBookParser creates a RedBook parser. Options.Fetcher, when set,
// replaces the plain HTTP fetcher (e.g., with a BrowserFetcher).
func NewRedBookParser(opts Options) *RedBookParser {
	opts = opts.withDefaults()
	fetcher := opts.Fetcher
	if fetcher == nil {
		fetcher = &HTTPFetcher{Client: opts.Client, Timeout: redBookPageTimeout}
	}
	return &RedBookParser{
		log:     opts.Logger.With("platform", redBookPlatform),
		fetcher: fetcher,
		ua:      NewUAPool(DesktopUserAgents, opts.Rand),
	}
}

func (p *RedBookParser) Name() string {
	return redBookPlatform
}

// ParseVideoID is not available: notes cannot be resolved from an ID alone
func (p *RedBookParser) ParseVideoID(ctx context.Context, id string) (*VideoInfo, error) {
	return nil, newError(KindUnsupportedOperation, redBookPlatform, "parse video id",
		"resolving a note by ID is not supported", nil)
}

// ParseShareURL fetches the note page and reads the embedded state
func (p *RedBookParser) ParseShareURL(ctx context.Context, shareText string) (*VideoInfo, error) {
	shareURL, ok := ExtractURL(shareText)
	if !ok {
		return nil, newError(KindNoURLFound, redBookPlatform, "extract url", "no URL found in share text", nil)
	}

	ua := p.ua.Pick()
	p.log.Debug("fetching note", "url", shareURL, "user_agent", ua)
	header := pageHeader(ua, redBookAcceptLanguage, map[string]string{
		"Sec-Fetch-Dest": "document",
		"Sec-Fetch-Mode": "navigate",
		"Sec-Fetch-Site": "none",
	})

	page, err := p.fetcher.FetchPage(ctx, shareURL, header)
	if err != nil {
		return nil, newError(KindHTTPFailure, redBookPlatform, "fetch page", shareURL, err)
	}
	if strings.TrimSpace(page.Body) == "" {
		return nil, newError(KindEmptyPageContent, redBookPlatform, "fetch page", "page content is empty", nil)
	}

	blob, marker, err := ExtractEmbedded(page.Body, redBookMarkers)
	if err != nil {
		return nil, withPlatform(err, redBookPlatform)
	}
	p.log.Debug("found embedded state", "marker", marker.Expr, "size", len(blob))

	root, err := DecodeBlob(blob)
	if err != nil {
		return nil, withPlatform(err, redBookPlatform)
	}

	info, err := parseRedBookState(root)
	if err != nil {
		return nil, err
	}
	p.log.Info("parsed share link", "title", info.Title, "gallery", info.IsGallery())
	return info, nil
}

func parseRedBookState(root map[string]any) (*VideoInfo, error) {
	structureErr := func(msg string, keys []string) error {
		e := newError(KindContentStructureChanged, redBookPlatform, "parse state", msg, nil)
		if len(keys) > 0 {
			e.Msg = fmt.Sprintf("%s (available: %s)", msg, strings.Join(keys, ", "))
		}
		return e
	}

	note, ok := P("note").Map(root)
	if !ok {
		return nil, structureErr("note not found", Keys(root))
	}

	noteID := P("currentNoteId").String(note)
	if noteID == "undefined" || strings.TrimSpace(noteID) == "" {
		return nil, newError(KindExpiredLink, redBookPlatform, "parse state",
			"note id is undefined, the share link has probably expired", nil)
	}

	detailMap, ok := P("noteDetailMap").Map(note)
	if !ok {
		return nil, structureErr("noteDetailMap not found", nil)
	}
	detail, ok := Path{noteID}.Map(detailMap)
	if !ok {
		return nil, structureErr("no detail for note "+noteID, nil)
	}
	n, ok := P("note").Map(detail)
	if !ok {
		return nil, structureErr("note detail is empty", Keys(detail))
	}

	info := &VideoInfo{
		VideoURL: P("video.media.stream.h264.0.masterUrl").String(n),
		Images:   []ImageInfo{},
	}

	imageList, _ := P("imageList").Slice(n)
	if info.VideoURL == "" {
		for _, item := range imageList {
			urlDefault := P("urlDefault").String(item)
			if strings.TrimSpace(urlDefault) == "" {
				continue
			}
			img := ImageInfo{URL: rewriteImageURL(urlDefault)}
			if live, ok := P("livePhoto").Lookup(item); ok && truthy(live) {
				img.LivePhotoURL = P("stream.h264.0.masterUrl").String(item)
			}
			info.Images = append(info.Images, img)
		}
	}
	if len(imageList) > 0 {
		info.CoverURL = P("urlDefault").String(imageList[0])
	}

	info.Title = P("title").String(n)
	if strings.TrimSpace(info.Title) == "" {
		info.Title = "redbook_" + noteID
	}
	info.Author = Author{
		UID:    P("user.userId").String(n),
		Name:   P("user.nickname").String(n),
		Avatar: P("user.avatar").String(n),
	}

	info.Status = StatusSuccess
	if info.VideoURL != "" {
		info.Description = "小红书视频: " + info.Title
		info.UsageTip = "已成功解析小红书视频信息"
	} else {
		info.Description = fmt.Sprintf("小红书图集: %s (共%d张图片)", info.Title, len(info.Images))
		info.UsageTip = fmt.Sprintf("已成功解析小红书图集信息，包含%d张图片", len(info.Images))
	}
	return info, nil
}

// rewriteImageURL maps a note image onto the watermark-free CDN, keeping
// the spectrum/ path component when the source has one
func rewriteImageURL(urlDefault string) string {
	imageID := urlDefault[strings.LastIndex(urlDefault, "/")+1:]
	imageID, _, _ = strings.Cut(imageID, "!")
	spectrum := ""
	if strings.Contains(urlDefault, "spectrum/") {
		spectrum = "spectrum/"
	}
	return fmt.Sprintf(redBookImageTemplate, spectrum, imageID)
}
