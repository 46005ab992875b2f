package extractor

import (
	"regexp"
	"strings"
)

// Status values carried by parsed records
const (
	StatusSuccess  = "success"
	StatusError    = "error"
	StatusDegraded = "degraded"
)

// VideoInfo is the canonical record produced by every parser.
// A post is either a video (VideoURL set) or a gallery (Images set).
type VideoInfo struct {
	VideoURL    string      `json:"video_url"`
	CoverURL    string      `json:"cover_url"`
	Title       string      `json:"title"`
	MusicURL    string      `json:"music_url,omitempty"`
	Images      []ImageInfo `json:"images"`
	Author      Author      `json:"author"`
	Description string      `json:"description"`
	Status      string      `json:"status"`
	UsageTip    string      `json:"usage_tip"`
}

// IsGallery reports whether the record describes an image post
func (v *VideoInfo) IsGallery() bool {
	return v.VideoURL == "" && len(v.Images) > 0
}

// ImageInfo is a single gallery image. LivePhotoURL is only set for
// platforms that attach a short motion clip to a still.
type ImageInfo struct {
	URL          string `json:"url"`
	LivePhotoURL string `json:"live_photo_url,omitempty"`
}

// Author fields default to "" so serialized records keep a stable shape.
type Author struct {
	UID    string `json:"uid"`
	Name   string `json:"name"`
	Avatar string `json:"avatar"`
}

// DouyinVideoInfo is the narrower record returned by the Douyin download fast path
type DouyinVideoInfo struct {
	VideoID     string `json:"video_id"`
	Title       string `json:"title"`
	DownloadURL string `json:"download_url"`
	Description string `json:"description"`
	Status      string `json:"status"`
	Error       string `json:"error,omitempty"`
	UsageTip    string `json:"usage_tip"`
}

var titleReplacer = strings.NewReplacer(
	`\`, "_",
	"/", "_",
	":", "_",
	"*", "_",
	"?", "_",
	`"`, "_",
	"<", "_",
	">", "_",
	"|", "_",
)

// SanitizeTitle replaces each of \ / : * ? " < > | with an underscore.
// Nothing else is touched, so the operation is idempotent.
func SanitizeTitle(title string) string {
	return titleReplacer.Replace(title)
}

var spaceRegex = regexp.MustCompile(`\s+`)

// SanitizeFilename turns a title into something usable as a file name:
// illegal characters replaced, whitespace collapsed, length capped.
func SanitizeFilename(name string) string {
	result := SanitizeTitle(name)
	result = spaceRegex.ReplaceAllString(result, " ")
	result = strings.Trim(strings.TrimSpace(result), ".")

	// 60 runes keeps CJK titles (3-4 bytes each) well under the 255 byte limit
	const maxRunes = 60
	runes := []rune(result)
	if len(runes) > maxRunes {
		result = string(runes[:maxRunes])
	}

	return strings.TrimSpace(result)
}
