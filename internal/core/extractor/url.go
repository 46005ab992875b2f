package extractor

import (
	"regexp"
	"strings"
)

var urlRegex = regexp.MustCompile(`https?://[\w.-]+(?:\.[\w.-]+)*(?::\d+)?(?:/[^\s]*)?`)

// ExtractURL returns the first http(s) URL found in free-form share text.
// Text without a URL is a normal outcome, not an error.
func ExtractURL(text string) (string, bool) {
	if strings.TrimSpace(text) == "" {
		return "", false
	}
	u := urlRegex.FindString(text)
	if u == "" {
		return "", false
	}
	return u, true
}

// douyinURLRegex only matches Douyin share and canonical links
var douyinURLRegex = regexp.MustCompile(`https?://(?:v\.douyin\.com/[A-Za-z0-9]+/?|www\.douyin\.com/(?:video|note)/[0-9]+|www\.iesdouyin\.com/share/(?:video|note)/[0-9]+|[a-zA-Z0-9.-]+\.douyin\.com/[^\s]*)`)

// ExtractDouyinURL is the Douyin-only variant of ExtractURL used by the download fast path
func ExtractDouyinURL(text string) (string, bool) {
	u := douyinURLRegex.FindString(text)
	return u, u != ""
}
