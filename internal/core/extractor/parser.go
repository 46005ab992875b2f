package extractor

import (
	"context"
	"log/slog"
	"math/rand"
	"net/http"
	"time"
)

// Parser turns a share link, or a platform-native ID, into a VideoInfo
type Parser interface {
	// ParseShareURL accepts a bare URL or prose that contains one
	ParseShareURL(ctx context.Context, shareText string) (*VideoInfo, error)

	// ParseVideoID resolves a platform-native ID. Platforms without a
	// stable ID endpoint return a KindUnsupportedOperation error.
	ParseVideoID(ctx context.Context, id string) (*VideoInfo, error)

	// Name returns the platform identifier (e.g., "douyin")
	Name() string
}

// Options holds the collaborators a parser uses. Zero values fall back to defaults.
type Options struct {
	// Client is used for every page request unless Fetcher is set
	Client *http.Client

	// Fetcher overrides how RedBook pages are loaded (e.g., BrowserFetcher)
	Fetcher PageFetcher

	Logger *slog.Logger

	// Rand drives user-agent selection; tests pass a seeded source
	Rand *rand.Rand

	// Now is used to build fallback video IDs
	Now func() time.Time

	// DouyinPageBase is the canonical page prefix the video ID is appended to
	DouyinPageBase string
}

const defaultDouyinPageBase = "https://www.iesdouyin.com/share/video/"

func (o Options) withDefaults() Options {
	if o.Client == nil {
		o.Client = &http.Client{}
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	if o.Rand == nil {
		o.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	if o.DouyinPageBase == "" {
		o.DouyinPageBase = defaultDouyinPageBase
	}
	return o
}
