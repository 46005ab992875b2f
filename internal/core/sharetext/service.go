// Package sharetext is the facade the CLI and HTTP server share: parsing
// share links, the Douyin download fast path, and media-to-text extraction.
package sharetext

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/guiyumin/sharetext/internal/core/ai"
	"github.com/guiyumin/sharetext/internal/core/ai/summarizer"
	"github.com/guiyumin/sharetext/internal/core/ai/transcriber"
	"github.com/guiyumin/sharetext/internal/core/config"
	"github.com/guiyumin/sharetext/internal/core/crypto"
	"github.com/guiyumin/sharetext/internal/core/downloader"
	"github.com/guiyumin/sharetext/internal/core/extractor"
	"github.com/guiyumin/sharetext/internal/core/i18n"
)

// APIKeyEnvVars are read in order when no key is passed explicitly.
// YBY6_API_KEY and DOUYIN_API_KEY are kept for older setups.
var APIKeyEnvVars = []string{"SHARETEXT_API_KEY", "YBY6_API_KEY", "DOUYIN_API_KEY"}

// PINEnvVar holds the PIN for API keys stored encrypted in the config file
const PINEnvVar = "SHARETEXT_PIN"

// TextDoneMessage is reported with every successful extraction
const TextDoneMessage = "文本提取完成"

// TextRequest asks for the spoken text of a shared video
type TextRequest struct {
	ShareText  string `json:"text"`
	APIKey     string `json:"api_key,omitempty"`
	APIBaseURL string `json:"api_base_url,omitempty"`
	Model      string `json:"model,omitempty"`
	Summarize  bool   `json:"summarize,omitempty"`

	// OnStage observes pipeline progress
	OnStage func(ai.Stage) `json:"-"`
}

// TextResult is the outcome of ExtractText
type TextResult struct {
	Text     string  `json:"text"`
	Title    string  `json:"title"`
	Message  string  `json:"message"`
	Language string  `json:"language,omitempty"`
	Duration float64 `json:"duration,omitempty"` // seconds
	Platform string  `json:"platform"`
	VideoURL string  `json:"video_url"`

	Summary      *summarizer.Result `json:"summary,omitempty"`
	SummaryError string             `json:"summary_error,omitempty"`

	// Transcript keeps segments for markdown output
	Transcript *transcriber.Result `json:"-"`
}

// PlatformSummary describes one entry of the platform table
type PlatformSummary struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Domains   []string `json:"domains"`
	Supported bool     `json:"supported"`
}

// Service wires configuration into parsers and the media pipeline
type Service struct {
	cfg        *config.Config
	logger     *slog.Logger
	parserOpts extractor.Options
	getenv     func(string) string
	downloader *downloader.Downloader
	transcoder downloader.Transcoder

	pin string

	newTranscriber func(config.ServiceConfig, string) (transcriber.Transcriber, error)
	newSummarizer  func(config.ServiceConfig, string) (summarizer.Summarizer, error)
}

// Option configures a Service
type Option func(*Service)

// WithLogger sets the logger for the service, its parsers and pipelines
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithParserOptions sets the collaborators handed to every parser
func WithParserOptions(opts extractor.Options) Option {
	return func(s *Service) { s.parserOpts = opts }
}

// WithGetenv replaces os.Getenv for credential lookup
func WithGetenv(fn func(string) string) Option {
	return func(s *Service) { s.getenv = fn }
}

// WithPIN sets the PIN for API keys stored encrypted; PINEnvVar is read otherwise
func WithPIN(pin string) Option {
	return func(s *Service) { s.pin = pin }
}

// WithDownloader sets the media downloader used by ExtractText
func WithDownloader(d *downloader.Downloader) Option {
	return func(s *Service) { s.downloader = d }
}

// WithTranscoder fixes the audio extractor instead of choosing one from config
func WithTranscoder(tc downloader.Transcoder) Option {
	return func(s *Service) { s.transcoder = tc }
}

// WithTranscriberFactory replaces transcriber.New
func WithTranscriberFactory(fn func(config.ServiceConfig, string) (transcriber.Transcriber, error)) Option {
	return func(s *Service) { s.newTranscriber = fn }
}

// WithSummarizerFactory replaces summarizer.New
func WithSummarizerFactory(fn func(config.ServiceConfig, string) (summarizer.Summarizer, error)) Option {
	return func(s *Service) { s.newSummarizer = fn }
}

// New creates a Service. A nil cfg means defaults.
func New(cfg *config.Config, opts ...Option) *Service {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	s := &Service{
		cfg:            cfg,
		logger:         slog.Default(),
		getenv:         os.Getenv,
		newTranscriber: transcriber.New,
		newSummarizer:  summarizer.New,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.parserOpts.Logger == nil {
		s.parserOpts.Logger = s.logger
	}
	if s.parserOpts.Fetcher == nil && cfg.RedBook.Browser {
		s.parserOpts.Fetcher = &extractor.BrowserFetcher{Visible: cfg.RedBook.Visible}
	}
	if s.downloader == nil {
		s.downloader = downloader.New(s.parserOpts.Client)
	}
	return s
}

// Config returns the configuration the service was built with
func (s *Service) Config() *config.Config {
	return s.cfg
}

// ParseShareURL detects the platform of the link in shareText and parses it
func (s *Service) ParseShareURL(ctx context.Context, shareText string) (*extractor.VideoInfo, error) {
	return extractor.ParseShareURL(ctx, shareText, s.parserOpts)
}

// ParseVideoID parses a platform-native ID; source is a platform identifier
func (s *Service) ParseVideoID(ctx context.Context, source, id string) (*extractor.VideoInfo, error) {
	return extractor.ParseVideoID(ctx, source, id, s.parserOpts)
}

// DouyinDownload returns a watermark-free download link. It never fails;
// problems are reported in the record's Status and Error.
func (s *Service) DouyinDownload(ctx context.Context, shareText string) *extractor.DouyinVideoInfo {
	return extractor.NewDouyinParser(s.parserOpts).Download(ctx, shareText)
}

// Platforms lists every known platform in detection order
func (s *Service) Platforms() []PlatformSummary {
	all := extractor.Platforms()
	out := make([]PlatformSummary, 0, len(all))
	for _, p := range all {
		out = append(out, PlatformSummary{
			ID:        p.ID,
			Name:      p.Name,
			Domains:   append([]string(nil), p.Domains...),
			Supported: p.Supported(),
		})
	}
	return out
}

// Guide returns the usage and text extraction guides in lang
func (s *Service) Guide(lang string) (usage, textExtraction string) {
	g := i18n.T(lang).Guide
	return g.Usage, g.TextExtraction
}

// ResolveAPIKey picks the transcription key: explicit value, then the
// environment, then the config file. The second result names the source.
// An empty key with a nil error means none is configured.
func (s *Service) ResolveAPIKey(explicit string) (string, string, error) {
	if k := strings.TrimSpace(explicit); k != "" {
		return k, "request", nil
	}
	for _, name := range APIKeyEnvVars {
		if k := strings.TrimSpace(s.getenv(name)); k != "" {
			return k, name, nil
		}
	}
	k, err := s.configKey(s.cfg.Transcription.APIKey)
	if err != nil || k == "" {
		return "", "", err
	}
	return k, "config", nil
}

// configKey returns a key from the config file, opening it with the PIN
// when it was stored encrypted
func (s *Service) configKey(value string) (string, error) {
	value = strings.TrimSpace(value)
	if !crypto.IsSealed(value) {
		return value, nil
	}

	pin := s.pin
	if pin == "" {
		pin = strings.TrimSpace(s.getenv(PINEnvVar))
	}
	if pin == "" {
		return "", &extractor.Error{
			Kind: extractor.KindMissingCredential,
			Op:   "unlock api key",
			Msg:  "the API key in the config file is encrypted; set " + PINEnvVar,
		}
	}

	key, err := crypto.Open(value, pin)
	if err != nil {
		return "", &extractor.Error{Kind: extractor.KindMissingCredential, Op: "unlock api key", Msg: "cannot decrypt the API key in the config file", Err: err}
	}
	return key, nil
}

// ExtractText parses the share link, downloads the video and transcribes
// its audio. Credentials are checked before any network request.
func (s *Service) ExtractText(ctx context.Context, req TextRequest) (*TextResult, error) {
	apiKey, source, err := s.ResolveAPIKey(req.APIKey)
	if err != nil {
		return nil, err
	}
	if apiKey == "" {
		return nil, &extractor.Error{
			Kind: extractor.KindMissingCredential,
			Op:   "extract text",
			Msg:  "no transcription API key; set SHARETEXT_API_KEY or pass one explicitly",
		}
	}
	s.logger.Debug("using transcription key", "source", source)

	tcfg := s.cfg.Transcription
	if req.APIBaseURL != "" {
		tcfg.BaseURL = req.APIBaseURL
	}
	if req.Model != "" {
		tcfg.Model = req.Model
	}
	tr, err := s.newTranscriber(tcfg, apiKey)
	if err != nil {
		return nil, &extractor.Error{Kind: extractor.KindInvalidInput, Op: "extract text", Msg: "bad transcription settings", Err: err}
	}

	var sum summarizer.Summarizer
	if req.Summarize {
		key, err := s.configKey(s.cfg.Summarization.APIKey)
		if err != nil {
			return nil, err
		}
		sum, err = s.newSummarizer(s.cfg.Summarization, key)
		if err != nil {
			return nil, &extractor.Error{Kind: extractor.KindInvalidInput, Op: "extract text", Msg: "bad summarization settings", Err: err}
		}
	}

	info, err := s.ParseShareURL(ctx, req.ShareText)
	if err != nil {
		return nil, err
	}
	if info.VideoURL == "" {
		return nil, &extractor.Error{
			Kind: extractor.KindInvalidInput,
			Op:   "extract text",
			Msg:  fmt.Sprintf("gallery post has no video to transcribe (%d images)", len(info.Images)),
		}
	}

	tc, err := s.audioTranscoder()
	if err != nil {
		return nil, &extractor.Error{Kind: extractor.KindTranscodeFailure, Op: "extract audio", Msg: "no audio extractor", Err: err}
	}

	opts := []ai.Option{
		ai.WithLogger(s.logger),
		ai.WithDownloader(s.downloader),
		ai.WithTempDir(s.cfg.TempDir),
		ai.WithAudioFormat(s.cfg.Transcode.Format),
	}
	if req.OnStage != nil {
		opts = append(opts, ai.WithStageHook(req.OnStage))
	}
	pipeline, err := ai.NewPipeline(tc, tr, opts...)
	if err != nil {
		return nil, err
	}
	defer pipeline.Dispose()

	transcript, err := pipeline.Run(ctx, info.VideoURL)
	if err != nil {
		return nil, err
	}

	result := &TextResult{
		Text:       transcript.Text,
		Title:      info.Title,
		Message:    TextDoneMessage,
		Language:   transcript.Language,
		Duration:   transcript.Duration.Seconds(),
		Platform:   platformOf(req.ShareText),
		VideoURL:   info.VideoURL,
		Transcript: transcript,
	}

	if sum != nil && strings.TrimSpace(transcript.Text) != "" {
		summary, err := sum.Summarize(ctx, transcript.Text)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return nil, err
			}
			s.logger.Warn("summarization failed", "provider", sum.Name(), "error", err)
			result.SummaryError = err.Error()
		} else {
			result.Summary = summary
		}
	}

	return result, nil
}

func (s *Service) audioTranscoder() (downloader.Transcoder, error) {
	if s.transcoder != nil {
		return s.transcoder, nil
	}
	return downloader.NewTranscoder(s.cfg.Transcode.Mode)
}

// platformOf reports the identifier of the platform the share text points at
func platformOf(shareText string) string {
	if u, ok := extractor.ExtractURL(shareText); ok {
		if p, ok := extractor.Detect(u); ok {
			return p.ID
		}
	}
	return ""
}
