// Package ai turns remote media into text: download, audio extraction,
// speech-to-text, and optional summarization.
package ai

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/guiyumin/sharetext/internal/core/ai/transcriber"
	"github.com/guiyumin/sharetext/internal/core/downloader"
	"github.com/guiyumin/sharetext/internal/core/extractor"
)

// Stage is the pipeline's current step
type Stage int

const (
	StageIdle Stage = iota
	StageDownloading
	StageAudioExtracting
	StageTranscribing
	StageDone
	StageFailed
)

func (s Stage) String() string {
	switch s {
	case StageIdle:
		return "idle"
	case StageDownloading:
		return "downloading"
	case StageAudioExtracting:
		return "audio_extracting"
	case StageTranscribing:
		return "transcribing"
	case StageDone:
		return "done"
	case StageFailed:
		return "failed"
	default:
		return fmt.Sprintf("stage(%d)", int(s))
	}
}

// Pipeline downloads media into a private temp dir, extracts a mono 16kHz
// mp3 (or wav) and sends it to a Transcriber. Intermediate files are removed after
// every run; Dispose removes the directory itself.
type Pipeline struct {
	downloader  *downloader.Downloader
	transcoder  downloader.Transcoder
	transcriber transcriber.Transcriber
	logger      *slog.Logger
	now         func() time.Time
	progress    downloader.ProgressFunc
	onStage     func(Stage)
	baseDir     string
	audioFormat string

	dir     string
	dispose sync.Once

	mu    sync.Mutex
	stage Stage
}

// Option configures a Pipeline
type Option func(*Pipeline)

// WithLogger sets the logger (default slog.Default())
func WithLogger(l *slog.Logger) Option {
	return func(p *Pipeline) { p.logger = l }
}

// WithDownloader replaces the default media downloader
func WithDownloader(d *downloader.Downloader) Option {
	return func(p *Pipeline) { p.downloader = d }
}

// WithClock sets the clock used to name intermediate files
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) { p.now = now }
}

// WithProgress reports download progress
func WithProgress(fn downloader.ProgressFunc) Option {
	return func(p *Pipeline) { p.progress = fn }
}

// WithStageHook is called on every stage change
func WithStageHook(fn func(Stage)) Option {
	return func(p *Pipeline) { p.onStage = fn }
}

// WithTempDir sets the parent of the per-pipeline directory (default os.TempDir())
func WithTempDir(dir string) Option {
	return func(p *Pipeline) { p.baseDir = dir }
}

// WithAudioFormat sets the extracted audio format, downloader.FormatMP3
// (default) or downloader.FormatWAV
func WithAudioFormat(format string) Option {
	return func(p *Pipeline) { p.audioFormat = strings.ToLower(format) }
}

// NewPipeline creates the pipeline and its temp dir. Call Dispose when done.
func NewPipeline(tc downloader.Transcoder, tr transcriber.Transcriber, opts ...Option) (*Pipeline, error) {
	if tc == nil || tr == nil {
		return nil, errors.New("pipeline needs a transcoder and a transcriber")
	}

	p := &Pipeline{
		transcoder:  tc,
		transcriber: tr,
		logger:      slog.Default(),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.downloader == nil {
		p.downloader = downloader.New(nil)
	}
	switch p.audioFormat {
	case "":
		p.audioFormat = downloader.FormatMP3
	case downloader.FormatMP3, downloader.FormatWAV:
	default:
		return nil, fmt.Errorf("unsupported audio format: %s", p.audioFormat)
	}

	dir, err := os.MkdirTemp(p.baseDir, "sharetext-"+uuid.New().String()+"-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp dir: %w", err)
	}
	p.dir = dir
	return p, nil
}

// Dir returns the pipeline's temp dir
func (p *Pipeline) Dir() string {
	return p.dir
}

// Stage reports the current stage
func (p *Pipeline) Stage() Stage {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stage
}

func (p *Pipeline) setStage(s Stage) {
	p.mu.Lock()
	prev := p.stage
	p.stage = s
	p.mu.Unlock()
	p.logger.Debug("pipeline stage", "from", prev.String(), "to", s.String())
	if p.onStage != nil {
		p.onStage(s)
	}
}

// Run downloads mediaURL and returns its transcript. The downloaded media
// and the extracted audio are removed before Run returns, whatever the outcome.
func (p *Pipeline) Run(ctx context.Context, mediaURL string) (*transcriber.Result, error) {
	if strings.TrimSpace(mediaURL) == "" {
		return nil, &extractor.Error{Kind: extractor.KindInvalidInput, Op: "pipeline", Msg: "media URL is empty"}
	}

	stamp := p.now().UnixMilli()
	mediaPath := filepath.Join(p.dir, fmt.Sprintf("video_%d.mp4", stamp))
	audioPath := filepath.Join(p.dir, fmt.Sprintf("audio_%d.%s", stamp, p.audioFormat))
	defer p.cleanup(mediaPath, audioPath)

	result, err := p.run(ctx, mediaURL, mediaPath, audioPath)
	if err != nil {
		p.setStage(StageFailed)
		return nil, err
	}
	p.setStage(StageDone)
	return result, nil
}

func (p *Pipeline) run(ctx context.Context, mediaURL, mediaPath, audioPath string) (*transcriber.Result, error) {
	p.setStage(StageDownloading)
	n, err := p.downloader.Download(ctx, mediaURL, mediaPath, p.progress)
	if err != nil {
		return nil, &extractor.Error{Kind: extractor.KindDownloadFailure, Op: "download", Msg: "failed to download media", Err: err}
	}
	p.logger.Debug("media downloaded", "bytes", n, "path", mediaPath)

	p.setStage(StageAudioExtracting)
	if err := p.transcoder.Transcode(ctx, mediaPath, audioPath); err != nil {
		return nil, &extractor.Error{
			Kind: extractor.KindTranscodeFailure,
			Op:   "extract audio",
			Msg:  p.transcoder.Name() + " failed",
			Err:  err,
		}
	}

	duration, err := downloader.AudioDuration(audioPath)
	if err != nil {
		p.logger.Debug("could not probe audio duration", "error", err)
	}

	p.setStage(StageTranscribing)
	result, err := p.transcriber.Transcribe(ctx, audioPath)
	if err != nil {
		return nil, &extractor.Error{
			Kind: extractor.KindTranscriptionAPIFailure,
			Op:   "transcribe",
			Msg:  p.transcriber.Name() + " transcription failed",
			Err:  err,
		}
	}
	if result.Duration == 0 {
		result.Duration = duration
	}
	return result, nil
}

// cleanup removes intermediate files; failures are only logged
func (p *Pipeline) cleanup(paths ...string) {
	for _, path := range paths {
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			p.logger.Warn("failed to remove temp file", "path", path, "error", err)
		}
	}
}

// Dispose removes the temp dir. It is safe to call more than once.
func (p *Pipeline) Dispose() {
	p.dispose.Do(func() {
		if err := os.RemoveAll(p.dir); err != nil {
			p.logger.Warn("failed to remove temp dir", "path", p.dir, "error", err)
		}
	})
}
