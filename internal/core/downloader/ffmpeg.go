package downloader

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"codeberg.org/gruf/go-ffmpreg/ffmpreg"
	"codeberg.org/gruf/go-ffmpreg/wasm"
	"github.com/tetratelabs/wazero"
)

// Transcoder modes accepted by NewTranscoder
const (
	ModeAuto   = "auto"
	ModeNative = "native"
	ModeWASM   = "wasm"
)

// Audio formats a Transcoder can produce, chosen by the output extension
const (
	FormatMP3 = "mp3"
	FormatWAV = "wav"
)

// Transcoder extracts a speech-ready audio track from a media file
type Transcoder interface {
	Transcode(ctx context.Context, input, output string) error
	Name() string
}

// FFmpegAvailable checks if ffmpeg is installed and available in PATH
func FFmpegAvailable() bool {
	_, err := exec.LookPath("ffmpeg")
	return err == nil
}

// NewTranscoder picks an implementation for mode. In auto mode the system
// ffmpeg is preferred and the embedded WASM build is the fallback.
func NewTranscoder(mode string) (Transcoder, error) {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "", ModeAuto:
		if FFmpegAvailable() {
			return &NativeTranscoder{}, nil
		}
		return &WASMTranscoder{}, nil
	case ModeNative:
		if !FFmpegAvailable() {
			return nil, fmt.Errorf("ffmpeg not found in PATH")
		}
		return &NativeTranscoder{}, nil
	case ModeWASM:
		return &WASMTranscoder{}, nil
	default:
		return nil, fmt.Errorf("unknown transcode mode: %s", mode)
	}
}

// AudioArgs are the ffmpeg arguments producing mono 16kHz audio: ~128kbps
// MP3 by default, 16-bit PCM when output ends in .wav
func AudioArgs(input, output string) []string {
	args := []string{"-i", input, "-vn", "-ac", "1", "-ar", "16000"}
	if strings.EqualFold(filepath.Ext(output), "."+FormatWAV) {
		args = append(args, "-c:a", "pcm_s16le")
	} else {
		args = append(args, "-b:a", "128k", "-c:a", "libmp3lame")
	}
	return append(args, "-y", output)
}

// NativeTranscoder runs the ffmpeg binary from PATH (or Binary when set)
type NativeTranscoder struct {
	Binary string
}

func (t *NativeTranscoder) Name() string {
	return "ffmpeg"
}

func (t *NativeTranscoder) Transcode(ctx context.Context, input, output string) error {
	bin := t.Binary
	if bin == "" {
		bin = "ffmpeg"
	}

	if _, err := os.Stat(input); err != nil {
		log.Printf("[ffmpeg] ERROR: input file not found: %s", input)
		return fmt.Errorf("input file not found: %w", err)
	}

	args := AudioArgs(input, output)
	log.Printf("[ffmpeg] command: %s %s", bin, strings.Join(args, " "))

	cmd := exec.CommandContext(ctx, bin, args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		log.Printf("[ffmpeg] ERROR: audio extraction failed: %v", err)
		log.Printf("[ffmpeg] output:\n%s", string(out))
		return fmt.Errorf("ffmpeg failed: %w\nOutput: %s", err, tail(out, 2048))
	}

	return checkOutput(output)
}

// WASMTranscoder runs the ffmpeg build embedded in go-ffmpreg on wazero,
// so hosts without ffmpeg installed can still extract audio
type WASMTranscoder struct{}

func (t *WASMTranscoder) Name() string {
	return "ffmpeg-wasm"
}

func (t *WASMTranscoder) Transcode(ctx context.Context, input, output string) error {
	absInput, err := filepath.Abs(input)
	if err != nil {
		return err
	}
	absOutput, err := filepath.Abs(output)
	if err != nil {
		return err
	}
	if _, err := os.Stat(absInput); err != nil {
		return fmt.Errorf("input file not found: %w", err)
	}

	inputDir := filepath.Dir(absInput)
	outputDir := filepath.Dir(absOutput)

	var stderr bytes.Buffer
	args := wasm.Args{
		Stderr: &stderr,
		Stdout: &bytes.Buffer{},
		Args:   AudioArgs(absInput, absOutput),
		Config: func(cfg wazero.ModuleConfig) wazero.ModuleConfig {
			fs := wazero.NewFSConfig().WithDirMount(inputDir, inputDir)
			if outputDir != inputDir {
				fs = fs.WithDirMount(outputDir, outputDir)
			}
			return cfg.WithFSConfig(fs)
		},
	}
	log.Printf("[ffmpeg] wasm command: ffmpeg %s", strings.Join(args.Args, " "))

	rc, err := ffmpreg.Ffmpeg(ctx, args)
	if err != nil {
		return fmt.Errorf("ffmpeg failed: %w", err)
	}
	if rc != 0 {
		log.Printf("[ffmpeg] output:\n%s", stderr.String())
		return fmt.Errorf("ffmpeg exited with code %d: %s", rc, tail(stderr.Bytes(), 2048))
	}

	return checkOutput(absOutput)
}

func checkOutput(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		log.Printf("[ffmpeg] ERROR: output file not created: %s", path)
		return fmt.Errorf("output file not created: %w", err)
	}
	if info.Size() == 0 {
		return fmt.Errorf("output file is empty: %s", path)
	}
	log.Printf("[ffmpeg] output file: %s (%d bytes)", path, info.Size())
	return nil
}

// tail keeps the last n bytes of tool output for error messages
func tail(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return "..." + string(b[len(b)-n:])
}
