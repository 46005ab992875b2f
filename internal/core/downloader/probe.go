package downloader

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-audio/wav"
	"github.com/hajimehoshi/go-mp3"
)

// AudioDuration reads the playing time of an mp3 or wav file with pure Go decoders
func AudioDuration(path string) (time.Duration, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".mp3":
		return mp3Duration(path)
	case ".wav":
		return wavDuration(path)
	default:
		return 0, fmt.Errorf("unsupported audio format: %s", filepath.Ext(path))
	}
}

func mp3Duration(path string) (time.Duration, error) {
	file, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer file.Close()

	decoder, err := mp3.NewDecoder(file)
	if err != nil {
		return 0, fmt.Errorf("failed to decode mp3: %w", err)
	}

	// Length is in bytes of 16-bit stereo PCM
	samples := decoder.Length() / 4
	if samples <= 0 || decoder.SampleRate() == 0 {
		return 0, fmt.Errorf("mp3 length unknown")
	}
	return time.Duration(samples) * time.Second / time.Duration(decoder.SampleRate()), nil
}

func wavDuration(path string) (time.Duration, error) {
	file, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer file.Close()

	decoder := wav.NewDecoder(file)
	if !decoder.IsValidFile() {
		return 0, fmt.Errorf("invalid WAV file")
	}
	if err := decoder.FwdToPCM(); err != nil {
		return 0, fmt.Errorf("failed to find WAV data chunk: %w", err)
	}

	bytesPerSec := int64(decoder.SampleRate) * int64(decoder.NumChans) * int64(decoder.BitDepth) / 8
	if bytesPerSec == 0 {
		return 0, fmt.Errorf("invalid WAV format")
	}
	return time.Duration(decoder.PCMLen()) * time.Second / time.Duration(bytesPerSec), nil
}
