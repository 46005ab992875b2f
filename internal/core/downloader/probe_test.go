package downloader

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

func writeTestWAV(t *testing.T, path string, sampleRate, samples int) {
	t.Helper()
	file, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer file.Close()

	encoder := wav.NewEncoder(file, sampleRate, 16, 1, 1)
	buf := &audio.IntBuffer{
		Data:           make([]int, samples),
		Format:         &audio.Format{SampleRate: sampleRate, NumChannels: 1},
		SourceBitDepth: 16,
	}
	if err := encoder.Write(buf); err != nil {
		t.Fatal(err)
	}
	if err := encoder.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestAudioDurationWAV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audio.wav")
	writeTestWAV(t, path, 16000, 32000)

	d, err := AudioDuration(path)
	if err != nil {
		t.Fatalf("AudioDuration error: %v", err)
	}
	if d != 2*time.Second {
		t.Errorf("duration = %v, want 2s", d)
	}
}

// writeTestMP3 writes silent MPEG-1 Layer III frames at 128kbps,
// 44.1kHz mono. A zeroed side info decodes to silence.
func writeTestMP3(t *testing.T, path string, frames int) {
	t.Helper()
	const frameSize = 144 * 128000 / 44100
	frame := make([]byte, frameSize)
	copy(frame, []byte{0xFF, 0xFB, 0x90, 0xC4})

	data := make([]byte, 0, frames*frameSize)
	for i := 0; i < frames; i++ {
		data = append(data, frame...)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestAudioDurationMP3(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audio.mp3")
	writeTestMP3(t, path, 100)

	d, err := AudioDuration(path)
	if err != nil {
		t.Fatalf("AudioDuration error: %v", err)
	}
	// 1152 samples per frame
	want := time.Duration(100*1152) * time.Second / 44100
	if d != want {
		t.Errorf("duration = %v, want %v", d, want)
	}

	garbage := filepath.Join(t.TempDir(), "bad.mp3")
	if err := os.WriteFile(garbage, []byte("not an mp3"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := AudioDuration(garbage); err == nil {
		t.Error("expected error for invalid mp3")
	}
}

func TestAudioDurationErrors(t *testing.T) {
	dir := t.TempDir()

	if _, err := AudioDuration(filepath.Join(dir, "audio.ogg")); err == nil {
		t.Error("expected error for unsupported format")
	}

	garbage := filepath.Join(dir, "bad.wav")
	if err := os.WriteFile(garbage, []byte("not a wav file at all"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := AudioDuration(garbage); err == nil {
		t.Error("expected error for invalid wav")
	}

	if _, err := AudioDuration(filepath.Join(dir, "missing.mp3")); err == nil {
		t.Error("expected error for missing file")
	}
}
