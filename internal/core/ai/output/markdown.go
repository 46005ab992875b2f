// Package output renders transcripts and summaries as markdown.
package output

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/guiyumin/sharetext/internal/core/ai/summarizer"
	"github.com/guiyumin/sharetext/internal/core/ai/transcriber"
)

// Document is one share link's extracted text
type Document struct {
	Title      string
	SourceURL  string
	Platform   string
	Transcript *transcriber.Result
	Summary    *summarizer.Result // optional
	CreatedAt  time.Time
}

// Render formats doc as markdown.
func Render(doc Document) string {
	var b strings.Builder

	title := doc.Title
	if title == "" {
		title = "Transcript"
	}
	fmt.Fprintf(&b, "# %s\n\n", title)

	if doc.Platform != "" {
		fmt.Fprintf(&b, "**Platform:** %s\n", doc.Platform)
	}
	if doc.SourceURL != "" {
		fmt.Fprintf(&b, "**Source:** %s\n", doc.SourceURL)
	}
	if t := doc.Transcript; t != nil {
		if t.Duration > 0 {
			fmt.Fprintf(&b, "**Duration:** %s\n", formatDuration(t.Duration))
		}
		if t.Language != "" {
			fmt.Fprintf(&b, "**Language:** %s\n", t.Language)
		}
	}
	if !doc.CreatedAt.IsZero() {
		fmt.Fprintf(&b, "**Transcribed:** %s\n", doc.CreatedAt.Format("2006-01-02 15:04:05"))
	}
	b.WriteString("\n---\n\n")

	if s := doc.Summary; s != nil {
		b.WriteString("## Summary\n\n")
		b.WriteString(strings.TrimSpace(s.Summary))
		b.WriteString("\n\n")
		if len(s.KeyPoints) > 0 {
			b.WriteString("## Key Points\n\n")
			for _, point := range s.KeyPoints {
				fmt.Fprintf(&b, "- %s\n", point)
			}
			b.WriteString("\n")
		}
	}

	b.WriteString("## Transcript\n\n")
	if t := doc.Transcript; t != nil {
		if len(t.Segments) > 0 {
			for _, seg := range t.Segments {
				text := strings.TrimSpace(seg.Text)
				if text != "" {
					fmt.Fprintf(&b, "[%s] %s\n\n", formatTimestamp(seg.Start), text)
				}
			}
		} else {
			b.WriteString(strings.TrimSpace(t.Text))
			b.WriteString("\n")
		}
	}

	return b.String()
}

// Write renders doc to path, creating its directory.
func Write(path string, doc Document) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	return os.WriteFile(path, []byte(Render(doc)), 0644)
}

// formatTimestamp formats a duration as MM:SS, or HH:MM:SS past an hour.
func formatTimestamp(d time.Duration) string {
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60

	if hours > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, seconds)
	}
	return fmt.Sprintf("%02d:%02d", minutes, seconds)
}

// formatDuration formats a duration in human-readable form.
func formatDuration(d time.Duration) string {
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60

	if hours > 0 {
		return fmt.Sprintf("%dh %dm %ds", hours, minutes, seconds)
	}
	if minutes > 0 {
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	}
	return fmt.Sprintf("%ds", seconds)
}
