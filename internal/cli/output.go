package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/guiyumin/sharetext/internal/core/downloader"
	"github.com/guiyumin/sharetext/internal/core/extractor"
	"github.com/guiyumin/sharetext/internal/core/i18n"
	"github.com/guiyumin/sharetext/internal/core/sharetext"
	"github.com/mattn/go-runewidth"
)

const (
	labelWidth = 10
	titleWidth = 60
	nameWidth  = 16
)

var (
	bold   = color.New(color.Bold)
	green  = color.New(color.FgGreen)
	yellow = color.New(color.FgYellow)
	cyan   = color.New(color.FgCyan)
	faint  = color.New(color.Faint)
)

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// field prints "  Label:    value", padding CJK labels by display width
func field(w io.Writer, label, value string) {
	if value == "" {
		return
	}
	fmt.Fprintf(w, "  %s %s\n", runewidth.FillRight(label+":", labelWidth), value)
}

func statusMark(status string) string {
	switch status {
	case extractor.StatusSuccess:
		return green.Sprint("✓")
	case extractor.StatusDegraded:
		return yellow.Sprint("!")
	default:
		return color.RedString("✗")
	}
}

func printVideoInfo(w io.Writer, info *extractor.VideoInfo, platform string, t *i18n.Translations) {
	fmt.Fprintf(w, "\n  %s %s %s\n\n", statusMark(info.Status), bold.Sprint(platform), faint.Sprintf("(%s)", info.Status))

	field(w, t.Parse.Title, runewidth.Truncate(info.Title, titleWidth, "…"))
	if info.Author.Name != "" || info.Author.UID != "" {
		author := info.Author.Name
		if info.Author.UID != "" {
			author += faint.Sprintf(" (%s)", info.Author.UID)
		}
		field(w, t.Parse.Author, strings.TrimSpace(author))
	}
	field(w, t.Parse.Video, cyan.Sprint(info.VideoURL))
	field(w, t.Parse.Cover, info.CoverURL)
	field(w, t.Parse.Music, info.MusicURL)

	if len(info.Images) > 0 {
		fmt.Fprintf(w, "  %s (%d):\n", t.Parse.Images, len(info.Images))
		for i, img := range info.Images {
			fmt.Fprintf(w, "    [%d] %s\n", i+1, img.URL)
			if img.LivePhotoURL != "" {
				fmt.Fprintf(w, "        %s: %s\n", t.Parse.LivePhoto, img.LivePhotoURL)
			}
		}
	}

	if info.UsageTip != "" {
		fmt.Fprintf(w, "\n  %s\n", faint.Sprint(info.UsageTip))
	}
	fmt.Fprintln(w)
}

func printDouyinRecord(w io.Writer, r *extractor.DouyinVideoInfo, t *i18n.Translations) {
	fmt.Fprintf(w, "\n  %s %s\n\n", statusMark(r.Status), bold.Sprint(r.VideoID))
	if r.Status == extractor.StatusError {
		field(w, "Error", r.Error)
	}
	field(w, t.Parse.Title, runewidth.Truncate(r.Title, titleWidth, "…"))
	field(w, t.Parse.Video, cyan.Sprint(r.DownloadURL))
	if r.UsageTip != "" {
		fmt.Fprintf(w, "\n  %s\n", faint.Sprint(r.UsageTip))
	}
	fmt.Fprintln(w)
}

func printTextResult(w io.Writer, r *sharetext.TextResult, t *i18n.Translations) {
	fmt.Fprintf(w, "\n  %s %s\n\n", green.Sprint("✓"), r.Message)
	field(w, t.Parse.Platform, r.Platform)
	field(w, t.Parse.Title, runewidth.Truncate(r.Title, titleWidth, "…"))
	if r.Duration > 0 {
		field(w, "Duration", downloader.FormatDuration(time.Duration(r.Duration*float64(time.Second))))
	}

	if r.Summary != nil {
		fmt.Fprintf(w, "\n  %s\n", bold.Sprint(t.Parse.Summary))
		fmt.Fprintf(w, "  %s\n", r.Summary.Summary)
		for _, p := range r.Summary.KeyPoints {
			fmt.Fprintf(w, "    • %s\n", p)
		}
	} else if r.SummaryError != "" {
		fmt.Fprintf(w, "\n  %s %s\n", yellow.Sprint("!"), r.SummaryError)
	}

	fmt.Fprintf(w, "\n  %s\n", bold.Sprint(t.Parse.Transcript))
	fmt.Fprintln(w, strings.TrimSpace(r.Text))
}

func printPlatforms(w io.Writer, list []sharetext.PlatformSummary, t *i18n.Translations) {
	fmt.Fprintf(w, "  %s %s %s\n",
		bold.Sprint(runewidth.FillRight("ID", nameWidth)),
		bold.Sprint(runewidth.FillRight(t.Parse.Platform, nameWidth)),
		bold.Sprint("Domains"))

	for _, p := range list {
		name := runewidth.FillRight(p.Name, nameWidth)
		if p.Supported {
			name = green.Sprint(name)
		} else {
			name = faint.Sprint(name)
		}
		fmt.Fprintf(w, "  %s %s %s\n", runewidth.FillRight(p.ID, nameWidth), name, strings.Join(p.Domains, ", "))
	}

	fmt.Fprintf(w, "\n  %s %s   %s %s\n",
		green.Sprint("■"), t.Parse.Supported,
		faint.Sprint("■"), t.Parse.Unsupported)
}
