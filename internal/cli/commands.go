package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/guiyumin/sharetext/internal/core/ai"
	"github.com/guiyumin/sharetext/internal/core/ai/output"
	"github.com/guiyumin/sharetext/internal/core/downloader"
	"github.com/guiyumin/sharetext/internal/core/extractor"
	"github.com/guiyumin/sharetext/internal/core/i18n"
	"github.com/guiyumin/sharetext/internal/core/sharetext"
	"github.com/spf13/cobra"
)

var idCmd = &cobra.Command{
	Use:     "id <platform> <video id>",
	Short:   "Parse a video by platform and native ID",
	Example: `  sharetext id douyin 7234567890123`,
	Args:    cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc := newService()
		t := i18n.T(lang())

		var info *extractor.VideoInfo
		err := runTask(cmd, t.Pipeline.Parsing, func(ctx context.Context, _ func(string)) error {
			var err error
			info, err = svc.ParseVideoID(ctx, args[0], args[1])
			return err
		})
		if err != nil {
			return err
		}

		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), info)
		}
		name := args[0]
		if p, ok := extractor.LookupPlatform(args[0]); ok {
			name = p.Name
		}
		printVideoInfo(cmd.OutOrStdout(), info, name, t)
		return nil
	},
}

var (
	textAPIKey     string
	textAPIBaseURL string
	textModel      string
	textSummarize  bool
	textOutput     string
)

var textCmd = &cobra.Command{
	Use:   "text <share text>",
	Short: "Extract the spoken text of a shared video",
	Long: `Download the shared video, extract its audio and send it to a
speech-to-text service.

The API key is taken from --api-key, then SHARETEXT_API_KEY (YBY6_API_KEY and
DOUYIN_API_KEY are also read), then transcription.api_key in the config file.`,
	Example: `  sharetext text https://v.douyin.com/iRNBho5m/
  sharetext text https://v.douyin.com/iRNBho5m/ --summarize -o note.md`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc := newService()
		t := i18n.T(lang())
		shareText := strings.Join(args, " ")

		var result *sharetext.TextResult
		err := runTask(cmd, t.Pipeline.Parsing, func(ctx context.Context, setLabel func(string)) error {
			var err error
			result, err = svc.ExtractText(ctx, sharetext.TextRequest{
				ShareText:  shareText,
				APIKey:     textAPIKey,
				APIBaseURL: textAPIBaseURL,
				Model:      textModel,
				Summarize:  textSummarize,
				OnStage: func(s ai.Stage) {
					setLabel(stageLabel(t, s, textSummarize))
				},
			})
			return err
		})
		if err != nil {
			return err
		}

		if textOutput != "" {
			doc := output.Document{
				Title:      result.Title,
				SourceURL:  shareText,
				Platform:   result.Platform,
				Transcript: result.Transcript,
				Summary:    result.Summary,
				CreatedAt:  time.Now(),
			}
			if u, ok := extractor.ExtractURL(shareText); ok {
				doc.SourceURL = u
			}
			if err := output.Write(textOutput, doc); err != nil {
				return fmt.Errorf("failed to write %s: %w", textOutput, err)
			}
		}

		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), result)
		}
		printTextResult(cmd.OutOrStdout(), result, t)
		if textOutput != "" {
			fmt.Fprintf(cmd.OutOrStdout(), "\n  %s: %s\n", t.Parse.Saved, textOutput)
		}
		return nil
	},
}

// stageLabel maps a pipeline stage to the spinner text
func stageLabel(t *i18n.Translations, s ai.Stage, summarize bool) string {
	switch s {
	case ai.StageDownloading:
		return t.Pipeline.Downloading
	case ai.StageAudioExtracting:
		return t.Pipeline.AudioExtracting
	case ai.StageTranscribing:
		return t.Pipeline.Transcribing
	case ai.StageDone:
		if summarize {
			return t.Pipeline.Summarizing
		}
		return t.Pipeline.Done
	case ai.StageFailed:
		return t.Pipeline.Failed
	default:
		return t.Pipeline.Parsing
	}
}

var douyinSave string

var douyinCmd = &cobra.Command{
	Use:   "douyin <share text>",
	Short: "Get a watermark-free Douyin download link",
	Example: `  sharetext douyin https://v.douyin.com/iRNBho5m/
  sharetext douyin https://v.douyin.com/iRNBho5m/ --save=videos/`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc := newService()
		t := i18n.T(lang())

		var record *extractor.DouyinVideoInfo
		err := runTask(cmd, t.Pipeline.Parsing, func(ctx context.Context, _ func(string)) error {
			record = svc.DouyinDownload(ctx, strings.Join(args, " "))
			return nil
		})
		if err != nil {
			return err
		}

		if jsonOutput {
			if err := printJSON(cmd.OutOrStdout(), record); err != nil {
				return err
			}
		} else {
			printDouyinRecord(cmd.OutOrStdout(), record, t)
		}

		if record.Status != extractor.StatusSuccess {
			return fmt.Errorf("%s", record.Error)
		}
		if !cmd.Flags().Changed("save") {
			return nil
		}

		path := saveTarget(douyinSave, record)
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return fmt.Errorf("failed to create %s: %w", dir, err)
			}
		}
		return downloader.RunDownloadTUI(cmd.Context(), downloader.New(nil), record.DownloadURL, path, record.Title, lang())
	},
}

// saveTarget resolves --save: a directory (or empty) gets "<title>.mp4"
func saveTarget(flag string, record *extractor.DouyinVideoInfo) string {
	name := extractor.SanitizeFilename(record.Title)
	if name == "" {
		name = record.VideoID
	}
	name += ".mp4"

	if flag == "" || flag == "." {
		return name
	}
	if strings.HasSuffix(flag, "/") || filepath.Ext(flag) == "" {
		return filepath.Join(flag, name)
	}
	return flag
}

var platformsCmd = &cobra.Command{
	Use:   "platforms",
	Short: "List recognized platforms",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		list := newService().Platforms()
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), list)
		}
		printPlatforms(cmd.OutOrStdout(), list, i18n.T(lang()))
		return nil
	},
}

var guideCmd = &cobra.Command{
	Use:   "guide",
	Short: "Show the usage guide",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		usage, text := newService().Guide(lang())
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), map[string]string{
				"usage":           usage,
				"text_extraction": text,
			})
		}
		bold := color.New(color.Bold)
		bold.Fprintln(cmd.OutOrStdout(), strings.TrimSpace(usage))
		fmt.Fprintln(cmd.OutOrStdout())
		fmt.Fprintln(cmd.OutOrStdout(), strings.TrimSpace(text))
		return nil
	},
}

func init() {
	textCmd.Flags().StringVar(&textAPIKey, "api-key", "", "speech-to-text API key")
	textCmd.Flags().StringVar(&textAPIBaseURL, "api-base-url", "", "transcription endpoint (default: SiliconFlow)")
	textCmd.Flags().StringVar(&textModel, "model", "", "transcription model (default: FunAudioLLM/SenseVoiceSmall)")
	textCmd.Flags().BoolVar(&textSummarize, "summarize", false, "summarize the transcript (needs summarization settings)")
	textCmd.Flags().StringVarP(&textOutput, "output", "o", "", "write the transcript as markdown")

	douyinCmd.Flags().StringVar(&douyinSave, "save", "", "download the video; --save=PATH picks a file or directory")
	douyinCmd.Flags().Lookup("save").NoOptDefVal = "."

	rootCmd.AddCommand(idCmd, textCmd, douyinCmd, platformsCmd, guideCmd)
}
