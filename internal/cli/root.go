package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/fatih/color"
	"github.com/guiyumin/sharetext/internal/core/config"
	"github.com/guiyumin/sharetext/internal/core/extractor"
	"github.com/guiyumin/sharetext/internal/core/i18n"
	"github.com/guiyumin/sharetext/internal/core/sharetext"
	"github.com/guiyumin/sharetext/internal/core/version"
	"github.com/spf13/cobra"
)

var (
	jsonOutput bool
	verbose    bool
	langFlag   string
	visible    bool
	pinFlag    string

	// set in PersistentPreRunE
	cfg    *config.Config
	logger = slog.Default()
)

var rootCmd = &cobra.Command{
	Use:   "sharetext [share text]",
	Short: "Parse short-video share links and extract the spoken text",
	Long: `Parse Douyin and RedBook share links into video, cover, author and image
information, and turn shared videos into text with a speech-to-text service.

Examples:
  sharetext "7.43 复制打开抖音，看看【作品】 https://v.douyin.com/iRNBho5m/"
  sharetext text https://v.douyin.com/iRNBho5m/
  sharetext douyin https://v.douyin.com/iRNBho5m/ --save`,
	Version:       version.Version,
	Args:          cobra.ArbitraryArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg = config.LoadOrDefault()
		if langFlag != "" {
			cfg.Language = langFlag
		}
		if visible {
			cfg.RedBook.Visible = true
		}
		setupLogging(cfg.LogLevel, cmd != serveCmd)
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			return cmd.Help()
		}
		return runParse(cmd, strings.Join(args, " "))
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "print results as JSON")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	rootCmd.PersistentFlags().StringVar(&langFlag, "lang", "", "message language (zh, en)")
	rootCmd.PersistentFlags().StringVar(&pinFlag, "pin", "", "PIN for encrypted API keys (default: $SHARETEXT_PIN)")
	rootCmd.PersistentFlags().BoolVar(&visible, "visible", false, "show the browser window when rendering RedBook pages")
}

// Execute runs the command tree and prints a localized error on failure
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	if err != nil {
		printError(err)
	}
	return err
}

// setupLogging builds the library logger. Interactive commands stay at warn
// unless debug is requested; serve honours log_level as written.
func setupLogging(level string, interactive bool) {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	if interactive && lvl < slog.LevelWarn && lvl != slog.LevelDebug {
		lvl = slog.LevelWarn
	}
	if verbose {
		lvl = slog.LevelDebug
	}
	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}

func newService() *sharetext.Service {
	opts := []sharetext.Option{sharetext.WithLogger(logger)}
	if pinFlag != "" {
		opts = append(opts, sharetext.WithPIN(pinFlag))
	}
	return sharetext.New(cfg, opts...)
}

func lang() string {
	if cfg == nil || cfg.Language == "" {
		return "zh"
	}
	return cfg.Language
}

func printError(err error) {
	if errors.Is(err, context.Canceled) {
		return
	}
	red := color.New(color.FgRed)
	if kind := extractor.KindOf(err); kind != "" {
		red.Fprintf(os.Stderr, "✗ %s\n", i18n.T(lang()).ErrorMessage(kind))
		fmt.Fprintf(os.Stderr, "  %v\n", err)
		return
	}
	red.Fprintf(os.Stderr, "Error: %v\n", err)
}

func runParse(cmd *cobra.Command, shareText string) error {
	svc := newService()
	t := i18n.T(lang())

	var info *extractor.VideoInfo
	err := runTask(cmd, t.Pipeline.Parsing, func(ctx context.Context, setLabel func(string)) error {
		var err error
		info, err = svc.ParseShareURL(ctx, shareText)
		return err
	})
	if err != nil {
		return err
	}

	if jsonOutput {
		return printJSON(cmd.OutOrStdout(), info)
	}
	printVideoInfo(cmd.OutOrStdout(), info, platformName(shareText), t)
	return nil
}

func platformName(shareText string) string {
	if u, ok := extractor.ExtractURL(shareText); ok {
		if p, ok := extractor.Detect(u); ok {
			return p.Name
		}
	}
	return ""
}
