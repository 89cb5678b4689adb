package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"runtime/debug"
	"strings"
	"syscall"

	"github.com/cheggaaa/pb/v3"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/yuanying/epub2audiobook/internal/audio"
	"github.com/yuanying/epub2audiobook/internal/epub"
	"github.com/yuanying/epub2audiobook/internal/normalize"
	"github.com/yuanying/epub2audiobook/internal/session"
	"github.com/yuanying/epub2audiobook/internal/tts"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func init() {
	if version != "dev" {
		return
	}
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "(devel)" {
		version = info.Main.Version
	}
}

const (
	defaultOutputFormat    = "primary"
	defaultParallelWorkers = 0 // 0 means derive automatically via scheduler.WorkerCount
	defaultNewlineMode     = "double"
	defaultTitleMode       = "auto"
	defaultBreakString     = "\n\n"
)

// CLIOptions holds the parsed command-line configuration for one run.
type CLIOptions struct {
	OutputDir            string
	OutputFormat         string
	Voice                string
	Language             string
	ParallelWorkers      int
	TTSEndpoint          string
	TTSAPIKey            string
	TitleMode            string
	NewlineMode          string
	BreakString          string
	ApplyFootnoteCleanup bool
	DryRun               bool
	LogLevel             string
	LogFormat            string
	Verbose              bool
}

func normalizeLogLevel(level string, verbose bool) string {
	normalized := strings.ToLower(strings.TrimSpace(level))
	if normalized == "" {
		normalized = "info"
	}
	if verbose {
		return "debug"
	}
	return normalized
}

func validateCLIOptions(opts CLIOptions) error {
	switch strings.ToLower(strings.TrimSpace(opts.OutputFormat)) {
	case "primary", "alternate":
	default:
		return fmt.Errorf("invalid --format %q (expected primary/alternate)", opts.OutputFormat)
	}
	switch strings.ToLower(strings.TrimSpace(opts.TitleMode)) {
	case "auto", "tagtext", "firstfew":
	default:
		return fmt.Errorf("invalid --title-mode %q (expected auto/tagText/firstFew)", opts.TitleMode)
	}
	switch strings.ToLower(strings.TrimSpace(opts.NewlineMode)) {
	case "single", "double", "none":
	default:
		return fmt.Errorf("invalid --newline-mode %q (expected single/double/none)", opts.NewlineMode)
	}
	switch strings.ToLower(strings.TrimSpace(opts.LogLevel)) {
	case "error", "warn", "info", "debug":
	default:
		return fmt.Errorf("invalid --log-level %q (expected error/warn/info/debug)", opts.LogLevel)
	}
	switch strings.ToLower(strings.TrimSpace(opts.LogFormat)) {
	case "text", "json":
	default:
		return fmt.Errorf("invalid --log-format %q (expected text/json)", opts.LogFormat)
	}
	return nil
}

func parseSlogLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "error":
		return slog.LevelError
	case "warn":
		return slog.LevelWarn
	case "debug":
		return slog.LevelDebug
	default:
		return slog.LevelInfo
	}
}

func buildLogger(writer io.Writer, levelStr, format string) *slog.Logger {
	level := parseSlogLevel(levelStr)
	var handler slog.Handler
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "json":
		handler = slog.NewJSONHandler(writer, &slog.HandlerOptions{Level: level})
	default:
		handler = slog.NewTextHandler(writer, &slog.HandlerOptions{Level: level})
	}
	return slog.New(handler)
}

func titleModeFromString(s string) normalize.TitleMode {
	switch strings.ToLower(s) {
	case "tagtext":
		return normalize.TitleTagText
	case "firstfew":
		return normalize.TitleFirstFew
	default:
		return normalize.TitleAuto
	}
}

func newlineModeFromString(s string) normalize.NewlineMode {
	switch strings.ToLower(s) {
	case "single":
		return normalize.NewlineSingle
	case "none":
		return normalize.NewlineNone
	default:
		return normalize.NewlineDouble
	}
}

func readCLIOptions(cmd *cobra.Command) (CLIOptions, error) {
	outputDir, _ := cmd.Flags().GetString("output-dir")
	outputFormat, _ := cmd.Flags().GetString("format")
	voice, _ := cmd.Flags().GetString("voice")
	language, _ := cmd.Flags().GetString("language")
	parallelWorkers, _ := cmd.Flags().GetInt("parallel-workers")
	ttsEndpoint, _ := cmd.Flags().GetString("tts-endpoint")
	ttsAPIKey, _ := cmd.Flags().GetString("tts-api-key")
	titleMode, _ := cmd.Flags().GetString("title-mode")
	newlineMode, _ := cmd.Flags().GetString("newline-mode")
	breakString, _ := cmd.Flags().GetString("break-string")
	footnoteCleanup, _ := cmd.Flags().GetBool("footnote-cleanup")
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	logLevel, _ := cmd.Flags().GetString("log-level")
	logFormat, _ := cmd.Flags().GetString("log-format")
	verbose, _ := cmd.Flags().GetBool("verbose")

	opts := CLIOptions{
		OutputDir:            outputDir,
		OutputFormat:         outputFormat,
		Voice:                voice,
		Language:             language,
		ParallelWorkers:      parallelWorkers,
		TTSEndpoint:          ttsEndpoint,
		TTSAPIKey:            ttsAPIKey,
		TitleMode:            titleMode,
		NewlineMode:          newlineMode,
		BreakString:          breakString,
		ApplyFootnoteCleanup: footnoteCleanup,
		DryRun:               dryRun,
		LogLevel:             normalizeLogLevel(logLevel, verbose),
		LogFormat:            logFormat,
		Verbose:              verbose,
	}
	if err := validateCLIOptions(opts); err != nil {
		return CLIOptions{}, err
	}
	return opts, nil
}

func runConvert(epubPath string, opts CLIOptions, logger *slog.Logger) error {
	if opts.OutputDir == "" {
		opts.OutputDir = filepath.Dir(epubPath)
	}
	if err := os.MkdirAll(opts.OutputDir, 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	normCfg := normalize.Config{
		TitleMode:            titleModeFromString(opts.TitleMode),
		NewlineMode:          newlineModeFromString(opts.NewlineMode),
		BreakString:          opts.BreakString,
		ApplyFootnoteCleanup: opts.ApplyFootnoteCleanup,
	}

	ttsCfg := tts.Config{
		Voice:       opts.Voice,
		Language:    opts.Language,
		MaxParallel: opts.ParallelWorkers,
		Endpoint:    opts.TTSEndpoint,
		APIKey:      opts.TTSAPIKey,
	}

	if opts.DryRun {
		logger.Info("dry run: parsing and normalizing only, no synthesis or transcode")
		book, err := epub.Load(epubPath)
		if err != nil {
			return err
		}
		fmt.Printf("%s by %s, cover: %d bytes\n", book.Title, book.Author, len(book.Cover))
		for i, ch := range book.Chapters {
			text, err := normalize.Normalize(ch.HTML, normCfg)
			if err != nil {
				return err
			}
			fmt.Printf("%3d  %s  (%d characters)\n", i, normalize.ExtractTitle(ch.HTML, text, normCfg.TitleMode), len([]rune(text)))
		}
		return nil
	}

	sess, err := session.New(opts.OutputDir)
	if err != nil {
		return fmt.Errorf("creating conversion session: %w", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	go func() {
		<-ctx.Done()
		sess.Cancel()
	}()

	bar := pb.New(100)
	if tmpl, err := bar.SetTemplateString(`{{ green (cycle . "◐" "◓" "◑" "◒" ) }} {{string . "status"}} {{bar . }} {{percent . }}`); err == nil {
		bar = tmpl
	}
	bar.Start()
	defer bar.Finish()

	observer := session.ObserverFunc(func(p session.Progress) {
		bar.SetCurrent(int64(p.Fraction * 100))
		bar.Set("status", p.StatusText)
		if opts.Verbose {
			logger.Debug(p.StatusText, "state", p.State, "fraction", p.Fraction)
		}
	})

	runCfg := session.RunConfig{
		EPUBPath:      epubPath,
		OutputDir:     opts.OutputDir,
		OutputFormat:  opts.OutputFormat,
		Normalization: normCfg,
		TTS:           ttsCfg,
		NewAdapter: func() (tts.Adapter, error) {
			return tts.NewHTTPAdapter(ttsCfg), nil
		},
		Encoder: audio.NewFFmpegEncoder(opts.OutputFormat),
	}

	summary, err := session.Run(ctx, sess, runCfg, observer)
	if err != nil {
		color.Red("conversion failed: %v", err)
		logger.Error("conversion failed", "error", err, "session", sess.Dir)
		return err
	}

	color.Green("done: %s", summary.ContainerPath)
	logger.Info("conversion complete",
		"container", summary.ContainerPath,
		"sidecar", summary.SidecarPath,
		"chapters", summary.ChapterCount,
		"duration_seconds", summary.TotalDuration,
		"bisections", summary.TotalBisections,
	)
	for _, w := range summary.Warnings {
		color.Yellow("warning: %s", w)
	}
	return nil
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "epubcast",
		Version: version,
		Short:   "Convert an EPUB ebook into a narrated audiobook",
		Long: `epubcast converts a DRM-free EPUB archive into a narrated audiobook:
a single compressed audio container with embedded metadata and a
machine-readable chapter index, plus one intermediate audio file per
chapter, by driving spine-ordered text through a neural TTS voice.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := readCLIOptions(cmd)
			if err != nil {
				return err
			}
			logger := buildLogger(os.Stderr, opts.LogLevel, opts.LogFormat)
			return runConvert(args[0], opts, logger)
		},
	}

	cmd.SetVersionTemplate(fmt.Sprintf("epubcast %s (commit: %s, built: %s)\n", version, commit, date))
	cmd.SetErr(os.Stderr)
	cmd.Flags().StringP("output-dir", "o", "", "Output directory (default: input file's directory)")
	cmd.Flags().String("format", defaultOutputFormat, "Container format (primary/alternate)")
	cmd.Flags().String("voice", "", "TTS voice identifier")
	cmd.Flags().String("language", "en", "Language tag passed to the TTS adapter")
	cmd.Flags().Int("parallel-workers", defaultParallelWorkers, "Max parallel synthesis workers (0 = derive automatically)")
	cmd.Flags().String("tts-endpoint", "", "TTS adapter HTTP endpoint")
	cmd.Flags().String("tts-api-key", "", "TTS adapter API key")
	cmd.Flags().String("title-mode", defaultTitleMode, "Chapter title heuristic (auto/tagText/firstFew)")
	cmd.Flags().String("newline-mode", defaultNewlineMode, "Newline collapsing mode (single/double/none)")
	cmd.Flags().String("break-string", defaultBreakString, "String inserted where newlines collapse")
	cmd.Flags().Bool("footnote-cleanup", false, "Strip superscript/bracketed footnote references")
	cmd.Flags().Bool("dry-run", false, "Parse and normalize only; skip synthesis and transcode")
	cmd.Flags().StringP("log-level", "l", "info", "Log level (error/warn/info/debug)")
	cmd.Flags().String("log-format", "text", "Log output format (text/json)")
	cmd.Flags().BoolP("verbose", "v", false, "Enable verbose output")
	cmd.AddCommand(newCleanCmd())
	return cmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
