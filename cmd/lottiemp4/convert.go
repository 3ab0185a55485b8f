package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/ideamans/go-l10n"
	"github.com/mattn/go-isatty"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/urfave/cli/v2"

	"github.com/user/lottiemp4/pkg/adapters/chromeraster"
	"github.com/user/lottiemp4/pkg/adapters/filesink"
	"github.com/user/lottiemp4/pkg/adapters/ggrenderer"
	"github.com/user/lottiemp4/pkg/adapters/logger"
	"github.com/user/lottiemp4/pkg/adapters/nullsink"
	"github.com/user/lottiemp4/pkg/adapters/osfilesystem"
	"github.com/user/lottiemp4/pkg/adapters/playwrightraster"
	"github.com/user/lottiemp4/pkg/adapters/smartencoder"
	"github.com/user/lottiemp4/pkg/adapters/svgraster"
	"github.com/user/lottiemp4/pkg/config"
	"github.com/user/lottiemp4/pkg/framepool"
	"github.com/user/lottiemp4/pkg/inspect"
	"github.com/user/lottiemp4/pkg/lottie"
	"github.com/user/lottiemp4/pkg/orchestrator"
	"github.com/user/lottiemp4/pkg/pipeline"
	"github.com/user/lottiemp4/pkg/ports"
	"github.com/user/lottiemp4/pkg/progress"
	"github.com/user/lottiemp4/pkg/summarizer"
)

// uhdMemoryFloorMB is the available memory below which a UHD conversion gets a warning.
const uhdMemoryFloorMB = 2048

func convertCommand() *cli.Command {
	return &cli.Command{
		Name:      "convert",
		Usage:     l10n.T("Convert a Lottie JSON file to MP4"),
		ArgsUsage: "INPUT.json",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Required: true, Usage: l10n.T("Output MP4 file path (required)"), Category: l10n.T("Output")},
			&cli.StringFlag{Name: "summary", Usage: l10n.T("Output conversion summary to file (Markdown format)"), Category: l10n.T("Output")},

			&cli.StringFlag{Name: "resolution", Aliases: []string{"r"}, Usage: l10n.T("Output resolution (hd, fhd, uhd)"), Category: l10n.T("Video")},
			&cli.IntFlag{Name: "fps", Usage: l10n.T("Output frame rate (30, 60, 120)"), Category: l10n.T("Video")},
			&cli.StringFlag{Name: "codec", Usage: l10n.T("Preferred codec (h264, av1)"), Category: l10n.T("Video")},
			&cli.StringFlag{Name: "background", Usage: l10n.T("Background color (hex, e.g., #ffffff)"), Category: l10n.T("Video")},
			&cli.StringFlag{Name: "ffmpeg-path", Usage: l10n.T("Path to ffmpeg executable"), Category: l10n.T("Video")},

			&cli.StringFlag{Name: "rasterizer", Usage: l10n.T("Rasterizer backend (svg, chrome, playwright)"), Category: l10n.T("Rendering")},
			&cli.StringFlag{Name: "chrome-path", Usage: l10n.T("Path to Chrome executable"), Category: l10n.T("Rendering")},
			&cli.BoolFlag{Name: "install-browsers", Usage: l10n.T("Download Playwright browsers when missing"), Category: l10n.T("Rendering")},

			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: l10n.T("YAML configuration file"), Category: l10n.T("Configuration")},

			&cli.BoolFlag{Name: "debug", Aliases: []string{"d"}, Usage: l10n.T("Enable debug output"), Category: l10n.T("Debug")},
			&cli.StringFlag{Name: "debug-dir", Usage: l10n.T("Directory for debug output"), Category: l10n.T("Debug")},

			&cli.StringFlag{Name: "log-level", Aliases: []string{"l"}, Usage: l10n.T("Log level (debug, info, warn, error)"), Category: l10n.T("Logging")},
			&cli.BoolFlag{Name: "quiet", Aliases: []string{"q"}, Usage: l10n.T("Suppress all log output"), Category: l10n.T("Logging")},
		},
		Action: runConvert,
	}
}

// loadConfig merges defaults, the optional config file and explicit flags.
func loadConfig(c *cli.Context) (config.Config, error) {
	cfg := config.Defaults()
	if path := c.String("config"); path != "" {
		loaded, err := config.LoadFromFile(path)
		if err != nil {
			return cfg, err
		}
		cfg = loaded
	}

	if c.IsSet("resolution") {
		cfg.Resolution = c.String("resolution")
	}
	if c.IsSet("fps") {
		cfg.FPS = c.Int("fps")
	}
	if c.IsSet("codec") {
		cfg.Codec = c.String("codec")
	}
	if c.IsSet("background") {
		cfg.BackgroundColor = c.String("background")
	}
	if c.IsSet("ffmpeg-path") {
		cfg.FFmpegPath = c.String("ffmpeg-path")
	}
	if c.IsSet("rasterizer") {
		cfg.Rasterizer = c.String("rasterizer")
	}
	if c.IsSet("chrome-path") {
		cfg.ChromePath = c.String("chrome-path")
	}
	if c.IsSet("log-level") {
		cfg.LogLevel = c.String("log-level")
	}
	if c.Bool("debug") {
		cfg.Debug = true
	}
	if c.IsSet("debug-dir") {
		cfg.DebugDir = c.String("debug-dir")
	}

	return cfg, cfg.Validate()
}

func newLogger(c *cli.Context, cfg config.Config) ports.Logger {
	if c.Bool("quiet") {
		return logger.NewNoop()
	}
	return logger.NewWriters(ports.ParseLogLevel(cfg.LogLevel), c.App.Writer, c.App.ErrWriter)
}

func newRasterizer(c *cli.Context, cfg config.Config, renderer ports.Renderer, pool *framepool.Pool, log ports.Logger) ports.Rasterizer {
	switch cfg.Rasterizer {
	case config.RasterizerChrome:
		return chromeraster.New(chromeraster.Options{ChromePath: cfg.ChromePath, Renderer: renderer, Logger: log})
	case config.RasterizerPlaywright:
		return playwrightraster.New(playwrightraster.Options{
			ChromePath:      cfg.ChromePath,
			InstallBrowsers: c.Bool("install-browsers"),
			Renderer:        renderer,
			Logger:          log,
		})
	default:
		return svgraster.New(pool, log)
	}
}

func runConvert(c *cli.Context) error {
	if c.NArg() != 1 {
		return errors.New(l10n.T("exactly one input file is required"))
	}
	input := c.Args().First()
	output := c.String("output")

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	log := newLogger(c, cfg)
	ctx := c.Context

	req, err := cfg.ToRequest()
	if err != nil {
		return err
	}
	codec, err := cfg.ParsedCodec()
	if err != nil {
		return err
	}

	fs := osfilesystem.New()
	data, err := fs.ReadFile(input)
	if err != nil {
		return fmt.Errorf("read input: %w", err)
	}
	doc, err := lottie.Parse(data)
	if err != nil {
		return err
	}

	if req.Resolution == pipeline.ResolutionUHD {
		warnLowMemory(ctx, log, req.Resolution)
	}

	renderer := ggrenderer.New()
	pool := framepool.New()

	var sink ports.DebugSink = nullsink.New()
	if cfg.Debug {
		run := filesink.NewRun(cfg.DebugDir, fs, renderer)
		log.Info("Debug output: %s", run.Dir())
		sink = run
	}

	encOpts := smartencoder.Options{FFmpegPath: cfg.FFmpegPath, Logger: log}
	orch := orchestrator.New(orchestrator.Options{
		Rasterizer: newRasterizer(c, cfg, renderer, pool, log),
		Probers:    smartencoder.Probers(codec, encOpts),
		NewEncoder: func(ec pipeline.EncoderConfig) (ports.VideoEncoder, error) {
			return smartencoder.NewEncoder(ec, encOpts)
		},
		Renderer:   renderer,
		Pool:       pool,
		Sink:       sink,
		Logger:     log,
		Background: cfg.Background(),
	})

	var reporter ports.ProgressReporter = progress.Discard
	if !c.Bool("quiet") && isTerminal(c.App.ErrWriter) {
		reporter = newProgressLine(c.App.ErrWriter)
	}

	began := time.Now()
	result, err := orch.Convert(ctx, doc, req, reporter)
	if err != nil {
		return err
	}

	if err := fs.WriteFile(output, result.VideoData); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	log.Info("Output saved to %s", output)

	if path := c.String("summary"); path != "" {
		s := buildSummary(ctx, input, doc, cfg, req, codec, result, output, time.Since(began))
		formatter := summarizer.NewMarkdownFormatter(
			summarizer.WithTranslator(l10n.T),
			summarizer.WithVersion(version),
		)
		if err := summarizer.NewWriter(formatter, fs).Write(path, s); err != nil {
			log.Warn("Failed to write summary: %v", err)
		} else {
			log.Info("Summary saved to %s", path)
		}
	}
	return nil
}

func buildSummary(ctx context.Context, input string, doc *lottie.Document, cfg config.Config, req pipeline.ConversionRequest,
	codec pipeline.Codec, result pipeline.ConversionResult, output string, elapsed time.Duration) *summarizer.Summary {
	keyframes := 0
	if rep, err := inspect.Bytes(result.VideoData); err == nil {
		keyframes = len(rep.KeyframeIndices())
	}
	info := smartencoder.Describe(codec, result.Encoder)
	enc := result.Encoder
	enc.Implementation = info.Implementation

	name := doc.Name
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	}

	return summarizer.NewBuilder().
		WithRunID(result.RunID).
		WithSource(summarizer.SourceInfo{
			Path:      input,
			Name:      name,
			Width:     doc.Width,
			Height:    doc.Height,
			FrameRate: doc.FrameRate,
			InPoint:   doc.InPoint,
			OutPoint:  doc.OutPoint,
		}).
		WithSettings(summarizer.Settings{
			Resolution:     string(req.Resolution),
			FPS:            req.FPS,
			RequestedCodec: string(codec),
			Rasterizer:     cfg.Rasterizer,
			Background:     cfg.BackgroundColor,
		}).
		WithEncoder(enc, info.FallbackUsed).
		WithResult(result, output).
		WithKeyframes(keyframes).
		WithHost(hostInfo(ctx)).
		WithElapsed(elapsed).
		Build()
}

// warnLowMemory warns when the host looks too small for the requested resolution.
func warnLowMemory(ctx context.Context, log ports.Logger, res pipeline.Resolution) {
	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return
	}
	if availMB := vm.Available / (1 << 20); availMB < uhdMemoryFloorMB {
		log.Warn("Only %d MB of memory available for a %s conversion", availMB, strings.ToUpper(string(res)))
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()))
}

// progressLine redraws a single status line on a terminal.
type progressLine struct {
	mu  sync.Mutex
	out io.Writer
}

func newProgressLine(out io.Writer) *progressLine {
	return &progressLine{out: out}
}

func (p *progressLine) Report(e pipeline.ProgressEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.out, "\r\033[K[%3d%%] %s", e.Percent, l10n.T(e.Message))
	if e.Percent >= 100 {
		fmt.Fprintln(p.out)
	}
}
