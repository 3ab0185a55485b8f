package main

import (
	"context"
	"fmt"
	"runtime"

	"github.com/ideamans/go-l10n"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/urfave/cli/v2"

	"github.com/user/lottiemp4/pkg/adapters/logger"
	"github.com/user/lottiemp4/pkg/adapters/smartencoder"
	"github.com/user/lottiemp4/pkg/config"
	"github.com/user/lottiemp4/pkg/ports"
	"github.com/user/lottiemp4/pkg/stages/negotiate"
	"github.com/user/lottiemp4/pkg/stages/plan"
	"github.com/user/lottiemp4/pkg/summarizer"
)

func probeCommand() *cli.Command {
	return &cli.Command{
		Name:  "probe",
		Usage: l10n.T("Check which encoder configuration this machine supports"),
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "resolution", Aliases: []string{"r"}, Value: "fhd", Usage: l10n.T("Output resolution (hd, fhd, uhd)")},
			&cli.IntFlag{Name: "fps", Value: 30, Usage: l10n.T("Output frame rate (30, 60, 120)")},
			&cli.StringFlag{Name: "codec", Value: "h264", Usage: l10n.T("Preferred codec (h264, av1)")},
			&cli.StringFlag{Name: "ffmpeg-path", Usage: l10n.T("Path to ffmpeg executable")},
			&cli.StringFlag{Name: "log-level", Aliases: []string{"l"}, Value: "warn", Usage: l10n.T("Log level (debug, info, warn, error)")},
		},
		Action: runProbe,
	}
}

func runProbe(c *cli.Context) error {
	cfg := config.Defaults()
	cfg.Resolution = c.String("resolution")
	cfg.FPS = c.Int("fps")
	cfg.Codec = c.String("codec")
	cfg.FFmpegPath = c.String("ffmpeg-path")
	if err := cfg.Validate(); err != nil {
		return err
	}
	req, err := cfg.ToRequest()
	if err != nil {
		return err
	}
	codec, err := cfg.ParsedCodec()
	if err != nil {
		return err
	}

	w := c.App.Writer
	log := logger.NewWriters(ports.ParseLogLevel(c.String("log-level")), w, c.App.ErrWriter)
	host := hostInfo(c.Context)
	fmt.Fprintf(w, "%-16s %s/%s, %d CPUs, %d MB\n", l10n.T("Host")+":", host.OS, host.Arch, host.CPUs, host.MemoryMB)
	if model := cpuModel(c.Context); model != "" {
		fmt.Fprintf(w, "%-16s %s\n", l10n.T("CPU")+":", model)
	}
	fmt.Fprintf(w, "%-16s %v\n", l10n.T("AV1 (libaom)")+":", smartencoder.IsAV1Available())

	dims := plan.ResolveDimensions(req.Resolution)
	probers := smartencoder.Probers(codec, smartencoder.Options{FFmpegPath: cfg.FFmpegPath, Logger: log})
	enc, err := negotiate.NewStage(log, probers...).Execute(c.Context, negotiate.Input{
		Resolution: req.Resolution,
		Dimensions: dims,
		FPS:        req.FPS,
	})
	if err != nil {
		return err
	}

	info := smartencoder.Describe(codec, enc)
	fmt.Fprintf(w, "%-16s %s@%d\n", l10n.T("Request")+":", dims, req.FPS)
	fmt.Fprintf(w, "%-16s %s (%s)\n", l10n.T("Codec")+":", enc.CodecString, info.Implementation)
	fmt.Fprintf(w, "%-16s %s, %s %s\n", l10n.T("Profile")+":", enc.Profile, l10n.T("level"), enc.Level)
	fmt.Fprintf(w, "%-16s %d kbps\n", l10n.T("Bitrate")+":", enc.Bitrate/1000)
	if info.FallbackUsed {
		fmt.Fprintln(w, l10n.F("%s is not available, %s will be used", info.RequestedCodec, info.Codec))
	}
	return nil
}

// hostInfo collects what the summary reports about this machine.
// Fields that cannot be read stay zero.
func hostInfo(ctx context.Context) summarizer.HostInfo {
	info := summarizer.HostInfo{OS: runtime.GOOS, Arch: runtime.GOARCH, CPUs: runtime.NumCPU()}
	if n, err := cpu.CountsWithContext(ctx, true); err == nil && n > 0 {
		info.CPUs = n
	}
	if vm, err := mem.VirtualMemoryWithContext(ctx); err == nil {
		info.MemoryMB = vm.Available / (1 << 20)
	}
	return info
}

func cpuModel(ctx context.Context) string {
	infos, err := cpu.InfoWithContext(ctx)
	if err != nil || len(infos) == 0 {
		return ""
	}
	return infos[0].ModelName
}
