package main

import (
	"bytes"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/urfave/cli/v2"

	"github.com/user/lottiemp4/pkg/config"
	"github.com/user/lottiemp4/pkg/inspect"
	"github.com/user/lottiemp4/pkg/lottie/lottietest"
	"github.com/user/lottiemp4/pkg/pipeline"
)

func TestVersion(t *testing.T) {
	var out bytes.Buffer
	if err := newApp(&out, &out).Run([]string{"lottiemp4", "--version"}); err != nil {
		t.Fatalf("--version failed: %v", err)
	}
	if !strings.Contains(out.String(), "lottiemp4") || !strings.Contains(out.String(), version) {
		t.Errorf("unexpected version output: %q", out.String())
	}
}

func TestConvert_RequiresInput(t *testing.T) {
	var out bytes.Buffer
	err := newApp(&out, &out).Run([]string{"lottiemp4", "convert", "-o", filepath.Join(t.TempDir(), "out.mp4")})
	if err == nil {
		t.Fatal("expected an error without an input file")
	}
}

func TestConvert_RejectsInvalidDuration(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "empty-range.json")
	doc := `{"v":"5.7.4","fr":30,"ip":15,"op":15,"w":64,"h":64,"layers":[]}`
	if err := os.WriteFile(input, []byte(doc), 0644); err != nil {
		t.Fatal(err)
	}
	output := filepath.Join(dir, "out.mp4")

	var out bytes.Buffer
	err := newApp(&out, &out).Run([]string{"lottiemp4", "convert", "-q", "-o", output, input})
	if !errors.Is(err, pipeline.ErrInvalidDuration) {
		t.Fatalf("expected ErrInvalidDuration, got %v", err)
	}
	if _, statErr := os.Stat(output); !os.IsNotExist(statErr) {
		t.Error("no output file may be written on failure")
	}
}

// captureConfig runs loadConfig inside a throwaway app so flag parsing matches convert.
func captureConfig(t *testing.T, args ...string) (config.Config, error) {
	t.Helper()
	var cfg config.Config
	var loadErr error
	cmd := convertCommand()
	cmd.Action = func(c *cli.Context) error {
		cfg, loadErr = loadConfig(c)
		return nil
	}
	app := &cli.App{Name: "lottiemp4", Commands: []*cli.Command{cmd}, Writer: &bytes.Buffer{}, ErrWriter: &bytes.Buffer{}}
	if err := app.Run(append([]string{"lottiemp4", "convert", "-o", "out.mp4"}, args...)); err != nil {
		t.Fatalf("app failed: %v", err)
	}
	return cfg, loadErr
}

func TestLoadConfig_FlagsOverrideFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.yaml")
	if err := os.WriteFile(path, []byte("resolution: hd\nfps: 60\nrasterizer: chrome\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := captureConfig(t, "--config", path, "--fps", "120", "--background", "#000", "in.json")
	if err != nil {
		t.Fatalf("loadConfig failed: %v", err)
	}
	if cfg.Resolution != "hd" {
		t.Errorf("expected resolution from file, got %q", cfg.Resolution)
	}
	if cfg.FPS != 120 {
		t.Errorf("expected fps flag to win, got %d", cfg.FPS)
	}
	if cfg.Rasterizer != config.RasterizerChrome {
		t.Errorf("expected rasterizer from file, got %q", cfg.Rasterizer)
	}
	if cfg.BackgroundColor != "#000" {
		t.Errorf("expected background flag, got %q", cfg.BackgroundColor)
	}
}

func TestLoadConfig_Invalid(t *testing.T) {
	if _, err := captureConfig(t, "--rasterizer", "cairo", "in.json"); err == nil {
		t.Error("expected a validation error")
	}
}

func TestInspect_NotMP4(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bogus.mp4")
	if err := os.WriteFile(path, []byte("not a video"), 0644); err != nil {
		t.Fatal(err)
	}
	var out bytes.Buffer
	if err := newApp(&out, &out).Run([]string{"lottiemp4", "inspect", path}); err == nil {
		t.Error("expected an error for a non-MP4 file")
	}
}

func TestPrintError_Hint(t *testing.T) {
	var out bytes.Buffer
	printError(&out, errors.Join(pipeline.ErrEncodingUnsupported, errors.New("ffmpeg missing")))
	if lines := strings.Count(out.String(), "\n"); lines < 2 {
		t.Errorf("expected the error and a hint, got %q", out.String())
	}
}

// TestConvert_EndToEnd needs ffmpeg with an H.264 encoder.
func TestConvert_EndToEnd(t *testing.T) {
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		t.Skip("ffmpeg not found")
	}

	dir := t.TempDir()
	input := filepath.Join(dir, "square.json")
	if err := os.WriteFile(input, []byte(lottietest.SquareJSON), 0644); err != nil {
		t.Fatal(err)
	}
	output := filepath.Join(dir, "square.mp4")
	summary := filepath.Join(dir, "summary.md")

	var out bytes.Buffer
	err := newApp(&out, &out).Run([]string{"lottiemp4", "convert", "-q",
		"--resolution", "hd", "--fps", "30", "--summary", summary, "-o", output, input})
	if err != nil {
		t.Fatalf("convert failed: %v\n%s", err, out.String())
	}

	rep, err := inspect.File(output)
	if err != nil {
		t.Fatalf("inspect failed: %v", err)
	}
	if rep.Width != 1280 || rep.Height != 720 {
		t.Errorf("expected 1280x720, got %dx%d", rep.Width, rep.Height)
	}
	if rep.SampleCount() == 0 || rep.KeyframeIndices()[0] != 0 {
		t.Errorf("unexpected samples: %d, keyframes %v", rep.SampleCount(), rep.KeyframeIndices())
	}

	md, err := os.ReadFile(summary)
	if err != nil {
		t.Fatalf("summary not written: %v", err)
	}
	if !strings.Contains(string(md), "1280x720") {
		t.Errorf("summary lacks output dimensions:\n%s", md)
	}
}
