package config

import (
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/user/lottiemp4/pkg/pipeline"
)

func TestDefaults(t *testing.T) {
	cfg := Defaults()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults must be valid: %v", err)
	}
	req, err := cfg.ToRequest()
	if err != nil {
		t.Fatalf("ToRequest failed: %v", err)
	}
	if req.Resolution != pipeline.ResolutionFHD || req.FPS != 30 {
		t.Errorf("unexpected default request %+v", req)
	}
	if cfg.Rasterizer != RasterizerSVG {
		t.Errorf("expected svg rasterizer by default, got %q", cfg.Rasterizer)
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lottiemp4.yaml")
	data := `resolution: uhd
fps: 60
codec: av1
rasterizer: chrome
chrome_path: /opt/chrome/chrome
`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile failed: %v", err)
	}
	if cfg.Resolution != "uhd" || cfg.FPS != 60 || cfg.Codec != "av1" {
		t.Errorf("file values not applied: %+v", cfg)
	}
	if cfg.Rasterizer != RasterizerChrome || cfg.ChromePath != "/opt/chrome/chrome" {
		t.Errorf("rasterizer settings not applied: %+v", cfg)
	}
	// untouched keys keep defaults
	if cfg.BackgroundColor != "#ffffff" || cfg.LogLevel != "info" || cfg.DebugDir != "./debug" {
		t.Errorf("defaults lost: %+v", cfg)
	}

	codec, err := cfg.ParsedCodec()
	if err != nil || codec != pipeline.CodecAV1 {
		t.Errorf("expected av1, got %q (%v)", codec, err)
	}
}

func TestLoadFromFile_Errors(t *testing.T) {
	if _, err := LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected an error for a missing file")
	}

	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("fps: [1, 2"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFromFile(path); err == nil {
		t.Error("expected a parse error")
	}
}

func TestValidate(t *testing.T) {
	cfg := Defaults()
	cfg.Resolution = "8k"
	cfg.FPS = 0
	cfg.Codec = "vp9"
	cfg.Rasterizer = "cairo"
	cfg.BackgroundColor = "blue"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation errors")
	}
	for _, want := range []string{"8k", "fps", "vp9", "cairo", "blue"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %q", err, want)
		}
	}
}

func TestToRequest_Aliases(t *testing.T) {
	tests := []struct {
		in   string
		want pipeline.Resolution
	}{
		{"720p", pipeline.ResolutionHD},
		{"1080p", pipeline.ResolutionFHD},
		{"4k", pipeline.ResolutionUHD},
	}
	for _, tt := range tests {
		cfg := Defaults()
		cfg.Resolution = tt.in
		req, err := cfg.ToRequest()
		if err != nil {
			t.Fatalf("%s: %v", tt.in, err)
		}
		if req.Resolution != tt.want {
			t.Errorf("%s: expected %s, got %s", tt.in, tt.want, req.Resolution)
		}
	}
}

func TestParseColor(t *testing.T) {
	tests := []struct {
		in   string
		want color.RGBA
	}{
		{"#ffffff", color.RGBA{255, 255, 255, 255}},
		{"1a1a2e", color.RGBA{0x1a, 0x1a, 0x2e, 255}},
		{"#F0A", color.RGBA{0xff, 0x00, 0xaa, 255}},
		{"#00000000", color.RGBA{0, 0, 0, 255}},
	}
	for _, tt := range tests {
		got, err := ParseColor(tt.in)
		if err != nil {
			t.Fatalf("%s: %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("%s: expected %v, got %v", tt.in, tt.want, got)
		}
	}

	for _, bad := range []string{"", "#12", "#gggggg", "white"} {
		if _, err := ParseColor(bad); err == nil {
			t.Errorf("%q: expected an error", bad)
		}
	}
}

func TestBackground(t *testing.T) {
	cfg := Defaults()
	cfg.BackgroundColor = ""
	if cfg.Background() != color.White {
		t.Error("expected white for an unset background")
	}
	cfg.BackgroundColor = "#000"
	if cfg.Background() != (color.RGBA{0, 0, 0, 255}) {
		t.Errorf("unexpected background %v", cfg.Background())
	}
}
