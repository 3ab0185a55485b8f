// Package config provides configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"image/color"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/user/lottiemp4/pkg/pipeline"
)

// Rasterizer backends.
const (
	RasterizerSVG        = "svg"
	RasterizerChrome     = "chrome"
	RasterizerPlaywright = "playwright"
)

// Config represents the full configuration for lottiemp4.
type Config struct {
	// Output
	Resolution      string `yaml:"resolution"`
	FPS             int    `yaml:"fps"`
	BackgroundColor string `yaml:"background_color"`

	// Encoding
	Codec      string `yaml:"codec"`
	FFmpegPath string `yaml:"ffmpeg_path"`

	// Rendering
	Rasterizer string `yaml:"rasterizer"`
	ChromePath string `yaml:"chrome_path"`

	// Logging
	LogLevel string `yaml:"log_level"`

	// Debug
	Debug    bool   `yaml:"debug"`
	DebugDir string `yaml:"debug_dir"`
}

// Defaults returns a Config with default values.
func Defaults() Config {
	return Config{
		Resolution:      string(pipeline.ResolutionFHD),
		FPS:             30,
		BackgroundColor: "#ffffff",

		Codec: string(pipeline.CodecH264),

		Rasterizer: RasterizerSVG,

		LogLevel: "info",

		DebugDir: "./debug",
	}
}

// LoadFromFile loads configuration from a YAML file.
// Keys missing from the file keep their default values.
func LoadFromFile(path string) (Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}

	return cfg, nil
}

// Validate checks enumerated fields.
func (c Config) Validate() error {
	var errs []error
	if _, err := pipeline.ParseResolution(c.Resolution); err != nil {
		errs = append(errs, err)
	}
	if c.FPS <= 0 {
		errs = append(errs, fmt.Errorf("fps must be positive, got %d", c.FPS))
	}
	if _, err := c.ParsedCodec(); err != nil {
		errs = append(errs, err)
	}
	switch c.Rasterizer {
	case RasterizerSVG, RasterizerChrome, RasterizerPlaywright:
	default:
		errs = append(errs, fmt.Errorf("unknown rasterizer %q (want svg, chrome or playwright)", c.Rasterizer))
	}
	if c.BackgroundColor != "" {
		if _, err := ParseColor(c.BackgroundColor); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// ParsedCodec returns the preferred codec.
func (c Config) ParsedCodec() (pipeline.Codec, error) {
	switch strings.ToLower(strings.TrimSpace(c.Codec)) {
	case "", "h264", "avc":
		return pipeline.CodecH264, nil
	case "av1":
		return pipeline.CodecAV1, nil
	default:
		return "", fmt.Errorf("unknown codec %q (want h264 or av1)", c.Codec)
	}
}

// Background returns the parsed background color, white when unset.
func (c Config) Background() color.Color {
	if c.BackgroundColor == "" {
		return color.White
	}
	bg, err := ParseColor(c.BackgroundColor)
	if err != nil {
		return color.White
	}
	return bg
}

// ToRequest converts Config to a pipeline.ConversionRequest.
func (c Config) ToRequest() (pipeline.ConversionRequest, error) {
	res, err := pipeline.ParseResolution(c.Resolution)
	if err != nil {
		return pipeline.ConversionRequest{}, err
	}
	if c.FPS <= 0 {
		return pipeline.ConversionRequest{}, fmt.Errorf("fps must be positive, got %d", c.FPS)
	}
	return pipeline.ConversionRequest{Resolution: res, FPS: c.FPS}, nil
}

// ParseColor parses a #rgb or #rrggbb hex color. The result is always opaque;
// an alpha component (#rrggbbaa) is accepted and ignored.
func ParseColor(hex string) (color.Color, error) {
	s := strings.TrimPrefix(strings.TrimSpace(hex), "#")
	switch len(s) {
	case 3:
		s = string([]byte{s[0], s[0], s[1], s[1], s[2], s[2]})
	case 6:
	case 8:
		s = s[:6]
	default:
		return nil, fmt.Errorf("invalid color %q", hex)
	}

	var rgb [3]uint8
	for i := range rgb {
		hi, ok1 := hexValue(s[i*2])
		lo, ok2 := hexValue(s[i*2+1])
		if !ok1 || !ok2 {
			return nil, fmt.Errorf("invalid color %q", hex)
		}
		rgb[i] = hi<<4 | lo
	}
	return color.RGBA{R: rgb[0], G: rgb[1], B: rgb[2], A: 255}, nil
}

func hexValue(c byte) (uint8, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	default:
		return 0, false
	}
}
