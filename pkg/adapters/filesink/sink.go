// Package filesink provides a file-based debug sink implementation.
package filesink

import (
	"fmt"
	"image"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/user/lottiemp4/pkg/ports"
)

// Sink saves debug output to files under a base directory:
//
//	plan.json
//	encoder.json
//	frames/svg/frame-0000.svg
//	frames/png/frame-0000.png
type Sink struct {
	baseDir  string
	fs       ports.FileSystem
	renderer ports.Renderer
}

// New creates a sink writing into baseDir.
func New(baseDir string, fs ports.FileSystem, renderer ports.Renderer) *Sink {
	return &Sink{
		baseDir:  baseDir,
		fs:       fs,
		renderer: renderer,
	}
}

// NewRun creates a sink writing into a fresh, uniquely named subdirectory of root,
// so repeated conversions never overwrite each other's output.
func NewRun(root string, fs ports.FileSystem, renderer ports.Renderer) *Sink {
	return New(filepath.Join(root, uuid.NewString()), fs, renderer)
}

// Dir returns the directory the sink writes into.
func (s *Sink) Dir() string {
	return s.baseDir
}

// Enabled returns true as this sink saves output.
func (s *Sink) Enabled() bool {
	return true
}

// SavePlanJSON saves the conversion plan as JSON.
func (s *Sink) SavePlanJSON(data []byte) error {
	return s.fs.WriteFile(filepath.Join(s.baseDir, "plan.json"), data)
}

// SaveEncoderJSON saves the negotiated encoder configuration as JSON.
func (s *Sink) SaveEncoderJSON(data []byte) error {
	return s.fs.WriteFile(filepath.Join(s.baseDir, "encoder.json"), data)
}

// SaveFrameSVG saves the normalized SVG of one frame.
func (s *Sink) SaveFrameSVG(index int, data []byte) error {
	dir := filepath.Join(s.baseDir, "frames", "svg")
	if err := s.fs.MkdirAll(dir); err != nil {
		return err
	}
	return s.fs.WriteFile(filepath.Join(dir, fmt.Sprintf("frame-%04d.svg", index)), data)
}

// SaveFrame saves one rasterized frame as PNG.
func (s *Sink) SaveFrame(index int, img image.Image) error {
	dir := filepath.Join(s.baseDir, "frames", "png")
	if err := s.fs.MkdirAll(dir); err != nil {
		return err
	}
	data, err := s.renderer.EncodeImage(img, ports.FormatPNG)
	if err != nil {
		return fmt.Errorf("encode frame %d: %w", index, err)
	}
	return s.fs.WriteFile(filepath.Join(dir, fmt.Sprintf("frame-%04d.png", index)), data)
}

var _ ports.DebugSink = (*Sink)(nil)
