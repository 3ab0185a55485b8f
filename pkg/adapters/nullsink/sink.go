// Package nullsink provides a no-op debug sink implementation.
package nullsink

import (
	"image"

	"github.com/user/lottiemp4/pkg/ports"
)

// Sink discards all debug output.
type Sink struct{}

// New creates a new NullSink.
func New() *Sink {
	return &Sink{}
}

// Enabled returns false so callers can skip building debug payloads.
func (s *Sink) Enabled() bool {
	return false
}

func (s *Sink) SavePlanJSON(data []byte) error             { return nil }
func (s *Sink) SaveEncoderJSON(data []byte) error          { return nil }
func (s *Sink) SaveFrameSVG(index int, data []byte) error  { return nil }
func (s *Sink) SaveFrame(index int, img image.Image) error { return nil }

var _ ports.DebugSink = (*Sink)(nil)
