package mocks

import (
	"image"
	"sync"

	"github.com/user/lottiemp4/pkg/ports"
)

// DebugSink is a mock implementation of ports.DebugSink.
type DebugSink struct {
	mu sync.RWMutex

	enabled bool

	PlanJSON    []byte
	EncoderJSON []byte
	FrameSVGs   map[int][]byte
	Frames      map[int]image.Image
}

// NewDebugSink creates a new mock DebugSink.
func NewDebugSink(enabled bool) *DebugSink {
	return &DebugSink{
		enabled:   enabled,
		FrameSVGs: make(map[int][]byte),
		Frames:    make(map[int]image.Image),
	}
}

func (m *DebugSink) Enabled() bool {
	return m.enabled
}

func (m *DebugSink) SavePlanJSON(data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.PlanJSON = data
	return nil
}

func (m *DebugSink) SaveEncoderJSON(data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.EncoderJSON = data
	return nil
}

func (m *DebugSink) SaveFrameSVG(index int, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.FrameSVGs[index] = data
	return nil
}

// SaveFrame stores a copy, since pooled frame buffers are reused.
func (m *DebugSink) SaveFrame(index int, img image.Image) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b := img.Bounds()
	cp := image.NewRGBA(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			cp.Set(x, y, img.At(x, y))
		}
	}
	m.Frames[index] = cp
	return nil
}

// FrameCount returns the number of saved frames.
func (m *DebugSink) FrameCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.Frames)
}

var _ ports.DebugSink = (*DebugSink)(nil)
