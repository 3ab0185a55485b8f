package ports

import (
	"image"
)

// DebugSink abstracts debug output for intermediate results.
// It allows saving intermediate conversion results for debugging purposes.
type DebugSink interface {
	// Enabled returns true if debug output is enabled.
	Enabled() bool

	// SavePlanJSON saves the resolved dimensions and timing plan as JSON.
	SavePlanJSON(data []byte) error

	// SaveEncoderJSON saves the negotiated encoder configuration as JSON.
	SaveEncoderJSON(data []byte) error

	// SaveFrameSVG saves the normalized SVG of one output frame.
	SaveFrameSVG(index int, data []byte) error

	// SaveFrame saves the opaque pixel buffer of one output frame.
	SaveFrame(index int, img image.Image) error
}
