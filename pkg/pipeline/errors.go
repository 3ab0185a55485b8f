package pipeline

import (
	"errors"
	"strings"
)

var (
	// ErrEncodingUnsupported is returned before any rendering when no encoder exists on this platform.
	ErrEncodingUnsupported = errors.New("video encoding is not supported on this platform")

	// ErrInvalidDuration is returned when the request produces no output frames.
	ErrInvalidDuration = errors.New("animation duration produces no output frames")

	// ErrRenderSurfaceMissing is returned when a seek leaves nothing to render.
	ErrRenderSurfaceMissing = errors.New("animation has no renderable surface")

	// ErrEncoderConfigRejected marks a rejected preferred profile. It is logged, never returned.
	ErrEncoderConfigRejected = errors.New("encoder configuration rejected")

	// ErrEncoderRuntime is returned when the encoder fails mid-conversion.
	ErrEncoderRuntime = errors.New("encoder error")

	// ErrMux is returned when the container assembler fails.
	ErrMux = errors.New("mux error")

	// ErrCancelled is returned when the caller cancels a running conversion.
	ErrCancelled = errors.New("conversion cancelled")

	// ErrBusy is returned when a conversion is already running on the same orchestrator.
	ErrBusy = errors.New("a conversion is already in progress")
)

// Hint returns a short user-facing suggestion for encoder related failures,
// or an empty string when there is nothing more helpful to say than the error itself.
func Hint(err error) string {
	if err == nil {
		return ""
	}
	switch {
	case errors.Is(err, ErrEncodingUnsupported):
		return "Install ffmpeg with an H.264 encoder (libx264) or build with the libaom tag for AV1."
	case errors.Is(err, ErrEncoderRuntime):
		return "The video encoder failed. Try a lower resolution or frame rate."
	}
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "encoder") || strings.Contains(msg, "codec") || strings.Contains(msg, "ffmpeg") {
		return "Your platform may not support this video configuration. Try a lower resolution or frame rate."
	}
	return ""
}
