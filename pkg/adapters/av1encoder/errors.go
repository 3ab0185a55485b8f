package av1encoder

import "errors"

var (
	// ErrNotInitialized is returned when encoder methods are called before Begin.
	ErrNotInitialized = errors.New("av1encoder: encoder not initialized")

	// ErrEncodingFailed is returned when libaom reports an error.
	ErrEncodingFailed = errors.New("av1encoder: encoding failed")

	// ErrPlatformNotSupported is returned when the binary was built without libaom.
	ErrPlatformNotSupported = errors.New("av1encoder: built without libaom (use -tags libaom)")

	// ErrFrameSize is returned when a frame does not match the configured size.
	ErrFrameSize = errors.New("av1encoder: frame size mismatch")
)
