package ports

import "github.com/user/lottiemp4/pkg/pipeline"

// Muxer assembles encoded chunks into a container.
type Muxer interface {
	// Begin prepares the container for the given stream.
	Begin(meta pipeline.MuxMetadata) error

	// Append adds one chunk. Chunks must arrive in strictly increasing timestamp order.
	Append(chunk pipeline.EncodedChunk) error

	// Finalize completes the container and returns its bytes. It may be called once.
	Finalize() ([]byte, error)
}
