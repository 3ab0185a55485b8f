package ports

import "github.com/user/lottiemp4/pkg/pipeline"

// ProgressReporter observes conversion progress.
// Report is called synchronously from the conversion goroutine.
type ProgressReporter interface {
	Report(event pipeline.ProgressEvent)
}
