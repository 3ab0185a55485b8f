package pipeline

// State is the lifecycle state of a conversion pipeline.
// It is one of Idle, Rendering, Completed or Failed.
type State interface {
	state()
	// Name returns a short lowercase name for logs.
	Name() string
}

// Idle is the state before the first conversion.
type Idle struct{}

// Rendering is the state while frames are rendered and encoded.
type Rendering struct {
	Progress ProgressEvent
}

// Completed is the state after a successful conversion.
type Completed struct {
	Result ConversionResult
}

// Failed is the state after a failed or cancelled conversion.
// Retrying starts a fresh conversion from this state; nothing is resumed.
type Failed struct {
	Err error
}

func (Idle) state()      {}
func (Rendering) state() {}
func (Completed) state() {}
func (Failed) state()    {}

func (Idle) Name() string      { return "idle" }
func (Rendering) Name() string { return "rendering" }
func (Completed) Name() string { return "completed" }
func (Failed) Name() string    { return "failed" }

// CanStart reports whether a new conversion may start from s.
func CanStart(s State) bool {
	switch s.(type) {
	case Rendering:
		return false
	default:
		return true
	}
}
