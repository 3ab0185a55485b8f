// Package progress provides adapters for ports.ProgressReporter.
package progress

import (
	"context"
	"sync"

	"github.com/user/lottiemp4/pkg/pipeline"
	"github.com/user/lottiemp4/pkg/ports"
)

// Func adapts a plain function to ports.ProgressReporter.
type Func func(pipeline.ProgressEvent)

// Report calls f.
func (f Func) Report(e pipeline.ProgressEvent) {
	if f != nil {
		f(e)
	}
}

// Discard is a reporter that drops every event.
var Discard ports.ProgressReporter = Func(nil)

// Channel delivers events on a bounded channel.
// Report blocks while the buffer is full, so events are never dropped or reordered,
// until the context is cancelled or the channel is closed.
type Channel struct {
	ctx    context.Context
	ch     chan pipeline.ProgressEvent
	mu     sync.RWMutex
	closed bool
}

// NewChannel creates a channel reporter with the given buffer size.
func NewChannel(ctx context.Context, size int) *Channel {
	if size < 0 {
		size = 0
	}
	return &Channel{ctx: ctx, ch: make(chan pipeline.ProgressEvent, size)}
}

// C returns the receive side.
func (c *Channel) C() <-chan pipeline.ProgressEvent {
	return c.ch
}

// Report sends the event.
func (c *Channel) Report(e pipeline.ProgressEvent) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return
	}
	select {
	case c.ch <- e:
	case <-c.ctx.Done():
	}
}

// Close closes the receive side. Reports after Close are dropped.
func (c *Channel) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.ch)
	}
}

// Monotonic clamps percentages to [0, 100] and never lets them decrease.
type Monotonic struct {
	next ports.ProgressReporter
	mu   sync.Mutex
	last int
}

// NewMonotonic wraps next.
func NewMonotonic(next ports.ProgressReporter) *Monotonic {
	return &Monotonic{next: next}
}

// Report forwards the event with a clamped percentage.
func (m *Monotonic) Report(e pipeline.ProgressEvent) {
	m.mu.Lock()
	p := e.Percent
	if p < 0 {
		p = 0
	}
	if p > 100 {
		p = 100
	}
	if p < m.last {
		p = m.last
	}
	m.last = p
	m.mu.Unlock()

	e.Percent = p
	m.next.Report(e)
}

// Last returns the most recently reported percentage.
func (m *Monotonic) Last() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.last
}

// Multi fans an event out to several reporters in order.
func Multi(reporters ...ports.ProgressReporter) ports.ProgressReporter {
	return Func(func(e pipeline.ProgressEvent) {
		for _, r := range reporters {
			if r != nil {
				r.Report(e)
			}
		}
	})
}
