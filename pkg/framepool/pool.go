// Package framepool recycles RGBA pixel buffers keyed by their bounds.
package framepool

import (
	"image"
	"sync"
)

// Pool hands out *image.RGBA buffers. Buffers returned by Get may hold pixels
// from a previous frame; callers that need a blank canvas must clear it.
type Pool struct {
	mu    sync.RWMutex
	pools map[image.Rectangle]*sync.Pool
}

// New creates an empty pool.
func New() *Pool {
	return &Pool{pools: make(map[image.Rectangle]*sync.Pool)}
}

var shared = New()

// Get returns a buffer from the shared pool.
func Get(rect image.Rectangle) *image.RGBA {
	return shared.Get(rect)
}

// Put returns a buffer to the shared pool.
func Put(img *image.RGBA) {
	shared.Put(img)
}

// Get returns a buffer with the given bounds.
func (p *Pool) Get(rect image.Rectangle) *image.RGBA {
	p.mu.RLock()
	pool, ok := p.pools[rect]
	p.mu.RUnlock()

	if !ok {
		p.mu.Lock()
		pool, ok = p.pools[rect]
		if !ok {
			pool = &sync.Pool{
				New: func() any {
					return image.NewRGBA(rect)
				},
			}
			p.pools[rect] = pool
		}
		p.mu.Unlock()
	}
	return pool.Get().(*image.RGBA)
}

// Put recycles a buffer. Buffers of sizes never requested through Get are dropped.
func (p *Pool) Put(img *image.RGBA) {
	if img == nil {
		return
	}
	p.mu.RLock()
	pool, ok := p.pools[img.Rect]
	p.mu.RUnlock()
	if ok {
		pool.Put(img)
	}
}
