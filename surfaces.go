package molsurf

import (
	"sync"

	"github.com/gogpu/molsurf/internal/raymarch"
)

// surfaces are the per-frame scratch buffers that never leave a Render
// call: the cube exit distances and the march layer before it is copied
// into the Frame.
type surfaces struct {
	width, height int
	back          []float32
	layer         raymarch.Layer
}

func (s *surfaces) reset() {
	clear(s.back)
	clear(s.layer.Color)
	clear(s.layer.Depth)
}

// surfacePool recycles surfaces between frames of the same resolution.
// Buffers are cached until the resolution changes; a resize drops the
// free list so stale sizes never come back.
//
// Thread safety: surfacePool is safe for concurrent use.
type surfacePool struct {
	mu            sync.Mutex
	width, height int
	free          []*surfaces
	outstanding   int
}

// acquire returns cleared surfaces for a width x height frame.
func (p *surfacePool) acquire(width, height int) *surfaces {
	p.mu.Lock()
	defer p.mu.Unlock()

	if width != p.width || height != p.height {
		if len(p.free) > 0 {
			Logger().Debug("molsurf: resolution changed, dropping surfaces",
				"from", [2]int{p.width, p.height}, "to", [2]int{width, height}, "count", len(p.free))
		}
		p.free = nil
		p.width, p.height = width, height
	}
	p.outstanding++

	if n := len(p.free); n > 0 {
		s := p.free[n-1]
		p.free = p.free[:n-1]
		s.reset()
		return s
	}
	return &surfaces{
		width:  width,
		height: height,
		back:   make([]float32, width*height),
		layer:  raymarch.NewLayer(width, height),
	}
}

// release returns s to the pool. Surfaces of an outdated resolution are
// left to the GC.
func (p *surfacePool) release(s *surfaces) {
	if s == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.outstanding--
	if s.width == p.width && s.height == p.height {
		p.free = append(p.free, s)
	}
}

// flush drops every cached surface.
func (p *surfacePool) flush() {
	p.mu.Lock()
	p.free = nil
	p.mu.Unlock()
}

// inUse reports how many surfaces are currently acquired.
func (p *surfacePool) inUse() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.outstanding
}

// cached reports how many surfaces wait in the free list.
func (p *surfacePool) cached() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.free)
}
