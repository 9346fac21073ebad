package molsurf

import (
	"fmt"
	"strings"
	"time"
)

// HostFrame is the host scene the surface is composited over. Both fields
// are read only. A nil Color is a transparent image; a nil Depth is empty
// background at the far plane.
type HostFrame struct {
	Color *Image
	Depth *DepthBuffer
}

// Frame is the result of Render.
type Frame struct {
	// Color is the host color with the surface blended over it.
	Color *Image

	// Depth is the host depth with the surface depth merged in wherever
	// the surface is nearer.
	Depth *DepthBuffer

	// Layer is the surface alone, premultiplied.
	Layer *Image

	// LayerDepth is the window depth of the surface, 1 where it was not hit.
	LayerDepth *DepthBuffer

	Stats FrameStats

	// Skipped is set when a stage failed and Color and Depth are a copy of
	// the host frame.
	Skipped bool
}

// StageTiming is the wall time of one pipeline stage.
type StageTiming struct {
	Name     string
	Duration time.Duration
}

// FrameStats describes how a frame was produced.
type FrameStats struct {
	Frame         uint64
	Atoms         int
	VolumeSize    int
	DensityReused bool
	Accelerator   string // empty when the density ran on the CPU
	CameraInside  bool   // rays start at the eye instead of the cube face
	Stages        []StageTiming
	Total         time.Duration
}

// String formats the stats as a single line, e.g. for an overlay.
func (s FrameStats) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "frame %d  atoms %d  volume %d^3", s.Frame, s.Atoms, s.VolumeSize)
	switch {
	case s.DensityReused:
		b.WriteString("  density cached")
	case s.Accelerator != "":
		fmt.Fprintf(&b, "  density %s", s.Accelerator)
	}
	if s.CameraInside {
		b.WriteString("  inside")
	}
	for _, st := range s.Stages {
		fmt.Fprintf(&b, "  %s %s", st.Name, st.Duration.Round(time.Microsecond))
	}
	fmt.Fprintf(&b, "  total %s", s.Total.Round(time.Microsecond))
	return b.String()
}

func newFrame(width, height int) *Frame {
	return &Frame{
		Color:      NewImage(width, height),
		Depth:      NewDepthBuffer(width, height),
		Layer:      NewImage(width, height),
		LayerDepth: NewDepthBuffer(width, height),
	}
}

// passThrough makes the frame a copy of the host.
func (f *Frame) passThrough(host HostFrame) {
	if host.Color != nil {
		copy(f.Color.pix, host.Color.pix)
	} else {
		clear(f.Color.pix)
	}
	if host.Depth != nil {
		copy(f.Depth.data, host.Depth.data)
	} else {
		f.Depth.Clear()
	}
	clear(f.Layer.pix)
	f.LayerDepth.Clear()
}
