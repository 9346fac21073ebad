package molsurf

import (
	"fmt"
	"math"

	"github.com/gogpu/molsurf/internal/volume"
)

// StepMode selects how the ray march step length is derived.
type StepMode int

const (
	// StepSegment divides each pixel's in-volume segment into NumSteps
	// samples, so every ray takes the same number of samples.
	StepSegment StepMode = iota

	// StepFixed uses a world step of cube edge / NumSteps, so short
	// segments take fewer samples.
	StepFixed
)

// String returns the mode name used in parameter files.
func (m StepMode) String() string {
	switch m {
	case StepSegment:
		return "segment"
	case StepFixed:
		return "fixed"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (m StepMode) MarshalText() ([]byte, error) { return []byte(m.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *StepMode) UnmarshalText(text []byte) error {
	switch string(text) {
	case "segment":
		*m = StepSegment
	case "fixed":
		*m = StepFixed
	default:
		return fmt.Errorf("molsurf: unknown step mode %q", text)
	}
	return nil
}

// Filter selects how the field is sampled between cell centres.
type Filter = volume.Filter

const (
	FilterTrilinear = volume.FilterTrilinear
	FilterBilinear  = volume.FilterBilinear
)

// Parameter ranges. Sanitize clamps every field into these.
const (
	MinScale, MaxScale           = 1, 16
	MinSmoothness, MaxSmoothness = 0.5, 10
	MinVolumeSize, MaxVolumeSize = 8, 1024
	MinNumSteps, MaxNumSteps     = 1, 1024
	MaxIntensityThreshold        = 10
)

// Params are the user-tunable rendering parameters.
type Params struct {
	// Scale maps world units to grid cells. Larger values zoom the volume
	// in on the centre of the structure.
	Scale float32

	// SurfaceSmoothness controls the falloff of each atom's density.
	// Higher values give a tighter surface.
	SurfaceSmoothness float32

	// VolumeSize is the grid edge length in cells. Changing it reallocates
	// the grids.
	VolumeSize int

	NumSteps int
	StepMode StepMode

	Opacity            float32
	IntensityThreshold float32
	SurfaceColor       RGBA

	// RayOffset scales a per-pixel jitter of the first sample, in steps.
	RayOffset float32

	Filter Filter

	// AtomNormals accumulates analytic per-atom gradients during Splat and
	// shades with them instead of the field gradient.
	AtomNormals bool

	// Lighting enables headlight Lambert shading.
	Lighting bool
}

// DefaultParams returns the default parameters.
func DefaultParams() Params {
	return Params{
		Scale:              1,
		SurfaceSmoothness:  0.8,
		VolumeSize:         128,
		NumSteps:           256,
		StepMode:           StepSegment,
		Opacity:            1,
		IntensityThreshold: 0.8,
		SurfaceColor:       White,
		RayOffset:          0,
		Filter:             FilterTrilinear,
	}
}

// Sanitize returns p with every value clamped into its range. NaN values
// take the default.
func (p Params) Sanitize() Params {
	d := DefaultParams()
	out := p
	out.Scale = clampf(p.Scale, MinScale, MaxScale, d.Scale)
	out.SurfaceSmoothness = clampf(p.SurfaceSmoothness, MinSmoothness, MaxSmoothness, d.SurfaceSmoothness)
	out.VolumeSize = min(max(p.VolumeSize, MinVolumeSize), MaxVolumeSize)
	out.NumSteps = min(max(p.NumSteps, MinNumSteps), MaxNumSteps)
	out.Opacity = clampf(p.Opacity, 0, 1, d.Opacity)
	out.IntensityThreshold = clampf(p.IntensityThreshold, 0, MaxIntensityThreshold, d.IntensityThreshold)
	out.RayOffset = clampf(p.RayOffset, 0, 1, d.RayOffset)
	out.SurfaceColor = RGBA{
		R: clamp01(p.SurfaceColor.R, d.SurfaceColor.R),
		G: clamp01(p.SurfaceColor.G, d.SurfaceColor.G),
		B: clamp01(p.SurfaceColor.B, d.SurfaceColor.B),
		A: clamp01(p.SurfaceColor.A, d.SurfaceColor.A),
	}
	if out.StepMode != StepFixed {
		out.StepMode = StepSegment
	}
	if out.Filter != FilterBilinear {
		out.Filter = FilterTrilinear
	}
	if out != p {
		Logger().Debug("molsurf: parameters clamped", "in", fmt.Sprintf("%+v", p), "out", fmt.Sprintf("%+v", out))
	}
	return out
}

// densityKey captures every parameter the density field depends on.
type densityKey struct {
	scale       float32
	smoothness  float32
	size        int
	atomNormals bool
}

func (p Params) densityKey() densityKey {
	return densityKey{
		scale:       p.Scale,
		smoothness:  p.SurfaceSmoothness,
		size:        p.VolumeSize,
		atomNormals: p.AtomNormals,
	}
}

func clampf(v, lo, hi, def float32) float32 {
	if math.IsNaN(float64(v)) {
		return def
	}
	return min(max(v, lo), hi)
}

func clamp01(v, def float64) float64 {
	if math.IsNaN(v) {
		return def
	}
	return min(max(v, 0), 1)
}
