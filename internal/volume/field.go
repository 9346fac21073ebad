// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package volume

import "math"

// Filter selects how a Field is sampled between cell centres.
type Filter int

const (
	// FilterTrilinear interpolates the 8 surrounding cells.
	FilterTrilinear Filter = iota

	// FilterBilinear interpolates within the nearest z slice only.
	FilterBilinear
)

// String returns the filter name.
func (f Filter) String() string {
	switch f {
	case FilterTrilinear:
		return "trilinear"
	case FilterBilinear:
		return "bilinear"
	default:
		return "unknown"
	}
}

// Field is the sampleable volume produced by Resample: one float32 density
// per cell and, optionally, a unit normal per cell. It is read-only while
// the ray marcher runs.
type Field struct {
	size    int
	data    []float32
	normals []float32 // 3 floats per cell, nil when atom normals are off
	filter  Filter
}

// NewField allocates a zeroed field of size^3 cells.
func NewField(size int, withNormals bool) *Field {
	f := &Field{
		size: size,
		data: make([]float32, size*size*size),
	}
	if withNormals {
		f.normals = make([]float32, 3*size*size*size)
	}
	return f
}

// Size returns the edge length in cells.
func (f *Field) Size() int { return f.size }

// Data returns the density values in grid order. Accelerators write the
// resampled field directly into this slice.
func (f *Field) Data() []float32 { return f.data }

// HasNormals reports whether the field carries atom normals.
func (f *Field) HasNormals() bool { return f.normals != nil }

// Filter returns the sampling filter.
func (f *Field) Filter() Filter { return f.filter }

// SetFilter changes the sampling filter.
func (f *Field) SetFilter(filter Filter) { f.filter = filter }

// At returns the value of cell (x, y, z), clamping to the edge.
func (f *Field) At(x, y, z int) float32 {
	n := f.size - 1
	x = clampInt(x, 0, n)
	y = clampInt(y, 0, n)
	z = clampInt(z, 0, n)
	return f.data[x+y*f.size+z*f.size*f.size]
}

// Sample returns the filtered density at fractional grid coordinates.
// Cell centres sit at i+0.5, coordinates outside [0, size) clamp to the edge.
func (f *Field) Sample(x, y, z float32) float32 {
	if f.size == 0 {
		return 0
	}
	x0, tx := split(x)
	y0, ty := split(y)

	if f.filter == FilterBilinear {
		zi := int(math.Floor(float64(z)))
		return bilerp(f.At(x0, y0, zi), f.At(x0+1, y0, zi), f.At(x0, y0+1, zi), f.At(x0+1, y0+1, zi), tx, ty)
	}

	z0, tz := split(z)
	c0 := bilerp(f.At(x0, y0, z0), f.At(x0+1, y0, z0), f.At(x0, y0+1, z0), f.At(x0+1, y0+1, z0), tx, ty)
	c1 := bilerp(f.At(x0, y0, z0+1), f.At(x0+1, y0, z0+1), f.At(x0, y0+1, z0+1), f.At(x0+1, y0+1, z0+1), tx, ty)
	return c0 + (c1-c0)*tz
}

// Normal returns the outward unit surface normal at fractional grid
// coordinates: the resampled atom normal when present, otherwise the
// negated central-difference gradient of the density. A zero vector means
// the direction is undefined.
func (f *Field) Normal(x, y, z float32) [3]float32 {
	if f.normals != nil {
		return f.sampleNormal(x, y, z)
	}
	gx := f.Sample(x-1, y, z) - f.Sample(x+1, y, z)
	gy := f.Sample(x, y-1, z) - f.Sample(x, y+1, z)
	gz := f.Sample(x, y, z-1) - f.Sample(x, y, z+1)
	nx, ny, nz := normalize(gx, gy, gz)
	return [3]float32{nx, ny, nz}
}

func (f *Field) sampleNormal(x, y, z float32) [3]float32 {
	// Nearest cell; atom normals are already smooth across cells.
	n := f.size - 1
	xi := clampInt(int(math.Floor(float64(x))), 0, n)
	yi := clampInt(int(math.Floor(float64(y))), 0, n)
	zi := clampInt(int(math.Floor(float64(z))), 0, n)
	i := 3 * (xi + yi*f.size + zi*f.size*f.size)
	return [3]float32{f.normals[i], f.normals[i+1], f.normals[i+2]}
}

// split converts a coordinate into the lower cell index and the
// interpolation weight under the texel-centre convention.
func split(c float32) (int, float32) {
	s := float64(c) - 0.5
	fl := math.Floor(s)
	return int(fl), float32(s - fl)
}

func bilerp(c00, c10, c01, c11, tx, ty float32) float32 {
	a := c00 + (c10-c00)*tx
	b := c01 + (c11-c01)*tx
	return a + (b-a)*ty
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
