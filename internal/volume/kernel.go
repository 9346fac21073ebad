// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package volume

import "math"

// CutoffEpsilon is the contribution below which a cell is not touched by a
// splat. It keeps the per-atom neighbourhood finite.
const CutoffEpsilon = 1e-4

// Domain maps world space onto grid space.
//
// A world point p lands at grid coordinate (p - Center)*Scale + Size/2, so
// one world unit spans Scale cells and the grid covers the cube
// Center ± Size/(2*Scale).
type Domain struct {
	Center [3]float32
	Size   int
	Scale  float32
}

// ToGrid converts a world position into fractional grid coordinates.
func (d Domain) ToGrid(p [3]float32) [3]float32 {
	half := float32(d.Size) / 2
	return [3]float32{
		(p[0]-d.Center[0])*d.Scale + half,
		(p[1]-d.Center[1])*d.Scale + half,
		(p[2]-d.Center[2])*d.Scale + half,
	}
}

// ToWorld converts fractional grid coordinates into a world position.
func (d Domain) ToWorld(g [3]float32) [3]float32 {
	half := float32(d.Size) / 2
	return [3]float32{
		(g[0]-half)/d.Scale + d.Center[0],
		(g[1]-half)/d.Scale + d.Center[1],
		(g[2]-half)/d.Scale + d.Center[2],
	}
}

// HalfExtent returns half the edge length of the bounding cube in world units.
func (d Domain) HalfExtent() float32 {
	return float32(d.Size) / (2 * d.Scale)
}

// Bounds returns the world-space min and max corners of the bounding cube.
func (d Domain) Bounds() (lo, hi [3]float32) {
	h := d.HalfExtent()
	for i := range 3 {
		lo[i] = d.Center[i] - h
		hi[i] = d.Center[i] + h
	}
	return lo, hi
}

// Kernel is the splat falloff
//
//	f(d) = exp(-s * (d²/r² - 1))
//
// where s is the surface smoothness and r the atom radius in grid units.
// f(r) = 1, and higher s gives a steeper falloff and crisper blobs.
type Kernel struct {
	Smoothness float32
}

// Eval returns the contribution at squared distance d2 for squared radius r2.
func (k Kernel) Eval(d2, r2 float64) float64 {
	return math.Exp(-float64(k.Smoothness) * (d2/r2 - 1))
}

// Cutoff returns the distance beyond which the contribution of an atom of
// radius r drops below CutoffEpsilon.
func (k Kernel) Cutoff(r float64) float64 {
	return r * math.Sqrt(1+math.Log(1/CutoffEpsilon)/float64(k.Smoothness))
}

// GradientScale returns the factor w such that w*(c - g) is the outward
// gradient of a contribution of value f at cell centre c for an atom at g.
func (k Kernel) GradientScale(f, r2 float64) float64 {
	return f * 2 * float64(k.Smoothness) / r2
}
