// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package volume

// Atom is one atom record: a position in world space and its influence
// radius. The layout matches a GPU vec4<f32>.
type Atom struct {
	X, Y, Z float32
	Radius  float32
}

// Position returns the atom centre as an array.
func (a Atom) Position() [3]float32 {
	return [3]float32{a.X, a.Y, a.Z}
}
