// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package volume

import (
	"math"
	"sync/atomic"
)

// Grid is the linear density buffer: size^3 float32 cells stored as their
// IEEE-754 bits so that concurrent splats can accumulate with
// compare-and-swap.
//
// The length always equals size^3; a different size needs a new Grid.
type Grid struct {
	size int
	bits []uint32
}

// NewGrid allocates a zeroed grid of size^3 cells.
func NewGrid(size int) *Grid {
	if size < 0 {
		size = 0
	}
	return &Grid{
		size: size,
		bits: make([]uint32, size*size*size),
	}
}

// Size returns the edge length in cells.
func (g *Grid) Size() int { return g.size }

// Len returns the number of cells (Size^3).
func (g *Grid) Len() int { return len(g.bits) }

// Index returns the linear index of cell (x, y, z).
func (g *Grid) Index(x, y, z int) int {
	return x + y*g.size + z*g.size*g.size
}

// Add atomically adds v to cell i.
//
// Floating point addition is commutative, so the final value of a cell does
// not depend on which atom got there first beyond rounding in the last bits.
func (g *Grid) Add(i int, v float32) {
	addr := &g.bits[i]
	for {
		old := atomic.LoadUint32(addr)
		next := math.Float32bits(math.Float32frombits(old) + v)
		if atomic.CompareAndSwapUint32(addr, old, next) {
			return
		}
	}
}

// At returns the value of cell i.
func (g *Grid) At(i int) float32 {
	return math.Float32frombits(atomic.LoadUint32(&g.bits[i]))
}

// Store sets cell i to v.
func (g *Grid) Store(i int, v float32) {
	atomic.StoreUint32(&g.bits[i], math.Float32bits(v))
}

// Values returns a copy of all cells as float32.
func (g *Grid) Values() []float32 {
	out := make([]float32, len(g.bits))
	for i := range g.bits {
		out[i] = g.At(i)
	}
	return out
}

// Bytes returns the memory footprint of a grid with the given edge length.
func Bytes(size int) uint64 {
	n := uint64(size)
	return n * n * n * 4
}

// NormalGrid accumulates the outward gradient of every atom's contribution,
// one Grid per axis. It has the same cardinality as the density Grid.
type NormalGrid struct {
	X, Y, Z *Grid
}

// NewNormalGrid allocates a zeroed normal grid.
func NewNormalGrid(size int) *NormalGrid {
	return &NormalGrid{X: NewGrid(size), Y: NewGrid(size), Z: NewGrid(size)}
}

// Size returns the edge length in cells.
func (n *NormalGrid) Size() int { return n.X.Size() }

// Add atomically accumulates a gradient vector into cell i.
func (n *NormalGrid) Add(i int, gx, gy, gz float32) {
	n.X.Add(i, gx)
	n.Y.Add(i, gy)
	n.Z.Add(i, gz)
}
