// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package volume

import (
	"math"

	"github.com/gogpu/molsurf/internal/parallel"
)

// Work item granularity of the CPU passes.
const (
	// BlockEdge is the edge of the cell blocks used by Init and Resample.
	BlockEdge = 8

	// AtomGroup is the number of atoms handled by one Splat work item.
	AtomGroup = 64
)

// Init zeroes every cell of the grid, and of the normal grid when non-nil.
func Init(pool *parallel.WorkerPool, grid *Grid, normals *NormalGrid) {
	pool.ForBlocks(grid.Size(), BlockEdge, func(b parallel.Block) {
		forCells(grid, b, func(i int) {
			grid.Store(i, 0)
			if normals != nil {
				normals.X.Store(i, 0)
				normals.Y.Store(i, 0)
				normals.Z.Store(i, 0)
			}
		})
	})
}

// Splat accumulates the contribution of every atom into the grid.
//
// Work is split over groups of AtomGroup atoms, not over cells, so several
// workers may add into the same cell at once; Grid.Add keeps that safe.
// Atoms with a non-positive radius have no influence and are skipped.
// When normals is non-nil the outward gradient of each contribution is
// accumulated alongside the density.
func Splat(pool *parallel.WorkerPool, grid *Grid, normals *NormalGrid, atoms []Atom, dom Domain, k Kernel) {
	pool.For(len(atoms), AtomGroup, func(lo, hi int) {
		for _, a := range atoms[lo:hi] {
			splatAtom(grid, normals, a, dom, k)
		}
	})
}

func splatAtom(grid *Grid, normals *NormalGrid, a Atom, dom Domain, k Kernel) {
	r := float64(a.Radius) * float64(dom.Scale)
	if r <= 0 || math.IsNaN(r) {
		return
	}
	r2 := r * r
	rc := k.Cutoff(r)
	rc2 := rc * rc

	g := dom.ToGrid(a.Position())
	gx, gy, gz := float64(g[0]), float64(g[1]), float64(g[2])

	size := grid.Size()
	x0, x1 := cellRange(gx, rc, size)
	y0, y1 := cellRange(gy, rc, size)
	z0, z1 := cellRange(gz, rc, size)

	for z := z0; z <= z1; z++ {
		dz := float64(z) + 0.5 - gz
		for y := y0; y <= y1; y++ {
			dy := float64(y) + 0.5 - gy
			dyz := dy*dy + dz*dz
			if dyz > rc2 {
				continue
			}
			for x := x0; x <= x1; x++ {
				dx := float64(x) + 0.5 - gx
				d2 := dx*dx + dyz
				if d2 > rc2 {
					continue
				}
				f := k.Eval(d2, r2)
				i := grid.Index(x, y, z)
				grid.Add(i, float32(f))
				if normals != nil {
					w := k.GradientScale(f, r2)
					normals.Add(i, float32(w*dx), float32(w*dy), float32(w*dz))
				}
			}
		}
	}
}

// cellRange returns the inclusive range of cells whose centre lies within
// rc of coordinate c, clipped to the grid.
func cellRange(c, rc float64, size int) (lo, hi int) {
	lo = int(math.Ceil(c - rc - 0.5))
	hi = int(math.Floor(c + rc - 0.5))
	return max(lo, 0), min(hi, size-1)
}

// Resample copies the grid into the field and, when both carry normals,
// stores the normalised atom gradients. It reads the grids only, so running
// it twice on the same grid yields bit-identical fields.
func Resample(pool *parallel.WorkerPool, grid *Grid, normals *NormalGrid, field *Field) {
	withNormals := normals != nil && field.normals != nil
	pool.ForBlocks(grid.Size(), BlockEdge, func(b parallel.Block) {
		forCells(grid, b, func(i int) {
			field.data[i] = grid.At(i)
			if field.normals == nil {
				return
			}
			n := field.normals[i*3 : i*3+3]
			if !withNormals {
				n[0], n[1], n[2] = 0, 0, 0
				return
			}
			n[0], n[1], n[2] = normalize(normals.X.At(i), normals.Y.At(i), normals.Z.At(i))
		})
	})
}

func forCells(grid *Grid, b parallel.Block, fn func(i int)) {
	for z := b.Min[2]; z < b.Max[2]; z++ {
		for y := b.Min[1]; y < b.Max[1]; y++ {
			row := grid.Index(0, y, z)
			for x := b.Min[0]; x < b.Max[0]; x++ {
				fn(row + x)
			}
		}
	}
}

func normalize(x, y, z float32) (float32, float32, float32) {
	l := float32(math.Sqrt(float64(x*x + y*y + z*z)))
	if l == 0 || math.IsNaN(float64(l)) {
		return 0, 0, 0
	}
	return x / l, y / l, z / l
}
