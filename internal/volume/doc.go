// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package volume builds the dense density field that molsurf ray-marches.
//
// The field is produced by three stages that mirror the compute dispatches of
// the GPU path:
//
//  1. Init: every cell of the linear Grid is set to zero.
//  2. Splat: every atom adds a smooth falloff contribution to the cells
//     inside its cutoff radius. Atoms run in parallel and may hit the same
//     cell, so accumulation goes through Grid.Add, an atomic float add.
//  3. Resample: the Grid is copied into a Field that supports trilinear
//     sampling at fractional grid coordinates.
//
// Grid layout is row-major with x varying fastest:
//
//	index = x + y*size + z*size*size
//
// Grid space maps cell i to [i, i+1) with its centre at i+0.5. The Domain
// type converts between world space (Angstrom) and grid space.
package volume
