// Package raymarch implements the screen-space half of the molsurf pipeline:
// the cube back-depth pass, the per-pixel ray marcher and the compositor.
//
// All passes work on flat per-pixel slices (row-major, top row first) and
// run over 64x64 tiles on a parallel.WorkerPool. Pixels are independent, so
// tiles need no ordering between them.
//
// Distances along a pixel ray are measured from the eye in world units.
// Depth buffers use window-space depth in [0, 1] where 1 is the far plane.
package raymarch
