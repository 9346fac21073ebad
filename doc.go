// Package molsurf renders a molecular structure as a smooth volumetric
// isosurface composited over a host scene.
//
// # Overview
//
// Every atom contributes a smooth radial density to a dense cubic grid.
// The grid is resampled into a filterable field, and each frame the field
// is ray-marched between the camera and the far face of its bounding cube.
// The resulting layer is blended over the host image, hidden behind nearer
// host geometry, and its depth is merged into the host depth buffer.
//
// # Quick Start
//
//	import (
//	    "github.com/gogpu/molsurf"
//	    "github.com/gogpu/molsurf/molfile"
//	)
//
//	atoms, err := molfile.Load("1crn.pdb")
//	if err != nil {
//	    return err
//	}
//	r, err := molsurf.NewRenderer(atoms, molsurf.DefaultParams())
//	if err != nil {
//	    return err
//	}
//	defer r.Close()
//
//	cam := molsurf.NewOrbitCamera(r.Center(), 60, 30, 20, 800, 600)
//	frame, err := r.Render(cam, molsurf.HostFrame{})
//
// # Pipeline
//
// A frame runs five stages as a task graph: Init, Splat and Resample build
// the field, BackDepth computes the cube exit distance per pixel, and March
// composites the surface. BackDepth has no dependency on the density stages
// and runs alongside them. The density is rebuilt only when the atoms or a
// density parameter change.
//
// # GPU acceleration
//
// The density stages can run on a GPU compute device. Opt in with a blank
// import:
//
//	import _ "github.com/gogpu/molsurf/gpu"
//
// Any accelerator failure falls back to the CPU path for that frame.
//
// # Logging
//
// molsurf is silent by default. See [SetLogger].
package molsurf
