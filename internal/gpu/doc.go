//go:build !nogpu

// Package gpu implements the density accelerator on wgpu/hal compute
// shaders.
//
// The accelerator runs the three density passes in one command buffer:
//
//	density_init -> density_splat -> density_resample -> copy to staging
//
// The splat pass accumulates into an atomic<u32> grid holding f32 bits,
// updated with a compare-exchange loop, so atoms that overlap the same cell
// add without locks. The resampled field is read back and handed to the CPU
// ray marcher.
//
// Jobs the device cannot serve are declined with molsurf.ErrFallbackToCPU:
// no device, per-atom normals requested, or a grid larger than a storage
// binding allows.
package gpu
