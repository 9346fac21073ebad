//go:build !nogpu

// Package gpu registers the wgpu density accelerator.
//
// Import it for its side effect:
//
//	import _ "github.com/gogpu/molsurf/gpu"
//
// Renderers created afterwards build the density field with compute
// shaders. If no Vulkan adapter is found the accelerator still registers
// but declines every job, and the density stages run on the CPU. The ray
// march and composite always run on the CPU.
package gpu

import (
	"github.com/gogpu/gpucontext"

	"github.com/gogpu/molsurf"
	gpuimpl "github.com/gogpu/molsurf/internal/gpu"
)

func init() {
	accel := &gpuimpl.DensityAccelerator{}
	if err := molsurf.RegisterAccelerator(accel); err != nil {
		molsurf.Logger().Warn("GPU density accelerator not available", "err", err)
	}
}

// SetDeviceProvider makes the density accelerator share the GPU device of
// a host application instead of opening its own.
//
// The provider must also expose HalDevice() any and HalQueue() any
// returning wgpu/hal types; gogpu windows do.
func SetDeviceProvider(provider gpucontext.DeviceProvider) error {
	return molsurf.SetAcceleratorDeviceProvider(provider)
}
