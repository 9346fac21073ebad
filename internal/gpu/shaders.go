//go:build !nogpu

package gpu

import _ "embed"

// Embedded WGSL sources for the density passes. Each module has a single
// "main" compute entry point.

//go:embed shaders/density_init.wgsl
var densityInitShaderSource string

//go:embed shaders/density_splat.wgsl
var densitySplatShaderSource string

//go:embed shaders/density_resample.wgsl
var densityResampleShaderSource string

// Workgroup shapes declared by the shaders.
const (
	cellWorkgroupEdge = 4  // init and resample: 4x4x4 cells
	atomWorkgroupSize = 64 // splat: atoms per workgroup
)

// shaderStage pairs a pass name with its source.
type shaderStage struct {
	name   string
	source string
}

func densityStages() []shaderStage {
	return []shaderStage{
		{"density_init", densityInitShaderSource},
		{"density_splat", densitySplatShaderSource},
		{"density_resample", densityResampleShaderSource},
	}
}
