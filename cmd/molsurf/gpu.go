//go:build !nogpu

package main

// Registers the wgpu density accelerator. Build with -tags nogpu for a
// CPU-only binary.
import _ "github.com/gogpu/molsurf/gpu"
