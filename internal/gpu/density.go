//go:build !nogpu

package gpu

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/molsurf"

	// Import Vulkan backend so it registers via init().
	_ "github.com/gogpu/wgpu/hal/vulkan"
)

// maxBindingBytes is the default WebGPU maxStorageBufferBindingSize.
// Grids above it are left to the CPU.
const maxBindingBytes = 128 << 20

// maxWorkgroups is the per-dimension dispatch limit.
const maxWorkgroups = 65535

// DensityAccelerator builds the density field with wgpu/hal compute
// shaders. It implements molsurf.DensityAccelerator.
//
// Init never fails: without a usable adapter the accelerator stays
// registered and declines every job, so the renderer uses the CPU.
type DensityAccelerator struct {
	mu sync.Mutex

	instance hal.Instance
	device   hal.Device
	queue    hal.Queue

	bindLayout hal.BindGroupLayout
	pipeLayout hal.PipelineLayout
	shaders    []hal.ShaderModule
	pipelines  []hal.ComputePipeline // init, splat, resample

	gpuReady       bool
	externalDevice bool // shared device, not destroyed on Close
}

var (
	_ molsurf.DensityAccelerator  = (*DensityAccelerator)(nil)
	_ molsurf.DeviceProviderAware = (*DensityAccelerator)(nil)
)

func (a *DensityAccelerator) Name() string { return "wgpu-vulkan" }

func (a *DensityAccelerator) Init() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.initGPU(); err != nil {
		slogger().Warn("GPU init failed, density stays on the CPU", "err", err)
	}
	return nil
}

// Ready reports whether a device and pipelines are available.
func (a *DensityAccelerator) Ready() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.gpuReady
}

func (a *DensityAccelerator) Close() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.destroyPipelines()
	if !a.externalDevice {
		if a.device != nil {
			a.device.Destroy()
		}
		if a.instance != nil {
			a.instance.Destroy()
		}
	}
	a.device = nil
	a.instance = nil
	a.queue = nil
	a.gpuReady = false
	a.externalDevice = false
}

// SetLogger receives the logger propagated by molsurf.SetLogger.
func (a *DensityAccelerator) SetLogger(l *slog.Logger) { setLogger(l) }

// SetDeviceProvider switches the accelerator to a GPU device shared by a
// host application. The provider must implement HalDevice() any and
// HalQueue() any returning hal.Device and hal.Queue.
func (a *DensityAccelerator) SetDeviceProvider(provider any) error {
	type halProvider interface {
		HalDevice() any
		HalQueue() any
	}
	hp, ok := provider.(halProvider)
	if !ok {
		return fmt.Errorf("gpu-density: provider does not expose HAL types")
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return fmt.Errorf("gpu-density: provider HalDevice is not hal.Device")
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return fmt.Errorf("gpu-density: provider HalQueue is not hal.Queue")
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	a.destroyPipelines()
	if !a.externalDevice && a.device != nil {
		a.device.Destroy()
	}
	if a.instance != nil {
		a.instance.Destroy()
		a.instance = nil
	}

	a.device = device
	a.queue = queue
	a.externalDevice = true

	if err := a.createPipelines(); err != nil {
		a.gpuReady = false
		return fmt.Errorf("gpu-density: create pipelines with shared device: %w", err)
	}
	a.gpuReady = true
	slogger().Info("switched to shared GPU device")
	return nil
}

// BuildDensity runs the init, splat and resample passes and reads the field
// back into job.Field.
func (a *DensityAccelerator) BuildDensity(ctx context.Context, job molsurf.DensityJob) error {
	if reason := declineReason(job); reason != "" {
		slogger().Debug("declining density job", "reason", reason, "size", job.VolumeSize)
		return molsurf.ErrFallbackToCPU
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.gpuReady {
		return molsurf.ErrFallbackToCPU
	}
	return a.dispatchDensity(ctx, job)
}

// declineReason returns why job cannot run on the GPU, or "".
func declineReason(job molsurf.DensityJob) string {
	n := job.VolumeSize
	switch {
	case job.AtomNormals:
		return "atom normals"
	case n <= 0 || len(job.Field) != n*n*n:
		return "field size mismatch"
	case uint64(n)*uint64(n)*uint64(n)*4 > maxBindingBytes:
		return "grid exceeds storage binding"
	case uint64(len(job.Atoms))*16 > maxBindingBytes:
		return "atoms exceed storage binding"
	case (len(job.Atoms)+atomWorkgroupSize-1)/atomWorkgroupSize > maxWorkgroups:
		return "too many atoms for one dispatch"
	}
	return ""
}

func (a *DensityAccelerator) initGPU() error {
	backend, ok := hal.GetBackend(gputypes.BackendVulkan)
	if !ok {
		return fmt.Errorf("vulkan backend not available")
	}
	instance, err := backend.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return fmt.Errorf("create instance: %w", err)
	}
	a.instance = instance
	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		return fmt.Errorf("no GPU adapters found")
	}
	var selected *hal.ExposedAdapter
	for i := range adapters {
		if adapters[i].Info.DeviceType == gputypes.DeviceTypeDiscreteGPU ||
			adapters[i].Info.DeviceType == gputypes.DeviceTypeIntegratedGPU {
			selected = &adapters[i]
			break
		}
	}
	if selected == nil {
		selected = &adapters[0]
	}
	openDev, err := selected.Adapter.Open(gputypes.Features(0), gputypes.DefaultLimits())
	if err != nil {
		return fmt.Errorf("open device: %w", err)
	}
	a.device = openDev.Device
	a.queue = openDev.Queue
	if err := a.createPipelines(); err != nil {
		a.device.Destroy()
		a.device = nil
		a.queue = nil
		return fmt.Errorf("create pipelines: %w", err)
	}
	a.gpuReady = true
	slogger().Info("density accelerator initialized", "adapter", selected.Info.Name)
	return nil
}

// createPipelines builds one compute pipeline per density pass. All three
// share a bind group layout: params, atoms, grid, field.
func (a *DensityAccelerator) createPipelines() error {
	bindLayout, err := a.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "density_bind_layout",
		Entries: []gputypes.BindGroupLayoutEntry{
			{Binding: 0, Visibility: gputypes.ShaderStageCompute, Buffer: &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform}},
			{Binding: 1, Visibility: gputypes.ShaderStageCompute, Buffer: &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeReadOnlyStorage}},
			{Binding: 2, Visibility: gputypes.ShaderStageCompute, Buffer: &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeStorage}},
			{Binding: 3, Visibility: gputypes.ShaderStageCompute, Buffer: &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeStorage}},
		},
	})
	if err != nil {
		return fmt.Errorf("create density bind group layout: %w", err)
	}
	a.bindLayout = bindLayout

	pipeLayout, err := a.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label: "density_pipe_layout", BindGroupLayouts: []hal.BindGroupLayout{a.bindLayout},
	})
	if err != nil {
		return fmt.Errorf("create density pipeline layout: %w", err)
	}
	a.pipeLayout = pipeLayout

	for _, st := range densityStages() {
		module, err := a.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
			Label:  st.name,
			Source: hal.ShaderSource{WGSL: st.source},
		})
		if err != nil {
			return fmt.Errorf("compile %s shader: %w", st.name, err)
		}
		a.shaders = append(a.shaders, module)

		pipeline, err := a.device.CreateComputePipeline(&hal.ComputePipelineDescriptor{
			Label: st.name + "_pipeline", Layout: a.pipeLayout,
			Compute: hal.ComputeState{Module: module, EntryPoint: "main"},
		})
		if err != nil {
			return fmt.Errorf("create %s pipeline: %w", st.name, err)
		}
		a.pipelines = append(a.pipelines, pipeline)
	}
	return nil
}

func (a *DensityAccelerator) destroyPipelines() {
	if a.device == nil {
		return
	}
	for _, p := range a.pipelines {
		a.device.DestroyComputePipeline(p)
	}
	for _, m := range a.shaders {
		a.device.DestroyShaderModule(m)
	}
	a.pipelines, a.shaders = nil, nil
	if a.pipeLayout != nil {
		a.device.DestroyPipelineLayout(a.pipeLayout)
		a.pipeLayout = nil
	}
	if a.bindLayout != nil {
		a.device.DestroyBindGroupLayout(a.bindLayout)
		a.bindLayout = nil
	}
}
