//go:build !nogpu

package gpu

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"time"
	"unsafe"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/molsurf"
	"github.com/gogpu/molsurf/internal/volume"
)

// fenceTimeout bounds a single density submission.
const fenceTimeout = 5 * time.Second

// densityParams mirrors the DensityParams uniform in the shaders (32 bytes).
type densityParams struct {
	Center     [3]float32
	Scale      float32
	Size       uint32
	AtomCount  uint32
	Smoothness float32
	Cutoff     float32 // cutoff radius as a multiple of the atom radius
}

func makeDensityParams(job molsurf.DensityJob) densityParams {
	k := volume.Kernel{Smoothness: job.Smoothness}
	return densityParams{
		Center:     job.Center,
		Scale:      job.Scale,
		Size:       uint32(job.VolumeSize), //nolint:gosec // bounded by maxBindingBytes
		AtomCount:  uint32(len(job.Atoms)), //nolint:gosec // bounded by maxWorkgroups
		Smoothness: job.Smoothness,
		Cutoff:     float32(k.Cutoff(1)),
	}
}

// packAtoms lays atoms out as vec4<f32> (x, y, z, radius). An empty set
// still yields one zero record since buffers cannot be empty.
func packAtoms(atoms []molsurf.Atom) []byte {
	n := max(len(atoms), 1)
	out := make([]byte, n*16)
	for i, at := range atoms {
		o := out[i*16:]
		binary.LittleEndian.PutUint32(o[0:], math.Float32bits(at.X))
		binary.LittleEndian.PutUint32(o[4:], math.Float32bits(at.Y))
		binary.LittleEndian.PutUint32(o[8:], math.Float32bits(at.Z))
		binary.LittleEndian.PutUint32(o[12:], math.Float32bits(at.Radius))
	}
	return out
}

func unpackField(data []byte, dst []float32) {
	for i := range dst {
		dst[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
}

// densityBuffers holds the per-job GPU resources.
type densityBuffers struct {
	params, atoms, grid, field, staging hal.Buffer
	bindGroup                           hal.BindGroup
}

func (a *DensityAccelerator) releaseBuffers(b *densityBuffers) {
	if b.bindGroup != nil {
		a.device.DestroyBindGroup(b.bindGroup)
	}
	for _, buf := range []hal.Buffer{b.params, b.atoms, b.grid, b.field, b.staging} {
		if buf != nil {
			a.device.DestroyBuffer(buf)
		}
	}
}

func (a *DensityAccelerator) createBuffers(paramBytes, atomBytes []byte, fieldSize uint64) (*densityBuffers, error) {
	b := &densityBuffers{}
	specs := []struct {
		dst   *hal.Buffer
		label string
		size  uint64
		usage gputypes.BufferUsage
	}{
		{&b.params, "density_params", uint64(len(paramBytes)), gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst},
		{&b.atoms, "density_atoms", uint64(len(atomBytes)), gputypes.BufferUsageStorage | gputypes.BufferUsageCopyDst},
		{&b.grid, "density_grid", fieldSize, gputypes.BufferUsageStorage},
		{&b.field, "density_field", fieldSize, gputypes.BufferUsageStorage | gputypes.BufferUsageCopySrc},
		{&b.staging, "density_staging", fieldSize, gputypes.BufferUsageMapRead | gputypes.BufferUsageCopyDst},
	}
	for _, s := range specs {
		buf, err := a.device.CreateBuffer(&hal.BufferDescriptor{Label: s.label, Size: s.size, Usage: s.usage})
		if err != nil {
			a.releaseBuffers(b)
			return nil, fmt.Errorf("create %s buffer: %w", s.label, err)
		}
		*s.dst = buf
	}

	a.queue.WriteBuffer(b.params, 0, paramBytes)
	a.queue.WriteBuffer(b.atoms, 0, atomBytes)

	bg, err := a.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label: "density_bind", Layout: a.bindLayout,
		Entries: []gputypes.BindGroupEntry{
			{Binding: 0, Resource: gputypes.BufferBinding{Buffer: b.params.NativeHandle(), Offset: 0, Size: uint64(len(paramBytes))}},
			{Binding: 1, Resource: gputypes.BufferBinding{Buffer: b.atoms.NativeHandle(), Offset: 0, Size: uint64(len(atomBytes))}},
			{Binding: 2, Resource: gputypes.BufferBinding{Buffer: b.grid.NativeHandle(), Offset: 0, Size: fieldSize}},
			{Binding: 3, Resource: gputypes.BufferBinding{Buffer: b.field.NativeHandle(), Offset: 0, Size: fieldSize}},
		},
	})
	if err != nil {
		a.releaseBuffers(b)
		return nil, fmt.Errorf("create density bind group: %w", err)
	}
	b.bindGroup = bg
	return b, nil
}

// dispatchDensity encodes the three passes in a single command buffer.
// Passes are separate so storage writes of one are visible to the next.
func (a *DensityAccelerator) dispatchDensity(ctx context.Context, job molsurf.DensityJob) error {
	params := makeDensityParams(job)
	paramBytes := structToBytes(unsafe.Pointer(&params), unsafe.Sizeof(params)) //nolint:gosec // safe struct access
	atomBytes := packAtoms(job.Atoms)
	fieldSize := uint64(len(job.Field)) * 4

	bufs, err := a.createBuffers(paramBytes, atomBytes, fieldSize)
	if err != nil {
		return err
	}
	defer a.releaseBuffers(bufs)

	cells := uint32((job.VolumeSize + cellWorkgroupEdge - 1) / cellWorkgroupEdge)      //nolint:gosec // bounded size
	atomGroups := uint32((len(job.Atoms) + atomWorkgroupSize - 1) / atomWorkgroupSize) //nolint:gosec // bounded count
	dispatch := [][3]uint32{
		{cells, cells, cells},
		{atomGroups, 1, 1},
		{cells, cells, cells},
	}

	encoder, err := a.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: "density_encoder"})
	if err != nil {
		return fmt.Errorf("create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding("density"); err != nil {
		return fmt.Errorf("begin encoding: %w", err)
	}
	for i, pipeline := range a.pipelines {
		d := dispatch[i]
		if d[0] == 0 {
			continue
		}
		pass := encoder.BeginComputePass(&hal.ComputePassDescriptor{Label: densityStages()[i].name})
		pass.SetPipeline(pipeline)
		pass.SetBindGroup(0, bufs.bindGroup, nil)
		pass.Dispatch(d[0], d[1], d[2])
		pass.End()
	}
	encoder.CopyBufferToBuffer(bufs.field, bufs.staging, []hal.BufferCopy{
		{SrcOffset: 0, DstOffset: 0, Size: fieldSize},
	})
	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		return fmt.Errorf("end encoding: %w", err)
	}
	defer a.device.FreeCommandBuffer(cmdBuf)

	if err := ctx.Err(); err != nil {
		return err
	}

	fence, err := a.device.CreateFence()
	if err != nil {
		return fmt.Errorf("create fence: %w", err)
	}
	defer a.device.DestroyFence(fence)
	if err := a.queue.Submit([]hal.CommandBuffer{cmdBuf}, fence, 1); err != nil {
		return fmt.Errorf("submit: %w", err)
	}
	fenceOK, err := a.device.Wait(fence, 1, fenceTimeout)
	if err != nil || !fenceOK {
		return fmt.Errorf("wait for GPU: ok=%v err=%w", fenceOK, err)
	}

	readback := make([]byte, fieldSize)
	if err := a.queue.ReadBuffer(bufs.staging, 0, readback); err != nil {
		return fmt.Errorf("readback: %w", err)
	}
	unpackField(readback, job.Field)
	return nil
}

func structToBytes(ptr unsafe.Pointer, size uintptr) []byte {
	return unsafe.Slice((*byte)(ptr), size) //nolint:gosec // safe struct serialization
}
