package molsurf

import (
	"context"
	"errors"
	"sync"
)

// ErrFallbackToCPU indicates the accelerator cannot handle this job.
// The renderer transparently falls back to the CPU density stages.
var ErrFallbackToCPU = errors.New("molsurf: falling back to CPU density")

// DensityJob describes one density build: clear, splat and resample.
//
// Field has VolumeSize^3 elements in grid order (x fastest) and receives
// the resampled density. The accelerator must not retain any slice after
// BuildDensity returns.
//
// AtomNormals asks for per-atom gradients as well. The job carries no
// buffer for them, so accelerators decline such jobs with ErrFallbackToCPU.
type DensityJob struct {
	Atoms       []Atom
	VolumeSize  int
	Center      [3]float32
	Scale       float32
	Smoothness  float32
	AtomNormals bool
	Field       []float32
}

// DensityAccelerator is an optional compute provider for the density
// stages. The ray march and composite always run on the CPU.
//
// Implementations live in backend packages. Opt in with a blank import:
//
//	import _ "github.com/gogpu/molsurf/gpu"
type DensityAccelerator interface {
	// Name returns the accelerator name (e.g., "wgpu-vulkan").
	Name() string

	// Init initializes device resources. Called once during registration.
	Init() error

	// Close releases device resources.
	Close()

	// BuildDensity runs Init, Splat and Resample for the job.
	// Returns ErrFallbackToCPU if the job cannot be accelerated.
	BuildDensity(ctx context.Context, job DensityJob) error
}

// DeviceProviderAware is an optional interface for accelerators that can
// share a GPU device with an external provider such as a host window.
type DeviceProviderAware interface {
	SetDeviceProvider(provider any) error
}

var (
	accelMu sync.RWMutex
	accel   DensityAccelerator
)

// RegisterAccelerator registers the density accelerator used by renderers
// created afterwards without WithAccelerator.
//
// Only one accelerator can be registered; a later call replaces and closes
// the previous one. Init is called during registration and on failure the
// accelerator is not registered.
func RegisterAccelerator(a DensityAccelerator) error {
	if a == nil {
		return errors.New("molsurf: accelerator must not be nil")
	}
	if err := a.Init(); err != nil {
		return err
	}
	propagateLogger(a, Logger())

	accelMu.Lock()
	old := accel
	accel = a
	accelMu.Unlock()
	if old != nil && old != a {
		old.Close()
	}
	Logger().Info("molsurf: accelerator registered", "name", a.Name())
	return nil
}

// Accelerator returns the registered accelerator, or nil if none.
func Accelerator() DensityAccelerator {
	accelMu.RLock()
	a := accel
	accelMu.RUnlock()
	return a
}

// UnregisterAccelerator removes and closes the registered accelerator.
func UnregisterAccelerator() {
	accelMu.Lock()
	old := accel
	accel = nil
	accelMu.Unlock()
	if old != nil {
		old.Close()
	}
}

// SetAcceleratorDeviceProvider passes a device provider to the registered
// accelerator so it reuses the host's GPU device. A no-op when no
// accelerator is registered or it does not support sharing.
//
// The provider should implement HalDevice() any and HalQueue() any
// returning wgpu/hal types.
func SetAcceleratorDeviceProvider(provider any) error {
	a := Accelerator()
	if a == nil {
		return nil
	}
	if dpa, ok := a.(DeviceProviderAware); ok {
		return dpa.SetDeviceProvider(provider)
	}
	return nil
}
