package molsurf

// RendererOption configures a Renderer during creation.
//
// Example:
//
//	// CPU only, 4 workers, 1 GiB of grids at most
//	r, err := molsurf.NewRenderer(atoms, params,
//	    molsurf.WithCPUOnly(),
//	    molsurf.WithWorkers(4),
//	    molsurf.WithMemoryBudget(1<<30))
type RendererOption func(*rendererOptions)

// DefaultMemoryBudget bounds the bytes held by the grids and field.
const DefaultMemoryBudget = 4 << 30

type rendererOptions struct {
	workers     int
	accelerator DensityAccelerator
	cpuOnly     bool
	budget      uint64
}

func defaultOptions() rendererOptions {
	return rendererOptions{
		workers: 0, // GOMAXPROCS
		budget:  DefaultMemoryBudget,
	}
}

// WithWorkers sets the worker pool size. Zero or negative uses GOMAXPROCS.
func WithWorkers(n int) RendererOption {
	return func(o *rendererOptions) {
		o.workers = n
	}
}

// WithAccelerator injects a density accelerator instead of the registered
// one. The renderer does not call Init or Close on it.
func WithAccelerator(a DensityAccelerator) RendererOption {
	return func(o *rendererOptions) {
		o.accelerator = a
	}
}

// WithCPUOnly disables accelerators for this renderer.
func WithCPUOnly() RendererOption {
	return func(o *rendererOptions) {
		o.cpuOnly = true
	}
}

// WithMemoryBudget sets the maximum number of bytes the renderer may
// allocate for the density grids and field.
func WithMemoryBudget(bytes uint64) RendererOption {
	return func(o *rendererOptions) {
		o.budget = bytes
	}
}
