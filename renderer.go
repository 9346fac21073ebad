package molsurf

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/gogpu/molsurf/internal/graph"
	"github.com/gogpu/molsurf/internal/parallel"
	"github.com/gogpu/molsurf/internal/raymarch"
	"github.com/gogpu/molsurf/internal/volume"
)

// Resources shared between frame stages.
const (
	resAtoms graph.Resource = "atoms"
	resGrid  graph.Resource = "grid"
	resField graph.Resource = "field"
	resBack  graph.Resource = "backdepth"
	resHost  graph.Resource = "host"
	resLayer graph.Resource = "layer"
	resFrame graph.Resource = "frame"
)

// Renderer owns the density grids and renders frames of one atom set.
//
// Render, SetParams and SetAtoms serialize on an internal lock, so a
// Renderer may be shared between goroutines; frames are rendered one at a
// time.
type Renderer struct {
	mu sync.Mutex

	params Params
	atoms  []Atom
	center [3]float32

	pool   *parallel.WorkerPool
	accel  DensityAccelerator
	budget uint64

	grid    *volume.Grid
	normals *volume.NormalGrid
	field   *volume.Field

	// built is the density key the field was last built with; valid is
	// false until the first successful build and after SetAtoms.
	built densityKey
	valid bool

	surfaces surfacePool
	frames   uint64
	closed   bool
}

// NewRenderer creates a renderer for atoms. The atoms are copied. An empty
// atom set is allowed and renders the host frame unchanged.
//
// Returns an error wrapping ErrResource when the grids for
// params.VolumeSize exceed the memory budget, and ErrInvalidAtom when an
// atom is not finite.
func NewRenderer(atoms []Atom, params Params, opts ...RendererOption) (*Renderer, error) {
	if err := CheckAtoms(atoms); err != nil {
		return nil, err
	}
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	r := &Renderer{
		params: params.Sanitize(),
		budget: o.budget,
	}
	switch {
	case o.cpuOnly:
	case o.accelerator != nil:
		r.accel = o.accelerator
	default:
		r.accel = Accelerator()
	}

	if err := r.allocate(r.params); err != nil {
		return nil, err
	}
	r.setAtoms(atoms)
	r.pool = parallel.NewWorkerPool(o.workers)

	log := Logger()
	log.Debug("molsurf: renderer created",
		"atoms", len(r.atoms), "volume_size", r.params.VolumeSize, "workers", r.pool.Workers())
	if r.accel != nil {
		log.Info("molsurf: using density accelerator", "name", r.accel.Name())
	}
	return r, nil
}

// gridBytes is the memory held by the grids and field for p.
func gridBytes(p Params) uint64 {
	n := uint64(2) // density grid + field
	if p.AtomNormals {
		n += 6 // normal grid + field normals
	}
	return volume.Bytes(p.VolumeSize) * n
}

// allocate replaces the grids with fresh ones for p. On failure the
// current grids are left untouched.
func (r *Renderer) allocate(p Params) error {
	need := gridBytes(p)
	if need > r.budget {
		return fmt.Errorf("%w: volume size %d needs %d bytes, budget %d",
			ErrResource, p.VolumeSize, need, r.budget)
	}

	grid := volume.NewGrid(p.VolumeSize)
	var normals *volume.NormalGrid
	if p.AtomNormals {
		normals = volume.NewNormalGrid(p.VolumeSize)
	}
	field := volume.NewField(p.VolumeSize, p.AtomNormals)

	r.grid, r.normals, r.field = grid, normals, field
	r.valid = false
	Logger().Debug("molsurf: grids allocated", "volume_size", p.VolumeSize, "bytes", need)
	return nil
}

func (r *Renderer) setAtoms(atoms []Atom) {
	r.atoms = append([]Atom(nil), atoms...)
	r.center = Center(r.atoms)
	r.valid = false
}

// Close releases the grids and the worker pool. It is safe to call more
// than once.
func (r *Renderer) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	r.closed = true
	r.pool.Close()
	r.grid, r.normals, r.field = nil, nil, nil
	r.accel = nil
	r.atoms = nil
	r.surfaces.flush()
}

// Params returns the current (sanitized) parameters.
func (r *Renderer) Params() Params {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.params
}

// Center returns the world-space centre of the volume.
func (r *Renderer) Center() [3]float32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.center
}

// Bounds returns the world-space bounding cube of the volume.
func (r *Renderer) Bounds() (lo, hi [3]float32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.domain().Bounds()
}

// SetParams sanitizes and applies p. When the volume size or the normal
// mode changes, the grids are reallocated before SetParams returns, so the
// next frame never splats into buffers of the old size. If the new grids
// exceed the memory budget the error wraps ErrResource and the previous
// parameters and grids stay in effect.
func (r *Renderer) SetParams(p Params) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrClosed
	}

	p = p.Sanitize()
	if p.VolumeSize != r.params.VolumeSize || p.AtomNormals != r.params.AtomNormals {
		if err := r.allocate(p); err != nil {
			return err
		}
	}
	r.params = p
	return nil
}

// SetAtoms replaces the atom set and recentres the volume. A non-finite
// atom is rejected with ErrInvalidAtom and the current set is kept.
func (r *Renderer) SetAtoms(atoms []Atom) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrClosed
	}
	if err := CheckAtoms(atoms); err != nil {
		return err
	}
	r.setAtoms(atoms)
	return nil
}

// Render draws one frame. See RenderContext.
func (r *Renderer) Render(cam Camera, host HostFrame) (*Frame, error) {
	return r.RenderContext(context.Background(), cam, host)
}

// RenderContext draws one frame of the surface over host.
//
// Host buffers, when present, must match the camera resolution; otherwise
// the error wraps ErrInvalidFrame. When a stage fails the returned frame is
// a copy of the host with Skipped set, and the error wraps ErrFrameSkipped.
func (r *Renderer) RenderContext(ctx context.Context, cam Camera, host HostFrame) (*Frame, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil, ErrClosed
	}
	if err := checkFrame(cam, host); err != nil {
		return nil, err
	}

	start := time.Now()
	r.frames++
	w, h := cam.Width, cam.Height

	frame := newFrame(w, h)
	s := r.surfaces.acquire(w, h)
	defer r.surfaces.release(s)

	p := r.params
	key := p.densityKey()
	rebuild := !r.valid || key != r.built
	frame.Stats = FrameStats{
		Frame:         r.frames,
		Atoms:         len(r.atoms),
		VolumeSize:    p.VolumeSize,
		DensityReused: !rebuild,
	}

	fr := &frameRun{r: r, p: p, cam: cam, view: cam.view(), host: host, frame: frame, s: s}
	frame.Stats.CameraInside = fr.cube().Contains(fr.view.Eye)
	tasks := fr.tasks(rebuild)
	g, err := graph.New(tasks...)
	if err != nil {
		return nil, err
	}

	timings, err := g.Execute(ctx)
	for _, t := range timings {
		if t.Ran {
			frame.Stats.Stages = append(frame.Stats.Stages, StageTiming{Name: t.Name, Duration: t.Duration})
		}
	}
	frame.Stats.Accelerator = fr.accelerated
	frame.Stats.Total = time.Since(start)

	if err != nil {
		r.valid = false
		frame.passThrough(host)
		frame.Skipped = true
		Logger().Warn("molsurf: frame skipped", "frame", r.frames, "err", err)
		return frame, fmt.Errorf("%w: %w", ErrFrameSkipped, err)
	}
	if rebuild {
		r.built, r.valid = key, true
	}

	Logger().Debug("molsurf: frame rendered", "frame", r.frames, "stats", frame.Stats.String())
	return frame, nil
}

func checkFrame(cam Camera, host HostFrame) error {
	if !cam.valid() {
		return fmt.Errorf("%w: camera has no resolution or matrices", ErrInvalidFrame)
	}
	if c := host.Color; c != nil && (c.Width() != cam.Width || c.Height() != cam.Height) {
		return fmt.Errorf("%w: color %dx%d, camera %dx%d",
			ErrInvalidFrame, c.Width(), c.Height(), cam.Width, cam.Height)
	}
	if d := host.Depth; d != nil && (d.Width() != cam.Width || d.Height() != cam.Height) {
		return fmt.Errorf("%w: depth %dx%d, camera %dx%d",
			ErrInvalidFrame, d.Width(), d.Height(), cam.Width, cam.Height)
	}
	return nil
}

func (r *Renderer) domain() volume.Domain {
	return volume.Domain{Center: r.center, Size: r.params.VolumeSize, Scale: r.params.Scale}
}

// frameRun carries the state of one Render call into its tasks.
type frameRun struct {
	r     *Renderer
	p     Params
	cam   Camera
	view  raymarch.View
	host  HostFrame
	frame *Frame
	s     *surfaces

	accelerated string
}

func (fr *frameRun) domain() volume.Domain {
	return volume.Domain{Center: fr.r.center, Size: fr.p.VolumeSize, Scale: fr.p.Scale}
}

func (fr *frameRun) kernel() volume.Kernel {
	return volume.Kernel{Smoothness: fr.p.SurfaceSmoothness}
}

// tasks lists the frame stages in declaration order. The graph derives
// the edges: backdepth only conflicts with march, so it runs while the
// density is being built.
func (fr *frameRun) tasks(rebuild bool) []graph.Task {
	var tasks []graph.Task
	if rebuild {
		if fr.r.accel != nil {
			tasks = append(tasks, graph.Task{
				Name:   "density",
				Reads:  []graph.Resource{resAtoms},
				Writes: []graph.Resource{resGrid, resField},
				Run:    fr.density,
			})
		} else {
			tasks = append(tasks, fr.cpuTasks()...)
		}
	}
	return append(tasks,
		graph.Task{
			Name:   "backdepth",
			Writes: []graph.Resource{resBack},
			Run:    fr.backDepth,
		},
		graph.Task{
			Name:   "march",
			Reads:  []graph.Resource{resField, resBack, resHost},
			Writes: []graph.Resource{resLayer},
			Run:    fr.march,
		},
		graph.Task{
			Name:   "composite",
			Reads:  []graph.Resource{resLayer, resHost},
			Writes: []graph.Resource{resFrame},
			Run:    fr.composite,
		},
	)
}

func (fr *frameRun) cpuTasks() []graph.Task {
	return []graph.Task{
		{Name: "init", Writes: []graph.Resource{resGrid}, Run: fr.init},
		{Name: "splat", Reads: []graph.Resource{resAtoms}, Writes: []graph.Resource{resGrid}, Run: fr.splat},
		{Name: "resample", Reads: []graph.Resource{resGrid}, Writes: []graph.Resource{resField}, Run: fr.resample},
	}
}

func (fr *frameRun) init(context.Context) error {
	volume.Init(fr.r.pool, fr.r.grid, fr.r.normals)
	return nil
}

func (fr *frameRun) splat(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	volume.Splat(fr.r.pool, fr.r.grid, fr.r.normals, fr.r.atoms, fr.domain(), fr.kernel())
	return nil
}

func (fr *frameRun) resample(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	volume.Resample(fr.r.pool, fr.r.grid, fr.r.normals, fr.r.field)
	return nil
}

// density runs the whole density build on the accelerator, falling back to
// the CPU stages when it declines or fails.
func (fr *frameRun) density(ctx context.Context) error {
	a := fr.r.accel
	err := a.BuildDensity(ctx, DensityJob{
		Atoms:       fr.r.atoms,
		VolumeSize:  fr.p.VolumeSize,
		Center:      fr.r.center,
		Scale:       fr.p.Scale,
		Smoothness:  fr.p.SurfaceSmoothness,
		AtomNormals: fr.p.AtomNormals,
		Field:       fr.r.field.Data(),
	})
	if err == nil {
		fr.accelerated = a.Name()
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if errors.Is(err, ErrFallbackToCPU) {
		Logger().Debug("molsurf: accelerator declined density job", "name", a.Name())
	} else {
		Logger().Warn("molsurf: accelerator failed, using CPU", "name", a.Name(), "err", err)
	}
	for _, run := range []func(context.Context) error{fr.init, fr.splat, fr.resample} {
		if err := run(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (fr *frameRun) cube() raymarch.Cube {
	lo, hi := fr.domain().Bounds()
	return raymarch.Cube{Min: mgl32.Vec3(lo), Max: mgl32.Vec3(hi)}
}

func (fr *frameRun) backDepth(context.Context) error {
	raymarch.BackDepth(fr.r.pool, fr.view, fr.cube(), fr.s.back)
	return nil
}

func (fr *frameRun) march(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	fr.r.field.SetFilter(fr.p.Filter)

	var hostDepth []float32
	if fr.host.Depth != nil {
		hostDepth = fr.host.Depth.data
	}
	raymarch.March(fr.r.pool, fr.view, fr.cube(), fr.domain(), fr.r.field,
		fr.s.back, hostDepth, fr.marchParams(), fr.s.layer)
	return nil
}

func (fr *frameRun) marchParams() raymarch.Params {
	return raymarch.Params{
		NumSteps:  fr.p.NumSteps,
		FixedStep: fr.p.StepMode == StepFixed,
		Threshold: fr.p.IntensityThreshold,
		Opacity:   fr.p.Opacity,
		Color:     fr.p.SurfaceColor.float32s(),
		RayOffset: fr.p.RayOffset,
		Lighting:  fr.p.Lighting,
	}
}

func (fr *frameRun) composite(context.Context) error {
	f := fr.frame
	copy(f.Layer.pix, fr.s.layer.Color)
	copy(f.LayerDepth.data, fr.s.layer.Depth)

	hostColor := f.Color.pix // transparent
	if fr.host.Color != nil {
		hostColor = fr.host.Color.pix
	}
	var hostDepth []float32
	if fr.host.Depth != nil {
		hostDepth = fr.host.Depth.data
	}
	raymarch.Composite(fr.r.pool, fr.cam.Width, fr.cam.Height, fr.s.layer,
		hostColor, hostDepth, f.Color.pix, f.Depth.data)
	return nil
}
