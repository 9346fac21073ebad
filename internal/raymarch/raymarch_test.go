package raymarch

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/gogpu/molsurf/internal/parallel"
	"github.com/gogpu/molsurf/internal/volume"
)

const testSize = 32

type scene struct {
	pool  *parallel.WorkerPool
	dom   volume.Domain
	cube  Cube
	field *volume.Field
}

// newScene builds a single sphere of radius 4 at the origin in a 32^3
// volume spanning [-16, 16] on every axis.
func newScene(t *testing.T) scene {
	t.Helper()
	return newSceneOf(t, []volume.Atom{{Radius: 4}})
}

func newSceneOf(t *testing.T, atoms []volume.Atom) scene {
	t.Helper()
	pool := parallel.NewWorkerPool(4)
	t.Cleanup(pool.Close)

	dom := volume.Domain{Size: testSize, Scale: 1}
	g := volume.NewGrid(testSize)
	volume.Init(pool, g, nil)
	volume.Splat(pool, g, nil, atoms, dom, volume.Kernel{Smoothness: 0.8})
	f := volume.NewField(testSize, false)
	volume.Resample(pool, g, nil, f)

	lo, hi := dom.Bounds()
	return scene{pool: pool, dom: dom, cube: Cube{Min: lo, Max: hi}, field: f}
}

func newView(eye mgl32.Vec3, fovDeg float32, w, h int) View {
	view := mgl32.LookAtV(eye, mgl32.Vec3{}, mgl32.Vec3{0, 1, 0})
	proj := mgl32.Perspective(mgl32.DegToRad(fovDeg), float32(w)/float32(h), 0.1, 100)
	return NewView(view, proj, w, h)
}

func defaultParams() Params {
	return Params{
		NumSteps:  256,
		Threshold: 0.8,
		Opacity:   1,
		Color:     [4]float32{1, 1, 1, 1},
	}
}

func (s scene) render(v View, host []float32, p Params) Layer {
	back := make([]float32, v.Width*v.Height)
	BackDepth(s.pool, v, s.cube, back)
	out := NewLayer(v.Width, v.Height)
	March(s.pool, v, s.cube, s.dom, s.field, back, host, p, out)
	return out
}

func approx(a, b, tol float32) bool {
	return float32(math.Abs(float64(a-b))) <= tol
}

// =============================================================================
// Cube
// =============================================================================

func TestCube_Intersect(t *testing.T) {
	c := Cube{Min: mgl32.Vec3{-1, -1, -1}, Max: mgl32.Vec3{1, 1, 1}}

	tests := []struct {
		name        string
		origin, dir mgl32.Vec3
		enter, exit float32
		hit         bool
	}{
		{"outside towards", mgl32.Vec3{0, 0, 5}, mgl32.Vec3{0, 0, -1}, 4, 6, true},
		{"inside", mgl32.Vec3{0, 0, 0}, mgl32.Vec3{1, 0, 0}, -1, 1, true},
		{"outside away", mgl32.Vec3{0, 0, 5}, mgl32.Vec3{0, 0, 1}, 0, 0, false},
		{"parallel outside slab", mgl32.Vec3{0, 3, 5}, mgl32.Vec3{0, 0, -1}, 0, 0, false},
		{"diagonal miss", mgl32.Vec3{0, 0, 5}, mgl32.Vec3{1, 0, -1}.Normalize(), 0, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			enter, exit, hit := c.Intersect(tt.origin, tt.dir)
			if hit != tt.hit {
				t.Fatalf("hit = %v, want %v", hit, tt.hit)
			}
			if hit && (!approx(enter, tt.enter, 1e-5) || !approx(exit, tt.exit, 1e-5)) {
				t.Errorf("Intersect = (%v, %v), want (%v, %v)", enter, exit, tt.enter, tt.exit)
			}
		})
	}
	if !c.Contains(mgl32.Vec3{1, 0, -1}) || c.Contains(mgl32.Vec3{1.1, 0, 0}) {
		t.Error("Contains disagrees with the cube bounds")
	}
}

// =============================================================================
// BackDepth
// =============================================================================

func TestBackDepth_CameraOutside(t *testing.T) {
	s := newScene(t)
	v := newView(mgl32.Vec3{0, 0, 40}, 90, 32, 32)
	back := make([]float32, 32*32)
	BackDepth(s.pool, v, s.cube, back)

	// Pixel (16, 16) is just off-axis; its exit lies on the z = -16 face.
	if d := back[16*32+16]; d < 56 || d > 56.5 {
		t.Errorf("centre exit distance = %v, want about 56", d)
	}
	if back[0] != NoExit {
		t.Errorf("corner pixel exit = %v, want NoExit", back[0])
	}
}

func TestBackDepth_CameraInside(t *testing.T) {
	s := newScene(t)
	v := newView(mgl32.Vec3{0, 0, 10}, 60, 16, 16)
	back := make([]float32, 16*16)
	BackDepth(s.pool, v, s.cube, back)

	for i, d := range back {
		if d <= 0 {
			t.Fatalf("pixel %d exit = %v, want a positive distance from inside the cube", i, d)
		}
	}
}

// =============================================================================
// March
// =============================================================================

func TestMarch_HitsSurface(t *testing.T) {
	s := newScene(t)
	v := newView(mgl32.Vec3{0, 0, 40}, 90, 32, 32)
	out := s.render(v, nil, defaultParams())

	c := 16*32 + 16
	if a := out.Color[4*c+3]; a < 0.99 {
		t.Errorf("centre alpha = %v, want opaque", a)
	}
	surface := v.WindowDepth(mgl32.Vec3{0, 0, 4.5})
	if d := out.Depth[c]; math.Abs(float64(d-surface)) > 1e-3 {
		t.Errorf("centre depth = %v, want about %v", d, surface)
	}
	if out.Color[3] != 0 || out.Depth[0] != 1 {
		t.Errorf("corner pixel = alpha %v depth %v, want untouched", out.Color[3], out.Depth[0])
	}
}

func TestMarch_EarlyExitMatchesFullTraversal(t *testing.T) {
	s := newScene(t)
	v := newView(mgl32.Vec3{0, 0, 40}, 45, 24, 24)
	p := defaultParams()
	p.Lighting = true

	fast := s.render(v, nil, p)
	p.FullTraversal = true
	full := s.render(v, nil, p)

	for i := range fast.Color {
		if !approx(fast.Color[i], full.Color[i], 1e-4) {
			t.Fatalf("color[%d] = %v with early exit, %v without", i, fast.Color[i], full.Color[i])
		}
	}
	for i := range fast.Depth {
		if !approx(fast.Depth[i], full.Depth[i], 1e-4) {
			t.Fatalf("depth[%d] = %v with early exit, %v without", i, fast.Depth[i], full.Depth[i])
		}
	}
}

func TestMarch_CameraInsideCube(t *testing.T) {
	s := newScene(t)
	v := newView(mgl32.Vec3{0, 0, 10}, 45, 16, 16)
	out := s.render(v, nil, defaultParams())

	c := 8*16 + 8
	if a := out.Color[4*c+3]; a < 0.99 {
		t.Errorf("centre alpha = %v, want the sphere visible from inside the cube", a)
	}
	d := out.Depth[c]
	if d < 0 || d >= 1 {
		t.Fatalf("centre depth = %v, want a surface in front of the eye", d)
	}
	// The front of the sphere is about 6 units ahead.
	if dist := v.DistanceAtDepth(8, 8, d); dist <= 0 || dist > 10 {
		t.Errorf("surface distance = %v, want between the eye and the centre", dist)
	}
}

func TestMarch_CameraInsideCubeIgnoresGeometryBehind(t *testing.T) {
	// A dense atom between the eye and the near face of the cube.
	s := newSceneOf(t, []volume.Atom{{Z: 10, Radius: 3}})
	v := newView(mgl32.Vec3{0, 0, 4}, 45, 16, 16)
	out := s.render(v, nil, defaultParams())

	for i := range v.Width * v.Height {
		if a := out.Color[4*i+3]; a != 0 {
			t.Fatalf("pixel %d alpha = %v from an atom behind the camera", i, a)
		}
		if out.Depth[i] != 1 {
			t.Fatalf("pixel %d depth = %v, want 1", i, out.Depth[i])
		}
	}
}

func TestMarch_HostDepthOccludes(t *testing.T) {
	s := newScene(t)
	v := newView(mgl32.Vec3{0, 0, 40}, 45, 16, 16)

	// An opaque wall 20 units from the eye, in front of the sphere.
	host := make([]float32, 16*16)
	for py := range 16 {
		for px := range 16 {
			host[py*16+px] = v.WindowDepth(v.Eye.Add(v.Ray(px, py).Mul(20)))
		}
	}
	out := s.render(v, host, defaultParams())

	for i := range host {
		if out.Color[4*i+3] != 0 {
			t.Fatalf("pixel %d alpha = %v behind the host wall", i, out.Color[4*i+3])
		}
	}
}

func TestMarch_RayOffsetStaysClose(t *testing.T) {
	s := newScene(t)
	v := newView(mgl32.Vec3{0, 0, 40}, 45, 16, 16)
	p := defaultParams()
	base := s.render(v, nil, p)
	p.RayOffset = 1
	jittered := s.render(v, nil, p)

	c := 8*16 + 8
	if !approx(base.Color[4*c+3], jittered.Color[4*c+3], 0.01) {
		t.Errorf("alpha %v vs %v with ray offset", base.Color[4*c+3], jittered.Color[4*c+3])
	}
	if !approx(base.Depth[c], jittered.Depth[c], 1e-3) {
		t.Errorf("depth %v vs %v with ray offset", base.Depth[c], jittered.Depth[c])
	}
}

func TestMarch_FixedStepHitsSurface(t *testing.T) {
	s := newScene(t)
	v := newView(mgl32.Vec3{0, 0, 40}, 45, 16, 16)
	p := defaultParams()
	p.FixedStep = true
	out := s.render(v, nil, p)

	c := 8*16 + 8
	if a := out.Color[4*c+3]; a < 0.99 {
		t.Errorf("centre alpha = %v with fixed steps", a)
	}
}

func TestGradientNoise_Range(t *testing.T) {
	for py := range 64 {
		for px := range 64 {
			if n := gradientNoise(px, py); n < 0 || n >= 1 {
				t.Fatalf("gradientNoise(%d, %d) = %v", px, py, n)
			}
		}
	}
}

// =============================================================================
// Composite
// =============================================================================

func TestComposite(t *testing.T) {
	pool := parallel.NewWorkerPool(2)
	defer pool.Close()

	layer := NewLayer(2, 1)
	// Pixel 1: half-covered red surface at depth 0.3.
	copy(layer.Color[4:8], []float32{0.5, 0, 0, 0.5})
	layer.Depth[0], layer.Depth[1] = 1, 0.3

	hostColor := []float32{0.1, 0.2, 0.3, 1, 0, 0, 1, 1}
	hostDepth := []float32{0.7, 0.6}
	dstColor := make([]float32, 8)
	dstDepth := make([]float32, 2)

	Composite(pool, 2, 1, layer, hostColor, hostDepth, dstColor, dstDepth)

	for c := range 4 {
		if dstColor[c] != hostColor[c] {
			t.Errorf("uncovered pixel channel %d = %v, want host %v", c, dstColor[c], hostColor[c])
		}
	}
	if dstDepth[0] != 0.7 {
		t.Errorf("uncovered depth = %v, want host depth", dstDepth[0])
	}
	want := []float32{0.5, 0, 0.5, 1}
	for c := range 4 {
		if !approx(dstColor[4+c], want[c], 1e-6) {
			t.Errorf("covered pixel channel %d = %v, want %v", c, dstColor[4+c], want[c])
		}
	}
	if dstDepth[1] != 0.3 {
		t.Errorf("covered depth = %v, want surface depth 0.3", dstDepth[1])
	}
}

func TestComposite_NilHostDepthInPlace(t *testing.T) {
	pool := parallel.NewWorkerPool(1)
	defer pool.Close()

	layer := NewLayer(1, 1)
	color := []float32{0.25, 0.5, 0.75, 1}
	depth := []float32{0}
	Composite(pool, 1, 1, layer, color, nil, color, depth)

	if color[0] != 0.25 || color[3] != 1 || depth[0] != 1 {
		t.Errorf("passthrough in place = %v depth %v", color, depth)
	}
}
