// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package volume

import (
	"math"
	"math/rand/v2"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/gogpu/molsurf/internal/parallel"
)

func newPool(t *testing.T) *parallel.WorkerPool {
	t.Helper()
	pool := parallel.NewWorkerPool(4)
	t.Cleanup(pool.Close)
	return pool
}

func build(pool *parallel.WorkerPool, size int, atoms []Atom, dom Domain, k Kernel) *Grid {
	g := NewGrid(size)
	Init(pool, g, nil)
	Splat(pool, g, nil, atoms, dom, k)
	return g
}

// =============================================================================
// Grid
// =============================================================================

func TestGrid_ConcurrentAdd(t *testing.T) {
	g := NewGrid(2)
	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 1000 {
				g.Add(3, 1)
			}
		}()
	}
	wg.Wait()

	if got := g.At(3); got != 8000 {
		t.Errorf("cell value = %v, want 8000", got)
	}
	if g.Len() != 8 {
		t.Errorf("Len() = %d, want 8", g.Len())
	}
}

func TestInit_ZeroesEveryCell(t *testing.T) {
	pool := newPool(t)
	const size = 13 // not a multiple of BlockEdge
	g := NewGrid(size)
	n := NewNormalGrid(size)
	for i := range g.Len() {
		g.Store(i, 7)
		n.Add(i, 1, 2, 3)
	}

	Init(pool, g, n)

	for i := range g.Len() {
		if g.At(i) != 0 || n.X.At(i) != 0 || n.Y.At(i) != 0 || n.Z.At(i) != 0 {
			t.Fatalf("cell %d not cleared", i)
		}
	}
}

// =============================================================================
// Splat
// =============================================================================

func TestSplat_OrderIndependent(t *testing.T) {
	pool := newPool(t)
	rng := rand.New(rand.NewPCG(1, 2))
	atoms := make([]Atom, 300)
	for i := range atoms {
		atoms[i] = Atom{
			X:      rng.Float32()*16 - 8,
			Y:      rng.Float32()*16 - 8,
			Z:      rng.Float32()*16 - 8,
			Radius: 1 + rng.Float32(),
		}
	}
	dom := Domain{Size: 24, Scale: 1}
	k := Kernel{Smoothness: 0.8}

	want := build(pool, 24, atoms, dom, k).Values()

	shuffled := append([]Atom(nil), atoms...)
	rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })
	got := build(pool, 24, shuffled, dom, k).Values()

	if diff := cmp.Diff(want, got, cmpopts.EquateApprox(1e-4, 1e-6)); diff != "" {
		t.Errorf("splat depends on atom order (-want +got):\n%s", diff)
	}
}

func TestSplat_SingleAtomRadial(t *testing.T) {
	pool := newPool(t)
	const size = 32
	dom := Domain{Center: [3]float32{5, -2, 1}, Size: size, Scale: 1}
	atom := Atom{X: 5, Y: -2, Z: 1, Radius: 3}
	g := build(pool, size, []Atom{atom}, dom, Kernel{Smoothness: 0.8})

	const tol = 1e-6
	at := func(x, y, z int) float32 { return g.At(g.Index(x, y, z)) }

	// The atom sits on the corner shared by cells 15 and 16.
	for i := 0; i < size/2; i++ {
		a, b := at(16+i, 16, 16), at(15-i, 16, 16)
		if math.Abs(float64(a-b)) > tol*math.Max(1, float64(a)) {
			t.Errorf("x mirror %d: %v != %v", i, a, b)
		}
		if c := at(16, 16+i, 16); math.Abs(float64(a-c)) > tol*math.Max(1, float64(a)) {
			t.Errorf("x/y symmetry %d: %v != %v", i, a, c)
		}
		if c := at(16, 16, 16+i); math.Abs(float64(a-c)) > tol*math.Max(1, float64(a)) {
			t.Errorf("x/z symmetry %d: %v != %v", i, a, c)
		}
		if i > 0 && a > at(16+i-1, 16, 16) {
			t.Errorf("density increases with distance at step %d", i)
		}
	}
	if at(16, 16, 16) <= 1 {
		t.Errorf("centre density = %v, want > 1 inside the radius", at(16, 16, 16))
	}
	if at(0, 0, 0) != 0 {
		t.Errorf("corner density = %v, want 0 beyond cutoff", at(0, 0, 0))
	}
}

func TestSplat_NoAtomsGivesZeroField(t *testing.T) {
	pool := newPool(t)
	g := build(pool, 9, nil, Domain{Size: 9, Scale: 1}, Kernel{Smoothness: 1})
	for i := range g.Len() {
		if g.At(i) != 0 {
			t.Fatalf("cell %d = %v, want 0", i, g.At(i))
		}
	}
}

func TestSplat_SkipsAtomsWithoutInfluence(t *testing.T) {
	pool := newPool(t)
	dom := Domain{Size: 8, Scale: 1}
	g := build(pool, 8, []Atom{{Radius: 0}, {Radius: -2}}, dom, Kernel{Smoothness: 1})
	for i := range g.Len() {
		if g.At(i) != 0 {
			t.Fatalf("cell %d = %v, want 0", i, g.At(i))
		}
	}
}

func TestSplat_ClipsAtGridBoundary(t *testing.T) {
	pool := newPool(t)
	dom := Domain{Size: 8, Scale: 1}
	// Centre just outside the +x face.
	g := build(pool, 8, []Atom{{X: 4.5, Radius: 2}}, dom, Kernel{Smoothness: 0.8})
	if g.At(g.Index(7, 4, 4)) <= 0 {
		t.Error("cell next to the atom received no contribution")
	}
	if g.At(g.Index(0, 4, 4)) != 0 {
		t.Error("far cell should be beyond the cutoff")
	}
}

func TestSplat_NormalsPointOutward(t *testing.T) {
	pool := newPool(t)
	const size = 32
	dom := Domain{Size: size, Scale: 1}
	atoms := []Atom{{Radius: 4}}
	k := Kernel{Smoothness: 0.8}

	g := NewGrid(size)
	n := NewNormalGrid(size)
	Init(pool, g, n)
	Splat(pool, g, n, atoms, dom, k)

	withNormals := NewField(size, true)
	Resample(pool, g, n, withNormals)
	plain := NewField(size, false)
	Resample(pool, g, nil, plain)

	for _, p := range [][3]float32{{22.5, 16, 16}, {16, 9.5, 16}, {20.5, 20.5, 16}} {
		a := withNormals.Normal(p[0], p[1], p[2])
		b := plain.Normal(p[0], p[1], p[2])
		dot := a[0]*b[0] + a[1]*b[1] + a[2]*b[2]
		if dot < 0.98 {
			t.Errorf("at %v atom normal %v disagrees with gradient normal %v (dot %v)", p, a, b, dot)
		}
		radial := [3]float32{p[0] - 16, p[1] - 16, p[2] - 16}
		if a[0]*radial[0]+a[1]*radial[1]+a[2]*radial[2] <= 0 {
			t.Errorf("at %v normal %v points inward", p, a)
		}
	}
}

// =============================================================================
// Resample and Field
// =============================================================================

func TestResample_Idempotent(t *testing.T) {
	pool := newPool(t)
	dom := Domain{Size: 20, Scale: 1.5}
	g := build(pool, 20, []Atom{{X: 1, Radius: 2}, {Y: -2, Z: 1, Radius: 1.5}}, dom, Kernel{Smoothness: 2})

	a := NewField(20, false)
	Resample(pool, g, nil, a)
	first := append([]float32(nil), a.Data()...)
	Resample(pool, g, nil, a)

	for i, v := range a.Data() {
		if math.Float32bits(v) != math.Float32bits(first[i]) {
			t.Fatalf("cell %d changed between resamples: %v -> %v", i, first[i], v)
		}
		if v != g.At(i) {
			t.Fatalf("cell %d = %v, grid has %v", i, v, g.At(i))
		}
	}
}

func TestField_Sample(t *testing.T) {
	f := NewField(4, false)
	for z := range 4 {
		for y := range 4 {
			for x := range 4 {
				f.Data()[x+y*4+z*16] = float32(x + 10*y + 100*z)
			}
		}
	}

	tests := []struct {
		name    string
		x, y, z float32
		want    float32
	}{
		{"cell centre", 1.5, 2.5, 0.5, 21},
		{"between x centres", 2, 0.5, 0.5, 1.5},
		{"between z centres", 0.5, 0.5, 2, 150},
		{"corner of eight cells", 2, 2, 2, 166.5},
		{"clamped below", -3, 0.5, 0.5, 0},
		{"clamped above", 9, 3.5, 3.5, 333},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := f.Sample(tt.x, tt.y, tt.z); math.Abs(float64(got-tt.want)) > 1e-4 {
				t.Errorf("Sample(%v, %v, %v) = %v, want %v", tt.x, tt.y, tt.z, got, tt.want)
			}
		})
	}

	f.SetFilter(FilterBilinear)
	if got := f.Sample(0.5, 0.5, 2.2); got != 200 {
		t.Errorf("bilinear Sample between slices = %v, want nearest slice value 200", got)
	}
	if f.Filter().String() != "bilinear" {
		t.Errorf("Filter().String() = %q", f.Filter().String())
	}
}

func TestKernel(t *testing.T) {
	k := Kernel{Smoothness: 0.8}
	if got := k.Eval(4, 4); got != 1 {
		t.Errorf("Eval at radius = %v, want 1", got)
	}
	rc := k.Cutoff(2)
	if got := k.Eval(rc*rc, 4); math.Abs(got-CutoffEpsilon) > 1e-9 {
		t.Errorf("Eval at cutoff = %v, want %v", got, CutoffEpsilon)
	}
	sharp := Kernel{Smoothness: 8}
	if sharp.Eval(9, 4) >= k.Eval(9, 4) {
		t.Error("higher smoothness should fall off faster outside the radius")
	}
}

func TestDomain_Bounds(t *testing.T) {
	d := Domain{Center: [3]float32{1, 2, 3}, Size: 32, Scale: 2}
	lo, hi := d.Bounds()
	if lo != [3]float32{-7, -6, -5} || hi != [3]float32{9, 10, 11} {
		t.Errorf("Bounds() = %v, %v", lo, hi)
	}
	if g := d.ToGrid([3]float32{1, 2, 3}); g != [3]float32{16, 16, 16} {
		t.Errorf("ToGrid(centre) = %v, want grid middle", g)
	}
}
