package raymarch

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/gogpu/molsurf/internal/parallel"
	"github.com/gogpu/molsurf/internal/volume"
)

const (
	// ExitTransmittance ends a ray once less than this fraction of the
	// background can still show through.
	ExitTransmittance = 1e-5

	// DepthAlpha is the accumulated opacity at which the surface depth is
	// recorded.
	DepthAlpha = 0.5

	ambient = 0.25
)

// Params controls a single March call.
type Params struct {
	NumSteps  int
	FixedStep bool // step = cube edge / NumSteps instead of segment / NumSteps
	Threshold float32
	Opacity   float32
	Color     [4]float32 // straight RGBA; A scales every sample
	RayOffset float32
	Lighting  bool

	// FullTraversal disables the early exit. Used to verify that the early
	// exit does not change the result.
	FullTraversal bool
}

// Layer is the output of March: premultiplied RGBA per pixel and the
// window-space depth of the surface (1 where nothing was hit).
type Layer struct {
	Color []float32
	Depth []float32
}

// NewLayer allocates a layer for w*h pixels.
func NewLayer(w, h int) Layer {
	return Layer{Color: make([]float32, 4*w*h), Depth: make([]float32, w*h)}
}

// March casts one ray per pixel through the field and writes the
// composited surface into out.
//
// back holds the per-pixel cube exit distance from BackDepth. hostDepth is
// the host scene's window depth and may be nil; where present it limits the
// ray so the surface is hidden behind opaque host geometry.
func March(pool *parallel.WorkerPool, v View, cube Cube, dom volume.Domain, field *volume.Field,
	back, hostDepth []float32, p Params, out Layer) {
	steps := max(p.NumSteps, 1)
	pool.ForTiles(v.Width, v.Height, func(t parallel.Tile) {
		for py := t.Y0; py < t.Y1; py++ {
			for px := t.X0; px < t.X1; px++ {
				i := py*v.Width + px
				c, depth := marchPixel(v, cube, dom, field, back, hostDepth, p, steps, px, py)
				copy(out.Color[4*i:4*i+4], c[:])
				out.Depth[i] = depth
			}
		}
	})
}

func marchPixel(v View, cube Cube, dom volume.Domain, field *volume.Field,
	back, hostDepth []float32, p Params, steps, px, py int) ([4]float32, float32) {
	i := py*v.Width + px
	tExit := back[i]
	if tExit <= NoExit {
		return [4]float32{}, 1
	}
	dir := v.Ray(px, py)
	tEnter, _, hit := cube.Intersect(v.Eye, dir)
	if !hit {
		return [4]float32{}, 1
	}
	tEnter = max(tEnter, 0)
	if hostDepth != nil {
		tExit = min(tExit, v.DistanceAtDepth(px, py, hostDepth[i]))
	}
	if tExit <= tEnter {
		return [4]float32{}, 1
	}

	step := (tExit - tEnter) / float32(steps)
	if p.FixedStep {
		step = cube.Edge() / float32(steps)
	}
	if step <= 0 {
		return [4]float32{}, 1
	}
	t := tEnter + p.RayOffset*gradientNoise(px, py)*step

	var (
		rgb      [3]float32
		alpha    float32
		depthT   = float32(-1)
		bestT    float32
		bestW    float32
		maxSteps = int(math.Ceil(float64((tExit-tEnter)/step))) + 1
	)
	for k := 0; k < maxSteps && t < tExit; k++ {
		pos := v.Eye.Add(dir.Mul(t))
		g := dom.ToGrid([3]float32(pos))
		rho := field.Sample(g[0], g[1], g[2])
		if rho > p.Threshold {
			a := clamp01((rho-p.Threshold)*p.Opacity) * p.Color[3]
			shade := float32(1)
			if p.Lighting {
				shade = lambert(field.Normal(g[0], g[1], g[2]), dir)
			}
			w := (1 - alpha) * a
			rgb[0] += w * p.Color[0] * shade
			rgb[1] += w * p.Color[1] * shade
			rgb[2] += w * p.Color[2] * shade
			alpha += w
			if w > bestW {
				bestW, bestT = w, t
			}
			if depthT < 0 && alpha >= DepthAlpha {
				depthT = t
			}
			if !p.FullTraversal && 1-alpha < ExitTransmittance {
				break
			}
		}
		t += step
	}

	if alpha <= 0 {
		return [4]float32{}, 1
	}
	if depthT < 0 {
		depthT = bestT
	}
	depth := v.WindowDepth(v.Eye.Add(dir.Mul(depthT)))
	return [4]float32{rgb[0], rgb[1], rgb[2], alpha}, depth
}

func lambert(n [3]float32, dir mgl32.Vec3) float32 {
	if n == ([3]float32{}) {
		return 1
	}
	d := -(n[0]*dir[0] + n[1]*dir[1] + n[2]*dir[2])
	return ambient + (1-ambient)*max(d, 0)
}

// gradientNoise is interleaved gradient noise: a cheap per-pixel value in
// [0, 1) that breaks up banding between neighbouring rays.
func gradientNoise(px, py int) float32 {
	f := 0.06711056*float64(px) + 0.00583715*float64(py)
	f -= math.Floor(f)
	n := 52.9829189 * f
	return float32(n - math.Floor(n))
}
