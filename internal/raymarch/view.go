package raymarch

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// View is the per-frame camera state the passes need: the eye position,
// the combined transforms and the frame size. Only perspective projections
// are supported; every pixel ray starts at the eye.
type View struct {
	Eye           mgl32.Vec3
	ViewProj      mgl32.Mat4
	InvViewProj   mgl32.Mat4
	Width, Height int
}

// NewView derives a View from view and projection matrices.
func NewView(view, proj mgl32.Mat4, width, height int) View {
	vp := proj.Mul4(view)
	eye := view.Inv().Mul4x1(mgl32.Vec4{0, 0, 0, 1})
	return View{
		Eye:         eye.Vec3().Mul(1 / eye.W()),
		ViewProj:    vp,
		InvViewProj: vp.Inv(),
		Width:       width,
		Height:      height,
	}
}

// Ray returns the unit direction of the ray through the centre of pixel
// (px, py). Row 0 is the top of the frame.
func (v View) Ray(px, py int) mgl32.Vec3 {
	nx := (float32(px)+0.5)/float32(v.Width)*2 - 1
	ny := 1 - (float32(py)+0.5)/float32(v.Height)*2
	far := v.unproject(nx, ny, 1)
	return far.Sub(v.Eye).Normalize()
}

// WindowDepth projects a world point and returns its window-space depth.
func (v View) WindowDepth(p mgl32.Vec3) float32 {
	clip := v.ViewProj.Mul4x1(p.Vec4(1))
	if clip.W() <= 0 {
		return 0
	}
	d := (clip.Z()/clip.W())*0.5 + 0.5
	return clamp01(d)
}

// DistanceAtDepth returns the distance from the eye along the ray of pixel
// (px, py) to the point stored with window depth d. Depth 1 (far plane or
// cleared background) maps to +Inf so it never clips a ray.
func (v View) DistanceAtDepth(px, py int, d float32) float32 {
	if d >= 1 {
		return float32(math.Inf(1))
	}
	nx := (float32(px)+0.5)/float32(v.Width)*2 - 1
	ny := 1 - (float32(py)+0.5)/float32(v.Height)*2
	p := v.unproject(nx, ny, d*2-1)
	return p.Sub(v.Eye).Len()
}

func (v View) unproject(nx, ny, nz float32) mgl32.Vec3 {
	w := v.InvViewProj.Mul4x1(mgl32.Vec4{nx, ny, nz, 1})
	return w.Vec3().Mul(1 / w.W())
}

func clamp01(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
