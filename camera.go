package molsurf

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/gogpu/molsurf/internal/raymarch"
)

// Default projection settings used by NewOrbitCamera.
const (
	DefaultFovY = 45 // degrees
	DefaultNear = 0.1
	DefaultFar  = 1000
)

// Camera is a perspective camera: view and projection matrices in OpenGL
// conventions (right-handed, clip z in [-1, 1]) plus the frame size.
type Camera struct {
	View, Proj    mgl32.Mat4
	Width, Height int
}

// NewOrbitCamera places the camera on a sphere around target, looking at
// it. yaw rotates around +Y starting from +Z, pitch raises the camera
// towards +Y. Angles are in degrees.
func NewOrbitCamera(target [3]float32, yaw, pitch, distance float32, width, height int) Camera {
	pitch = min(max(pitch, -89), 89)
	t := mgl32.Vec3(target)
	rot := mgl32.AnglesToQuat(mgl32.DegToRad(yaw), mgl32.DegToRad(-pitch), 0, mgl32.YXZ)
	eye := t.Add(rot.Rotate(mgl32.Vec3{0, 0, distance}))

	aspect := float32(1)
	if height > 0 {
		aspect = float32(width) / float32(height)
	}
	return Camera{
		View:   mgl32.LookAtV(eye, t, mgl32.Vec3{0, 1, 0}),
		Proj:   mgl32.Perspective(mgl32.DegToRad(DefaultFovY), aspect, DefaultNear, DefaultFar),
		Width:  width,
		Height: height,
	}
}

// Eye returns the camera position in world space.
func (c Camera) Eye() [3]float32 {
	return [3]float32(c.view().Eye)
}

// Ray returns the unit direction of the ray through the centre of pixel
// (px, py), row 0 at the top.
func (c Camera) Ray(px, py int) [3]float32 {
	return [3]float32(c.view().Ray(px, py))
}

// WindowDepth returns the window-space depth of a world point, the value
// a host renderer would store in its depth buffer.
func (c Camera) WindowDepth(p [3]float32) float32 {
	return c.view().WindowDepth(mgl32.Vec3(p))
}

func (c Camera) valid() bool {
	return c.Width > 0 && c.Height > 0 && c.View != (mgl32.Mat4{}) && c.Proj != (mgl32.Mat4{})
}

func (c Camera) view() raymarch.View {
	return raymarch.NewView(c.View, c.Proj, c.Width, c.Height)
}
