package raymarch

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Cube is the axis-aligned bounding cube of the volume in world space.
type Cube struct {
	Min, Max mgl32.Vec3
}

// Edge returns the edge length along x.
func (c Cube) Edge() float32 { return c.Max[0] - c.Min[0] }

// Contains reports whether p lies inside or on the cube.
func (c Cube) Contains(p mgl32.Vec3) bool {
	for i := range 3 {
		if p[i] < c.Min[i] || p[i] > c.Max[i] {
			return false
		}
	}
	return true
}

// Intersect returns the entry and exit distances of the ray origin + t*dir
// with the cube. tEnter is negative when the origin is inside. hit is false
// when the line misses the cube or the cube lies behind the origin.
func (c Cube) Intersect(origin, dir mgl32.Vec3) (tEnter, tExit float32, hit bool) {
	tEnter = float32(math.Inf(-1))
	tExit = float32(math.Inf(1))
	for i := range 3 {
		if dir[i] == 0 {
			if origin[i] < c.Min[i] || origin[i] > c.Max[i] {
				return 0, 0, false
			}
			continue
		}
		inv := 1 / dir[i]
		t0 := (c.Min[i] - origin[i]) * inv
		t1 := (c.Max[i] - origin[i]) * inv
		if t0 > t1 {
			t0, t1 = t1, t0
		}
		tEnter = max(tEnter, t0)
		tExit = min(tExit, t1)
	}
	if tExit < tEnter || tExit <= 0 {
		return 0, 0, false
	}
	return tEnter, tExit, true
}
