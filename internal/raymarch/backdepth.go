package raymarch

import "github.com/gogpu/molsurf/internal/parallel"

// NoExit marks a pixel whose ray never enters the cube.
const NoExit = 0

// BackDepth writes, for every pixel, the distance along its ray to the far
// face of the cube, or NoExit when the ray misses the cube.
//
// The far face is used as the exit bound because it stays in front of the
// camera even when the camera is inside the cube and the near face is
// behind it.
func BackDepth(pool *parallel.WorkerPool, v View, cube Cube, out []float32) {
	pool.ForTiles(v.Width, v.Height, func(t parallel.Tile) {
		for py := t.Y0; py < t.Y1; py++ {
			row := py * v.Width
			for px := t.X0; px < t.X1; px++ {
				_, tExit, hit := cube.Intersect(v.Eye, v.Ray(px, py))
				if !hit {
					out[row+px] = NoExit
					continue
				}
				out[row+px] = tExit
			}
		}
	})
}
