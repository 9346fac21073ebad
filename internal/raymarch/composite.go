package raymarch

import "github.com/gogpu/molsurf/internal/parallel"

// Composite blends the surface layer over the host image with the
// premultiplied "over" operator. Pixels the surface did not touch (alpha 0)
// are copied from the host unchanged, color and depth alike.
//
// hostDepth may be nil, in which case the host is treated as empty
// background at depth 1. dstColor and dstDepth may alias the host slices.
func Composite(pool *parallel.WorkerPool, width, height int, layer Layer,
	hostColor, hostDepth, dstColor, dstDepth []float32) {
	pool.ForTiles(width, height, func(t parallel.Tile) {
		for py := t.Y0; py < t.Y1; py++ {
			for px := t.X0; px < t.X1; px++ {
				i := py*width + px
				hd := float32(1)
				if hostDepth != nil {
					hd = hostDepth[i]
				}
				a := layer.Color[4*i+3]
				if a == 0 {
					copy(dstColor[4*i:4*i+4], hostColor[4*i:4*i+4])
					dstDepth[i] = hd
					continue
				}
				inv := 1 - a
				for c := range 4 {
					dstColor[4*i+c] = layer.Color[4*i+c] + hostColor[4*i+c]*inv
				}
				dstDepth[i] = min(layer.Depth[i], hd)
			}
		}
	})
}
