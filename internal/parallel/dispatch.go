package parallel

// Span is a half-open index range [Lo, Hi).
type Span struct {
	Lo, Hi int
}

// Len returns the number of indices in the span.
func (s Span) Len() int { return s.Hi - s.Lo }

// Ranges partitions [0, n) into consecutive spans of at most grain indices.
// The last span is shorter when n is not a multiple of grain.
// Returns nil for n <= 0. A grain <= 0 yields a single span.
func Ranges(n, grain int) []Span {
	if n <= 0 {
		return nil
	}
	if grain <= 0 || grain > n {
		grain = n
	}
	spans := make([]Span, 0, (n+grain-1)/grain)
	for lo := 0; lo < n; lo += grain {
		spans = append(spans, Span{Lo: lo, Hi: min(lo+grain, n)})
	}
	return spans
}

// Block is an axis-aligned box of grid cells, the CPU analogue of one
// compute workgroup. Min is inclusive, Max exclusive.
type Block struct {
	Min, Max [3]int
}

// Cells returns the number of cells inside the block.
func (b Block) Cells() int {
	return (b.Max[0] - b.Min[0]) * (b.Max[1] - b.Min[1]) * (b.Max[2] - b.Min[2])
}

// Blocks tiles a cubic grid of the given size with edge x edge x edge
// blocks. Blocks on the far faces are clipped so that sizes that are not a
// multiple of edge are still covered exactly once.
func Blocks(size, edge int) []Block {
	if size <= 0 {
		return nil
	}
	if edge <= 0 || edge > size {
		edge = size
	}
	per := (size + edge - 1) / edge
	blocks := make([]Block, 0, per*per*per)
	for z := 0; z < size; z += edge {
		for y := 0; y < size; y += edge {
			for x := 0; x < size; x += edge {
				blocks = append(blocks, Block{
					Min: [3]int{x, y, z},
					Max: [3]int{min(x+edge, size), min(y+edge, size), min(z+edge, size)},
				})
			}
		}
	}
	return blocks
}

// ForBlocks runs fn once per block of a size^3 grid in parallel.
func (p *WorkerPool) ForBlocks(size, edge int, fn func(b Block)) {
	blocks := Blocks(size, edge)
	work := make([]func(), len(blocks))
	for i, b := range blocks {
		work[i] = func() { fn(b) }
	}
	p.ExecuteAll(work)
}
