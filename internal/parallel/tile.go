// Package parallel provides the CPU execution model for the molsurf pipeline.
//
// GPU stages are dispatched as workgroups over voxels, atoms or pixels. On the
// CPU the same decomposition is expressed with a work-stealing WorkerPool and
// three exact-cover partitions:
//
//   - Ranges: 1D spans (atom groups of 64, as in the Splat dispatch)
//   - Blocks: 3D cell blocks (8x8x8 groups for Init and Resample)
//   - Tiles: 64x64 screen tiles for the back-depth and ray march passes
//
// Every partition covers each index exactly once, including the clipped
// blocks and tiles at the far edges of sizes that do not divide evenly.
package parallel

// Tile size constants for screen-space passes.
const (
	// TileWidth is the width of a screen tile in pixels.
	TileWidth = 64

	// TileHeight is the height of a screen tile in pixels.
	TileHeight = 64
)

// Tile is a rectangular region of the frame that can be processed
// independently. Edge tiles may be smaller than TileWidth x TileHeight.
type Tile struct {
	// X0, Y0 is the top-left pixel (inclusive).
	X0, Y0 int

	// X1, Y1 is the bottom-right pixel (exclusive).
	X1, Y1 int
}

// Width returns the tile width in pixels.
func (t Tile) Width() int { return t.X1 - t.X0 }

// Height returns the tile height in pixels.
func (t Tile) Height() int { return t.Y1 - t.Y0 }

// Tiles partitions a width x height frame into row-major tiles.
func Tiles(width, height int) []Tile {
	if width <= 0 || height <= 0 {
		return nil
	}
	tilesX := (width + TileWidth - 1) / TileWidth
	tilesY := (height + TileHeight - 1) / TileHeight
	tiles := make([]Tile, 0, tilesX*tilesY)
	for y := 0; y < height; y += TileHeight {
		for x := 0; x < width; x += TileWidth {
			tiles = append(tiles, Tile{
				X0: x, Y0: y,
				X1: min(x+TileWidth, width),
				Y1: min(y+TileHeight, height),
			})
		}
	}
	return tiles
}

// ForTiles runs fn once per tile of the frame in parallel.
func (p *WorkerPool) ForTiles(width, height int, fn func(t Tile)) {
	tiles := Tiles(width, height)
	work := make([]func(), len(tiles))
	for i, t := range tiles {
		work[i] = func() { fn(t) }
	}
	p.ExecuteAll(work)
}
