package parallel

import (
	"sync/atomic"
	"testing"
)

func TestRanges(t *testing.T) {
	tests := []struct {
		name      string
		n, grain  int
		wantSpans int
		wantLast  Span
	}{
		{"exact", 128, 64, 2, Span{64, 128}},
		{"remainder", 130, 64, 3, Span{128, 130}},
		{"grain larger than n", 10, 64, 1, Span{0, 10}},
		{"zero grain", 10, 0, 1, Span{0, 10}},
		{"single", 1, 64, 1, Span{0, 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spans := Ranges(tt.n, tt.grain)
			if len(spans) != tt.wantSpans {
				t.Fatalf("len = %d, want %d", len(spans), tt.wantSpans)
			}
			if last := spans[len(spans)-1]; last != tt.wantLast {
				t.Errorf("last = %+v, want %+v", last, tt.wantLast)
			}
			total := 0
			for i, s := range spans {
				if i > 0 && s.Lo != spans[i-1].Hi {
					t.Errorf("span %d starts at %d, previous ended at %d", i, s.Lo, spans[i-1].Hi)
				}
				total += s.Len()
			}
			if total != tt.n {
				t.Errorf("total = %d, want %d", total, tt.n)
			}
		})
	}

	if Ranges(0, 8) != nil {
		t.Error("Ranges(0, 8) should be nil")
	}
}

func TestBlocks_ExactCover(t *testing.T) {
	for _, size := range []int{1, 7, 8, 9, 16, 21} {
		hits := make([]int, size*size*size)
		for _, b := range Blocks(size, 8) {
			for z := b.Min[2]; z < b.Max[2]; z++ {
				for y := b.Min[1]; y < b.Max[1]; y++ {
					for x := b.Min[0]; x < b.Max[0]; x++ {
						hits[x+y*size+z*size*size]++
					}
				}
			}
		}
		for i, h := range hits {
			if h != 1 {
				t.Fatalf("size %d: cell %d covered %d times, want 1", size, i, h)
			}
		}
	}
}

func TestBlocks_Cells(t *testing.T) {
	blocks := Blocks(10, 8)
	if len(blocks) != 8 {
		t.Fatalf("len(Blocks(10, 8)) = %d, want 8", len(blocks))
	}
	total := 0
	for _, b := range blocks {
		total += b.Cells()
	}
	if total != 1000 {
		t.Errorf("total cells = %d, want 1000", total)
	}
}

func TestTiles_ExactCover(t *testing.T) {
	const w, h = 130, 67
	hits := make([]int, w*h)
	tiles := Tiles(w, h)
	if len(tiles) != 3*2 {
		t.Fatalf("len(Tiles) = %d, want 6", len(tiles))
	}
	for _, tile := range tiles {
		if tile.Width() > TileWidth || tile.Height() > TileHeight {
			t.Errorf("tile %+v exceeds tile size", tile)
		}
		for y := tile.Y0; y < tile.Y1; y++ {
			for x := tile.X0; x < tile.X1; x++ {
				hits[y*w+x]++
			}
		}
	}
	for i, n := range hits {
		if n != 1 {
			t.Fatalf("pixel %d covered %d times", i, n)
		}
	}
	if Tiles(0, 10) != nil {
		t.Error("Tiles(0, 10) should be nil")
	}
}

func TestWorkerPool_ForBlocksAndTiles(t *testing.T) {
	pool := NewWorkerPool(4)
	defer pool.Close()

	var cells atomic.Int64
	pool.ForBlocks(13, 8, func(b Block) { cells.Add(int64(b.Cells())) })
	if got := cells.Load(); got != 13*13*13 {
		t.Errorf("ForBlocks visited %d cells, want %d", got, 13*13*13)
	}

	var pixels atomic.Int64
	pool.ForTiles(100, 70, func(tile Tile) { pixels.Add(int64(tile.Width() * tile.Height())) })
	if got := pixels.Load(); got != 7000 {
		t.Errorf("ForTiles visited %d pixels, want 7000", got)
	}
}
