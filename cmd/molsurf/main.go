// Command molsurf renders the molecular surface of a PDB or XYZR file over
// a simple host scene and writes the result as PNG.
//
// Usage:
//
//	molsurf -in protein.pdb -out surface.png
//	molsurf -in ligand.xyzr -config surface.json -frames 36 -out orbit.png
//
// Without -in a synthetic helix is rendered.
package main

import (
	"context"
	"flag"
	"fmt"
	"image"
	"image/png"
	"log"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/gogpu/molsurf"
	"github.com/gogpu/molsurf/molfile"
)

func main() {
	var (
		in       = flag.String("in", "", "molecule file (.pdb, .ent, .xyzr); empty renders a synthetic helix")
		config   = flag.String("config", "", "JSON parameter file")
		width    = flag.Int("width", 800, "image width")
		height   = flag.Int("height", 600, "image height")
		yaw      = flag.Float64("yaw", 30, "camera yaw in degrees")
		pitch    = flag.Float64("pitch", 20, "camera pitch in degrees")
		distance = flag.Float64("distance", 0, "camera distance; 0 fits the molecule")
		frames   = flag.Int("frames", 1, "number of orbit frames")
		output   = flag.String("out", "molsurf.png", "output file; frames get an index suffix")
		cpuOnly  = flag.Bool("cpu", false, "never use the GPU density accelerator")
		overlay  = flag.Bool("stats", true, "draw frame statistics onto the image")
		verbose  = flag.Bool("v", false, "debug logging")
	)
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	molsurf.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	atoms, err := loadAtoms(*in)
	if err != nil {
		log.Fatalf("Failed to load atoms: %v", err)
	}

	params := molsurf.DefaultParams()
	if *config != "" {
		if params, err = molsurf.LoadParams(*config, params); err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
	}

	var opts []molsurf.RendererOption
	if *cpuOnly {
		opts = append(opts, molsurf.WithCPUOnly())
	}
	r, err := molsurf.NewRenderer(atoms, params, opts...)
	if err != nil {
		log.Fatalf("Failed to create renderer: %v", err)
	}
	defer r.Close()

	dist := float32(*distance)
	if dist <= 0 {
		dist = fitDistance(atoms)
	}

	n := max(*frames, 1)
	for i := range n {
		y := float32(*yaw) + 360*float32(i)/float32(n)
		cam := molsurf.NewOrbitCamera(r.Center(), y, float32(*pitch), dist, *width, *height)
		host := hostScene(cam, atoms)

		frame, err := r.RenderContext(context.Background(), cam, host)
		if frame == nil {
			log.Fatalf("Failed to render: %v", err)
		}
		if err != nil {
			slog.Warn("frame skipped", "frame", i, "err", err)
		}

		img := frame.Color.ToImage()
		if *overlay {
			drawStats(img, frame.Stats.String())
		}
		path := framePath(*output, i, n)
		if err := savePNG(path, img); err != nil {
			log.Fatalf("Failed to save: %v", err)
		}
		log.Printf("Saved %s (%s)", path, frame.Stats)
	}
}

func loadAtoms(path string) ([]molsurf.Atom, error) {
	if path == "" {
		return helix(48), nil
	}
	var src molsurf.AtomSource = molfile.Source{}
	return src.LoadAtoms(path)
}

// helix builds a single alpha-helix-like strand of n atoms.
func helix(n int) []molsurf.Atom {
	radii := []float32{1.70, 1.55, 1.70, 1.52}
	atoms := make([]molsurf.Atom, n)
	for i := range atoms {
		a := float64(i) * 100 * math.Pi / 180
		atoms[i] = molsurf.Atom{
			X:      float32(2.3 * math.Cos(a)),
			Y:      float32(i)*0.5 - float32(n)*0.25,
			Z:      float32(2.3 * math.Sin(a)),
			Radius: radii[i%len(radii)],
		}
	}
	return atoms
}

// fitDistance places the camera far enough to see the whole molecule.
func fitDistance(atoms []molsurf.Atom) float32 {
	if len(atoms) == 0 {
		return 20
	}
	b := molsurf.Bounds(atoms)
	size := r3.Sub(b.Max, b.Min)
	extent := math.Max(size.X, math.Max(size.Y, size.Z))
	half := float64(molsurf.DefaultFovY) * math.Pi / 360
	return float32(extent/math.Tan(half)) + float32(extent)/2
}

// hostScene renders a sky gradient and a ground plane below the molecule,
// with window depth for the plane so the surface is occluded correctly.
func hostScene(cam molsurf.Camera, atoms []molsurf.Atom) molsurf.HostFrame {
	w, h := cam.Width, cam.Height
	bg := molsurf.NewImage(w, h)
	depth := molsurf.NewDepthBuffer(w, h)

	groundY := float32(-10)
	if len(atoms) > 0 {
		groundY = float32(molsurf.Bounds(atoms).Min.Y) - 1
	}
	sky0, sky1 := molsurf.Hex("#1d2b4cff"), molsurf.Hex("#6c8fb8ff")
	tiles := [2]molsurf.RGBA{molsurf.Hex("#3a3f44ff"), molsurf.Hex("#4d545bff")}

	eye := cam.Eye()
	for py := range h {
		sky := sky0.Lerp(sky1, float64(py)/float64(max(h-1, 1)))
		for px := range w {
			dir := cam.Ray(px, py)
			if dir[1] >= 0 {
				bg.SetPixel(px, py, sky)
				continue
			}
			t := (groundY - eye[1]) / dir[1]
			if t <= 0 {
				bg.SetPixel(px, py, sky)
				continue
			}
			p := [3]float32{eye[0] + dir[0]*t, groundY, eye[2] + dir[2]*t}
			checker := (int(math.Floor(float64(p[0])/4)) + int(math.Floor(float64(p[2])/4))) & 1
			bg.SetPixel(px, py, tiles[checker])
			depth.Set(px, py, cam.WindowDepth(p))
		}
	}
	return molsurf.HostFrame{Color: bg, Depth: depth}
}

func drawStats(img *image.RGBA, text string) {
	face := basicfont.Face7x13
	y := face.Metrics().Ascent.Ceil() + 4
	// Wrap at two spaces so long stage lists stay on screen.
	for _, line := range wrap(text, max(img.Bounds().Dx()/face.Advance-2, 10)) {
		d := &font.Drawer{
			Dst:  img,
			Src:  image.NewUniform(molsurf.Hex("#f0f0f0ff").Color()),
			Face: face,
			Dot:  fixed.P(6, y),
		}
		d.DrawString(line)
		y += face.Metrics().Height.Ceil()
	}
}

func wrap(text string, width int) []string {
	var lines []string
	var cur string
	for _, field := range strings.Split(text, "  ") {
		if cur != "" && len(cur)+2+len(field) > width {
			lines = append(lines, cur)
			cur = ""
		}
		if cur != "" {
			cur += "  "
		}
		cur += field
	}
	if cur != "" {
		lines = append(lines, cur)
	}
	return lines
}

func framePath(out string, i, n int) string {
	if n == 1 {
		return out
	}
	ext := filepath.Ext(out)
	return fmt.Sprintf("%s_%03d%s", strings.TrimSuffix(out, ext), i, ext)
}

func savePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
