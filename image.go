package molsurf

import (
	"image"
	"image/color"
	"image/png"
	"os"
)

// Image is a premultiplied float32 RGBA buffer, 4 floats per pixel, row
// by row from the top. It is the color format of host frames and results.
type Image struct {
	width  int
	height int
	pix    []float32
}

// NewImage creates a transparent image.
func NewImage(width, height int) *Image {
	return &Image{
		width:  width,
		height: height,
		pix:    make([]float32, width*height*4),
	}
}

// Width returns the width in pixels.
func (m *Image) Width() int { return m.width }

// Height returns the height in pixels.
func (m *Image) Height() int { return m.height }

// Pix returns the raw premultiplied samples.
func (m *Image) Pix() []float32 { return m.pix }

// SetPixel stores a straight color, premultiplying it.
func (m *Image) SetPixel(x, y int, c RGBA) {
	if x < 0 || x >= m.width || y < 0 || y >= m.height {
		return
	}
	p := c.Premultiply().float32s()
	copy(m.pix[(y*m.width+x)*4:], p[:])
}

// Pixel returns the premultiplied color of a pixel.
func (m *Image) Pixel(x, y int) RGBA {
	if x < 0 || x >= m.width || y < 0 || y >= m.height {
		return Transparent
	}
	i := (y*m.width + x) * 4
	return RGBA{
		R: float64(m.pix[i+0]),
		G: float64(m.pix[i+1]),
		B: float64(m.pix[i+2]),
		A: float64(m.pix[i+3]),
	}
}

// Clear fills the image with a straight color.
func (m *Image) Clear(c RGBA) {
	p := c.Premultiply().float32s()
	for i := 0; i < len(m.pix); i += 4 {
		copy(m.pix[i:i+4], p[:])
	}
}

// Clone returns a deep copy.
func (m *Image) Clone() *Image {
	out := NewImage(m.width, m.height)
	copy(out.pix, m.pix)
	return out
}

// ToImage converts to an 8-bit image.RGBA. Both are premultiplied, so the
// conversion is a clamp and scale.
func (m *Image) ToImage() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, m.width, m.height))
	for i, v := range m.pix {
		img.Pix[i] = uint8(clamp255(float64(v)*255 + 0.5))
	}
	return img
}

// FromImage creates an Image from any image.Image.
func FromImage(src image.Image) *Image {
	b := src.Bounds()
	m := NewImage(b.Dx(), b.Dy())
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			r, g, bl, a := src.At(b.Min.X+x, b.Min.Y+y).RGBA()
			i := (y*m.width + x) * 4
			m.pix[i+0] = float32(r) / 65535
			m.pix[i+1] = float32(g) / 65535
			m.pix[i+2] = float32(bl) / 65535
			m.pix[i+3] = float32(a) / 65535
		}
	}
	return m
}

// SavePNG writes the image to a PNG file.
func (m *Image) SavePNG(path string) error {
	f, err := os.Create(path) //nolint:gosec // path is user-provided intentionally
	if err != nil {
		return err
	}
	defer func() {
		_ = f.Close()
	}()
	return png.Encode(f, m.ToImage())
}

// At implements the image.Image interface.
func (m *Image) At(x, y int) color.Color {
	c := m.Pixel(x, y)
	return color.RGBA{
		R: uint8(clamp255(c.R*255 + 0.5)),
		G: uint8(clamp255(c.G*255 + 0.5)),
		B: uint8(clamp255(c.B*255 + 0.5)),
		A: uint8(clamp255(c.A*255 + 0.5)),
	}
}

// Bounds implements the image.Image interface.
func (m *Image) Bounds() image.Rectangle {
	return image.Rect(0, 0, m.width, m.height)
}

// ColorModel implements the image.Image interface.
func (m *Image) ColorModel() color.Model {
	return color.RGBAModel
}

// DepthBuffer holds window-space depth per pixel in [0, 1], where 1 is the
// far plane and means "nothing here".
type DepthBuffer struct {
	width  int
	height int
	data   []float32
}

// NewDepthBuffer creates a buffer cleared to the far plane.
func NewDepthBuffer(width, height int) *DepthBuffer {
	d := &DepthBuffer{width: width, height: height, data: make([]float32, width*height)}
	d.Clear()
	return d
}

// Width returns the width in pixels.
func (d *DepthBuffer) Width() int { return d.width }

// Height returns the height in pixels.
func (d *DepthBuffer) Height() int { return d.height }

// Data returns the raw depth values.
func (d *DepthBuffer) Data() []float32 { return d.data }

// At returns the depth of a pixel, 1 outside the buffer.
func (d *DepthBuffer) At(x, y int) float32 {
	if x < 0 || x >= d.width || y < 0 || y >= d.height {
		return 1
	}
	return d.data[y*d.width+x]
}

// Set stores the depth of a pixel.
func (d *DepthBuffer) Set(x, y int, v float32) {
	if x < 0 || x >= d.width || y < 0 || y >= d.height {
		return
	}
	d.data[y*d.width+x] = v
}

// Clear resets every pixel to the far plane.
func (d *DepthBuffer) Clear() {
	for i := range d.data {
		d.data[i] = 1
	}
}

// Clone returns a deep copy.
func (d *DepthBuffer) Clone() *DepthBuffer {
	out := &DepthBuffer{width: d.width, height: d.height, data: make([]float32, len(d.data))}
	copy(out.data, d.data)
	return out
}
