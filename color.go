package molsurf

import (
	"fmt"
	"image/color"
)

// RGBA represents a straight (non-premultiplied) color.
// Each component is in the range [0, 1].
type RGBA struct {
	R, G, B, A float64
}

// Color converts RGBA to the standard color.Color interface.
func (c RGBA) Color() color.Color {
	return color.NRGBA{
		R: uint8(clamp255(c.R * 255)),
		G: uint8(clamp255(c.G * 255)),
		B: uint8(clamp255(c.B * 255)),
		A: uint8(clamp255(c.A * 255)),
	}
}

// FromColor converts a standard color.Color to RGBA.
func FromColor(c color.Color) RGBA {
	return FromNRGBA(color.NRGBAModel.Convert(c).(color.NRGBA))
}

// FromNRGBA converts an 8-bit straight color.
func FromNRGBA(c color.NRGBA) RGBA {
	return RGBA{
		R: float64(c.R) / 255,
		G: float64(c.G) / 255,
		B: float64(c.B) / 255,
		A: float64(c.A) / 255,
	}
}

// RGB creates an opaque color from RGB components.
func RGB(r, g, b float64) RGBA {
	return RGBA{R: r, G: g, B: b, A: 1.0}
}

// Hex creates a color from a hex string.
// Supports formats: "RGB", "RGBA", "RRGGBB", "RRGGBBAA", with or without
// a leading '#'. Unknown formats give opaque black.
func Hex(hex string) RGBA {
	c, ok := parseHexColor(hex)
	if !ok {
		return Black
	}
	return c
}

func parseHexColor(hex string) (RGBA, bool) {
	if hex != "" && hex[0] == '#' {
		hex = hex[1:]
	}

	var r, g, b uint32
	a := uint32(255)
	ok := true

	switch len(hex) {
	case 3:
		ok = parseHex(hex[0:1], &r) && parseHex(hex[1:2], &g) && parseHex(hex[2:3], &b)
		r, g, b = r*17, g*17, b*17
	case 4:
		ok = parseHex(hex[0:1], &r) && parseHex(hex[1:2], &g) && parseHex(hex[2:3], &b) && parseHex(hex[3:4], &a)
		r, g, b, a = r*17, g*17, b*17, a*17
	case 6:
		ok = parseHex(hex[0:2], &r) && parseHex(hex[2:4], &g) && parseHex(hex[4:6], &b)
	case 8:
		ok = parseHex(hex[0:2], &r) && parseHex(hex[2:4], &g) && parseHex(hex[4:6], &b) && parseHex(hex[6:8], &a)
	default:
		return RGBA{}, false
	}
	if !ok {
		return RGBA{}, false
	}

	return RGBA{
		R: float64(r) / 255,
		G: float64(g) / 255,
		B: float64(b) / 255,
		A: float64(a) / 255,
	}, true
}

func parseHex(s string, val *uint32) bool {
	*val = 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		*val *= 16
		switch {
		case '0' <= c && c <= '9':
			*val += uint32(c - '0')
		case 'a' <= c && c <= 'f':
			*val += uint32(c - 'a' + 10)
		case 'A' <= c && c <= 'F':
			*val += uint32(c - 'A' + 10)
		default:
			return false
		}
	}
	return true
}

// HexString formats the color as "#RRGGBBAA".
func (c RGBA) HexString() string {
	b := func(v float64) uint8 { return uint8(clamp255(v*255 + 0.5)) }
	return fmt.Sprintf("#%02x%02x%02x%02x", b(c.R), b(c.G), b(c.B), b(c.A))
}

// MarshalText encodes the color as a hex string so parameter files stay
// readable.
func (c RGBA) MarshalText() ([]byte, error) {
	return []byte(c.HexString()), nil
}

// UnmarshalText accepts any format understood by Hex.
func (c *RGBA) UnmarshalText(text []byte) error {
	v, ok := parseHexColor(string(text))
	if !ok {
		return fmt.Errorf("molsurf: invalid hex color %q", text)
	}
	*c = v
	return nil
}

// Premultiply returns a premultiplied color.
func (c RGBA) Premultiply() RGBA {
	return RGBA{
		R: c.R * c.A,
		G: c.G * c.A,
		B: c.B * c.A,
		A: c.A,
	}
}

// Lerp performs linear interpolation between two colors.
func (c RGBA) Lerp(other RGBA, t float64) RGBA {
	return RGBA{
		R: c.R + (other.R-c.R)*t,
		G: c.G + (other.G-c.G)*t,
		B: c.B + (other.B-c.B)*t,
		A: c.A + (other.A-c.A)*t,
	}
}

func (c RGBA) float32s() [4]float32 {
	return [4]float32{float32(c.R), float32(c.G), float32(c.B), float32(c.A)}
}

func clamp255(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 255 {
		return 255
	}
	return x
}

// Common colors
var (
	Black       = RGB(0, 0, 0)
	White       = RGB(1, 1, 1)
	Transparent = RGBA{}
)
