package molsurf

import (
	"image/color"
	"math"
	"testing"
)

func TestHex(t *testing.T) {
	tests := []struct {
		in   string
		want RGBA
	}{
		{"#fff", White},
		{"000", Black},
		{"#f008", RGBA{R: 1, A: 136.0 / 255}},
		{"#336699", RGBA{R: 0x33 / 255.0, G: 0x66 / 255.0, B: 0x99 / 255.0, A: 1}},
		{"ff000080", RGBA{R: 1, A: 128.0 / 255}},
		{"#12345", Black},
		{"#gg0000", Black},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := Hex(tt.in); !colorNear(got, tt.want) {
				t.Errorf("Hex(%q) = %+v, want %+v", tt.in, got, tt.want)
			}
		})
	}
}

func TestRGBA_TextRoundTrip(t *testing.T) {
	c := RGBA{R: 0.2, G: 0.4, B: 0.6, A: 0.8}
	b, err := c.MarshalText()
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != "#336699cc" {
		t.Errorf("MarshalText = %q", b)
	}
	var back RGBA
	if err := back.UnmarshalText(b); err != nil {
		t.Fatal(err)
	}
	if !colorNear(back, c) {
		t.Errorf("round trip = %+v, want %+v", back, c)
	}
}

func TestRGBA_Premultiply(t *testing.T) {
	got := RGBA{R: 1, G: 0.5, B: 0, A: 0.5}.Premultiply()
	if got != (RGBA{R: 0.5, G: 0.25, B: 0, A: 0.5}) {
		t.Errorf("Premultiply = %+v", got)
	}
}

func TestFromColor(t *testing.T) {
	got := FromColor(color.NRGBA{R: 255, G: 0, B: 51, A: 255})
	if !colorNear(got, RGBA{R: 1, B: 0.2, A: 1}) {
		t.Errorf("FromColor = %+v", got)
	}
}

func TestRGBA_Color(t *testing.T) {
	got := RGBA{R: 1, G: 0, B: 0.2, A: 1}.Color()
	if got != (color.NRGBA{R: 255, G: 0, B: 51, A: 255}) {
		t.Errorf("Color = %+v", got)
	}
	if got := (RGBA{R: 2, G: -1, A: 1}).Color(); got != (color.NRGBA{R: 255, A: 255}) {
		t.Errorf("out of range Color = %+v", got)
	}
}

func colorNear(a, b RGBA) bool {
	const eps = 1.0 / 255
	return math.Abs(a.R-b.R) < eps && math.Abs(a.G-b.G) < eps &&
		math.Abs(a.B-b.B) < eps && math.Abs(a.A-b.A) < eps
}
