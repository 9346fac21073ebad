package molsurf

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/gogpu/molsurf/internal/volume"
)

// Atom is a sphere in world space: center and van der Waals radius in
// Angstrom. The layout matches a GPU vec4<f32>.
type Atom = volume.Atom

// AtomSource loads atoms from a structure file. Failures wrap ErrLoad;
// a structure without atoms wraps ErrNoAtoms.
type AtomSource interface {
	LoadAtoms(path string) ([]Atom, error)
}

// Bounds returns the axis-aligned box enclosing every atom sphere.
// The zero box is returned for an empty slice.
func Bounds(atoms []Atom) r3.Box {
	if len(atoms) == 0 {
		return r3.Box{}
	}
	inf := math.Inf(1)
	b := r3.Box{
		Min: r3.Vec{X: inf, Y: inf, Z: inf},
		Max: r3.Vec{X: -inf, Y: -inf, Z: -inf},
	}
	for _, a := range atoms {
		r := math.Max(float64(a.Radius), 0)
		p := r3.Vec{X: float64(a.X), Y: float64(a.Y), Z: float64(a.Z)}
		ext := r3.Vec{X: r, Y: r, Z: r}
		lo, hi := r3.Sub(p, ext), r3.Add(p, ext)
		b.Min = r3.Vec{X: math.Min(b.Min.X, lo.X), Y: math.Min(b.Min.Y, lo.Y), Z: math.Min(b.Min.Z, lo.Z)}
		b.Max = r3.Vec{X: math.Max(b.Max.X, hi.X), Y: math.Max(b.Max.Y, hi.Y), Z: math.Max(b.Max.Z, hi.Z)}
	}
	return b
}

// Center returns the centre of the atoms' bounding box. The volume is
// centred here.
func Center(atoms []Atom) [3]float32 {
	b := Bounds(atoms)
	c := r3.Scale(0.5, r3.Add(b.Min, b.Max))
	return [3]float32{float32(c.X), float32(c.Y), float32(c.Z)}
}

// CheckAtoms reports the first atom with a non-finite coordinate or radius.
// The error wraps ErrInvalidAtom.
func CheckAtoms(atoms []Atom) error {
	for i, a := range atoms {
		for _, v := range [4]float32{a.X, a.Y, a.Z, a.Radius} {
			f := float64(v)
			if math.IsNaN(f) || math.IsInf(f, 0) {
				return fmt.Errorf("%w: atom %d: %+v", ErrInvalidAtom, i, a)
			}
		}
	}
	return nil
}
