package molfile

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode"

	"github.com/gogpu/molsurf"
)

// PDB reads the coordinate records of a Protein Data Bank file.
//
// Only ATOM and HETATM records are used. Coordinates come from the fixed
// columns 31-38, 39-46 and 47-54. The element comes from columns 77-78
// when present, otherwise from the atom name in columns 13-16. Reading
// stops at the first ENDMDL so only the first model of an ensemble is
// returned.
type PDB struct {
	// SkipHydrogens drops H and D atoms.
	SkipHydrogens bool
}

// Read implements Reader.
func (p PDB) Read(r io.Reader, name string) ([]molsurf.Atom, error) {
	var atoms []molsurf.Atom
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := sc.Text()
		rec := strings.TrimSpace(field(text, 1, 6))
		if rec == "ENDMDL" {
			break
		}
		if rec != "ATOM" && rec != "HETATM" {
			continue
		}

		var xyz [3]float32
		for i, col := range [3]int{31, 39, 47} {
			s := strings.TrimSpace(field(text, col, col+7))
			v, err := strconv.ParseFloat(s, 32)
			if err != nil || !finite(v) {
				return nil, lineError(name, line, "bad %c coordinate %q", "xyz"[i], s)
			}
			xyz[i] = float32(v)
		}

		el := element(text)
		if p.SkipHydrogens && (el == "H" || el == "D") {
			continue
		}
		atoms = append(atoms, molsurf.Atom{X: xyz[0], Y: xyz[1], Z: xyz[2], Radius: Radius(el)})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", molsurf.ErrLoad, name, err)
	}
	if len(atoms) == 0 {
		return nil, noAtoms(name)
	}
	return atoms, nil
}

// field returns columns lo..hi (1-based, inclusive) of a fixed-width line,
// or the part of it that exists.
func field(s string, lo, hi int) string {
	if lo > len(s) {
		return ""
	}
	return s[lo-1 : min(hi, len(s))]
}

// element extracts the element symbol of an ATOM/HETATM record.
func element(line string) string {
	if el := strings.TrimSpace(field(line, 77, 78)); el != "" {
		return strings.ToUpper(el)
	}
	// Atom names right-align one-letter elements in columns 13-14:
	// " CA " is a carbon, "CA  " is calcium.
	name := field(line, 13, 16)
	if len(name) < 2 {
		return strings.ToUpper(strings.TrimSpace(name))
	}
	if unicode.IsLetter(rune(name[0])) {
		if two := strings.ToUpper(name[:2]); vdwRadii[two] != 0 {
			return two
		}
		return strings.ToUpper(name[:1])
	}
	if unicode.IsLetter(rune(name[1])) {
		return strings.ToUpper(name[1:2])
	}
	return ""
}
