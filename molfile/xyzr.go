package molfile

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/gogpu/molsurf"
)

// XYZR reads whitespace-separated "x y z radius" lines, the format used by
// MSMS and similar surface tools. Blank lines and lines starting with '#'
// are ignored; extra columns after the radius are allowed.
type XYZR struct{}

// Read implements Reader.
func (XYZR) Read(r io.Reader, name string) ([]molsurf.Atom, error) {
	var atoms []molsurf.Atom
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		fields := strings.Fields(text)
		if len(fields) < 4 {
			return nil, lineError(name, line, "want 4 columns, got %d", len(fields))
		}
		var v [4]float32
		for i := range v {
			f, err := strconv.ParseFloat(fields[i], 32)
			if err != nil || !finite(f) {
				return nil, lineError(name, line, "bad number %q", fields[i])
			}
			v[i] = float32(f)
		}
		if !(v[3] > 0) {
			return nil, lineError(name, line, "radius %v must be positive", v[3])
		}
		atoms = append(atoms, molsurf.Atom{X: v[0], Y: v[1], Z: v[2], Radius: v[3]})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", molsurf.ErrLoad, name, err)
	}
	if len(atoms) == 0 {
		return nil, noAtoms(name)
	}
	return atoms, nil
}
