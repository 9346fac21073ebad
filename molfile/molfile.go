// Package molfile reads atom sets from structure files.
//
// Two formats are supported: PDB (ATOM and HETATM records, radii from the
// element's van der Waals radius) and XYZR (one "x y z r" line per atom).
// Load picks the format from the file extension.
package molfile

import (
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/gogpu/molsurf"
)

// Reader parses atoms from a stream. name is used in error messages.
type Reader interface {
	Read(r io.Reader, name string) ([]molsurf.Atom, error)
}

// Source is a molsurf.AtomSource that dispatches on file extension.
type Source struct{}

var _ molsurf.AtomSource = Source{}

// LoadAtoms implements molsurf.AtomSource.
func (Source) LoadAtoms(path string) ([]molsurf.Atom, error) { return Load(path) }

// Load reads the structure at path. ".pdb" and ".ent" are read as PDB,
// ".xyzr" as XYZR. Errors wrap molsurf.ErrLoad; an empty structure also
// wraps molsurf.ErrNoAtoms.
func Load(path string) ([]molsurf.Atom, error) {
	rd, err := readerFor(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", molsurf.ErrLoad, err)
	}
	defer func() {
		_ = f.Close()
	}()
	return rd.Read(f, filepath.Base(path))
}

func readerFor(path string) (Reader, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".pdb", ".ent":
		return PDB{}, nil
	case ".xyzr":
		return XYZR{}, nil
	default:
		return nil, fmt.Errorf("%w: unsupported file extension %q", molsurf.ErrLoad, ext)
	}
}

// lineError reports a malformed line.
func lineError(name string, line int, format string, args ...any) error {
	return fmt.Errorf("%w: %s:%d: %s", molsurf.ErrLoad, name, line, fmt.Sprintf(format, args...))
}

func noAtoms(name string) error {
	return fmt.Errorf("%w: %w: %s", molsurf.ErrLoad, molsurf.ErrNoAtoms, name)
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }
