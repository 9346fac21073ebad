package molsurf

import "errors"

var (
	// ErrLoad is wrapped by every atom source failure: missing file,
	// unreadable data or a malformed coordinate field.
	ErrLoad = errors.New("molsurf: cannot load atoms")

	// ErrNoAtoms is returned when a structure contains no atoms.
	ErrNoAtoms = errors.New("molsurf: structure has no atoms")

	// ErrInvalidAtom is returned for an atom with a NaN or infinite
	// coordinate or radius.
	ErrInvalidAtom = errors.New("molsurf: atom is not finite")

	// ErrResource indicates a grid allocation beyond the memory budget.
	ErrResource = errors.New("molsurf: volume exceeds memory budget")

	// ErrFrameSkipped is wrapped when a stage fails and Render returns the
	// host frame unchanged.
	ErrFrameSkipped = errors.New("molsurf: frame skipped")

	// ErrClosed is returned by methods of a closed Renderer.
	ErrClosed = errors.New("molsurf: renderer closed")

	// ErrInvalidFrame is returned when host buffers do not match the
	// camera resolution.
	ErrInvalidFrame = errors.New("molsurf: host buffers do not match camera")
)
