package renderer

import "errors"

// Errors raised (as panics) on caller contract violations.
var (
	// ErrHookOutsideRender is raised when a Scope is used after its
	// component returned.
	ErrHookOutsideRender = errors.New("renderer: hook called outside of component render")

	// ErrNilElement is raised when Render is given a nil element.
	ErrNilElement = errors.New("renderer: nil element")
)
