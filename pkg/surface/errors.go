package surface

import "errors"

var (
	ErrUnavailable   = errors.New("surface provider unavailable")
	ErrSurfaceClosed = errors.New("surface closed")
	ErrNoDocument    = errors.New("no document loaded")
)
