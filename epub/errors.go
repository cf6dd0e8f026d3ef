package epub

import "errors"

var (
	// ErrSource is returned when source file cannot be used at all: it is
	// unreadable, empty or not a zip archive.
	ErrSource = errors.New("bad source")

	// ErrResource is returned when archive is readable but is not a usable
	// e-book: container or package document is missing or broken.
	ErrResource = errors.New("bad e-book structure")
)
