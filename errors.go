package comparator

import "errors"

var (
	// ErrInputMissing is returned when the document or the name list is
	// absent or unreadable. Runs fail with it before any pass starts.
	ErrInputMissing = errors.New("comparator: input missing")

	// ErrPassFailed is returned when a pass cannot scan, match, annotate or
	// save the document.
	ErrPassFailed = errors.New("comparator: pass failed")

	// ErrPassOrder is returned when a pass is entered from the wrong state,
	// such as name matching without a saved interim document.
	ErrPassOrder = errors.New("comparator: pass out of order")

	// ErrInvalidConfig is returned for invalid configuration values.
	ErrInvalidConfig = errors.New("comparator: invalid configuration")
)
