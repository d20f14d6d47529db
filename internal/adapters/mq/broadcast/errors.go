package broadcast

import "errors"

// Sentinel errors for broadcaster operations.
var (
	ErrClosed           = errors.New("broadcaster closed")
	ErrTooManyListeners = errors.New("too many stream listeners")
)
