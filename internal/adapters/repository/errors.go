package repository

import "errors"

// Sentinel kinds for entry store errors.
var (
	ErrClosed      = errors.New("entry store closed")
	ErrNilListener = errors.New("nil snapshot listener")
	ErrEmptyID     = errors.New("empty entry id")
	ErrUnavailable = errors.New("entry store unavailable")
	ErrMissingDSN  = errors.New("postgres dsn is required")
)
