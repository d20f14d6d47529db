package config

import "errors"

// ErrInvalidConfig wraps every Validate failure. ErrLoadConfig wraps
// failures reading the config file or the environment.
var (
	ErrInvalidConfig = errors.New("invalid config")
	ErrLoadConfig    = errors.New("load config failed")

	// ErrUnknownStore and ErrMissingDSN narrow an ErrInvalidConfig about the
	// entry store backend.
	ErrUnknownStore = errors.New("unknown store")
	ErrMissingDSN   = errors.New("postgres_dsn is required for the postgres store")
)
