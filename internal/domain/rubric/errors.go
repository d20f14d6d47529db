package rubric

import "errors"

// Sentinel errors for rubric lookups.
var (
	ErrUnknownCriterion = errors.New("unknown criterion")
)
