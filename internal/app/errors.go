package service

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by Service operations.
var (
	ErrNotStarted           = errors.New("service not started")
	ErrForbidden            = errors.New("trainer role required")
	ErrValidation           = errors.New("submission rejected")
	ErrStore                = errors.New("entry store failure")
	ErrConfirmationRequired = errors.New("confirmation required")
	ErrSubmissionInFlight   = errors.New("submission with this idempotency key in progress")
)

// Prompts and notices surfaced to callers.
const (
	PromptDeleteOne    = "Delete this entry?"
	NoticeNoneSelected = "No entries selected."
)

// PromptDeleteMany returns the bulk delete confirmation prompt.
func PromptDeleteMany(n int) string {
	return fmt.Sprintf("Delete %d selected entries?", n)
}

// ConfirmationError asks the caller to repeat a destructive request with
// explicit confirmation.
type ConfirmationError struct {
	Prompt string
	Count  int
}

func (e *ConfirmationError) Error() string {
	return fmt.Sprintf("%s: %s", ErrConfirmationRequired, e.Prompt)
}

// Unwrap lets errors.Is match ErrConfirmationRequired.
func (e *ConfirmationError) Unwrap() error { return ErrConfirmationRequired }
