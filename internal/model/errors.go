package model

import "errors"

var (
	// ErrUserNotFound is returned for an unknown external user id.
	ErrUserNotFound = errors.New("user not found")
	// ErrPersonaNotFound is returned for an invalid persona id or key.
	ErrPersonaNotFound = errors.New("persona not found")
	// ErrDialogNotFound is returned for an unknown or archived dialog.
	ErrDialogNotFound = errors.New("dialog not found")
	// ErrValidation marks malformed caller input.
	ErrValidation = errors.New("validation error")
	// ErrLLMUnavailable is surfaced when the gateway circuit is open or the
	// retry budget is exhausted. The turn is considered not to have happened.
	ErrLLMUnavailable = errors.New("llm gateway unavailable")
	// ErrPersistence is surfaced when the turn transaction rolled back.
	ErrPersistence = errors.New("persistence failure")
)
