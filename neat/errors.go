package neat

import "errors"

// Error classes returned by this package. Every error is wrapped with
// context, so callers should match with errors.Is.
var (
	// ErrValidation reports a malformed gene on insertion or load.
	ErrValidation = errors.New("validation error")
	// ErrState reports an operation invoked in a state that cannot serve it.
	ErrState = errors.New("state error")
	// ErrConfig reports an invalid configuration value.
	ErrConfig = errors.New("config error")
)
