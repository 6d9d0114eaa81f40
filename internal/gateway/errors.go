package gateway

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput means the request had no text and no attachment.
	ErrInvalidInput = errors.New("empty prompt and no attachment")

	// ErrBusy means another action is already in flight for this session.
	// Requests are rejected, not queued.
	ErrBusy = errors.New("an action is already in flight for this session")
)

// PermissionError is a capability rejection tied to the credential tier. It
// carries a remediation hint so the surface can do better than a generic
// failure message.
type PermissionError struct {
	Err  error
	Hint string
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("%v (%s)", e.Err, e.Hint)
}

func (e *PermissionError) Unwrap() error { return e.Err }

// GenerationError wraps any external capability failure: auth, quota,
// network, malformed response. It never propagates past the gateway as a
// panic; callers receive it after the in-flight message was marked failed.
type GenerationError struct {
	Kind string // which capability failed
	Err  error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("%s generation failed: %v", e.Kind, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }
