package pipeline

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidConfiguration is matched by every ConfigurationError.
	ErrInvalidConfiguration = errors.New("invalid configuration")

	// ErrActorFailure is matched by every ActorFailureError.
	ErrActorFailure = errors.New("actor failure")
)

// ConfigurationError reports a pipeline setting that can never produce a
// terminating run. It is raised at construction time, before any actor is
// started.
type ConfigurationError struct {
	Field  string
	Value  any
	Reason string
}

// NewConfigurationError creates a new ConfigurationError.
func NewConfigurationError(field string, value any, reason string) *ConfigurationError {
	return &ConfigurationError{Field: field, Value: value, Reason: reason}
}

// Error returns a string representation of the error.
func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid configuration: %s=%v: %s", e.Field, e.Value, e.Reason)
}

// Unwrap allows errors.Is(err, ErrInvalidConfiguration).
func (e *ConfigurationError) Unwrap() error { return ErrInvalidConfiguration }

// ActorRole identifies which side of the queue an actor works on.
type ActorRole string

const (
	// ActorRoleProducer enqueues work items.
	ActorRoleProducer ActorRole = "PRODUCER"

	// ActorRoleConsumer dequeues and processes work items.
	ActorRoleConsumer ActorRole = "CONSUMER"
)

// String returns the string representation of the ActorRole.
func (r ActorRole) String() string { return string(r) }

// ActorFailureError reports an unexpected fault inside a producer or consumer.
// The coordinator surfaces it instead of waiting on the dead actor.
type ActorFailureError struct {
	Role    ActorRole
	ActorID int
	Err     error
}

// NewActorFailureError creates a new ActorFailureError.
func NewActorFailureError(role ActorRole, actorID int, err error) *ActorFailureError {
	return &ActorFailureError{Role: role, ActorID: actorID, Err: err}
}

// Error returns a string representation of the error.
func (e *ActorFailureError) Error() string {
	return fmt.Sprintf("%s %d failed: %v", e.Role, e.ActorID, e.Err)
}

// Unwrap returns the underlying cause.
func (e *ActorFailureError) Unwrap() error { return e.Err }

// Is reports whether target is ErrActorFailure.
func (e *ActorFailureError) Is(target error) bool { return target == ErrActorFailure }
