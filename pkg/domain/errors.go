package domain

import "fmt"

// ValidationError reports a missing or invalid input field. No state is mutated.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	if e.Field == "" {
		return "validation failed: " + e.Message
	}
	return fmt.Sprintf("validation failed: %s %s", e.Field, e.Message)
}

// NotFoundError reports an id that does not resolve.
type NotFoundError struct {
	Entity EntityType
	ID     string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Entity, e.ID)
}

// ConflictError reports a write that would break a uniqueness invariant or a stale version.
type ConflictError struct {
	Entity  EntityType
	ID      string
	Message string
}

func (e ConflictError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("%s conflict: %s", e.Entity, e.Message)
	}
	return fmt.Sprintf("%s %q conflict: %s", e.Entity, e.ID, e.Message)
}

// AuthorizationError reports that the principal may not perform the action.
type AuthorizationError struct {
	StaffNo string
	Action  string
	Reason  string
}

func (e AuthorizationError) Error() string {
	return fmt.Sprintf("%s may not %s: %s", e.StaffNo, e.Action, e.Reason)
}

// PreconditionError reports that the current state does not permit the operation.
type PreconditionError struct {
	Message string
}

func (e PreconditionError) Error() string {
	return "precondition failed: " + e.Message
}

// PersistenceError wraps a failure of the durable snapshot backend.
type PersistenceError struct {
	Op  string
	Err error
}

func (e PersistenceError) Error() string {
	return fmt.Sprintf("persistence %s: %v", e.Op, e.Err)
}

func (e PersistenceError) Unwrap() error { return e.Err }
