// Package domain defines core types, interfaces, and errors for grantscope.
package domain

import "fmt"

// NotFoundError indicates a resource was not found.
type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string { return e.Message }

// ValidationError indicates invalid input.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// ConflictError indicates a conflict (e.g., duplicate resource).
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string { return e.Message }

// SnapshotNotReadyError indicates a snapshot exists but is not in the
// completed state. Distinct from NotFoundError so callers can tell the
// user to wait for (or re-run) collection instead of fixing the id.
type SnapshotNotReadyError struct {
	SnapshotID string
	Status     SnapshotStatus
}

func (e *SnapshotNotReadyError) Error() string {
	return fmt.Sprintf("snapshot %s is %s, not completed", e.SnapshotID, e.Status)
}

// InvalidDiffPairError indicates the two snapshot ids passed to a diff
// cannot be compared: different clusters, or the same snapshot twice.
type InvalidDiffPairError struct {
	FromID string
	ToID   string
	Reason string
}

func (e *InvalidDiffPairError) Error() string {
	return fmt.Sprintf("cannot diff snapshots %s and %s: %s", e.FromID, e.ToID, e.Reason)
}

// ErrNotFound creates a NotFoundError with a formatted message.
func ErrNotFound(format string, args ...interface{}) *NotFoundError {
	return &NotFoundError{Message: fmt.Sprintf(format, args...)}
}

// ErrValidation creates a ValidationError with a formatted message.
func ErrValidation(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// ErrConflict creates a ConflictError with a formatted message.
func ErrConflict(format string, args ...interface{}) *ConflictError {
	return &ConflictError{Message: fmt.Sprintf(format, args...)}
}
