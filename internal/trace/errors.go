package trace

import (
	"errors"
	"fmt"
)

// TableError represents a failed table operation.
//
// Claim failures (UNINITIALIZED, FULL) are non-fatal signals: the event is
// dropped, the matching drop counter has already been incremented, and the
// caller is expected to carry on. Resize failures (TOO_SMALL,
// OUT_OF_MEMORY) must be surfaced to whoever requested the resize.
type TableError struct {
	// Code identifies the error category.
	Code TableErrorCode

	// Table names the affected trace table.
	Table string

	// Message is a human-readable description.
	Message string
}

// TableErrorCode categorizes table errors.
type TableErrorCode string

const (
	// ErrCodeUninitialized indicates the table's storage is not yet allocated.
	ErrCodeUninitialized TableErrorCode = "UNINITIALIZED"

	// ErrCodeFull indicates a non-wrapping table has consumed every slot.
	ErrCodeFull TableErrorCode = "FULL"

	// ErrCodeTooSmall indicates a resize that does not exceed the current capacity.
	ErrCodeTooSmall TableErrorCode = "TOO_SMALL"

	// ErrCodeOutOfMemory indicates a resize whose allocation was refused.
	ErrCodeOutOfMemory TableErrorCode = "OUT_OF_MEMORY"
)

// Error implements the error interface.
func (e *TableError) Error() string {
	if e.Table != "" {
		return fmt.Sprintf("%s: %s (table=%s)", e.Code, e.Message, e.Table)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsFull returns true if the error is a full-table claim failure.
// Uses errors.As to handle wrapped errors.
func IsFull(err error) bool {
	var te *TableError
	if errors.As(err, &te) {
		return te.Code == ErrCodeFull
	}
	return false
}

// IsUninitialized returns true if the error is an unallocated-table claim
// failure. Uses errors.As to handle wrapped errors.
func IsUninitialized(err error) bool {
	var te *TableError
	if errors.As(err, &te) {
		return te.Code == ErrCodeUninitialized
	}
	return false
}

// IsDropped returns true if the error means an event was dropped rather
// than stored: either the table was not yet allocated or it was full and
// non-wrapping. Administrative boundaries absorb these silently.
func IsDropped(err error) bool {
	return IsFull(err) || IsUninitialized(err)
}

// IsTooSmall returns true if the error is a rejected shrink or same-size
// resize request.
func IsTooSmall(err error) bool {
	var te *TableError
	if errors.As(err, &te) {
		return te.Code == ErrCodeTooSmall
	}
	return false
}
