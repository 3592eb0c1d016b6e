// Package domain defines the typed error outcomes shared by the calendar
// services and translated to HTTP statuses at the transport boundary.
package domain

import "errors"

var (
	// ErrEventNotFound means the referenced event does not exist.
	ErrEventNotFound = errors.New("event not found")
	// ErrCategoryNotFound means the referenced category does not exist.
	ErrCategoryNotFound = errors.New("category not found")
	// ErrShareNotFound means no share exists for the (event, recipient) pair.
	ErrShareNotFound = errors.New("share not found")
	// ErrUserNotFound means the referenced user does not exist.
	ErrUserNotFound = errors.New("user not found")

	// ErrAccessDenied means the entity exists but the actor lacks the
	// required permission tier.
	ErrAccessDenied = errors.New("access denied")

	// ErrInvalidTimeRange means start >= end or duration over seven days.
	ErrInvalidTimeRange = errors.New("invalid time range")
	// ErrValidation covers blank required fields, malformed colors and
	// out-of-range reminder offsets.
	ErrValidation = errors.New("validation failed")

	// ErrDuplicateName means a category name collision for the same owner.
	ErrDuplicateName = errors.New("duplicate category name")
	// ErrCategoryInUse means a delete was attempted on a category that
	// still has events.
	ErrCategoryInUse = errors.New("category has events")
	// ErrCategoryLimitExceeded means the per-owner category cap is reached.
	ErrCategoryLimitExceeded = errors.New("category limit exceeded")

	// ErrSelfShare means the share target equals the event owner.
	ErrSelfShare = errors.New("cannot share event with its owner")
	// ErrDuplicateShare means a share already exists for (event, recipient).
	ErrDuplicateShare = errors.New("event already shared with user")
	// ErrShareLimitExceeded means the per-event share cap is reached.
	ErrShareLimitExceeded = errors.New("share limit exceeded")

	// ErrConflict means the store detected a concurrent-write conflict.
	ErrConflict = errors.New("concurrent modification conflict")
)

// IsNotFound reports whether err is any of the not-found kinds.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrEventNotFound) ||
		errors.Is(err, ErrCategoryNotFound) ||
		errors.Is(err, ErrShareNotFound) ||
		errors.Is(err, ErrUserNotFound)
}
