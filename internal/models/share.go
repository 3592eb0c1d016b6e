package models

import (
	"time"

	"github.com/google/uuid"
)

// Permission is the access tier a share grants.
type Permission string

const (
	PermissionViewOnly Permission = "VIEW_ONLY"
	PermissionEdit     Permission = "EDIT"
)

// Valid reports whether p is a known permission tier.
func (p Permission) Valid() bool {
	return p == PermissionViewOnly || p == PermissionEdit
}

// CanEdit reports whether the tier allows modifying the event.
func (p Permission) CanEdit() bool { return p == PermissionEdit }

// CanView reports whether the tier allows reading the event. Every valid
// tier can view.
func (p Permission) CanView() bool { return p.Valid() }

// Share grants a non-owner access to a single event. At most one share
// exists per (event, recipient); sharing never grants delete.
type Share struct {
	ID               uuid.UUID  `json:"id"`
	EventID          uuid.UUID  `json:"event_id"`
	SharedWithUserID uuid.UUID  `json:"shared_with_user_id"`
	Permission       Permission `json:"permission"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}
