package models

import (
	"time"

	"github.com/google/uuid"
)

// EventStatus is the closed set of event states. Transitions happen only
// through explicit status updates; there are no automatic transitions.
type EventStatus string

const (
	StatusScheduled  EventStatus = "SCHEDULED"
	StatusInProgress EventStatus = "IN_PROGRESS"
	StatusCompleted  EventStatus = "COMPLETED"
	StatusCancelled  EventStatus = "CANCELLED"
)

// Valid reports whether s is a known status.
func (s EventStatus) Valid() bool {
	switch s {
	case StatusScheduled, StatusInProgress, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// MaxEventDuration caps the span of a single event at seven days.
const MaxEventDuration = 7 * 24 * time.Hour

// Event is a calendar entry owned by a single user. OwnerID never changes
// after creation. Version backs optimistic concurrency in the store.
type Event struct {
	ID          uuid.UUID   `json:"id"`
	OwnerID     uuid.UUID   `json:"owner_id"`
	Title       string      `json:"title"`
	Description string      `json:"description,omitempty"`
	StartTime   time.Time   `json:"start_time"`
	EndTime     time.Time   `json:"end_time"`
	Location    string      `json:"location,omitempty"`
	Status      EventStatus `json:"status"`
	CategoryID  *uuid.UUID  `json:"category_id,omitempty"`
	Version     int         `json:"version"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// RangesOverlap reports whether [s1, e1] and [s2, e2] intersect under
// boundary-inclusive comparison: an event ending exactly when another
// starts counts as overlapping.
func RangesOverlap(s1, e1, s2, e2 time.Time) bool {
	return !s1.After(e2) && !e1.Before(s2)
}
