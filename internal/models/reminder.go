package models

import (
	"time"

	"github.com/google/uuid"
)

// MaxReminderMinutes caps the reminder offset at seven days before the event.
const MaxReminderMinutes = 10080

// Reminder is owned exclusively by its event and is replaced wholesale on
// event update. DispatchedAt is set once the worker has delivered it.
type Reminder struct {
	ID            uuid.UUID  `json:"id"`
	EventID       uuid.UUID  `json:"event_id"`
	MinutesBefore int        `json:"minutes_before"`
	IsActive      bool       `json:"is_active"`
	DispatchedAt  *time.Time `json:"dispatched_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

// ReminderTime is the instant the reminder fires for an event starting at start.
func (r *Reminder) ReminderTime(start time.Time) time.Time {
	return start.Add(-time.Duration(r.MinutesBefore) * time.Minute)
}

// ValidReminderMinutes reports whether m is inside the allowed offset range.
func ValidReminderMinutes(m int) bool {
	return m >= 0 && m <= MaxReminderMinutes
}
