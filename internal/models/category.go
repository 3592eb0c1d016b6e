package models

import (
	"regexp"
	"time"

	"github.com/google/uuid"
)

// DefaultCategoryColor is applied when a category is created without a color.
const DefaultCategoryColor = "#3498db"

var colorPattern = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

// ValidCategoryColor reports whether s is a 6-hex-digit RGB color like "#3498db".
func ValidCategoryColor(s string) bool {
	return colorPattern.MatchString(s)
}

// Category groups a user's events. Name is unique per owner (case-sensitive).
// EventCount is derived by the store and never persisted.
type Category struct {
	ID          uuid.UUID `json:"id"`
	OwnerID     uuid.UUID `json:"owner_id"`
	Name        string    `json:"name"`
	Color       string    `json:"color"`
	Description string    `json:"description,omitempty"`
	EventCount  int       `json:"event_count"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
