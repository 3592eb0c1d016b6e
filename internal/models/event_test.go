package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRangesOverlap(t *testing.T) {
	day := time.Date(2024, 12, 25, 0, 0, 0, 0, time.UTC)
	at := func(h, m int) time.Time { return day.Add(time.Duration(h)*time.Hour + time.Duration(m)*time.Minute) }

	tests := []struct {
		name           string
		s1, e1, s2, e2 time.Time
		want           bool
	}{
		{"contained", at(10, 0), at(11, 0), at(10, 30), at(10, 45), true},
		{"partial overlap", at(10, 0), at(11, 0), at(10, 30), at(11, 30), true},
		{"boundary touch end-start", at(10, 0), at(11, 0), at(11, 0), at(12, 0), true},
		{"boundary touch start-end", at(11, 0), at(12, 0), at(10, 0), at(11, 0), true},
		{"disjoint after", at(10, 0), at(11, 0), at(11, 1), at(12, 0), false},
		{"disjoint before", at(10, 0), at(11, 0), at(8, 0), at(9, 59), false},
		{"identical", at(10, 0), at(11, 0), at(10, 0), at(11, 0), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RangesOverlap(tt.s1, tt.e1, tt.s2, tt.e2))
			// Overlap is symmetric.
			assert.Equal(t, tt.want, RangesOverlap(tt.s2, tt.e2, tt.s1, tt.e1))
		})
	}
}

func TestValidCategoryColor(t *testing.T) {
	assert.True(t, ValidCategoryColor("#3498db"))
	assert.True(t, ValidCategoryColor("#FFFFFF"))
	assert.True(t, ValidCategoryColor("#AbCdEf"))
	assert.False(t, ValidCategoryColor("3498db"))
	assert.False(t, ValidCategoryColor("#3498d"))
	assert.False(t, ValidCategoryColor("#3498dbb"))
	assert.False(t, ValidCategoryColor("#3498zz"))
	assert.False(t, ValidCategoryColor(""))
}

func TestPermissionTiers(t *testing.T) {
	assert.True(t, PermissionEdit.CanEdit())
	assert.True(t, PermissionEdit.CanView())
	assert.False(t, PermissionViewOnly.CanEdit())
	assert.True(t, PermissionViewOnly.CanView())
	assert.False(t, Permission("OWNER").Valid())
}

func TestReminderBounds(t *testing.T) {
	assert.True(t, ValidReminderMinutes(0))
	assert.True(t, ValidReminderMinutes(10080))
	assert.False(t, ValidReminderMinutes(-1))
	assert.False(t, ValidReminderMinutes(10081))

	r := Reminder{MinutesBefore: 30}
	start := time.Date(2024, 12, 25, 10, 0, 0, 0, time.UTC)
	assert.Equal(t, start.Add(-30*time.Minute), r.ReminderTime(start))
}

func TestEventStatusValid(t *testing.T) {
	for _, s := range []EventStatus{StatusScheduled, StatusInProgress, StatusCompleted, StatusCancelled} {
		assert.True(t, s.Valid())
	}
	assert.False(t, EventStatus("DONE").Valid())
}
