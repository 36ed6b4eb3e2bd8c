package model

import "time"

type ScheduleType string

const (
	ScheduleDaily     ScheduleType = "daily"
	ScheduleWeekly    ScheduleType = "weekly"
	ScheduleRecurring ScheduleType = "recurring"
)

// Valid reports whether s is one of the known schedule types.
func (s ScheduleType) Valid() bool {
	switch s {
	case ScheduleDaily, ScheduleWeekly, ScheduleRecurring:
		return true
	}
	return false
}

// Task is a chore template. Instances are generated from it each day.
type Task struct {
	ID                        int64        `json:"id"`
	Name                      string       `json:"name"`
	Description               string       `json:"description"`
	BasePoints                int          `json:"base_points"`
	AssignedRoleID            *int64       `json:"assigned_role_id"`
	ScheduleType              ScheduleType `json:"schedule_type"`
	DefaultDueTime            string       `json:"default_due_time"`
	RecurrenceMinDays         *int         `json:"recurrence_min_days"`
	RecurrenceMaxDays         *int         `json:"recurrence_max_days"`
	RequiresPhotoVerification bool         `json:"requires_photo_verification"`
	CreatedAt                 time.Time    `json:"created_at"`
}
