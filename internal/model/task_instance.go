package model

import "time"

type InstanceStatus string

const (
	StatusPending   InstanceStatus = "PENDING"
	StatusInReview  InstanceStatus = "IN_REVIEW"
	StatusCompleted InstanceStatus = "COMPLETED"
)

// TaskInstance is one day's occurrence of a task for one user.
// CompletedAt is set if and only if Status is StatusCompleted.
type TaskInstance struct {
	ID                 int64          `json:"id"`
	TaskID             int64          `json:"task_id"`
	UserID             int64          `json:"user_id"`
	DueTime            time.Time      `json:"due_time"`
	Status             InstanceStatus `json:"status"`
	CompletedAt        *time.Time     `json:"completed_at"`
	CompletionPhotoURL *string        `json:"completion_photo_url"`
}

// InstanceDetail is an instance joined with its task and user names for
// listings.
type InstanceDetail struct {
	TaskInstance
	TaskName     string `json:"task_name"`
	BasePoints   int    `json:"base_points"`
	UserNickname string `json:"user_nickname"`
}
