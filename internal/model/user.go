package model

import "time"

// DateLayout is the calendar-date layout used for streak bookkeeping and
// the daily reset marker.
const DateLayout = "2006-01-02"

type User struct {
	ID                  int64     `json:"id"`
	Nickname            string    `json:"nickname"`
	RoleID              int64     `json:"role_id"`
	CurrentPoints       int       `json:"current_points"`
	LifetimePoints      int       `json:"lifetime_points"`
	CurrentGoalRewardID *int64    `json:"current_goal_reward_id"`
	CurrentStreak       int       `json:"current_streak"`
	LastTaskDate        *string   `json:"last_task_date"`
	PreferredLanguage   *string   `json:"preferred_language"`
	CreatedAt           time.Time `json:"created_at"`
}

// UserWithRole is a user joined with its role, as the points engine needs it.
type UserWithRole struct {
	User
	Role Role `json:"role"`
}
