package model

import "time"

type Reward struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CostPoints  int       `json:"cost_points"`
	TierLevel   int       `json:"tier_level"`
	CreatedAt   time.Time `json:"created_at"`
}

// Contribution is one user's share of a split redemption.
type Contribution struct {
	UserID int64 `json:"user_id"`
	Points int   `json:"points"`
}
