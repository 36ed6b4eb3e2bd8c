package model

import "time"

// MinMultiplier is the lowest point multiplier a role may carry.
const MinMultiplier = 0.1

type Role struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name"`
	Multiplier float64   `json:"multiplier"`
	CreatedAt  time.Time `json:"created_at"`
}
