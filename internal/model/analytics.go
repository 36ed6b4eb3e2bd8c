package model

// DailyActivity is the number of completed instances per nickname on one day.
type DailyActivity struct {
	Date   string         `json:"date"`
	Counts map[string]int `json:"counts"`
}

// PointsShare is one user's slice of the lifetime points distribution.
type PointsShare struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
	Role  string `json:"role"`
}
