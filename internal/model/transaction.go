package model

import "time"

type TransactionType string

const (
	TransactionEarn   TransactionType = "EARN"
	TransactionRedeem TransactionType = "REDEEM"
)

// Transaction is an append-only ledger row. AwardedPoints is positive (or
// zero) for EARN and negative for REDEEM.
type Transaction struct {
	ID                  int64           `json:"id"`
	UserID              int64           `json:"user_id"`
	Type                TransactionType `json:"type"`
	BasePointsValue     int             `json:"base_points_value"`
	MultiplierUsed      float64         `json:"multiplier_used"`
	AwardedPoints       int             `json:"awarded_points"`
	Description         string          `json:"description"`
	ReferenceInstanceID *int64          `json:"reference_instance_id"`
	Timestamp           time.Time       `json:"timestamp"`
}

// TransactionFilter narrows a transaction history query. Zero values mean
// "no filter". End is exclusive.
type TransactionFilter struct {
	UserID *int64
	Type   TransactionType
	Search string
	Start  *time.Time
	End    *time.Time
	Limit  int
	Offset int
}
