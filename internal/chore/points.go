package chore

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/dukerupert/chorechart/internal/model"
)

// DailyBonus is added to the first completion of a user's day.
const DailyBonus = 5

var (
	streakStep = decimal.New(1, -1)
	streakCap  = decimal.New(5, -1)
)

// Award is the outcome of the point computation for one finalized
// completion, along with the streak state to persist.
type Award struct {
	FirstToday   bool
	Streak       int
	LastTaskDate string
	StreakBonus  decimal.Decimal
	Multiplier   decimal.Decimal
	DailyBonus   int
	Points       int
}

// StreakBonus is 0.1 per consecutive day after the first, capped at 0.5.
func StreakBonus(streak int) decimal.Decimal {
	if streak <= 1 {
		return decimal.Zero
	}
	return decimal.Min(streakCap, streakStep.Mul(decimal.NewFromInt(int64(streak-1))))
}

// ComputeAward applies the daily bonus, streak update and effective
// multiplier for a user completing a task worth basePoints on today's date.
func ComputeAward(basePoints int, roleMultiplier float64, user model.User, today time.Time) Award {
	todayStr := today.Format(model.DateLayout)
	yesterday := today.AddDate(0, 0, -1).Format(model.DateLayout)

	a := Award{
		Streak:       user.CurrentStreak,
		LastTaskDate: todayStr,
	}
	a.FirstToday = user.LastTaskDate == nil || *user.LastTaskDate != todayStr
	if a.FirstToday {
		a.DailyBonus = DailyBonus
		if user.LastTaskDate != nil && *user.LastTaskDate == yesterday {
			a.Streak++
		} else {
			a.Streak = 1
		}
	}

	a.StreakBonus = StreakBonus(a.Streak)
	a.Multiplier = decimal.NewFromFloat(roleMultiplier).Add(a.StreakBonus)
	a.Points = int(decimal.NewFromInt(int64(basePoints)).Mul(a.Multiplier).Floor().IntPart()) + a.DailyBonus
	return a
}
