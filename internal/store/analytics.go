package store

import (
	"context"
	"fmt"
	"time"

	"github.com/dukerupert/chorechart/internal/model"
)

type AnalyticsStore struct {
	db DBTX
}

func NewAnalyticsStore(db DBTX) *AnalyticsStore {
	return &AnalyticsStore{db: db}
}

// WeeklyActivity counts completed instances per user nickname for each of
// the seven local calendar days ending with the day of now.
func (s *AnalyticsStore) WeeklyActivity(ctx context.Context, now time.Time) ([]model.DailyActivity, error) {
	y, m, d := now.Date()
	first := time.Date(y, m, d-6, 0, 0, 0, 0, now.Location())

	days := make([]model.DailyActivity, 7)
	index := make(map[string]int, 7)
	for i := range days {
		date := first.AddDate(0, 0, i).Format(model.DateLayout)
		days[i] = model.DailyActivity{Date: date, Counts: map[string]int{}}
		index[date] = i
	}

	completed, err := NewInstanceStore(s.db).ListCompletedSince(ctx, first)
	if err != nil {
		return nil, fmt.Errorf("weekly activity: %w", err)
	}
	for _, inst := range completed {
		date := inst.CompletedAt.In(now.Location()).Format(model.DateLayout)
		if i, ok := index[date]; ok {
			days[i].Counts[inst.UserNickname]++
		}
	}
	return days, nil
}

// PointsDistribution returns every user's lifetime points with the user's
// role name.
func (s *AnalyticsStore) PointsDistribution(ctx context.Context) ([]model.PointsShare, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT u.nickname, u.lifetime_points, r.name
		 FROM users u JOIN roles r ON r.id = u.role_id
		 ORDER BY u.lifetime_points DESC, u.id ASC`)
	if err != nil {
		return nil, fmt.Errorf("points distribution: %w", err)
	}
	defer rows.Close()

	var out []model.PointsShare
	for rows.Next() {
		var p model.PointsShare
		if err := rows.Scan(&p.Name, &p.Value, &p.Role); err != nil {
			return nil, fmt.Errorf("scan points share: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
