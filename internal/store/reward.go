package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dukerupert/chorechart/internal/model"
)

type RewardStore struct {
	db DBTX
}

func NewRewardStore(db DBTX) *RewardStore {
	return &RewardStore{db: db}
}

func scanReward(s scanner) (*model.Reward, error) {
	var r model.Reward
	if err := s.Scan(&r.ID, &r.Name, &r.Description, &r.CostPoints, &r.TierLevel, &r.CreatedAt); err != nil {
		return nil, err
	}
	return &r, nil
}

const rewardCols = `id, name, description, cost_points, tier_level, created_at`

func (s *RewardStore) Create(ctx context.Context, name, description string, costPoints, tierLevel int) (*model.Reward, error) {
	result, err := s.db.ExecContext(ctx,
		`INSERT INTO rewards (name, description, cost_points, tier_level) VALUES (?, ?, ?, ?)`,
		name, description, costPoints, tierLevel,
	)
	if err != nil {
		return nil, fmt.Errorf("insert reward: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(ctx, id)
}

func (s *RewardStore) GetByID(ctx context.Context, id int64) (*model.Reward, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+rewardCols+` FROM rewards WHERE id = ?`, id)
	r, err := scanReward(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get reward: %w", err)
	}
	return r, nil
}

// List returns rewards ordered by tier, then cost.
func (s *RewardStore) List(ctx context.Context) ([]model.Reward, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+rewardCols+` FROM rewards ORDER BY tier_level ASC, cost_points ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list rewards: %w", err)
	}
	defer rows.Close()

	var rewards []model.Reward
	for rows.Next() {
		r, err := scanReward(rows)
		if err != nil {
			return nil, fmt.Errorf("scan reward: %w", err)
		}
		rewards = append(rewards, *r)
	}
	return rewards, rows.Err()
}

func (s *RewardStore) Update(ctx context.Context, id int64, name, description string, costPoints, tierLevel int) (*model.Reward, error) {
	_, err := s.db.ExecContext(ctx,
		`UPDATE rewards SET name = ?, description = ?, cost_points = ?, tier_level = ? WHERE id = ?`,
		name, description, costPoints, tierLevel, id,
	)
	if err != nil {
		return nil, fmt.Errorf("update reward: %w", err)
	}
	return s.GetByID(ctx, id)
}

func (s *RewardStore) Delete(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM rewards WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete reward: %w", err)
	}
	return nil
}
