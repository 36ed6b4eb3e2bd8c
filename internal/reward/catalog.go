package reward

import (
	"context"
	"database/sql"

	"github.com/dukerupert/chorechart/internal/apperr"
	"github.com/dukerupert/chorechart/internal/model"
	"github.com/dukerupert/chorechart/internal/store"
)

func (s *Service) List(ctx context.Context) ([]model.Reward, error) {
	return store.NewRewardStore(s.db).List(ctx)
}

func (s *Service) Create(ctx context.Context, d Definition) (*model.Reward, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return store.NewRewardStore(s.db).Create(ctx, d.Name, d.Description, d.CostPoints, d.TierLevel)
}

func (s *Service) Update(ctx context.Context, id int64, d Definition) (*model.Reward, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	var updated *model.Reward
	err := store.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		rewards := store.NewRewardStore(tx)
		existing, err := rewards.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if existing == nil {
			return apperr.NotFoundf("reward %d not found", id)
		}
		updated, err = rewards.Update(ctx, id, d.Name, d.Description, d.CostPoints, d.TierLevel)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete removes a reward; users who had it as their goal lose the goal.
func (s *Service) Delete(ctx context.Context, id int64) error {
	return store.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		rewards := store.NewRewardStore(tx)
		existing, err := rewards.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if existing == nil {
			return apperr.NotFoundf("reward %d not found", id)
		}
		return rewards.Delete(ctx, id)
	})
}

// SetGoal points the user's goal at a reward, or clears it when rewardID
// is nil.
func (s *Service) SetGoal(ctx context.Context, userID int64, rewardID *int64) (*model.User, error) {
	var updated *model.User
	err := store.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		users := store.NewUserStore(tx)
		u, err := users.GetByID(ctx, userID)
		if err != nil {
			return err
		}
		if u == nil {
			return apperr.NotFoundf("user %d not found", userID)
		}
		if rewardID != nil {
			r, err := store.NewRewardStore(tx).GetByID(ctx, *rewardID)
			if err != nil {
				return err
			}
			if r == nil {
				return apperr.NotFoundf("reward %d not found", *rewardID)
			}
		}
		if err := users.SetGoal(ctx, userID, rewardID); err != nil {
			return err
		}
		updated, err = users.GetByID(ctx, userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}
