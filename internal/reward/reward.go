// Package reward spends user balances on rewards, alone or split across
// several contributors, and manages the reward catalog.
package reward

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/dukerupert/chorechart/internal/apperr"
	"github.com/dukerupert/chorechart/internal/event"
	"github.com/dukerupert/chorechart/internal/metrics"
	"github.com/dukerupert/chorechart/internal/model"
	"github.com/dukerupert/chorechart/internal/store"
	"github.com/dukerupert/chorechart/internal/validate"
)

var rewardValidate = validate.New()

// Definition is the editable part of a reward.
type Definition struct {
	Name        string `json:"name" validate:"required,max=100"`
	Description string `json:"description" validate:"max=500"`
	CostPoints  int    `json:"cost_points" validate:"min=1,max=10000"`
	TierLevel   int    `json:"tier_level" validate:"min=0,max=10"`
}

func (d *Definition) Validate() error {
	return rewardValidate.Struct(d)
}

// Result describes a completed redemption.
type Result struct {
	Reward       model.Reward        `json:"reward"`
	Transactions []model.Transaction `json:"transactions"`
}

type Service struct {
	db     *sql.DB
	now    func() time.Time
	events event.Publisher
	logger *slog.Logger
}

type Option func(*Service)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(db *sql.DB, events event.Publisher, logger *slog.Logger, opts ...Option) *Service {
	if events == nil {
		events = event.Discard{}
	}
	s := &Service{
		db:     db,
		now:    time.Now,
		events: events,
		logger: logger.With("component", "reward"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Redeem spends the reward's full cost from one user's balance.
func (s *Service) Redeem(ctx context.Context, userID, rewardID int64) (*Result, error) {
	now := s.now()
	var result *Result

	err := store.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		r, err := store.NewRewardStore(tx).GetByID(ctx, rewardID)
		if err != nil {
			return err
		}
		if r == nil {
			return apperr.NotFoundf("reward %d not found", rewardID)
		}

		u, err := store.NewUserStore(tx).GetByID(ctx, userID)
		if err != nil {
			return err
		}
		if u == nil {
			return apperr.NotFoundf("user %d not found", userID)
		}
		if u.CurrentPoints < r.CostPoints {
			return apperr.InsufficientFundsf("insufficient points: have %d, need %d", u.CurrentPoints, r.CostPoints)
		}

		entry, err := spend(ctx, tx, u.ID, r, r.CostPoints, now)
		if err != nil {
			return err
		}
		result = &Result{Reward: *r, Transactions: []model.Transaction{*entry}}
		return nil
	})
	if err != nil {
		metrics.Redemptions.WithLabelValues("single", "rejected").Inc()
		return nil, err
	}

	s.emit(ctx, "single", result, now)
	return result, nil
}

// RedeemSplit spends the reward's cost across several users. Every
// contribution is checked before anything is written: the non-zero
// contributions must add up to the cost exactly and each contributor
// must hold enough points.
func (s *Service) RedeemSplit(ctx context.Context, rewardID int64, contributions []model.Contribution) (*Result, error) {
	now := s.now()
	var result *Result

	err := store.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		r, err := store.NewRewardStore(tx).GetByID(ctx, rewardID)
		if err != nil {
			return err
		}
		if r == nil {
			return apperr.NotFoundf("reward %d not found", rewardID)
		}

		active, err := mergeContributions(contributions)
		if err != nil {
			return err
		}
		total := 0
		for _, c := range active {
			total += c.Points
		}
		if total != r.CostPoints {
			return apperr.Conflictf("contributions total %d points, reward costs %d", total, r.CostPoints)
		}

		users := store.NewUserStore(tx)
		for _, c := range active {
			u, err := users.GetByID(ctx, c.UserID)
			if err != nil {
				return err
			}
			if u == nil {
				return apperr.NotFoundf("user %d not found", c.UserID)
			}
			if u.CurrentPoints < c.Points {
				return apperr.Conflictf("user %s has %d points, needs %d", u.Nickname, u.CurrentPoints, c.Points)
			}
		}

		result = &Result{Reward: *r}
		for _, c := range active {
			entry, err := spend(ctx, tx, c.UserID, r, c.Points, now)
			if err != nil {
				return err
			}
			result.Transactions = append(result.Transactions, *entry)
		}
		return nil
	})
	if err != nil {
		metrics.Redemptions.WithLabelValues("split", "rejected").Inc()
		return nil, err
	}

	s.emit(ctx, "split", result, now)
	return result, nil
}

// mergeContributions drops zero-point entries and folds repeated users
// into one entry, preserving first-seen order.
func mergeContributions(in []model.Contribution) ([]model.Contribution, error) {
	var out []model.Contribution
	index := map[int64]int{}
	for _, c := range in {
		if c.Points < 0 {
			return nil, apperr.Validationf("contribution for user %d is negative", c.UserID)
		}
		if c.Points == 0 {
			continue
		}
		if i, ok := index[c.UserID]; ok {
			out[i].Points += c.Points
			continue
		}
		index[c.UserID] = len(out)
		out = append(out, c)
	}
	return out, nil
}

// spend debits one user and writes the REDEEM entry. The debit is guarded
// in SQL, so a balance that changed since validation fails the whole
// transaction instead of going negative.
func spend(ctx context.Context, tx *sql.Tx, userID int64, r *model.Reward, points int, now time.Time) (*model.Transaction, error) {
	users := store.NewUserStore(tx)
	ok, err := users.Debit(ctx, userID, points)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperr.InsufficientFundsf("insufficient points for user %d", userID)
	}

	entry, err := store.NewTransactionStore(tx).Append(ctx, model.Transaction{
		UserID:          userID,
		Type:            model.TransactionRedeem,
		BasePointsValue: points,
		MultiplierUsed:  1.0,
		AwardedPoints:   -points,
		Description:     fmt.Sprintf("Redeemed: %s", r.Name),
		Timestamp:       now,
	})
	if err != nil {
		return nil, err
	}

	if err := users.ClearGoalIf(ctx, userID, r.ID); err != nil {
		return nil, err
	}
	return entry, nil
}

func (s *Service) emit(ctx context.Context, kind string, result *Result, now time.Time) {
	metrics.Redemptions.WithLabelValues(kind, "ok").Inc()
	events := make([]event.Event, 0, len(result.Transactions))
	for _, t := range result.Transactions {
		metrics.PointsRedeemed.Add(float64(-t.AwardedPoints))
		ev := event.New(event.RewardRedeemed, t.UserID, now).ForReward(result.Reward.ID)
		ev.Points = -t.AwardedPoints
		events = append(events, ev)
	}
	s.logger.Info("reward redeemed", "reward_id", result.Reward.ID, "kind", kind, "contributors", len(events))
	s.events.Publish(ctx, events...)
}
