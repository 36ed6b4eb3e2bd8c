package chore

import (
	"context"

	"github.com/dukerupert/chorechart/internal/apperr"
	"github.com/dukerupert/chorechart/internal/model"
	"github.com/dukerupert/chorechart/internal/store"
)

// TodayForUser lists the user's PENDING instances due today or later.
func (e *Engine) TodayForUser(ctx context.Context, userID int64) ([]model.InstanceDetail, error) {
	u, err := store.NewUserStore(e.db).GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, apperr.NotFoundf("user %d not found", userID)
	}
	return store.NewInstanceStore(e.db).ListPendingForUserSince(ctx, userID, StartOfDay(e.Now()))
}

// Pending lists every PENDING instance across all users.
func (e *Engine) Pending(ctx context.Context) ([]model.InstanceDetail, error) {
	return store.NewInstanceStore(e.db).ListByStatus(ctx, model.StatusPending)
}

// AwaitingReview lists the photo-gated instances waiting for an admin.
func (e *Engine) AwaitingReview(ctx context.Context) ([]model.InstanceDetail, error) {
	return store.NewInstanceStore(e.db).ListByStatus(ctx, model.StatusInReview)
}
