package event

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dukerupert/chorechart/internal/model"
	"github.com/dukerupert/chorechart/internal/store"
)

// NotificationSink persists each event as a notification for its user.
type NotificationSink struct {
	store *store.NotificationStore
}

func NewNotificationSink(s *store.NotificationStore) *NotificationSink {
	return &NotificationSink{store: s}
}

func (n *NotificationSink) Handle(ctx context.Context, e Event) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	title, message := describe(e)
	_, err = n.store.Create(ctx, model.Notification{
		UserID:    e.UserID,
		Type:      string(e.Type),
		Title:     title,
		Message:   message,
		Data:      string(data),
		CreatedAt: e.At,
	})
	return err
}

func describe(e Event) (title, message string) {
	switch e.Type {
	case TaskCompleted:
		return "Task completed", fmt.Sprintf("You earned %d points.", e.Points)
	case TaskInReview:
		return "Task submitted", "Your photo was submitted and is waiting for review."
	case TaskReviewed:
		if e.Outcome == OutcomeApproved {
			return "Task approved", fmt.Sprintf("Your task was approved. You earned %d points.", e.Points)
		}
		if e.Reason != "" {
			return "Task rejected", "Your task was sent back: " + e.Reason
		}
		return "Task rejected", "Your task was sent back. Please try again."
	case RewardRedeemed:
		return "Reward redeemed", fmt.Sprintf("You spent %d points on a reward.", e.Points)
	default:
		return string(e.Type), ""
	}
}
