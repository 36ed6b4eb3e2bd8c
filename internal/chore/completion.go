package chore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/dukerupert/chorechart/internal/apperr"
	"github.com/dukerupert/chorechart/internal/event"
	"github.com/dukerupert/chorechart/internal/metrics"
	"github.com/dukerupert/chorechart/internal/model"
	"github.com/dukerupert/chorechart/internal/store"
)

// Complete finishes a PENDING instance. When performerID names someone
// other than the assignee, the instance moves to the performer before any
// points are computed. Tasks that require a photo go to IN_REVIEW instead
// and are settled by Review. Completing a COMPLETED instance returns it
// unchanged.
func (e *Engine) Complete(ctx context.Context, instanceID int64, performerID *int64, photoURL *string) (*model.TaskInstance, error) {
	now := e.Now()

	var (
		result  *model.TaskInstance
		outcome string
		evt     *event.Event
	)
	err := store.WithTx(ctx, e.db, func(tx *sql.Tx) error {
		instances := store.NewInstanceStore(tx)

		inst, err := instances.GetByID(ctx, instanceID)
		if err != nil {
			return err
		}
		if inst == nil {
			return apperr.NotFoundf("task instance %d not found", instanceID)
		}
		switch inst.Status {
		case model.StatusCompleted:
			result = inst
			return nil
		case model.StatusInReview:
			return apperr.Validationf("task instance %d is awaiting review", instanceID)
		}

		task, err := store.NewTaskStore(tx).GetByID(ctx, inst.TaskID)
		if err != nil {
			return err
		}
		if task == nil {
			return apperr.NotFoundf("task %d not found", inst.TaskID)
		}

		if performerID != nil && *performerID != inst.UserID {
			performer, err := store.NewUserStore(tx).GetByID(ctx, *performerID)
			if err != nil {
				return err
			}
			if performer == nil {
				return apperr.NotFoundf("user %d not found", *performerID)
			}
			// A photo claim can bounce back to PENDING on rejection, so the
			// performer must not already hold an open instance that day.
			if task.RequiresPhotoVerification {
				busy, err := instances.HasOpenSince(ctx, task.ID, performer.ID, e.dayStart(inst.DueTime), inst.ID)
				if err != nil {
					return err
				}
				if busy {
					return apperr.Conflictf("user %d already has an open %q instance for that day", performer.ID, task.Name)
				}
			}
			if err := instances.SetUser(ctx, inst.ID, performer.ID); err != nil {
				return err
			}
			inst.UserID = performer.ID
		}

		if task.RequiresPhotoVerification {
			if photoURL == nil || strings.TrimSpace(*photoURL) == "" {
				return apperr.Validationf("task %q requires a photo to be completed", task.Name)
			}
			if err := instances.MarkInReview(ctx, inst.ID, photoURL); err != nil {
				return err
			}
			ev := event.New(event.TaskInReview, inst.UserID, now).ForInstance(inst.ID)
			evt, outcome = &ev, "in_review"
		} else {
			award, err := e.settle(ctx, tx, inst, task, now)
			if err != nil {
				return err
			}
			ev := event.New(event.TaskCompleted, inst.UserID, now).ForInstance(inst.ID)
			ev.Points = award.Points
			evt, outcome = &ev, "completed"
		}

		result, err = instances.GetByID(ctx, inst.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	e.emit(ctx, evt, outcome)
	return result, nil
}

// Review settles an IN_REVIEW instance. Approval awards points exactly as a
// direct completion would; rejection returns the instance to PENDING and
// drops the photo, unless the user already holds another open instance of
// the task that day.
func (e *Engine) Review(ctx context.Context, instanceID int64, approve bool, reason string) (*model.TaskInstance, error) {
	now := e.Now()

	var (
		result  *model.TaskInstance
		outcome string
		evt     *event.Event
	)
	err := store.WithTx(ctx, e.db, func(tx *sql.Tx) error {
		instances := store.NewInstanceStore(tx)

		inst, err := instances.GetByID(ctx, instanceID)
		if err != nil {
			return err
		}
		if inst == nil {
			return apperr.NotFoundf("task instance %d not found", instanceID)
		}
		if inst.Status != model.StatusInReview {
			return apperr.Validationf("task instance %d is not awaiting review", instanceID)
		}

		ev := event.New(event.TaskReviewed, inst.UserID, now).ForInstance(inst.ID)
		if approve {
			task, err := store.NewTaskStore(tx).GetByID(ctx, inst.TaskID)
			if err != nil {
				return err
			}
			if task == nil {
				return apperr.NotFoundf("task %d not found", inst.TaskID)
			}
			award, err := e.settle(ctx, tx, inst, task, now)
			if err != nil {
				return err
			}
			ev.Outcome = event.OutcomeApproved
			ev.Points = award.Points
			outcome = "approved"
		} else {
			busy, err := instances.HasOpenSince(ctx, inst.TaskID, inst.UserID, e.dayStart(inst.DueTime), inst.ID)
			if err != nil {
				return err
			}
			if busy {
				return apperr.Conflictf("user %d already has a pending instance of task %d for that day", inst.UserID, inst.TaskID)
			}
			if err := instances.ResetToPending(ctx, inst.ID); err != nil {
				return err
			}
			ev.Outcome = event.OutcomeRejected
			ev.Reason = strings.TrimSpace(reason)
			outcome = "rejected"
		}
		evt = &ev

		result, err = instances.GetByID(ctx, inst.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	e.emit(ctx, evt, outcome)
	return result, nil
}

// settle finalizes a completion: streak and bonus computation, the status
// change, the EARN entry, the balance update and, for recurring tasks,
// closing the other users' PENDING instances without payout.
func (e *Engine) settle(ctx context.Context, tx *sql.Tx, inst *model.TaskInstance, task *model.Task, now time.Time) (Award, error) {
	users := store.NewUserStore(tx)
	instances := store.NewInstanceStore(tx)

	u, err := users.GetWithRole(ctx, inst.UserID)
	if err != nil {
		return Award{}, err
	}
	if u == nil {
		return Award{}, apperr.NotFoundf("user %d not found", inst.UserID)
	}

	award := ComputeAward(task.BasePoints, u.Role.Multiplier, u.User, now)
	if award.FirstToday {
		if err := users.UpdateStreak(ctx, u.ID, award.Streak, award.LastTaskDate); err != nil {
			return Award{}, err
		}
	}

	changed, err := instances.MarkCompleted(ctx, inst.ID, now)
	if err != nil {
		return Award{}, err
	}
	if !changed {
		return Award{}, apperr.Conflictf("task instance %d was already completed", inst.ID)
	}

	if _, err := store.NewTransactionStore(tx).Append(ctx, model.Transaction{
		UserID:              u.ID,
		Type:                model.TransactionEarn,
		BasePointsValue:     task.BasePoints,
		MultiplierUsed:      award.Multiplier.InexactFloat64(),
		AwardedPoints:       award.Points,
		Description:         fmt.Sprintf("Completed: %s", task.Name),
		ReferenceInstanceID: &inst.ID,
		Timestamp:           now,
	}); err != nil {
		return Award{}, err
	}

	if err := users.Credit(ctx, u.ID, award.Points); err != nil {
		return Award{}, err
	}

	if task.ScheduleType == model.ScheduleRecurring {
		closed, err := instances.CompleteSiblings(ctx, task.ID, inst.ID, now)
		if err != nil {
			return Award{}, err
		}
		if closed > 0 {
			e.logger.Debug("closed sibling instances", "task_id", task.ID, "count", closed)
		}
	}
	return award, nil
}

// dayStart is the start of the calendar day of t in the engine location.
func (e *Engine) dayStart(t time.Time) time.Time {
	return StartOfDay(t.In(e.loc))
}

func (e *Engine) emit(ctx context.Context, evt *event.Event, outcome string) {
	if evt == nil {
		return
	}
	metrics.Completions.WithLabelValues(outcome).Inc()
	if evt.Points > 0 {
		metrics.PointsAwarded.Add(float64(evt.Points))
	}
	e.logger.Info("instance transition", "instance_id", *evt.InstanceID, "user_id", evt.UserID, "outcome", outcome, "points", evt.Points)
	e.events.Publish(ctx, *evt)
}
