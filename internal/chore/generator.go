package chore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dukerupert/chorechart/internal/metrics"
	"github.com/dukerupert/chorechart/internal/model"
	"github.com/dukerupert/chorechart/internal/store"
)

// Generate creates today's PENDING instances for every eligible task and
// target user, skipping pairs that already have a PENDING or IN_REVIEW
// instance due today or later. It returns the number of instances created and is safe
// to call any number of times a day.
func (e *Engine) Generate(ctx context.Context, now time.Time) (int, error) {
	today := now.In(e.loc)
	startOfToday := StartOfDay(today)

	var created int
	err := store.WithTx(ctx, e.db, func(tx *sql.Tx) error {
		created = 0
		tasks := store.NewTaskStore(tx)
		users := store.NewUserStore(tx)
		instances := store.NewInstanceStore(tx)

		all, err := tasks.List(ctx)
		if err != nil {
			return err
		}

		for _, task := range all {
			var last *time.Time
			if task.ScheduleType == model.ScheduleRecurring {
				if last, err = instances.LastCompletedAt(ctx, task.ID); err != nil {
					return err
				}
			}
			if !IsEligible(task, today, last) {
				continue
			}

			if task.ScheduleType == model.ScheduleDaily {
				if _, _, ok := ParseClock(task.DefaultDueTime); !ok {
					e.logger.Warn("invalid due time, using fallback", "task_id", task.ID, "due_time", task.DefaultDueTime)
				}
			}
			due := DueTime(task, today)

			targets, err := targetUsers(ctx, users, task)
			if err != nil {
				return err
			}
			for _, u := range targets {
				exists, err := instances.HasOpenSince(ctx, task.ID, u.ID, startOfToday, 0)
				if err != nil {
					return err
				}
				if exists {
					continue
				}
				if _, err := instances.Create(ctx, task.ID, u.ID, due); err != nil {
					return err
				}
				created++
			}
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("generate instances: %w", err)
	}

	metrics.InstancesGenerated.Add(float64(created))
	e.logger.Info("generated task instances", "date", today.Format(model.DateLayout), "created", created)
	return created, nil
}

// targetUsers returns the users holding the task's role, or everyone when
// the task is unassigned.
func targetUsers(ctx context.Context, users *store.UserStore, task model.Task) ([]model.User, error) {
	if task.AssignedRoleID != nil {
		return users.ListByRole(ctx, *task.AssignedRoleID)
	}
	return users.List(ctx)
}
