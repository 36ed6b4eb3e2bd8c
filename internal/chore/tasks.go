package chore

import (
	"context"
	"database/sql"

	"github.com/dukerupert/chorechart/internal/apperr"
	"github.com/dukerupert/chorechart/internal/model"
	"github.com/dukerupert/chorechart/internal/store"
)

func (e *Engine) CreateTask(ctx context.Context, def TaskDefinition) (*model.Task, error) {
	if err := def.Validate(); err != nil {
		return nil, err
	}
	var created *model.Task
	err := store.WithTx(ctx, e.db, func(tx *sql.Tx) error {
		if err := checkRole(ctx, tx, def.AssignedRoleID); err != nil {
			return err
		}
		var err error
		created, err = store.NewTaskStore(tx).Create(ctx, def.Task())
		return err
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// UpdateTask replaces every editable field of a task. Existing instances
// keep their due times.
func (e *Engine) UpdateTask(ctx context.Context, id int64, def TaskDefinition) (*model.Task, error) {
	if err := def.Validate(); err != nil {
		return nil, err
	}
	var updated *model.Task
	err := store.WithTx(ctx, e.db, func(tx *sql.Tx) error {
		tasks := store.NewTaskStore(tx)
		existing, err := tasks.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if existing == nil {
			return apperr.NotFoundf("task %d not found", id)
		}
		if err := checkRole(ctx, tx, def.AssignedRoleID); err != nil {
			return err
		}
		t := def.Task()
		t.ID = id
		updated, err = tasks.Update(ctx, t)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteTask removes a task and its instances. Ledger entries stay.
func (e *Engine) DeleteTask(ctx context.Context, id int64) error {
	return store.WithTx(ctx, e.db, func(tx *sql.Tx) error {
		tasks := store.NewTaskStore(tx)
		existing, err := tasks.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if existing == nil {
			return apperr.NotFoundf("task %d not found", id)
		}
		return tasks.Delete(ctx, id)
	})
}

// ImportTasks creates every item or none.
func (e *Engine) ImportTasks(ctx context.Context, items []TaskDefinition) ([]model.Task, error) {
	prepared, err := PrepareImport(items)
	if err != nil {
		return nil, err
	}

	var created []model.Task
	err = store.WithTx(ctx, e.db, func(tx *sql.Tx) error {
		created = created[:0]
		tasks := store.NewTaskStore(tx)
		for i, t := range prepared {
			if err := checkRole(ctx, tx, t.AssignedRoleID); err != nil {
				return apperr.Validationf("item %d: %s", i+1, err.Error())
			}
			c, err := tasks.Create(ctx, t)
			if err != nil {
				return err
			}
			created = append(created, *c)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	e.logger.Info("imported tasks", "count", len(created))
	return created, nil
}

func (e *Engine) ListTasks(ctx context.Context) ([]model.Task, error) {
	return store.NewTaskStore(e.db).List(ctx)
}

func checkRole(ctx context.Context, db store.DBTX, roleID *int64) error {
	if roleID == nil {
		return nil
	}
	role, err := store.NewRoleStore(db).GetByID(ctx, *roleID)
	if err != nil {
		return err
	}
	if role == nil {
		return apperr.Validationf("assigned role %d does not exist", *roleID)
	}
	return nil
}
