package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dukerupert/chorechart/internal/model"
)

type TaskStore struct {
	db DBTX
}

func NewTaskStore(db DBTX) *TaskStore {
	return &TaskStore{db: db}
}

const taskCols = `id, name, description, base_points, assigned_role_id, schedule_type, default_due_time, recurrence_min_days, recurrence_max_days, requires_photo_verification, created_at`

func scanTask(s scanner) (*model.Task, error) {
	var t model.Task
	var roleID, minDays, maxDays sql.NullInt64
	var photo int

	if err := s.Scan(
		&t.ID, &t.Name, &t.Description, &t.BasePoints, &roleID, &t.ScheduleType,
		&t.DefaultDueTime, &minDays, &maxDays, &photo, &t.CreatedAt,
	); err != nil {
		return nil, err
	}

	if roleID.Valid {
		t.AssignedRoleID = &roleID.Int64
	}
	if minDays.Valid {
		v := int(minDays.Int64)
		t.RecurrenceMinDays = &v
	}
	if maxDays.Valid {
		v := int(maxDays.Int64)
		t.RecurrenceMaxDays = &v
	}
	t.RequiresPhotoVerification = photo != 0
	return &t, nil
}

func (s *TaskStore) Create(ctx context.Context, t model.Task) (*model.Task, error) {
	result, err := s.db.ExecContext(ctx,
		`INSERT INTO tasks (name, description, base_points, assigned_role_id, schedule_type, default_due_time,
		 recurrence_min_days, recurrence_max_days, requires_photo_verification)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.Name, t.Description, t.BasePoints, nullInt64(t.AssignedRoleID), t.ScheduleType, t.DefaultDueTime,
		nullInt(t.RecurrenceMinDays), nullInt(t.RecurrenceMaxDays), boolInt(t.RequiresPhotoVerification),
	)
	if err != nil {
		return nil, fmt.Errorf("insert task: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(ctx, id)
}

func (s *TaskStore) GetByID(ctx context.Context, id int64) (*model.Task, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+taskCols+` FROM tasks WHERE id = ?`, id)
	t, err := scanTask(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get task: %w", err)
	}
	return t, nil
}

func (s *TaskStore) List(ctx context.Context) ([]model.Task, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+taskCols+` FROM tasks ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []model.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, *t)
	}
	return tasks, rows.Err()
}

func (s *TaskStore) Update(ctx context.Context, t model.Task) (*model.Task, error) {
	_, err := s.db.ExecContext(ctx,
		`UPDATE tasks SET name = ?, description = ?, base_points = ?, assigned_role_id = ?, schedule_type = ?,
		 default_due_time = ?, recurrence_min_days = ?, recurrence_max_days = ?, requires_photo_verification = ?
		 WHERE id = ?`,
		t.Name, t.Description, t.BasePoints, nullInt64(t.AssignedRoleID), t.ScheduleType, t.DefaultDueTime,
		nullInt(t.RecurrenceMinDays), nullInt(t.RecurrenceMaxDays), boolInt(t.RequiresPhotoVerification),
		t.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("update task: %w", err)
	}
	return s.GetByID(ctx, t.ID)
}

// Delete removes a task. Its instances go with it; ledger rows that
// referenced those instances keep their amounts and lose the reference.
func (s *TaskStore) Delete(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	return nil
}

// Unassign moves every task bound to roleID to "all users".
func (s *TaskStore) Unassign(ctx context.Context, roleID int64) (int64, error) {
	result, err := s.db.ExecContext(ctx, `UPDATE tasks SET assigned_role_id = NULL WHERE assigned_role_id = ?`, roleID)
	if err != nil {
		return 0, fmt.Errorf("unassign tasks: %w", err)
	}
	return result.RowsAffected()
}
