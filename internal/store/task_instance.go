package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dukerupert/chorechart/internal/model"
)

type InstanceStore struct {
	db DBTX
}

func NewInstanceStore(db DBTX) *InstanceStore {
	return &InstanceStore{db: db}
}

const instanceCols = `i.id, i.task_id, i.user_id, i.due_time, i.status, i.completed_at, i.completion_photo_url`

const instanceDetailSelect = `SELECT ` + instanceCols + `, t.name, t.base_points, u.nickname
	FROM task_instances i
	JOIN tasks t ON t.id = i.task_id
	JOIN users u ON u.id = i.user_id`

func scanInstance(s scanner, extra ...any) (*model.TaskInstance, error) {
	var ti model.TaskInstance
	var completedAt sql.NullTime
	var photo sql.NullString

	dest := []any{&ti.ID, &ti.TaskID, &ti.UserID, &ti.DueTime, &ti.Status, &completedAt, &photo}
	if err := s.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}

	if completedAt.Valid {
		ti.CompletedAt = &completedAt.Time
	}
	if photo.Valid {
		ti.CompletionPhotoURL = &photo.String
	}
	return &ti, nil
}

func scanInstanceDetail(s scanner) (*model.InstanceDetail, error) {
	var d model.InstanceDetail
	ti, err := scanInstance(s, &d.TaskName, &d.BasePoints, &d.UserNickname)
	if err != nil {
		return nil, err
	}
	d.TaskInstance = *ti
	return &d, nil
}

func (s *InstanceStore) Create(ctx context.Context, taskID, userID int64, due time.Time) (*model.TaskInstance, error) {
	result, err := s.db.ExecContext(ctx,
		`INSERT INTO task_instances (task_id, user_id, due_time, status) VALUES (?, ?, ?, ?)`,
		taskID, userID, dbTime(due), model.StatusPending,
	)
	if err != nil {
		return nil, fmt.Errorf("insert instance: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(ctx, id)
}

func (s *InstanceStore) GetByID(ctx context.Context, id int64) (*model.TaskInstance, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+instanceCols+` FROM task_instances i WHERE i.id = ?`, id)
	ti, err := scanInstance(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get instance: %w", err)
	}
	return ti, nil
}

func (s *InstanceStore) GetDetail(ctx context.Context, id int64) (*model.InstanceDetail, error) {
	row := s.db.QueryRowContext(ctx, instanceDetailSelect+` WHERE i.id = ?`, id)
	d, err := scanInstanceDetail(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get instance detail: %w", err)
	}
	return d, nil
}

// HasOpenSince reports whether the user holds a PENDING or IN_REVIEW
// instance of the task due at or after since, other than exceptID.
func (s *InstanceStore) HasOpenSince(ctx context.Context, taskID, userID int64, since time.Time, exceptID int64) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM task_instances
		 WHERE task_id = ? AND user_id = ? AND status IN (?, ?) AND due_time >= ? AND id != ?`,
		taskID, userID, model.StatusPending, model.StatusInReview, dbTime(since), exceptID,
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("check open instance: %w", err)
	}
	return n > 0, nil
}

// LastCompletedAt returns the most recent completion time of any instance
// of the task, or nil if none was ever completed.
func (s *InstanceStore) LastCompletedAt(ctx context.Context, taskID int64) (*time.Time, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+instanceCols+` FROM task_instances i
		 WHERE i.task_id = ? AND i.status = ?
		 ORDER BY i.completed_at DESC LIMIT 1`,
		taskID, model.StatusCompleted,
	)
	ti, err := scanInstance(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("last completed instance: %w", err)
	}
	return ti.CompletedAt, nil
}

func (s *InstanceStore) SetUser(ctx context.Context, id, userID int64) error {
	_, err := s.db.ExecContext(ctx, `UPDATE task_instances SET user_id = ? WHERE id = ?`, userID, id)
	if err != nil {
		return fmt.Errorf("reassign instance: %w", err)
	}
	return nil
}

// MarkCompleted moves a non-completed instance to COMPLETED. It reports
// false if the instance was already completed.
func (s *InstanceStore) MarkCompleted(ctx context.Context, id int64, at time.Time) (bool, error) {
	result, err := s.db.ExecContext(ctx,
		`UPDATE task_instances SET status = ?, completed_at = ? WHERE id = ? AND status != ?`,
		model.StatusCompleted, dbTime(at), id, model.StatusCompleted,
	)
	if err != nil {
		return false, fmt.Errorf("complete instance: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n == 1, nil
}

func (s *InstanceStore) MarkInReview(ctx context.Context, id int64, photoURL *string) error {
	var photo sql.NullString
	if photoURL != nil {
		photo = sql.NullString{String: *photoURL, Valid: true}
	}
	_, err := s.db.ExecContext(ctx,
		`UPDATE task_instances SET status = ?, completion_photo_url = ? WHERE id = ? AND status = ?`,
		model.StatusInReview, photo, id, model.StatusPending,
	)
	if err != nil {
		return fmt.Errorf("submit instance for review: %w", err)
	}
	return nil
}

// ResetToPending returns an IN_REVIEW instance to PENDING and drops its photo.
func (s *InstanceStore) ResetToPending(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE task_instances SET status = ?, completion_photo_url = NULL WHERE id = ? AND status = ?`,
		model.StatusPending, id, model.StatusInReview,
	)
	if err != nil {
		return fmt.Errorf("reject instance: %w", err)
	}
	return nil
}

// CompleteSiblings marks every other PENDING instance of the task as
// COMPLETED at the given time. No ledger entries are written for them.
func (s *InstanceStore) CompleteSiblings(ctx context.Context, taskID, exceptID int64, at time.Time) (int64, error) {
	result, err := s.db.ExecContext(ctx,
		`UPDATE task_instances SET status = ?, completed_at = ?
		 WHERE task_id = ? AND id != ? AND status = ?`,
		model.StatusCompleted, dbTime(at), taskID, exceptID, model.StatusPending,
	)
	if err != nil {
		return 0, fmt.Errorf("complete sibling instances: %w", err)
	}
	return result.RowsAffected()
}

func (s *InstanceStore) listDetails(ctx context.Context, query string, args ...any) ([]model.InstanceDetail, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list instances: %w", err)
	}
	defer rows.Close()

	var out []model.InstanceDetail
	for rows.Next() {
		d, err := scanInstanceDetail(rows)
		if err != nil {
			return nil, fmt.Errorf("scan instance: %w", err)
		}
		out = append(out, *d)
	}
	return out, rows.Err()
}

func (s *InstanceStore) ListByStatus(ctx context.Context, status model.InstanceStatus) ([]model.InstanceDetail, error) {
	return s.listDetails(ctx, instanceDetailSelect+` WHERE i.status = ? ORDER BY i.due_time ASC, i.id ASC`, status)
}

// ListPendingForUserSince returns a user's PENDING instances due at or
// after since.
func (s *InstanceStore) ListPendingForUserSince(ctx context.Context, userID int64, since time.Time) ([]model.InstanceDetail, error) {
	return s.listDetails(ctx,
		instanceDetailSelect+` WHERE i.user_id = ? AND i.status = ? AND i.due_time >= ? ORDER BY i.due_time ASC, i.id ASC`,
		userID, model.StatusPending, dbTime(since),
	)
}

// ListCompletedSince returns completed instances whose completion time is
// at or after since, for activity reporting.
func (s *InstanceStore) ListCompletedSince(ctx context.Context, since time.Time) ([]model.InstanceDetail, error) {
	return s.listDetails(ctx,
		instanceDetailSelect+` WHERE i.status = ? AND i.completed_at >= ? ORDER BY i.completed_at ASC`,
		model.StatusCompleted, dbTime(since),
	)
}
