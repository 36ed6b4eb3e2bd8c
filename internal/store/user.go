package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dukerupert/chorechart/internal/model"
)

type UserStore struct {
	db DBTX
}

func NewUserStore(db DBTX) *UserStore {
	return &UserStore{db: db}
}

const userCols = `u.id, u.nickname, u.role_id, u.current_points, u.lifetime_points, u.current_goal_reward_id, u.current_streak, u.last_task_date, u.preferred_language, u.created_at`

func scanUser(s scanner, extra ...any) (*model.User, error) {
	var u model.User
	var goal sql.NullInt64
	var lastDate, lang sql.NullString

	dest := []any{
		&u.ID, &u.Nickname, &u.RoleID, &u.CurrentPoints, &u.LifetimePoints,
		&goal, &u.CurrentStreak, &lastDate, &lang, &u.CreatedAt,
	}
	if err := s.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}

	if goal.Valid {
		u.CurrentGoalRewardID = &goal.Int64
	}
	if lastDate.Valid {
		u.LastTaskDate = &lastDate.String
	}
	if lang.Valid {
		u.PreferredLanguage = &lang.String
	}
	return &u, nil
}

func (s *UserStore) Create(ctx context.Context, nickname, pinHash string, roleID int64) (*model.User, error) {
	result, err := s.db.ExecContext(ctx,
		`INSERT INTO users (nickname, pin_hash, role_id) VALUES (?, ?, ?)`,
		nickname, pinHash, roleID,
	)
	if err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(ctx, id)
}

func (s *UserStore) GetByID(ctx context.Context, id int64) (*model.User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+userCols+` FROM users u WHERE u.id = ?`, id)
	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

func (s *UserStore) GetByNickname(ctx context.Context, nickname string) (*model.User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+userCols+` FROM users u WHERE u.nickname = ?`, nickname)
	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user by nickname: %w", err)
	}
	return u, nil
}

// GetWithRole loads a user together with its role in one query.
func (s *UserStore) GetWithRole(ctx context.Context, id int64) (*model.UserWithRole, error) {
	var role model.Role
	row := s.db.QueryRowContext(ctx,
		`SELECT `+userCols+`, r.id, r.name, r.multiplier, r.created_at
		 FROM users u JOIN roles r ON r.id = u.role_id WHERE u.id = ?`, id)
	u, err := scanUser(row, &role.ID, &role.Name, &role.Multiplier, &role.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user with role: %w", err)
	}
	return &model.UserWithRole{User: *u, Role: role}, nil
}

func (s *UserStore) list(ctx context.Context, query string, args ...any) ([]model.User, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

func (s *UserStore) List(ctx context.Context) ([]model.User, error) {
	return s.list(ctx, `SELECT `+userCols+` FROM users u ORDER BY u.id ASC`)
}

func (s *UserStore) ListByRole(ctx context.Context, roleID int64) ([]model.User, error) {
	return s.list(ctx, `SELECT `+userCols+` FROM users u WHERE u.role_id = ? ORDER BY u.id ASC`, roleID)
}

func (s *UserStore) CountByRole(ctx context.Context, roleID int64) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users WHERE role_id = ?`, roleID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count users by role: %w", err)
	}
	return n, nil
}

func (s *UserStore) ReassignRole(ctx context.Context, fromRoleID, toRoleID int64) (int64, error) {
	result, err := s.db.ExecContext(ctx, `UPDATE users SET role_id = ? WHERE role_id = ?`, toRoleID, fromRoleID)
	if err != nil {
		return 0, fmt.Errorf("reassign users: %w", err)
	}
	return result.RowsAffected()
}

func (s *UserStore) GetPINHash(ctx context.Context, id int64) (string, error) {
	var hash string
	err := s.db.QueryRowContext(ctx, `SELECT pin_hash FROM users WHERE id = ?`, id).Scan(&hash)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get pin hash: %w", err)
	}
	return hash, nil
}

func (s *UserStore) SetGoal(ctx context.Context, id int64, rewardID *int64) error {
	_, err := s.db.ExecContext(ctx, `UPDATE users SET current_goal_reward_id = ? WHERE id = ?`, nullInt64(rewardID), id)
	if err != nil {
		return fmt.Errorf("set goal: %w", err)
	}
	return nil
}

// SetLanguage stores the user's language. Nil falls back to the household
// default.
func (s *UserStore) SetLanguage(ctx context.Context, id int64, lang *string) error {
	var v sql.NullString
	if lang != nil {
		v = sql.NullString{String: *lang, Valid: true}
	}
	_, err := s.db.ExecContext(ctx, `UPDATE users SET preferred_language = ? WHERE id = ?`, v, id)
	if err != nil {
		return fmt.Errorf("set language: %w", err)
	}
	return nil
}

// ClearGoalIf clears the user's goal only when it points at rewardID.
func (s *UserStore) ClearGoalIf(ctx context.Context, id, rewardID int64) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE users SET current_goal_reward_id = NULL WHERE id = ? AND current_goal_reward_id = ?`,
		id, rewardID,
	)
	if err != nil {
		return fmt.Errorf("clear goal: %w", err)
	}
	return nil
}

// Credit adds an EARN amount to both the spendable and lifetime balances.
func (s *UserStore) Credit(ctx context.Context, id int64, points int) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE users SET current_points = current_points + ?, lifetime_points = lifetime_points + ? WHERE id = ?`,
		points, points, id,
	)
	if err != nil {
		return fmt.Errorf("credit user: %w", err)
	}
	return nil
}

// Debit subtracts points from the spendable balance. It reports false, and
// changes nothing, when the balance is smaller than points.
func (s *UserStore) Debit(ctx context.Context, id int64, points int) (bool, error) {
	result, err := s.db.ExecContext(ctx,
		`UPDATE users SET current_points = current_points - ? WHERE id = ? AND current_points >= ?`,
		points, id, points,
	)
	if err != nil {
		return false, fmt.Errorf("debit user: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n == 1, nil
}

func (s *UserStore) UpdateStreak(ctx context.Context, id int64, streak int, lastTaskDate string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE users SET current_streak = ?, last_task_date = ? WHERE id = ?`,
		streak, lastTaskDate, id,
	)
	if err != nil {
		return fmt.Errorf("update streak: %w", err)
	}
	return nil
}
