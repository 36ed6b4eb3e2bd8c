package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dukerupert/chorechart/internal/model"
)

type RoleStore struct {
	db DBTX
}

func NewRoleStore(db DBTX) *RoleStore {
	return &RoleStore{db: db}
}

func scanRole(s scanner) (*model.Role, error) {
	var r model.Role
	if err := s.Scan(&r.ID, &r.Name, &r.Multiplier, &r.CreatedAt); err != nil {
		return nil, err
	}
	return &r, nil
}

const roleCols = `id, name, multiplier, created_at`

func (s *RoleStore) Create(ctx context.Context, name string, multiplier float64) (*model.Role, error) {
	result, err := s.db.ExecContext(ctx,
		`INSERT INTO roles (name, multiplier) VALUES (?, ?)`,
		name, multiplier,
	)
	if err != nil {
		return nil, fmt.Errorf("insert role: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(ctx, id)
}

func (s *RoleStore) GetByID(ctx context.Context, id int64) (*model.Role, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+roleCols+` FROM roles WHERE id = ?`, id)
	r, err := scanRole(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get role: %w", err)
	}
	return r, nil
}

func (s *RoleStore) GetByName(ctx context.Context, name string) (*model.Role, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+roleCols+` FROM roles WHERE name = ?`, name)
	r, err := scanRole(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get role by name: %w", err)
	}
	return r, nil
}

func (s *RoleStore) List(ctx context.Context) ([]model.Role, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+roleCols+` FROM roles ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list roles: %w", err)
	}
	defer rows.Close()

	var roles []model.Role
	for rows.Next() {
		r, err := scanRole(rows)
		if err != nil {
			return nil, fmt.Errorf("scan role: %w", err)
		}
		roles = append(roles, *r)
	}
	return roles, rows.Err()
}

func (s *RoleStore) UpdateMultiplier(ctx context.Context, id int64, multiplier float64) (*model.Role, error) {
	_, err := s.db.ExecContext(ctx, `UPDATE roles SET multiplier = ? WHERE id = ?`, multiplier, id)
	if err != nil {
		return nil, fmt.Errorf("update role: %w", err)
	}
	return s.GetByID(ctx, id)
}

func (s *RoleStore) Delete(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM roles WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete role: %w", err)
	}
	return nil
}
