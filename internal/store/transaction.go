package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/dukerupert/chorechart/internal/model"
)

// TransactionStore is the append-only points ledger. There is no update or
// delete method; the schema rejects both.
type TransactionStore struct {
	db DBTX
}

func NewTransactionStore(db DBTX) *TransactionStore {
	return &TransactionStore{db: db}
}

const transactionCols = `id, user_id, type, base_points_value, multiplier_used, awarded_points, description, reference_instance_id, timestamp`

func scanTransaction(s scanner) (*model.Transaction, error) {
	var tx model.Transaction
	var ref sql.NullInt64
	if err := s.Scan(
		&tx.ID, &tx.UserID, &tx.Type, &tx.BasePointsValue, &tx.MultiplierUsed,
		&tx.AwardedPoints, &tx.Description, &ref, &tx.Timestamp,
	); err != nil {
		return nil, err
	}
	if ref.Valid {
		tx.ReferenceInstanceID = &ref.Int64
	}
	return &tx, nil
}

func (s *TransactionStore) Append(ctx context.Context, tx model.Transaction) (*model.Transaction, error) {
	result, err := s.db.ExecContext(ctx,
		`INSERT INTO transactions (user_id, type, base_points_value, multiplier_used, awarded_points, description, reference_instance_id, timestamp)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		tx.UserID, tx.Type, tx.BasePointsValue, tx.MultiplierUsed, tx.AwardedPoints,
		tx.Description, nullInt64(tx.ReferenceInstanceID), dbTime(tx.Timestamp),
	)
	if err != nil {
		return nil, fmt.Errorf("insert transaction: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(ctx, id)
}

func (s *TransactionStore) GetByID(ctx context.Context, id int64) (*model.Transaction, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+transactionCols+` FROM transactions WHERE id = ?`, id)
	tx, err := scanTransaction(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get transaction: %w", err)
	}
	return tx, nil
}

// List returns ledger entries matching the filter, newest first.
func (s *TransactionStore) List(ctx context.Context, f model.TransactionFilter) ([]model.Transaction, error) {
	var where []string
	var args []any

	if f.UserID != nil {
		where = append(where, "user_id = ?")
		args = append(args, *f.UserID)
	}
	if f.Type != "" {
		where = append(where, "type = ?")
		args = append(args, f.Type)
	}
	if f.Search != "" {
		where = append(where, "description LIKE ? ESCAPE '\\'")
		args = append(args, "%"+escapeLike(f.Search)+"%")
	}
	if f.Start != nil {
		where = append(where, "timestamp >= ?")
		args = append(args, dbTime(*f.Start))
	}
	if f.End != nil {
		where = append(where, "timestamp < ?")
		args = append(args, dbTime(*f.End))
	}

	query := `SELECT ` + transactionCols + ` FROM transactions`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY timestamp DESC, id DESC"
	if f.Limit > 0 {
		query += " LIMIT ? OFFSET ?"
		args = append(args, f.Limit, f.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var txs []model.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		txs = append(txs, *tx)
	}
	return txs, rows.Err()
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
