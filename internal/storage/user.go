package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/linemk/pizza-coin/internal/domain/models"
)

const (
	selectUserQuery     = "SELECT id, balance, disabled, created_at FROM users WHERE id = $1"
	selectUserLockQuery = selectUserQuery + " FOR UPDATE"
)

func (r *repository) GetUser(ctx context.Context, id string) (*models.User, error) {
	query := selectUserQuery
	if r.inTx {
		// блокируем строку, чтобы параллельные операции не читали устаревший баланс
		query = selectUserLockQuery
	}

	user := &models.User{}
	row := r.q.QueryRowContext(ctx, query, id)
	if err := row.Scan(&user.ID, &user.Balance, &user.Disabled, &user.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

func (r *repository) CreateUser(ctx context.Context, id string) error {
	_, err := r.q.ExecContext(ctx,
		"INSERT INTO users (id, balance, disabled) VALUES ($1, 0, FALSE) ON CONFLICT (id) DO NOTHING", id)
	if err != nil && !isUniqueViolation(err) {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (r *repository) SetUserBalance(ctx context.Context, id string, balance int64) error {
	res, err := r.q.ExecContext(ctx,
		"UPDATE users SET balance = $1, updated_at = NOW() WHERE id = $2", balance, id)
	if err != nil {
		return fmt.Errorf("set user balance: %w", err)
	}
	return expectOneRow(res)
}

func (r *repository) SetUserDisabled(ctx context.Context, id string, disabled bool) error {
	res, err := r.q.ExecContext(ctx,
		"UPDATE users SET disabled = $1, updated_at = NOW() WHERE id = $2", disabled, id)
	if err != nil {
		return fmt.Errorf("set user disabled: %w", err)
	}
	return expectOneRow(res)
}

func (r *repository) ResetAllBalances(ctx context.Context) (int64, error) {
	res, err := r.q.ExecContext(ctx,
		"UPDATE users SET balance = 0, updated_at = NOW() WHERE balance <> 0")
	if err != nil {
		return 0, fmt.Errorf("reset balances: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("reset balances: rows affected: %w", err)
	}
	return affected, nil
}

func expectOneRow(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return ErrUserNotFound
	}
	return nil
}
