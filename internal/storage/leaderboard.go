package storage

import (
	"context"
	"fmt"

	"github.com/linemk/pizza-coin/internal/domain/models"
)

// GetLeaderboard возвращает страницу рейтинга (нумерация страниц с 1) и общие итоги.
// Отключённые пользователи в рейтинг не попадают.
func (r *repository) GetLeaderboard(ctx context.Context, page, pageSize int) (*models.Leaderboard, error) {
	offset := (page - 1) * pageSize

	query := `
		SELECT id, balance, disabled, created_at
		FROM users
		WHERE disabled = FALSE
		ORDER BY balance DESC, id ASC
		LIMIT $1 OFFSET $2`
	rows, err := r.q.QueryContext(ctx, query, pageSize, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query leaderboard: %w", err)
	}
	defer rows.Close()

	board := &models.Leaderboard{
		Users:    make([]models.User, 0, pageSize),
		Page:     page,
		PageSize: pageSize,
	}
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.Balance, &u.Disabled, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan leaderboard row: %w", err)
		}
		board.Users = append(board.Users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// итоги считаем одним запросом
	row := r.q.QueryRowContext(ctx,
		"SELECT COUNT(*), COALESCE(SUM(balance), 0) FROM users WHERE disabled = FALSE")
	if err := row.Scan(&board.Total, &board.TotalCoins); err != nil {
		return nil, fmt.Errorf("failed to query leaderboard totals: %w", err)
	}
	return board, nil
}
