package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/linemk/pizza-coin/internal/domain/models"
)

// GetConfig читает единственную строку настроек. Кэша нет: список админов может измениться в любой момент.
func (r *repository) GetConfig(ctx context.Context) (*models.Config, error) {
	cfg := &models.Config{}
	row := r.q.QueryRowContext(ctx, "SELECT coins_per_message, admin_ids FROM config WHERE id = TRUE")
	if err := row.Scan(&cfg.CoinsPerMessage, pq.Array(&cfg.AdminIDs)); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrConfigMissing
		}
		return nil, fmt.Errorf("get config: %w", err)
	}
	return cfg, nil
}

func (r *repository) SetCoinsPerMessage(ctx context.Context, amount int64) error {
	res, err := r.q.ExecContext(ctx,
		"UPDATE config SET coins_per_message = $1, updated_at = NOW() WHERE id = TRUE", amount)
	if err != nil {
		return fmt.Errorf("set coins per message: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("set coins per message: rows affected: %w", err)
	}
	if affected == 0 {
		return ErrConfigMissing
	}
	return nil
}
