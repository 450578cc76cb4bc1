package storage

import (
	"context"
	"fmt"

	"github.com/linemk/pizza-coin/internal/domain/models"
)

// AppendTransaction добавляет запись о переводе в журнал transactions.
func (r *repository) AppendTransaction(ctx context.Context, rec *models.TransactionRecord) error {
	query := `INSERT INTO transactions (id, sender_id, receiver_id, amount, timestamp) VALUES ($1, $2, $3, $4, $5)`
	_, err := r.q.ExecContext(ctx, query, rec.ID, rec.SenderID, rec.ReceiverID, rec.Amount, rec.Timestamp)
	if err != nil {
		return fmt.Errorf("failed to append transaction: %w", err)
	}
	return nil
}

// AppendConfiscation добавляет запись об изъятии в журнал confiscations.
func (r *repository) AppendConfiscation(ctx context.Context, rec *models.ConfiscationRecord) error {
	query := `INSERT INTO confiscations (id, admin_id, target_user_id, amount, reason, timestamp) VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.q.ExecContext(ctx, query, rec.ID, rec.AdminID, rec.TargetUserID, rec.Amount, rec.Reason, rec.Timestamp)
	if err != nil {
		return fmt.Errorf("failed to append confiscation: %w", err)
	}
	return nil
}
