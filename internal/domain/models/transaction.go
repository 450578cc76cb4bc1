package models

import (
	"time"

	"github.com/google/uuid"
)

// TransactionRecord представляет запись журнала о переводе монет между пользователями.
// Записи только добавляются и никогда не изменяются.
type TransactionRecord struct {
	ID         uuid.UUID `json:"id"`
	SenderID   string    `json:"sender_id"`
	ReceiverID string    `json:"receiver_id"`
	Amount     int64     `json:"amount"`
	Timestamp  time.Time `json:"timestamp"`
}
