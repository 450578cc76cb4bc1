package models

import (
	"time"

	"github.com/google/uuid"
)

// ConfiscationRecord представляет запись журнала об изъятии монет администратором
type ConfiscationRecord struct {
	ID           uuid.UUID `json:"id"`
	AdminID      string    `json:"admin_id"`
	TargetUserID string    `json:"target_user_id"`
	Amount       int64     `json:"amount"` // может быть 0: изъятие пустого баланса тоже фиксируется
	Reason       string    `json:"reason"`
	Timestamp    time.Time `json:"timestamp"`
}
