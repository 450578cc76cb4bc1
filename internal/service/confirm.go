package service

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// DefaultResetCode - код подтверждения полного сброса по умолчанию
const DefaultResetCode = "RESET_ALL_CONFIRM"

// ResetGuard проверяет код подтверждения перед сбросом всех балансов.
// Сам код в памяти не хранится, только его bcrypt-хэш.
type ResetGuard struct {
	hash []byte
}

func NewResetGuard(code string) (*ResetGuard, error) {
	if code == "" {
		code = DefaultResetCode
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash reset code: %w", err)
	}
	return &ResetGuard{hash: hash}, nil
}

// Check возвращает true, если код совпадает
func (g *ResetGuard) Check(code string) bool {
	return bcrypt.CompareHashAndPassword(g.hash, []byte(code)) == nil
}
