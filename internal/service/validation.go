package service

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

const (
	MinAmount = 1
	MaxAmount = 1_000_000
)

var userIDPattern = regexp.MustCompile(`^\d{1,20}$`)

// ValidateAmount проверяет, что сумма лежит в диапазоне [MinAmount, MaxAmount]
func ValidateAmount(n int64) error {
	if n < MinAmount || n > MaxAmount {
		return fmt.Errorf("%w: must be between %d and %d", ErrInvalidAmount, MinAmount, MaxAmount)
	}
	return nil
}

// ParseAmount разбирает сумму из текста команды. Дробные числа и мусор отклоняются.
func ParseAmount(s string) (int64, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not an integer", ErrInvalidAmount, s)
	}
	if err := ValidateAmount(n); err != nil {
		return 0, err
	}
	return n, nil
}

func ValidateDistinctActors(actorID, targetID string) error {
	if actorID == targetID {
		return ErrSelfTarget
	}
	return nil
}

// ValidateNotBot - признак бота приходит от платформы чата, в хранилище его нет
func ValidateNotBot(targetIsBot bool) error {
	if targetIsBot {
		return ErrBotTarget
	}
	return nil
}

// ValidateUserID проверяет формат идентификатора пользователя платформы
func ValidateUserID(id string) error {
	if !userIDPattern.MatchString(id) {
		return fmt.Errorf("%w: %q", ErrInvalidUserID, id)
	}
	return nil
}
