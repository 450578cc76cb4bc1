package service

import (
	"errors"
	"fmt"
)

// Ошибки леджера. Сравнивать через errors.Is, данные доставать через errors.As.
var (
	ErrInvalidAmount      = errors.New("invalid coin amount")
	ErrInvalidUserID      = errors.New("invalid user id")
	ErrSelfTarget         = errors.New("cannot target yourself")
	ErrBotTarget          = errors.New("cannot target a bot")
	ErrUserDisabled       = errors.New("user is disabled")
	ErrInsufficientFunds  = errors.New("insufficient coins")
	ErrUnauthorized       = errors.New("not authorized to perform this action")
	ErrInvalidPage        = errors.New("invalid page")
	ErrProvisioningFailed = errors.New("failed to provision user")
	ErrStore              = errors.New("store error")
)

// UserDisabledError - операция затронула отключённого пользователя
type UserDisabledError struct {
	UserID string
}

func (e *UserDisabledError) Error() string {
	return fmt.Sprintf("user %s is disabled", e.UserID)
}

func (e *UserDisabledError) Is(target error) bool { return target == ErrUserDisabled }

// InsufficientFundsError - на балансе отправителя меньше, чем требуется
type InsufficientFundsError struct {
	Required int64
	Current  int64
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient coins: required %d, current %d", e.Required, e.Current)
}

func (e *InsufficientFundsError) Is(target error) bool { return target == ErrInsufficientFunds }

// StoreError оборачивает любую ошибку хранилища. Такие ошибки не ретраятся.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("%s: store error: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

func (e *StoreError) Is(target error) bool { return target == ErrStore }

var ledgerErrors = []error{
	ErrInvalidAmount, ErrInvalidUserID, ErrSelfTarget, ErrBotTarget, ErrUserDisabled,
	ErrInsufficientFunds, ErrUnauthorized, ErrInvalidPage, ErrProvisioningFailed, ErrStore,
}

// classify оставляет ошибки леджера как есть, всё остальное превращает в StoreError
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	for _, known := range ledgerErrors {
		if errors.Is(err, known) {
			return fmt.Errorf("%s: %w", op, err)
		}
	}
	return &StoreError{Op: op, Err: err}
}
