package service

import (
	"errors"
	"fmt"
)

// MessageUnexpected показывается на любую ошибку, не относящуюся к правилам леджера
const MessageUnexpected = "An unexpected error occurred. Please try again later."

// UserMessage переводит ошибку леджера в короткий текст для пользователя.
// Детали сбоев хранилища наружу не попадают.
func UserMessage(err error) string {
	var funds *InsufficientFundsError
	if errors.As(err, &funds) {
		return fmt.Sprintf("Insufficient coins. You need %d coins but only have %d.", funds.Required, funds.Current)
	}

	switch {
	case errors.Is(err, ErrStore), errors.Is(err, ErrProvisioningFailed):
		return MessageUnexpected
	case errors.Is(err, ErrInvalidAmount):
		return fmt.Sprintf("Invalid coin amount. Must be between %d and %d.", MinAmount, MaxAmount)
	case errors.Is(err, ErrUserDisabled):
		return "This user has been disabled from using Pizza coins."
	case errors.Is(err, ErrUnauthorized):
		return "You are not authorized to perform this action."
	case errors.Is(err, ErrSelfTarget):
		return "You cannot send coins to yourself."
	case errors.Is(err, ErrBotTarget):
		return "You cannot send coins to a bot."
	case errors.Is(err, ErrInvalidPage):
		return "Invalid page number."
	case errors.Is(err, ErrInvalidUserID):
		return "Invalid user id."
	}
	return MessageUnexpected
}

// IsRejection сообщает, что операция отклонена правилами леджера, а не упала
func IsRejection(err error) bool {
	return err != nil && UserMessage(err) != MessageUnexpected
}
