package bot

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/linemk/pizza-coin/internal/domain/models"
	"github.com/linemk/pizza-coin/internal/service"
)

const (
	textUnknownCommand = "Unknown command. Use /help for the list of commands."

	usageSend   = "Usage: reply to a message with /send <amount>, or /send <user id> <amount>"
	usageTarget = "Reply to the user's message or pass the user id as the first argument."

	textHelp = `🍕 Pizza Coin Bot Commands

General:
/balance - Check your Pizza coin balance
/send <user> <amount> - Send Pizza coins to another user
/leaderboard [page] - Show top Pizza coin holders
/token - Get an HTTP API token (private chat only)
/help - Show this help message

Admin:
/setrate <amount> - Set coins earned per message
/disable <user> - Disable a user from using Pizza coins
/enable <user> - Enable a disabled user
/confiscate <user> [reason] - Take all coins from a user
/reset <code> - Reset all balances to 0

<user> is a reply to the user's message or a numeric user id.
Chat to earn Pizza coins!`
)

// commandError - отказ, который формирует сам бот, текст уходит пользователю как есть
type commandError string

func (e commandError) Error() string { return string(e) }

// ErrorText переводит ошибку в сообщение для пользователя
func ErrorText(err error) string {
	var cmdErr commandError
	if errors.As(err, &cmdErr) {
		return string(cmdErr)
	}
	return service.UserMessage(err)
}

func cooldownText(left time.Duration) string {
	seconds := int(math.Ceil(left.Seconds()))
	if seconds < 1 {
		seconds = 1
	}
	return fmt.Sprintf("Please wait %d seconds before using this command again.", seconds)
}

func adminText(title, description string) string {
	return "👮 " + title + "\n" + description
}

func transactionLogText(sender, receiver string, amount int64) string {
	return fmt.Sprintf("🍕 Transaction Record\nSender: %s\nReceiver: %s\nAmount: %d Pizza coins", sender, receiver, amount)
}

func leaderboardText(board *models.Leaderboard) string {
	var sb strings.Builder
	sb.WriteString("🏆 Pizza Coin Leaderboard\n")
	fmt.Fprintf(&sb, "Page %d/%d\n", board.Page, board.Pages())

	for i, u := range board.Users {
		rank := (board.Page-1)*board.PageSize + i + 1
		fmt.Fprintf(&sb, "%s %d. %s - %d coins\n", medal(rank), rank, u.ID, u.Balance)
	}

	fmt.Fprintf(&sb, "\nTotal Users: %d | Total Coins: %d", board.Total, board.TotalCoins)
	return sb.String()
}

func medal(rank int) string {
	switch rank {
	case 1:
		return "🥇"
	case 2:
		return "🥈"
	case 3:
		return "🥉"
	}
	return "📍"
}
