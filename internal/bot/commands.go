package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/linemk/pizza-coin/internal/service"
)

type handlerFunc func(ctx context.Context, msg *tgbotapi.Message) error

func (b *Bot) commands() map[string]handlerFunc {
	return map[string]handlerFunc{
		"start":       b.help,
		"help":        b.help,
		"balance":     b.balance,
		"send":        b.sendCoins,
		"leaderboard": b.leaderboard,
		"token":       b.token,
		"setrate":     b.setRate,
		"disable":     b.disable,
		"enable":      b.enable,
		"confiscate":  b.confiscate,
		"reset":       b.reset,
	}
}

func (b *Bot) cooldownFor(command string) time.Duration {
	switch command {
	case "send":
		return b.opts.SendCooldown
	case "setrate", "disable", "enable", "confiscate", "reset":
		return b.opts.AdminCooldown
	}
	return 0
}

func (b *Bot) help(_ context.Context, msg *tgbotapi.Message) error {
	b.reply(msg, textHelp)
	return nil
}

func (b *Bot) balance(ctx context.Context, msg *tgbotapi.Message) error {
	coins, err := b.ledger.Balance(ctx, userIDOf(msg.From))
	if err != nil {
		return err
	}
	b.reply(msg, fmt.Sprintf("🍕 %s has %d Pizza coins", displayName(msg.From), coins))
	return nil
}

// sendCoins - обработчик /send
func (b *Bot) sendCoins(ctx context.Context, msg *tgbotapi.Message) error {
	t, rest, err := resolveTarget(msg)
	if err != nil {
		return err
	}
	if len(rest) != 1 {
		return commandError(usageSend)
	}
	amount, err := service.ParseAmount(rest[0])
	if err != nil {
		return err
	}

	err = b.ledger.Transfer(ctx, service.TransferRequest{
		SenderID:      userIDOf(msg.From),
		ReceiverID:    t.id,
		ReceiverIsBot: t.isBot,
		Amount:        amount,
	})
	if err != nil {
		return err
	}

	sender := displayName(msg.From)
	b.reply(msg, fmt.Sprintf("🍕 %s sent %d Pizza coins to %s", sender, amount, t.name))

	if b.opts.LogChatID != 0 {
		b.send(tgbotapi.NewMessage(b.opts.LogChatID, transactionLogText(sender, t.name, amount)))
	}
	return nil
}

func (b *Bot) leaderboard(ctx context.Context, msg *tgbotapi.Message) error {
	page := 1
	if arg := strings.TrimSpace(msg.CommandArguments()); arg != "" {
		p, err := strconv.Atoi(arg)
		if err != nil {
			return service.ErrInvalidPage
		}
		page = p
	}

	board, err := b.ledger.Leaderboard(ctx, page)
	if err != nil {
		return err
	}
	if len(board.Users) == 0 {
		return commandError("No users found in the leaderboard")
	}
	b.reply(msg, leaderboardText(board))
	return nil
}

// token выдаёт токен HTTP API, только в личном чате
func (b *Bot) token(_ context.Context, msg *tgbotapi.Message) error {
	if b.issueToken == nil {
		return commandError("HTTP API is disabled.")
	}
	if msg.Chat == nil || !msg.Chat.IsPrivate() {
		return commandError("Use /token in a private chat with the bot.")
	}
	tok, err := b.issueToken(userIDOf(msg.From))
	if err != nil {
		return err
	}
	b.reply(msg, "🔑 Your API token:\n"+tok)
	return nil
}

func (b *Bot) setRate(ctx context.Context, msg *tgbotapi.Message) error {
	amount, err := service.ParseAmount(msg.CommandArguments())
	if err != nil {
		return err
	}
	if err := b.ledger.SetCoinsPerMessage(ctx, userIDOf(msg.From), amount); err != nil {
		return err
	}
	b.reply(msg, adminText("Rate Updated", fmt.Sprintf("Successfully updated coins per message to %d Pizza coins", amount)))
	return nil
}

func (b *Bot) disable(ctx context.Context, msg *tgbotapi.Message) error {
	t, _, err := resolveTarget(msg)
	if err != nil {
		return err
	}
	if t.isBot {
		return commandError("You cannot disable a bot")
	}
	if t.id == userIDOf(msg.From) {
		return commandError("You cannot disable yourself")
	}
	if err := b.ledger.DisableUser(ctx, userIDOf(msg.From), t.id); err != nil {
		return err
	}
	b.reply(msg, adminText("User Disabled", fmt.Sprintf("Successfully disabled %s from using Pizza coins", t.name)))
	return nil
}

func (b *Bot) enable(ctx context.Context, msg *tgbotapi.Message) error {
	t, _, err := resolveTarget(msg)
	if err != nil {
		return err
	}
	if t.isBot {
		return commandError("You cannot enable/disable a bot")
	}
	if t.id == userIDOf(msg.From) {
		return commandError("You cannot enable/disable yourself")
	}
	if err := b.ledger.EnableUser(ctx, userIDOf(msg.From), t.id); err != nil {
		return err
	}
	b.reply(msg, adminText("User Enabled", fmt.Sprintf("Successfully enabled %s to use Pizza coins", t.name)))
	return nil
}

func (b *Bot) confiscate(ctx context.Context, msg *tgbotapi.Message) error {
	t, rest, err := resolveTarget(msg)
	if err != nil {
		return err
	}
	if t.isBot {
		return commandError("Cannot confiscate coins from a bot")
	}
	if t.id == userIDOf(msg.From) {
		return commandError("Cannot confiscate your own coins")
	}

	reason := strings.Join(rest, " ")
	if reason == "" {
		reason = service.DefaultConfiscationReason
	}
	amount, err := b.ledger.Confiscate(ctx, userIDOf(msg.From), t.id, reason)
	if err != nil {
		return err
	}
	b.reply(msg, adminText("🚫 Coins Confiscated",
		fmt.Sprintf("Successfully confiscated %d coins from %s\nReason: %s", amount, t.name, reason)))
	return nil
}

func (b *Bot) reset(ctx context.Context, msg *tgbotapi.Message) error {
	code := strings.TrimSpace(msg.CommandArguments())
	if b.guard == nil || !b.guard.Check(code) {
		return commandError("Invalid confirmation code.")
	}
	n, err := b.ledger.ResetAllBalances(ctx, userIDOf(msg.From))
	if err != nil {
		return err
	}
	b.reply(msg, adminText("🚨 System Reset",
		fmt.Sprintf("Successfully reset all users' coin balance to 0.\nAffected users: %d", n)))
	return nil
}

type target struct {
	id    string
	name  string
	isBot bool
}

// resolveTarget берёт цель из сообщения, на которое ответили, или из первого аргумента.
// Во втором случае признак бота неизвестен.
func resolveTarget(msg *tgbotapi.Message) (target, []string, error) {
	args := strings.Fields(msg.CommandArguments())

	if reply := msg.ReplyToMessage; reply != nil && reply.From != nil {
		return target{
			id:    userIDOf(reply.From),
			name:  displayName(reply.From),
			isBot: reply.From.IsBot,
		}, args, nil
	}

	if len(args) == 0 {
		return target{}, nil, commandError(usageTarget)
	}
	if err := service.ValidateUserID(args[0]); err != nil {
		return target{}, nil, err
	}
	return target{id: args[0], name: "user " + args[0]}, args[1:], nil
}

func displayName(u *tgbotapi.User) string {
	if u.UserName != "" {
		return "@" + u.UserName
	}
	if u.FirstName != "" {
		return u.FirstName
	}
	return "user " + userIDOf(u)
}
